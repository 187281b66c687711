package facet_test

import (
	"reflect"
	"testing"
)

func BenchmarkToEntityPath(b *testing.B) {
	r, _, _ := newFixtureRegistry(b)
	class := reflect.TypeOf(UserView{})
	for _, bench := range []struct {
		name string
		path string
	}{
		{"Simple", "name"},
		{"Nested", "address.city"},
		{"Computed", "address.geographicZone"},
	} {
		b.Run(bench.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := r.ToEntityPath(bench.path, class, false); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkMetadataForImplicit(b *testing.B) {
	r, _, _ := newFixtureRegistry(b)
	class := reflect.TypeOf(User{})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := r.MetadataFor(class); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRequiredEntityFields(b *testing.B) {
	r, _, _ := newFixtureRegistry(b)
	class := reflect.TypeOf(UserView{})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := r.RequiredEntityFields(class); err != nil {
			b.Fatal(err)
		}
	}
}
