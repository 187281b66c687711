package entity_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/facet/entity"
)

type OrderLine struct{ ID int }

type APIKey struct{ ID int }

type Company struct{ ID int }

func TestTableName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		class reflect.Type
		want  string
	}{
		{reflect.TypeOf(Account{}), "accounts"},
		{reflect.TypeOf(&Account{}), "accounts"},
		{reflect.TypeOf(OrderLine{}), "order_lines"},
		{reflect.TypeOf(APIKey{}), "api_keys"},
		{reflect.TypeOf(Company{}), "companies"},
		{reflect.TypeOf(struct{ ID int }{}), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, entity.TableName(tt.class), tt.want)
	}
}
