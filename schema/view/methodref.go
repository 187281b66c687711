package view

import (
	"errors"
	"reflect"
)

// A MethodRef names the computation behind a computed field: a provider
// type, a method name, or both. The zero value is invalid; use ByType,
// ByName or By to construct one.
type MethodRef struct {
	target reflect.Type
	method string
}

// ByType references the computation by its provider type. The target is
// a sample value or a reflect.Type.
func ByType(target any) MethodRef {
	return MethodRef{target: targetOf(target)}
}

// ByName references the computation by method name only.
func ByName(method string) MethodRef {
	return MethodRef{method: method}
}

// By references the computation by provider type and method name.
func By(target any, method string) MethodRef {
	return MethodRef{target: targetOf(target), method: method}
}

func targetOf(target any) reflect.Type {
	if t, ok := target.(reflect.Type); ok {
		return indirect(t)
	}
	return indirect(reflect.TypeOf(target))
}

// Target returns the provider type, or nil if referenced by name only.
func (r MethodRef) Target() reflect.Type { return r.target }

// Method returns the method name, or the empty string if referenced by
// type only.
func (r MethodRef) Method() string { return r.method }

// IsZero reports if neither a target type nor a method name is set.
func (r MethodRef) IsZero() bool {
	return r.target == nil && r.method == ""
}

// Validate returns an error if the reference carries neither side.
func (r MethodRef) Validate() error {
	if r.IsZero() {
		return errors.New("method reference requires a target type or a method name")
	}
	return nil
}

// String renders the reference as "Target.Method", "Target" or "Method".
func (r MethodRef) String() string {
	switch {
	case r.target != nil && r.method != "":
		return r.target.String() + "." + r.method
	case r.target != nil:
		return r.target.String()
	default:
		return r.method
	}
}

// indirect returns the type a pointer type points to, or t itself.
func indirect(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}
