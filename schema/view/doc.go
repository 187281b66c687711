// Package view provides fluent builders for declaring projection fields.
//
// A projection (a DTO-shaped view over a persistent entity) declares how
// each of its fields relates to the entity model. Direct fields map
// one-to-one to an entity field path:
//
//	view.String("name").To("username")
//	view.Object("address", AddressDTO{}).To("address")
//
// The entity path may be nested and defaults to the field name itself:
//
//	view.String("zip").To("address.zipCode")
//	view.String("email") // maps to "email"
//
// # Collections
//
// Collection-valued fields carry their shape so that query builders can
// tell lists from maps and persistent collections from transient ones:
//
//	view.Object("orders", OrderDTO{}).To("orders").List()
//	view.Object("roles", RoleDTO{}).To("roles").Set().Transient()
//
// # Computed Fields
//
// Computed fields derive their value from one or more entity fields and
// optionally record the reducer applied when a dependency crosses a
// collection. Reducers are recorded, never executed here:
//
//	view.Computed("geographicZone").
//	    Requires("cityName", "streetName")
//
//	view.Computed("orderTotal").
//	    Requires("orders.amount").
//	    Reduce(view.Sum).
//	    Via(view.ByName("computeOrderTotal"))
//
// # Descriptors
//
// Builders accumulate into a Descriptor consumed by the loader. Invalid
// input does not panic; it is recorded on Descriptor.Err and reported
// when the projection is loaded.
package view
