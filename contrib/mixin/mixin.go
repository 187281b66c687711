// Package mixin provides reusable projection field sets for views.
//
// The mixins are optional starting points; most projects will add
// their own. Available mixins:
//   - CreateTime: createdAt read from created_at
//   - UpdateTime: updatedAt read from updated_at
//   - Time: CreateTime and UpdateTime combined
//   - ID: uuid id field
//   - SoftDelete: deletedAt read from deleted_at
//   - TenantID: tenantId read from tenant_id
//   - TimeSoftDelete: Time and SoftDelete combined
//
// Usage:
//
//	import "github.com/syssam/facet/contrib/mixin"
//
//	func (UserView) Mixin() []facet.Mixin {
//	    return []facet.Mixin{
//	        mixin.ID{},
//	        mixin.Time{},
//	    }
//	}
//
// Mixed-in fields load before the view's own fields, so a view cannot
// redeclare a field one of its mixins already contributes. Custom
// mixins are plain structs:
//
//	type Audit struct{}
//
//	func (Audit) Fields() []facet.ViewField {
//	    return []facet.ViewField{
//	        view.String("createdBy").To("created_by"),
//	        view.String("updatedBy").To("updated_by"),
//	    }
//	}
package mixin

import (
	"github.com/syssam/facet"
	"github.com/syssam/facet/schema/view"
)

// CreateTime projects the creation timestamp: createdAt read from the
// created_at entity field.
type CreateTime struct{}

// Fields of the create time mixin.
func (CreateTime) Fields() []facet.ViewField {
	return []facet.ViewField{
		view.Time("createdAt").To("created_at"),
	}
}

var _ facet.Mixin = (*CreateTime)(nil)

// UpdateTime projects the last-update timestamp: updatedAt read from
// the updated_at entity field.
type UpdateTime struct{}

// Fields of the update time mixin.
func (UpdateTime) Fields() []facet.ViewField {
	return []facet.ViewField{
		view.Time("updatedAt").To("updated_at"),
	}
}

var _ facet.Mixin = (*UpdateTime)(nil)

// Time combines CreateTime and UpdateTime. This is the common audit
// pair for views over timestamped entities.
type Time struct{}

// Fields of the time mixin.
func (Time) Fields() []facet.ViewField {
	return append(
		CreateTime{}.Fields(),
		UpdateTime{}.Fields()...,
	)
}

var _ facet.Mixin = (*Time)(nil)

// ID projects a uuid primary key under its entity name. Views keyed
// differently declare their own field:
//
//	view.Int("id")
type ID struct{}

// Fields of the ID mixin.
func (ID) Fields() []facet.ViewField {
	return []facet.ViewField{
		view.UUID("id"),
	}
}

var _ facet.Mixin = (*ID)(nil)

// SoftDelete projects the soft-deletion timestamp: deletedAt read from
// the deleted_at entity field. Filtering deleted rows stays with the
// query layer.
type SoftDelete struct{}

// Fields of the soft delete mixin.
func (SoftDelete) Fields() []facet.ViewField {
	return []facet.ViewField{
		view.Time("deletedAt").To("deleted_at"),
	}
}

var _ facet.Mixin = (*SoftDelete)(nil)

// TenantID projects the owning tenant: tenantId read from the
// tenant_id entity field.
type TenantID struct{}

// Fields of the tenant id mixin.
func (TenantID) Fields() []facet.ViewField {
	return []facet.ViewField{
		view.String("tenantId").To("tenant_id"),
	}
}

var _ facet.Mixin = (*TenantID)(nil)

// TimeSoftDelete combines Time and SoftDelete for views that expose a
// full audit trail.
type TimeSoftDelete struct{}

// Fields of the time soft delete mixin.
func (TimeSoftDelete) Fields() []facet.ViewField {
	return append(
		Time{}.Fields(),
		SoftDelete{}.Fields()...,
	)
}

var _ facet.Mixin = (*TimeSoftDelete)(nil)
