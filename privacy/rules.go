package privacy

import (
	"context"
	"slices"
	"strings"
)

// Viewer represents the authenticated user making a request.
// This interface should be implemented by application-specific user types.
type Viewer interface {
	// GetID returns the viewer's unique identifier.
	GetID() string
	// GetRoles returns the viewer's roles.
	GetRoles() []string
	// GetTenantID returns the viewer's tenant identifier for multi-tenancy.
	// Returns empty string if not applicable.
	GetTenantID() string
}

// viewerCtxKey is the context key for storing the viewer.
type viewerCtxKey struct{}

// WithViewer returns a new context with the viewer attached.
func WithViewer(ctx context.Context, viewer Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, viewer)
}

// ViewerFromContext retrieves the viewer from the context.
// Returns nil if no viewer is present.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerCtxKey{}).(Viewer)
	return v
}

// SimpleViewer is a basic implementation of the Viewer interface.
// Use this for testing or simple use cases.
type SimpleViewer struct {
	UserID   string
	Roles    []string
	TenantID string
}

// GetID returns the user ID.
func (v *SimpleViewer) GetID() string {
	return v.UserID
}

// GetRoles returns the user's roles.
func (v *SimpleViewer) GetRoles() []string {
	return v.Roles
}

// GetTenantID returns the tenant ID.
func (v *SimpleViewer) GetTenantID() string {
	return v.TenantID
}

// DenyIfNoViewer returns a rule that denies access if no viewer is present in the context.
// This is typically used as the first rule in a policy to require authentication.
//
// Example:
//
//	privacy.Policy{
//	    privacy.DenyIfNoViewer(),
//	    privacy.HasRole("admin"),
//	    privacy.AlwaysDenyRule(),
//	}
func DenyIfNoViewer() Rule {
	return ContextRule(func(ctx context.Context) error {
		if ViewerFromContext(ctx) == nil {
			return Denyf("privacy: viewer required")
		}
		return Skip
	})
}

// HasRole returns a rule that allows access if the viewer has the specified role.
// Skips if the viewer doesn't have the role (allows next rule to evaluate).
//
// Example:
//
//	privacy.Policy{
//	    privacy.DenyIfNoViewer(),
//	    privacy.HasRole("admin"),
//	    privacy.AlwaysDenyRule(),
//	}
func HasRole(role string) Rule {
	return ContextRule(func(ctx context.Context) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		if slices.Contains(viewer.GetRoles(), role) {
			return Allow
		}
		return Skip
	})
}

// HasAnyRole returns a rule that allows access if the viewer has any of the specified roles.
// Skips if the viewer doesn't have any of the roles (allows next rule to evaluate).
//
// Example:
//
//	privacy.Policy{
//	    privacy.DenyIfNoViewer(),
//	    privacy.HasAnyRole("admin", "moderator"),
//	    privacy.AlwaysDenyRule(),
//	}
func HasAnyRole(roles ...string) Rule {
	return ContextRule(func(ctx context.Context) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		viewerRoles := viewer.GetRoles()
		for _, role := range roles {
			if slices.Contains(viewerRoles, role) {
				return Allow
			}
		}
		return Skip
	})
}

// RequireTenant returns a rule that denies access if no viewer or
// tenant is present. Use this as a guard in front of tenant-scoped
// fields.
//
// Example:
//
//	privacy.Policy{
//	    privacy.RequireTenant(),
//	}
func RequireTenant() Rule {
	return ContextRule(func(ctx context.Context) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Denyf("privacy: viewer required for tenant-scoped access")
		}
		if viewer.GetTenantID() == "" {
			return Denyf("privacy: tenant required")
		}
		return Skip
	})
}

// DenyPathRule returns a rule denying the listed projection paths.
// A listed path covers its whole subtree, so "address" also denies
// "address.city".
//
// Example:
//
//	privacy.Policy{
//	    privacy.HasRole("admin"),
//	    privacy.DenyPathRule("email", "address.street"),
//	}
func DenyPathRule(paths ...string) Rule {
	return RuleFunc(func(_ context.Context, a Access) error {
		for _, path := range paths {
			if underPath(a.Path, path) {
				return Denyf("privacy: path %q is not exposed", a.Path)
			}
		}
		return Skip
	})
}

// AllowPathRule returns a rule allowing the listed projection paths
// and their subtrees. Combine with AlwaysDenyRule for an allowlist.
//
// Example:
//
//	privacy.Policy{
//	    privacy.AllowPathRule("id", "name"),
//	    privacy.AlwaysDenyRule(),
//	}
func AllowPathRule(paths ...string) Rule {
	return RuleFunc(func(_ context.Context, a Access) error {
		for _, path := range paths {
			if underPath(a.Path, path) {
				return Allow
			}
		}
		return Skip
	})
}

// underPath reports whether path equals prefix or sits in its subtree.
func underPath(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+".")
}
