package domain

import (
	"encoding/json"
	"strings"
)

// Category is the closed set of asset categories
type Category string

const (
	CategoryUIKits          Category = "ui-kits"
	CategoryTemplates       Category = "templates"
	CategoryMiniProjects    Category = "mini-projects"
	CategoryUtilities       Category = "utilities"
	CategoryAPICollections  Category = "api-collections"
	CategorySnippets        Category = "snippets"
	CategoryProjectStarters Category = "project-starters"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryUIKits,
	CategoryTemplates,
	CategoryMiniProjects,
	CategoryUtilities,
	CategoryAPICollections,
	CategorySnippets,
	CategoryProjectStarters,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory converts raw input into a Category or fails with ValidationFailed
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", Validation("Invalid category")
	}
	return c, nil
}

// UnmarshalJSON rejects unknown categories at decode time
func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return Validation("Invalid category")
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Role is the closed set of user roles
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

// Roles lists every role
var Roles = []Role{RoleAdmin, RoleSeller, RoleBuyer}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSeller || r == RoleBuyer
}

// ParseRole converts raw input into a Role or fails with ValidationFailed
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.Valid() {
		return "", Validation("Valid role is required")
	}
	return r, nil
}

// UnmarshalJSON rejects unknown roles at decode time
func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return Validation("Valid role is required")
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID uint // Authenticated user ID
	Role   Role // Role loaded from the store for this request
}

// IsAdmin reports whether the actor has admin capability
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanSell reports whether the actor may publish assets
func (a Actor) CanSell() bool {
	return a.Role == RoleSeller || a.Role == RoleAdmin
}
