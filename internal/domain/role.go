package domain

import "time"

// Role is a principal that may be contained by zero or more Groups and
// may contain Users directly (§3 Role). Unlike Group, a Role has no
// parent/child relation among roles — role inheritance flows only
// through the groups that contain a role.
type Role struct {
	Entity

	// GroupIDs are groups that contain this role.
	GroupIDs map[EntityID]struct{} `json:"-"`

	// MemberUserIDs are users directly assigned this role.
	MemberUserIDs map[EntityID]struct{} `json:"-"`
}

// NewRole constructs a Role with a fresh id and empty relation sets.
func NewRole(id EntityID, name string) *Role {
	now := time.Now().UTC()
	return &Role{
		Entity: Entity{
			ID:        id,
			Kind:      KindRole,
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		},
		GroupIDs:      make(map[EntityID]struct{}),
		MemberUserIDs: make(map[EntityID]struct{}),
	}
}

// Validate checks the role's own invariants in addition to Entity.Validate.
func (r *Role) Validate() error {
	if err := r.Entity.Validate(); err != nil {
		return err
	}
	if r.Kind != KindRole {
		return ErrInvalidEntityKind
	}
	return nil
}

// HasDependents reports whether any relation still references this role.
func (r *Role) HasDependents() bool {
	return len(r.GroupIDs) > 0 || len(r.MemberUserIDs) > 0
}
