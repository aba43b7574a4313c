package domain

import "time"

// Group is a principal that can contain Users and Roles directly, and
// that participates in a parent/child DAG with other Groups (I2: the
// parent relation must stay acyclic). The graph (C1) owns the relation
// indices; Group itself only carries its own header plus denormalized
// id sets for fast ancestor walks without extra map lookups.
type Group struct {
	Entity

	// ParentIDs are groups this group is a direct child of.
	ParentIDs map[EntityID]struct{} `json:"-"`

	// ChildIDs are groups that are direct children of this group.
	ChildIDs map[EntityID]struct{} `json:"-"`

	// MemberUserIDs are users directly in this group.
	MemberUserIDs map[EntityID]struct{} `json:"-"`

	// RoleIDs are roles contained directly by this group.
	RoleIDs map[EntityID]struct{} `json:"-"`
}

// NewGroup constructs a Group with a fresh id and empty relation sets.
func NewGroup(id EntityID, name string) *Group {
	now := time.Now().UTC()
	return &Group{
		Entity: Entity{
			ID:        id,
			Kind:      KindGroup,
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		},
		ParentIDs:     make(map[EntityID]struct{}),
		ChildIDs:      make(map[EntityID]struct{}),
		MemberUserIDs: make(map[EntityID]struct{}),
		RoleIDs:       make(map[EntityID]struct{}),
	}
}

// Validate checks the group's own invariants in addition to Entity.Validate.
func (g *Group) Validate() error {
	if err := g.Entity.Validate(); err != nil {
		return err
	}
	if g.Kind != KindGroup {
		return ErrInvalidEntityKind
	}
	return nil
}

// HasDependents reports whether any relation still references this group,
// which is what DeleteGroup consults to decide whether a plain (non-force)
// delete must be rejected (§4.5 DeleteGroup precondition).
func (g *Group) HasDependents() bool {
	return len(g.ParentIDs) > 0 || len(g.ChildIDs) > 0 ||
		len(g.MemberUserIDs) > 0 || len(g.RoleIDs) > 0
}
