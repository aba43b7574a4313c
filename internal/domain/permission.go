package domain

import "time"

// Permission is a tuple binding an entity (user, group, or role) to a
// resource, verb, and scheme, with exactly one of Grant or Deny set (I3).
// A Deny on an ancestor entity or a broader resource pattern always wins
// over a Grant found elsewhere in the inheritance chain; that precedence
// is evaluated by package eval, not here.
type Permission struct {
	ID         int64      `json:"id"`
	EntityID   EntityID   `json:"entity_id"`
	ResourceID ResourceID `json:"resource_id"`
	Verb       Verb       `json:"verb"`
	Scheme     string     `json:"scheme"`
	Grant      bool       `json:"grant"`
	Deny       bool       `json:"deny"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// newPermission constructs a grant or deny Permission. Exactly one of grant
// or deny must be true; callers pick the constructor that matches intent
// rather than setting both fields themselves.
func newPermission(id int64, entityID EntityID, resourceID ResourceID, verb Verb, scheme string, grant, deny bool) *Permission {
	now := time.Now().UTC()
	return &Permission{
		ID:         id,
		EntityID:   entityID,
		ResourceID: resourceID,
		Verb:       verb,
		Scheme:     scheme,
		Grant:      grant,
		Deny:       deny,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewGrant constructs a granting Permission.
func NewGrant(id int64, entityID EntityID, resourceID ResourceID, verb Verb, scheme string) *Permission {
	return newPermission(id, entityID, resourceID, verb, scheme, true, false)
}

// NewDeny constructs a denying Permission.
func NewDeny(id int64, entityID EntityID, resourceID ResourceID, verb Verb, scheme string) *Permission {
	return newPermission(id, entityID, resourceID, verb, scheme, false, true)
}

// Validate checks the permission's own invariants (§3 Permission, I3).
func (p *Permission) Validate() error {
	if p.EntityID <= 0 {
		return ErrInvalidEntityID
	}
	if p.ResourceID <= 0 {
		return ErrInvalidResourceID
	}
	if !p.Verb.IsValid() {
		return ErrInvalidVerb
	}
	if p.Scheme == "" {
		return ErrInvalidScheme
	}
	if p.Grant == p.Deny {
		return ErrGrantXorDeny
	}
	return nil
}

// IsDeny reports whether this permission is a deny entry.
func (p *Permission) IsDeny() bool {
	return p.Deny
}

// Key identifies the logical tuple a Permission occupies, independent of
// its grant/deny value; two permissions sharing a Key conflict under I6.
type PermissionKey struct {
	EntityID   EntityID
	ResourceID ResourceID
	Verb       Verb
	Scheme     string
}

// Key returns the tuple identity used for uniqueness checks.
func (p *Permission) Key() PermissionKey {
	return PermissionKey{
		EntityID:   p.EntityID,
		ResourceID: p.ResourceID,
		Verb:       p.Verb,
		Scheme:     p.Scheme,
	}
}
