package domain

import "time"

// UserStatus is the lifecycle status of a User account.
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusDeleted UserStatus = "deleted"
)

// IsValid reports whether s is a recognized status.
func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusActive, UserStatusDeleted:
		return true
	default:
		return false
	}
}

// User is a principal that can be a member of Groups and hold Roles
// directly. The permission-subject identity of a User is its Entity.ID;
// everything else is profile data the core never interprets.
type User struct {
	Entity

	// Email is an optional contact address, unvalidated by the core.
	Email string `json:"email,omitempty"`

	// Status controls whether the account may be evaluated at all.
	Status UserStatus `json:"status"`

	// Metadata holds caller-defined profile data.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewUser constructs a User with a fresh id, ready for insertion into the
// entity graph. Callers assign IDs sequentially from the graph's counter.
func NewUser(id EntityID, name, createdBy string) *User {
	now := time.Now().UTC()
	return &User{
		Entity: Entity{
			ID:        id,
			Kind:      KindUser,
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Status: UserStatusActive,
	}
}

// Validate checks the user's own invariants in addition to Entity.Validate.
func (u *User) Validate() error {
	if err := u.Entity.Validate(); err != nil {
		return err
	}
	if u.Kind != KindUser {
		return ErrInvalidEntityKind
	}
	if !u.Status.IsValid() {
		return ErrInvalidEntityKind
	}
	return nil
}

// IsActive reports whether the account may participate in evaluation.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive && !u.IsDeleted()
}
