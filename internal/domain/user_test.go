package domain

import "testing"

func TestUserStatus_IsValid(t *testing.T) {
	tests := []struct {
		status UserStatus
		valid  bool
	}{
		{UserStatusActive, true},
		{UserStatusDeleted, true},
		{UserStatus("suspended"), false},
		{UserStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.valid {
				t.Errorf("UserStatus(%q).IsValid() = %v, want %v", tt.status, got, tt.valid)
			}
		})
	}
}

func TestNewUser(t *testing.T) {
	u := NewUser(1, "alice", "admin-1")

	if u.ID != 1 {
		t.Errorf("expected ID 1, got %d", u.ID)
	}
	if u.Kind != KindUser {
		t.Errorf("expected KindUser, got %q", u.Kind)
	}
	if u.Name != "alice" {
		t.Errorf("expected name 'alice', got %q", u.Name)
	}
	if u.Status != UserStatusActive {
		t.Errorf("expected UserStatusActive, got %q", u.Status)
	}
	if !u.IsActive() {
		t.Error("expected new user to be active")
	}
}

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    *User
		wantErr error
	}{
		{
			name: "valid",
			user: &User{Entity: Entity{ID: 1, Kind: KindUser, Name: "alice"}, Status: UserStatusActive},
		},
		{
			name:    "wrong kind",
			user:    &User{Entity: Entity{ID: 1, Kind: KindGroup, Name: "alice"}, Status: UserStatusActive},
			wantErr: ErrInvalidEntityKind,
		},
		{
			name:    "invalid status",
			user:    &User{Entity: Entity{ID: 1, Kind: KindUser, Name: "alice"}, Status: UserStatus("bogus")},
			wantErr: ErrInvalidEntityKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.user.Validate(); err != tt.wantErr {
				t.Errorf("User.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUser_IsActive(t *testing.T) {
	u := NewUser(1, "alice", "admin-1")
	if !u.IsActive() {
		t.Error("expected active user to report active")
	}

	u.Status = UserStatusDeleted
	if u.IsActive() {
		t.Error("expected deleted-status user to report inactive")
	}

	u2 := NewUser(2, "bob", "admin-1")
	now := u2.CreatedAt
	u2.DeletedAt = &now
	if u2.IsActive() {
		t.Error("expected soft-deleted user to report inactive even with active status")
	}
}
