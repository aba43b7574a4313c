package postgres

import (
	"testing"

	"acs/internal/domain"
)

func TestRelationColumns(t *testing.T) {
	tests := []struct {
		table           string
		left, right string
	}{
		{"acs_group_parents", "parent_id", "child_id"},
		{"acs_group_members", "group_id", "user_id"},
		{"acs_group_roles", "group_id", "role_id"},
		{"acs_role_members", "role_id", "user_id"},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			left, right := relationColumns(tt.table)
			if left != tt.left || right != tt.right {
				t.Errorf("relationColumns(%q) = (%q, %q), want (%q, %q)", tt.table, left, right, tt.left, tt.right)
			}
		})
	}
}

func TestEntityTable(t *testing.T) {
	tests := []struct {
		kind domain.EntityKind
		want string
	}{
		{domain.KindUser, "acs_users"},
		{domain.KindGroup, "acs_groups"},
		{domain.KindRole, "acs_roles"},
	}
	for _, tt := range tests {
		if got := entityTable(tt.kind); got != tt.want {
			t.Errorf("entityTable(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
