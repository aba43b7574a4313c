package domain

import "testing"

func TestValidateURIPattern(t *testing.T) {
	tests := []struct {
		pattern string
		wantErr bool
	}{
		{"/documents/42", false},
		{"/documents/{id}", false},
		{"/documents/{id}/comments/{commentId}", false},
		{"/documents/*", false},
		{"/documents/{id}/*", false},
		{"", true},
		{"documents/42", true},
		{"/documents/{id", true},
		{"/documents/id}", true},
		{"/documents/{}", true},
		{"/documents/*/comments", true},
		{"/documents//42", true},
		{"/documents/fo*o", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			err := ValidateURIPattern(tt.pattern)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURIPattern(%q) error = %v, wantErr %v", tt.pattern, err, tt.wantErr)
			}
		})
	}
}

func TestResource_Validate(t *testing.T) {
	tests := []struct {
		name     string
		resource *Resource
		wantErr  error
	}{
		{
			name:     "valid",
			resource: NewResource(1, "/documents/{id}", "document", nil),
		},
		{
			name:     "zero id",
			resource: NewResource(0, "/documents/{id}", "document", nil),
			wantErr:  ErrInvalidResourceID,
		},
		{
			name:     "empty uri",
			resource: NewResource(1, "", "document", nil),
			wantErr:  ErrInvalidURIPattern,
		},
		{
			name:     "unbalanced braces",
			resource: NewResource(1, "/documents/{id", "document", nil),
			wantErr:  ErrInvalidURIPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.resource.Validate(); err != tt.wantErr {
				t.Errorf("Resource.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResource_IsDeleted(t *testing.T) {
	r := NewResource(1, "/documents/{id}", "document", nil)
	if r.IsDeleted() {
		t.Error("expected fresh resource to not be deleted")
	}
	now := r.CreatedAt
	r.DeletedAt = &now
	if !r.IsDeleted() {
		t.Error("expected resource with DeletedAt set to be deleted")
	}
}

func TestResource_ParentID(t *testing.T) {
	parent := ResourceID(1)
	child := NewResource(2, "/documents/{id}/comments/{commentId}", "comment", &parent)

	if child.ParentID == nil || *child.ParentID != parent {
		t.Fatalf("expected parent id %d, got %v", parent, child.ParentID)
	}
}
