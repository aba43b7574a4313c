package domain

import (
	"strings"
	"time"
)

// ResourceID uniquely identifies a Resource. Resources are not permission
// subjects, so they live in their own id-space separate from EntityID.
type ResourceID int64

// Resource is a URI pattern in the catalog that Permissions attach to by
// resourceId. Patterns are segment-delimited by "/"; a segment of the form
// "{name}" matches exactly one path segment, and a trailing "*" matches one
// or more trailing segments. Matching against a concrete URI and specificity
// ordering both live in package eval; Resource only validates pattern syntax
// at creation (§4.2: "Patterns with unbalanced braces are rejected at
// creation").
type Resource struct {
	ID           ResourceID  `json:"id"`
	URI          string      `json:"uri"`
	ResourceType string      `json:"resource_type"`
	ParentID     *ResourceID `json:"parent_id,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	DeletedAt    *time.Time  `json:"deleted_at,omitempty"`
}

// NewResource constructs a Resource with a fresh id.
func NewResource(id ResourceID, uri, resourceType string, parentID *ResourceID) *Resource {
	now := time.Now().UTC()
	return &Resource{
		ID:           id,
		URI:          uri,
		ResourceType: resourceType,
		ParentID:     parentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate checks the resource's own invariants, including the URI pattern
// syntax.
func (r *Resource) Validate() error {
	if r.ID <= 0 {
		return ErrInvalidResourceID
	}
	if r.URI == "" {
		return ErrInvalidURIPattern
	}
	return ValidateURIPattern(r.URI)
}

// IsDeleted reports whether the resource has been soft-deleted.
func (r *Resource) IsDeleted() bool {
	return r.DeletedAt != nil
}

// ValidateURIPattern rejects patterns with unbalanced "{"/"}" braces, empty
// segments, or a non-trailing "*". It does not validate that "{name}" names
// are non-empty identifiers beyond requiring the braces to wrap something.
func ValidateURIPattern(pattern string) error {
	if pattern == "" || pattern[0] != '/' {
		return ErrInvalidURIPattern
	}
	segments := strings.Split(strings.Trim(pattern, "/"), "/")
	for i, seg := range segments {
		if seg == "" {
			return ErrInvalidURIPattern
		}
		openCount := strings.Count(seg, "{")
		closeCount := strings.Count(seg, "}")
		if openCount != closeCount {
			return ErrInvalidURIPattern
		}
		if seg == "*" {
			if i != len(segments)-1 {
				return ErrInvalidURIPattern
			}
			continue
		}
		if strings.Contains(seg, "*") {
			// "*" is only meaningful as a whole trailing segment.
			return ErrInvalidURIPattern
		}
		if strings.HasPrefix(seg, "{") != strings.HasSuffix(seg, "}") {
			return ErrInvalidURIPattern
		}
		if strings.HasPrefix(seg, "{") && len(seg) <= 2 {
			// "{}" — braces with no parameter name.
			return ErrInvalidURIPattern
		}
	}
	return nil
}
