package domain

import "errors"

// Sentinel errors returned by the entity graph and command handlers.
// They are wrapped with context at call boundaries (fmt.Errorf("...: %w", err))
// and mapped to the stable apierr.Kind taxonomy at the command buffer boundary.
var (
	// Entity errors
	ErrInvalidEntityID   = errors.New("invalid entity id")
	ErrInvalidEntityName = errors.New("invalid entity name")
	ErrInvalidEntityKind = errors.New("invalid entity kind")
	ErrEntityNotFound    = errors.New("entity not found")
	ErrEntityExists      = errors.New("entity already exists")
	ErrEntitySoftDeleted = errors.New("entity is soft-deleted")

	// Group graph errors
	ErrCycleDetected     = errors.New("operation would create a cycle in the group graph")
	ErrAlreadyMember     = errors.New("already a member")
	ErrNotAMember        = errors.New("not a member")
	ErrDependenciesExist = errors.New("entity has dependent relations")

	// Resource errors
	ErrInvalidURIPattern = errors.New("invalid resource uri pattern")
	ErrResourceNotFound  = errors.New("resource not found")
	ErrInvalidResourceID = errors.New("invalid resource id")

	// Permission errors
	ErrInvalidVerb        = errors.New("invalid verb")
	ErrInvalidScheme      = errors.New("scheme is required")
	ErrGrantXorDeny       = errors.New("exactly one of grant or deny must be set")
	ErrPermissionExists   = errors.New("permission already exists for this entity/resource/verb/scheme")
	ErrPermissionNotFound = errors.New("permission not found")
	ErrIntegrityViolation = errors.New("invariant check failed")

	// Generic
	ErrEmptyName    = errors.New("name must not be empty")
	ErrUnauthorized = errors.New("unauthorized")
)
