package domain

import "acs/internal/apierr"

// init registers every domain sentinel error with the stable apierr.Kind
// taxonomy so the command buffer boundary can map them without importing
// this package's error variables one by one.
func init() {
	apierr.RegisterMapping(ErrInvalidEntityID, apierr.KindInvalidArgument, "invalid entity id")
	apierr.RegisterMapping(ErrInvalidEntityName, apierr.KindInvalidArgument, "invalid entity name")
	apierr.RegisterMapping(ErrInvalidEntityKind, apierr.KindInvalidArgument, "invalid entity kind")
	apierr.RegisterMapping(ErrEntityNotFound, apierr.KindNotFound, "entity not found")
	apierr.RegisterMapping(ErrEntityExists, apierr.KindConflict, "entity already exists")
	apierr.RegisterMapping(ErrEntitySoftDeleted, apierr.KindConflict, "entity is soft-deleted")

	apierr.RegisterMapping(ErrCycleDetected, apierr.KindCycleDetected, "operation would create a cycle in the group graph")
	apierr.RegisterMapping(ErrAlreadyMember, apierr.KindConflict, "already a member")
	apierr.RegisterMapping(ErrNotAMember, apierr.KindInvalidArgument, "not a member")
	apierr.RegisterMapping(ErrDependenciesExist, apierr.KindDependenciesExist, "entity has dependent relations")

	apierr.RegisterMapping(ErrInvalidURIPattern, apierr.KindInvalidArgument, "invalid resource uri pattern")
	apierr.RegisterMapping(ErrResourceNotFound, apierr.KindNotFound, "resource not found")
	apierr.RegisterMapping(ErrInvalidResourceID, apierr.KindInvalidArgument, "invalid resource id")

	apierr.RegisterMapping(ErrInvalidVerb, apierr.KindInvalidArgument, "invalid verb")
	apierr.RegisterMapping(ErrInvalidScheme, apierr.KindInvalidArgument, "scheme is required")
	apierr.RegisterMapping(ErrGrantXorDeny, apierr.KindInvalidArgument, "exactly one of grant or deny must be set")
	apierr.RegisterMapping(ErrPermissionExists, apierr.KindConflict, "permission already exists for this entity/resource/verb/scheme")
	apierr.RegisterMapping(ErrPermissionNotFound, apierr.KindNotFound, "permission not found")
	apierr.RegisterMapping(ErrIntegrityViolation, apierr.KindIntegrityViolation, "invariant check failed")

	apierr.RegisterMapping(ErrEmptyName, apierr.KindInvalidArgument, "name must not be empty")
	apierr.RegisterMapping(ErrUnauthorized, apierr.KindUnauthorized, "unauthorized")
}
