// Package repository defines the Repository Gateway (C7, §4.7): the
// abstract persistence boundary between the entity graph/audit log and
// whatever durable store backs them. A Gateway loads a graph at startup
// and commits each mutation plus its audit record in one transaction so a
// crash between the two is never possible.
package repository

import (
	"context"
	"errors"

	"acs/internal/audit"
	"acs/internal/domain"
)

// Sentinel errors, registered with apierr in mapping.go: ErrNotFound maps
// to KindNotFound, ErrTxClosed to KindInternal, and the load, commit and
// write failures to KindPersistenceFailure. A Gateway
// implementation wraps its own driver errors with these via %w so callers
// never need to know which backend is in use.
var (
	ErrNotFound     = errors.New("repository: record not found")
	ErrTxClosed     = errors.New("repository: transaction already committed or rolled back")
	ErrLoadFailed   = errors.New("repository: failed to load graph snapshot")
	ErrCommitFailed = errors.New("repository: failed to commit transaction")
	ErrWriteFailed  = errors.New("repository: failed to write mutation")
)

// Snapshot is the full entity graph state as loaded at startup (§4.7
// "load" mode: stream all entities, relations, permissions, resources").
type Snapshot struct {
	Users       []*domain.User
	Groups      []*domain.Group
	Roles       []*domain.Role
	Resources   []*domain.Resource
	Permissions []*domain.Permission

	NextEntityID   domain.EntityID
	NextResourceID domain.ResourceID
	NextPermissionID int64
}

// MutationWrite describes one graph mutation to persist, keyed the same
// way the command buffer keys handlers so the gateway's write-through
// layer and C5's handlers speak the same vocabulary. Payload is one of
// *domain.User, *domain.Group, *domain.Role, *domain.Resource,
// *domain.Permission (upsert), RelationWrite (an edge between two
// entities), or Removal (a hard delete) — every Gateway implementation
// switches on this same closed set so a handler never needs to know which
// backend is in use.
type MutationWrite struct {
	Kind    string
	Payload any
}

// RelationWrite adds or removes one edge of a many-to-many relation: group
// parent/child, group membership, group-role containment, or role
// assignment. Table names the owning relation the way the Postgres schema
// does (acs_group_parents, acs_group_members, acs_group_roles,
// acs_role_members); the in-memory Gateway uses the same names purely as a
// relation tag, not as an actual table.
type RelationWrite struct {
	Table           string
	LeftID, RightID domain.EntityID
	Remove          bool
}

// Removal is a hard delete of one row, keyed the way a Gateway's own
// storage keys it: a relational Gateway deletes by primary key (ID), an
// in-memory Gateway deletes by (EntityKind, EntityID) or by a
// PermissionKey when Key is set.
type Removal struct {
	Table string
	ID    int64

	EntityKind domain.EntityKind
	EntityID   domain.EntityID
	Key        *domain.PermissionKey
}

// Tx is one write-through unit of work: a handler calls Begin, then
// WriteMutation and WriteAudit (in either order, any number of times),
// then Commit. On any failure before Commit, the handler calls Rollback.
// The handlers apply their graph change before Begin, not after
// persistence succeeds, so on failure they also reverse that change
// themselves (see handlers.Service.commit and its undo callback).
type Tx interface {
	WriteMutation(ctx context.Context, m MutationWrite) error
	WriteAudit(ctx context.Context, record *audit.Record) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Gateway is the abstract persistence boundary (C7). Implementations:
// Memory in this package (default, tests) and repository/postgres (pgx).
type Gateway interface {
	// Load streams the full persisted graph back for C1 to restore via
	// graph.Graph's Restore* methods, and the persisted audit chain back
	// for C6 to replay.
	Load(ctx context.Context) (*Snapshot, []*audit.Record, error)

	// Begin starts a new write-through transaction.
	Begin(ctx context.Context) (Tx, error)

	// Close releases any held resources (connection pools, files).
	Close() error
}
