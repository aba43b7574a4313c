package repository

import (
	"context"
	"sync"

	"acs/internal/audit"
	"acs/internal/domain"
)

// Memory is an in-process Gateway backed by plain slices, used as the
// default backend for tests and for single-process deployments that do
// not need durability across restarts (§4.7's interface is deliberately
// backend-agnostic; this is the simplest conforming implementation).
type Memory struct {
	mu sync.Mutex

	users       map[domain.EntityID]*domain.User
	groups      map[domain.EntityID]*domain.Group
	roles       map[domain.EntityID]*domain.Role
	resources   map[domain.ResourceID]*domain.Resource
	permissions map[domain.PermissionKey]*domain.Permission

	nextEntityID     domain.EntityID
	nextResourceID   domain.ResourceID
	nextPermissionID int64

	auditRecords []*audit.Record
	mutations    []MutationWrite
}

// NewMemory returns an empty Memory gateway.
func NewMemory() *Memory {
	return &Memory{
		users:            make(map[domain.EntityID]*domain.User),
		groups:           make(map[domain.EntityID]*domain.Group),
		roles:            make(map[domain.EntityID]*domain.Role),
		resources:        make(map[domain.ResourceID]*domain.Resource),
		permissions:      make(map[domain.PermissionKey]*domain.Permission),
		nextEntityID:     1,
		nextResourceID:   1,
		nextPermissionID: 1,
	}
}

// Load returns a point-in-time snapshot of everything committed so far.
func (m *Memory) Load(ctx context.Context) (*Snapshot, []*audit.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := &Snapshot{
		NextEntityID:     m.nextEntityID,
		NextResourceID:   m.nextResourceID,
		NextPermissionID: m.nextPermissionID,
	}
	for _, u := range m.users {
		snap.Users = append(snap.Users, u)
	}
	for _, g := range m.groups {
		snap.Groups = append(snap.Groups, g)
	}
	for _, r := range m.roles {
		snap.Roles = append(snap.Roles, r)
	}
	for _, r := range m.resources {
		snap.Resources = append(snap.Resources, r)
	}
	for _, p := range m.permissions {
		snap.Permissions = append(snap.Permissions, p)
	}

	records := make([]*audit.Record, len(m.auditRecords))
	copy(records, m.auditRecords)

	return snap, records, nil
}

// Begin starts a memoryTx buffering writes until Commit applies them to m
// atomically under m.mu. There is no true rollback-of-partial-disk-state
// to worry about since nothing is visible to Load until Commit.
func (m *Memory) Begin(ctx context.Context) (Tx, error) {
	return &memoryTx{store: m}, nil
}

// Close is a no-op; Memory holds no external resources.
func (m *Memory) Close() error { return nil }

// recordEntity lets the command handlers hand the gateway freshly
// allocated entities/resources/permissions to persist, and advances the id
// counters the next Load snapshot reports so a later restart (against a
// durable Gateway) continues from the right id.
func (m *Memory) recordEntity(v any) {
	switch e := v.(type) {
	case *domain.User:
		m.users[e.ID] = e
		if e.ID >= m.nextEntityID {
			m.nextEntityID = e.ID + 1
		}
	case *domain.Group:
		m.groups[e.ID] = e
		if e.ID >= m.nextEntityID {
			m.nextEntityID = e.ID + 1
		}
	case *domain.Role:
		m.roles[e.ID] = e
		if e.ID >= m.nextEntityID {
			m.nextEntityID = e.ID + 1
		}
	case *domain.Resource:
		m.resources[e.ID] = e
		if e.ID >= m.nextResourceID {
			m.nextResourceID = e.ID + 1
		}
	case *domain.Permission:
		m.permissions[e.Key()] = e
		if e.ID >= m.nextPermissionID {
			m.nextPermissionID = e.ID + 1
		}
	case Removal:
		m.applyRemoval(e)
	case RelationWrite:
		// No-op: Group/Role relation sets are embedded in the entity
		// itself, so the matching *domain.Group/*domain.Role upsert
		// already carries the updated edges.
	}
}

func (m *Memory) applyRemoval(r Removal) {
	if r.Key != nil {
		delete(m.permissions, *r.Key)
		return
	}
	switch r.EntityKind {
	case domain.KindUser:
		delete(m.users, r.EntityID)
	case domain.KindGroup:
		delete(m.groups, r.EntityID)
	case domain.KindRole:
		delete(m.roles, r.EntityID)
	}
}

// memoryTx buffers the writes of one handler invocation and applies them
// to the backing Memory store only on Commit.
type memoryTx struct {
	store  *Memory
	writes []any
	audits []*audit.Record
	done   bool
}

func (tx *memoryTx) WriteMutation(ctx context.Context, m MutationWrite) error {
	if tx.done {
		return ErrTxClosed
	}
	tx.writes = append(tx.writes, m.Payload)
	return nil
}

func (tx *memoryTx) WriteAudit(ctx context.Context, record *audit.Record) error {
	if tx.done {
		return ErrTxClosed
	}
	tx.audits = append(tx.audits, record)
	return nil
}

func (tx *memoryTx) Commit(ctx context.Context) error {
	if tx.done {
		return ErrTxClosed
	}
	tx.done = true

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	for _, w := range tx.writes {
		tx.store.recordEntity(w)
	}
	tx.store.auditRecords = append(tx.store.auditRecords, tx.audits...)
	return nil
}

func (tx *memoryTx) Rollback(ctx context.Context) error {
	tx.done = true
	tx.writes = nil
	tx.audits = nil
	return nil
}
