// Package graph holds the entity graph: users, groups, roles, the resource
// catalog, and the permission tuples attached to them (§3, §4). It is the
// single in-memory source of truth that command handlers (C5) mutate under
// the command buffer's single-writer discipline and that the evaluator (C2)
// and queries read concurrently.
package graph

import (
	"sync"

	"acs/internal/domain"
)

// Graph is the entity graph. All mutation goes through its exported methods,
// which assume the caller (the command buffer's writer goroutine) already
// holds exclusivity; the mutex here protects concurrent readers (queries,
// the evaluator, cache invalidation) against the single writer, not writers
// against each other.
type Graph struct {
	mu sync.RWMutex

	nextEntityID   domain.EntityID
	nextResourceID domain.ResourceID
	nextPermID     int64

	users     map[domain.EntityID]*domain.User
	groups    map[domain.EntityID]*domain.Group
	roles     map[domain.EntityID]*domain.Role
	resources map[domain.ResourceID]*domain.Resource

	// permissions indexes every Permission by its logical tuple key so
	// GrantPermission/DenyPermission can detect a pre-existing tuple (I6)
	// in constant time.
	permissions map[domain.PermissionKey]*domain.Permission

	// permsByEntity indexes permission keys by subject entity for the
	// evaluator's ancestor walk and for GetEntityPermissions queries.
	permsByEntity map[domain.EntityID]map[domain.PermissionKey]struct{}

	generation uint64
}

// New returns an empty Graph with id counters starting at 1.
func New() *Graph {
	return &Graph{
		nextEntityID:   1,
		nextResourceID: 1,
		nextPermID:     1,
		users:          make(map[domain.EntityID]*domain.User),
		groups:         make(map[domain.EntityID]*domain.Group),
		roles:          make(map[domain.EntityID]*domain.Role),
		resources:      make(map[domain.ResourceID]*domain.Resource),
		permissions:    make(map[domain.PermissionKey]*domain.Permission),
		permsByEntity:  make(map[domain.EntityID]map[domain.PermissionKey]struct{}),
	}
}

// Generation returns the current mutation generation counter. The cache
// (C3) records the generation at decision-cache-fill time and treats a
// cached entry as stale once Generation() has moved past it (I5).
func (g *Graph) Generation() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.generation
}

// bumpGeneration must be called by every mutating method while holding the
// write lock, before the mutation becomes visible, so that any reader that
// observes the new generation also observes the new data (I5).
func (g *Graph) bumpGeneration() {
	g.generation++
}

// NextEntityID reserves and returns the next id in the shared user/group/
// role id-space (I1).
func (g *Graph) NextEntityID() domain.EntityID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextEntityID
	g.nextEntityID++
	return id
}

// NextResourceID reserves and returns the next resource catalog id.
func (g *Graph) NextResourceID() domain.ResourceID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextResourceID
	g.nextResourceID++
	return id
}

// NextPermissionID reserves and returns the next permission id.
func (g *Graph) NextPermissionID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextPermID
	g.nextPermID++
	return id
}

// entityKindOf reports the kind of id across all three principal maps, or
// ok=false if id is not present in any of them.
func (g *Graph) entityKindOf(id domain.EntityID) (domain.EntityKind, bool) {
	if _, ok := g.users[id]; ok {
		return domain.KindUser, true
	}
	if _, ok := g.groups[id]; ok {
		return domain.KindGroup, true
	}
	if _, ok := g.roles[id]; ok {
		return domain.KindRole, true
	}
	return "", false
}

// EntityExists reports whether id names a live (non-soft-deleted) principal.
func (g *Graph) EntityExists(id domain.EntityID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	kind, ok := g.entityKindOf(id)
	if !ok {
		return false
	}
	switch kind {
	case domain.KindUser:
		return !g.users[id].IsDeleted()
	case domain.KindGroup:
		return !g.groups[id].IsDeleted()
	case domain.KindRole:
		return !g.roles[id].IsDeleted()
	}
	return false
}
