package graph

import "acs/internal/domain"

// Restore methods load persisted state back into an empty Graph at startup
// (§4.7 Repository Gateway "load" mode). Unlike CreateUser/CreateGroup/etc,
// they accept entities with ids already assigned by a prior run and do not
// allocate from the id counters, so the gateway must also call
// SetIDCounters once loading is complete.

// RestoreUser inserts u as-is, indexing it by its existing id.
func (g *Graph) RestoreUser(u *domain.User) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users[u.ID] = u
}

// RestoreGroup inserts grp as-is, indexing it by its existing id.
func (g *Graph) RestoreGroup(grp *domain.Group) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.groups[grp.ID] = grp
}

// RestoreRole inserts r as-is, indexing it by its existing id.
func (g *Graph) RestoreRole(r *domain.Role) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roles[r.ID] = r
}

// RestoreResource inserts res as-is, indexing it by its existing id.
func (g *Graph) RestoreResource(res *domain.Resource) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resources[res.ID] = res
}

// RestorePermission inserts p into both the primary and by-entity indexes.
func (g *Graph) RestorePermission(p *domain.Permission) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := p.Key()
	g.permissions[key] = p
	if g.permsByEntity[p.EntityID] == nil {
		g.permsByEntity[p.EntityID] = make(map[domain.PermissionKey]struct{})
	}
	g.permsByEntity[p.EntityID][key] = struct{}{}
}

// SetIDCounters fixes the next-id counters after a bulk Restore, so
// subsequent CreateX calls continue from where the persisted state left
// off instead of colliding with restored ids.
func (g *Graph) SetIDCounters(nextEntityID domain.EntityID, nextResourceID domain.ResourceID, nextPermissionID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextEntityID = nextEntityID
	g.nextResourceID = nextResourceID
	g.nextPermID = nextPermissionID
}
