package graph

import (
	"acs/internal/domain"
)

// GrantPermission records a grant Permission for entityID on resourceID for
// verb/scheme. It fails with ErrPermissionExists if the same tuple already
// holds a permission in either direction (I6): callers must remove the
// existing one first, which keeps the audit trail explicit about the flip.
func (g *Graph) GrantPermission(entityID domain.EntityID, resourceID domain.ResourceID, verb domain.Verb, scheme string) (*domain.Permission, error) {
	return g.putPermission(entityID, resourceID, verb, scheme, true)
}

// DenyPermission records a deny Permission for entityID on resourceID for
// verb/scheme.
func (g *Graph) DenyPermission(entityID domain.EntityID, resourceID domain.ResourceID, verb domain.Verb, scheme string) (*domain.Permission, error) {
	return g.putPermission(entityID, resourceID, verb, scheme, false)
}

func (g *Graph) putPermission(entityID domain.EntityID, resourceID domain.ResourceID, verb domain.Verb, scheme string, grant bool) (*domain.Permission, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.entityKindOf(entityID); !ok {
		return nil, domain.ErrEntityNotFound
	}
	res, ok := g.resources[resourceID]
	if !ok || res.IsDeleted() {
		return nil, domain.ErrResourceNotFound
	}

	key := domain.PermissionKey{EntityID: entityID, ResourceID: resourceID, Verb: verb, Scheme: scheme}
	if _, exists := g.permissions[key]; exists {
		return nil, domain.ErrPermissionExists
	}

	id := g.nextPermID
	var p *domain.Permission
	if grant {
		p = domain.NewGrant(id, entityID, resourceID, verb, scheme)
	} else {
		p = domain.NewDeny(id, entityID, resourceID, verb, scheme)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	g.nextPermID++
	g.permissions[key] = p
	if _, ok := g.permsByEntity[entityID]; !ok {
		g.permsByEntity[entityID] = make(map[domain.PermissionKey]struct{})
	}
	g.permsByEntity[entityID][key] = struct{}{}
	g.bumpGeneration()
	return p, nil
}

// RemovePermission deletes the permission tuple identified by key.
func (g *Graph) RemovePermission(key domain.PermissionKey) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.permissions[key]; !ok {
		return domain.ErrPermissionNotFound
	}
	delete(g.permissions, key)
	if set, ok := g.permsByEntity[key.EntityID]; ok {
		delete(set, key)
	}
	g.bumpGeneration()
	return nil
}

// GetPermission returns the permission for the exact tuple key.
func (g *Graph) GetPermission(key domain.PermissionKey) (*domain.Permission, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.permissions[key]
	if !ok {
		return nil, domain.ErrPermissionNotFound
	}
	return p, nil
}

// PermissionsForEntity returns every permission directly attached to
// entityID, in no particular order. The evaluator calls this once per
// entity visited during an ancestor walk.
func (g *Graph) PermissionsForEntity(entityID domain.EntityID) []*domain.Permission {
	g.mu.RLock()
	defer g.mu.RUnlock()
	set, ok := g.permsByEntity[entityID]
	if !ok {
		return nil
	}
	out := make([]*domain.Permission, 0, len(set))
	for key := range set {
		if p, ok := g.permissions[key]; ok {
			out = append(out, p)
		}
	}
	return out
}

// AllPermissions returns a snapshot of every permission in the graph, used
// by audit export and full-catalog queries.
func (g *Graph) AllPermissions() []*domain.Permission {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*domain.Permission, 0, len(g.permissions))
	for _, p := range g.permissions {
		out = append(out, p)
	}
	return out
}
