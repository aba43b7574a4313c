package graph

import (
	"time"

	"acs/internal/domain"
)

// CreateResource inserts a new Resource under a freshly reserved id. The
// URI pattern is validated at creation (§4.2): unbalanced braces fail here
// rather than surfacing later during evaluation.
func (g *Graph) CreateResource(uri, resourceType string, parentID *domain.ResourceID) (*domain.Resource, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if parentID != nil {
		p, ok := g.resources[*parentID]
		if !ok || p.IsDeleted() {
			return nil, domain.ErrResourceNotFound
		}
	}

	id := g.nextResourceID
	res := domain.NewResource(id, uri, resourceType, parentID)
	if err := res.Validate(); err != nil {
		return nil, err
	}
	g.nextResourceID++
	g.resources[id] = res
	g.bumpGeneration()
	return res, nil
}

// GetResource returns the resource with the given id.
func (g *Graph) GetResource(id domain.ResourceID) (*domain.Resource, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	res, ok := g.resources[id]
	if !ok || res.IsDeleted() {
		return nil, domain.ErrResourceNotFound
	}
	return res, nil
}

// ListResources returns every non-deleted resource in the catalog.
func (g *Graph) ListResources() []*domain.Resource {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*domain.Resource, 0, len(g.resources))
	for _, res := range g.resources {
		if !res.IsDeleted() {
			out = append(out, res)
		}
	}
	return out
}

// UpdateResource applies mutate to the stored resource and revalidates it.
func (g *Graph) UpdateResource(id domain.ResourceID, mutate func(*domain.Resource)) (*domain.Resource, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	res, ok := g.resources[id]
	if !ok || res.IsDeleted() {
		return nil, domain.ErrResourceNotFound
	}
	updated := *res
	mutate(&updated)
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	g.resources[id] = &updated
	g.bumpGeneration()
	return &updated, nil
}

// DeleteResource soft-deletes a resource and removes every permission tuple
// attached to it, since a permission without a live resource is meaningless.
func (g *Graph) DeleteResource(id domain.ResourceID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	res, ok := g.resources[id]
	if !ok || res.IsDeleted() {
		return domain.ErrResourceNotFound
	}

	for key, p := range g.permissions {
		if p.ResourceID == id {
			delete(g.permissions, key)
			if set, ok := g.permsByEntity[p.EntityID]; ok {
				delete(set, key)
			}
		}
	}

	now := time.Now().UTC()
	updated := *res
	updated.DeletedAt = &now
	g.resources[id] = &updated
	g.bumpGeneration()
	return nil
}
