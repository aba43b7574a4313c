package graph

import (
	"time"

	"acs/internal/domain"
)

// CreateUser inserts a new User under a freshly reserved id.
func (g *Graph) CreateUser(name string) (*domain.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextEntityID
	u := domain.NewUser(id, name, "")
	if err := u.Validate(); err != nil {
		return nil, err
	}
	g.nextEntityID++
	g.users[id] = u
	g.permsByEntity[id] = make(map[domain.PermissionKey]struct{})
	g.bumpGeneration()
	return u, nil
}

// GetUser returns the user with the given id.
func (g *Graph) GetUser(id domain.EntityID) (*domain.User, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	u, ok := g.users[id]
	if !ok || u.IsDeleted() {
		return nil, domain.ErrEntityNotFound
	}
	return u, nil
}

// ListUsers returns every non-deleted user.
func (g *Graph) ListUsers() []*domain.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*domain.User, 0, len(g.users))
	for _, u := range g.users {
		if !u.IsDeleted() {
			out = append(out, u)
		}
	}
	return out
}

// UpdateUser applies mutate to the stored user and revalidates it.
func (g *Graph) UpdateUser(id domain.EntityID, mutate func(*domain.User)) (*domain.User, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, ok := g.users[id]
	if !ok || u.IsDeleted() {
		return nil, domain.ErrEntityNotFound
	}
	updated := *u
	mutate(&updated)
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	g.users[id] = &updated
	g.bumpGeneration()
	return &updated, nil
}

// DeleteUser soft-deletes a user and removes it from every group/role
// membership it held, so the graph never has to special-case a deleted
// user's dangling relations.
func (g *Graph) DeleteUser(id domain.EntityID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, ok := g.users[id]
	if !ok || u.IsDeleted() {
		return domain.ErrEntityNotFound
	}

	for _, grp := range g.groups {
		delete(grp.MemberUserIDs, id)
	}
	for _, r := range g.roles {
		delete(r.MemberUserIDs, id)
	}

	now := time.Now().UTC()
	updated := *u
	updated.DeletedAt = &now
	g.users[id] = &updated
	g.bumpGeneration()
	return nil
}
