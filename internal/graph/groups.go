package graph

import (
	"time"

	"acs/internal/domain"
)

// CreateGroup inserts a new Group under a freshly reserved id.
func (g *Graph) CreateGroup(name string) (*domain.Group, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextEntityID
	grp := domain.NewGroup(id, name)
	if err := grp.Validate(); err != nil {
		return nil, err
	}
	g.nextEntityID++
	g.groups[id] = grp
	g.permsByEntity[id] = make(map[domain.PermissionKey]struct{})
	g.bumpGeneration()
	return grp, nil
}

// GetGroup returns the group with the given id.
func (g *Graph) GetGroup(id domain.EntityID) (*domain.Group, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	grp, ok := g.groups[id]
	if !ok || grp.IsDeleted() {
		return nil, domain.ErrEntityNotFound
	}
	return grp, nil
}

// ListGroups returns every non-deleted group.
func (g *Graph) ListGroups() []*domain.Group {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*domain.Group, 0, len(g.groups))
	for _, grp := range g.groups {
		if !grp.IsDeleted() {
			out = append(out, grp)
		}
	}
	return out
}

// UpdateGroup applies mutate to the stored group and revalidates it.
func (g *Graph) UpdateGroup(id domain.EntityID, mutate func(*domain.Group)) (*domain.Group, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	grp, ok := g.groups[id]
	if !ok || grp.IsDeleted() {
		return nil, domain.ErrEntityNotFound
	}
	updated := *grp
	mutate(&updated)
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	g.groups[id] = &updated
	g.bumpGeneration()
	return &updated, nil
}

// DeleteGroup removes a group. A plain delete is rejected if the group has
// any dependents (§4.5); force bypasses that check and severs every
// relation pointing at the group instead.
func (g *Graph) DeleteGroup(id domain.EntityID, force bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	grp, ok := g.groups[id]
	if !ok || grp.IsDeleted() {
		return domain.ErrEntityNotFound
	}
	if !force && grp.HasDependents() {
		return domain.ErrDependenciesExist
	}

	for _, parent := range g.groups {
		delete(parent.ChildIDs, id)
	}
	for child := range grp.ChildIDs {
		if c, ok := g.groups[child]; ok {
			delete(c.ParentIDs, id)
		}
	}
	for _, r := range g.roles {
		delete(r.GroupIDs, id)
	}

	now := time.Now().UTC()
	updated := *grp
	updated.DeletedAt = &now
	g.groups[id] = &updated
	g.bumpGeneration()
	return nil
}

// AddUserToGroup adds user userID as a direct member of group groupID.
func (g *Graph) AddUserToGroup(groupID, userID domain.EntityID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	grp, ok := g.groups[groupID]
	if !ok || grp.IsDeleted() {
		return domain.ErrEntityNotFound
	}
	u, ok := g.users[userID]
	if !ok || u.IsDeleted() {
		return domain.ErrEntityNotFound
	}
	if _, already := grp.MemberUserIDs[userID]; already {
		return domain.ErrAlreadyMember
	}
	grp.MemberUserIDs[userID] = struct{}{}
	g.bumpGeneration()
	return nil
}

// RemoveUserFromGroup removes user userID from group groupID's direct
// membership.
func (g *Graph) RemoveUserFromGroup(groupID, userID domain.EntityID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	grp, ok := g.groups[groupID]
	if !ok || grp.IsDeleted() {
		return domain.ErrEntityNotFound
	}
	if _, ok := grp.MemberUserIDs[userID]; !ok {
		return domain.ErrNotAMember
	}
	delete(grp.MemberUserIDs, userID)
	g.bumpGeneration()
	return nil
}

// AddRoleToGroup attaches role roleID to group groupID.
func (g *Graph) AddRoleToGroup(groupID, roleID domain.EntityID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	grp, ok := g.groups[groupID]
	if !ok || grp.IsDeleted() {
		return domain.ErrEntityNotFound
	}
	r, ok := g.roles[roleID]
	if !ok || r.IsDeleted() {
		return domain.ErrEntityNotFound
	}
	if _, already := grp.RoleIDs[roleID]; already {
		return domain.ErrAlreadyMember
	}
	grp.RoleIDs[roleID] = struct{}{}
	r.GroupIDs[groupID] = struct{}{}
	g.bumpGeneration()
	return nil
}

// RemoveRoleFromGroup detaches role roleID from group groupID.
func (g *Graph) RemoveRoleFromGroup(groupID, roleID domain.EntityID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	grp, ok := g.groups[groupID]
	if !ok || grp.IsDeleted() {
		return domain.ErrEntityNotFound
	}
	if _, ok := grp.RoleIDs[roleID]; !ok {
		return domain.ErrNotAMember
	}
	delete(grp.RoleIDs, roleID)
	if r, ok := g.roles[roleID]; ok {
		delete(r.GroupIDs, groupID)
	}
	g.bumpGeneration()
	return nil
}

// AddGroupToGroup makes childID a direct child of parentID. The operation
// is rejected if it would introduce a cycle in the parent/child DAG (I2),
// checked by walking childID's existing descendants: if parentID is already
// reachable from childID, adding the edge would close a loop.
func (g *Graph) AddGroupToGroup(parentID, childID domain.EntityID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	parent, ok := g.groups[parentID]
	if !ok || parent.IsDeleted() {
		return domain.ErrEntityNotFound
	}
	child, ok := g.groups[childID]
	if !ok || child.IsDeleted() {
		return domain.ErrEntityNotFound
	}
	if parentID == childID {
		return domain.ErrCycleDetected
	}
	if _, already := parent.ChildIDs[childID]; already {
		return domain.ErrAlreadyMember
	}
	if g.isDescendant(childID, parentID) {
		return domain.ErrCycleDetected
	}

	parent.ChildIDs[childID] = struct{}{}
	child.ParentIDs[parentID] = struct{}{}
	g.bumpGeneration()
	return nil
}

// RemoveGroupFromGroup severs the parent/child edge between parentID and
// childID.
func (g *Graph) RemoveGroupFromGroup(parentID, childID domain.EntityID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	parent, ok := g.groups[parentID]
	if !ok || parent.IsDeleted() {
		return domain.ErrEntityNotFound
	}
	if _, ok := parent.ChildIDs[childID]; !ok {
		return domain.ErrNotAMember
	}
	delete(parent.ChildIDs, childID)
	if child, ok := g.groups[childID]; ok {
		delete(child.ParentIDs, parentID)
	}
	g.bumpGeneration()
	return nil
}

// isDescendant reports whether target is reachable from start by following
// ChildIDs edges. Visited tracking makes it safe even if the graph were
// already corrupt, though AddGroupToGroup's own check keeps it acyclic.
func (g *Graph) isDescendant(start, target domain.EntityID) bool {
	if start == target {
		return true
	}
	visited := map[domain.EntityID]struct{}{start: {}}
	stack := []domain.EntityID{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		grp, ok := g.groups[cur]
		if !ok {
			continue
		}
		for child := range grp.ChildIDs {
			if child == target {
				return true
			}
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			stack = append(stack, child)
		}
	}
	return false
}
