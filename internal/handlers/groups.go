package handlers

import (
	"context"
	"time"

	"acs/internal/apierr"
	"acs/internal/audit"
	"acs/internal/command"
	"acs/internal/domain"
	"acs/internal/repository"
)

// CreateGroupPayload is the command.Command.Payload for command.KindCreateGroup.
type CreateGroupPayload struct {
	Name string
}

func (s *Service) handleCreateGroup(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(CreateGroupPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "CreateGroup payload has the wrong type", nil)
	}

	g, err := s.Graph.CreateGroup(payload.Name)
	if err != nil {
		return nil, err
	}
	undo := func() { s.Graph.DeleteGroup(g.ID, true) }

	_, err = s.commit(ctx, audit.EntityTypeGroup, audit.EntityIDString(g.ID), audit.ChangeCreateGroup,
		cmd.SubmittedBy, map[string]string{"name": g.Name}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeCreateGroup), Payload: g})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// UpdateGroupPayload is the command.Command.Payload for command.KindUpdateGroup.
type UpdateGroupPayload struct {
	ID   domain.EntityID
	Name *string
}

func (s *Service) handleUpdateGroup(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(UpdateGroupPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "UpdateGroup payload has the wrong type", nil)
	}

	before, err := s.Graph.GetGroup(payload.ID)
	if err != nil {
		return nil, err
	}
	snapshot := *before

	g, err := s.Graph.UpdateGroup(payload.ID, func(grp *domain.Group) {
		if payload.Name != nil {
			grp.Name = *payload.Name
		}
	})
	if err != nil {
		return nil, err
	}
	undo := func() {
		s.Graph.UpdateGroup(payload.ID, func(grp *domain.Group) { *grp = snapshot })
	}

	_, err = s.commit(ctx, audit.EntityTypeGroup, audit.EntityIDString(g.ID), audit.ChangeUpdateGroup,
		cmd.SubmittedBy, map[string]string{"name": g.Name}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeUpdateGroup), Payload: g})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(g.ID)
	return g, nil
}

// DeleteGroupPayload is the command.Command.Payload for command.KindDeleteGroup.
type DeleteGroupPayload struct {
	ID    domain.EntityID
	Force bool
}

func (s *Service) handleDeleteGroup(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(DeleteGroupPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "DeleteGroup payload has the wrong type", nil)
	}

	before, err := s.Graph.GetGroup(payload.ID)
	if err != nil {
		return nil, err
	}
	snapshot := *before

	if err := s.Graph.DeleteGroup(payload.ID, payload.Force); err != nil {
		return nil, err
	}
	undo := func() { s.Graph.RestoreGroup(&snapshot) }

	deleted := snapshot
	now := time.Now().UTC()
	deleted.DeletedAt = &now
	_, err = s.commit(ctx, audit.EntityTypeGroup, audit.EntityIDString(payload.ID), audit.ChangeDeleteGroup,
		cmd.SubmittedBy, nil, undo,
		repository.MutationWrite{Kind: string(audit.ChangeDeleteGroup), Payload: &deleted})
	if err != nil {
		return nil, err
	}
	s.Cache.Clear()
	return nil, nil
}

// AddUserToGroupPayload is the command.Command.Payload for command.KindAddUserToGroup.
type AddUserToGroupPayload struct {
	GroupID domain.EntityID
	UserID  domain.EntityID
}

func (s *Service) handleAddUserToGroup(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(AddUserToGroupPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "AddUserToGroup payload has the wrong type", nil)
	}

	if err := s.Graph.AddUserToGroup(payload.GroupID, payload.UserID); err != nil {
		return nil, err
	}
	undo := func() { s.Graph.RemoveUserFromGroup(payload.GroupID, payload.UserID) }

	grp, _ := s.Graph.GetGroup(payload.GroupID)
	_, err := s.commit(ctx, audit.EntityTypeGroup, audit.EntityIDString(payload.GroupID), audit.ChangeAddUserToGroup,
		cmd.SubmittedBy, map[string]string{"userId": audit.EntityIDString(payload.UserID)}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeAddUserToGroup), Payload: grp},
		repository.MutationWrite{Kind: string(audit.ChangeAddUserToGroup), Payload: repository.RelationWrite{
			Table: "acs_group_members", LeftID: payload.GroupID, RightID: payload.UserID,
		}})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(payload.UserID)
	return nil, nil
}

// RemoveUserFromGroupPayload is the command.Command.Payload for command.KindRemoveUserFromGroup.
type RemoveUserFromGroupPayload struct {
	GroupID domain.EntityID
	UserID  domain.EntityID
}

func (s *Service) handleRemoveUserFromGroup(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(RemoveUserFromGroupPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "RemoveUserFromGroup payload has the wrong type", nil)
	}

	if err := s.Graph.RemoveUserFromGroup(payload.GroupID, payload.UserID); err != nil {
		return nil, err
	}
	undo := func() { s.Graph.AddUserToGroup(payload.GroupID, payload.UserID) }

	grp, _ := s.Graph.GetGroup(payload.GroupID)
	_, err := s.commit(ctx, audit.EntityTypeGroup, audit.EntityIDString(payload.GroupID), audit.ChangeRemoveUserFromGroup,
		cmd.SubmittedBy, map[string]string{"userId": audit.EntityIDString(payload.UserID)}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeRemoveUserFromGroup), Payload: grp},
		repository.MutationWrite{Kind: string(audit.ChangeRemoveUserFromGroup), Payload: repository.RelationWrite{
			Table: "acs_group_members", LeftID: payload.GroupID, RightID: payload.UserID, Remove: true,
		}})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(payload.UserID)
	return nil, nil
}

// AddRoleToGroupPayload is the command.Command.Payload for command.KindAddRoleToGroup.
type AddRoleToGroupPayload struct {
	GroupID domain.EntityID
	RoleID  domain.EntityID
}

func (s *Service) handleAddRoleToGroup(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(AddRoleToGroupPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "AddRoleToGroup payload has the wrong type", nil)
	}

	if err := s.Graph.AddRoleToGroup(payload.GroupID, payload.RoleID); err != nil {
		return nil, err
	}
	undo := func() { s.Graph.RemoveRoleFromGroup(payload.GroupID, payload.RoleID) }

	grp, _ := s.Graph.GetGroup(payload.GroupID)
	role, _ := s.Graph.GetRole(payload.RoleID)
	_, err := s.commit(ctx, audit.EntityTypeGroup, audit.EntityIDString(payload.GroupID), audit.ChangeAddRoleToGroup,
		cmd.SubmittedBy, map[string]string{"roleId": audit.EntityIDString(payload.RoleID)}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeAddRoleToGroup), Payload: grp},
		repository.MutationWrite{Kind: string(audit.ChangeAddRoleToGroup), Payload: role},
		repository.MutationWrite{Kind: string(audit.ChangeAddRoleToGroup), Payload: repository.RelationWrite{
			Table: "acs_group_roles", LeftID: payload.GroupID, RightID: payload.RoleID,
		}})
	if err != nil {
		return nil, err
	}
	s.Cache.Clear()
	return nil, nil
}

// RemoveRoleFromGroupPayload is the command.Command.Payload for command.KindRemoveRoleFromGroup.
type RemoveRoleFromGroupPayload struct {
	GroupID domain.EntityID
	RoleID  domain.EntityID
}

func (s *Service) handleRemoveRoleFromGroup(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(RemoveRoleFromGroupPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "RemoveRoleFromGroup payload has the wrong type", nil)
	}

	if err := s.Graph.RemoveRoleFromGroup(payload.GroupID, payload.RoleID); err != nil {
		return nil, err
	}
	undo := func() { s.Graph.AddRoleToGroup(payload.GroupID, payload.RoleID) }

	grp, _ := s.Graph.GetGroup(payload.GroupID)
	role, _ := s.Graph.GetRole(payload.RoleID)
	_, err := s.commit(ctx, audit.EntityTypeGroup, audit.EntityIDString(payload.GroupID), audit.ChangeRemoveRoleFromGroup,
		cmd.SubmittedBy, map[string]string{"roleId": audit.EntityIDString(payload.RoleID)}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeRemoveRoleFromGroup), Payload: grp},
		repository.MutationWrite{Kind: string(audit.ChangeRemoveRoleFromGroup), Payload: role},
		repository.MutationWrite{Kind: string(audit.ChangeRemoveRoleFromGroup), Payload: repository.RelationWrite{
			Table: "acs_group_roles", LeftID: payload.GroupID, RightID: payload.RoleID, Remove: true,
		}})
	if err != nil {
		return nil, err
	}
	s.Cache.Clear()
	return nil, nil
}

// AddGroupToGroupPayload is the command.Command.Payload for command.KindAddGroupToGroup.
type AddGroupToGroupPayload struct {
	ParentID domain.EntityID
	ChildID  domain.EntityID
}

func (s *Service) handleAddGroupToGroup(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(AddGroupToGroupPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "AddGroupToGroup payload has the wrong type", nil)
	}

	if err := s.Graph.AddGroupToGroup(payload.ParentID, payload.ChildID); err != nil {
		return nil, err
	}
	undo := func() { s.Graph.RemoveGroupFromGroup(payload.ParentID, payload.ChildID) }

	parent, _ := s.Graph.GetGroup(payload.ParentID)
	child, _ := s.Graph.GetGroup(payload.ChildID)
	_, err := s.commit(ctx, audit.EntityTypeGroup, audit.EntityIDString(payload.ParentID), audit.ChangeAddGroupToGroup,
		cmd.SubmittedBy, map[string]string{"childId": audit.EntityIDString(payload.ChildID)}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeAddGroupToGroup), Payload: parent},
		repository.MutationWrite{Kind: string(audit.ChangeAddGroupToGroup), Payload: child},
		repository.MutationWrite{Kind: string(audit.ChangeAddGroupToGroup), Payload: repository.RelationWrite{
			Table: "acs_group_parents", LeftID: payload.ParentID, RightID: payload.ChildID,
		}})
	if err != nil {
		return nil, err
	}
	// A new nesting edge can change the effective permissions of every
	// member of the child subtree, not just the two groups directly
	// touched, so a bulk invalidation is cheaper to reason about than
	// walking the subtree to invalidate precisely (§4.5).
	s.Cache.Clear()
	return nil, nil
}

// RemoveGroupFromGroupPayload is the command.Command.Payload for command.KindRemoveGroupFromGroup.
type RemoveGroupFromGroupPayload struct {
	ParentID domain.EntityID
	ChildID  domain.EntityID
}

func (s *Service) handleRemoveGroupFromGroup(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(RemoveGroupFromGroupPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "RemoveGroupFromGroup payload has the wrong type", nil)
	}

	if err := s.Graph.RemoveGroupFromGroup(payload.ParentID, payload.ChildID); err != nil {
		return nil, err
	}
	undo := func() { s.Graph.AddGroupToGroup(payload.ParentID, payload.ChildID) }

	parent, _ := s.Graph.GetGroup(payload.ParentID)
	child, _ := s.Graph.GetGroup(payload.ChildID)
	_, err := s.commit(ctx, audit.EntityTypeGroup, audit.EntityIDString(payload.ParentID), audit.ChangeRemoveGroupFromGroup,
		cmd.SubmittedBy, map[string]string{"childId": audit.EntityIDString(payload.ChildID)}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeRemoveGroupFromGroup), Payload: parent},
		repository.MutationWrite{Kind: string(audit.ChangeRemoveGroupFromGroup), Payload: child},
		repository.MutationWrite{Kind: string(audit.ChangeRemoveGroupFromGroup), Payload: repository.RelationWrite{
			Table: "acs_group_parents", LeftID: payload.ParentID, RightID: payload.ChildID, Remove: true,
		}})
	if err != nil {
		return nil, err
	}
	s.Cache.Clear()
	return nil, nil
}
