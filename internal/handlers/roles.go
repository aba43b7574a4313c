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

// CreateRolePayload is the command.Command.Payload for command.KindCreateRole.
type CreateRolePayload struct {
	Name string
}

func (s *Service) handleCreateRole(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(CreateRolePayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "CreateRole payload has the wrong type", nil)
	}

	r, err := s.Graph.CreateRole(payload.Name)
	if err != nil {
		return nil, err
	}
	undo := func() { s.Graph.DeleteRole(r.ID, true) }

	_, err = s.commit(ctx, audit.EntityTypeRole, audit.EntityIDString(r.ID), audit.ChangeCreateRole,
		cmd.SubmittedBy, map[string]string{"name": r.Name}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeCreateRole), Payload: r})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRolePayload is the command.Command.Payload for command.KindUpdateRole.
type UpdateRolePayload struct {
	ID   domain.EntityID
	Name *string
}

func (s *Service) handleUpdateRole(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(UpdateRolePayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "UpdateRole payload has the wrong type", nil)
	}

	before, err := s.Graph.GetRole(payload.ID)
	if err != nil {
		return nil, err
	}
	snapshot := *before

	r, err := s.Graph.UpdateRole(payload.ID, func(role *domain.Role) {
		if payload.Name != nil {
			role.Name = *payload.Name
		}
	})
	if err != nil {
		return nil, err
	}
	undo := func() {
		s.Graph.UpdateRole(payload.ID, func(role *domain.Role) { *role = snapshot })
	}

	_, err = s.commit(ctx, audit.EntityTypeRole, audit.EntityIDString(r.ID), audit.ChangeUpdateRole,
		cmd.SubmittedBy, map[string]string{"name": r.Name}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeUpdateRole), Payload: r})
	if err != nil {
		return nil, err
	}
	s.Cache.Clear()
	return r, nil
}

// DeleteRolePayload is the command.Command.Payload for command.KindDeleteRole.
type DeleteRolePayload struct {
	ID    domain.EntityID
	Force bool
}

func (s *Service) handleDeleteRole(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(DeleteRolePayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "DeleteRole payload has the wrong type", nil)
	}

	before, err := s.Graph.GetRole(payload.ID)
	if err != nil {
		return nil, err
	}
	snapshot := *before

	if err := s.Graph.DeleteRole(payload.ID, payload.Force); err != nil {
		return nil, err
	}
	undo := func() { s.Graph.RestoreRole(&snapshot) }

	deleted := snapshot
	now := time.Now().UTC()
	deleted.DeletedAt = &now
	_, err = s.commit(ctx, audit.EntityTypeRole, audit.EntityIDString(payload.ID), audit.ChangeDeleteRole,
		cmd.SubmittedBy, nil, undo,
		repository.MutationWrite{Kind: string(audit.ChangeDeleteRole), Payload: &deleted})
	if err != nil {
		return nil, err
	}
	s.Cache.Clear()
	return nil, nil
}

// AssignUserToRolePayload is the command.Command.Payload for command.KindAssignUserToRole.
type AssignUserToRolePayload struct {
	RoleID domain.EntityID
	UserID domain.EntityID
}

func (s *Service) handleAssignUserToRole(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(AssignUserToRolePayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "AssignUserToRole payload has the wrong type", nil)
	}

	if err := s.Graph.AssignUserToRole(payload.RoleID, payload.UserID); err != nil {
		return nil, err
	}
	undo := func() { s.Graph.UnassignUserFromRole(payload.RoleID, payload.UserID) }

	role, _ := s.Graph.GetRole(payload.RoleID)
	_, err := s.commit(ctx, audit.EntityTypeRole, audit.EntityIDString(payload.RoleID), audit.ChangeAssignUserToRole,
		cmd.SubmittedBy, map[string]string{"userId": audit.EntityIDString(payload.UserID)}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeAssignUserToRole), Payload: role},
		repository.MutationWrite{Kind: string(audit.ChangeAssignUserToRole), Payload: repository.RelationWrite{
			Table: "acs_role_members", LeftID: payload.RoleID, RightID: payload.UserID,
		}})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(payload.UserID)
	return nil, nil
}

// UnassignUserFromRolePayload is the command.Command.Payload for command.KindUnassignUserFromRole.
type UnassignUserFromRolePayload struct {
	RoleID domain.EntityID
	UserID domain.EntityID
}

func (s *Service) handleUnassignUserFromRole(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(UnassignUserFromRolePayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "UnassignUserFromRole payload has the wrong type", nil)
	}

	if err := s.Graph.UnassignUserFromRole(payload.RoleID, payload.UserID); err != nil {
		return nil, err
	}
	undo := func() { s.Graph.AssignUserToRole(payload.RoleID, payload.UserID) }

	role, _ := s.Graph.GetRole(payload.RoleID)
	_, err := s.commit(ctx, audit.EntityTypeRole, audit.EntityIDString(payload.RoleID), audit.ChangeUnassignUserFromRole,
		cmd.SubmittedBy, map[string]string{"userId": audit.EntityIDString(payload.UserID)}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeUnassignUserFromRole), Payload: role},
		repository.MutationWrite{Kind: string(audit.ChangeUnassignUserFromRole), Payload: repository.RelationWrite{
			Table: "acs_role_members", LeftID: payload.RoleID, RightID: payload.UserID, Remove: true,
		}})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(payload.UserID)
	return nil, nil
}
