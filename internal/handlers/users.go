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

// CreateUserPayload is the command.Command.Payload for command.KindCreateUser.
type CreateUserPayload struct {
	Name string
}

func (s *Service) handleCreateUser(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(CreateUserPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "CreateUser payload has the wrong type", nil)
	}

	user, err := s.Graph.CreateUser(payload.Name)
	if err != nil {
		return nil, err
	}
	undo := func() { s.Graph.DeleteUser(user.ID) }

	_, err = s.commit(ctx, audit.EntityTypeUser, audit.EntityIDString(user.ID), audit.ChangeCreateUser,
		cmd.SubmittedBy, map[string]string{"name": user.Name}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeCreateUser), Payload: user})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUserPayload is the command.Command.Payload for command.KindUpdateUser.
type UpdateUserPayload struct {
	ID     domain.EntityID
	Name   *string
	Email  *string
	Status *domain.UserStatus
}

func (s *Service) handleUpdateUser(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(UpdateUserPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "UpdateUser payload has the wrong type", nil)
	}

	before, err := s.Graph.GetUser(payload.ID)
	if err != nil {
		return nil, err
	}
	snapshot := *before

	user, err := s.Graph.UpdateUser(payload.ID, func(u *domain.User) {
		if payload.Name != nil {
			u.Name = *payload.Name
		}
		if payload.Email != nil {
			u.Email = *payload.Email
		}
		if payload.Status != nil {
			u.Status = *payload.Status
		}
	})
	if err != nil {
		return nil, err
	}
	undo := func() {
		s.Graph.UpdateUser(payload.ID, func(u *domain.User) { *u = snapshot })
	}

	_, err = s.commit(ctx, audit.EntityTypeUser, audit.EntityIDString(user.ID), audit.ChangeUpdateUser,
		cmd.SubmittedBy, map[string]string{"name": user.Name}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeUpdateUser), Payload: user})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(user.ID)
	return user, nil
}

// DeleteUserPayload is the command.Command.Payload for command.KindDeleteUser.
type DeleteUserPayload struct {
	ID domain.EntityID
}

func (s *Service) handleDeleteUser(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(DeleteUserPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "DeleteUser payload has the wrong type", nil)
	}

	before, err := s.Graph.GetUser(payload.ID)
	if err != nil {
		return nil, err
	}
	snapshot := *before

	if err := s.Graph.DeleteUser(payload.ID); err != nil {
		return nil, err
	}
	undo := func() {
		s.Graph.RestoreUser(&snapshot)
	}

	deleted := snapshot
	now := time.Now().UTC()
	deleted.DeletedAt = &now
	_, err = s.commit(ctx, audit.EntityTypeUser, audit.EntityIDString(payload.ID), audit.ChangeDeleteUser,
		cmd.SubmittedBy, nil, undo,
		repository.MutationWrite{Kind: string(audit.ChangeDeleteUser), Payload: &deleted})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(payload.ID)
	return nil, nil
}
