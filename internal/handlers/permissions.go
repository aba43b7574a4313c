package handlers

import (
	"context"

	"acs/internal/apierr"
	"acs/internal/audit"
	"acs/internal/command"
	"acs/internal/domain"
	"acs/internal/repository"
)

// GrantPermissionPayload is the command.Command.Payload for command.KindGrantPermission.
type GrantPermissionPayload struct {
	EntityID   domain.EntityID
	ResourceID domain.ResourceID
	Verb       domain.Verb
	Scheme     string
}

func (s *Service) handleGrantPermission(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(GrantPermissionPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "GrantPermission payload has the wrong type", nil)
	}

	p, err := s.Graph.GrantPermission(payload.EntityID, payload.ResourceID, payload.Verb, payload.Scheme)
	if err != nil {
		return nil, err
	}
	undo := func() { s.Graph.RemovePermission(p.Key()) }

	_, err = s.commit(ctx, audit.EntityTypePermission, audit.EntityIDString(p.EntityID), audit.ChangeGrantPermission,
		cmd.SubmittedBy, map[string]string{
			"resourceId": audit.ResourceIDString(p.ResourceID),
			"verb":       string(p.Verb),
			"scheme":     p.Scheme,
		}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeGrantPermission), Payload: p})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(p.EntityID)
	return p, nil
}

// DenyPermissionPayload is the command.Command.Payload for command.KindDenyPermission.
type DenyPermissionPayload struct {
	EntityID   domain.EntityID
	ResourceID domain.ResourceID
	Verb       domain.Verb
	Scheme     string
}

func (s *Service) handleDenyPermission(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(DenyPermissionPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "DenyPermission payload has the wrong type", nil)
	}

	p, err := s.Graph.DenyPermission(payload.EntityID, payload.ResourceID, payload.Verb, payload.Scheme)
	if err != nil {
		return nil, err
	}
	undo := func() { s.Graph.RemovePermission(p.Key()) }

	_, err = s.commit(ctx, audit.EntityTypePermission, audit.EntityIDString(p.EntityID), audit.ChangeDenyPermission,
		cmd.SubmittedBy, map[string]string{
			"resourceId": audit.ResourceIDString(p.ResourceID),
			"verb":       string(p.Verb),
			"scheme":     p.Scheme,
		}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeDenyPermission), Payload: p})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(p.EntityID)
	return p, nil
}

// RemovePermissionPayload is the command.Command.Payload for command.KindRemovePermission.
type RemovePermissionPayload struct {
	EntityID   domain.EntityID
	ResourceID domain.ResourceID
	Verb       domain.Verb
	Scheme     string
}

func (s *Service) handleRemovePermission(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(RemovePermissionPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "RemovePermission payload has the wrong type", nil)
	}

	key := domain.PermissionKey{EntityID: payload.EntityID, ResourceID: payload.ResourceID, Verb: payload.Verb, Scheme: payload.Scheme}
	before, err := s.Graph.GetPermission(key)
	if err != nil {
		return nil, err
	}
	snapshot := *before

	if err := s.Graph.RemovePermission(key); err != nil {
		return nil, err
	}
	undo := func() { s.Graph.RestorePermission(&snapshot) }

	_, err = s.commit(ctx, audit.EntityTypePermission, audit.EntityIDString(payload.EntityID), audit.ChangeRemovePermission,
		cmd.SubmittedBy, map[string]string{
			"resourceId": audit.ResourceIDString(payload.ResourceID),
			"verb":       string(payload.Verb),
			"scheme":     payload.Scheme,
		}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeRemovePermission), Payload: repository.Removal{Key: &key}})
	if err != nil {
		return nil, err
	}
	s.Cache.Invalidate(payload.EntityID)
	return nil, nil
}
