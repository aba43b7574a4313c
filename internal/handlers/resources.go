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

// CreateResourcePayload is the command.Command.Payload for command.KindCreateResource.
type CreateResourcePayload struct {
	URI          string
	ResourceType string
	ParentID     *domain.ResourceID
}

func (s *Service) handleCreateResource(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(CreateResourcePayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "CreateResource payload has the wrong type", nil)
	}

	res, err := s.Graph.CreateResource(payload.URI, payload.ResourceType, payload.ParentID)
	if err != nil {
		return nil, err
	}
	undo := func() { s.Graph.DeleteResource(res.ID) }

	_, err = s.commit(ctx, audit.EntityTypeResource, audit.ResourceIDString(res.ID), audit.ChangeCreateResource,
		cmd.SubmittedBy, map[string]string{"uri": res.URI}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeCreateResource), Payload: res})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// UpdateResourcePayload is the command.Command.Payload for command.KindUpdateResource.
type UpdateResourcePayload struct {
	ID           domain.ResourceID
	ResourceType *string
}

func (s *Service) handleUpdateResource(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(UpdateResourcePayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "UpdateResource payload has the wrong type", nil)
	}

	before, err := s.Graph.GetResource(payload.ID)
	if err != nil {
		return nil, err
	}
	snapshot := *before

	res, err := s.Graph.UpdateResource(payload.ID, func(r *domain.Resource) {
		if payload.ResourceType != nil {
			r.ResourceType = *payload.ResourceType
		}
	})
	if err != nil {
		return nil, err
	}
	undo := func() {
		s.Graph.UpdateResource(payload.ID, func(r *domain.Resource) { *r = snapshot })
	}

	_, err = s.commit(ctx, audit.EntityTypeResource, audit.ResourceIDString(res.ID), audit.ChangeUpdateResource,
		cmd.SubmittedBy, map[string]string{"uri": res.URI}, undo,
		repository.MutationWrite{Kind: string(audit.ChangeUpdateResource), Payload: res})
	if err != nil {
		return nil, err
	}
	s.Cache.Clear()
	return res, nil
}

// DeleteResourcePayload is the command.Command.Payload for command.KindDeleteResource.
type DeleteResourcePayload struct {
	ID domain.ResourceID
}

func (s *Service) handleDeleteResource(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(DeleteResourcePayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "DeleteResource payload has the wrong type", nil)
	}

	before, err := s.Graph.GetResource(payload.ID)
	if err != nil {
		return nil, err
	}
	snapshot := *before

	// DeleteResource also drops every permission attached to it (a
	// permission without a live resource is meaningless); capture them
	// first so both the undo and the repository write can account for
	// them too.
	var orphaned []*domain.Permission
	for _, p := range s.Graph.AllPermissions() {
		if p.ResourceID == payload.ID {
			orphaned = append(orphaned, p)
		}
	}

	if err := s.Graph.DeleteResource(payload.ID); err != nil {
		return nil, err
	}
	undo := func() {
		s.Graph.RestoreResource(&snapshot)
		for _, p := range orphaned {
			s.Graph.RestorePermission(p)
		}
	}

	deleted := snapshot
	now := time.Now().UTC()
	deleted.DeletedAt = &now
	mutations := []repository.MutationWrite{
		{Kind: string(audit.ChangeDeleteResource), Payload: &deleted},
	}
	for _, p := range orphaned {
		mutations = append(mutations, repository.MutationWrite{
			Kind:    string(audit.ChangeDeleteResource),
			Payload: repository.Removal{Key: &domain.PermissionKey{EntityID: p.EntityID, ResourceID: p.ResourceID, Verb: p.Verb, Scheme: p.Scheme}},
		})
	}
	_, err = s.commit(ctx, audit.EntityTypeResource, audit.ResourceIDString(payload.ID), audit.ChangeDeleteResource,
		cmd.SubmittedBy, nil, undo, mutations...)
	if err != nil {
		return nil, err
	}
	s.Cache.Clear()
	return nil, nil
}
