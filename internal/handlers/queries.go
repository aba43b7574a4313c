package handlers

import (
	"context"

	"acs/internal/apierr"
	"acs/internal/cache"
	"acs/internal/command"
	"acs/internal/domain"
)

// GetEntityPayload is the command.Command.Payload for command.KindGetEntity.
type GetEntityPayload struct {
	Kind domain.EntityKind
	ID   domain.EntityID
}

// GetEntity answers a GetEntity query directly against the graph, without
// going through the command buffer. Queries don't mutate state and don't
// need FIFO ordering against other queries, so internal/frontend calls this
// (and the other query methods below) in place of Buffer.Submit, giving
// reads a path that never waits behind a queued mutation (§4.5).
func (s *Service) GetEntity(ctx context.Context, kind domain.EntityKind, id domain.EntityID) (any, error) {
	return s.handleGetEntity(ctx, &command.Command{Payload: GetEntityPayload{Kind: kind, ID: id}})
}

func (s *Service) handleGetEntity(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(GetEntityPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "GetEntity payload has the wrong type", nil)
	}
	switch payload.Kind {
	case domain.KindUser:
		return s.Graph.GetUser(payload.ID)
	case domain.KindGroup:
		return s.Graph.GetGroup(payload.ID)
	case domain.KindRole:
		return s.Graph.GetRole(payload.ID)
	default:
		return nil, apierr.New(apierr.KindInvalidArgument, "unknown entity kind", nil)
	}
}

// ListEntitiesPayload is the command.Command.Payload for command.KindListEntities.
type ListEntitiesPayload struct {
	Kind domain.EntityKind
}

// ListEntities answers a ListEntities query directly against the graph.
func (s *Service) ListEntities(ctx context.Context, kind domain.EntityKind) (any, error) {
	return s.handleListEntities(ctx, &command.Command{Payload: ListEntitiesPayload{Kind: kind}})
}

func (s *Service) handleListEntities(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(ListEntitiesPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "ListEntities payload has the wrong type", nil)
	}
	switch payload.Kind {
	case domain.KindUser:
		return s.Graph.ListUsers(), nil
	case domain.KindGroup:
		return s.Graph.ListGroups(), nil
	case domain.KindRole:
		return s.Graph.ListRoles(), nil
	default:
		return nil, apierr.New(apierr.KindInvalidArgument, "unknown entity kind", nil)
	}
}

// CheckPermissionPayload is the command.Command.Payload for command.KindCheckPermission.
type CheckPermissionPayload struct {
	EntityID domain.EntityID
	URI      string
	Verb     domain.Verb
	Scheme   string
}

// handleCheckPermission answers the hot-path yes/no question, consulting
// the permission cache (C3) before falling back to a full evaluation
// (§4.3).
// CheckPermission answers a CheckPermission query directly against the
// cache and evaluator.
func (s *Service) CheckPermission(ctx context.Context, entityID domain.EntityID, uri string, verb domain.Verb, scheme string) (any, error) {
	return s.handleCheckPermission(ctx, &command.Command{Payload: CheckPermissionPayload{EntityID: entityID, URI: uri, Verb: verb, Scheme: scheme}})
}

func (s *Service) handleCheckPermission(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(CheckPermissionPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "CheckPermission payload has the wrong type", nil)
	}

	key := cache.Key{EntityID: payload.EntityID, URI: payload.URI, Verb: payload.Verb, Scheme: payload.Scheme}
	generation := s.Graph.Generation()
	if decision, ok := s.Cache.Get(key, generation); ok {
		return decision.Allowed, nil
	}

	decision := s.Eval.Evaluate(payload.EntityID, payload.URI, payload.Verb, payload.Scheme)
	s.Cache.Put(key, decision, generation)
	return decision.Allowed, nil
}

// EvaluatePermissionPayload is the command.Command.Payload for command.KindEvaluatePermission.
type EvaluatePermissionPayload struct {
	EntityID domain.EntityID
	URI      string
	Verb     domain.Verb
	Scheme   string
}

// handleEvaluatePermission always recomputes (rather than serving from
// cache) so the returned eval.Decision's Matched/Reason fields describe
// the live state, for operator-facing "why was this denied" tooling.
// EvaluatePermission answers an EvaluatePermission query directly against
// the evaluator.
func (s *Service) EvaluatePermission(ctx context.Context, entityID domain.EntityID, uri string, verb domain.Verb, scheme string) (any, error) {
	return s.handleEvaluatePermission(ctx, &command.Command{Payload: EvaluatePermissionPayload{EntityID: entityID, URI: uri, Verb: verb, Scheme: scheme}})
}

func (s *Service) handleEvaluatePermission(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(EvaluatePermissionPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "EvaluatePermission payload has the wrong type", nil)
	}

	decision := s.Eval.Evaluate(payload.EntityID, payload.URI, payload.Verb, payload.Scheme)
	key := cache.Key{EntityID: payload.EntityID, URI: payload.URI, Verb: payload.Verb, Scheme: payload.Scheme}
	s.Cache.Put(key, decision, s.Graph.Generation())
	return decision, nil
}

// GetEntityPermissionsPayload is the command.Command.Payload for command.KindGetEntityPermissions.
type GetEntityPermissionsPayload struct {
	EntityID domain.EntityID
}

// GetEntityPermissions answers a GetEntityPermissions query directly
// against the graph.
func (s *Service) GetEntityPermissions(ctx context.Context, entityID domain.EntityID) (any, error) {
	return s.handleGetEntityPermissions(ctx, &command.Command{Payload: GetEntityPermissionsPayload{EntityID: entityID}})
}

func (s *Service) handleGetEntityPermissions(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(GetEntityPermissionsPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "GetEntityPermissions payload has the wrong type", nil)
	}
	if !s.Graph.EntityExists(payload.EntityID) {
		return nil, domain.ErrEntityNotFound
	}

	var direct []*domain.Permission
	var inherited []*domain.Permission
	for _, id := range s.Graph.AncestorChain(payload.EntityID) {
		perms := s.Graph.PermissionsForEntity(id)
		if id == payload.EntityID {
			direct = append(direct, perms...)
		} else {
			inherited = append(inherited, perms...)
		}
	}
	return EntityPermissions{Direct: direct, Inherited: inherited}, nil
}

// EntityPermissions is the result of GetEntityPermissions, separating
// permissions attached to the entity itself from ones it only receives by
// walking its inheritance chain (§4.2).
type EntityPermissions struct {
	Direct    []*domain.Permission
	Inherited []*domain.Permission
}
