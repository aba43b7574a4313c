package frontend

import (
	"context"
	"io"

	"acs/internal/apierr"
	"acs/internal/audit"
	"acs/internal/command"
	"acs/internal/handlers"
)

// Gateway is the single entry point callers use to submit a command
// envelope. It owns no state of its own: Service answers queries
// directly, and Buffer is the FIFO path every mutation and audit command
// goes through.
type Gateway struct {
	Service *handlers.Service
	Buffer  *command.Buffer

	// TrustedKeys resolves a submitter to the public key its envelopes
	// must be signed with. Nil means signatures are never checked.
	TrustedKeys TrustedKeys
}

// queryKinds bypass Buffer.Submit and answer directly against the graph
// and evaluator (§4.5): queries don't mutate state and don't need FIFO
// ordering against other queries or against each other.
var queryKinds = map[command.Kind]bool{
	command.KindGetEntity:            true,
	command.KindListEntities:         true,
	command.KindCheckPermission:      true,
	command.KindEvaluatePermission:   true,
	command.KindGetEntityPermissions: true,
}

// Dispatch decodes env's payload, routes it to the query path or the
// command buffer, and maps the result into a wire Response. It never
// returns a Go error: every failure, including a bad signature or an
// unparseable payload, comes back as Response.Error.
func (g *Gateway) Dispatch(ctx context.Context, env Envelope) Response {
	if env.Kind == command.KindAuditExport {
		return errorResponse(apierr.New(apierr.KindInvalidArgument,
			"AuditExport carries a stream writer and cannot be dispatched as an envelope; call Gateway.ExportAudit directly", nil))
	}

	if g.TrustedKeys != nil {
		if err := g.verify(env); err != nil {
			return errorResponse(err)
		}
	}

	payload, err := decodePayload(env.Kind, env.Payload)
	if err != nil {
		return errorResponse(err)
	}

	if queryKinds[env.Kind] {
		value, err := g.dispatchQuery(ctx, env.Kind, payload)
		if err != nil {
			return errorResponse(err)
		}
		return successResponse(value)
	}

	cmd := &command.Command{
		ID:          env.RequestID,
		Kind:        env.Kind,
		Payload:     payload,
		SubmittedBy: env.SubmittedBy,
		SubmittedAt: env.Timestamp,
	}
	value, err := g.Buffer.Submit(ctx, cmd)
	if err != nil {
		return errorResponse(err)
	}
	return successResponse(value)
}

// dispatchQuery calls the exported handlers.Service method matching kind
// directly, skipping the command buffer entirely.
func (g *Gateway) dispatchQuery(ctx context.Context, kind command.Kind, payload any) (any, error) {
	switch kind {
	case command.KindGetEntity:
		p := payload.(handlers.GetEntityPayload)
		return g.Service.GetEntity(ctx, p.Kind, p.ID)
	case command.KindListEntities:
		p := payload.(handlers.ListEntitiesPayload)
		return g.Service.ListEntities(ctx, p.Kind)
	case command.KindCheckPermission:
		p := payload.(handlers.CheckPermissionPayload)
		return g.Service.CheckPermission(ctx, p.EntityID, p.URI, p.Verb, p.Scheme)
	case command.KindEvaluatePermission:
		p := payload.(handlers.EvaluatePermissionPayload)
		return g.Service.EvaluatePermission(ctx, p.EntityID, p.URI, p.Verb, p.Scheme)
	case command.KindGetEntityPermissions:
		p := payload.(handlers.GetEntityPermissionsPayload)
		return g.Service.GetEntityPermissions(ctx, p.EntityID)
	default:
		return nil, apierr.New(apierr.KindInternal, "unreachable: kind not in queryKinds", nil)
	}
}

// ExportAudit streams the audit log to w, bypassing the Envelope/Response
// wire shape since a stream writer has no JSON form. It still goes
// through the command buffer, so an export never interleaves with a
// concurrent purge.
func (g *Gateway) ExportAudit(ctx context.Context, w io.Writer, format audit.ExportFormat, compression audit.ExportCompression, filter audit.Filter) error {
	_, err := g.Buffer.Submit(ctx, &command.Command{
		Kind: command.KindAuditExport,
		Payload: handlers.AuditExportPayload{
			Writer:      w,
			Format:      format,
			Compression: compression,
			Filter:      filter,
		},
	})
	return err
}

// verify checks env.Signature against the public key TrustedKeys resolves
// for env.SubmittedBy. An envelope with no registered key, or no
// signature at all, is rejected once TrustedKeys is set — signing is all
// or nothing per submitter, not best-effort.
func (g *Gateway) verify(env Envelope) error {
	pub, ok := g.TrustedKeys(env.SubmittedBy)
	if !ok {
		return apierr.New(apierr.KindUnauthorized, "no trusted signing key registered for submitter", nil).
			WithDetail("submittedBy", env.SubmittedBy)
	}
	if len(env.Signature) == 0 {
		return apierr.New(apierr.KindUnauthorized, "envelope is not signed", nil)
	}
	message, err := env.signingBytes()
	if err != nil {
		return apierr.New(apierr.KindInternal, "compute envelope signing bytes", err)
	}
	if !verifySignature(pub, message, env.Signature) {
		return apierr.New(apierr.KindUnauthorized, "envelope signature does not verify", nil)
	}
	return nil
}
