package handlers

import (
	"context"
	"io"
	"time"

	"acs/internal/apierr"
	"acs/internal/audit"
	"acs/internal/command"
)

// AuditQueryPayload is the command.Command.Payload for command.KindAuditQuery.
type AuditQueryPayload struct {
	Filter audit.Filter
	Limit  int
	Offset int
}

func (s *Service) handleAuditQuery(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(AuditQueryPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "AuditQuery payload has the wrong type", nil)
	}
	return s.AuditLog.Query(payload.Filter, payload.Limit, payload.Offset), nil
}

// handleAuditVerify takes no payload; it walks the whole chain.
func (s *Service) handleAuditVerify(ctx context.Context, cmd *command.Command) (any, error) {
	return s.AuditLog.Validate(), nil
}

// AuditPurgePayload is the command.Command.Payload for command.KindAuditPurge.
type AuditPurgePayload struct {
	RetentionDays int
}

// handleAuditPurge removes the audit log's own expired records and anchors
// a SYSTEM:PURGE record onto the pre-purge tail (§4.6). The purge record is
// the only part of the operation persisted through the repository gateway;
// the durable store's historical rows are left for a separate retention
// job to reconcile, since C7's Tx contract only models append-style audit
// writes, not bulk deletes (see DESIGN.md).
func (s *Service) handleAuditPurge(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(AuditPurgePayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "AuditPurge payload has the wrong type", nil)
	}

	retention := time.Duration(payload.RetentionDays) * 24 * time.Hour
	record, removed, err := s.AuditLog.Purge(retention, cmd.SubmittedBy)
	if err != nil {
		return nil, err
	}

	tx, err := s.Gateway.Begin(ctx)
	if err != nil {
		return nil, apierr.New(apierr.KindPersistenceFailure, "begin repository transaction", err)
	}
	if err := tx.WriteAudit(ctx, record); err != nil {
		_ = tx.Rollback(ctx)
		return nil, apierr.New(apierr.KindPersistenceFailure, "persist purge anchor record", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apierr.New(apierr.KindPersistenceFailure, "commit purge anchor record", err)
	}

	return PurgeResult{Record: record, Removed: removed}, nil
}

// PurgeResult is the result of AuditPurge.
type PurgeResult struct {
	Record  *audit.Record
	Removed int
}

// AuditExportPayload is the command.Command.Payload for command.KindAuditExport.
type AuditExportPayload struct {
	Writer      io.Writer
	Format      audit.ExportFormat
	Compression audit.ExportCompression
	Filter      audit.Filter
}

func (s *Service) handleAuditExport(ctx context.Context, cmd *command.Command) (any, error) {
	payload, ok := cmd.Payload.(AuditExportPayload)
	if !ok {
		return nil, apierr.New(apierr.KindInvalidArgument, "AuditExport payload has the wrong type", nil)
	}
	if err := s.AuditLog.Export(payload.Writer, payload.Format, payload.Compression, payload.Filter); err != nil {
		return nil, err
	}
	return nil, nil
}
