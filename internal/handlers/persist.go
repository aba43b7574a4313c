package handlers

import (
	"context"
	"fmt"

	"acs/internal/apierr"
	"acs/internal/audit"
	"acs/internal/repository"
)

// commit appends changeType to the audit log and persists it together with
// every mutation through the repository gateway's Begin → WriteMutation(s)
// → WriteAudit → Commit contract (§4.7). A relation change typically needs
// two mutations in the same transaction: the owning entity's updated
// relation sets (so the in-memory gateway, which derives relations from
// the entity object, stays correct) and a RelationWrite (so a relational
// backend's join table stays correct). If any step fails, it unwinds
// everything already applied, including undo, which the caller supplies to
// reverse whatever it already did to the graph. A handler's graph mutation
// and its call to commit therefore always leave the graph, the audit
// chain, and the durable store in agreement, regardless of where a
// failure occurs.
func (s *Service) commit(
	ctx context.Context,
	entityType audit.EntityType,
	entityID string,
	changeType audit.ChangeType,
	changedBy string,
	details map[string]string,
	undo func(),
	mutations ...repository.MutationWrite,
) (*audit.Record, error) {
	record, _, err := s.AuditLog.Append(entityType, entityID, changeType, changedBy, details)
	if err != nil {
		undo()
		return nil, err
	}

	tx, err := s.Gateway.Begin(ctx)
	if err != nil {
		s.AuditLog.UndoAppend(record.ID)
		undo()
		return nil, apierr.New(apierr.KindPersistenceFailure, "begin repository transaction", err)
	}

	for _, m := range mutations {
		if err := tx.WriteMutation(ctx, m); err != nil {
			_ = tx.Rollback(ctx)
			s.AuditLog.UndoAppend(record.ID)
			undo()
			return nil, fmt.Errorf("%w: %v", apierr.ErrPersistenceFailure, err)
		}
	}
	if err := tx.WriteAudit(ctx, record); err != nil {
		_ = tx.Rollback(ctx)
		s.AuditLog.UndoAppend(record.ID)
		undo()
		return nil, fmt.Errorf("%w: %v", apierr.ErrPersistenceFailure, err)
	}
	if err := tx.Commit(ctx); err != nil {
		s.AuditLog.UndoAppend(record.ID)
		undo()
		return nil, fmt.Errorf("%w: %v", apierr.ErrPersistenceFailure, err)
	}

	return record, nil
}
