package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"acs/internal/audit"
	"acs/internal/domain"
	"acs/internal/repository"
)

// tx wraps a pgx.Tx as a repository.Tx, translating each domain value
// WriteMutation receives into the matching upsert/delete statement. The
// handler decides what to write; tx only knows how to persist it.
type tx struct {
	pgxTx pgx.Tx
	done  bool
}

func (t *tx) WriteMutation(ctx context.Context, m repository.MutationWrite) error {
	if t.done {
		return repository.ErrTxClosed
	}
	switch v := m.Payload.(type) {
	case *domain.User:
		return t.upsertUser(ctx, v)
	case *domain.Group:
		return t.upsertGroup(ctx, v)
	case *domain.Role:
		return t.upsertRole(ctx, v)
	case *domain.Resource:
		return t.upsertResource(ctx, v)
	case *domain.Permission:
		return t.upsertPermission(ctx, v)
	case repository.RelationWrite:
		return t.writeGroupRelation(ctx, v)
	case repository.Removal:
		return t.writeRemoval(ctx, v)
	default:
		return fmt.Errorf("%w: unsupported mutation payload %T", repository.ErrWriteFailed, m.Payload)
	}
}

func (t *tx) upsertUser(ctx context.Context, u *domain.User) error {
	metadata, err := json.Marshal(u.Metadata)
	if err != nil {
		return fmt.Errorf("%w: marshal user metadata: %v", repository.ErrWriteFailed, err)
	}
	_, err = t.pgxTx.Exec(ctx, `
		INSERT INTO acs_users (id, name, email, status, metadata, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, email = EXCLUDED.email, status = EXCLUDED.status,
			metadata = EXCLUDED.metadata, updated_at = EXCLUDED.updated_at, deleted_at = EXCLUDED.deleted_at
	`, u.ID, u.Name, u.Email, u.Status, metadata, u.CreatedAt, u.UpdatedAt, u.DeletedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrWriteFailed, err)
	}
	return nil
}

func (t *tx) upsertGroup(ctx context.Context, g *domain.Group) error {
	_, err := t.pgxTx.Exec(ctx, `
		INSERT INTO acs_groups (id, name, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, updated_at = EXCLUDED.updated_at, deleted_at = EXCLUDED.deleted_at
	`, g.ID, g.Name, g.CreatedAt, g.UpdatedAt, g.DeletedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrWriteFailed, err)
	}
	return nil
}

func (t *tx) upsertRole(ctx context.Context, r *domain.Role) error {
	_, err := t.pgxTx.Exec(ctx, `
		INSERT INTO acs_roles (id, name, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, updated_at = EXCLUDED.updated_at, deleted_at = EXCLUDED.deleted_at
	`, r.ID, r.Name, r.CreatedAt, r.UpdatedAt, r.DeletedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrWriteFailed, err)
	}
	return nil
}

func (t *tx) upsertResource(ctx context.Context, res *domain.Resource) error {
	_, err := t.pgxTx.Exec(ctx, `
		INSERT INTO acs_resources (id, uri, resource_type, parent_id, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			uri = EXCLUDED.uri, resource_type = EXCLUDED.resource_type, parent_id = EXCLUDED.parent_id,
			updated_at = EXCLUDED.updated_at, deleted_at = EXCLUDED.deleted_at
	`, res.ID, res.URI, res.ResourceType, res.ParentID, res.CreatedAt, res.UpdatedAt, res.DeletedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrWriteFailed, err)
	}
	return nil
}

func (t *tx) upsertPermission(ctx context.Context, p *domain.Permission) error {
	_, err := t.pgxTx.Exec(ctx, `
		INSERT INTO acs_permissions (id, entity_id, resource_id, verb, scheme, grant_flag, deny_flag, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (entity_id, resource_id, verb, scheme) DO UPDATE SET
			grant_flag = EXCLUDED.grant_flag, deny_flag = EXCLUDED.deny_flag, updated_at = EXCLUDED.updated_at
	`, p.ID, p.EntityID, p.ResourceID, string(p.Verb), p.Scheme, p.Grant, p.Deny, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrWriteFailed, err)
	}
	return nil
}

func (t *tx) writeGroupRelation(ctx context.Context, rel repository.RelationWrite) error {
	left, right := relationColumns(rel.Table)
	var err error
	if rel.Remove {
		_, err = t.pgxTx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, rel.Table, left, right), rel.LeftID, rel.RightID)
	} else {
		_, err = t.pgxTx.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`, rel.Table, left, right), rel.LeftID, rel.RightID)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrWriteFailed, err)
	}
	return nil
}

func relationColumns(table string) (left, right string) {
	switch table {
	case "acs_group_parents":
		return "parent_id", "child_id"
	case "acs_group_members":
		return "group_id", "user_id"
	case "acs_group_roles":
		return "group_id", "role_id"
	case "acs_role_members":
		return "role_id", "user_id"
	default:
		return "left_id", "right_id"
	}
}

func entityTable(kind domain.EntityKind) string {
	switch kind {
	case domain.KindUser:
		return "acs_users"
	case domain.KindGroup:
		return "acs_groups"
	case domain.KindRole:
		return "acs_roles"
	default:
		return ""
	}
}

func (t *tx) writeRemoval(ctx context.Context, rem repository.Removal) error {
	if rem.Key != nil {
		_, err := t.pgxTx.Exec(ctx, `DELETE FROM acs_permissions WHERE entity_id = $1 AND resource_id = $2 AND verb = $3 AND scheme = $4`,
			rem.Key.EntityID, rem.Key.ResourceID, string(rem.Key.Verb), rem.Key.Scheme)
		if err != nil {
			return fmt.Errorf("%w: %v", repository.ErrWriteFailed, err)
		}
		return nil
	}
	table := rem.Table
	if table == "" {
		table = entityTable(rem.EntityKind)
	}
	id := rem.ID
	if id == 0 {
		id = int64(rem.EntityID)
	}
	_, err := t.pgxTx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrWriteFailed, err)
	}
	return nil
}

func (t *tx) WriteAudit(ctx context.Context, r *audit.Record) error {
	if t.done {
		return repository.ErrTxClosed
	}
	details, err := json.Marshal(r.ChangeDetails)
	if err != nil {
		return fmt.Errorf("%w: marshal change details: %v", repository.ErrWriteFailed, err)
	}
	_, err = t.pgxTx.Exec(ctx, `
		INSERT INTO acs_audit_log (id, entity_type, entity_id, change_type, changed_by, change_date, change_details, operation_id, prev_hash, hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.ID, string(r.EntityType), r.EntityID, string(r.ChangeType), r.ChangedBy, r.ChangeDate, details, r.OperationID, r.PrevHash, r.Hash)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrWriteFailed, err)
	}
	return nil
}

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return repository.ErrTxClosed
	}
	t.done = true
	if err := t.pgxTx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrCommitFailed, err)
	}
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	return t.pgxTx.Rollback(ctx)
}
