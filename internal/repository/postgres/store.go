// Package postgres is the Postgres implementation of the Repository
// Gateway (C7, §4.7), backed by pgx/pgxpool.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"acs/internal/audit"
	"acs/internal/domain"
	"acs/internal/repository"
)

// Store is a repository.Gateway backed by a pgxpool.Pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to Postgres at dsn, applies pending migrations, and
// returns a ready Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("repository/postgres: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("repository/postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repository/postgres: ping: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	if err := Migrate(sqlDB); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Load streams the full persisted graph and audit chain back for C1/C6 to
// restore at startup (§4.7 "load" mode).
func (s *Store) Load(ctx context.Context) (*repository.Snapshot, []*audit.Record, error) {
	snap := &repository.Snapshot{NextEntityID: 1, NextResourceID: 1, NextPermissionID: 1}

	if err := s.loadUsers(ctx, snap); err != nil {
		return nil, nil, err
	}
	if err := s.loadGroups(ctx, snap); err != nil {
		return nil, nil, err
	}
	if err := s.loadRoles(ctx, snap); err != nil {
		return nil, nil, err
	}
	if err := s.loadResources(ctx, snap); err != nil {
		return nil, nil, err
	}
	if err := s.loadPermissions(ctx, snap); err != nil {
		return nil, nil, err
	}

	records, err := s.loadAudit(ctx)
	if err != nil {
		return nil, nil, err
	}

	return snap, records, nil
}

func (s *Store) loadUsers(ctx context.Context, snap *repository.Snapshot) error {
	rows, err := s.pool.Query(ctx, `SELECT id, name, email, status, metadata, created_at, updated_at, deleted_at FROM acs_users`)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var u domain.User
		var metadataJSON []byte
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Status, &metadataJSON, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
		}
		u.Kind = domain.KindUser
		if len(metadataJSON) > 0 {
			_ = json.Unmarshal(metadataJSON, &u.Metadata)
		}
		snap.Users = append(snap.Users, &u)
		if u.ID >= snap.NextEntityID {
			snap.NextEntityID = u.ID + 1
		}
	}
	return rows.Err()
}

func (s *Store) loadGroups(ctx context.Context, snap *repository.Snapshot) error {
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at, updated_at, deleted_at FROM acs_groups`)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
	}
	defer rows.Close()

	byID := make(map[domain.EntityID]*domain.Group)
	for rows.Next() {
		g := domain.NewGroup(0, "")
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt, &g.UpdatedAt, &g.DeletedAt); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
		}
		byID[g.ID] = g
		snap.Groups = append(snap.Groups, g)
		if g.ID >= snap.NextEntityID {
			snap.NextEntityID = g.ID + 1
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if err := s.attachGroupRelations(ctx, byID); err != nil {
		return err
	}
	return nil
}

func (s *Store) attachGroupRelations(ctx context.Context, byID map[domain.EntityID]*domain.Group) error {
	parentRows, err := s.pool.Query(ctx, `SELECT parent_id, child_id FROM acs_group_parents`)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
	}
	defer parentRows.Close()
	for parentRows.Next() {
		var parentID, childID domain.EntityID
		if err := parentRows.Scan(&parentID, &childID); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
		}
		if parent, ok := byID[parentID]; ok {
			parent.ChildIDs[childID] = struct{}{}
		}
		if child, ok := byID[childID]; ok {
			child.ParentIDs[parentID] = struct{}{}
		}
	}

	memberRows, err := s.pool.Query(ctx, `SELECT group_id, user_id FROM acs_group_members`)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
	}
	defer memberRows.Close()
	for memberRows.Next() {
		var groupID, userID domain.EntityID
		if err := memberRows.Scan(&groupID, &userID); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
		}
		if group, ok := byID[groupID]; ok {
			group.MemberUserIDs[userID] = struct{}{}
		}
	}

	roleRows, err := s.pool.Query(ctx, `SELECT group_id, role_id FROM acs_group_roles`)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
	}
	defer roleRows.Close()
	for roleRows.Next() {
		var groupID, roleID domain.EntityID
		if err := roleRows.Scan(&groupID, &roleID); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
		}
		if group, ok := byID[groupID]; ok {
			group.RoleIDs[roleID] = struct{}{}
		}
	}
	return nil
}

func (s *Store) loadRoles(ctx context.Context, snap *repository.Snapshot) error {
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at, updated_at, deleted_at FROM acs_roles`)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
	}
	defer rows.Close()

	byID := make(map[domain.EntityID]*domain.Role)
	for rows.Next() {
		r := domain.NewRole(0, "")
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt, &r.UpdatedAt, &r.DeletedAt); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
		}
		byID[r.ID] = r
		snap.Roles = append(snap.Roles, r)
		if r.ID >= snap.NextEntityID {
			snap.NextEntityID = r.ID + 1
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	memberRows, err := s.pool.Query(ctx, `SELECT role_id, user_id FROM acs_role_members`)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
	}
	defer memberRows.Close()
	for memberRows.Next() {
		var roleID, userID domain.EntityID
		if err := memberRows.Scan(&roleID, &userID); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
		}
		if role, ok := byID[roleID]; ok {
			role.MemberUserIDs[userID] = struct{}{}
		}
	}

	groupRows, err := s.pool.Query(ctx, `SELECT group_id, role_id FROM acs_group_roles`)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
	}
	defer groupRows.Close()
	for groupRows.Next() {
		var groupID, roleID domain.EntityID
		if err := groupRows.Scan(&groupID, &roleID); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
		}
		if role, ok := byID[roleID]; ok {
			role.GroupIDs[groupID] = struct{}{}
		}
	}
	return nil
}

func (s *Store) loadResources(ctx context.Context, snap *repository.Snapshot) error {
	rows, err := s.pool.Query(ctx, `SELECT id, uri, resource_type, parent_id, created_at, updated_at, deleted_at FROM acs_resources`)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.Resource
		var parentID *domain.ResourceID
		if err := rows.Scan(&r.ID, &r.URI, &r.ResourceType, &parentID, &r.CreatedAt, &r.UpdatedAt, &r.DeletedAt); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
		}
		r.ParentID = parentID
		snap.Resources = append(snap.Resources, &r)
		if r.ID >= snap.NextResourceID {
			snap.NextResourceID = r.ID + 1
		}
	}
	return rows.Err()
}

func (s *Store) loadPermissions(ctx context.Context, snap *repository.Snapshot) error {
	rows, err := s.pool.Query(ctx, `SELECT id, entity_id, resource_id, verb, scheme, grant_flag, deny_flag, created_at, updated_at FROM acs_permissions`)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Permission
		var verb string
		if err := rows.Scan(&p.ID, &p.EntityID, &p.ResourceID, &verb, &p.Scheme, &p.Grant, &p.Deny, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
		}
		p.Verb = domain.Verb(verb)
		snap.Permissions = append(snap.Permissions, &p)
		if p.ID >= snap.NextPermissionID {
			snap.NextPermissionID = p.ID + 1
		}
	}
	return rows.Err()
}

func (s *Store) loadAudit(ctx context.Context) ([]*audit.Record, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, entity_type, entity_id, change_type, changed_by, change_date, change_details, operation_id, prev_hash, hash FROM acs_audit_log ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
	}
	defer rows.Close()

	var records []*audit.Record
	for rows.Next() {
		var r audit.Record
		var entityType, changeType string
		var detailsJSON []byte
		if err := rows.Scan(&r.ID, &entityType, &r.EntityID, &changeType, &r.ChangedBy, &r.ChangeDate, &detailsJSON, &r.OperationID, &r.PrevHash, &r.Hash); err != nil {
			return nil, fmt.Errorf("%w: %v", repository.ErrLoadFailed, err)
		}
		r.EntityType = audit.EntityType(entityType)
		r.ChangeType = audit.ChangeType(changeType)
		if len(detailsJSON) > 0 {
			_ = json.Unmarshal(detailsJSON, &r.ChangeDetails)
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// Begin starts a pgx transaction wrapped as a repository.Tx.
func (s *Store) Begin(ctx context.Context) (repository.Tx, error) {
	pgxTx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("repository/postgres: begin transaction: %w", err)
	}
	return &tx{pgxTx: pgxTx}, nil
}
