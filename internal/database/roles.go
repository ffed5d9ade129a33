// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

/*
roles.go - Role Store Operations

Key Operations:
  - CreateRole: Insert a new role (name must be unique)
  - GetRole: Retrieve a role by name
  - ListRoles: List all roles ordered by name
  - UpdateRoleDescription: Change a role's description
  - DeleteRole: Remove a role and all its permission records

Thread Safety:
All mutations hold adminMutex so ID allocation and uniqueness checks
are atomic. Reads go straight to the connection pool.
*/

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/crudgate/crudgate/internal/models"
)

// adminMutex protects concurrent admin mutations across roles,
// permissions, and audit inserts.
var adminMutex sync.Mutex

// ErrRoleNotFound is returned when a role does not exist.
var ErrRoleNotFound = errors.New("role not found")

// ErrDuplicateRole is returned when creating a role whose name exists.
var ErrDuplicateRole = errors.New("role already exists")

// scanRoleRow scans a database row into a Role, handling the nullable
// description.
func scanRoleRow(scanner interface {
	Scan(dest ...interface{}) error
}) (*models.Role, error) {
	role := &models.Role{}
	var description sql.NullString

	err := scanner.Scan(&role.ID, &role.Name, &description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		role.Description = description.String
	}
	return role, nil
}

// CreateRole inserts a new role. Returns ErrDuplicateRole if the name
// is taken and the stored record with its assigned ID otherwise.
func (db *DB) CreateRole(ctx context.Context, role *models.Role) (*models.Role, error) {
	if err := models.ValidateRoleName(role.Name); err != nil {
		return nil, err
	}

	adminMutex.Lock()
	defer adminMutex.Unlock()

	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM roles WHERE name = ?`, role.Name).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to check role uniqueness: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateRole
	}

	id, err := db.nextIDLocked(ctx, "roles")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO roles (id, name, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, role.Name, role.Description, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert role: %w", err)
	}

	stored := *role
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	return &stored, nil
}

// GetRole retrieves a role by name. Returns ErrRoleNotFound if absent.
func (db *DB) GetRole(ctx context.Context, name string) (*models.Role, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM roles WHERE name = ?`, name)

	role, err := scanRoleRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to query role: %w", err)
	}
	return role, nil
}

// ListRoles returns all roles ordered by name.
func (db *DB) ListRoles(ctx context.Context) ([]*models.Role, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at
		 FROM roles ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer closeQuietly(rows)

	var roles []*models.Role
	for rows.Next() {
		role, err := scanRoleRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// UpdateRoleDescription changes a role's description. The name is
// immutable identity and cannot be updated.
func (db *DB) UpdateRoleDescription(ctx context.Context, name, description string) (*models.Role, error) {
	adminMutex.Lock()
	defer adminMutex.Unlock()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE roles SET description = ?, updated_at = ? WHERE name = ?`,
		description, time.Now(), name)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrRoleNotFound
	}

	return db.GetRole(ctx, name)
}

// DeleteRole removes a role and every permission record referencing
// it. Returns ErrRoleNotFound if the role does not exist.
func (db *DB) DeleteRole(ctx context.Context, name string) error {
	adminMutex.Lock()
	defer adminMutex.Unlock()

	res, err := db.conn.ExecContext(ctx, `DELETE FROM roles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrRoleNotFound
	}

	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM permissions WHERE role_name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete role permissions: %w", err)
	}
	return nil
}

// nextIDLocked allocates the next primary key for a table.
// DuckDB has no auto-increment; MAX(id)+1 under adminMutex is atomic.
// Caller must hold adminMutex.
func (db *DB) nextIDLocked(ctx context.Context, table string) (int64, error) {
	var id int64
	query := fmt.Sprintf(`SELECT COALESCE(MAX(id), 0) + 1 FROM %s`, table) //nolint:gosec // table name is a package-internal constant
	if err := db.conn.QueryRowContext(ctx, query).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to allocate id for %s: %w", table, err)
	}
	return id, nil
}
