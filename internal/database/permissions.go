// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

/*
permissions.go - Permission Store Operations

Key Operations:
  - CreatePermission: Insert a grant record, enforcing (role, policy)
    uniqueness under the configured case folding
  - ResolvePermission: The single read the decision engine performs;
    specific match beats the "*" wildcard, duplicates tie-break on
    lowest ID
  - ListPermissions / GetPermissionByID / UpdatePermission /
    DeletePermission: admin CRUD

Resolution Consistency:
ResolvePermission fetches the specific and wildcard candidates in ONE
query so both legs observe the same snapshot; a concurrent admin write
can never make a single check self-inconsistent.

Tie-break:
If duplicate (role, policy) rows exist despite the insert-time check,
the row with the lowest ID wins (ORDER BY id ASC LIMIT 1). This is
deliberate and covered by tests; storage iteration order is never
relied upon.
*/

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/crudgate/crudgate/internal/models"
)

// ErrPermissionNotFound is returned when no permission record matches.
var ErrPermissionNotFound = errors.New("permission not found")

// ErrDuplicatePermission is returned when creating a permission for a
// (role, policy) pair that already has one.
var ErrDuplicatePermission = errors.New("permission already exists for role and policy")

const permissionColumns = `id, role_name, policy_name, can_create, can_read, can_update, can_delete, created_at, updated_at`

// scanPermissionRow scans a database row into a Permission.
func scanPermissionRow(scanner interface {
	Scan(dest ...interface{}) error
}) (*models.Permission, error) {
	p := &models.Permission{}
	err := scanner.Scan(
		&p.ID, &p.RoleName, &p.PolicyName,
		&p.CanCreate, &p.CanRead, &p.CanUpdate, &p.CanDelete,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ResolvePermission finds the permission record governing (role,
// policy). The specific record wins over the role's "*" wildcard;
// both candidates are read in one query so the decision is made
// against a single snapshot. When caseSensitive is false the stored
// policy names are folded with LOWER() to match the already-folded
// input, so folding is applied to both sides or neither.
//
// Returns ErrPermissionNotFound when neither record exists.
func (db *DB) ResolvePermission(ctx context.Context, roleName, policyName string, caseSensitive bool) (*models.Permission, error) {
	nameExpr := "policy_name"
	if !caseSensitive {
		nameExpr = "LOWER(policy_name)"
	}

	//nolint:gosec // nameExpr is one of two package-internal constants
	query := fmt.Sprintf(`
		SELECT %s
		FROM permissions
		WHERE role_name = ? AND (%s = ? OR policy_name = ?)
		ORDER BY CASE WHEN policy_name = ? THEN 1 ELSE 0 END ASC, id ASC
		LIMIT 1
	`, permissionColumns, nameExpr)

	row := db.conn.QueryRowContext(ctx, query,
		roleName, policyName, models.WildcardPolicy, models.WildcardPolicy)

	perm, err := scanPermissionRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPermissionNotFound
		}
		return nil, fmt.Errorf("failed to resolve permission: %w", err)
	}
	return perm, nil
}

// CreatePermission inserts a grant record. Uniqueness of (role,
// policy) is enforced under the folding the resolver will use:
// with case-insensitive policies, "Articles" and "articles" collide.
func (db *DB) CreatePermission(ctx context.Context, perm *models.Permission, caseSensitive bool) (*models.Permission, error) {
	if err := models.ValidatePolicyName(perm.PolicyName); err != nil {
		return nil, err
	}

	adminMutex.Lock()
	defer adminMutex.Unlock()

	// The role must exist before granting against it.
	var roleCount int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM roles WHERE name = ?`, perm.RoleName).Scan(&roleCount); err != nil {
		return nil, fmt.Errorf("failed to check role existence: %w", err)
	}
	if roleCount == 0 {
		return nil, ErrRoleNotFound
	}

	nameExpr := "policy_name"
	compare := perm.PolicyName
	if !caseSensitive {
		nameExpr = "LOWER(policy_name)"
		compare = models.FoldPolicyName(perm.PolicyName)
	}

	var count int
	//nolint:gosec // nameExpr is one of two package-internal constants
	dupQuery := fmt.Sprintf(`SELECT COUNT(*) FROM permissions WHERE role_name = ? AND %s = ?`, nameExpr)
	if err := db.conn.QueryRowContext(ctx, dupQuery, perm.RoleName, compare).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to check permission uniqueness: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicatePermission
	}

	id, err := db.nextIDLocked(ctx, "permissions")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO permissions (id, role_name, policy_name, can_create, can_read, can_update, can_delete, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, perm.RoleName, perm.PolicyName,
		perm.CanCreate, perm.CanRead, perm.CanUpdate, perm.CanDelete, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert permission: %w", err)
	}

	stored := *perm
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	return &stored, nil
}

// GetPermissionByID retrieves a permission record by primary key.
func (db *DB) GetPermissionByID(ctx context.Context, id int64) (*models.Permission, error) {
	//nolint:gosec // permissionColumns is a package-internal constant
	query := fmt.Sprintf(`SELECT %s FROM permissions WHERE id = ?`, permissionColumns)
	row := db.conn.QueryRowContext(ctx, query, id)

	perm, err := scanPermissionRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPermissionNotFound
		}
		return nil, fmt.Errorf("failed to query permission: %w", err)
	}
	return perm, nil
}

// ListPermissions returns permission records, optionally filtered by
// role, ordered by (role_name, policy_name) for stable output.
func (db *DB) ListPermissions(ctx context.Context, roleName string) ([]*models.Permission, error) {
	//nolint:gosec // permissionColumns is a package-internal constant
	query := fmt.Sprintf(`SELECT %s FROM permissions`, permissionColumns)
	args := []interface{}{}
	if roleName != "" {
		query += ` WHERE role_name = ?`
		args = append(args, roleName)
	}
	query += ` ORDER BY role_name ASC, policy_name ASC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	defer closeQuietly(rows)

	var perms []*models.Permission
	for rows.Next() {
		perm, err := scanPermissionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

// UpdatePermission replaces the four action booleans of a record.
// The (role, policy) identity is immutable; delete and recreate to
// move a grant.
func (db *DB) UpdatePermission(ctx context.Context, id int64, canCreate, canRead, canUpdate, canDelete bool) (*models.Permission, error) {
	adminMutex.Lock()
	defer adminMutex.Unlock()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE permissions
		 SET can_create = ?, can_read = ?, can_update = ?, can_delete = ?, updated_at = ?
		 WHERE id = ?`,
		canCreate, canRead, canUpdate, canDelete, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update permission: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrPermissionNotFound
	}

	return db.GetPermissionByID(ctx, id)
}

// DeletePermission removes a permission record by primary key.
func (db *DB) DeletePermission(ctx context.Context, id int64) (*models.Permission, error) {
	adminMutex.Lock()
	defer adminMutex.Unlock()

	perm, err := db.GetPermissionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM permissions WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to delete permission: %w", err)
	}
	return perm, nil
}
