// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crudgate/crudgate/internal/models"
)

// AuditFilter narrows ListAuditEntries results. Zero values mean no
// filtering on that field.
type AuditFilter struct {
	Actor    string
	Action   string
	Entity   string
	RoleName string
	Since    time.Time
	Until    time.Time
	Limit    int
	Offset   int
}

// InsertAuditEntry appends an administrative change record. The log is
// append-only; there is no update or delete path.
func (db *DB) InsertAuditEntry(ctx context.Context, entry *models.PermissionAuditEntry) error {
	adminMutex.Lock()
	defer adminMutex.Unlock()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO permission_audit_log
		 (id, ts, actor, action, entity, role_name, policy_name, detail, request_id, ip_address)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.Timestamp, entry.Actor, entry.Action, entry.Entity,
		entry.RoleName, entry.PolicyName, entry.Detail, entry.RequestID, entry.IPAddress)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// ListAuditEntries returns audit records newest first, applying the
// filter. Limit defaults to 100 and is capped at 1000.
func (db *DB) ListAuditEntries(ctx context.Context, filter AuditFilter) ([]*models.PermissionAuditEntry, error) {
	query := `SELECT id, ts, actor, action, entity, role_name, policy_name, detail, request_id, ip_address
		 FROM permission_audit_log WHERE 1=1`
	args := []interface{}{}

	if filter.Actor != "" {
		query += ` AND actor = ?`
		args = append(args, filter.Actor)
	}
	if filter.Action != "" {
		query += ` AND action = ?`
		args = append(args, filter.Action)
	}
	if filter.Entity != "" {
		query += ` AND entity = ?`
		args = append(args, filter.Entity)
	}
	if filter.RoleName != "" {
		query += ` AND role_name = ?`
		args = append(args, filter.RoleName)
	}
	if !filter.Since.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, filter.Until)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	query += ` ORDER BY ts DESC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer closeQuietly(rows)

	var entries []*models.PermissionAuditEntry
	for rows.Next() {
		entry := &models.PermissionAuditEntry{}
		var id string
		if err := rows.Scan(&id, &entry.Timestamp, &entry.Actor, &entry.Action, &entry.Entity,
			&entry.RoleName, &entry.PolicyName, &entry.Detail, &entry.RequestID, &entry.IPAddress); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("corrupt audit entry id %q: %w", id, err)
		}
		entry.ID = parsed
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetAuditStats summarizes the audit log.
func (db *DB) GetAuditStats(ctx context.Context) (*models.AuditStats, error) {
	stats := &models.AuditStats{
		ByAction: make(map[string]int),
		ByEntity: make(map[string]int),
	}

	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM permission_audit_log`).Scan(&stats.TotalEntries); err != nil {
		return nil, fmt.Errorf("failed to count audit entries: %w", err)
	}
	if stats.TotalEntries == 0 {
		return stats, nil
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT action, COUNT(*) FROM permission_audit_log GROUP BY action`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate audit actions: %w", err)
	}
	defer closeQuietly(rows)
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("failed to scan action count: %w", err)
		}
		stats.ByAction[action] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entityRows, err := db.conn.QueryContext(ctx,
		`SELECT entity, COUNT(*) FROM permission_audit_log GROUP BY entity`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate audit entities: %w", err)
	}
	defer closeQuietly(entityRows)
	for entityRows.Next() {
		var entity string
		var count int
		if err := entityRows.Scan(&entity, &count); err != nil {
			return nil, fmt.Errorf("failed to scan entity count: %w", err)
		}
		stats.ByEntity[entity] = count
	}
	if err := entityRows.Err(); err != nil {
		return nil, err
	}

	var oldest, newest time.Time
	if err := db.conn.QueryRowContext(ctx,
		`SELECT MIN(ts), MAX(ts) FROM permission_audit_log`).Scan(&oldest, &newest); err != nil {
		return nil, fmt.Errorf("failed to query audit time range: %w", err)
	}
	stats.OldestEntry = &oldest
	stats.NewestEntry = &newest

	return stats, nil
}
