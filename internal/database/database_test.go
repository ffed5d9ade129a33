// Crudgate - Role-Based CRUD Authorization Service
// Copyright 2026 The Crudgate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crudgate/crudgate

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crudgate/crudgate/internal/config"
	"github.com/crudgate/crudgate/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return db
}

func mustCreateRole(t *testing.T, db *DB, name string) *models.Role {
	t.Helper()
	role, err := db.CreateRole(context.Background(), models.NewRole(name, ""))
	if err != nil {
		t.Fatalf("CreateRole(%q): %v", name, err)
	}
	return role
}

func mustCreatePermission(t *testing.T, db *DB, role, policy string, c, r, u, d bool) *models.Permission {
	t.Helper()
	perm, err := db.CreatePermission(context.Background(),
		models.NewPermission(role, policy, c, r, u, d), false)
	if err != nil {
		t.Fatalf("CreatePermission(%q, %q): %v", role, policy, err)
	}
	return perm
}

func TestRoleCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := mustCreateRole(t, db, "editor")
	if created.ID == 0 {
		t.Error("created role should have an assigned ID")
	}

	got, err := db.GetRole(ctx, "editor")
	if err != nil {
		t.Fatalf("GetRole: %v", err)
	}
	if got.Name != "editor" || got.ID != created.ID {
		t.Errorf("GetRole = %+v, want name=editor id=%d", got, created.ID)
	}

	if _, err := db.CreateRole(ctx, models.NewRole("editor", "dup")); !errors.Is(err, ErrDuplicateRole) {
		t.Errorf("duplicate role: err = %v, want ErrDuplicateRole", err)
	}

	if _, err := db.GetRole(ctx, "ghost"); !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("missing role: err = %v, want ErrRoleNotFound", err)
	}

	updated, err := db.UpdateRoleDescription(ctx, "editor", "content editors")
	if err != nil {
		t.Fatalf("UpdateRoleDescription: %v", err)
	}
	if updated.Description != "content editors" {
		t.Errorf("Description = %q, want %q", updated.Description, "content editors")
	}

	mustCreateRole(t, db, "admin")
	roles, err := db.ListRoles(ctx)
	if err != nil {
		t.Fatalf("ListRoles: %v", err)
	}
	if len(roles) != 2 || roles[0].Name != "admin" || roles[1].Name != "editor" {
		t.Errorf("ListRoles should return [admin editor], got %v", roles)
	}

	if err := db.DeleteRole(ctx, "editor"); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}
	if err := db.DeleteRole(ctx, "editor"); !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("double delete: err = %v, want ErrRoleNotFound", err)
	}
}

func TestDeleteRoleRemovesPermissions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustCreateRole(t, db, "editor")
	mustCreatePermission(t, db, "editor", "articles", true, true, true, false)
	mustCreatePermission(t, db, "editor", "comments", false, true, false, false)

	if err := db.DeleteRole(ctx, "editor"); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}

	perms, err := db.ListPermissions(ctx, "editor")
	if err != nil {
		t.Fatalf("ListPermissions: %v", err)
	}
	if len(perms) != 0 {
		t.Errorf("permissions should be gone with the role, got %d", len(perms))
	}
}

func TestPermissionCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustCreateRole(t, db, "editor")
	created := mustCreatePermission(t, db, "editor", "articles", true, true, true, false)
	if created.ID == 0 {
		t.Error("created permission should have an assigned ID")
	}

	got, err := db.GetPermissionByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetPermissionByID: %v", err)
	}
	if got.PolicyName != "articles" || !got.CanCreate || got.CanDelete {
		t.Errorf("GetPermissionByID = %+v", got)
	}

	updated, err := db.UpdatePermission(ctx, created.ID, false, true, false, false)
	if err != nil {
		t.Fatalf("UpdatePermission: %v", err)
	}
	if updated.CanCreate || !updated.CanRead || updated.CanUpdate {
		t.Errorf("UpdatePermission = %+v, want read-only", updated)
	}

	deleted, err := db.DeletePermission(ctx, created.ID)
	if err != nil {
		t.Fatalf("DeletePermission: %v", err)
	}
	if deleted.ID != created.ID {
		t.Errorf("DeletePermission returned ID %d, want %d", deleted.ID, created.ID)
	}
	if _, err := db.GetPermissionByID(ctx, created.ID); !errors.Is(err, ErrPermissionNotFound) {
		t.Errorf("after delete: err = %v, want ErrPermissionNotFound", err)
	}
}

func TestCreatePermissionRequiresRole(t *testing.T) {
	db := newTestDB(t)

	_, err := db.CreatePermission(context.Background(),
		models.NewPermission("ghost", "articles", true, true, true, true), false)
	if !errors.Is(err, ErrRoleNotFound) {
		t.Errorf("err = %v, want ErrRoleNotFound", err)
	}
}

func TestCreatePermissionUniqueness(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	mustCreateRole(t, db, "editor")
	mustCreatePermission(t, db, "editor", "articles", true, true, true, false)

	// Same policy, different case: collides under case-insensitive folding.
	_, err := db.CreatePermission(ctx,
		models.NewPermission("editor", "Articles", false, true, false, false), false)
	if !errors.Is(err, ErrDuplicatePermission) {
		t.Errorf("case-insensitive duplicate: err = %v, want ErrDuplicatePermission", err)
	}

	// Under case-sensitive policies the differently-cased name is distinct.
	if _, err := db.CreatePermission(ctx,
		models.NewPermission("editor", "Articles", false, true, false, false), true); err != nil {
		t.Errorf("case-sensitive create of distinct name: %v", err)
	}
}

func TestResolvePermissionPrecedence(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	mustCreateRole(t, db, "editor")
	mustCreatePermission(t, db, "editor", models.WildcardPolicy, false, true, false, false)
	mustCreatePermission(t, db, "editor", "articles", true, true, true, false)

	// The specific record wins over the wildcard.
	perm, err := db.ResolvePermission(ctx, "editor", "articles", false)
	if err != nil {
		t.Fatalf("ResolvePermission: %v", err)
	}
	if perm.IsWildcard() || !perm.CanCreate {
		t.Errorf("specific record should win, got %+v", perm)
	}

	// No specific record: the wildcard applies.
	perm, err = db.ResolvePermission(ctx, "editor", "comments", false)
	if err != nil {
		t.Fatalf("ResolvePermission wildcard: %v", err)
	}
	if !perm.IsWildcard() || perm.CanCreate || !perm.CanRead {
		t.Errorf("wildcard record should apply, got %+v", perm)
	}
}

func TestResolvePermissionNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	mustCreateRole(t, db, "guest")
	mustCreatePermission(t, db, "guest", "articles", false, true, false, false)

	if _, err := db.ResolvePermission(ctx, "guest", "comments", false); !errors.Is(err, ErrPermissionNotFound) {
		t.Errorf("no wildcard, no specific: err = %v, want ErrPermissionNotFound", err)
	}

	if _, err := db.ResolvePermission(ctx, "nobody", "articles", false); !errors.Is(err, ErrPermissionNotFound) {
		t.Errorf("unknown role: err = %v, want ErrPermissionNotFound", err)
	}
}

func TestResolvePermissionCaseFolding(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	mustCreateRole(t, db, "editor")

	// Stored with mixed case, bypassing create-time checks, to prove
	// folding applies to the stored side at comparison time.
	now := time.Now()
	if _, err := db.Conn().ExecContext(ctx,
		`INSERT INTO permissions (id, role_name, policy_name, can_create, can_read, can_update, can_delete, created_at, updated_at)
		 VALUES (1, 'editor', 'ARTICLES', true, true, false, false, ?, ?)`, now, now); err != nil {
		t.Fatalf("raw insert: %v", err)
	}

	// Case-insensitive: the folded request matches the folded stored name.
	perm, err := db.ResolvePermission(ctx, "editor", "articles", false)
	if err != nil {
		t.Fatalf("ResolvePermission folded: %v", err)
	}
	if perm.PolicyName != "ARTICLES" {
		t.Errorf("PolicyName = %q, want stored %q", perm.PolicyName, "ARTICLES")
	}

	// Case-sensitive: "articles" and "ARTICLES" are distinct names.
	if _, err := db.ResolvePermission(ctx, "editor", "articles", true); !errors.Is(err, ErrPermissionNotFound) {
		t.Errorf("case-sensitive: err = %v, want ErrPermissionNotFound", err)
	}
}

func TestResolvePermissionDuplicateTieBreak(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	mustCreateRole(t, db, "editor")

	// Insert duplicate (role, policy) rows directly. The lowest ID wins
	// regardless of insertion or storage order.
	now := time.Now()
	rows := []struct {
		id      int64
		canRead bool
	}{
		{id: 7, canRead: false},
		{id: 3, canRead: true},
		{id: 5, canRead: false},
	}
	for _, r := range rows {
		if _, err := db.Conn().ExecContext(ctx,
			`INSERT INTO permissions (id, role_name, policy_name, can_create, can_read, can_update, can_delete, created_at, updated_at)
			 VALUES (?, 'editor', 'articles', false, ?, false, false, ?, ?)`,
			r.id, r.canRead, now, now); err != nil {
			t.Fatalf("raw insert id=%d: %v", r.id, err)
		}
	}

	perm, err := db.ResolvePermission(ctx, "editor", "articles", false)
	if err != nil {
		t.Fatalf("ResolvePermission: %v", err)
	}
	if perm.ID != 3 {
		t.Errorf("tie-break picked ID %d, want 3 (lowest)", perm.ID)
	}
	if !perm.CanRead {
		t.Error("winning row should carry can_read=true")
	}
}

func TestAuditLog(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	entries := []*models.PermissionAuditEntry{
		models.NewPermissionAuditEntry("alice", models.AuditActionCreate, models.AuditEntityRole, "editor", ""),
		models.NewPermissionAuditEntry("alice", models.AuditActionCreate, models.AuditEntityPermission, "editor", "articles"),
		models.NewPermissionAuditEntry("bob", models.AuditActionDelete, models.AuditEntityPermission, "editor", "articles"),
	}
	for _, e := range entries {
		if err := db.InsertAuditEntry(ctx, e); err != nil {
			t.Fatalf("InsertAuditEntry: %v", err)
		}
	}

	got, err := db.ListAuditEntries(ctx, AuditFilter{})
	if err != nil {
		t.Fatalf("ListAuditEntries: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListAuditEntries returned %d entries, want 3", len(got))
	}

	byActor, err := db.ListAuditEntries(ctx, AuditFilter{Actor: "bob"})
	if err != nil {
		t.Fatalf("ListAuditEntries filtered: %v", err)
	}
	if len(byActor) != 1 || byActor[0].Action != models.AuditActionDelete {
		t.Errorf("actor filter returned %+v", byActor)
	}

	byEntity, err := db.ListAuditEntries(ctx, AuditFilter{Entity: models.AuditEntityPermission})
	if err != nil {
		t.Fatalf("ListAuditEntries by entity: %v", err)
	}
	if len(byEntity) != 2 {
		t.Errorf("entity filter returned %d entries, want 2", len(byEntity))
	}

	stats, err := db.GetAuditStats(ctx)
	if err != nil {
		t.Fatalf("GetAuditStats: %v", err)
	}
	if stats.TotalEntries != 3 {
		t.Errorf("TotalEntries = %d, want 3", stats.TotalEntries)
	}
	if stats.ByAction[models.AuditActionCreate] != 2 {
		t.Errorf("ByAction[create] = %d, want 2", stats.ByAction[models.AuditActionCreate])
	}
	if stats.ByEntity[models.AuditEntityPermission] != 2 {
		t.Errorf("ByEntity[permission] = %d, want 2", stats.ByEntity[models.AuditEntityPermission])
	}
	if stats.OldestEntry == nil || stats.NewestEntry == nil {
		t.Error("time range should be populated")
	}
}

func TestAuditStatsEmpty(t *testing.T) {
	db := newTestDB(t)

	stats, err := db.GetAuditStats(context.Background())
	if err != nil {
		t.Fatalf("GetAuditStats: %v", err)
	}
	if stats.TotalEntries != 0 || stats.OldestEntry != nil {
		t.Errorf("empty stats = %+v", stats)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
