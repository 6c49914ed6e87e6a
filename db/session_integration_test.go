// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"net/http"
	"testing"
	"time"

	"github.com/flamego/session"
)

func TestPostgresSessionStoreLifecycle(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	store, err := PostgresSessionIniter()(ctx, PostgresSessionConfig{Lifetime: time.Hour})
	if err != nil {
		t.Fatalf("PostgresSessionIniter failed: %v", err)
	}
	pgStore := store.(*PostgresSessionStore)

	noopWriter := func(_ http.ResponseWriter, _ *http.Request, _ string) {}

	sess := session.NewBaseSession("sess1", session.GobEncoder, noopWriter)
	sess.Set("flash_message", "Rule deleted")

	if err := pgStore.Save(ctx, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !pgStore.Exist(ctx, "sess1") {
		t.Fatalf("expected session to exist")
	}

	readSess, err := pgStore.Read(ctx, "sess1")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if readSess.Get("flash_message") != "Rule deleted" {
		t.Fatalf("expected flash message to round trip, got %v", readSess.Get("flash_message"))
	}

	if err := pgStore.Touch(ctx, "sess1"); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	if err := pgStore.Destroy(ctx, "sess1"); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}

	if pgStore.Exist(ctx, "sess1") {
		t.Fatalf("expected session to be destroyed")
	}
}

func TestPostgresSessionStoreReadMissing(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	store, err := PostgresSessionIniter()(ctx)
	if err != nil {
		t.Fatalf("PostgresSessionIniter failed: %v", err)
	}

	sess, err := store.Read(ctx, "unknown")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if sess.ID() != "unknown" || sess.Get("flash_message") != nil {
		t.Fatalf("expected empty session with requested id, got %#v", sess)
	}
}

func TestPostgresSessionStoreGC(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	if _, err := pool.Exec(ctx,
		`INSERT INTO flamego_sessions (id, data, expires_at) VALUES ('old', '\x00', NOW() - INTERVAL '1 hour')`,
	); err != nil {
		t.Fatalf("failed to insert expired session: %v", err)
	}

	store, err := PostgresSessionIniter()(ctx)
	if err != nil {
		t.Fatalf("PostgresSessionIniter failed: %v", err)
	}

	if err := store.GC(ctx); err != nil {
		t.Fatalf("GC failed: %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM flamego_sessions`).Scan(&count); err != nil {
		t.Fatalf("failed to count sessions: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected expired session to be collected, got %d rows", count)
	}
}
