package session

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"proposal/infrastructure/sqlite"
)

func openSessionTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "session-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return db
}

func TestCreateAndLoad(t *testing.T) {
	db := openSessionTestDB(t)
	ctx := context.Background()
	id := Digest(NewToken())

	created, err := Create(ctx, db, id, "Mozilla/5.0", ExpiryFrom(time.Now(), time.Hour))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	loaded, err := Load(ctx, db, id)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if loaded.ID != created.ID || loaded.UserAgent != "Mozilla/5.0" {
		t.Fatalf("unexpected session loaded: %+v", loaded)
	}
	if loaded.Expired() {
		t.Fatalf("fresh session must not be expired")
	}
}

func TestCreateTruncatesUserAgent(t *testing.T) {
	db := openSessionTestDB(t)
	s, err := Create(context.Background(), db, "long-agent", strings.Repeat("x", 2*maxUserAgentLen), ExpiryFrom(time.Now(), 0))
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(s.UserAgent) != maxUserAgentLen {
		t.Fatalf("expected user agent truncated to %d, got %d", maxUserAgentLen, len(s.UserAgent))
	}
}

func TestDeleteRemovesSession(t *testing.T) {
	db := openSessionTestDB(t)
	ctx := context.Background()
	if _, err := Create(ctx, db, "gone", "agent", ExpiryFrom(time.Now(), time.Hour)); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := Delete(ctx, db, "gone"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := Load(ctx, db, "gone"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows after delete, got %v", err)
	}
}

func TestPruneExpired(t *testing.T) {
	db := openSessionTestDB(t)
	ctx := context.Background()
	now := time.Now()
	if _, err := Create(ctx, db, "old", "agent", now.Add(-time.Minute)); err != nil {
		t.Fatalf("create old session: %v", err)
	}
	if _, err := Create(ctx, db, "fresh", "agent", now.Add(time.Hour)); err != nil {
		t.Fatalf("create fresh session: %v", err)
	}

	removed, err := PruneExpired(ctx, db, now)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned session, got %d", removed)
	}
	if _, err := Load(ctx, db, "fresh"); err != nil {
		t.Fatalf("fresh session should survive prune: %v", err)
	}
}

func TestDigestIsStableAndHidesToken(t *testing.T) {
	token := NewToken()
	if Digest(token) != Digest(token) {
		t.Fatalf("digest must be deterministic")
	}
	if Digest(token) == token {
		t.Fatalf("digest must differ from token")
	}
	if len(Digest(token)) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(Digest(token)))
	}
}
