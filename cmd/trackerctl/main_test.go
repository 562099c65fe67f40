package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"proposal/frontend/tracker"
	"proposal/infrastructure/session"
	"proposal/infrastructure/sqlite"
)

func TestResolveMigrationsDir_FromRepoRoot(t *testing.T) {
	_, repoRoot := testPaths(t)
	withWorkingDir(t, repoRoot)

	dir, err := resolveMigrationsDir()
	if err != nil {
		t.Fatalf("resolve migrations dir from repo root: %v", err)
	}

	assertMigrationsDir(t, dir)
}

func TestResolveMigrationsDir_FromTrackerctlDir(t *testing.T) {
	cmdDir, _ := testPaths(t)
	withWorkingDir(t, cmdDir)

	dir, err := resolveMigrationsDir()
	if err != nil {
		t.Fatalf("resolve migrations dir from cmd/trackerctl: %v", err)
	}

	assertMigrationsDir(t, dir)
}

func TestPrintCatalog(t *testing.T) {
	var out bytes.Buffer
	printCatalog(&out, tracker.MustLoadEmbeddedChecklist())

	text := out.String()
	for _, want := range []string{"1. Planning & System Design [PENDING]", "Rs. 10,000", "Total: Rs. 21,000 across 157 items"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in catalog output:\n%s", want, text)
		}
	}
}

func TestPruneCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trackerctl.db")
	t.Setenv("SQLITE_PATH", dbPath)
	seedSessions(t, dbPath, map[string]time.Duration{"stale": -time.Hour, "fresh": time.Hour})

	out := runCommand(t, "prune")
	if !strings.Contains(out, "pruned 1 expired sessions") {
		t.Fatalf("unexpected prune output %q", out)
	}
}

func TestReportCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "trackerctl.db")
	t.Setenv("SQLITE_PATH", dbPath)

	token := session.NewToken()
	db := openSeedDB(t, dbPath)
	if _, err := session.Create(context.Background(), db, session.Digest(token), "ua", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	_ = db.Close()

	outFile := filepath.Join(dir, "report.pdf")
	runCommand(t, "report", "--session", token, "--out", outFile)

	pdf, err := os.ReadFile(outFile)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("expected pdf output")
	}
}

func TestReportCommandUnknownSession(t *testing.T) {
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "trackerctl.db"))

	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"report", "--session", "nope", "--out", filepath.Join(t.TempDir(), "r.pdf")})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "session not found") {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("trackerctl %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func openSeedDB(t *testing.T, path string) *sqlite.DB {
	t.Helper()
	db, err := openDB(context.Background(), path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}

func seedSessions(t *testing.T, path string, sessions map[string]time.Duration) {
	t.Helper()
	db := openSeedDB(t, path)
	defer db.Close()
	for id, ttl := range sessions {
		if _, err := session.Create(context.Background(), db, id, "ua", time.Now().Add(ttl)); err != nil {
			t.Fatalf("seed session %s: %v", id, err)
		}
	}
}

func testPaths(t *testing.T) (cmdDir string, repoRoot string) {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	cmdDir = filepath.Dir(file)
	repoRoot = filepath.Clean(filepath.Join(cmdDir, "..", ".."))
	return cmdDir, repoRoot
}

func withWorkingDir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir to %s: %v", dir, err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})
}

func assertMigrationsDir(t *testing.T, dir string) {
	t.Helper()
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat migrations dir: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("expected directory, got file: %s", dir)
	}
	if !strings.HasSuffix(filepath.ToSlash(dir), "infrastructure/sqlite/migrations") {
		t.Fatalf("unexpected migrations path: %s", dir)
	}
}
