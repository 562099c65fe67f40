package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"proposal/frontend/proposal"
	"proposal/frontend/tracker"
	"proposal/infrastructure/audit"
	"proposal/infrastructure/cache"
	"proposal/infrastructure/session"
	"proposal/infrastructure/sqlite"
	"proposal/infrastructure/upi"
)

const (
	iPhoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148"
	desktopUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36"
)

type integrationEnv struct {
	server *httptest.Server
	db     *sqlite.DB
	app    *Server
}

func setupIntegrationServer(t *testing.T) (*integrationEnv, *http.Client) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "server-integration.db")
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	migrationsDir := filepath.Join(filepath.Dir(file), "..", "sqlite", "migrations")
	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	pages := Pages{
		Proposal:  proposal.MustLoadEmbeddedProposal(),
		Checklist: tracker.MustLoadEmbeddedChecklist(),
		Payment: tracker.PaymentState{
			TotalAmount:       21000,
			PaidAmount:        1000,
			CurrentRequested:  1000,
			CurrentCheckpoint: 1,
			UPIID:             "9810167696@indie",
			PayeeName:         "Codvertex",
		},
		Dispatcher: upi.NewDispatcher(nil, upi.LocalSource(upi.LocalQRImageURL)),
	}
	s := NewServer("127.0.0.1:0", db, cache.NewVisitorSessionCache(), audit.NewService(), time.Hour, pages)
	ts := httptest.NewServer(s.Handler())
	env := &integrationEnv{server: ts, db: db, app: s}
	t.Cleanup(func() {
		env.server.Close()
		_ = env.db.Close()
	})
	return env, newHTTPClient(t)
}

func newHTTPClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postForm(t *testing.T, client *http.Client, baseURL, path string, data url.Values) *http.Response {
	t.Helper()
	return postFormAs(t, client, baseURL, path, data, desktopUA)
}

func postFormAs(t *testing.T, client *http.Client, baseURL, path string, data url.Values, userAgent string) *http.Response {
	t.Helper()
	if data == nil {
		data = url.Values{}
	}
	if token := csrfToken(t, client, baseURL); token != "" {
		data.Set("_csrf", token)
	}
	req, err := http.NewRequest(http.MethodPost, baseURL+path, strings.NewReader(data.Encode()))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

func get(t *testing.T, client *http.Client, baseURL, path string) *http.Response {
	t.Helper()
	resp, err := client.Get(baseURL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func csrfToken(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	u, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == csrfCookieName {
			return c.Value
		}
	}
	return ""
}

func sessionCount(t *testing.T, db *sqlite.DB) int {
	t.Helper()
	var n int
	err := db.WithReadTx(context.Background(), func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(*) FROM visitor_sessions`).Scan(ctx, &n)
	})
	if err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	return n
}

func TestRootAndHealth(t *testing.T) {
	env, client := setupIntegrationServer(t)

	resp := get(t, client, env.server.URL, "/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected root 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	resp = get(t, client, env.server.URL, "/health")
	if body := readBody(t, resp); body != "ok" {
		t.Fatalf("unexpected health body %q", body)
	}
	if resp.Header.Get("X-Frame-Options") != "DENY" {
		t.Fatalf("expected secure headers")
	}
}

func TestAssetsServed(t *testing.T) {
	env, client := setupIntegrationServer(t)
	resp := get(t, client, env.server.URL, "/assets/app.css")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected asset 200, got %d", resp.StatusCode)
	}
	_ = resp.Body.Close()
}

func TestCSRFPostWithoutTokenRejected(t *testing.T) {
	env, client := setupIntegrationServer(t)

	// No GET first: no CSRF token available in cookie or form.
	resp, err := client.PostForm(env.server.URL+"/tracker/notes", url.Values{"notes": {"x"}})
	if err != nil {
		t.Fatalf("post notes: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for missing csrf, got %d", resp.StatusCode)
	}
}

func TestCSRFPostWithoutToken_SameOriginRefererAccepted(t *testing.T) {
	env, client := setupIntegrationServer(t)
	_ = readBody(t, get(t, client, env.server.URL, "/tracker"))

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/tracker/checkpoints/1/toggle", strings.NewReader(""))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", env.server.URL+"/tracker")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("post toggle without csrf token: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected same-origin csrf fallback 303, got %d", resp.StatusCode)
	}
}

func TestCSRFPostWithoutToken_CrossOriginRejected(t *testing.T) {
	env, client := setupIntegrationServer(t)
	_ = readBody(t, get(t, client, env.server.URL, "/tracker"))

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/tracker/pay", strings.NewReader(""))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Referer", "https://evil.example/attack")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("post cross-origin request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for cross-origin missing csrf token, got %d", resp.StatusCode)
	}
}

func TestVisitorSessionIsReused(t *testing.T) {
	env, client := setupIntegrationServer(t)

	_ = readBody(t, get(t, client, env.server.URL, "/sara"))
	_ = readBody(t, get(t, client, env.server.URL, "/tracker"))
	if n := sessionCount(t, env.db); n != 1 {
		t.Fatalf("expected one visitor session, got %d", n)
	}

	other := newHTTPClient(t)
	_ = readBody(t, get(t, other, env.server.URL, "/tracker"))
	if n := sessionCount(t, env.db); n != 2 {
		t.Fatalf("expected a second visitor session, got %d", n)
	}
}

func TestExpiredVisitorSessionIsReplaced(t *testing.T) {
	env, client := setupIntegrationServer(t)

	token := session.NewToken()
	expired, err := session.Create(context.Background(), env.db, session.Digest(token), "old", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("seed expired session: %v", err)
	}
	u, _ := url.Parse(env.server.URL)
	client.Jar.SetCookies(u, []*http.Cookie{{Name: session.CookieName, Value: token, Path: "/"}})

	resp := get(t, client, env.server.URL, "/tracker")
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if _, err := session.Load(context.Background(), env.db, expired.ID); err == nil {
		t.Fatalf("expected expired session deleted")
	}
	if n := sessionCount(t, env.db); n != 1 {
		t.Fatalf("expected the replacement session only, got %d", n)
	}
}

func TestProposalAccordionFlow(t *testing.T) {
	env, client := setupIntegrationServer(t)

	body := readBody(t, get(t, client, env.server.URL, "/sara"))
	if strings.Contains(body, `class="accordion-content"`) {
		t.Fatalf("expected all sections closed initially")
	}

	resp := postForm(t, client, env.server.URL, "/sara/sections/1/toggle", nil)
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	resp = postForm(t, client, env.server.URL, "/sara/sections/4/toggle", nil)
	_ = readBody(t, resp)

	body = readBody(t, get(t, client, env.server.URL, "/sara"))
	if strings.Count(body, `class="accordion-content"`) != 1 {
		t.Fatalf("expected exactly one open section")
	}
	if !strings.Contains(body, `id="section-4" class="accordion-item open"`) {
		t.Fatalf("expected section 4 open")
	}
}

func TestTrackerEndToEndFlow(t *testing.T) {
	env, client := setupIntegrationServer(t)

	body := readBody(t, get(t, client, env.server.URL, "/tracker"))
	for _, want := range []string{"₹21,000", "₹1,000", "₹20,000", "4.8%"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q on tracker page", want)
		}
	}

	resp := postForm(t, client, env.server.URL, "/tracker/checkpoints/2/toggle", nil)
	_ = readBody(t, resp)
	resp = postForm(t, client, env.server.URL, "/tracker/checkpoints/2/subs/0/items/1/toggle", nil)
	_ = readBody(t, resp)
	resp = postForm(t, client, env.server.URL, "/tracker/notes", url.Values{"notes": {"homepage approved"}})
	_ = readBody(t, resp)
	if resp.Header.Get("Location") != "/tracker?status=notes+saved" {
		t.Fatalf("unexpected notes redirect %q", resp.Header.Get("Location"))
	}

	var summary tracker.Summary
	if err := json.Unmarshal([]byte(readBody(t, get(t, client, env.server.URL, "/tracker/api/summary"))), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.CompletedItems != 1 || len(summary.ExpandedIDs) != 1 || summary.ExpandedIDs[0] != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	body = readBody(t, get(t, client, env.server.URL, "/tracker"))
	if !strings.Contains(body, "homepage approved") {
		t.Fatalf("expected saved notes on page")
	}
}

func TestPaymentDispatch(t *testing.T) {
	env, client := setupIntegrationServer(t)
	_ = readBody(t, get(t, client, env.server.URL, "/tracker"))

	resp := postFormAs(t, client, env.server.URL, "/tracker/pay", nil, iPhoneUA)
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != "upi://pay?pa=9810167696@indie&pn=Codvertex&am=1000&cu=INR" {
		t.Fatalf("unexpected mobile redirect %q", got)
	}

	resp = postFormAs(t, client, env.server.URL, "/tracker/pay", nil, desktopUA)
	_ = readBody(t, resp)
	if resp.Header.Get("Location") != "/tracker" {
		t.Fatalf("unexpected desktop redirect %q", resp.Header.Get("Location"))
	}
	body := readBody(t, get(t, client, env.server.URL, "/tracker"))
	if !strings.Contains(body, upi.LocalQRImageURL) {
		t.Fatalf("expected local qr image in modal")
	}

	png := get(t, client, env.server.URL, upi.LocalQRImageURL)
	if png.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("expected png, got %q", png.Header.Get("Content-Type"))
	}
	_ = png.Body.Close()

	resp = postForm(t, client, env.server.URL, "/tracker/qr/close", nil)
	_ = readBody(t, resp)
	body = readBody(t, get(t, client, env.server.URL, "/tracker"))
	if strings.Contains(body, "Scan QR Code to Pay") {
		t.Fatalf("expected qr modal closed")
	}
}

func TestPruneSessions(t *testing.T) {
	env, _ := setupIntegrationServer(t)
	if _, err := session.Create(context.Background(), env.db, "stale", "ua", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("seed stale session: %v", err)
	}
	n, err := env.app.PruneSessions(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("prune sessions: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned session, got %d", n)
	}
}
