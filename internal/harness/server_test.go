package harness

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cocobolo/uitest/internal/bridge"
	"github.com/cocobolo/uitest/internal/ratelimit"
	"github.com/cocobolo/uitest/internal/web"
)

func testTemplatesDir(t *testing.T) string {
	t.Helper()
	candidates := []string{
		"../../web/templates",
		"../web/templates",
		"./web/templates",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Fatalf("unable to locate templates directory from test working directory")
	return ""
}

func newTestServer(t *testing.T) (*Server, *http.ServeMux) {
	t.Helper()

	renderer, err := web.NewRenderer(testTemplatesDir(t))
	require.NoError(t, err)

	limiter := ratelimit.NewRateLimiter(ratelimit.Config{
		RPS:             10000,
		Burst:           10000,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(limiter.Stop)

	srv := New(bridge.New(), renderer, limiter, "../../web/static")
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	return srv, mux
}

func doInvoke(t *testing.T, mux *http.ServeMux, command string, args any) *httptest.ResponseRecorder {
	t.Helper()

	var body strings.Reader
	if args != nil {
		raw, err := json.Marshal(args)
		require.NoError(t, err)
		body = *strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(http.MethodPost, "/invoke/"+command, &body)
	req.RemoteAddr = "127.0.0.1:50000"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeValue[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var resp struct {
		Value T `json:"value"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Value
}

func TestHealth(t *testing.T) {
	_, mux := newTestServer(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestShellPage(t *testing.T) {
	_, mux := newTestServer(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vault-picker")
	assert.Contains(t, rec.Body.String(), "/static/harness.js")
}

func TestInvoke_ResolvedValue(t *testing.T) {
	_, mux := newTestServer(t)

	rec := doInvoke(t, mux, "greet", map[string]any{"name": "Ada"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	got := decodeValue[string](t, rec)
	assert.Contains(t, got, "Hello, Ada!")
}

func TestInvoke_SnakeCaseResponseFields(t *testing.T) {
	_, mux := newTestServer(t)

	rec := doInvoke(t, mux, "validate_password_strength", map[string]any{
		"password": "short",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	value := decodeValue[map[string]any](t, rec)
	assert.Contains(t, value, "is_valid")
	assert.Contains(t, value, "score")
	assert.Contains(t, value, "issues")
}

func TestInvoke_StructuredFailureIsStill200(t *testing.T) {
	srv, mux := newTestServer(t)

	rec := doInvoke(t, mux, "unlock_vault", map[string]any{
		"path":     bridge.DefaultVaultPath,
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	value := decodeValue[map[string]any](t, rec)
	assert.Equal(t, false, value["success"])
	assert.NotEmpty(t, value["error_message"])
	assert.Empty(t, srv.Bridge.ActiveSession())
}

func TestInvoke_ThrownErrorIsRejected(t *testing.T) {
	_, mux := newTestServer(t)

	rec := doInvoke(t, mux, "greet", map[string]any{"name": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Name cannot be empty", resp.Error)
}

func TestInvoke_UnknownCommand(t *testing.T) {
	_, mux := newTestServer(t)

	rec := doInvoke(t, mux, "no_such_command", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestInvoke_SessionGate(t *testing.T) {
	_, mux := newTestServer(t)

	rec := doInvoke(t, mux, "get_notes_list", map[string]any{
		"vaultPath": bridge.DefaultVaultPath,
		"sessionId": "stale-token",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInvoke_FullUnlockFlow(t *testing.T) {
	_, mux := newTestServer(t)

	rec := doInvoke(t, mux, "unlock_vault", map[string]any{
		"path":     bridge.DefaultVaultPath,
		"password": bridge.DefaultUnlockPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	unlock := decodeValue[map[string]any](t, rec)
	require.Equal(t, true, unlock["success"])
	session, _ := unlock["session_id"].(string)
	require.NotEmpty(t, session)

	rec = doInvoke(t, mux, "get_notes_list", map[string]any{
		"vaultPath": bridge.DefaultVaultPath,
		"sessionId": session,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	notes := decodeValue[[]map[string]any](t, rec)
	assert.NotEmpty(t, notes)
}

func TestReset_RestoresFixturesAndStubs(t *testing.T) {
	srv, mux := newTestServer(t)

	srv.Bridge.StubValue("greet", "stubbed")
	rec := doInvoke(t, mux, "greet", map[string]any{"name": "Ada"})
	require.Equal(t, "stubbed", decodeValue[string](t, rec))

	resetRec := httptest.NewRecorder()
	mux.ServeHTTP(resetRec, httptest.NewRequest(http.MethodPost, "/harness/reset", nil))
	require.Equal(t, http.StatusOK, resetRec.Code)

	rec = doInvoke(t, mux, "greet", map[string]any{"name": "Ada"})
	assert.Contains(t, decodeValue[string](t, rec), "Hello, Ada!")
	assert.Equal(t, 1, srv.Bridge.CallCount("greet"))
}

func TestPreviewRoute(t *testing.T) {
	_, mux := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/preview", strings.NewReader(`{"content":"# Hi"}`))
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hi")
}

func TestInvoke_RateLimited(t *testing.T) {
	renderer, err := web.NewRenderer(testTemplatesDir(t))
	require.NoError(t, err)

	limiter := ratelimit.NewRateLimiter(ratelimit.Config{
		RPS:             1,
		Burst:           2,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(limiter.Stop)

	srv := New(bridge.New(), renderer, limiter, "../../web/static")
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = doInvoke(t, mux, "get_app_info", nil)
	}
	require.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
}
