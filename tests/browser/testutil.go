// Package browser provides shared test utilities for Playwright browser tests
// against the harness shell. All browser test files use HarnessTestEnv via
// SetupHarnessTestEnv(t).
package browser

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/cocobolo/uitest/internal/bridge"
	"github.com/cocobolo/uitest/internal/harness"
	"github.com/cocobolo/uitest/internal/ratelimit"
	"github.com/cocobolo/uitest/internal/web"
)

const (
	// CODING AGENT RULE: Always use these timeout constants for browser tests.
	// Never introduce a larger timeout value anywhere in tests/browser.
	browserMaxTimeoutMS = 5000
	browserMaxTimeout   = 5 * time.Second
)

var harnessFixtureMu sync.Mutex
var harnessSharedFixture *HarnessTestEnv

// HarnessTestEnv is the unified test environment for all browser tests. Every
// test gets the full harness mux: shell page, invoke bridge, preview, reset.
type HarnessTestEnv struct {
	Server      *httptest.Server
	BaseURL     string
	Bridge      *bridge.Dispatcher
	Renderer    *web.Renderer
	RateLimiter *ratelimit.RateLimiter

	pw        *playwright.Playwright
	browser   playwright.Browser
	browserMu sync.Mutex
}

// SetupHarnessTestEnv returns the shared harness test server with fresh
// bridge fixtures.
func SetupHarnessTestEnv(t *testing.T) *HarnessTestEnv {
	t.Helper()

	harnessFixtureMu.Lock()
	defer harnessFixtureMu.Unlock()

	if harnessSharedFixture == nil {
		harnessSharedFixture = createHarnessTestEnv(t)
	}

	harnessSharedFixture.Bridge.Reset()
	return harnessSharedFixture
}

func createHarnessTestEnv(t *testing.T) *HarnessTestEnv {
	t.Helper()

	renderer, err := web.NewRenderer(findTemplatesDir())
	if err != nil {
		t.Fatalf("Failed to create renderer: %v", err)
	}

	// High limits so assertions never trip the per-client limiter.
	rateLimiter := ratelimit.NewRateLimiter(ratelimit.Config{
		RPS:             10000,
		Burst:           100000,
		CleanupInterval: time.Hour,
	})

	dispatcher := bridge.New()
	srv := harness.New(dispatcher, renderer, rateLimiter, findStaticDir())

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	server := httptest.NewServer(mux)

	return &HarnessTestEnv{
		Server:      server,
		BaseURL:     server.URL,
		Bridge:      dispatcher,
		Renderer:    renderer,
		RateLimiter: rateLimiter,
	}
}

func cleanupHarnessTestEnv() {
	harnessFixtureMu.Lock()
	defer harnessFixtureMu.Unlock()

	if harnessSharedFixture == nil {
		return
	}
	if harnessSharedFixture.browser != nil {
		_ = harnessSharedFixture.browser.Close()
	}
	if harnessSharedFixture.pw != nil {
		_ = harnessSharedFixture.pw.Stop()
	}
	if harnessSharedFixture.Server != nil {
		harnessSharedFixture.Server.Close()
	}
	if harnessSharedFixture.RateLimiter != nil {
		harnessSharedFixture.RateLimiter.Stop()
	}
	harnessSharedFixture = nil
}

func TestMain(m *testing.M) {
	code := m.Run()
	cleanupHarnessTestEnv()
	os.Exit(code)
}

// =============================================================================
// Directory finders
// =============================================================================

func findTemplatesDir() string {
	dir := filepath.Join(repositoryRoot(), "web", "templates")
	if _, err := os.Stat(dir); err != nil {
		panic("Cannot find templates directory")
	}
	return dir
}

func findStaticDir() string {
	dir := filepath.Join(repositoryRoot(), "web", "static")
	if _, err := os.Stat(dir); err != nil {
		panic("Cannot find static directory")
	}
	return dir
}

func repositoryRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("Failed to resolve repository root for test utilities")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
}

// =============================================================================
// Browser lifecycle helpers
// =============================================================================

// InitBrowser initializes Playwright and launches Chromium. Skips the test if
// not available.
func (env *HarnessTestEnv) InitBrowser(t *testing.T) {
	t.Helper()

	env.browserMu.Lock()
	defer env.browserMu.Unlock()

	if env.browser != nil {
		return
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Skip("Playwright not available:", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		_ = pw.Stop()
		t.Skip("Could not launch browser:", err)
	}
	env.pw = pw
	env.browser = browser
}

// NewPage creates a new browser page with the default test timeout.
func (env *HarnessTestEnv) NewPage(t *testing.T) playwright.Page {
	t.Helper()

	page, err := env.browser.NewPage()
	if err != nil {
		t.Fatalf("could not create page: %v", err)
	}
	page.SetDefaultTimeout(browserMaxTimeoutMS)
	page.SetDefaultNavigationTimeout(browserMaxTimeoutMS)
	return page
}

// =============================================================================
// Navigation and wait helpers
// =============================================================================

// Navigate navigates to a path on the test server and waits for
// DOMContentLoaded.
func Navigate(t *testing.T, page playwright.Page, baseURL, path string) {
	t.Helper()

	_, err := page.Goto(baseURL+path, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(browserMaxTimeoutMS),
	})
	if err != nil {
		t.Fatalf("Failed to navigate to %s: %v", path, err)
	}
}

// WaitForSelector waits for an element to be visible and returns its locator.
func WaitForSelector(t *testing.T, page playwright.Page, selector string) playwright.Locator {
	t.Helper()

	locator := page.Locator(selector)
	first := locator.First()
	err := first.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(browserMaxTimeoutMS),
	})
	if err != nil {
		currentURL := page.URL()
		content, _ := page.Content()
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		t.Logf("Current URL: %s", currentURL)
		t.Logf("Content preview: %s", content)
		t.Fatalf("Failed to wait for selector %s: %v", selector, err)
	}
	return first
}

// =============================================================================
// Harness flow helpers
// =============================================================================

// OpenShell navigates to the shell page and waits for the vault picker.
func (env *HarnessTestEnv) OpenShell(t *testing.T, page playwright.Page) {
	t.Helper()

	Navigate(t, page, env.BaseURL, "/")
	WaitForSelector(t, page, "#vault-picker.active")
	WaitForSelector(t, page, ".vault-item[data-vault-id='vault-personal']")
}

// SelectPersonalVault clicks the Personal fixture vault and waits for the
// unlock screen.
func (env *HarnessTestEnv) SelectPersonalVault(t *testing.T, page playwright.Page) {
	t.Helper()

	item := WaitForSelector(t, page, ".vault-item[data-vault-id='vault-personal']")
	if err := item.Click(); err != nil {
		t.Fatalf("Failed to click vault item: %v", err)
	}
	WaitForSelector(t, page, "#unlock-screen.active")
}

// SubmitUnlock types the password into the unlock form and submits it.
func SubmitUnlock(t *testing.T, page playwright.Page, password string) {
	t.Helper()

	if err := page.Locator("#vault-password").Fill(password); err != nil {
		t.Fatalf("Failed to fill password: %v", err)
	}
	if err := page.Locator("#unlock-button").Click(); err != nil {
		t.Fatalf("Failed to click unlock: %v", err)
	}
}

// UnlockPersonalVault walks the full picker-to-app flow with the fixture
// password and waits for the notes list.
func (env *HarnessTestEnv) UnlockPersonalVault(t *testing.T, page playwright.Page) {
	t.Helper()

	env.OpenShell(t, page)
	env.SelectPersonalVault(t, page)
	SubmitUnlock(t, page, bridge.DefaultUnlockPassword)
	WaitForSelector(t, page, "#app-screen.active")
	WaitForSelector(t, page, ".note-item")
}
