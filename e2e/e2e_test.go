//go:build e2e

// Package e2e provides end-to-end browser tests against a live storefront
// plus the storecheck dashboard.
//
// Test organization:
// - e2e_test.go: TestMain, shared helpers, dashboard and API tests
// - navigation_test.go: data-driven top menu navigation tests
// - negative_test.go: rejection of unknown menu targets
// - search_test.go: storefront search tests
// - account_test.go: customer registration and login tests
//
// The storefront under test defaults to the public nopCommerce demo and can
// be overridden with STORECHECK_E2E_TARGET.
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dashboardURL = "http://localhost:18080"
	testDBPath   = "/tmp/storecheck-e2e.db"
)

var (
	storeURL  = "https://demo.nopcommerce.com"
	pw        *playwright.Playwright
	serverCmd *exec.Cmd
)

func TestMain(m *testing.M) {
	if v := os.Getenv("STORECHECK_E2E_TARGET"); v != "" {
		storeURL = strings.TrimSuffix(v, "/")
	}

	// clean old test data
	_ = os.Remove(testDBPath)

	// the storefront is external, make sure it answers before burning
	// browser time on it
	if err := waitForServer(storeURL, 30*time.Second); err != nil {
		fmt.Printf("storefront %s not reachable: %v\n", storeURL, err)
		os.Exit(1)
	}

	// build test binary
	ctx := context.Background()
	build := exec.CommandContext(ctx, "go", "build", "-o", "/tmp/storecheck-e2e", "./app")
	build.Dir = ".."
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		fmt.Printf("failed to build: %v\n", err)
		os.Exit(1)
	}

	// start the dashboard in monitor mode with a far-off schedule, so no
	// suite run interferes with the browser tests
	serverCmd = exec.CommandContext(ctx, "/tmp/storecheck-e2e",
		"--target="+storeURL,
		"--schedule=@every 24h",
		"--web.enabled",
		"--web.address=:18080",
		"--db="+testDBPath,
		"--browser.skip-install",
		"--notify.host=e2e-test",
	)
	serverCmd.Stdout = os.Stdout
	serverCmd.Stderr = os.Stderr
	if err := serverCmd.Start(); err != nil {
		fmt.Printf("failed to start server: %v\n", err)
		os.Exit(1)
	}

	if err := waitForServer(dashboardURL+"/ping", 30*time.Second); err != nil {
		fmt.Printf("dashboard not ready: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	// install playwright browsers
	if err := playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	}); err != nil {
		fmt.Printf("failed to install playwright: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	var err error
	pw, err = playwright.Run()
	if err != nil {
		fmt.Printf("failed to start playwright: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	code := m.Run()

	_ = pw.Stop()
	_ = serverCmd.Process.Kill()
	_ = os.Remove(testDBPath)

	os.Exit(code)
}

func waitForServer(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("not ready after %v", timeout)
		default:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
			if err != nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			resp, err := client.Do(req)
			if err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode < http.StatusInternalServerError {
					return nil
				}
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
}

func newPage(t *testing.T) playwright.Page {
	t.Helper()
	headless := os.Getenv("E2E_HEADLESS") != "false"
	slowMo := 0.0
	if !headless {
		slowMo = 50 // 50ms slowdown for UI mode
	}
	brow, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		SlowMo:   playwright.Float(slowMo),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = brow.Close() })

	// isolated context (incognito-like) for complete test isolation
	ctx, err := brow.NewContext()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })

	page, err := ctx.NewPage()
	require.NoError(t, err)
	return page
}

func TestDashboard_Loads(t *testing.T) {
	page := newPage(t)

	_, err := page.Goto(dashboardURL)
	require.NoError(t, err)

	err = page.Locator(".header").WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	})
	require.NoError(t, err)

	text, err := page.Locator(".header").InnerText()
	require.NoError(t, err)
	assert.Contains(t, text, "Storecheck Dashboard")

	badge, err := page.Locator(".target-badge").InnerText()
	require.NoError(t, err)
	assert.Contains(t, badge, storeURL)
}

func TestDashboard_StatusAPI(t *testing.T) {
	resp, err := http.Get(dashboardURL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var status struct {
		Target   string `json:"target"`
		Hostname string `json:"hostname"`
		Uptime   string `json:"uptime"`
	}
	require.NoError(t, json.Unmarshal(body, &status))
	assert.Equal(t, storeURL, status.Target)
	assert.Equal(t, "e2e-test", status.Hostname)
	assert.NotEmpty(t, status.Uptime)
}

func TestDashboard_RunsAPI(t *testing.T) {
	// no suite run has happened yet, the list is empty but well-formed
	resp, err := http.Get(dashboardURL + "/api/v1/runs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var runs []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	assert.Empty(t, runs)

	resp2, err := http.Get(dashboardURL + "/api/v1/runs?limit=0")
	require.NoError(t, err)
	_ = resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}
