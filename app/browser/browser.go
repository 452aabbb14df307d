// Package browser owns the playwright driver lifecycle, i.e. install, run,
// launch and per-trial page provisioning, plus screenshot capture for failed
// trials.
package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/playwright-community/playwright-go"
)

// Launcher manages a single browser process shared by all trials. Each trial
// gets its own context (incognito-like), so cookies and storage never leak
// between trials.
type Launcher struct {
	pw            *playwright.Playwright
	browser       playwright.Browser
	screenshotDir string
}

// Opts defines launcher options
type Opts struct {
	Headless      bool
	SlowMo        float64 // ms slowdown for debugging with a visible browser
	ScreenshotDir string  // empty disables capture
	SkipInstall   bool    // skip driver install, for environments with browsers baked in
}

// New installs the chromium driver if needed, starts playwright and launches
// the browser.
func New(opts Opts) (*Launcher, error) {
	if !opts.SkipInstall {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("install playwright browsers: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	brow, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(opts.SlowMo),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	if opts.ScreenshotDir != "" {
		if err := os.MkdirAll(opts.ScreenshotDir, 0o750); err != nil {
			_ = brow.Close()
			_ = pw.Stop()
			return nil, fmt.Errorf("make screenshot dir %s: %w", opts.ScreenshotDir, err)
		}
	}

	log.Printf("[INFO] browser launched, headless=%v", opts.Headless)
	return &Launcher{pw: pw, browser: brow, screenshotDir: opts.ScreenshotDir}, nil
}

// NewPage provisions a page in a fresh isolated context. The returned cleanup
// closes the context.
func (l *Launcher) NewPage() (playwright.Page, func(), error) {
	ctx, err := l.browser.NewContext()
	if err != nil {
		return nil, nil, fmt.Errorf("new browser context: %w", err)
	}
	page, err := ctx.NewPage()
	if err != nil {
		_ = ctx.Close()
		return nil, nil, fmt.Errorf("new page: %w", err)
	}
	return page, func() { _ = ctx.Close() }, nil
}

// Screenshot captures the full page into the screenshot dir and returns the
// file path, empty when capture is disabled.
func (l *Launcher) Screenshot(page playwright.Page, name string) (string, error) {
	if l.screenshotDir == "" {
		return "", nil
	}
	path := filepath.Join(l.screenshotDir, ScreenshotName(name, time.Now()))
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return "", fmt.Errorf("capture screenshot %s: %w", path, err)
	}
	return path, nil
}

// Close shuts the browser and the playwright driver down
func (l *Launcher) Close() {
	if l.browser != nil {
		_ = l.browser.Close()
	}
	if l.pw != nil {
		_ = l.pw.Stop()
	}
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ScreenshotName makes a filesystem-safe png name from a trial description
// and a timestamp
func ScreenshotName(name string, ts time.Time) string {
	safe := unsafeNameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		safe = "trial"
	}
	return fmt.Sprintf("%s-%s.png", safe, ts.Format("20060102-150405"))
}
