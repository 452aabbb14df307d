// Package runner executes navigation trials against a live storefront.
// A trial is one scenario: navigate to the menu target, read the location,
// judge the outcome. Trials are independent, may run in parallel and are
// never retried, a flaky verdict is a verdict.
package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/go-pkgz/syncs"

	"github.com/storecheck/storecheck/app/pages"
	"github.com/storecheck/storecheck/app/scenario"
	"github.com/storecheck/storecheck/app/store"
)

// Navigator is the page-object seam the runner drives. Implementations
// return errors instead of panicking, the negative path asserts on
// pages.ErrUnknownMenuTarget and nothing else.
type Navigator interface {
	Open() error
	NavigateTo(mainMenu, subMenu string) error
	Location() string
}

// Screenshoter is implemented by navigators able to capture the current page
type Screenshoter interface {
	Screenshot(name string) (string, error)
}

// Factory provisions an isolated Navigator per trial and a cleanup for it
type Factory func() (Navigator, func(), error)

// Result is the explicit per-trial report, collected by the runner instead
// of being accumulated in shared state.
type Result struct {
	Description string
	Target      string
	Kind        store.Kind
	Status      store.Status
	Location    string
	Err         string
	Screenshot  string
	StartedAt   time.Time
	Elapsed     time.Duration
}

// Summary is the outcome of a whole suite run
type Summary struct {
	Target    string
	StartedAt time.Time
	Elapsed   time.Duration
	Results   []Result
}

// Passed counts passed trials
func (s Summary) Passed() (n int) {
	for _, r := range s.Results {
		if r.Status == store.StatusPassed {
			n++
		}
	}
	return n
}

// Failed counts failed trials
func (s Summary) Failed() int { return len(s.Results) - s.Passed() }

// Success reports if every trial passed
func (s Summary) Success() bool { return s.Failed() == 0 }

// Runner drives the suite. Concurrency bounds the number of trials in
// flight, each one on its own navigator.
type Runner struct {
	Factory     Factory
	Target      string
	Concurrency int
}

// Run executes all positive and negative trials and returns the collected
// results in scenario order, positives first.
func (r *Runner) Run(ctx context.Context, positives []scenario.Scenario, negatives []scenario.NegativeScenario) Summary {
	concurrency := r.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	started := time.Now()
	results := make([]Result, len(positives)+len(negatives))

	gr := syncs.NewSizedGroup(concurrency, syncs.Context(ctx))
	for i, s := range positives {
		gr.Go(func(ctx context.Context) {
			if ctx.Err() != nil {
				results[i] = canceledResult(s.Description, s.String(), store.KindPositive)
				return
			}
			results[i] = r.runPositive(s)
		})
	}
	offset := len(positives)
	for i, n := range negatives {
		gr.Go(func(ctx context.Context) {
			if ctx.Err() != nil {
				results[offset+i] = canceledResult(n.Description, n.String(), store.KindNegative)
				return
			}
			results[offset+i] = r.runNegative(n)
		})
	}
	gr.Wait()

	summary := Summary{Target: r.Target, StartedAt: started, Elapsed: time.Since(started), Results: results}
	log.Printf("[INFO] run completed, %d trials, %d passed, %d failed, took %v",
		len(summary.Results), summary.Passed(), summary.Failed(), summary.Elapsed.Round(time.Millisecond))
	return summary
}

// runPositive executes one positive trial, the location after navigation
// must contain the expected fragment
func (r *Runner) runPositive(s scenario.Scenario) Result {
	result := Result{Description: s.Description, Target: s.String(), Kind: store.KindPositive, StartedAt: time.Now()}

	nav, cleanup, err := r.Factory()
	if err != nil {
		return failed(result, fmt.Sprintf("provision navigator: %v", err))
	}
	defer cleanup()

	if err := nav.Open(); err != nil {
		return r.failedWithScreenshot(nav, result, fmt.Sprintf("open storefront: %v", err))
	}
	if err := nav.NavigateTo(s.MainMenu, s.SubMenu); err != nil {
		return r.failedWithScreenshot(nav, result, fmt.Sprintf("navigate: %v", err))
	}

	result.Location = nav.Location()
	if !strings.Contains(result.Location, s.ExpectedURL) {
		return r.failedWithScreenshot(nav, result,
			fmt.Sprintf("location %q does not contain %q", result.Location, s.ExpectedURL))
	}

	result.Status = store.StatusPassed
	result.Elapsed = time.Since(result.StartedAt)
	log.Printf("[DEBUG] trial %q passed in %v", s.Description, result.Elapsed.Round(time.Millisecond))
	return result
}

// runNegative executes one negative trial, the navigation itself must be
// rejected with pages.ErrUnknownMenuTarget
func (r *Runner) runNegative(n scenario.NegativeScenario) Result {
	result := Result{Description: n.Description, Target: n.String(), Kind: store.KindNegative, StartedAt: time.Now()}

	nav, cleanup, err := r.Factory()
	if err != nil {
		return failed(result, fmt.Sprintf("provision navigator: %v", err))
	}
	defer cleanup()

	if err := nav.Open(); err != nil {
		return r.failedWithScreenshot(nav, result, fmt.Sprintf("open storefront: %v", err))
	}

	err = nav.NavigateTo(n.MainMenu, n.SubMenu)
	switch {
	case err == nil:
		result.Location = nav.Location()
		return r.failedWithScreenshot(nav, result, "navigation unexpectedly succeeded")
	case errors.Is(err, pages.ErrUnknownMenuTarget):
		result.Status = store.StatusPassed
		result.Elapsed = time.Since(result.StartedAt)
		log.Printf("[DEBUG] negative trial %q rejected as expected", n.Description)
		return result
	default:
		return r.failedWithScreenshot(nav, result, fmt.Sprintf("unexpected failure kind: %v", err))
	}
}

func (r *Runner) failedWithScreenshot(nav Navigator, result Result, msg string) Result {
	if sc, ok := nav.(Screenshoter); ok {
		path, err := sc.Screenshot(result.Description)
		if err != nil {
			log.Printf("[WARN] screenshot for %q failed: %v", result.Description, err)
		} else {
			result.Screenshot = path
		}
	}
	return failed(result, msg)
}

func failed(result Result, msg string) Result {
	result.Status = store.StatusFailed
	result.Err = msg
	result.Elapsed = time.Since(result.StartedAt)
	log.Printf("[WARN] trial %q failed: %s", result.Description, msg)
	return result
}

func canceledResult(description, target string, kind store.Kind) Result {
	return Result{Description: description, Target: target, Kind: kind,
		Status: store.StatusFailed, Err: "canceled", StartedAt: time.Now()}
}

// WaitReady blocks until the target answers an HTTP GET, with backoff
// retries. This is the only retry in the runner, trials themselves never
// repeat.
func WaitReady(ctx context.Context, url string, attempts int, initial time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	client := &http.Client{Timeout: 10 * time.Second}

	check := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("make readiness request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("storefront not reachable: %w", err)
		}
		defer resp.Body.Close() //nolint:errcheck // nothing to do with close error
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("storefront answered %d", resp.StatusCode)
		}
		return nil
	}

	rptr := repeater.New(&strategy.Backoff{Repeats: attempts, Duration: initial, Factor: 2, Jitter: true})
	if err := rptr.Do(ctx, check); err != nil {
		return fmt.Errorf("storefront %s not ready after %d attempts: %w", url, attempts, err)
	}
	return nil
}
