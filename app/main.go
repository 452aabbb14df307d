package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/playwright-community/playwright-go"
	"github.com/robfig/cron/v3"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/storecheck/storecheck/app/browser"
	"github.com/storecheck/storecheck/app/conditions"
	"github.com/storecheck/storecheck/app/config"
	"github.com/storecheck/storecheck/app/notify"
	"github.com/storecheck/storecheck/app/pages"
	"github.com/storecheck/storecheck/app/runner"
	"github.com/storecheck/storecheck/app/scenario"
	"github.com/storecheck/storecheck/app/store"
	"github.com/storecheck/storecheck/app/web"
)

var opts struct {
	Target        string   `short:"t" long:"target" env:"STORECHECK_TARGET" default:"https://demo.nopcommerce.com" description:"storefront base URL"`
	ConfigFile    string   `short:"f" long:"config" env:"STORECHECK_CONFIG" description:"YAML suite file, overrides scenario flags"`
	ScenariosFile string   `long:"scenarios" env:"STORECHECK_SCENARIOS" description:"scenarios file, .json or .csv, empty uses the embedded set"`
	NegativeFile  string   `long:"negative" env:"STORECHECK_NEGATIVE" description:"negative scenarios file, .json, empty uses the embedded set"`
	Set           string   `long:"set" env:"STORECHECK_SET" default:"all" choice:"all" choice:"main" choice:"submenu" choice:"category" description:"scenario set to run"`
	Categories    []string `long:"category" env:"STORECHECK_CATEGORY" env-delim:"," description:"categories for --set=category, can be repeated"`
	Concurrency   int      `long:"concurrency" env:"STORECHECK_CONCURRENCY" default:"1" description:"how many trials to run in parallel"`
	Schedule      string   `long:"schedule" env:"STORECHECK_SCHEDULE" description:"cron spec for monitor mode, empty runs the suite once"`
	DB            string   `long:"db" env:"STORECHECK_DB" default:"storecheck.db" description:"sqlite file for run results"`
	Verify        bool     `long:"verify" description:"verify the scenarios file against the schema and exit"`

	Browser struct {
		Headful     bool    `long:"headful" env:"HEADFUL" description:"run the browser with a visible window"`
		SlowMo      float64 `long:"slow-mo" env:"SLOW_MO" description:"slow down browser actions, ms"`
		Screenshots string  `long:"screenshots" env:"SCREENSHOTS" default:"screenshots" description:"directory for failure screenshots, empty disables capture"`
		SkipInstall bool    `long:"skip-install" env:"SKIP_INSTALL" description:"skip playwright driver install"`
	} `group:"browser" namespace:"browser" env-namespace:"STORECHECK_BROWSER"`

	Ready struct {
		Attempts int           `long:"attempts" env:"ATTEMPTS" default:"5" description:"readiness probe attempts before the run"`
		Duration time.Duration `long:"duration" env:"DURATION" default:"1s" description:"initial readiness backoff"`
	} `group:"ready" namespace:"ready" env-namespace:"STORECHECK_READY"`

	Web struct {
		Enabled  bool   `long:"enabled" env:"ENABLED" description:"enable the results dashboard"`
		Address  string `long:"address" env:"ADDRESS" default:":8080" description:"dashboard listen address"`
		AuthHash string `long:"auth-hash" env:"AUTH_HASH" description:"bcrypt hash of the dashboard password, empty disables auth"`
	} `group:"web" namespace:"web" env-namespace:"STORECHECK_WEB"`

	Notify struct {
		EnabledFailure    bool          `long:"enabled-failure" env:"ENABLED_FAILURE" description:"send a report when trials fail"`
		EnabledCompletion bool          `long:"enabled-complete" env:"ENABLED_COMPLETE" description:"send a report after every run"`
		To                []string      `long:"to" env:"TO" env-delim:"," description:"destination url(s), mailto: or http(s):"`
		SMTPHost          string        `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host"`
		SMTPPort          int           `long:"smtp-port" env:"SMTP_PORT" description:"SMTP port"`
		SMTPUsername      string        `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP user name"`
		SMTPPassword      string        `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
		SMTPTLS           bool          `long:"smtp-tls" env:"SMTP_TLS" description:"enable SMTP TLS"`
		SMTPTimeOut       time.Duration `long:"smtp-timeout" env:"SMTP_TIMEOUT" default:"10s" description:"SMTP TCP connection timeout"`
		Timeout           time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"webhook delivery timeout"`
		HostName          string        `long:"host" env:"HOSTNAME" description:"host name reported in notifications"`
	} `group:"notify" namespace:"notify" env-namespace:"STORECHECK_NOTIFY"`

	Preflight struct {
		CPUBelow      int     `long:"cpu-below" env:"CPU_BELOW" description:"skip the run if cpu usage is above this percent, 0 disables"`
		MemBelow      int     `long:"mem-below" env:"MEM_BELOW" description:"skip the run if memory usage is above this percent, 0 disables"`
		LoadAvgBelow  float64 `long:"loadavg-below" env:"LOADAVG_BELOW" description:"skip the run if loadavg is above this value, 0 disables"`
		DiskFreeAbove int     `long:"disk-free-above" env:"DISK_FREE_ABOVE" description:"skip the run if free disk space is below this percent, 0 disables"`
		DiskFreePath  string  `long:"disk-free-path" env:"DISK_FREE_PATH" default:"/" description:"path checked for free disk space"`
	} `group:"preflight" namespace:"preflight" env-namespace:"STORECHECK_PREFLIGHT"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"filename" env:"FILENAME" default:"storecheck.log" description:"log file name"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"maximum log size in megabytes"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"maximum number of old log files"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"maximum days to retain old log files"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"gzip rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"STORECHECK_LOG"`

	Dbg bool `long:"dbg" env:"STORECHECK_DEBUG" description:"debug mode"`
}

var revision = "unknown"

// errRunFailed separates trial failures (exit 1) from setup errors (exit 2)
var errRunFailed = errors.New("some trials failed")

func main() {
	fmt.Printf("storecheck %s\n", revision)

	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	setupLogs()

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel) // handle SIGQUIT and SIGTERM

	if err := run(ctx); err != nil {
		if errors.Is(err, errRunFailed) {
			log.Printf("[WARN] %v", err)
			os.Exit(1)
		}
		log.Printf("[ERROR] %v", err)
		os.Exit(2)
	}
}

func run(ctx context.Context) error {
	if opts.Verify {
		return verifyScenarios()
	}

	cfg, err := suiteConfig()
	if err != nil {
		return fmt.Errorf("suite config: %w", err)
	}

	positives, negatives, err := loadScenarios(cfg)
	if err != nil {
		return fmt.Errorf("load scenarios: %w", err)
	}
	log.Printf("[INFO] suite for %s, set %q, %d positive and %d negative scenarios",
		cfg.Target, cfg.Set, len(positives), len(negatives))

	st, err := store.New(opts.DB)
	if err != nil {
		return fmt.Errorf("open results store: %w", err)
	}
	defer st.Close() //nolint:errcheck // closing on the way out

	if opts.Web.Enabled {
		srv, err := web.New(web.Config{Store: st, Target: cfg.Target, Hostname: makeHostName(),
			Version: revision, PasswordHash: opts.Web.AuthHash})
		if err != nil {
			return fmt.Errorf("make web server: %w", err)
		}
		go func() {
			if err := srv.Run(ctx, opts.Web.Address); err != nil {
				log.Printf("[ERROR] web server terminated, %v", err)
			}
		}()
	}

	notifier := makeNotifier(cfg)
	preflight := makePreflight(cfg)

	if cfg.Schedule != "" {
		return monitor(ctx, cfg, st, notifier, preflight, positives, negatives)
	}
	return doRun(ctx, cfg, st, notifier, preflight, positives, negatives)
}

// monitor runs the suite on the cron schedule until the context is canceled.
// Trial failures are reported and logged but never terminate the service.
func monitor(ctx context.Context, cfg *config.Config, st *store.Store, notifier *notify.Service,
	preflight conditions.Preflight, positives []scenario.Scenario, negatives []scenario.NegativeScenario) error {

	c := cron.New()
	id, err := c.AddFunc(cfg.Schedule, func() {
		if err := doRun(ctx, cfg, st, notifier, preflight, positives, negatives); err != nil {
			log.Printf("[WARN] scheduled run: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("bad schedule %q: %w", cfg.Schedule, err)
	}

	c.Start()
	log.Printf("[INFO] monitor mode with schedule %q, next run at %s",
		cfg.Schedule, c.Entry(id).Schedule.Next(time.Now()).Format(time.RFC3339))

	<-ctx.Done()
	<-c.Stop().Done()
	log.Printf("[INFO] monitor terminated")
	return nil
}

// doRun executes the suite once, persists the results and sends notifications
func doRun(ctx context.Context, cfg *config.Config, st *store.Store, notifier *notify.Service,
	preflight conditions.Preflight, positives []scenario.Scenario, negatives []scenario.NegativeScenario) error {

	if preflight.Enabled() {
		if ok, reason := preflight.Check(); !ok {
			return fmt.Errorf("preflight blocked the run: %s", reason)
		}
	}

	if err := runner.WaitReady(ctx, cfg.Target, opts.Ready.Attempts, opts.Ready.Duration); err != nil {
		return err
	}

	launcher, err := browser.New(browser.Opts{
		Headless:      !opts.Browser.Headful,
		SlowMo:        opts.Browser.SlowMo,
		ScreenshotDir: opts.Browser.Screenshots,
		SkipInstall:   opts.Browser.SkipInstall,
	})
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer launcher.Close()

	r := runner.Runner{
		Factory:     makeFactory(launcher, cfg.Target),
		Target:      cfg.Target,
		Concurrency: cfg.Concurrency,
	}
	summary := r.Run(ctx, positives, negatives)

	if err := persistRun(ctx, st, summary, positives, negatives); err != nil {
		log.Printf("[WARN] failed to persist run: %v", err)
	}
	sendReport(ctx, notifier, summary)

	if !summary.Success() {
		return fmt.Errorf("%d of %d trials failed: %w", summary.Failed(), len(summary.Results), errRunFailed)
	}
	return nil
}

// catalogNavigator adds failure screenshot capture on top of the catalog
// page object
type catalogNavigator struct {
	*pages.Catalog
	launcher *browser.Launcher
	page     playwright.Page
}

// Screenshot captures the current page state into the screenshot dir
func (c *catalogNavigator) Screenshot(name string) (string, error) {
	return c.launcher.Screenshot(c.page, name)
}

// makeFactory provisions one catalog navigator per trial, each on its own
// browser context
func makeFactory(launcher *browser.Launcher, target string) runner.Factory {
	return func() (runner.Navigator, func(), error) {
		page, cleanup, err := launcher.NewPage()
		if err != nil {
			return nil, nil, err
		}
		nav := &catalogNavigator{Catalog: pages.NewCatalog(page, target), launcher: launcher, page: page}
		return nav, cleanup, nil
	}
}

func persistRun(ctx context.Context, st *store.Store, summary runner.Summary,
	positives []scenario.Scenario, negatives []scenario.NegativeScenario) error {

	runID, err := st.BeginRun(ctx, summary.Target, summary.StartedAt)
	if err != nil {
		return err
	}

	// results come back in scenario order, positives first
	for i, res := range summary.Results {
		trial := store.Trial{
			RunID:       runID,
			Description: res.Description,
			Kind:        res.Kind,
			Status:      res.Status,
			Location:    res.Location,
			Error:       res.Err,
			Screenshot:  res.Screenshot,
			StartedAt:   res.StartedAt,
			ElapsedMs:   res.Elapsed.Milliseconds(),
		}
		if i < len(positives) {
			trial.MainMenu, trial.SubMenu = positives[i].MainMenu, positives[i].SubMenu
		} else {
			trial.MainMenu, trial.SubMenu = negatives[i-len(positives)].MainMenu, negatives[i-len(positives)].SubMenu
		}
		if err := st.SaveTrial(ctx, trial); err != nil {
			return err
		}
	}

	return st.CompleteRun(ctx, runID, summary.StartedAt.Add(summary.Elapsed),
		len(summary.Results), summary.Passed(), summary.Failed())
}

func sendReport(ctx context.Context, notifier *notify.Service, summary runner.Summary) {
	if notifier == nil {
		return
	}
	if summary.Success() && !notifier.OnCompletion {
		return
	}
	if !summary.Success() && !notifier.OnFailure && !notifier.OnCompletion {
		return
	}

	report := notify.Report{
		Host:    makeHostName(),
		Target:  summary.Target,
		TS:      summary.StartedAt,
		Total:   len(summary.Results),
		Passed:  summary.Passed(),
		Elapsed: summary.Elapsed.Round(time.Millisecond),
	}
	for _, res := range summary.Results {
		if res.Status == store.StatusFailed {
			report.Failed = append(report.Failed, notify.FailedTrial{
				Description: res.Description, Target: res.Target, Error: res.Err})
		}
	}

	html, err := notify.MakeReportHTML(report)
	if err != nil {
		log.Printf("[WARN] failed to render report: %v", err)
		return
	}
	if err := notifier.Send(ctx, html); err != nil {
		log.Printf("[WARN] failed to send report: %v", err)
	}
}

// suiteConfig merges the YAML file form with the flags form, the file wins
func suiteConfig() (*config.Config, error) {
	if opts.ConfigFile != "" {
		return config.Load(opts.ConfigFile)
	}
	cfg := &config.Config{
		Target:        opts.Target,
		ScenariosFile: opts.ScenariosFile,
		NegativeFile:  opts.NegativeFile,
		Set:           opts.Set,
		Categories:    opts.Categories,
		Concurrency:   opts.Concurrency,
		Schedule:      opts.Schedule,
		Preflight: config.Preflight{
			CPUBelow:      opts.Preflight.CPUBelow,
			MemoryBelow:   opts.Preflight.MemBelow,
			LoadAvgBelow:  opts.Preflight.LoadAvgBelow,
			DiskFreeAbove: opts.Preflight.DiskFreeAbove,
			DiskFreePath:  opts.Preflight.DiskFreePath,
		},
		Notify: config.Notify{
			OnFailure:    opts.Notify.EnabledFailure,
			OnCompletion: opts.Notify.EnabledCompletion,
			Destinations: opts.Notify.To,
			Timeout:      opts.Notify.Timeout,
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadScenarios reads the positive and negative sets and applies the set
// filter. Negative scenarios only run with the full set, filtered sets are
// for targeted reruns.
func loadScenarios(cfg *config.Config) (positives []scenario.Scenario, negatives []scenario.NegativeScenario, err error) {
	switch {
	case cfg.ScenariosFile == "":
		positives, err = scenario.Default()
	case strings.HasSuffix(cfg.ScenariosFile, ".csv"):
		positives, err = scenario.CSVScenarios(os.DirFS(filepath.Dir(cfg.ScenariosFile)), filepath.Base(cfg.ScenariosFile))
	default:
		positives, err = scenario.ReadJSON(os.DirFS(filepath.Dir(cfg.ScenariosFile)), filepath.Base(cfg.ScenariosFile))
	}
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Set {
	case config.SetAll:
		positives = scenario.All(positives)
	case config.SetMain:
		positives = scenario.MainMenuOnly(positives)
	case config.SetSubmenu:
		positives = scenario.SubmenuOnly(positives)
	case config.SetCategory:
		var picked []scenario.Scenario
		for _, category := range cfg.Categories {
			picked = append(picked, scenario.ByCategory(positives, category)...)
		}
		positives = picked
	}
	if len(positives) == 0 {
		return nil, nil, fmt.Errorf("no scenarios matched set %q", cfg.Set)
	}

	if cfg.Set != config.SetAll {
		return positives, nil, nil
	}

	if cfg.NegativeFile == "" {
		negatives, err = scenario.DefaultNegative()
	} else {
		negatives, err = scenario.ReadNegativeJSON(os.DirFS(filepath.Dir(cfg.NegativeFile)), filepath.Base(cfg.NegativeFile))
	}
	if err != nil {
		return nil, nil, err
	}
	return positives, negatives, nil
}

// verifyScenarios checks a scenarios file, or the embedded set, against the
// schema and the semantic rules
func verifyScenarios() error {
	path := opts.ScenariosFile
	if path == "" {
		path = scenario.DefaultJSONFile
	}

	var data []byte
	var err error
	if opts.ScenariosFile == "" {
		data, err = scenario.Embedded().ReadFile(path)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // path comes from the operator
	}
	if err != nil {
		return fmt.Errorf("read scenarios %s: %w", path, err)
	}

	var file scenario.File
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse scenarios %s: %w", path, err)
	}
	if err := scenario.VerifyAgainstEmbeddedSchema(&file); err != nil {
		return fmt.Errorf("verify scenarios %s: %w", path, err)
	}
	log.Printf("[INFO] scenarios file %s is valid, %d scenarios", path, len(file.Scenarios))
	return nil
}

// makeNotifier builds the notification service from the merged suite
// config. SMTP transport settings always come from flags, credentials don't
// belong in the suite file.
func makeNotifier(cfg *config.Config) *notify.Service {
	if !cfg.Notify.OnFailure && !cfg.Notify.OnCompletion {
		return nil
	}
	svc := notify.New(cfg.Notify.Destinations, notify.SMTPParams{
		Host:     opts.Notify.SMTPHost,
		Port:     opts.Notify.SMTPPort,
		TLS:      opts.Notify.SMTPTLS,
		Username: opts.Notify.SMTPUsername,
		Password: opts.Notify.SMTPPassword,
		TimeOut:  opts.Notify.SMTPTimeOut,
	}, cfg.Notify.Timeout)
	svc.OnFailure = cfg.Notify.OnFailure
	svc.OnCompletion = cfg.Notify.OnCompletion
	return svc
}

func makePreflight(cfg *config.Config) conditions.Preflight {
	return conditions.Preflight{
		CPUBelow:      cfg.Preflight.CPUBelow,
		MemoryBelow:   cfg.Preflight.MemoryBelow,
		LoadAvgBelow:  cfg.Preflight.LoadAvgBelow,
		DiskFreeAbove: cfg.Preflight.DiskFreeAbove,
		DiskFreePath:  cfg.Preflight.DiskFreePath,
	}
}

func makeHostName() string {
	if opts.Notify.HostName != "" {
		return opts.Notify.HostName
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

func setupLogs() io.Writer {
	logOpts := []log.Option{log.Msec}
	if opts.Dbg {
		logOpts = append(logOpts, log.Debug, log.CallerFile, log.CallerFunc, log.CallerPkg)
	}

	if !opts.Log.Enabled {
		log.Setup(logOpts...)
		return os.Stdout
	}

	fileLogger := &lumberjack.Logger{
		Filename:   opts.Log.Filename,
		MaxSize:    opts.Log.MaxSize,
		MaxBackups: opts.Log.MaxBackups,
		MaxAge:     opts.Log.MaxAge,
		Compress:   opts.Log.EnabledCompress,
	}
	logOpts = append(logOpts, log.Out(fileLogger), log.Err(fileLogger))
	log.Setup(logOpts...)
	return fileLogger
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			cancel() // terminate on SIGTERM
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM)
}
