package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/simklx/internal/models"
	"github.com/desertthunder/simklx/internal/services"
	"github.com/desertthunder/simklx/internal/shared"
	"github.com/desertthunder/simklx/internal/tasks"
	"github.com/desertthunder/simklx/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Remote services are built on first use from the loaded configuration unless injected.
type Runner struct {
	config     *shared.Config
	configPath string
	history    services.HistoryService
	metadata   services.MetadataService
	reviews    services.ReviewService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	confirm    tasks.Confirmer
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
	openURL    func(url string) error

	mu sync.Mutex // guards output

	progressMu sync.Mutex
	flush      func() // prints queued progress updates; nil when no printer runs
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	History    services.HistoryService
	Metadata   services.MetadataService
	Reviews    services.ReviewService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Confirm    tasks.Confirmer
	Sleep      func(ctx context.Context, d time.Duration) error
	Now        func() time.Time
	OpenURL    func(url string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Confirm == nil {
		opts.Confirm = ui.Confirmer(opts.Input, opts.Output)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		history:    opts.History,
		metadata:   opts.Metadata,
		reviews:    opts.Reviews,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		confirm:    opts.Confirm,
		sleep:      opts.Sleep,
		now:        opts.Now,
		openURL:    opts.OpenURL,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, importCommand, reconcileCommand, watchlistCommand, expandCommand, reviewsCommand, runsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config and applies --verbose.
//
// A missing file keeps the defaults; a malformed one is an error.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if path == "" {
		return ctx, nil
	}
	r.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return ctx, nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return ctx, fmt.Errorf("%w: %w", shared.ErrInvalidConfig, err)
	}
	r.config = config
	r.logger.Debug("config loaded", "path", path)
	return ctx, nil
}

// historyService returns the Simkl client, building it from config on first use.
func (r *Runner) historyService() (services.HistoryService, error) {
	if r.history != nil {
		return r.history, nil
	}
	if err := r.config.ValidateSimkl(); err != nil {
		return nil, err
	}

	svc, err := services.NewSimklService(r.config.Simkl.BaseURL, r.config.Simkl.ClientID, r.httpClient)
	if err != nil {
		return nil, err
	}
	r.history = svc
	return svc, nil
}

// metadataService returns the TMDB client, building it from config on first use.
func (r *Runner) metadataService() (services.MetadataService, error) {
	if r.metadata != nil {
		return r.metadata, nil
	}
	if err := r.config.ValidateTMDB(); err != nil {
		return nil, err
	}

	svc, err := services.NewTMDBService(r.config.TMDB.BaseURL, r.config.TMDB.APIKey, r.config.TMDB.RequestsPerSecond, r.httpClient)
	if err != nil {
		return nil, err
	}
	r.metadata = svc
	return svc, nil
}

// reviewService returns the Letterboxd scraper, paced at one page per second.
func (r *Runner) reviewService() services.ReviewService {
	if r.reviews == nil {
		client := *r.httpClient
		r.reviews = services.NewLetterboxdService(r.config.Letterboxd.BaseURL, rate.NewLimiter(rate.Every(time.Second), 1), &client)
	}
	return r.reviews
}

// engineOpts configures an engine for one command invocation.
type engineOpts struct {
	openBrowser    bool
	settleDelay    time.Duration
	watchlistLabel string
}

// newEngine wires the configured services into a sync engine.
//
// metadata may be nil for commands that never expand shows.
func (r *Runner) newEngine(history services.HistoryService, metadata services.MetadataService, opts engineOpts) *tasks.SyncEngine {
	label := opts.watchlistLabel
	if label == "" {
		label = r.config.Sync.WatchlistLabel
	}

	return tasks.NewSyncEngine(history, metadata, tasks.EngineOptions{
		Logger:         shared.WithLogger(r.logger, "component", "engine"),
		Notify:         r.notifier(opts.openBrowser),
		Confirm:        r.prompt,
		SettleDelay:    opts.settleDelay,
		WatchlistLabel: label,
		Now:            r.now,
		Sleep:          r.sleep,
	})
}

// notifier prints the pairing code and optionally opens the verification page.
func (r *Runner) notifier(openBrowser bool) tasks.Notifier {
	return func(code *models.DeviceCode) {
		r.writePlain("\n%s\n", ui.RenderPairing(code))
		if !openBrowser {
			return
		}
		if err := r.openURL(code.VerificationURL); err != nil {
			r.logger.Warn("failed to open browser", "url", code.VerificationURL, "error", err)
		}
	}
}

// startProgress prints updates until the returned stop function is called.
func (r *Runner) startProgress() (chan<- tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	flushCh := make(chan chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case update, ok := <-progressCh:
				if !ok {
					return
				}
				r.printProgress(update)
			case ack := <-flushCh:
				r.drainProgress(progressCh)
				close(ack)
			}
		}
	}()

	r.setFlush(func() {
		ack := make(chan struct{})
		select {
		case flushCh <- ack:
			<-ack
		case <-done:
		}
	})

	return progressCh, func() {
		close(progressCh)
		<-done
		r.setFlush(nil)
	}
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	if update.Phase == tasks.Authenticate {
		return
	}
	r.writePlain("%s\n", ui.RenderProgress(update))
}

// drainProgress prints the updates already queued without waiting for more.
func (r *Runner) drainProgress(progressCh <-chan tasks.ProgressUpdate) {
	for {
		select {
		case update, ok := <-progressCh:
			if !ok {
				return
			}
			r.printProgress(update)
		default:
			return
		}
	}
}

func (r *Runner) setFlush(fn func()) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.flush = fn
}

// prompt asks the operator a question once every queued progress line is printed.
//
// The prompt draws straight to the output, so it holds the output lock until answered.
func (r *Runner) prompt(ctx context.Context, question string) (bool, error) {
	r.progressMu.Lock()
	flush := r.flush
	r.progressMu.Unlock()
	if flush != nil {
		flush()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.confirm(ctx, question)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
