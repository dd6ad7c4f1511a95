// Package app provides the main application structure and coordination.
//
// It loads the configuration, builds the shared pipeline environment and
// scheduler, and drives pipelines from a line-oriented command shell,
// answering their prompts on the terminal.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dshills/quill/internal/buffer"
	"github.com/dshills/quill/internal/config"
	"github.com/dshills/quill/internal/encoding"
	"github.com/dshills/quill/internal/filestate"
	"github.com/dshills/quill/internal/logging"
	"github.com/dshills/quill/internal/metrics"
	"github.com/dshills/quill/internal/pipeline"
	"github.com/dshills/quill/internal/process"
	"github.com/prometheus/client_golang/prometheus"
)

// Options configures application startup.
type Options struct {
	// ConfigPath is the path to a TOML or YAML configuration file.
	ConfigPath string

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// Files are the command-line file arguments.
	Files []string

	// Encoding is nil for the default encoding, empty to ask once, or the
	// tag to load Files with.
	Encoding *string

	// DisablePositionParsing loads Files verbatim, without :line:col.
	DisablePositionParsing bool

	// In and Out default to the process standard input and output.
	In  io.Reader
	Out io.Writer
}

// Application is the main application.
type Application struct {
	opts Options
	cfg  *config.Config

	log     *logging.Logger
	logFile io.Closer

	registry      *prometheus.Registry
	metrics       *metrics.Recorder
	metricsServer *http.Server

	env   *pipeline.Env
	sched *process.Scheduler
	ui    *Terminal

	openView   *buffer.OpenView
	recentView *buffer.RecentView
	current    *buffer.FileBuffer
}

// New creates a new application.
func New(opts Options) (*Application, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		app.Shutdown()
		return nil, err
	}
	return app, nil
}

func (app *Application) bootstrap() error {
	cfg, err := config.Load(app.opts.ConfigPath)
	if err != nil {
		return &ComponentError{Component: "config", Action: "load", Err: err}
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return &ComponentError{Component: "config", Action: "environment", Err: err}
	}
	if app.opts.LogLevel != "" {
		cfg.Log.Level = app.opts.LogLevel
	}

	encodings := encoding.NewRegistry()
	if err := cfg.Validate(encodings.Probe); err != nil {
		return &ComponentError{Component: "config", Action: "validate", Err: err}
	}
	app.cfg = cfg

	if err := app.initLogging(); err != nil {
		return &ComponentError{Component: "logging", Err: err}
	}

	app.registry = prometheus.NewRegistry()
	app.metrics = metrics.New(app.registry)

	app.env = pipeline.NewEnv(cfg.Files)
	app.env.Encodings = encodings
	app.env.Metrics = app.metrics

	app.ui = NewTerminal(app.opts.In, app.opts.Out, encodings)
	app.sched = process.NewScheduler(
		process.WithLogger(app.log.WithComponent("process")),
		process.WithMetrics(app.metrics),
		process.WithReporter(func(_ process.Process, msg string) {
			app.ui.Printf("%s", msg)
		}),
	)

	app.openView = buffer.NewOpenView(app.env.Open)
	app.recentView = buffer.NewRecentView(app.env.Recent, cfg.Files.MaxRecentFiles)

	app.log.Debug("bootstrap complete")
	return nil
}

func (app *Application) initLogging() error {
	logCfg := logging.DefaultConfig()
	logCfg.Level, _ = logging.ParseLevel(app.cfg.Log.Level)
	logCfg.Format = app.cfg.Log.Format

	if app.cfg.Log.File != "" {
		f, err := os.OpenFile(app.cfg.Log.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		logCfg.Output = f
		app.logFile = f
	}

	app.log = logging.New(logCfg)
	logging.SetDefault(app.log)
	return nil
}

// Env returns the pipeline environment.
func (app *Application) Env() *pipeline.Env {
	return app.env
}

// Current returns the buffer commands act on, or nil.
func (app *Application) Current() *buffer.FileBuffer {
	return app.current
}

// Run loads the command-line files and then reads commands until the user
// quits, input ends or ctx is done. A normal exit returns ErrQuit.
func (app *Application) Run(ctx context.Context) error {
	app.startMetrics()

	if err := app.loadCLIFiles(ctx); err != nil {
		return err
	}
	return app.shell(ctx)
}

func (app *Application) loadCLIFiles(ctx context.Context) error {
	p := pipeline.NewLoadCLIFiles(app.env, pipeline.CLIOptions{
		Files:                  app.opts.Files,
		Encoding:               app.opts.Encoding,
		DisablePositionParsing: app.opts.DisablePositionParsing || !app.cfg.Files.ParseFilePositions,
	})
	if err := app.execute(ctx, p, nil); err != nil {
		return err
	}

	if loaded := p.Loaded(); len(loaded) > 0 {
		app.show(loaded[len(loaded)-1])
	} else if app.env.Open.Len() == 0 {
		app.newBuffer()
	}
	return nil
}

// execute runs p to completion, answering its prompts on the terminal. When
// preset is not nil it answers the first path prompt.
func (app *Application) execute(ctx context.Context, p process.Process, preset *process.Answer) error {
	if err := app.sched.Execute(p, nil); err != nil {
		return err
	}

	for app.sched.Busy() {
		pending := app.sched.Pending()
		if pending == nil {
			app.sched.Abort()
			return errors.New("pipeline stalled without a prompt")
		}

		var answer process.Answer
		if preset != nil && pending.Kind == process.Path {
			answer, preset = *preset, nil
		} else {
			var err error
			answer, err = app.ui.Ask(ctx, pending)
			if err != nil {
				app.sched.Abort()
				return err
			}
		}

		if err := app.sched.Resume(answer); err != nil {
			if errors.Is(err, process.ErrInvalidAnswer) {
				app.ui.Printf("Invalid answer")
				continue
			}
			app.sched.Abort()
			return err
		}
	}
	app.openView.Invalidate()
	return nil
}

// show makes file the current buffer.
func (app *Application) show(file *buffer.FileBuffer) {
	if app.current != nil && app.current != file {
		app.current.SetWindow(false)
	}
	app.current = file
	if file != nil {
		file.SetWindow(true)
	}
	app.openView.Invalidate()
}

func (app *Application) newBuffer() *buffer.FileBuffer {
	file := buffer.New("", app.env.DefaultEncoding())
	app.env.Open.Add(file)
	app.show(file)
	return file
}

// showLast makes the last open buffer current, or clears the current buffer.
func (app *Application) showLast() {
	if n := app.env.Open.Len(); n > 0 {
		app.show(app.env.Open.At(n - 1))
		return
	}
	app.current = nil
}

func (app *Application) startMetrics() {
	if !app.cfg.Metrics.Enabled || app.metricsServer != nil {
		return
	}

	srv := &http.Server{
		Addr:              app.cfg.Metrics.Address,
		Handler:           metrics.Handler(app.registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	app.metricsServer = srv

	log := app.log.WithComponent("metrics")
	go func() {
		log.Info("serving metrics on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed: %v", err)
		}
	}()
}

// Shutdown aborts any running pipeline and releases resources.
// Safe to call more than once.
func (app *Application) Shutdown() {
	if app.sched != nil && app.sched.Busy() {
		app.sched.Abort()
	}

	if app.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := app.metricsServer.Shutdown(ctx); err != nil && app.log != nil {
			app.log.Warn("metrics server shutdown: %v", err)
		}
		cancel()
		app.metricsServer = nil
	}

	if app.logFile != nil {
		app.logFile.Close()
		app.logFile = nil
	}
}

// transactionOutcome converts how a file transaction ended into an error:
// nil on a clean success, filestate.ErrAborted when the user declined and a
// *filestate.TransactionError when a result was reported.
func transactionOutcome(op, name string, succeeded bool, r filestate.Result) error {
	switch {
	case r.OK() && succeeded:
		return nil
	case r.OK():
		return fmt.Errorf("%s %s: %w", op, name, filestate.ErrAborted)
	default:
		return filestate.NewTransactionError(op, name, r)
	}
}

// logOutcome logs a transaction outcome. The user has already been shown
// the report, so it is not returned to the shell.
func (app *Application) logOutcome(op, name string, succeeded bool, r filestate.Result) {
	err := transactionOutcome(op, name, succeeded, r)
	if err == nil {
		app.log.Debug("%s %s: done", op, name)
		return
	}
	if code, ok := filestate.CodeOf(err); ok && code.Disposition() == filestate.Terminate {
		app.log.Warn("%v", err)
		return
	}
	app.log.Info("%v", err)
}
