// Package builder runs one isolated build worker per target over a set of
// projects.
//
// Workers share nothing but the read-only source tree. Every target writes
// to its own physical output paths and, for incremental projects, to its
// own cache file, so targets can build concurrently without locks.
package builder

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"tsmulti/internal/compiler"
	"tsmulti/internal/helpers"
	"tsmulti/internal/report"
	"tsmulti/internal/slogutil"
	"tsmulti/internal/target"
	"tsmulti/internal/watcher"
)

// Options controls every worker of a run.
type Options struct {
	// Compiler names the registered compiler. Ignored when Factory is set.
	Compiler string
	Factory  compiler.Factory
	Catalog  *helpers.Catalog

	// ShareHelpers is the helpers file name relative to each project's
	// common source directory. Empty keeps helpers inline.
	ShareHelpers        string
	PureClassAssignment bool
	// MaxWorkers bounds concurrently building targets. Zero means one
	// worker per target.
	MaxWorkers int

	TranspileOnly bool
	Watch         bool
	Verbose       bool
	Dry           bool
	Force         bool

	// Watcher configures watch mode. The zero value means
	// watcher.DefaultConfig.
	Watcher *watcher.Config
}

// Orchestrator fans builds out over targets.
type Orchestrator struct {
	opts     Options
	fs       afero.Fs
	reporter report.Reporter
	logger   *slog.Logger
	factory  compiler.Factory
	catalog  *helpers.Catalog
}

// New creates an orchestrator. A nil fs means the host file system.
func New(opts Options, fs afero.Fs, reporter report.Reporter, logger *slog.Logger) (*Orchestrator, error) {
	factory := opts.Factory
	if factory == nil {
		var err error
		if factory, err = compiler.Lookup(opts.Compiler); err != nil {
			return nil, err
		}
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = helpers.Default
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if reporter == nil {
		reporter = report.Discard{}
	}
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Orchestrator{
		opts:     opts,
		fs:       fs,
		reporter: reporter,
		logger:   logger,
		factory:  factory,
		catalog:  catalog,
	}, nil
}

// Build builds projects for every target and returns the process exit
// code: 0 when every target succeeded, 1 otherwise. With Options.Watch it
// returns once ctx is cancelled.
func (o *Orchestrator) Build(ctx context.Context, targets []target.Target, projects []string) int {
	return o.fanOut(ctx, "build", targets, func(ctx context.Context, w *worker) int {
		return w.run(ctx, projects)
	})
}

// Clean removes the outputs and caches Build would produce and returns the
// exit code.
func (o *Orchestrator) Clean(ctx context.Context, targets []target.Target, projects []string) int {
	return o.fanOut(ctx, "clean", targets, func(ctx context.Context, w *worker) int {
		return w.clean(ctx, projects)
	})
}

func (o *Orchestrator) fanOut(ctx context.Context, op string, targets []target.Target, fn func(context.Context, *worker) int) int {
	if len(targets) == 0 {
		targets = []target.Target{{}}
	}
	runID := uuid.New().String()
	logger := o.logger.With("run", runID)
	start := time.Now()
	logger.Debug("Starting "+op, "targets", len(targets), "maxWorkers", o.opts.MaxWorkers)

	codes := make([]int, len(targets))
	var g errgroup.Group
	if o.opts.MaxWorkers > 0 {
		g.SetLimit(o.opts.MaxWorkers)
	}
	for i, t := range targets {
		w := o.newWorker(t, targets, logger, len(targets) > 1)
		g.Go(func() error {
			codes[i] = fn(ctx, w)
			return nil
		})
	}
	_ = g.Wait()

	exit := 0
	for _, code := range codes {
		if code != 0 {
			exit = 1
		}
	}
	logger.Debug("Finished "+op, "exitCode", exit, "durationMs", time.Since(start).Milliseconds())
	return exit
}
