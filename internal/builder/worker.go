package builder

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"tsmulti/internal/compiler"
	"tsmulti/internal/errors"
	"tsmulti/internal/helpers"
	"tsmulti/internal/report"
	"tsmulti/internal/slogutil"
	"tsmulti/internal/target"
	"tsmulti/internal/tsconfig"
	"tsmulti/internal/vfs"
	"tsmulti/internal/watcher"
)

// worker builds every project for one target. It is used by a single
// goroutine.
type worker struct {
	opts     Options
	o        *Orchestrator
	target   target.Target
	// targets are every target of the run, this one included.
	targets  []target.Target
	name     string
	logger   *slog.Logger
	compiler compiler.Compiler
	catalog  *helpers.Catalog

	// stat caches existence checks on physical paths; sys maps logical
	// paths onto it.
	stat *vfs.StatCache
	sys  vfs.System

	errorCount int
}

func (o *Orchestrator) newWorker(t target.Target, targets []target.Target, logger *slog.Logger, prefixed bool) *worker {
	name := t.Name()
	if prefixed {
		logger = slogutil.ForTarget(logger, name)
	}
	stat := vfs.NewStatCache(vfs.New(o.fs), vfs.DefaultStatCacheSize)
	return &worker{
		opts:     o.opts,
		o:        o,
		target:   t,
		targets:  targets,
		name:     name,
		logger:   logger,
		compiler: o.factory(),
		catalog:  o.catalog,
		stat:     stat,
		sys:      vfs.Rewrite(stat, t),
	}
}

func (w *worker) reportDiagnostic(d report.Diagnostic) {
	if d.Category == report.CategoryError {
		w.errorCount++
	}
	w.o.reporter.ReportDiagnostic(w.name, d)
}

func (w *worker) reportError(err error) {
	w.reportDiagnostic(report.Diagnostic{
		Category: report.CategoryError,
		Code:     string(errors.CodeOf(err)),
		Message:  err.Error(),
	})
}

func (w *worker) status(status report.Status, message string) {
	w.o.reporter.ReportStatus(w.name, status, message)
}

func (w *worker) verbose(format string, args ...interface{}) {
	if w.opts.Verbose {
		w.status(report.StatusBuilding, fmt.Sprintf(format, args...))
	}
}

// run performs the first build and, in watch mode, keeps rebuilding until
// ctx is done.
func (w *worker) run(ctx context.Context, projects []string) int {
	w.status(report.StatusConfigured, "")
	code, loaded := w.cycle(ctx, projects)
	if !w.opts.Watch || w.opts.TranspileOnly {
		return code
	}
	return w.watch(ctx, projects, loaded, code)
}

// cycle builds projects once and returns the exit code and the projects
// that were loaded.
func (w *worker) cycle(ctx context.Context, projects []string) (int, []*tsconfig.Project) {
	w.errorCount = 0
	w.status(report.StatusBuilding, "")
	start := time.Now()

	loaded, err := w.load(projects)
	if err != nil {
		w.reportError(err)
		w.status(report.StatusFailed, "")
		return 1, nil
	}

	failed := false
	for _, p := range loaded {
		if err := ctx.Err(); err != nil {
			w.reportError(err)
			failed = true
			break
		}
		prepared, err := w.prepare(p)
		if err != nil {
			w.logger.Error("Cannot configure project", "project", p.ConfigPath, "error", err.Error())
			w.reportError(err)
			failed = true
			break
		}
		if err := w.buildProject(ctx, prepared); err != nil {
			w.logger.Error("Build failed", "project", p.ConfigPath, "error", err.Error())
			w.reportError(err)
			failed = true
			break
		}
	}

	if w.errorCount > 0 && !w.opts.TranspileOnly {
		failed = true
	}
	w.logger.Info("Build finished",
		"projects", len(loaded),
		"errors", w.errorCount,
		"durationMs", time.Since(start).Milliseconds())
	if failed {
		w.status(report.StatusFailed, "")
		return 1, loaded
	}
	w.status(report.StatusSucceeded, "")
	return 0, loaded
}

// load reads the project configurations. Whole-program builds include
// referenced projects in dependency order; transpile-only builds read the
// named projects alone.
func (w *worker) load(projects []string) ([]*tsconfig.Project, error) {
	if !w.opts.TranspileOnly {
		return tsconfig.LoadGraph(w.o.fs, projects)
	}
	loaded := make([]*tsconfig.Project, 0, len(projects))
	for _, path := range projects {
		p, err := tsconfig.Load(w.o.fs, path)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// prepare applies the target's compiler options to p and checks the
// preconditions of helper sharing.
func (w *worker) prepare(p *tsconfig.Project) (*tsconfig.Project, error) {
	prepared, err := withTarget(p, w.target, w.opts.ShareHelpers != "")
	if err != nil {
		return nil, err
	}
	if w.opts.ShareHelpers != "" && prepared.Options.OutDir == "" {
		return nil, errors.Newf(errors.OutDirRequired,
			"outDir must be set when specifying shareHelpers (%s)", p.ConfigPath).WithTarget(w.name)
	}
	return prepared, nil
}

// withTarget returns p with t's compiler options applied.
func withTarget(p *tsconfig.Project, t target.Target, shareHelpers bool) (*tsconfig.Project, error) {
	overrides := make(map[string]interface{}, len(t.CompilerOptions)+1)
	for k, v := range t.CompilerOptions {
		overrides[k] = v
	}
	if shareHelpers {
		overrides["importHelpers"] = true
	}
	return p.WithOverrides(overrides)
}

// logicalOutputs lists every logical path a build of the prepared project
// may write, the helpers module included.
func (w *worker) logicalOutputs(p *tsconfig.Project) []string {
	var outputs []string
	for _, file := range p.FileNames {
		if tsconfig.IsDeclaration(file) {
			continue
		}
		out := p.OutputFileName(file)
		decl := p.DeclarationFileName(file)
		outputs = append(outputs, out, out+".map", decl, decl+".map")
	}
	if w.opts.ShareHelpers != "" && p.Options.OutDir != "" {
		outputs = append(outputs, w.helpersOutput(p))
	}
	return outputs
}

// isInput reports whether path is one of the project's root files.
func isInput(p *tsconfig.Project, path string) bool {
	i := sort.SearchStrings(p.FileNames, path)
	return i < len(p.FileNames) && p.FileNames[i] == path
}

// helpersPath is the consolidated helpers module in source coordinates.
func (w *worker) helpersPath(p *tsconfig.Project) string {
	if w.opts.ShareHelpers == "" {
		return ""
	}
	return filepath.Join(p.CommonSourceDir(), w.opts.ShareHelpers)
}

// helpersOutput is the logical path the helpers module is written to.
func (w *worker) helpersOutput(p *tsconfig.Project) string {
	return filepath.Join(p.Options.OutDir, w.opts.ShareHelpers)
}

func (w *worker) watch(ctx context.Context, projects []string, loaded []*tsconfig.Project, code int) int {
	cfg := watcher.DefaultConfig()
	if w.opts.Watcher != nil {
		cfg = *w.opts.Watcher
	}
	cfg.IgnoreDirs = append(cfg.IgnoreDirs, outputDirs(loaded)...)

	wt, err := watcher.New(cfg, w.logger)
	if err != nil {
		w.reportError(err)
		return 1
	}
	defer wt.Stop()

	configs := w.configPaths(projects)
	w.watchProjects(wt, configs, loaded)
	outputs := w.outputSet(loaded)
	wt.Start()
	w.status(report.StatusSucceeded, "Watching for file changes.")

	for {
		select {
		case <-ctx.Done():
			return code
		case batch := <-wt.Batches():
			w.stat.Purge()
			changed := relevant(batch, configs, loaded, outputs)
			if len(changed) == 0 {
				w.logger.Debug("Ignoring changes outside the project inputs", "events", len(batch))
				continue
			}
			w.status(report.StatusBuilding,
				fmt.Sprintf("File change detected (%d events). Starting incremental compilation...", len(changed)))
			// A cycle in progress always completes.
			var next []*tsconfig.Project
			code, next = w.cycle(context.WithoutCancel(ctx), projects)
			if next != nil {
				loaded = next
			}
			outputs = w.outputSet(loaded)
			w.watchProjects(wt, configs, loaded)
		}
	}
}

// configPaths resolves the named projects to their config files.
func (w *worker) configPaths(projects []string) []string {
	paths := make([]string, 0, len(projects))
	for _, project := range projects {
		path, err := filepath.Abs(tsconfig.ResolveConfigPath(w.o.fs, project))
		if err != nil {
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func (w *worker) watchProjects(wt *watcher.Watcher, configs []string, loaded []*tsconfig.Project) {
	dirs := make([]string, 0, len(configs)+len(loaded))
	for _, c := range configs {
		dirs = append(dirs, filepath.Dir(c))
	}
	for _, p := range loaded {
		dirs = append(dirs, p.Dir())
	}
	for _, dir := range dirs {
		if err := wt.Add(dir); err != nil {
			w.logger.Warn("Cannot watch project", "dir", dir, "error", err.Error())
		}
	}
}

// outputSet holds the physical paths the builds of loaded write for every
// target of the run. Paths that are also inputs are left out.
func (w *worker) outputSet(loaded []*tsconfig.Project) map[string]bool {
	set := make(map[string]bool)
	for _, t := range w.targets {
		for _, p := range loaded {
			prepared, err := withTarget(p, t, w.opts.ShareHelpers != "")
			if err != nil {
				continue
			}
			paths := make([]string, 0, len(p.FileNames)*4+len(buildInfoSuffixes))
			for _, out := range w.logicalOutputs(prepared) {
				paths = append(paths, t.RewritePath(out))
			}
			if info := prepared.BuildInfoPath(t.Extname); info != "" {
				for _, suffix := range buildInfoSuffixes {
					paths = append(paths, info+suffix)
				}
			}
			for _, path := range paths {
				if !isInput(p, path) {
					set[path] = true
				}
			}
		}
	}
	return set
}

// relevant returns the events of batch that can change a build: edits to
// config files, to files the projects include and removals of directories
// holding root files. Outputs of every target are ignored.
func relevant(batch []watcher.Event, configs []string, loaded []*tsconfig.Project, outputs map[string]bool) []watcher.Event {
	var changed []watcher.Event
	for _, ev := range batch {
		path := filepath.Clean(ev.Path)
		if outputs[path] {
			continue
		}
		if affects(ev.Type, path, configs, loaded) {
			changed = append(changed, ev)
		}
	}
	return changed
}

func affects(typ watcher.EventType, path string, configs []string, loaded []*tsconfig.Project) bool {
	if slices.Contains(configs, path) {
		return true
	}
	removed := typ == watcher.EventDelete || typ == watcher.EventRename
	for _, p := range loaded {
		if slices.Contains(p.ConfigFiles, path) || p.Includes(path) {
			return true
		}
		if removed && p.Contains(path) {
			return true
		}
	}
	return false
}

func outputDirs(projects []*tsconfig.Project) []string {
	var dirs []string
	for _, p := range projects {
		for _, dir := range []string{p.Options.OutDir, p.Options.DeclarationDir} {
			if dir != "" {
				dirs = append(dirs, dir)
			}
		}
	}
	return dirs
}
