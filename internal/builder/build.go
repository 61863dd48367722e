package builder

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"

	"tsmulti/internal/buildcache"
	"tsmulti/internal/compiler"
	"tsmulti/internal/errors"
	"tsmulti/internal/helpers"
	"tsmulti/internal/jsast"
	"tsmulti/internal/purity"
	"tsmulti/internal/report"
	"tsmulti/internal/specifier"
	"tsmulti/internal/tsconfig"
	"tsmulti/internal/vfs"
)

// buildProject compiles the files of one prepared project. Diagnostics go
// to the reporter; the returned error is for failures that stop the
// target.
func (w *worker) buildProject(ctx context.Context, p *tsconfig.Project) error {
	w.verbose("Building project '%s'...", p.ConfigPath)

	cache, err := w.openCache(p)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	usage := &helpers.Usage{}
	rctx := &specifier.Context{
		Target:            w.target,
		HelpersPath:       w.helpersPath(p),
		ResolveJSONModule: p.Options.ResolveJSONModule,
		FS:                w.sys,
		Usage:             usage,
	}

	var states []buildcache.FileState
	current := make(map[string]bool, len(p.FileNames))
	for _, file := range p.FileNames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if tsconfig.IsDeclaration(file) || filepath.Ext(file) == ".json" {
			continue
		}
		current[file] = true

		src, err := w.stat.ReadFile(file)
		if err != nil {
			switch {
			case w.stat.FileExists(file):
				return errors.New(errors.InternalError, fmt.Sprintf("cannot read %s", file), err)
			case w.opts.TranspileOnly:
				w.logger.Debug("Skipping missing file", "file", file)
			default:
				w.reportDiagnostic(report.Diagnostic{
					File:     file,
					Category: report.CategoryError,
					Message:  "File not found.",
				})
			}
			continue
		}

		hash := buildcache.Hash(src)
		if prev := w.upToDate(cache, file, hash); prev != nil {
			usage.Record(prev.Helpers...)
			continue
		}
		if w.opts.Dry {
			w.status(report.StatusBuilding, fmt.Sprintf("A non-dry build would build '%s'", file))
			continue
		}

		state, err := w.compileFile(ctx, p, rctx.ForModule(file), file, src)
		if err != nil {
			return err
		}
		if state != nil {
			state.Hash = hash
			states = append(states, *state)
		}
	}

	if cache != nil && !w.opts.Dry {
		if err := w.removeStale(p, cache, current); err != nil {
			return err
		}
		if err := cache.Put(states...); err != nil {
			return err
		}
	}

	if rctx.SharesHelpers() && !p.Options.NoEmit && !w.opts.Dry {
		if err := w.writeHelpers(ctx, p, usage); err != nil {
			return err
		}
	}
	return nil
}

// openCache returns the project's cache for this target, or nil when the
// build does not use one. Dry runs get a read-only cache. The database
// lives on the host file system, so builds over any other afero.Fs use a
// transient in-memory cache.
func (w *worker) openCache(p *tsconfig.Project) (*buildcache.Cache, error) {
	if w.opts.TranspileOnly {
		return nil, nil
	}
	path := p.BuildInfoPath(w.target.Extname)
	if path == "" {
		return nil, nil
	}
	_, onDisk := w.o.fs.(*afero.OsFs)
	if w.opts.Dry {
		if !onDisk || w.opts.Force {
			return nil, nil
		}
		return w.openDryCache(p, path)
	}
	if !onDisk {
		w.logger.Debug("Using an in-memory build cache", "path", path)
		path = ""
	}
	cache, err := buildcache.Open(path, w.logger)
	if err != nil {
		return nil, err
	}

	if w.opts.Force {
		if err := cache.Reset(); err != nil {
			cache.Close()
			return nil, err
		}
	}
	kept, err := cache.Validate(w.fingerprint(p))
	if err != nil {
		cache.Close()
		return nil, err
	}
	w.logger.Debug("Opened build cache", "path", path, "kept", kept)
	return cache, nil
}

// openDryCache opens the cache at path read-only. It returns nil when
// the cache is missing or was written with other build options.
func (w *worker) openDryCache(p *tsconfig.Project, path string) (*buildcache.Cache, error) {
	cache, err := buildcache.OpenReadOnly(path, w.logger)
	if err != nil || cache == nil {
		return nil, err
	}
	ok, err := cache.Matches(w.fingerprint(p))
	if err != nil || !ok {
		cache.Close()
		return nil, err
	}
	return cache, nil
}

// fingerprint covers everything that changes the output of an unchanged
// source file.
func (w *worker) fingerprint(p *tsconfig.Project) string {
	return buildcache.Fingerprint(map[string]interface{}{
		"compilerOptions":     p.Raw,
		"extname":             w.target.Extname,
		"module":              w.target.Module,
		"shareHelpers":        w.opts.ShareHelpers,
		"pureClassAssignment": w.opts.PureClassAssignment,
		"compiler":            w.opts.Compiler,
	})
}

// upToDate returns the cached state of file when its outputs can be
// reused.
func (w *worker) upToDate(cache *buildcache.Cache, file, hash string) *buildcache.FileState {
	if cache == nil {
		return nil
	}
	prev, err := cache.File(file)
	if err != nil || prev == nil || prev.Hash != hash {
		return nil
	}
	for _, out := range prev.Outputs {
		if !w.sys.FileExists(out) {
			return nil
		}
	}
	for _, check := range prev.Checks {
		if !check.Holds(w.sys) {
			w.logger.Debug("Module resolution changed", "file", file, "path", check.Path)
			return nil
		}
	}
	return prev
}

// compileFile runs one source file through the pipeline: compile, rewrite
// module references, group class assignments, print and write. It
// returns nil when nothing was emitted.
func (w *worker) compileFile(ctx context.Context, p *tsconfig.Project, rctx *specifier.Context, file string, src []byte) (*buildcache.FileState, error) {
	outName := p.OutputFileName(file)
	if input := w.overwrittenInput(p, file); input != "" {
		w.reportDiagnostic(report.Diagnostic{
			Category: report.CategoryError,
			Code:     "TS5055",
			Message:  fmt.Sprintf("Cannot write file '%s' because it would overwrite input file.", input),
		})
		return nil, nil
	}
	out, err := w.compiler.Transpile(ctx, compiler.Input{
		FileName:   file,
		Source:     src,
		OutputName: outName,
		Target:     w.target,
		Options:    p.Options,
	})
	if err != nil {
		return nil, err
	}
	for _, d := range out.Diagnostics {
		w.reportDiagnostic(d)
	}
	if out.Module == nil || p.Options.NoEmit || (out.HasErrors() && p.Options.NoEmitOnError) {
		return nil, nil
	}

	out.Module.Path = file
	specifier.RewriteModule(out.Module, rctx)
	if w.opts.PureClassAssignment {
		out.Module = purity.Group(out.Module)
	}

	code := jsast.Print(out.Module)
	if out.SourceMap != nil {
		code = appendMapURL(code, filepath.Base(outName)+".map")
	}
	outputs := []string{outName}
	if err := w.sys.WriteFile(outName, []byte(code)); err != nil {
		return nil, err
	}
	if out.SourceMap != nil {
		if err := w.sys.WriteFile(outName+".map", out.SourceMap); err != nil {
			return nil, err
		}
		outputs = append(outputs, outName+".map")
	}

	checks := rctx.Checks()
	if out.Declaration != nil && p.Options.Declaration {
		declName := p.DeclarationFileName(file)
		decl := out.Declaration
		decl.Path = file
		declCtx := rctx.ForModule(file)
		specifier.RewriteModule(decl, declCtx)
		checks = appendChecks(checks, declCtx.Checks())
		if err := w.sys.WriteFile(declName, []byte(jsast.Print(decl))); err != nil {
			return nil, err
		}
		outputs = append(outputs, declName)
	}
	w.logger.Debug("Emitted file", "file", file, "outputs", len(outputs))

	if out.HasErrors() {
		// Keep the outputs but rebuild the file next time.
		return nil, nil
	}
	return &buildcache.FileState{
		Source:  file,
		Outputs: outputs,
		Helpers: unscopedHelpers(out.Module),
		Checks:  checks,
		BuiltAt: time.Now(),
	}, nil
}

// overwrittenInput returns the physical path of a root file that
// compiling file would overwrite, or "".
func (w *worker) overwrittenInput(p *tsconfig.Project, file string) string {
	out := p.OutputFileName(file)
	outputs := []string{out}
	if p.Options.SourceMap {
		outputs = append(outputs, out+".map")
	}
	if p.Options.Declaration {
		decl := p.DeclarationFileName(file)
		outputs = append(outputs, decl)
		if p.Options.DeclarationMap {
			outputs = append(outputs, decl+".map")
		}
	}
	for _, logical := range outputs {
		if physical := w.target.RewritePath(logical); isInput(p, physical) {
			return physical
		}
	}
	return ""
}

func appendChecks(dst, src []vfs.Check) []vfs.Check {
	for _, c := range src {
		if !slices.Contains(dst, c) {
			dst = append(dst, c)
		}
	}
	return dst
}

func appendMapURL(code, url string) string {
	if code != "" && !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	return code + "//# sourceMappingURL=" + url + "\n"
}

func unscopedHelpers(m *jsast.Module) []string {
	var names []string
	seen := make(map[string]bool)
	for _, h := range m.Helpers {
		if h.Scoped || seen[h.Name] {
			continue
		}
		seen[h.Name] = true
		names = append(names, h.Name)
	}
	return names
}

// removeStale deletes the outputs of files that are no longer part of the
// project.
func (w *worker) removeStale(p *tsconfig.Project, cache *buildcache.Cache, current map[string]bool) error {
	files, err := cache.Files()
	if err != nil {
		return err
	}
	var gone []string
	for _, state := range files {
		if current[state.Source] {
			continue
		}
		for _, out := range state.Outputs {
			if isInput(p, w.target.RewritePath(out)) {
				continue
			}
			if err := w.sys.DeleteFile(out); err != nil {
				return err
			}
		}
		w.verbose("Deleted outputs of removed file '%s'", state.Source)
		gone = append(gone, state.Source)
	}
	if len(gone) == 0 {
		return nil
	}
	return cache.Delete(gone...)
}

// writeHelpers emits the consolidated helpers module: the closure of
// every helper the project's files use, lowered for the target.
func (w *worker) writeHelpers(ctx context.Context, p *tsconfig.Project, usage *helpers.Usage) error {
	closure := w.catalog.Close(usage.Names())
	format := helpers.FormatCommonJS
	if compiler.EmitsESM(w.target, p.Options) {
		format = helpers.FormatESM
	}
	code, err := w.compiler.TranspileHelpers(ctx, helpers.Render(closure, format), w.target, p.Options)
	if err != nil {
		return err
	}
	path := w.helpersOutput(p)
	if physical := w.target.RewritePath(path); isInput(p, physical) {
		w.reportDiagnostic(report.Diagnostic{
			Category: report.CategoryError,
			Code:     "TS5055",
			Message:  fmt.Sprintf("Cannot write file '%s' because it would overwrite input file.", physical),
		})
		return nil
	}
	if err := w.sys.WriteFile(path, []byte(code)); err != nil {
		return err
	}
	w.logger.Debug("Wrote helpers", "path", w.target.RewritePath(path), "helpers", len(closure.Records))
	return nil
}
