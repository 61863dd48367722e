package builder

import (
	"context"
	"fmt"

	"tsmulti/internal/report"
	"tsmulti/internal/tsconfig"
)

// buildInfoSuffixes are the files sqlite keeps next to a cache database.
var buildInfoSuffixes = []string{"", "-wal", "-shm", "-journal"}

// clean deletes every output and cache file the target's build of
// projects would write.
func (w *worker) clean(ctx context.Context, projects []string) int {
	w.status(report.StatusConfigured, "")
	loaded, err := tsconfig.LoadGraph(w.o.fs, projects)
	if err != nil {
		w.reportError(err)
		w.status(report.StatusFailed, "")
		return 1
	}

	deleted := 0
	for _, p := range loaded {
		if err := ctx.Err(); err != nil {
			w.reportError(err)
			w.status(report.StatusFailed, "")
			return 1
		}
		prepared, err := w.prepare(p)
		if err != nil {
			w.reportError(err)
			w.status(report.StatusFailed, "")
			return 1
		}
		n, err := w.cleanProject(prepared)
		deleted += n
		if err != nil {
			w.reportError(err)
			w.status(report.StatusFailed, "")
			return 1
		}
	}

	w.logger.Info("Clean finished", "projects", len(loaded), "deleted", deleted)
	w.status(report.StatusCleaned, "")
	return 0
}

// cleanProject deletes the project's outputs for the target. Root files
// are never deleted, even where an output path names one.
func (w *worker) cleanProject(p *tsconfig.Project) (int, error) {
	deleted := 0
	for _, path := range w.logicalOutputs(p) {
		physical := w.target.RewritePath(path)
		if isInput(p, physical) {
			w.logger.Debug("Keeping input file", "file", physical)
			continue
		}
		if !w.stat.FileExists(physical) {
			continue
		}
		if w.opts.Dry {
			w.status(report.StatusCleaned, fmt.Sprintf("A non-dry build would delete the following files: %s", physical))
			continue
		}
		if err := w.sys.DeleteFile(path); err != nil {
			return deleted, err
		}
		deleted++
	}

	if info := p.BuildInfoPath(w.target.Extname); info != "" {
		for _, suffix := range buildInfoSuffixes {
			path := info + suffix
			if !w.stat.FileExists(path) {
				continue
			}
			if w.opts.Dry {
				w.status(report.StatusCleaned, fmt.Sprintf("A non-dry build would delete the following files: %s", path))
				continue
			}
			if err := w.stat.DeleteFile(path); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}
