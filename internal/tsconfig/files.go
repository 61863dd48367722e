package tsconfig

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/spf13/afero"

	"tsmulti/internal/errors"
)

var (
	tsExtensions = []string{".ts", ".tsx", ".mts", ".cts"}
	jsExtensions = []string{".js", ".jsx", ".mjs", ".cjs"}

	defaultExclude = []string{"node_modules", "bower_components", "jspm_packages"}
)

// IsDeclaration reports whether name is a declaration file.
func IsDeclaration(name string) bool {
	for _, ext := range []string{".d.ts", ".d.mts", ".d.cts"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (p *Project) supported(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range tsExtensions {
		if ext == e {
			return true
		}
	}
	if p.Options.AllowJS {
		for _, e := range jsExtensions {
			if ext == e {
				return true
			}
		}
	}
	return false
}

func (p *Project) collectFiles(raw *rawConfig) error {
	include := raw.Include
	if include == nil && raw.Files == nil {
		include = []string{"**/*"}
	}
	exclude := raw.Exclude
	if exclude == nil {
		exclude = append([]string(nil), defaultExclude...)
		if p.Options.OutDir != "" {
			exclude = append(exclude, p.Options.OutDir)
		}
		if p.Options.DeclarationDir != "" {
			exclude = append(exclude, p.Options.DeclarationDir)
		}
	}
	p.ExcludePatterns = p.normalize(exclude)
	include = p.normalize(include)
	p.IncludePatterns = include

	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			p.FileNames = append(p.FileNames, name)
		}
	}

	// Listed files are kept even when missing; the build reports them.
	for _, f := range raw.Files {
		if !filepath.IsAbs(f) {
			f = filepath.Join(p.Dir(), f)
		}
		add(filepath.Clean(f))
	}

	if len(include) > 0 {
		err := afero.Walk(p.fs, p.Dir(), func(path string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			rel := p.rel(path)
			if info.IsDir() {
				if path != p.Dir() && p.Excluded(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if !p.supported(path) || p.Excluded(path) {
				return nil
			}
			for _, pattern := range include {
				if ok, _ := doublestar.Match(pattern, rel); ok {
					add(path)
					break
				}
			}
			return nil
		})
		if err != nil {
			return errors.New(errors.ProjectNotFound, p.Dir(), err)
		}
	}

	sort.Strings(p.FileNames)
	return nil
}

// normalize makes patterns slash-separated and relative to the project
// directory. A pattern whose last segment has no wildcard or extension
// names a directory and matches everything below it.
func (p *Project) normalize(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if filepath.IsAbs(pattern) {
			pattern = p.rel(pattern)
		}
		pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
		last := pattern[strings.LastIndex(pattern, "/")+1:]
		if !strings.ContainsAny(last, "*?.") {
			pattern = strings.TrimSuffix(pattern, "/") + "/**/*"
		}
		out = append(out, pattern)
	}
	return out
}

func (p *Project) rel(path string) string {
	rel, err := filepath.Rel(p.Dir(), path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Excluded reports whether path matches an exclude pattern. Directories
// match when anything below them would.
func (p *Project) Excluded(path string) bool {
	rel := p.rel(path)
	for _, pattern := range p.ExcludePatterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel+"/x"); ok && strings.HasSuffix(pattern, "/**/*") {
			return true
		}
	}
	return false
}

// Includes reports whether path is, or once created would be, a root file
// of the project. Watch mode uses it to ignore events for unrelated files.
func (p *Project) Includes(path string) bool {
	if i := sort.SearchStrings(p.FileNames, path); i < len(p.FileNames) && p.FileNames[i] == path {
		return true
	}
	if !p.supported(path) || p.Excluded(path) {
		return false
	}
	rel := p.rel(path)
	if strings.HasPrefix(rel, "../") {
		return false
	}
	for _, pattern := range p.IncludePatterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Contains reports whether dir is a directory holding root files.
func (p *Project) Contains(dir string) bool {
	prefix := strings.TrimSuffix(dir, string(filepath.Separator)) + string(filepath.Separator)
	i := sort.SearchStrings(p.FileNames, prefix)
	return i < len(p.FileNames) && strings.HasPrefix(p.FileNames[i], prefix)
}
