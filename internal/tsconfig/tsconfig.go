// Package tsconfig loads TypeScript project configuration files.
//
// Files are JSON with comments and trailing commas. "extends" chains are
// followed and merged the way the compiler does: compiler options are merged
// key by key, while files, include and exclude are inherited only when the
// extending file does not set them.
package tsconfig

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/tailscale/hujson"

	"tsmulti/internal/errors"
)

// DefaultFileName is used when a project path names a directory.
const DefaultFileName = "tsconfig.json"

// pathOptions are compiler options holding paths relative to the file
// that declares them.
var pathOptions = []string{"outDir", "rootDir", "tsBuildInfoFile", "baseUrl", "declarationDir"}

// Reference is one entry of "references".
type Reference struct {
	Path string `json:"path"`
}

type rawConfig struct {
	Extends         json.RawMessage        `json:"extends,omitempty"`
	CompilerOptions map[string]interface{} `json:"compilerOptions,omitempty"`
	Files           []string               `json:"files,omitempty"`
	Include         []string               `json:"include,omitempty"`
	Exclude         []string               `json:"exclude,omitempty"`
	References      []Reference            `json:"references,omitempty"`
}

// Project is a loaded project configuration.
type Project struct {
	// ConfigPath is the absolute path of the tsconfig file.
	ConfigPath string
	// Raw holds the merged compiler options with path options made absolute.
	Raw     map[string]interface{}
	Options CompilerOptions
	// FileNames are the absolute root file names, sorted.
	FileNames []string
	// References are absolute config paths of referenced projects.
	References []string
	// ConfigFiles are the config file and every file it extends.
	ConfigFiles []string
	// IncludePatterns and ExcludePatterns are the effective globs,
	// relative to Dir.
	IncludePatterns []string
	ExcludePatterns []string

	fs afero.Fs
}

// Dir is the directory holding the config file.
func (p *Project) Dir() string {
	return filepath.Dir(p.ConfigPath)
}

// ResolveConfigPath maps a project path to its config file. A directory
// implies DefaultFileName.
func ResolveConfigPath(fs afero.Fs, path string) string {
	if isDir, err := afero.IsDir(fs, path); err == nil && isDir {
		return filepath.Join(path, DefaultFileName)
	}
	return path
}

// Load reads the project configuration at path, which may be a file or a
// directory containing tsconfig.json.
func Load(fs afero.Fs, path string) (*Project, error) {
	abs, err := filepath.Abs(ResolveConfigPath(fs, path))
	if err != nil {
		return nil, errors.New(errors.ProjectNotFound, path, err)
	}

	var chain []string
	raw, err := readChain(fs, abs, nil, &chain)
	if err != nil {
		return nil, err
	}

	p := &Project{
		ConfigPath:  abs,
		Raw:         raw.CompilerOptions,
		ConfigFiles: chain,
		fs:          fs,
	}
	if p.Raw == nil {
		p.Raw = make(map[string]interface{})
	}
	if p.Options, err = decodeOptions(p.Raw); err != nil {
		return nil, errors.New(errors.ConfigInvalid, abs, err)
	}
	for _, ref := range raw.References {
		refPath := ref.Path
		if !filepath.IsAbs(refPath) {
			refPath = filepath.Join(p.Dir(), refPath)
		}
		p.References = append(p.References, ResolveConfigPath(fs, refPath))
	}

	if err := p.collectFiles(raw); err != nil {
		return nil, err
	}
	return p, nil
}

// readChain reads path and every config it extends, returning the merged
// result. seen guards against extends cycles; files collects every file
// read.
func readChain(fs afero.Fs, path string, seen []string, files *[]string) (*rawConfig, error) {
	for _, s := range seen {
		if s == path {
			return nil, errors.Newf(errors.ConfigInvalid, "circular extends: %s", strings.Join(append(seen, path), " -> "))
		}
	}

	raw, err := readFile(fs, path)
	if err != nil {
		return nil, err
	}
	*files = append(*files, path)
	absolutizePaths(raw.CompilerOptions, filepath.Dir(path))

	bases, err := extendsList(raw.Extends)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, path, err)
	}
	if len(bases) == 0 {
		return raw, nil
	}

	merged := &rawConfig{CompilerOptions: make(map[string]interface{})}
	for _, base := range bases {
		basePath, err := resolveExtends(fs, filepath.Dir(path), base)
		if err != nil {
			return nil, errors.New(errors.ConfigNotFound, path, err)
		}
		parent, err := readChain(fs, basePath, append(seen, path), files)
		if err != nil {
			return nil, err
		}
		mergeInto(merged, parent, filepath.Dir(basePath))
	}
	mergeInto(merged, raw, "")
	merged.References = raw.References
	return merged, nil
}

func readFile(fs afero.Fs, path string) (*rawConfig, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.New(errors.ProjectNotFound, fmt.Sprintf("cannot read %s", path), err)
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("cannot parse %s", path), err)
	}
	var raw rawConfig
	if err := json.Unmarshal(std, &raw); err != nil {
		return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("cannot parse %s", path), err)
	}
	return &raw, nil
}

func extendsList(data json.RawMessage) ([]string, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return nil, fmt.Errorf("extends must be a string or an array of strings")
	}
	return many, nil
}

// resolveExtends supports relative and absolute paths. Package names are
// looked up in the nearest node_modules.
func resolveExtends(fs afero.Fs, dir, base string) (string, error) {
	var candidates []string
	switch {
	case filepath.IsAbs(base):
		candidates = []string{base}
	case strings.HasPrefix(base, "./") || strings.HasPrefix(base, "../"):
		candidates = []string{filepath.Join(dir, base)}
	default:
		for d := dir; ; d = filepath.Dir(d) {
			candidates = append(candidates, filepath.Join(d, "node_modules", base))
			if filepath.Dir(d) == d {
				break
			}
		}
	}

	for _, c := range candidates {
		for _, p := range []string{c, c + ".json", filepath.Join(c, DefaultFileName)} {
			if ok, _ := afero.Exists(fs, p); ok {
				if isDir, _ := afero.IsDir(fs, p); !isDir {
					return p, nil
				}
			}
		}
	}
	return "", fmt.Errorf("cannot find base config %q", base)
}

// mergeInto applies src over dst. Inherited include globs stay relative to
// the directory of the config that declared them.
func mergeInto(dst, src *rawConfig, srcDir string) {
	for k, v := range src.CompilerOptions {
		dst.CompilerOptions[k] = v
	}
	rebase := func(patterns []string) []string {
		if srcDir == "" {
			return patterns
		}
		out := make([]string, len(patterns))
		for i, p := range patterns {
			if filepath.IsAbs(p) {
				out[i] = p
			} else {
				out[i] = filepath.ToSlash(filepath.Join(srcDir, p))
			}
		}
		return out
	}
	if src.Files != nil {
		dst.Files = rebase(src.Files)
	}
	if src.Include != nil {
		dst.Include = rebase(src.Include)
	}
	if src.Exclude != nil {
		dst.Exclude = rebase(src.Exclude)
	}
}

func absolutizePaths(opts map[string]interface{}, dir string) {
	for _, key := range pathOptions {
		if s, ok := opts[key].(string); ok && s != "" && !filepath.IsAbs(s) {
			opts[key] = filepath.Join(dir, s)
		}
	}
}

// WithOverrides returns a copy of p whose compiler options are merged with
// overrides. Path options in overrides are relative to the project
// directory. The file list is shared with p.
func (p *Project) WithOverrides(overrides map[string]interface{}) (*Project, error) {
	if len(overrides) == 0 {
		return p, nil
	}
	merged := make(map[string]interface{}, len(p.Raw)+len(overrides))
	for k, v := range p.Raw {
		merged[k] = v
	}
	extra := make(map[string]interface{}, len(overrides))
	for k, v := range overrides {
		extra[k] = v
	}
	absolutizePaths(extra, p.Dir())
	for k, v := range extra {
		merged[k] = v
	}

	opts, err := decodeOptions(merged)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, p.ConfigPath, err)
	}
	cp := *p
	cp.Raw = merged
	cp.Options = opts
	return &cp, nil
}
