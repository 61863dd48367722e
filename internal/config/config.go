package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/spf13/viper"
	"github.com/tailscale/hujson"

	"tsmulti/internal/errors"
	"tsmulti/internal/target"
)

// DefaultFileName is read from the working directory when no config file
// is given.
const DefaultFileName = "tsc-multi.json"

// Config is the multi-target build configuration.
type Config struct {
	Projects []string        `json:"projects,omitempty" mapstructure:"projects"`
	Targets  []target.Target `json:"targets,omitempty" mapstructure:"-"`
	Compiler string          `json:"compiler,omitempty" mapstructure:"compiler"`
	// ShareHelpers is the helpers file name, relative to each project's
	// common source directory. Empty disables helper consolidation.
	ShareHelpers        string `json:"shareHelpers,omitempty" mapstructure:"shareHelpers"`
	PureClassAssignment bool   `json:"pureClassAssignment,omitempty" mapstructure:"pureClassAssignment"`
	MaxWorkers          int    `json:"maxWorkers,omitempty" mapstructure:"maxWorkers"`

	// Path is the config file that was read, "" when none was.
	Path string `json:"-" mapstructure:"-"`
	// Dir is the directory project patterns are relative to.
	Dir string `json:"-" mapstructure:"-"`
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	Cwd string
	// Path is an explicit config file. It must exist.
	Path string
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{
		Compiler: "esbuild",
	}
}

// Load reads, validates and resolves the configuration. A missing default
// file yields DefaultConfig; a missing explicit file is an error.
func Load(opts LoadOptions) (*Config, []EnvOverride, error) {
	cwd := opts.Cwd
	if cwd == "" {
		var err error
		if cwd, err = os.Getwd(); err != nil {
			return nil, nil, err
		}
	}
	path := opts.Path
	if path == "" {
		path = DefaultFileName
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}

	var cfg *Config
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err) && opts.Path == "":
		cfg = DefaultConfig()
		cfg.Dir = cwd
	case err != nil:
		return nil, nil, errors.New(errors.ConfigNotFound, fmt.Sprintf("cannot read config %s", path), err)
	default:
		if cfg, err = Parse(path, data); err != nil {
			return nil, nil, err
		}
	}

	overrides := applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, errors.New(errors.ConfigInvalid, "invalid configuration", err)
	}
	if cfg.Projects, err = ResolveProjects(cfg.Dir, cfg.Projects); err != nil {
		return nil, nil, err
	}
	return cfg, overrides, nil
}

// Parse decodes and validates config file contents. The format follows
// the file extension; JSON files may contain comments.
func Parse(path string, data []byte) (*Config, error) {
	format := formatOf(path)
	if format == "json" {
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("cannot parse %s", path), err)
		}
		data = std
	}

	doc, err := decodeDocument(format, data)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("cannot parse %s", path), err)
	}
	if err := Validate(doc); err != nil {
		return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("invalid config %s", path), err)
	}

	v := viper.New()
	v.SetConfigType(format)
	v.SetDefault("compiler", "esbuild")
	v.SetDefault("shareHelpers", "")
	v.SetDefault("pureClassAssignment", false)
	v.SetDefault("maxWorkers", 0)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("cannot parse %s", path), err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("cannot decode %s", path), err)
	}
	// viper folds key case, and compiler option names are case-sensitive,
	// so targets are decoded from the document itself.
	if cfg.Targets, err = decodeTargets(doc); err != nil {
		return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("cannot decode targets in %s", path), err)
	}
	cfg.Path = path
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

func decodeTargets(doc interface{}) ([]target.Target, error) {
	root, ok := doc.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	list, ok := root["targets"].([]interface{})
	if !ok {
		return nil, nil
	}

	targets := make([]target.Target, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("target must be an object")
		}
		var t target.Target
		t.CompilerOptions = make(map[string]interface{})
		for key, value := range entry {
			switch key {
			case "extname":
				t.Extname, _ = value.(string)
			case "module":
				s, _ := value.(string)
				t.Module = target.ModuleKind(strings.ToLower(s))
			default:
				t.CompilerOptions[key] = normalizeNumber(value)
			}
		}
		if t.Module != "" {
			t.CompilerOptions["module"] = string(t.Module)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// normalizeNumber turns decoder-specific number types into float64, the
// type JSON decoding produces.
func normalizeNumber(v interface{}) interface{} {
	switch n := v.(type) {
	case json.Number:
		f, _ := n.Float64()
		return f
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	}
	return v
}

// ResolveProjects expands project glob patterns relative to dir. Patterns
// may match directories (implying tsconfig.json) or files.
func ResolveProjects(dir string, patterns []string) ([]string, error) {
	var projects []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(dir, pattern)
		}
		matches, err := doublestar.Glob(pattern)
		if err != nil {
			return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("invalid project pattern %q", pattern), err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				projects = append(projects, m)
			}
		}
	}
	return projects, nil
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	if c.MaxWorkers < 0 {
		return &ConfigError{Field: "maxWorkers", Message: "must not be negative"}
	}
	seen := make(map[string]bool)
	for _, t := range c.Targets {
		if t.Extname != "" && !strings.HasPrefix(t.Extname, ".") {
			return &ConfigError{Field: "targets.extname", Message: fmt.Sprintf("%q must start with a dot", t.Extname)}
		}
		// Outputs and caches are partitioned by extension only.
		if seen[t.Extname] {
			return &ConfigError{Field: "targets.extname", Message: fmt.Sprintf("%q is used by more than one target", t.Extname)}
		}
		seen[t.Extname] = true
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
