package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "TSMULTI_"

// EnvOverride records one environment variable applied over the file.
type EnvOverride struct {
	Var   string
	Field string
	Value string
}

type envBinding struct {
	name  string
	field string
	apply func(c *Config, value string) bool
}

var envBindings = []envBinding{
	{"COMPILER", "compiler", func(c *Config, v string) bool {
		c.Compiler = v
		return true
	}},
	{"SHARE_HELPERS", "shareHelpers", func(c *Config, v string) bool {
		c.ShareHelpers = v
		return true
	}},
	{"PURE_CLASS_ASSIGNMENT", "pureClassAssignment", func(c *Config, v string) bool {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false
		}
		c.PureClassAssignment = b
		return true
	}},
	{"MAX_WORKERS", "maxWorkers", func(c *Config, v string) bool {
		n, err := strconv.Atoi(v)
		if err != nil {
			return false
		}
		c.MaxWorkers = n
		return true
	}},
	{"PROJECTS", "projects", func(c *Config, v string) bool {
		c.Projects = strings.Split(v, string(os.PathListSeparator))
		return true
	}},
}

// applyEnvOverrides applies TSMULTI_* variables. Values that do not parse
// are ignored.
func applyEnvOverrides(c *Config) []EnvOverride {
	var applied []EnvOverride
	for _, b := range envBindings {
		name := EnvPrefix + b.name
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			continue
		}
		if b.apply(c, value) {
			applied = append(applied, EnvOverride{Var: name, Field: b.field, Value: value})
		}
	}
	return applied
}

// SupportedEnvVars lists the environment variables Load honours.
func SupportedEnvVars() []string {
	names := make([]string, len(envBindings))
	for i, b := range envBindings {
		names[i] = EnvPrefix + b.name
	}
	return names
}
