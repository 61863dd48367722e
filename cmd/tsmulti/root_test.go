package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tsmulti/internal/config"
	"tsmulti/internal/errors"
)

func TestResolveProjectArgs(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []string{"a/tsconfig.json", "b/tsconfig.json"} {
		path := filepath.Join(dir, p)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("config projects", func(t *testing.T) {
		cfg := &config.Config{Projects: []string{"/x/tsconfig.json"}}
		got, err := resolveProjectArgs(dir, nil, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"/x/tsconfig.json"}, got); diff != "" {
			t.Errorf("projects mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("defaults to cwd", func(t *testing.T) {
		got, err := resolveProjectArgs(dir, nil, &config.Config{})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{dir}, got); diff != "" {
			t.Errorf("projects mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no match", func(t *testing.T) {
		_, err := resolveProjectArgs(dir, []string{"missing/*"}, &config.Config{})
		if errors.CodeOf(err) != errors.ProjectNotFound {
			t.Errorf("code = %q, want %q", errors.CodeOf(err), errors.ProjectNotFound)
		}
	})
}

func TestBuildOptions(t *testing.T) {
	cfg := &config.Config{
		Compiler:            "esbuild",
		ShareHelpers:        "helpers.js",
		PureClassAssignment: true,
		MaxWorkers:          2,
	}
	f := &buildFlags{transpileOnly: true, verbose: 2, dry: true}

	opts := buildOptions(cfg, f)
	if opts.Compiler != "esbuild" || opts.ShareHelpers != "helpers.js" || !opts.PureClassAssignment || opts.MaxWorkers != 2 {
		t.Errorf("config options not carried over: %+v", opts)
	}
	if !opts.TranspileOnly || !opts.Verbose || !opts.Dry || opts.Watch || opts.Force {
		t.Errorf("flag options not carried over: %+v", opts)
	}
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, errors.Newf(errors.CacheCorrupt, "bad cache"))
	out := buf.String()
	if !strings.HasPrefix(out, "Error: ") {
		t.Errorf("output = %q, want Error prefix", out)
	}
	if !strings.Contains(out, "tsmulti --force") {
		t.Errorf("output = %q, want suggested fix", out)
	}
}

func TestSchemaCommand(t *testing.T) {
	var buf bytes.Buffer
	schemaCmd.SetOut(&buf)
	defer schemaCmd.SetOut(nil)
	if err := schemaCmd.RunE(schemaCmd, nil); err != nil {
		t.Fatal(err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	if _, ok := doc["properties"]; !ok {
		t.Error("schema has no properties")
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)
	versionCmd.Run(versionCmd, nil)
	if !strings.HasPrefix(buf.String(), "tsmulti version ") {
		t.Errorf("output = %q", buf.String())
	}
}
