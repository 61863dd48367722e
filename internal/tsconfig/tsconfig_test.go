package tsconfig

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"tsmulti/internal/errors"
)

func writeFiles(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func TestLoad_ExtendsAndComments(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/repo/config/base.json": `{
			// shared settings
			"compilerOptions": {
				"outDir": "../dist",
				"target": "es2019",
				"sourceMap": true,
			},
		}`,
		"/repo/tsconfig.json": `{
			"extends": "./config/base.json",
			"compilerOptions": { "target": "es2022", "declaration": true },
			"include": ["src"],
		}`,
		"/repo/src/index.ts": "",
	})

	p, err := Load(fs, "/repo")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if p.ConfigPath != "/repo/tsconfig.json" {
		t.Errorf("ConfigPath = %q", p.ConfigPath)
	}
	want := CompilerOptions{OutDir: "/repo/dist", Target: "es2022", SourceMap: true, Declaration: true}
	if diff := cmp.Diff(want, p.Options); diff != "" {
		t.Errorf("Options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/repo/tsconfig.json", "/repo/config/base.json"}, p.ConfigFiles); diff != "" {
		t.Errorf("ConfigFiles mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_CircularExtends(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/repo/a.json": `{"extends": "./b.json"}`,
		"/repo/b.json": `{"extends": "./a.json"}`,
	})

	_, err := Load(fs, "/repo/a.json")
	if errors.CodeOf(err) != errors.ConfigInvalid {
		t.Errorf("Load() error = %v, want %s", err, errors.ConfigInvalid)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(afero.NewMemMapFs(), "/nowhere/tsconfig.json")
	if errors.CodeOf(err) != errors.ProjectNotFound {
		t.Errorf("Load() error = %v, want %s", err, errors.ProjectNotFound)
	}
}

func TestLoad_FileNames(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/repo/tsconfig.json":               `{"compilerOptions": {"outDir": "dist"}}`,
		"/repo/src/index.ts":                "",
		"/repo/src/view.tsx":                "",
		"/repo/src/types.d.ts":              "",
		"/repo/src/legacy.js":               "",
		"/repo/dist/index.js":               "",
		"/repo/node_modules/pkg/index.d.ts": "",
	})

	p, err := Load(fs, "/repo/tsconfig.json")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"/repo/src/index.ts", "/repo/src/types.d.ts", "/repo/src/view.tsx"}
	if diff := cmp.Diff(want, p.FileNames); diff != "" {
		t.Errorf("FileNames mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FilesAndAllowJS(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/repo/tsconfig.json": `{"compilerOptions": {"allowJs": true}, "files": ["src/main.ts", "src/gone.ts"], "include": ["lib/**/*"]}`,
		"/repo/src/main.ts":   "",
		"/repo/src/other.ts":  "",
		"/repo/lib/util.js":   "",
	})

	p, err := Load(fs, "/repo")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"/repo/lib/util.js", "/repo/src/gone.ts", "/repo/src/main.ts"}
	if diff := cmp.Diff(want, p.FileNames); diff != "" {
		t.Errorf("FileNames mismatch (-want +got):\n%s", diff)
	}
}

func TestOutputFileName(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/repo/tsconfig.json":  `{"compilerOptions": {"outDir": "dist", "declaration": true}}`,
		"/repo/src/index.ts":   "",
		"/repo/src/lib/b.mts":  "",
		"/repo/src/lib/c.cts":  "",
		"/repo/src/lib/d.d.ts": "",
	})
	p, err := Load(fs, "/repo")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := p.CommonSourceDir(); got != "/repo/src" {
		t.Errorf("CommonSourceDir() = %q, want /repo/src", got)
	}
	tests := []struct {
		src, code, decl string
	}{
		{"/repo/src/index.ts", "/repo/dist/index.js", "/repo/dist/index.d.ts"},
		{"/repo/src/lib/b.mts", "/repo/dist/lib/b.mjs", "/repo/dist/lib/b.d.mts"},
		{"/repo/src/lib/c.cts", "/repo/dist/lib/c.cjs", "/repo/dist/lib/c.d.cts"},
	}
	for _, tt := range tests {
		if got := p.OutputFileName(tt.src); got != tt.code {
			t.Errorf("OutputFileName(%q) = %q, want %q", tt.src, got, tt.code)
		}
		if got := p.DeclarationFileName(tt.src); got != tt.decl {
			t.Errorf("DeclarationFileName(%q) = %q, want %q", tt.src, got, tt.decl)
		}
	}
}

func TestBuildInfoPath(t *testing.T) {
	tests := []struct {
		name    string
		options string
		extname string
		want    string
	}{
		{"not incremental", `{}`, ".mjs", ""},
		{"per target", `{"incremental": true, "outDir": "dist"}`, ".mjs", "/repo/tsconfig.mjs.tsbuildinfo"},
		{"composite", `{"composite": true}`, ".cjs", "/repo/tsconfig.cjs.tsbuildinfo"},
		{"no extname", `{"incremental": true, "outDir": "dist"}`, "", "/repo/dist/tsconfig.tsbuildinfo"},
		{"explicit", `{"incremental": true, "tsBuildInfoFile": "cache/info"}`, ".mjs", "/repo/cache/info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := writeFiles(t, map[string]string{
				"/repo/tsconfig.json": `{"compilerOptions": ` + tt.options + `}`,
			})
			p, err := Load(fs, "/repo")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := p.BuildInfoPath(tt.extname); got != tt.want {
				t.Errorf("BuildInfoPath(%q) = %q, want %q", tt.extname, got, tt.want)
			}
		})
	}
}

func TestWithOverrides(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/repo/tsconfig.json": `{"compilerOptions": {"module": "esnext", "outDir": "dist"}}`,
	})
	p, err := Load(fs, "/repo")
	if err != nil {
		t.Fatal(err)
	}

	cjs, err := p.WithOverrides(map[string]interface{}{"module": "commonjs", "outDir": "dist/cjs"})
	if err != nil {
		t.Fatalf("WithOverrides() error = %v", err)
	}
	if cjs.Options.Module != "commonjs" || cjs.Options.OutDir != "/repo/dist/cjs" {
		t.Errorf("overridden options = %+v", cjs.Options)
	}
	if p.Options.Module != "esnext" {
		t.Error("WithOverrides modified the original project")
	}

	if _, err := p.WithOverrides(map[string]interface{}{"sourceMap": "yes"}); errors.CodeOf(err) != errors.ConfigInvalid {
		t.Errorf("bad override error = %v, want %s", err, errors.ConfigInvalid)
	}
}

func TestLoadGraph(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/repo/app/tsconfig.json":     `{"references": [{"path": "../core"}, {"path": "../util"}]}`,
		"/repo/core/tsconfig.json":    `{"references": [{"path": "../util"}]}`,
		"/repo/util/tsconfig.json":    `{}`,
		"/repo/cycle/a/tsconfig.json": `{"references": [{"path": "../b"}]}`,
		"/repo/cycle/b/tsconfig.json": `{"references": [{"path": "../a"}]}`,
	})

	order, err := LoadGraph(fs, []string{"/repo/app", "/repo/util"})
	if err != nil {
		t.Fatalf("LoadGraph() error = %v", err)
	}
	var got []string
	for _, p := range order {
		got = append(got, p.ConfigPath)
	}
	want := []string{"/repo/util/tsconfig.json", "/repo/core/tsconfig.json", "/repo/app/tsconfig.json"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadGraph(fs, []string{"/repo/cycle/a"}); errors.CodeOf(err) != errors.ProjectCycle {
		t.Errorf("cycle error = %v, want %s", err, errors.ProjectCycle)
	}
}

func TestIncludes(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/repo/tsconfig.json": `{"compilerOptions": {"allowJs": true, "outDir": "dist"}, "include": ["src"]}`,
		"/repo/src/a.ts":      "",
		"/repo/src/sub/b.ts":  "",
	})
	p, err := Load(fs, "/repo")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{"/repo/src/a.ts", true},
		{"/repo/src/new.ts", true},
		{"/repo/src/new.mjs", true},
		{"/repo/src/readme.md", false},
		{"/repo/scripts/x.ts", false},
		{"/repo/dist/a.js", false},
		{"/elsewhere/src/a.ts", false},
	}
	for _, tt := range tests {
		if got := p.Includes(tt.path); got != tt.want {
			t.Errorf("Includes(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	for dir, want := range map[string]bool{
		"/repo/src":     true,
		"/repo/src/sub": true,
		"/repo/sr":      false,
		"/repo/dist":    false,
	} {
		if got := p.Contains(dir); got != want {
			t.Errorf("Contains(%q) = %v, want %v", dir, got, want)
		}
	}
}

func TestIncludes_ListedFilesOnly(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/repo/tsconfig.json": `{"files": ["main.ts"]}`,
		"/repo/main.ts":       "",
	})
	p, err := Load(fs, "/repo")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !p.Includes("/repo/main.ts") || p.Includes("/repo/other.ts") {
		t.Errorf("Includes: listed files only, got main=%v other=%v",
			p.Includes("/repo/main.ts"), p.Includes("/repo/other.ts"))
	}
}
