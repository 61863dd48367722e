//go:build cgo

package compiler

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"tsmulti/internal/helpers"
	"tsmulti/internal/jsast"
	"tsmulti/internal/report"
	"tsmulti/internal/target"
	"tsmulti/internal/tsconfig"
)

func transpile(t *testing.T, src string, tgt target.Target, opts tsconfig.CompilerOptions) *Output {
	t.Helper()
	out, err := NewEsbuild().Transpile(context.Background(), Input{
		FileName:   "/repo/src/index.ts",
		Source:     []byte(src),
		OutputName: "/repo/dist/index.js",
		Target:     tgt,
		Options:    opts,
	})
	if err != nil {
		t.Fatalf("Transpile() error = %v", err)
	}
	return out
}

func TestEsbuild_StripsTypes(t *testing.T) {
	out := transpile(t, "export const x: number = 1;\n", target.Target{Extname: ".mjs"}, tsconfig.CompilerOptions{})
	if out.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", out.Diagnostics)
	}
	code := jsast.Print(out.Module)
	if strings.Contains(code, "number") || !strings.Contains(code, "export") {
		t.Errorf("code = %q", code)
	}
}

func TestEsbuild_SharedHelpers(t *testing.T) {
	useDefine := true
	opts := tsconfig.CompilerOptions{Target: "es2020", ImportHelpers: true, UseDefineForClassFields: &useDefine}
	src := "export class Foo {\n  static x = 1;\n}\n"

	for _, tt := range []struct {
		target target.Target
		marker string
	}{
		{target.Target{Extname: ".mjs"}, "import {"},
		{target.Target{Extname: ".cjs"}, `require("` + helpers.Package + `")`},
	} {
		out := transpile(t, src, tt.target, opts)
		if out.HasErrors() {
			t.Fatalf("[%s] unexpected diagnostics: %v", tt.target.Name(), out.Diagnostics)
		}
		code := jsast.Print(out.Module)
		if strings.Contains(code, "var __") {
			t.Errorf("[%s] helpers left inline:\n%s", tt.target.Name(), code)
		}
		if !strings.Contains(code, tt.marker) {
			t.Errorf("[%s] code has no helper import:\n%s", tt.target.Name(), code)
		}
		if len(out.Module.Helpers) == 0 {
			t.Errorf("[%s] no helpers recorded", tt.target.Name())
		}
		for _, h := range out.Module.Helpers {
			if h.Scoped || !helpers.Default.Has(h.Name) {
				t.Errorf("[%s] unexpected helper %+v", tt.target.Name(), h)
			}
		}
	}
}

func TestEsbuild_InlineHelpersWithoutSharing(t *testing.T) {
	useDefine := true
	opts := tsconfig.CompilerOptions{Target: "es2020", UseDefineForClassFields: &useDefine}
	out := transpile(t, "export class Foo {\n  static x = 1;\n}\n", target.Target{Extname: ".mjs"}, opts)

	code := jsast.Print(out.Module)
	if !strings.Contains(code, "var __") || strings.Contains(code, helpers.Package) {
		t.Errorf("helpers should stay inline:\n%s", code)
	}
	if len(out.Module.Helpers) != 0 {
		t.Errorf("Helpers = %v, want none", out.Module.Helpers)
	}
}

func TestEsbuild_SyntaxError(t *testing.T) {
	out := transpile(t, "let x = ;\n", target.Target{}, tsconfig.CompilerOptions{})

	if out.Module != nil {
		t.Error("Module should be nil on syntax errors")
	}
	if !out.HasErrors() {
		t.Fatal("expected an error diagnostic")
	}
	d := out.Diagnostics[0]
	if d.File != "/repo/src/index.ts" || d.Line != 1 || d.Category != report.CategoryError {
		t.Errorf("diagnostic = %+v", d)
	}
}

func TestEsbuild_SourceMap(t *testing.T) {
	out := transpile(t, "export const x = 1;\n", target.Target{Extname: ".mjs"}, tsconfig.CompilerOptions{SourceMap: true})

	var m struct {
		File    string   `json:"file"`
		Sources []string `json:"sources"`
	}
	if err := json.Unmarshal(out.SourceMap, &m); err != nil {
		t.Fatalf("source map: %v", err)
	}
	if m.File != "index.js" {
		t.Errorf("file = %q, want index.js", m.File)
	}
	if len(m.Sources) != 1 || m.Sources[0] != "../src/index.ts" {
		t.Errorf("sources = %v", m.Sources)
	}
}

func TestEsbuild_TranspileHelpers(t *testing.T) {
	cl := helpers.Default.Close([]string{"__publicField"})

	for _, tt := range []struct {
		target target.Target
		format helpers.Format
		marker string
	}{
		{target.Target{Extname: ".mjs"}, helpers.FormatESM, "export {"},
		{target.Target{Extname: ".cjs"}, helpers.FormatCommonJS, "module.exports"},
	} {
		code, err := NewEsbuild().TranspileHelpers(context.Background(), helpers.Render(cl, tt.format), tt.target, tsconfig.CompilerOptions{})
		if err != nil {
			t.Fatalf("TranspileHelpers() error = %v", err)
		}
		if !strings.Contains(code, tt.marker) || !strings.Contains(code, "__defNormalProp") {
			t.Errorf("[%s] code =\n%s", tt.target.Name(), code)
		}
	}
}
