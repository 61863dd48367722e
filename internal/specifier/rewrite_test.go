package specifier

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"tsmulti/internal/helpers"
	"tsmulti/internal/jsast"
	"tsmulti/internal/target"
	"tsmulti/internal/vfs"
)

func sourceTree(t *testing.T) vfs.System {
	t.Helper()
	mem := afero.NewMemMapFs()
	for _, p := range []string{
		"/repo/src/index.ts",
		"/repo/src/util.ts",
		"/repo/src/plain.js",
		"/repo/src/assets/index.ts",
		"/repo/src/lib/index.ts",
		"/repo/src/lib.ts",
		"/repo/src/data.json",
	} {
		if err := afero.WriteFile(mem, p, []byte(""), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return vfs.New(mem)
}

func newContext(t *testing.T, ext string) *Context {
	return &Context{
		ModulePath: "/repo/src/index.ts",
		Target:     target.Target{Extname: ext},
		FS:         sourceTree(t),
		Usage:      &helpers.Usage{},
	}
}

func TestRewrite_PlainSuffix(t *testing.T) {
	for _, ext := range []string{".mjs", ".cjs", ".js", ".esm.js"} {
		ctx := newContext(t, ext)
		for _, spec := range []string{"./util.js", "./util", "../other/thing.js", "./plain.js"} {
			got := Rewrite(Site{Kind: StaticImport, Specifier: spec}, ctx)

			base := spec
			if len(spec) > 3 && spec[len(spec)-3:] == ".js" {
				base = spec[:len(spec)-3]
			}
			if want := base + ext; got != want {
				t.Errorf("[%s] Rewrite(%q) = %q, want %q", ext, spec, got, want)
			}
			if again := Rewrite(Site{Kind: StaticImport, Specifier: got}, ctx); again != got {
				t.Errorf("[%s] Rewrite(%q) not idempotent: %q", ext, got, again)
			}
		}
	}
}

func TestRewrite_FixedExtensions(t *testing.T) {
	ctx := newContext(t, ".cjs")
	for _, spec := range []string{"./a.mjs", "./a.cjs", "../b/c.mjs"} {
		for _, kind := range []SiteKind{StaticImport, ExportFrom, DynamicImport, Require} {
			if got := Rewrite(Site{Kind: kind, Specifier: spec}, ctx); got != spec {
				t.Errorf("Rewrite(%s %q) = %q, want unchanged", kind, spec, got)
			}
		}
	}
}

func TestRewrite_FixedExtensionsAreIdentity(t *testing.T) {
	for ext := range fixedExts {
		for _, targetExt := range []string{".mjs", ".cjs", ".js", ""} {
			ctx := newContext(t, targetExt)
			spec := "./dep" + ext
			if got := Rewrite(Site{Specifier: spec}, ctx); got != spec {
				t.Errorf("[%s] Rewrite(%q) = %q, want unchanged", targetExt, spec, got)
			}
		}
	}
	for ext := range moduleSourceExts {
		if fixedExts[ext] {
			t.Errorf("%s is both fixed and mapped", ext)
		}
	}
}

func TestRewrite_TypeScriptSuffixes(t *testing.T) {
	ctx := newContext(t, ".mjs")
	tests := map[string]string{
		"./util.ts":  "./util.mjs",
		"./view.tsx": "./view.mjs",
		"./a.mts":    "./a.mjs",
		"./a.cts":    "./a.cjs",
	}
	for spec, want := range tests {
		if got := Rewrite(Site{Specifier: spec}, ctx); got != want {
			t.Errorf("Rewrite(%q) = %q, want %q", spec, got, want)
		}
	}
}

func TestRewrite_DirectoryIndex(t *testing.T) {
	ctx := newContext(t, ".mjs")

	if got, want := Rewrite(Site{Specifier: "./assets"}, ctx), "./assets/index.mjs"; got != want {
		t.Errorf("Rewrite(./assets) = %q, want %q", got, want)
	}
	// lib.ts exists next to lib/, so the file wins.
	if got, want := Rewrite(Site{Specifier: "./lib"}, ctx), "./lib.mjs"; got != want {
		t.Errorf("Rewrite(./lib) = %q, want %q", got, want)
	}
	if got, want := Rewrite(Site{Specifier: "./missing"}, ctx), "./missing.mjs"; got != want {
		t.Errorf("Rewrite(./missing) = %q, want %q", got, want)
	}
}

func TestRewrite_RecordsChecks(t *testing.T) {
	ctx := newContext(t, ".mjs")
	Rewrite(Site{Specifier: "./assets"}, ctx)
	Rewrite(Site{Specifier: "./assets"}, ctx)
	Rewrite(Site{Specifier: "./a.mjs"}, ctx)
	want := []vfs.Check{
		{Path: "/repo/src/assets.ts"},
		{Path: "/repo/src/assets.js"},
		{Path: "/repo/src/assets", Dir: true, Exists: true},
	}
	if diff := cmp.Diff(want, ctx.Checks()); diff != "" {
		t.Errorf("Checks() mismatch (-want +got):\n%s", diff)
	}

	// lib.ts settles the shape without looking at the directory.
	next := ctx.ForModule("/repo/src/index.ts")
	Rewrite(Site{Specifier: "./lib"}, next)
	want = []vfs.Check{{Path: "/repo/src/lib.ts", Exists: true}}
	if diff := cmp.Diff(want, next.Checks()); diff != "" {
		t.Errorf("ForModule Checks() mismatch (-want +got):\n%s", diff)
	}
}

func TestRewrite_NonRelative(t *testing.T) {
	ctx := newContext(t, ".mjs")
	for _, spec := range []string{"react", "@scope/pkg/sub.js", "/abs/path.js", "node:fs", helpers.Package} {
		if got := Rewrite(Site{Specifier: spec}, ctx); got != spec {
			t.Errorf("Rewrite(%q) = %q, want unchanged", spec, got)
		}
	}
}

func TestRewrite_JSON(t *testing.T) {
	ctx := newContext(t, ".mjs")
	ctx.ResolveJSONModule = true
	if got := Rewrite(Site{Specifier: "./data.json"}, ctx); got != "./data.json" {
		t.Errorf("Rewrite(./data.json) = %q, want unchanged", got)
	}

	ctx.ResolveJSONModule = false
	if got := Rewrite(Site{Specifier: "./data.json"}, ctx); got != "./data.json.mjs" {
		t.Errorf("Rewrite(./data.json) without resolveJsonModule = %q", got)
	}
}

func TestRewrite_HelperSubstitution(t *testing.T) {
	ctx := newContext(t, ".mjs")
	ctx.ModulePath = "/repo/src/nested/deep/file.ts"
	ctx.HelpersPath = "/repo/src/helpers.js"

	site := Site{Kind: StaticImport, Specifier: helpers.Package, Synthesized: true}
	if got, want := Rewrite(site, ctx), "../../helpers.mjs"; got != want {
		t.Errorf("nested: got %q, want %q", got, want)
	}

	site.Module = "/repo/src/index.ts"
	if got, want := Rewrite(site, ctx), "./helpers.mjs"; got != want {
		t.Errorf("sibling: got %q, want %q", got, want)
	}

	site.Synthesized = false
	if got := Rewrite(site, ctx); got != helpers.Package {
		t.Errorf("user-written reference should not be substituted, got %q", got)
	}
}

func TestRewriteModule(t *testing.T) {
	ctx := newContext(t, ".cjs")
	ctx.HelpersPath = "/repo/src/helpers.js"

	dyn := &jsast.ECall{
		Callee: jsast.Expr{Data: &jsast.EImportKeyword{}},
		Args:   []jsast.Expr{{Data: &jsast.EString{Value: "./lib", Quote: '\'', Raw: "'./lib'"}}},
		Seps:   []string{"(", ")"},
	}
	userRequire := jsast.Require("./util.js")
	userRequire.Synthesized = false
	helperImport := &jsast.SImport{Head: "import { __publicField } from ", Source: jsast.String(helpers.Package), Tail: ";", Synthesized: true}
	helperRequire := jsast.Require(helpers.Package)
	helperRequire.Synthesized = false

	m := &jsast.Module{
		Path: "/repo/src/index.ts",
		Stmts: []jsast.Stmt{
			{Data: &jsast.SLocal{
				Head:        "const ",
				Decls:       []jsast.Decl{{Binding: "{ __publicField }", Value: &jsast.Expr{Data: helperRequire}}},
				Tail:        ";",
				Synthesized: true,
				Original:    helperImport,
			}},
			{Leading: "\n", Data: &jsast.SImport{Head: "import a from ", Source: jsast.EString{Value: "./util.js", Quote: '"', Raw: `"./util.js"`}, Tail: ";"}},
			{Leading: "\n", Data: &jsast.SExportFrom{Head: "export * from ", Source: jsast.EString{Value: "./assets", Quote: '"', Raw: `"./assets"`}, Tail: ";"}},
			{Leading: "\n", Data: &jsast.SVerbatim{Parts: []jsast.Expr{jsast.Text("export { a };")}}},
			{Leading: "\n", Data: &jsast.SVerbatim{Parts: []jsast.Expr{jsast.Text("const x = "), {Data: userRequire}, jsast.Text(";")}}},
			{Leading: "\n", Data: &jsast.SExpr{Value: jsast.Expr{Data: dyn}, Tail: ";"}},
		},
		Helpers: []jsast.HelperRef{{Name: "__publicField"}, {Name: "__publicField"}, {Name: "__local", Scoped: true}},
	}

	RewriteModule(m, ctx)

	want := `const { __publicField } = require("./helpers.cjs");
import a from "./util.cjs";
export * from "./assets/index.cjs";
export { a };
const x = require("./util.cjs");
import('./lib.cjs');`
	if got := jsast.Print(m); got != want {
		t.Errorf("Print() mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
	if diff := cmp.Diff([]string{"__publicField"}, ctx.Usage.Names()); diff != "" {
		t.Errorf("Usage mismatch (-want +got):\n%s", diff)
	}
}

func TestRewriteModule_NoSharing(t *testing.T) {
	ctx := newContext(t, ".mjs")
	req := jsast.Require(helpers.Package)
	m := &jsast.Module{
		Path:    "/repo/src/index.ts",
		Stmts:   []jsast.Stmt{{Data: &jsast.SExpr{Value: jsast.Expr{Data: req}, Tail: ";"}}},
		Helpers: []jsast.HelperRef{{Name: "__publicField"}},
	}

	RewriteModule(m, ctx)

	if got := req.Specifier().Value; got != helpers.Package {
		t.Errorf("specifier = %q, want unchanged without sharing", got)
	}
	if ctx.Usage.Len() != 0 {
		t.Errorf("Usage = %v, want nothing recorded without sharing", ctx.Usage.Names())
	}
}

func TestRewriteBundle(t *testing.T) {
	ctx := newContext(t, ".mjs")
	ctx.HelpersPath = "/repo/src/helpers.js"

	var modules []*jsast.Module
	for _, p := range []string{"/repo/src/index.ts", "/repo/src/lib/index.ts"} {
		modules = append(modules, &jsast.Module{
			Path:    p,
			Stmts:   []jsast.Stmt{{Data: &jsast.SImport{Head: "import ", Source: jsast.String(helpers.Package), Tail: ";", Synthesized: true}}},
			Helpers: []jsast.HelperRef{{Name: "__name"}},
		})
	}

	RewriteBundle(modules, ctx)

	if got := modules[0].Stmts[0].Data.(*jsast.SImport).Source.Value; got != "./helpers.mjs" {
		t.Errorf("first module = %q", got)
	}
	if got := modules[1].Stmts[0].Data.(*jsast.SImport).Source.Value; got != "../helpers.mjs" {
		t.Errorf("second module = %q", got)
	}
	if diff := cmp.Diff([]string{"__name", "__name"}, ctx.Usage.Names()); diff != "" {
		t.Errorf("Usage should hold one entry per unit (-want +got):\n%s", diff)
	}
}
