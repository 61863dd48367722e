package compiler

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"tsmulti/internal/helpers"
	"tsmulti/internal/jsast"
	"tsmulti/internal/purity"
	"tsmulti/internal/target"
	"tsmulti/internal/tsconfig"
)

func helperVar(name, value string) jsast.Stmt {
	v := jsast.Text(value)
	return jsast.Stmt{Leading: "\n", Data: &jsast.SLocal{
		Head:  "var ",
		Decls: []jsast.Decl{{Binding: name, Eq: " = ", Value: &v}},
		Tail:  ";",
	}}
}

func loweredModule() *jsast.Module {
	publicField := &jsast.ECall{
		Callee: jsast.Ident("__publicField"),
		Args:   []jsast.Expr{jsast.Ident("Foo"), jsast.Text(`"x"`), jsast.Text("1")},
		Seps:   []string{"(", ", ", ", ", ")"},
	}
	return &jsast.Module{
		Path: "/out/index.js",
		Stmts: []jsast.Stmt{
			{Data: &jsast.SExpr{Value: jsast.Expr{Data: &jsast.EString{Value: "use strict", Quote: '"', Raw: `"use strict"`}}, Tail: ";"}},
			helperVar("__defProp", "Object.defineProperty"),
			helperVar("__defNormalProp", "(obj, key, value) => key in obj ? __defProp(obj, key, { value }) : obj[key] = value"),
			helperVar("__publicField", "(obj, key, value) =>\n  __defNormalProp(obj, key + \"\", value)"),
			{Leading: "\n", Data: &jsast.SClass{Class: jsast.EClass{Name: "Foo", Parts: []jsast.Expr{jsast.Text("class Foo {}")}}}},
			{Leading: "\n", Data: &jsast.SExpr{Value: jsast.Expr{Data: publicField}, Tail: ";"}},
		},
		Trailing: "\n",
	}
}

func TestLiftHelpers_CommonJS(t *testing.T) {
	m := loweredModule()
	liftHelpers(m, helpers.Default, false)

	want := `"use strict";
const { __publicField } = require("@tsmulti/helpers");



class Foo {}
__publicField(Foo, "x", 1);
`
	if diff := cmp.Diff(want, jsast.Print(m)); diff != "" {
		t.Errorf("Print() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]jsast.HelperRef{{Name: "__publicField"}}, m.Helpers); diff != "" {
		t.Errorf("Helpers mismatch (-want +got):\n%s", diff)
	}

	local := m.Stmts[1].Data.(*jsast.SLocal)
	if !local.Synthesized || local.Original == nil || local.Original.Source.Value != helpers.Package {
		t.Errorf("helper require not marked as synthesized from an import: %+v", local)
	}
}

func TestLiftHelpers_ESM(t *testing.T) {
	m := loweredModule()
	m.Stmts = m.Stmts[1:]
	m.Stmts[0].Leading = ""
	liftHelpers(m, helpers.Default, true)

	imp, ok := m.Stmts[0].Data.(*jsast.SImport)
	if !ok {
		t.Fatalf("Stmts[0] = %T, want *SImport", m.Stmts[0].Data)
	}
	if got := jsast.PrintStmt(imp); got != `import { __publicField } from "@tsmulti/helpers";` {
		t.Errorf("import = %q", got)
	}
	if !imp.Synthesized {
		t.Error("import should be synthesized")
	}
}

func TestLiftHelpers_Unused(t *testing.T) {
	m := &jsast.Module{
		Stmts: []jsast.Stmt{
			{Leading: "#!/usr/bin/env node\n", Data: helperVar("__defProp", "Object.defineProperty").Data},
			{Leading: "\n", Data: &jsast.SVerbatim{Parts: []jsast.Expr{jsast.Text("main();")}}},
		},
	}
	liftHelpers(m, helpers.Default, true)

	if got, want := jsast.Print(m), "#!/usr/bin/env node\n\nmain();"; got != want {
		t.Errorf("Print() = %q, want %q", got, want)
	}
	if len(m.Helpers) != 0 {
		t.Errorf("Helpers = %v, want none", m.Helpers)
	}
}

func TestLiftHelpers_UnknownNamesStayInline(t *testing.T) {
	m := &jsast.Module{Stmts: []jsast.Stmt{helperVar("__myHelper", "() => 1")}}
	before := jsast.Print(m)
	liftHelpers(m, helpers.Default, true)
	if got := jsast.Print(m); got != before {
		t.Errorf("Print() = %q, want unchanged %q", got, before)
	}
}

func TestAnnotateTemporaries(t *testing.T) {
	assign := func(left, right string) jsast.Stmt {
		return jsast.Stmt{Leading: "\n", Data: &jsast.SExpr{
			Value: jsast.Expr{Data: &jsast.EBinary{Op: "=", Left: jsast.Ident(left), OpText: " = ", Right: jsast.Ident(right)}},
			Tail:  ";",
		}}
	}
	m := &jsast.Module{
		Stmts: []jsast.Stmt{
			{Data: &jsast.SLocal{Head: "var ", Decls: []jsast.Decl{{Binding: "_a"}, {Binding: "_count"}}, Seps: []string{", "}, Tail: ";"}},
			{Leading: "\n", Data: &jsast.SClass{Class: jsast.EClass{
				Name:  "Counter",
				Parts: []jsast.Expr{jsast.Text("class Counter {\n  constructor() {\n    __privateAdd(this, _count, 0);\n  }\n}")},
			}}},
			assign("_count", "WeakMapValue"),
			assign("_a", "Counter"),
		},
	}

	annotateTemporaries(m)

	count := m.Stmts[2].Data.(*jsast.SExpr).Value.Data.(*jsast.EBinary).Left.Data.(*jsast.EIdentifier)
	if count.Generated == nil || count.Generated.Prefix != "Counter" {
		t.Errorf("_count = %+v, want generated with prefix Counter", count.Generated)
	}
	a := m.Stmts[3].Data.(*jsast.SExpr).Value.Data.(*jsast.EBinary).Left.Data.(*jsast.EIdentifier)
	if a.Generated == nil || a.Generated.Prefix != "" {
		t.Errorf("_a = %+v, want generated without prefix", a.Generated)
	}

	grouped := purity.Group(m)
	if len(grouped.Stmts) != 2 {
		t.Errorf("grouped into %d statements, want declaration plus wrapped class:\n%s", len(grouped.Stmts), jsast.Print(grouped))
	}
}

func TestLookup(t *testing.T) {
	if _, err := Lookup(""); err != nil {
		t.Errorf("Lookup(\"\") error = %v", err)
	}
	if _, err := Lookup("ESBuild"); err != nil {
		t.Errorf("Lookup(ESBuild) error = %v", err)
	}
	if _, err := Lookup("tsc"); err == nil {
		t.Error("Lookup(tsc) should fail")
	}
}

func TestEmitsESM(t *testing.T) {
	tests := []struct {
		target target.Target
		module string
		want   bool
	}{
		{target.Target{Extname: ".mjs"}, "commonjs", true},
		{target.Target{Extname: ".cjs"}, "esnext", false},
		{target.Target{}, "ESNext", true},
		{target.Target{}, "", false},
		{target.Target{Module: target.ModuleCommonJS}, "esnext", false},
	}
	for _, tt := range tests {
		if got := EmitsESM(tt.target, tsconfig.CompilerOptions{Module: tt.module}); got != tt.want {
			t.Errorf("EmitsESM(%+v, %q) = %v, want %v", tt.target, tt.module, got, tt.want)
		}
	}
}
