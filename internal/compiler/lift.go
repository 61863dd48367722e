package compiler

import (
	"regexp"
	"strings"

	"tsmulti/internal/helpers"
	"tsmulti/internal/jsast"
)

var identifierRe = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$]*`)

// helperDefinition returns the helper name an emitted top-level
// `var __name = ...;` statement defines.
func helperDefinition(s jsast.S, catalog *helpers.Catalog) (string, bool) {
	local, ok := s.(*jsast.SLocal)
	if !ok || local.Head != "var " || len(local.Decls) != 1 || local.Decls[0].Value == nil {
		return "", false
	}
	name := local.Decls[0].Binding
	return name, catalog.Has(name)
}

// liftHelpers removes inline helper definitions from m and replaces the
// first one with a single import of the helpers referenced by the rest of
// the module. Removed statements leave their line breaks behind so that
// every remaining line keeps its number.
func liftHelpers(m *jsast.Module, catalog *helpers.Catalog, esm bool) {
	lifted := make(map[string]bool)
	first := -1
	for i, stmt := range m.Stmts {
		if name, ok := helperDefinition(stmt.Data, catalog); ok {
			lifted[name] = true
			if first < 0 {
				first = i
			}
		}
	}
	if first < 0 {
		return
	}

	var rest strings.Builder
	stmts := make([]jsast.Stmt, 0, len(m.Stmts))
	lines := make(map[int]string)
	for i, stmt := range m.Stmts {
		if name, ok := helperDefinition(stmt.Data, catalog); ok && lifted[name] {
			lines[i] = jsast.Newlines(jsast.PrintStmt(stmt.Data))
			continue
		}
		rest.WriteString(jsast.PrintStmt(stmt.Data))
		rest.WriteByte('\n')
	}

	var used []string
	seen := make(map[string]bool)
	for _, id := range identifierRe.FindAllString(rest.String(), -1) {
		if lifted[id] && !seen[id] {
			seen[id] = true
			used = append(used, id)
		}
	}

	for i, stmt := range m.Stmts {
		pad, removed := lines[i]
		switch {
		case !removed:
			stmts = append(stmts, stmt)
		case i == first && len(used) > 0:
			stmts = append(stmts, jsast.Stmt{Leading: stmt.Leading, Data: HelperImport(used, esm)})
			if pad != "" {
				stmts = append(stmts, blank(pad))
			}
		case stmt.Leading != "" || pad != "":
			s := blank(pad)
			s.Leading = stmt.Leading
			stmts = append(stmts, s)
		}
	}
	m.Stmts = stmts

	m.Helpers = m.Helpers[:0]
	for _, name := range used {
		m.Helpers = append(m.Helpers, jsast.HelperRef{Name: name})
	}
}

func blank(text string) jsast.Stmt {
	return jsast.Stmt{Data: &jsast.SVerbatim{Parts: []jsast.Expr{jsast.Text(text)}}}
}

// HelperImport synthesizes `import { a, b } from "pkg";` or, for
// CommonJS, `const { a, b } = require("pkg");`.
func HelperImport(names []string, esm bool) jsast.S {
	list := "{ " + strings.Join(names, ", ") + " }"
	imp := &jsast.SImport{
		Head:        "import " + list + " from ",
		Source:      jsast.String(helpers.Package),
		Tail:        ";",
		Synthesized: true,
	}
	if esm {
		return imp
	}
	return &jsast.SLocal{
		Head:        "const ",
		Decls:       []jsast.Decl{{Binding: list, Eq: " = ", Value: &jsast.Expr{Data: jsast.Require(helpers.Package)}}},
		Tail:        ";",
		Synthesized: true,
		Original:    imp,
	}
}

// annotateTemporaries marks identifiers declared by hoisted `var _a, _b;`
// statements as generated, with the class whose body uses them as prefix.
func annotateTemporaries(m *jsast.Module) {
	temps := make(map[string]*jsast.GeneratedName)
	for _, stmt := range m.Stmts {
		local, ok := stmt.Data.(*jsast.SLocal)
		if !ok || local.Head != "var " || !allTemporaries(local) {
			continue
		}
		for _, d := range local.Decls {
			temps[d.Binding] = &jsast.GeneratedName{}
		}
	}
	if len(temps) == 0 {
		return
	}

	for _, stmt := range m.Stmts {
		cls, ok := stmt.Data.(*jsast.SClass)
		if !ok || cls.Class.Name == "" {
			continue
		}
		body := jsast.PrintStmt(cls)
		for _, id := range identifierRe.FindAllString(body, -1) {
			if g, ok := temps[id]; ok && g.Prefix == "" {
				g.Prefix = cls.Class.Name
			}
		}
	}

	jsast.Walk(m.Stmts, func(e *jsast.Expr) bool {
		if id, ok := e.Data.(*jsast.EIdentifier); ok {
			if g, ok := temps[id.Name]; ok {
				id.Generated = &jsast.GeneratedName{Prefix: g.Prefix}
			}
		}
		return true
	})
}

func allTemporaries(local *jsast.SLocal) bool {
	for _, d := range local.Decls {
		if d.Value != nil || !strings.HasPrefix(d.Binding, "_") || strings.HasPrefix(d.Binding, "__") {
			return false
		}
	}
	return len(local.Decls) > 0
}
