// Package purity regroups a lowered class declaration with the static
// initialization statements that follow it into one side-effect-free
// annotated expression, so bundlers can drop the class when it is unused.
package purity

import (
	"strings"

	"tsmulti/internal/helpers"
	"tsmulti/internal/jsast"
)

// builtinBases are platform types whose subclasses keep their exotic
// behaviour only when declared directly.
var builtinBases = map[string]bool{
	"Object": true, "Function": true, "Array": true, "Number": true,
	"Boolean": true, "String": true, "Symbol": true, "BigInt": true,
	"Error": true, "AggregateError": true, "EvalError": true, "RangeError": true,
	"ReferenceError": true, "SyntaxError": true, "TypeError": true, "URIError": true,
	"Map": true, "Set": true, "WeakMap": true, "WeakSet": true, "WeakRef": true,
	"Promise": true, "RegExp": true, "Date": true, "Proxy": true,
	"ArrayBuffer": true, "SharedArrayBuffer": true, "DataView": true,
	"Int8Array": true, "Uint8Array": true, "Uint8ClampedArray": true,
	"Int16Array": true, "Uint16Array": true, "Int32Array": true, "Uint32Array": true,
	"Float32Array": true, "Float64Array": true, "BigInt64Array": true, "BigUint64Array": true,
	"EventTarget": true, "HTMLElement": true,
}

// IsBuiltinBase reports whether extends names a built-in platform type.
func IsBuiltinBase(extends string) bool {
	return builtinBases[strings.TrimPrefix(strings.TrimSpace(extends), "globalThis.")]
}

type group struct {
	stmt    jsast.Stmt
	class   *jsast.SClass
	members []jsast.Stmt
}

// Group returns m with class groups wrapped. m is not modified.
func Group(m *jsast.Module) *jsast.Module {
	out := &jsast.Module{Path: m.Path, Trailing: m.Trailing, Helpers: m.Helpers}
	declared := make(map[string]bool)
	var open *group

	flush := func() {
		if open != nil {
			out.Stmts = append(out.Stmts, render(open)...)
			open = nil
		}
	}

	for _, stmt := range m.Stmts {
		if cls, ok := stmt.Data.(*jsast.SClass); ok && cls.Class.Name != "" && !declared[cls.Class.Name] {
			flush()
			declared[cls.Class.Name] = true
			open = &group{stmt: stmt, class: cls}
			continue
		}
		if open != nil {
			if s, ok := stmt.Data.(*jsast.SExpr); ok && attaches(s.Value, open.class.Class.Name) {
				open.members = append(open.members, stmt)
				continue
			}
		}
		flush()
		out.Stmts = append(out.Stmts, stmt)
	}
	flush()
	return out
}

// attaches reports whether e initializes state of the class called name.
// Every operand of a comma expression must attach.
func attaches(e jsast.Expr, name string) bool {
	switch d := e.Data.(type) {
	case *jsast.EBinary:
		switch d.Op {
		case ",":
			return attaches(d.Left, name) && attaches(d.Right, name)
		case "=":
			return assignsTo(d, name)
		}
	case *jsast.ECall:
		return initializesVia(d, name)
	}
	return false
}

func assignsTo(b *jsast.EBinary, name string) bool {
	switch left := b.Left.Data.(type) {
	case *jsast.EDot:
		// Foo.prop = ...
		id, ok := left.Target.Data.(*jsast.EIdentifier)
		return ok && id.Name == name
	case *jsast.EIdentifier:
		if left.Generated == nil {
			return false
		}
		// _a = Foo
		if right, ok := b.Right.Data.(*jsast.EIdentifier); ok && right.Name == name {
			return true
		}
		// _Foo_field = new WeakMap()
		return left.Generated.Prefix == name
	}
	return false
}

// initializesVia matches runtime helper calls whose first argument is the
// class or a member of it, e.g. __publicField(Foo, "x", 1) or
// __decorateClass([dec], Foo.prototype, "m", 1).
func initializesVia(call *jsast.ECall, name string) bool {
	callee, ok := call.Callee.Data.(*jsast.EIdentifier)
	if !ok || !helpers.Default.Has(callee.Name) {
		return false
	}
	for _, arg := range call.Args {
		if refersTo(arg, name) {
			return true
		}
		// decorators come first in __decorateClass
		if _, ok := arg.Data.(*jsast.EVerbatim); !ok || callee.Name != "__decorateClass" {
			break
		}
	}
	return false
}

func refersTo(e jsast.Expr, name string) bool {
	switch d := e.Data.(type) {
	case *jsast.EIdentifier:
		return d.Name == name
	case *jsast.EDot:
		return refersTo(d.Target, name)
	}
	return false
}

func render(g *group) []jsast.Stmt {
	cls := g.class
	if len(g.members) == 0 && !cls.Class.Computed {
		return []jsast.Stmt{g.stmt}
	}
	if IsBuiltinBase(cls.Class.Extends) {
		return append([]jsast.Stmt{g.stmt}, g.members...)
	}

	name := cls.Class.Name
	body := make([]jsast.Stmt, 0, len(g.members)+2)
	body = append(body, jsast.Stmt{Leading: " ", Data: &jsast.SClass{Class: cls.Class, Tail: cls.Tail}})
	body = append(body, g.members...)
	body = append(body, jsast.Stmt{Leading: " ", Data: &jsast.SReturn{Value: jsast.Ident(name)}})

	head, exportDefault := modifiers(cls.Head)
	out := []jsast.Stmt{{
		Leading: g.stmt.Leading,
		Data: &jsast.SLocal{
			Head: head + "var ",
			Decls: []jsast.Decl{{
				Binding: name,
				Eq:      " = ",
				Value:   &jsast.Expr{Data: &jsast.EArrowCall{Body: body, Pure: true}},
			}},
			Tail:        ";",
			Synthesized: true,
		},
	}}
	if exportDefault {
		out = append(out, jsast.Stmt{
			Leading: " ",
			Data:    &jsast.SVerbatim{Parts: []jsast.Expr{jsast.Text("export default " + name + ";")}},
		})
	}
	return out
}

// modifiers converts class modifiers to variable statement modifiers.
func modifiers(head string) (string, bool) {
	fields := strings.Fields(head)
	exported, isDefault := false, false
	for _, f := range fields {
		switch f {
		case "export":
			exported = true
		case "default":
			isDefault = true
		}
	}
	switch {
	case exported && isDefault:
		return "", true
	case exported:
		return "export ", false
	}
	return "", false
}
