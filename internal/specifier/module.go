package specifier

import (
	"tsmulti/internal/helpers"
	"tsmulti/internal/jsast"
)

// RewriteModule rewrites every module reference of m in place and records
// the module's unscoped helpers into ctx.Usage.
func RewriteModule(m *jsast.Module, ctx *Context) {
	if m.Path != "" && ctx.ModulePath == "" {
		ctx.ModulePath = m.Path
	}
	if ctx.SharesHelpers() {
		recordHelpers(m, ctx)
		markHelperRequires(m.Stmts, ctx)
	}

	for i := range m.Stmts {
		switch s := m.Stmts[i].Data.(type) {
		case *jsast.SImport:
			rewriteLiteral(&s.Source, StaticImport, s.Synthesized, ctx)
		case *jsast.SExportFrom:
			rewriteLiteral(&s.Source, ExportFrom, s.Synthesized, ctx)
		default:
			jsast.WalkStmt(s, func(e *jsast.Expr) bool {
				if call, ok := e.Data.(*jsast.ECall); ok {
					rewriteCall(call, ctx)
				}
				return true
			})
		}
	}
}

// RewriteBundle rewrites a group of modules that share one build context.
func RewriteBundle(modules []*jsast.Module, ctx *Context) {
	for _, m := range modules {
		RewriteModule(m, ctx.ForModule(m.Path))
	}
}

func rewriteLiteral(lit *jsast.EString, kind SiteKind, synthesized bool, ctx *Context) {
	lit.SetValue(Rewrite(Site{Kind: kind, Specifier: lit.Value, Synthesized: synthesized}, ctx))
}

func rewriteCall(call *jsast.ECall, ctx *Context) {
	lit := call.Specifier()
	if lit == nil {
		return
	}
	switch {
	case call.IsDynamicImport():
		rewriteLiteral(lit, DynamicImport, call.Synthesized, ctx)
	case call.IsRequire():
		if ctx.IsHelperRequire(call) {
			lit.SetValue(ctx.helpersSpecifier(ctx.ModulePath))
			return
		}
		rewriteLiteral(lit, Require, call.Synthesized, ctx)
	}
}

func recordHelpers(m *jsast.Module, ctx *Context) {
	if ctx.Usage == nil {
		return
	}
	seen := make(map[string]bool, len(m.Helpers))
	for _, h := range m.Helpers {
		if h.Scoped || seen[h.Name] {
			continue
		}
		seen[h.Name] = true
		ctx.Usage.Record(h.Name)
	}
}

// markHelperRequires finds bindings the compiler lowered from an import of
// the helper package and marks their require calls.
func markHelperRequires(stmts []jsast.Stmt, ctx *Context) {
	for i := range stmts {
		local, ok := stmts[i].Data.(*jsast.SLocal)
		if !ok || !local.Synthesized || local.Original == nil || local.Original.Source.Value != helpers.Package {
			continue
		}
		if len(local.Decls) == 0 || local.Decls[0].Value == nil {
			continue
		}
		if call, ok := local.Decls[0].Value.Data.(*jsast.ECall); ok && call.IsRequire() {
			ctx.MarkHelperRequire(call)
		}
	}
}
