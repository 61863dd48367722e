package jsast

import (
	"fmt"
	"strings"
)

// Print renders a module back to source text.
func Print(m *Module) string {
	var p printer
	p.stmts(m.Stmts)
	p.sb.WriteString(m.Trailing)
	return p.sb.String()
}

// PrintStmt renders a single statement without its leading trivia.
func PrintStmt(s S) string {
	var p printer
	p.stmt(s)
	return p.sb.String()
}

// PrintExpr renders an expression.
func PrintExpr(e Expr) string {
	var p printer
	p.expr(e)
	return p.sb.String()
}

type printer struct {
	sb strings.Builder
}

func (p *printer) stmts(stmts []Stmt) {
	for _, s := range stmts {
		p.sb.WriteString(s.Leading)
		p.stmt(s.Data)
	}
}

func (p *printer) stmt(s S) {
	switch s := s.(type) {
	case *SImport:
		p.sb.WriteString(s.Head)
		p.str(&s.Source)
		p.sb.WriteString(s.Tail)
	case *SExportFrom:
		p.sb.WriteString(s.Head)
		p.str(&s.Source)
		p.sb.WriteString(s.Tail)
	case *SLocal:
		p.sb.WriteString(s.Head)
		for i, d := range s.Decls {
			if i > 0 {
				if i-1 < len(s.Seps) {
					p.sb.WriteString(s.Seps[i-1])
				} else {
					p.sb.WriteString(", ")
				}
			}
			p.sb.WriteString(d.Binding)
			if d.Value != nil {
				if d.Eq == "" {
					p.sb.WriteString(" = ")
				} else {
					p.sb.WriteString(d.Eq)
				}
				p.expr(*d.Value)
			}
		}
		p.sb.WriteString(s.Tail)
	case *SClass:
		p.sb.WriteString(s.Head)
		p.class(&s.Class)
		p.sb.WriteString(s.Tail)
	case *SExpr:
		p.expr(s.Value)
		p.sb.WriteString(s.Tail)
	case *SReturn:
		p.sb.WriteString("return ")
		p.expr(s.Value)
		p.sb.WriteString(";")
	case *SVerbatim:
		p.parts(s.Parts)
	case nil:
	default:
		panic(fmt.Sprintf("jsast: unexpected statement %T", s))
	}
}

func (p *printer) expr(e Expr) {
	switch e := e.Data.(type) {
	case *EText:
		p.sb.WriteString(e.Text)
	case *EString:
		p.str(e)
	case *EIdentifier:
		p.sb.WriteString(e.Name)
	case *EDot:
		p.expr(e.Target)
		if e.Sep == "" {
			p.sb.WriteString(".")
		} else {
			p.sb.WriteString(e.Sep)
		}
		p.sb.WriteString(e.Name)
	case *EBinary:
		p.expr(e.Left)
		if e.OpText == "" {
			if e.Op == "," {
				p.sb.WriteString(", ")
			} else {
				p.sb.WriteString(" " + e.Op + " ")
			}
		} else {
			p.sb.WriteString(e.OpText)
		}
		p.expr(e.Right)
	case *ECall:
		p.expr(e.Callee)
		seps := e.Seps
		if len(seps) != len(e.Args)+1 {
			seps = defaultSeps(len(e.Args))
		}
		p.sb.WriteString(seps[0])
		for i, a := range e.Args {
			p.expr(a)
			p.sb.WriteString(seps[i+1])
		}
	case *EImportKeyword:
		p.sb.WriteString("import")
	case *EClass:
		p.class(e)
	case *EVerbatim:
		p.parts(e.Parts)
	case *EArrowCall:
		if e.Pure {
			p.sb.WriteString("/* @__PURE__ */ ")
		}
		p.sb.WriteString("(() => {")
		p.stmts(e.Body)
		p.sb.WriteString(" })()")
	case nil:
	default:
		panic(fmt.Sprintf("jsast: unexpected expression %T", e))
	}
}

func (p *printer) class(c *EClass) {
	if len(c.Parts) == 0 {
		p.sb.WriteString("class " + c.Name + " {}")
		return
	}
	p.parts(c.Parts)
}

func (p *printer) parts(parts []Expr) {
	for _, e := range parts {
		p.expr(e)
	}
}

func (p *printer) str(s *EString) {
	if s.Raw != "" {
		p.sb.WriteString(s.Raw)
		return
	}
	p.sb.WriteString(Quote(s.Value, s.Quote))
}

func defaultSeps(n int) []string {
	seps := make([]string, n+1)
	seps[0] = "("
	for i := 1; i < n; i++ {
		seps[i] = ", "
	}
	seps[n] += ")"
	return seps
}

// Quote renders value as a string literal using quote, '"' when zero.
func Quote(value string, quote byte) string {
	if quote == 0 {
		quote = '"'
	}
	var sb strings.Builder
	sb.WriteByte(quote)
	for _, r := range value {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\u2028':
			sb.WriteString(`\u2028`)
		case '\u2029':
			sb.WriteString(`\u2029`)
		default:
			if r == rune(quote) {
				sb.WriteByte('\\')
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte(quote)
	return sb.String()
}

// Newlines returns a string holding as many line breaks as s does.
func Newlines(s string) string {
	return strings.Repeat("\n", strings.Count(s, "\n"))
}
