//go:build cgo

package jsparse

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"tsmulti/internal/jsast"
)

// Parser wraps tree-sitter for emitted JavaScript and declaration files.
// A Parser is not safe for concurrent use.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a new tree-sitter backed parser.
func NewParser() *Parser {
	return &Parser{
		parser: sitter.NewParser(),
	}
}

// Available reports whether parsing is supported by this build.
func Available() bool { return true }

// Parse parses src into a module tree. Statements the grammar cannot type
// (including error recovery regions) are kept verbatim.
func (p *Parser) Parse(ctx context.Context, path string, src []byte) (*jsast.Module, error) {
	p.parser.SetLanguage(languageFor(path))
	tree, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	c := converter{src: src}
	root := tree.RootNode()
	m := &jsast.Module{Path: path}

	pos := root.StartByte()
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if isTrivia(child) {
			continue
		}
		m.Stmts = append(m.Stmts, jsast.Stmt{
			Leading: c.text(pos, child.StartByte()),
			Data:    c.stmt(child),
		})
		pos = child.EndByte()
	}
	m.Trailing = string(src[pos:])
	// tree-sitter roots may start after leading trivia.
	if root.StartByte() > 0 {
		if len(m.Stmts) > 0 {
			m.Stmts[0].Leading = string(src[:root.StartByte()]) + m.Stmts[0].Leading
		} else {
			m.Trailing = string(src)
		}
	}
	return m, nil
}

func languageFor(path string) *sitter.Language {
	switch {
	case strings.HasSuffix(path, ".tsx"):
		return tsx.GetLanguage()
	case strings.HasSuffix(path, ".ts"), strings.HasSuffix(path, ".mts"), strings.HasSuffix(path, ".cts"):
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

func isTrivia(n *sitter.Node) bool {
	switch n.Type() {
	case "comment", "hash_bang_line", "html_comment":
		return true
	}
	return false
}

type converter struct {
	src []byte
}

func (c *converter) text(start, end uint32) string {
	if end <= start {
		return ""
	}
	return string(c.src[start:end])
}

func (c *converter) content(n *sitter.Node) string {
	return c.text(n.StartByte(), n.EndByte())
}

func (c *converter) stmt(n *sitter.Node) jsast.S {
	switch n.Type() {
	case "import_statement":
		if src := n.ChildByFieldName("source"); src != nil && src.Type() == "string" {
			return &jsast.SImport{
				Head:   c.text(n.StartByte(), src.StartByte()),
				Source: c.str(src),
				Tail:   c.text(src.EndByte(), n.EndByte()),
			}
		}
	case "export_statement":
		if src := n.ChildByFieldName("source"); src != nil && src.Type() == "string" {
			return &jsast.SExportFrom{
				Head:   c.text(n.StartByte(), src.StartByte()),
				Source: c.str(src),
				Tail:   c.text(src.EndByte(), n.EndByte()),
			}
		}
		if decl := n.ChildByFieldName("declaration"); decl != nil {
			head := c.text(n.StartByte(), decl.StartByte())
			tail := c.text(decl.EndByte(), n.EndByte())
			switch decl.Type() {
			case "class_declaration":
				return c.class(decl, head, tail)
			case "lexical_declaration", "variable_declaration":
				if s := c.local(decl, n.StartByte()); s != nil {
					s.Tail += tail
					return s
				}
			}
		}
	case "class_declaration":
		return c.class(n, "", "")
	case "lexical_declaration", "variable_declaration":
		if s := c.local(n, n.StartByte()); s != nil {
			return s
		}
	case "expression_statement":
		if e := firstNamed(n); e != nil {
			return &jsast.SExpr{
				Value: c.expr(e),
				Tail:  c.text(e.EndByte(), n.EndByte()),
			}
		}
	}
	return &jsast.SVerbatim{Parts: c.verbatim(n)}
}

func (c *converter) class(n *sitter.Node, head, tail string) jsast.S {
	cls := jsast.EClass{Parts: c.verbatim(n)}
	if name := n.ChildByFieldName("name"); name != nil {
		cls.Name = c.content(name)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if h := n.NamedChild(i); h.Type() == "class_heritage" {
			cls.Extends = heritageBase(c.content(h))
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			for _, field := range []string{"name", "property"} {
				if key := member.ChildByFieldName(field); key != nil && key.Type() == "computed_property_name" {
					cls.Computed = true
				}
			}
		}
	}
	return &jsast.SClass{Head: head, Class: cls, Tail: tail}
}

// heritageBase extracts the base expression from "extends X<T> implements Y".
func heritageBase(h string) string {
	h = strings.TrimSpace(h)
	if !strings.HasPrefix(h, "extends") {
		return ""
	}
	h = strings.TrimSpace(strings.TrimPrefix(h, "extends"))
	if i := strings.Index(h, " implements "); i >= 0 {
		h = h[:i]
	}
	if i := strings.IndexAny(h, "<{"); i >= 0 {
		h = h[:i]
	}
	return strings.TrimSpace(h)
}

func (c *converter) local(n *sitter.Node, headStart uint32) *jsast.SLocal {
	var decls []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if d := n.NamedChild(i); d.Type() == "variable_declarator" {
			decls = append(decls, d)
		}
	}
	if len(decls) == 0 {
		return nil
	}

	s := &jsast.SLocal{Head: c.text(headStart, decls[0].StartByte())}
	for i, d := range decls {
		if i > 0 {
			s.Seps = append(s.Seps, c.text(decls[i-1].EndByte(), d.StartByte()))
		}
		value := d.ChildByFieldName("value")
		if value == nil {
			s.Decls = append(s.Decls, jsast.Decl{Binding: c.content(d)})
			continue
		}
		bindingEnd := d.ChildByFieldName("name").EndByte()
		if typ := d.ChildByFieldName("type"); typ != nil {
			bindingEnd = typ.EndByte()
		}
		v := c.expr(value)
		s.Decls = append(s.Decls, jsast.Decl{
			Binding: c.text(d.StartByte(), bindingEnd),
			Eq:      c.text(bindingEnd, value.StartByte()),
			Value:   &v,
		})
	}
	s.Tail = c.text(decls[len(decls)-1].EndByte(), n.EndByte())
	return s
}

func (c *converter) expr(n *sitter.Node) jsast.Expr {
	switch n.Type() {
	case "identifier":
		return jsast.Ident(c.content(n))
	case "string":
		s := c.str(n)
		return jsast.Expr{Data: &s}
	case "assignment_expression":
		left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
		if left != nil && right != nil {
			return jsast.Expr{Data: &jsast.EBinary{
				Op:     "=",
				Left:   c.expr(left),
				OpText: c.text(left.EndByte(), right.StartByte()),
				Right:  c.expr(right),
			}}
		}
	case "sequence_expression":
		operands := namedChildren(n)
		if len(operands) >= 2 {
			acc := c.expr(operands[0])
			for i := 1; i < len(operands); i++ {
				acc = jsast.Expr{Data: &jsast.EBinary{
					Op:     ",",
					Left:   acc,
					OpText: c.text(operands[i-1].EndByte(), operands[i].StartByte()),
					Right:  c.expr(operands[i]),
				}}
			}
			return acc
		}
	case "member_expression":
		obj, prop := n.ChildByFieldName("object"), n.ChildByFieldName("property")
		if obj != nil && prop != nil && strings.HasSuffix(prop.Type(), "property_identifier") {
			return jsast.Expr{Data: &jsast.EDot{
				Target: c.expr(obj),
				Sep:    c.text(obj.EndByte(), prop.StartByte()),
				Name:   c.content(prop),
			}}
		}
	case "call_expression":
		if call := c.call(n); call != nil {
			return jsast.Expr{Data: call}
		}
	}
	return jsast.Expr{Data: &jsast.EVerbatim{Parts: c.verbatim(n)}}
}

func (c *converter) call(n *sitter.Node) *jsast.ECall {
	fn, args := n.ChildByFieldName("function"), n.ChildByFieldName("arguments")
	if fn == nil || args == nil || args.Type() != "arguments" {
		return nil
	}

	call := &jsast.ECall{}
	if fn.Type() == "import" {
		call.Callee = jsast.Expr{Data: &jsast.EImportKeyword{}}
	} else {
		call.Callee = c.expr(fn)
	}

	list := namedChildren(args)
	if len(list) == 0 {
		call.Seps = []string{c.text(fn.EndByte(), n.EndByte())}
		return call
	}
	call.Seps = append(call.Seps, c.text(fn.EndByte(), list[0].StartByte()))
	for i, a := range list {
		call.Args = append(call.Args, c.expr(a))
		end := n.EndByte()
		if i+1 < len(list) {
			end = list[i+1].StartByte()
		}
		call.Seps = append(call.Seps, c.text(a.EndByte(), end))
	}
	return call
}

// verbatim splits n's text into raw runs and holes for require() and
// import() calls nested anywhere below n.
func (c *converter) verbatim(n *sitter.Node) []jsast.Expr {
	var parts []jsast.Expr
	pos := n.StartByte()
	var visit func(*sitter.Node)
	visit = func(node *sitter.Node) {
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if isModuleCall(child, c.src) {
				if call := c.call(child); call != nil {
					if t := c.text(pos, child.StartByte()); t != "" {
						parts = append(parts, jsast.Text(t))
					}
					parts = append(parts, jsast.Expr{Data: call})
					pos = child.EndByte()
					continue
				}
			}
			if child.ChildCount() > 0 {
				visit(child)
			}
		}
	}
	visit(n)
	if t := c.text(pos, n.EndByte()); t != "" || len(parts) == 0 {
		parts = append(parts, jsast.Text(t))
	}
	return parts
}

func isModuleCall(n *sitter.Node, src []byte) bool {
	if n.Type() != "call_expression" {
		return false
	}
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return false
	}
	return fn.Type() == "import" || (fn.Type() == "identifier" && fn.Content(src) == "require")
}

func (c *converter) str(n *sitter.Node) jsast.EString {
	raw := c.content(n)
	s := jsast.EString{Raw: raw}
	if len(raw) >= 2 {
		s.Quote = raw[0]
		s.Value = unquote(raw[1 : len(raw)-1])
	}
	return s
}

func unquote(body string) string {
	if !strings.Contains(body, `\`) {
		return body
	}
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' || i+1 >= len(body) {
			sb.WriteByte(ch)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '0':
			sb.WriteByte(0)
		case '\n':
		case 'u':
			if r, size := decodeUnicode(body[i+1:]); size > 0 {
				sb.WriteRune(r)
				i += size
			} else {
				sb.WriteByte('u')
			}
		default:
			sb.WriteByte(body[i])
		}
	}
	return sb.String()
}

func decodeUnicode(s string) (rune, int) {
	hex := s
	size := 4
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return 0, 0
		}
		hex, size = s[1:end], end+1
	} else if len(s) >= 4 {
		hex = s[:4]
	} else {
		return 0, 0
	}
	var r rune
	for _, ch := range hex {
		r <<= 4
		switch {
		case ch >= '0' && ch <= '9':
			r |= ch - '0'
		case ch >= 'a' && ch <= 'f':
			r |= ch - 'a' + 10
		case ch >= 'A' && ch <= 'F':
			r |= ch - 'A' + 10
		default:
			return 0, 0
		}
	}
	return r, size
}

func firstNamed(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); !isTrivia(child) {
			return child
		}
	}
	return nil
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); !isTrivia(child) {
			out = append(out, child)
		}
	}
	return out
}
