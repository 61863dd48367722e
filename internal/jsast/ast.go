// Package jsast is the module tree the rewriting passes operate on.
//
// Statements and expressions are closed sets of variants: every S and E
// implementation lives in this file and callers match them with type
// switches. Nodes produced by the parser keep the exact source text around
// their interesting parts so that printing an untouched module reproduces
// the input byte for byte.
package jsast

// Module is one compiled unit.
type Module struct {
	Path  string
	Stmts []Stmt
	// Trailing holds whitespace and comments after the last statement.
	Trailing string
	// Helpers lists the runtime helpers the compiler emitted references to.
	Helpers []HelperRef
}

// HelperRef names a runtime helper a unit references. Scoped helpers are
// emitted inline by the compiler and never shared.
type HelperRef struct {
	Name   string
	Scoped bool
}

// Stmt is a statement with the trivia that precedes it.
type Stmt struct {
	Leading string
	Data    S
}

// S is implemented by every statement variant.
type S interface{ isStmt() }

// SImport is `import ... from "source"` or `import "source"`.
type SImport struct {
	Head        string
	Source      EString
	Tail        string
	Synthesized bool
}

// SExportFrom is `export ... from "source"`. Re-exports without a module
// specifier are SVerbatim.
type SExportFrom struct {
	Head        string
	Source      EString
	Tail        string
	Synthesized bool
}

// SLocal is a var, let or const statement. Head holds everything before the
// first binding, e.g. "export const ".
type SLocal struct {
	Head  string
	Decls []Decl
	// Seps separates Decls and has len(Decls)-1 entries.
	Seps []string
	Tail string

	Synthesized bool
	// Original is set on a synthesized require binding and holds the import
	// the compiler lowered into it.
	Original *SImport
}

// Decl is one binding of an SLocal. Eq is the text between binding and
// value and is empty when Value is nil.
type Decl struct {
	Binding string
	Eq      string
	Value   *Expr
}

// SClass is a class declaration. Head holds modifiers before the class
// keyword ("export ", "export default ", "declare ").
type SClass struct {
	Head  string
	Class EClass
	Tail  string
}

// SExpr is an expression statement.
type SExpr struct {
	Value Expr
	Tail  string
}

// SReturn is a synthesized `return Value;`.
type SReturn struct {
	Value Expr
}

// SVerbatim is any other statement, kept as text with holes for nested
// expressions the passes care about.
type SVerbatim struct {
	Parts []Expr
}

func (*SImport) isStmt()     {}
func (*SExportFrom) isStmt() {}
func (*SLocal) isStmt()      {}
func (*SClass) isStmt()      {}
func (*SExpr) isStmt()       {}
func (*SReturn) isStmt()     {}
func (*SVerbatim) isStmt()   {}

// Expr wraps one expression variant.
type Expr struct {
	Data E
}

// E is implemented by every expression variant.
type E interface{ isExpr() }

// EText is raw source text.
type EText struct {
	Text string
}

// EString is a string literal. Raw is the literal as written, including
// quotes; printing uses Raw until Value is changed with SetValue.
type EString struct {
	Value string
	Quote byte
	Raw   string
}

// EIdentifier is an identifier reference. Generated is non-nil for
// compiler-synthesized temporaries.
type EIdentifier struct {
	Name      string
	Generated *GeneratedName
}

// GeneratedName is metadata on a synthesized identifier. Prefix names the
// declaration the temporary was generated for, if any.
type GeneratedName struct {
	Prefix string
}

// EDot is a property access. Sep holds the text between Target and Name,
// normally ".".
type EDot struct {
	Target Expr
	Sep    string
	Name   string
}

// EBinary is an assignment ("=") or comma (",") expression. OpText is the
// operator as written including surrounding whitespace.
type EBinary struct {
	Op     string
	Left   Expr
	OpText string
	Right  Expr
}

// ECall is a call. Seps has len(Args)+1 entries: the text after the callee
// up to the first argument, between arguments, and after the last one.
type ECall struct {
	Callee      Expr
	Args        []Expr
	Seps        []string
	Synthesized bool
}

// EImportKeyword is the callee of a dynamic import().
type EImportKeyword struct{}

// EClass is the class part of an SClass, from the class keyword through
// the closing brace.
type EClass struct {
	Name    string
	Extends string
	// Computed reports a member with a computed property name.
	Computed bool
	Parts    []Expr
}

// EVerbatim is an expression kept as text with holes.
type EVerbatim struct {
	Parts []Expr
}

// EArrowCall is a synthesized immediately invoked arrow function.
type EArrowCall struct {
	Body []Stmt
	// Pure prefixes the call with a side-effect-free annotation.
	Pure bool
}

func (*EText) isExpr()          {}
func (*EString) isExpr()        {}
func (*EIdentifier) isExpr()    {}
func (*EDot) isExpr()           {}
func (*EBinary) isExpr()        {}
func (*ECall) isExpr()          {}
func (*EImportKeyword) isExpr() {}
func (*EClass) isExpr()         {}
func (*EVerbatim) isExpr()      {}
func (*EArrowCall) isExpr()     {}

// Text returns an EText expression.
func Text(s string) Expr {
	return Expr{Data: &EText{Text: s}}
}

// Ident returns an identifier expression.
func Ident(name string) Expr {
	return Expr{Data: &EIdentifier{Name: name}}
}

// String returns a double quoted string literal.
func String(value string) EString {
	return EString{Value: value, Quote: '"'}
}

// SetValue replaces the literal's value; the quote style is kept.
func (s *EString) SetValue(v string) {
	if v == s.Value && s.Raw != "" {
		return
	}
	s.Value = v
	s.Raw = ""
}

// Require returns a synthesized require(source) call.
func Require(source string) *ECall {
	str := String(source)
	return &ECall{
		Callee:      Ident("require"),
		Args:        []Expr{{Data: &str}},
		Seps:        []string{"(", ")"},
		Synthesized: true,
	}
}

// IsRequire reports whether c is require("...") with a string first argument.
func (c *ECall) IsRequire() bool {
	id, ok := c.Callee.Data.(*EIdentifier)
	if !ok || id.Name != "require" || len(c.Args) == 0 {
		return false
	}
	_, ok = c.Args[0].Data.(*EString)
	return ok
}

// IsDynamicImport reports whether c is import("...") with a string first
// argument.
func (c *ECall) IsDynamicImport() bool {
	if _, ok := c.Callee.Data.(*EImportKeyword); !ok || len(c.Args) == 0 {
		return false
	}
	_, ok := c.Args[0].Data.(*EString)
	return ok
}

// Specifier returns the string literal of a require or dynamic import.
func (c *ECall) Specifier() *EString {
	if len(c.Args) == 0 {
		return nil
	}
	s, _ := c.Args[0].Data.(*EString)
	return s
}
