package jsast

// Visitor is called for every expression reached by Walk. Returning false
// skips the expression's children.
type Visitor func(e *Expr) bool

// Walk visits every expression of stmts in source order.
func Walk(stmts []Stmt, v Visitor) {
	for i := range stmts {
		WalkStmt(stmts[i].Data, v)
	}
}

// WalkStmt visits the expressions of a single statement.
func WalkStmt(s S, v Visitor) {
	switch s := s.(type) {
	case *SLocal:
		for i := range s.Decls {
			if s.Decls[i].Value != nil {
				WalkExpr(s.Decls[i].Value, v)
			}
		}
	case *SClass:
		walkParts(s.Class.Parts, v)
	case *SExpr:
		WalkExpr(&s.Value, v)
	case *SReturn:
		WalkExpr(&s.Value, v)
	case *SVerbatim:
		walkParts(s.Parts, v)
	case *SImport, *SExportFrom, nil:
	}
}

// WalkExpr visits e and its children.
func WalkExpr(e *Expr, v Visitor) {
	if !v(e) {
		return
	}
	switch d := e.Data.(type) {
	case *EDot:
		WalkExpr(&d.Target, v)
	case *EBinary:
		WalkExpr(&d.Left, v)
		WalkExpr(&d.Right, v)
	case *ECall:
		WalkExpr(&d.Callee, v)
		walkParts(d.Args, v)
	case *EClass:
		walkParts(d.Parts, v)
	case *EVerbatim:
		walkParts(d.Parts, v)
	case *EArrowCall:
		Walk(d.Body, v)
	}
}

func walkParts(parts []Expr, v Visitor) {
	for i := range parts {
		WalkExpr(&parts[i], v)
	}
}

// Calls returns every call expression reachable from stmts.
func Calls(stmts []Stmt) []*ECall {
	var calls []*ECall
	Walk(stmts, func(e *Expr) bool {
		if c, ok := e.Data.(*ECall); ok {
			calls = append(calls, c)
		}
		return true
	})
	return calls
}
