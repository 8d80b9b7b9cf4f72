// Package ast defines the surface parse tree for Aegis C. Producing this
// tree from source text is an external-collaborator concern per spec.md
// §1 ("lexer/parser... out of scope"); this package only fixes the shape
// that internal/parser builds and internal/core/desugar consumes. Nodes
// are plain tagged variants inspected with type switches — spec.md §9
// explicitly calls a visitor/observer layer unnecessary here.
package ast

import (
	"fmt"
	"strings"

	"github.com/geeknik/aegis-c-compiler/internal/position"
)

// Node is implemented by every AST node.
type Node interface {
	Span() position.Span
	String() string
}

// Decl is a top-level declaration.
type Decl interface {
	Node
	declNode()
}

// Stmt is a statement.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression.
type Expr interface {
	Node
	exprNode()
}

// TypeExpr is a surface type annotation.
type TypeExpr interface {
	Node
	typeExprNode()
}

// Program is the root of one translation unit.
type Program struct {
	Sp    position.Span
	Decls []Decl
}

func (p *Program) Span() position.Span { return p.Sp }
func (p *Program) String() string {
	parts := make([]string, len(p.Decls))
	for i, d := range p.Decls {
		parts[i] = d.String()
	}
	return strings.Join(parts, "\n")
}

// ===== Declarations =====

// Param is one function parameter.
type Param struct {
	Sp      position.Span
	Name    string
	Type    TypeExpr
	Mutable bool
}

func (p *Param) Span() position.Span { return p.Sp }
func (p *Param) String() string {
	mut := ""
	if p.Mutable {
		mut = "mut "
	}
	return fmt.Sprintf("%s%s: %s", mut, p.Name, p.Type)
}

// Field is one struct field or enum variant declaration.
type Field struct {
	Sp   position.Span
	Name string
	Type TypeExpr // nil for enum variants without a payload
}

func (f *Field) Span() position.Span { return f.Sp }
func (f *Field) String() string {
	if f.Type == nil {
		return f.Name
	}
	return fmt.Sprintf("%s: %s", f.Name, f.Type)
}

// FuncDecl is a function definition.
type FuncDecl struct {
	Sp         position.Span
	Name       string
	Params     []*Param
	ReturnType TypeExpr // nil means void
	Body       *BlockStmt
}

func (d *FuncDecl) Span() position.Span { return d.Sp }
func (d *FuncDecl) declNode()           {}
func (d *FuncDecl) String() string {
	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = p.String()
	}
	ret := "void"
	if d.ReturnType != nil {
		ret = d.ReturnType.String()
	}
	return fmt.Sprintf("%s f(%s) %s %s", ret, d.Name, strings.Join(params, ", "), d.Body)
}

// StructDecl is a struct aggregate definition.
type StructDecl struct {
	Sp     position.Span
	Name   string
	Fields []*Field
}

func (d *StructDecl) Span() position.Span { return d.Sp }
func (d *StructDecl) declNode()           {}
func (d *StructDecl) String() string {
	fields := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		fields[i] = f.String()
	}
	return fmt.Sprintf("struct %s { %s }", d.Name, strings.Join(fields, "; "))
}

// EnumDecl is an enum aggregate definition.
type EnumDecl struct {
	Sp       position.Span
	Name     string
	Variants []*Field
}

func (d *EnumDecl) Span() position.Span { return d.Sp }
func (d *EnumDecl) declNode()           {}
func (d *EnumDecl) String() string {
	variants := make([]string, len(d.Variants))
	for i, v := range d.Variants {
		variants[i] = v.String()
	}
	return fmt.Sprintf("enum %s { %s }", d.Name, strings.Join(variants, ", "))
}

// ===== Type expressions =====

// NamedType is a scalar, void, addr, or aggregate reference by name.
type NamedType struct {
	Sp   position.Span
	Name string
}

func (t *NamedType) Span() position.Span { return t.Sp }
func (t *NamedType) typeExprNode()       {}
func (t *NamedType) String() string      { return t.Name }

// ArrayType is [Elem; N].
type ArrayType struct {
	Sp   position.Span
	Elem TypeExpr
	N    int
}

func (t *ArrayType) Span() position.Span { return t.Sp }
func (t *ArrayType) typeExprNode()       {}
func (t *ArrayType) String() string      { return fmt.Sprintf("[%s; %d]", t.Elem, t.N) }

// OwnType is own<Elem> or own<[Elem]> (IsSlice distinguishes them).
type OwnType struct {
	Sp      position.Span
	Elem    TypeExpr
	IsSlice bool
}

func (t *OwnType) Span() position.Span { return t.Sp }
func (t *OwnType) typeExprNode()       {}
func (t *OwnType) String() string {
	if t.IsSlice {
		return fmt.Sprintf("own<[%s]>", t.Elem)
	}
	return fmt.Sprintf("own<%s>", t.Elem)
}

// ViewType is view<Elem>.
type ViewType struct {
	Sp   position.Span
	Elem TypeExpr
}

func (t *ViewType) Span() position.Span { return t.Sp }
func (t *ViewType) typeExprNode()       {}
func (t *ViewType) String() string      { return fmt.Sprintf("view<%s>", t.Elem) }

// PointerType is T*, mut T*, or raw T*.
type PointerType struct {
	Sp   position.Span
	Elem TypeExpr
	Mut  bool
	Raw  bool
}

func (t *PointerType) Span() position.Span { return t.Sp }
func (t *PointerType) typeExprNode()       {}
func (t *PointerType) String() string {
	switch {
	case t.Raw:
		return fmt.Sprintf("raw %s*", t.Elem)
	case t.Mut:
		return fmt.Sprintf("mut %s*", t.Elem)
	default:
		return fmt.Sprintf("%s*", t.Elem)
	}
}

// ===== Statements =====

// BlockStmt is a brace-delimited sequence of statements, the unit of
// lexical scope (spec.md §3 "Lifecycle").
type BlockStmt struct {
	Sp    position.Span
	Stmts []Stmt
}

func (s *BlockStmt) Span() position.Span { return s.Sp }
func (s *BlockStmt) stmtNode()           {}
func (s *BlockStmt) String() string {
	parts := make([]string, len(s.Stmts))
	for i, st := range s.Stmts {
		parts[i] = st.String()
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

// UnsafeStmt is an `unsafe { ... }` block.
type UnsafeStmt struct {
	Sp   position.Span
	Body *BlockStmt
}

func (s *UnsafeStmt) Span() position.Span { return s.Sp }
func (s *UnsafeStmt) stmtNode()           {}
func (s *UnsafeStmt) String() string      { return "unsafe " + s.Body.String() }

// LetStmt declares a local binding written `let x: T = e;` (spec.md §4.1).
// internal/parser accepts only this `let` form; a C-style `T x = e;`
// declaration is not parsed and is reported as a syntax error.
type LetStmt struct {
	Sp      position.Span
	Name    string
	Type    TypeExpr
	Init    Expr // nil if uninitialized
	Mutable bool
}

func (s *LetStmt) Span() position.Span { return s.Sp }
func (s *LetStmt) stmtNode()           {}
func (s *LetStmt) String() string {
	if s.Init == nil {
		return fmt.Sprintf("let %s: %s;", s.Name, s.Type)
	}
	return fmt.Sprintf("let %s: %s = %s;", s.Name, s.Type, s.Init)
}

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	Sp   position.Span
	Expr Expr
}

func (s *ExprStmt) Span() position.Span { return s.Sp }
func (s *ExprStmt) stmtNode()           {}
func (s *ExprStmt) String() string      { return s.Expr.String() + ";" }

// IfStmt is a conditional.
type IfStmt struct {
	Sp   position.Span
	Cond Expr
	Then *BlockStmt
	Else Stmt // *BlockStmt or *IfStmt, nil if absent
}

func (s *IfStmt) Span() position.Span { return s.Sp }
func (s *IfStmt) stmtNode()           {}
func (s *IfStmt) String() string {
	if s.Else == nil {
		return fmt.Sprintf("if (%s) %s", s.Cond, s.Then)
	}
	return fmt.Sprintf("if (%s) %s else %s", s.Cond, s.Then, s.Else)
}

// WhileStmt is a while loop.
type WhileStmt struct {
	Sp   position.Span
	Cond Expr
	Body *BlockStmt
}

func (s *WhileStmt) Span() position.Span { return s.Sp }
func (s *WhileStmt) stmtNode()           {}
func (s *WhileStmt) String() string      { return fmt.Sprintf("while (%s) %s", s.Cond, s.Body) }

// ForStmt is a C-style for loop; desugar rewrites it to the canonical
// `{ init; while (cond) { body; step; } }` form (spec.md §4.1).
type ForStmt struct {
	Sp   position.Span
	Init Stmt // *LetStmt or *ExprStmt, may be nil
	Cond Expr // may be nil (treated as true)
	Step Expr // may be nil
	Body *BlockStmt
}

func (s *ForStmt) Span() position.Span { return s.Sp }
func (s *ForStmt) stmtNode()           {}
func (s *ForStmt) String() string {
	return fmt.Sprintf("for (%s; %s; %s) %s", s.Init, s.Cond, s.Step, s.Body)
}

// ReturnStmt returns from the enclosing function.
type ReturnStmt struct {
	Sp    position.Span
	Value Expr // nil for void return
}

func (s *ReturnStmt) Span() position.Span { return s.Sp }
func (s *ReturnStmt) stmtNode()           {}
func (s *ReturnStmt) String() string {
	if s.Value == nil {
		return "return;"
	}
	return fmt.Sprintf("return %s;", s.Value)
}

// ===== Expressions =====

// Ident is a name reference.
type Ident struct {
	Sp   position.Span
	Name string
}

func (e *Ident) Span() position.Span { return e.Sp }
func (e *Ident) exprNode()           {}
func (e *Ident) String() string      { return e.Name }

// IntLit is an integer literal.
type IntLit struct {
	Sp    position.Span
	Value int64
}

func (e *IntLit) Span() position.Span { return e.Sp }
func (e *IntLit) exprNode()           {}
func (e *IntLit) String() string      { return fmt.Sprintf("%d", e.Value) }

// BoolLit is a boolean literal.
type BoolLit struct {
	Sp    position.Span
	Value bool
}

func (e *BoolLit) Span() position.Span { return e.Sp }
func (e *BoolLit) exprNode()           {}
func (e *BoolLit) String() string      { return fmt.Sprintf("%t", e.Value) }

// UnOp is a prefix unary operation.
type UnOp struct {
	Sp      position.Span
	Op      string
	Operand Expr
}

func (e *UnOp) Span() position.Span { return e.Sp }
func (e *UnOp) exprNode()           {}
func (e *UnOp) String() string      { return fmt.Sprintf("%s%s", e.Op, e.Operand) }

// BinOp is an infix binary operation (arithmetic, bitwise, comparison,
// logical).
type BinOp struct {
	Sp  position.Span
	Op  string
	LHS Expr
	RHS Expr
}

func (e *BinOp) Span() position.Span { return e.Sp }
func (e *BinOp) exprNode()           {}
func (e *BinOp) String() string      { return fmt.Sprintf("(%s %s %s)", e.LHS, e.Op, e.RHS) }

// Call is a function call or call-syntax intrinsic
// (borrow/mut_borrow/release_borrow/move are call-shaped at the surface
// and only take on their special meaning during desugar; spec.md §4.1).
// alloc and cast are parsed into AllocCall and CastCall instead.
type Call struct {
	Sp     position.Span
	Callee Expr
	Args   []Expr
}

func (e *Call) Span() position.Span { return e.Sp }
func (e *Call) exprNode()           {}
func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(args, ", "))
}

// AllocCall is alloc(T, n), parsed specially since T is a type, not an
// expression, so it cannot be a plain Call.
type AllocCall struct {
	Sp    position.Span
	Elem  TypeExpr
	Count Expr
}

func (e *AllocCall) Span() position.Span { return e.Sp }
func (e *AllocCall) exprNode()           {}
func (e *AllocCall) String() string      { return fmt.Sprintf("alloc(%s, %s)", e.Elem, e.Count) }

// CastCall is cast(T, expr) or cast(T, expr, token), parsed specially
// for the same reason as AllocCall: T is a type, not an expression. The
// optional third argument is the capability token (spec.md §4.2 rule 7)
// that authorizes an int-to-pointer cast inside unsafe code.
type CastCall struct {
	Sp      position.Span
	Target  TypeExpr
	Operand Expr
	Token   Expr // nil when the cast carries no token argument
}

func (e *CastCall) Span() position.Span { return e.Sp }
func (e *CastCall) exprNode()           {}
func (e *CastCall) String() string {
	if e.Token == nil {
		return fmt.Sprintf("cast(%s, %s)", e.Target, e.Operand)
	}
	return fmt.Sprintf("cast(%s, %s, %s)", e.Target, e.Operand, e.Token)
}

// IndexExpr is base[idx].
type IndexExpr struct {
	Sp   position.Span
	Base Expr
	Idx  Expr
}

func (e *IndexExpr) Span() position.Span { return e.Sp }
func (e *IndexExpr) exprNode()           {}
func (e *IndexExpr) String() string      { return fmt.Sprintf("%s[%s]", e.Base, e.Idx) }

// FieldExpr is base.name (struct field access or `.view()`-style method
// syntax, which desugar recognizes by name).
type FieldExpr struct {
	Sp   position.Span
	Base Expr
	Name string
}

func (e *FieldExpr) Span() position.Span { return e.Sp }
func (e *FieldExpr) exprNode()           {}
func (e *FieldExpr) String() string      { return fmt.Sprintf("%s.%s", e.Base, e.Name) }

// AssignExpr is place = value.
type AssignExpr struct {
	Sp    position.Span
	Place Expr
	Value Expr
}

func (e *AssignExpr) Span() position.Span { return e.Sp }
func (e *AssignExpr) exprNode()           {}
func (e *AssignExpr) String() string      { return fmt.Sprintf("%s = %s", e.Place, e.Value) }
