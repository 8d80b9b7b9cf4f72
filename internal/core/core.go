// Package core defines Aegis Core, the desugared tree produced from a
// parse tree by Desugar: control flow is normalized, the safety
// intrinsics are elaborated into explicit nodes, and every allocation,
// borrow, and binding carries a fresh identifier (spec.md §4.1). Nodes
// are tagged variants inspected with type switches, not a visitor
// hierarchy (spec.md §9).
package core

import (
	"github.com/geeknik/aegis-c-compiler/internal/ids"
	"github.com/geeknik/aegis-c-compiler/internal/position"
	"github.com/geeknik/aegis-c-compiler/internal/types"
)

// Node is implemented by every Core node.
type Node interface {
	Span() position.Span
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

// Expr is an expression, annotated with its semantic type once the
// checker has run (nil beforehand).
type Expr interface {
	Node
	exprNode()
	Type() *types.Type
	SetType(*types.Type)
}

type exprBase struct {
	Sp position.Span
	Ty *types.Type
}

func (e *exprBase) Span() position.Span   { return e.Sp }
func (e *exprBase) exprNode()             {}
func (e *exprBase) Type() *types.Type     { return e.Ty }
func (e *exprBase) SetType(t *types.Type) { e.Ty = t }

// Program is one translation unit.
type Program struct {
	Sp    position.Span
	Decls []Decl
}

func (p *Program) Span() position.Span { return p.Sp }

// Param is one function parameter.
type Param struct {
	ID      ids.BindingID
	Name    string
	Type    *types.Type
	Mutable bool
}

// FuncDecl is a function definition lowered to Core.
type FuncDecl struct {
	Sp         position.Span
	Name       string
	Params     []Param
	ReturnType *types.Type
	Body       *Block
}

func (d *FuncDecl) Span() position.Span { return d.Sp }
func (d *FuncDecl) declNode()           {}

// StructDecl/EnumDecl carry no new semantics beyond naming their fields'
// types; the checker consults them only for nominal type equality.
type StructDecl struct {
	Sp     position.Span
	Name   string
	Fields map[string]*types.Type
	Order  []string
}

func (d *StructDecl) Span() position.Span { return d.Sp }
func (d *StructDecl) declNode()           {}

type EnumDecl struct {
	Sp       position.Span
	Name     string
	Variants []string
}

func (d *EnumDecl) Span() position.Span { return d.Sp }
func (d *EnumDecl) declNode()           {}

// Block is the unit of lexical scope (spec.md §3 "Lifecycle"): it owns a
// lifetime id, and Bindings lists, in declaration order, every binding
// introduced directly within it so the checker and IR lowering can drop
// them in reverse order at scope exit.
type Block struct {
	Sp       position.Span
	Lifetime ids.LifetimeID
	Parent   ids.LifetimeID
	Stmts    []Stmt
	Bindings []ids.BindingID
}

func (b *Block) Span() position.Span { return b.Sp }
func (b *Block) stmtNode()           {}

// ===== Statements =====

// Let declares one binding. Bindings of own<…> type with no Init enter
// Uninit state (spec.md §4.2 "State machine").
type Let struct {
	Sp      position.Span
	ID      ids.BindingID
	Name    string
	Type    *types.Type
	Init    Expr
	Mutable bool
}

func (s *Let) Span() position.Span { return s.Sp }
func (s *Let) stmtNode()           {}

// ExprStmt evaluates an expression for effect.
type ExprStmt struct {
	Sp   position.Span
	Expr Expr
}

func (s *ExprStmt) Span() position.Span { return s.Sp }
func (s *ExprStmt) stmtNode()           {}

// If is a conditional; Else is nil, a *Block, or another *If.
type If struct {
	Sp   position.Span
	Cond Expr
	Then *Block
	Else Stmt
}

func (s *If) Span() position.Span { return s.Sp }
func (s *If) stmtNode()           {}

// While is the sole loop construct in Core; for-loops desugar into it
// (spec.md §4.1).
type While struct {
	Sp   position.Span
	Cond Expr
	Body *Block
}

func (s *While) Span() position.Span { return s.Sp }
func (s *While) stmtNode()           {}

// Return returns from the enclosing function.
type Return struct {
	Sp    position.Span
	Value Expr
}

func (s *Return) Span() position.Span { return s.Sp }
func (s *Return) stmtNode()           {}

// UnsafeBlock raises the unsafe depth counter for its Body (spec.md
// §4.2 rule 7).
type UnsafeBlock struct {
	Sp   position.Span
	Body *Block
}

func (s *UnsafeBlock) Span() position.Span { return s.Sp }
func (s *UnsafeBlock) stmtNode()           {}

// ErrorStmt is a placeholder for an unsupported surface construct: the
// diagnostic was already recorded by desugar, and this node lets later
// phases keep walking without cascading (spec.md §4.1 "Failures").
type ErrorStmt struct {
	Sp   position.Span
	Code string
}

func (s *ErrorStmt) Span() position.Span { return s.Sp }
func (s *ErrorStmt) stmtNode()           {}

// ===== Expressions =====

// Literal is an integer constant.
type Literal struct {
	exprBase
	Value int64
}

// BoolLiteral is a boolean constant.
type BoolLiteral struct {
	exprBase
	Value bool
}

// Var references a binding by id.
type Var struct {
	exprBase
	ID   ids.BindingID
	Name string
}

// Call is an ordinary function call; the safety intrinsics never reach
// this node (spec.md §4.1).
type Call struct {
	exprBase
	Callee string
	Args   []Expr
}

// UnOp is a prefix unary operation.
type UnOp struct {
	exprBase
	Op      string
	Operand Expr
}

// BinOp is an infix binary operation.
type BinOp struct {
	exprBase
	Op       string
	LHS, RHS Expr
}

// Index is base[idx].
type Index struct {
	exprBase
	Base, Idx Expr
}

// Field is base.name, including the `.len` projection on view<T>.
type Field struct {
	exprBase
	Base Expr
	Name string
}

// Assign is place = value.
type Assign struct {
	exprBase
	Place, Value Expr
}

// Alloc is alloc(T, n), producing own<[T]> with a fresh allocation id
// and a fresh lifetime id for that allocation (spec.md §3, §4.1).
type Alloc struct {
	exprBase
	Elem     *types.Type
	Count    Expr
	Alloc    ids.AllocID
	Lifetime ids.LifetimeID
}

// View elaborates the `.view()` method-call sugar into an explicit node
// producing view<T> over the underlying own<[T]>.
type View struct {
	exprBase
	Base Expr
}

// BorrowShared elaborates `borrow(x)` / `&x`.
type BorrowShared struct {
	exprBase
	Place  Expr
	Borrow ids.BorrowID
}

// BorrowMut elaborates `mut_borrow(x)`. The `&mut x` spelling is not
// accepted by internal/parser (`mut` cannot start an operand), so the
// intrinsic is the only way to create one.
type BorrowMut struct {
	exprBase
	Place  Expr
	Borrow ids.BorrowID
}

// ReleaseBorrow elaborates `release_borrow(p)`.
type ReleaseBorrow struct {
	exprBase
	Operand Expr
	Borrow  ids.BorrowID
}

// Move elaborates `move(x)`: transfers ownership out of Place and marks
// the source binding Moved.
type Move struct {
	exprBase
	Place Expr
}

// PtrOffset is pointer arithmetic that preserves provenance and
// narrowed range (spec.md §4.2 rule 8).
type PtrOffset struct {
	exprBase
	Ptr Expr
	Idx Expr
}

// BoundsNarrow preserves provenance and shrinks the provable range.
type BoundsNarrow struct {
	exprBase
	Ptr        Expr
	Start, Len Expr
}

// Cast elaborates `cast(T, expr[, token])`: a reinterpretation to type T,
// gated by the checker's capability rules when T is a pointer type
// (spec.md §4.2 rule 7). Token is nil when the surface form omitted it.
type Cast struct {
	exprBase
	Target  *types.Type
	Operand Expr
	Token   Expr
}

// CapToken elaborates `alloc_cap(id)` / `forge_cap(id)` / `alias_cap(id)`:
// the capability tokens spec.md §4.2 rule 7 requires to authorize an
// int-to-pointer cast inside unsafe code. Only alloc_cap may originate
// from source text in v0; forge_cap and alias_cap are recognized so the
// checker can reject a user attempting to mint one (spec.md §7, E6xxx).
type CapToken struct {
	exprBase
	Kind string // "alloc_cap" | "forge_cap" | "alias_cap"
	Arg  Expr
}

// ErrorExpr is an expression-position placeholder for an unsupported
// construct.
type ErrorExpr struct {
	exprBase
	Code string
}
