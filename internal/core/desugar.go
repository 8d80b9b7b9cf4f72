package core

import (
	"fmt"

	"github.com/geeknik/aegis-c-compiler/internal/ast"
	"github.com/geeknik/aegis-c-compiler/internal/diagnostic"
	"github.com/geeknik/aegis-c-compiler/internal/ids"
	"github.com/geeknik/aegis-c-compiler/internal/position"
	"github.com/geeknik/aegis-c-compiler/internal/scope"
	"github.com/geeknik/aegis-c-compiler/internal/types"
)

var scalarNames = map[string]types.Scalar{
	"u8": types.U8, "u16": types.U16, "u32": types.U32, "u64": types.U64,
	"i8": types.I8, "i16": types.I16, "i32": types.I32, "i64": types.I64,
	"bool": types.Bool, "usize": types.USize, "isize": types.ISize,
}

// floatNames are explicitly rejected by spec.md §1's Non-goals rather
// than treated as unknown identifiers, so the diagnostic is specific.
var floatNames = map[string]bool{"f32": true, "f64": true}

// Desugarer turns a parse tree into Aegis Core, assigning fresh
// identifiers in source order so two runs over identical input produce
// byte-identical Core (spec.md §4.1 "deterministic").
type Desugarer struct {
	arenas *ids.Arenas
	sink   *diagnostic.Sink
	scopes *scope.Stack

	structs map[string]*StructDecl
	enums   map[string]*EnumDecl

	lifetimeStack []ids.LifetimeID
	blockStack    []*Block
}

// New constructs a Desugarer reporting into sink and allocating
// identifiers from arenas.
func New(arenas *ids.Arenas, sink *diagnostic.Sink) *Desugarer {
	return &Desugarer{
		arenas:        arenas,
		sink:          sink,
		scopes:        scope.NewStack(),
		structs:       map[string]*StructDecl{},
		enums:         map[string]*EnumDecl{},
		lifetimeStack: []ids.LifetimeID{ids.StaticLifetime},
	}
}

// Desugar runs the full pass: it registers aggregate names first so
// forward references resolve, then lowers every function body.
func Desugar(prog *ast.Program, arenas *ids.Arenas, sink *diagnostic.Sink) *Program {
	d := New(arenas, sink)
	return d.run(prog)
}

func (d *Desugarer) run(prog *ast.Program) *Program {
	out := &Program{Sp: prog.Sp}
	for _, decl := range prog.Decls {
		switch v := decl.(type) {
		case *ast.StructDecl:
			out.Decls = append(out.Decls, d.registerStruct(v))
		case *ast.EnumDecl:
			out.Decls = append(out.Decls, d.registerEnum(v))
		}
	}
	for _, decl := range prog.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			out.Decls = append(out.Decls, d.desugarFunc(fn))
		}
	}
	return out
}

func (d *Desugarer) registerStruct(v *ast.StructDecl) *StructDecl {
	sd := &StructDecl{Sp: v.Sp, Name: v.Name, Fields: map[string]*types.Type{}}
	for _, f := range v.Fields {
		sd.Fields[f.Name] = d.resolveType(f.Type)
		sd.Order = append(sd.Order, f.Name)
	}
	d.structs[v.Name] = sd
	return sd
}

func (d *Desugarer) registerEnum(v *ast.EnumDecl) *EnumDecl {
	ed := &EnumDecl{Sp: v.Sp, Name: v.Name}
	for _, variant := range v.Variants {
		ed.Variants = append(ed.Variants, variant.Name)
	}
	d.enums[v.Name] = ed
	return ed
}

func (d *Desugarer) desugarFunc(v *ast.FuncDecl) *FuncDecl {
	d.scopes.Push()
	defer d.scopes.Pop()

	fn := &FuncDecl{Sp: v.Sp, Name: v.Name}
	if v.ReturnType != nil {
		fn.ReturnType = d.resolveType(v.ReturnType)
	} else {
		fn.ReturnType = types.Void()
	}
	for _, p := range v.Params {
		ty := d.resolveType(p.Type)
		id := d.arenas.NewBinding()
		if err := d.scopes.Define(p.Name, id, ty, p.Mutable); err != nil {
			d.reportRedecl(p.Sp, p.Name)
		}
		fn.Params = append(fn.Params, Param{ID: id, Name: p.Name, Type: ty, Mutable: p.Mutable})
	}
	fn.Body = d.desugarBlock(v.Body)
	return fn
}

// ===== Type resolution =====

func (d *Desugarer) resolveType(t ast.TypeExpr) *types.Type {
	switch v := t.(type) {
	case *ast.NamedType:
		if s, ok := scalarNames[v.Name]; ok {
			return types.NewScalar(s)
		}
		if floatNames[v.Name] {
			d.sink.Report(diagnostic.New("E0100", diagnostic.CategoryRejected).At(v.Sp).
				Msg("floating-point type %q is not supported in v0", v.Name).
				Suggest(diagnostic.SuggestSplitDeclaration).Build())
			return &types.Type{Kind: types.KindInvalid}
		}
		if v.Name == "void" {
			return types.Void()
		}
		if v.Name == "addr" {
			return types.Addr()
		}
		if sd, ok := d.structs[v.Name]; ok {
			return types.Struct(sd.Name)
		}
		if ed, ok := d.enums[v.Name]; ok {
			return types.Enum(ed.Name)
		}
		d.sink.Report(diagnostic.New("E0101", diagnostic.CategoryRejected).At(v.Sp).
			Msg("unknown type %q", v.Name).
			Suggest(diagnostic.SuggestSplitDeclaration).Build())
		return &types.Type{Kind: types.KindInvalid}
	case *ast.ArrayType:
		return types.Array(d.resolveType(v.Elem), v.N)
	case *ast.OwnType:
		if v.IsSlice {
			return types.OwnSlice(d.resolveType(v.Elem))
		}
		return types.OwnBuf(d.resolveType(v.Elem))
	case *ast.ViewType:
		return types.View(d.resolveType(v.Elem))
	case *ast.PointerType:
		elem := d.resolveType(v.Elem)
		switch {
		case v.Mut:
			return types.UniquePtr(elem)
		case v.Raw:
			return types.RawPtr(elem)
		default:
			return types.SharedPtr(elem)
		}
	default:
		return &types.Type{Kind: types.KindInvalid}
	}
}

// ===== Lifetime and scope bookkeeping =====

func (d *Desugarer) pushLifetime() ids.LifetimeID {
	id := d.arenas.NewLifetime()
	d.lifetimeStack = append(d.lifetimeStack, id)
	return id
}

func (d *Desugarer) popLifetime() {
	d.lifetimeStack = d.lifetimeStack[:len(d.lifetimeStack)-1]
}

func (d *Desugarer) currentLifetime() ids.LifetimeID {
	return d.lifetimeStack[len(d.lifetimeStack)-1]
}

func (d *Desugarer) recordBinding(id ids.BindingID) {
	if len(d.blockStack) == 0 {
		return
	}
	top := d.blockStack[len(d.blockStack)-1]
	top.Bindings = append(top.Bindings, id)
}

func (d *Desugarer) reportRedecl(sp position.Span, name string) {
	d.sink.Report(diagnostic.New("E0102", diagnostic.CategoryRejected).At(sp).
		Msg("binding %q already declared in this scope", name).
		Suggest(diagnostic.SuggestSplitDeclaration).Build())
}

// ===== Statements =====

func (d *Desugarer) desugarBlock(v *ast.BlockStmt) *Block {
	parent := d.currentLifetime()
	lifetime := d.pushLifetime()
	d.scopes.Push()

	block := &Block{Sp: v.Sp, Lifetime: lifetime, Parent: parent}
	d.blockStack = append(d.blockStack, block)

	for _, s := range v.Stmts {
		block.Stmts = append(block.Stmts, d.desugarStmt(s))
	}

	d.blockStack = d.blockStack[:len(d.blockStack)-1]
	d.scopes.Pop()
	d.popLifetime()
	return block
}

func (d *Desugarer) desugarStmt(s ast.Stmt) Stmt {
	switch v := s.(type) {
	case *ast.LetStmt:
		return d.desugarLet(v)
	case *ast.ExprStmt:
		return &ExprStmt{Sp: v.Sp, Expr: d.desugarExpr(v.Expr)}
	case *ast.IfStmt:
		return d.desugarIf(v)
	case *ast.WhileStmt:
		cond := d.desugarExpr(v.Cond)
		body := d.desugarBlock(v.Body)
		return &While{Sp: v.Sp, Cond: cond, Body: body}
	case *ast.ForStmt:
		return d.desugarFor(v)
	case *ast.ReturnStmt:
		var val Expr
		if v.Value != nil {
			val = d.desugarExpr(v.Value)
		}
		return &Return{Sp: v.Sp, Value: val}
	case *ast.UnsafeStmt:
		return &UnsafeBlock{Sp: v.Sp, Body: d.desugarBlock(v.Body)}
	case *ast.BlockStmt:
		return d.desugarBlock(v)
	default:
		d.sink.Report(diagnostic.New("E0199", diagnostic.CategoryRejected).At(s.Span()).
			Msg("unsupported statement construct").
			Suggest(diagnostic.SuggestSplitDeclaration).Build())
		return &ErrorStmt{Sp: s.Span(), Code: "E0199"}
	}
}

func (d *Desugarer) desugarLet(v *ast.LetStmt) Stmt {
	ty := d.resolveType(v.Type)
	var init Expr
	if v.Init != nil {
		init = d.desugarExpr(v.Init)
	}
	id := d.arenas.NewBinding()
	if err := d.scopes.Define(v.Name, id, ty, v.Mutable); err != nil {
		d.reportRedecl(v.Sp, v.Name)
	}
	d.recordBinding(id)
	return &Let{Sp: v.Sp, ID: id, Name: v.Name, Type: ty, Init: init, Mutable: v.Mutable}
}

func (d *Desugarer) desugarIf(v *ast.IfStmt) *If {
	cond := d.desugarExpr(v.Cond)
	then := d.desugarBlock(v.Then)
	node := &If{Sp: v.Sp, Cond: cond, Then: then}
	switch e := v.Else.(type) {
	case nil:
	case *ast.BlockStmt:
		node.Else = d.desugarBlock(e)
	case *ast.IfStmt:
		node.Else = d.desugarIf(e)
	}
	return node
}

// desugarFor rewrites `for (init; cond; step) body` to
// `{ init; while (cond) { body; step; } }` (spec.md §4.1).
func (d *Desugarer) desugarFor(v *ast.ForStmt) *Block {
	outerParent := d.currentLifetime()
	outerLifetime := d.pushLifetime()
	d.scopes.Push()
	outer := &Block{Sp: v.Sp, Lifetime: outerLifetime, Parent: outerParent}
	d.blockStack = append(d.blockStack, outer)

	if v.Init != nil {
		outer.Stmts = append(outer.Stmts, d.desugarStmt(v.Init))
	}

	var cond Expr
	if v.Cond != nil {
		cond = d.desugarExpr(v.Cond)
	} else {
		cond = &BoolLiteral{exprBase: exprBase{Sp: v.Sp}, Value: true}
	}

	innerParent := d.currentLifetime()
	innerLifetime := d.pushLifetime()
	d.scopes.Push()
	inner := &Block{Sp: v.Body.Sp, Lifetime: innerLifetime, Parent: innerParent}
	d.blockStack = append(d.blockStack, inner)
	for _, s := range v.Body.Stmts {
		inner.Stmts = append(inner.Stmts, d.desugarStmt(s))
	}
	if v.Step != nil {
		inner.Stmts = append(inner.Stmts, &ExprStmt{Sp: v.Step.Span(), Expr: d.desugarExpr(v.Step)})
	}
	d.blockStack = d.blockStack[:len(d.blockStack)-1]
	d.scopes.Pop()
	d.popLifetime()

	outer.Stmts = append(outer.Stmts, &While{Sp: v.Sp, Cond: cond, Body: inner})

	d.blockStack = d.blockStack[:len(d.blockStack)-1]
	d.scopes.Pop()
	d.popLifetime()
	return outer
}

// ===== Expressions =====

func (d *Desugarer) desugarExpr(e ast.Expr) Expr {
	switch v := e.(type) {
	case *ast.IntLit:
		return &Literal{exprBase: exprBase{Sp: v.Sp}, Value: v.Value}
	case *ast.BoolLit:
		return &BoolLiteral{exprBase: exprBase{Sp: v.Sp}, Value: v.Value}
	case *ast.Ident:
		return d.desugarIdent(v)
	case *ast.UnOp:
		if v.Op == "&" {
			return &BorrowShared{exprBase: exprBase{Sp: v.Sp}, Place: d.desugarExpr(v.Operand), Borrow: d.arenas.NewBorrow()}
		}
		return &UnOp{exprBase: exprBase{Sp: v.Sp}, Op: v.Op, Operand: d.desugarExpr(v.Operand)}
	case *ast.BinOp:
		return &BinOp{exprBase: exprBase{Sp: v.Sp}, Op: v.Op, LHS: d.desugarExpr(v.LHS), RHS: d.desugarExpr(v.RHS)}
	case *ast.IndexExpr:
		return &Index{exprBase: exprBase{Sp: v.Sp}, Base: d.desugarExpr(v.Base), Idx: d.desugarExpr(v.Idx)}
	case *ast.FieldExpr:
		return &Field{exprBase: exprBase{Sp: v.Sp}, Base: d.desugarExpr(v.Base), Name: v.Name}
	case *ast.AssignExpr:
		return &Assign{exprBase: exprBase{Sp: v.Sp}, Place: d.desugarExpr(v.Place), Value: d.desugarExpr(v.Value)}
	case *ast.AllocCall:
		elem := d.resolveType(v.Elem)
		count := d.desugarExpr(v.Count)
		return &Alloc{
			exprBase: exprBase{Sp: v.Sp},
			Elem:     elem,
			Count:    count,
			Alloc:    d.arenas.NewAlloc(),
			Lifetime: d.arenas.NewLifetime(),
		}
	case *ast.CastCall:
		target := d.resolveType(v.Target)
		operand := d.desugarExpr(v.Operand)
		var token Expr
		if v.Token != nil {
			token = d.desugarExpr(v.Token)
		}
		return &Cast{exprBase: exprBase{Sp: v.Sp}, Target: target, Operand: operand, Token: token}
	case *ast.Call:
		return d.desugarCall(v)
	default:
		d.sink.Report(diagnostic.New("E0198", diagnostic.CategoryRejected).At(e.Span()).
			Msg("unsupported expression construct").
			Suggest(diagnostic.SuggestSplitDeclaration).Build())
		return &ErrorExpr{exprBase: exprBase{Sp: e.Span()}, Code: "E0198"}
	}
}

func (d *Desugarer) desugarIdent(v *ast.Ident) Expr {
	b, ok := d.scopes.Lookup(v.Name)
	if !ok {
		d.sink.Report(diagnostic.New("E0103", diagnostic.CategoryRejected).At(v.Sp).
			Msg("use of undeclared name %q", v.Name).
			Suggest(diagnostic.SuggestSplitDeclaration).Build())
		return &ErrorExpr{exprBase: exprBase{Sp: v.Sp}, Code: "E0103"}
	}
	return &Var{exprBase: exprBase{Sp: v.Sp, Ty: b.Type}, ID: b.ID, Name: v.Name}
}

// intrinsicArities pins the surface call-shaped intrinsics to their
// required argument counts (spec.md §4.1).
var intrinsicArities = map[string]int{
	"borrow": 1, "mut_borrow": 1, "release_borrow": 1, "move": 1,
	"alloc_cap": 1, "forge_cap": 1, "alias_cap": 1,
}

// capTokenKinds is the subset of intrinsicArities that desugars to a
// CapToken rather than one of the borrow/move nodes.
var capTokenKinds = map[string]bool{"alloc_cap": true, "forge_cap": true, "alias_cap": true}

func (d *Desugarer) desugarCall(v *ast.Call) Expr {
	if field, ok := v.Callee.(*ast.FieldExpr); ok && field.Name == "view" && len(v.Args) == 0 {
		return &View{exprBase: exprBase{Sp: v.Sp}, Base: d.desugarExpr(field.Base)}
	}

	if ident, ok := v.Callee.(*ast.Ident); ok {
		if arity, isIntrinsic := intrinsicArities[ident.Name]; isIntrinsic {
			if len(v.Args) != arity {
				d.sink.Report(diagnostic.New("E0104", diagnostic.CategoryRejected).At(v.Sp).
					Msg("intrinsic %q expects %d argument(s), found %d", ident.Name, arity, len(v.Args)).
					Suggest(diagnostic.SuggestSplitDeclaration).Build())
				return &ErrorExpr{exprBase: exprBase{Sp: v.Sp}, Code: "E0104"}
			}
			if capTokenKinds[ident.Name] {
				return &CapToken{exprBase: exprBase{Sp: v.Sp}, Kind: ident.Name, Arg: d.desugarExpr(v.Args[0])}
			}
			place := d.desugarExpr(v.Args[0])
			switch ident.Name {
			case "borrow":
				return &BorrowShared{exprBase: exprBase{Sp: v.Sp}, Place: place, Borrow: d.arenas.NewBorrow()}
			case "mut_borrow":
				return &BorrowMut{exprBase: exprBase{Sp: v.Sp}, Place: place, Borrow: d.arenas.NewBorrow()}
			case "release_borrow":
				return &ReleaseBorrow{exprBase: exprBase{Sp: v.Sp}, Operand: place, Borrow: ids.NoBorrow}
			case "move":
				return &Move{exprBase: exprBase{Sp: v.Sp}, Place: place}
			}
		}
		var args []Expr
		for _, a := range v.Args {
			args = append(args, d.desugarExpr(a))
		}
		return &Call{exprBase: exprBase{Sp: v.Sp}, Callee: ident.Name, Args: args}
	}

	d.sink.Report(diagnostic.New("E0105", diagnostic.CategoryRejected).At(v.Sp).
		Msg("unsupported call target %s", fmt.Sprintf("%T", v.Callee)).
		Suggest(diagnostic.SuggestSplitDeclaration).Build())
	return &ErrorExpr{exprBase: exprBase{Sp: v.Sp}, Code: "E0105"}
}
