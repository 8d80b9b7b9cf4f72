package ast

import (
	"testing"

	"github.com/geeknik/aegis-c-compiler/internal/position"
)

func sp() position.Span { return position.Span{} }

func TestFuncDeclString(t *testing.T) {
	decl := &FuncDecl{
		Name: "main",
		Params: []*Param{
			{Name: "n", Type: &NamedType{Name: "u32"}},
		},
		ReturnType: &NamedType{Name: "u32"},
		Body:       &BlockStmt{Stmts: []Stmt{&ReturnStmt{Value: &Ident{Name: "n"}}}},
	}
	got := decl.String()
	want := "u32 f(main) n: u32 { return n; }"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestTypeExprStrings(t *testing.T) {
	cases := []struct {
		t    TypeExpr
		want string
	}{
		{&OwnType{Elem: &NamedType{Name: "u8"}, IsSlice: true}, "own<[u8]>"},
		{&ViewType{Elem: &NamedType{Name: "u8"}}, "view<u8>"},
		{&PointerType{Elem: &NamedType{Name: "u8"}, Mut: true}, "mut u8*"},
		{&PointerType{Elem: &NamedType{Name: "u8"}, Raw: true}, "raw u8*"},
		{&PointerType{Elem: &NamedType{Name: "u8"}}, "u8*"},
	}
	for _, c := range cases {
		if got := c.t.String(); got != c.want {
			t.Errorf("got %q, want %q", got, c.want)
		}
	}
}

func TestForStmtHoldsCanonicalParts(t *testing.T) {
	f := &ForStmt{
		Init: &LetStmt{Name: "i", Type: &NamedType{Name: "u32"}, Init: &IntLit{Value: 0}},
		Cond: &BinOp{Op: "<", LHS: &Ident{Name: "i"}, RHS: &IntLit{Value: 10}},
		Step: &AssignExpr{Place: &Ident{Name: "i"}, Value: &BinOp{Op: "+", LHS: &Ident{Name: "i"}, RHS: &IntLit{Value: 1}}},
		Body: &BlockStmt{},
	}
	if f.Init == nil || f.Cond == nil || f.Step == nil {
		t.Fatal("expected all three for-clauses to be populated")
	}
}

func TestAllocCallIsDistinctFromCall(t *testing.T) {
	var e Expr = &AllocCall{Elem: &NamedType{Name: "u8"}, Count: &IntLit{Value: 4}}
	if _, ok := e.(*Call); ok {
		t.Fatal("AllocCall must not be a Call, since its first argument is a type")
	}
	if got, want := e.String(), "alloc(u8, 4)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
