package core

import (
	"testing"

	"github.com/geeknik/aegis-c-compiler/internal/diagnostic"
	"github.com/geeknik/aegis-c-compiler/internal/ids"
	"github.com/geeknik/aegis-c-compiler/internal/lexer"
	"github.com/geeknik/aegis-c-compiler/internal/parser"
	"github.com/geeknik/aegis-c-compiler/internal/position"
)

func desugarSource(t *testing.T, src string) (*Program, *diagnostic.Sink) {
	t.Helper()
	l := lexer.New(position.NewFile("t.agc", src))
	prog, err := parser.Parse(l)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	sink := diagnostic.NewSink()
	arenas := ids.New()
	return Desugar(prog, arenas, sink), sink
}

func TestForDesugarsToBlockWhile(t *testing.T) {
	core, sink := desugarSource(t, `
		fn f(): void {
			for (let i: u32 = 0; i < 10; i = i + 1) {
				let x: u32 = i;
			}
		}
	`)
	if sink.HasDiagnostics() {
		t.Fatalf("unexpected diagnostics: %s", sink.Format())
	}
	fn := core.Decls[0].(*FuncDecl)
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected 1 stmt in function body, got %d", len(fn.Body.Stmts))
	}
	outer, ok := fn.Body.Stmts[0].(*Block)
	if !ok {
		t.Fatalf("expected outer *Block from for-desugar, got %T", fn.Body.Stmts[0])
	}
	if len(outer.Stmts) != 2 {
		t.Fatalf("expected [init, while] in outer block, got %d stmts", len(outer.Stmts))
	}
	if _, ok := outer.Stmts[0].(*Let); !ok {
		t.Fatalf("expected Let as first stmt, got %T", outer.Stmts[0])
	}
	while, ok := outer.Stmts[1].(*While)
	if !ok {
		t.Fatalf("expected While as second stmt, got %T", outer.Stmts[1])
	}
	if len(while.Body.Stmts) != 2 {
		t.Fatalf("expected [body, step] in while body, got %d", len(while.Body.Stmts))
	}
	if _, ok := while.Body.Stmts[1].(*ExprStmt); !ok {
		t.Fatalf("expected step as trailing ExprStmt, got %T", while.Body.Stmts[1])
	}
}

func TestAllocProducesOwnSlice(t *testing.T) {
	core, sink := desugarSource(t, `
		fn f(): void {
			let buf: own<[u8]> = alloc(u8, 16);
		}
	`)
	if sink.HasDiagnostics() {
		t.Fatalf("unexpected diagnostics: %s", sink.Format())
	}
	fn := core.Decls[0].(*FuncDecl)
	letStmt := fn.Body.Stmts[0].(*Let)
	alloc, ok := letStmt.Init.(*Alloc)
	if !ok {
		t.Fatalf("expected *Alloc initializer, got %T", letStmt.Init)
	}
	if alloc.Alloc == ids.StaticAlloc {
		t.Fatal("expected a fresh, non-static allocation id")
	}
	if alloc.Lifetime == ids.StaticLifetime {
		t.Fatal("expected a fresh, non-static lifetime id")
	}
}

func TestIntrinsicsElaborateToExplicitNodes(t *testing.T) {
	core, sink := desugarSource(t, `
		fn f(): void {
			let a: own<[u8]> = alloc(u8, 4);
			let p: mut u8* = mut_borrow(a);
			release_borrow(p);
			let b: own<[u8]> = move(a);
		}
	`)
	if sink.HasDiagnostics() {
		t.Fatalf("unexpected diagnostics: %s", sink.Format())
	}
	fn := core.Decls[0].(*FuncDecl)
	if _, ok := fn.Body.Stmts[1].(*Let).Init.(*BorrowMut); !ok {
		t.Fatalf("expected *BorrowMut, got %T", fn.Body.Stmts[1].(*Let).Init)
	}
	releaseStmt := fn.Body.Stmts[2].(*ExprStmt)
	if _, ok := releaseStmt.Expr.(*ReleaseBorrow); !ok {
		t.Fatalf("expected *ReleaseBorrow, got %T", releaseStmt.Expr)
	}
	if _, ok := fn.Body.Stmts[3].(*Let).Init.(*Move); !ok {
		t.Fatalf("expected *Move, got %T", fn.Body.Stmts[3].(*Let).Init)
	}
}

func TestViewMethodSugarElaboratesToViewNode(t *testing.T) {
	core, sink := desugarSource(t, `
		fn f(): void {
			let buf: own<[u8]> = alloc(u8, 4);
			let v: view<u8> = buf.view();
		}
	`)
	if sink.HasDiagnostics() {
		t.Fatalf("unexpected diagnostics: %s", sink.Format())
	}
	fn := core.Decls[0].(*FuncDecl)
	view, ok := fn.Body.Stmts[1].(*Let).Init.(*View)
	if !ok {
		t.Fatalf("expected *View, got %T", fn.Body.Stmts[1].(*Let).Init)
	}
	if _, ok := view.Base.(*Var); !ok {
		t.Fatalf("expected view base to be a Var, got %T", view.Base)
	}
}

func TestUndeclaredNameReportsDiagnostic(t *testing.T) {
	_, sink := desugarSource(t, `
		fn f(): void {
			let x: u32 = y;
		}
	`)
	if !sink.HasDiagnostics() {
		t.Fatal("expected a diagnostic for the undeclared name")
	}
}

func TestFloatingPointTypeRejected(t *testing.T) {
	_, sink := desugarSource(t, `
		fn f(): void {
			let x: f32 = 0;
		}
	`)
	if sink.Count() != 1 || sink.All()[0].Code != "E0100" {
		t.Fatalf("expected exactly one E0100 diagnostic, got %s", sink.Format())
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	src := `
		fn f(): void {
			let a: own<[u8]> = alloc(u8, 4);
			let p: u8* = borrow(a);
		}
	`
	_, sink1 := desugarSource(t, src)
	_, sink2 := desugarSource(t, src)
	if sink1.Format() != sink2.Format() {
		t.Fatal("expected identical diagnostics across runs on identical input")
	}
}
