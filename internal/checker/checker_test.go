package checker

import (
	"testing"

	"github.com/geeknik/aegis-c-compiler/internal/core"
	"github.com/geeknik/aegis-c-compiler/internal/diagnostic"
	"github.com/geeknik/aegis-c-compiler/internal/ids"
	"github.com/geeknik/aegis-c-compiler/internal/lexer"
	"github.com/geeknik/aegis-c-compiler/internal/parser"
	"github.com/geeknik/aegis-c-compiler/internal/position"
)

func checkSource(t *testing.T, src string) *diagnostic.Sink {
	t.Helper()
	l := lexer.New(position.NewFile("t.agc", src))
	prog, err := parser.Parse(l)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	arenas := ids.New()
	desugarSink := diagnostic.NewSink()
	coreProg := core.Desugar(prog, arenas, desugarSink)
	if desugarSink.HasDiagnostics() {
		t.Fatalf("unexpected desugar diagnostics: %s", desugarSink.Format())
	}
	result := Check(coreProg, arenas)
	return result.Sink
}

// Scenario 1: accept zero-fill.
func TestAcceptZeroFill(t *testing.T) {
	sink := checkSource(t, `
		fn f(): void {
			let buf: own<[u8]> = alloc(u8, 16);
			let v: view<u8> = buf.view();
			for (let mut i: usize = 0; i < v.len; i = i + 1) {
				v[i] = 0;
			}
		}
	`)
	if sink.HasDiagnostics() {
		t.Fatalf("expected 0 diagnostics, got: %s", sink.Format())
	}
}

// Scenario 2: reject use-after-move.
func TestRejectUseAfterMove(t *testing.T) {
	sink := checkSource(t, `
		fn f(): void {
			let a: own<[u8]> = alloc(u8, 4);
			let b: own<[u8]> = move(a);
			let v: view<u8> = a.view();
		}
	`)
	if sink.Count() != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got: %s", sink.Format())
	}
	if sink.All()[0].Category != diagnostic.CategoryOwnership {
		t.Fatalf("expected an ownership diagnostic, got %s", sink.All()[0].Code)
	}
}

// Scenario 3: reject aliased mutable borrow.
func TestRejectAliasedMutableBorrow(t *testing.T) {
	sink := checkSource(t, `
		fn f(): void {
			let mut a: own<[u8]> = alloc(u8, 4);
			let p: mut u8* = mut_borrow(a);
			let q: mut u8* = mut_borrow(a);
		}
	`)
	if sink.Count() != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got: %s", sink.Format())
	}
	if sink.All()[0].Category != diagnostic.CategoryBorrow {
		t.Fatalf("expected a borrow diagnostic, got %s", sink.All()[0].Code)
	}
}

// Scenario 4: reject out-of-bounds constant index.
func TestRejectOutOfBoundsConstantIndex(t *testing.T) {
	sink := checkSource(t, `
		fn f(): void {
			let a: own<[u8]> = alloc(u8, 2);
			let v: view<u8> = a.view();
			let x: u8 = v[5];
		}
	`)
	if sink.Count() != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got: %s", sink.Format())
	}
	if sink.All()[0].Category != diagnostic.CategoryBounds {
		t.Fatalf("expected a bounds diagnostic, got %s", sink.All()[0].Code)
	}
}

// Scenario 5: reject uninitialized read.
func TestRejectUninitializedRead(t *testing.T) {
	sink := checkSource(t, `
		fn f(): void {
			let x: u32;
			let y: u32 = x + 1;
		}
	`)
	if sink.Count() != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got: %s", sink.Format())
	}
	if sink.All()[0].Category != diagnostic.CategoryInit {
		t.Fatalf("expected an init diagnostic, got %s", sink.All()[0].Code)
	}
}

// Scenario 6: accept scoped borrow then mutate.
func TestAcceptScopedBorrowThenMutate(t *testing.T) {
	sink := checkSource(t, `
		fn f(): void {
			let mut a: own<[u8]> = alloc(u8, 4);
			{
				let p: u8* = borrow(a);
			}
			let q: mut u8* = mut_borrow(a);
		}
	`)
	if sink.HasDiagnostics() {
		t.Fatalf("expected 0 diagnostics, got: %s", sink.Format())
	}
}

func TestDeterministicDiagnosticsAcrossRuns(t *testing.T) {
	src := `
		fn f(): void {
			let mut a: own<[u8]> = alloc(u8, 4);
			let p: mut u8* = mut_borrow(a);
			let q: mut u8* = mut_borrow(a);
		}
	`
	sink1 := checkSource(t, src)
	sink2 := checkSource(t, src)
	if sink1.Format() != sink2.Format() {
		t.Fatal("expected identical diagnostics across runs on identical input")
	}
}

func TestBorrowLedgerExclusivity(t *testing.T) {
	sink := checkSource(t, `
		fn f(): void {
			let a: own<[u8]> = alloc(u8, 4);
			let p: u8* = borrow(a);
			let r: u8* = borrow(a);
		}
	`)
	if sink.HasDiagnostics() {
		t.Fatalf("multiple shared borrows must coexist, got: %s", sink.Format())
	}
}
