package ir

import (
	"strings"
	"testing"

	"github.com/geeknik/aegis-c-compiler/internal/checker"
	"github.com/geeknik/aegis-c-compiler/internal/core"
	"github.com/geeknik/aegis-c-compiler/internal/diagnostic"
	"github.com/geeknik/aegis-c-compiler/internal/ids"
	"github.com/geeknik/aegis-c-compiler/internal/lexer"
	"github.com/geeknik/aegis-c-compiler/internal/parser"
	"github.com/geeknik/aegis-c-compiler/internal/position"
)

func lowerSource(t *testing.T, src string) *Module {
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
	result := checker.Check(coreProg, arenas)
	if result.Sink.HasDiagnostics() {
		t.Fatalf("unexpected checker diagnostics: %s", result.Sink.Format())
	}
	return NewLowerer(result).Lower(coreProg)
}

func TestLowerAllocEmitsAllocAndDrop(t *testing.T) {
	mod := lowerSource(t, `
		fn f(): void {
			let buf: own<[u8]> = alloc(u8, 16);
		}
	`)
	fn := mod.Functions[0]
	text := fn.String()
	if !strings.Contains(text, "= alloc alloc") {
		t.Fatalf("expected an alloc instruction, got:\n%s", text)
	}
	if !strings.Contains(text, "drop alloc") {
		t.Fatalf("expected a drop instruction at scope exit, got:\n%s", text)
	}
}

func TestLowerMovedBindingSkipsDrop(t *testing.T) {
	mod := lowerSource(t, `
		fn f(): void {
			let a: own<[u8]> = alloc(u8, 4);
			let b: own<[u8]> = move(a);
		}
	`)
	fn := mod.Functions[0]
	text := fn.String()
	if strings.Count(text, "drop alloc") != 1 {
		t.Fatalf("expected exactly one drop (for b, not the moved-from a), got:\n%s", text)
	}
}

func TestLowerIfProducesThenElseContBlocks(t *testing.T) {
	mod := lowerSource(t, `
		fn f(): void {
			let mut x: u32 = 0;
			if (x == 0) {
				x = 1;
			} else {
				x = 2;
			}
		}
	`)
	fn := mod.Functions[0]
	var names []string
	for _, bb := range fn.Blocks {
		names = append(names, bb.Name)
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"if_then", "if_else", "if_cont"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected block %q among %v", want, names)
		}
	}
}

func TestLowerIfMergesReassignedVariableWithPhi(t *testing.T) {
	mod := lowerSource(t, `
		fn f(): u32 {
			let mut x: u32 = 0;
			if (x == 0) {
				x = 1;
			} else {
				x = 2;
			}
			return x;
		}
	`)
	fn := mod.Functions[0]
	text := fn.String()
	if !strings.Contains(text, "= phi") {
		t.Fatalf("expected a phi instruction merging x across if/else, got:\n%s", text)
	}

	var contBlock *BasicBlock
	for _, bb := range fn.Blocks {
		if strings.HasPrefix(bb.Name, "if_cont") {
			contBlock = bb
		}
	}
	if contBlock == nil {
		t.Fatal("expected an if_cont block")
	}
	var phiDst, retVal string
	for _, in := range contBlock.Instr {
		switch v := in.(type) {
		case Phi:
			phiDst = v.Dst
			if len(v.Incoming) != 2 {
				t.Fatalf("expected 2 incoming edges into the phi, got %d: %v", len(v.Incoming), v.Incoming)
			}
		case Ret:
			if v.Val != nil {
				retVal = v.Val.Ref
			}
		}
	}
	if phiDst == "" {
		t.Fatal("expected a phi instruction in the cont block")
	}
	if retVal != phiDst {
		t.Fatalf("expected return to use the merged phi value %q, got %q", phiDst, retVal)
	}
}

func TestLowerWhileHeaderPhiGetsBackEdgeFromBody(t *testing.T) {
	mod := lowerSource(t, `
		fn f(): void {
			let mut i: u32 = 0;
			while (i < 10) {
				i = i + 1;
			}
		}
	`)
	fn := mod.Functions[0]
	var header *BasicBlock
	for _, bb := range fn.Blocks {
		if strings.HasPrefix(bb.Name, "while_header") {
			header = bb
		}
	}
	if header == nil {
		t.Fatal("expected a while_header block")
	}
	var found bool
	for _, in := range header.Instr {
		if p, ok := in.(Phi); ok {
			found = true
			if len(p.Incoming) != 2 {
				t.Fatalf("expected the header phi to have a preheader edge and a back edge, got %d: %v", len(p.Incoming), p.Incoming)
			}
		}
	}
	if !found {
		t.Fatal("expected a phi instruction in the while header merging the preheader and back-edge values of i")
	}
}

func TestLowerWhileProducesHeaderBodyExitBlocks(t *testing.T) {
	mod := lowerSource(t, `
		fn f(): void {
			let mut i: u32 = 0;
			while (i < 10) {
				i = i + 1;
			}
		}
	`)
	fn := mod.Functions[0]
	var names []string
	for _, bb := range fn.Blocks {
		names = append(names, bb.Name)
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"while_header", "while_body", "while_exit"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected block %q among %v", want, names)
		}
	}
}

func TestLowerIndexEmitsGepAndBoundsNarrow(t *testing.T) {
	mod := lowerSource(t, `
		fn f(): void {
			let buf: own<[u8]> = alloc(u8, 4);
			let v: view<u8> = buf.view();
			let x: u8 = v[0];
		}
	`)
	text := mod.Functions[0].String()
	if !strings.Contains(text, "= gep ") {
		t.Fatalf("expected a gep instruction, got:\n%s", text)
	}
	if !strings.Contains(text, "= bounds_narrow ") {
		t.Fatalf("expected a bounds_narrow instruction, got:\n%s", text)
	}
}

func TestModuleStringIsDeterministicAcrossRuns(t *testing.T) {
	src := `
		fn f(): void {
			let buf: own<[u8]> = alloc(u8, 8);
			let v: view<u8> = buf.view();
			for (let mut i: usize = 0; i < v.len; i = i + 1) {
				v[i] = 0;
			}
		}
	`
	m1 := lowerSource(t, src)
	m2 := lowerSource(t, src)
	if m1.String() != m2.String() {
		t.Fatal("expected identical IR text across runs on identical input")
	}
}

func TestCapabilityKindString(t *testing.T) {
	if CapShared.String() != "shared" || CapUnique.String() != "unique" || CapNone.String() != "none" {
		t.Fatal("unexpected CapabilityKind String() rendering")
	}
}
