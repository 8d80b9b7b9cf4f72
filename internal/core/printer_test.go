package core

import (
	"strings"
	"testing"
)

func TestProgramStringIsDeterministic(t *testing.T) {
	src := `
		fn f(): void {
			let buf: own<[u8]> = alloc(u8, 4);
			let v: view<u8> = buf.view();
		}
	`
	p1, sink1 := desugarSource(t, src)
	if sink1.HasDiagnostics() {
		t.Fatalf("unexpected diagnostics: %s", sink1.Format())
	}
	p2, _ := desugarSource(t, src)
	if p1.String() != p2.String() {
		t.Fatal("expected identical Core text across runs on identical input")
	}
}

func TestProgramStringContainsAllocAndView(t *testing.T) {
	src := `
		fn f(): void {
			let buf: own<[u8]> = alloc(u8, 4);
			let v: view<u8> = buf.view();
		}
	`
	p, sink := desugarSource(t, src)
	if sink.HasDiagnostics() {
		t.Fatalf("unexpected diagnostics: %s", sink.Format())
	}
	text := p.String()
	if !strings.Contains(text, "alloc#") {
		t.Fatalf("expected an alloc# identifier, got:\n%s", text)
	}
	if !strings.Contains(text, ".view()") {
		t.Fatalf("expected .view() sugar rendering, got:\n%s", text)
	}
}
