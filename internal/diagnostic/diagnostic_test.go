package diagnostic

import (
	"testing"

	"github.com/geeknik/aegis-c-compiler/internal/position"
)

func span(offset int) position.Span {
	p := position.Position{Filename: "t.agc", Line: 1, Column: offset + 1, Offset: offset}
	return position.Span{Start: p, End: position.Position{Filename: "t.agc", Line: 1, Column: offset + 2, Offset: offset + 1}}
}

func TestSinkGatesOnDiagnostics(t *testing.T) {
	s := NewSink()
	if s.HasDiagnostics() {
		t.Fatal("fresh sink must report no diagnostics")
	}
	s.Report(New("E1001", CategoryOwnership).At(span(5)).Msg("use of moved value %q", "a").
		Because(span(1), "moved here").
		Suggest(SuggestIntroduceMove).
		Build())
	if !s.HasDiagnostics() {
		t.Fatal("sink must report diagnostics after Report")
	}
	if s.Count() != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", s.Count())
	}
}

func TestAllIsSpanSortedDeterministically(t *testing.T) {
	s := NewSink()
	s.Report(New("E4001", CategoryBounds).At(span(20)).Msg("late").Build())
	s.Report(New("E1001", CategoryOwnership).At(span(5)).Msg("early").Build())

	got := s.All()
	if len(got) != 2 || got[0].Message != "early" || got[1].Message != "late" {
		t.Fatalf("expected span-sorted diagnostics, got %+v", got)
	}

	// Running All twice must produce byte-identical output (determinism).
	if s.Format() != s.Format() {
		t.Fatal("Format must be deterministic across calls")
	}
}

func TestDiagnosticCarriesExactlyOneSuggestion(t *testing.T) {
	d := New("E2107", CategoryBorrow).At(span(0)).Msg("conflicting borrow").
		Suggest(SuggestNarrowBorrowScope).Build()
	if d.Suggestion != SuggestNarrowBorrowScope {
		t.Fatalf("expected suggestion to stick, got %q", d.Suggestion)
	}
}
