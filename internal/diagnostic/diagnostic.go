// Package diagnostic implements the AegisCC diagnostic sink: an ordered
// collection of diagnostic records accumulated across compiler phases,
// each carrying a stable identifier, a primary span, zero or more related
// spans, and exactly one suggestion (spec.md §4.2, §6).
package diagnostic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/geeknik/aegis-c-compiler/internal/position"
)

// Category groups diagnostic identifiers into the six safety taxonomies
// of spec.md §7, plus a reserved category for internal-compiler errors
// (never surfaced as an E?xxx code).
type Category int

const (
	CategoryOwnership Category = iota // E1xxx
	CategoryBorrow                    // E2xxx
	CategoryLifetime                  // E3xxx
	CategoryBounds                    // E4xxx
	CategoryInit                      // E5xxx
	CategoryUnsafe                    // E6xxx
	CategoryRejected                  // E0xxx — parser-rejected-in-v0 constructs
	CategoryInternal                  // internal compiler error, never E?xxx
)

func (c Category) String() string {
	switch c {
	case CategoryOwnership:
		return "ownership"
	case CategoryBorrow:
		return "borrow"
	case CategoryLifetime:
		return "lifetime"
	case CategoryBounds:
		return "bounds"
	case CategoryInit:
		return "init"
	case CategoryUnsafe:
		return "unsafe"
	case CategoryRejected:
		return "rejected"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Suggestion is one of the fixed set of actionable fixes spec.md §4.2
// allows a diagnostic to recommend. Exactly one is attached per
// diagnostic.
type Suggestion string

const (
	SuggestConvertToView     Suggestion = "convert to view<T>"
	SuggestNarrowBorrowScope Suggestion = "narrow the scope of this borrow"
	SuggestIntroduceMove     Suggestion = "introduce an explicit move"
	SuggestRewriteAsSlice    Suggestion = "rewrite this pointer walk as an indexed slice"
	SuggestWrapInUnsafe      Suggestion = "wrap this operation in an unsafe block"
	SuggestInitializeBinding Suggestion = "initialize the binding before this read"
	SuggestSplitDeclaration  Suggestion = "split the declaration into supported constructs"
)

// Related is one related (span, message) pair attached to a diagnostic,
// e.g. "borrow created here" or "owner dropped here".
type Related struct {
	Span    position.Span
	Message string
}

// Diagnostic is a single reported problem, per spec.md §6.
type Diagnostic struct {
	Code       string // stable identifier, e.g. "E2107"
	Category   Category
	Message    string
	Span       position.Span
	Related    []Related
	Suggestion Suggestion
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: [%s] %s\n", d.Span, d.Code, d.Message)
	for _, r := range d.Related {
		fmt.Fprintf(&b, "  related: %s: %s\n", r.Span, r.Message)
	}
	if d.Suggestion != "" {
		fmt.Fprintf(&b, "  suggestion: %s\n", d.Suggestion)
	}
	return b.String()
}

// Builder assembles a Diagnostic with a fluent API, mirroring how the
// checker accumulates related spans incrementally as it walks a tree.
type Builder struct {
	d Diagnostic
}

// New starts a new diagnostic with the given stable code and category.
func New(code string, category Category) *Builder {
	return &Builder{d: Diagnostic{Code: code, Category: category}}
}

// At sets the primary span.
func (b *Builder) At(span position.Span) *Builder {
	b.d.Span = span
	return b
}

// Msg sets the primary message.
func (b *Builder) Msg(format string, args ...interface{}) *Builder {
	b.d.Message = fmt.Sprintf(format, args...)
	return b
}

// Because adds one related (span, message) pair.
func (b *Builder) Because(span position.Span, format string, args ...interface{}) *Builder {
	b.d.Related = append(b.d.Related, Related{Span: span, Message: fmt.Sprintf(format, args...)})
	return b
}

// Suggest sets the diagnostic's single suggestion.
func (b *Builder) Suggest(s Suggestion) *Builder {
	b.d.Suggestion = s
	return b
}

// Build finalizes the diagnostic.
func (b *Builder) Build() Diagnostic {
	return b.d
}

// Report finalizes the diagnostic and records it into sink in one step,
// letting call sites stay a single fluent chain.
func (b *Builder) Report(sink *Sink) {
	sink.Report(b.Build())
}

// ICE is an internal-compiler-error condition: a checker assertion that
// failed. It is distinct from user diagnostics and never carries an
// E?xxx code (spec.md §7).
type ICE struct {
	Where   string
	Message string
}

func (e *ICE) Error() string {
	return fmt.Sprintf("internal compiler error in %s: %s", e.Where, e.Message)
}

// Sink accumulates diagnostics across phases. Phases never fail fatally
// on a user error; they record a Diagnostic and keep going (spec.md §5,
// §7). An *ICE is never recorded in a Sink.
type Sink struct {
	diagnostics []Diagnostic
}

// NewSink returns an empty diagnostic sink.
func NewSink() *Sink {
	return &Sink{}
}

// Report records one diagnostic.
func (s *Sink) Report(d Diagnostic) {
	s.diagnostics = append(s.diagnostics, d)
}

// HasDiagnostics reports whether anything was recorded. Per spec.md §5,
// this is the gate that prevents a later phase from emitting its
// artifact.
func (s *Sink) HasDiagnostics() bool {
	return len(s.diagnostics) > 0
}

// Count returns the number of recorded diagnostics.
func (s *Sink) Count() int {
	return len(s.diagnostics)
}

// All returns the recorded diagnostics in deterministic (span-sorted)
// order, satisfying the spec.md §8 determinism property.
func (s *Sink) All() []Diagnostic {
	out := make([]Diagnostic, len(s.diagnostics))
	copy(out, s.diagnostics)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Span.Start.Offset != b.Span.Start.Offset {
			return a.Span.Start.Offset < b.Span.Start.Offset
		}
		return a.Code < b.Code
	})
	return out
}

// Format renders all diagnostics as the stable CLI text format.
func (s *Sink) Format() string {
	var b strings.Builder
	for _, d := range s.All() {
		b.WriteString(d.String())
	}
	return b.String()
}
