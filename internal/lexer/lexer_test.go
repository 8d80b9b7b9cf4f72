package lexer

import (
	"testing"

	"github.com/geeknik/aegis-c-compiler/internal/position"
)

func scanAll(src string) []Token {
	l := New(position.NewFile("t.agc", src))
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks
		}
	}
}

func TestKeywordsAndIdents(t *testing.T) {
	toks := scanAll("fn own view mut raw foo_bar")
	want := []TokenType{TokenFn, TokenOwn, TokenView, TokenMut, TokenRaw, TokenIdent, TokenEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestOperators(t *testing.T) {
	toks := scanAll("<= >= == != << >> && ||")
	want := []TokenType{TokenLe, TokenGe, TokenEq, TokenNe, TokenShl, TokenShr, TokenAndAnd, TokenOrOr, TokenEOF}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestSkipsComments(t *testing.T) {
	toks := scanAll("// line comment\nlet /* block */ x")
	want := []TokenType{TokenLet, TokenIdent, TokenEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
}

func TestIntLiteral(t *testing.T) {
	toks := scanAll("42")
	if toks[0].Type != TokenInt || toks[0].Literal != "42" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestSpansTrackLineAndColumn(t *testing.T) {
	toks := scanAll("let\nx")
	if toks[0].Span.Start.Line != 1 {
		t.Fatalf("expected let on line 1, got %d", toks[0].Span.Start.Line)
	}
	if toks[1].Span.Start.Line != 2 {
		t.Fatalf("expected x on line 2, got %d", toks[1].Span.Start.Line)
	}
}
