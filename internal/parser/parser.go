// Package parser implements a recursive-descent parser turning a
// internal/lexer token stream into an internal/ast.Program. Producing
// the parse tree is an external-collaborator concern per spec.md §1, so
// this parser stays deliberately small: one grammar rule per method, no
// backtracking, and at most one token of lookahead past the current one
// (used to tell `alloc(`/`cast(` apart from plain identifiers).
package parser

import (
	"fmt"

	"github.com/geeknik/aegis-c-compiler/internal/ast"
	"github.com/geeknik/aegis-c-compiler/internal/lexer"
	"github.com/geeknik/aegis-c-compiler/internal/position"
)

// SyntaxError is returned when the token stream does not match the
// grammar. It is reported as an E0xxx diagnostic by the caller, not by
// this package (spec.md §7 keeps diagnostic categories out of parsing).
type SyntaxError struct {
	Span    position.Span
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

// Parser consumes a token stream and builds an ast.Program.
type Parser struct {
	l    *lexer.Lexer
	tok  lexer.Token
	next lexer.Token
}

// New constructs a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.tok = l.Next()
	p.next = l.Next()
	return p
}

func (p *Parser) advance() {
	p.tok = p.next
	p.next = p.l.Next()
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if p.tok.Type != tt {
		return lexer.Token{}, &SyntaxError{
			Span:    p.tok.Span,
			Message: fmt.Sprintf("expected %s, found %s %q", tt, p.tok.Type, p.tok.Literal),
		}
	}
	tok := p.tok
	p.advance()
	return tok, nil
}

// Parse parses one complete translation unit.
func Parse(l *lexer.Lexer) (*ast.Program, error) {
	p := New(l)
	return p.parseProgram()
}

func (p *Parser) parseProgram() (*ast.Program, error) {
	start := p.tok.Span
	prog := &ast.Program{}
	for p.tok.Type != lexer.TokenEOF {
		decl, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		prog.Decls = append(prog.Decls, decl)
	}
	prog.Sp = start.Union(p.tok.Span)
	return prog, nil
}

func (p *Parser) parseDecl() (ast.Decl, error) {
	switch p.tok.Type {
	case lexer.TokenFn:
		return p.parseFuncDecl()
	case lexer.TokenStruct:
		return p.parseStructDecl()
	case lexer.TokenEnum:
		return p.parseEnumDecl()
	default:
		return nil, &SyntaxError{Span: p.tok.Span, Message: fmt.Sprintf("expected declaration, found %s %q", p.tok.Type, p.tok.Literal)}
	}
}

func (p *Parser) parseFuncDecl() (*ast.FuncDecl, error) {
	start := p.tok.Span
	if _, err := p.expect(lexer.TokenFn); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return nil, err
	}
	var params []*ast.Param
	for p.tok.Type != lexer.TokenRParen {
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if p.tok.Type == lexer.TokenComma {
			p.advance()
		} else {
			break
		}
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}
	var ret ast.TypeExpr
	if p.tok.Type == lexer.TokenColon {
		p.advance()
		ret, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDecl{Sp: start.Union(body.Sp), Name: name.Literal, Params: params, ReturnType: ret, Body: body}, nil
}

func (p *Parser) parseParam() (*ast.Param, error) {
	start := p.tok.Span
	mut := false
	if p.tok.Type == lexer.TokenMut {
		mut = true
		p.advance()
	}
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenColon); err != nil {
		return nil, err
	}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return &ast.Param{Sp: start.Union(ty.Span()), Name: name.Literal, Type: ty, Mutable: mut}, nil
}

func (p *Parser) parseStructDecl() (*ast.StructDecl, error) {
	start := p.tok.Span
	p.advance()
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenLBrace); err != nil {
		return nil, err
	}
	var fields []*ast.Field
	for p.tok.Type != lexer.TokenRBrace {
		fstart := p.tok.Span
		fname, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenColon); err != nil {
			return nil, err
		}
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenSemicolon); err != nil {
			return nil, err
		}
		fields = append(fields, &ast.Field{Sp: fstart.Union(ty.Span()), Name: fname.Literal, Type: ty})
	}
	end, err := p.expect(lexer.TokenRBrace)
	if err != nil {
		return nil, err
	}
	return &ast.StructDecl{Sp: start.Union(end.Span), Name: name.Literal, Fields: fields}, nil
}

func (p *Parser) parseEnumDecl() (*ast.EnumDecl, error) {
	start := p.tok.Span
	p.advance()
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenLBrace); err != nil {
		return nil, err
	}
	var variants []*ast.Field
	for p.tok.Type != lexer.TokenRBrace {
		vstart := p.tok.Span
		vname, err := p.expect(lexer.TokenIdent)
		if err != nil {
			return nil, err
		}
		var ty ast.TypeExpr
		if p.tok.Type == lexer.TokenColon {
			p.advance()
			ty, err = p.parseType()
			if err != nil {
				return nil, err
			}
		}
		variants = append(variants, &ast.Field{Sp: vstart.Union(p.tok.Span), Name: vname.Literal, Type: ty})
		if p.tok.Type == lexer.TokenComma {
			p.advance()
		} else {
			break
		}
	}
	end, err := p.expect(lexer.TokenRBrace)
	if err != nil {
		return nil, err
	}
	return &ast.EnumDecl{Sp: start.Union(end.Span), Name: name.Literal, Variants: variants}, nil
}

// ===== Types =====

func (p *Parser) parseType() (ast.TypeExpr, error) {
	start := p.tok.Span
	switch p.tok.Type {
	case lexer.TokenMut:
		p.advance()
		inner, err := p.parseTypeCore()
		if err != nil {
			return nil, err
		}
		end, err := p.expect(lexer.TokenStar)
		if err != nil {
			return nil, err
		}
		return &ast.PointerType{Sp: start.Union(end.Span), Elem: inner, Mut: true}, nil
	case lexer.TokenRaw:
		p.advance()
		inner, err := p.parseTypeCore()
		if err != nil {
			return nil, err
		}
		end, err := p.expect(lexer.TokenStar)
		if err != nil {
			return nil, err
		}
		return &ast.PointerType{Sp: start.Union(end.Span), Elem: inner, Raw: true}, nil
	default:
		t, err := p.parseTypeCore()
		if err != nil {
			return nil, err
		}
		if p.tok.Type == lexer.TokenStar {
			end := p.tok.Span
			p.advance()
			return &ast.PointerType{Sp: t.Span().Union(end), Elem: t}, nil
		}
		return t, nil
	}
}

func (p *Parser) parseTypeCore() (ast.TypeExpr, error) {
	start := p.tok.Span
	switch p.tok.Type {
	case lexer.TokenOwn:
		p.advance()
		if _, err := p.expect(lexer.TokenLt); err != nil {
			return nil, err
		}
		isSlice := false
		if p.tok.Type == lexer.TokenLBracket {
			isSlice = true
			p.advance()
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if isSlice {
			if _, err := p.expect(lexer.TokenRBracket); err != nil {
				return nil, err
			}
		}
		end, err := p.expect(lexer.TokenGt)
		if err != nil {
			return nil, err
		}
		return &ast.OwnType{Sp: start.Union(end.Span), Elem: elem, IsSlice: isSlice}, nil
	case lexer.TokenView:
		p.advance()
		if _, err := p.expect(lexer.TokenLt); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		end, err := p.expect(lexer.TokenGt)
		if err != nil {
			return nil, err
		}
		return &ast.ViewType{Sp: start.Union(end.Span), Elem: elem}, nil
	case lexer.TokenLBracket:
		p.advance()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenSemicolon); err != nil {
			return nil, err
		}
		n, err := p.expect(lexer.TokenInt)
		if err != nil {
			return nil, err
		}
		end, err := p.expect(lexer.TokenRBracket)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayType{Sp: start.Union(end.Span), Elem: elem, N: atoi(n.Literal)}, nil
	case lexer.TokenIdent:
		name := p.tok
		p.advance()
		return &ast.NamedType{Sp: name.Span, Name: name.Literal}, nil
	default:
		return nil, &SyntaxError{Span: p.tok.Span, Message: fmt.Sprintf("expected type, found %s %q", p.tok.Type, p.tok.Literal)}
	}
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

// ===== Statements =====

func (p *Parser) parseBlock() (*ast.BlockStmt, error) {
	start, err := p.expect(lexer.TokenLBrace)
	if err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for p.tok.Type != lexer.TokenRBrace {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	end, err := p.expect(lexer.TokenRBrace)
	if err != nil {
		return nil, err
	}
	return &ast.BlockStmt{Sp: start.Span.Union(end.Span), Stmts: stmts}, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.tok.Type {
	case lexer.TokenLet:
		return p.parseLetStmt()
	case lexer.TokenIf:
		return p.parseIfStmt()
	case lexer.TokenWhile:
		return p.parseWhileStmt()
	case lexer.TokenFor:
		return p.parseForStmt()
	case lexer.TokenReturn:
		return p.parseReturnStmt()
	case lexer.TokenUnsafe:
		return p.parseUnsafeStmt()
	case lexer.TokenLBrace:
		return p.parseBlock()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseLetStmt() (*ast.LetStmt, error) {
	start := p.tok.Span
	p.advance()
	mut := false
	if p.tok.Type == lexer.TokenMut {
		mut = true
		p.advance()
	}
	name, err := p.expect(lexer.TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenColon); err != nil {
		return nil, err
	}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	var init ast.Expr
	if p.tok.Type == lexer.TokenAssign {
		p.advance()
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	end, err := p.expect(lexer.TokenSemicolon)
	if err != nil {
		return nil, err
	}
	return &ast.LetStmt{Sp: start.Union(end.Span), Name: name.Literal, Type: ty, Init: init, Mutable: mut}, nil
}

func (p *Parser) parseIfStmt() (*ast.IfStmt, error) {
	start := p.tok.Span
	p.advance()
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Sp: start.Union(then.Sp), Cond: cond, Then: then}
	if p.tok.Type == lexer.TokenElse {
		p.advance()
		if p.tok.Type == lexer.TokenIf {
			elseIf, err := p.parseIfStmt()
			if err != nil {
				return nil, err
			}
			stmt.Else = elseIf
			stmt.Sp = stmt.Sp.Union(elseIf.Sp)
		} else {
			elseBlock, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			stmt.Else = elseBlock
			stmt.Sp = stmt.Sp.Union(elseBlock.Sp)
		}
	}
	return stmt, nil
}

func (p *Parser) parseWhileStmt() (*ast.WhileStmt, error) {
	start := p.tok.Span
	p.advance()
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Sp: start.Union(body.Sp), Cond: cond, Body: body}, nil
}

func (p *Parser) parseForStmt() (*ast.ForStmt, error) {
	start := p.tok.Span
	p.advance()
	if _, err := p.expect(lexer.TokenLParen); err != nil {
		return nil, err
	}
	var initStmt ast.Stmt
	if p.tok.Type != lexer.TokenSemicolon {
		if p.tok.Type == lexer.TokenLet {
			s, err := p.parseLetStmt()
			if err != nil {
				return nil, err
			}
			initStmt = s
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.TokenSemicolon); err != nil {
				return nil, err
			}
			initStmt = &ast.ExprStmt{Sp: e.Span(), Expr: e}
		}
	} else {
		p.advance()
	}
	var cond ast.Expr
	if p.tok.Type != lexer.TokenSemicolon {
		c, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cond = c
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	var step ast.Expr
	if p.tok.Type != lexer.TokenRParen {
		s, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		step = s
	}
	if _, err := p.expect(lexer.TokenRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Sp: start.Union(body.Sp), Init: initStmt, Cond: cond, Step: step, Body: body}, nil
}

func (p *Parser) parseReturnStmt() (*ast.ReturnStmt, error) {
	start := p.tok.Span
	p.advance()
	var val ast.Expr
	if p.tok.Type != lexer.TokenSemicolon {
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		val = v
	}
	end, err := p.expect(lexer.TokenSemicolon)
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Sp: start.Union(end.Span), Value: val}, nil
}

func (p *Parser) parseUnsafeStmt() (*ast.UnsafeStmt, error) {
	start := p.tok.Span
	p.advance()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.UnsafeStmt{Sp: start.Union(body.Sp), Body: body}, nil
}

func (p *Parser) parseExprStmt() (*ast.ExprStmt, error) {
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	end, err := p.expect(lexer.TokenSemicolon)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Sp: e.Span().Union(end.Span), Expr: e}, nil
}

// ===== Expressions =====
// Precedence, lowest to highest: assignment, ||, &&, equality, relational,
// bitor, bitxor, bitand, shift, additive, multiplicative, unary, postfix.

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseAssign()
}

func (p *Parser) parseAssign() (ast.Expr, error) {
	lhs, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.tok.Type == lexer.TokenAssign {
		p.advance()
		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &ast.AssignExpr{Sp: lhs.Span().Union(rhs.Span()), Place: lhs, Value: rhs}, nil
	}
	return lhs, nil
}

func (p *Parser) parseBinaryLevel(types []lexer.TokenType, next func(*Parser) (ast.Expr, error)) (ast.Expr, error) {
	lhs, err := next(p)
	if err != nil {
		return nil, err
	}
	for containsType(types, p.tok.Type) {
		op := p.tok
		p.advance()
		rhs, err := next(p)
		if err != nil {
			return nil, err
		}
		lhs = &ast.BinOp{Sp: lhs.Span().Union(rhs.Span()), Op: op.Literal, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func containsType(types []lexer.TokenType, t lexer.TokenType) bool {
	for _, tt := range types {
		if tt == t {
			return true
		}
	}
	return false
}

func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	return p.parseBinaryLevel([]lexer.TokenType{lexer.TokenOrOr}, (*Parser).parseLogicalAnd)
}

func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	return p.parseBinaryLevel([]lexer.TokenType{lexer.TokenAndAnd}, (*Parser).parseEquality)
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	return p.parseBinaryLevel([]lexer.TokenType{lexer.TokenEq, lexer.TokenNe}, (*Parser).parseRelational)
}

func (p *Parser) parseRelational() (ast.Expr, error) {
	return p.parseBinaryLevel([]lexer.TokenType{lexer.TokenLt, lexer.TokenLe, lexer.TokenGt, lexer.TokenGe}, (*Parser).parseBitOr)
}

func (p *Parser) parseBitOr() (ast.Expr, error) {
	return p.parseBinaryLevel([]lexer.TokenType{lexer.TokenPipe}, (*Parser).parseBitXor)
}

func (p *Parser) parseBitXor() (ast.Expr, error) {
	return p.parseBinaryLevel([]lexer.TokenType{lexer.TokenCaret}, (*Parser).parseBitAnd)
}

func (p *Parser) parseBitAnd() (ast.Expr, error) {
	return p.parseBinaryLevel([]lexer.TokenType{lexer.TokenAmp}, (*Parser).parseShift)
}

func (p *Parser) parseShift() (ast.Expr, error) {
	return p.parseBinaryLevel([]lexer.TokenType{lexer.TokenShl, lexer.TokenShr}, (*Parser).parseAdditive)
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	return p.parseBinaryLevel([]lexer.TokenType{lexer.TokenPlus, lexer.TokenMinus}, (*Parser).parseMultiplicative)
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	return p.parseBinaryLevel([]lexer.TokenType{lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent}, (*Parser).parseUnary)
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.tok.Type {
	case lexer.TokenMinus, lexer.TokenNot, lexer.TokenTilde, lexer.TokenAmp, lexer.TokenStar:
		op := p.tok
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnOp{Sp: op.Span.Union(operand.Span()), Op: op.Literal, Operand: operand}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.tok.Type {
		case lexer.TokenLParen:
			p.advance()
			var args []ast.Expr
			for p.tok.Type != lexer.TokenRParen {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.tok.Type == lexer.TokenComma {
					p.advance()
				} else {
					break
				}
			}
			end, err := p.expect(lexer.TokenRParen)
			if err != nil {
				return nil, err
			}
			e = &ast.Call{Sp: e.Span().Union(end.Span), Callee: e, Args: args}
		case lexer.TokenLBracket:
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			end, err := p.expect(lexer.TokenRBracket)
			if err != nil {
				return nil, err
			}
			e = &ast.IndexExpr{Sp: e.Span().Union(end.Span), Base: e, Idx: idx}
		case lexer.TokenDot:
			p.advance()
			// `view` lexes as a keyword (it also spells view<T>), so it is
			// accepted here as a member name for the `.view()` sugar.
			name := p.tok
			if name.Type == lexer.TokenView {
				p.advance()
			} else if name, err = p.expect(lexer.TokenIdent); err != nil {
				return nil, err
			}
			e = &ast.FieldExpr{Sp: e.Span().Union(name.Span), Base: e, Name: name.Literal}
		default:
			return e, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.tok.Type {
	case lexer.TokenInt:
		tok := p.tok
		p.advance()
		return &ast.IntLit{Sp: tok.Span, Value: int64(atoi(tok.Literal))}, nil
	case lexer.TokenTrue, lexer.TokenFalse:
		tok := p.tok
		p.advance()
		return &ast.BoolLit{Sp: tok.Span, Value: tok.Type == lexer.TokenTrue}, nil
	case lexer.TokenIdent:
		tok := p.tok
		if tok.Literal == "alloc" && p.next.Type == lexer.TokenLParen {
			return p.parseAllocCall()
		}
		if tok.Literal == "cast" && p.next.Type == lexer.TokenLParen {
			return p.parseCastCall()
		}
		p.advance()
		return &ast.Ident{Sp: tok.Span, Name: tok.Literal}, nil
	case lexer.TokenLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRParen); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, &SyntaxError{Span: p.tok.Span, Message: fmt.Sprintf("expected expression, found %s %q", p.tok.Type, p.tok.Literal)}
	}
}

func (p *Parser) parseAllocCall() (*ast.AllocCall, error) {
	start := p.tok.Span
	p.advance() // "alloc"
	p.advance() // "("
	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenComma); err != nil {
		return nil, err
	}
	count, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	end, err := p.expect(lexer.TokenRParen)
	if err != nil {
		return nil, err
	}
	return &ast.AllocCall{Sp: start.Union(end.Span), Elem: elem, Count: count}, nil
}

// parseCastCall parses cast(T, expr) or cast(T, expr, token), mirroring
// parseAllocCall's "type argument first" shape.
func (p *Parser) parseCastCall() (*ast.CastCall, error) {
	start := p.tok.Span
	p.advance() // "cast"
	p.advance() // "("
	target, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenComma); err != nil {
		return nil, err
	}
	operand, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var token ast.Expr
	if p.tok.Type == lexer.TokenComma {
		p.advance()
		token, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	end, err := p.expect(lexer.TokenRParen)
	if err != nil {
		return nil, err
	}
	return &ast.CastCall{Sp: start.Union(end.Span), Target: target, Operand: operand, Token: token}, nil
}
