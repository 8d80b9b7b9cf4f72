package parser

import (
	"testing"

	"github.com/geeknik/aegis-c-compiler/internal/ast"
	"github.com/geeknik/aegis-c-compiler/internal/lexer"
	"github.com/geeknik/aegis-c-compiler/internal/position"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	l := lexer.New(position.NewFile("t.agc", src))
	prog, err := Parse(l)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func TestParseFunctionWithBuffer(t *testing.T) {
	prog := parse(t, `
		fn sum(n: u32): u32 {
			let buf: own<[u8]> = alloc(u8, n);
			let mut total: u32 = 0;
			for (let i: u32 = 0; i < n; i = i + 1) {
				total = total + 1;
			}
			return total;
		}
	`)
	if len(prog.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(prog.Decls))
	}
	fn, ok := prog.Decls[0].(*ast.FuncDecl)
	if !ok {
		t.Fatalf("expected *ast.FuncDecl, got %T", prog.Decls[0])
	}
	if fn.Name != "sum" || len(fn.Params) != 1 {
		t.Fatalf("unexpected decl shape: %s", fn)
	}
	if len(fn.Body.Stmts) != 4 {
		t.Fatalf("expected 4 statements in body, got %d: %s", len(fn.Body.Stmts), fn.Body)
	}
	letBuf, ok := fn.Body.Stmts[0].(*ast.LetStmt)
	if !ok {
		t.Fatalf("expected first stmt to be LetStmt, got %T", fn.Body.Stmts[0])
	}
	if _, ok := letBuf.Init.(*ast.AllocCall); !ok {
		t.Fatalf("expected alloc() call as initializer, got %T", letBuf.Init)
	}
	forStmt, ok := fn.Body.Stmts[2].(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected ForStmt, got %T", fn.Body.Stmts[2])
	}
	if forStmt.Init == nil || forStmt.Cond == nil || forStmt.Step == nil {
		t.Fatal("expected all for-clauses to parse")
	}
}

func TestParseStructAndEnum(t *testing.T) {
	prog := parse(t, `
		struct Point { x: i32; y: i32; }
		enum Shape { Circle: i32, Square }
	`)
	if len(prog.Decls) != 2 {
		t.Fatalf("expected 2 decls, got %d", len(prog.Decls))
	}
	sd, ok := prog.Decls[0].(*ast.StructDecl)
	if !ok || len(sd.Fields) != 2 {
		t.Fatalf("unexpected struct decl: %+v", prog.Decls[0])
	}
	ed, ok := prog.Decls[1].(*ast.EnumDecl)
	if !ok || len(ed.Variants) != 2 {
		t.Fatalf("unexpected enum decl: %+v", prog.Decls[1])
	}
	if ed.Variants[1].Type != nil {
		t.Fatal("Square variant should have no payload type")
	}
}

func TestParseBorrowIntrinsicsAsCalls(t *testing.T) {
	prog := parse(t, `
		fn use_buf(buf: view<u8>): void {
			let b: mut u8* = mut_borrow(buf);
			release_borrow(b);
		}
	`)
	fn := prog.Decls[0].(*ast.FuncDecl)
	letStmt := fn.Body.Stmts[0].(*ast.LetStmt)
	call, ok := letStmt.Init.(*ast.Call)
	if !ok {
		t.Fatalf("expected mut_borrow to parse as a Call, got %T", letStmt.Init)
	}
	if ident, ok := call.Callee.(*ast.Ident); !ok || ident.Name != "mut_borrow" {
		t.Fatalf("unexpected callee: %+v", call.Callee)
	}
}

func TestParsePointerTypeVariants(t *testing.T) {
	prog := parse(t, `
		fn f(a: u8*, b: mut u8*, c: raw u8*): void {}
	`)
	fn := prog.Decls[0].(*ast.FuncDecl)
	if _, ok := fn.Params[0].Type.(*ast.PointerType); !ok {
		t.Fatalf("param a: expected PointerType, got %T", fn.Params[0].Type)
	}
	bp := fn.Params[1].Type.(*ast.PointerType)
	if !bp.Mut {
		t.Fatal("param b: expected Mut pointer")
	}
	cp := fn.Params[2].Type.(*ast.PointerType)
	if !cp.Raw {
		t.Fatal("param c: expected Raw pointer")
	}
}

func TestParseUnsafeBlock(t *testing.T) {
	prog := parse(t, `
		fn f(): void {
			unsafe {
				let x: i32 = 1;
			}
		}
	`)
	fn := prog.Decls[0].(*ast.FuncDecl)
	if _, ok := fn.Body.Stmts[0].(*ast.UnsafeStmt); !ok {
		t.Fatalf("expected UnsafeStmt, got %T", fn.Body.Stmts[0])
	}
}

func TestSyntaxErrorReportsSpan(t *testing.T) {
	l := lexer.New(position.NewFile("bad.agc", "fn f(: u32) {}"))
	_, err := Parse(l)
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	se, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("expected *SyntaxError, got %T", err)
	}
	if !se.Span.IsValid() {
		t.Fatal("expected a valid span on the syntax error")
	}
}
