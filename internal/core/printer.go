package core

import (
	"fmt"
	"strings"
)

// String renders the program as the stable, textual `--emit core`
// artifact (spec.md §6): one declaration per top-level form, identifier
// suffixes for every binding/allocation/lifetime/borrow id so output is
// deterministic and round-trips identifiers across runs.
func (p *Program) String() string {
	parts := make([]string, len(p.Decls))
	for i, d := range p.Decls {
		parts[i] = declString(d)
	}
	return strings.Join(parts, "\n")
}

func declString(d Decl) string {
	switch v := d.(type) {
	case *FuncDecl:
		params := make([]string, len(v.Params))
		for i, p := range v.Params {
			mut := ""
			if p.Mutable {
				mut = "mut "
			}
			params[i] = fmt.Sprintf("%s%s#%d: %s", mut, p.Name, p.ID, p.Type)
		}
		return fmt.Sprintf("fn %s(%s): %s {\n%s}\n", v.Name, strings.Join(params, ", "), v.ReturnType, indent(blockString(v.Body)))
	case *StructDecl:
		fields := make([]string, len(v.Order))
		for i, name := range v.Order {
			fields[i] = fmt.Sprintf("%s: %s", name, v.Fields[name])
		}
		return fmt.Sprintf("struct %s { %s }\n", v.Name, strings.Join(fields, ", "))
	case *EnumDecl:
		return fmt.Sprintf("enum %s { %s }\n", v.Name, strings.Join(v.Variants, ", "))
	default:
		return "<decl?>\n"
	}
}

func blockString(b *Block) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "// lifetime %d (parent %d)\n", b.Lifetime, b.Parent)
	for _, s := range b.Stmts {
		sb.WriteString(stmtString(s))
		sb.WriteString("\n")
	}
	return sb.String()
}

func stmtString(s Stmt) string {
	switch v := s.(type) {
	case *Let:
		mut := ""
		if v.Mutable {
			mut = "mut "
		}
		if v.Init == nil {
			return fmt.Sprintf("let %s%s#%d: %s;", mut, v.Name, v.ID, v.Type)
		}
		return fmt.Sprintf("let %s%s#%d: %s = %s;", mut, v.Name, v.ID, v.Type, exprString(v.Init))
	case *ExprStmt:
		return exprString(v.Expr) + ";"
	case *If:
		elseStr := ""
		if v.Else != nil {
			elseStr = fmt.Sprintf(" else {\n%s}", indent(stmtString(v.Else)+"\n"))
		}
		return fmt.Sprintf("if (%s) {\n%s}%s", exprString(v.Cond), indent(blockString(v.Then)), elseStr)
	case *While:
		return fmt.Sprintf("while (%s) {\n%s}", exprString(v.Cond), indent(blockString(v.Body)))
	case *Return:
		if v.Value == nil {
			return "return;"
		}
		return fmt.Sprintf("return %s;", exprString(v.Value))
	case *UnsafeBlock:
		return fmt.Sprintf("unsafe {\n%s}", indent(blockString(v.Body)))
	case *Block:
		return fmt.Sprintf("{\n%s}", indent(blockString(v)))
	case *ErrorStmt:
		return fmt.Sprintf("<error %s>;", v.Code)
	default:
		return "<stmt?>;"
	}
}

func exprString(e Expr) string {
	switch v := e.(type) {
	case *Literal:
		return fmt.Sprintf("%d", v.Value)
	case *BoolLiteral:
		return fmt.Sprintf("%t", v.Value)
	case *Var:
		return fmt.Sprintf("%s#%d", v.Name, v.ID)
	case *Call:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = exprString(a)
		}
		return fmt.Sprintf("%s(%s)", v.Callee, strings.Join(args, ", "))
	case *UnOp:
		return fmt.Sprintf("%s%s", v.Op, exprString(v.Operand))
	case *BinOp:
		return fmt.Sprintf("(%s %s %s)", exprString(v.LHS), v.Op, exprString(v.RHS))
	case *Index:
		return fmt.Sprintf("%s[%s]", exprString(v.Base), exprString(v.Idx))
	case *Field:
		return fmt.Sprintf("%s.%s", exprString(v.Base), v.Name)
	case *Assign:
		return fmt.Sprintf("%s = %s", exprString(v.Place), exprString(v.Value))
	case *Alloc:
		return fmt.Sprintf("alloc#%d(%s, %s)@lt%d", v.Alloc, v.Elem, exprString(v.Count), v.Lifetime)
	case *View:
		return fmt.Sprintf("%s.view()", exprString(v.Base))
	case *BorrowShared:
		return fmt.Sprintf("borrow#%d(%s)", v.Borrow, exprString(v.Place))
	case *BorrowMut:
		return fmt.Sprintf("mut_borrow#%d(%s)", v.Borrow, exprString(v.Place))
	case *ReleaseBorrow:
		return fmt.Sprintf("release_borrow#%d(%s)", v.Borrow, exprString(v.Operand))
	case *Move:
		return fmt.Sprintf("move(%s)", exprString(v.Place))
	case *PtrOffset:
		return fmt.Sprintf("ptr_offset(%s, %s)", exprString(v.Ptr), exprString(v.Idx))
	case *BoundsNarrow:
		return fmt.Sprintf("bounds_narrow(%s, %s, %s)", exprString(v.Ptr), exprString(v.Start), exprString(v.Len))
	case *Cast:
		if v.Token == nil {
			return fmt.Sprintf("cast(%s, %s)", v.Target, exprString(v.Operand))
		}
		return fmt.Sprintf("cast(%s, %s, %s)", v.Target, exprString(v.Operand), exprString(v.Token))
	case *CapToken:
		return fmt.Sprintf("%s(%s)", v.Kind, exprString(v.Arg))
	case *ErrorExpr:
		return fmt.Sprintf("<error %s>", v.Code)
	default:
		return "<expr?>"
	}
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l == "" {
			continue
		}
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n") + "\n"
}
