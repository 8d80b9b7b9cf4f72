// Package ir defines AegisIR: the block-structured SSA form that Aegis
// Core lowers into once the checker has accepted a program (spec.md
// §4.3). Every memory instruction carries an effect record naming the
// region it touches and the capability it requires.
package ir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/geeknik/aegis-c-compiler/internal/ids"
)

// Module is one lowered translation unit.
type Module struct {
	Name      string
	Functions []*Function
}

// Function is a CFG of basic blocks in SSA form.
type Function struct {
	Name   string
	Params []Value
	Blocks []*BasicBlock
}

// BasicBlock is a label plus a straight-line instruction sequence ending
// in a terminator (Br, CondBr, or Ret).
type BasicBlock struct {
	Name  string
	Instr []Instr
}

// ValueKind classifies an SSA Value.
type ValueKind int

const (
	ValInvalid ValueKind = iota
	ValConstInt
	ValConstBool
	ValRef
)

// Value is an operand: either a constant or a reference to a
// previously-defined SSA name.
type Value struct {
	Kind       ValueKind
	Int64      int64
	Bool       bool
	Ref        string
	Capability CapabilityKind
}

func (v Value) String() string {
	var s string
	switch v.Kind {
	case ValConstInt:
		s = fmt.Sprintf("%d", v.Int64)
	case ValConstBool:
		s = fmt.Sprintf("%t", v.Bool)
	case ValRef:
		s = v.Ref
	default:
		s = "<invalid>"
	}
	if v.Capability != CapNone {
		s += "<" + v.Capability.String() + ">"
	}
	return s
}

// CapabilityKind is the capability a memory operation requires,
// corresponding to the borrow ledger's two borrow kinds (spec.md §3).
type CapabilityKind int

const (
	CapNone CapabilityKind = iota
	CapShared
	CapUnique
)

func (k CapabilityKind) String() string {
	switch k {
	case CapShared:
		return "shared"
	case CapUnique:
		return "unique"
	default:
		return "none"
	}
}

// EffectRecord names the region a load/store/call touches and the
// capability required to touch it (spec.md §4.3).
type EffectRecord struct {
	Alloc      ids.AllocID
	Start      Value
	Len        Value
	Capability CapabilityKind
}

func (e EffectRecord) String() string {
	return fmt.Sprintf("[alloc%d+%s..%s:%s]", e.Alloc, e.Start, e.Len, e.Capability)
}

// Instr is implemented by every AegisIR instruction.
type Instr interface{ isInstr() }

// Alloc materializes a fresh region of N elements, tagged with the
// allocation id the checker assigned it.
type Alloc struct {
	Dst   string
	Alloc ids.AllocID
	Count Value
}

// Drop releases an allocation. Lowering emits one per Owned `own<…>`
// binding still Init at scope exit, in reverse declaration order
// (spec.md §4.3).
type Drop struct {
	Alloc ids.AllocID
}

// Load reads through a region, carrying the effect record that proves
// the access is in-bounds and properly capability-gated.
type Load struct {
	Dst    string
	Addr   Value
	Effect EffectRecord
}

// Store writes through a region.
type Store struct {
	Addr   Value
	Val    Value
	Effect EffectRecord
}

// Gep computes base+index without touching memory. For an index
// expression it is immediately followed by a BoundsNarrow to the
// element's width; field projections, `.len` reads (Index -1) and
// PtrOffset emit a Gep with no BoundsNarrow.
type Gep struct {
	Dst   string
	Base  Value
	Index Value
}

// BoundsNarrow shrinks a pointer's provable range, preserving
// provenance (spec.md §4.2 rule 8).
type BoundsNarrow struct {
	Dst   string
	Ptr   Value
	Start Value
	Len   Value
}

// Phi reconciles a binding's SSA name across predecessor blocks at a
// control-flow merge (spec.md §4.3).
type Phi struct {
	Dst      string
	Incoming map[string]Value // predecessor block name -> value
}

// Call invokes a named function; each argument's effect composes into
// the call's own effect per spec.md §4.3.
type Call struct {
	Dst     string
	Callee  string
	Args    []Value
	Effects []EffectRecord
}

// Ret returns, optionally with a value.
type Ret struct{ Val *Value }

// BinOp is a scalar arithmetic or logical operation.
type BinOp struct {
	Dst string
	Op  string
	LHS Value
	RHS Value
}

// Cmp is a scalar comparison, producing a boolean value.
type Cmp struct {
	Dst  string
	Pred string
	LHS  Value
	RHS  Value
}

// Br is an unconditional branch.
type Br struct{ Target string }

// CondBr branches on a boolean value.
type CondBr struct {
	Cond  Value
	True  string
	False string
}

func (Alloc) isInstr()        {}
func (Drop) isInstr()         {}
func (Load) isInstr()         {}
func (Store) isInstr()        {}
func (Gep) isInstr()          {}
func (BoundsNarrow) isInstr() {}
func (Phi) isInstr()          {}
func (Call) isInstr()         {}
func (Ret) isInstr()          {}
func (BinOp) isInstr()        {}
func (Cmp) isInstr()          {}
func (Br) isInstr()           {}
func (CondBr) isInstr()       {}

// ===== Pretty-printing (spec.md §6 emission contract: textual, stable
// across runs, human-readable) =====

func (m *Module) String() string {
	if m == nil {
		return "<nil-ir-module>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "module %s\n", m.Name)
	for _, f := range m.Functions {
		b.WriteString(f.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (f *Function) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "func %s(", f.Name)
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(") {\n")
	for _, bb := range f.Blocks {
		b.WriteString(bb.String())
	}
	b.WriteString("}\n")
	return b.String()
}

func (bb *BasicBlock) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", bb.Name)
	for _, in := range bb.Instr {
		b.WriteString("  ")
		if s, ok := in.(fmt.Stringer); ok {
			b.WriteString(s.String())
		} else {
			b.WriteString("<instr>")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (i Alloc) String() string {
	return fmt.Sprintf("%s = alloc alloc%d, %s", i.Dst, i.Alloc, i.Count)
}
func (i Drop) String() string { return fmt.Sprintf("drop alloc%d", i.Alloc) }
func (i Load) String() string {
	return fmt.Sprintf("%s = load %s %s", i.Dst, i.Addr, i.Effect)
}
func (i Store) String() string {
	return fmt.Sprintf("store %s, %s %s", i.Addr, i.Val, i.Effect)
}
func (i Gep) String() string {
	return fmt.Sprintf("%s = gep %s, %s", i.Dst, i.Base, i.Index)
}
func (i BoundsNarrow) String() string {
	return fmt.Sprintf("%s = bounds_narrow %s, %s, %s", i.Dst, i.Ptr, i.Start, i.Len)
}
func (i Phi) String() string {
	preds := make([]string, 0, len(i.Incoming))
	for pred := range i.Incoming {
		preds = append(preds, pred)
	}
	sort.Strings(preds)
	var b strings.Builder
	fmt.Fprintf(&b, "%s = phi", i.Dst)
	for _, pred := range preds {
		fmt.Fprintf(&b, " [%s: %s]", pred, i.Incoming[pred])
	}
	return b.String()
}
func (i Call) String() string {
	var b strings.Builder
	if i.Dst != "" {
		fmt.Fprintf(&b, "%s = ", i.Dst)
	}
	fmt.Fprintf(&b, "call %s(", i.Callee)
	for idx, a := range i.Args {
		if idx > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteString(")")
	return b.String()
}
func (i Ret) String() string {
	if i.Val == nil {
		return "ret"
	}
	return fmt.Sprintf("ret %s", i.Val.String())
}
func (i BinOp) String() string { return fmt.Sprintf("%s = %s %s, %s", i.Dst, i.Op, i.LHS, i.RHS) }
func (i Cmp) String() string   { return fmt.Sprintf("%s = cmp.%s %s, %s", i.Dst, i.Pred, i.LHS, i.RHS) }
func (i Br) String() string    { return fmt.Sprintf("br %s", i.Target) }
func (i CondBr) String() string {
	return fmt.Sprintf("brcond %s, %s, %s", i.Cond, i.True, i.False)
}
