package ir

import (
	"fmt"
	"sort"

	"github.com/geeknik/aegis-c-compiler/internal/checker"
	"github.com/geeknik/aegis-c-compiler/internal/core"
	"github.com/geeknik/aegis-c-compiler/internal/ids"
	"github.com/geeknik/aegis-c-compiler/internal/types"
)

// Lowerer turns checked Aegis Core into AegisIR (spec.md §4.3). Lowering
// only ever runs over a program the checker accepted with zero
// diagnostics; it never re-derives safety, it only consumes the
// checker's Result to decide where Drops belong.
type Lowerer struct {
	result *checker.Result

	currentFunction *Function
	currentBlock    *BasicBlock

	valueCounter int
	blockCounter int

	locals map[ids.BindingID]string // binding -> SSA name holding its current value
	allocs map[ids.BindingID]ids.AllocID
}

// NewLowerer creates a lowerer bound to a checker Result.
func NewLowerer(result *checker.Result) *Lowerer {
	return &Lowerer{result: result}
}

// Lower converts an entire checked program.
func (l *Lowerer) Lower(prog *core.Program) *Module {
	mod := &Module{Name: "main"}
	for _, d := range prog.Decls {
		if fn, ok := d.(*core.FuncDecl); ok {
			mod.Functions = append(mod.Functions, l.lowerFunc(fn))
		}
	}
	return mod
}

func (l *Lowerer) lowerFunc(fn *core.FuncDecl) *Function {
	l.valueCounter = 0
	l.blockCounter = 0
	l.locals = map[ids.BindingID]string{}
	l.allocs = map[ids.BindingID]ids.AllocID{}

	l.currentFunction = &Function{Name: fn.Name}
	for _, p := range fn.Params {
		name := fmt.Sprintf("%%param_%s", p.Name)
		l.currentFunction.Params = append(l.currentFunction.Params, Value{Kind: ValRef, Ref: name})
		l.locals[p.ID] = name
	}

	entry := l.newBlock("entry")
	l.currentFunction.Blocks = append(l.currentFunction.Blocks, entry)
	l.currentBlock = entry

	l.lowerBlock(fn.Body)

	if !l.blockHasTerminator(l.currentBlock) {
		l.emit(Ret{})
	}
	return l.currentFunction
}

func (l *Lowerer) blockHasTerminator(bb *BasicBlock) bool {
	if len(bb.Instr) == 0 {
		return false
	}
	switch bb.Instr[len(bb.Instr)-1].(type) {
	case Ret, Br, CondBr:
		return true
	default:
		return false
	}
}

func (l *Lowerer) newValue() string {
	name := fmt.Sprintf("%%t%d", l.valueCounter)
	l.valueCounter++
	return name
}

func (l *Lowerer) newBlock(prefix string) *BasicBlock {
	name := fmt.Sprintf("%s_%d", prefix, l.blockCounter)
	l.blockCounter++
	return &BasicBlock{Name: name}
}

func (l *Lowerer) emit(instr Instr) {
	l.currentBlock.Instr = append(l.currentBlock.Instr, instr)
}

// lowerBlock lowers every statement, then emits Drops in reverse
// declaration order for every Owned own<…> binding the checker left
// Init at this scope's exit (spec.md §4.3 rule 1).
func (l *Lowerer) lowerBlock(b *core.Block) {
	for _, s := range b.Stmts {
		l.lowerStmt(s)
	}
	for i := len(b.Bindings) - 1; i >= 0; i-- {
		id := b.Bindings[i]
		if l.result.FinalState[id] != checker.Init {
			continue
		}
		ty := l.result.BindingType[id]
		if ty == nil || ty.Kind != types.KindOwnBuf {
			continue
		}
		allocID, ok := l.allocs[id]
		if !ok {
			continue
		}
		l.emit(Drop{Alloc: allocID})
	}
}

func (l *Lowerer) lowerStmt(s core.Stmt) {
	switch v := s.(type) {
	case *core.Let:
		l.lowerLet(v)
	case *core.ExprStmt:
		l.lowerExpr(v.Expr)
	case *core.If:
		l.lowerIf(v)
	case *core.While:
		l.lowerWhile(v)
	case *core.Return:
		var val *Value
		if v.Value != nil {
			val0 := l.lowerExpr(v.Value)
			val = &val0
		}
		l.emit(Ret{Val: val})
	case *core.UnsafeBlock:
		l.lowerBlock(v.Body)
	case *core.Block:
		l.lowerBlock(v)
	case *core.ErrorStmt:
		// Unreachable: a program containing ErrorStmt never reaches
		// lowering, since desugar already recorded a diagnostic for it.
	}
}

func (l *Lowerer) lowerLet(v *core.Let) {
	if v.Init == nil {
		return
	}
	val := l.lowerExpr(v.Init)
	l.locals[v.ID] = l.localRef(val)
	if a, ok := v.Init.(*core.Alloc); ok {
		l.allocs[v.ID] = a.Alloc
	} else if src, ok := l.traceLetAllocSource(v.Init); ok {
		l.allocs[v.ID] = src
	}
}

// localRef returns the SSA name a binding takes for val. A constant has
// no SSA name of its own, so it is first materialized as `0 + c` (the
// same shape lowerUnOp uses), giving a name that operands and Phi
// incoming edges can refer to.
func (l *Lowerer) localRef(val Value) string {
	if val.Kind == ValConstInt || val.Kind == ValConstBool {
		dst := l.newValue()
		l.emit(BinOp{Dst: dst, Op: "+", LHS: Value{Kind: ValConstInt, Int64: 0}, RHS: val})
		return dst
	}
	return val.Ref
}

// traceLetAllocSource follows a move/view/borrow initializer back to the
// binding that owns the underlying allocation, so a rebinding of an
// own<…> value (e.g. via move) keeps correct Drop bookkeeping.
func (l *Lowerer) traceLetAllocSource(e core.Expr) (ids.AllocID, bool) {
	switch v := e.(type) {
	case *core.Move:
		return l.traceLetAllocSource(v.Place)
	case *core.View:
		return l.traceLetAllocSource(v.Base)
	case *core.BorrowShared:
		return l.traceLetAllocSource(v.Place)
	case *core.BorrowMut:
		return l.traceLetAllocSource(v.Place)
	case *core.Var:
		id, ok := l.allocs[v.ID]
		return id, ok
	}
	return 0, false
}

// branchResult records the state at the end of one arm of a merge: the
// block the arm actually left off in (which may be a nested construct's
// own cont/exit block), the locals as of that point, and whether
// control actually reaches the merge point at all (false once the arm
// ends in a Ret).
type branchResult struct {
	block   *BasicBlock
	locals  map[ids.BindingID]string
	reaches bool
}

func cloneLocalsMap(m map[ids.BindingID]string) map[ids.BindingID]string {
	out := make(map[ids.BindingID]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (l *Lowerer) cloneLocals() map[ids.BindingID]string {
	return cloneLocalsMap(l.locals)
}

// sortedBindingIDs returns m's keys in ascending order, so that value
// numbering and instruction order stay deterministic across runs
// despite Go's randomized map iteration (spec.md §6's "stable across
// runs" emission contract).
func sortedBindingIDs(m map[ids.BindingID]string) []ids.BindingID {
	out := make([]ids.BindingID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// mergeBranches reconciles locals across every branch that actually
// reaches the merge block, emitting a Phi (in l.currentBlock, which must
// already be the merge block) for every binding whose incoming SSA name
// differs across reaching predecessors (spec.md §4.3: "merges use phi").
// A binding every reaching predecessor agrees on is passed through
// without a redundant Phi.
func (l *Lowerer) mergeBranches(before map[ids.BindingID]string, results []branchResult) map[ids.BindingID]string {
	reaching := make([]branchResult, 0, len(results))
	for _, r := range results {
		if r.reaches {
			reaching = append(reaching, r)
		}
	}
	if len(reaching) == 0 {
		return cloneLocalsMap(before)
	}
	merged := make(map[ids.BindingID]string, len(before))
	for _, id := range sortedBindingIDs(before) {
		first := reaching[0].locals[id]
		same := true
		for _, r := range reaching[1:] {
			if r.locals[id] != first {
				same = false
				break
			}
		}
		if same {
			merged[id] = first
			continue
		}
		dst := l.newValue()
		incoming := make(map[string]Value, len(reaching))
		for _, r := range reaching {
			incoming[r.block.Name] = Value{Kind: ValRef, Ref: r.locals[id]}
		}
		l.emit(Phi{Dst: dst, Incoming: incoming})
		merged[id] = dst
	}
	return merged
}

func (l *Lowerer) lowerIf(v *core.If) {
	condBlock := l.currentBlock
	condLocals := l.cloneLocals()
	cond := l.lowerExpr(v.Cond)

	thenBlock := l.newBlock("if_then")
	var elseBlock *BasicBlock
	if v.Else != nil {
		elseBlock = l.newBlock("if_else")
	}
	contBlock := l.newBlock("if_cont")

	falseTarget := contBlock.Name
	if elseBlock != nil {
		falseTarget = elseBlock.Name
	}
	l.emit(CondBr{Cond: cond, True: thenBlock.Name, False: falseTarget})

	l.currentFunction.Blocks = append(l.currentFunction.Blocks, thenBlock)
	if elseBlock != nil {
		l.currentFunction.Blocks = append(l.currentFunction.Blocks, elseBlock)
	}
	l.currentFunction.Blocks = append(l.currentFunction.Blocks, contBlock)

	l.locals = cloneLocalsMap(condLocals)
	l.currentBlock = thenBlock
	l.lowerStmtAsBlock(v.Then)
	thenResult := branchResult{block: l.currentBlock, locals: l.locals, reaches: !l.blockHasTerminator(l.currentBlock)}
	if thenResult.reaches {
		l.emit(Br{Target: contBlock.Name})
	}

	var elseResult branchResult
	if v.Else != nil {
		l.locals = cloneLocalsMap(condLocals)
		l.currentBlock = elseBlock
		l.lowerStmt(v.Else)
		elseResult = branchResult{block: l.currentBlock, locals: l.locals, reaches: !l.blockHasTerminator(l.currentBlock)}
		if elseResult.reaches {
			l.emit(Br{Target: contBlock.Name})
		}
	} else {
		// No else arm: the false edge of the CondBr goes straight from
		// condBlock to contBlock, carrying condBlock's locals.
		elseResult = branchResult{block: condBlock, locals: condLocals, reaches: true}
	}

	l.currentBlock = contBlock
	l.locals = l.mergeBranches(condLocals, []branchResult{thenResult, elseResult})
}

func (l *Lowerer) lowerStmtAsBlock(s core.Stmt) {
	if b, ok := s.(*core.Block); ok {
		l.lowerBlock(b)
		return
	}
	l.lowerStmt(s)
}

func (l *Lowerer) lowerWhile(v *core.While) {
	header := l.newBlock("while_header")
	body := l.newBlock("while_body")
	exit := l.newBlock("while_exit")

	preheaderBlock := l.currentBlock
	preheader := l.cloneLocals()
	l.emit(Br{Target: header.Name})
	l.currentFunction.Blocks = append(l.currentFunction.Blocks, header, body, exit)

	// Every binding live entering the loop gets a header Phi, initially
	// carrying only the preheader edge; the back-edge from the loop body
	// is patched in once the body's exit locals are known (spec.md §4.3
	// "merges use phi" applies to a loop header the same as an if-join).
	l.currentBlock = header
	phiIdx := make(map[ids.BindingID]int, len(preheader))
	headerLocals := make(map[ids.BindingID]string, len(preheader))
	for _, id := range sortedBindingIDs(preheader) {
		ref := preheader[id]
		dst := l.newValue()
		idx := len(l.currentBlock.Instr)
		l.emit(Phi{Dst: dst, Incoming: map[string]Value{preheaderBlock.Name: {Kind: ValRef, Ref: ref}}})
		phiIdx[id] = idx
		headerLocals[id] = dst
	}
	l.locals = headerLocals

	cond := l.lowerExpr(v.Cond)
	l.emit(CondBr{Cond: cond, True: body.Name, False: exit.Name})

	l.currentBlock = body
	l.lowerBlock(v.Body)
	bodyReaches := !l.blockHasTerminator(l.currentBlock)
	bodyExitBlock := l.currentBlock
	bodyLocals := l.locals
	if bodyReaches {
		l.emit(Br{Target: header.Name})
		for id, idx := range phiIdx {
			ph := header.Instr[idx].(Phi)
			ph.Incoming[bodyExitBlock.Name] = Value{Kind: ValRef, Ref: bodyLocals[id]}
			header.Instr[idx] = ph
		}
	}

	l.currentBlock = exit
	l.locals = cloneLocalsMap(headerLocals)
}

func (l *Lowerer) lowerExpr(e core.Expr) Value {
	switch v := e.(type) {
	case *core.Literal:
		return Value{Kind: ValConstInt, Int64: v.Value}
	case *core.BoolLiteral:
		return Value{Kind: ValConstBool, Bool: v.Value}
	case *core.Var:
		if ref, ok := l.locals[v.ID]; ok {
			return Value{Kind: ValRef, Ref: ref}
		}
		return Value{Kind: ValRef, Ref: fmt.Sprintf("%%undef_%s", v.Name)}
	case *core.UnOp:
		return l.lowerUnOp(v)
	case *core.BinOp:
		return l.lowerBinOp(v)
	case *core.Assign:
		return l.lowerAssign(v)
	case *core.Index:
		return l.lowerIndex(v, false)
	case *core.Field:
		return l.lowerField(v)
	case *core.Alloc:
		return l.lowerAlloc(v)
	case *core.View:
		return l.lowerExpr(v.Base)
	case *core.BorrowShared:
		return l.lowerBorrow(v.Place, CapShared)
	case *core.BorrowMut:
		return l.lowerBorrow(v.Place, CapUnique)
	case *core.ReleaseBorrow:
		return l.lowerExpr(v.Operand)
	case *core.Move:
		return l.lowerExpr(v.Place)
	case *core.PtrOffset:
		idx := l.lowerExpr(v.Idx)
		base := l.lowerExpr(v.Ptr)
		dst := l.newValue()
		l.emit(Gep{Dst: dst, Base: base, Index: idx})
		return Value{Kind: ValRef, Ref: dst}
	case *core.BoundsNarrow:
		start := l.lowerExpr(v.Start)
		length := l.lowerExpr(v.Len)
		ptr := l.lowerExpr(v.Ptr)
		dst := l.newValue()
		l.emit(BoundsNarrow{Dst: dst, Ptr: ptr, Start: start, Len: length})
		return Value{Kind: ValRef, Ref: dst}
	case *core.Call:
		return l.lowerCall(v)
	case *core.Cast:
		// A cast never changes the bit pattern at this IR level (spec.md
		// §4.3 has no reinterpret instruction); the checker has already
		// discharged the capability obligation that makes it sound.
		return l.lowerExpr(v.Operand)
	case *core.CapToken:
		// Capability tokens are a checker-only artifact: they gate a
		// cast but carry no runtime value of their own.
		return l.lowerExpr(v.Arg)
	default:
		return Value{Kind: ValInvalid}
	}
}

func (l *Lowerer) lowerUnOp(v *core.UnOp) Value {
	operand := l.lowerExpr(v.Operand)
	if v.Op == "*" {
		return l.lowerLoad(v.Operand, operand)
	}
	dst := l.newValue()
	l.emit(BinOp{Dst: dst, Op: v.Op, LHS: Value{Kind: ValConstInt, Int64: 0}, RHS: operand})
	return Value{Kind: ValRef, Ref: dst}
}

func (l *Lowerer) lowerBinOp(v *core.BinOp) Value {
	lhs := l.lowerExpr(v.LHS)
	rhs := l.lowerExpr(v.RHS)
	dst := l.newValue()
	switch v.Op {
	case "==", "!=", "<", "<=", ">", ">=":
		l.emit(Cmp{Dst: dst, Pred: cmpPred(v.Op), LHS: lhs, RHS: rhs})
	default:
		l.emit(BinOp{Dst: dst, Op: v.Op, LHS: lhs, RHS: rhs})
	}
	return Value{Kind: ValRef, Ref: dst}
}

func cmpPred(op string) string {
	switch op {
	case "==":
		return "eq"
	case "!=":
		return "ne"
	case "<":
		return "slt"
	case "<=":
		return "sle"
	case ">":
		return "sgt"
	case ">=":
		return "sge"
	default:
		return "eq"
	}
}

// lowerLoad emits the load instruction for a dereference, attaching the
// effect record this access proved during checking (spec.md §4.3).
func (l *Lowerer) lowerLoad(place core.Expr, addr Value) Value {
	dst := l.newValue()
	l.emit(Load{Dst: dst, Addr: addr, Effect: l.effectFor(place)})
	return Value{Kind: ValRef, Ref: dst}
}

func (l *Lowerer) lowerIndex(v *core.Index, isStore bool) Value {
	base := l.lowerExpr(v.Base)
	idx := l.lowerExpr(v.Idx)
	gepDst := l.newValue()
	l.emit(Gep{Dst: gepDst, Base: base, Index: idx})
	narrowed := l.newValue()
	l.emit(BoundsNarrow{Dst: narrowed, Ptr: Value{Kind: ValRef, Ref: gepDst}, Start: idx, Len: Value{Kind: ValConstInt, Int64: 1}})
	if isStore {
		return Value{Kind: ValRef, Ref: narrowed}
	}
	dst := l.newValue()
	l.emit(Load{Dst: dst, Addr: Value{Kind: ValRef, Ref: narrowed}, Effect: l.effectFor(v.Base)})
	return Value{Kind: ValRef, Ref: dst}
}

func (l *Lowerer) lowerField(v *core.Field) Value {
	base := l.lowerExpr(v.Base)
	if v.Name == "len" {
		dst := l.newValue()
		l.emit(Gep{Dst: dst, Base: base, Index: Value{Kind: ValConstInt, Int64: -1}})
		return Value{Kind: ValRef, Ref: dst}
	}
	dst := l.newValue()
	l.emit(Gep{Dst: dst, Base: base, Index: Value{Kind: ValConstInt, Int64: 0}})
	return Value{Kind: ValRef, Ref: dst}
}

func (l *Lowerer) lowerAssign(v *core.Assign) Value {
	val := l.lowerExpr(v.Value)
	switch p := v.Place.(type) {
	case *core.Var:
		l.locals[p.ID] = l.localRef(val)
	case *core.Index:
		addr := l.lowerIndex(p, true)
		l.emit(Store{Addr: addr, Val: val, Effect: l.effectFor(p.Base)})
	case *core.Field:
		base := l.lowerExpr(p.Base)
		l.emit(Store{Addr: base, Val: val, Effect: l.effectFor(p.Base)})
	case *core.UnOp:
		if p.Op == "*" {
			addr := l.lowerExpr(p.Operand)
			l.emit(Store{Addr: addr, Val: val, Effect: l.effectFor(p.Operand)})
		}
	}
	return val
}

func (l *Lowerer) lowerAlloc(v *core.Alloc) Value {
	count := l.lowerExpr(v.Count)
	dst := l.newValue()
	l.emit(Alloc{Dst: dst, Alloc: v.Alloc, Count: count})
	return Value{Kind: ValRef, Ref: dst}
}

func (l *Lowerer) lowerBorrow(place core.Expr, cap CapabilityKind) Value {
	// BorrowShared/BorrowMut attach a capability descriptor to the SSA
	// value produced for the place; they emit no instruction of their
	// own (spec.md §4.3).
	val := l.lowerExpr(place)
	val.Capability = cap
	return val
}

func (l *Lowerer) lowerCall(v *core.Call) Value {
	args := make([]Value, len(v.Args))
	effects := make([]EffectRecord, 0, len(v.Args))
	for i, a := range v.Args {
		args[i] = l.lowerExpr(a)
		effects = append(effects, l.effectFor(a))
	}
	dst := l.newValue()
	l.emit(Call{Dst: dst, Callee: v.Callee, Args: args, Effects: effects})
	return Value{Kind: ValRef, Ref: dst}
}

// effectFor derives the effect record an access through e composes,
// using the allocation the checker already traced for this expression's
// enclosing binding.
func (l *Lowerer) effectFor(e core.Expr) EffectRecord {
	if v, ok := e.(*core.Var); ok {
		if allocID, ok := l.allocs[v.ID]; ok {
			return EffectRecord{Alloc: allocID, Start: Value{Kind: ValConstInt}, Len: Value{Kind: ValConstInt, Int64: 1}, Capability: CapShared}
		}
	}
	return EffectRecord{}
}
