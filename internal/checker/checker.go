// Package checker implements the Aegis Core type & effect checker
// (spec.md §4.2): it assigns a semantic type to every expression, infers
// lifetimes, tracks per-binding ownership state, maintains a borrow
// ledger per allocation, and verifies initialization state. Accepted
// programs leave the tree annotated for internal/ir to consume; rejected
// programs leave diagnostics in the sink and lowering never runs
// (spec.md §5).
package checker

import (
	"github.com/geeknik/aegis-c-compiler/internal/core"
	"github.com/geeknik/aegis-c-compiler/internal/diagnostic"
	"github.com/geeknik/aegis-c-compiler/internal/ids"
	"github.com/geeknik/aegis-c-compiler/internal/position"
	"github.com/geeknik/aegis-c-compiler/internal/types"
)

// OwnState is a binding's position in the state machine of spec.md §4.2:
// Uninit -> Init (write) -> Moved (move out), terminal. MaybeInit arises
// only from a control-flow join where one predecessor left Init and
// another left Uninit.
type OwnState int

const (
	Uninit OwnState = iota
	MaybeInit
	Init
	Moved
)

// BindingState is everything the checker tracks for one binding id.
type BindingState struct {
	Type     *types.Type
	State    OwnState
	Lifetime ids.LifetimeID
	DeclSpan position.Span
	Mutable  bool
	MovedAt  position.Span
}

func (s BindingState) clone() BindingState { return s }

// Result is what Check returns: accepted programs are annotated in
// place (every core.Expr's Type() is set); FinalState records each
// binding's terminal ownership state for internal/ir's drop lowering.
type Result struct {
	Sink        *diagnostic.Sink
	FinalState  map[ids.BindingID]OwnState
	BindingType map[ids.BindingID]*types.Type
}

// Checker walks one Aegis Core program.
type Checker struct {
	sink   *diagnostic.Sink
	arenas *ids.Arenas

	bindings    map[ids.BindingID]*BindingState
	ledger      map[ids.AllocID][]ledgerEntry
	bindingLoc  map[ids.BindingID]ids.AllocID    // provenance: binding -> the allocation its value traces to
	bindingBrw  map[ids.BindingID]ids.BorrowID   // provenance: binding -> the borrow its value was produced by, if any
	ptrLifetime map[ids.BindingID]ids.LifetimeID // lifetime carried by a pointer-valued binding
	allocCount  map[ids.AllocID]int64            // known compile-time element count, when literal
	allocType   map[ids.AllocID]*types.Type      // element type of the allocation
	provenBound map[ids.BindingID]core.Expr      // induction-variable upper-bound expr while inside a while body

	lifetimeParent map[ids.LifetimeID]ids.LifetimeID
	currentLT      ids.LifetimeID

	unsafeDepth int

	funcs   map[string]*core.FuncDecl
	structs map[string]*core.StructDecl
}

type borrowKind int

const (
	borrowShared borrowKind = iota
	borrowUnique
)

type ledgerEntry struct {
	Borrow   ids.BorrowID
	Kind     borrowKind
	Lifetime ids.LifetimeID
	Span     position.Span
}

// Check runs the full pass over prog.
func Check(prog *core.Program, arenas *ids.Arenas) *Result {
	c := &Checker{
		sink:           diagnostic.NewSink(),
		arenas:         arenas,
		bindings:       map[ids.BindingID]*BindingState{},
		ledger:         map[ids.AllocID][]ledgerEntry{},
		bindingLoc:     map[ids.BindingID]ids.AllocID{},
		bindingBrw:     map[ids.BindingID]ids.BorrowID{},
		ptrLifetime:    map[ids.BindingID]ids.LifetimeID{},
		allocCount:     map[ids.AllocID]int64{},
		allocType:      map[ids.AllocID]*types.Type{},
		provenBound:    map[ids.BindingID]core.Expr{},
		lifetimeParent: map[ids.LifetimeID]ids.LifetimeID{},
		currentLT:      ids.StaticLifetime,
		funcs:          map[string]*core.FuncDecl{},
		structs:        map[string]*core.StructDecl{},
	}
	for _, d := range prog.Decls {
		switch v := d.(type) {
		case *core.FuncDecl:
			c.funcs[v.Name] = v
		case *core.StructDecl:
			c.structs[v.Name] = v
		}
	}
	for _, d := range prog.Decls {
		if fn, ok := d.(*core.FuncDecl); ok {
			c.checkFunc(fn)
		}
	}
	final := map[ids.BindingID]OwnState{}
	btypes := map[ids.BindingID]*types.Type{}
	for id, st := range c.bindings {
		final[id] = st.State
		btypes[id] = st.Type
	}
	return &Result{Sink: c.sink, FinalState: final, BindingType: btypes}
}

func (c *Checker) report(code string, cat diagnostic.Category, span position.Span, format string, args ...interface{}) *diagnostic.Builder {
	return diagnostic.New(code, cat).At(span).Msg(format, args...)
}

func (c *Checker) checkFunc(fn *core.FuncDecl) {
	for _, p := range fn.Params {
		c.bindings[p.ID] = &BindingState{Type: p.Type, State: Init, Lifetime: c.currentLT, DeclSpan: fn.Sp, Mutable: p.Mutable}
	}
	c.checkBlock(fn.Body)
}

// ===== Lifetimes =====

func (c *Checker) enterBlock(b *core.Block) (prevLT ids.LifetimeID) {
	c.lifetimeParent[b.Lifetime] = b.Parent
	prevLT = c.currentLT
	c.currentLT = b.Lifetime
	return prevLT
}

func (c *Checker) isAncestor(anc, lt ids.LifetimeID) bool {
	if anc == ids.StaticLifetime {
		return true
	}
	for lt != ids.StaticLifetime {
		if lt == anc {
			return true
		}
		parent, ok := c.lifetimeParent[lt]
		if !ok {
			return false
		}
		lt = parent
	}
	return anc == ids.StaticLifetime
}

// ===== Blocks and statements =====

func (c *Checker) checkBlock(b *core.Block) {
	prevLT := c.enterBlock(b)
	for _, s := range b.Stmts {
		c.checkStmt(s)
	}
	// Drop order: reverse declaration order (spec.md §3 "Lifecycle",
	// §4.2 rule 6).
	for i := len(b.Bindings) - 1; i >= 0; i-- {
		id := b.Bindings[i]
		st := c.bindings[id]
		if st == nil {
			continue
		}
		if st.State == Init && st.Type != nil && st.Type.Kind == types.KindOwnBuf {
			// Owned, still live at scope exit: an implicit Drop is
			// emitted by internal/ir from FinalState == Init.
		}
	}
	// Implicit borrow release at scope exit (spec.md §3 "Lifecycle"):
	// any ledger entry whose borrower lifetime is this block's lifetime
	// was never explicitly released and goes out of scope here.
	for alloc, entries := range c.ledger {
		kept := entries[:0]
		for _, e := range entries {
			if e.Lifetime != b.Lifetime {
				kept = append(kept, e)
			}
		}
		c.ledger[alloc] = kept
	}
	c.currentLT = prevLT
}

func (c *Checker) checkStmt(s core.Stmt) {
	switch v := s.(type) {
	case *core.Let:
		c.checkLet(v)
	case *core.ExprStmt:
		c.checkExpr(v.Expr)
	case *core.If:
		c.checkIf(v)
	case *core.While:
		c.checkWhile(v)
	case *core.Return:
		if v.Value != nil {
			c.checkExpr(v.Value)
		}
	case *core.UnsafeBlock:
		c.unsafeDepth++
		c.checkBlock(v.Body)
		c.unsafeDepth--
	case *core.Block:
		c.checkBlock(v)
	case *core.ErrorStmt:
		// Already diagnosed by desugar.
	}
}

func (c *Checker) checkLet(v *core.Let) {
	state := Uninit
	if v.Init != nil {
		c.checkExpr(v.Init)
		state = Init
		if allocID, ok := c.traceAlloc(v.Init); ok {
			c.bindingLoc[v.ID] = allocID
		}
		if borrowID, ok := c.traceBorrow(v.Init); ok {
			c.bindingBrw[v.ID] = borrowID
		}
		if lt, ok := c.tracePointerLifetime(v.Init); ok {
			c.ptrLifetime[v.ID] = lt
		}
	}
	c.bindings[v.ID] = &BindingState{Type: v.Type, State: state, Lifetime: c.currentLT, DeclSpan: v.Sp, Mutable: v.Mutable}
}

func (c *Checker) checkIf(v *core.If) {
	c.checkExpr(v.Cond)
	pre := c.snapshot()
	c.checkStmtAsBlock(v.Then)
	thenState := c.snapshot()

	c.restore(pre)
	if v.Else != nil {
		c.checkStmt(v.Else)
	}
	elseState := c.snapshot()

	c.restore(c.join(thenState, elseState))
}

func (c *Checker) checkStmtAsBlock(s core.Stmt) {
	if b, ok := s.(*core.Block); ok {
		c.checkBlock(b)
		return
	}
	c.checkStmt(s)
}

func (c *Checker) checkWhile(v *core.While) {
	c.checkExpr(v.Cond)
	pre := c.snapshot()

	if lhs, rhs, ok := inductionBound(v.Cond); ok {
		c.provenBound[lhs] = rhs
		defer delete(c.provenBound, lhs)
	}

	c.checkBlock(v.Body)
	post := c.snapshot()
	// The loop may run zero times: join the post-body state with the
	// pre-loop state, approximating the dataflow fixed point in one
	// pass (spec.md §9 "Control-flow join").
	c.restore(c.join(pre, post))
}

// inductionBound recognizes `i < bound` conditions so Index can prove
// the loop's induction variable stays in range (spec.md §4.2 rule 4,
// end-to-end scenario 1).
func inductionBound(cond core.Expr) (ids.BindingID, core.Expr, bool) {
	b, ok := cond.(*core.BinOp)
	if !ok || b.Op != "<" {
		return 0, nil, false
	}
	v, ok := b.LHS.(*core.Var)
	if !ok {
		return 0, nil, false
	}
	return v.ID, b.RHS, true
}

// ===== Control-flow state snapshot/join =====

type snapshot struct {
	bindings map[ids.BindingID]BindingState
	ledger   map[ids.AllocID][]ledgerEntry
}

func (c *Checker) snapshot() snapshot {
	bm := make(map[ids.BindingID]BindingState, len(c.bindings))
	for id, st := range c.bindings {
		bm[id] = st.clone()
	}
	lm := make(map[ids.AllocID][]ledgerEntry, len(c.ledger))
	for id, entries := range c.ledger {
		cp := make([]ledgerEntry, len(entries))
		copy(cp, entries)
		lm[id] = cp
	}
	return snapshot{bindings: bm, ledger: lm}
}

func (c *Checker) restore(s snapshot) {
	c.bindings = map[ids.BindingID]*BindingState{}
	for id, st := range s.bindings {
		st := st
		c.bindings[id] = &st
	}
	c.ledger = s.ledger
}

// join implements the Uninit/MaybeInit/Init meet of spec.md §4.2: if the
// two branches disagree and either left the binding Moved, the merge is
// Moved; any other disagreement merges to MaybeInit.
func (c *Checker) join(a, b snapshot) snapshot {
	out := snapshot{bindings: map[ids.BindingID]BindingState{}, ledger: a.ledger}
	for id, sa := range a.bindings {
		sb, ok := b.bindings[id]
		if !ok {
			out.bindings[id] = sa
			continue
		}
		merged := sa
		if sa.State != sb.State {
			if sa.State == Moved || sb.State == Moved {
				merged.State = Moved
			} else {
				merged.State = MaybeInit
			}
		}
		out.bindings[id] = merged
	}
	for id, sb := range b.bindings {
		if _, ok := out.bindings[id]; !ok {
			out.bindings[id] = sb
		}
	}
	return out
}
