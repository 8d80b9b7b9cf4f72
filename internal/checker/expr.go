package checker

import (
	"github.com/geeknik/aegis-c-compiler/internal/core"
	"github.com/geeknik/aegis-c-compiler/internal/diagnostic"
	"github.com/geeknik/aegis-c-compiler/internal/ids"
	"github.com/geeknik/aegis-c-compiler/internal/types"
)

// elemOf returns the element type a pointer/view/owning-buffer type
// gives access to.
func elemOf(t *types.Type) *types.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case types.KindOwnBuf:
		if t.Elem != nil && t.Elem.Kind == types.KindArray {
			return t.Elem.Elem
		}
		return t.Elem
	case types.KindSharedP, types.KindUniqueP, types.KindRawP, types.KindView:
		return t.Elem
	default:
		return nil
	}
}

// checkExpr type-checks e, enforcing the rules of spec.md §4.2, and
// annotates e with its resulting type.
func (c *Checker) checkExpr(e core.Expr) *types.Type {
	var ty *types.Type
	switch v := e.(type) {
	case *core.Literal:
		ty = types.NewScalar(types.I32)
	case *core.BoolLiteral:
		ty = types.NewScalar(types.Bool)
	case *core.Var:
		ty = c.checkVarRead(v)
	case *core.UnOp:
		ty = c.checkUnOp(v)
	case *core.BinOp:
		ty = c.checkBinOp(v)
	case *core.Index:
		ty = c.checkIndex(v)
	case *core.Field:
		ty = c.checkField(v)
	case *core.Assign:
		ty = c.checkAssign(v)
	case *core.Alloc:
		ty = c.checkAlloc(v)
	case *core.View:
		ty = c.checkView(v)
	case *core.BorrowShared:
		ty = c.checkBorrowShared(v)
	case *core.BorrowMut:
		ty = c.checkBorrowMut(v)
	case *core.ReleaseBorrow:
		ty = c.checkReleaseBorrow(v)
	case *core.Move:
		ty = c.checkMove(v)
	case *core.PtrOffset:
		c.checkExpr(v.Idx)
		ty = c.checkExpr(v.Ptr)
	case *core.BoundsNarrow:
		c.checkExpr(v.Start)
		c.checkExpr(v.Len)
		ty = c.checkExpr(v.Ptr)
	case *core.Call:
		ty = c.checkCall(v)
	case *core.Cast:
		ty = c.checkCast(v)
	case *core.CapToken:
		ty = c.checkCapToken(v)
	case *core.ErrorExpr:
		ty = &types.Type{Kind: types.KindInvalid}
	default:
		ty = &types.Type{Kind: types.KindInvalid}
	}
	e.SetType(ty)
	return ty
}

func (c *Checker) checkVarRead(v *core.Var) *types.Type {
	st := c.bindings[v.ID]
	if st == nil {
		return &types.Type{Kind: types.KindInvalid}
	}
	switch st.State {
	case Moved:
		c.report("E1001", diagnostic.CategoryOwnership, v.Sp, "use of moved value %q", v.Name).
			Because(st.MovedAt, "value moved here").
			Suggest(diagnostic.SuggestIntroduceMove).
			Report(c.sink)
	case Uninit, MaybeInit:
		c.report("E5001", diagnostic.CategoryInit, v.Sp, "use of possibly-uninitialized value %q", v.Name).
			Because(st.DeclSpan, "declared here").
			Suggest(diagnostic.SuggestInitializeBinding).
			Report(c.sink)
	}
	return st.Type
}

func (c *Checker) checkUnOp(v *core.UnOp) *types.Type {
	operandTy := c.checkExpr(v.Operand)
	if v.Op == "*" {
		return c.checkDeref(v, operandTy, false)
	}
	if v.Op == "!" {
		return types.NewScalar(types.Bool)
	}
	return operandTy
}

func (c *Checker) checkDeref(e core.Expr, operandTy *types.Type, isStore bool) *types.Type {
	if operandTy == nil {
		return &types.Type{Kind: types.KindInvalid}
	}
	switch operandTy.Kind {
	case types.KindRawP:
		if c.unsafeDepth == 0 {
			c.report("E6001", diagnostic.CategoryUnsafe, e.Span(), "dereference of raw pointer outside unsafe").
				Suggest(diagnostic.SuggestWrapInUnsafe).Report(c.sink)
		}
	case types.KindSharedP, types.KindUniqueP:
		c.checkPointerLiveness(e)
		allocID, ok := c.traceAllocExpr(e)
		if !ok && c.unsafeDepth == 0 {
			c.report("E4003", diagnostic.CategoryBounds, e.Span(), "pointer has no traceable provenance").
				Suggest(diagnostic.SuggestRewriteAsSlice).Report(c.sink)
		}
		if isStore {
			c.checkMutabilityCapability(e, allocID, operandTy)
		}
	}
	return elemOf(operandTy)
}

func (c *Checker) checkPointerLiveness(e core.Expr) {
	v, ok := e.(*core.Var)
	if !ok {
		return
	}
	lt, ok := c.ptrLifetime[v.ID]
	if !ok {
		return
	}
	if !c.isAncestor(lt, c.currentLT) {
		c.report("E3001", diagnostic.CategoryLifetime, e.Span(), "dereference of pointer whose lifetime has ended").
			Suggest(diagnostic.SuggestNarrowBorrowScope).Report(c.sink)
	}
}

func (c *Checker) checkMutabilityCapability(e core.Expr, allocID ids.AllocID, ty *types.Type) {
	if ty.Kind != types.KindUniqueP {
		c.report("E2001", diagnostic.CategoryBorrow, e.Span(), "store through a non-unique pointer").
			Suggest(diagnostic.SuggestNarrowBorrowScope).Report(c.sink)
		return
	}
	entries := c.ledger[allocID]
	found := false
	for _, entry := range entries {
		if entry.Kind == borrowUnique {
			found = true
			break
		}
	}
	if !found {
		c.report("E2002", diagnostic.CategoryBorrow, e.Span(), "store through a pointer with no active unique capability").
			Suggest(diagnostic.SuggestNarrowBorrowScope).Report(c.sink)
	}
}

// checkCast enforces spec.md §4.2 rules 4 and 7: a cast from an integer
// to a pointer type is rejected outside unsafe code (E4xxx), and inside
// unsafe code it must carry an accompanying alloc_cap token (E6xxx) —
// forge_cap/alias_cap never satisfy it, since they are never produced by
// source text that passes checkCapToken.
func (c *Checker) checkCast(v *core.Cast) *types.Type {
	operandTy := c.checkExpr(v.Operand)

	var tokenKind string
	if v.Token != nil {
		c.checkExpr(v.Token)
		if ct, ok := v.Token.(*core.CapToken); ok {
			tokenKind = ct.Kind
		}
	}

	isPtrTarget := v.Target != nil && (v.Target.Kind == types.KindRawP || v.Target.Kind == types.KindSharedP || v.Target.Kind == types.KindUniqueP)
	isIntOperand := operandTy != nil && operandTy.Kind == types.KindScalar && operandTy.Scalar.IsInteger()

	if isPtrTarget && isIntOperand {
		if c.unsafeDepth == 0 {
			c.report("E4004", diagnostic.CategoryBounds, v.Sp, "integer-to-pointer cast outside unsafe").
				Suggest(diagnostic.SuggestWrapInUnsafe).Report(c.sink)
		} else if tokenKind != "alloc_cap" {
			c.report("E6002", diagnostic.CategoryUnsafe, v.Sp, "integer-to-pointer cast requires an alloc_cap token").
				Suggest(diagnostic.SuggestWrapInUnsafe).Report(c.sink)
		}
	}
	return v.Target
}

// checkCapToken enforces spec.md §4.2 rule 7's "compiler-introduced
// only" restriction: forge_cap and alias_cap are recognized surface
// forms so the checker can name them in a diagnostic, but v0 never
// accepts a user-written token of either kind.
func (c *Checker) checkCapToken(v *core.CapToken) *types.Type {
	c.checkExpr(v.Arg)
	if v.Kind == "forge_cap" || v.Kind == "alias_cap" {
		c.report("E6003", diagnostic.CategoryUnsafe, v.Sp, "%q is compiler-introduced only; user-written capability tokens of this kind are rejected", v.Kind).
			Suggest(diagnostic.SuggestWrapInUnsafe).Report(c.sink)
	}
	return &types.Type{Kind: types.KindInvalid}
}

func (c *Checker) checkBinOp(v *core.BinOp) *types.Type {
	lhs := c.checkExpr(v.LHS)
	c.checkExpr(v.RHS)
	switch v.Op {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		return types.NewScalar(types.Bool)
	default:
		return lhs
	}
}

func (c *Checker) checkIndex(v *core.Index) *types.Type {
	baseTy := c.checkExpr(v.Base)
	idxTy := c.checkExpr(v.Idx)
	_ = idxTy
	c.checkIndexBounds(v)
	return elemOf(baseTy)
}

// checkIndexBounds discharges spec.md §4.2 rule 4's bounds obligation:
// a literal index against a statically known allocation size, or an
// induction variable bounded by that allocation's `.len`, is provably
// in range; otherwise the program is rejected as unable to prove bounds.
func (c *Checker) checkIndexBounds(v *core.Index) {
	allocID, hasAlloc := c.traceAllocExpr(v.Base)
	count, hasCount := c.allocCount[allocID]

	if lit, ok := v.Idx.(*core.Literal); ok {
		if hasAlloc && hasCount {
			if lit.Value < 0 || lit.Value >= count {
				c.report("E4001", diagnostic.CategoryBounds, v.Sp, "index %d is out of bounds for a buffer of length %d", lit.Value, count).
					Suggest(diagnostic.SuggestRewriteAsSlice).Report(c.sink)
			}
			return
		}
		if c.unsafeDepth > 0 {
			return
		}
		c.report("E4002", diagnostic.CategoryBounds, v.Sp, "cannot prove index is in bounds").
			Suggest(diagnostic.SuggestRewriteAsSlice).Report(c.sink)
		return
	}

	idxVar, ok := v.Idx.(*core.Var)
	if ok {
		if bound, hasBound := c.provenBound[idxVar.ID]; hasBound {
			if c.boundMatchesBase(bound, v.Base, allocID, hasAlloc, count, hasCount) {
				return
			}
		}
	}
	if c.unsafeDepth > 0 {
		return
	}
	c.report("E4002", diagnostic.CategoryBounds, v.Sp, "cannot prove index is in bounds").
		Suggest(diagnostic.SuggestRewriteAsSlice).Report(c.sink)
}

func (c *Checker) boundMatchesBase(bound core.Expr, base core.Expr, allocID ids.AllocID, hasAlloc bool, count int64, hasCount bool) bool {
	if field, ok := bound.(*core.Field); ok && field.Name == "len" {
		if !hasAlloc {
			return false
		}
		fieldAlloc, ok := c.traceAllocExpr(field.Base)
		return ok && fieldAlloc == allocID
	}
	if lit, ok := bound.(*core.Literal); ok && hasAlloc && hasCount {
		return lit.Value <= count
	}
	return false
}

func (c *Checker) checkField(v *core.Field) *types.Type {
	baseTy := c.checkExpr(v.Base)
	if v.Name == "len" {
		return types.NewScalar(types.USize)
	}
	if baseTy != nil && baseTy.Kind == types.KindStruct {
		if sd, ok := c.structs[baseTy.Name]; ok {
			if ft, ok := sd.Fields[v.Name]; ok {
				return ft
			}
		}
	}
	return &types.Type{Kind: types.KindInvalid}
}

func (c *Checker) checkAssign(v *core.Assign) *types.Type {
	valTy := c.checkExpr(v.Value)
	c.checkAssignPlace(v.Place, valTy)
	return valTy
}

func (c *Checker) checkAssignPlace(place core.Expr, valTy *types.Type) {
	switch p := place.(type) {
	case *core.Var:
		c.checkExpr(place) // records a read of the old value's provenance metadata consistently
		st := c.bindings[p.ID]
		if st == nil {
			return
		}
		if st.State == Init && !st.Mutable {
			c.report("E1002", diagnostic.CategoryOwnership, place.Span(), "assignment to immutable binding %q", p.Name).
				Suggest(diagnostic.SuggestIntroduceMove).Report(c.sink)
		}
		st.State = Init
	case *core.Index:
		baseTy := c.checkExpr(p.Base)
		c.checkExpr(p.Idx)
		c.checkIndexBounds(p)
		if baseTy != nil && (baseTy.Kind == types.KindSharedP || baseTy.Kind == types.KindUniqueP) {
			allocID, _ := c.traceAllocExpr(p.Base)
			c.checkMutabilityCapability(place, allocID, baseTy)
		}
		// Writes through own<[T]> directly (the owner) or through
		// view<T> (a direct slice projection, not ledger-gated — it is
		// produced by `.view()`, not one of the borrow intrinsics) are
		// both permitted once bounds are discharged.
	case *core.Field:
		c.checkExpr(p.Base)
	case *core.UnOp:
		if p.Op == "*" {
			operandTy := c.checkExpr(p.Operand)
			c.checkDeref(p, operandTy, true)
		}
	}
}

func (c *Checker) checkAlloc(v *core.Alloc) *types.Type {
	c.checkExpr(v.Count)
	c.allocType[v.Alloc] = v.Elem
	if lit, ok := v.Count.(*core.Literal); ok {
		c.allocCount[v.Alloc] = lit.Value
	}
	return types.OwnSlice(v.Elem)
}

func (c *Checker) checkView(v *core.View) *types.Type {
	baseTy := c.checkExpr(v.Base)
	elem := elemOf(baseTy)
	return types.View(elem)
}

func (c *Checker) checkBorrowShared(v *core.BorrowShared) *types.Type {
	placeTy := c.checkExpr(v.Place)
	allocID, _ := c.traceAllocExpr(v.Place)
	for _, entry := range c.ledger[allocID] {
		if entry.Kind == borrowUnique {
			c.report("E2003", diagnostic.CategoryBorrow, v.Sp, "shared borrow conflicts with an active unique borrow").
				Because(entry.Span, "unique borrow created here").
				Suggest(diagnostic.SuggestNarrowBorrowScope).Report(c.sink)
			break
		}
	}
	c.ledger[allocID] = append(c.ledger[allocID], ledgerEntry{Borrow: v.Borrow, Kind: borrowShared, Lifetime: c.currentLT, Span: v.Sp})
	return types.SharedPtr(elemOf(placeTy))
}

func (c *Checker) checkBorrowMut(v *core.BorrowMut) *types.Type {
	placeTy := c.checkExpr(v.Place)
	if pv, ok := v.Place.(*core.Var); ok {
		if st := c.bindings[pv.ID]; st != nil && !st.Mutable {
			c.report("E2004", diagnostic.CategoryBorrow, v.Sp, "mutable borrow of immutable binding %q", pv.Name).
				Suggest(diagnostic.SuggestNarrowBorrowScope).Report(c.sink)
		}
	}
	allocID, _ := c.traceAllocExpr(v.Place)
	if entries := c.ledger[allocID]; len(entries) > 0 {
		c.report("E2005", diagnostic.CategoryBorrow, v.Sp, "mutable borrow conflicts with an active borrow").
			Because(entries[0].Span, "earlier borrow created here").
			Suggest(diagnostic.SuggestNarrowBorrowScope).Report(c.sink)
	}
	c.ledger[allocID] = append(c.ledger[allocID], ledgerEntry{Borrow: v.Borrow, Kind: borrowUnique, Lifetime: c.currentLT, Span: v.Sp})
	return types.UniquePtr(elemOf(placeTy))
}

func (c *Checker) checkReleaseBorrow(v *core.ReleaseBorrow) *types.Type {
	ty := c.checkExpr(v.Operand)
	if pv, ok := v.Operand.(*core.Var); ok {
		if borrowID, ok := c.bindingBrw[pv.ID]; ok {
			if allocID, ok := c.bindingLoc[pv.ID]; ok {
				entries := c.ledger[allocID]
				for i, e := range entries {
					if e.Borrow == borrowID {
						c.ledger[allocID] = append(entries[:i], entries[i+1:]...)
						break
					}
				}
			}
		}
	}
	return ty
}

func (c *Checker) checkMove(v *core.Move) *types.Type {
	ty := c.checkExpr(v.Place)
	if pv, ok := v.Place.(*core.Var); ok {
		if st := c.bindings[pv.ID]; st != nil {
			if st.State == Moved {
				c.report("E1003", diagnostic.CategoryOwnership, v.Sp, "value %q already moved", pv.Name).
					Because(st.MovedAt, "previously moved here").
					Suggest(diagnostic.SuggestIntroduceMove).Report(c.sink)
			}
			st.State = Moved
			st.MovedAt = v.Sp
		}
	}
	return ty
}

func (c *Checker) checkCall(v *core.Call) *types.Type {
	fn, known := c.funcs[v.Callee]
	for i, arg := range v.Args {
		argTy := c.checkExpr(arg)
		if av, ok := arg.(*core.Var); ok && !types.IsCopy(argTy) {
			if st := c.bindings[av.ID]; st != nil {
				st.State = Moved
				st.MovedAt = arg.Span()
			}
		}
		_ = i
	}
	if known {
		return fn.ReturnType
	}
	return types.Void()
}

// ===== Provenance tracing =====

func (c *Checker) traceAlloc(e core.Expr) (ids.AllocID, bool) {
	switch v := e.(type) {
	case *core.Alloc:
		return v.Alloc, true
	case *core.Var:
		id, ok := c.bindingLoc[v.ID]
		return id, ok
	case *core.View:
		return c.traceAlloc(v.Base)
	case *core.BorrowShared:
		return c.traceAlloc(v.Place)
	case *core.BorrowMut:
		return c.traceAlloc(v.Place)
	case *core.Move:
		return c.traceAlloc(v.Place)
	case *core.PtrOffset:
		return c.traceAlloc(v.Ptr)
	case *core.BoundsNarrow:
		return c.traceAlloc(v.Ptr)
	default:
		return 0, false
	}
}

// traceAllocExpr resolves provenance for an already-checked expression
// node (used from contexts where re-evaluating side effects would be
// wrong, e.g. inside checkIndexBounds after checkExpr already ran).
func (c *Checker) traceAllocExpr(e core.Expr) (ids.AllocID, bool) {
	return c.traceAlloc(e)
}

func (c *Checker) traceBorrow(e core.Expr) (ids.BorrowID, bool) {
	switch v := e.(type) {
	case *core.BorrowShared:
		return v.Borrow, true
	case *core.BorrowMut:
		return v.Borrow, true
	default:
		return 0, false
	}
}

func (c *Checker) tracePointerLifetime(e core.Expr) (ids.LifetimeID, bool) {
	switch e.(type) {
	case *core.BorrowShared, *core.BorrowMut:
		return c.currentLT, true
	default:
		return 0, false
	}
}
