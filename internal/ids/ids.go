// Package ids implements the four disjoint, dense, monotonically assigned
// identifier spaces from the AegisCC data model: binding ids, allocation
// ids, lifetime ids, and borrow ids. Each run of the pipeline constructs a
// fresh *Arenas so no state leaks between compiler invocations.
package ids

// BindingID identifies one let/parameter/local declaration.
type BindingID int

// AllocID identifies one storage region: a stack local of non-trivial
// size, an alloc(T,n) call, or a global. StaticAlloc is the distinguished
// id for 'static storage and is never returned by Arenas.NewAlloc.
type AllocID int

// StaticAlloc is the distinguished allocation id for 'static data.
const StaticAlloc AllocID = 0

// LifetimeID identifies one lifetime: an allocation's or a lexical
// scope's. StaticLifetime is the distinguished id that outlives every
// other lifetime.
type LifetimeID int

// StaticLifetime is the distinguished lifetime id for 'static.
const StaticLifetime LifetimeID = 0

// BorrowID identifies one live borrow edge in a borrow ledger.
type BorrowID int

// NoBorrow marks the absence of a borrow.
const NoBorrow BorrowID = 0

// Arenas owns the monotonic counters for all four identifier spaces in a
// single compiler invocation. The zero value is not usable; use New.
type Arenas struct {
	nextBinding  BindingID
	nextAlloc    AllocID
	nextLifetime LifetimeID
	nextBorrow   BorrowID
}

// New returns a fresh set of arenas with the distinguished ids (the
// 'static allocation and 'static lifetime, and the absence-of-borrow
// sentinel) already reserved at index 0.
func New() *Arenas {
	return &Arenas{
		nextBinding:  1,
		nextAlloc:    1,
		nextLifetime: 1,
		nextBorrow:   1,
	}
}

// NewBinding returns the next fresh binding id.
func (a *Arenas) NewBinding() BindingID {
	id := a.nextBinding
	a.nextBinding++
	return id
}

// NewAlloc returns the next fresh allocation id.
func (a *Arenas) NewAlloc() AllocID {
	id := a.nextAlloc
	a.nextAlloc++
	return id
}

// NewLifetime returns the next fresh lifetime id.
func (a *Arenas) NewLifetime() LifetimeID {
	id := a.nextLifetime
	a.nextLifetime++
	return id
}

// NewBorrow returns the next fresh borrow id.
func (a *Arenas) NewBorrow() BorrowID {
	id := a.nextBorrow
	a.nextBorrow++
	return id
}

// Counts reports how many ids of each space have been allocated so far,
// primarily for determinism tests (same input must yield the same counts
// on every run).
type Counts struct {
	Bindings  int
	Allocs    int
	Lifetimes int
	Borrows   int
}

// Snapshot reports the current allocation counts.
func (a *Arenas) Snapshot() Counts {
	return Counts{
		Bindings:  int(a.nextBinding) - 1,
		Allocs:    int(a.nextAlloc) - 1,
		Lifetimes: int(a.nextLifetime) - 1,
		Borrows:   int(a.nextBorrow) - 1,
	}
}
