package ids

import "testing"

func TestNewReservesSentinels(t *testing.T) {
	a := New()
	if a.Snapshot() != (Counts{}) {
		t.Fatalf("fresh arenas should report zero allocations, got %+v", a.Snapshot())
	}
	if StaticAlloc != 0 || StaticLifetime != 0 || NoBorrow != 0 {
		t.Fatalf("distinguished ids must be the zero value of their space")
	}
}

func TestMonotonicAndDense(t *testing.T) {
	a := New()
	first := a.NewBinding()
	second := a.NewBinding()
	if second != first+1 {
		t.Fatalf("binding ids must be dense and monotonic: %d then %d", first, second)
	}

	b1 := a.NewAlloc()
	if b1 == StaticAlloc {
		t.Fatalf("NewAlloc must never return the static sentinel")
	}

	l1 := a.NewLifetime()
	if l1 == StaticLifetime {
		t.Fatalf("NewLifetime must never return the static sentinel")
	}

	bw1 := a.NewBorrow()
	if bw1 == NoBorrow {
		t.Fatalf("NewBorrow must never return the no-borrow sentinel")
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	run := func() Counts {
		a := New()
		for i := 0; i < 5; i++ {
			a.NewBinding()
		}
		for i := 0; i < 3; i++ {
			a.NewAlloc()
			a.NewLifetime()
		}
		a.NewBorrow()
		return a.Snapshot()
	}

	first := run()
	second := run()
	if first != second {
		t.Fatalf("identical allocation sequences must yield identical counts: %+v vs %+v", first, second)
	}
}
