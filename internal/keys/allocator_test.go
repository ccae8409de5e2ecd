package keys

import "testing"

func TestAllocator_StartsAtOne(t *testing.T) {
	a := New()
	for _, k := range []Kind{Sponsor, Contract, Member, Benefit} {
		if got := a.Snapshot()[k]; got != 0 {
			t.Errorf("%s: expected last 0 before allocation, got %d", k, got)
		}
		if got := a.Next(k); got != 1 {
			t.Errorf("%s: expected first id 1, got %d", k, got)
		}
	}
}

func TestAllocator_IndependentCounters(t *testing.T) {
	a := New()
	a.Next(Sponsor)
	a.Next(Member)
	a.Next(Member)
	a.Next(Member)

	snap := a.Snapshot()
	if got := snap[Sponsor]; got != 1 {
		t.Errorf("expected sponsor 1, got %d", got)
	}
	if got := snap[Member]; got != 3 {
		t.Errorf("expected member 3, got %d", got)
	}
	if got := snap[Contract]; got != 0 {
		t.Errorf("expected contract 0, got %d", got)
	}
}

func TestAllocator_StrictlyIncreasing(t *testing.T) {
	a := New()
	prev := int64(0)
	for i := 0; i < 100; i++ {
		id := a.Next(Benefit)
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestAllocator_FreshRunRepeats(t *testing.T) {
	first, second := New(), New()
	for i := 0; i < 5; i++ {
		if a, b := first.Next(Contract), second.Next(Contract); a != b {
			t.Errorf("fresh allocators diverged at %d: %d vs %d", i, a, b)
		}
	}
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		Sponsor:  "sponsor",
		Contract: "contract",
		Member:   "member",
		Benefit:  "benefit",
		Kind(99): "unknown",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}

func TestAllocator_Snapshot(t *testing.T) {
	a := New()
	a.Next(Member)
	a.Next(Member)
	a.Next(Benefit)

	snap := a.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 kinds in snapshot, got %d", len(snap))
	}
	if snap[Member] != 2 || snap[Benefit] != 1 || snap[Sponsor] != 0 {
		t.Errorf("unexpected snapshot %v", snap)
	}
}
