package location

import "testing"

func TestEmptyEqualsEmpty(t *testing.T) {
	if !Empty().Equal(Empty()) {
		t.Fatalf("two empty locations should be equal")
	}
	if Empty().Equal(New(Memory, 0, 8)) {
		t.Fatalf("empty should never equal non-empty")
	}
}

func TestCovers(t *testing.T) {
	outer := New(Stack, 0, 32)
	inner := New(Stack, 8, 16)
	if !outer.Covers(inner) {
		t.Fatalf("%v should cover %v", outer, inner)
	}
	if inner.Covers(outer) {
		t.Fatalf("%v should not cover %v", inner, outer)
	}
}

func TestCoversDifferentDomain(t *testing.T) {
	a := New(Stack, 0, 32)
	b := New(Memory, 0, 32)
	if a.Covers(b) || b.Covers(a) {
		t.Fatalf("locations in different domains should never cover each other")
	}
}

func TestOverlaps(t *testing.T) {
	a := New(Memory, 0, 16)
	b := New(Memory, 8, 16)
	c := New(Memory, 16, 16)

	if !a.Overlaps(b) {
		t.Fatalf("%v and %v should overlap", a, b)
	}
	if a.Overlaps(c) {
		t.Fatalf("%v and %v are adjacent, not overlapping", a, c)
	}
}

func TestEndAddr(t *testing.T) {
	l := New(Register, 4, 8)
	if l.EndAddr() != 12 {
		t.Fatalf("got %d, want 12", l.EndAddr())
	}
}
