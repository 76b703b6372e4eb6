package prng

import "testing"

func TestNextIsDeterministicForFixedSeed(t *testing.T) {
	seed := [16]uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

	a := New(seed)
	b := New(seed)

	for i := 0; i < 100; i++ {
		va, vb := a.NextUint32(), b.NextUint32()
		if va != vb {
			t.Fatalf("draw %d diverged: %d != %d", i, va, vb)
		}
	}
}

func TestNextNarrowsWidth(t *testing.T) {
	w := NewFromClock()
	v := Next[uint8](w)
	_ = v // any uint8 is in range by construction; this just must compile and run
}

func TestNextDoesNotRepeatTrivially(t *testing.T) {
	seed := [16]uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	w := New(seed)

	seen := map[uint32]bool{}
	for i := 0; i < 32; i++ {
		seen[w.NextUint32()] = true
	}

	if len(seen) < 30 {
		t.Fatalf("expected mostly-unique draws, got %d unique of 32", len(seen))
	}
}
