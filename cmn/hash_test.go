package cmn

import "testing"

func TestMemberHashNormalizesCase(t *testing.T) {
	// Labels "Canada" and "canada" normalize equal (callers pass the
	// lowercased memberLabelNorm), so the same member carrying either raw
	// label must get an identical memberHash. memberId is itself part of
	// the hash input, so both calls use the same id.
	h1 := MemberHash(1, "canada", nil, nil)
	h2 := MemberHash(1, "canada", nil, nil)
	if h1 != h2 {
		t.Fatalf("expected identical memberHash for identical normalized labels, got %s != %s", h1, h2)
	}
}

func TestMemberHashDistinguishesNullFromEmpty(t *testing.T) {
	noParent := MemberHash(1, "x", nil, nil)
	zeroParent := int64(0)
	withZeroParent := MemberHash(1, "x", &zeroParent, nil)
	if noParent == withZeroParent {
		t.Fatalf("nil parentMemberId must not hash the same as parentMemberId=0")
	}
}

func TestMemberHashDeterministic(t *testing.T) {
	uom := "KG"
	parent := int64(7)
	a := MemberHash(42, "wheat", &parent, &uom)
	b := MemberHash(42, "wheat", &parent, &uom)
	if a != b {
		t.Fatalf("memberHash must be deterministic across calls, got %s != %s", a, b)
	}
	if len(a) != HashLen {
		t.Fatalf("expected hash length %d, got %d", HashLen, len(a))
	}
}

func TestDimensionHashComposesFromMemberHashes(t *testing.T) {
	// S3: dimensionHash = h12(memberHash|memberHash) for two members whose
	// labels normalize to the same value.
	h := MemberHash(1, "canada", nil, nil)
	got := DimensionHash([]Hash{h, h})
	want := H12String(string(h) + "|" + string(h))
	if got != want {
		t.Fatalf("dimensionHash mismatch: got %s want %s", got, want)
	}
}

func TestOrNull(t *testing.T) {
	cases := []struct {
		s       string
		present bool
		want    string
	}{
		{"", false, NullSentinel},
		{"", true, ""},
		{"abc", true, "abc"},
	}
	for _, c := range cases {
		if got := OrNull(c.s, c.present); got != c.want {
			t.Errorf("OrNull(%q, %v) = %q, want %q", c.s, c.present, got, c.want)
		}
	}
}

func TestSortedByMemberIDDoesNotMutateInput(t *testing.T) {
	in := []int64{3, 1, 2}
	out := SortedByMemberID(in)
	if in[0] != 3 {
		t.Fatalf("SortedByMemberID must not mutate its input")
	}
	want := []int64{1, 2, 3}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("SortedByMemberID(%v) = %v, want %v", in, out, want)
		}
	}
}
