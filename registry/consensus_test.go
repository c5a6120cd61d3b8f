package registry

import "testing"

func TestModeSelectPicksHighestCount(t *testing.T) {
	// S4 from spec.md §8: ["Geography","Geography","geography"] -> mode by
	// usage count is "Geography" (2 occurrences beat 1).
	got := ModeSelect([]Candidate{
		{Value: "Geography", ProductID: 1},
		{Value: "Geography", ProductID: 2},
		{Value: "geography", ProductID: 3},
	})
	if got != "Geography" {
		t.Fatalf("ModeSelect = %q, want %q", got, "Geography")
	}
}

func TestModeSelectTieBreaksLexicographically(t *testing.T) {
	got := ModeSelect([]Candidate{
		{Value: "Zed", ProductID: 1},
		{Value: "Alpha", ProductID: 2},
	})
	if got != "Alpha" {
		t.Fatalf("ModeSelect tie-break = %q, want %q", got, "Alpha")
	}
}

func TestModeSelectEmpty(t *testing.T) {
	if got := ModeSelect(nil); got != "" {
		t.Fatalf("ModeSelect(nil) = %q, want empty string", got)
	}
}

func TestModeSelectOptionalInt64NullOnlyWinsWhenSole(t *testing.T) {
	one := int64(1)
	// two non-null observations and one null: null must not win even
	// though it appears once, since non-null observations exist.
	got := ModeSelectOptionalInt64([]*int64{&one, &one, nil}, []int64{10, 20, 30})
	if got == nil || *got != 1 {
		t.Fatalf("expected non-null consensus 1, got %v", got)
	}
}

func TestModeSelectOptionalInt64AllNull(t *testing.T) {
	got := ModeSelectOptionalInt64([]*int64{nil, nil}, []int64{10, 20})
	if got != nil {
		t.Fatalf("expected nil when every observation is null, got %v", *got)
	}
}
