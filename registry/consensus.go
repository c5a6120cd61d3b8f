package registry

import (
	"sort"
	"strconv"
)

// Candidate is one observed value contributed by a (productid,
// dimensionPosition) group toward a consensus field (spec.md §4.G Stage
// 3/4: "mode by usage count ... tie-break lexicographically, then by
// smallest productid").
type Candidate struct {
	Value     string
	ProductID int64
}

// ModeSelect picks the consensus value: highest occurrence count wins;
// ties break lexicographically on the value, then by the smallest
// contributing productid (design note in spec.md §9: "always provide a
// second and third tie-breaker to guarantee deterministic output").
// Returns "" if candidates is empty.
func ModeSelect(candidates []Candidate) string {
	if len(candidates) == 0 {
		return ""
	}
	type tally struct {
		value  string
		count  int
		minPID int64
	}
	counts := make(map[string]*tally)
	for _, c := range candidates {
		t, ok := counts[c.Value]
		if !ok {
			counts[c.Value] = &tally{value: c.Value, count: 1, minPID: c.ProductID}
			continue
		}
		t.count++
		if c.ProductID < t.minPID {
			t.minPID = c.ProductID
		}
	}
	tallies := make([]*tally, 0, len(counts))
	for _, t := range counts {
		tallies = append(tallies, t)
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].count != tallies[j].count {
			return tallies[i].count > tallies[j].count
		}
		if tallies[i].value != tallies[j].value {
			return tallies[i].value < tallies[j].value
		}
		return tallies[i].minPID < tallies[j].minPID
	})
	return tallies[0].value
}

// ModeSelectOptionalInt64 is the nullable-field variant for
// parentMemberId-like fields (spec.md §4.G Stage 4: "NULL wins only if it
// is the sole observed value"). nils are excluded from the mode contest
// entirely unless every observation is nil.
func ModeSelectOptionalInt64(values []*int64, productIDs []int64) *int64 {
	var nonNil []Candidate
	allNil := true
	for i, v := range values {
		if v == nil {
			continue
		}
		allNil = false
		nonNil = append(nonNil, Candidate{Value: strconv.FormatInt(*v, 10), ProductID: productIDs[i]})
	}
	if allNil || len(nonNil) == 0 {
		return nil
	}
	winner := ModeSelect(nonNil)
	n, _ := strconv.ParseInt(winner, 10, 64)
	return &n
}

// ModeSelectOptionalString is the nullable-string variant, used for
// uomCode.
func ModeSelectOptionalString(values []*string, productIDs []int64) *string {
	var nonNil []Candidate
	allNil := true
	for i, v := range values {
		if v == nil {
			continue
		}
		allNil = false
		nonNil = append(nonNil, Candidate{Value: *v, ProductID: productIDs[i]})
	}
	if allNil || len(nonNil) == 0 {
		return nil
	}
	winner := ModeSelect(nonNil)
	return &winner
}
