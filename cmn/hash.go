package cmn

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Hash is the pipeline's content-addressing and dimension-shape fingerprint:
// the first HashLen hex characters of a SHA-256 digest (spec.md §3).
type Hash string

// H12 truncates a SHA-256 digest of data to the canonical 12-character form.
// Used both for file content addressing (4.B) and for member/dimension
// hashing (4.G) -- one primitive, two call sites, same determinism
// guarantee (invariant 4 in spec.md §8).
func H12(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:])[:HashLen])
}

// H12String is a convenience wrapper for string inputs.
func H12String(s string) Hash {
	return H12([]byte(s))
}

// OrNull substitutes NullSentinel for an absent optional field so that a
// present-but-empty value never hashes the same as an absent one.
func OrNull(s string, present bool) string {
	if !present {
		return NullSentinel
	}
	return s
}

// PipeJoin concatenates fields with "|" for hash input composition, the
// "∥" operator from spec.md §3.
func PipeJoin(fields ...string) string {
	return strings.Join(fields, "|")
}

// MemberHash computes memberHash = h12(memberId ∥ memberLabelNorm ∥
// parentMemberId ∥ uomCode), with NullSentinel substituted for nil fields.
func MemberHash(memberID int64, labelNorm string, parentMemberID *int64, uomCode *string) Hash {
	parent := NullSentinel
	if parentMemberID != nil {
		parent = strconv.FormatInt(*parentMemberID, 10)
	}
	uom := NullSentinel
	if uomCode != nil {
		uom = *uomCode
	}
	return H12String(PipeJoin(strconv.FormatInt(memberID, 10), labelNorm, parent, uom))
}

// DimensionHash computes dimensionHash = h12(join("|", memberHash[])) over
// members sorted by memberId ascending (spec.md §4.G, Stage 2). Callers
// must pass hashes already ordered; DimensionHash does not itself sort, so
// that the member-ordering policy stays visible and testable at the call
// site (registry.ProcessDimensions sorts before calling this).
func DimensionHash(memberHashesSortedByMemberID []Hash) Hash {
	strs := make([]string, len(memberHashesSortedByMemberID))
	for i, h := range memberHashesSortedByMemberID {
		strs[i] = string(h)
	}
	return H12String(strings.Join(strs, "|"))
}

// Itoa formats a ProductID for error messages and composite keys.
func Itoa(v int64) string { return strconv.FormatInt(v, 10) }

// SortedByMemberID returns a copy of ids sorted ascending, used wherever
// the spec requires a deterministic member-ordering tie-break.
func SortedByMemberID(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
