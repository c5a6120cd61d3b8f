// Package registry is the Dimension Registry Builder (spec.md §4.G), the
// hardest component in the system: four deterministic, idempotent stages
// that reduce per-cube raw dimension/member rows to a canonical,
// cross-cube-deduplicated registry.
//
// Grounded on cluster/map.go's consistent-hash placement and
// ec/manager.go's consensus-under-redundancy shape: both are examples, in
// the teacher, of "many inputs collapse to one canonical identity by
// hash," which is exactly Stage 2/3's job here.
/*
 * Copyright (c) 2024, Statistics Canada WDS Mirror Project.
 */
package registry

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/statcan/wds-pipeline/cmn"
	"github.com/statcan/wds-pipeline/warehouse"
)

// ProcessMembers is Stage 1 (spec.md §4.G): computes memberLabelNorm and
// memberHash for every raw member. Pure and replayable -- rerunning it on
// unchanged raw rows produces byte-identical output (invariant 5).
func ProcessMembers(raw []warehouse.RawMember) []warehouse.ProcessedMember {
	out := make([]warehouse.ProcessedMember, 0, len(raw))
	for _, r := range raw {
		labelNorm := NormalizeLabel(r.NameEn)
		hash := cmn.MemberHash(r.MemberID, labelNorm, r.ParentMemberID, r.UomCode)
		out = append(out, warehouse.ProcessedMember{
			ProductID:       r.ProductID,
			DimensionPos:    r.DimensionPos,
			MemberID:        r.MemberID,
			ParentMemberID:  r.ParentMemberID,
			UomCode:         r.UomCode,
			NameEn:          r.NameEn,
			NameFr:          r.NameFr,
			MemberLabelNorm: labelNorm,
			MemberHash:      string(hash),
		})
	}
	return out
}

// NormalizeLabel implements spec.md §3/§4.G's memberLabelNorm: NFC
// normalization, lowercase, trim. This is deliberately distinct from the
// pluggable Label Normalizer (4.H) used for baseName -- memberLabelNorm
// feeds the hash that must stay byte-identical across runs and platforms
// (invariant 4), so it is fixed, not injectable.
func NormalizeLabel(nameEn string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(nameEn)))
}
