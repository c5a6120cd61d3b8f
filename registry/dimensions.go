package registry

import (
	"sort"

	"github.com/statcan/wds-pipeline/cmn"
	"github.com/statcan/wds-pipeline/warehouse"
)

type groupKey struct {
	ProductID int64
	Pos       int
}

// ProcessDimensions is Stage 2 (spec.md §4.G): groups processed members by
// (productid, dimensionPosition), sorts each group by memberId ascending,
// computes dimensionHash over the sorted memberHash list, and backfills
// DimensionHash onto each member. rawDims supplies nameEn/nameFr, since
// those live on the raw dimension row, not the member; hasUom is true when
// any member of the group has a non-nil UomCode.
//
// Returns the updated members (with DimensionHash set) and the processed
// dimension rows.
func ProcessDimensions(members []warehouse.ProcessedMember, rawDims []warehouse.RawDimension) ([]warehouse.ProcessedMember, []warehouse.ProcessedDimension) {
	groups := make(map[groupKey][]warehouse.ProcessedMember)
	for _, m := range members {
		k := groupKey{m.ProductID, m.DimensionPos}
		groups[k] = append(groups[k], m)
	}

	dimMeta := make(map[groupKey]warehouse.RawDimension, len(rawDims))
	for _, d := range rawDims {
		dimMeta[groupKey{d.ProductID, d.DimensionPos}] = d
	}

	outMembers := make([]warehouse.ProcessedMember, 0, len(members))
	outDims := make([]warehouse.ProcessedDimension, 0, len(groups))

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ProductID != keys[j].ProductID {
			return keys[i].ProductID < keys[j].ProductID
		}
		return keys[i].Pos < keys[j].Pos
	})

	for _, k := range keys {
		group := groups[k]
		sort.Slice(group, func(i, j int) bool { return group[i].MemberID < group[j].MemberID })

		hashes := make([]cmn.Hash, len(group))
		hasUom := false
		for i, m := range group {
			hashes[i] = cmn.Hash(m.MemberHash)
			if m.UomCode != nil {
				hasUom = true
			}
		}
		dimHash := cmn.DimensionHash(hashes)

		for _, m := range group {
			m.DimensionHash = string(dimHash)
			outMembers = append(outMembers, m)
		}

		meta := dimMeta[k]
		outDims = append(outDims, warehouse.ProcessedDimension{
			ProductID:     k.ProductID,
			DimensionPos:  k.Pos,
			DimensionHash: string(dimHash),
			NameEn:        meta.NameEn,
			NameFr:        meta.NameFr,
			HasUom:        hasUom,
		})
	}
	return outMembers, outDims
}
