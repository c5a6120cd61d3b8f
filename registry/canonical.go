package registry

import (
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/statcan/wds-pipeline/normalizer"
	"github.com/statcan/wds-pipeline/warehouse"
)

var titleCaser = cases.Title(language.English)

type memberKey struct {
	DimensionHash string
	MemberID      int64
}

// BuildCanonical runs Stage 3 and Stage 4 (spec.md §4.G) over the full set
// of processed members/dimensions, grouping by dimensionHash. norm is the
// Label Normalizer used for baseName and the hasTotal marker check.
//
// Stage 4 (canonical members, including treeLevel) is computed before
// Stage 3's hasTotal field is finalized: hasTotal inspects canonical
// member labels, not raw ones, so the dependency runs opposite the
// spec's stage numbering.
func BuildCanonical(members []warehouse.ProcessedMember, dims []warehouse.ProcessedDimension, norm normalizer.Normalizer) ([]warehouse.CanonicalDimension, []warehouse.CanonicalMember) {
	dimsByHash := make(map[string][]warehouse.ProcessedDimension)
	for _, d := range dims {
		dimsByHash[d.DimensionHash] = append(dimsByHash[d.DimensionHash], d)
	}
	membersByHash := make(map[string][]warehouse.ProcessedMember)
	for _, m := range members {
		membersByHash[m.DimensionHash] = append(membersByHash[m.DimensionHash], m)
	}

	hashes := make([]string, 0, len(dimsByHash))
	for h := range dimsByHash {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	outDims := make([]warehouse.CanonicalDimension, 0, len(hashes))
	outMembers := make([]warehouse.CanonicalMember, 0, len(members))

	for _, hash := range hashes {
		dimGroup := dimsByHash[hash]
		memberGroup := membersByHash[hash]

		canonMembers, isTree := buildCanonicalMembers(hash, memberGroup, norm)
		outMembers = append(outMembers, canonMembers...)

		outDims = append(outDims, buildCanonicalDimension(hash, dimGroup, memberGroup, canonMembers, isTree, norm))
	}
	return outDims, outMembers
}

func buildCanonicalDimension(hash string, dimGroup []warehouse.ProcessedDimension, memberGroup []warehouse.ProcessedMember, canonMembers []warehouse.CanonicalMember, isTree bool, norm normalizer.Normalizer) warehouse.CanonicalDimension {
	nameEnCandidates := make([]Candidate, len(dimGroup))
	nameFrCandidates := make([]Candidate, len(dimGroup))
	hasUom := false
	for i, d := range dimGroup {
		nameEnCandidates[i] = Candidate{Value: d.NameEn, ProductID: d.ProductID}
		nameFrCandidates[i] = Candidate{Value: d.NameFr, ProductID: d.ProductID}
		if d.HasUom {
			hasUom = true
		}
	}

	uomSet := make(map[string]struct{})
	for _, m := range memberGroup {
		if m.UomCode != nil {
			uomSet[*m.UomCode] = struct{}{}
		}
	}

	hasTotal := false
	for _, cm := range canonMembers {
		if norm.ContainsTotal(cm.NameEn) || norm.ContainsTotal(cm.NameFr) {
			hasTotal = true
			break
		}
	}

	return warehouse.CanonicalDimension{
		DimensionHash: hash,
		NameEn:        titleCaser.String(ModeSelect(nameEnCandidates)),
		NameFr:        titleCaser.String(ModeSelect(nameFrCandidates)),
		UsageCount:    len(dimGroup),
		HasUom:        hasUom,
		IsTree:        isTree,
		IsHetero:      len(uomSet) > 1,
		HasTotal:      hasTotal,
	}
}

func buildCanonicalMembers(hash string, memberGroup []warehouse.ProcessedMember, norm normalizer.Normalizer) ([]warehouse.CanonicalMember, bool) {
	byMember := make(map[int64][]warehouse.ProcessedMember)
	isTree := false
	for _, m := range memberGroup {
		byMember[m.MemberID] = append(byMember[m.MemberID], m)
		if m.ParentMemberID != nil {
			isTree = true
		}
	}

	memberIDs := make([]int64, 0, len(byMember))
	for id := range byMember {
		memberIDs = append(memberIDs, id)
	}
	sort.Slice(memberIDs, func(i, j int) bool { return memberIDs[i] < memberIDs[j] })

	out := make([]warehouse.CanonicalMember, 0, len(memberIDs))
	for _, id := range memberIDs {
		rows := byMember[id]

		nameEnC := make([]Candidate, len(rows))
		nameFrC := make([]Candidate, len(rows))
		parentVals := make([]*int64, len(rows))
		uomVals := make([]*string, len(rows))
		productIDs := make([]int64, len(rows))
		distinctGroups := make(map[[2]int64]struct{})
		for i, r := range rows {
			nameEnC[i] = Candidate{Value: r.NameEn, ProductID: r.ProductID}
			nameFrC[i] = Candidate{Value: r.NameFr, ProductID: r.ProductID}
			parentVals[i] = r.ParentMemberID
			uomVals[i] = r.UomCode
			productIDs[i] = r.ProductID
			distinctGroups[[2]int64{r.ProductID, int64(r.DimensionPos)}] = struct{}{}
		}

		out = append(out, warehouse.CanonicalMember{
			DimensionHash:  hash,
			MemberID:       id,
			NameEn:         ModeSelect(nameEnC),
			NameFr:         ModeSelect(nameFrC),
			ParentMemberID: ModeSelectOptionalInt64(parentVals, productIDs),
			UomCode:        ModeSelectOptionalString(uomVals, productIDs),
			UsageCount:     len(distinctGroups),
			BaseName:       norm.Normalize(ModeSelect(nameEnC)),
		})
	}

	if !isTree {
		return out, false
	}

	nodes := make([]treeNode, len(out))
	for i, m := range out {
		nodes[i] = treeNode{MemberID: m.MemberID, ParentMemberID: m.ParentMemberID}
	}
	levels, ok := computeTreeLevels(hash, nodes)
	if !ok {
		return out, true
	}
	for i := range out {
		l := levels[out[i].MemberID]
		out[i].TreeLevel = &l
	}
	return out, true
}
