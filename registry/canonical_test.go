package registry

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/statcan/wds-pipeline/normalizer"
	"github.com/statcan/wds-pipeline/warehouse"
)

func geoRaw(productID int64) []warehouse.RawMember {
	parent := int64(1)
	return []warehouse.RawMember{
		{ProductID: productID, DimensionPos: 0, MemberID: 1, NameEn: "Canada", NameFr: "Canada"},
		{ProductID: productID, DimensionPos: 0, MemberID: 2, NameEn: "Ontario", NameFr: "Ontario", ParentMemberID: &parent},
	}
}

var _ = Describe("BuildCanonical", func() {
	norm := normalizer.New("en")

	It("reduces three cubes' Geography dimensions to one canonical entry (S4: label consensus)", func() {
		var raw []warehouse.RawMember
		raw = append(raw, geoRaw(1)...)
		raw = append(raw, geoRaw(2)...)
		raw = append(raw, geoRaw(3)...)

		rawDims := []warehouse.RawDimension{
			{ProductID: 1, DimensionPos: 0, NameEn: "Geography", NameFr: "Géographie"},
			{ProductID: 2, DimensionPos: 0, NameEn: "Geography", NameFr: "Géographie"},
			{ProductID: 3, DimensionPos: 0, NameEn: "geography", NameFr: "géographie"},
		}

		members := ProcessMembers(raw)
		members, dims := ProcessDimensions(members, rawDims)

		canonDims, canonMembers := BuildCanonical(members, dims, norm)

		Expect(canonDims).To(HaveLen(1), "all three groups share one dimensionHash")
		cd := canonDims[0]
		Expect(cd.NameEn).To(Equal("Geography"))
		Expect(cd.UsageCount).To(Equal(3))
		Expect(cd.IsTree).To(BeTrue())
		Expect(cd.HasTotal).To(BeFalse())

		Expect(canonMembers).To(HaveLen(2))

		byID := map[int64]warehouse.CanonicalMember{}
		for _, m := range canonMembers {
			byID[m.MemberID] = m
		}
		Expect(byID[1].TreeLevel).NotTo(BeNil())
		Expect(*byID[1].TreeLevel).To(Equal(1))
		Expect(byID[2].TreeLevel).NotTo(BeNil())
		Expect(*byID[2].TreeLevel).To(Equal(2), "S5: child level = parent level + 1")
		Expect(byID[1].UsageCount).To(Equal(3))
	})

	It("marks hasTotal when a canonical member's label contains the total token", func() {
		raw := []warehouse.RawMember{
			{ProductID: 1, DimensionPos: 0, MemberID: 1, NameEn: "British Columbia"},
			{ProductID: 1, DimensionPos: 0, MemberID: 2, NameEn: "Total, provinces"},
		}
		rawDims := []warehouse.RawDimension{{ProductID: 1, DimensionPos: 0, NameEn: "Geography"}}

		members := ProcessMembers(raw)
		members, dims := ProcessDimensions(members, rawDims)
		canonDims, _ := BuildCanonical(members, dims, normalizer.New("en"))

		Expect(canonDims).To(HaveLen(1))
		Expect(canonDims[0].HasTotal).To(BeTrue())
	})

	It("marks hasTotal when only the French label carries the total token", func() {
		raw := []warehouse.RawMember{
			{ProductID: 1, DimensionPos: 0, MemberID: 1, NameEn: "Sales by region", NameFr: "Ventes par region"},
			{ProductID: 1, DimensionPos: 0, MemberID: 2, NameEn: "Sales, all regions", NameFr: "Total des ventes"},
		}
		rawDims := []warehouse.RawDimension{{ProductID: 1, DimensionPos: 0, NameEn: "Geography"}}

		members := ProcessMembers(raw)
		members, dims := ProcessDimensions(members, rawDims)
		canonDims, _ := BuildCanonical(members, dims, normalizer.New("en"))

		Expect(canonDims).To(HaveLen(1))
		Expect(canonDims[0].HasTotal).To(BeTrue(), "hasTotal must check NameFr too, not just NameEn")
	})

	It("marks isHetero when more than one uom code appears in a dimension", func() {
		kg := "KG"
		lb := "LB"
		raw := []warehouse.RawMember{
			{ProductID: 1, DimensionPos: 0, MemberID: 1, NameEn: "Wheat", UomCode: &kg},
			{ProductID: 1, DimensionPos: 0, MemberID: 2, NameEn: "Barley", UomCode: &lb},
		}
		rawDims := []warehouse.RawDimension{{ProductID: 1, DimensionPos: 0, NameEn: "Commodity", HasUom: true}}

		members := ProcessMembers(raw)
		members, dims := ProcessDimensions(members, rawDims)
		canonDims, _ := BuildCanonical(members, dims, normalizer.New("en"))

		Expect(canonDims).To(HaveLen(1))
		Expect(canonDims[0].IsHetero).To(BeTrue())
		Expect(canonDims[0].HasUom).To(BeTrue())
	})
})
