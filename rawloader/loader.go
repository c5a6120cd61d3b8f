// Package rawloader is the Raw Dimension Loader (spec.md §4.F): parses one
// cube's metadata JSON into raw dimension/member rows. Per-product
// failures are isolated so one malformed cube cannot abort a batch load.
//
// Grounded on downloader/ (cloud-object-download-to-rows) and the
// teacher's per-target error isolation in xaction/ jobs: one bad target
// logs and continues rather than failing the whole job.
/*
 * Copyright (c) 2024, Statistics Canada WDS Mirror Project.
 */
package rawloader

import (
	"github.com/golang/glog"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/statcan/wds-pipeline/cmn"
	"github.com/statcan/wds-pipeline/warehouse"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// knownDimensionKeys and knownMemberKeys list every field dimensionEntry/
// memberEntry decode. inspectUnknownFields diffs a payload's actual object
// keys against these sets so a new WDS field shows up as a log line instead
// of silently vanishing (spec.md §9's unknown-field design note).
var (
	knownDimensionKeys = map[string]struct{}{
		"dimensionPositionId": {}, "dimensionNameEn": {}, "dimensionNameFr": {},
		"hasUom": {}, "member": {},
	}
	knownMemberKeys = map[string]struct{}{
		"memberId": {}, "parentMemberId": {}, "classificationCode": {},
		"memberNameEn": {}, "memberNameFr": {}, "memberUomCode": {},
		"geoLevel": {}, "terminated": {}, "vintage": {},
	}
)

// dimensionEntry and memberEntry mirror the WDS cube metadata payload's
// "dimension" array, each carrying a "member" array. Fields not named by
// spec.md §3's Raw member row are decoded but dropped from the typed rows;
// inspectUnknownFields is what actually watches for those fields appearing.
type metadataEntry struct {
	Dimension []dimensionEntry `json:"dimension"`
}

type dimensionEntry struct {
	DimensionPositionID int           `json:"dimensionPositionId"`
	DimensionNameEn     string        `json:"dimensionNameEn"`
	DimensionNameFr     string        `json:"dimensionNameFr"`
	HasUOM              bool          `json:"hasUom"`
	Member              []memberEntry `json:"member"`
}

type memberEntry struct {
	MemberID           int64   `json:"memberId"`
	ParentMemberID     *int64  `json:"parentMemberId"`
	ClassificationCode *string `json:"classificationCode"`
	MemberNameEn       string  `json:"memberNameEn"`
	MemberNameFr       string  `json:"memberNameFr"`
	MemberUomCode      *string `json:"memberUomCode"`
	GeoLevel           *string `json:"geoLevel"`
	TerminatedFlag     *string `json:"terminated"`
	Vintage            *string `json:"vintage"`
}

// Decode parses one cube's metadata payload into raw dimension/member
// rows, stamping productID onto every row since the payload itself is
// scoped to a single cube.
func Decode(productID int64, payload []byte) ([]warehouse.RawDimension, []warehouse.RawMember, error) {
	var entries []metadataEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, nil, errors.Wrapf(err, "decoding metadata for productid %s", cmn.Itoa(productID))
	}
	if len(entries) == 0 {
		return nil, nil, errors.Errorf("empty metadata response for productid %s", cmn.Itoa(productID))
	}
	inspectUnknownFields(productID, payload)

	var dims []warehouse.RawDimension
	var members []warehouse.RawMember
	for _, d := range entries[0].Dimension {
		dims = append(dims, warehouse.RawDimension{
			ProductID:    productID,
			DimensionPos: d.DimensionPositionID,
			NameEn:       d.DimensionNameEn,
			NameFr:       d.DimensionNameFr,
			HasUom:       d.HasUOM,
		})
		for _, m := range d.Member {
			members = append(members, warehouse.RawMember{
				ProductID:          productID,
				DimensionPos:       d.DimensionPositionID,
				MemberID:           m.MemberID,
				ParentMemberID:     m.ParentMemberID,
				ClassificationCode: m.ClassificationCode,
				NameEn:             m.MemberNameEn,
				NameFr:             m.MemberNameFr,
				UomCode:            m.MemberUomCode,
				GeoLevel:           m.GeoLevel,
				Vintage:            m.Vintage,
				Terminated:         boolPtr(m.TerminatedFlag),
			})
		}
	}
	return dims, members, nil
}

// Load decodes payload for productID and replaces its raw tables in one
// transaction (spec.md §4.F: "Insert with ON CONFLICT DO NOTHING keyed by
// the primary keys" -- ReplaceProduct achieves the same per-product
// idempotence via truncate-and-reload rather than per-row conflict
// handling, since a full product's dimension set is always decoded
// together).
func Load(store *warehouse.RawStore, productID int64, payload []byte) (dims, members int, err error) {
	d, m, err := Decode(productID, payload)
	if err != nil {
		return 0, 0, err
	}
	if err := store.ReplaceProduct(productID, d, m); err != nil {
		return 0, 0, errors.Wrapf(err, "replacing raw tables for productid %s", cmn.Itoa(productID))
	}
	return len(d), len(m), nil
}

// inspectUnknownFields re-decodes payload generically and logs any
// dimension/member object key not in knownDimensionKeys/knownMemberKeys.
// It never fails the load: a new WDS field is a signal to widen the
// struct later, not a reason to drop a cube.
func inspectUnknownFields(productID int64, payload []byte) {
	var raw []map[string]jsoniter.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return
	}
	seen := make(map[string]struct{})
	for _, entry := range raw {
		dimsRaw, ok := entry["dimension"]
		if !ok {
			continue
		}
		var dims []map[string]jsoniter.RawMessage
		if err := json.Unmarshal(dimsRaw, &dims); err != nil {
			continue
		}
		for _, d := range dims {
			for k := range d {
				if k == "member" {
					continue
				}
				if _, known := knownDimensionKeys[k]; !known {
					seen["dimension."+k] = struct{}{}
				}
			}
			membersRaw, ok := d["member"]
			if !ok {
				continue
			}
			var members []map[string]jsoniter.RawMessage
			if err := json.Unmarshal(membersRaw, &members); err != nil {
				continue
			}
			for _, m := range members {
				for k := range m {
					if _, known := knownMemberKeys[k]; !known {
						seen["member."+k] = struct{}{}
					}
				}
			}
		}
	}
	for k := range seen {
		glog.Warningf("rawloader: productid %s metadata contains unrecognized field %q", cmn.Itoa(productID), k)
	}
}

func boolPtr(s *string) *bool {
	if s == nil {
		return nil
	}
	v := *s == "true" || *s == "1"
	return &v
}
