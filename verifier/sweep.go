package verifier

import (
	"github.com/golang/glog"

	"github.com/statcan/wds-pipeline/cmn"
)

// SweepResult reports the maintenance sweep's findings: content-store
// files with no matching active artifact row (SPEC_FULL.md §10), the
// inverse of Run's "active row, missing file" direction.
type SweepResult struct {
	Scanned int
	Orphans []string
}

// Sweep walks the content store and flags any file whose hash isn't the
// active hash for any known key in one of the three families. It never
// deletes: orphan removal is a separate, explicit operation left to the
// operator, since an orphan may simply be a very recent Put whose Insert
// hasn't landed yet.
func (v *Verifier) Sweep() (SweepResult, error) {
	active := make(map[string]struct{})
	for _, family := range []string{cmn.FamilySpine, cmn.FamilyCube, cmn.FamilyMetadata} {
		_, recs, err := v.DB.Artifacts(family).AllActive()
		if err != nil {
			return SweepResult{}, err
		}
		for _, rec := range recs {
			active[rec.StorageLocation] = struct{}{}
		}
	}

	var result SweepResult
	err := v.Content.Walk(func(path string) error {
		result.Scanned++
		if _, ok := active[path]; !ok {
			result.Orphans = append(result.Orphans, path)
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	if len(result.Orphans) > 0 {
		glog.Warningf("verifier: maintenance sweep found %d orphan file(s) under content store root", len(result.Orphans))
	}
	return result, nil
}
