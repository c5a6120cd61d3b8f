// Package verifier implements the Verifier (spec.md §4.I): reconciles the
// Content Store against the Artifact Registry, repairing corruption by
// deleting the orphaned row/file pair and re-arming downloadPending.
//
// Grounded on fs/content.go's own integrity-scan helpers and the
// teacher's general "never trust disk state silently, always verify
// content hash" posture for any cache layer.
/*
 * Copyright (c) 2024, Statistics Canada WDS Mirror Project.
 */
package verifier

import (
	"github.com/golang/glog"

	"github.com/statcan/wds-pipeline/cmn"
	"github.com/statcan/wds-pipeline/contentstore"
	"github.com/statcan/wds-pipeline/statsx"
	"github.com/statcan/wds-pipeline/store"
)

// Summary reports (checked, ok, repaired) per spec.md §4.I.
type Summary struct {
	Checked  int
	OK       int
	Repaired int
}

// Verifier checks one artifact family's active rows against the content
// store and repairs mismatches.
type Verifier struct {
	DB      *store.DB
	Content *contentstore.Store
	Stats   *statsx.Stats
}

// New builds a Verifier. stats may be nil (e.g. outside serve mode, where
// no registry is running); Run skips its metric calls in that case. Sweep
// records no metrics.
func New(db *store.DB, content *contentstore.Store, stats *statsx.Stats) *Verifier {
	return &Verifier{DB: db, Content: content, Stats: stats}
}

// Run checks every active artifact row in family: confirms the file
// exists at storageLocation, stream-hashes it, and compares to fileHash.
// On mismatch or absence, deletes the file (if present), deletes the
// artifact row, and sets downloadPending=true on status (spec.md §4.I).
func (v *Verifier) Run(family string) (Summary, error) {
	registry := v.DB.Artifacts(family)
	status := v.DB.Status(family)

	keys, recs, err := registry.AllActive()
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for i, key := range keys {
		rec := recs[i]
		sum.Checked++
		if v.Stats != nil {
			v.Stats.VerifierCheckCount.WithLabelValues(family).Inc()
		}

		ok, computed, verr := v.Content.Verify(rec.StorageLocation, cmn.Hash(rec.FileHash))
		if verr != nil {
			glog.Errorf("verifier: checking %s (%s): %v", key, rec.StorageLocation, verr)
		}
		if ok {
			sum.OK++
			continue
		}

		corruptErr := cmn.NewCorruptContentError(family, cmn.Hash(rec.FileHash), computed)
		glog.Warningf("verifier: repairing %s: %v", key, corruptErr)
		if err := v.Content.Delete(rec.StorageLocation); err != nil {
			glog.Errorf("verifier: deleting %s: %v", rec.StorageLocation, err)
		}
		if err := registry.Remove(key, rec.ID); err != nil {
			glog.Errorf("verifier: removing artifact row for %s: %v", key, err)
			continue
		}
		if err := status.MarkPending(key); err != nil {
			glog.Errorf("verifier: marking %s pending: %v", key, err)
			continue
		}
		sum.Repaired++
		if v.Stats != nil {
			v.Stats.VerifierRepairCount.WithLabelValues(family).Inc()
		}
	}
	return sum, nil
}
