package store

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"

	"github.com/statcan/wds-pipeline/cmn"
	"github.com/statcan/wds-pipeline/cmn/debug"
)

// ArtifactRegistry is the per-family CRUD surface described in spec.md
// §4.C: Insert, ActivePath, History, Remove, each scoped by Key.
type ArtifactRegistry struct {
	db     *buntdb.DB
	family string
}

// Insert records a new active artifact and deactivates any prior active
// row for the same key, all inside one buntdb transaction so the state
// machine never splits across a crash (spec.md §4.D: "All database
// mutations tied to a single artifact outcome occur in one transaction").
//
// If a row with the identical (productid, fileHash) already exists for
// this key -- active or historical -- Insert returns that row wrapped in
// cmn.ConstraintViolation rather than creating a duplicate: spec.md §4.D's
// "unique-constraint violation ... is non-fatal and means no change".
func (r *ArtifactRegistry) Insert(key Key, hash cmn.Hash, path string) (ArtifactRecord, error) {
	var result ArtifactRecord
	err := r.db.Update(func(tx *buntdb.Tx) error {
		existing, err := r.history(tx, key)
		if err != nil {
			return err
		}
		for _, rec := range existing {
			if rec.FileHash == string(hash) {
				result = rec
				return cmn.NewConstraintViolation(errors.Errorf(
					"artifact %s already recorded for %s", hash, key))
			}
		}

		activeBefore := 0
		for _, rec := range existing {
			if rec.Active {
				activeBefore++
			}
		}
		debug.Assertf(activeBefore <= 1, "store: key %s had %d active rows before Insert, want at most 1", key, activeBefore)

		for _, rec := range existing {
			if rec.Active {
				rec.Active = false
				if err := r.put(tx, key, rec); err != nil {
					return err
				}
			}
		}
		rec := ArtifactRecord{
			ID:              genID(),
			ProductID:       key.ProductID,
			FileHash:        string(hash),
			DownloadTime:    time.Now().UTC(),
			Active:          true,
			StorageLocation: path,
		}
		if err := r.put(tx, key, rec); err != nil {
			return err
		}
		if _, _, err := tx.Set(activeKey(key), rec.ID, nil); err != nil {
			return err
		}
		result = rec
		return nil
	})
	if err != nil && !cmn.IsConstraintViolation(err) {
		return ArtifactRecord{}, err
	}
	return result, err
}

// ActivePath returns the storage location and hash of the active row for
// key, or ("", "", false) if there is none.
func (r *ArtifactRegistry) ActivePath(key Key) (path string, hash cmn.Hash, ok bool, err error) {
	err = r.db.View(func(tx *buntdb.Tx) error {
		id, terr := tx.Get(activeKey(key))
		if terr == buntdb.ErrNotFound {
			return nil
		}
		if terr != nil {
			return terr
		}
		rec, terr := r.get(tx, key, id)
		if terr != nil {
			return terr
		}
		path, hash, ok = rec.StorageLocation, cmn.Hash(rec.FileHash), true
		return nil
	})
	return
}

// History returns every row for key, oldest first.
func (r *ArtifactRegistry) History(key Key) ([]ArtifactRecord, error) {
	var out []ArtifactRecord
	err := r.db.View(func(tx *buntdb.Tx) error {
		var terr error
		out, terr = r.history(tx, key)
		return terr
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DownloadTime.Before(out[j].DownloadTime) })
	return out, err
}

// Remove deletes row id for key. Removing the active row does not fail:
// the row and the key's active marker are both deleted, leaving the key
// with no active row, and no error tells the caller so. Re-arming
// downloadPending is left to the caller (normally the Verifier).
func (r *ArtifactRegistry) Remove(key Key, id string) error {
	return r.db.Update(func(tx *buntdb.Tx) error {
		rec, err := r.get(tx, key, id)
		if err != nil {
			return err
		}
		if _, err := tx.Delete(artifactKey(key, id)); err != nil {
			return err
		}
		if rec.Active {
			if _, err := tx.Delete(activeKey(key)); err != nil && err != buntdb.ErrNotFound {
				return err
			}
		} else if activeID, aerr := tx.Get(activeKey(key)); aerr == nil {
			debug.Assertf(activeID != id, "store: removed non-active row %s for %s but activeKey still pointed at it", id, key)
		}
		return nil
	})
}

// AllActive returns every active artifact row in this family, used by the
// Verifier to walk "every active artifact row" (spec.md §4.I) without the
// caller needing to already know the set of productids.
func (r *ArtifactRegistry) AllActive() ([]Key, []ArtifactRecord, error) {
	var keys []Key
	var recs []ArtifactRecord
	err := r.db.View(func(tx *buntdb.Tx) error {
		prefix := prefixActive + "|" + r.family + "|"
		return tx.AscendKeys(prefix+"*", func(k, id string) bool {
			productIDStr := k[len(prefix):]
			pid, perr := parseProductID(productIDStr)
			if perr != nil {
				return true
			}
			key := Key{Family: r.family, ProductID: pid}
			rec, gerr := r.get(tx, key, id)
			if gerr != nil {
				return true
			}
			keys = append(keys, key)
			recs = append(recs, rec)
			return true
		})
	})
	return keys, recs, err
}

func (r *ArtifactRegistry) history(tx *buntdb.Tx, key Key) ([]ArtifactRecord, error) {
	var out []ArtifactRecord
	var iterErr error
	err := tx.AscendKeys(artifactPrefix(key)+"*", func(k, v string) bool {
		var rec ArtifactRecord
		if _, err := rec.UnmarshalMsg([]byte(v)); err != nil {
			iterErr = err
			return false
		}
		out = append(out, rec)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, iterErr
}

func (r *ArtifactRegistry) get(tx *buntdb.Tx, key Key, id string) (ArtifactRecord, error) {
	v, err := tx.Get(artifactKey(key, id))
	if err != nil {
		return ArtifactRecord{}, err
	}
	var rec ArtifactRecord
	if _, err := rec.UnmarshalMsg([]byte(v)); err != nil {
		return ArtifactRecord{}, err
	}
	return rec, nil
}

func (r *ArtifactRegistry) put(tx *buntdb.Tx, key Key, rec ArtifactRecord) error {
	buf, err := rec.MarshalMsg(nil)
	if err != nil {
		return err
	}
	_, _, err = tx.Set(artifactKey(key, rec.ID), string(buf), nil)
	return err
}
