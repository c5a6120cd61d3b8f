package warehouse

import (
	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"

	"github.com/statcan/wds-pipeline/cmn"
)

const (
	prefixSpineCube = "spine_cube|"
	prefixSpineSubj = "spine_subj|"
	prefixSpineSurv = "spine_surv|"
)

// SpineStore implements the Spine Loader's replace-all contract (spec.md
// §4.E): truncate each target table and bulk-insert the new rows, all in
// one transaction, no incremental diffing.
type SpineStore struct {
	db *buntdb.DB
}

func NewSpineStore(db *buntdb.DB) *SpineStore { return &SpineStore{db: db} }

// Replace truncates cube/cube_subject/cube_survey and repopulates them
// from the decoded spine snapshot.
func (s *SpineStore) Replace(cubes []Cube, subjects []CubeSubject, surveys []CubeSurvey) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		if err := truncate(tx, prefixSpineCube); err != nil {
			return err
		}
		if err := truncate(tx, prefixSpineSubj); err != nil {
			return err
		}
		if err := truncate(tx, prefixSpineSurv); err != nil {
			return err
		}
		for _, c := range cubes {
			buf, err := json.MarshalToString(c)
			if err != nil {
				return errors.Wrap(err, "encoding cube row")
			}
			if _, _, err := tx.Set(prefixSpineCube+cmn.Itoa(c.ProductID), buf, nil); err != nil {
				return err
			}
		}
		for _, r := range subjects {
			buf, err := json.MarshalToString(r)
			if err != nil {
				return errors.Wrap(err, "encoding subject row")
			}
			key := prefixSpineSubj + cmn.Itoa(r.ProductID) + "|" + r.SubjectCode
			if _, _, err := tx.Set(key, buf, nil); err != nil {
				return err
			}
		}
		for _, r := range surveys {
			buf, err := json.MarshalToString(r)
			if err != nil {
				return errors.Wrap(err, "encoding survey row")
			}
			key := prefixSpineSurv + cmn.Itoa(r.ProductID) + "|" + r.SurveyCode
			if _, _, err := tx.Set(key, buf, nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// AllProductIDs returns every productid currently in the spine, used by
// cube-status seeding (spec.md §4.D).
func (s *SpineStore) AllProductIDs() ([]int64, error) {
	var ids []int64
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefixSpineCube+"*", func(k, v string) bool {
			var c Cube
			if err := json.UnmarshalFromString(v, &c); err == nil {
				ids = append(ids, c.ProductID)
			}
			return true
		})
	})
	return ids, err
}

func truncate(tx *buntdb.Tx, prefix string) error {
	var keys []string
	if err := tx.AscendKeys(prefix+"*", func(k, v string) bool {
		keys = append(keys, k)
		return true
	}); err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := tx.Delete(k); err != nil && err != buntdb.ErrNotFound {
			return err
		}
	}
	return nil
}
