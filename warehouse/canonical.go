package warehouse

import (
	"github.com/tidwall/buntdb"

	"github.com/statcan/wds-pipeline/cmn"
)

const (
	prefixDimSet    = "dimset|"
	prefixDimSetMem = "dimsetmem|"
)

// CanonicalStore holds the harmonized registry (spec.md §3,
// "dimension_set"/"dimension_set_member"), the output of registry Stage
// 3/4. Like ProcessedStore it is fully rebuilt each run: invariant 5
// (spec.md §8) requires byte-identical output across reruns, which is far
// easier to guarantee for a full replace than an incremental merge.
type CanonicalStore struct {
	db *buntdb.DB
}

func NewCanonicalStore(db *buntdb.DB) *CanonicalStore { return &CanonicalStore{db: db} }

func (c *CanonicalStore) ReplaceAll(dims []CanonicalDimension, members []CanonicalMember) error {
	return c.db.Update(func(tx *buntdb.Tx) error {
		if err := truncate(tx, prefixDimSet); err != nil {
			return err
		}
		if err := truncate(tx, prefixDimSetMem); err != nil {
			return err
		}
		for _, d := range dims {
			buf, err := json.MarshalToString(d)
			if err != nil {
				return err
			}
			if _, _, err := tx.Set(prefixDimSet+d.DimensionHash, buf, nil); err != nil {
				return err
			}
		}
		for _, m := range members {
			buf, err := json.MarshalToString(m)
			if err != nil {
				return err
			}
			key := prefixDimSetMem + m.DimensionHash + "|" + cmn.Itoa(m.MemberID)
			if _, _, err := tx.Set(key, buf, nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *CanonicalStore) AllDimensions() ([]CanonicalDimension, error) {
	var out []CanonicalDimension
	err := c.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefixDimSet+"*", func(k, v string) bool {
			var d CanonicalDimension
			if err := json.UnmarshalFromString(v, &d); err == nil {
				out = append(out, d)
			}
			return true
		})
	})
	return out, err
}

func (c *CanonicalStore) AllMembers() ([]CanonicalMember, error) {
	var out []CanonicalMember
	err := c.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefixDimSetMem+"*", func(k, v string) bool {
			var m CanonicalMember
			if err := json.UnmarshalFromString(v, &m); err == nil {
				out = append(out, m)
			}
			return true
		})
	})
	return out, err
}
