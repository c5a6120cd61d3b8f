package warehouse

import (
	"strconv"

	"github.com/tidwall/buntdb"

	"github.com/statcan/wds-pipeline/cmn"
)

const (
	prefixRawDim = "rawdim|"
	prefixRawMem = "rawmem|"
)

// RawStore implements the Raw Dimension Loader's tables (spec.md §4.F):
// truncate-and-reload per metadata refresh. Each product is reloaded in a
// single transaction; within it, a later row with the same key overwrites
// an earlier one rather than being skipped.
type RawStore struct {
	db *buntdb.DB
}

func NewRawStore(db *buntdb.DB) *RawStore { return &RawStore{db: db} }

// ReplaceProduct truncates and reloads every raw dimension/member row for
// one productid in a single transaction (spec.md §4.F operates per-product
// so one product's parse failure can't abort the pass).
func (r *RawStore) ReplaceProduct(productID int64, dims []RawDimension, members []RawMember) error {
	return r.db.Update(func(tx *buntdb.Tx) error {
		if err := truncate(tx, prefixRawDim+cmn.Itoa(productID)+"|"); err != nil {
			return err
		}
		if err := truncate(tx, prefixRawMem+cmn.Itoa(productID)+"|"); err != nil {
			return err
		}
		for _, d := range dims {
			buf, err := json.MarshalToString(d)
			if err != nil {
				return err
			}
			key := rawDimKey(d.ProductID, d.DimensionPos)
			if _, _, err := tx.Set(key, buf, nil); err != nil {
				return err
			}
		}
		for _, m := range members {
			buf, err := json.MarshalToString(m)
			if err != nil {
				return err
			}
			key := rawMemKey(m.ProductID, m.DimensionPos, m.MemberID)
			if _, _, err := tx.Set(key, buf, nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// AllDimensions returns every raw dimension row across every product, the
// input to registry Stage 2.
func (r *RawStore) AllDimensions() ([]RawDimension, error) {
	var out []RawDimension
	err := r.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefixRawDim+"*", func(k, v string) bool {
			var d RawDimension
			if err := json.UnmarshalFromString(v, &d); err == nil {
				out = append(out, d)
			}
			return true
		})
	})
	return out, err
}

// AllMembers returns every raw member row across every product, the input
// to registry Stage 1.
func (r *RawStore) AllMembers() ([]RawMember, error) {
	var out []RawMember
	err := r.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefixRawMem+"*", func(k, v string) bool {
			var m RawMember
			if err := json.UnmarshalFromString(v, &m); err == nil {
				out = append(out, m)
			}
			return true
		})
	})
	return out, err
}

// MembersOf returns the raw members for one (productid, dimensionPosition)
// group. Stage 2 (registry.ProcessDimensions) does its own grouping and
// does not call this.
func (r *RawStore) MembersOf(productID int64, pos int) ([]RawMember, error) {
	var out []RawMember
	prefix := rawMemPrefix(productID, pos)
	err := r.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefix+"*", func(k, v string) bool {
			var m RawMember
			if err := json.UnmarshalFromString(v, &m); err == nil {
				out = append(out, m)
			}
			return true
		})
	})
	return out, err
}

func rawDimKey(productID int64, pos int) string {
	return prefixRawDim + cmn.Itoa(productID) + "|" + strconv.Itoa(pos)
}

func rawMemPrefix(productID int64, pos int) string {
	return prefixRawMem + cmn.Itoa(productID) + "|" + strconv.Itoa(pos) + "|"
}

func rawMemKey(productID int64, pos int, memberID int64) string {
	return rawMemPrefix(productID, pos) + cmn.Itoa(memberID)
}
