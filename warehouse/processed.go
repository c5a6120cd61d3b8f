package warehouse

import (
	"strconv"

	"github.com/tidwall/buntdb"

	"github.com/statcan/wds-pipeline/cmn"
)

const (
	prefixProcMem = "procmem|"
	prefixProcDim = "procdim|"
)

// ProcessedStore holds registry Stage 1/2 output (spec.md §4.G): replayable
// from the raw tables at any time, never hand-edited.
type ProcessedStore struct {
	db *buntdb.DB
}

func NewProcessedStore(db *buntdb.DB) *ProcessedStore { return &ProcessedStore{db: db} }

// ReplaceAll truncates and rewrites both processed tables in one
// transaction -- Stage 1/2 are rerunnable, so each build starts from a
// clean slate rather than diffing against the previous run.
func (p *ProcessedStore) ReplaceAll(members []ProcessedMember, dims []ProcessedDimension) error {
	return p.db.Update(func(tx *buntdb.Tx) error {
		if err := truncate(tx, prefixProcMem); err != nil {
			return err
		}
		if err := truncate(tx, prefixProcDim); err != nil {
			return err
		}
		for _, m := range members {
			buf, err := json.MarshalToString(m)
			if err != nil {
				return err
			}
			key := procMemKey(m.ProductID, m.DimensionPos, m.MemberID)
			if _, _, err := tx.Set(key, buf, nil); err != nil {
				return err
			}
		}
		for _, d := range dims {
			buf, err := json.MarshalToString(d)
			if err != nil {
				return err
			}
			key := procDimKey(d.ProductID, d.DimensionPos)
			if _, _, err := tx.Set(key, buf, nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *ProcessedStore) AllMembers() ([]ProcessedMember, error) {
	var out []ProcessedMember
	err := p.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefixProcMem+"*", func(k, v string) bool {
			var m ProcessedMember
			if err := json.UnmarshalFromString(v, &m); err == nil {
				out = append(out, m)
			}
			return true
		})
	})
	return out, err
}

func (p *ProcessedStore) AllDimensions() ([]ProcessedDimension, error) {
	var out []ProcessedDimension
	err := p.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefixProcDim+"*", func(k, v string) bool {
			var d ProcessedDimension
			if err := json.UnmarshalFromString(v, &d); err == nil {
				out = append(out, d)
			}
			return true
		})
	})
	return out, err
}

func procMemKey(productID int64, pos int, memberID int64) string {
	return prefixProcMem + cmn.Itoa(productID) + "|" + strconv.Itoa(pos) + "|" + cmn.Itoa(memberID)
}

func procDimKey(productID int64, pos int) string {
	return prefixProcDim + cmn.Itoa(productID) + "|" + strconv.Itoa(pos)
}
