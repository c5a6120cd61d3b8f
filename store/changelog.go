package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/buntdb"
)

// ChangeLog is the write-once (productid, changeDate) set from spec.md §3,
// keyed so the primary key itself enforces dedup.
type ChangeLog struct {
	db *buntdb.DB
}

// Upsert inserts (productID, changeDate) if absent. Returns true if this
// call actually inserted a new row (spec.md: "upsert ... dedupe on PK").
func (c *ChangeLog) Upsert(productID int64, changeDate time.Time) (bool, error) {
	key := changelogKey(productID, changeDate.Format("2006-01-02"))
	inserted := false
	err := c.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Get(key)
		if err == nil {
			return nil
		}
		if err != buntdb.ErrNotFound {
			return err
		}
		if _, _, err := tx.Set(key, changeDate.UTC().Format(time.RFC3339), nil); err != nil {
			return err
		}
		inserted = true
		return nil
	})
	return inserted, err
}

// MaxDate returns the most recent change_date recorded, or the zero time
// if the log is empty -- the lower bound for discovery's date range
// (spec.md §4.D: "max(changed_cubes_log.change_date, last_spine_load_date)").
func (c *ChangeLog) MaxDate() (time.Time, error) {
	var max time.Time
	err := c.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(changelogPrefix()+"*", func(k, v string) bool {
			t, err := time.Parse(time.RFC3339, v)
			if err == nil && t.After(max) {
				max = t
			}
			return true
		})
	})
	return max, err
}

// ProductIDsOn returns every productid whose change_date equals date.
func (c *ChangeLog) ProductIDsOn(date time.Time) ([]int64, error) {
	var ids []int64
	day := date.Format("2006-01-02")
	err := c.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(changelogPrefix()+"*", func(k, v string) bool {
			rest := strings.TrimPrefix(k, changelogPrefix())
			parts := strings.SplitN(rest, "|", 2)
			if len(parts) != 2 || parts[1] != day {
				return true
			}
			if id, err := strconv.ParseInt(parts[0], 10, 64); err == nil {
				ids = append(ids, id)
			}
			return true
		})
	})
	return ids, err
}
