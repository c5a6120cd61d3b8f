package store

import (
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StatusRow is the per-key bookkeeping row from spec.md §3: "{lastDownload,
// downloadPending, lastFileHash}", extended with the claim fields the
// worker pool (4.D/§5) needs to implement
// "UPDATE ... WHERE downloadPending=true AND claimed_by IS NULL" without a
// SQL engine underneath.
type StatusRow struct {
	LastDownload    time.Time `json:"last_download"`
	DownloadPending bool      `json:"download_pending"`
	LastFileHash    string    `json:"last_file_hash"`
	ClaimedBy       string    `json:"claimed_by,omitempty"`
	ClaimedAt       time.Time `json:"claimed_at,omitempty"`
}

type StatusStore struct {
	db     *buntdb.DB
	family string
}

// Seed inserts a pending status row for key if one doesn't already exist
// (spec.md §4.D: "cube-status seeding").
func (s *StatusStore) Seed(key Key) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Get(statusKey(key))
		if err == nil {
			return nil
		}
		if err != buntdb.ErrNotFound {
			return err
		}
		return s.set(tx, key, StatusRow{DownloadPending: true})
	})
}

// MarkPending sets downloadPending=true, e.g. on discovery of a change or
// after the Verifier deletes a corrupt artifact.
func (s *StatusStore) MarkPending(key Key) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		row, err := s.get(tx, key)
		if err != nil && err != buntdb.ErrNotFound {
			return err
		}
		row.DownloadPending = true
		row.ClaimedBy = ""
		return s.set(tx, key, row)
	})
}

// MarkFetched clears downloadPending and records the fetched hash/time,
// satisfying invariant 3 (spec.md §8): after a successful fetch cycle,
// lastFileHash equals the hash of the active row.
func (s *StatusStore) MarkFetched(key Key, hash string, at time.Time) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		row, err := s.get(tx, key)
		if err != nil && err != buntdb.ErrNotFound {
			return err
		}
		row.DownloadPending = false
		row.LastFileHash = hash
		row.LastDownload = at
		row.ClaimedBy = ""
		return s.set(tx, key, row)
	})
}

// Get returns the status row for key, or the zero row if none exists.
func (s *StatusStore) Get(key Key) (StatusRow, error) {
	var row StatusRow
	err := s.db.View(func(tx *buntdb.Tx) error {
		var terr error
		row, terr = s.get(tx, key)
		if terr == buntdb.ErrNotFound {
			terr = nil
		}
		return terr
	})
	return row, err
}

// Claim atomically marks key as claimed by workerID if it is pending and
// unclaimed, the buntdb analogue of
// "UPDATE ... WHERE downloadPending=true AND claimed_by IS NULL RETURNING key"
// (spec.md §5). Returns false if another worker already holds the claim.
func (s *StatusStore) Claim(key Key, workerID string) (bool, error) {
	claimed := false
	err := s.db.Update(func(tx *buntdb.Tx) error {
		row, err := s.get(tx, key)
		if err != nil {
			return err
		}
		if !row.DownloadPending || row.ClaimedBy != "" {
			return nil
		}
		row.ClaimedBy = workerID
		row.ClaimedAt = time.Now().UTC()
		if err := s.set(tx, key, row); err != nil {
			return err
		}
		claimed = true
		return nil
	})
	return claimed, err
}

// Release clears a claim without changing downloadPending. The worker pool
// calls it after every fetch attempt, so a failed or cancelled fetch keeps
// downloadPending=true (spec.md §5).
func (s *StatusStore) Release(key Key) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		row, err := s.get(tx, key)
		if err == buntdb.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		row.ClaimedBy = ""
		return s.set(tx, key, row)
	})
}

// PendingKeys returns every key in this family with downloadPending=true.
func (s *StatusStore) PendingKeys() ([]Key, error) {
	var keys []Key
	err := s.db.View(func(tx *buntdb.Tx) error {
		prefix := prefixStatus + "|" + s.family + "|"
		return tx.AscendKeys(prefix+"*", func(k, v string) bool {
			var row StatusRow
			if err := json.UnmarshalFromString(v, &row); err != nil {
				return true
			}
			if !row.DownloadPending {
				return true
			}
			productID := strings.TrimPrefix(k, prefix)
			pid, perr := parseProductID(productID)
			if perr != nil {
				return true
			}
			keys = append(keys, Key{Family: s.family, ProductID: pid})
			return true
		})
	})
	return keys, err
}

func (s *StatusStore) get(tx *buntdb.Tx, key Key) (StatusRow, error) {
	v, err := tx.Get(statusKey(key))
	if err != nil {
		return StatusRow{}, err
	}
	var row StatusRow
	if err := json.UnmarshalFromString(v, &row); err != nil {
		return StatusRow{}, errors.Wrap(err, "decoding status row")
	}
	return row, nil
}

func (s *StatusStore) set(tx *buntdb.Tx, key Key, row StatusRow) error {
	buf, err := json.MarshalToString(row)
	if err != nil {
		return err
	}
	_, _, err = tx.Set(statusKey(key), buf, nil)
	return err
}
