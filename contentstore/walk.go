package contentstore

import (
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

// Walk visits every regular file under the store root, calling fn with its
// absolute path. Used by the maintenance sweep (SPEC_FULL.md §10) to find
// content-store files with no matching active artifact row -- the inverse
// of the Verifier's "active row, missing file" direction.
//
// godirwalk, not filepath.Walk: the fanout directories are wide and
// shallow (family, then one hash-prefix level), and godirwalk avoids the per-entry
// lstat filepath.Walk does, the same tradeoff the rest of the corpus makes
// for large directory trees.
func (s *Store) Walk(fn func(path string) error) error {
	err := godirwalk.Walk(s.root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if strings.HasPrefix(filepath.Base(path), ".tmp-") {
				return nil
			}
			return fn(path)
		},
		Unsorted: true,
	})
	if errors.Is(err, ErrSkip) {
		return nil
	}
	return err
}

// ErrSkip lets a Walk callback stop early without surfacing a failure.
var ErrSkip = errors.New("contentstore: skip")
