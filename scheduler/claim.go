package scheduler

import (
	"fmt"
	"sync"

	"github.com/teris-io/shortid"
)

// claim tokens identify which worker currently holds a pending key, the
// buntdb analogue of a row lock (spec.md §5). Grounded on store/idgen.go's
// use of teris-io/shortid for human-legible unique IDs.
var (
	claimOnce sync.Once
	claimGen  *shortid.Shortid
)

func claimToken(workerIdx int) string {
	claimOnce.Do(func() {
		claimGen = shortid.MustNew(1, shortid.DefaultABC, 0)
	})
	id, err := claimGen.Generate()
	if err != nil {
		return fmt.Sprintf("worker-%d", workerIdx)
	}
	return fmt.Sprintf("worker-%d-%s", workerIdx, id)
}
