package store

import (
	"sync"

	"github.com/teris-io/shortid"
)

// Row and worker-claim identifiers use teris-io/shortid throughout the
// pipeline, the same library the teacher uses in cmn/shortid.go for
// human-legible unique IDs.
const idAlphabet = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

var (
	sidOnce sync.Once
	sid     *shortid.Shortid
)

func genID() string {
	sidOnce.Do(func() {
		sid = shortid.MustNew(1, idAlphabet, 0)
	})
	return sid.MustGenerate()
}
