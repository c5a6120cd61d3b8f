package store

import (
	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"
)

// DB wraps a buntdb handle shared by the ArtifactRegistry, StatusStore,
// and ChangeLog. One DB per process, opened once from config.Config.DBPath
// (spec.md §9: "pass a context object carrying connection pool").
type DB struct {
	bunt *buntdb.DB
}

func Open(path string) (*DB, error) {
	b, err := buntdb.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening buntdb at %s", path)
	}
	return &DB{bunt: b}, nil
}

func (d *DB) Close() error { return d.bunt.Close() }

// Raw exposes the underlying buntdb handle so sibling packages (warehouse)
// can share one embedded store rather than opening a second file.
func (d *DB) Raw() *buntdb.DB { return d.bunt }

// Artifacts returns the ArtifactRegistry for one family.
func (d *DB) Artifacts(family string) *ArtifactRegistry {
	return &ArtifactRegistry{db: d.bunt, family: family}
}

// Status returns the StatusStore for one family.
func (d *DB) Status(family string) *StatusStore {
	return &StatusStore{db: d.bunt, family: family}
}

// ChangeLog returns the shared changed_cubes_log table.
func (d *DB) ChangeLog() *ChangeLog {
	return &ChangeLog{db: d.bunt}
}
