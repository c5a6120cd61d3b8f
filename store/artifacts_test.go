package store

import (
	"testing"

	"github.com/statcan/wds-pipeline/cmn"
)

func TestArtifactInsertDeactivatesPriorRow(t *testing.T) {
	db := openTestDB(t)
	reg := db.Artifacts("cube")
	key := Key{Family: "cube", ProductID: 1}

	first, err := reg.Insert(key, cmn.Hash("aaaaaaaaaaaa"), "/path/a.zip")
	if err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if !first.Active {
		t.Fatalf("first inserted row should be active")
	}

	second, err := reg.Insert(key, cmn.Hash("bbbbbbbbbbbb"), "/path/b.zip")
	if err != nil {
		t.Fatalf("second Insert: %v", err)
	}
	if !second.Active {
		t.Fatalf("second inserted row should be active")
	}

	history, err := reg.History(key)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("History = %v, want 2 rows", history)
	}
	activeCount := 0
	for _, rec := range history {
		if rec.Active {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Fatalf("expected exactly one active row after the second Insert, got %d", activeCount)
	}

	path, hash, ok, err := reg.ActivePath(key)
	if err != nil {
		t.Fatalf("ActivePath: %v", err)
	}
	if !ok || hash != cmn.Hash("bbbbbbbbbbbb") || path != "/path/b.zip" {
		t.Fatalf("ActivePath = (%q, %q, %v), want the second row active", path, hash, ok)
	}
}

func TestArtifactInsertIsIdempotentForIdenticalHash(t *testing.T) {
	db := openTestDB(t)
	reg := db.Artifacts("cube")
	key := Key{Family: "cube", ProductID: 2}

	if _, err := reg.Insert(key, cmn.Hash("cccccccccccc"), "/path/c.zip"); err != nil {
		t.Fatalf("first Insert: %v", err)
	}

	_, err := reg.Insert(key, cmn.Hash("cccccccccccc"), "/path/c.zip")
	if err == nil {
		t.Fatalf("expected a constraint violation for a duplicate (key, hash) pair")
	}
	if !cmn.IsConstraintViolation(err) {
		t.Fatalf("expected IsConstraintViolation(err) to be true, got %v", err)
	}

	history, herr := reg.History(key)
	if herr != nil {
		t.Fatalf("History: %v", herr)
	}
	if len(history) != 1 {
		t.Fatalf("a duplicate Insert must not create a second row, got %d rows", len(history))
	}
}

func TestArtifactAllActiveAcrossProducts(t *testing.T) {
	db := openTestDB(t)
	reg := db.Artifacts("metadata")

	for pid := int64(1); pid <= 3; pid++ {
		key := Key{Family: "metadata", ProductID: pid}
		if _, err := reg.Insert(key, cmn.Hash("hash00000000"), "/p.json"); err != nil {
			t.Fatalf("Insert(%d): %v", pid, err)
		}
	}

	keys, recs, err := reg.AllActive()
	if err != nil {
		t.Fatalf("AllActive: %v", err)
	}
	if len(keys) != 3 || len(recs) != 3 {
		t.Fatalf("AllActive returned %d keys / %d recs, want 3/3", len(keys), len(recs))
	}
}

func TestArtifactRemoveClearsActiveMarker(t *testing.T) {
	db := openTestDB(t)
	reg := db.Artifacts("cube")
	key := Key{Family: "cube", ProductID: 5}

	rec, err := reg.Insert(key, cmn.Hash("dddddddddddd"), "/path/d.zip")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := reg.Remove(key, rec.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	_, _, ok, err := reg.ActivePath(key)
	if err != nil {
		t.Fatalf("ActivePath: %v", err)
	}
	if ok {
		t.Fatalf("ActivePath should report no active row after Remove")
	}

	keys, _, err := reg.AllActive()
	if err != nil {
		t.Fatalf("AllActive: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("AllActive = %v, want empty after Remove", keys)
	}
}

func TestArtifactRemoveOfSuperseededRowLeavesActiveMarkerIntact(t *testing.T) {
	db := openTestDB(t)
	reg := db.Artifacts("cube")
	key := Key{Family: "cube", ProductID: 6}

	first, err := reg.Insert(key, cmn.Hash("eeeeeeeeeeee"), "/path/e.zip")
	if err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	second, err := reg.Insert(key, cmn.Hash("ffffffffffff"), "/path/f.zip")
	if err != nil {
		t.Fatalf("second Insert: %v", err)
	}

	// first is now superseded (inactive); removing it must not disturb
	// the active marker, which still points at second. This exercises
	// Remove's non-active path without tripping its consistency check.
	if err := reg.Remove(key, first.ID); err != nil {
		t.Fatalf("Remove(first): %v", err)
	}

	path, hash, ok, err := reg.ActivePath(key)
	if err != nil {
		t.Fatalf("ActivePath: %v", err)
	}
	if !ok || hash != cmn.Hash(second.FileHash) || path != second.StorageLocation {
		t.Fatalf("ActivePath = (%q, %q, %v), want second row still active", path, hash, ok)
	}
}
