package verifier

import (
	"os"
	"testing"
	"time"

	"github.com/statcan/wds-pipeline/cmn"
	"github.com/statcan/wds-pipeline/contentstore"
	"github.com/statcan/wds-pipeline/store"
)

func newTestVerifier(t *testing.T) (*Verifier, *store.DB, *contentstore.Store, string) {
	t.Helper()
	root, err := os.MkdirTemp("", "verifier-content-")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(root) })

	content, err := contentstore.New(root)
	if err != nil {
		t.Fatalf("contentstore.New: %v", err)
	}
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return New(db, content, nil), db, content, root
}

func TestVerifierRunLeavesIntactArtifactsAlone(t *testing.T) {
	v, db, content, _ := newTestVerifier(t)

	hash, path, err := content.Put(cmn.StoreDirCubes, "zip", []byte("payload"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	key := store.Key{Family: cmn.FamilyCube, ProductID: 1}
	if _, err := db.Artifacts(cmn.FamilyCube).Insert(key, hash, path); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	sum, err := v.Run(cmn.FamilyCube)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Checked != 1 || sum.OK != 1 || sum.Repaired != 0 {
		t.Fatalf("Summary = %+v, want one clean check", sum)
	}
}

func TestVerifierRunRepairsCorruptedFile(t *testing.T) {
	v, db, content, _ := newTestVerifier(t)

	hash, path, err := content.Put(cmn.StoreDirCubes, "zip", []byte("0123456789"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	key := store.Key{Family: cmn.FamilyCube, ProductID: 2}
	if _, err := db.Artifacts(cmn.FamilyCube).Insert(key, hash, path); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := db.Status(cmn.FamilyCube).Seed(key); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := db.Status(cmn.FamilyCube).MarkFetched(key, string(hash), time.Now().UTC()); err != nil {
		t.Fatalf("MarkFetched: %v", err)
	}

	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("truncating file: %v", err)
	}

	sum, err := v.Run(cmn.FamilyCube)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Checked != 1 || sum.OK != 0 || sum.Repaired != 1 {
		t.Fatalf("Summary = %+v, want one repair", sum)
	}

	row, err := db.Status(cmn.FamilyCube).Get(key)
	if err != nil {
		t.Fatalf("Get status: %v", err)
	}
	if !row.DownloadPending {
		t.Fatalf("repair must re-arm downloadPending")
	}

	keys, _, err := db.Artifacts(cmn.FamilyCube).AllActive()
	if err != nil {
		t.Fatalf("AllActive: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("AllActive = %v, want the repaired row removed", keys)
	}
}

func TestVerifierSweepFindsOrphanFiles(t *testing.T) {
	v, db, content, _ := newTestVerifier(t)

	activeHash, activePath, err := content.Put(cmn.StoreDirCubes, "zip", []byte("active"))
	if err != nil {
		t.Fatalf("Put active: %v", err)
	}
	key := store.Key{Family: cmn.FamilyCube, ProductID: 1}
	if _, err := db.Artifacts(cmn.FamilyCube).Insert(key, activeHash, activePath); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	_, orphanPath, err := content.Put(cmn.StoreDirCubes, "zip", []byte("orphan, never inserted"))
	if err != nil {
		t.Fatalf("Put orphan: %v", err)
	}

	result, err := v.Sweep()
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.Scanned != 2 {
		t.Fatalf("Scanned = %d, want 2", result.Scanned)
	}
	if len(result.Orphans) != 1 || result.Orphans[0] != orphanPath {
		t.Fatalf("Orphans = %v, want exactly [%s]", result.Orphans, orphanPath)
	}

	if _, err := os.Stat(orphanPath); err != nil {
		t.Fatalf("Sweep must never delete files, but orphan is gone: %v", err)
	}
}
