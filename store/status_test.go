package store

import (
	"testing"
	"time"
)

func fixedTime() time.Time {
	return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStatusSeedIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	s := db.Status("cubes")
	key := Key{Family: "cubes", ProductID: 1}

	if err := s.Seed(key); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := s.MarkFetched(key, "h1", fixedTime()); err != nil {
		t.Fatalf("MarkFetched: %v", err)
	}
	if err := s.Seed(key); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	row, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if row.DownloadPending {
		t.Fatalf("Seed must not reset an already-fetched row back to pending")
	}
	if row.LastFileHash != "h1" {
		t.Fatalf("LastFileHash = %q, want h1", row.LastFileHash)
	}
}

func TestStatusClaimIsExclusive(t *testing.T) {
	db := openTestDB(t)
	s := db.Status("cubes")
	key := Key{Family: "cubes", ProductID: 7}

	if err := s.Seed(key); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	ok1, err := s.Claim(key, "worker-a")
	if err != nil {
		t.Fatalf("Claim worker-a: %v", err)
	}
	if !ok1 {
		t.Fatalf("first claim should succeed on a pending, unclaimed row")
	}

	ok2, err := s.Claim(key, "worker-b")
	if err != nil {
		t.Fatalf("Claim worker-b: %v", err)
	}
	if ok2 {
		t.Fatalf("second claim must fail while worker-a holds the row")
	}

	if err := s.Release(key); err != nil {
		t.Fatalf("Release: %v", err)
	}
	row, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if row.ClaimedBy != "" {
		t.Fatalf("Release must clear ClaimedBy, got %q", row.ClaimedBy)
	}
	if !row.DownloadPending {
		t.Fatalf("Release must leave downloadPending=true")
	}

	ok3, err := s.Claim(key, "worker-b")
	if err != nil {
		t.Fatalf("Claim after release: %v", err)
	}
	if !ok3 {
		t.Fatalf("worker-b should be able to claim after worker-a released")
	}
}

func TestStatusClaimFailsWhenNotPending(t *testing.T) {
	db := openTestDB(t)
	s := db.Status("cubes")
	key := Key{Family: "cubes", ProductID: 9}

	if err := s.Seed(key); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := s.MarkFetched(key, "h2", fixedTime()); err != nil {
		t.Fatalf("MarkFetched: %v", err)
	}

	ok, err := s.Claim(key, "worker-a")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if ok {
		t.Fatalf("Claim must fail once downloadPending=false")
	}
}

func TestStatusPendingKeysListsOnlyPendingRows(t *testing.T) {
	db := openTestDB(t)
	s := db.Status("cubes")

	keyPending := Key{Family: "cubes", ProductID: 1}
	keyFetched := Key{Family: "cubes", ProductID: 2}

	if err := s.Seed(keyPending); err != nil {
		t.Fatalf("Seed pending: %v", err)
	}
	if err := s.Seed(keyFetched); err != nil {
		t.Fatalf("Seed fetched: %v", err)
	}
	if err := s.MarkFetched(keyFetched, "h3", fixedTime()); err != nil {
		t.Fatalf("MarkFetched: %v", err)
	}

	keys, err := s.PendingKeys()
	if err != nil {
		t.Fatalf("PendingKeys: %v", err)
	}
	if len(keys) != 1 || keys[0].ProductID != 1 {
		t.Fatalf("PendingKeys = %v, want only productid 1", keys)
	}
}

func TestStatusMarkPendingReclaimsAFetchedRow(t *testing.T) {
	db := openTestDB(t)
	s := db.Status("cubes")
	key := Key{Family: "cubes", ProductID: 3}

	if err := s.Seed(key); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := s.MarkFetched(key, "h4", fixedTime()); err != nil {
		t.Fatalf("MarkFetched: %v", err)
	}
	if _, err := s.Claim(key, "worker-a"); err == nil {
		// claim should fail since not pending; ignore ok value here.
	}

	if err := s.MarkPending(key); err != nil {
		t.Fatalf("MarkPending: %v", err)
	}
	row, err := s.Get(key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !row.DownloadPending {
		t.Fatalf("MarkPending must set downloadPending=true")
	}
	if row.ClaimedBy != "" {
		t.Fatalf("MarkPending must clear any stale claim")
	}
}
