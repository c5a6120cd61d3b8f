package scheduler

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	cuckoo "github.com/seiflotfy/cuckoofilter"

	"github.com/statcan/wds-pipeline/cmn"
	"github.com/statcan/wds-pipeline/contentstore"
	"github.com/statcan/wds-pipeline/store"
	"github.com/statcan/wds-pipeline/wdsclient"
)

// Scheduler drives the three independent pipelines (spine, cube, metadata)
// through the shared state machine in spec.md §4.D, over one shared
// Artifact Registry, Content Store, and WDS client.
type Scheduler struct {
	DB      *store.DB
	Content *contentstore.Store
	Client  *wdsclient.Client

	CubeWorkers     int
	MetadataWorkers int

	ReleaseLocation *time.Location
	ReleaseOffset   time.Duration
}

// New builds a Scheduler from its collaborators; ReleaseLocation/Offset
// implement the configurable 08:30 release-time parameter (spec.md §9
// Open Question).
func New(db *store.DB, content *contentstore.Store, client *wdsclient.Client, cubeWorkers, metadataWorkers int, loc *time.Location, offset time.Duration) *Scheduler {
	return &Scheduler{
		DB:              db,
		Content:         content,
		Client:          client,
		CubeWorkers:     cubeWorkers,
		MetadataWorkers: metadataWorkers,
		ReleaseLocation: loc,
		ReleaseOffset:   offset,
	}
}

// FetchSpine runs the spine pipeline (spec.md §4.D): fetch, hash, compare
// to the active spine hash; if different, Put+Insert; if same, drop the
// bytes. Returns true if a new spine hash was adopted, signalling the
// caller to trigger the Spine Loader.
func (s *Scheduler) FetchSpine(ctx context.Context) (adopted bool, payload []byte, err error) {
	key := store.Key{Family: cmn.FamilySpine}
	body, err := s.Client.ListAllCubes(ctx)
	if err != nil {
		return false, nil, err
	}

	_, existingHash, ok, err := s.DB.Artifacts(cmn.FamilySpine).ActivePath(key)
	if err != nil {
		return false, nil, err
	}
	candidateHash := cmn.H12String(string(body))
	if ok && candidateHash == existingHash {
		return false, body, nil
	}

	hash, path, err := s.Content.Put(cmn.StoreDirSpine, "json", body)
	if err != nil {
		return false, nil, errors.Wrap(err, "storing spine payload")
	}
	if _, err := s.DB.Artifacts(cmn.FamilySpine).Insert(key, hash, path); err != nil && !cmn.IsConstraintViolation(err) {
		return false, nil, errors.Wrap(err, "recording spine artifact")
	}
	if err := s.DB.Status(cmn.FamilySpine).MarkFetched(key, string(hash), time.Now().UTC()); err != nil {
		return false, nil, err
	}
	return true, body, nil
}

// SeedProductStatus inserts a pending status row for every productID not
// yet tracked by the given family (spec.md §4.D: "cube-status seeding").
func (s *Scheduler) SeedProductStatus(family string, productIDs []int64) error {
	status := s.DB.Status(family)
	for _, pid := range productIDs {
		if err := status.Seed(store.Key{Family: family, ProductID: pid}); err != nil {
			return errors.Wrapf(err, "seeding %s status for productid %s", family, cmn.Itoa(pid))
		}
	}
	return nil
}

// DiscoverChanges walks ChangedCubeList(date) for every date since the
// change log's high-water mark through today, upserts into the change log
// (deduping in-process hits with a cuckoo filter before the buntdb
// round-trip), and marks cube_status.downloadPending=true for any
// productid whose change crossed the release-time offset (spec.md §4.D).
func (s *Scheduler) DiscoverChanges(ctx context.Context, since time.Time) error {
	changelog := s.DB.ChangeLog()
	status := s.DB.Status(cmn.FamilyCube)

	start := since
	if maxDate, err := changelog.MaxDate(); err == nil && maxDate.After(start) {
		start = maxDate
	}

	seen := cuckoo.NewFilter(1 << 16)
	now := time.Now().In(s.ReleaseLocation)

	for d := start; !d.After(now); d = d.AddDate(0, 0, 1) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		changes, err := s.Client.ChangedCubeList(ctx, d)
		if err != nil {
			glog.Errorf("scheduler: discovering changes for %s: %v", d.Format("2006-01-02"), err)
			continue
		}
		for _, c := range changes {
			dedupeKey := []byte(cmn.Itoa(c.ProductID) + "|" + d.Format("2006-01-02"))
			if seen.Lookup(dedupeKey) {
				continue
			}
			seen.InsertUnique(dedupeKey)

			inserted, err := changelog.Upsert(c.ProductID, d)
			if err != nil {
				glog.Errorf("scheduler: recording change for productid %s: %v", cmn.Itoa(c.ProductID), err)
				continue
			}
			if !inserted {
				continue
			}

			if s.hasCrossedReleaseOffset(c.ReleaseTime) {
				if err := status.MarkPending(store.Key{Family: cmn.FamilyCube, ProductID: c.ProductID}); err != nil {
					glog.Errorf("scheduler: marking productid %s pending: %v", cmn.Itoa(c.ProductID), err)
				}
			}
		}
	}
	return nil
}

// hasCrossedReleaseOffset reports whether releaseTime is far enough in
// the past, relative to the configured release-time-of-day offset, that
// the change should be considered published (spec.md §4.D: "fixed 08:30
// local release offset").
func (s *Scheduler) hasCrossedReleaseOffset(releaseTime time.Time) bool {
	local := releaseTime.In(s.ReleaseLocation)
	releaseBoundary := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.ReleaseLocation).Add(s.ReleaseOffset)
	return !time.Now().In(s.ReleaseLocation).Before(releaseBoundary)
}

// FetchCubes runs the cube fetch loop over every pending cube key (spec.md
// §4.D): fetch, Put into content store, Insert artifact row, deactivate
// prior row, clear pending.
func (s *Scheduler) FetchCubes(ctx context.Context) (PoolResult, error) {
	status := s.DB.Status(cmn.FamilyCube)
	keys, err := status.PendingKeys()
	if err != nil {
		return PoolResult{}, err
	}
	return runPool(ctx, status, keys, s.CubeWorkers, s.fetchOneCube), nil
}

func (s *Scheduler) fetchOneCube(ctx context.Context, key store.Key) error {
	return s.fetchOneArtifact(ctx, key, cmn.StoreDirCubes, "zip", func() ([]byte, error) {
		return s.Client.DownloadCubeCsv(ctx, key.ProductID)
	})
}

// FetchMetadata runs the metadata fetch loop, the identical shape as
// FetchCubes against a different endpoint and path family (spec.md §4.D).
func (s *Scheduler) FetchMetadata(ctx context.Context) (PoolResult, error) {
	status := s.DB.Status(cmn.FamilyMetadata)
	keys, err := status.PendingKeys()
	if err != nil {
		return PoolResult{}, err
	}
	return runPool(ctx, status, keys, s.MetadataWorkers, s.fetchOneMetadata), nil
}

func (s *Scheduler) fetchOneMetadata(ctx context.Context, key store.Key) error {
	return s.fetchOneArtifact(ctx, key, cmn.StoreDirMetadata, "json", func() ([]byte, error) {
		return s.Client.CubeMetadata(ctx, key.ProductID)
	})
}

// fetchOneArtifact implements the shared [PENDING]->[FETCHED]->[ACTIVE]/
// [NOOP] transition (spec.md §4.D) for one key. A constraint violation on
// Insert (same productid+hash already active) is treated as "no change":
// pending is cleared and last_download refreshed, not an error.
func (s *Scheduler) fetchOneArtifact(ctx context.Context, key store.Key, storeDir, ext string, fetch func() ([]byte, error)) error {
	payload, err := fetch()
	if err != nil {
		return err
	}

	hash, path, err := s.Content.Put(storeDir, ext, payload)
	if err != nil {
		return errors.Wrap(err, "storing artifact payload")
	}

	_, err = s.DB.Artifacts(key.Family).Insert(key, hash, path)
	if err != nil && !cmn.IsConstraintViolation(err) {
		return errors.Wrap(err, "recording artifact")
	}
	return s.DB.Status(key.Family).MarkFetched(key, string(hash), time.Now().UTC())
}
