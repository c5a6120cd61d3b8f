package scheduler

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/statcan/wds-pipeline/store"
)

// FetchFunc executes one state-machine transition for key (spec.md §4.D's
// per-artifact fetch loop). Errors are logged and counted, never
// propagated to sibling keys -- "per-artifact errors are recovered
// locally" (spec.md §7).
type FetchFunc func(ctx context.Context, key store.Key) error

// PoolResult summarizes one worker-pool run.
type PoolResult struct {
	Attempted int
	Succeeded int
	Failed    int
}

// runPool shards keys across numWorkers goroutines by shardFor(productid),
// so repeated runs and concurrent callers never double-fetch the same
// productid (spec.md §5: "at-most-one in-flight fetch per productid per
// family"). Honors ctx cancellation between keys within a shard ("worker
// loops check a cancellation flag between iterations and drain in-flight
// work cleanly", spec.md §5).
//
// Sharding alone already guarantees a given productid is only ever handled
// by one goroutine within this pool run, but status additionally enforces
// the invariant across pool runs and processes: each key is claimed before
// fn runs and released after, the buntdb analogue of
// "UPDATE ... WHERE downloadPending=true AND claimed_by IS NULL" (spec.md
// §5). A key already claimed by another in-flight run is skipped, not
// retried.
func runPool(ctx context.Context, status *store.StatusStore, keys []store.Key, numWorkers int, fn FetchFunc) PoolResult {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	shards := make([][]store.Key, numWorkers)
	for _, k := range keys {
		idx := shardFor(k.ProductID, numWorkers)
		shards[idx] = append(shards[idx], k)
	}

	var mu sync.Mutex
	var result PoolResult
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		shard := shards[w]
		if len(shard) == 0 {
			continue
		}
		wg.Add(1)
		go func(workerIdx int, keys []store.Key) {
			defer wg.Done()
			workerID := claimToken(workerIdx)
			for _, k := range keys {
				if ctx.Err() != nil {
					return
				}

				claimed, err := status.Claim(k, workerID)
				if err != nil {
					glog.Errorf("scheduler: worker %s claiming %s: %v", workerID, k, err)
					continue
				}
				if !claimed {
					continue
				}

				mu.Lock()
				result.Attempted++
				mu.Unlock()

				fetchErr := fn(ctx, k)

				if relErr := status.Release(k); relErr != nil {
					glog.Errorf("scheduler: worker %s releasing claim on %s: %v", workerID, k, relErr)
				}

				mu.Lock()
				if fetchErr != nil {
					result.Failed++
					glog.Warningf("scheduler: worker %s fetch failed for %s: %v", workerID, k, fetchErr)
				} else {
					result.Succeeded++
				}
				mu.Unlock()
			}
		}(w, shard)
	}
	wg.Wait()
	return result
}
