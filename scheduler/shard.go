// Package scheduler is the Ingestion Scheduler (spec.md §4.D): bounded
// worker pools driving the spine, cube, and metadata pipelines through
// the shared NEW→PENDING→FETCHED→ACTIVE/NOOP state machine.
//
// Grounded on cluster/map.go's consistent-hash placement (OneOfOne/xxhash
// picks a target deterministically from a key) and ais/xaction/xaction.go's
// bounded-worker-pool-per-job shape.
/*
 * Copyright (c) 2024, Statistics Canada WDS Mirror Project.
 */
package scheduler

import (
	"strconv"

	"github.com/OneOfOne/xxhash"
)

// shardSeed mirrors cluster/map.go's use of a fixed seed for its digest
// hash; any fixed constant works since the only requirement is that the
// same productid always hashes to the same shard within one process.
const shardSeed = 0

// shardFor deterministically assigns productID to one of numWorkers
// shards, the same consistent-hash-placement idea cluster/map.go uses to
// pick a target node: the assignment guarantees at-most-one in-flight
// fetch per productid per family (spec.md §5) without any cross-worker
// coordination, since a given productid always lands on the same worker.
func shardFor(productID int64, numWorkers int) int {
	if numWorkers <= 1 {
		return 0
	}
	h := xxhash.ChecksumString64S(strconv.FormatInt(productID, 10), shardSeed)
	return int(h % uint64(numWorkers))
}
