// Package cmn provides shared constants, hashing, and error types used
// across the ingestion pipeline and the dimension registry builder.
/*
 * Copyright (c) 2024, Statistics Canada WDS Mirror Project.
 */
package cmn

import "time"

// Artifact families. Each has its own key space in the artifact registry
// and status store but shares the same state-machine shape (spec.md §4.D).
const (
	FamilySpine    = "spine"
	FamilyCube     = "cube"
	FamilyMetadata = "metadata"
)

// Content store subdirectories, mirrored 1:1 with the artifact families.
const (
	StoreDirSpine    = "spine"
	StoreDirCubes    = "cubes"
	StoreDirMetadata = "metadata"
)

// HashLen is the number of hex characters kept from a SHA-256 digest to
// form a Hash (spec.md §3: "first 12 hex characters").
const HashLen = 12

// NullSentinel is substituted for nil fields before hashing so that
// "absent" and "empty string" never collide in a composed hash input.
const NullSentinel = "\x00"

// DefaultReleaseTimezone is the fallback timezone for the 08:30 cube
// release-time offset (spec.md §9, Open Question: "treat as a configurable
// parameter defaulting to Eastern Time").
const DefaultReleaseTimezone = "America/Toronto"

// DefaultReleaseOffset is the time-of-day, in the release timezone, after
// which a change_date is considered to have actually published.
var DefaultReleaseOffset = 8*time.Hour + 30*time.Minute

// Politeness floors between successive calls to the same WDS endpoint
// family (spec.md §6).
const (
	MinDelayMetadata = time.Second
	MinDelayCube     = 2 * time.Second
)
