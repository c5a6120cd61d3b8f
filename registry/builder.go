package registry

import (
	"time"

	"github.com/golang/glog"

	"github.com/statcan/wds-pipeline/normalizer"
	"github.com/statcan/wds-pipeline/statsx"
	"github.com/statcan/wds-pipeline/warehouse"
)

// Builder runs Stages 1-4 end to end against a raw/processed/canonical
// store triple. It holds no state of its own between runs: invariant 5
// (spec.md §8) requires that rerunning Build with unchanged raw tables
// produce byte-identical canonical tables, which a stateless pure
// pipeline guarantees by construction.
type Builder struct {
	Raw        *warehouse.RawStore
	Processed  *warehouse.ProcessedStore
	Canonical  *warehouse.CanonicalStore
	Normalizer normalizer.Normalizer
	Stats      *statsx.Stats
}

// NewBuilder wires the three warehouse layers and the injected Label
// Normalizer (spec.md §4.H) into a Builder. stats may be nil outside serve
// mode; Build skips the metric calls in that case.
func NewBuilder(raw *warehouse.RawStore, processed *warehouse.ProcessedStore, canonical *warehouse.CanonicalStore, norm normalizer.Normalizer, stats *statsx.Stats) *Builder {
	return &Builder{Raw: raw, Processed: processed, Canonical: canonical, Normalizer: norm, Stats: stats}
}

// BuildResult summarizes one full run for the CLI's build-registry
// command.
type BuildResult struct {
	RawMembers       int
	RawDimensions    int
	ProcessedMembers int
	ProcessedDims    int
	CanonicalDims    int
	CanonicalMembers int
}

// Build runs Stage 1 through Stage 4 against the current raw tables and
// replaces the processed and canonical tables with the result. It is safe
// to call repeatedly: each stage truncates-and-replaces rather than
// merging.
func (b *Builder) Build() (BuildResult, error) {
	start := time.Now()
	rawMembers, err := b.Raw.AllMembers()
	if err != nil {
		return BuildResult{}, err
	}
	rawDims, err := b.Raw.AllDimensions()
	if err != nil {
		return BuildResult{}, err
	}

	processedMembers := ProcessMembers(rawMembers)
	processedMembers, processedDims := ProcessDimensions(processedMembers, rawDims)

	if err := b.Processed.ReplaceAll(processedMembers, processedDims); err != nil {
		return BuildResult{}, err
	}

	canonDims, canonMembers := BuildCanonical(processedMembers, processedDims, b.Normalizer)

	if err := b.Canonical.ReplaceAll(canonDims, canonMembers); err != nil {
		return BuildResult{}, err
	}

	glog.Infof("registry: built %d canonical dimensions, %d canonical members from %d raw members across %d raw dimensions",
		len(canonDims), len(canonMembers), len(rawMembers), len(rawDims))

	if b.Stats != nil {
		b.Stats.RegistryBuildLatency.Observe(time.Since(start).Seconds())
		b.Stats.RegistryDimCount.Set(float64(len(canonDims)))
		b.Stats.RegistryMemberCount.Set(float64(len(canonMembers)))
	}

	return BuildResult{
		RawMembers:       len(rawMembers),
		RawDimensions:    len(rawDims),
		ProcessedMembers: len(processedMembers),
		ProcessedDims:    len(processedDims),
		CanonicalDims:    len(canonDims),
		CanonicalMembers: len(canonMembers),
	}, nil
}
