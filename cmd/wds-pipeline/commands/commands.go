package commands

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"

	"github.com/statcan/wds-pipeline/cmn"
	"github.com/statcan/wds-pipeline/rawloader"
	"github.com/statcan/wds-pipeline/registry"
	"github.com/statcan/wds-pipeline/scheduler"
	"github.com/statcan/wds-pipeline/spineloader"
	"github.com/statcan/wds-pipeline/store"
	"github.com/statcan/wds-pipeline/verifier"
)

var sinceFlag = cli.StringFlag{
	Name:  "since",
	Usage: "earliest change date to scan, YYYY-MM-DD (default: 30 days ago)",
}

// Commands is the CLI surface named in spec.md §6, one entry per pipeline
// stage plus the ambient serve command.
var Commands = []cli.Command{
	{Name: "fetch-spine", Usage: "fetch the spine snapshot if it changed", Action: withContext(fetchSpine)},
	{Name: "load-spine", Usage: "load the active spine artifact into the spine tables", Action: withContext(loadSpine)},
	{Name: "seed-status", Usage: "seed cube/metadata status rows for every spine productid", Action: withContext(seedStatus)},
	{Name: "discover-changes", Usage: "scan changed-cubes-since(date) and mark pending cubes", Flags: []cli.Flag{sinceFlag}, Action: withContext(discoverChanges)},
	{Name: "fetch-cubes", Usage: "run the cube fetch loop over pending productids", Action: withContext(fetchCubes)},
	{Name: "fetch-metadata", Usage: "run the metadata fetch loop over pending productids", Action: withContext(fetchMetadata)},
	{Name: "verify-files", Usage: "reconcile the content store against the artifact registry", Action: withContext(verifyFiles)},
	{Name: "load-raw-dimensions", Usage: "parse active metadata artifacts into raw dimension/member rows", Action: withContext(loadRawDimensions)},
	{Name: "build-registry", Usage: "run the dimension registry builder (stages 1-4)", Action: withContext(buildRegistry)},
	{Name: "normalize-labels", Usage: "run registry stages 1-2 only, for inspecting member/dimension hashes", Action: withContext(normalizeLabels)},
	{Name: "serve", Usage: "expose /metrics and run the cube and metadata fetch loops on a fixed interval", Action: withContext(serve)},
}

// withContext wraps an Action so every command builds and tears down the
// same RootContext, per spec.md §9's "one root context per CLI command".
func withContext(fn func(*RootContext, *cli.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		rc, err := NewRootContext()
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		defer rc.Close()
		if err := fn(rc, c); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		return nil
	}
}

func fetchSpine(rc *RootContext, _ *cli.Context) error {
	ctx := context.Background()
	adopted, payload, err := rc.Scheduler.FetchSpine(ctx)
	if err != nil {
		return err
	}
	if adopted {
		color.Green("spine: adopted new snapshot (%d bytes)", len(payload))
	} else {
		color.Yellow("spine: unchanged")
	}
	return nil
}

func loadSpine(rc *RootContext, _ *cli.Context) error {
	path, _, ok, err := rc.DB.Artifacts(cmn.FamilySpine).ActivePath(store.Key{Family: cmn.FamilySpine})
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("no active spine artifact; run fetch-spine first")
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading spine artifact")
	}
	n, err := spineloader.Load(rc.Spine, payload)
	if err != nil {
		return err
	}
	color.Green("spine: loaded %d cubes", n)
	return nil
}

func seedStatus(rc *RootContext, _ *cli.Context) error {
	ids, err := rc.Spine.AllProductIDs()
	if err != nil {
		return err
	}
	if err := rc.Scheduler.SeedProductStatus(cmn.FamilyCube, ids); err != nil {
		return err
	}
	if err := rc.Scheduler.SeedProductStatus(cmn.FamilyMetadata, ids); err != nil {
		return err
	}
	color.Green("seeded status for %d productids", len(ids))
	return nil
}

func discoverChanges(rc *RootContext, c *cli.Context) error {
	since := time.Now().AddDate(0, 0, -30)
	if s := c.String("since"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return errors.Wrap(err, "parsing --since")
		}
		since = t
	}
	if err := rc.Scheduler.DiscoverChanges(context.Background(), since); err != nil {
		return err
	}
	color.Green("discover-changes: complete")
	return nil
}

func fetchCubes(rc *RootContext, _ *cli.Context) error {
	result, err := rc.Scheduler.FetchCubes(context.Background())
	if err != nil {
		return err
	}
	printPoolResult("cubes", result)
	return nil
}

func fetchMetadata(rc *RootContext, _ *cli.Context) error {
	result, err := rc.Scheduler.FetchMetadata(context.Background())
	if err != nil {
		return err
	}
	printPoolResult("metadata", result)
	return nil
}

func printPoolResult(label string, r scheduler.PoolResult) {
	color.Cyan("%s: attempted=%d succeeded=%d failed=%d", label, r.Attempted, r.Succeeded, r.Failed)
}

func verifyFiles(rc *RootContext, _ *cli.Context) error {
	v := verifier.New(rc.DB, rc.Content, rc.Stats)
	for _, family := range []string{cmn.FamilySpine, cmn.FamilyCube, cmn.FamilyMetadata} {
		summary, err := v.Run(family)
		if err != nil {
			return err
		}
		color.Cyan("verify %s: checked=%d ok=%d repaired=%d", family, summary.Checked, summary.OK, summary.Repaired)
	}
	sweep, err := v.Sweep()
	if err != nil {
		return err
	}
	if len(sweep.Orphans) > 0 {
		color.Yellow("maintenance sweep: %d orphan file(s) out of %d scanned", len(sweep.Orphans), sweep.Scanned)
	} else {
		color.Green("maintenance sweep: no orphans out of %d scanned", sweep.Scanned)
	}
	return nil
}

func loadRawDimensions(rc *RootContext, _ *cli.Context) error {
	ids, err := rc.Spine.AllProductIDs()
	if err != nil {
		return err
	}
	var loaded, failed int
	for _, pid := range ids {
		path, _, ok, err := rc.DB.Artifacts(cmn.FamilyMetadata).ActivePath(store.Key{Family: cmn.FamilyMetadata, ProductID: pid})
		if err != nil || !ok {
			continue
		}
		payload, err := os.ReadFile(path)
		if err != nil {
			failed++
			continue
		}
		if _, _, err := rawloader.Load(rc.Raw, pid, payload); err != nil {
			color.Red("load-raw-dimensions: productid %d: %v", pid, err)
			failed++
			continue
		}
		loaded++
	}
	color.Green("load-raw-dimensions: loaded=%d failed=%d", loaded, failed)
	return nil
}

func buildRegistry(rc *RootContext, _ *cli.Context) error {
	builder := registry.NewBuilder(rc.Raw, rc.Processed, rc.Canonical, rc.Normalizer, rc.Stats)
	result, err := builder.Build()
	if err != nil {
		return err
	}
	color.Green("build-registry: %d canonical dimensions, %d canonical members", result.CanonicalDims, result.CanonicalMembers)
	return nil
}

func normalizeLabels(rc *RootContext, _ *cli.Context) error {
	rawMembers, err := rc.Raw.AllMembers()
	if err != nil {
		return err
	}
	rawDims, err := rc.Raw.AllDimensions()
	if err != nil {
		return err
	}
	members := registry.ProcessMembers(rawMembers)
	members, dims := registry.ProcessDimensions(members, rawDims)
	if err := rc.Processed.ReplaceAll(members, dims); err != nil {
		return err
	}
	color.Green("normalize-labels: %d processed members, %d processed dimensions", len(members), len(dims))
	return nil
}

// serve exposes /metrics and runs the cube and metadata fetch loops every
// five minutes until interrupted (SPEC_FULL.md §4.J: /metrics is exposed
// in serve mode only). It does not fetch the spine or run change
// discovery; those stay separate commands.
func serve(rc *RootContext, _ *cli.Context) error {
	if rc.Config.MetricsAddr == "" {
		return errors.New("serve requires WDS_METRICS_ADDR to be set")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rc.Registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: rc.Config.MetricsAddr, Handler: mux}
	go func() {
		color.Green("serve: /metrics on %s", rc.Config.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			color.Red("serve: metrics server error: %v", err)
		}
	}()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	ctx := context.Background()
	for range ticker.C {
		start := time.Now()
		cubeResult, err := rc.Scheduler.FetchCubes(ctx)
		if err != nil {
			color.Red("serve: fetch-cubes: %v", err)
		} else {
			rc.Stats.ObserveFetch(cmn.FamilyCube, cubeResult.Succeeded, time.Since(start))
		}

		start = time.Now()
		metaResult, err := rc.Scheduler.FetchMetadata(ctx)
		if err != nil {
			color.Red("serve: fetch-metadata: %v", err)
		} else {
			rc.Stats.ObserveFetch(cmn.FamilyMetadata, metaResult.Succeeded, time.Since(start))
		}
	}
	return nil
}
