// Package commands implements the CLI surface named in spec.md §6: one
// subcommand per pipeline stage, composable, each returning exit 0 on
// success and non-zero on fatal error.
//
// Grounded on cmd/cli's package-per-concern split (app.go thin, commands/
// holding the actual cli.Command definitions and Action handlers) and on
// spec.md §9's design note: "pass a context object carrying connection
// pool, content store handle, WDS client, normalizer; one root context
// per CLI command."
/*
 * Copyright (c) 2024, Statistics Canada WDS Mirror Project.
 */
package commands

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/statcan/wds-pipeline/cmn"
	"github.com/statcan/wds-pipeline/config"
	"github.com/statcan/wds-pipeline/contentstore"
	"github.com/statcan/wds-pipeline/normalizer"
	"github.com/statcan/wds-pipeline/scheduler"
	"github.com/statcan/wds-pipeline/statsx"
	"github.com/statcan/wds-pipeline/store"
	"github.com/statcan/wds-pipeline/warehouse"
	"github.com/statcan/wds-pipeline/wdsclient"
)

// RootContext is the one object every command builds at startup and tears
// down at exit: config snapshot, DB handle, content store, WDS client,
// warehouse stores, scheduler, and the injected label normalizer.
type RootContext struct {
	Config *config.Config

	DB      *store.DB
	Content *contentstore.Store
	Client  *wdsclient.Client

	Spine     *warehouse.SpineStore
	Raw       *warehouse.RawStore
	Processed *warehouse.ProcessedStore
	Canonical *warehouse.CanonicalStore

	Scheduler  *scheduler.Scheduler
	Normalizer normalizer.Normalizer

	Registry *prometheus.Registry
	Stats    *statsx.Stats
}

// NewRootContext loads config and wires every collaborator, the single
// place that assembles the "context object" spec.md §9 asks for.
func NewRootContext() (*RootContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading config")
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	content, err := contentstore.New(cfg.RawRoot)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "opening content store")
	}

	client := wdsclient.New(cfg.WDSBaseURL, cfg.UserAgent, cfg.CallTimeout, cfg.MaxRetries)

	loc, err := cfg.Location()
	if err != nil {
		db.Close()
		return nil, err
	}

	sched := scheduler.New(db, content, client, cfg.CubeWorkers, cfg.MetadataWorkers, loc, cfg.ReleaseOffset)

	reg := prometheus.NewRegistry()
	stats := statsx.New(reg)
	cmn.SetStats(stats)

	return &RootContext{
		Config:     cfg,
		DB:         db,
		Content:    content,
		Client:     client,
		Spine:      warehouse.NewSpineStore(db.Raw()),
		Raw:        warehouse.NewRawStore(db.Raw()),
		Processed:  warehouse.NewProcessedStore(db.Raw()),
		Canonical:  warehouse.NewCanonicalStore(db.Raw()),
		Scheduler:  sched,
		Normalizer: normalizer.New("en"),
		Registry:   reg,
		Stats:      stats,
	}, nil
}

// Close releases the database handle. Content store and WDS client hold
// no resources that need explicit teardown.
func (r *RootContext) Close() error {
	return r.DB.Close()
}
