// Package store implements the Artifact Registry (spec.md §4.C) and its
// companion status/change-log tables over github.com/tidwall/buntdb, an
// embedded, transactional key/value store. The scope section of spec.md
// calls the relational store an external collaborator "used as durable
// key/value with transactions" -- buntdb is a literal implementation of
// that sentence, not a stand-in for a SQL schema the scope puts out of
// bounds.
/*
 * Copyright (c) 2024, Statistics Canada WDS Mirror Project.
 */
package store

import (
	"strconv"

	"github.com/statcan/wds-pipeline/cmn"
)

func parseProductID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// Key composes the (family, productid) identity spec.md §3 calls "key"
// throughout. ProductID is 0 for the spine family, which has no product
// dimension.
type Key struct {
	Family    string
	ProductID int64
}

func (k Key) String() string {
	return k.Family + "|" + cmn.Itoa(k.ProductID)
}

const (
	prefixArtifact  = "art"
	prefixActive    = "active"
	prefixStatus    = "status"
	prefixChangelog = "chglog"
)

func artifactKey(k Key, id string) string {
	return prefixArtifact + "|" + k.String() + "|" + id
}

func artifactPrefix(k Key) string {
	return prefixArtifact + "|" + k.String() + "|"
}

func activeKey(k Key) string {
	return prefixActive + "|" + k.String()
}

func statusKey(k Key) string {
	return prefixStatus + "|" + k.String()
}

func changelogKey(productID int64, changeDate string) string {
	return prefixChangelog + "|" + cmn.Itoa(productID) + "|" + changeDate
}

func changelogPrefix() string {
	return prefixChangelog + "|"
}
