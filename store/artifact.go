package store

import "time"

// ArtifactRecord is one row of a per-family artifact history, as defined
// in spec.md §3: "{id, productid?, fileHash, downloadTime, active,
// storageLocation}". ProductID is 0 for the spine family.
type ArtifactRecord struct {
	ID              string
	ProductID       int64
	FileHash        string
	DownloadTime    time.Time
	Active          bool
	StorageLocation string
}
