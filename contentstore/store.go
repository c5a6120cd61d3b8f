// Package contentstore is the filesystem-backed, content-addressed blob
// store described in spec.md §4.B. It is deliberately the least clever
// package in the pipeline: a two-level hash-prefix fanout under a root
// directory, atomic publish via temp-file-then-rename, and nothing else.
//
// Grounded directly on fs/content.go's FQN-fanout pattern (the teacher
// resolves object paths by mountpoint + bucket + content-type + name; we
// resolve them by family + hash prefix, the same two-level fanout shape
// but keyed on the hash itself rather than an object name).
/*
 * Copyright (c) 2024, Statistics Canada WDS Mirror Project.
 */
package contentstore

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/statcan/wds-pipeline/cmn"
)

type Store struct {
	root string
}

func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating content store root %s", root)
	}
	return &Store{root: root}, nil
}

// Put writes payload under <root>/<family>/<hash-prefix>/<hash>.<ext>,
// content-addressed by its SHA-256 prefix. If the final path already
// exists it is assumed byte-identical (same hash implies same content)
// and is not rewritten -- spec.md §4.B: "idempotent put".
func (s *Store) Put(family, ext string, payload []byte) (cmn.Hash, string, error) {
	full := sha256.Sum256(payload)
	fullHex := hex.EncodeToString(full[:])
	hash := cmn.Hash(fullHex[:cmn.HashLen])

	finalPath := s.path(family, hash, ext)
	if _, err := os.Stat(finalPath); err == nil {
		return hash, finalPath, nil
	} else if !os.IsNotExist(err) {
		return "", "", errors.Wrapf(err, "stat %s", finalPath)
	}

	dir := filepath.Dir(finalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", errors.Wrapf(err, "creating fanout dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", "", errors.Wrap(err, "creating temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", "", errors.Wrap(err, "writing temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", "", errors.Wrap(err, "fsyncing temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", "", errors.Wrap(err, "closing temp file")
	}
	if err := os.Rename(tmpName, finalPath); err != nil {
		os.Remove(tmpName)
		// Lost the race with a concurrent Put of the same content: the
		// destination now exists with identical bytes (same hash), so
		// this is success, not a conflict.
		if _, statErr := os.Stat(finalPath); statErr == nil {
			return hash, finalPath, nil
		}
		return "", "", errors.Wrapf(err, "renaming into place %s", finalPath)
	}
	return hash, finalPath, nil
}

// Verify streams the file at path and compares its SHA-256 prefix to want,
// also returning the computed hash so a mismatch can be reported with both
// sides (cmn.CorruptContentError).
func (s *Store) Verify(path string, want cmn.Hash) (bool, cmn.Hash, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, "", nil
		}
		return false, "", errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, "", errors.Wrapf(err, "hashing %s", path)
	}
	got := cmn.Hash(hex.EncodeToString(h.Sum(nil))[:cmn.HashLen])
	return got == want, got, nil
}

// Delete best-effort removes path; absence is not an error.
func (s *Store) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "deleting %s", path)
	}
	return nil
}

// Root exposes the configured root for the maintenance sweep.
func (s *Store) Root() string { return s.root }

func (s *Store) path(family string, hash cmn.Hash, ext string) string {
	h := string(hash)
	prefix := h
	if len(h) >= 2 {
		prefix = h[:2]
	}
	return filepath.Join(s.root, family, prefix, h+"."+ext)
}
