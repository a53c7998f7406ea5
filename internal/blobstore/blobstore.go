// Package blobstore is the content-addressed blob store: writes
// accumulate in a temp file, and finalize renames it into place under
// its SHA-256 hex digest, guaranteeing write-order independence.
package blobstore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store roots the on-disk layout: baseDir/blobs for finalized content,
// baseDir/tmp for in-construction writes.
type Store struct {
	baseDir string
	tmpDir  string
}

// Open ensures the base and tmp directories exist (idempotent).
func Open(baseDir string) (*Store, error) {
	tmpDir := filepath.Join(baseDir, "tmp")
	blobsDir := filepath.Join(baseDir, "blobs")
	if err := os.MkdirAll(blobsDir, 0755); err != nil {
		return nil, fmt.Errorf("blobstore: mkdir blobs: %w", err)
	}
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return nil, fmt.Errorf("blobstore: mkdir tmp: %w", err)
	}
	return &Store{baseDir: blobsDir, tmpDir: tmpDir}, nil
}

// NewBlob is an in-construction blob: bytes written so far accumulate
// in a private temp file.
type NewBlob struct {
	path string
	f    *os.File
	hash hash.Hash
	n    int64
}

// Create allocates a fresh temp file for writing.
func (s *Store) Create() (*NewBlob, error) {
	tmpPath := filepath.Join(s.tmpDir, uuid.New().String())
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("blobstore: create temp: %w", err)
	}
	return &NewBlob{path: tmpPath, f: f, hash: sha256.New()}, nil
}

// Write appends bytes to the in-construction blob and folds them into
// the running content hash. Returns the number of bytes written.
func (b *NewBlob) Write(p []byte) (int, error) {
	n, err := b.f.Write(p)
	if err != nil {
		return n, fmt.Errorf("blobstore: write: %w", err)
	}
	if _, err := b.hash.Write(p[:n]); err != nil {
		return n, err
	}
	b.n += int64(n)
	return n, nil
}

// Len reports bytes written so far.
func (b *NewBlob) Len() int64 { return b.n }

// Blob is a finalized, immutable, content-addressed byte string.
type Blob struct {
	Name string // hex-encoded SHA-256 digest
	path string
	size int64
}

// Finalize computes the content hash of everything written, closes
// the temp file, and atomically renames it to its content-addressed
// path. Finalizing is write-order independent: the hash only depends
// on the concatenation of bytes written, not how writes were chunked.
func (s *Store) Finalize(b *NewBlob) (*Blob, error) {
	if err := b.f.Close(); err != nil {
		return nil, fmt.Errorf("blobstore: close temp: %w", err)
	}
	sum := b.hash.Sum(nil)
	name := hex.EncodeToString(sum)
	finalPath := filepath.Join(s.baseDir, name)

	if _, err := os.Stat(finalPath); err == nil {
		// Identical content already stored; drop the duplicate temp file.
		_ = os.Remove(b.path)
	} else {
		if err := os.Rename(b.path, finalPath); err != nil {
			return nil, fmt.Errorf("blobstore: promote: %w", err)
		}
	}
	return &Blob{Name: name, path: finalPath, size: b.n}, nil
}

// Open opens a previously finalized blob by its content-hash name.
func (s *Store) Open(name string) (*Blob, error) {
	path := filepath.Join(s.baseDir, name)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("blobstore: open %s: %w", name, err)
	}
	return &Blob{Name: name, path: path, size: info.Size()}, nil
}

// Len reports the blob's total size in bytes.
func (b *Blob) Len() int64 { return b.size }

// ReadAt performs a random-access read. Short reads at EOF are
// permitted and reported via io.EOF like os.File.ReadAt.
func (b *Blob) ReadAt(buf []byte, offset int64) (int, error) {
	f, err := os.Open(b.path)
	if err != nil {
		return 0, fmt.Errorf("blobstore: read %s: %w", b.Name, err)
	}
	defer f.Close()
	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("blobstore: read %s: %w", b.Name, err)
	}
	return n, err
}

// WriteTo streams the finalized blob's full contents to w, used when
// materializing an invocation payload or HTTP response body into a
// new blob.
func (b *Blob) WriteTo(w io.Writer) (int64, error) {
	f, err := os.Open(b.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}
