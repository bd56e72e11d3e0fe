package qcache

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// CacheIOError reports a failure reading or writing a cache entry. It is a
// soft failure: callers should log it through their progress hook and
// proceed as if the cache were empty, not abort the run.
type CacheIOError struct {
	Op  string
	Err error
}

func (e *CacheIOError) Error() string {
	return fmt.Sprintf("qcache: cache I/O error during %s: %v", e.Op, e.Err)
}

func (e *CacheIOError) Unwrap() error { return e.Err }

// Entry is the persisted value for a Key: the per-constraint sample
// sequences collected during calibration, so q can be recomputed with an
// alternative quantile policy without re-simulating.
type Entry struct {
	Samples [][]float64
}

// record is what actually gets written to disk: the Entry plus the Key it
// was calibrated for. The Key rides along so a cache file is
// self-describing — cmd/qcache-inspect can list what's in a cache
// directory without first guessing at keys to hash and look up.
type record struct {
	Key   Key
	Entry Entry
}

// Store is an on-disk, content-addressed store of calibration Entries, one
// file per Hash in a directory.
type Store struct {
	dir string
}

// NewStore wraps dir as a q-cache directory. The directory must already
// exist; NewStore does not create it.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(h Hash) string {
	return filepath.Join(s.dir, fmt.Sprintf("%x.qcache", h))
}

// Load reads and deserialises the entry for key, if present. A missing
// file is reported as (Entry{}, false, nil) — an ordinary cache miss, not
// an error. A present-but-corrupt file is also treated as a miss, wrapped
// in *CacheIOError so the caller can log it.
func (s *Store) Load(key Key) (Entry, bool, error) {
	rec, found, err := s.loadRecord(s.path(key.Hash()))
	if err != nil || !found {
		return Entry{}, found, err
	}
	return rec.Entry, true, nil
}

func (s *Store) loadRecord(path string) (record, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return record{}, false, nil
		}
		return record{}, false, &CacheIOError{Op: "open", Err: err}
	}
	defer f.Close()

	var rec record
	if err := gob.NewDecoder(f).Decode(&rec); err != nil {
		return record{}, false, &CacheIOError{Op: "decode", Err: err}
	}
	return rec, true, nil
}

// Save persists entry for key, replacing any existing entry atomically: it
// writes to a uuid-suffixed temporary file in the same directory and
// renames it over the canonical path.
func (s *Store) Save(key Key, entry Entry) error {
	tmpPath := filepath.Join(s.dir, fmt.Sprintf(".tmp-%s", uuid.NewString()))

	f, err := os.Create(tmpPath)
	if err != nil {
		return &CacheIOError{Op: "create temp file", Err: err}
	}
	if err := gob.NewEncoder(f).Encode(record{Key: key, Entry: entry}); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return &CacheIOError{Op: "encode", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return &CacheIOError{Op: "close temp file", Err: err}
	}

	if err := os.Rename(tmpPath, s.path(key.Hash())); err != nil {
		os.Remove(tmpPath)
		return &CacheIOError{Op: "rename", Err: err}
	}
	return nil
}

// Inspect opens every "*.qcache" file in dir and decodes it as a Key/Entry
// record, for cmd/qcache-inspect. Files that fail to decode are skipped,
// not reported as an error: a directory may contain entries from other
// tools or future format versions.
func Inspect(dir string) ([]InspectedEntry, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.qcache"))
	if err != nil {
		return nil, &CacheIOError{Op: "glob", Err: err}
	}

	store := NewStore(dir)
	out := make([]InspectedEntry, 0, len(matches))
	for _, path := range matches {
		rec, found, err := store.loadRecord(path)
		if err != nil || !found {
			continue
		}
		out = append(out, InspectedEntry{Path: path, Key: rec.Key, Entry: rec.Entry})
	}
	return out, nil
}

// InspectedEntry is one decoded cache file, as reported by Inspect.
type InspectedEntry struct {
	Path  string
	Key   Key
	Entry Entry
}
