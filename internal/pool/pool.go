// Package pool persists the observation pool across runs.
package pool

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bookvalue/internal/model"
)

// File is an observation pool stored as a JSON array. Concurrent runs are
// not coordinated; the last writer wins.
type File struct {
	path string
}

// NewFile returns the pool stored at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Load reads the pool. A missing file is an empty pool.
func (f *File) Load() ([]model.ObservationPoolEntry, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "pool: read %s", f.path)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []model.ObservationPoolEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, eris.Wrapf(err, "pool: decode %s", f.path)
	}
	return entries, nil
}

// Save replaces the pool file. The write goes through a temporary file in
// the same directory and a rename.
func (f *File) Save(entries []model.ObservationPoolEntry) error {
	if entries == nil {
		entries = []model.ObservationPoolEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return eris.Wrap(err, "pool: encode")
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "pool: create dir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".pool-*.json")
	if err != nil {
		return eris.Wrap(err, "pool: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "pool: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "pool: close temp file")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return eris.Wrapf(err, "pool: replace %s", f.path)
	}
	return nil
}

// Update merges this run's entries into the stored pool and rewrites it.
// seen holds the IDs of every record processed in this run.
func (f *File) Update(current []model.ObservationPoolEntry, seen map[string]bool) ([]model.ObservationPoolEntry, error) {
	existing, err := f.Load()
	if err != nil {
		return nil, err
	}
	merged := Merge(existing, current, seen)
	if err := f.Save(merged); err != nil {
		return nil, err
	}

	zap.L().Info("pool: updated",
		zap.String("path", f.path),
		zap.Int("previous", len(existing)),
		zap.Int("current", len(current)),
		zap.Int("merged", len(merged)),
	)
	return merged, nil
}

// Merge combines a stored pool with this run's entries. Entries are keyed by
// (record ID, reason). For records seen in this run, this run's entries
// replace the stored ones, so resolved reasons drop out; a repeated key keeps
// its first_seen and increments seen_count. Entries for records not seen in
// this run are kept unchanged. The result is sorted by key.
func Merge(existing, current []model.ObservationPoolEntry, seen map[string]bool) []model.ObservationPoolEntry {
	prior := make(map[string]model.ObservationPoolEntry, len(existing))
	for _, e := range existing {
		prior[e.Key()] = e
	}

	out := make([]model.ObservationPoolEntry, 0, len(existing)+len(current))
	for _, e := range existing {
		if !seen[e.RecordID] {
			out = append(out, e)
		}
	}
	for _, e := range current {
		if p, ok := prior[e.Key()]; ok && seen[e.RecordID] {
			e.FirstSeen = p.FirstSeen
			e.SeenCount = p.SeenCount + 1
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
