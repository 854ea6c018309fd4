// Package layers persists computed date layers as JSON documents, one file
// per acquisition date. The cache is the durable form of the derived index
// products: map documents are rebuilt from it in full on every run, so a
// date never needs recomputing once its layer file exists.
package layers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/domain"
)

// Store reads and writes per-date layer documents under a cache directory.
type Store struct {
	dir string
}

// NewStore creates the cache directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create layer cache dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(date string) string {
	return filepath.Join(s.dir, date+".json")
}

// Put writes a date layer atomically (temp file + rename) so a crash
// mid-write never leaves a truncated document behind. An existing layer for
// the date is replaced, which is what force-rebuild relies on.
func (s *Store) Put(layer domain.DateLayer) error {
	data, err := json.MarshalIndent(layer, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal layer %s: %w", layer.Date, err)
	}

	tmp, err := os.CreateTemp(s.dir, layer.Date+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp layer file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write layer %s: %w", layer.Date, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close layer %s: %w", layer.Date, err)
	}
	if err := os.Rename(tmp.Name(), s.path(layer.Date)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit layer %s: %w", layer.Date, err)
	}
	return nil
}

// Get loads the layer for one date.
func (s *Store) Get(date string) (domain.DateLayer, error) {
	raw, err := os.ReadFile(s.path(date))
	if err != nil {
		return domain.DateLayer{}, fmt.Errorf("read layer %s: %w", date, err)
	}
	var layer domain.DateLayer
	if err := json.Unmarshal(raw, &layer); err != nil {
		return domain.DateLayer{}, fmt.Errorf("parse layer %s: %w", date, err)
	}
	return layer, nil
}

// Has reports whether a layer document exists for the date.
func (s *Store) Has(date string) bool {
	_, err := os.Stat(s.path(date))
	return err == nil
}

// Dates lists all cached dates in ascending order.
func (s *Store) Dates() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list layer cache: %w", err)
	}
	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		dates = append(dates, name[:len(name)-len(".json")])
	}
	sort.Strings(dates)
	return dates, nil
}
