// Package cache persists the model of every display between runs so that
// displays known to have no alternate source are never queried again.
//
// Entries are positional: entry i belongs to the i-th display of the
// enumeration, which is stable across runs on the same machine.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/display-toggle/display-toggle/internal/display"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	appDirName = "display-toggle"
	fileName   = "display.json"
)

// Models is the positional list of cached models. A nil entry marks a
// display whose model was not known when the cache was saved.
type Models []*string

// file is the persisted JSON document
type file struct {
	Models Models `json:"models"`
}

// Store reads and writes the cache file
type Store struct {
	path string
}

// DefaultPath returns the per-user cache file location
func DefaultPath() string {
	return filepath.Join(xdg.CacheHome, appDirName, fileName)
}

// NewStore creates a store for path, or the default location when empty
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

// Path returns the cache file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the cache. It never fails: a missing, unreadable or malformed
// file yields an empty cache.
func (s *Store) Load() Models {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug().Err(err).Str("path", s.path).Msg("Ignoring unreadable cache")
		}
		return nil
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		log.Debug().Err(err).Str("path", s.path).Msg("Ignoring malformed cache")
		return nil
	}

	log.Debug().Str("path", s.path).Int("models", len(f.Models)).Msg("Cache loaded")
	return f.Models
}

// Save overwrites the cache with the current model of every display,
// creating parent directories as needed.
func (s *Store) Save(displays []*display.Display) error {
	data, err := json.Marshal(file{Models: Snapshot(displays)})
	if err != nil {
		return errors.Wrap(err, "failed to encode cache")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Wrap(err, "failed to create cache directory")
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write cache %s", s.path)
	}

	log.Debug().Str("path", s.path).Msg("Cache saved")
	return nil
}

// ApplyTo seeds the model of displays[i] from entry i. Only the first
// min(len(m), len(displays)) positions are used; nil entries are skipped.
// It returns the number of displays seeded.
func (m Models) ApplyTo(displays []*display.Display) int {
	n := min(len(m), len(displays))
	seeded := 0
	for i := 0; i < n; i++ {
		if m[i] == nil {
			continue
		}
		displays[i].SeedModel(*m[i])
		seeded++
	}
	return seeded
}

// Snapshot returns the known model of every display, nil where unknown
func Snapshot(displays []*display.Display) Models {
	models := make(Models, len(displays))
	for i, d := range displays {
		if model, ok := d.KnownModel(); ok {
			models[i] = &model
		}
	}
	return models
}
