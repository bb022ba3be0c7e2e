// Package store caches extracted palettes by the content of the image and
// the options used, in memory and optionally in a sqlite database.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/coverhue/internal/extract"
	"github.com/jmylchreest/coverhue/internal/raster"
)

// MaxMemoryEntries bounds the in-memory cache. The least recently stored
// entry is evicted first.
const MaxMemoryEntries = 96

type entry struct {
	palette *extract.Palette
	seq     uint64
}

// Store is a palette cache. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger hclog.Logger

	mu    sync.RWMutex
	cache map[string]entry
	seq   uint64
}

// DefaultPath returns the default database location under the user cache
// directory.
func DefaultPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "coverhue", "palettes.db"), nil
	}
	return filepath.Join(cacheDir, "coverhue", "palettes.db"), nil
}

// Open returns a store backed by the sqlite database at path. An empty path
// gives a memory-only store.
func Open(path string, logger hclog.Logger) (*Store, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := &Store{
		logger: logger,
		cache:  make(map[string]entry),
	}
	if path == "" {
		return s, nil
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	s.db = db
	logger.Debug("palette database opened", "path", path)
	return s, nil
}

// Close releases the database, if any.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Key identifies an image and the options that affect its palette. The
// dispatcher, name and logger do not take part.
func Key(img raster.Image, opts extract.Options) string {
	h := xxhash.New()
	_, _ = h.WriteString(strconv.Itoa(img.Width) + "x" + strconv.Itoa(img.Height) + "x" + strconv.Itoa(img.Channels) + ";")
	_, _ = h.Write(img.Pix)
	_, _ = h.WriteString(";" + opts.Key())
	return fmt.Sprintf("%016x", h.Sum64())
}

// Get looks a palette up, first in memory, then in the database. The
// returned palette is shared and must not be modified.
func (s *Store) Get(key string) (*extract.Palette, bool, error) {
	s.mu.RLock()
	e, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return e.palette, true, nil
	}
	if s.db == nil {
		return nil, false, nil
	}

	var data string
	err := s.db.QueryRow("SELECT palette FROM palettes WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query palette %s: %w", key, err)
	}
	p, err := extract.ParseJSON([]byte(data))
	if err != nil {
		return nil, false, fmt.Errorf("stored palette %s: %w", key, err)
	}
	s.remember(key, p)
	return p, true, nil
}

// Put stores a palette under key. optionsKey is recorded alongside for
// inspection.
func (s *Store) Put(key, optionsKey string, p *extract.Palette) error {
	s.remember(key, p)
	if s.db == nil {
		return nil
	}

	data, err := p.ToJSON()
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(
		"INSERT OR REPLACE INTO palettes(key, options, palette, created_at) VALUES (?, ?, ?, ?)",
		key, optionsKey, string(data), time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("store palette %s: %w", key, err)
	}
	return nil
}

func (s *Store) remember(key string, p *extract.Palette) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.cache[key] = entry{palette: p, seq: s.seq}
	if len(s.cache) <= MaxMemoryEntries {
		return
	}

	oldestKey := ""
	var oldestSeq uint64
	for k, e := range s.cache {
		if oldestKey == "" || e.seq < oldestSeq {
			oldestKey, oldestSeq = k, e.seq
		}
	}
	delete(s.cache, oldestKey)
}

// Len returns the number of palettes held in memory.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

// Extract returns the cached palette for img and opts, computing and storing
// it on a miss. hit reports whether the cache answered.
func (s *Store) Extract(img raster.Image, opts extract.Options) (p *extract.Palette, hit bool, err error) {
	if err := opts.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %w", extract.ErrInvalidOptions, err)
	}
	key := Key(img, opts)
	if p, ok, err := s.Get(key); err != nil {
		s.logger.Warn("palette cache lookup failed", "key", key, "error", err)
	} else if ok {
		s.logger.Debug("palette cache hit", "key", key, "name", opts.Name)
		return p, true, nil
	}

	p, err = extract.Extract(img, opts)
	if err != nil {
		return nil, false, err
	}
	if err := s.Put(key, opts.Key(), p); err != nil {
		s.logger.Warn("failed to store palette", "key", key, "error", err)
	}
	return p, false, nil
}
