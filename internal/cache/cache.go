// Package cache stores fetched source bytes on disk, keyed by source identifier.
package cache

import (
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/KaramelBytes/tabsight-cli/internal/utils"
)

// ErrMiss is returned by Get when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Entry describes one cached source.
type Entry struct {
	Key       string    `json:"key"`
	Hash      string    `json:"hash"`
	Size      int64     `json:"size"`
	FetchedAt time.Time `json:"fetched_at"`
}

type index struct {
	Version int               `json:"version"`
	Entries map[string]*Entry `json:"entries"`
}

// Cache is a directory of blobs plus an index.json. A zero TTL never expires.
// Methods are safe for concurrent use within one process.
type Cache struct {
	dir string
	ttl time.Duration
	now func() time.Time
	mu  sync.Mutex
}

// New opens (creating if needed) a cache rooted at dir.
func New(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(filepath.Join(dir, "blobs"), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string { return c.dir }

func keyHash(key string) string {
	sum := sha1.Sum([]byte(key))
	return fmt.Sprintf("%x", sum[:])
}

func (c *Cache) indexPath() string { return filepath.Join(c.dir, "index.json") }

func (c *Cache) blobPath(key string) string {
	return filepath.Join(c.dir, "blobs", keyHash(key))
}

func (c *Cache) load() (*index, error) {
	idx := &index{Version: 1, Entries: map[string]*Entry{}}
	b, err := os.ReadFile(c.indexPath())
	if errors.Is(err, os.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, idx); err != nil {
		return nil, fmt.Errorf("parse cache index: %w", err)
	}
	if idx.Entries == nil {
		idx.Entries = map[string]*Entry{}
	}
	return idx, nil
}

func (c *Cache) save(idx *index) error {
	b, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(c.indexPath(), b)
}

// Get returns the bytes stored under key. Expired entries are reported as ErrMiss
// and left for the next Put to replace.
func (c *Cache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, err := c.load()
	if err != nil {
		return nil, err
	}
	e, ok := idx.Entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if c.ttl > 0 && c.now().Sub(e.FetchedAt) > c.ttl {
		return nil, ErrMiss
	}
	b, err := os.ReadFile(c.blobPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cache blob: %w", err)
	}
	sum := sha1.Sum(b)
	if fmt.Sprintf("%x", sum[:]) != e.Hash {
		return nil, ErrMiss
	}
	return b, nil
}

// Put stores data under key, replacing any previous entry.
func (c *Cache) Put(key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, err := c.load()
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(c.blobPath(key), data); err != nil {
		return fmt.Errorf("write cache blob: %w", err)
	}
	sum := sha1.Sum(data)
	idx.Entries[key] = &Entry{
		Key:       key,
		Hash:      fmt.Sprintf("%x", sum[:]),
		Size:      int64(len(data)),
		FetchedAt: c.now().UTC(),
	}
	return c.save(idx)
}

// Invalidate drops key. Missing keys are not an error.
func (c *Cache) Invalidate(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, err := c.load()
	if err != nil {
		return err
	}
	if _, ok := idx.Entries[key]; !ok {
		return nil
	}
	delete(idx.Entries, key)
	if err := os.Remove(c.blobPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return c.save(idx)
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.RemoveAll(filepath.Join(c.dir, "blobs")); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(c.dir, "blobs"), 0o755); err != nil {
		return err
	}
	return c.save(&index{Version: 1, Entries: map[string]*Entry{}})
}

// List returns entries, most recently fetched first.
func (c *Cache) List() ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, err := c.load()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FetchedAt.Equal(out[j].FetchedAt) {
			return out[i].Key < out[j].Key
		}
		return out[i].FetchedAt.After(out[j].FetchedAt)
	})
	return out, nil
}
