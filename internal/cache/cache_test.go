package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	c, err := New(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = c.Get("https://example.com/a.csv")
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Put("https://example.com/a.csv", []byte("a,b\n1,2\n")))
	b, err := c.Get("https://example.com/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(b))

	_, err = os.Stat(filepath.Join(c.Dir(), "index.json"))
	require.NoError(t, err)

	// a fresh handle on the same dir sees the entry
	c2, err := New(c.Dir(), 0)
	require.NoError(t, err)
	b, err = c2.Get("https://example.com/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(b))
}

func TestTTLExpiry(t *testing.T) {
	c, err := New(t.TempDir(), time.Hour)
	require.NoError(t, err)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	require.NoError(t, c.Put("k", []byte("v")))

	c.now = func() time.Time { return base.Add(59 * time.Minute) }
	_, err = c.Get("k")
	require.NoError(t, err)

	c.now = func() time.Time { return base.Add(61 * time.Minute) }
	_, err = c.Get("k")
	require.ErrorIs(t, err, ErrMiss)

	// Put refreshes the timestamp
	require.NoError(t, c.Put("k", []byte("v2")))
	b, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(b))
}

func TestCorruptBlobIsMiss(t *testing.T) {
	c, err := New(t.TempDir(), 0)
	require.NoError(t, err)
	require.NoError(t, c.Put("k", []byte("original")))
	require.NoError(t, os.WriteFile(c.blobPath("k"), []byte("tampered"), 0o644))
	_, err = c.Get("k")
	require.ErrorIs(t, err, ErrMiss)
}

func TestInvalidateAndClear(t *testing.T) {
	c, err := New(t.TempDir(), 0)
	require.NoError(t, err)
	require.NoError(t, c.Put("a", []byte("1")))
	require.NoError(t, c.Put("b", []byte("2")))

	require.NoError(t, c.Invalidate("a"))
	require.NoError(t, c.Invalidate("never-stored"))
	_, err = c.Get("a")
	require.ErrorIs(t, err, ErrMiss)
	_, err = c.Get("b")
	require.NoError(t, err)

	require.NoError(t, c.Clear())
	entries, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = c.Get("b")
	require.ErrorIs(t, err, ErrMiss)
}

func TestListOrder(t *testing.T) {
	c, err := New(t.TempDir(), 0)
	require.NoError(t, err)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	require.NoError(t, c.Put("old", []byte("x")))
	c.now = func() time.Time { return base.Add(time.Minute) }
	require.NoError(t, c.Put("new", []byte("yy")))

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "new", entries[0].Key)
	assert.Equal(t, int64(2), entries[0].Size)
	assert.Equal(t, "old", entries[1].Key)
}

func TestConcurrentPut(t *testing.T) {
	c, err := New(t.TempDir(), 0)
	require.NoError(t, err)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, c.Put(string(rune('a'+i)), []byte{byte(i)}))
		}(i)
	}
	wg.Wait()
	entries, err := c.List()
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}

func TestSharedDirWriters(t *testing.T) {
	dir := t.TempDir()
	c1, err := New(dir, 0)
	require.NoError(t, err)
	c2, err := New(dir, 0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, c := range []*Cache{c1, c2} {
		wg.Add(1)
		go func(c *Cache) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				assert.NoError(t, c.Put("https://example.com/a.csv", []byte("x,y\n1,2\n")))
			}
		}(c)
	}
	wg.Wait()

	b, err := c1.Get("https://example.com/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "x,y\n1,2\n", string(b))
	blobs, err := os.ReadDir(filepath.Join(dir, "blobs"))
	require.NoError(t, err)
	assert.Len(t, blobs, 1)
}
