package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tabsight-cli/internal/cache"
)

func TestFetcherUsesCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("A,B\n1,2\n2,4\n3,7\n"))
	}))
	defer srv.Close()

	c, err := cache.New(t.TempDir(), time.Hour)
	require.NoError(t, err)
	f := NewFetcher(5*time.Second, c, zap.NewNop())

	tab, err := f.Load(context.Background(), srv.URL+"/files/data.csv", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "data.csv", tab.Name)
	assert.Equal(t, 3, tab.Rows())

	_, err = f.Fetch(context.Background(), srv.URL+"/files/data.csv")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	require.NoError(t, c.Invalidate(srv.URL+"/files/data.csv"))
	_, err = f.Fetch(context.Background(), srv.URL+"/files/data.csv")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestFetcherWithoutCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("x\n1\n"))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, nil, nil)
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestFetcherNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such dataset", http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := cache.New(t.TempDir(), 0)
	require.NoError(t, err)
	f := NewFetcher(5*time.Second, c, zap.NewNop())
	_, err = f.Fetch(context.Background(), srv.URL+"/gone.csv")
	var se *HTTPStatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "no such dataset", se.Body)

	// failures are not cached
	entries, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetcherSizeLimit(t *testing.T) {
	body := "x\n" + strings.Repeat("1\n", 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/chunked.csv" {
			// no Content-Length, so only the read limit can catch it
			w.(http.Flusher).Flush()
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c, err := cache.New(t.TempDir(), 0)
	require.NoError(t, err)
	f := NewFetcher(5*time.Second, c, zap.NewNop())
	f.MaxBytes = 64
	for _, p := range []string{"/sized.csv", "/chunked.csv"} {
		_, err = f.Fetch(context.Background(), srv.URL+p)
		require.ErrorIs(t, err, ErrTooLarge, p)
	}
	entries, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	f.MaxBytes = int64(len(body))
	b, err := f.Fetch(context.Background(), srv.URL+"/sized.csv")
	require.NoError(t, err)
	assert.Len(t, b, len(body))
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/a.csv"))
	assert.True(t, IsURL("http://localhost:8080/x"))
	assert.False(t, IsURL("data/a.csv"))
	assert.False(t, IsURL("C:\\data\\a.csv"))
	assert.False(t, IsURL("ftp://example.com/a.csv"))
}

func TestSQLCell(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "", sqlCell(nil))
	assert.Equal(t, "42", sqlCell(int64(42)))
	assert.Equal(t, "2.5", sqlCell(2.5))
	assert.Equal(t, "true", sqlCell(true))
	assert.Equal(t, "2024-03-01T09:30:00Z", sqlCell(ts))
	assert.Equal(t, "abc", sqlCell([]byte("abc")))

	tab := FromRecords("q", []string{"n", "at", "ok"}, [][]string{
		{sqlCell(int64(1)), sqlCell(ts), sqlCell(true)},
		{sqlCell(nil), sqlCell(ts.Add(time.Hour)), sqlCell(false)},
	}, DefaultOptions())
	kinds := []string{}
	for _, c := range tab.Columns {
		kinds = append(kinds, c.Kind.String())
	}
	assert.Equal(t, []string{"numeric", "datetime", "categorical"}, kinds)
}
