package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tabsight-cli/internal/cache"
	"github.com/KaramelBytes/tabsight-cli/internal/table"
)

// ErrTooLarge is returned when a remote body exceeds Fetcher.MaxBytes.
var ErrTooLarge = errors.New("remote source exceeds size limit")

// HTTPStatusError is returned when a remote source answers with a non-2xx status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Fetcher downloads remote datasets, consulting Cache first when it is set.
// Bodies larger than MaxBytes are rejected; zero means no limit.
type Fetcher struct {
	Client   *http.Client
	Cache    *cache.Cache
	Logger   *zap.Logger
	MaxBytes int64
}

// NewFetcher returns a Fetcher with a client using timeout. c may be nil.
func NewFetcher(timeout time.Duration, c *cache.Cache, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{Client: &http.Client{Timeout: timeout}, Cache: c, Logger: log}
}

// IsURL reports whether src looks like an http(s) URL.
func IsURL(src string) bool {
	u, err := url.Parse(src)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch returns the body at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	log := f.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if f.Cache != nil {
		b, err := f.Cache.Get(rawURL)
		if err == nil {
			log.Debug("cache hit", zap.String("url", rawURL), zap.Int("bytes", len(b)))
			return b, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn("cache read failed", zap.String("url", rawURL), zap.Error(err))
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}
	var body io.Reader = resp.Body
	if f.MaxBytes > 0 {
		if resp.ContentLength > f.MaxBytes {
			return nil, fmt.Errorf("fetch %s: %w (%d > %d bytes)", rawURL, ErrTooLarge, resp.ContentLength, f.MaxBytes)
		}
		body = io.LimitReader(resp.Body, f.MaxBytes+1)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if f.MaxBytes > 0 && int64(len(b)) > f.MaxBytes {
		return nil, fmt.Errorf("fetch %s: %w (limit %d bytes)", rawURL, ErrTooLarge, f.MaxBytes)
	}
	log.Debug("fetched", zap.String("url", rawURL), zap.Int("bytes", len(b)), zap.Duration("took", time.Since(start)))
	if f.Cache != nil {
		if err := f.Cache.Put(rawURL, b); err != nil {
			log.Warn("cache write failed", zap.String("url", rawURL), zap.Error(err))
		}
	}
	return b, nil
}

// Load fetches rawURL and parses it as XLSX when the path says so, CSV otherwise.
func (f *Fetcher) Load(ctx context.Context, rawURL string, opt Options) (*table.Table, error) {
	b, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil && path.Base(u.Path) != "/" && path.Base(u.Path) != "." {
		name = path.Base(u.Path)
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx", ".xlsm":
		return LoadXLSX(bytes.NewReader(b), name, opt)
	default:
		return LoadCSV(bytes.NewReader(b), name, opt)
	}
}
