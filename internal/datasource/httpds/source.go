package httpds

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
)

// Source is a datasource backed by a URL. When CacheDir is set the body is
// downloaded once into the cache and later opens read the cached file.
type Source struct {
	Client   *Client
	URL      string
	CacheDir string
	Logger   *slog.Logger
}

// NewSource returns a Source for url using client.
func NewSource(client *Client, url string) *Source {
	return &Source{Client: client, URL: url}
}

// Open returns the response body, or the cached copy when one exists. Non-2xx
// responses are errors.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.CacheDir == "" {
		return s.fetch(ctx)
	}

	cached := filepath.Join(s.CacheDir, CacheName(s.URL))
	if f, err := os.Open(cached); err == nil {
		s.logger().Info("using cached download", slog.String("path", cached))
		return f, nil
	}
	if err := s.download(ctx, cached); err != nil {
		return nil, err
	}
	return os.Open(cached)
}

func (s *Source) fetch(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.Client.Get(ctx, s.URL, http.Header{"Accept": {"text/csv"}})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.URL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", s.URL, resp.Status)
	}
	return resp.Body, nil
}

// download writes to a temp file in the cache dir and renames it into place
// so an interrupted transfer never leaves a truncated cache entry.
func (s *Source) download(ctx context.Context, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("cache dir: %w", err)
	}
	body, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	defer body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return fmt.Errorf("cache temp: %w", err)
	}
	n, err := io.Copy(tmp, body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("download %s: %w", s.URL, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache rename: %w", err)
	}
	s.logger().Info("downloaded source", slog.String("url", s.URL), slog.String("path", dst), slog.Int64("bytes", n))
	return nil
}

func (s *Source) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

var filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// HashString returns a stable SHA1 hex digest of s.
func HashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// CacheName derives a filesystem-safe, URL-unique file name: the cleaned last
// path segment followed by a short hash of the full URL.
func CacheName(rawURL string) string {
	sum := HashString(rawURL)[:12]
	u, err := url.Parse(rawURL)
	if err != nil {
		return sum
	}
	base := filenameCleaner.ReplaceAllString(path.Base(u.Path), "_")
	if base == "" || base == "_" {
		return sum
	}
	return base + "_" + sum
}
