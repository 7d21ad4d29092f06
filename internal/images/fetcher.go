// Package images resolves a product name to a locally stored
// representative image.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Placeholder is the image path substituted whenever no product image
// is available.
const Placeholder = "/static/images/gray.jpg"

// ErrImageNotFound signals that no image could be retrieved for a
// product. Non-fatal: callers substitute Placeholder and continue.
var ErrImageNotFound = errors.New("image not found")

// Fetcher looks up an image for a product name.
type Fetcher interface {
	// Lookup returns a web path to a locally stored image for name, or
	// ErrImageNotFound.
	Lookup(ctx context.Context, name string) (string, error)
}

// HTTPFetcher downloads the first search result for a product name into
// a local directory.
type HTTPFetcher struct {
	searchURL string // template with one %s for the escaped query
	dir       string
	client    *http.Client
	logger    *slog.Logger
}

// NewHTTPFetcher creates a fetcher that stores results under dir.
func NewHTTPFetcher(searchURL, dir string, timeout time.Duration, logger *slog.Logger) (*HTTPFetcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	return &HTTPFetcher{
		searchURL: searchURL,
		dir:       dir,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}, nil
}

// Lookup fetches the first result for name and writes it to disk. Any
// failure along the way collapses into ErrImageNotFound; image lookup
// never aborts the surrounding request.
func (f *HTTPFetcher) Lookup(ctx context.Context, name string) (string, error) {
	target := fmt.Sprintf(f.searchURL, url.QueryEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageNotFound, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("image lookup failed", "product", name, "error", err)
		return "", fmt.Errorf("%w: %v", ErrImageNotFound, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			f.logger.Debug("failed to close image response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("image lookup returned non-OK status", "product", name, "status", resp.StatusCode)
		return "", fmt.Errorf("%w: status %d", ErrImageNotFound, resp.StatusCode)
	}

	ext := extensionFor(resp.Header.Get("Content-Type"))
	if ext == "" {
		return "", fmt.Errorf("%w: unsupported content type %q", ErrImageNotFound, resp.Header.Get("Content-Type"))
	}

	base := safeFileName(name)
	if base == "" {
		return "", fmt.Errorf("%w: unusable product name %q", ErrImageNotFound, name)
	}
	fileName := base + ext
	path := filepath.Join(f.dir, fileName)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageNotFound, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			f.logger.Debug("failed to close image file", "path", path, "error", closeErr)
		}
	}()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageNotFound, err)
	}

	return "/static/img_results/" + fileName, nil
}

// safeFileName maps a product name to a filename: spaces become
// underscores and anything outside [A-Za-z0-9_-] is dropped, so
// catalog names can never escape the image directory.
func safeFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.ReplaceAll(name, " ", "_") {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func extensionFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/jpeg"):
		return ".jpg"
	case strings.HasPrefix(contentType, "image/png"):
		return ".png"
	case strings.HasPrefix(contentType, "image/gif"):
		return ".gif"
	case strings.HasPrefix(contentType, "image/webp"):
		return ".webp"
	default:
		return ""
	}
}

var _ Fetcher = (*HTTPFetcher)(nil)
