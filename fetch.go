package newsletter

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
)

// Fetcher retrieves stylesheet text by path. Paths are rooted at the code
// base of the page ("/styles/email-styles.css", "/blocks/hero/hero.css").
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FSFetcher reads stylesheets from a file system.
type FSFetcher struct {
	FS fs.FS
}

// NewDirFetcher returns a fetcher reading files under dir.
func NewDirFetcher(dir string) *FSFetcher {
	return &FSFetcher{FS: os.DirFS(dir)}
}

// Fetch implements Fetcher.
func (f *FSFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	data, err := fs.ReadFile(f.FS, clean)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, name, err)
	}
	return data, nil
}

// HTTPFetcher requests stylesheets from a web server.
type HTTPFetcher struct {
	Base   string
	Client *http.Client
}

// NewHTTPFetcher returns a fetcher requesting paths relative to base.
func NewHTTPFetcher(base string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{Base: strings.TrimSuffix(base, "/"), Client: client}
}

// Fetch implements Fetcher. Any response other than 2xx is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	u := f.Base + "/" + strings.TrimPrefix(name, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, name, err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %s", ErrFetch, name, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, name, err)
	}
	return data, nil
}

// NewFetcher picks a fetcher for base: http and https URLs are requested,
// anything else is a local directory, the current one when base is empty.
func NewFetcher(base string) Fetcher {
	if u, err := url.Parse(base); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return NewHTTPFetcher(base, nil)
	}
	if base == "" {
		base = "."
	}
	return NewDirFetcher(base)
}
