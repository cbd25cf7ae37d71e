package scripthost

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/birkelund/boltdbcache"
	"github.com/gregjones/httpcache"
	bolt "go.etcd.io/bbolt"
)

// WebCache serves script files from an HTTP base URL with an on-disk
// response cache, so repeated instance restarts do not refetch unchanged
// remote bundles.
type WebCache struct {
	resource string
	base     *url.URL
	client   *http.Client
	db       *bolt.DB
}

// NewWebCache creates an HTTP-backed collaborator caching responses in a
// bolt database at cachePath.
func NewWebCache(resource, baseURL, cachePath string) (*WebCache, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	db, err := bolt.Open(cachePath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	cache, err := boltdbcache.NewWithDB(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache: %w", err)
	}

	return &WebCache{
		resource: resource,
		base:     base,
		client:   &http.Client{Transport: &httpcache.Transport{Cache: cache}},
		db:       db,
	}, nil
}

// Open fetches name relative to the base URL. 404 maps to not-found so the
// caller's fallback chain proceeds; other statuses are collaborator
// failures.
func (w *WebCache) Open(name string) (io.ReadCloser, error) {
	ref, err := url.Parse(name)
	if err != nil {
		return nil, ErrNotFound
	}

	resp, err := w.client.Get(w.base.ResolveReference(ref).String())
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", name, resp.Status)
	}
}

// ResourceName returns the owning resource name.
func (w *WebCache) ResourceName() string {
	return w.resource
}

// Close releases the cache database.
func (w *WebCache) Close() error {
	return w.db.Close()
}
