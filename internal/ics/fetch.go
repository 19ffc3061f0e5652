package ics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Feed describes a single ICS subscription.
type Feed struct {
	// ID is an internal identifier used in logging and event attribution.
	ID string
	// Name is a human-friendly label.
	Name string
	// URL is the ICS endpoint.
	URL string
}

// cacheEntry keeps the conditional-request state for one URL.
type cacheEntry struct {
	etag         string
	lastModified string
	body         []byte
	updatedAt    time.Time
}

// Fetcher retrieves ICS payloads with ETag / Last-Modified revalidation.
// The cache is in-memory and per-Fetcher; watch mode reuses one Fetcher
// across runs so unchanged feeds cost a 304 instead of a full body.
type Fetcher struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewFetcher creates a Fetcher with a 15s request timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 15 * time.Second},
		cache:  make(map[string]cacheEntry),
	}
}

// Fetch retrieves the feed body. On network errors or non-OK statuses it
// falls back to the cached body when one exists. The second return value
// reports whether the body came from cache.
func (f *Fetcher) Fetch(ctx context.Context, feed Feed) ([]byte, bool, error) {
	if feed.URL == "" {
		return nil, false, errors.New("feed URL is empty")
	}

	f.mu.Lock()
	cached, hasCache := f.cache[feed.URL]
	f.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, false, err
	}
	if cached.etag != "" {
		req.Header.Set("If-None-Match", cached.etag)
	}
	if cached.lastModified != "" {
		req.Header.Set("If-Modified-Since", cached.lastModified)
	}

	log.Debug().Str("id", feed.ID).Str("url", redactURL(feed.URL)).Msg("ics fetch start")

	resp, err := f.client.Do(req)
	if err != nil {
		if hasCache && len(cached.body) > 0 {
			log.Error().Err(err).Str("id", feed.ID).Str("url", redactURL(feed.URL)).
				Msg("ics fetch network error, using cached body")
			return cached.body, true, nil
		}
		return nil, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, false, readErr
		}

		f.mu.Lock()
		f.cache[feed.URL] = cacheEntry{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
			updatedAt:    time.Now().UTC(),
		}
		f.mu.Unlock()

		log.Debug().Str("id", feed.ID).Int("bytes", len(body)).Msg("ics fetch success")
		return body, false, nil

	case http.StatusNotModified:
		if !hasCache || len(cached.body) == 0 {
			return nil, false, errors.New("received 304 Not Modified but no cached body available")
		}
		log.Debug().Str("id", feed.ID).Msg("ics fetch not modified, using cache")
		return cached.body, true, nil

	default:
		if hasCache && len(cached.body) > 0 {
			log.Error().Str("id", feed.ID).Int("status", resp.StatusCode).
				Msg("ics fetch non-OK, using cached body")
			return cached.body, true, nil
		}
		return nil, false, errors.New(resp.Status)
	}
}

// redactURL strips path and query from a feed URL for logging; ICS
// subscription URLs routinely embed secret tokens.
func redactURL(u string) string {
	i := strings.Index(u, "://")
	if i < 0 {
		return "ics://...(redacted)"
	}
	rest := u[i+3:]
	j := strings.IndexByte(rest, '/')
	if j < 0 {
		return u
	}
	return u[:i+3+j] + "/...(redacted)"
}
