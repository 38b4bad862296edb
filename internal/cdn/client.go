// Package cdn talks to the roadmap content distribution endpoints: a
// lightweight metadata probe and the full versioned dataset. It validates
// payloads on receipt so everything downstream can assume well-formed items.
package cdn

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/robby/roadmap/internal/domain"
	"github.com/zeebo/blake3"
)

const (
	// MetaPath and RoadmapPath are appended to the configured base URL.
	MetaPath    = "/roadmap/meta.json"
	RoadmapPath = "/roadmap/roadmap.json"

	maxPayloadBytes = 4 << 20 // CDN snapshots are small; anything bigger is broken
)

// HTTPClient is the slice of *http.Client the client needs. Tests substitute
// a double.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches roadmap documents from a CDN base URL. Both calls are
// read-only; the client holds no state between them.
type Client struct {
	baseURL string
	http    HTTPClient
}

// New creates a CDN client for the given base URL. A nil httpClient selects a
// default client with the given timeout.
func New(baseURL string, timeout time.Duration, httpClient HTTPClient) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// FetchMeta probes the metadata endpoint. The result is used once for a
// staleness comparison and discarded; it must not be assumed transactionally
// consistent with a subsequent FetchSnapshot.
func (c *Client) FetchMeta(ctx context.Context) (domain.Meta, error) {
	url := c.baseURL + MetaPath

	body, err := c.get(ctx, url)
	if err != nil {
		return domain.Meta{}, err
	}

	var meta domain.Meta
	if err := json.Unmarshal(body, &meta); err != nil {
		return domain.Meta{}, &DecodeError{URL: url, Err: err}
	}

	if meta.Version == "" || meta.GeneratedAt.IsZero() {
		return domain.Meta{}, &SchemaError{Reason: "meta is missing version or generated_at"}
	}

	return meta, nil
}

// FetchSnapshot retrieves and validates the full roadmap payload. It returns
// the snapshot together with its fingerprint: the content hash published in
// the payload when present, otherwise a blake3 digest of the raw body. Probes
// on hash-less feeds carry no hash either, so staleness checks against the
// digest fall back to the snapshot version.
func (c *Client) FetchSnapshot(ctx context.Context) (*domain.Snapshot, string, error) {
	url := c.baseURL + RoadmapPath

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, "", err
	}

	var payload struct {
		domain.Snapshot
		ContentHash string `json:"content_hash"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, "", &DecodeError{URL: url, Err: err}
	}

	snap := payload.Snapshot
	if err := validateSnapshot(&snap); err != nil {
		return nil, "", err
	}

	fingerprint := payload.ContentHash
	if fingerprint == "" {
		sum := blake3.Sum256(body)
		fingerprint = hex.EncodeToString(sum[:])
	}

	return &snap, fingerprint, nil
}

// get performs a GET and returns the body, mapping transport and status
// failures onto RequestError.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &RequestError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, &RequestError{URL: url, Err: err}
	}

	return body, nil
}

// validateSnapshot enforces the payload-level invariants: required envelope
// fields and per-item validity. Any violation rejects the whole payload.
func validateSnapshot(snap *domain.Snapshot) error {
	if snap.Version == "" {
		return &SchemaError{Reason: "snapshot is missing version"}
	}
	if snap.GeneratedAt.IsZero() {
		return &SchemaError{Reason: "snapshot is missing generated_at"}
	}
	for idx := range snap.Items {
		if err := snap.Items[idx].Validate(); err != nil {
			return &SchemaError{
				Reason: fmt.Sprintf("item at index %d is invalid", idx),
				Err:    err,
			}
		}
	}
	return nil
}
