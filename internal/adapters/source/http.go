package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/radar/pkg/option"
)

const maxResponseBytes = 1 << 20

// HTTPClient reads one upstream over a small JSON/HTTP contract:
//
//	GET {base}/entities/{id}/{kind}   -> metrics object
//	GET {base}/entities/{id}/facts    -> [fact]
//	GET {base}/scenes/{id}/hotness    -> {"hotness": n}
//
// 404 and 204 mean no data. Any other non-2xx status is an error.
type HTTPClient struct {
	base   string
	client *http.Client
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) {
		if c != nil {
			h.client = c
		}
	}
}

// NewHTTPClient returns a client for the upstream at base.
func NewHTTPClient(base string, opts ...HTTPOption) *HTTPClient {
	h := &HTTPClient{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func getJSON[T any](ctx context.Context, h *HTTPClient, path string) (option.Option[T], error) {
	u := h.base + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return option.None[T](), fmt.Errorf("build request %s: %w", u, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return option.None[T](), fmt.Errorf("get %s: %w", u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusNoContent:
		return option.None[T](), nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return option.None[T](), &StatusError{URL: u, Status: resp.StatusCode}
	}

	var out T
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return option.None[T](), nil
		}
		return option.None[T](), fmt.Errorf("%w: %s: %w", ErrDecode, u, err)
	}
	return option.Some(out), nil
}

func entityPath(id, kind string) string {
	return "/entities/" + url.PathEscape(id) + "/" + kind
}

// CampaignMetrics implements CampaignAdapter.
func (h *HTTPClient) CampaignMetrics(ctx context.Context, id string) (option.Option[CampaignMetrics], error) {
	return getJSON[CampaignMetrics](ctx, h, entityPath(id, "campaign"))
}

// GraphMetrics implements GraphAdapter.
func (h *HTTPClient) GraphMetrics(ctx context.Context, id string) (option.Option[GraphMetrics], error) {
	return getJSON[GraphMetrics](ctx, h, entityPath(id, "graph"))
}

// CoverageMetrics implements CoverageAdapter.
func (h *HTTPClient) CoverageMetrics(ctx context.Context, id string) (option.Option[CoverageMetrics], error) {
	return getJSON[CoverageMetrics](ctx, h, entityPath(id, "coverage"))
}

// CreativeMetrics implements CreativeAdapter.
func (h *HTTPClient) CreativeMetrics(ctx context.Context, id string) (option.Option[CreativeMetrics], error) {
	return getJSON[CreativeMetrics](ctx, h, entityPath(id, "creative"))
}

// AudienceMetrics implements AudienceAdapter.
func (h *HTTPClient) AudienceMetrics(ctx context.Context, id string) (option.Option[AudienceMetrics], error) {
	return getJSON[AudienceMetrics](ctx, h, entityPath(id, "audience"))
}

// SceneHotness implements SceneAdapter.
func (h *HTTPClient) SceneHotness(ctx context.Context, sceneID string) (option.Option[float64], error) {
	body, err := getJSON[struct {
		Hotness *float64 `json:"hotness"`
	}](ctx, h, "/scenes/"+url.PathEscape(sceneID)+"/hotness")
	if err != nil {
		return option.None[float64](), err
	}
	if v, ok := body.Get(); ok && v.Hotness != nil {
		return option.Some(*v.Hotness), nil
	}
	return option.None[float64](), nil
}

// factWire is the JSON shape of a fact; audience is optional.
type factWire struct {
	Fact
	Audience *int64 `json:"audience,omitempty"`
}

// Facts implements FactSource.
func (h *HTTPClient) Facts(ctx context.Context, id string) ([]Fact, error) {
	body, err := getJSON[[]factWire](ctx, h, entityPath(id, "facts"))
	if err != nil {
		return nil, err
	}
	wire, _ := body.Get()
	facts := make([]Fact, 0, len(wire))
	for _, w := range wire {
		f := w.Fact
		if w.Audience != nil {
			f.Audience = option.Some(*w.Audience)
		}
		facts = append(facts, f)
	}
	return facts, nil
}
