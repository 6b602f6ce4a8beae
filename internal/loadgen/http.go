package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/okian/radar/internal/domain/model"
)

// HTTPClient wraps http.Client with the service base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(cfg Config, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPClient{client: client, baseURL: cfg.BaseURL}
}

// Get performs a GET request and decodes a 200 JSON body into out.
func (c *HTTPClient) Get(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

// Post performs a POST request with a JSON body and decodes a 2xx body into out.
func (c *HTTPClient) Post(ctx context.Context, path string, body, out any) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) (int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 || out == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// fanOut sends every item through submit on workers goroutines and counts
// the outcomes.
func fanOut[T any](ctx context.Context, workers int, items []T, submit func(context.Context, T) string) map[string]int {
	var accepted, rejected, failed int64
	ch := make(chan T, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range ch {
				if ctx.Err() != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				switch submit(ctx, item) {
				case outcomeAccepted:
					atomic.AddInt64(&accepted, 1)
				case outcomeRejected:
					atomic.AddInt64(&rejected, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(ch)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case ch <- item:
			}
		}
	}()
	wg.Wait()

	return map[string]int{
		outcomeAccepted: int(accepted),
		outcomeRejected: int(rejected),
		outcomeFailed:   int(failed),
	}
}

// outcome classifies a submission response.
func outcome(status int, err error) string {
	switch {
	case err != nil || status == 0 || status >= http.StatusInternalServerError:
		return outcomeFailed
	case status/100 == 2:
		return outcomeAccepted
	default:
		return outcomeRejected
	}
}

type batchRequest struct {
	EntityIDs []string `json:"entity_ids"`
}

type batchResponse struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
}

type topResponse struct {
	By      string          `json:"by"`
	Entries []model.Signals `json:"entries"`
}

func topPath(by string, n int) string {
	q := url.Values{}
	q.Set("by", by)
	q.Set("n", strconv.Itoa(n))
	return "/top?" + q.Encode()
}
