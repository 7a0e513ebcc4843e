// Package adminclient is a thin HTTP client for the Daytona Admin API
// surface the fleet package needs: listing runners scoped to a region.
// Everything else the Admin API exposes (sandbox/snapshot/volume CRUD) is
// not modeled here.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Runner mirrors the Admin API's runner representation.
type Runner struct {
	ID                      string  `json:"id"`
	Domain                  string  `json:"domain"`
	Cpu                     float32 `json:"cpu"`
	Memory                  float32 `json:"memory"`
	CurrentAllocatedCpu     float32 `json:"currentAllocatedCpu"`
	CurrentAllocatedMemory  float32 `json:"currentAllocatedMemoryGiB"`
	CurrentAllocatedDisk    float32 `json:"currentAllocatedDiskGiB"`
	CurrentStartedSandboxes int     `json:"currentStartedSandboxes"`
	CurrentSnapshotCount    int     `json:"currentSnapshotCount"`
	Unschedulable           bool    `json:"unschedulable"`
}

// Client is a minimal JSON-over-HTTP Admin API client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New builds a Client against baseURL, authenticating every request with
// apiKey as a bearer token.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// ListRunners lists runners scoped to regionID. Callers are expected to
// bound ctx.
func (c *Client) ListRunners(ctx context.Context, regionID string) ([]Runner, error) {
	q := url.Values{"regionId": []string{regionID}}
	var runners []Runner
	if err := c.do(ctx, http.MethodGet, "/api/admin/runners?"+q.Encode(), nil, &runners); err != nil {
		return nil, fmt.Errorf("list runners: %w", err)
	}
	return runners, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
