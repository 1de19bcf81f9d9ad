// Package api is the HTTP client for the sensor backend: latest readings,
// LED1 control and the LED2 transition log.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is where the backend listens on a development machine.
const DefaultBaseURL = "http://localhost:5000"

const (
	latestPath  = "/api/latest"
	ledPath     = "/api/led"
	logLED2Path = "/api/log_led2"
)

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// Client talks to the sensor backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL. A nil httpClient gets a client
// with the given timeout.
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Latest fetches the most recent reading and LED states.
func (c *Client) Latest(ctx context.Context) (Snapshot, error) {
	var snap Snapshot

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+latestPath, nil)
	if err != nil {
		return snap, err
	}
	if err := c.do(req, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("fetch latest: %w", err)
	}
	if snap.Error != "" {
		return Snapshot{}, &ServerError{Message: snap.Error}
	}
	return snap, nil
}

// SetLED1 asks the backend to switch LED1. It reports whether the backend
// acknowledged the change.
func (c *Client) SetLED1(ctx context.Context, status string) (bool, error) {
	var resp LEDResponse
	if err := c.post(ctx, ledPath, LEDRequest{LED1: status}, &resp); err != nil {
		return false, fmt.Errorf("set led1: %w", err)
	}
	return resp.Success, nil
}

// LogLED2 records an LED2 transition. The response body is ignored.
func (c *Client) LogLED2(ctx context.Context, status string) error {
	if err := c.post(ctx, logLED2Path, LED2Log{LED2: status}, nil); err != nil {
		return fmt.Errorf("log led2: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do sends req and decodes a JSON body into out when out is non-nil. The
// body is decoded whatever the status code, the backend puts its error
// details in the body.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}
