// internal/client/client.go
//
// HTTP client for the game-data service.
// Responsibilities:
//   - Fetch a puzzle document by game code (GET /api/games/code/{code}/).
//   - Post end-of-session stats (POST /api/submit-stats/).
//
// Retrying and fire-and-forget behaviour live in Loader and Reporter; the
// methods here make exactly one request each.

package client

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

	"github.com/rs/zerolog"

	"github.com/robalobadob/connections/internal/game"
	"github.com/robalobadob/connections/internal/puzzle"
)

// maxBody bounds puzzle documents read from the network.
const maxBody = 1 << 20

// Client talks to one game-data service.
type Client struct {
	base string
	http *http.Client
	log  zerolog.Logger
}

// New returns a Client for the service at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log,
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Code, http.StatusText(e.Code))
}

// FetchPuzzle downloads and validates the puzzle for code.
func (c *Client) FetchPuzzle(ctx context.Context, code string) (*puzzle.Puzzle, error) {
	u := fmt.Sprintf("%s/api/games/code/%s/?format=json", c.base, url.PathEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{Method: req.Method, URL: u, Code: res.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read puzzle: %w", err)
	}
	p, err := puzzle.Decode(body)
	if err != nil {
		return nil, err
	}
	p.Code = code
	return p, nil
}

// SubmitStats posts the end-of-session summary.
func (c *Client) SubmitStats(ctx context.Context, s game.Summary) error {
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	u := c.base + "/api/submit-stats/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxBody))
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &StatusError{Method: req.Method, URL: u, Code: res.StatusCode}
	}
	return nil
}
