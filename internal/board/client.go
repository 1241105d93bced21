// Package board polls an external discussion-board API for new posts
// and sends replies. It is pure I/O glue: the engine never sees it.
package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const httpTimeout = 15 * time.Second

// Post is one new interaction fetched from the board.
type Post struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Body   string `json:"body"`
}

// Client talks to the discussion-board API.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a board client for baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		baseURL: baseURL,
	}
}

// FetchSince returns posts newer than the cursor post ID, oldest first.
// An empty cursor fetches the newest page.
func (c *Client) FetchSince(ctx context.Context, cursor string) ([]Post, error) {
	u := c.baseURL + "/api/posts"
	if cursor != "" {
		u += "?since=" + url.QueryEscape(cursor)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d: %s", u, resp.StatusCode, data)
	}

	var posts []Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

// Reply posts a reply to the given post.
func (c *Client) Reply(ctx context.Context, postID, body string) error {
	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}

	u := fmt.Sprintf("%s/api/posts/%s/replies", c.baseURL, url.PathEscape(postID))
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("POST %s: status %d: %s", u, resp.StatusCode, data)
	}
	return nil
}
