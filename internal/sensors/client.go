package sensors

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

const userAgent = "parkwatch-sync/1.0"

// Client downloads the on-street bay sensor CSV export.
type Client struct {
	HTTP *http.Client
	URL  string
	// Now stamps the cache-busting query parameter. Defaults to time.Now.
	Now func() time.Time
}

// NewClient returns a client whose requests are bounded by timeout.
func NewClient(exportURL string, timeout time.Duration) *Client {
	return &Client{
		HTTP: &http.Client{Timeout: timeout},
		URL:  exportURL,
		Now:  time.Now,
	}
}

// Fetch retrieves the current export. A cache-buster parameter keeps CDN
// copies from being served.
func (c *Client) Fetch(ctx context.Context) ([]Row, error) {
	target, err := c.requestURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/csv,application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request sensor export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	rows, err := ReadRows(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode sensor export: %w", err)
	}
	return rows, nil
}

func (c *Client) requestURL() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("parse export url: %w", err)
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	q := u.Query()
	q.Set("_ts", strconv.FormatInt(now().Unix(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FileSource reads a previously exported CSV from disk.
type FileSource struct {
	Path string
}

// Fetch reads and decodes the file.
func (f FileSource) Fetch(ctx context.Context) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.Path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, f.Path)
	}
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	rows, err := ReadRows(fh)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return rows, nil
}
