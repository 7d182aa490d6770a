package columnar

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Charliesj0129/shijim/internal/events"
)

// HTTPClient implements Client via HTTP POST with a gzip-compressed
// JSONEachRow body.
type HTTPClient struct {
	BaseURL          string
	HTTP             *http.Client
	AsyncInsert      bool
	WaitForAsyncInsert bool
}

func (c *HTTPClient) InsertTicks(rows []events.MDTickEvent) error {
	if len(rows) == 0 {
		return nil
	}
	return c.insert("ticks", rows)
}

func (c *HTTPClient) InsertBooks(rows []events.MDBookEvent) error {
	if len(rows) == 0 {
		return nil
	}
	return c.insert("orderbook", rows)
}

func (c *HTTPClient) insert(table string, rows any) error {
	var body bytes.Buffer
	gz := gzip.NewWriter(&body)
	enc := json.NewEncoder(gz)

	switch v := rows.(type) {
	case []events.MDTickEvent:
		for _, r := range v {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("columnar http client: encode tick row: %w", err)
			}
		}
	case []events.MDBookEvent:
		for _, r := range v {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("columnar http client: encode book row: %w", err)
			}
		}
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("columnar http client: gzip close: %w", err)
	}

	q := url.Values{}
	q.Set("query", fmt.Sprintf("INSERT INTO %s FORMAT JSONEachRow", table))
	if c.AsyncInsert {
		q.Set("async_insert", "1")
		if c.WaitForAsyncInsert {
			q.Set("wait_for_async_insert", "1")
		} else {
			q.Set("wait_for_async_insert", "0")
		}
	}

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"?"+q.Encode(), &body)
	if err != nil {
		return fmt.Errorf("columnar http client: build request: %w", err)
	}
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("columnar http client: %s insert: %w", table, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("columnar http client: %s insert returned status %d", table, resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}
