// Package adminclient calls the API's admin routes. The API process owns the
// search index files, so tooling never opens them directly.
package adminclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const adminKeyHeader = "x-admin-key"

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL  string
	adminKey string
	http     *http.Client
}

func New(baseURL, adminKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		adminKey: adminKey,
		http:     &http.Client{Timeout: timeout},
	}
}

type SyncResult struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	TotalSynced       int    `json:"totalSynced"`
	Total             int    `json:"total"`
	CollectionCreated bool   `json:"collectionCreated"`
	TaskID            string `json:"taskId"`
}

type Collection struct {
	Name                string `json:"name"`
	NumDocuments        uint64 `json:"num_documents"`
	DefaultSortingField string `json:"default_sorting_field"`
}

type CreateCollectionResult struct {
	Message    string     `json:"message"`
	Created    bool       `json:"created"`
	Collection Collection `json:"collection"`
}

type InjectResult struct {
	Message string `json:"message"`
	Data    struct {
		Injected int `json:"injected"`
		Indexed  int `json:"indexed"`
	} `json:"data"`
}

type TestDataStats struct {
	Total int64 `json:"total"`
	Test  int64 `json:"test"`
	Real  int64 `json:"real"`
}

type Export struct {
	Filename    string
	RecordCount int
	Data        []byte
}

// Sync rebuilds the index. With async the server queues the work and answers
// with a task id.
func (c *Client) Sync(ctx context.Context, async bool) (*SyncResult, error) {
	path := "/admin/sync"
	if async {
		path += "?async=true"
	}
	var out SyncResult
	if err := c.doJSON(ctx, http.MethodPost, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	var out struct {
		Collections []Collection `json:"collections"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/admin/collections", &out); err != nil {
		return nil, err
	}
	return out.Collections, nil
}

func (c *Client) CreateCollection(ctx context.Context) (*CreateCollectionResult, error) {
	var out CreateCollectionResult
	if err := c.doJSON(ctx, http.MethodPost, "/admin/collections", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) InjectTestData(ctx context.Context, count int) (*InjectResult, error) {
	var out InjectResult
	path := "/admin/test-data?count=" + strconv.Itoa(count)
	if err := c.doJSON(ctx, http.MethodPost, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CleanupTestData(ctx context.Context) (int, error) {
	var out struct {
		Deleted int `json:"deleted"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/admin/test-data", &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func (c *Client) TestDataStats(ctx context.Context) (*TestDataStats, error) {
	var out struct {
		Data TestDataStats `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/admin/test-data/stats", &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Export downloads the workbook. The filename comes from Content-Disposition.
func (c *Client) Export(ctx context.Context) (*Export, error) {
	resp, err := c.do(ctx, http.MethodGet, "/admin/biodata/export")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	count, _ := strconv.Atoi(resp.Header.Get("X-Record-Count"))
	return &Export{
		Filename:    filenameFrom(resp.Header.Get("Content-Disposition")),
		RecordCount: count,
		Data:        data,
	}, nil
}

func filenameFrom(disposition string) string {
	_, name, ok := strings.Cut(disposition, "filename=")
	if !ok {
		return "biodata_export.xlsx"
	}
	return strings.Trim(name, `"`)
}

func (c *Client) doJSON(ctx context.Context, method, path string, out any) error {
	resp, err := c.do(ctx, method, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// do sends the request and turns non-2xx answers into an APIError.
func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.adminKey != "" {
		req.Header.Set(adminKeyHeader, c.adminKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode/100 == 2 {
		return resp, nil
	}
	defer resp.Body.Close()

	var body struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Message != "":
			msg = body.Message
		case body.Error != nil:
			msg = fmt.Sprint(body.Error)
		}
	}
	return nil, &APIError{Status: resp.StatusCode, Message: msg}
}
