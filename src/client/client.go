// Package client implements the REST contract of the extraction backend.
// Every call takes a context and returns an explicit error; callers decide
// whether a failure degrades or surfaces.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/username/tadawulboard/src/models"
)

// Client talks to one extraction backend instance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxBytes   int64
}

// New creates a Client for the given base URL.
func New(baseURL string, timeout time.Duration, maxBytes int64) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxBytes:   maxBytes,
	}
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("POST %s: unexpected status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBytes)).Decode(out); err != nil {
		return fmt.Errorf("POST %s: decode response: %w", path, err)
	}
	return nil
}

// EarningsCSV fetches the reinvested-earnings results table as raw CSV text.
func (c *Client) EarningsCSV(ctx context.Context) ([]byte, error) {
	resp, err := c.get(ctx, "/api/reinvested_earnings_results.csv")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read earnings CSV: %w", err)
	}
	return data, nil
}

// Evidence fetches the screenshot reference and text snippet backing the
// extracted value for one company.
func (c *Client) Evidence(ctx context.Context, symbol string) (*models.Evidence, error) {
	resp, err := c.get(ctx, "/api/evidence/"+url.PathEscape(symbol))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var ev models.Evidence
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBytes)).Decode(&ev); err != nil {
		return nil, fmt.Errorf("decode evidence for %s: %w", symbol, err)
	}
	return &ev, nil
}

// SubmitCorrection sends a user-submitted value override to the backend.
func (c *Client) SubmitCorrection(ctx context.Context, req models.CorrectionRequest) (*models.CorrectionResponse, error) {
	var out models.CorrectionResponse
	if err := c.postJSON(ctx, "/api/correct_retained_earnings", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh asks the backend to re-scrape and recalculate its datasets.
func (c *Client) Refresh(ctx context.Context) (*models.StatusResponse, error) {
	var out models.StatusResponse
	if err := c.postJSON(ctx, "/api/refresh", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearData asks the backend to drop its persisted extraction store.
func (c *Client) ClearData(ctx context.Context) (*models.StatusResponse, error) {
	var out models.StatusResponse
	if err := c.postJSON(ctx, "/api/clear_data", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download is a spreadsheet payload streamed back from an export call.
// Close the Body when done.
type Download struct {
	Filename string
	Body     io.ReadCloser
}

// filenameFromDisposition pulls the filename out of a Content-Disposition
// header, falling back to a timestamped default when the header is absent
// or unparsable.
func filenameFromDisposition(header string) string {
	fallback := "pdf_extraction_data_" + time.Now().Format("20060102_150405") + ".xlsx"
	if header == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return fallback
	}
	if name := params["filename"]; name != "" {
		return name
	}
	return fallback
}

// ExportExcel streams the backend's full-table spreadsheet export.
func (c *Client) ExportExcel(ctx context.Context) (*Download, error) {
	resp, err := c.get(ctx, "/api/export_excel")
	if err != nil {
		return nil, err
	}
	return &Download{
		Filename: filenameFromDisposition(resp.Header.Get("Content-Disposition")),
		Body:     resp.Body,
	}, nil
}

// ExportTable sends the currently displayed rows to the backend and streams
// back the generated spreadsheet.
func (c *Client) ExportTable(ctx context.Context, rows []map[string]string) (*Download, error) {
	payload, err := json.Marshal(map[string]interface{}{"data": rows})
	if err != nil {
		return nil, fmt.Errorf("marshal export payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/export_current_table", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST /api/export_current_table: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("POST /api/export_current_table: unexpected status %d", resp.StatusCode)
	}
	return &Download{
		Filename: filenameFromDisposition(resp.Header.Get("Content-Disposition")),
		Body:     resp.Body,
	}, nil
}

// OwnershipSnapshots lists the archived quarterly ownership exports.
func (c *Client) OwnershipSnapshots(ctx context.Context) ([]models.Snapshot, error) {
	resp, err := c.get(ctx, "/api/ownership_snapshots")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var snapshots []models.Snapshot
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBytes)).Decode(&snapshots); err != nil {
		return nil, fmt.Errorf("decode ownership snapshots: %w", err)
	}
	return snapshots, nil
}

// UserExports lists the spreadsheets the user exported earlier.
func (c *Client) UserExports(ctx context.Context) ([]models.UserExport, error) {
	resp, err := c.get(ctx, "/api/user_exports")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var exports []models.UserExport
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBytes)).Decode(&exports); err != nil {
		return nil, fmt.Errorf("decode user exports: %w", err)
	}
	return exports, nil
}

// DeleteUserExport removes one archived export by filename.
func (c *Client) DeleteUserExport(ctx context.Context, filename string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/user_exports/"+url.PathEscape(filename), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("DELETE user export %s: %w", filename, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("DELETE user export %s: unexpected status %d", filename, resp.StatusCode)
	}
	return nil
}

// UploadFile is one PDF queued for a batch upload.
type UploadFile struct {
	Filename string
	Content  io.Reader
}

// UploadPDFs submits one multipart request carrying every file in the batch
// and returns the backend's per-file results.
func (c *Client) UploadPDFs(ctx context.Context, files []UploadFile) (*models.BatchUploadResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := writer.CreateFormFile("files", f.Filename)
		if err != nil {
			return nil, fmt.Errorf("create form file %s: %w", f.Filename, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("copy file %s into form: %w", f.Filename, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload_multiple_pdfs", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST /api/upload_multiple_pdfs: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("POST /api/upload_multiple_pdfs: unexpected status %d", resp.StatusCode)
	}
	var out models.BatchUploadResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode batch upload response: %w", err)
	}
	return &out, nil
}

// Health checks whether the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.get(ctx, "/api/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
