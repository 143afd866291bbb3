package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/username/tadawulboard/src/logger"
	"github.com/username/tadawulboard/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func newTestClient(srv *httptest.Server) *Client {
	return New(srv.URL, 5*time.Second, 1<<20)
}

func TestSubmitCorrection(t *testing.T) {
	var gotPath string
	var gotReq models.CorrectionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(models.CorrectionResponse{
			Status:  "success",
			Updated: map[string]string{"retained_earnings": "500"},
		})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv).SubmitCorrection(context.Background(), models.CorrectionRequest{
		CompanySymbol: "2010",
		CorrectValue:  "500",
	})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if gotPath != "/api/correct_retained_earnings" {
		t.Errorf("Unexpected path %q", gotPath)
	}
	if gotReq.CompanySymbol != "2010" || gotReq.CorrectValue != "500" {
		t.Errorf("Request body not carried: %+v", gotReq)
	}
	if resp.Updated["retained_earnings"] != "500" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestSubmitCorrection_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv).SubmitCorrection(context.Background(), models.CorrectionRequest{}); err == nil {
		t.Fatal("Expected error for 500 response, got nil")
	}
}

func TestEvidence_EscapesSymbol(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		json.NewEncoder(w).Encode(models.Evidence{CompanySymbol: "20 10"})
	}))
	defer srv.Close()

	ev, err := newTestClient(srv).Evidence(context.Background(), "20 10")
	if err != nil {
		t.Fatalf("Expected evidence, got %v", err)
	}
	if gotPath != "/api/evidence/20%2010" {
		t.Errorf("Expected escaped path, got %q", gotPath)
	}
	if ev.CompanySymbol != "20 10" {
		t.Errorf("Unexpected evidence: %+v", ev)
	}
}

func TestEarningsCSV_RespectsMaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("company_symbol,retained_earnings\n2010,500\n"))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second, 10)
	data, err := c.EarningsCSV(context.Background())
	if err != nil {
		t.Fatalf("Expected CSV, got %v", err)
	}
	if len(data) != 10 {
		t.Errorf("Expected body capped at 10 bytes, got %d", len(data))
	}
}

func TestUploadPDFs_MultipartBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parsing multipart form: %v", err)
		}
		parts := r.MultipartForm.File["files"]
		results := make([]models.FileResult, 0, len(parts))
		for _, fh := range parts {
			f, err := fh.Open()
			if err != nil {
				t.Errorf("opening part %s: %v", fh.Filename, err)
				continue
			}
			content, _ := io.ReadAll(f)
			f.Close()
			if !strings.HasPrefix(string(content), "%PDF-") {
				t.Errorf("Part %s lost its content: %q", fh.Filename, content)
			}
			results = append(results, models.FileResult{Filename: fh.Filename, Success: true})
		}
		json.NewEncoder(w).Encode(models.BatchUploadResponse{
			Success:           true,
			TotalFiles:        len(parts),
			SuccessfulUploads: len(results),
			Results:           results,
		})
	}))
	defer srv.Close()

	resp, err := newTestClient(srv).UploadPDFs(context.Background(), []UploadFile{
		{Filename: "a.pdf", Content: strings.NewReader("%PDF-1.4 aaa")},
		{Filename: "b.pdf", Content: strings.NewReader("%PDF-1.4 bbb")},
	})
	if err != nil {
		t.Fatalf("Expected upload to succeed, got %v", err)
	}
	if resp.TotalFiles != 2 || len(resp.Results) != 2 {
		t.Fatalf("Unexpected response: %+v", resp)
	}
	if resp.Results[0].Filename != "a.pdf" || resp.Results[1].Filename != "b.pdf" {
		t.Errorf("Filenames not preserved: %+v", resp.Results)
	}
}

func TestExportTable_FilenameFromDisposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Data []map[string]string `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding export payload: %v", err)
		}
		if len(payload.Data) != 1 {
			t.Errorf("Expected 1 row, got %d", len(payload.Data))
		}
		w.Header().Set("Content-Disposition", `attachment; filename="tasi_2025.xlsx"`)
		w.Write([]byte("xlsx bytes"))
	}))
	defer srv.Close()

	download, err := newTestClient(srv).ExportTable(context.Background(), []map[string]string{{"DATE": "2025-06-30"}})
	if err != nil {
		t.Fatalf("Expected export to succeed, got %v", err)
	}
	defer download.Body.Close()
	if download.Filename != "tasi_2025.xlsx" {
		t.Errorf("Expected filename from header, got %q", download.Filename)
	}
	body, _ := io.ReadAll(download.Body)
	if string(body) != "xlsx bytes" {
		t.Errorf("Unexpected body %q", body)
	}
}

func TestExportExcel_FallbackFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("xlsx bytes"))
	}))
	defer srv.Close()

	download, err := newTestClient(srv).ExportExcel(context.Background())
	if err != nil {
		t.Fatalf("Expected export to succeed, got %v", err)
	}
	defer download.Body.Close()
	if !strings.HasPrefix(download.Filename, "pdf_extraction_data_") || !strings.HasSuffix(download.Filename, ".xlsx") {
		t.Errorf("Expected timestamped fallback filename, got %q", download.Filename)
	}
}

func TestDeleteUserExport(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(models.StatusResponse{Status: "success"})
	}))
	defer srv.Close()

	if err := newTestClient(srv).DeleteUserExport(context.Background(), "old.xlsx"); err != nil {
		t.Fatalf("Expected delete to succeed, got %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/user_exports/old.xlsx" {
		t.Errorf("Unexpected request %s %s", gotMethod, gotPath)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(models.StatusResponse{Status: "healthy"})
	}))
	defer srv.Close()

	if err := newTestClient(srv).Health(context.Background()); err != nil {
		t.Fatalf("Expected healthy, got %v", err)
	}

	srv.Close()
	if err := newTestClient(srv).Health(context.Background()); err == nil {
		t.Error("Expected error against closed server, got nil")
	}
}
