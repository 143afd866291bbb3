package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/tadawulboard/src/client"
	"github.com/username/tadawulboard/src/config"
	"github.com/username/tadawulboard/src/database"
	"github.com/username/tadawulboard/src/logger"
	"github.com/username/tadawulboard/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	config.Cfg = &config.AppConfig{EvidenceCacheTTL: time.Minute}
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) {
	t.Helper()
	database.InitDB(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { database.DB.Close() })
}

type stubOwnership struct {
	records []models.OwnershipRecord
}

func (s stubOwnership) Load(ctx context.Context) []models.OwnershipRecord { return s.records }

type stubEarnings struct {
	records []models.EarningsRecord
}

func (s stubEarnings) Load(ctx context.Context) []models.EarningsRecord { return s.records }

type stubBackend struct {
	correctionResp *models.CorrectionResponse
	correctionErr  error
	refreshResp    *models.StatusResponse
	refreshErr     error
	evidence       *models.Evidence
	evidenceCalls  int
	download       *client.Download
}

func (s *stubBackend) SubmitCorrection(ctx context.Context, req models.CorrectionRequest) (*models.CorrectionResponse, error) {
	return s.correctionResp, s.correctionErr
}

func (s *stubBackend) Evidence(ctx context.Context, symbol string) (*models.Evidence, error) {
	s.evidenceCalls++
	if s.evidence == nil {
		return nil, errors.New("no evidence")
	}
	return s.evidence, nil
}

func (s *stubBackend) Refresh(ctx context.Context) (*models.StatusResponse, error) {
	return s.refreshResp, s.refreshErr
}

func (s *stubBackend) ExportExcel(ctx context.Context) (*client.Download, error) {
	if s.download == nil {
		return nil, errors.New("no download configured")
	}
	return s.download, nil
}

func newTestDashboard(own []models.OwnershipRecord, earn []models.EarningsRecord, backend *stubBackend) DashboardService {
	return NewDashboardService(
		stubOwnership{records: own},
		stubEarnings{records: earn},
		backend,
		cache.New(time.Minute, time.Minute),
	)
}

func TestRefreshTableAndView(t *testing.T) {
	setupTestDB(t)
	svc := newTestDashboard(
		[]models.OwnershipRecord{
			{Symbol: "2010", CompanyName: "SABIC"},
			{Symbol: "1050", CompanyName: "Bank"},
		},
		[]models.EarningsRecord{
			{Symbol: "1050", RetainedEarnings: "500"},
		},
		&stubBackend{},
	)

	n, err := svc.RefreshTable(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n != 2 {
		t.Fatalf("Expected 2 unified rows, got %d", n)
	}

	tv := svc.View("")
	if len(tv.Rows) != 2 {
		t.Fatalf("Expected 2 view rows, got %d", len(tv.Rows))
	}
	// 1050 carries the only numeric figure, so it sorts first.
	if tv.Rows[0].Symbol != "1050" {
		t.Errorf("Expected 1050 first, got %s", tv.Rows[0].Symbol)
	}

	filtered := svc.View("SAB")
	if len(filtered.Rows) != 1 || filtered.Rows[0].Symbol != "2010" {
		t.Errorf("Unexpected filtered view: %+v", filtered.Rows)
	}
}

func TestSubmitCorrection_PatchesMatchedRowOnly(t *testing.T) {
	setupTestDB(t)
	backend := &stubBackend{
		correctionResp: &models.CorrectionResponse{
			Status: "success",
			Updated: map[string]string{
				"retained_earnings":   "777",
				"reinvested_earnings": "700",
				"year":                "2024",
			},
		},
	}
	svc := newTestDashboard(
		[]models.OwnershipRecord{
			{Symbol: "2010", CompanyName: "SABIC"},
			{Symbol: "1050", CompanyName: "Bank"},
		},
		[]models.EarningsRecord{
			{Symbol: "2010", RetainedEarnings: "100"},
			{Symbol: "1050", RetainedEarnings: "200"},
		},
		backend,
	)
	if _, err := svc.RefreshTable(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	resp, err := svc.SubmitCorrection(context.Background(), models.CorrectionRequest{
		CompanySymbol: "1050",
		CorrectValue:  "777",
		Feedback:      "value misread from screenshot",
	})
	if err != nil {
		t.Fatalf("Expected correction to succeed, got %v", err)
	}
	if resp.Status != "success" {
		t.Fatalf("Unexpected response: %+v", resp)
	}

	tv := svc.View("")
	for _, row := range tv.Rows {
		switch row.Symbol {
		case "1050":
			if row.RetainedEarnings != "777" || row.Year != "2024" {
				t.Errorf("Patched row wrong: %+v", row)
			}
		case "2010":
			if row.RetainedEarnings != "100" {
				t.Errorf("Untouched row changed: %+v", row)
			}
		}
	}

	// The accepted correction lands in the local audit log.
	var count int
	if err := database.DB.QueryRow(`SELECT COUNT(*) FROM corrections WHERE company_symbol = '1050'`).Scan(&count); err != nil {
		t.Fatalf("querying corrections: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 recorded correction, got %d", count)
	}
}

func TestSubmitCorrection_FailureSurfaces(t *testing.T) {
	setupTestDB(t)

	svc := newTestDashboard(nil, nil, &stubBackend{correctionErr: errors.New("connection refused")})
	if _, err := svc.SubmitCorrection(context.Background(), models.CorrectionRequest{CompanySymbol: "2010"}); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Expected ErrBackendUnavailable, got %v", err)
	}

	svc = newTestDashboard(nil, nil, &stubBackend{
		correctionResp: &models.CorrectionResponse{Status: "error", Message: "symbol unknown"},
	})
	if _, err := svc.SubmitCorrection(context.Background(), models.CorrectionRequest{CompanySymbol: "2010"}); !errors.Is(err, ErrCorrectionRejected) {
		t.Errorf("Expected ErrCorrectionRejected, got %v", err)
	}
}

func TestEvidence_IsCached(t *testing.T) {
	setupTestDB(t)
	backend := &stubBackend{evidence: &models.Evidence{CompanySymbol: "2010", Context: "retained earnings of ..."}}
	svc := newTestDashboard(nil, nil, backend)

	for i := 0; i < 3; i++ {
		ev, err := svc.Evidence(context.Background(), "2010")
		if err != nil {
			t.Fatalf("Expected evidence, got %v", err)
		}
		if ev.CompanySymbol != "2010" {
			t.Errorf("Unexpected evidence: %+v", ev)
		}
	}
	if backend.evidenceCalls != 1 {
		t.Errorf("Expected 1 backend call, got %d", backend.evidenceCalls)
	}
}

func TestTriggerBackendRefresh(t *testing.T) {
	setupTestDB(t)
	backend := &stubBackend{refreshResp: &models.StatusResponse{Status: "success"}}
	svc := newTestDashboard(
		[]models.OwnershipRecord{{Symbol: "2010", CompanyName: "SABIC"}},
		nil,
		backend,
	)
	if err := svc.TriggerBackendRefresh(context.Background()); err != nil {
		t.Fatalf("Expected refresh to succeed, got %v", err)
	}
	if got := svc.View(""); len(got.Rows) != 1 {
		t.Errorf("Expected table loaded after refresh, got %d rows", len(got.Rows))
	}

	backend.refreshErr = errors.New("backend down")
	if err := svc.TriggerBackendRefresh(context.Background()); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Expected ErrBackendUnavailable, got %v", err)
	}
}

func TestExportExcel(t *testing.T) {
	setupTestDB(t)
	backend := &stubBackend{
		download: &client.Download{Filename: "tasi_table_20250831.xlsx", Body: io.NopCloser(strings.NewReader("xlsx bytes"))},
	}
	svc := newTestDashboard(nil, nil, backend)

	download, err := svc.ExportExcel(context.Background())
	if err != nil {
		t.Fatalf("Expected export to succeed, got %v", err)
	}
	defer download.Body.Close()
	if download.Filename != "tasi_table_20250831.xlsx" {
		t.Errorf("Unexpected filename %q", download.Filename)
	}

	if _, err := newTestDashboard(nil, nil, &stubBackend{}).ExportExcel(context.Background()); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Expected ErrBackendUnavailable, got %v", err)
	}
}
