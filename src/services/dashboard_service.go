package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/patrickmn/go-cache"
	"github.com/username/tadawulboard/src/client"
	"github.com/username/tadawulboard/src/config"
	"github.com/username/tadawulboard/src/database"
	"github.com/username/tadawulboard/src/logger"
	"github.com/username/tadawulboard/src/models"
	"github.com/username/tadawulboard/src/reconcile"
	"github.com/username/tadawulboard/src/view"
)

const (
	ckDefaultView = "view_default"
	ckEvidence    = "evidence_%s"
)

// ownershipLoader and earningsLoader are the two source adapters. They
// never fail; a broken source produces an empty dataset.
type ownershipLoader interface {
	Load(ctx context.Context) []models.OwnershipRecord
}

type earningsLoader interface {
	Load(ctx context.Context) []models.EarningsRecord
}

// correctionBackend is the slice of the REST client this service calls.
type correctionBackend interface {
	SubmitCorrection(ctx context.Context, req models.CorrectionRequest) (*models.CorrectionResponse, error)
	Evidence(ctx context.Context, symbol string) (*models.Evidence, error)
	Refresh(ctx context.Context) (*models.StatusResponse, error)
	ExportExcel(ctx context.Context) (*client.Download, error)
}

type dashboardServiceImpl struct {
	ownership ownershipLoader
	earnings  earningsLoader
	backend   correctionBackend
	table     *reconcile.Table
	viewCache *cache.Cache
}

func NewDashboardService(
	ownership ownershipLoader,
	earnings earningsLoader,
	backend correctionBackend,
	viewCache *cache.Cache,
) DashboardService {
	return &dashboardServiceImpl{
		ownership: ownership,
		earnings:  earnings,
		backend:   backend,
		table:     reconcile.NewTable(),
		viewCache: viewCache,
	}
}

// RefreshTable fetches both sources concurrently, waits for both to settle,
// reconciles and swaps the result in. The generation token reserved before
// the fetch makes a superseded refresh a no-op instead of a silent
// overwrite of newer data.
func (s *dashboardServiceImpl) RefreshTable(ctx context.Context) (int, error) {
	generation := s.table.NextGeneration()
	logger.L.Info("RefreshTable START", "generation", generation)

	var (
		wg            sync.WaitGroup
		ownershipRows []models.OwnershipRecord
		earningsRows  []models.EarningsRecord
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		ownershipRows = s.ownership.Load(ctx)
	}()
	go func() {
		defer wg.Done()
		earningsRows = s.earnings.Load(ctx)
	}()
	wg.Wait()

	rows := reconcile.Reconcile(ownershipRows, earningsRows)
	if !s.table.Replace(generation, rows) {
		logger.L.Warn("Discarding stale refresh result", "generation", generation, "rows", len(rows))
		return s.table.Len(), nil
	}
	s.viewCache.Delete(ckDefaultView)

	logger.L.Info("RefreshTable END",
		"generation", generation,
		"ownershipRows", len(ownershipRows),
		"earningsRows", len(earningsRows),
		"unifiedRows", len(rows))
	return len(rows), nil
}

// View derives the flat grid. The unfiltered derivation is cached; searches
// recompute on every call, which is every keystroke.
func (s *dashboardServiceImpl) View(search string) TableView {
	if search == "" {
		if cached, found := s.viewCache.Get(ckDefaultView); found {
			return cached.(TableView)
		}
	}
	derived := TableView{Search: search, Rows: view.Derive(s.table.Snapshot(), search)}
	if search == "" {
		s.viewCache.Set(ckDefaultView, derived, cache.DefaultExpiration)
	}
	return derived
}

// SubmitCorrection forwards the override and patches the one matching row
// with whatever fields the backend reports back. Failures are returned to
// the caller; a correction that goes nowhere must be visible to whoever
// submitted it.
func (s *dashboardServiceImpl) SubmitCorrection(ctx context.Context, req models.CorrectionRequest) (*models.CorrectionResponse, error) {
	resp, err := s.backend.SubmitCorrection(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if resp.Status != "success" {
		return resp, fmt.Errorf("%w: %s", ErrCorrectionRejected, resp.Message)
	}

	if s.table.ApplyPatch(req.CompanySymbol, resp.Updated) {
		s.viewCache.Delete(ckDefaultView)
	} else {
		// The table may have been replaced while the correction was in
		// flight; the backend still holds the value, so the next refresh
		// picks it up.
		logger.L.Warn("Correction accepted but no row matched", "symbol", req.CompanySymbol)
	}

	if err := recordCorrection(req, resp.Updated); err != nil {
		logger.L.Error("Failed to record correction", "symbol", req.CompanySymbol, "error", err)
	}
	return resp, nil
}

// recordCorrection appends the accepted correction to the local audit log.
func recordCorrection(req models.CorrectionRequest, updated map[string]string) error {
	fields := make([]string, 0, len(updated))
	for k := range updated {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	_, err := database.DB.Exec(
		`INSERT INTO corrections (company_symbol, correct_value, feedback, applied_fields) VALUES (?, ?, ?, ?)`,
		req.CompanySymbol, req.CorrectValue, req.Feedback, strings.Join(fields, ","),
	)
	return err
}

// Evidence serves lookups from cache; a miss goes to the backend.
func (s *dashboardServiceImpl) Evidence(ctx context.Context, symbol string) (*models.Evidence, error) {
	cacheKey := fmt.Sprintf(ckEvidence, symbol)
	if cached, found := s.viewCache.Get(cacheKey); found {
		logger.L.Debug("Cache hit for evidence", "symbol", symbol)
		return cached.(*models.Evidence), nil
	}
	ev, err := s.backend.Evidence(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	s.viewCache.Set(cacheKey, ev, config.Cfg.EvidenceCacheTTL)
	return ev, nil
}

// ExportExcel streams the backend-generated spreadsheet of the full merged
// table.
func (s *dashboardServiceImpl) ExportExcel(ctx context.Context) (*client.Download, error) {
	download, err := s.backend.ExportExcel(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	logger.L.Info("Table export prepared", "filename", download.Filename)
	return download, nil
}

// TriggerBackendRefresh asks the backend to rebuild its datasets and then
// reloads the local table from the fresh output.
func (s *dashboardServiceImpl) TriggerBackendRefresh(ctx context.Context) error {
	resp, err := s.backend.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if resp.Status != "success" {
		return fmt.Errorf("backend refresh failed: %s", resp.Message)
	}
	if _, err := s.RefreshTable(ctx); err != nil {
		return err
	}
	return nil
}
