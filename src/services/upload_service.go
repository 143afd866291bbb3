package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/username/tadawulboard/src/client"
	"github.com/username/tadawulboard/src/database"
	"github.com/username/tadawulboard/src/logger"
	"github.com/username/tadawulboard/src/models"
	"github.com/username/tadawulboard/src/security/validation"
	"github.com/username/tadawulboard/src/view"
)

// uploadBackend is the slice of the REST client the upload workflows use.
type uploadBackend interface {
	UploadPDFs(ctx context.Context, files []client.UploadFile) (*models.BatchUploadResponse, error)
	ClearData(ctx context.Context) (*models.StatusResponse, error)
	ExportTable(ctx context.Context, rows []map[string]string) (*client.Download, error)
	OwnershipSnapshots(ctx context.Context) ([]models.Snapshot, error)
	UserExports(ctx context.Context) ([]models.UserExport, error)
	DeleteUserExport(ctx context.Context, filename string) error
}

type uploadServiceImpl struct {
	backend uploadBackend
}

func NewUploadService(backend uploadBackend) UploadService {
	return &uploadServiceImpl{backend: backend}
}

// ProcessBatch runs the selection checks, ships the batch in one multipart
// request and stores whatever succeeded. Per-file extraction failures are
// reported alongside the successes, never instead of them.
func (s *uploadServiceImpl) ProcessBatch(ctx context.Context, files []BatchFile) (*BatchResult, error) {
	existing, err := storedFilenames()
	if err != nil {
		return nil, fmt.Errorf("loading stored filenames: %w", err)
	}

	selection := make([]validation.SelectedFile, 0, len(files))
	for _, f := range files {
		selection = append(selection, validation.SelectedFile{
			Filename:    validation.SanitizeFilename(f.Filename),
			ContentType: f.ContentType,
		})
	}
	if err := validation.ValidateSelection(existing, selection); err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := validation.ValidatePDFContent(f.Content); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Filename, err)
		}
	}

	uploads := make([]client.UploadFile, 0, len(files))
	for i, f := range files {
		uploads = append(uploads, client.UploadFile{Filename: selection[i].Filename, Content: f.Content})
	}

	logger.L.Info("ProcessBatch START", "files", len(uploads))
	resp, err := s.backend.UploadPDFs(ctx, uploads)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	result := &BatchResult{TotalFiles: resp.TotalFiles, Added: []models.ExtractionColumn{}, Failures: []models.FileResult{}}
	for _, fr := range resp.Results {
		if !fr.Success {
			result.Failures = append(result.Failures, fr)
			logger.L.Warn("File failed extraction", "filename", fr.Filename, "reason", fr.Error)
			continue
		}
		col := models.ExtractionColumn{
			Filename: fr.Filename,
			Data:     fr.Data,
		}
		if len(fr.ScreenshotPaths) > 0 {
			col.ScreenshotPath = fr.ScreenshotPaths[0]
		}
		recoverReportDate(&col)
		if err := insertColumn(col); err != nil {
			logger.L.Error("Failed to persist extraction column", "filename", col.Filename, "error", err)
			result.Failures = append(result.Failures, models.FileResult{
				Filename: col.Filename,
				Error:    fmt.Sprintf("stored locally failed: %v", err),
			})
			continue
		}
		result.Added = append(result.Added, col)
	}
	logger.L.Info("ProcessBatch END", "added", len(result.Added), "failed", len(result.Failures))
	return result, nil
}

// Columns loads every stored extraction column, oldest first.
func (s *uploadServiceImpl) Columns() ([]models.ExtractionColumn, error) {
	rows, err := database.DB.Query(
		`SELECT filename, data, screenshot_path, extraction_error FROM extraction_columns ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying extraction columns: %w", err)
	}
	defer rows.Close()

	var cols []models.ExtractionColumn
	for rows.Next() {
		var col models.ExtractionColumn
		var dataJSON string
		if err := rows.Scan(&col.Filename, &dataJSON, &col.ScreenshotPath, &col.ExtractionError); err != nil {
			return nil, fmt.Errorf("scanning extraction column row: %w", err)
		}
		if dataJSON != "" {
			if err := json.Unmarshal([]byte(dataJSON), &col.Data); err != nil {
				logger.L.Warn("Stored extraction data is unreadable, treating as failed", "filename", col.Filename, "error", err)
				col.Data = nil
				if col.ExtractionError == "" {
					col.ExtractionError = "stored data unreadable"
				}
			}
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating extraction column rows: %w", err)
	}
	return cols, nil
}

// CorrectColumn overwrites one field of one stored column in place. The
// collection itself never gains or loses a row here.
func (s *uploadServiceImpl) CorrectColumn(ctx context.Context, filename, field, value, feedback string) error {
	var dataJSON string
	err := database.DB.QueryRow(
		`SELECT data FROM extraction_columns WHERE filename = ?`, filename).Scan(&dataJSON)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, filename)
	}

	data := map[string]string{}
	if dataJSON != "" {
		if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
			return fmt.Errorf("stored data for %s is unreadable: %w", filename, err)
		}
	}
	data[field] = value

	updated, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal corrected data: %w", err)
	}
	if _, err := database.DB.Exec(
		`UPDATE extraction_columns SET data = ?, extraction_error = '' WHERE filename = ?`, string(updated), filename); err != nil {
		return fmt.Errorf("updating extraction column %s: %w", filename, err)
	}

	if _, err := database.DB.Exec(
		`INSERT INTO corrections (company_symbol, correct_value, feedback, applied_fields) VALUES (?, ?, ?, ?)`,
		filename, value, feedback, field); err != nil {
		logger.L.Error("Failed to record column correction", "filename", filename, "error", err)
	}
	logger.L.Info("Extraction column corrected", "filename", filename, "field", field)
	return nil
}

// ClearAll resets the local store first and then asks the backend to do the
// same. A backend failure is reported but the local reset stands; from the
// user's side the table is empty either way.
func (s *uploadServiceImpl) ClearAll(ctx context.Context) (*ClearResult, error) {
	res, err := database.DB.Exec(`DELETE FROM extraction_columns`)
	if err != nil {
		return nil, fmt.Errorf("clearing extraction columns: %w", err)
	}
	removed, _ := res.RowsAffected()

	result := &ClearResult{RemovedLocal: int(removed)}
	if _, err := s.backend.ClearData(ctx); err != nil {
		logger.L.Warn("Backend clear failed; local store already reset", "error", err)
		result.BackendError = err.Error()
	}
	return result, nil
}

// ExportCurrent serializes only the successful columns, in display field
// order, and streams back the backend-generated spreadsheet.
func (s *uploadServiceImpl) ExportCurrent(ctx context.Context) (*client.Download, error) {
	cols, err := s.Columns()
	if err != nil {
		return nil, err
	}
	successful, _ := view.PartitionColumns(cols)

	rows := make([]map[string]string, 0, len(successful))
	for _, col := range successful {
		row := make(map[string]string, len(view.ExtractionFields)+1)
		row["filename"] = col.Filename
		for _, field := range view.ExtractionFields {
			row[field] = validation.SanitizeForFormulaInjection(col.Data[field])
		}
		rows = append(rows, row)
	}

	download, err := s.backend.ExportTable(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	logger.L.Info("Export prepared", "rows", len(rows), "filename", download.Filename)
	return download, nil
}

func (s *uploadServiceImpl) Snapshots(ctx context.Context) ([]models.Snapshot, error) {
	snapshots, err := s.backend.OwnershipSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return snapshots, nil
}

func (s *uploadServiceImpl) UserExports(ctx context.Context) ([]models.UserExport, error) {
	exports, err := s.backend.UserExports(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return exports, nil
}

func (s *uploadServiceImpl) DeleteExport(ctx context.Context, filename string) error {
	if err := s.backend.DeleteUserExport(ctx, validation.SanitizeFilename(filename)); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

var reportDatePattern = regexp.MustCompile(`(\d{1,2})-(\d{1,2})-(\d{4})`)

// recoverReportDate fills an absent DATE value from the weekly report's
// filename convention, e.g. "12-6-2025.pdf". Extraction output, when
// present, always wins.
func recoverReportDate(col *models.ExtractionColumn) {
	if col.Data == nil {
		return
	}
	switch col.Data[view.FieldDate] {
	case "", "null", "undefined":
	default:
		return
	}
	m := reportDatePattern.FindStringSubmatch(col.Filename)
	if m == nil {
		return
	}
	t, err := time.Parse("2-1-2006", m[1]+"-"+m[2]+"-"+m[3])
	if err != nil {
		return
	}
	col.Data[view.FieldDate] = t.Format("2006-01-02")
}

func storedFilenames() (map[string]bool, error) {
	rows, err := database.DB.Query(`SELECT filename FROM extraction_columns`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = true
	}
	return names, rows.Err()
}

func insertColumn(col models.ExtractionColumn) error {
	dataJSON, err := json.Marshal(col.Data)
	if err != nil {
		return fmt.Errorf("marshal extraction data: %w", err)
	}
	_, err = database.DB.Exec(
		`INSERT INTO extraction_columns (filename, data, screenshot_path, extraction_error) VALUES (?, ?, ?, ?)`,
		col.Filename, string(dataJSON), col.ScreenshotPath, col.ExtractionError)
	return err
}
