package services

import (
	"context"
	"errors"
	"io"

	"github.com/username/tadawulboard/src/client"
	"github.com/username/tadawulboard/src/models"
)

var (
	// ErrBackendUnavailable wraps any transport-level failure talking to the
	// extraction backend on paths where the failure must be surfaced.
	ErrBackendUnavailable = errors.New("extraction backend unavailable")

	// ErrCorrectionRejected means the backend answered but did not accept
	// the submitted correction.
	ErrCorrectionRejected = errors.New("correction rejected by backend")

	// ErrColumnNotFound means no stored extraction column matches the given
	// filename.
	ErrColumnNotFound = errors.New("extraction column not found")
)

// TableView is the derived flat grid: filtered, ordered rows plus the
// search they were derived for.
type TableView struct {
	Search string              `json:"search"`
	Rows   []models.UnifiedRow `json:"rows"`
}

// DashboardService owns the unified row model and everything derived from it.
type DashboardService interface {
	// RefreshTable re-fetches both sources, reconciles them and swaps the
	// result into the shared table. Returns the new row count.
	RefreshTable(ctx context.Context) (int, error)
	// View derives the filtered, sorted flat grid for one search term.
	View(search string) TableView
	// SubmitCorrection forwards a value override to the backend and, on
	// success, patches the matching row in place.
	SubmitCorrection(ctx context.Context, req models.CorrectionRequest) (*models.CorrectionResponse, error)
	// Evidence fetches the screenshot and snippet backing one symbol's figure.
	Evidence(ctx context.Context, symbol string) (*models.Evidence, error)
	// TriggerBackendRefresh asks the backend to rebuild its datasets, then
	// refreshes the local table from the new data.
	TriggerBackendRefresh(ctx context.Context) error
	// ExportExcel streams the backend's spreadsheet export of the full
	// merged table.
	ExportExcel(ctx context.Context) (*client.Download, error)
}

// BatchFile is one file of an upload batch as received from the browser.
type BatchFile struct {
	Filename    string
	ContentType string
	Content     io.ReadSeeker
}

// BatchResult partitions a processed upload batch. Failures never block
// successes; both lists are returned together.
type BatchResult struct {
	TotalFiles int                       `json:"total_files"`
	Added      []models.ExtractionColumn `json:"added"`
	Failures   []models.FileResult       `json:"failures"`
}

// ClearResult reports a clear-all: the local reset always happens, the
// backend clear is best-effort.
type ClearResult struct {
	RemovedLocal int    `json:"removed_local"`
	BackendError string `json:"backend_error,omitempty"`
}

// UploadService owns the extraction column collection and the file
// workflows around it.
type UploadService interface {
	// ProcessBatch validates the selection (all-or-nothing), submits one
	// multipart upload, stores the successful columns and reports per-file
	// failures.
	ProcessBatch(ctx context.Context, files []BatchFile) (*BatchResult, error)
	// Columns returns every stored extraction column, oldest first.
	Columns() ([]models.ExtractionColumn, error)
	// CorrectColumn overwrites one field of one stored column.
	CorrectColumn(ctx context.Context, filename, field, value, feedback string) error
	// ClearAll drops the local collection and best-effort clears the
	// backend's store. The local reset is never rolled back.
	ClearAll(ctx context.Context) (*ClearResult, error)
	// ExportCurrent sends the successful columns to the backend and streams
	// back the generated spreadsheet.
	ExportCurrent(ctx context.Context) (*client.Download, error)
	// Snapshots lists the archived quarterly ownership exports.
	Snapshots(ctx context.Context) ([]models.Snapshot, error)
	// UserExports lists previously exported spreadsheets.
	UserExports(ctx context.Context) ([]models.UserExport, error)
	// DeleteExport removes one archived export by filename.
	DeleteExport(ctx context.Context, filename string) error
}
