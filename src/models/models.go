package models

// OwnershipRecord is one row per listed company from the ownership scrape.
// All values are kept as the display strings the scrape produced.
type OwnershipRecord struct {
	Symbol              string `json:"symbol"`
	CompanyName         string `json:"company_name"`
	ForeignOwnershipPct string `json:"foreign_ownership"`
	MaxAllowedPct       string `json:"max_allowed"`
	InvestorLimitPct    string `json:"investor_limit"`
}

// EarningsRecord is one row per symbol with extracted financial data.
// Numeric fields may be empty or carry an error sentinel; they are never
// parsed at this layer.
type EarningsRecord struct {
	Symbol             string `json:"company_symbol"`
	RetainedEarnings   string `json:"retained_earnings"`
	ReinvestedEarnings string `json:"reinvested_earnings"`
	Year               string `json:"year"`
	ExtractionError    string `json:"error"`
}

// UnifiedRow is the join of one OwnershipRecord with zero-or-one matching
// EarningsRecord. RowID is assigned at reconciliation time and is
// independent of the row's position, so it stays meaningful across
// re-fetches of the same collection.
type UnifiedRow struct {
	RowID               string `json:"row_id"`
	Symbol              string `json:"symbol"`
	CompanyName         string `json:"company_name"`
	ForeignOwnershipPct string `json:"foreign_ownership"`
	MaxAllowedPct       string `json:"max_allowed"`
	InvestorLimitPct    string `json:"investor_limit"`
	RetainedEarnings    string `json:"retained_earnings"`
	ReinvestedEarnings  string `json:"reinvested_earnings"`
	Year                string `json:"year"`
	ExtractionError     string `json:"extraction_error"`
}

// ExtractionColumn is one uploaded report file and the figures extracted
// from it. Filename is the natural key; a second upload of the same name is
// rejected before it reaches the backend.
type ExtractionColumn struct {
	Filename        string            `json:"filename"`
	Data            map[string]string `json:"data"`
	ScreenshotPath  string            `json:"screenshot_path,omitempty"`
	ExtractionError string            `json:"extraction_error,omitempty"`
}

// Succeeded reports whether this column carries usable extracted data.
// It is recomputed wherever needed rather than stored as a flag.
func (c ExtractionColumn) Succeeded() bool {
	return c.ExtractionError == "" && len(c.Data) > 0
}

// Evidence is a screenshot plus surrounding text snippet substantiating an
// extracted value, served on demand by the backend.
type Evidence struct {
	CompanySymbol  string `json:"company_symbol"`
	ExtractedValue string `json:"extracted_value,omitempty"`
	Method         string `json:"method,omitempty"`
	Confidence     string `json:"confidence,omitempty"`
	ScreenshotURL  string `json:"screenshot_url,omitempty"`
	Context        string `json:"context,omitempty"`
}

// CorrectionRequest is a user-submitted override of one extracted value.
type CorrectionRequest struct {
	CompanySymbol string `json:"company_symbol"`
	CorrectValue  string `json:"correct_value"`
	Feedback      string `json:"feedback"`
}

// CorrectionResponse is the backend's answer to a correction submission.
// Updated carries only the fields the backend actually changed.
type CorrectionResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Updated map[string]string `json:"updated,omitempty"`
}

// Snapshot is an archived, dated export of the full ownership table.
type Snapshot struct {
	Year         string `json:"year"`
	Quarter      string `json:"quarter"`
	SnapshotDate string `json:"snapshot_date"`
	DownloadURL  string `json:"download_url"`
}

// UserExport is one spreadsheet a user previously exported.
type UserExport struct {
	ExportDate  string `json:"export_date"`
	Filename    string `json:"filename"`
	DownloadURL string `json:"download_url"`
}

// FileResult is the backend's per-file verdict inside a batch upload
// response. Data and ScreenshotPaths are present only on success.
type FileResult struct {
	Filename        string            `json:"filename"`
	Success         bool              `json:"success"`
	Data            map[string]string `json:"data,omitempty"`
	Error           string            `json:"error,omitempty"`
	ScreenshotPaths []string          `json:"screenshot_paths,omitempty"`
}

// BatchUploadResponse is the backend's answer to a multi-PDF upload.
type BatchUploadResponse struct {
	Success           bool         `json:"success"`
	TotalFiles        int          `json:"total_files"`
	SuccessfulUploads int          `json:"successful_uploads"`
	Results           []FileResult `json:"results"`
}

// StatusResponse covers the backend's plain status endpoints
// (refresh, clear, delete).
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
