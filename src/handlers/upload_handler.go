package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/username/tadawulboard/src/config"
	"github.com/username/tadawulboard/src/logger"
	"github.com/username/tadawulboard/src/models"
	"github.com/username/tadawulboard/src/security/validation"
	"github.com/username/tadawulboard/src/services"
	"github.com/username/tadawulboard/src/utils"
	"github.com/username/tadawulboard/src/view"
)

type UploadHandler struct {
	uploadService services.UploadService
}

func NewUploadHandler(service services.UploadService) *UploadHandler {
	return &UploadHandler{
		uploadService: service,
	}
}

// HandleUploadBatch accepts one multipart request carrying the whole
// selection under repeated "files" fields. The selection is all-or-nothing;
// extraction results per file are not.
func (h *UploadHandler) HandleUploadBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		utils.SendJSONError(w, "No files in request. Ensure the 'files' field is used.", http.StatusBadRequest)
		return
	}

	batch := make([]services.BatchFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		file, err := fh.Open()
		if err != nil {
			logger.L.Warn("Failed to open uploaded file", "filename", fh.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Failed to read uploaded file %s", fh.Filename), http.StatusBadRequest)
			return
		}
		defer file.Close()
		batch = append(batch, services.BatchFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     file,
		})
	}

	result, err := h.uploadService.ProcessBatch(r.Context(), batch)
	if err != nil {
		if errors.Is(err, validation.ErrValidationFailed) {
			logger.L.Warn("Upload selection rejected", "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		} else if errors.Is(err, services.ErrBackendUnavailable) {
			logger.L.Error("Upload failed, backend unreachable", "error", err)
			utils.SendJSONError(w, "Upload failed: extraction backend unavailable.", http.StatusBadGateway)
		} else {
			logger.L.Error("Internal error processing upload batch", "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the upload. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding upload batch response", "error", err)
	}
}

// extractionGridResponse is the hierarchical grid: a three-tier header plus
// one formatted cell set per successful column, with failures listed
// separately.
type extractionGridResponse struct {
	Header     view.GridHeader           `json:"header"`
	Columns    []formattedColumn         `json:"columns"`
	Failed     []models.ExtractionColumn `json:"failed"`
	FieldOrder []string                  `json:"field_order"`
}

type formattedColumn struct {
	Filename       string                         `json:"filename"`
	ScreenshotPath string                         `json:"screenshot_path,omitempty"`
	Cells          map[string]view.FormattedValue `json:"cells"`
}

// HandleGetExtractionGrid serves the hierarchical extraction grid. The
// successful/failed split is recomputed on every request.
func (h *UploadHandler) HandleGetExtractionGrid(w http.ResponseWriter, r *http.Request) {
	cols, err := h.uploadService.Columns()
	if err != nil {
		logger.L.Error("Error loading extraction columns", "error", err)
		utils.SendJSONError(w, "Error loading extraction data", http.StatusInternalServerError)
		return
	}

	successful, failed := view.PartitionColumns(cols)
	resp := extractionGridResponse{
		Header:     view.BuildGridHeader(),
		Columns:    make([]formattedColumn, 0, len(successful)),
		Failed:     failed,
		FieldOrder: view.ExtractionFields,
	}
	for _, col := range successful {
		resp.Columns = append(resp.Columns, formattedColumn{
			Filename:       col.Filename,
			ScreenshotPath: col.ScreenshotPath,
			Cells:          view.FormatColumn(col),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.L.Error("Error encoding extraction grid response", "error", err)
	}
}

// HandleGetExtractions serves the raw stored columns.
func (h *UploadHandler) HandleGetExtractions(w http.ResponseWriter, r *http.Request) {
	cols, err := h.uploadService.Columns()
	if err != nil {
		logger.L.Error("Error loading extraction columns", "error", err)
		utils.SendJSONError(w, "Error loading extraction data", http.StatusInternalServerError)
		return
	}
	if cols == nil {
		cols = []models.ExtractionColumn{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"columns": cols, "count": len(cols)}); err != nil {
		logger.L.Error("Error encoding extractions response", "error", err)
	}
}

type columnCorrectionPayload struct {
	Filename     string `json:"filename"`
	Field        string `json:"field"`
	CorrectValue string `json:"correct_value"`
	Feedback     string `json:"feedback"`
}

// HandleCorrectExtraction overwrites one field of one stored column.
func (h *UploadHandler) HandleCorrectExtraction(w http.ResponseWriter, r *http.Request) {
	var req columnCorrectionPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid correction payload", http.StatusBadRequest)
		return
	}
	if req.Filename == "" || req.Field == "" {
		utils.SendJSONError(w, "filename and field are required", http.StatusBadRequest)
		return
	}

	if err := h.uploadService.CorrectColumn(r.Context(), req.Filename, req.Field, req.CorrectValue, req.Feedback); err != nil {
		if errors.Is(err, services.ErrColumnNotFound) {
			utils.SendJSONError(w, fmt.Sprintf("No extraction data for %s", req.Filename), http.StatusNotFound)
		} else {
			logger.L.Error("Column correction failed", "filename", req.Filename, "error", err)
			utils.SendJSONError(w, "Correction failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

// HandleClearExtractions drops the local collection and best-effort clears
// the backend store.
func (h *UploadHandler) HandleClearExtractions(w http.ResponseWriter, r *http.Request) {
	result, err := h.uploadService.ClearAll(r.Context())
	if err != nil {
		logger.L.Error("Clear-all failed", "error", err)
		utils.SendJSONError(w, "Failed to clear extraction data", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding clear-all response", "error", err)
	}
}

// HandleExport streams the backend-generated spreadsheet of the currently
// successful columns and hands the browser a download filename.
func (h *UploadHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	download, err := h.uploadService.ExportCurrent(r.Context())
	if err != nil {
		logger.L.Error("Export failed", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Export failed: %v", err), http.StatusBadGateway)
		return
	}
	defer download.Body.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	if _, err := io.Copy(w, download.Body); err != nil {
		logger.L.Error("Error streaming export payload", "filename", download.Filename, "error", err)
	}
}

// HandleGetSnapshots lists the archived quarterly ownership exports.
func (h *UploadHandler) HandleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.uploadService.Snapshots(r.Context())
	if err != nil {
		logger.L.Error("Snapshot listing failed", "error", err)
		utils.SendJSONError(w, "Archive unavailable", http.StatusBadGateway)
		return
	}
	if snapshots == nil {
		snapshots = []models.Snapshot{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshots); err != nil {
		logger.L.Error("Error encoding snapshots response", "error", err)
	}
}

// HandleGetUserExports lists previously exported spreadsheets.
func (h *UploadHandler) HandleGetUserExports(w http.ResponseWriter, r *http.Request) {
	exports, err := h.uploadService.UserExports(r.Context())
	if err != nil {
		logger.L.Error("User export listing failed", "error", err)
		utils.SendJSONError(w, "Archive unavailable", http.StatusBadGateway)
		return
	}
	if exports == nil {
		exports = []models.UserExport{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(exports); err != nil {
		logger.L.Error("Error encoding user exports response", "error", err)
	}
}

// HandleDeleteUserExport removes one archived export.
func (h *UploadHandler) HandleDeleteUserExport(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if filename == "" {
		utils.SendJSONError(w, "filename is required", http.StatusBadRequest)
		return
	}
	if err := h.uploadService.DeleteExport(r.Context(), filename); err != nil {
		logger.L.Error("Export deletion failed", "filename", filename, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Failed to delete %s", filename), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}
