package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/username/tadawulboard/src/logger"
	"github.com/username/tadawulboard/src/models"
	"github.com/username/tadawulboard/src/services"
	"github.com/username/tadawulboard/src/utils"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(service services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: service,
	}
}

// HandleGetTable serves the flat grid. The unfiltered table carries an ETag
// so the polling frontend can skip unchanged payloads.
func (h *DashboardHandler) HandleGetTable(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	tableView := h.dashboardService.View(search)

	w.Header().Set("Cache-Control", "no-cache, private")

	if search == "" {
		currentETag, etagErr := utils.GenerateETag(tableView)
		if etagErr != nil {
			logger.L.Error("Failed to generate ETag for table view", "error", etagErr)
		}
		if etagErr == nil && currentETag != "" {
			quotedETag := fmt.Sprintf("\"%s\"", currentETag)
			w.Header().Set("ETag", quotedETag)
			clientETag := r.Header.Get("If-None-Match")
			for _, cETag := range strings.Split(clientETag, ",") {
				if strings.TrimSpace(cETag) == quotedETag {
					logger.L.Debug("ETag match for table view", "etag", currentETag)
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(tableView); err != nil {
		logger.L.Error("Error encoding table view response", "error", err)
	}
}

// HandleSubmitCorrection forwards a value override and reports the outcome.
// A failed correction is an error response here, not a silent no-op; the
// submitting form needs to know.
func (h *DashboardHandler) HandleSubmitCorrection(w http.ResponseWriter, r *http.Request) {
	var req models.CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid correction payload", http.StatusBadRequest)
		return
	}
	req.CompanySymbol = strings.TrimSpace(req.CompanySymbol)
	if req.CompanySymbol == "" {
		utils.SendJSONError(w, "company_symbol is required", http.StatusBadRequest)
		return
	}

	resp, err := h.dashboardService.SubmitCorrection(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrCorrectionRejected) {
			logger.L.Warn("Correction rejected", "symbol", req.CompanySymbol, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Correction rejected: %v", err), http.StatusUnprocessableEntity)
		} else {
			logger.L.Error("Correction submission failed", "symbol", req.CompanySymbol, "error", err)
			utils.SendJSONError(w, "Correction could not be submitted. Please try again later.", http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.L.Error("Error encoding correction response", "symbol", req.CompanySymbol, "error", err)
	}
}

// HandleGetEvidence serves the screenshot reference and text snippet for
// one symbol. A backend failure is an inline error for the evidence view
// only; the main table is unaffected.
func (h *DashboardHandler) HandleGetEvidence(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if symbol == "" {
		utils.SendJSONError(w, "symbol is required", http.StatusBadRequest)
		return
	}

	ev, err := h.dashboardService.Evidence(r.Context(), symbol)
	if err != nil {
		logger.L.Warn("Evidence lookup failed", "symbol", symbol, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Evidence unavailable for %s", symbol), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ev); err != nil {
		logger.L.Error("Error encoding evidence response", "symbol", symbol, "error", err)
	}
}

// HandleExportTable streams the backend-generated spreadsheet of the full
// merged table and hands the browser a download filename.
func (h *DashboardHandler) HandleExportTable(w http.ResponseWriter, r *http.Request) {
	download, err := h.dashboardService.ExportExcel(r.Context())
	if err != nil {
		logger.L.Error("Table export failed", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Export failed: %v", err), http.StatusBadGateway)
		return
	}
	defer download.Body.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	if _, err := io.Copy(w, download.Body); err != nil {
		logger.L.Error("Error streaming table export", "filename", download.Filename, "error", err)
	}
}

// HandleRefresh triggers a backend rebuild followed by a local re-fetch.
func (h *DashboardHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboardService.TriggerBackendRefresh(r.Context()); err != nil {
		logger.L.Error("Refresh failed", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Refresh failed: %v", err), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success", "message": "Data refreshed"})
}
