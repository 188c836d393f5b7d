// backend/src/handlers/reconcile_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/username/escrowaudit/backend/src/config"
	"github.com/username/escrowaudit/backend/src/logger"
	"github.com/username/escrowaudit/backend/src/parsers"
	"github.com/username/escrowaudit/backend/src/security/validation"
	"github.com/username/escrowaudit/backend/src/services"
	"github.com/username/escrowaudit/backend/src/utils"
)

type ReconcileHandler struct {
	reconciliationService services.ReconciliationService
}

func NewReconcileHandler(service services.ReconciliationService) *ReconcileHandler {
	return &ReconcileHandler{
		reconciliationService: service,
	}
}

// HandleReconcile accepts one uploaded workbook, runs the reconciliation
// pipeline and responds with the run report. Structural workbook failures
// (no sheet found, no header row) come back as 422 with enough context for
// the uploader to correct the file.
func (h *ReconcileHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("failed to process upload or file too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "failed to retrieve file from request; ensure the 'file' field is used", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		log.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("file too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		log.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		log.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Info("File content validated by magic bytes", "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	report, err := h.reconciliationService.ProcessWorkbook(file, fileHeader.Filename)
	if err != nil {
		var sheetErr *parsers.SheetNotFoundError
		switch {
		case errors.As(err, &sheetErr):
			log.Warn("Workbook rejected: required sheet not found", "filename", fileHeader.Filename, "sheetType", sheetErr.SheetType, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, parsers.ErrHeaderRowNotFound):
			log.Warn("Workbook rejected: registry header row not found", "filename", fileHeader.Filename)
			utils.SendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, services.ErrWorkbookUnreadable):
			log.Warn("Workbook rejected: unreadable", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error("Reconciliation run failed", "filename", fileHeader.Filename, "error", err)
			msg := "reconciliation failed"
			if requestID, ok := GetRequestIDFromContext(r.Context()); ok {
				// Give the uploader something to quote when reporting the
				// failure; the same ID is on every log line for the request.
				msg = fmt.Sprintf("reconciliation failed (request %s)", requestID)
			}
			utils.SendJSONError(w, msg, http.StatusInternalServerError)
		}
		return
	}

	utils.SendJSON(w, report, http.StatusOK)
}

// HandleLatestReport returns the cached report for a previously uploaded
// workbook, looked up by content hash.
func (h *ReconcileHandler) HandleLatestReport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	hash := r.URL.Query().Get("hash")
	if hash == "" {
		utils.SendJSONError(w, "query parameter 'hash' is required", http.StatusBadRequest)
		return
	}

	report, err := h.reconciliationService.LatestReport(hash)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			utils.SendJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Error("Error retrieving cached report", "hash", hash, "error", err)
		utils.SendJSONError(w, "failed to retrieve report", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, report, http.StatusOK)
}
