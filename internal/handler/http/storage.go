package http

import (
	"log/slog"
	"net/http"

	"github.com/Tago-F/onsen-review/internal/service"
	"github.com/Tago-F/onsen-review/pkg/httputil"
	"github.com/Tago-F/onsen-review/pkg/validator"
)

// StorageHandler handles HTTP requests for upload URL generation.
type StorageHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewStorageHandler creates a storage HTTP handler.
func NewStorageHandler(svc *service.ReviewService, logger *slog.Logger) *StorageHandler {
	return &StorageHandler{
		service: svc,
		logger:  logger,
	}
}

// GenerateUploadURLRequest is the JSON body for POST /storage/generate-upload-url.
type GenerateUploadURLRequest struct {
	FileName string `json:"fileName" validate:"required"`
}

// GenerateUploadURL handles POST /storage/generate-upload-url. It returns a
// short-lived writable SAS URL and the permanent blob URL.
func (h *StorageHandler) GenerateUploadURL(w http.ResponseWriter, r *http.Request) {
	var req GenerateUploadURLRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ticket, err := h.service.RequestUploadURL(r.Context(), req.FileName)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ticket)
}
