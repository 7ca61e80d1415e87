package handler

import (
	"log/slog"
	"net/http"

	"github.com/avoytenko/steeple/internal/blob"
)

// maxUploadSize bounds admin-console attachments (images, flyers).
const maxUploadSize = 10 << 20

type UploadHandler struct {
	uploader *blob.Uploader
	logger   *slog.Logger
}

func NewUploadHandler(uploader *blob.Uploader, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{uploader: uploader, logger: logger}
}

// Upload handles POST /api/uploads (multipart form, field "file").
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.uploader.Configured() {
		writeError(w, http.StatusServiceUnavailable, "object storage not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.uploader.Upload(r.Context(), header.Filename, contentType, file, header.Size)
	if err != nil {
		h.logger.Error("upload attachment", "name", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}
