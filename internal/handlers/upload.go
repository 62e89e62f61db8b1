package handlers

import (
	"net/http"

	"github.com/vitatrack/vitatrack-backend/internal/config"
	"github.com/vitatrack/vitatrack-backend/internal/models"
	"github.com/vitatrack/vitatrack-backend/internal/services"
)

var cloudinaryService *services.CloudinaryService

func InitCloudinaryService(cfg *config.Config) error {
	service, err := services.NewCloudinaryService(
		cfg.CloudinaryName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return err
	}
	cloudinaryService = service
	return nil
}

// UploadAttachment accepts a multipart file, stores it in Cloudinary and
// returns the attachment shape callers embed in a message.
func UploadAttachment(w http.ResponseWriter, r *http.Request) {
	if cloudinaryService == nil {
		respondError(w, http.StatusInternalServerError, "Attachment uploads are not available", nil)
		return
	}

	// 10MB cap
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to parse form", err)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file provided", err)
		return
	}
	defer file.Close()

	url, err := cloudinaryService.UploadAttachment(r.Context(), file, "vitatrack/attachments")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to upload file", err)
		return
	}

	respondJSON(w, http.StatusCreated, models.Attachment{
		Filename: fileHeader.Filename,
		URL:      url,
		Size:     fileHeader.Size,
		Type:     fileHeader.Header.Get("Content-Type"),
	})
}
