package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"remat-backend/internal/rewards"
	"remat-backend/internal/services"
	"remat-backend/pkg/utils"
)

// multipart overhead allowed on top of the image itself
const uploadSlackBytes = 1 << 20

// DetectWaste classifies an uploaded photo and previews the points a
// deposit of that item would earn. Nothing is persisted.
func DetectWaste(classifier services.Classifier, calculator *rewards.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageBytes+uploadSlackBytes)
		if err := r.ParseMultipartForm(services.MaxImageBytes); err != nil {
			log.Printf("❌ Invalid upload: %v", err)
			utils.RespondError(w, http.StatusBadRequest, "Invalid upload (max 5MB)")
			return
		}

		file, header, err := r.FormFile("image")
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "image file is required")
			return
		}
		defer file.Close()

		image, err := io.ReadAll(file)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Failed to read image")
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(image)
		}
		if err := services.ValidateImage(len(image), contentType); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, err := classifier.Classify(r.Context(), image, header.Filename, contentType)
		if err != nil {
			if errors.Is(err, services.ErrUnsupportedImage) {
				utils.RespondError(w, http.StatusBadRequest, err.Error())
				return
			}
			log.Printf("❌ Classification failed: %v", err)
			utils.RespondError(w, http.StatusBadGateway, "Waste detection is unavailable")
			return
		}

		preview, err := calculator.Preview(*result)
		if err != nil {
			respondServiceError(w, err, "Failed to compute points")
			return
		}

		log.Printf("🔍 Detected %s (%.2f), %d points", preview.WasteType, preview.Confidence, preview.PointsToEarn)
		utils.RespondJSON(w, http.StatusOK, preview)
	}
}
