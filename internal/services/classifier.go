package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"remat-backend/internal/models"
	"remat-backend/internal/rewards"
)

// MaxImageBytes is the largest image accepted for classification
const MaxImageBytes = 5 * 1024 * 1024

// AllowedImageTypes are the accepted upload content types
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

var (
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrUnsupportedImage      = errors.New("unsupported image")
)

// Classifier turns an image into a waste classification
type Classifier interface {
	Classify(ctx context.Context, image []byte, filename, contentType string) (*models.ClassificationResult, error)
}

// HTTPClassifier posts images to an external inference service that answers
// with {"waste_type": "...", "confidence": 0.0-1.0}
type HTTPClassifier struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPClassifier creates a classifier client for endpoint
func NewHTTPClassifier(endpoint string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClassifier{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ValidateImage checks size and content type before an upload is forwarded
func ValidateImage(size int, contentType string) error {
	if size == 0 {
		return fmt.Errorf("%w: empty file", ErrUnsupportedImage)
	}
	if size > MaxImageBytes {
		return fmt.Errorf("%w: file exceeds %d bytes", ErrUnsupportedImage, MaxImageBytes)
	}
	if !AllowedImageTypes[strings.ToLower(contentType)] {
		return fmt.Errorf("%w: content type %q", ErrUnsupportedImage, contentType)
	}
	return nil
}

func (c *HTTPClassifier) Classify(ctx context.Context, image []byte, filename, contentType string) (*models.ClassificationResult, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("%w: CLASSIFIER_URL not configured", ErrClassifierUnavailable)
	}
	if err := ValidateImage(len(image), contentType); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to write image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrClassifierUnavailable, resp.StatusCode, string(msg))
	}

	var apiResp struct {
		WasteType  string  `json:"waste_type"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse classifier response: %w", err)
	}
	if err := rewards.ValidateConfidence(apiResp.Confidence); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassifierUnavailable, err)
	}

	return &models.ClassificationResult{
		WasteType:  models.ParseWasteType(apiResp.WasteType),
		Confidence: apiResp.Confidence,
	}, nil
}
