package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remat-backend/internal/models"
	"remat-backend/internal/rewards"
)

func TestHTTPClassifier_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		file, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		assert.Equal(t, "phone.jpg", hdr.Filename)
		assert.Equal(t, "image/jpeg", hdr.Header.Get("Content-Type"))
		assert.Equal(t, []byte("fake-jpeg"), data)

		w.Write([]byte(`{"waste_type":"mobile","confidence":0.87}`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, time.Second)
	res, err := c.Classify(context.Background(), []byte("fake-jpeg"), "phone.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, models.WasteMobile, res.WasteType)
	assert.Equal(t, 0.87, res.Confidence)
}

func TestHTTPClassifier_Errors(t *testing.T) {
	t.Run("bad confidence", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"waste_type":"Mouse","confidence":1.7}`))
		}))
		defer srv.Close()

		_, err := NewHTTPClassifier(srv.URL, time.Second).Classify(context.Background(), []byte("x"), "a.png", "image/png")
		assert.ErrorIs(t, err, rewards.ErrInvalidConfidence)
		assert.ErrorIs(t, err, ErrClassifierUnavailable)
	})

	t.Run("upstream failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewHTTPClassifier(srv.URL, time.Second).Classify(context.Background(), []byte("x"), "a.png", "image/png")
		assert.ErrorIs(t, err, ErrClassifierUnavailable)
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := NewHTTPClassifier("", time.Second).Classify(context.Background(), []byte("x"), "a.png", "image/png")
		assert.ErrorIs(t, err, ErrClassifierUnavailable)
	})
}

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage(1024, "image/webp"))
	assert.NoError(t, ValidateImage(MaxImageBytes, "IMAGE/JPEG"))
	assert.ErrorIs(t, ValidateImage(0, "image/png"), ErrUnsupportedImage)
	assert.ErrorIs(t, ValidateImage(MaxImageBytes+1, "image/png"), ErrUnsupportedImage)
	assert.ErrorIs(t, ValidateImage(10, "application/pdf"), ErrUnsupportedImage)
}
