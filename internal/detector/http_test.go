package detector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func tempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "IMG_0010.jpg")
	assert.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))
	return path
}

func TestDetect_NormalizesPixelCorners(t *testing.T) {
	imagePath := tempImage(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/detect", r.URL.Path)

		var req detectRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, imagePath, req.ImagePath)
		assert.Equal(t, 0.35, req.Confidence)
		assert.Equal(t, 1024, req.ImageSize)

		json.NewEncoder(w).Encode(detectResponse{
			ImageWidth:  4000,
			ImageHeight: 3000,
			Detections: []rawDetection{
				{ClassName: "LV_3", Confidence: 0.912345, X1: 1000, Y1: 600, X2: 3000, Y2: 1800},
			},
		})
	}))
	defer server.Close()

	d := NewHTTPDetector(Options{Endpoint: server.URL, Confidence: 0.35, ImageSize: 1024})
	boxes, err := d.Detect(context.Background(), imagePath)

	assert.NoError(t, err)
	assert.Len(t, boxes, 1)
	assert.Equal(t, 0.5, boxes[0].X)      // (1000+3000)/2 / 4000
	assert.Equal(t, 0.4, boxes[0].Y)      // (600+1800)/2 / 3000
	assert.Equal(t, 0.5, boxes[0].Width)  // (3000-1000) / 4000
	assert.Equal(t, 0.4, boxes[0].Height) // (1800-600) / 3000
	assert.Equal(t, "LV_3", boxes[0].Type)
	assert.Equal(t, 0.912345, boxes[0].Confidence)
}

func TestDetect_CoordinatesRoundedToFourDecimals(t *testing.T) {
	imagePath := tempImage(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(detectResponse{
			ImageWidth:  4032,
			ImageHeight: 3024,
			Detections: []rawDetection{
				{ClassName: "LV_1", Confidence: 0.5, X1: 101, Y1: 202, X2: 333, Y2: 444},
			},
		})
	}))
	defer server.Close()

	d := NewHTTPDetector(Options{Endpoint: server.URL})
	boxes, err := d.Detect(context.Background(), imagePath)

	assert.NoError(t, err)
	for _, v := range []float64{boxes[0].X, boxes[0].Y, boxes[0].Width, boxes[0].Height} {
		scaled := v * 10000
		assert.InDelta(t, scaled, float64(int64(scaled+0.5)), 1e-9)
	}
}

func TestDetect_EmptyDetectionsIsNotAnError(t *testing.T) {
	imagePath := tempImage(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(detectResponse{ImageWidth: 100, ImageHeight: 100})
	}))
	defer server.Close()

	d := NewHTTPDetector(Options{Endpoint: server.URL})
	boxes, err := d.Detect(context.Background(), imagePath)

	assert.NoError(t, err)
	assert.NotNil(t, boxes)
	assert.Empty(t, boxes)
}

func TestDetect_SidecarErrorStatus(t *testing.T) {
	imagePath := tempImage(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	d := NewHTTPDetector(Options{Endpoint: server.URL})
	boxes, err := d.Detect(context.Background(), imagePath)

	assert.Error(t, err)
	assert.Nil(t, boxes)
	assert.Contains(t, err.Error(), "500")
}

func TestDetect_MissingImageFile(t *testing.T) {
	d := NewHTTPDetector(Options{Endpoint: "http://localhost:0"})
	boxes, err := d.Detect(context.Background(), "/nonexistent/image.jpg")

	assert.Error(t, err)
	assert.Nil(t, boxes)
}

func TestDetect_ContextDeadlineCancelsRequest(t *testing.T) {
	imagePath := tempImage(t)

	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	d := NewHTTPDetector(Options{Endpoint: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := d.Detect(ctx, imagePath)
	assert.Error(t, err)
}

func TestDetect_InvalidImageDimensions(t *testing.T) {
	imagePath := tempImage(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(detectResponse{ImageWidth: 0, ImageHeight: 0})
	}))
	defer server.Close()

	d := NewHTTPDetector(Options{Endpoint: server.URL})
	_, err := d.Detect(context.Background(), imagePath)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid image dimensions")
}
