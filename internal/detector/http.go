package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/windsight/bladescan-backend/internal/domain"
)

var (
	inferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "detector_inference_duration_seconds",
			Help:    "Detection model inference duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
	inferenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detector_inference_failures_total",
			Help: "Total number of failed detection model invocations",
		},
	)
)

// Options are the deployment constants of the detection model. They are
// fixed per deployment, never per request.
type Options struct {
	Endpoint   string
	Confidence float64
	ImageSize  int
}

// HTTPDetector calls the inference sidecar over HTTP. The sidecar shares
// the storage volume with this service and reads images by path.
type HTTPDetector struct {
	opts   Options
	client *http.Client
}

// NewHTTPDetector creates a detector client for the inference sidecar
func NewHTTPDetector(opts Options) *HTTPDetector {
	return &HTTPDetector{
		opts: opts,
		// Per-call deadlines come from the caller's context
		client: &http.Client{Timeout: 0},
	}
}

// detectRequest is the sidecar's request payload
type detectRequest struct {
	ImagePath  string  `json:"image_path"`
	Confidence float64 `json:"confidence"`
	ImageSize  int     `json:"image_size"`
}

// detectResponse is the sidecar's raw output: pixel-space corner boxes plus
// the dimensions of the analyzed image.
type detectResponse struct {
	ImageWidth  int            `json:"image_width"`
	ImageHeight int            `json:"image_height"`
	Detections  []rawDetection `json:"detections"`
}

type rawDetection struct {
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
}

// Detect runs inference on one image and normalizes the result. Failure to
// run inference is distinguishable from "ran, found nothing": the latter
// returns an empty list and a nil error.
func (d *HTTPDetector) Detect(ctx context.Context, imagePath string) (domain.BoundingBoxList, error) {
	if _, err := os.Stat(imagePath); err != nil {
		inferenceFailures.Inc()
		return nil, fmt.Errorf("image file not accessible: %w", err)
	}

	body, err := json.Marshal(detectRequest{
		ImagePath:  imagePath,
		Confidence: d.opts.Confidence,
		ImageSize:  d.opts.ImageSize,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.opts.Endpoint+"/detect", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := d.client.Do(req)
	inferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		inferenceFailures.Inc()
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		inferenceFailures.Inc()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("inference sidecar returned %d: %s", resp.StatusCode, string(msg))
	}

	var raw detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		inferenceFailures.Inc()
		return nil, fmt.Errorf("failed to decode inference response: %w", err)
	}
	if raw.ImageWidth <= 0 || raw.ImageHeight <= 0 {
		inferenceFailures.Inc()
		return nil, fmt.Errorf("inference response has invalid image dimensions %dx%d", raw.ImageWidth, raw.ImageHeight)
	}

	return normalize(raw), nil
}

// normalize converts pixel-space corner boxes into resolution-independent
// center/extent coordinates in [0,1].
func normalize(raw detectResponse) domain.BoundingBoxList {
	boxes := make(domain.BoundingBoxList, 0, len(raw.Detections))
	w := float64(raw.ImageWidth)
	h := float64(raw.ImageHeight)

	for _, det := range raw.Detections {
		boxes = append(boxes, domain.BoundingBox{
			X:          round4((det.X1 + det.X2) / 2 / w),
			Y:          round4((det.Y1 + det.Y2) / 2 / h),
			Width:      round4((det.X2 - det.X1) / w),
			Height:     round4((det.Y2 - det.Y1) / h),
			Type:       det.ClassName,
			Confidence: det.Confidence,
		})
	}
	return boxes
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
