// Package detector wraps the damage-detection model behind a small port.
// The model itself runs out of process (an inference sidecar serving the
// trained weights); this package owns the conversion of raw model output
// into the normalized bounding-box schema the rest of the system uses.
package detector

import (
	"context"

	"github.com/windsight/bladescan-backend/internal/domain"
)

// Detector analyzes one image and returns the detected damage regions.
// An empty slice with a nil error means the model ran and found nothing;
// that is a valid result, not a failure.
type Detector interface {
	Detect(ctx context.Context, imagePath string) (domain.BoundingBoxList, error)
}
