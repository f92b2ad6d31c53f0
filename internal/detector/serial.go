package detector

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/windsight/bladescan-backend/internal/domain"
)

// SerialDetector serializes access to a detector whose backend is not safe
// for concurrent inference. One inference owns the model for the duration
// of the call; waiters honor the caller's context while queueing.
type SerialDetector struct {
	inner Detector
	slot  *semaphore.Weighted
}

// NewSerialDetector wraps a detector with a single-slot gate
func NewSerialDetector(inner Detector) *SerialDetector {
	return &SerialDetector{
		inner: inner,
		slot:  semaphore.NewWeighted(1),
	}
}

// Detect acquires the single inference slot, then delegates
func (d *SerialDetector) Detect(ctx context.Context, imagePath string) (domain.BoundingBoxList, error) {
	if err := d.slot.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer d.slot.Release(1)
	return d.inner.Detect(ctx, imagePath)
}
