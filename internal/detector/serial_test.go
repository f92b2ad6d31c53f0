package detector

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/windsight/bladescan-backend/internal/domain"
)

// countingDetector records how many inferences run at once
type countingDetector struct {
	active  int32
	maxSeen int32
}

func (d *countingDetector) Detect(ctx context.Context, imagePath string) (domain.BoundingBoxList, error) {
	n := atomic.AddInt32(&d.active, 1)
	for {
		max := atomic.LoadInt32(&d.maxSeen)
		if n <= max || atomic.CompareAndSwapInt32(&d.maxSeen, max, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	atomic.AddInt32(&d.active, -1)
	return domain.BoundingBoxList{}, nil
}

func TestSerialDetector_OneInferenceAtATime(t *testing.T) {
	inner := &countingDetector{}
	d := NewSerialDetector(inner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Detect(context.Background(), "/tmp/a.jpg")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&inner.maxSeen))
}

func TestSerialDetector_WaiterHonorsContext(t *testing.T) {
	inner := &countingDetector{}
	d := NewSerialDetector(inner)

	// occupy the slot
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		blocking := &blockingDetector{started: started, release: release}
		bd := &SerialDetector{inner: blocking, slot: d.slot}
		_, _ = bd.Detect(context.Background(), "/tmp/a.jpg")
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := d.Detect(ctx, "/tmp/b.jpg")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

type blockingDetector struct {
	started chan struct{}
	release chan struct{}
}

func (d *blockingDetector) Detect(ctx context.Context, imagePath string) (domain.BoundingBoxList, error) {
	close(d.started)
	<-d.release
	return domain.BoundingBoxList{}, nil
}
