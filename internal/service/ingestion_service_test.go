package service

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/windsight/bladescan-backend/internal/common"
	"github.com/windsight/bladescan-backend/internal/domain"
	"github.com/windsight/bladescan-backend/pkg/storage"
)

// buildZip assembles an in-memory archive with the given entry names
func buildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		assert.NoError(t, err)
		_, err = f.Write(content)
		assert.NoError(t, err)
	}
	assert.NoError(t, w.Close())
	return buf.Bytes()
}

func newIngestionFixture(t *testing.T, maxBytes int64) (*mockTurbineRepo, *mockInspectionRepo, *mockImageRepo, IngestionService, string) {
	t.Helper()
	root := t.TempDir()
	store := storage.NewLocal(filepath.Join(root, "storage"), filepath.Join(root, "tmp"))

	turbines := new(mockTurbineRepo)
	inspections := new(mockInspectionRepo)
	images := new(mockImageRepo)
	svc := NewIngestionService(turbines, inspections, images, store, maxBytes)
	return turbines, inspections, images, svc, root
}

func expectHierarchy(turbines *mockTurbineRepo) {
	turbines.On("ResolveHierarchy", "t-1").Return(&domain.TurbineHierarchy{
		ProjectID: "p-1", WindfarmID: "w-1", TurbineID: "t-1",
	}, nil)
}

func TestIngest_HappyPath(t *testing.T) {
	turbines, inspections, images, svc, root := newIngestionFixture(t, 10*1024*1024)
	expectHierarchy(turbines)

	data := buildZip(t, map[string][]byte{
		"BladeA/PS/IMG_0010.jpg":  []byte("jpeg-bytes"),
		"BladeA/LE/IMG_0055.JPG":  []byte("jpeg-bytes"),
		"BladeC/TE/photo.png":     []byte("png-bytes"),
		"BladeA/PS/notes.txt":     []byte("ignored"),
		"BladeB/XX/IMG_0001.jpg":  []byte("ignored - unknown surface"),
		"Leftovers/IMG_0002.jpg":  []byte("ignored - outside taxonomy"),
	})

	var created *domain.Inspection
	inspections.On("Create", mock.AnythingOfType("*domain.Inspection")).Run(func(args mock.Arguments) {
		created = args.Get(0).(*domain.Inspection)
	}).Return(nil)
	images.On("CreateBatch", mock.MatchedBy(func(rows []domain.InspectionImage) bool {
		return len(rows) == 3
	})).Return(nil)

	summary, err := svc.Ingest(context.Background(), "t-1", bytes.NewReader(data), "u-1", domain.UploadOptions{Operator: "J. Park"})

	assert.NoError(t, err)
	assert.Equal(t, 3, summary.TotalImages)
	assert.Equal(t, string(domain.InspectionUploaded), summary.Status)
	assert.True(t, strings.HasPrefix(summary.InspectionCode, "INSP-"))
	assert.Contains(t, summary.InspectionCode, summary.InspectionID[:8])

	// files landed under the deterministic hierarchy path
	assert.NotNil(t, created)
	stored := filepath.Join(created.StoragePath, "raw", "BladeA", "PS", "IMG_0010.jpg")
	_, statErr := os.Stat(stored)
	assert.NoError(t, statErr)
	assert.Contains(t, created.StoragePath,
		filepath.Join("projects", "p-1", "windfarms", "w-1", "turbines", "t-1", "inspections"))

	// the temp archive and extraction scratch are cleaned up
	leftovers, _ := os.ReadDir(filepath.Join(root, "tmp"))
	assert.Empty(t, leftovers)

	inspections.AssertExpectations(t)
	images.AssertExpectations(t)
}

func TestIngest_WrapperFolderUnwrapped(t *testing.T) {
	turbines, inspections, images, svc, _ := newIngestionFixture(t, 10*1024*1024)
	expectHierarchy(turbines)

	data := buildZip(t, map[string][]byte{
		"upload_2026/BladeB/SS/IMG_0030.jpg": []byte("jpeg-bytes"),
	})

	inspections.On("Create", mock.Anything).Return(nil)
	images.On("CreateBatch", mock.MatchedBy(func(rows []domain.InspectionImage) bool {
		return len(rows) == 1 && rows[0].Blade == "BladeB" && rows[0].Surface == "SS"
	})).Return(nil)

	summary, err := svc.Ingest(context.Background(), "t-1", bytes.NewReader(data), "u-1", domain.UploadOptions{})

	assert.NoError(t, err)
	assert.Equal(t, 1, summary.TotalImages)
}

func TestIngest_ArchiveTooLarge(t *testing.T) {
	turbines, inspections, _, svc, _ := newIngestionFixture(t, 64)
	expectHierarchy(turbines)

	data := buildZip(t, map[string][]byte{
		"BladeA/PS/IMG_0010.jpg": bytes.Repeat([]byte("x"), 4096),
	})

	summary, err := svc.Ingest(context.Background(), "t-1", bytes.NewReader(data), "u-1", domain.UploadOptions{})

	assert.ErrorIs(t, err, common.ErrArchiveTooLarge)
	assert.Nil(t, summary)
	inspections.AssertNotCalled(t, "Create", mock.Anything)
}

func TestIngest_NotAZip(t *testing.T) {
	turbines, inspections, _, svc, _ := newIngestionFixture(t, 1024)
	expectHierarchy(turbines)

	summary, err := svc.Ingest(context.Background(), "t-1", strings.NewReader("plain text, not a zip"), "u-1", domain.UploadOptions{})

	assert.ErrorIs(t, err, common.ErrInvalidArchive)
	assert.Nil(t, summary)
	inspections.AssertNotCalled(t, "Create", mock.Anything)
}

func TestIngest_EmptyArchive(t *testing.T) {
	turbines, inspections, _, svc, _ := newIngestionFixture(t, 1024*1024)
	expectHierarchy(turbines)

	// valid zip, nothing under the blade/surface taxonomy
	data := buildZip(t, map[string][]byte{
		"random/stuff.jpg": []byte("jpeg-bytes"),
		"readme.txt":       []byte("hello"),
	})

	summary, err := svc.Ingest(context.Background(), "t-1", bytes.NewReader(data), "u-1", domain.UploadOptions{})

	assert.ErrorIs(t, err, common.ErrEmptyArchive)
	assert.Nil(t, summary)
	inspections.AssertNotCalled(t, "Create", mock.Anything)
}

func TestIngest_UnknownTurbine(t *testing.T) {
	turbines, _, _, svc, _ := newIngestionFixture(t, 1024)
	turbines.On("ResolveHierarchy", "missing").Return(nil, common.ErrTurbineNotFound)

	summary, err := svc.Ingest(context.Background(), "missing", strings.NewReader(""), "u-1", domain.UploadOptions{})

	assert.ErrorIs(t, err, common.ErrTurbineNotFound)
	assert.Nil(t, summary)
}

func TestIngest_PositionRecoveredFromFilename(t *testing.T) {
	turbines, inspections, images, svc, _ := newIngestionFixture(t, 1024*1024)
	expectHierarchy(turbines)

	data := buildZip(t, map[string][]byte{
		"BladeA/PS/IMG_0082_D.JPG": []byte("jpeg-bytes"),
		"BladeA/PS/photo.png":      []byte("png-bytes"),
	})

	inspections.On("Create", mock.Anything).Return(nil)
	images.On("CreateBatch", mock.MatchedBy(func(rows []domain.InspectionImage) bool {
		byName := map[string]*float64{}
		for _, r := range rows {
			byName[r.FileName] = r.PositionPct
		}
		withPos, ok := byName["IMG_0082_D.JPG"]
		if !ok || withPos == nil || *withPos != 82 {
			return false
		}
		return byName["photo.png"] == nil
	})).Return(nil)

	_, err := svc.Ingest(context.Background(), "t-1", bytes.NewReader(data), "u-1", domain.UploadOptions{})
	assert.NoError(t, err)
	images.AssertExpectations(t)
}
