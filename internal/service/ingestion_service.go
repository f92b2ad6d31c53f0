package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/windsight/bladescan-backend/internal/archive"
	"github.com/windsight/bladescan-backend/internal/common"
	"github.com/windsight/bladescan-backend/internal/domain"
	"github.com/windsight/bladescan-backend/internal/repository"
	"github.com/windsight/bladescan-backend/pkg/logger"
	"github.com/windsight/bladescan-backend/pkg/storage"
)

const uploadChunkSize = 1024 * 1024 // 1MB

// IngestionService drives the end-to-end archive upload flow: stream the
// archive to disk, parse the blade/surface taxonomy, create the inspection
// and its image rows, and copy the files into permanent storage.
type IngestionService interface {
	Ingest(ctx context.Context, turbineID string, r io.Reader, actorID string, opts domain.UploadOptions) (*domain.InspectionSummary, error)
}

type ingestionService struct {
	turbines    repository.TurbineRepository
	inspections repository.InspectionRepository
	images      repository.InspectionImageRepository
	store       *storage.Local
	maxBytes    int64
}

// NewIngestionService creates a new IngestionService
func NewIngestionService(
	turbines repository.TurbineRepository,
	inspections repository.InspectionRepository,
	images repository.InspectionImageRepository,
	store *storage.Local,
	maxBytes int64,
) IngestionService {
	return &ingestionService{
		turbines:    turbines,
		inspections: inspections,
		images:      images,
		store:       store,
		maxBytes:    maxBytes,
	}
}

// Ingest performs the upload flow. The temp archive file and the scratch
// extraction directory are removed on every path, success or failure.
// File copies into permanent storage are not transactional with the row
// inserts; a crash in between can leave orphans (known, documented gap).
func (s *ingestionService) Ingest(ctx context.Context, turbineID string, r io.Reader, actorID string, opts domain.UploadOptions) (*domain.InspectionSummary, error) {
	hierarchy, err := s.turbines.ResolveHierarchy(turbineID)
	if err != nil {
		return nil, err
	}

	tempZip, err := s.store.NewTempArchivePath()
	if err != nil {
		return nil, err
	}
	defer os.Remove(tempZip)

	if err := s.streamToFile(r, tempZip); err != nil {
		return nil, err
	}

	if !archive.IsZip(tempZip) {
		return nil, common.ErrInvalidArchive
	}

	scratch, err := s.store.NewScratchDir()
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratch)

	if err := archive.ExtractZip(tempZip, scratch); err != nil {
		return nil, err
	}

	descriptors, err := archive.Parse(scratch)
	if err != nil {
		return nil, err
	}
	if len(descriptors) == 0 {
		return nil, common.ErrEmptyArchive
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	capturedAt := now
	if opts.CapturedAt != nil {
		capturedAt = *opts.CapturedAt
	}

	inspectionID := uuid.New().String()
	code := fmt.Sprintf("INSP-%s-%s", now.Format("20060102"), inspectionID[:8])
	paths := s.store.InspectionPaths(hierarchy.ProjectID, hierarchy.WindfarmID, turbineID, inspectionID)

	inspection := &domain.Inspection{
		ID:              inspectionID,
		TurbineID:       turbineID,
		InspectionCode:  code,
		Status:          domain.InspectionUploaded,
		CapturedAt:      capturedAt,
		Operator:        opts.Operator,
		Equipment:       opts.Equipment,
		StoragePath:     paths.Base,
		TotalImages:     len(descriptors),
		ProcessedImages: 0,
		CreatedBy:       actorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.inspections.Create(inspection); err != nil {
		return nil, err
	}

	rows := make([]domain.InspectionImage, 0, len(descriptors))
	for _, desc := range descriptors {
		dest := filepath.Join(paths.RawImageDir(desc.Blade, desc.Surface), desc.Filename)
		size, err := storage.CopyFile(desc.SourcePath, dest)
		if err != nil {
			return nil, fmt.Errorf("failed to store %s/%s/%s: %w", desc.Blade, desc.Surface, desc.Filename, err)
		}

		rows = append(rows, domain.InspectionImage{
			ID:           uuid.New().String(),
			InspectionID: inspectionID,
			Blade:        desc.Blade,
			Surface:      desc.Surface,
			PositionPct:  desc.PositionPct,
			FileName:     desc.Filename,
			FilePath:     dest,
			FileSize:     size,
			CapturedAt:   capturedAt,
			Status:       domain.ImageUploaded,
			CheckedFlag:  domain.CheckedFlagUnchecked,
			CreatedAt:    now,
		})
	}
	if err := s.images.CreateBatch(rows); err != nil {
		return nil, err
	}

	logger.GetLogger().Info().
		Str("inspection_id", inspectionID).
		Str("inspection_code", code).
		Str("turbine_id", turbineID).
		Int("total_images", len(rows)).
		Msg("inspection ingested")

	return &domain.InspectionSummary{
		InspectionID:   inspectionID,
		TurbineID:      turbineID,
		InspectionCode: code,
		Status:         string(domain.InspectionUploaded),
		TotalImages:    len(rows),
		CreatedAt:      now,
	}, nil
}

// streamToFile writes the incoming archive to path in fixed-size chunks,
// enforcing the size ceiling as bytes arrive rather than after receipt
func (s *ingestionService) streamToFile(r io.Reader, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()

	var written int64
	buf := make([]byte, uploadChunkSize)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			written += int64(n)
			if written > s.maxBytes {
				return common.ErrArchiveTooLarge
			}
			if _, err := f.Write(buf[:n]); err != nil {
				return fmt.Errorf("failed to write temp file: %w", err)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("failed to read upload stream: %w", readErr)
		}
	}
}
