package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/windsight/bladescan-backend/internal/common"
	"github.com/windsight/bladescan-backend/internal/detector"
	"github.com/windsight/bladescan-backend/internal/domain"
	"github.com/windsight/bladescan-backend/internal/repository"
	"github.com/windsight/bladescan-backend/pkg/cache"
	"github.com/windsight/bladescan-backend/pkg/logger"
)

// AnalysisService runs the per-image analyze workflow: detection, assessment
// upsert, image status transitions and inspection progress. It is a
// single-image synchronous operation; bulk analysis is the caller's loop.
type AnalysisService interface {
	AnalyzeImage(ctx context.Context, imageID string) (*domain.AnalyzeResult, error)
}

type analysisService struct {
	images      repository.InspectionImageRepository
	assessments repository.AssessmentRepository
	inspections repository.InspectionRepository
	det         detector.Detector
	locks       *imageLocks
	cache       cache.Service
	timeout     time.Duration
}

// NewAnalysisService creates a new AnalysisService. The locks set must be
// shared with the AssessmentService so edits and re-analysis of the same
// image serialize.
func NewAnalysisService(
	images repository.InspectionImageRepository,
	assessments repository.AssessmentRepository,
	inspections repository.InspectionRepository,
	det detector.Detector,
	locks *imageLocks,
	cacheService cache.Service,
	timeout time.Duration,
) AnalysisService {
	return &analysisService{
		images:      images,
		assessments: assessments,
		inspections: inspections,
		det:         det,
		locks:       locks,
		cache:       cacheService,
		timeout:     timeout,
	}
}

// AnalyzeImage analyzes one image. Detection failure (including an
// inference timeout) marks the image failed and reports that outcome;
// it does not propagate the detector error to the caller. An empty
// detection list is a success.
func (s *analysisService) AnalyzeImage(ctx context.Context, imageID string) (*domain.AnalyzeResult, error) {
	img, err := s.images.FindByID(imageID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Acquire(imageID)
	defer unlock()

	if err := s.images.UpdateStatus(imageID, domain.ImageProcessing); err != nil {
		return nil, err
	}

	detectCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	boxes, err := s.det.Detect(detectCtx, img.FilePath)
	if err != nil {
		logger.GetLogger().Warn().
			Err(err).
			Str("image_id", imageID).
			Str("file_path", img.FilePath).
			Msg("detection failed")

		if uerr := s.images.UpdateStatus(imageID, domain.ImageFailed); uerr != nil {
			return nil, uerr
		}
		return &domain.AnalyzeResult{
			ImageID: imageID,
			Status:  string(domain.ImageFailed),
		}, nil
	}
	if boxes == nil {
		boxes = domain.BoundingBoxList{}
	}

	now := time.Now()
	assessmentID, description, err := s.upsertAssessment(imageID, boxes, now)
	if err != nil {
		return nil, err
	}

	if err := s.images.MarkAnalyzed(imageID); err != nil {
		return nil, err
	}

	// processed_images is recomputed from image statuses, not incremented,
	// so re-analyzing an already-analyzed image cannot inflate it
	analyzed, err := s.images.CountAnalyzed(img.InspectionID)
	if err != nil {
		return nil, err
	}
	if err := s.inspections.SetProgress(img.InspectionID, int(analyzed), domain.InspectionProcessing); err != nil {
		return nil, err
	}

	if cerr := s.cache.InvalidateResults(context.Background(), img.InspectionID); cerr != nil {
		logger.GetLogger().Warn().Err(cerr).Str("inspection_id", img.InspectionID).Msg("results cache invalidation failed")
	}

	return &domain.AnalyzeResult{
		ImageID:      imageID,
		Status:       string(domain.ImageAnalyzed),
		AssessmentID: assessmentID,
		Assessments: []domain.AssessmentResult{
			{AIBoundingBoxes: boxes, Description: description},
		},
	}, nil
}

// upsertAssessment writes detection output to the image's assessment.
// An existing assessment is updated in place and its reviewer description
// survives; a new one starts with no description.
func (s *analysisService) upsertAssessment(imageID string, boxes domain.BoundingBoxList, now time.Time) (string, *string, error) {
	existing, err := s.assessments.FindByImage(imageID)
	if err != nil && !errors.Is(err, common.ErrAssessmentNotFound) {
		return "", nil, err
	}

	if existing != nil {
		err := s.assessments.Updates(existing.ID, map[string]interface{}{
			"ai_bounding_boxes": boxes,
			"ai_processed_at":   now,
		})
		if err != nil {
			return "", nil, err
		}
		return existing.ID, existing.Description, nil
	}

	assessment := &domain.DamageAssessment{
		ID:                uuid.New().String(),
		InspectionImageID: imageID,
		AIBoundingBoxes:   boxes,
		AIProcessedAt:     &now,
		Description:       nil,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.assessments.Create(assessment); err != nil {
		return "", nil, err
	}
	return assessment.ID, nil, nil
}
