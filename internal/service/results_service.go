package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/windsight/bladescan-backend/internal/common"
	"github.com/windsight/bladescan-backend/internal/domain"
	"github.com/windsight/bladescan-backend/internal/repository"
	"github.com/windsight/bladescan-backend/pkg/cache"
)

// ResultsService assembles the JSON contract the front end renders
// bounding-box overlays from. It must be complete and stable for
// partially-processed inspections too.
type ResultsService interface {
	BuildResults(ctx context.Context, inspectionID string) (*domain.InspectionResults, error)
}

type resultsService struct {
	inspections repository.InspectionRepository
	images      repository.InspectionImageRepository
	assessments repository.AssessmentRepository
	cache       cache.Service
}

// NewResultsService creates a new ResultsService
func NewResultsService(
	inspections repository.InspectionRepository,
	images repository.InspectionImageRepository,
	assessments repository.AssessmentRepository,
	cacheService cache.Service,
) ResultsService {
	return &resultsService{
		inspections: inspections,
		images:      images,
		assessments: assessments,
		cache:       cacheService,
	}
}

// BuildResults joins images and assessments in canonical traversal order
// (blade, surface, position). Images not yet analyzed carry an empty
// assessments list. Results are cached briefly; analyze and edit
// operations invalidate the cache.
func (s *resultsService) BuildResults(ctx context.Context, inspectionID string) (*domain.InspectionResults, error) {
	if data, err := s.cache.GetResults(ctx, inspectionID); err == nil {
		var cached domain.InspectionResults
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			return &cached, nil
		}
	}

	inspection, err := s.inspections.FindByID(inspectionID)
	if err != nil {
		return nil, err
	}

	images, err := s.images.ListByInspection(inspectionID)
	if err != nil {
		return nil, err
	}

	results := &domain.InspectionResults{
		Metadata: domain.ResultsMetadata{
			InspectionID:    inspection.ID,
			InspectionCode:  inspection.InspectionCode,
			Status:          string(inspection.Status),
			TotalImages:     inspection.TotalImages,
			ProcessedImages: inspection.ProcessedImages,
		},
		Images: make([]domain.ImageResult, 0, len(images)),
	}

	analyzed := 0
	for i := range images {
		img := &images[i]
		if img.Status == domain.ImageAnalyzed {
			analyzed++
		}

		entry := domain.ImageResult{
			ImageID:     img.ID,
			Blade:       img.Blade,
			Surface:     img.Surface,
			FileName:    img.FileName,
			Status:      string(img.Status),
			FileURL:     img.StreamURL(),
			Assessments: []domain.AssessmentResult{},
		}

		assessment, err := s.assessments.FindByImage(img.ID)
		if err != nil && !errors.Is(err, common.ErrAssessmentNotFound) {
			return nil, err
		}
		if assessment != nil {
			boxes := assessment.AIBoundingBoxes
			if boxes == nil {
				boxes = domain.BoundingBoxList{}
			}
			entry.Assessments = append(entry.Assessments, domain.AssessmentResult{
				AIBoundingBoxes: boxes,
				Description:     assessment.Description,
			})
		}

		results.Images = append(results.Images, entry)
	}

	results.Statistics = domain.ResultsStatistics{
		TotalImages:    len(images),
		AnalyzedImages: analyzed,
	}

	_ = s.cache.SetResults(ctx, inspectionID, results)
	return results, nil
}
