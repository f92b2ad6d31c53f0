package service

import (
	"context"
	"fmt"

	"github.com/windsight/bladescan-backend/internal/common"
	"github.com/windsight/bladescan-backend/internal/domain"
	"github.com/windsight/bladescan-backend/internal/repository"
	"github.com/windsight/bladescan-backend/pkg/cache"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// InspectionService handles inspection reads, metadata edits, bulk image
// deletion and the turbine-deletion cascade
type InspectionService interface {
	List(turbineID string, statusFilter string, limit, offset int) ([]domain.Inspection, error)
	Get(inspectionID string) (*domain.InspectionDetail, error)
	GetInspection(inspectionID string) (*domain.Inspection, error)
	GetImage(imageID string) (*domain.InspectionImage, *domain.Inspection, error)
	Update(inspectionID string, req *domain.UpdateInspectionRequest) (*domain.Inspection, error)
	DeleteImages(inspectionID string, imageIDs []string) (*domain.DeleteImagesResult, error)
	DeleteByTurbine(turbineID string) error
}

type inspectionService struct {
	inspections repository.InspectionRepository
	images      repository.InspectionImageRepository
	assessments repository.AssessmentRepository
	cache       cache.Service
}

// NewInspectionService creates a new InspectionService
func NewInspectionService(
	inspections repository.InspectionRepository,
	images repository.InspectionImageRepository,
	assessments repository.AssessmentRepository,
	cacheService cache.Service,
) InspectionService {
	return &inspectionService{
		inspections: inspections,
		images:      images,
		assessments: assessments,
		cache:       cacheService,
	}
}

// List returns a turbine's inspections, newest first
func (s *inspectionService) List(turbineID string, statusFilter string, limit, offset int) ([]domain.Inspection, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.inspections.ListByTurbine(turbineID, statusFilter, limit, offset)
}

// Get returns an inspection with its images and their front-end URLs
func (s *inspectionService) Get(inspectionID string) (*domain.InspectionDetail, error) {
	inspection, err := s.inspections.FindByID(inspectionID)
	if err != nil {
		return nil, err
	}

	images, err := s.images.ListByInspection(inspectionID)
	if err != nil {
		return nil, err
	}

	detail := &domain.InspectionDetail{
		Inspection:  inspection,
		TotalImages: len(images),
		Images:      make([]domain.ImageDetail, 0, len(images)),
	}
	for i := range images {
		detail.Images = append(detail.Images, domain.ImageDetail{
			InspectionImage: images[i],
			FileURL:         images[i].StreamURL(),
		})
	}
	return detail, nil
}

// GetInspection loads one inspection row (used for access checks)
func (s *inspectionService) GetInspection(inspectionID string) (*domain.Inspection, error) {
	return s.inspections.FindByID(inspectionID)
}

// GetImage loads an image together with its parent inspection
func (s *inspectionService) GetImage(imageID string) (*domain.InspectionImage, *domain.Inspection, error) {
	img, err := s.images.FindByID(imageID)
	if err != nil {
		return nil, nil, err
	}
	inspection, err := s.inspections.FindByID(img.InspectionID)
	if err != nil {
		return nil, nil, err
	}
	return img, inspection, nil
}

// Update edits mutable inspection metadata
func (s *inspectionService) Update(inspectionID string, req *domain.UpdateInspectionRequest) (*domain.Inspection, error) {
	if _, err := s.inspections.FindByID(inspectionID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Operator != nil {
		updates["operator"] = *req.Operator
	}
	if req.Equipment != nil {
		updates["equipment"] = *req.Equipment
	}
	if req.CapturedAt != nil {
		updates["captured_at"] = *req.CapturedAt
	}
	if req.Status != nil {
		status := domain.InspectionStatus(*req.Status)
		switch status {
		case domain.InspectionUploaded, domain.InspectionProcessing, domain.InspectionCompleted, domain.InspectionFailed:
			updates["status"] = status
		default:
			return nil, fmt.Errorf("%w: invalid status '%s'", common.ErrInvalidInput, *req.Status)
		}
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no valid fields to update", common.ErrInvalidInput)
	}

	if err := s.inspections.Updates(inspectionID, updates); err != nil {
		return nil, err
	}

	_ = s.cache.InvalidateResults(context.Background(), inspectionID)
	return s.inspections.FindByID(inspectionID)
}

// DeleteImages removes image rows (and their assessments) from an
// inspection. IDs that are unknown or belong to another inspection are
// skipped, not errored. Files stay on disk. total_images is recomputed
// from the remaining rows.
func (s *inspectionService) DeleteImages(inspectionID string, imageIDs []string) (*domain.DeleteImagesResult, error) {
	if _, err := s.inspections.FindByID(inspectionID); err != nil {
		return nil, err
	}

	deleted := make([]string, 0, len(imageIDs))
	for _, id := range imageIDs {
		img, err := s.images.FindByID(id)
		if err != nil || img.InspectionID != inspectionID {
			continue
		}
		if err := s.assessments.DeleteByImage(id); err != nil {
			return nil, err
		}
		if err := s.images.Delete(id); err != nil {
			return nil, err
		}
		deleted = append(deleted, id)
	}

	remaining, err := s.images.CountByInspection(inspectionID)
	if err != nil {
		return nil, err
	}
	if err := s.inspections.SetTotalImages(inspectionID, int(remaining)); err != nil {
		return nil, err
	}

	_ = s.cache.InvalidateResults(context.Background(), inspectionID)

	return &domain.DeleteImagesResult{
		InspectionID:    inspectionID,
		DeletedCount:    len(deleted),
		DeletedIDs:      deleted,
		RemainingImages: int(remaining),
	}, nil
}

// DeleteByTurbine cascades a turbine deletion through its inspections,
// images and assessments. Called by the turbine module when a turbine is
// soft-deleted.
func (s *inspectionService) DeleteByTurbine(turbineID string) error {
	return s.inspections.DeleteByTurbine(turbineID)
}
