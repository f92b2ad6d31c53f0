package service

import (
	"context"
	"fmt"
	"time"

	"github.com/windsight/bladescan-backend/internal/common"
	"github.com/windsight/bladescan-backend/internal/domain"
	"github.com/windsight/bladescan-backend/internal/repository"
	"github.com/windsight/bladescan-backend/pkg/cache"
)

// AssessmentService applies reviewer edits to stored assessments. Two
// contracts exist on purpose: a wholesale replace for front-end bulk edits,
// and a single-box patch so changing one field does not require resending
// (and possibly clobbering) the rest of the array.
type AssessmentService interface {
	UpdateAssessment(imageID string, req *domain.UpdateAssessmentRequest) (*domain.AssessmentView, error)
	UpdateBox(imageID string, boxIndex int, updates map[string]interface{}) (*domain.AssessmentView, error)
}

type assessmentService struct {
	assessments repository.AssessmentRepository
	images      repository.InspectionImageRepository
	locks       *imageLocks
	cache       cache.Service
}

// NewAssessmentService creates a new AssessmentService sharing the
// per-image locks with the analysis workflow
func NewAssessmentService(
	assessments repository.AssessmentRepository,
	images repository.InspectionImageRepository,
	locks *imageLocks,
	cacheService cache.Service,
) AssessmentService {
	return &assessmentService{
		assessments: assessments,
		images:      images,
		locks:       locks,
		cache:       cacheService,
	}
}

// UpdateAssessment replaces description and/or the whole box list. A box
// list is validated in full before anything is written: one malformed box
// rejects the entire update. Assessments cannot be created here; one must
// exist from a prior detection run.
func (s *assessmentService) UpdateAssessment(imageID string, req *domain.UpdateAssessmentRequest) (*domain.AssessmentView, error) {
	unlock := s.locks.Acquire(imageID)
	defer unlock()

	assessment, err := s.assessments.FindByImage(imageID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	view := &domain.AssessmentView{
		ID:              assessment.ID,
		ImageID:         imageID,
		AIBoundingBoxes: assessment.AIBoundingBoxes,
		Description:     assessment.Description,
	}

	if req.Description != nil {
		updates["description"] = *req.Description
		view.Description = req.Description
	}

	if req.AIBoundingBoxes != nil {
		boxes := make(domain.BoundingBoxList, 0, len(req.AIBoundingBoxes))
		for _, payload := range req.AIBoundingBoxes {
			box, err := domain.BoxFromPayload(payload)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", common.ErrInvalidInput, err.Error())
			}
			boxes = append(boxes, box)
		}
		updates["ai_bounding_boxes"] = boxes
		view.AIBoundingBoxes = boxes
	}

	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no valid fields to update", common.ErrInvalidInput)
	}

	if err := s.assessments.Updates(assessment.ID, updates); err != nil {
		return nil, err
	}
	view.UpdatedAt = time.Now()

	s.invalidateResults(imageID)
	return view, nil
}

// UpdateBox patches a subset of fields on one box, addressed by position.
// Unspecified fields keep their prior values; other boxes and the list
// order are untouched.
func (s *assessmentService) UpdateBox(imageID string, boxIndex int, updates map[string]interface{}) (*domain.AssessmentView, error) {
	unlock := s.locks.Acquire(imageID)
	defer unlock()

	assessment, err := s.assessments.FindByImage(imageID)
	if err != nil {
		return nil, err
	}

	boxes := assessment.AIBoundingBoxes
	if len(boxes) == 0 {
		return nil, fmt.Errorf("%w: assessment has no bounding boxes to update", common.ErrInvalidInput)
	}
	if boxIndex < 0 || boxIndex >= len(boxes) {
		return nil, fmt.Errorf("%w: box_index=%d is invalid, %d boxes exist (valid range [0, %d])",
			common.ErrInvalidInput, boxIndex, len(boxes), len(boxes)-1)
	}

	patched := boxes[boxIndex]
	if err := patched.ApplyUpdates(updates); err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrInvalidInput, err.Error())
	}

	merged := make(domain.BoundingBoxList, len(boxes))
	copy(merged, boxes)
	merged[boxIndex] = patched

	err = s.assessments.Updates(assessment.ID, map[string]interface{}{
		"ai_bounding_boxes": merged,
	})
	if err != nil {
		return nil, err
	}

	s.invalidateResults(imageID)

	idx := boxIndex
	return &domain.AssessmentView{
		ID:              assessment.ID,
		ImageID:         imageID,
		AIBoundingBoxes: merged,
		Description:     assessment.Description,
		UpdatedAt:       time.Now(),
		UpdatedBoxIndex: &idx,
		UpdatedBox:      &patched,
	}, nil
}

func (s *assessmentService) invalidateResults(imageID string) {
	img, err := s.images.FindByID(imageID)
	if err != nil {
		return
	}
	_ = s.cache.InvalidateResults(context.Background(), img.InspectionID)
}
