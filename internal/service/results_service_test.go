package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/windsight/bladescan-backend/internal/common"
	"github.com/windsight/bladescan-backend/internal/domain"
)

func newResultsFixture() (*mockInspectionRepo, *mockImageRepo, *mockAssessmentRepo, *mockCache, ResultsService) {
	inspections := new(mockInspectionRepo)
	images := new(mockImageRepo)
	assessments := new(mockAssessmentRepo)
	cache := new(mockCache)
	svc := NewResultsService(inspections, images, assessments, cache)
	return inspections, images, assessments, cache, svc
}

func TestBuildResults_JoinsImagesAndAssessments(t *testing.T) {
	inspections, images, assessments, cache, svc := newResultsFixture()

	inspection := &domain.Inspection{
		ID: "insp-1", InspectionCode: "INSP-20260831-abcd1234",
		Status: domain.InspectionProcessing, TotalImages: 2, ProcessedImages: 1,
	}
	rows := []domain.InspectionImage{
		{ID: "img-1", InspectionID: "insp-1", Blade: "BladeA", Surface: "LE", FileName: "IMG_0010.jpg", Status: domain.ImageAnalyzed},
		{ID: "img-2", InspectionID: "insp-1", Blade: "BladeA", Surface: "PS", FileName: "IMG_0020.jpg", Status: domain.ImageUploaded},
	}
	boxes := domain.BoundingBoxList{{X: 0.5, Y: 0.5, Width: 0.1, Height: 0.1, Type: "LV_3", Confidence: 0.91}}

	cache.On("GetResults", mock.Anything, "insp-1").Return(nil, errors.New("cache miss"))
	inspections.On("FindByID", "insp-1").Return(inspection, nil)
	images.On("ListByInspection", "insp-1").Return(rows, nil)
	assessments.On("FindByImage", "img-1").Return(&domain.DamageAssessment{ID: "as-1", AIBoundingBoxes: boxes}, nil)
	assessments.On("FindByImage", "img-2").Return(nil, common.ErrAssessmentNotFound)
	cache.On("SetResults", mock.Anything, "insp-1", mock.Anything).Return(nil)

	results, err := svc.BuildResults(context.Background(), "insp-1")

	assert.NoError(t, err)
	assert.Equal(t, "INSP-20260831-abcd1234", results.Metadata.InspectionCode)
	assert.Len(t, results.Images, 2)
	assert.Equal(t, boxes, results.Images[0].Assessments[0].AIBoundingBoxes)
	// a not-yet-analyzed image still appears, with an empty assessments list
	assert.NotNil(t, results.Images[1].Assessments)
	assert.Empty(t, results.Images[1].Assessments)
	assert.Equal(t, 2, results.Statistics.TotalImages)
	assert.Equal(t, 1, results.Statistics.AnalyzedImages)
	assert.Equal(t, "/api/v1/inspections/images/img-1/stream", results.Images[0].FileURL)
	cache.AssertExpectations(t)
}

func TestBuildResults_CacheHitSkipsRepositories(t *testing.T) {
	inspections, images, _, cache, svc := newResultsFixture()

	cached := domain.InspectionResults{
		Metadata: domain.ResultsMetadata{InspectionID: "insp-1", InspectionCode: "INSP-20260831-abcd1234"},
		Images:   []domain.ImageResult{},
	}
	data, _ := json.Marshal(cached)
	cache.On("GetResults", mock.Anything, "insp-1").Return(data, nil)

	results, err := svc.BuildResults(context.Background(), "insp-1")

	assert.NoError(t, err)
	assert.Equal(t, "insp-1", results.Metadata.InspectionID)
	inspections.AssertNotCalled(t, "FindByID", mock.Anything)
	images.AssertNotCalled(t, "ListByInspection", mock.Anything)
}

func TestBuildResults_UnknownInspection(t *testing.T) {
	inspections, _, _, cache, svc := newResultsFixture()

	cache.On("GetResults", mock.Anything, "missing").Return(nil, errors.New("cache miss"))
	inspections.On("FindByID", "missing").Return(nil, common.ErrInspectionNotFound)

	results, err := svc.BuildResults(context.Background(), "missing")

	assert.ErrorIs(t, err, common.ErrInspectionNotFound)
	assert.Nil(t, results)
}

func TestBuildResults_NilStoredBoxesServedAsEmptyList(t *testing.T) {
	inspections, images, assessments, cache, svc := newResultsFixture()

	inspection := &domain.Inspection{ID: "insp-1", Status: domain.InspectionProcessing}
	rows := []domain.InspectionImage{
		{ID: "img-1", InspectionID: "insp-1", Blade: "BladeB", Surface: "TE", Status: domain.ImageAnalyzed},
	}

	cache.On("GetResults", mock.Anything, "insp-1").Return(nil, errors.New("cache miss"))
	inspections.On("FindByID", "insp-1").Return(inspection, nil)
	images.On("ListByInspection", "insp-1").Return(rows, nil)
	assessments.On("FindByImage", "img-1").Return(&domain.DamageAssessment{ID: "as-1", AIBoundingBoxes: nil}, nil)
	cache.On("SetResults", mock.Anything, "insp-1", mock.Anything).Return(nil)

	results, err := svc.BuildResults(context.Background(), "insp-1")

	assert.NoError(t, err)
	assert.NotNil(t, results.Images[0].Assessments[0].AIBoundingBoxes)
	assert.Empty(t, results.Images[0].Assessments[0].AIBoundingBoxes)
}
