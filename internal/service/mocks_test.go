package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/windsight/bladescan-backend/internal/domain"
)

// --- Mock TurbineRepository ---

type mockTurbineRepo struct {
	mock.Mock
}

func (m *mockTurbineRepo) FindByID(turbineID string) (*domain.Turbine, error) {
	args := m.Called(turbineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Turbine), args.Error(1)
}

func (m *mockTurbineRepo) ResolveHierarchy(turbineID string) (*domain.TurbineHierarchy, error) {
	args := m.Called(turbineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TurbineHierarchy), args.Error(1)
}

func (m *mockTurbineRepo) GetMemberRole(projectID, userID string) (string, error) {
	args := m.Called(projectID, userID)
	return args.String(0), args.Error(1)
}

// --- Mock InspectionRepository ---

type mockInspectionRepo struct {
	mock.Mock
}

func (m *mockInspectionRepo) Create(inspection *domain.Inspection) error {
	return m.Called(inspection).Error(0)
}

func (m *mockInspectionRepo) FindByID(id string) (*domain.Inspection, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Inspection), args.Error(1)
}

func (m *mockInspectionRepo) ListByTurbine(turbineID string, statusFilter string, limit, offset int) ([]domain.Inspection, error) {
	args := m.Called(turbineID, statusFilter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Inspection), args.Error(1)
}

func (m *mockInspectionRepo) Updates(id string, updates map[string]interface{}) error {
	return m.Called(id, updates).Error(0)
}

func (m *mockInspectionRepo) SetProgress(id string, processedImages int, status domain.InspectionStatus) error {
	return m.Called(id, processedImages, status).Error(0)
}

func (m *mockInspectionRepo) SetTotalImages(id string, total int) error {
	return m.Called(id, total).Error(0)
}

func (m *mockInspectionRepo) DeleteByTurbine(turbineID string) error {
	return m.Called(turbineID).Error(0)
}

// --- Mock InspectionImageRepository ---

type mockImageRepo struct {
	mock.Mock
}

func (m *mockImageRepo) CreateBatch(images []domain.InspectionImage) error {
	return m.Called(images).Error(0)
}

func (m *mockImageRepo) FindByID(id string) (*domain.InspectionImage, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InspectionImage), args.Error(1)
}

func (m *mockImageRepo) ListByInspection(inspectionID string) ([]domain.InspectionImage, error) {
	args := m.Called(inspectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InspectionImage), args.Error(1)
}

func (m *mockImageRepo) UpdateStatus(id string, status domain.ImageStatus) error {
	return m.Called(id, status).Error(0)
}

func (m *mockImageRepo) MarkAnalyzed(id string) error {
	return m.Called(id).Error(0)
}

func (m *mockImageRepo) CountByInspection(inspectionID string) (int64, error) {
	args := m.Called(inspectionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockImageRepo) CountAnalyzed(inspectionID string) (int64, error) {
	args := m.Called(inspectionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockImageRepo) Delete(id string) error {
	return m.Called(id).Error(0)
}

// --- Mock AssessmentRepository ---

type mockAssessmentRepo struct {
	mock.Mock
}

func (m *mockAssessmentRepo) Create(assessment *domain.DamageAssessment) error {
	return m.Called(assessment).Error(0)
}

func (m *mockAssessmentRepo) FindByImage(imageID string) (*domain.DamageAssessment, error) {
	args := m.Called(imageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DamageAssessment), args.Error(1)
}

func (m *mockAssessmentRepo) Updates(id string, updates map[string]interface{}) error {
	return m.Called(id, updates).Error(0)
}

func (m *mockAssessmentRepo) DeleteByImage(imageID string) error {
	return m.Called(imageID).Error(0)
}

// --- Mock Detector ---

type mockDetector struct {
	mock.Mock
}

func (m *mockDetector) Detect(ctx context.Context, imagePath string) (domain.BoundingBoxList, error) {
	args := m.Called(ctx, imagePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.BoundingBoxList), args.Error(1)
}

// --- Mock cache.Service ---

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	return m.Called(ctx, key, dest).Error(0)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *mockCache) GetResults(ctx context.Context, inspectionID string) ([]byte, error) {
	args := m.Called(ctx, inspectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockCache) SetResults(ctx context.Context, inspectionID string, data interface{}) error {
	return m.Called(ctx, inspectionID, data).Error(0)
}

func (m *mockCache) InvalidateResults(ctx context.Context, inspectionID string) error {
	return m.Called(ctx, inspectionID).Error(0)
}

func (m *mockCache) IsAvailable() bool {
	return m.Called().Bool(0)
}

func (m *mockCache) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
