package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/windsight/bladescan-backend/internal/common"
	"github.com/windsight/bladescan-backend/internal/domain"
)

// AssessmentRepository persists damage assessments, one per image
type AssessmentRepository interface {
	Create(assessment *domain.DamageAssessment) error
	FindByImage(imageID string) (*domain.DamageAssessment, error)
	Updates(id string, updates map[string]interface{}) error
	DeleteByImage(imageID string) error
}

// assessmentRepository GORM implementation
type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository creates a new AssessmentRepository
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

// Create inserts a new assessment row
func (r *assessmentRepository) Create(assessment *domain.DamageAssessment) error {
	return r.db.Create(assessment).Error
}

// FindByImage loads the assessment belonging to an image, if any
func (r *assessmentRepository) FindByImage(imageID string) (*domain.DamageAssessment, error) {
	var assessment domain.DamageAssessment
	err := r.db.Where("inspection_image_id = ?", imageID).First(&assessment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrAssessmentNotFound
		}
		return nil, err
	}
	return &assessment, nil
}

// Updates applies a partial column update and stamps updated_at
func (r *assessmentRepository) Updates(id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return r.db.Model(&domain.DamageAssessment{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteByImage removes the assessment of an image, part of image deletion
func (r *assessmentRepository) DeleteByImage(imageID string) error {
	return r.db.Where("inspection_image_id = ?", imageID).Delete(&domain.DamageAssessment{}).Error
}
