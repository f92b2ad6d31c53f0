package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/windsight/bladescan-backend/internal/common"
	"github.com/windsight/bladescan-backend/internal/domain"
)

// InspectionRepository persists inspection campaign records
type InspectionRepository interface {
	Create(inspection *domain.Inspection) error
	FindByID(id string) (*domain.Inspection, error)
	ListByTurbine(turbineID string, statusFilter string, limit, offset int) ([]domain.Inspection, error)
	Updates(id string, updates map[string]interface{}) error
	SetProgress(id string, processedImages int, status domain.InspectionStatus) error
	SetTotalImages(id string, total int) error
	DeleteByTurbine(turbineID string) error
}

// inspectionRepository GORM implementation
type inspectionRepository struct {
	db *gorm.DB
}

// NewInspectionRepository creates a new InspectionRepository
func NewInspectionRepository(db *gorm.DB) InspectionRepository {
	return &inspectionRepository{db: db}
}

// Create inserts a new inspection row
func (r *inspectionRepository) Create(inspection *domain.Inspection) error {
	return r.db.Create(inspection).Error
}

// FindByID loads one inspection
func (r *inspectionRepository) FindByID(id string) (*domain.Inspection, error) {
	var inspection domain.Inspection
	if err := r.db.Where("id = ?", id).First(&inspection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrInspectionNotFound
		}
		return nil, err
	}
	return &inspection, nil
}

// ListByTurbine lists inspections for a turbine, newest first
func (r *inspectionRepository) ListByTurbine(turbineID string, statusFilter string, limit, offset int) ([]domain.Inspection, error) {
	q := r.db.Where("turbine_id = ?", turbineID)
	if statusFilter != "" {
		q = q.Where("status = ?", statusFilter)
	}

	var inspections []domain.Inspection
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&inspections).Error
	return inspections, err
}

// Updates applies a partial column update and stamps updated_at
func (r *inspectionRepository) Updates(id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return r.db.Model(&domain.Inspection{}).Where("id = ?", id).Updates(updates).Error
}

// SetProgress writes the recomputed processed-image count and status
func (r *inspectionRepository) SetProgress(id string, processedImages int, status domain.InspectionStatus) error {
	return r.Updates(id, map[string]interface{}{
		"processed_images": processedImages,
		"status":           status,
	})
}

// SetTotalImages rewrites total_images after a bulk image delete
func (r *inspectionRepository) SetTotalImages(id string, total int) error {
	return r.Updates(id, map[string]interface{}{"total_images": total})
}

// DeleteByTurbine hard-deletes all inspections of a turbine together with
// their images and assessments. Used by the turbine-deletion cascade.
func (r *inspectionRepository) DeleteByTurbine(turbineID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		inspectionIDs := tx.Model(&domain.Inspection{}).
			Select("id").Where("turbine_id = ?", turbineID)
		imageIDs := tx.Model(&domain.InspectionImage{}).
			Select("id").Where("inspection_id IN (?)", inspectionIDs)

		if err := tx.Where("inspection_image_id IN (?)", imageIDs).
			Delete(&domain.DamageAssessment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("inspection_id IN (?)", inspectionIDs).
			Delete(&domain.InspectionImage{}).Error; err != nil {
			return err
		}
		return tx.Where("turbine_id = ?", turbineID).
			Delete(&domain.Inspection{}).Error
	})
}
