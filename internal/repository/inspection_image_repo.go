package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/windsight/bladescan-backend/internal/common"
	"github.com/windsight/bladescan-backend/internal/domain"
)

// InspectionImageRepository persists per-image records
type InspectionImageRepository interface {
	CreateBatch(images []domain.InspectionImage) error
	FindByID(id string) (*domain.InspectionImage, error)
	ListByInspection(inspectionID string) ([]domain.InspectionImage, error)
	UpdateStatus(id string, status domain.ImageStatus) error
	MarkAnalyzed(id string) error
	CountByInspection(inspectionID string) (int64, error)
	CountAnalyzed(inspectionID string) (int64, error)
	Delete(id string) error
}

// inspectionImageRepository GORM implementation
type inspectionImageRepository struct {
	db *gorm.DB
}

// NewInspectionImageRepository creates a new InspectionImageRepository
func NewInspectionImageRepository(db *gorm.DB) InspectionImageRepository {
	return &inspectionImageRepository{db: db}
}

// CreateBatch inserts the image rows discovered during ingestion
func (r *inspectionImageRepository) CreateBatch(images []domain.InspectionImage) error {
	if len(images) == 0 {
		return nil
	}
	return r.db.Create(&images).Error
}

// FindByID loads one image row
func (r *inspectionImageRepository) FindByID(id string) (*domain.InspectionImage, error) {
	var image domain.InspectionImage
	if err := r.db.Where("id = ?", id).First(&image).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrImageNotFound
		}
		return nil, err
	}
	return &image, nil
}

// ListByInspection returns the images in canonical physical traversal
// order: blade, then surface, then position along the blade
func (r *inspectionImageRepository) ListByInspection(inspectionID string) ([]domain.InspectionImage, error) {
	var images []domain.InspectionImage
	err := r.db.Where("inspection_id = ?", inspectionID).
		Order("blade").Order("surface").Order("position_pct").
		Find(&images).Error
	return images, err
}

// UpdateStatus sets the image lifecycle status
func (r *inspectionImageRepository) UpdateStatus(id string, status domain.ImageStatus) error {
	return r.db.Model(&domain.InspectionImage{}).Where("id = ?", id).
		Update("status", status).Error
}

// MarkAnalyzed sets status analyzed and flips the manual-review flag
func (r *inspectionImageRepository) MarkAnalyzed(id string) error {
	return r.db.Model(&domain.InspectionImage{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       domain.ImageAnalyzed,
			"checked_flag": domain.CheckedFlagProcessed,
		}).Error
}

// CountByInspection counts all images of an inspection
func (r *inspectionImageRepository) CountByInspection(inspectionID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.InspectionImage{}).
		Where("inspection_id = ?", inspectionID).Count(&count).Error
	return count, err
}

// CountAnalyzed counts the images that reached analyzed status. The parent
// inspection's processed_images is recomputed from this count, so
// re-analyzing an image never inflates the counter.
func (r *inspectionImageRepository) CountAnalyzed(inspectionID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.InspectionImage{}).
		Where("inspection_id = ? AND status = ?", inspectionID, domain.ImageAnalyzed).
		Count(&count).Error
	return count, err
}

// Delete removes one image row. The file on disk is left in place.
func (r *inspectionImageRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&domain.InspectionImage{}).Error
}
