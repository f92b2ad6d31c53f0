package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/windsight/bladescan-backend/internal/common"
	"github.com/windsight/bladescan-backend/internal/domain"
)

// TurbineRepository resolves the asset hierarchy around a turbine
type TurbineRepository interface {
	FindByID(turbineID string) (*domain.Turbine, error)
	ResolveHierarchy(turbineID string) (*domain.TurbineHierarchy, error)
	GetMemberRole(projectID, userID string) (string, error)
}

// turbineRepository GORM implementation
type turbineRepository struct {
	db *gorm.DB
}

// NewTurbineRepository creates a new TurbineRepository
func NewTurbineRepository(db *gorm.DB) TurbineRepository {
	return &turbineRepository{db: db}
}

// FindByID loads a turbine; soft-deleted turbines are invisible
func (r *turbineRepository) FindByID(turbineID string) (*domain.Turbine, error) {
	var turbine domain.Turbine
	if err := r.db.Where("id = ?", turbineID).First(&turbine).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrTurbineNotFound
		}
		return nil, err
	}
	return &turbine, nil
}

// ResolveHierarchy walks turbine -> windfarm -> project for storage paths
// and access checks
func (r *turbineRepository) ResolveHierarchy(turbineID string) (*domain.TurbineHierarchy, error) {
	turbine, err := r.FindByID(turbineID)
	if err != nil {
		return nil, err
	}

	var windfarm domain.Windfarm
	if err := r.db.Where("id = ?", turbine.WindfarmID).First(&windfarm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrTurbineNotFound
		}
		return nil, err
	}

	return &domain.TurbineHierarchy{
		TurbineID:  turbine.ID,
		WindfarmID: windfarm.ID,
		ProjectID:  windfarm.ProjectID,
	}, nil
}

// GetMemberRole returns the user's role within a project, or ErrForbidden
// when the user is not a member
func (r *turbineRepository) GetMemberRole(projectID, userID string) (string, error) {
	var member domain.ProjectMember
	err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", common.ErrForbidden
		}
		return "", err
	}
	return member.Role, nil
}
