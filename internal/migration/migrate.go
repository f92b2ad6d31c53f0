package migration

import (
	"github.com/windsight/bladescan-backend/internal/domain"
	"gorm.io/gorm"
)

// Run executes AutoMigrate for every entity the service owns. Tables are
// created when missing and altered in place otherwise.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Project{},
		&domain.ProjectMember{},
		&domain.Windfarm{},
		&domain.Turbine{},
		&domain.Inspection{},
		&domain.InspectionImage{},
		&domain.DamageAssessment{},
	)
}
