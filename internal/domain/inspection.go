package domain

import "time"

// InspectionStatus lifecycle of an inspection campaign
type InspectionStatus string

const (
	InspectionUploaded   InspectionStatus = "uploaded"
	InspectionProcessing InspectionStatus = "processing"
	InspectionCompleted  InspectionStatus = "completed"
	InspectionFailed     InspectionStatus = "failed"
)

// Inspection represents one inspection campaign for one turbine
type Inspection struct {
	ID              string           `gorm:"column:id;primaryKey;size:36" json:"id"`
	TurbineID       string           `gorm:"column:turbine_id;size:36;index" json:"turbine_id"`
	InspectionCode  string           `gorm:"column:inspection_code;size:40;uniqueIndex" json:"inspection_code"`
	Status          InspectionStatus `gorm:"column:status;size:20" json:"status"`
	CapturedAt      time.Time        `gorm:"column:captured_at" json:"captured_at"`
	Operator        string           `gorm:"column:operator;size:100" json:"operator,omitempty"`
	Equipment       string           `gorm:"column:equipment;size:100" json:"equipment,omitempty"`
	StoragePath     string           `gorm:"column:storage_path;size:500" json:"storage_path"`
	TotalImages     int              `gorm:"column:total_images" json:"total_images"`
	ProcessedImages int              `gorm:"column:processed_images" json:"processed_images"`
	CreatedBy       string           `gorm:"column:created_by;size:36" json:"created_by"`
	CreatedAt       time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"column:updated_at" json:"updated_at"`
}

// TableName returns the table name
func (Inspection) TableName() string {
	return "inspections"
}

// InspectionSummary is returned after a successful archive upload
type InspectionSummary struct {
	InspectionID   string    `json:"inspection_id"`
	TurbineID      string    `json:"turbine_id"`
	InspectionCode string    `json:"inspection_code"`
	Status         string    `json:"status"`
	TotalImages    int       `json:"total_images"`
	CreatedAt      time.Time `json:"created_at"`
}

// UploadOptions carries the optional metadata fields of an archive upload
type UploadOptions struct {
	Operator   string
	Equipment  string
	CapturedAt *time.Time
}

// UpdateInspectionRequest updates mutable inspection metadata
type UpdateInspectionRequest struct {
	Operator   *string    `json:"operator"`
	Equipment  *string    `json:"equipment"`
	Status     *string    `json:"status"`
	CapturedAt *time.Time `json:"captured_at"`
}

// DeleteImagesRequest lists image IDs to remove from an inspection
type DeleteImagesRequest struct {
	ImageIDs []string `json:"image_ids" binding:"required"`
}

// DeleteImagesResult reports the outcome of a bulk image delete
type DeleteImagesResult struct {
	InspectionID    string   `json:"inspection_id"`
	DeletedCount    int      `json:"deleted_count"`
	DeletedIDs      []string `json:"deleted_ids"`
	RemainingImages int      `json:"remaining_images"`
}
