package domain

import "time"

// ImageStatus lifecycle of a single inspection photograph
type ImageStatus string

const (
	ImageUploaded   ImageStatus = "uploaded"
	ImageProcessing ImageStatus = "processing"
	ImageAnalyzed   ImageStatus = "analyzed"
	ImageReviewed   ImageStatus = "reviewed"
	ImageFailed     ImageStatus = "failed"
)

// Manual review flag values
const (
	CheckedFlagUnchecked = "Unchecked"
	CheckedFlagProcessed = "Processed"
)

// InspectionImage represents one photograph within an inspection
type InspectionImage struct {
	ID            string      `gorm:"column:id;primaryKey;size:36" json:"id"`
	InspectionID  string      `gorm:"column:inspection_id;size:36;index" json:"inspection_id"`
	Blade         string      `gorm:"column:blade;size:10" json:"blade"`
	Surface       string      `gorm:"column:surface;size:5" json:"surface"`
	PositionPct   *float64    `gorm:"column:position_pct" json:"position_pct"`
	PositionMeter *float64    `gorm:"column:position_meter" json:"position_meter"`
	FileName      string      `gorm:"column:file_name;size:255" json:"file_name"`
	FilePath      string      `gorm:"column:file_path;size:500" json:"file_path"`
	FileSize      int64       `gorm:"column:file_size" json:"file_size"`
	CapturedAt    time.Time   `gorm:"column:captured_at" json:"captured_at"`
	Status        ImageStatus `gorm:"column:status;size:20" json:"status"`
	CheckedFlag   string      `gorm:"column:checked_flag;size:20" json:"checked_flag"`
	CreatedAt     time.Time   `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name
func (InspectionImage) TableName() string {
	return "inspection_images"
}

// StreamURL returns the API path the front end uses to fetch the raw image
func (i *InspectionImage) StreamURL() string {
	return "/api/v1/inspections/images/" + i.ID + "/stream"
}
