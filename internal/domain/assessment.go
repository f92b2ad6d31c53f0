package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// BoundingBox is one detected (or reviewer-edited) damage region.
// Coordinates are normalized to the image's own dimensions: x/y are the
// box center, width/height the extents, all in [0,1]. Type carries the
// damage class label (e.g. "LV_3") and confidence the model score.
type BoundingBox struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// BoxFields are the only keys a box payload or partial patch may carry
var BoxFields = []string{"x", "y", "width", "height", "type", "confidence"}

// BoxFromPayload builds a BoundingBox from a raw JSON object, requiring
// every one of the six mandatory fields to be present.
func BoxFromPayload(payload map[string]interface{}) (BoundingBox, error) {
	var box BoundingBox
	for _, field := range BoxFields {
		if _, ok := payload[field]; !ok {
			return box, fmt.Errorf("bounding box missing field '%s'", field)
		}
	}
	if err := box.applyField("x", payload["x"]); err != nil {
		return box, err
	}
	if err := box.applyField("y", payload["y"]); err != nil {
		return box, err
	}
	if err := box.applyField("width", payload["width"]); err != nil {
		return box, err
	}
	if err := box.applyField("height", payload["height"]); err != nil {
		return box, err
	}
	if err := box.applyField("type", payload["type"]); err != nil {
		return box, err
	}
	if err := box.applyField("confidence", payload["confidence"]); err != nil {
		return box, err
	}
	return box, nil
}

// ApplyUpdates shallow-merges a partial patch onto the box. Every key must
// be one of the six allowed fields; an unknown key rejects the whole patch.
func (b *BoundingBox) ApplyUpdates(updates map[string]interface{}) error {
	for field := range updates {
		if !isAllowedBoxField(field) {
			return fmt.Errorf("field '%s' is not allowed, valid fields: %v", field, BoxFields)
		}
	}
	for field, value := range updates {
		if err := b.applyField(field, value); err != nil {
			return err
		}
	}
	return nil
}

func (b *BoundingBox) applyField(field string, value interface{}) error {
	switch field {
	case "type":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("bounding box field 'type' must be a string")
		}
		b.Type = s
	default:
		f, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("bounding box field '%s' must be a number", field)
		}
		switch field {
		case "x":
			b.X = f
		case "y":
			b.Y = f
		case "width":
			b.Width = f
		case "height":
			b.Height = f
		case "confidence":
			b.Confidence = f
		}
	}
	return nil
}

func isAllowedBoxField(field string) bool {
	for _, f := range BoxFields {
		if f == field {
			return true
		}
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// BoundingBoxList is stored as a JSON column; order is preserved
type BoundingBoxList []BoundingBox

// Value implements driver.Valuer for gorm JSON serialization
func (l BoundingBoxList) Value() (driver.Value, error) {
	if l == nil {
		l = BoundingBoxList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for gorm JSON deserialization
func (l *BoundingBoxList) Scan(value interface{}) error {
	if value == nil {
		*l = BoundingBoxList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for BoundingBoxList: %T", value)
	}
	if len(data) == 0 {
		*l = BoundingBoxList{}
		return nil
	}
	return json.Unmarshal(data, l)
}

// DamageAssessment holds the detection result plus reviewer annotation for
// exactly one image. At most one assessment exists per image; that is
// enforced at the application level, not as a DB constraint.
type DamageAssessment struct {
	ID                string          `gorm:"column:id;primaryKey;size:36" json:"id"`
	InspectionImageID string          `gorm:"column:inspection_image_id;size:36;index" json:"inspection_image_id"`
	AIBoundingBoxes   BoundingBoxList `gorm:"column:ai_bounding_boxes;type:json" json:"ai_bounding_boxes"`
	AIProcessedAt     *time.Time      `gorm:"column:ai_processed_at" json:"ai_processed_at"`
	Description       *string         `gorm:"column:description;type:text" json:"description"`
	CreatedAt         time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

// TableName returns the table name
func (DamageAssessment) TableName() string {
	return "damage_assessments"
}

// UpdateAssessmentRequest replaces assessment fields wholesale. Boxes are
// accepted as raw objects so that a missing mandatory field is detectable.
type UpdateAssessmentRequest struct {
	Description     *string                  `json:"description"`
	AIBoundingBoxes []map[string]interface{} `json:"ai_bounding_boxes"`
}

// PartialBoxUpdateRequest patches a subset of fields on one stored box
type PartialBoxUpdateRequest struct {
	BoxIndex int                    `json:"box_index" binding:"min=0"`
	Updates  map[string]interface{} `json:"updates" binding:"required"`
}

// AssessmentView is the assessment shape returned to the front end
type AssessmentView struct {
	ID              string          `json:"id"`
	ImageID         string          `json:"image_id"`
	AIBoundingBoxes BoundingBoxList `json:"ai_bounding_boxes"`
	Description     *string         `json:"description"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Set only by the partial box patch contract
	UpdatedBoxIndex *int         `json:"updated_box_index,omitempty"`
	UpdatedBox      *BoundingBox `json:"updated_box,omitempty"`
}
