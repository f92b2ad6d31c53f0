package domain

// InspectionResults is the JSON contract the front end consumes to render
// bounding-box overlays. It must stay stable and complete even for
// partially-processed inspections.
type InspectionResults struct {
	Metadata   ResultsMetadata   `json:"metadata"`
	Statistics ResultsStatistics `json:"statistics"`
	Images     []ImageResult     `json:"images"`
}

// ResultsMetadata summarizes the inspection the results belong to
type ResultsMetadata struct {
	InspectionID    string `json:"inspection_id"`
	InspectionCode  string `json:"inspection_code"`
	Status          string `json:"status"`
	TotalImages     int    `json:"total_images"`
	ProcessedImages int    `json:"processed_images"`
}

// ResultsStatistics reports image counts over the result set
type ResultsStatistics struct {
	TotalImages    int `json:"total_images"`
	AnalyzedImages int `json:"analyzed_images"`
}

// ImageResult is one image entry in the results payload. An image that has
// not been analyzed yet carries an empty assessments list, not an error.
type ImageResult struct {
	ImageID     string             `json:"image_id"`
	Blade       string             `json:"blade"`
	Surface     string             `json:"surface"`
	FileName    string             `json:"file_name"`
	Status      string             `json:"status"`
	FileURL     string             `json:"file_url"`
	Assessments []AssessmentResult `json:"assessments"`
}

// AssessmentResult is the per-image assessment payload for overlay rendering
type AssessmentResult struct {
	AIBoundingBoxes BoundingBoxList `json:"ai_bounding_boxes"`
	Description     *string         `json:"description"`
}

// AnalyzeResult is returned by the per-image analyze operation
type AnalyzeResult struct {
	ImageID      string             `json:"image_id"`
	Status       string             `json:"status"`
	AssessmentID string             `json:"assessment_id,omitempty"`
	Assessments  []AssessmentResult `json:"damage_assessments,omitempty"`
}

// InspectionDetail is an inspection plus its images, for the detail endpoint
type InspectionDetail struct {
	Inspection  *Inspection   `json:"inspection"`
	TotalImages int           `json:"total_images"`
	Images      []ImageDetail `json:"images"`
}

// ImageDetail decorates an image row with its front-end URLs
type ImageDetail struct {
	InspectionImage
	FileURL string `json:"file_url"`
}
