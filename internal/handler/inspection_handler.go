package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/windsight/bladescan-backend/internal/common"
	"github.com/windsight/bladescan-backend/internal/domain"
	"github.com/windsight/bladescan-backend/internal/middleware"
	"github.com/windsight/bladescan-backend/internal/service"
)

// InspectionHandler handles inspection, image and assessment HTTP requests
type InspectionHandler struct {
	access      service.AccessService
	ingestion   service.IngestionService
	inspections service.InspectionService
	analysis    service.AnalysisService
	assessments service.AssessmentService
	results     service.ResultsService
	audit       *middleware.AuditLogger
}

// NewInspectionHandler creates a new InspectionHandler
func NewInspectionHandler(
	access service.AccessService,
	ingestion service.IngestionService,
	inspections service.InspectionService,
	analysis service.AnalysisService,
	assessments service.AssessmentService,
	results service.ResultsService,
	audit *middleware.AuditLogger,
) *InspectionHandler {
	return &InspectionHandler{
		access:      access,
		ingestion:   ingestion,
		inspections: inspections,
		analysis:    analysis,
		assessments: assessments,
		results:     results,
		audit:       audit,
	}
}

// respondError maps service errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		common.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, common.ErrArchiveTooLarge):
		common.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Archive exceeds the upload size limit", err)
	case errors.Is(err, common.ErrInvalidArchive):
		common.ErrorResponse(c, http.StatusBadRequest, "Uploaded file is not a valid ZIP archive", err)
	case errors.Is(err, common.ErrEmptyArchive):
		common.ErrorResponse(c, http.StatusBadRequest, "Archive contains no recognizable inspection images", err)
	case errors.Is(err, common.ErrForbidden):
		common.ErrorResponse(c, http.StatusForbidden, "You do not have permission to access this resource", err)
	case errors.Is(err, common.ErrTurbineNotFound):
		common.ErrorResponse(c, http.StatusNotFound, "Turbine not found", err)
	case errors.Is(err, common.ErrInspectionNotFound):
		common.ErrorResponse(c, http.StatusNotFound, "Inspection not found", err)
	case errors.Is(err, common.ErrImageNotFound):
		common.ErrorResponse(c, http.StatusNotFound, "Image not found", err)
	case errors.Is(err, common.ErrAssessmentNotFound):
		common.ErrorResponse(c, http.StatusNotFound, "Assessment not found", err)
	case errors.Is(err, common.ErrNotFound):
		common.ErrorResponse(c, http.StatusNotFound, "Resource not found", err)
	default:
		common.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

// UploadArchive handles POST /api/v1/inspections/turbine/:turbine_id/upload
// @Summary Upload an inspection archive
// @Description Uploads a ZIP of blade photographs and registers a new inspection
// @Tags inspections
// @Accept multipart/form-data
// @Produce json
// @Param turbine_id path string true "Turbine ID"
// @Param file formData file true "ZIP archive of inspection images"
// @Param operator formData string false "Operator name"
// @Param equipment formData string false "Capture equipment"
// @Param captured_at formData string false "Capture time (RFC 3339)"
// @Success 201 {object} common.APIResponse{data=domain.InspectionSummary}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Failure 413 {object} common.APIResponse
// @Router /inspections/turbine/{turbine_id}/upload [post]
func (h *InspectionHandler) UploadArchive(c *gin.Context) {
	userID := middleware.GetUserID(c)
	turbineID := c.Param("turbine_id")

	if err := h.access.CheckTurbineAccess(userID, turbineID, domain.RoleEditor); err != nil {
		respondError(c, err)
		return
	}

	// Stream the multipart body instead of buffering the whole archive.
	// Metadata fields must precede the file part.
	reader, err := c.Request.MultipartReader()
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Request must be multipart/form-data", err)
		return
	}

	var opts domain.UploadOptions
	for {
		part, err := reader.NextPart()
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Missing 'file' field in upload", nil)
			return
		}

		switch part.FormName() {
		case "operator":
			opts.Operator = readFormValue(part)
		case "equipment":
			opts.Equipment = readFormValue(part)
		case "captured_at":
			if t, err := time.Parse(time.RFC3339, readFormValue(part)); err == nil {
				opts.CapturedAt = &t
			}
		case "file":
			summary, err := h.ingestion.Ingest(c.Request.Context(), turbineID, part, userID, opts)
			if err != nil {
				respondError(c, err)
				return
			}
			h.audit.Log(c.Request.Context(), userID, "upload", "inspection", summary.InspectionID,
				summary.InspectionCode, c.ClientIP(), c.Request.UserAgent(), c.GetString("request_id"))
			common.CreatedResponse(c, summary)
			return
		default:
			_ = part.Close()
		}
	}
}

// ListInspections handles GET /api/v1/inspections/turbine/:turbine_id
// @Summary List a turbine's inspections
// @Description Returns a turbine's inspections, newest first, with optional status filter
// @Tags inspections
// @Produce json
// @Param turbine_id path string true "Turbine ID"
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Page offset"
// @Success 200 {object} common.APIResponse{data=[]domain.Inspection}
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /inspections/turbine/{turbine_id} [get]
func (h *InspectionHandler) ListInspections(c *gin.Context) {
	userID := middleware.GetUserID(c)
	turbineID := c.Param("turbine_id")

	if err := h.access.CheckTurbineAccess(userID, turbineID, domain.RoleViewer); err != nil {
		respondError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	inspections, err := h.inspections.List(turbineID, c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	common.SuccessResponse(c, inspections, &common.Meta{
		Limit:  limit,
		Offset: offset,
		Total:  int64(len(inspections)),
	})
}

// GetInspection handles GET /api/v1/inspections/:inspection_id
// @Summary Get inspection detail
// @Description Returns one inspection with its images and their stream URLs
// @Tags inspections
// @Produce json
// @Param inspection_id path string true "Inspection ID"
// @Success 200 {object} common.APIResponse{data=domain.InspectionDetail}
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /inspections/{inspection_id} [get]
func (h *InspectionHandler) GetInspection(c *gin.Context) {
	inspection, ok := h.authorizeInspection(c, domain.RoleViewer)
	if !ok {
		return
	}

	detail, err := h.inspections.Get(inspection.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	common.SuccessResponse(c, detail, nil)
}

// UpdateInspection handles PATCH /api/v1/inspections/:inspection_id
// @Summary Update inspection metadata
// @Description Edits operator, equipment, capture time or status of an inspection
// @Tags inspections
// @Accept json
// @Produce json
// @Param inspection_id path string true "Inspection ID"
// @Param request body domain.UpdateInspectionRequest true "Fields to update"
// @Success 200 {object} common.APIResponse{data=domain.Inspection}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /inspections/{inspection_id} [patch]
func (h *InspectionHandler) UpdateInspection(c *gin.Context) {
	inspection, ok := h.authorizeInspection(c, domain.RoleEditor)
	if !ok {
		return
	}

	var req domain.UpdateInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updated, err := h.inspections.Update(inspection.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Log(c.Request.Context(), middleware.GetUserID(c), "update", "inspection", inspection.ID,
		"", c.ClientIP(), c.Request.UserAgent(), c.GetString("request_id"))
	common.SuccessResponse(c, updated, nil)
}

// GetResults handles GET /api/v1/inspections/:inspection_id/results
// @Summary Get inspection results
// @Description Returns the assembled results payload for front-end rendering
// @Tags inspections
// @Produce json
// @Param inspection_id path string true "Inspection ID"
// @Success 200 {object} common.APIResponse{data=domain.InspectionResults}
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /inspections/{inspection_id}/results [get]
func (h *InspectionHandler) GetResults(c *gin.Context) {
	inspection, ok := h.authorizeInspection(c, domain.RoleViewer)
	if !ok {
		return
	}

	results, err := h.results.BuildResults(c.Request.Context(), inspection.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	common.SuccessResponse(c, results, nil)
}

// DeleteImages handles DELETE /api/v1/inspections/:inspection_id/images
// @Summary Delete inspection images
// @Description Removes the listed images (and their assessments) from an inspection
// @Tags inspections
// @Accept json
// @Produce json
// @Param inspection_id path string true "Inspection ID"
// @Param request body domain.DeleteImagesRequest true "Image IDs to delete"
// @Success 200 {object} common.APIResponse{data=domain.DeleteImagesResult}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /inspections/{inspection_id}/images [delete]
func (h *InspectionHandler) DeleteImages(c *gin.Context) {
	inspection, ok := h.authorizeInspection(c, domain.RoleEditor)
	if !ok {
		return
	}

	var req domain.DeleteImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.inspections.DeleteImages(inspection.ID, req.ImageIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Log(c.Request.Context(), middleware.GetUserID(c), "delete_images", "inspection", inspection.ID,
		strconv.Itoa(result.DeletedCount)+" images", c.ClientIP(), c.Request.UserAgent(), c.GetString("request_id"))
	common.SuccessResponse(c, result, nil)
}

// AnalyzeImage handles POST /api/v1/inspections/images/:image_id/analyze
// @Summary Run detection on one image
// @Description Runs the damage detection model against a single image and stores the result
// @Tags assessments
// @Produce json
// @Param image_id path string true "Image ID"
// @Success 200 {object} common.APIResponse{data=domain.AnalyzeResult}
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /inspections/images/{image_id}/analyze [post]
func (h *InspectionHandler) AnalyzeImage(c *gin.Context) {
	img, ok := h.authorizeImage(c, domain.RoleEditor)
	if !ok {
		return
	}

	result, err := h.analysis.AnalyzeImage(c.Request.Context(), img.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Log(c.Request.Context(), middleware.GetUserID(c), "analyze", "image", img.ID,
		result.Status, c.ClientIP(), c.Request.UserAgent(), c.GetString("request_id"))
	common.SuccessResponse(c, result, nil)
}

// UpdateAssessment handles PATCH /api/v1/inspections/images/:image_id/assessment
// @Summary Replace an image's assessment
// @Description Replaces the description and/or bounding boxes of an image's assessment
// @Tags assessments
// @Accept json
// @Produce json
// @Param image_id path string true "Image ID"
// @Param request body domain.UpdateAssessmentRequest true "Fields to replace"
// @Success 200 {object} common.APIResponse{data=domain.AssessmentView}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /inspections/images/{image_id}/assessment [patch]
func (h *InspectionHandler) UpdateAssessment(c *gin.Context) {
	img, ok := h.authorizeImage(c, domain.RoleEditor)
	if !ok {
		return
	}

	var req domain.UpdateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	view, err := h.assessments.UpdateAssessment(img.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Log(c.Request.Context(), middleware.GetUserID(c), "edit_assessment", "assessment", view.ID,
		"", c.ClientIP(), c.Request.UserAgent(), c.GetString("request_id"))
	common.SuccessResponse(c, view, nil)
}

// UpdateBox handles PATCH /api/v1/inspections/images/:image_id/assessment/box
// @Summary Patch one bounding box
// @Description Updates a subset of fields on a single stored bounding box
// @Tags assessments
// @Accept json
// @Produce json
// @Param image_id path string true "Image ID"
// @Param request body domain.PartialBoxUpdateRequest true "Box index and field updates"
// @Success 200 {object} common.APIResponse{data=domain.AssessmentView}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /inspections/images/{image_id}/assessment/box [patch]
func (h *InspectionHandler) UpdateBox(c *gin.Context) {
	img, ok := h.authorizeImage(c, domain.RoleEditor)
	if !ok {
		return
	}

	var req domain.PartialBoxUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	view, err := h.assessments.UpdateBox(img.ID, req.BoxIndex, req.Updates)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Log(c.Request.Context(), middleware.GetUserID(c), "edit_box", "assessment", view.ID,
		"box "+strconv.Itoa(req.BoxIndex), c.ClientIP(), c.Request.UserAgent(), c.GetString("request_id"))
	common.SuccessResponse(c, view, nil)
}

// StreamImage handles GET /api/v1/inspections/images/:image_id/stream
// @Summary Stream a raw inspection image
// @Description Serves the stored image file for front-end display
// @Tags inspections
// @Produce octet-stream
// @Param image_id path string true "Image ID"
// @Success 200 {file} binary
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Router /inspections/images/{image_id}/stream [get]
func (h *InspectionHandler) StreamImage(c *gin.Context) {
	img, ok := h.authorizeImage(c, domain.RoleViewer)
	if !ok {
		return
	}

	c.Header("Content-Disposition", "inline; filename=\""+img.FileName+"\"")
	c.File(img.FilePath)
}

// authorizeInspection loads the inspection from the path and checks the
// caller's role on its turbine.
func (h *InspectionHandler) authorizeInspection(c *gin.Context, minRole string) (*domain.Inspection, bool) {
	inspection, err := h.inspections.GetInspection(c.Param("inspection_id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if err := h.access.CheckTurbineAccess(middleware.GetUserID(c), inspection.TurbineID, minRole); err != nil {
		respondError(c, err)
		return nil, false
	}
	return inspection, true
}

// authorizeImage loads the image from the path and checks the caller's
// role on the owning turbine.
func (h *InspectionHandler) authorizeImage(c *gin.Context, minRole string) (*domain.InspectionImage, bool) {
	img, inspection, err := h.inspections.GetImage(c.Param("image_id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if err := h.access.CheckTurbineAccess(middleware.GetUserID(c), inspection.TurbineID, minRole); err != nil {
		respondError(c, err)
		return nil, false
	}
	return img, true
}

// readFormValue drains a small multipart field into a string
func readFormValue(part io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(part, 4096))
	return string(data)
}
