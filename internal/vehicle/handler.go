package vehicle

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/fleet/internal/documents"
	"github.com/richxcame/fleet/pkg/common"
)

const (
	documentsFieldPrefix = "documents."
	deleteFieldPrefix    = "delete."
	multipartMemory      = 32 << 20
)

// Handler handles HTTP requests for vehicles
type Handler struct {
	service *Service
}

// NewHandler creates a new vehicle handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RouteMiddleware is applied around the vehicle routes
type RouteMiddleware struct {
	// Submit guards the multipart form submission
	Submit []gin.HandlerFunc
	// Bounded wraps every other route. The submission is excluded because
	// its duration depends on the upload size.
	Bounded []gin.HandlerFunc
}

// RegisterRoutes mounts the vehicle API
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, mw RouteMiddleware) {
	vehicles := api.Group("/vehicles")
	vehicles.PUT("/:id/form", append(mw.Submit, h.SubmitForm)...)

	limited := vehicles.Group("", mw.Bounded...)
	{
		limited.POST("", h.Create)
		limited.GET("", h.List)
		limited.GET("/:id", h.Get)
		limited.GET("/:id/uploads/progress", h.GetUploadProgress)
		limited.GET("/:id/share", h.Share)
	}
}

// ========================================
// RECORDS
// ========================================

// Create registers a new vehicle
// POST /api/v1/vehicles
func (h *Handler) Create(c *gin.Context) {
	var req CreateVehicleRequest
	if !common.BindJSON(c, &req) {
		return
	}

	vehicle, err := h.service.CreateVehicle(c.Request.Context(), &req)
	if common.HandleServiceError(c, err, "failed to create vehicle") {
		return
	}

	common.CreatedResponse(c, vehicle)
}

// List returns a filtered page of vehicles
// GET /api/v1/vehicles
func (h *Handler) List(c *gin.Context) {
	var filter ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid query parameters")
		return
	}
	page := common.ParsePagination(c)

	resp, total, err := h.service.ListVehicles(c.Request.Context(), &filter, page)
	if common.HandleServiceError(c, err, "failed to list vehicles") {
		return
	}

	common.SuccessResponseWithMeta(c, resp, common.NewMeta(page, total))
}

// Get returns a vehicle
// GET /api/v1/vehicles/:id
func (h *Handler) Get(c *gin.Context) {
	vehicleID, ok := common.ParseUUIDParam(c, "id", "vehicle ID")
	if !ok {
		return
	}

	vehicle, err := h.service.GetVehicle(c.Request.Context(), vehicleID)
	if common.HandleServiceError(c, err, "failed to get vehicle") {
		return
	}

	common.SuccessResponse(c, vehicle)
}

// ========================================
// FORM SUBMISSION
// ========================================

// SubmitForm applies a multipart form submission to a vehicle.
// Scalar fields replace the stored values when present; files are read from
// documents.<category> and paths to remove from delete.<category>.
// PUT /api/v1/vehicles/:id/form
func (h *Handler) SubmitForm(c *gin.Context) {
	vehicleID, ok := common.ParseUUIDParam(c, "id", "vehicle ID")
	if !ok {
		return
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		common.AppErrorResponse(c, common.NewBadRequestError("invalid multipart form", err))
		return
	}
	mf := c.Request.MultipartForm
	defer func() { _ = mf.RemoveAll() }()

	form, err := h.service.OpenForm(c.Request.Context(), vehicleID)
	if common.HandleServiceError(c, err, "failed to open vehicle form") {
		return
	}

	if err := applyMultipart(form, mf); err != nil {
		common.HandleServiceError(c, err, "invalid form submission")
		return
	}

	result, err := h.service.SubmitForm(c.Request.Context(), form)
	if common.HandleServiceError(c, err, "failed to save vehicle") {
		return
	}

	common.SuccessResponse(c, result)
}

// applyMultipart copies a multipart submission onto the form
func applyMultipart(form *Form, mf *multipart.Form) error {
	fields := map[string]string{}

	details := form.Details()
	if v, ok := formValue(mf, "registration_number"); ok {
		details.RegistrationNumber = v
	}
	if v, ok := formValue(mf, "make"); ok {
		details.Make = v
	}
	if v, ok := formValue(mf, "model"); ok {
		details.Model = v
	}
	if v, ok := formValue(mf, "fuel_type"); ok {
		details.FuelType = FuelType(v)
	}
	if v, ok := formValue(mf, "status"); ok {
		details.Status = VehicleStatus(v)
	}
	if v, ok := formValue(mf, "year"); ok {
		year, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			fields["year"] = "year must be a number"
		}
		details.Year = year
	}
	if v, ok := formValue(mf, "odometer_km"); ok {
		km, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			fields["odometer_km"] = "odometer_km must be a number"
		}
		details.OdometerKm = km
	}
	if tags, ok := mf.Value["tags"]; ok {
		details.Tags = splitTags(tags)
	}
	form.SetDetails(details)

	for key, headers := range mf.File {
		name, ok := strings.CutPrefix(key, documentsFieldPrefix)
		if !ok {
			continue
		}
		category, err := documents.ParseCategory(name)
		if err != nil {
			fields[key] = "unknown document category"
			continue
		}
		files := make([]documents.File, 0, len(headers))
		for _, fh := range headers {
			files = append(files, fileFromHeader(fh))
		}
		if err := form.Stage(category, files...); err != nil {
			fields[key] = err.Error()
		}
	}

	for key, paths := range mf.Value {
		name, ok := strings.CutPrefix(key, deleteFieldPrefix)
		if !ok {
			continue
		}
		category, err := documents.ParseCategory(name)
		if err != nil {
			fields[key] = "unknown document category"
			continue
		}
		for _, path := range paths {
			if err := form.MarkForDeletion(category, path); err != nil {
				fields[key] = err.Error()
				break
			}
		}
	}

	if len(fields) > 0 {
		return common.NewValidationError("validation failed", fields)
	}
	return nil
}

func formValue(mf *multipart.Form, key string) (string, bool) {
	values, ok := mf.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// splitTags accepts repeated fields and comma-separated values
func splitTags(values []string) []string {
	tags := []string{}
	for _, v := range values {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

func fileFromHeader(fh *multipart.FileHeader) documents.File {
	return documents.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// ========================================
// PROGRESS & SHARING
// ========================================

// GetUploadProgress returns the per-category progress of an in-flight submission
// GET /api/v1/vehicles/:id/uploads/progress
func (h *Handler) GetUploadProgress(c *gin.Context) {
	vehicleID, ok := common.ParseUUIDParam(c, "id", "vehicle ID")
	if !ok {
		return
	}

	progress, err := h.service.GetUploadProgress(c.Request.Context(), vehicleID)
	if common.HandleServiceError(c, err, "failed to get upload progress") {
		return
	}

	common.SuccessResponse(c, progress)
}

// Share returns a WhatsApp link listing the vehicle's documents
// GET /api/v1/vehicles/:id/share?phone=
func (h *Handler) Share(c *gin.Context) {
	vehicleID, ok := common.ParseUUIDParam(c, "id", "vehicle ID")
	if !ok {
		return
	}

	resp, err := h.service.ShareDocuments(c.Request.Context(), vehicleID, c.Query("phone"))
	if common.HandleServiceError(c, err, "failed to share documents") {
		return
	}

	common.SuccessResponse(c, resp)
}
