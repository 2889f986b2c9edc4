package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/chetan13062004/agromate/internal/ai"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/webserver"
	"github.com/labstack/echo/v4"
)

const maxImageSize = 10 << 20

func (h *Handlers) registerAIRoutes(s *webserver.Server) {
	s.ApiPOST("/ai/disease-detect", h.detectDisease, s.Authenticated()...)
	s.ApiPOST("/ai/product-description", h.describeProduct, s.Protected(roles(domain.RoleFarmer))...)
}

// detectDisease
// @Summary classify a leaf image
// @Tags AI
// @Accept multipart/form-data
// @Param image formData file true "leaf image"
// @Success 200 {object} ai.DiagnosisResult
// @Router /api/ai/disease-detect [post]
func (h *Handlers) detectDisease(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "An image file is required", nil)
	}
	if file.Size == 0 {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Image file is empty", nil)
	}
	if file.Size > maxImageSize {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Image must be 10MB or smaller", nil)
	}
	contentType := file.Header.Get(echo.HeaderContentType)
	if contentType != "" && contentType != echo.MIMEOctetStream && !strings.HasPrefix(contentType, "image/") {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Only image uploads are accepted", nil)
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxImageSize))
	if err != nil {
		return err
	}
	result, err := h.Disease.Detect(c.Request().Context(), data, contentType)
	if err != nil {
		return err
	}
	return ok(c, result)
}

func (h *Handlers) describeProduct(c echo.Context) error {
	var req ai.DescriptionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := h.Describer.Describe(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return ok(c, result)
}

// farmerStats
// @Summary sales dashboard for the signed in farmer
// @Tags Farmer
// @Success 200 {object} service.FarmerStats
// @Router /api/farmer/stats [get]
func (h *Handlers) farmerStats(c echo.Context) error {
	stats, err := h.Stats.FarmerStats(c.Request().Context(), webserver.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return ok(c, stats)
}
