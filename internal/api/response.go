package api

import (
	"net/http"
	"strings"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/repository"
	"github.com/chetan13062004/agromate/internal/webserver"
	"github.com/chetan13062004/agromate/pkg/common"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

// ListResponse wraps paginated listings
type ListResponse struct {
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, data)
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, webserver.ErrorResponse{Error: code, Message: message, Details: details})
}

func paged(c echo.Context, data interface{}, total int64, page repository.Page) error {
	return c.JSON(http.StatusOK, ListResponse{
		Data:     data,
		Total:    total,
		Page:     page.Number(),
		PageSize: page.Limit(),
	})
}

// bindAndValidate decodes the body and runs the struct validator. Validator
// errors are rendered field by field by the server error handler.
func bindAndValidate(c echo.Context, payload interface{}) error {
	if err := c.Bind(payload); err != nil {
		return apperr.Validation("Unable to parse request body")
	}
	return c.Validate(payload)
}

// parsePage accepts page with pageSize or perPage
func parsePage(c echo.Context) repository.Page {
	size := cast.ToInt(c.QueryParam("pageSize"))
	if size == 0 {
		size = cast.ToInt(c.QueryParam("perPage"))
	}
	return repository.Page{Page: cast.ToInt(c.QueryParam("page")), PageSize: size}
}

// pathID parses a positive id path parameter
func pathID(c echo.Context, name, label string) (int64, error) {
	id, err := common.ParseID(c.Param(name))
	if err != nil || id <= 0 {
		return 0, apperr.Validation("Invalid %s ID", label).WithCode("INVALID_ID")
	}
	return id, nil
}

func queryString(c echo.Context, name string) string {
	return strings.TrimSpace(c.QueryParam(name))
}
