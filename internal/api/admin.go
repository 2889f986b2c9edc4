package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/repository"
	"github.com/chetan13062004/agromate/internal/service"
	"github.com/chetan13062004/agromate/internal/webserver"
	"github.com/chetan13062004/agromate/pkg/common"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type statusPayload struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handlers) registerAdminRoutes(s *webserver.Server) {
	admin := s.Protected(roles(domain.RoleAdmin))

	s.ApiGET("/admin/orders", h.adminListOrders, admin...)
	s.ApiGET("/admin/orders/export", h.adminExportOrders, admin...)
	s.ApiPATCH("/admin/orders/:id/status", h.adminUpdateOrderStatus, admin...)

	s.ApiGET("/admin/users", h.adminListUsers, admin...)
	s.ApiPATCH("/admin/users/:id/approve", h.adminApproveFarmer, admin...)

	s.ApiGET("/admin/products", h.adminListProducts, admin...)
	s.ApiPATCH("/admin/products/:id/approve", h.adminProductStatus(h.Products.Approve), admin...)
	s.ApiPATCH("/admin/products/:id/reject", h.adminProductStatus(h.Products.Reject), admin...)
	s.ApiPATCH("/admin/products/:id/toggle", h.adminProductStatus(h.Products.Toggle), admin...)

	s.ApiGET("/admin/stats", h.adminStats, admin...)
}

// orderFilter reads status, user, from and to. A bare date for "to" covers
// the whole day.
func orderFilter(c echo.Context) (repository.OrderFilter, error) {
	var filter repository.OrderFilter
	filter.Status = queryString(c, "status")
	if user := queryString(c, "user"); user != "" {
		id, err := common.ParseID(user)
		if err != nil {
			return filter, apperr.Validation("Invalid user filter")
		}
		filter.UserID = id
	}
	if from := queryString(c, "from"); from != "" {
		t, err := dateparse.ParseAny(from)
		if err != nil {
			return filter, apperr.Validation("Invalid 'from' date %q", from)
		}
		filter.From = &t
	}
	if to := queryString(c, "to"); to != "" {
		t, err := dateparse.ParseAny(to)
		if err != nil {
			return filter, apperr.Validation("Invalid 'to' date %q", to)
		}
		if !strings.Contains(to, ":") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		filter.To = &t
	}
	return filter, service.ValidateDateRange(filter.From, filter.To)
}

// adminListOrders
// @Summary list orders with filters
// @Tags Admin
// @Param status query string false "order status"
// @Param from query string false "start date"
// @Param to query string false "end date"
// @Success 200 {object} ListResponse
// @Router /api/admin/orders [get]
func (h *Handlers) adminListOrders(c echo.Context) error {
	filter, err := orderFilter(c)
	if err != nil {
		return err
	}
	page := parsePage(c)
	orders, total, err := h.Orders.ListOrders(c.Request().Context(), filter, page)
	if err != nil {
		return err
	}
	return paged(c, orders, total, page)
}

// adminExportOrders
// @Summary export filtered orders as csv or xlsx
// @Tags Admin
// @Param format query string false "csv or xlsx"
// @Router /api/admin/orders/export [get]
func (h *Handlers) adminExportOrders(c echo.Context) error {
	filter, err := orderFilter(c)
	if err != nil {
		return err
	}
	format := strings.ToLower(queryString(c, "format"))
	if format == "" {
		format = service.ExportCSV
	}
	var buf bytes.Buffer
	if err := h.Orders.ExportOrders(c.Request().Context(), filter, format, &buf); err != nil {
		return err
	}

	contentType := "text/csv; charset=utf-8"
	if format == service.ExportXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	filename := fmt.Sprintf("orders-%s.%s", time.Now().Format("20060102"), format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	zap.L().Info("orders exported",
		zap.String("format", format),
		zap.Int("bytes", buf.Len()),
		zap.Int64("admin_id", webserver.CurrentUser(c).ID))
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

func (h *Handlers) adminUpdateOrderStatus(c echo.Context) error {
	id, err := pathID(c, "id", "order")
	if err != nil {
		return err
	}
	var payload statusPayload
	if err := bindAndValidate(c, &payload); err != nil {
		return err
	}
	order, err := h.Orders.UpdateStatus(c.Request().Context(), id, strings.ToLower(strings.TrimSpace(payload.Status)))
	if err != nil {
		return err
	}
	return ok(c, order)
}

func (h *Handlers) adminListUsers(c echo.Context) error {
	page := parsePage(c)
	users, total, err := h.Auth.ListUsers(c.Request().Context(), queryString(c, "role"), page)
	if err != nil {
		return err
	}
	return paged(c, users, total, page)
}

func (h *Handlers) adminApproveFarmer(c echo.Context) error {
	id, err := pathID(c, "id", "user")
	if err != nil {
		return err
	}
	user, err := h.Auth.ApproveFarmer(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, user)
}

func (h *Handlers) adminListProducts(c echo.Context) error {
	filter, err := productFilter(c)
	if err != nil {
		return err
	}
	page := parsePage(c)
	products, total, err := h.Products.ListAll(c.Request().Context(), filter, page)
	if err != nil {
		return err
	}
	return paged(c, products, total, page)
}

type productAction func(ctx context.Context, id int64) (*domain.Product, error)

func (h *Handlers) adminProductStatus(action productAction) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id", "product")
		if err != nil {
			return err
		}
		product, err := action(c.Request().Context(), id)
		if err != nil {
			return err
		}
		return ok(c, product)
	}
}

func (h *Handlers) adminStats(c echo.Context) error {
	stats, err := h.Stats.AdminStats(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, stats)
}
