package api

import (
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/webserver"
	"github.com/labstack/echo/v4"
)

func (h *Handlers) registerOrderRoutes(s *webserver.Server) {
	s.ApiPOST("/orders/checkout", h.checkout, s.Authenticated()...)
	s.ApiGET("/orders", h.myOrders, s.Authenticated()...)
	s.ApiGET("/orders/farmer", h.farmerOrders, s.Protected(roles(domain.RoleFarmer, domain.RoleAdmin))...)
	s.ApiGET("/orders/:id", h.getOrder, s.Authenticated()...)
}

// checkout
// @Summary convert the cart into an order
// @Tags Orders
// @Success 201 {object} domain.Order
// @Failure 400 {object} webserver.ErrorResponse
// @Router /api/orders/checkout [post]
func (h *Handlers) checkout(c echo.Context) error {
	order, err := h.Checkout.Checkout(c.Request().Context(), webserver.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return created(c, order)
}

func (h *Handlers) myOrders(c echo.Context) error {
	orders, err := h.Orders.ListMyOrders(c.Request().Context(), webserver.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return ok(c, orders)
}

func (h *Handlers) farmerOrders(c echo.Context) error {
	orders, err := h.Orders.ListFarmerOrders(c.Request().Context(), webserver.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return ok(c, orders)
}

func (h *Handlers) getOrder(c echo.Context) error {
	id, err := pathID(c, "id", "order")
	if err != nil {
		return err
	}
	order, err := h.Orders.GetOrder(c.Request().Context(), id, webserver.CurrentUser(c))
	if err != nil {
		return err
	}
	return ok(c, order)
}
