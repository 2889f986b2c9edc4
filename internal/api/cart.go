package api

import (
	"encoding/json"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/service"
	"github.com/chetan13062004/agromate/internal/webserver"
	"github.com/labstack/echo/v4"
)

type addToCartPayload struct {
	ProductID json.RawMessage `json:"productId"`
	Quantity  *int            `json:"quantity"`
}

type updateCartPayload struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func (h *Handlers) registerCartRoutes(s *webserver.Server) {
	auth := s.Authenticated()
	s.ApiGET("/cart", h.getCart, auth...)
	s.ApiPOST("/cart", h.addToCart, auth...)
	s.ApiPUT("/cart/:productId", h.updateCartItem, auth...)
	s.ApiDELETE("/cart/:productId", h.removeFromCart, auth...)
	s.ApiDELETE("/cart", h.clearCart, auth...)
}

// getCart
// @Summary current cart priced from live product prices
// @Tags Cart
// @Success 200 {object} domain.CartSummary
// @Router /api/cart [get]
func (h *Handlers) getCart(c echo.Context) error {
	summary, err := h.Carts.GetCart(c.Request().Context(), webserver.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return ok(c, summary)
}

func (h *Handlers) addToCart(c echo.Context) error {
	var payload addToCartPayload
	if err := c.Bind(&payload); err != nil {
		return apperr.Validation("Unable to parse request body")
	}
	productID, err := service.ParseProductRef(payload.ProductID)
	if err != nil {
		return err
	}
	quantity := 1
	if payload.Quantity != nil {
		quantity = *payload.Quantity
	}
	cart, err := h.Carts.AddItem(c.Request().Context(), webserver.CurrentUser(c).ID, productID, quantity)
	if err != nil {
		return err
	}
	return ok(c, cart)
}

func (h *Handlers) updateCartItem(c echo.Context) error {
	productID, err := pathID(c, "productId", "product")
	if err != nil {
		return err
	}
	var payload updateCartPayload
	if err := bindAndValidate(c, &payload); err != nil {
		return err
	}
	cart, err := h.Carts.UpdateQuantity(c.Request().Context(), webserver.CurrentUser(c).ID, productID, payload.Quantity)
	if err != nil {
		return err
	}
	return ok(c, cart)
}

func (h *Handlers) removeFromCart(c echo.Context) error {
	productID, err := pathID(c, "productId", "product")
	if err != nil {
		return err
	}
	cart, err := h.Carts.RemoveItem(c.Request().Context(), webserver.CurrentUser(c).ID, productID)
	if err != nil {
		return err
	}
	return ok(c, cart)
}

func (h *Handlers) clearCart(c echo.Context) error {
	cart, err := h.Carts.Clear(c.Request().Context(), webserver.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return ok(c, cart)
}
