package api

import (
	"encoding/json"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/service"
	"github.com/chetan13062004/agromate/internal/webserver"
	"github.com/labstack/echo/v4"
)

type wishlistPayload struct {
	ProductID json.RawMessage `json:"productId"`
}

func (h *Handlers) registerWishlistRoutes(s *webserver.Server) {
	auth := s.Authenticated()
	s.ApiGET("/wishlist", h.getWishlist, auth...)
	s.ApiPOST("/wishlist", h.addToWishlist, auth...)
	s.ApiDELETE("/wishlist/:productId", h.removeFromWishlist, auth...)
}

func (h *Handlers) getWishlist(c echo.Context) error {
	items, err := h.Wishlist.List(c.Request().Context(), webserver.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return ok(c, items)
}

func (h *Handlers) addToWishlist(c echo.Context) error {
	var payload wishlistPayload
	if err := c.Bind(&payload); err != nil {
		return apperr.Validation("Unable to parse request body")
	}
	productID, err := service.ParseProductRef(payload.ProductID)
	if err != nil {
		return err
	}
	items, err := h.Wishlist.Add(c.Request().Context(), webserver.CurrentUser(c).ID, productID)
	if err != nil {
		return err
	}
	return ok(c, items)
}

func (h *Handlers) removeFromWishlist(c echo.Context) error {
	productID, err := pathID(c, "productId", "product")
	if err != nil {
		return err
	}
	items, err := h.Wishlist.Remove(c.Request().Context(), webserver.CurrentUser(c).ID, productID)
	if err != nil {
		return err
	}
	return ok(c, items)
}
