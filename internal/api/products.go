package api

import (
	"net/http"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/repository"
	"github.com/chetan13062004/agromate/internal/service"
	"github.com/chetan13062004/agromate/internal/webserver"
	"github.com/chetan13062004/agromate/pkg/common"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

func (h *Handlers) registerProductRoutes(s *webserver.Server) {
	farmer := s.Protected(roles(domain.RoleFarmer))
	owner := s.Protected(roles(domain.RoleFarmer, domain.RoleAdmin))

	s.ApiGET("/products", h.listProducts)
	s.ApiGET("/products/mine", h.myProducts, farmer...)
	s.ApiGET("/products/:id", h.getProduct)
	s.ApiPOST("/products", h.createProduct, farmer...)
	s.ApiPUT("/products/:id", h.updateProduct, owner...)
	s.ApiDELETE("/products/:id", h.deleteProduct, owner...)
}

// productFilter reads the catalogue query parameters
func productFilter(c echo.Context) (repository.ProductFilter, error) {
	filter := repository.ProductFilter{
		Status:   queryString(c, "status"),
		Category: queryString(c, "category"),
		Query:    queryString(c, "q"),
		Sort:     queryString(c, "sort"),
	}
	if v := queryString(c, "minPrice"); v != "" {
		f, err := cast.ToFloat64E(v)
		if err != nil || f < 0 {
			return filter, apperr.Validation("Invalid minPrice")
		}
		filter.MinPrice = f
	}
	if v := queryString(c, "maxPrice"); v != "" {
		f, err := cast.ToFloat64E(v)
		if err != nil || f < 0 {
			return filter, apperr.Validation("Invalid maxPrice")
		}
		filter.MaxPrice = f
	}
	if filter.MinPrice > 0 && filter.MaxPrice > 0 && filter.MinPrice > filter.MaxPrice {
		return filter, apperr.Validation("minPrice must not exceed maxPrice")
	}
	if v := queryString(c, "farmer"); v != "" {
		id, err := common.ParseID(v)
		if err != nil {
			return filter, apperr.Validation("Invalid farmer filter")
		}
		filter.FarmerID = id
	}
	switch filter.Sort {
	case "", "price", "-price", "newest", "popular":
	default:
		return filter, apperr.Validation("Invalid sort %q", filter.Sort)
	}
	return filter, nil
}

// listProducts
// @Summary public catalogue
// @Tags Products
// @Param category query string false "category"
// @Param q query string false "search text"
// @Param sort query string false "price, -price, newest or popular"
// @Success 200 {object} ListResponse
// @Router /api/products [get]
func (h *Handlers) listProducts(c echo.Context) error {
	filter, err := productFilter(c)
	if err != nil {
		return err
	}
	page := parsePage(c)
	products, total, err := h.Products.List(c.Request().Context(), filter, page)
	if err != nil {
		return err
	}
	return paged(c, products, total, page)
}

func (h *Handlers) myProducts(c echo.Context) error {
	page := parsePage(c)
	products, total, err := h.Products.ListMine(c.Request().Context(), webserver.CurrentUser(c).ID, page)
	if err != nil {
		return err
	}
	return paged(c, products, total, page)
}

func (h *Handlers) getProduct(c echo.Context) error {
	id, err := pathID(c, "id", "product")
	if err != nil {
		return err
	}
	product, err := h.Products.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, product)
}

func (h *Handlers) createProduct(c echo.Context) error {
	var in service.ProductInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	product, err := h.Products.Create(c.Request().Context(), webserver.CurrentUser(c), in)
	if err != nil {
		return err
	}
	return created(c, product)
}

func (h *Handlers) updateProduct(c echo.Context) error {
	id, err := pathID(c, "id", "product")
	if err != nil {
		return err
	}
	var in service.ProductInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	product, err := h.Products.Update(c.Request().Context(), webserver.CurrentUser(c), id, in)
	if err != nil {
		return err
	}
	return ok(c, product)
}

func (h *Handlers) deleteProduct(c echo.Context) error {
	id, err := pathID(c, "id", "product")
	if err != nil {
		return err
	}
	if err := h.Products.Delete(c.Request().Context(), webserver.CurrentUser(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
