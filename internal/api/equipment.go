package api

import (
	"net/http"

	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/service"
	"github.com/chetan13062004/agromate/internal/webserver"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

func (h *Handlers) registerEquipmentRoutes(s *webserver.Server) {
	owner := s.Protected(roles(domain.RoleFarmer, domain.RoleAdmin))

	s.ApiGET("/equipment", h.listEquipment)
	s.ApiPOST("/equipment", h.createEquipment, s.Protected(roles(domain.RoleFarmer))...)
	s.ApiPUT("/equipment/:id", h.updateEquipment, owner...)
	s.ApiDELETE("/equipment/:id", h.deleteEquipment, owner...)
}

func (h *Handlers) listEquipment(c echo.Context) error {
	page := parsePage(c)
	items, total, err := h.Equipment.List(c.Request().Context(),
		queryString(c, "category"),
		cast.ToBool(queryString(c, "available")),
		page)
	if err != nil {
		return err
	}
	return paged(c, items, total, page)
}

func (h *Handlers) createEquipment(c echo.Context) error {
	var in service.EquipmentInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	item, err := h.Equipment.Create(c.Request().Context(), webserver.CurrentUser(c), in)
	if err != nil {
		return err
	}
	return created(c, item)
}

func (h *Handlers) updateEquipment(c echo.Context) error {
	id, err := pathID(c, "id", "equipment")
	if err != nil {
		return err
	}
	var in service.EquipmentInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	item, err := h.Equipment.Update(c.Request().Context(), webserver.CurrentUser(c), id, in)
	if err != nil {
		return err
	}
	return ok(c, item)
}

func (h *Handlers) deleteEquipment(c echo.Context) error {
	id, err := pathID(c, "id", "equipment")
	if err != nil {
		return err
	}
	if err := h.Equipment.Delete(c.Request().Context(), webserver.CurrentUser(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
