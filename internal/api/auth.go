package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/service"
	"github.com/chetan13062004/agromate/internal/webserver"
	"github.com/labstack/echo/v4"
	"github.com/mitchellh/mapstructure"
)

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

func (h *Handlers) registerAuthRoutes(s *webserver.Server) {
	s.ApiPOST("/auth/register", h.register)
	s.ApiPOST("/auth/login", h.login)
	s.ApiPOST("/auth/logout", h.logout)
	s.ApiGET("/auth/me", h.me, s.Authenticated()...)
}

// register
// @Summary register a buyer or farmer account
// @Tags Auth
// @Success 201 {object} authResponse
// @Router /api/auth/register [post]
func (h *Handlers) register(c echo.Context) error {
	var body map[string]interface{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return apperr.Validation("Unable to parse request body")
	}
	reg, err := decodeRegistration(c, body)
	if err != nil {
		return err
	}
	user, err := h.Auth.Register(c.Request().Context(), *reg)
	if err != nil {
		return err
	}
	token, err := h.Auth.IssueToken(user)
	if err != nil {
		return apperr.Internal(err, "Failed to issue token")
	}
	h.setTokenCookie(c, token)
	return created(c, authResponse{User: user, Token: token})
}

// decodeRegistration selects the variant by role and validates it
func decodeRegistration(c echo.Context, body map[string]interface{}) (*service.Registration, error) {
	role, _ := body["role"].(string)
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = domain.RoleBuyer
	}

	reg := &service.Registration{}
	if err := decodeInto(body, &reg.Account); err != nil {
		return nil, err
	}
	if err := c.Validate(&reg.Account); err != nil {
		return nil, err
	}
	switch role {
	case domain.RoleBuyer:
		reg.Buyer = &service.BuyerFields{}
		if err := decodeInto(body, reg.Buyer); err != nil {
			return nil, err
		}
		if err := c.Validate(reg.Buyer); err != nil {
			return nil, err
		}
	case domain.RoleFarmer:
		reg.Farmer = &service.FarmerFields{}
		if err := decodeInto(body, reg.Farmer); err != nil {
			return nil, err
		}
		if err := c.Validate(reg.Farmer); err != nil {
			return nil, err
		}
	default:
		return nil, apperr.Validation("Role must be buyer or farmer")
	}
	return reg, nil
}

func decodeInto(body map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return apperr.Internal(err, "Failed to decode request")
	}
	if err := dec.Decode(body); err != nil {
		return apperr.Validation("Invalid registration fields")
	}
	return nil
}

func (h *Handlers) login(c echo.Context) error {
	var payload loginPayload
	if err := bindAndValidate(c, &payload); err != nil {
		return err
	}
	user, token, err := h.Auth.Login(c.Request().Context(), payload.Email, payload.Password)
	if err != nil {
		return err
	}
	h.setTokenCookie(c, token)
	return ok(c, authResponse{User: user, Token: token})
}

func (h *Handlers) logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     webserver.TokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return ok(c, map[string]string{"message": "Logged out"})
}

func (h *Handlers) me(c echo.Context) error {
	return ok(c, webserver.CurrentUser(c))
}

func (h *Handlers) setTokenCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     webserver.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.Auth.TokenTTL()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
