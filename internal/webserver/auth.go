package webserver

import (
	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/service"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	// TokenCookie carries the JWT for browser clients
	TokenCookie = "jwt"

	tokenContextKey = "token"
	userContextKey  = "currentUser"
)

// jwtMiddleware accepts "Authorization: Bearer <token>" or the jwt cookie
func jwtMiddleware(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    secret,
		SigningMethod: echojwt.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		TokenLookup:   "header:Authorization:Bearer ,cookie:" + TokenCookie,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(service.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apperr.Unauthenticated("Not authorized, token missing or invalid")
		},
	})
}

// loadUser resolves the token subject to a live account
func loadUser(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get(tokenContextKey).(*jwt.Token)
			if !ok {
				return apperr.Unauthenticated("Not authorized, no token")
			}
			claims, ok := token.Claims.(*service.Claims)
			if !ok {
				return apperr.Unauthenticated("Not authorized, invalid token")
			}
			user, err := auth.CurrentUser(c.Request().Context(), claims)
			if err != nil {
				return err
			}
			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// RequireRole admits users holding one of roles
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return apperr.Unauthenticated("Not authorized")
			}
			for _, r := range roles {
				if user.Role == r {
					return next(c)
				}
			}
			return apperr.Forbidden("Role %s is not allowed to access this resource", user.Role)
		}
	}
}

// CurrentUser returns the authenticated user, nil on public routes
func CurrentUser(c echo.Context) *domain.User {
	user, _ := c.Get(userContextKey).(*domain.User)
	return user
}
