// Package api binds the marketplace services to HTTP routes under /api.
package api

import (
	"context"

	"github.com/chetan13062004/agromate/internal/ai"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/service"
	"github.com/chetan13062004/agromate/internal/webserver"
)

// DiseaseDetector classifies leaf images
type DiseaseDetector interface {
	Detect(ctx context.Context, image []byte, contentType string) (*ai.DiagnosisResult, error)
}

// Describer writes product copy
type Describer interface {
	Describe(ctx context.Context, req ai.DescriptionRequest) (*ai.DescriptionResult, error)
}

// Handlers holds the services the routes call into
type Handlers struct {
	Auth      *service.AuthService
	Carts     *service.CartService
	Checkout  *service.CheckoutService
	Orders    *service.OrderService
	Products  *service.ProductService
	Equipment *service.EquipmentService
	Wishlist  *service.WishlistService
	Stats     *service.StatsService
	Disease   DiseaseDetector
	Describer Describer

	cookieSecure bool
}

// Register mounts every route on s
func (h *Handlers) Register(s *webserver.Server) {
	h.cookieSecure = s.Config().Web.CookieSecure

	h.registerAuthRoutes(s)
	h.registerCartRoutes(s)
	h.registerOrderRoutes(s)
	h.registerAdminRoutes(s)
	h.registerProductRoutes(s)
	h.registerEquipmentRoutes(s)
	h.registerWishlistRoutes(s)
	h.registerAIRoutes(s)

	s.ApiGET("/farmer/stats", h.farmerStats, s.Protected(roles(domain.RoleFarmer))...)
}

func roles(r ...string) []string {
	return r
}
