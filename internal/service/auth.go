package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/chetan13062004/agromate/internal/apperr"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload issued at login
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AccountID returns the numeric user id carried by the token
func (c *Claims) AccountID() (int64, error) {
	return strconv.ParseInt(c.UserID, 10, 64)
}

// Registration is the decoded register body. Exactly one of Buyer and
// Farmer is set, selected by the role tag.
type Registration struct {
	Account AccountFields
	Buyer   *BuyerFields
	Farmer  *FarmerFields
}

type AccountFields struct {
	Name     string `mapstructure:"name" validate:"required,max=120"`
	Email    string `mapstructure:"email" validate:"required,email"`
	Password string `mapstructure:"password" validate:"required,min=6,max=72"`
	Phone    string `mapstructure:"phone" validate:"omitempty,max=32"`
}

type BuyerFields struct {
	Address string `mapstructure:"address" validate:"omitempty,max=500"`
}

type FarmerFields struct {
	FarmName     string `mapstructure:"farmName" validate:"required,max=200"`
	FarmLocation string `mapstructure:"farmLocation" validate:"required,max=200"`
	Address      string `mapstructure:"address" validate:"omitempty,max=500"`
}

// Role reports the tag of the union
func (r *Registration) Role() string {
	if r.Farmer != nil {
		return domain.RoleFarmer
	}
	return domain.RoleBuyer
}

// AuthService registers accounts and issues tokens
type AuthService struct {
	store  *repository.Store
	secret []byte
	ttl    time.Duration
	cost   int
}

func NewAuthService(store *repository.Store, secret string, ttl time.Duration) *AuthService {
	return &AuthService{store: store, secret: []byte(secret), ttl: ttl, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost, tests use bcrypt.MinCost
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// TokenTTL is the lifetime of issued tokens
func (s *AuthService) TokenTTL() time.Duration {
	return s.ttl
}

// Secret is the HMAC key tokens are signed with
func (s *AuthService) Secret() []byte {
	return s.secret
}

// Register creates a buyer or an unapproved farmer
func (s *AuthService) Register(ctx context.Context, reg Registration) (*domain.User, error) {
	if (reg.Buyer == nil) == (reg.Farmer == nil) {
		return nil, apperr.Validation("Registration must be either a buyer or a farmer")
	}
	email := strings.ToLower(strings.TrimSpace(reg.Account.Email))
	if email == "" || strings.TrimSpace(reg.Account.Password) == "" {
		return nil, apperr.Validation("Email and password are required")
	}
	if _, err := s.store.Users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("Email already registered")
	} else if !isNotFound(err) {
		return nil, apperr.Internal(err, "Failed to query user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Account.Password), s.cost)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to hash password")
	}
	user := &domain.User{
		Name:     strings.TrimSpace(reg.Account.Name),
		Email:    email,
		Password: string(hash),
		Phone:    strings.TrimSpace(reg.Account.Phone),
		Role:     reg.Role(),
	}
	switch {
	case reg.Farmer != nil:
		user.FarmName = strings.TrimSpace(reg.Farmer.FarmName)
		user.FarmLocation = strings.TrimSpace(reg.Farmer.FarmLocation)
		user.Address = reg.Farmer.Address
	case reg.Buyer != nil:
		user.Address = reg.Buyer.Address
		user.IsApproved = true
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		// a concurrent registration can pass the lookup above
		if isDuplicate(err) {
			return nil, apperr.Conflict("Email already registered")
		}
		return nil, apperr.Internal(err, "Failed to create user")
	}
	zap.L().Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", user.Role))
	return user, nil
}

// Login verifies credentials and returns the user with a signed token
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.store.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if isNotFound(err) {
			return nil, "", apperr.Unauthenticated("Invalid email or password")
		}
		return nil, "", apperr.Internal(err, "Failed to query user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", apperr.Unauthenticated("Invalid email or password")
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", apperr.Internal(err, "Failed to issue token")
	}
	if err := s.store.Users.TouchLogin(ctx, user.ID); err != nil {
		zap.L().Warn("failed to record login", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return user, token, nil
}

// IssueToken signs an HS256 token for user
func (s *AuthService) IssueToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: strconv.FormatInt(user.ID, 10),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// CurrentUser resolves the account behind validated claims
func (s *AuthService) CurrentUser(ctx context.Context, claims *Claims) (*domain.User, error) {
	id, err := claims.AccountID()
	if err != nil {
		return nil, apperr.Unauthenticated("Invalid token")
	}
	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.Unauthenticated("Account no longer exists")
		}
		return nil, apperr.Internal(err, "Failed to query user")
	}
	return user, nil
}

// ListUsers is the admin user listing
func (s *AuthService) ListUsers(ctx context.Context, role string, page repository.Page) ([]*domain.User, int64, error) {
	switch role {
	case "", domain.RoleBuyer, domain.RoleFarmer, domain.RoleAdmin:
	default:
		return nil, 0, apperr.Validation("Invalid role %q", role)
	}
	users, total, err := s.store.Users.List(ctx, role, page)
	if err != nil {
		return nil, 0, apperr.Internal(err, "Failed to query users")
	}
	return users, total, nil
}

// ApproveFarmer lets a farmer start selling
func (s *AuthService) ApproveFarmer(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal(err, "Failed to query user")
	}
	if user.Role != domain.RoleFarmer {
		return nil, apperr.InvalidState("Only farmers need approval")
	}
	if err := s.store.Users.SetApproved(ctx, id, true); err != nil {
		return nil, apperr.Internal(err, "Failed to approve farmer")
	}
	user.IsApproved = true
	zap.L().Info("farmer approved", zap.Int64("user_id", id))
	return user, nil
}
