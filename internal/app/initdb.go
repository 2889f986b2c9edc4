package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/pkg/common"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// checkSuper creates the configured administrator, or repairs its role and
// approval flag when they were changed.
func (a *Application) checkSuper(ctx context.Context) error {
	email := strings.ToLower(strings.TrimSpace(a.appConfig.System.AdminEmail))
	password := a.appConfig.System.AdminPassword
	if email == "" || password == "" {
		zap.L().Warn("administrator email or password not configured, skipping seed")
		return nil
	}

	user, err := a.store.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		now := time.Now()
		admin := &domain.User{
			ID:         common.UUIDint64(),
			Name:       "administrator",
			Email:      email,
			Password:   string(hash),
			Role:       domain.RoleAdmin,
			IsApproved: true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := a.store.Users.Create(ctx, admin); err != nil {
			return err
		}
		zap.L().Info("initialized default administrator", zap.String("email", email))
		return nil
	case err != nil:
		return err
	}

	if user.Role == domain.RoleAdmin && user.IsApproved {
		return nil
	}
	if err := a.gormDB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"role":        domain.RoleAdmin,
		"is_approved": true,
		"updated_at":  time.Now(),
	}).Error; err != nil {
		return err
	}
	zap.L().Warn("repaired default administrator account",
		zap.String("email", email),
		zap.String("previousRole", user.Role))
	return nil
}
