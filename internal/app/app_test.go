package app

import (
	"context"
	"testing"

	"github.com/chetan13062004/agromate/config"
	"github.com/chetan13062004/agromate/internal/dbtest"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestApp(t *testing.T) *Application {
	cfg := *config.DefaultAppConfig
	cfg.System.AdminEmail = "Root@Example.com"
	cfg.System.AdminPassword = "s3cret"
	a := NewApplication(&cfg)
	a.OverrideDB(dbtest.Open(t))
	return a
}

func TestCheckSuperCreatesAdministrator(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, a.checkSuper(ctx))

	admin, err := a.Store().Users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.True(t, admin.IsApproved)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("s3cret")))

	// idempotent
	require.NoError(t, a.checkSuper(ctx))
	var n int64
	require.NoError(t, a.DB().Model(&domain.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCheckSuperRepairsRole(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	dbtest.CreateUser(t, a.DB(), domain.RoleBuyer, "root@example.com")

	require.NoError(t, a.checkSuper(ctx))
	admin, err := a.Store().Users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
}

func TestInventoryTaskRepairsTotals(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	farmer := dbtest.CreateUser(t, a.DB(), domain.RoleFarmer, "farmer@example.com")
	p := dbtest.CreateProduct(t, a.DB(), farmer.ID, "okra", 10, 4)
	empty := dbtest.CreateProduct(t, a.DB(), farmer.ID, "leek", 10, 0)

	require.NoError(t, a.DB().Model(&domain.Product{}).Where("id = ?", p.ID).UpdateColumn("total_value", 1).Error)
	// explicit admin override must survive reconciliation
	require.NoError(t, a.DB().Model(&domain.Product{}).Where("id = ?", p.ID).UpdateColumn("status", domain.ProductInactive).Error)

	a.SchedInventoryTask(ctx)

	got := dbtest.ReloadProduct(t, a.DB(), p.ID)
	assert.Equal(t, 40.0, got.TotalValue)
	assert.Equal(t, domain.ProductInactive, got.Status)
	assert.Equal(t, domain.ProductOutOfStock, dbtest.ReloadProduct(t, a.DB(), empty.ID).Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.OutOfStockProducts))
}

func TestHandlersWithoutOptionalBackends(t *testing.T) {
	a := newTestApp(t)
	a.appConfig.Redis.Addr = ""
	a.appConfig.AI.GenAIKey = ""

	h, err := a.Handlers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, h.Describer)
	assert.NotNil(t, h.Disease)
	assert.NoError(t, a.Health(context.Background()))
}

func TestOpenDatabase(t *testing.T) {
	db, err := OpenDatabase(config.DBConfig{Type: "sqlite", Name: ":memory:"}, t.TempDir())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Ping())

	_, err = OpenDatabase(config.DBConfig{Type: "oracle"}, t.TempDir())
	assert.Error(t, err)
}
