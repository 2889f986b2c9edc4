package app

import (
	"context"
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/chetan13062004/agromate/config"
	"github.com/chetan13062004/agromate/internal/ai"
	"github.com/chetan13062004/agromate/internal/api"
	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/internal/notify"
	"github.com/chetan13062004/agromate/internal/repository"
	"github.com/chetan13062004/agromate/internal/service"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

type Application struct {
	appConfig *config.AppConfig
	gormDB    *gorm.DB
	store     *repository.Store
	sched     *cron.Cron
	bus       EventBus.Bus
	notifier  *notify.Notifier
	closers   []func() error
}

// Ensure Application implements all interfaces
var (
	_ DBProvider        = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ StoreProvider     = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
	_ AppContext        = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

func (a *Application) Store() *repository.Store {
	return a.store
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
	a.store = repository.NewStore(db)
}

// SetupLogger installs the global zap logger, optionally teeing JSON output
// into a rotated file.
func SetupLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable && cfg.Logger.Filename != "" {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}
		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}
	zap.ReplaceGlobals(logger)
}

// Init connects the database, migrates the schema, seeds the administrator
// and wires the notification pipeline.
func (a *Application) Init(cfg *config.AppConfig) error {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	if a.gormDB == nil {
		if cfg.Database.Type == "" {
			cfg.Database.Type = "postgres"
		}
		db, err := OpenDatabase(cfg.Database, cfg.System.Workdir)
		if err != nil {
			return errors.Wrap(err, "database connection failed")
		}
		a.OverrideDB(db)
		zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)
	}

	if err := a.MigrateDB(false); err != nil {
		return errors.Wrap(err, "database migration failed")
	}
	if err := a.checkSuper(context.Background()); err != nil {
		zap.L().Error("failed to ensure administrator", zap.Error(err))
	}

	a.bus = notify.NewBus()
	a.notifier, err = notify.NewNotifier(a.store, notify.NewMailer(cfg.Mail), cfg.Mail.Workers)
	if err != nil {
		return errors.Wrap(err, "create notifier")
	}
	if err := a.notifier.Subscribe(a.bus); err != nil {
		return errors.Wrap(err, "subscribe notifier")
	}

	a.initJob()
	return nil
}

// Handlers builds the HTTP handler set over the application's services
func (a *Application) Handlers(ctx context.Context) (*api.Handlers, error) {
	cfg := a.appConfig

	cache, closeCache, err := ai.NewCache(ctx, cfg.Redis, time.Duration(cfg.AI.CacheTTL)*time.Minute)
	if err != nil {
		zap.L().Warn("redis unavailable, description cache disabled", zap.Error(err))
		cache = nil
	} else {
		a.closers = append(a.closers, closeCache)
	}

	var model ai.TextModel
	if cfg.AI.GenAIKey != "" {
		m, err := ai.NewGenAIModel(ctx, cfg.AI.GenAIKey, cfg.AI.GenAIModel)
		if err != nil {
			zap.L().Warn("genai client unavailable, using template descriptions", zap.Error(err))
		} else {
			model = m
		}
	}

	return &api.Handlers{
		Auth:      a.AuthService(),
		Carts:     service.NewCartService(a.store),
		Checkout:  service.NewCheckoutService(a.store, a.bus),
		Orders:    service.NewOrderService(a.store, a.bus),
		Products:  service.NewProductService(a.store),
		Equipment: service.NewEquipmentService(a.store),
		Wishlist:  service.NewWishlistService(a.store),
		Stats:     service.NewStatsService(a.store),
		Disease:   ai.NewDiseaseDetector(cfg.AI.DiseaseURL, cfg.AI.DiseaseToken, cfg.AITimeout(), cfg.AI.MaxRetries),
		Describer: ai.NewDescriber(model, cache, cfg.AITimeout(), cfg.AI.MaxRetries),
	}, nil
}

// AuthService is shared by the JWT middleware and the auth routes
func (a *Application) AuthService() *service.AuthService {
	return service.NewAuthService(a.store, a.appConfig.Web.Secret, a.appConfig.TokenTTL())
}

// Health pings the database
func (a *Application) Health(ctx context.Context) error {
	sqlDB, err := a.gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			if err2, ok := err1.(error); ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	return db.Migrator().AutoMigrate(domain.Tables...)
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(domain.Tables...)
}

// InitDb recreates every table
func (a *Application) InitDb() error {
	a.DropAll()
	if err := a.gormDB.Migrator().AutoMigrate(domain.Tables...); err != nil {
		return err
	}
	return a.checkSuper(context.Background())
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	if a.notifier != nil {
		a.notifier.Close()
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			zap.L().Warn("release resource", zap.Error(err))
		}
	}
	_ = zap.L().Sync()
}
