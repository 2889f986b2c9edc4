package app

import (
	"context"

	"github.com/chetan13062004/agromate/config"
	"github.com/chetan13062004/agromate/internal/repository"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// StoreProvider provides the repository set
type StoreProvider interface {
	Store() *repository.Store
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// AppContext combines all provider interfaces for full application context
type AppContext interface {
	DBProvider
	ConfigProvider
	StoreProvider
	SchedulerProvider

	MigrateDB(track bool) error
	InitDb() error
	DropAll()
	Health(ctx context.Context) error
}
