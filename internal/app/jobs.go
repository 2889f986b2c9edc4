package app

import (
	"context"
	"os"
	"time"

	"github.com/chetan13062004/agromate/internal/domain"
	"github.com/chetan13062004/agromate/pkg/metrics"
	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	_, err = a.sched.AddFunc("@every 30s", func() {
		go a.SchedSystemMonitorTask()
		go a.SchedProcessMonitorTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@every 10m", func() {
		a.SchedInventoryTask(context.Background())
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedInventoryTask repairs drifted product totalValue columns and refreshes
// the out of stock gauge. Explicit product statuses are left alone.
func (a *Application) SchedInventoryTask(ctx context.Context) {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	fixed, err := a.store.Products.RefreshTotalValues(ctx)
	if err != nil {
		zap.L().Error("inventory reconciliation failed", zap.Error(err))
		return
	}
	if fixed > 0 {
		zap.L().Info("inventory reconciliation repaired products", zap.Int64("rows", fixed))
	}

	outOfStock, err := a.store.Products.CountByStatus(ctx, domain.ProductOutOfStock)
	if err != nil {
		zap.L().Error("count out of stock products failed", zap.Error(err))
		return
	}
	metrics.OutOfStockProducts.Set(float64(outOfStock))
}

// SchedSystemMonitorTask system monitor
func (a *Application) SchedSystemMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	meminfo, err := mem.VirtualMemory()
	if err == nil {
		metrics.SystemMemoryUsed.Set(meminfo.UsedPercent)
	}
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	p, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // G115: PID is always within int32 range
	if err != nil {
		return
	}
	if cpuuse, err := p.CPUPercent(); err == nil {
		metrics.ProcessCPU.Set(cpuuse)
	}
	if meminfo, err := p.MemoryInfo(); err == nil {
		metrics.ProcessMemory.Set(float64(meminfo.RSS) / 1024 / 1024)
	}
}
