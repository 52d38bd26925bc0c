package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/talkincode/storepro/internal/domain"
	"github.com/talkincode/storepro/internal/repository"
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

	_, err = a.sched.AddFunc("@hourly", a.SchedLowStockReport)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", a.SchedClearExpireData)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// SchedLowStockReport logs products at or below the low stock threshold.
func (a *Application) SchedLowStockReport() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	repo := repository.NewGormProductRepository(a.gormDB)
	items, err := repo.ListLowStock(context.Background(), a.appConfig.Store.LowStockThreshold)
	if err != nil {
		zap.L().Error("low stock report failed", zap.Error(err))
		return
	}
	for _, p := range items {
		zap.L().Warn("low stock",
			zap.Int64("product_id", p.ID),
			zap.String("name", p.Name),
			zap.Int("quantity", p.Quantity))
	}
}

// SchedClearExpireData purges operation logs older than a year.
func (a *Application) SchedClearExpireData() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	res := a.gormDB.
		Where("opt_time < ? ", time.Now().
			Add(-time.Hour*24*365)).Delete(&domain.SysOprLog{})
	if res.Error != nil {
		zap.L().Error("purge operation logs failed", zap.Error(res.Error))
		return
	}
	if res.RowsAffected > 0 {
		zap.L().Info("purged operation logs", zap.Int64("rows", res.RowsAffected))
	}
}
