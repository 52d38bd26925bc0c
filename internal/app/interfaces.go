package app

import (
	"github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/talkincode/storepro/config"
	"github.com/talkincode/storepro/internal/checkout"
	"github.com/talkincode/storepro/internal/upload"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// EventBusProvider provides the in-process event bus
type EventBusProvider interface {
	Bus() EventBus.Bus
}

// AppContext combines all provider interfaces for full application context
// Services should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	EventBusProvider

	// Images returns the product image store
	Images() *upload.ImageStore
	// Checkout returns the checkout transaction service
	Checkout() *checkout.Service
	// AddOprLog records an operator action
	AddOprLog(operator, ip, action, desc string)

	// Application lifecycle methods
	MigrateDB(track bool) error
	InitDb()
	DropAll()
}
