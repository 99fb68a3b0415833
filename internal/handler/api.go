package handler

import (
	"github.com/magnetlog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db       *gorm.DB
	store    *service.StateStore
	progress *service.ProgressService
	logs     *service.CheckInLogService
	story    *service.StoryService
	vault    *service.VaultService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB) *API {
	store := service.NewStateStore(db)
	logs := service.NewCheckInLogService(db)

	return &API{
		db:       db,
		store:    store,
		progress: service.NewProgressService(store, logs),
		logs:     logs,
		story:    service.NewStoryService(""),
		vault:    service.NewVaultService(),
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Progress exposes the engagement engine, mainly for tests and shutdown.
func (a *API) Progress() *service.ProgressService {
	return a.progress
}

// Close releases engine-owned timers.
func (a *API) Close() {
	a.progress.Close()
}
