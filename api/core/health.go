package core

import (
	"github.com/authenx/evidence-hub/cache"
	"github.com/authenx/evidence-hub/storage"
	"gorm.io/gorm"
)

func checkDatabaseHealth(db *gorm.DB) string {
	if db == nil {
		return "not initialized"
	}
	sqlDB, err := db.DB()
	if err != nil {
		return "error: " + err.Error()
	}
	if err := sqlDB.Ping(); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func checkCacheHealth(provider cache.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	return "ok"
}

func checkStorageHealth(provider storage.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	return "ok"
}
