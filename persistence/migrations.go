package persistence

import (
	"coilflow/domain"
	"coilflow/event"

	"github.com/jinzhu/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.WorkOrder{}, &domain.CoilUsage{}, &event.AuditEvent{}).Error
}
