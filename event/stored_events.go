package event

import (

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	PersistCreateFunc = persistCreate
)

func persistCreate(record *AuditEvent, db *gorm.DB) error {
	return db.Create(record).Error
}

// QueryEvents lists the audit trail of a subject, oldest first.
func QueryEvents(db *gorm.DB, subjectID types.ID) ([]AuditEvent, error) {
	var records []AuditEvent
	if err := db.Where("subject_id = ?", subjectID).Order("timestamp ASC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
