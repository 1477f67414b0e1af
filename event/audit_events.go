package event

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fundwit/go-commons/types"
)

// Type names the lifecycle operation an audit event documents.
type Type string

// AuditEvent is append-only: it is created with the state change it documents and never updated or deleted.
type AuditEvent struct {
	ID          types.ID `json:"id" gorm:"primary_key"`
	SubjectID   types.ID `json:"subjectId" gorm:"index;not null"`
	SubjectDesc string    `json:"subjectDesc" gorm:"size:64"`

	EventType  Type   `json:"eventType" gorm:"size:32;not null"`
	FromStatus string `json:"fromStatus" gorm:"size:32"`
	ToStatus   string `json:"toStatus" gorm:"size:32"`

	ActorID   string `json:"actorId" gorm:"size:128;not null"`
	ActorName string `json:"actorName" gorm:"size:128"`

	Timestamp         time.Time         `json:"timestamp" gorm:"precision:6;not null"`
	Note              string            `json:"note" gorm:"size:1024"`
	UpdatedProperties UpdatedProperties `json:"updatedProperties" gorm:"type:text"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}

type UpdatedProperty struct {
	PropertyName string `json:"propertyName"`
	OldValue     string `json:"oldValue"`
	NewValue     string `json:"newValue"`
}

type UpdatedProperties []UpdatedProperty

func (t UpdatedProperties) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (c *UpdatedProperties) Scan(v interface{}) error {
	if v == nil {
		*c = nil
		return nil
	}
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), c)
}
