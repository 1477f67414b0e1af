package event

import (
	"coilflow/common"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

type Actor struct {
	ID   string
	Name string
}

type Recorder struct {
	idWorker *sonyflake.Sonyflake
}

func NewRecorder(idWorker *sonyflake.Sonyflake) *Recorder {
	return &Recorder{idWorker: idWorker}
}

// Transition describes one accepted lifecycle transition.
type Transition struct {
	SubjectID   types.ID
	SubjectDesc string
	EventType   Type
	FromStatus  string
	ToStatus    string
	Timestamp   time.Time
	Note        string
	Updated     UpdatedProperties
}

// Record builds the audit event for a transition, the caller persists it in the same transaction.
func (r *Recorder) Record(t Transition, actor Actor) AuditEvent {
	name := actor.Name
	if name == "" {
		name = actor.ID
	}
	return AuditEvent{
		ID:                common.NextId(r.idWorker),
		SubjectID:         t.SubjectID,
		SubjectDesc:       t.SubjectDesc,
		EventType:         t.EventType,
		FromStatus:        t.FromStatus,
		ToStatus:          t.ToStatus,
		ActorID:           actor.ID,
		ActorName:         name,
		Timestamp:         t.Timestamp,
		Note:              t.Note,
		UpdatedProperties: t.Updated,
	}
}
