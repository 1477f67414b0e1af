package event_test

import (
	"coilflow/event"
	"coilflow/testinfra"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestPersistAndQueryEvents(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should persist events and list them oldest first", func(t *testing.T) {
		testDatabase := testinfra.StartTestDatabase("events")
		defer testinfra.StopTestDatabase(testDatabase)
		db := testDatabase.DS.GormDB()
		Expect(db.AutoMigrate(&event.AuditEvent{}).Error).To(BeNil())

		ts := time.Date(2021, 1, 1, 12, 12, 12, 0, time.UTC)
		later := event.AuditEvent{ID: 2, SubjectID: 1234, EventType: "PAUSE", ActorID: "u1", ActorName: "u1", Timestamp: ts.Add(time.Minute)}
		earlier := event.AuditEvent{ID: 1, SubjectID: 1234, EventType: "START", ActorID: "u1", ActorName: "u1", Timestamp: ts,
			UpdatedProperties: event.UpdatedProperties{{PropertyName: "activeUsage", NewValue: "10"}}}
		other := event.AuditEvent{ID: 3, SubjectID: 999, EventType: "START", ActorID: "u1", Timestamp: ts}

		for _, ev := range []event.AuditEvent{later, earlier, other} {
			ev := ev
			Expect(event.PersistCreateFunc(&ev, db)).To(Succeed())
		}

		records, err := event.QueryEvents(db, 1234)
		Expect(err).To(BeNil())
		Expect(records).To(HaveLen(2))
		Expect(records[0].ID).To(BeEquivalentTo(1))
		Expect(records[0].Timestamp.Equal(ts)).To(BeTrue())
		Expect(records[0].UpdatedProperties).To(Equal(earlier.UpdatedProperties))
		Expect(records[1].EventType).To(Equal(event.Type("PAUSE")))
	})
}
