package workorderrest_test

import (
	"coilflow/bizerror"
	"coilflow/clock"
	"coilflow/domain"
	"coilflow/domain/workorder"
	"coilflow/domain/workorder/workorderrest"
	"coilflow/event"
	"coilflow/session"
	"coilflow/testinfra"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

type restFixture struct {
	db     *testinfra.TestDatabase
	router *gin.Engine
}

func newRestFixture() *restFixture {
	db := testinfra.StartTestDatabase("rest")
	store := testinfra.PrepareStore(db)
	testinfra.SeedWorkOrder(store, 1, domain.StatusPending)
	testinfra.SeedWorkOrder(store, 2, domain.StatusDraft, true)

	manager := workorder.NewWorkOrderManager(store, clock.NewManualClock(testinfra.FixtureTime), nil)
	router := gin.New()
	router.Use(bizerror.ErrorHandling())
	workorderrest.RegisterWorkOrdersRestAPI(router, manager, session.ActorFilter())
	return &restFixture{db: db, router: router}
}

func (f *restFixture) close() {
	testinfra.StopTestDatabase(f.db)
}

func (f *restFixture) do(method, path, body string, headers ...string) (int, string) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, workorderrest.PathWorkOrders+path, nil)
	} else {
		req = httptest.NewRequest(method, workorderrest.PathWorkOrders+path, strings.NewReader(body))
	}
	req.Header.Set(session.HeaderActorID, "u1")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	status, respBody, _ := testinfra.ExecuteRequest(req, f.router)
	return status, respBody
}

func decodeWorkOrder(body string) domain.WorkOrder {
	wo := domain.WorkOrder{}
	Expect(json.Unmarshal([]byte(body), &wo)).To(Succeed())
	return wo
}

func TestWorkOrdersRestAPI(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should reject requests without actor", func(t *testing.T) {
		f := newRestFixture()
		defer f.close()

		req := httptest.NewRequest(http.MethodPost, workorderrest.PathWorkOrders+"/1/start", nil)
		status, body, _ := testinfra.ExecuteRequest(req, f.router)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(MatchJSON(`{"code":"common.unauthenticated","message":"unauthenticated","data":null}`))
	})

	t.Run("should validate path and headers", func(t *testing.T) {
		f := newRestFixture()
		defer f.close()

		status, body := f.do(http.MethodPost, "/abc/start", "")
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"invalid id 'abc'","data":{"param":"id"}}`))

		status, body = f.do(http.MethodPost, "/1/start", "", workorderrest.HeaderIfMatch, "v1")
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"invalid If-Match version 'v1'","data":{"param":"If-Match"}}`))
	})

	t.Run("should return not found for unknown work orders", func(t *testing.T) {
		f := newRestFixture()
		defer f.close()

		status, body := f.do(http.MethodGet, "/404", "")
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(body).To(MatchJSON(`{"code":"work_order.not_found","message":"work order not found","data":null}`))
	})

	t.Run("should validate bodies", func(t *testing.T) {
		f := newRestFixture()
		defer f.close()

		status, body := f.do(http.MethodPut, "/2/coil", "")
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"EOF","data":null}`))

		status, body = f.do(http.MethodPut, "/2/coil", `{"inventoryId":"INV-A"}`)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(ContainSubstring(`'ItemID' failed on the 'required' tag`))

		status, _ = f.do(http.MethodPut, "/2/schedule", `{"end":"2021-03-01T10:00:00Z"}`)
		Expect(status).To(Equal(http.StatusBadRequest))

		status, body = f.do(http.MethodPost, "/1/start", `xx`)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"invalid character 'x' looking for beginning of value","data":null}`))
	})

	t.Run("should assign a coil and schedule a draft", func(t *testing.T) {
		f := newRestFixture()
		defer f.close()

		status, body := f.do(http.MethodPut, "/2/coil", `{"inventoryId":"INV-B","tagNumber":"TAG-B","itemId":"ITEM-1","weight":800}`)
		Expect(status).To(Equal(http.StatusOK))
		wo := decodeWorkOrder(body)
		Expect(wo.Status).To(Equal(domain.StatusDraft))
		Expect(wo.Coil.InventoryID).To(Equal("INV-B"))
		Expect(wo.Version).To(Equal(int64(2)))

		status, body = f.do(http.MethodPut, "/2/schedule", `{"start":"2021-03-01T09:00:00Z","end":"2021-03-01T10:00:00Z"}`)
		Expect(status).To(Equal(http.StatusOK))
		wo = decodeWorkOrder(body)
		Expect(wo.Status).To(Equal(domain.StatusPending))
		Expect(wo.ScheduledStart.Equal(testinfra.FixtureTime.Add(time.Hour))).To(BeTrue())
	})

	t.Run("should drive the lifecycle with version preconditions", func(t *testing.T) {
		f := newRestFixture()
		defer f.close()

		status, body := f.do(http.MethodPost, "/1/start", "", workorderrest.HeaderIfMatch, `"1"`)
		Expect(status).To(Equal(http.StatusOK))
		Expect(decodeWorkOrder(body).Status).To(Equal(domain.StatusInProgress))

		swap := `{"coil":{"inventoryId":"INV-B","itemId":"ITEM-1","weight":800},"reason":"SWAP_DEFECTIVE","note":"edge crack","endWeight":640}`
		status, body = f.do(http.MethodPost, "/1/coil-swaps", swap, workorderrest.HeaderIfMatch, "1")
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(MatchJSON(`{"code":"work_order.concurrency_conflict","message":"work order was modified concurrently","data":null}`))

		status, body = f.do(http.MethodPost, "/1/coil-swaps", swap, workorderrest.HeaderIfMatch, `W/"2"`)
		Expect(status).To(Equal(http.StatusOK))
		wo := decodeWorkOrder(body)
		Expect(wo.Version).To(Equal(int64(3)))
		Expect(wo.Coil.InventoryID).To(Equal("INV-A"))

		status, _ = f.do(http.MethodPost, "/1/pause", `{"note":"lunch"}`)
		Expect(status).To(Equal(http.StatusOK))

		status, body = f.do(http.MethodPost, "/1/complete", `{"endWeight":100,"toLocation":"SCRAP"}`)
		Expect(status).To(Equal(http.StatusOK))
		Expect(decodeWorkOrder(body).Status).To(Equal(domain.StatusCompleted))

		status, body = f.do(http.MethodPost, "/1/resume", "")
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(ContainSubstring(`"code":"work_order.invalid_transition"`))

		status, body = f.do(http.MethodGet, "/1", "")
		Expect(status).To(Equal(http.StatusOK))
		detail := workorder.Detail{}
		Expect(json.Unmarshal([]byte(body), &detail)).To(Succeed())
		Expect(detail.Status).To(Equal(domain.StatusCompleted))
		Expect(detail.SwapCount).To(Equal(1))
		Expect(detail.Usages).To(HaveLen(2))
		Expect(*detail.Usages[0].ConsumedWeight).To(Equal(360.0))
		Expect(*detail.Usages[1].ConsumedWeight).To(Equal(700.0))
		Expect(detail.Usages[1].ToLocation).To(Equal("SCRAP"))

		status, body = f.do(http.MethodGet, "/1/events", "")
		Expect(status).To(Equal(http.StatusOK))
		events := []event.AuditEvent{}
		Expect(json.Unmarshal([]byte(body), &events)).To(Succeed())
		Expect(events).To(HaveLen(4))
		Expect(events[1].Note).To(Equal("edge crack"))
		Expect(events[2].Note).To(Equal("lunch"))
		Expect(events[3].ActorID).To(Equal("u1"))
	})
}

type failingManager struct {
	workorder.WorkOrderManagerTraits
}

func (failingManager) Detail(ctx context.Context, id types.ID) (*workorder.Detail, error) {
	return nil, errors.New("some error")
}

func TestWorkOrdersRestAPIErrors(t *testing.T) {
	RegisterTestingT(t)

	router := gin.New()
	router.Use(bizerror.ErrorHandling())
	workorderrest.RegisterWorkOrdersRestAPI(router, failingManager{})

	req := httptest.NewRequest(http.MethodGet, workorderrest.PathWorkOrders+"/1", nil)
	status, body, _ := testinfra.ExecuteRequest(req, router)
	Expect(status).To(Equal(http.StatusInternalServerError))
	Expect(body).To(MatchJSON(`{"code":"common.internal_server_error","message":"some error","data":null}`))
}
