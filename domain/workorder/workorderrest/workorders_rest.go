package workorderrest

import (
	"coilflow/common"
	"coilflow/domain"
	"coilflow/domain/workorder"
	"coilflow/session"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	PathWorkOrders = "/v1/work-orders"
)

const HeaderIfMatch = "If-Match"

// OperationBody is the optional body of the plain lifecycle operations.
type OperationBody struct {
	Note       string   `json:"note" validate:"max=1024"`
	EndWeight  *float64 `json:"endWeight" validate:"omitempty,gte=0"`
	ToLocation string   `json:"toLocation" validate:"max=64"`
}

type ScheduleBody struct {
	Start *time.Time `json:"start" validate:"required"`
	End   *time.Time `json:"end"`
}

type CoilSwapBody struct {
	Coil       domain.Coil       `json:"coil"`
	Reason     domain.SwapReason `json:"reason" validate:"required"`
	Note       string            `json:"note" validate:"max=1024"`
	EndWeight  *float64          `json:"endWeight" validate:"omitempty,gte=0"`
	ToLocation string            `json:"toLocation" validate:"max=64"`
}

type operationFunc func(ctx context.Context, id types.ID, actorID string, opts ...workorder.Option) (*domain.WorkOrder, error)

func RegisterWorkOrdersRestAPI(r gin.IRouter, m workorder.WorkOrderManagerTraits, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathWorkOrders, middleWares...)

	h := &workOrderHandler{manager: m, validator: validator.New()}

	g.GET(":id", h.handleDetail)
	g.GET(":id/events", h.handleHistory)
	g.PUT(":id/coil", h.handleAssignCoil)
	g.PUT(":id/schedule", h.handleSchedule)
	g.POST(":id/start", h.operation(m.Start))
	g.POST(":id/pause", h.operation(m.Pause))
	g.POST(":id/resume", h.operation(m.Resume))
	g.POST(":id/complete", h.operation(m.Complete))
	g.POST(":id/cancel", h.operation(m.Cancel))
	g.POST(":id/coil-swaps", h.handleSwapCoil)
}

type workOrderHandler struct {
	manager   workorder.WorkOrderManagerTraits
	validator *validator.Validate
}

func (h *workOrderHandler) handleDetail(c *gin.Context) {
	detail, err := h.manager.Detail(c.Request.Context(), parseID(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

func (h *workOrderHandler) handleHistory(c *gin.Context) {
	events, err := h.manager.History(c.Request.Context(), parseID(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, events)
}

func (h *workOrderHandler) handleAssignCoil(c *gin.Context) {
	id := parseID(c)
	coil := domain.Coil{}
	h.bindBody(c, &coil)

	wo, err := h.manager.AssignCoil(c.Request.Context(), id, coil, session.ExtractActorID(c), preconditions(c)...)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, wo)
}

func (h *workOrderHandler) handleSchedule(c *gin.Context) {
	id := parseID(c)
	body := ScheduleBody{}
	h.bindBody(c, &body)

	wo, err := h.manager.Schedule(c.Request.Context(), id, *body.Start, body.End, session.ExtractActorID(c), preconditions(c)...)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, wo)
}

func (h *workOrderHandler) operation(op operationFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := parseID(c)
		body := OperationBody{}
		if c.Request.ContentLength != 0 {
			h.bindBody(c, &body)
		}

		opts := append(preconditions(c), workorder.WithCloseOut(body.EndWeight, body.ToLocation))
		if body.Note != "" {
			opts = append(opts, workorder.WithNote(body.Note))
		}
		wo, err := op(c.Request.Context(), id, session.ExtractActorID(c), opts...)
		if err != nil {
			panic(err)
		}
		c.JSON(http.StatusOK, wo)
	}
}

func (h *workOrderHandler) handleSwapCoil(c *gin.Context) {
	id := parseID(c)
	body := CoilSwapBody{}
	h.bindBody(c, &body)

	opts := append(preconditions(c), workorder.WithCloseOut(body.EndWeight, body.ToLocation))
	wo, err := h.manager.SwapCoil(c.Request.Context(), id, body.Coil, body.Reason, body.Note, session.ExtractActorID(c), opts...)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, wo)
}

func (h *workOrderHandler) bindBody(c *gin.Context, obj interface{}) {
	if err := c.ShouldBindBodyWith(obj, binding.JSON); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
	if err := h.validator.Struct(obj); err != nil {
		panic(&common.ErrBadParam{Cause: err})
	}
}

func parseID(c *gin.Context) types.ID {
	id, err := types.ParseID(c.Param("id"))
	if err != nil || id == 0 {
		panic(common.BadParam("id", "invalid id '%s'", c.Param("id")))
	}
	return id
}

// preconditions turns an If-Match header ("3", "\"3\"" or "W/\"3\"") into a version precondition.
func preconditions(c *gin.Context) []workorder.Option {
	raw := strings.TrimSpace(c.GetHeader(HeaderIfMatch))
	if raw == "" {
		return nil
	}
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version <= 0 {
		panic(common.BadParam(HeaderIfMatch, "invalid If-Match version '%s'", c.GetHeader(HeaderIfMatch)))
	}
	return []workorder.Option{workorder.IfVersion(version)}
}
