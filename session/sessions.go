package session

import (
	"coilflow/bizerror"
	"strings"

	"github.com/gin-gonic/gin"
)

const HeaderActorID = "X-Actor-Id"
const KeyActorID = "ActorID"

// ActorFilter rejects requests that do not name the acting user.
func ActorFilter() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		actorID := strings.TrimSpace(ctx.GetHeader(HeaderActorID))
		if actorID == "" {
			panic(bizerror.ErrUnauthenticated)
		}
		ctx.Set(KeyActorID, actorID)
		ctx.Next()
	}
}

func ExtractActorID(ctx *gin.Context) string {
	value, found := ctx.Get(KeyActorID)
	if !found {
		return ""
	}
	actorID, ok := value.(string)
	if !ok {
		return ""
	}
	return actorID
}
