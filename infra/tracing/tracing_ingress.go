package tracing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// HeaderActorID mirrors the session header, it is copied to the span when present.
const HeaderActorID = "X-Actor-Id"

// TracingIngress starts a server span per request, continuing the caller's trace when one is propagated.
func TracingIngress() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tracer := opentracing.GlobalTracer()
		spanCtx, _ := tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(ctx.Request.Header))

		// route templates keep work order ids out of operation names
		route := ctx.FullPath()
		if route == "" {
			route = ctx.Request.URL.Path
		}
		span := tracer.StartSpan(ctx.Request.Method+" "+route, ext.RPCServerOption(spanCtx))
		defer span.Finish()
		ext.HTTPMethod.Set(span, ctx.Request.Method)
		ext.HTTPUrl.Set(span, ctx.Request.RequestURI)
		if actorID := ctx.GetHeader(HeaderActorID); actorID != "" {
			span.SetTag("actorId", actorID)
		}

		ctx.Request = ctx.Request.WithContext(opentracing.ContextWithSpan(ctx.Request.Context(), span))
		ctx.Next()

		status := ctx.Writer.Status()
		ext.HTTPStatusCode.Set(span, uint16(status))
		if status >= http.StatusInternalServerError {
			ext.Error.Set(span, true)
		}
	}
}
