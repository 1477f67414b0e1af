package bizerror

import (
	"coilflow/common"
	"coilflow/domain"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// RetryAfterSeconds is advertised on responses to errors a client may simply retry.
const RetryAfterSeconds = "1"

func ErrorHandling() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handle(c)
		c.Next()
	}
}

func handle(c *gin.Context) {
	if ret := recover(); ret != nil {
		err, ok := ret.(error)
		if !ok {
			err = fmt.Errorf("%v", ret)
		}
		HandleError(c, err)
	} else {
		if err := c.Errors.Last(); err != nil {
			HandleError(c, err)
		}
	}
}

func HandleError(c *gin.Context, err error) {
	var ginErr *gin.Error
	if errors.As(err, &ginErr) {
		err = ginErr.Err
	}

	status, body := classify(err)

	entry := logrus.WithFields(logrus.Fields{"path": c.Request.URL.Path, "status": status})
	if status >= http.StatusInternalServerError {
		entry.Error(err)
	} else {
		entry.Warn(err)
	}

	if domain.IsRetryable(err) {
		c.Header("Retry-After", RetryAfterSeconds)
	}
	c.JSON(status, body)
	c.Abort()
}

// classify maps an error to the response status and body, first match wins.
func classify(err error) (int, *common.ErrorBody) {
	var bizErr common.BizError
	if errors.As(err, &bizErr) {
		respond := bizErr.Respond()
		return respond.Status, respond.Body()
	}

	// no body
	if errors.Is(err, io.EOF) {
		return http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.body_not_found", Message: "body not found"}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.invalid_body_format", Message: "invalid body format", Data: syntaxErr.Error()}
	}
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.validation_failed", Message: "validation failed", Data: validationErr.Error()}
	}

	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, &common.ErrorBody{Code: "common.unauthenticated", Message: "unauthenticated"}
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, &common.ErrorBody{Code: "security.forbidden", Message: "access forbidden"}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, &common.ErrorBody{Code: "common.record_not_found", Message: "record not found"}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, &common.ErrorBody{Code: "common.timeout", Message: err.Error()}
	}

	return http.StatusInternalServerError, &common.ErrorBody{Code: "common.internal_server_error", Message: err.Error()}
}
