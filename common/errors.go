package common

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrForbidden = errors.New("forbidden")

// BizError is implemented by errors that carry their own response.
type BizError interface {
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

func (d *BizErrorDetail) Body() *ErrorBody {
	return &ErrorBody{Code: d.Code, Message: d.Message, Data: d.Data}
}

type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrBadParam rejects a request argument. Param names the offending argument and is echoed
// to the client as {"param": ...}, an empty Param leaves the data out.
type ErrBadParam struct {
	Param string
	Cause error
}

// BadParam names the rejected argument and formats the reason.
func BadParam(param, format string, args ...interface{}) *ErrBadParam {
	return &ErrBadParam{Param: param, Cause: fmt.Errorf(format, args...)}
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}

func (e *ErrBadParam) Error() string {
	if e.Cause == nil {
		return "common.bad_param"
	}
	return e.Cause.Error()
}

func (e *ErrBadParam) Respond() *BizErrorDetail {
	detail := &BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: e.Error(), Cause: e.Cause}
	if e.Param != "" {
		detail.Data = map[string]string{"param": e.Param}
	}
	return detail
}
