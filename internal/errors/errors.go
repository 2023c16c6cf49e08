package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogf/gf/v2/os/gctx"
	"github.com/gogf/gf/v2/os/gtime"
)

type IFastRelayError interface {
	Unwrap() error
	Status() int
	ErrCode() any
	ErrMessage() string
	ErrType() string
	ErrParam() any
}

type FastRelayError struct {
	Err *ApiError `json:"error,omitempty"`
}

type ApiError struct {
	HttpStatusCode int    `json:"-"`
	Code           any    `json:"code,omitempty"`
	Message        string `json:"message"`
	Type           string `json:"type"`
	Param          any    `json:"param,omitempty"`
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("statusCode: %d, code: %v, message: %s", e.HttpStatusCode, e.Code, e.Message)
}

var (
	ERR_NIL                  = NewError(500, -1, "", "fastrelay_error", nil)
	ERR_UNKNOWN              = NewError(500, -1, "Unknown Error.", "fastrelay_error", nil)
	ERR_INTERNAL_ERROR       = NewError(500, 500, "Internal Error.", "fastrelay_error", nil)
	ERR_NO_AVAILABLE_ACCOUNT = NewError(503, "no_available_account", "No available account.", "fastrelay_error", nil)
	ERR_NO_CREDENTIAL        = NewError(500, "no_credential", "Account has no usable credential.", "fastrelay_error", nil)
	ERR_INVALID_API_KEY      = NewError(401, "invalid_api_key", "Incorrect API key provided or has been disabled.", "fastrelay_request_error", nil)
	ERR_NOT_FOUND            = NewError(404, "unknown_url", "Unknown request URL.", "fastrelay_request_error", nil)
)

func NewError(status int, code any, message, typ string, param any) error {
	return &FastRelayError{
		Err: &ApiError{
			HttpStatusCode: status,
			Code:           code,
			Message:        message,
			Type:           typ,
			Param:          param,
		},
	}
}

func NewErrorf(status int, code any, message, typ string, param any, args ...interface{}) error {
	return &FastRelayError{
		Err: &ApiError{
			HttpStatusCode: status,
			Code:           code,
			Message:        fmt.Sprintf(message, args...),
			Type:           typ,
			Param:          param,
		},
	}
}

// NoAvailableAccount 带平台与模型信息的无可用账号错误, errors.Is可匹配ERR_NO_AVAILABLE_ACCOUNT
func NoAvailableAccount(platform, model string) error {

	e := ERR_NO_AVAILABLE_ACCOUNT.(IFastRelayError)

	switch {
	case platform != "" && model != "":
		return NewErrorf(e.Status(), e.ErrCode(), "No available %s account supports model %s.", e.ErrType(), platform, platform, model)
	case model != "":
		return NewErrorf(e.Status(), e.ErrCode(), "No available account supports model %s.", e.ErrType(), model, model)
	case platform != "":
		return NewErrorf(e.Status(), e.ErrCode(), "No available %s account.", e.ErrType(), platform, platform)
	}

	return ERR_NO_AVAILABLE_ACCOUNT
}

// Error 转换为对外错误, 附带TraceId
func Error(ctx context.Context, err error) IFastRelayError {

	if err == nil {
		return ERR_NIL.(IFastRelayError)
	}

	if e, ok := err.(IFastRelayError); ok {
		return NewErrorf(e.Status(), e.ErrCode(), "%s TraceId: %s Timestamp: %d", e.ErrType(), e.ErrParam(), e.ErrMessage(), gctx.CtxId(ctx), gtime.TimestampMilli()).(IFastRelayError)
	}

	// 未知的错误, 用统一描述处理
	e := ERR_UNKNOWN.(IFastRelayError)

	return NewErrorf(e.Status(), e.ErrCode(), "%s TraceId: %s Timestamp: %d", e.ErrType(), e.ErrParam(), e.ErrMessage(), gctx.CtxId(ctx), gtime.TimestampMilli()).(IFastRelayError)
}

func (e *FastRelayError) Error() string {
	return fmt.Sprintf("statusCode: %d, code: %v, message: %s", e.Err.HttpStatusCode, e.Err.Code, e.Err.Message)
}

// Is 同错误码同类型视为同一错误
func (e *FastRelayError) Is(target error) bool {

	t, ok := target.(*FastRelayError)
	if !ok || t == nil || t.Err == nil || e.Err == nil {
		return false
	}

	return e.Err.Code == t.Err.Code && e.Err.Type == t.Err.Type
}

func (e *FastRelayError) Unwrap() error {
	return e.Err
}

func (e *FastRelayError) Status() int {
	return e.Err.HttpStatusCode
}

func (e *FastRelayError) ErrCode() any {
	return e.Err.Code
}

func (e *FastRelayError) ErrMessage() string {
	return e.Err.Message
}

func (e *FastRelayError) ErrType() string {
	return e.Err.Type
}

func (e *FastRelayError) ErrParam() any {
	return e.Err.Param
}

func New(text string) error {
	return errors.New(text)
}

func Newf(format string, args ...interface{}) error {
	return errors.New(fmt.Sprintf(format, args...))
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}
