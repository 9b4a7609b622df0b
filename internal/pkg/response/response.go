package response

import (
	"BuzzDaddy/internal/api/dto"
	"BuzzDaddy/internal/service"
	"errors"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	Ok                  = 200
	BadRequest          = service.BadRequest
	Unauthorized        = service.Unauthorized
	Forbidden           = service.Forbidden
	NotFound            = service.NotFound
	InternalServerError = service.InternalServerError
)

// Success 成功返回封装
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, dto.Response{
		Code:    Ok,
		Message: "success",
		Data:    data,
	})
}

// Fail 失败返回封装
func Fail(c *gin.Context, businessCode int, message string) {
	c.JSON(http.StatusOK, dto.Response{
		Code:    businessCode,
		Message: message,
		Data:    nil,
	})
}

// Error 处理错误
func Error(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		Fail(c, BadRequest, "invalid parameters")
		return
	}

	var unmarshalTypeError *json.UnmarshalTypeError
	if errors.As(err, &unmarshalTypeError) {
		Fail(c, BadRequest, "invalid json")
		return
	}

	for target, code := range service.ErrorMap {
		if errors.Is(err, target) {
			Fail(c, code, target.Error())
			return
		}
	}
	log.ErrorContext(c.Request.Context(), "unexpected error", "err", err)
	Fail(c, InternalServerError, service.UnExpectedError.Error())
}
