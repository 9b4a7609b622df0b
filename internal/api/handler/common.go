package handler

import (
	"BuzzDaddy/internal/pkg/response"
	"BuzzDaddy/internal/pkg/util"
	"BuzzDaddy/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

// pathID 解析路径中的数字 id，失败时直接写回参数错误
func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, service.ErrParamInvalid)
		return 0, false
	}
	return id, true
}

// bindQuery 绑定并校验查询参数
func bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		response.Error(c, err)
		return false
	}
	if err := util.ValidateDTO(obj); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return false
	}
	return true
}

// bindJSON 绑定并校验请求体
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		response.Error(c, err)
		return false
	}
	if err := util.ValidateDTO(obj); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return false
	}
	return true
}
