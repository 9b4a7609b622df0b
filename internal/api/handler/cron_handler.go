package handler

import (
	"BuzzDaddy/internal/api/dto"
	"BuzzDaddy/internal/pkg/consts"
	"BuzzDaddy/internal/pkg/response"
	"BuzzDaddy/internal/service"

	"github.com/gin-gonic/gin"
)

// CronHandler 供外部调度器调用的触发入口
type CronHandler struct {
	autopilotSvc service.AutopilotService
}

func NewCronHandler(autopilotSvc service.AutopilotService) *CronHandler {
	return &CronHandler{
		autopilotSvc: autopilotSvc,
	}
}

func (s *CronHandler) Fetch(c *gin.Context) {
	s.run(c, consts.StageFetch)
}

func (s *CronHandler) Post(c *gin.Context) {
	s.run(c, consts.StagePost)
}

// run 指定 campaign_id 时只执行该活动，返回单个 TaskResult，否则返回 RunAllReport
func (s *CronHandler) run(c *gin.Context, stage string) {
	var query dto.CronQueryDTO
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if query.CampaignID != 0 {
		result, err := s.autopilotSvc.DispatchCampaign(c.Request.Context(), query.CampaignID, stage)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, result)
		return
	}

	report, err := s.autopilotSvc.RunAll(c.Request.Context(), stage)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, report)
}
