package handler

import (
	"BuzzDaddy/internal/api/dto"
	"BuzzDaddy/internal/pkg/consts"
	"BuzzDaddy/internal/pkg/response"
	"BuzzDaddy/internal/service"

	"github.com/gin-gonic/gin"
)

type CampaignHandler struct {
	campaignSvc  service.CampaignService
	autopilotSvc service.AutopilotService
	activitySvc  service.ActivityService
}

func NewCampaignHandler(
	campaignSvc service.CampaignService,
	autopilotSvc service.AutopilotService,
	activitySvc service.ActivityService,
) *CampaignHandler {
	return &CampaignHandler{
		campaignSvc:  campaignSvc,
		autopilotSvc: autopilotSvc,
		activitySvc:  activitySvc,
	}
}

func (s *CampaignHandler) CreateCampaign(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var req dto.CreateCampaignDTO
	if !bindJSON(c, &req) {
		return
	}

	campaign, err := s.campaignSvc.CreateCampaign(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, campaign)
}

func (s *CampaignHandler) ListCampaigns(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var query dto.PageQueryDTO
	if !bindQuery(c, &query) {
		return
	}

	page, err := s.campaignSvc.ListCampaigns(c.Request.Context(), userID, query.Page, query.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *CampaignHandler) GetCampaign(c *gin.Context) {
	userID := c.GetUint64("user_id")
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}

	campaign, err := s.campaignSvc.GetCampaign(c.Request.Context(), userID, campaignID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, campaign)
}

func (s *CampaignHandler) UpdateCampaign(c *gin.Context) {
	userID := c.GetUint64("user_id")
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateCampaignDTO
	if !bindJSON(c, &req) {
		return
	}

	campaign, err := s.campaignSvc.UpdateCampaign(c.Request.Context(), userID, campaignID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, campaign)
}

func (s *CampaignHandler) DeleteCampaign(c *gin.Context) {
	userID := c.GetUint64("user_id")
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.campaignSvc.DeleteCampaign(c.Request.Context(), userID, campaignID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *CampaignHandler) SetKeywords(c *gin.Context) {
	userID := c.GetUint64("user_id")
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.KeywordsDTO
	if !bindJSON(c, &req) {
		return
	}

	terms, err := s.campaignSvc.SetKeywords(c.Request.Context(), userID, campaignID, req.Keywords)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, terms)
}

func (s *CampaignHandler) SetPreference(c *gin.Context) {
	userID := c.GetUint64("user_id")
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.PreferenceDTO
	if !bindJSON(c, &req) {
		return
	}

	pref, err := s.campaignSvc.SetPreference(c.Request.Context(), userID, campaignID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, pref)
}

func (s *CampaignHandler) TriggerFetch(c *gin.Context) {
	s.trigger(c, consts.StageFetch)
}

func (s *CampaignHandler) TriggerPost(c *gin.Context) {
	s.trigger(c, consts.StagePost)
}

// trigger 手动执行一个阶段，阶段内的失败通过 TaskResult 返回
func (s *CampaignHandler) trigger(c *gin.Context, stage string) {
	userID := c.GetUint64("user_id")
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := s.autopilotSvc.TriggerStage(c.Request.Context(), userID, campaignID, stage)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (s *CampaignHandler) ListActivities(c *gin.Context) {
	userID := c.GetUint64("user_id")
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var query dto.PageQueryDTO
	if !bindQuery(c, &query) {
		return
	}

	page, err := s.activitySvc.ListActivities(c.Request.Context(), userID, campaignID, query.Page, query.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *CampaignHandler) ListTraces(c *gin.Context) {
	userID := c.GetUint64("user_id")
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var query dto.TraceQueryDTO
	if !bindQuery(c, &query) {
		return
	}

	traces, err := s.activitySvc.ListTraces(c.Request.Context(), userID, campaignID, query.Kind, query.Page, query.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, traces)
}
