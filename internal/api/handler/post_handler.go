package handler

import (
	"BuzzDaddy/internal/api/dto"
	"BuzzDaddy/internal/pkg/response"
	"BuzzDaddy/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	autopilotSvc service.AutopilotService
}

func NewPostHandler(autopilotSvc service.AutopilotService) *PostHandler {
	return &PostHandler{
		autopilotSvc: autopilotSvc,
	}
}

func (s *PostHandler) ListPosts(c *gin.Context) {
	userID := c.GetUint64("user_id")
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var query dto.PostQueryDTO
	if !bindQuery(c, &query) {
		return
	}

	page, err := s.autopilotSvc.ListPosts(c.Request.Context(), userID, campaignID, query.Platform, query.Status, query.Page, query.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *PostHandler) SearchPosts(c *gin.Context) {
	userID := c.GetUint64("user_id")
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var query dto.PostQueryDTO
	if !bindQuery(c, &query) {
		return
	}

	page, err := s.autopilotSvc.SearchPosts(c.Request.Context(), userID, campaignID, query.Q, query.Platform, query.Status, query.Page, query.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}
