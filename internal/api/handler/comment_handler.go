package handler

import (
	"BuzzDaddy/internal/api/dto"
	"BuzzDaddy/internal/pkg/response"
	"BuzzDaddy/internal/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	autopilotSvc service.AutopilotService
}

func NewCommentHandler(autopilotSvc service.AutopilotService) *CommentHandler {
	return &CommentHandler{
		autopilotSvc: autopilotSvc,
	}
}

func (s *CommentHandler) ListComments(c *gin.Context) {
	userID := c.GetUint64("user_id")
	campaignID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var query dto.CommentQueryDTO
	if !bindQuery(c, &query) {
		return
	}

	page, err := s.autopilotSvc.ListComments(c.Request.Context(), userID, campaignID, query.Status, query.Page, query.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

func (s *CommentHandler) ApproveComment(c *gin.Context) {
	userID := c.GetUint64("user_id")
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	comment, err := s.autopilotSvc.ApproveComment(c.Request.Context(), userID, commentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comment)
}

func (s *CommentHandler) EditComment(c *gin.Context) {
	userID := c.GetUint64("user_id")
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	var req dto.EditCommentDTO
	if !bindJSON(c, &req) {
		return
	}

	comment, err := s.autopilotSvc.EditComment(c.Request.Context(), userID, commentID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comment)
}

func (s *CommentHandler) RetryComment(c *gin.Context) {
	userID := c.GetUint64("user_id")
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	comment, err := s.autopilotSvc.RetryComment(c.Request.Context(), userID, commentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comment)
}

func (s *CommentHandler) DeleteComment(c *gin.Context) {
	userID := c.GetUint64("user_id")
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}

	if err := s.autopilotSvc.DeleteComment(c.Request.Context(), userID, commentID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
