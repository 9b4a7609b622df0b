package handler

import (
	"BuzzDaddy/internal/api/dto"
	"BuzzDaddy/internal/pkg/response"
	"BuzzDaddy/internal/service"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type OAuthHandler struct {
	oauthSvc service.OAuthService
}

func NewOAuthHandler(oauthSvc service.OAuthService) *OAuthHandler {
	return &OAuthHandler{
		oauthSvc: oauthSvc,
	}
}

// Connect 返回授权地址，redirect=1 时直接跳转
func (s *OAuthHandler) Connect(c *gin.Context) {
	userID := c.GetUint64("user_id")

	authURL, err := s.oauthSvc.AuthURL(c.Request.Context(), userID, c.Param("platform"))
	if err != nil {
		response.Error(c, err)
		return
	}

	if c.Query("redirect") == "1" {
		c.Redirect(http.StatusFound, authURL)
		return
	}
	response.Success(c, dto.ConnectDTO{URL: authURL})
}

// Callback 授权平台回调，不需要登录态，用户身份来自 state
func (s *OAuthHandler) Callback(c *gin.Context) {
	if reason := c.Query("error"); reason != "" {
		log.WarnContext(c.Request.Context(), "oauth authorization denied",
			"platform", c.Param("platform"),
			"error", reason,
			"description", c.Query("error_description"))
		response.Fail(c, response.BadRequest, "authorization denied: "+reason)
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	account, err := s.oauthSvc.Callback(c.Request.Context(), c.Param("platform"), code, state)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, account)
}

func (s *OAuthHandler) ListAccounts(c *gin.Context) {
	userID := c.GetUint64("user_id")

	accounts, err := s.oauthSvc.ListAccounts(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, accounts)
}

func (s *OAuthHandler) Disconnect(c *gin.Context) {
	userID := c.GetUint64("user_id")

	if err := s.oauthSvc.Disconnect(c.Request.Context(), userID, c.Param("platform")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
