package api

import "BuzzDaddy/internal/api/handler"

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	CampaignHandler *handler.CampaignHandler
	PostHandler     *handler.PostHandler
	CommentHandler  *handler.CommentHandler
	OAuthHandler    *handler.OAuthHandler
	CronHandler     *handler.CronHandler
}

// RouterOptions 路由层需要的配置
type RouterOptions struct {
	CronSecret     string
	LogIndex       string
	AllowedOrigins []string
}
