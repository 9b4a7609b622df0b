package api

import (
	"BuzzDaddy/internal/api/middleware"
	"BuzzDaddy/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(group *HandlersGroup, opts RouterOptions) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS & Metrics
	r.Use(middleware.TraceMiddleware())
	logger.SetupGin(r, opts.LogIndex)
	r.Use(middleware.CORSMiddleware(opts.AllowedOrigins))
	r.Use(middleware.MetricsMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		cronGroup := apiGroup.Group("/cron/autopilot")
		cronGroup.Use(middleware.CronAuthMiddleware(opts.CronSecret))
		{
			cronGroup.GET("/fetch", group.CronHandler.Fetch)
			cronGroup.GET("/post", group.CronHandler.Post)
		}

		campaignGroup := apiGroup.Group("/campaigns")
		campaignGroup.Use(middleware.AuthMiddleware(), middleware.AuditMiddleware())
		{
			campaignGroup.POST("", group.CampaignHandler.CreateCampaign)
			campaignGroup.GET("", group.CampaignHandler.ListCampaigns)
			campaignGroup.GET("/:id", group.CampaignHandler.GetCampaign)
			campaignGroup.PUT("/:id", group.CampaignHandler.UpdateCampaign)
			campaignGroup.DELETE("/:id", group.CampaignHandler.DeleteCampaign)
			campaignGroup.PUT("/:id/keywords", group.CampaignHandler.SetKeywords)
			campaignGroup.PUT("/:id/preference", group.CampaignHandler.SetPreference)
			campaignGroup.POST("/:id/autopilot/fetch", group.CampaignHandler.TriggerFetch)
			campaignGroup.POST("/:id/autopilot/post", group.CampaignHandler.TriggerPost)
			campaignGroup.GET("/:id/activities", group.CampaignHandler.ListActivities)
			campaignGroup.GET("/:id/traces", group.CampaignHandler.ListTraces)

			campaignGroup.GET("/:id/posts", group.PostHandler.ListPosts)
			campaignGroup.GET("/:id/posts/search", group.PostHandler.SearchPosts)
			campaignGroup.GET("/:id/comments", group.CommentHandler.ListComments)
		}

		commentGroup := apiGroup.Group("/comments")
		commentGroup.Use(middleware.AuthMiddleware(), middleware.AuditMiddleware())
		{
			commentGroup.POST("/:comment_id/approve", group.CommentHandler.ApproveComment)
			commentGroup.PUT("/:comment_id", group.CommentHandler.EditComment)
			commentGroup.POST("/:comment_id/retry", group.CommentHandler.RetryComment)
			commentGroup.DELETE("/:comment_id", group.CommentHandler.DeleteComment)
		}

		oauthGroup := apiGroup.Group("/oauth")
		{
			// 平台回调没有登录态
			oauthGroup.GET("/:platform/callback", group.OAuthHandler.Callback)

			authGroup := oauthGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.GET("/accounts", group.OAuthHandler.ListAccounts)
				authGroup.GET("/:platform/connect", group.OAuthHandler.Connect)
				authGroup.DELETE("/:platform", group.OAuthHandler.Disconnect)
			}
		}
	}

	return r
}
