package wire

import (
	"BuzzDaddy/internal/api"
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/api/handler"
	"BuzzDaddy/internal/job"
	"BuzzDaddy/internal/pkg/consts"
	"BuzzDaddy/internal/pkg/cron"
	"BuzzDaddy/internal/pkg/database"
	"BuzzDaddy/internal/pkg/email"
	"BuzzDaddy/internal/pkg/es"
	"BuzzDaddy/internal/pkg/kafka"
	"BuzzDaddy/internal/pkg/llm"
	"BuzzDaddy/internal/pkg/minio"
	"BuzzDaddy/internal/pkg/mongo"
	"BuzzDaddy/internal/pkg/platform"
	"BuzzDaddy/internal/pkg/redis"
	"BuzzDaddy/internal/pkg/scraper"
	"BuzzDaddy/internal/pkg/security"
	"BuzzDaddy/internal/repository"
	"BuzzDaddy/internal/service"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	miniogo "github.com/minio/minio-go/v7"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Infrastructure 外部存储连接，可选组件未配置时为 nil
type Infrastructure struct {
	DB      *gorm.DB
	Mongo   *mongodrv.Database
	MinIO   *miniogo.Client
	Elastic *elasticsearch.TypedClient
}

// InitInfrastructure 建立数据库、Redis 与可选存储的连接，并初始化模型客户端
func InitInfrastructure(cfg *config.Config) (*Infrastructure, error) {
	dbCfg := cfg.DB
	db, err := database.NewGormDB(&dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}
	infra := &Infrastructure{DB: db}

	if err = redis.InitRedis(cfg.Redis); err != nil {
		return nil, fmt.Errorf("failed to create redis connection: %w", err)
	}

	if cfg.Mongo.URL != "" {
		if infra.Mongo, err = mongo.InitMongo(cfg.Mongo); err != nil {
			return nil, fmt.Errorf("failed to create mongo connection: %w", err)
		}
	} else {
		log.Warn("mongo is not configured, llm traces disabled")
	}

	if cfg.MinIO.Endpoint != "" {
		if infra.MinIO, err = minio.Init(cfg.MinIO); err != nil {
			return nil, fmt.Errorf("failed to initialize minio: %w", err)
		}
	} else {
		log.Warn("minio is not configured, raw archive disabled")
	}

	if cfg.Elastic.Address != "" {
		if infra.Elastic, err = es.InitClient(cfg.Elastic); err != nil {
			return nil, fmt.Errorf("failed to initialize elasticsearch: %w", err)
		}
	} else {
		log.Warn("elasticsearch is not configured, post search disabled")
	}

	var recorder llm.TraceRecorder
	if infra.Mongo != nil {
		recorder = mongo.NewTraceRecorder(mongo.NewLLMTraceRepo(infra.Mongo))
	}
	if err = llm.InitLLM(cfg.LLM, recorder); err != nil {
		return nil, fmt.Errorf("failed to initialize llm: %w", err)
	}

	security.InitJWT(cfg.Security.JWTSecret)
	return infra, nil
}

// Close 释放连接
func (i *Infrastructure) Close() {
	if i.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := i.Mongo.Client().Disconnect(ctx); err != nil {
			log.Error("Failed to disconnect mongo", "err", err)
		}
	}
	if redis.Rdb != nil {
		_ = redis.Rdb.Close()
	}
	if i.DB != nil {
		if sqlDB, err := i.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	AutopilotSvc service.AutopilotService
	CronMgr      *cron.Manager
	KafkaManager *kafka.ConsumerManager
	closers      []func()
}

// Close 关闭生产者与浏览器等进程内资源
func (a *ApplicationContainer) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func BuildApplication(infra *Infrastructure, cfg *config.Config) (*ApplicationContainer, error) {
	db := infra.DB
	app := &ApplicationContainer{DB: db}

	campaignRepo := repository.NewCampaignRepo(db)
	postRepo := repository.NewPostRepo(db)
	commentRepo := repository.NewCommentRepo(db)
	activityRepo := repository.NewActivityRepo(db)
	tokenRepo := repository.NewOAuthTokenRepo(db)

	var traceRepo mongo.LLMTraceRepo
	if infra.Mongo != nil {
		traceRepo = mongo.NewLLMTraceRepo(infra.Mongo)
	}

	cipher, err := security.NewTokenCipher(cfg.Security.TokenKey)
	if err != nil {
		return nil, fmt.Errorf("invalid security.token_key: %w", err)
	}

	registry := platform.NewRegistryFromConfig(cfg)
	activitySvc := service.NewActivityService(activityRepo, campaignRepo, traceRepo)
	campaignSvc := service.NewCampaignService(campaignRepo, activitySvc)
	oauthSvc := service.NewOAuthService(cfg, tokenRepo, registry, cipher, redis.NewStateStore())

	web := scraper.NewScraper(cfg.Scraper)
	app.closers = append(app.closers, web.Close)

	deps := service.AutopilotDeps{
		Locker:  redis.NewRunLocker(),
		Limiter: redis.NewRateLimiter(cfg.Autopilot.RateLimits, time.Duration(cfg.Autopilot.RateWindowSeconds)*time.Second),
		Seen:    redis.NewSeenFilter(time.Duration(cfg.Autopilot.SeenTTLHours) * time.Hour),
		Fetcher: web,
		Tokens:  oauthSvc,
	}
	if infra.MinIO != nil {
		deps.Archiver = minio.NewRawArchiver(infra.MinIO, cfg.MinIO.ArchiveBucket)
	}
	if infra.Elastic != nil {
		deps.Indexer = es.NewPostRepo(infra.Elastic, cfg.Elastic.PostIndex)
	}
	if cfg.Email.Enable {
		sender, err := email.NewSESSender(cfg.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to create ses sender: %w", err)
		}
		deps.Notifier = service.NewNotifyService(sender)
	}

	autopilotSvc := service.NewAutopilotService(
		cfg.Autopilot,
		campaignRepo,
		postRepo,
		commentRepo,
		activitySvc,
		registry,
		llm.NewAutopilotLLM(),
		deps,
	)
	app.AutopilotSvc = autopilotSvc

	if cfg.Kafka.Enable {
		dispatcher, err := kafka.NewDispatcher(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() {
			if err := dispatcher.Close(); err != nil {
				log.Error("Failed to close kafka producer", "err", err)
			}
		})
		autopilotSvc.SetDispatcher(dispatcher)

		if app.KafkaManager, err = kafka.NewConsumerManager(cfg.Kafka, autopilotSvc); err != nil {
			return nil, err
		}
	}

	app.CronMgr = cron.NewCronManager(
		cron.Schedule{Spec: cfg.Autopilot.FetchCron, Job: job.NewAutopilotJob(consts.StageFetch, autopilotSvc)},
		cron.Schedule{Spec: cfg.Autopilot.PostCron, Job: job.NewAutopilotJob(consts.StagePost, autopilotSvc)},
	)

	handlers := &api.HandlersGroup{
		CampaignHandler: handler.NewCampaignHandler(campaignSvc, autopilotSvc, activitySvc),
		PostHandler:     handler.NewPostHandler(autopilotSvc),
		CommentHandler:  handler.NewCommentHandler(autopilotSvc),
		OAuthHandler:    handler.NewOAuthHandler(oauthSvc),
		CronHandler:     handler.NewCronHandler(autopilotSvc),
	}
	app.Router = api.SetupRouter(handlers, api.RouterOptions{
		CronSecret:     cfg.Server.CronSecret,
		LogIndex:       cfg.Logstash.Index,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	return app, nil
}
