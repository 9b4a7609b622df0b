package es

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/pkg/logger"
	"context"
	log "log/slog"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
)

const (
	NotFoundCode = 404
	ConflictCode = 409
)

// InitClient 初始化 Elasticsearch 客户端并确保帖子索引存在
func InitClient(cfg config.ElasticConfig) (*elasticsearch.TypedClient, error) {
	client, err := elasticsearch.NewTypedClient(elasticsearch.Config{
		Addresses: []string{cfg.Address},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: logger.NewHTTPTransport("elasticsearch", true),
	})
	if err != nil {
		log.Error("Cannot Connect to Elasticsearch", "err", err)
		return nil, err
	}

	ctx := context.Background()
	info, err := client.Info().Do(ctx)
	if err != nil {
		log.Error("Cannot Connect to Elasticsearch", "err", err)
		return nil, err
	}
	log.Info("Connected to Elasticsearch", "version", info.Version.Int)

	if err = EnsurePostIndex(ctx, client, cfg.PostIndex); err != nil {
		return nil, err
	}
	return client, nil
}

// EnsurePostIndex 索引不存在时按固定 mapping 创建
func EnsurePostIndex(ctx context.Context, client *elasticsearch.TypedClient, index string) error {
	exists, err := client.Indices.Exists(index).Do(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = client.Indices.Create(index).
		Mappings(&types.TypeMapping{
			Properties: map[string]types.Property{
				"id":              types.NewLongNumberProperty(),
				"campaign_id":     types.NewLongNumberProperty(),
				"platform":        types.NewKeywordProperty(),
				"external_id":     types.NewKeywordProperty(),
				"status":          types.NewKeywordProperty(),
				"keyword":         types.NewKeywordProperty(),
				"author":          types.NewKeywordProperty(),
				"url":             types.NewKeywordProperty(),
				"title":           types.NewTextProperty(),
				"content":         types.NewTextProperty(),
				"relevance_score": types.NewIntegerNumberProperty(),
				"created_at":      types.NewDateProperty(),
			},
		}).
		Do(ctx)
	if err != nil {
		log.Error("create post index failed", "index", index, "err", err)
		return err
	}
	log.Info("post index created", "index", index)
	return nil
}
