package minio

import (
	"BuzzDaddy/internal/api/config"
	"context"
	"fmt"
	log "log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
)

// Init 初始化 MinIO 客户端，确保归档桶存在并带有过期策略
func Init(cfg config.MinIOConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.ArchiveBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to minio server: %w", err)
	}
	if !exists {
		if err = client.MakeBucket(ctx, cfg.ArchiveBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.ArchiveBucket, err)
		}
		log.Info("minio archive bucket created", "bucket", cfg.ArchiveBucket)
	}

	if cfg.RetentionDays > 0 {
		if err = ensureLifecycle(ctx, client, cfg.ArchiveBucket, cfg.RetentionDays); err != nil {
			return nil, err
		}
	}
	return client, nil
}

func ensureLifecycle(ctx context.Context, client *minio.Client, bucket string, days int) error {
	lcConfig, err := client.GetBucketLifecycle(ctx, bucket)
	if err != nil {
		lcConfig = lifecycle.NewConfiguration()
	}

	for _, rule := range lcConfig.Rules {
		// 状态开启 + 全桶匹配 + 天数一致即视为已配置
		if rule.Status == "Enabled" &&
			int(rule.Expiration.Days) == days &&
			rule.RuleFilter.Prefix == "" {
			log.Info("minio lifecycle rule already present", "bucket", bucket, "ruleID", rule.ID)
			return nil
		}
	}

	lcConfig.Rules = append(lcConfig.Rules, lifecycle.Rule{
		ID:     "BuzzRawArchiveExpiry",
		Status: "Enabled",
		Expiration: lifecycle.Expiration{
			Days: lifecycle.ExpirationDays(days),
		},
	})
	if err = client.SetBucketLifecycle(ctx, bucket, lcConfig); err != nil {
		return fmt.Errorf("set bucket lifecycle failed: %w", err)
	}
	log.Info("minio lifecycle rule added", "bucket", bucket, "days", days)
	return nil
}
