package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// ObjectPutter 归档需要的最小 MinIO 能力
type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// RawArchiver 保存搜索接口返回的原始响应，便于排查筛选结果
type RawArchiver struct {
	client ObjectPutter
	bucket string
	now    func() time.Time
}

func NewRawArchiver(client ObjectPutter, bucket string) *RawArchiver {
	return &RawArchiver{client: client, bucket: bucket, now: time.Now}
}

// Archive 写入 raw/{campaign}/{platform}/{date}/{uuid}.json，返回对象名
func (a *RawArchiver) Archive(ctx context.Context, campaignID uint64, platform string, payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", nil
	}
	objectName := ObjectName(campaignID, platform, a.now())
	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive raw payload: %w", err)
	}
	return objectName, nil
}

func ObjectName(campaignID uint64, platform string, at time.Time) string {
	return fmt.Sprintf("raw/%d/%s/%s/%s.json", campaignID, platform, at.UTC().Format("2006-01-02"), uuid.NewString())
}
