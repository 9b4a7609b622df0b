package repository

import (
	"BuzzDaddy/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter 帖子列表筛选，空字段不过滤
type PostFilter struct {
	CampaignID uint64
	Platform   string
	Status     string
	Offset     int
	Limit      int
}

type PostRepo interface {
	CreatePostIfAbsent(ctx context.Context, post *model.Post) (bool, error)
	ExistingExternalIDs(ctx context.Context, campaignID uint64, platform string, externalIDs []string) (map[string]struct{}, error)
	GetPost(ctx context.Context, id uint64) (*model.Post, error)
	ListPosts(ctx context.Context, filter *PostFilter) ([]*model.Post, int64, error)
	UpdatePostStatus(ctx context.Context, id uint64, status string, postedAt *time.Time) error
}

type PostRepoImpl struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) PostRepo {
	return &PostRepoImpl{
		db: db,
	}
}

// CreatePostIfAbsent 同一活动同一平台的帖子只保存一次，返回是否新插入
func (s *PostRepoImpl) CreatePostIfAbsent(ctx context.Context, post *model.Post) (bool, error) {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(post)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *PostRepoImpl) ExistingExternalIDs(ctx context.Context, campaignID uint64, platform string, externalIDs []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(externalIDs) == 0 {
		return existing, nil
	}

	var ids []string
	err := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("campaign_id = ? AND platform = ? AND external_id IN ?", campaignID, platform, externalIDs).
		Pluck("external_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		existing[id] = struct{}{}
	}
	return existing, nil
}

func (s *PostRepoImpl) GetPost(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	if err := s.db.WithContext(ctx).Preload("Comment").First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *PostRepoImpl) ListPosts(ctx context.Context, filter *PostFilter) ([]*model.Post, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Post{}).Where("campaign_id = ?", filter.CampaignID)
	if filter.Platform != "" {
		query = query.Where("platform = ?", filter.Platform)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	posts := make([]*model.Post, 0)
	err := query.Preload("Comment").
		Order("id DESC").
		Offset(filter.Offset).Limit(filter.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *PostRepoImpl) UpdatePostStatus(ctx context.Context, id uint64, status string, postedAt *time.Time) error {
	return s.db.WithContext(ctx).Model(&model.Post{ID: id}).
		Updates(map[string]any{"status": status, "posted_at": postedAt}).Error
}
