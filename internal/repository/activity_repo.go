package repository

import (
	"BuzzDaddy/internal/model"
	"context"

	"gorm.io/gorm"
)

type ActivityRepo interface {
	CreateActivity(ctx context.Context, activity *model.ActivityLog) error
	ListActivities(ctx context.Context, campaignID uint64, offset, limit int) ([]*model.ActivityLog, int64, error)
}

type ActivityRepoImpl struct {
	db *gorm.DB
}

func NewActivityRepo(db *gorm.DB) ActivityRepo {
	return &ActivityRepoImpl{
		db: db,
	}
}

func (s *ActivityRepoImpl) CreateActivity(ctx context.Context, activity *model.ActivityLog) error {
	return s.db.WithContext(ctx).Create(activity).Error
}

func (s *ActivityRepoImpl) ListActivities(ctx context.Context, campaignID uint64, offset, limit int) ([]*model.ActivityLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.ActivityLog{}).Where("campaign_id = ?", campaignID).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	activities := make([]*model.ActivityLog, 0)
	err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&activities).Error
	if err != nil {
		return nil, 0, err
	}
	return activities, total, nil
}
