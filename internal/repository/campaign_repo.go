package repository

import (
	"BuzzDaddy/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CampaignRepo interface {
	CreateCampaign(ctx context.Context, campaign *model.Campaign) error
	GetCampaign(ctx context.Context, id uint64) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, userID uint64, offset, limit int) ([]*model.Campaign, int64, error)
	ListAutopilotCampaigns(ctx context.Context) ([]*model.Campaign, error)
	UpdateCampaign(ctx context.Context, campaign *model.Campaign) error
	DeleteCampaign(ctx context.Context, id uint64) error
	ReplaceKeywords(ctx context.Context, campaignID uint64, terms []string) ([]model.Keyword, error)
	UpsertPreference(ctx context.Context, pref *model.PostPreference) error
}

type CampaignRepoImpl struct {
	db *gorm.DB
}

func NewCampaignRepo(db *gorm.DB) CampaignRepo {
	return &CampaignRepoImpl{
		db: db,
	}
}

// CreateCampaign 连同关键词和偏好一起写入
func (s *CampaignRepoImpl) CreateCampaign(ctx context.Context, campaign *model.Campaign) error {
	return s.db.WithContext(ctx).Create(campaign).Error
}

func (s *CampaignRepoImpl) GetCampaign(ctx context.Context, id uint64) (*model.Campaign, error) {
	var campaign model.Campaign
	err := s.db.WithContext(ctx).Preload("Keywords").Preload("Preference").First(&campaign, id).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (s *CampaignRepoImpl) ListCampaigns(ctx context.Context, userID uint64, offset, limit int) ([]*model.Campaign, int64, error) {
	var total int64
	query := s.db.WithContext(ctx).Model(&model.Campaign{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	campaigns := make([]*model.Campaign, 0)
	err := query.Preload("Keywords").Preload("Preference").
		Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&campaigns).Error
	if err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// ListAutopilotCampaigns 开启自动驾驶且处于 ACTIVE 的活动
func (s *CampaignRepoImpl) ListAutopilotCampaigns(ctx context.Context) ([]*model.Campaign, error) {
	campaigns := make([]*model.Campaign, 0)
	err := s.db.WithContext(ctx).
		Where("autopilot = ? AND status = ?", true, model.CampaignStatusActive).
		Order("id ASC").
		Find(&campaigns).Error
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}

// UpdateCampaign 只更新基础字段，关联关系走单独接口
func (s *CampaignRepoImpl) UpdateCampaign(ctx context.Context, campaign *model.Campaign) error {
	result := s.db.WithContext(ctx).
		Model(&model.Campaign{ID: campaign.ID}).
		Select("name", "product_name", "product_description", "product_url", "voice", "notify_email", "autopilot", "status").
		Updates(campaign)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteCampaign 删除活动及其帖子、评论、关键词、偏好，活动日志保留
func (s *CampaignRepoImpl) DeleteCampaign(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("campaign_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", id).Delete(&model.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", id).Delete(&model.Keyword{}).Error; err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", id).Delete(&model.PostPreference{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Campaign{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ReplaceKeywords 整体替换关键词
func (s *CampaignRepoImpl) ReplaceKeywords(ctx context.Context, campaignID uint64, terms []string) ([]model.Keyword, error) {
	keywords := make([]model.Keyword, 0, len(terms))
	for _, term := range terms {
		keywords = append(keywords, model.Keyword{CampaignID: campaignID, Term: term})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("campaign_id = ?", campaignID).Delete(&model.Keyword{}).Error; err != nil {
			return err
		}
		if len(keywords) == 0 {
			return nil
		}
		return tx.Create(&keywords).Error
	})
	if err != nil {
		return nil, err
	}
	return keywords, nil
}

func (s *CampaignRepoImpl) UpsertPreference(ctx context.Context, pref *model.PostPreference) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}},
		UpdateAll: true,
	}).Create(pref).Error
}
