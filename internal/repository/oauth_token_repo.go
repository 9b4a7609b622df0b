package repository

import (
	"BuzzDaddy/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OAuthTokenRepo interface {
	UpsertToken(ctx context.Context, token *model.OAuthToken) error
	GetToken(ctx context.Context, userID uint64, platform string) (*model.OAuthToken, error)
	ListTokens(ctx context.Context, userID uint64) ([]*model.OAuthToken, error)
	DeleteToken(ctx context.Context, userID uint64, platform string) error
}

type OAuthTokenRepoImpl struct {
	db *gorm.DB
}

func NewOAuthTokenRepo(db *gorm.DB) OAuthTokenRepo {
	return &OAuthTokenRepoImpl{
		db: db,
	}
}

// UpsertToken 以 (user_id, platform) 为键覆盖写入，令牌须已加密
func (s *OAuthTokenRepoImpl) UpsertToken(ctx context.Context, token *model.OAuthToken) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_id", "account_name", "access_token", "refresh_token", "token_type", "scope", "expiry", "updated_at",
		}),
	}).Create(token).Error
}

func (s *OAuthTokenRepoImpl) GetToken(ctx context.Context, userID uint64, platform string) (*model.OAuthToken, error) {
	var token model.OAuthToken
	err := s.db.WithContext(ctx).Where("user_id = ? AND platform = ?", userID, platform).First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (s *OAuthTokenRepoImpl) ListTokens(ctx context.Context, userID uint64) ([]*model.OAuthToken, error) {
	tokens := make([]*model.OAuthToken, 0)
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("platform ASC").Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *OAuthTokenRepoImpl) DeleteToken(ctx context.Context, userID uint64, platform string) error {
	result := s.db.WithContext(ctx).Where("user_id = ? AND platform = ?", userID, platform).Delete(&model.OAuthToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
