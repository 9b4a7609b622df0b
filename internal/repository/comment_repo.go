package repository

import (
	"BuzzDaddy/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type CommentRepo interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, id uint64) (*model.Comment, error)
	ListComments(ctx context.Context, campaignID uint64, status string, offset, limit int) ([]*model.Comment, int64, error)
	ListPostable(ctx context.Context, campaignID uint64, requireApproval bool, limit int) ([]*model.Comment, error)
	MarkPosted(ctx context.Context, comment *model.Comment, externalID string, at time.Time) error
	RecordExternalID(ctx context.Context, id uint64, externalID string) error
	MarkFailed(ctx context.Context, comment *model.Comment, reason string) error
	ResetFailed(ctx context.Context, comment *model.Comment) error
	Approve(ctx context.Context, id uint64) error
	UpdateContent(ctx context.Context, id uint64, content string) error
	DeleteComment(ctx context.Context, id uint64) error
	CountPostedSince(ctx context.Context, campaignID uint64, since time.Time) (int64, error)
}

type CommentRepoImpl struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) CommentRepo {
	return &CommentRepoImpl{
		db: db,
	}
}

func (s *CommentRepoImpl) CreateComment(ctx context.Context, comment *model.Comment) error {
	return s.db.WithContext(ctx).Create(comment).Error
}

func (s *CommentRepoImpl) GetComment(ctx context.Context, id uint64) (*model.Comment, error) {
	var comment model.Comment
	if err := s.db.WithContext(ctx).Preload("Post").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *CommentRepoImpl) ListComments(ctx context.Context, campaignID uint64, status string, offset, limit int) ([]*model.Comment, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Comment{}).Where("campaign_id = ?", campaignID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	comments := make([]*model.Comment, 0)
	err := query.Preload("Post").
		Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// ListPostable 待发布评论，按创建顺序；需要审核时只取已审核的
func (s *CommentRepoImpl) ListPostable(ctx context.Context, campaignID uint64, requireApproval bool, limit int) ([]*model.Comment, error) {
	query := s.db.WithContext(ctx).
		Where("campaign_id = ? AND status = ?", campaignID, model.StatusPending)
	if requireApproval {
		query = query.Where("approved = ?", true)
	}

	comments := make([]*model.Comment, 0)
	err := query.Preload("Post").Order("id ASC").Limit(limit).Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// MarkPosted PENDING -> POSTED，帖子状态同步
func (s *CommentRepoImpl) MarkPosted(ctx context.Context, comment *model.Comment, externalID string, at time.Time) error {
	err := s.transition(ctx, comment, model.StatusPending, map[string]any{
		"status":      model.StatusPosted,
		"external_id": externalID,
		"posted_at":   at,
		"error":       "",
		"attempts":    gorm.Expr("attempts + 1"),
	}, map[string]any{
		"status":    model.StatusPosted,
		"posted_at": at,
	})
	if err != nil {
		return err
	}
	comment.Status = model.StatusPosted
	comment.ExternalID = externalID
	comment.PostedAt = &at
	comment.Error = ""
	comment.Attempts++
	return nil
}

// RecordExternalID 仅记录平台回复 ID，评论保持 PENDING，下次发布时直接结算而不重发
func (s *CommentRepoImpl) RecordExternalID(ctx context.Context, id uint64, externalID string) error {
	result := s.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		Update("external_id", externalID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

// MarkFailed PENDING -> FAILED，帖子状态同步
func (s *CommentRepoImpl) MarkFailed(ctx context.Context, comment *model.Comment, reason string) error {
	err := s.transition(ctx, comment, model.StatusPending, map[string]any{
		"status":   model.StatusFailed,
		"error":    reason,
		"attempts": gorm.Expr("attempts + 1"),
	}, map[string]any{
		"status": model.StatusFailed,
	})
	if err != nil {
		return err
	}
	comment.Status = model.StatusFailed
	comment.Error = reason
	comment.Attempts++
	return nil
}

// ResetFailed FAILED -> PENDING，用于手动重试
func (s *CommentRepoImpl) ResetFailed(ctx context.Context, comment *model.Comment) error {
	err := s.transition(ctx, comment, model.StatusFailed, map[string]any{
		"status": model.StatusPending,
		"error":  "",
	}, map[string]any{
		"status": model.StatusPending,
	})
	if err != nil {
		return err
	}
	comment.Status = model.StatusPending
	comment.Error = ""
	return nil
}

func (s *CommentRepoImpl) transition(ctx context.Context, comment *model.Comment, from string, commentUpdates, postUpdates map[string]any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Comment{}).
			Where("id = ? AND status = ?", comment.ID, from).
			Updates(commentUpdates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStateConflict
		}
		return tx.Model(&model.Post{}).Where("id = ?", comment.PostID).Updates(postUpdates).Error
	})
}

func (s *CommentRepoImpl) Approve(ctx context.Context, id uint64) error {
	return s.updatePending(ctx, id, map[string]any{"approved": true})
}

func (s *CommentRepoImpl) UpdateContent(ctx context.Context, id uint64, content string) error {
	return s.updatePending(ctx, id, map[string]any{"content": content})
}

func (s *CommentRepoImpl) updatePending(ctx context.Context, id uint64, updates map[string]any) error {
	result := s.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

func (s *CommentRepoImpl) DeleteComment(ctx context.Context, id uint64) error {
	result := s.db.WithContext(ctx).Delete(&model.Comment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountPostedSince 统计某时间点之后已发布的评论数，用于每日上限
func (s *CommentRepoImpl) CountPostedSince(ctx context.Context, campaignID uint64, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Comment{}).
		Where("campaign_id = ? AND status = ? AND posted_at >= ?", campaignID, model.StatusPosted, since).
		Count(&count).Error
	return count, err
}
