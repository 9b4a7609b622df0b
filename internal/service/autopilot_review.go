package service

import (
	"BuzzDaddy/internal/api/dto"
	"BuzzDaddy/internal/model"
	"BuzzDaddy/internal/pkg/es"
	"BuzzDaddy/internal/pkg/llm"
	"BuzzDaddy/internal/pkg/platform"
	"BuzzDaddy/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
)

func (s *autopilotServiceImpl) ListPosts(ctx context.Context, userID, campaignID uint64, platformName, status string, page, pageSize int) (*dto.PageDTO[*dto.PostDTO], error) {
	if !validPlatformFilter(platformName) || !validStatusFilter(status) {
		return nil, ErrParamInvalid
	}
	if _, err := loadOwnedCampaign(ctx, s.campaignRepo, userID, campaignID); err != nil {
		return nil, err
	}

	p := newPaging(page, pageSize)
	posts, total, err := s.postRepo.ListPosts(ctx, &repository.PostFilter{
		CampaignID: campaignID,
		Platform:   platformName,
		Status:     status,
		Offset:     p.offset(),
		Limit:      p.size,
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to list posts", "campaign_id", campaignID, "err", err)
		return nil, UnExpectedError
	}

	items := make([]*dto.PostDTO, 0, len(posts))
	for _, post := range posts {
		items = append(items, toPostDTO(post))
	}
	return &dto.PageDTO[*dto.PostDTO]{Items: items, Total: total, Page: p.page, PageSize: p.size}, nil
}

// SearchPosts 活动内全文检索，依赖 ES
func (s *autopilotServiceImpl) SearchPosts(ctx context.Context, userID, campaignID uint64, text, platformName, status string, page, pageSize int) (*dto.PageDTO[*dto.PostDTO], error) {
	if s.deps.Indexer == nil {
		return nil, ErrSearchUnavailable
	}
	if !validPlatformFilter(platformName) || !validStatusFilter(status) {
		return nil, ErrParamInvalid
	}
	if _, err := loadOwnedCampaign(ctx, s.campaignRepo, userID, campaignID); err != nil {
		return nil, err
	}

	p := newPaging(page, pageSize)
	if p.offset()+p.size > es.MaxSearchDepth {
		return nil, ErrParamInvalid
	}
	docs, total, err := s.deps.Indexer.Search(ctx, &es.PostSearchQuery{
		CampaignID: campaignID,
		Text:       strings.TrimSpace(text),
		Platform:   platformName,
		Status:     status,
		From:       p.offset(),
		Size:       p.size,
	})
	if err != nil {
		log.ErrorContext(ctx, "post search failed", "campaign_id", campaignID, "err", err)
		return nil, ErrSearchUnavailable
	}

	items := make([]*dto.PostDTO, 0, len(docs))
	for _, doc := range docs {
		items = append(items, &dto.PostDTO{
			ID:             doc.ID,
			CampaignID:     doc.CampaignID,
			Platform:       doc.Platform,
			ExternalID:     doc.ExternalID,
			URL:            doc.URL,
			Author:         doc.Author,
			Title:          doc.Title,
			Content:        doc.Content,
			Keyword:        doc.Keyword,
			RelevanceScore: doc.RelevanceScore,
			Status:         doc.Status,
			CreatedAt:      doc.CreatedAt,
		})
	}
	return &dto.PageDTO[*dto.PostDTO]{Items: items, Total: total, Page: p.page, PageSize: p.size}, nil
}

func (s *autopilotServiceImpl) ListComments(ctx context.Context, userID, campaignID uint64, status string, page, pageSize int) (*dto.PageDTO[*dto.CommentDTO], error) {
	if !validStatusFilter(status) {
		return nil, ErrParamInvalid
	}
	if _, err := loadOwnedCampaign(ctx, s.campaignRepo, userID, campaignID); err != nil {
		return nil, err
	}

	p := newPaging(page, pageSize)
	comments, total, err := s.commentRepo.ListComments(ctx, campaignID, status, p.offset(), p.size)
	if err != nil {
		log.ErrorContext(ctx, "failed to list comments", "campaign_id", campaignID, "err", err)
		return nil, UnExpectedError
	}

	items := make([]*dto.CommentDTO, 0, len(comments))
	for _, comment := range comments {
		items = append(items, toCommentDTO(comment))
	}
	return &dto.PageDTO[*dto.CommentDTO]{Items: items, Total: total, Page: p.page, PageSize: p.size}, nil
}

func (s *autopilotServiceImpl) ApproveComment(ctx context.Context, userID, commentID uint64) (*dto.CommentDTO, error) {
	comment, campaign, err := s.loadOwnedComment(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	if err = s.commentRepo.Approve(ctx, commentID); err != nil {
		return nil, s.commentUpdateError(ctx, commentID, err, ErrCommentNotPending)
	}
	comment.Approved = true
	s.activityService.Record(ctx, campaign.ID, userID, model.ActionCommentApproved, commentRef(comment))
	return toCommentDTO(comment), nil
}

// EditComment 只允许修改待发布评论，长度受平台限制
func (s *autopilotServiceImpl) EditComment(ctx context.Context, userID, commentID uint64, content string) (*dto.CommentDTO, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrParamInvalid
	}
	comment, campaign, err := s.loadOwnedComment(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(content) > llm.CommentLimit(comment.Platform) {
		return nil, ErrParamInvalid
	}
	if err = s.commentRepo.UpdateContent(ctx, commentID, content); err != nil {
		return nil, s.commentUpdateError(ctx, commentID, err, ErrCommentNotPending)
	}
	comment.Content = content
	s.activityService.Record(ctx, campaign.ID, userID, model.ActionCommentEdited, commentRef(comment))
	return toCommentDTO(comment), nil
}

// RetryComment FAILED -> PENDING，下一轮发布时重新尝试
func (s *autopilotServiceImpl) RetryComment(ctx context.Context, userID, commentID uint64) (*dto.CommentDTO, error) {
	comment, campaign, err := s.loadOwnedComment(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.Status != model.StatusFailed {
		return nil, ErrCommentNotFailed
	}
	if err = s.commentRepo.ResetFailed(ctx, comment); err != nil {
		return nil, s.commentUpdateError(ctx, commentID, err, ErrCommentNotFailed)
	}
	s.updateIndexStatus(ctx, comment.PostID, model.StatusPending)
	s.activityService.Record(ctx, campaign.ID, userID, model.ActionCommentRetried, commentRef(comment))
	return toCommentDTO(comment), nil
}

func (s *autopilotServiceImpl) DeleteComment(ctx context.Context, userID, commentID uint64) error {
	comment, campaign, err := s.loadOwnedComment(ctx, userID, commentID)
	if err != nil {
		return err
	}
	if err = s.commentRepo.DeleteComment(ctx, commentID); err != nil {
		return s.commentUpdateError(ctx, commentID, err, ErrCommentNotFound)
	}
	s.activityService.Record(ctx, campaign.ID, userID, model.ActionCommentDeleted, commentRef(comment))
	return nil
}

// loadOwnedComment 评论所属活动不是当前用户的按不存在处理
func (s *autopilotServiceImpl) loadOwnedComment(ctx context.Context, userID, commentID uint64) (*model.Comment, *model.Campaign, error) {
	comment, err := s.commentRepo.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCommentNotFound
		}
		log.ErrorContext(ctx, "failed to load comment", "comment_id", commentID, "err", err)
		return nil, nil, UnExpectedError
	}
	campaign, err := loadOwnedCampaign(ctx, s.campaignRepo, userID, comment.CampaignID)
	if err != nil {
		if errors.Is(err, ErrCampaignNotFound) {
			return nil, nil, ErrCommentNotFound
		}
		return nil, nil, err
	}
	return comment, campaign, nil
}

func (s *autopilotServiceImpl) commentUpdateError(ctx context.Context, commentID uint64, err error, conflict error) error {
	if errors.Is(err, repository.ErrStateConflict) {
		return conflict
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCommentNotFound
	}
	log.ErrorContext(ctx, "failed to update comment", "comment_id", commentID, "err", err)
	return UnExpectedError
}

func commentRef(comment *model.Comment) string {
	return comment.Platform + " comment #" + strconv.FormatUint(comment.ID, 10)
}

func validStatusFilter(status string) bool {
	switch status {
	case "", model.StatusPending, model.StatusPosted, model.StatusFailed:
		return true
	}
	return false
}

func validPlatformFilter(platformName string) bool {
	return platformName == "" || platform.Supported(platformName)
}

func toPostDTO(post *model.Post) *dto.PostDTO {
	out := &dto.PostDTO{
		ID:              post.ID,
		CampaignID:      post.CampaignID,
		Platform:        post.Platform,
		ExternalID:      post.ExternalID,
		URL:             post.URL,
		Author:          post.Author,
		Title:           post.Title,
		Content:         post.Content,
		Keyword:         post.Keyword,
		RelevanceScore:  post.RelevanceScore,
		RelevanceReason: post.RelevanceReason,
		Status:          post.Status,
		PublishedAt:     post.PublishedAt,
		PostedAt:        post.PostedAt,
		CreatedAt:       post.CreatedAt,
	}
	if post.Comment != nil {
		out.Comment = toCommentDTO(post.Comment)
	}
	return out
}

func toCommentDTO(comment *model.Comment) *dto.CommentDTO {
	out := &dto.CommentDTO{
		ID:         comment.ID,
		PostID:     comment.PostID,
		CampaignID: comment.CampaignID,
		Platform:   comment.Platform,
		Content:    comment.Content,
		Status:     comment.Status,
		Approved:   comment.Approved,
		ExternalID: comment.ExternalID,
		Error:      comment.Error,
		Attempts:   comment.Attempts,
		PostedAt:   comment.PostedAt,
		CreatedAt:  comment.CreatedAt,
	}
	if comment.Post != nil {
		out.PostURL = comment.Post.URL
		out.PostTitle = comment.Post.Title
	}
	return out
}
