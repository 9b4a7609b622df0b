package dto

import "time"

// PostDTO 抓取并通过筛选的帖子
type PostDTO struct {
	ID              uint64      `json:"id"`
	CampaignID      uint64      `json:"campaign_id"`
	Platform        string      `json:"platform"`
	ExternalID      string      `json:"external_id"`
	URL             string      `json:"url"`
	Author          string      `json:"author"`
	Title           string      `json:"title"`
	Content         string      `json:"content"`
	Keyword         string      `json:"keyword"`
	RelevanceScore  int         `json:"relevance_score"`
	RelevanceReason string      `json:"relevance_reason"`
	Status          string      `json:"status"`
	PublishedAt     *time.Time  `json:"published_at"`
	PostedAt        *time.Time  `json:"posted_at"`
	CreatedAt       time.Time   `json:"created_at"`
	Comment         *CommentDTO `json:"comment,omitempty"`
}

// CommentDTO AI 回复
type CommentDTO struct {
	ID         uint64     `json:"id"`
	PostID     uint64     `json:"post_id"`
	CampaignID uint64     `json:"campaign_id"`
	Platform   string     `json:"platform"`
	Content    string     `json:"content"`
	Status     string     `json:"status"`
	Approved   bool       `json:"approved"`
	ExternalID string     `json:"external_id"`
	Error      string     `json:"error"`
	Attempts   int        `json:"attempts"`
	PostedAt   *time.Time `json:"posted_at"`
	CreatedAt  time.Time  `json:"created_at"`
	PostURL    string     `json:"post_url,omitempty"`
	PostTitle  string     `json:"post_title,omitempty"`
}

// EditCommentDTO 修改待发布评论
type EditCommentDTO struct {
	Content string `json:"content" binding:"required" validate:"min=1,max=10000"`
}
