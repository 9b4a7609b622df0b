package es

import "time"

// PostES 写入 ES 的帖子文档
type PostES struct {
	ID             uint64    `json:"id"`
	CampaignID     uint64    `json:"campaign_id"`
	Platform       string    `json:"platform"`
	ExternalID     string    `json:"external_id"`
	URL            string    `json:"url"`
	Author         string    `json:"author"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Keyword        string    `json:"keyword"`
	Status         string    `json:"status"`
	RelevanceScore int       `json:"relevance_score"`
	CreatedAt      time.Time `json:"created_at"`
}

// PostSearchQuery 活动内的全文检索条件
type PostSearchQuery struct {
	CampaignID uint64
	Text       string
	Platform   string
	Status     string
	From       int
	Size       int
}
