package model

import (
	"time"
)

const (
	StatusPending = "PENDING"
	StatusPosted  = "POSTED"
	StatusFailed  = "FAILED"
)

const (
	PlatformTwitter  = "twitter"
	PlatformReddit   = "reddit"
	PlatformLinkedIn = "linkedin"
)

// Post 抓取到的社交平台帖子
type Post struct {
	ID              uint64     `gorm:"primaryKey" json:"id"`
	CampaignID      uint64     `gorm:"not null;uniqueIndex:uk_campaign_platform_external,priority:1;index:idx_post_campaign_status,priority:1" json:"campaign_id"`
	Platform        string     `gorm:"type:varchar(16);not null;uniqueIndex:uk_campaign_platform_external,priority:2" json:"platform"`
	ExternalID      string     `gorm:"type:varchar(128);not null;uniqueIndex:uk_campaign_platform_external,priority:3" json:"external_id"`
	URL             string     `gorm:"type:varchar(1024)" json:"url"`
	Author          string     `gorm:"type:varchar(255)" json:"author"`
	Title           string     `gorm:"type:varchar(512)" json:"title"`
	Content         string     `gorm:"type:text;not null" json:"content"`
	Keyword         string     `gorm:"type:varchar(128)" json:"keyword"`
	RelevanceScore  int        `gorm:"not null;default:0" json:"relevance_score"`
	RelevanceReason string     `gorm:"type:varchar(1024)" json:"relevance_reason"`
	Status          string     `gorm:"type:varchar(16);not null;default:PENDING;index:idx_post_campaign_status,priority:2" json:"status"`
	PublishedAt     *time.Time `json:"published_at"`
	PostedAt        *time.Time `json:"posted_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Comment *Comment `gorm:"foreignKey:PostID;references:ID" json:"comment,omitempty"`
}

func (Post) TableName() string {
	return "posts"
}
