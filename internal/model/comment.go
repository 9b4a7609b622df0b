package model

import (
	"time"
)

// Comment AI 生成的回复
type Comment struct {
	ID         uint64     `gorm:"primaryKey" json:"id"`
	PostID     uint64     `gorm:"not null;uniqueIndex:uk_post_id" json:"post_id"`
	CampaignID uint64     `gorm:"not null;index:idx_comment_campaign_status,priority:1" json:"campaign_id"`
	Platform   string     `gorm:"type:varchar(16);not null" json:"platform"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	Status     string     `gorm:"type:varchar(16);not null;default:PENDING;index:idx_comment_campaign_status,priority:2" json:"status"`
	Approved   bool       `gorm:"not null;default:false" json:"approved"`
	ExternalID string     `gorm:"type:varchar(128)" json:"external_id"`
	Error      string     `gorm:"type:varchar(1024)" json:"error"`
	Attempts   int        `gorm:"not null;default:0" json:"attempts"`
	PostedAt   *time.Time `gorm:"index:idx_comment_posted_at" json:"posted_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Post *Post `gorm:"foreignKey:PostID;references:ID" json:"-"`
}

func (Comment) TableName() string {
	return "comments"
}
