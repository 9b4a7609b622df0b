package model

import "time"

const (
	ActionCampaignCreated   = "campaign_created"
	ActionCampaignUpdated   = "campaign_updated"
	ActionCampaignDeleted   = "campaign_deleted"
	ActionKeywordsUpdated   = "keywords_updated"
	ActionPreferenceUpdated = "preference_updated"
	ActionPostsFetched      = "posts_fetched"
	ActionCommentPosted     = "comment_posted"
	ActionCommentFailed     = "comment_failed"
	ActionCommentApproved   = "comment_approved"
	ActionCommentEdited     = "comment_edited"
	ActionCommentRetried    = "comment_retried"
	ActionCommentDeleted    = "comment_deleted"
)

type ActivityLog struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	CampaignID uint64    `gorm:"not null;index:idx_activity_campaign_id" json:"campaign_id"`
	UserID     uint64    `gorm:"not null" json:"user_id"`
	Action     string    `gorm:"type:varchar(50);not null" json:"action"`
	Detail     string    `gorm:"type:varchar(1024)" json:"detail"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
