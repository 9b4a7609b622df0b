package model

import (
	"time"
)

const (
	CampaignStatusActive = "ACTIVE"
	CampaignStatusPaused = "PAUSED"
)

type Campaign struct {
	ID                 uint64    `gorm:"primaryKey" json:"id"`
	UserID             uint64    `gorm:"not null;index:idx_campaign_user_id" json:"user_id"`
	Name               string    `gorm:"type:varchar(255);not null" json:"name"`
	ProductName        string    `gorm:"type:varchar(255);not null" json:"product_name"`
	ProductDescription string    `gorm:"type:text" json:"product_description"`
	ProductURL         string    `gorm:"type:varchar(512)" json:"product_url"`
	Voice              string    `gorm:"type:varchar(255)" json:"voice"` // 回复语气，如 friendly / expert
	NotifyEmail        string    `gorm:"type:varchar(255)" json:"notify_email"`
	Autopilot          bool      `gorm:"not null;default:false" json:"autopilot"`
	Status             string    `gorm:"type:varchar(16);not null;default:ACTIVE;index:idx_campaign_status" json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	// 关联关系
	Keywords   []Keyword       `gorm:"foreignKey:CampaignID;references:ID" json:"keywords"`
	Preference *PostPreference `gorm:"foreignKey:CampaignID;references:ID" json:"preference"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// Terms 返回关键词文本列表
func (c *Campaign) Terms() []string {
	terms := make([]string, 0, len(c.Keywords))
	for _, k := range c.Keywords {
		terms = append(terms, k.Term)
	}
	return terms
}
