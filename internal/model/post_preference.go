package model

import "time"

type PostPreference struct {
	CampaignID      uint64    `gorm:"primaryKey;autoIncrement:false" json:"campaign_id"`
	Platforms       []string  `gorm:"type:json;serializer:json" json:"platforms"`
	DailyReplyLimit int       `gorm:"not null;default:0" json:"daily_reply_limit"` // 0 表示使用全局默认值
	RequireApproval bool      `gorm:"not null;default:false" json:"require_approval"`
	ExcludeTerms    []string  `gorm:"type:json;serializer:json" json:"exclude_terms"`
	Language        string    `gorm:"type:varchar(16)" json:"language"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (PostPreference) TableName() string {
	return "post_preferences"
}

// HasPlatform 判断是否开启了某个平台
func (p *PostPreference) HasPlatform(platform string) bool {
	if p == nil {
		return false
	}
	for _, name := range p.Platforms {
		if name == platform {
			return true
		}
	}
	return false
}
