package model

import "time"

type Keyword struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	CampaignID uint64    `gorm:"not null;uniqueIndex:uk_campaign_term,priority:1" json:"campaign_id"`
	Term       string    `gorm:"type:varchar(128);not null;uniqueIndex:uk_campaign_term,priority:2" json:"term"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Keyword) TableName() string {
	return "keywords"
}
