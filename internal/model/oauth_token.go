package model

import "time"

// OAuthToken 用户授权的社交平台令牌，AccessToken/RefreshToken 为密文
type OAuthToken struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	UserID       uint64    `gorm:"not null;uniqueIndex:uk_user_platform,priority:1" json:"user_id"`
	Platform     string    `gorm:"type:varchar(16);not null;uniqueIndex:uk_user_platform,priority:2" json:"platform"`
	AccountID    string    `gorm:"type:varchar(128)" json:"account_id"`
	AccountName  string    `gorm:"type:varchar(255)" json:"account_name"`
	AccessToken  string    `gorm:"type:text;not null" json:"-"`
	RefreshToken string    `gorm:"type:text" json:"-"`
	TokenType    string    `gorm:"type:varchar(32)" json:"token_type"`
	Scope        string    `gorm:"type:varchar(512)" json:"scope"`
	Expiry       time.Time `json:"expiry"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (OAuthToken) TableName() string {
	return "oauth_tokens"
}
