package dto

import "time"

// CreateCampaignDTO 创建活动
type CreateCampaignDTO struct {
	Name               string         `json:"name" binding:"required" validate:"min=1,max=255"`
	ProductName        string         `json:"product_name" binding:"required" validate:"min=1,max=255"`
	ProductDescription string         `json:"product_description" validate:"max=4000"`
	ProductURL         string         `json:"product_url" validate:"omitempty,url,max=512"`
	Voice              string         `json:"voice" validate:"max=255"`
	NotifyEmail        string         `json:"notify_email" validate:"omitempty,email"`
	Autopilot          bool           `json:"autopilot"`
	Keywords           []string       `json:"keywords" validate:"max=50,dive,min=1,max=128"`
	Preference         *PreferenceDTO `json:"preference"`
}

// UpdateCampaignDTO 修改活动，nil 字段保持不变
type UpdateCampaignDTO struct {
	Name               *string `json:"name" validate:"omitempty,min=1,max=255"`
	ProductName        *string `json:"product_name" validate:"omitempty,min=1,max=255"`
	ProductDescription *string `json:"product_description" validate:"omitempty,max=4000"`
	ProductURL         *string `json:"product_url" validate:"omitempty,url,max=512"`
	Voice              *string `json:"voice" validate:"omitempty,max=255"`
	NotifyEmail        *string `json:"notify_email" validate:"omitempty,email"`
	Autopilot          *bool   `json:"autopilot"`
	Status             *string `json:"status" validate:"omitempty,oneof=ACTIVE PAUSED"`
}

// KeywordsDTO 整体替换关键词
type KeywordsDTO struct {
	Keywords []string `json:"keywords" binding:"required" validate:"max=50,dive,min=1,max=128"`
}

// PreferenceDTO 发布偏好
type PreferenceDTO struct {
	Platforms       []string `json:"platforms" validate:"max=3,dive,oneof=twitter reddit linkedin"`
	DailyReplyLimit int      `json:"daily_reply_limit" validate:"min=0,max=500"`
	RequireApproval bool     `json:"require_approval"`
	ExcludeTerms    []string `json:"exclude_terms" validate:"max=50,dive,min=1,max=128"`
	Language        string   `json:"language" validate:"omitempty,min=2,max=16"`
}

// CampaignDTO 活动详情
type CampaignDTO struct {
	ID                 uint64         `json:"id"`
	Name               string         `json:"name"`
	ProductName        string         `json:"product_name"`
	ProductDescription string         `json:"product_description"`
	ProductURL         string         `json:"product_url"`
	Voice              string         `json:"voice"`
	NotifyEmail        string         `json:"notify_email"`
	Autopilot          bool           `json:"autopilot"`
	Status             string         `json:"status"`
	Keywords           []string       `json:"keywords"`
	Preference         *PreferenceDTO `json:"preference"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}
