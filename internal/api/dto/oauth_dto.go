package dto

import "time"

// AccountDTO 已授权的社交账号
type AccountDTO struct {
	Platform    string    `json:"platform"`
	AccountID   string    `json:"account_id"`
	AccountName string    `json:"account_name"`
	Scope       string    `json:"scope"`
	Expiry      time.Time `json:"expiry"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ConnectDTO 授权跳转地址
type ConnectDTO struct {
	URL string `json:"url"`
}
