package dto

// PageQueryDTO 通用分页参数
type PageQueryDTO struct {
	Page     int `form:"page" validate:"min=0"`
	PageSize int `form:"page_size" validate:"min=0,max=100"`
}

// PostQueryDTO 帖子列表与搜索
type PostQueryDTO struct {
	PageQueryDTO
	Platform string `form:"platform" validate:"omitempty,oneof=twitter reddit linkedin"`
	Status   string `form:"status" validate:"omitempty,oneof=PENDING POSTED FAILED"`
	Q        string `form:"q" validate:"max=256"`
}

// CommentQueryDTO 评论列表
type CommentQueryDTO struct {
	PageQueryDTO
	Status string `form:"status" validate:"omitempty,oneof=PENDING POSTED FAILED"`
}

type TraceQueryDTO struct {
	PageQueryDTO
	Kind string `form:"kind" validate:"omitempty,oneof=post_filter comment_generate"`
}

// CronQueryDTO campaign_id 为空时执行全部活动
type CronQueryDTO struct {
	CampaignID uint64 `form:"campaign_id"`
}
