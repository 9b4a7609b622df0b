package llm

import (
	"BuzzDaddy/internal/model"
	"BuzzDaddy/internal/pkg/util"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"

	"github.com/goccy/go-json"
)

const maxCandidateContentRunes = 1500

// 各平台评论长度上限（按 rune 计）
var commentLimits = map[string]int{
	model.PlatformTwitter:  280,
	model.PlatformReddit:   10000,
	model.PlatformLinkedIn: 1250,
}

var ErrEmptyComment = errors.New("llm generated an empty comment")

// CampaignBrief 传给模型的产品介绍
type CampaignBrief struct {
	CampaignID         uint64   `json:"-"`
	ProductName        string   `json:"product_name"`
	ProductDescription string   `json:"product_description"`
	ProductURL         string   `json:"product_url,omitempty"`
	Voice              string   `json:"voice,omitempty"`
	Language           string   `json:"language,omitempty"`
	Keywords           []string `json:"keywords"`
}

// Candidate 待筛选的帖子
type Candidate struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Title    string `json:"title,omitempty"`
	Content  string `json:"content"`
	Author   string `json:"author,omitempty"`
	URL      string `json:"url,omitempty"`
}

// FilterVerdict 模型认为相关的帖子
type FilterVerdict struct {
	ID     string `json:"id"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

type filterResponse struct {
	Relevant []*FilterVerdict `json:"relevant"`
}

type commentResponse struct {
	Comment string `json:"comment"`
}

// AutopilotLLM 自动驾驶流水线用到的模型能力
type AutopilotLLM interface {
	FilterPosts(ctx context.Context, brief *CampaignBrief, batch []*Candidate) ([]*FilterVerdict, error)
	GenerateComment(ctx context.Context, brief *CampaignBrief, post *Candidate) (string, error)
}

type autopilotLLMImpl struct{}

func NewAutopilotLLM() AutopilotLLM {
	return &autopilotLLMImpl{}
}

// FilterPosts 一次性判断一批帖子的相关性
func (s *autopilotLLMImpl) FilterPosts(ctx context.Context, brief *CampaignBrief, batch []*Candidate) ([]*FilterVerdict, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	posts := make([]*Candidate, 0, len(batch))
	for _, c := range batch {
		cp := *c
		cp.Content = util.TruncateRunes(cp.Content, maxCandidateContentRunes)
		posts = append(posts, &cp)
	}
	payload, err := json.Marshal(map[string]any{
		"campaign": brief,
		"posts":    posts,
	})
	if err != nil {
		return nil, err
	}

	content, err := fetchModel(ctx, KindPostFilter, brief.CampaignID, postFilterPrompt, string(payload), 0.1)
	if err != nil {
		return nil, err
	}

	verdicts, err := parseFilterResponse(content)
	if err != nil {
		log.ErrorContext(ctx, "parse post filter response failed", "campaign_id", brief.CampaignID, "content", content, "err", err)
		return nil, err
	}

	return keepVerdicts(verdicts, batch, minScore), nil
}

// GenerateComment 为单个帖子生成回复
func (s *autopilotLLMImpl) GenerateComment(ctx context.Context, brief *CampaignBrief, post *Candidate) (string, error) {
	cp := *post
	cp.Content = util.TruncateRunes(cp.Content, maxCandidateContentRunes)
	payload, err := json.Marshal(map[string]any{
		"campaign":  brief,
		"post":      &cp,
		"max_chars": CommentLimit(post.Platform),
	})
	if err != nil {
		return "", err
	}

	content, err := fetchModel(ctx, KindCommentGenerate, brief.CampaignID, commentGeneratePrompt, string(payload), 0.7)
	if err != nil {
		return "", err
	}

	comment, err := parseCommentResponse(content)
	if err != nil {
		log.ErrorContext(ctx, "parse comment response failed", "campaign_id", brief.CampaignID, "post_id", post.ID, "content", content, "err", err)
		return "", err
	}

	return util.TruncateRunes(comment, CommentLimit(post.Platform)), nil
}

func parseFilterResponse(content string) ([]*FilterVerdict, error) {
	cleaned := cleanJSON(content)
	if strings.HasPrefix(cleaned, "[") {
		var verdicts []*FilterVerdict
		if err := json.Unmarshal([]byte(cleaned), &verdicts); err != nil {
			return nil, fmt.Errorf("invalid filter array: %w", err)
		}
		return verdicts, nil
	}
	var resp filterResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("invalid filter object: %w", err)
	}
	return resp.Relevant, nil
}

// keepVerdicts 丢弃批次外/重复的 id，分数截断到 0..100 并按阈值过滤
func keepVerdicts(verdicts []*FilterVerdict, batch []*Candidate, threshold int) []*FilterVerdict {
	known := make(map[string]struct{}, len(batch))
	for _, c := range batch {
		known[c.ID] = struct{}{}
	}

	kept := make([]*FilterVerdict, 0, len(verdicts))
	for _, v := range verdicts {
		if v == nil {
			continue
		}
		if _, ok := known[v.ID]; !ok {
			continue
		}
		delete(known, v.ID)
		v.Score = max(0, min(100, v.Score))
		if v.Score < threshold {
			continue
		}
		v.Reason = strings.TrimSpace(v.Reason)
		kept = append(kept, v)
	}
	return kept
}

func parseCommentResponse(content string) (string, error) {
	cleaned := cleanJSON(content)
	if cleaned == "" {
		return "", ErrEmptyComment
	}

	comment := cleaned
	var resp commentResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err == nil {
		comment = resp.Comment
	} else if strings.HasPrefix(cleaned, "{") {
		return "", fmt.Errorf("invalid comment object: %w", err)
	}

	comment = strings.TrimSpace(comment)
	if comment == "" {
		return "", ErrEmptyComment
	}
	return comment, nil
}

// CommentLimit 平台评论长度上限，未知平台按 Twitter 处理
func CommentLimit(platform string) int {
	if limit, ok := commentLimits[platform]; ok {
		return limit
	}
	return commentLimits[model.PlatformTwitter]
}
