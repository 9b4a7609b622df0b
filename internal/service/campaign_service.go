package service

import (
	"BuzzDaddy/internal/api/dto"
	"BuzzDaddy/internal/model"
	"BuzzDaddy/internal/pkg/consts"
	"BuzzDaddy/internal/pkg/util"
	"BuzzDaddy/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"strings"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

type CampaignService interface {
	CreateCampaign(ctx context.Context, userID uint64, req *dto.CreateCampaignDTO) (*dto.CampaignDTO, error)
	GetCampaign(ctx context.Context, userID, campaignID uint64) (*dto.CampaignDTO, error)
	ListCampaigns(ctx context.Context, userID uint64, page, pageSize int) (*dto.PageDTO[*dto.CampaignDTO], error)
	UpdateCampaign(ctx context.Context, userID, campaignID uint64, req *dto.UpdateCampaignDTO) (*dto.CampaignDTO, error)
	DeleteCampaign(ctx context.Context, userID, campaignID uint64) error
	SetKeywords(ctx context.Context, userID, campaignID uint64, terms []string) ([]string, error)
	SetPreference(ctx context.Context, userID, campaignID uint64, req *dto.PreferenceDTO) (*dto.PreferenceDTO, error)
}

type campaignServiceImpl struct {
	campaignRepo    repository.CampaignRepo
	activityService ActivityService
}

func NewCampaignService(campaignRepo repository.CampaignRepo, activityService ActivityService) CampaignService {
	return &campaignServiceImpl{
		campaignRepo:    campaignRepo,
		activityService: activityService,
	}
}

func (s *campaignServiceImpl) CreateCampaign(ctx context.Context, userID uint64, req *dto.CreateCampaignDTO) (*dto.CampaignDTO, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.ProductName) == "" {
		return nil, ErrParamInvalid
	}

	campaign := &model.Campaign{
		UserID:             userID,
		Name:               strings.TrimSpace(req.Name),
		ProductName:        strings.TrimSpace(req.ProductName),
		ProductDescription: req.ProductDescription,
		ProductURL:         req.ProductURL,
		Voice:              req.Voice,
		NotifyEmail:        req.NotifyEmail,
		Autopilot:          req.Autopilot,
		Status:             model.CampaignStatusActive,
	}
	for _, term := range util.UniqueStrings(req.Keywords) {
		campaign.Keywords = append(campaign.Keywords, model.Keyword{Term: term})
	}
	if req.Preference != nil {
		pref, err := toPreference(req.Preference)
		if err != nil {
			return nil, err
		}
		campaign.Preference = pref
	}

	if err := s.campaignRepo.CreateCampaign(ctx, campaign); err != nil {
		log.ErrorContext(ctx, "failed to create campaign", "user_id", userID, "err", err)
		return nil, UnExpectedError
	}
	s.activityService.Record(ctx, campaign.ID, userID, model.ActionCampaignCreated, campaign.Name)
	return toCampaignDTO(campaign), nil
}

func (s *campaignServiceImpl) GetCampaign(ctx context.Context, userID, campaignID uint64) (*dto.CampaignDTO, error) {
	campaign, err := loadOwnedCampaign(ctx, s.campaignRepo, userID, campaignID)
	if err != nil {
		return nil, err
	}
	return toCampaignDTO(campaign), nil
}

func (s *campaignServiceImpl) ListCampaigns(ctx context.Context, userID uint64, page, pageSize int) (*dto.PageDTO[*dto.CampaignDTO], error) {
	p := newPaging(page, pageSize)
	campaigns, total, err := s.campaignRepo.ListCampaigns(ctx, userID, p.offset(), p.size)
	if err != nil {
		log.ErrorContext(ctx, "failed to list campaigns", "user_id", userID, "err", err)
		return nil, UnExpectedError
	}
	items := make([]*dto.CampaignDTO, 0, len(campaigns))
	for _, campaign := range campaigns {
		items = append(items, toCampaignDTO(campaign))
	}
	return &dto.PageDTO[*dto.CampaignDTO]{Items: items, Total: total, Page: p.page, PageSize: p.size}, nil
}

func (s *campaignServiceImpl) UpdateCampaign(ctx context.Context, userID, campaignID uint64, req *dto.UpdateCampaignDTO) (*dto.CampaignDTO, error) {
	if req == nil {
		return nil, ErrParamInvalid
	}
	campaign, err := loadOwnedCampaign(ctx, s.campaignRepo, userID, campaignID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		campaign.Name = strings.TrimSpace(*req.Name)
	}
	if req.ProductName != nil {
		campaign.ProductName = strings.TrimSpace(*req.ProductName)
	}
	if req.ProductDescription != nil {
		campaign.ProductDescription = *req.ProductDescription
	}
	if req.ProductURL != nil {
		campaign.ProductURL = *req.ProductURL
	}
	if req.Voice != nil {
		campaign.Voice = *req.Voice
	}
	if req.NotifyEmail != nil {
		campaign.NotifyEmail = *req.NotifyEmail
	}
	if req.Autopilot != nil {
		campaign.Autopilot = *req.Autopilot
	}
	if req.Status != nil {
		if *req.Status != model.CampaignStatusActive && *req.Status != model.CampaignStatusPaused {
			return nil, ErrParamInvalid
		}
		campaign.Status = *req.Status
	}
	if campaign.Name == "" || campaign.ProductName == "" {
		return nil, ErrParamInvalid
	}

	if err = s.campaignRepo.UpdateCampaign(ctx, campaign); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		log.ErrorContext(ctx, "failed to update campaign", "campaign_id", campaignID, "err", err)
		return nil, UnExpectedError
	}
	s.activityService.Record(ctx, campaignID, userID, model.ActionCampaignUpdated, campaign.Status)
	return toCampaignDTO(campaign), nil
}

func (s *campaignServiceImpl) DeleteCampaign(ctx context.Context, userID, campaignID uint64) error {
	campaign, err := loadOwnedCampaign(ctx, s.campaignRepo, userID, campaignID)
	if err != nil {
		return err
	}
	if err = s.campaignRepo.DeleteCampaign(ctx, campaignID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCampaignNotFound
		}
		log.ErrorContext(ctx, "failed to delete campaign", "campaign_id", campaignID, "err", err)
		return UnExpectedError
	}
	s.activityService.Record(ctx, campaignID, userID, model.ActionCampaignDeleted, campaign.Name)
	return nil
}

func (s *campaignServiceImpl) SetKeywords(ctx context.Context, userID, campaignID uint64, terms []string) ([]string, error) {
	if _, err := loadOwnedCampaign(ctx, s.campaignRepo, userID, campaignID); err != nil {
		return nil, err
	}
	terms = util.UniqueStrings(terms)
	keywords, err := s.campaignRepo.ReplaceKeywords(ctx, campaignID, terms)
	if err != nil {
		log.ErrorContext(ctx, "failed to replace keywords", "campaign_id", campaignID, "err", err)
		return nil, UnExpectedError
	}

	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		out = append(out, k.Term)
	}
	s.activityService.Record(ctx, campaignID, userID, model.ActionKeywordsUpdated, strings.Join(out, ", "))
	return out, nil
}

func (s *campaignServiceImpl) SetPreference(ctx context.Context, userID, campaignID uint64, req *dto.PreferenceDTO) (*dto.PreferenceDTO, error) {
	if req == nil {
		return nil, ErrParamInvalid
	}
	if _, err := loadOwnedCampaign(ctx, s.campaignRepo, userID, campaignID); err != nil {
		return nil, err
	}
	pref, err := toPreference(req)
	if err != nil {
		return nil, err
	}
	pref.CampaignID = campaignID

	if err = s.campaignRepo.UpsertPreference(ctx, pref); err != nil {
		log.ErrorContext(ctx, "failed to save preference", "campaign_id", campaignID, "err", err)
		return nil, UnExpectedError
	}
	s.activityService.Record(ctx, campaignID, userID, model.ActionPreferenceUpdated, strings.Join(pref.Platforms, ", "))
	return toPreferenceDTO(pref), nil
}

// loadOwnedCampaign 加载活动并校验归属，他人的活动按不存在处理
func loadOwnedCampaign(ctx context.Context, repo repository.CampaignRepo, userID, campaignID uint64) (*model.Campaign, error) {
	campaign, err := repo.GetCampaign(ctx, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		log.ErrorContext(ctx, "failed to load campaign", "campaign_id", campaignID, "err", err)
		return nil, UnExpectedError
	}
	if campaign.UserID != userID {
		return nil, ErrCampaignNotFound
	}
	return campaign, nil
}

func toPreference(req *dto.PreferenceDTO) (*model.PostPreference, error) {
	pref := &model.PostPreference{}
	if err := copier.Copy(pref, req); err != nil {
		return nil, ErrParamInvalid
	}
	pref.Platforms = util.UniqueStrings(pref.Platforms)
	for i, platform := range pref.Platforms {
		platform = strings.ToLower(platform)
		if platform != model.PlatformTwitter && platform != model.PlatformReddit && platform != model.PlatformLinkedIn {
			return nil, ErrPlatformUnsupported
		}
		pref.Platforms[i] = platform
	}
	pref.ExcludeTerms = util.UniqueStrings(pref.ExcludeTerms)
	if pref.DailyReplyLimit < 0 {
		return nil, ErrParamInvalid
	}
	return pref, nil
}

func toPreferenceDTO(pref *model.PostPreference) *dto.PreferenceDTO {
	if pref == nil {
		return nil
	}
	out := &dto.PreferenceDTO{}
	_ = copier.Copy(out, pref)
	return out
}

func toCampaignDTO(c *model.Campaign) *dto.CampaignDTO {
	return &dto.CampaignDTO{
		ID:                 c.ID,
		Name:               c.Name,
		ProductName:        c.ProductName,
		ProductDescription: c.ProductDescription,
		ProductURL:         c.ProductURL,
		Voice:              c.Voice,
		NotifyEmail:        c.NotifyEmail,
		Autopilot:          c.Autopilot,
		Status:             c.Status,
		Keywords:           c.Terms(),
		Preference:         toPreferenceDTO(c.Preference),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// paging 页码从 1 开始
type paging struct {
	page int
	size int
}

func newPaging(page, pageSize int) paging {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = consts.DefaultPageSize
	}
	if pageSize > consts.MaxPageSize {
		pageSize = consts.MaxPageSize
	}
	return paging{page: page, size: pageSize}
}

func (p paging) offset() int {
	return (p.page - 1) * p.size
}
