package service

import (
	"BuzzDaddy/internal/api/dto"
	"BuzzDaddy/internal/model"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCampaignFixture(t *testing.T) (CampaignService, ActivityService, *testRepos) {
	repos := newTestRepos(newTestDB(t))
	activity := NewActivityService(repos.activity, repos.campaign, nil)
	return NewCampaignService(repos.campaign, activity), activity, repos
}

func TestCampaignService_CreateAndGet(t *testing.T) {
	svc, _, _ := newCampaignFixture(t)
	ctx := context.Background()

	created, err := svc.CreateCampaign(ctx, 1, &dto.CreateCampaignDTO{
		Name:        " Launch ",
		ProductName: "BuzzDaddy",
		Autopilot:   true,
		Keywords:    []string{"social listening", "Social Listening", " ", "brand mentions"},
		Preference: &dto.PreferenceDTO{
			Platforms:       []string{"Reddit", "twitter"},
			DailyReplyLimit: 5,
			ExcludeTerms:    []string{"hiring"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Launch", created.Name)
	assert.Equal(t, model.CampaignStatusActive, created.Status)
	assert.Equal(t, []string{"social listening", "brand mentions"}, created.Keywords)
	require.NotNil(t, created.Preference)
	assert.Equal(t, []string{"reddit", "twitter"}, created.Preference.Platforms)

	got, err := svc.GetCampaign(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"social listening", "brand mentions"}, got.Keywords)
	assert.Equal(t, 5, got.Preference.DailyReplyLimit)
	assert.Equal(t, []string{"hiring"}, got.Preference.ExcludeTerms)

	_, err = svc.GetCampaign(ctx, 2, created.ID)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestCampaignService_CreateRejectsUnknownPlatform(t *testing.T) {
	svc, _, _ := newCampaignFixture(t)

	_, err := svc.CreateCampaign(context.Background(), 1, &dto.CreateCampaignDTO{
		Name:        "launch",
		ProductName: "BuzzDaddy",
		Preference:  &dto.PreferenceDTO{Platforms: []string{"myspace"}},
	})
	assert.ErrorIs(t, err, ErrPlatformUnsupported)

	_, err = svc.CreateCampaign(context.Background(), 1, &dto.CreateCampaignDTO{Name: "launch"})
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestCampaignService_UpdateListDelete(t *testing.T) {
	svc, activity, _ := newCampaignFixture(t)
	ctx := context.Background()

	first, err := svc.CreateCampaign(ctx, 1, &dto.CreateCampaignDTO{Name: "a", ProductName: "p"})
	require.NoError(t, err)
	_, err = svc.CreateCampaign(ctx, 1, &dto.CreateCampaignDTO{Name: "b", ProductName: "p"})
	require.NoError(t, err)
	_, err = svc.CreateCampaign(ctx, 2, &dto.CreateCampaignDTO{Name: "c", ProductName: "p"})
	require.NoError(t, err)

	paused := model.CampaignStatusPaused
	voice := "expert"
	updated, err := svc.UpdateCampaign(ctx, 1, first.ID, &dto.UpdateCampaignDTO{Status: &paused, Voice: &voice})
	require.NoError(t, err)
	assert.Equal(t, paused, updated.Status)
	assert.Equal(t, "expert", updated.Voice)
	assert.Equal(t, "a", updated.Name)

	bogus := "DONE"
	_, err = svc.UpdateCampaign(ctx, 1, first.ID, &dto.UpdateCampaignDTO{Status: &bogus})
	assert.ErrorIs(t, err, ErrParamInvalid)

	page, err := svc.ListCampaigns(ctx, 1, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Items, 2)

	require.NoError(t, svc.DeleteCampaign(ctx, 1, first.ID))
	assert.ErrorIs(t, svc.DeleteCampaign(ctx, 1, first.ID), ErrCampaignNotFound)

	page, err = svc.ListCampaigns(ctx, 1, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	_, err = activity.ListActivities(ctx, 1, first.ID, 1, 10)
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestCampaignService_KeywordsAndPreference(t *testing.T) {
	svc, activity, _ := newCampaignFixture(t)
	ctx := context.Background()

	created, err := svc.CreateCampaign(ctx, 1, &dto.CreateCampaignDTO{Name: "a", ProductName: "p", Keywords: []string{"old"}})
	require.NoError(t, err)

	terms, err := svc.SetKeywords(ctx, 1, created.ID, []string{"crm", "CRM", "sales tools"})
	require.NoError(t, err)
	assert.Equal(t, []string{"crm", "sales tools"}, terms)

	_, err = svc.SetKeywords(ctx, 2, created.ID, []string{"x"})
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	pref, err := svc.SetPreference(ctx, 1, created.ID, &dto.PreferenceDTO{Platforms: []string{"linkedin"}, RequireApproval: true})
	require.NoError(t, err)
	assert.True(t, pref.RequireApproval)

	pref, err = svc.SetPreference(ctx, 1, created.ID, &dto.PreferenceDTO{Platforms: []string{"twitter"}, DailyReplyLimit: 3})
	require.NoError(t, err)
	assert.False(t, pref.RequireApproval)

	got, err := svc.GetCampaign(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"crm", "sales tools"}, got.Keywords)
	assert.Equal(t, []string{"twitter"}, got.Preference.Platforms)
	assert.Equal(t, 3, got.Preference.DailyReplyLimit)

	page, err := activity.ListActivities(ctx, 1, created.ID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Total)
	actions := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		actions = append(actions, item.Action)
	}
	assert.ElementsMatch(t, []string{
		model.ActionCampaignCreated,
		model.ActionKeywordsUpdated,
		model.ActionPreferenceUpdated,
		model.ActionPreferenceUpdated,
	}, actions)
}

func TestNewPaging(t *testing.T) {
	p := newPaging(0, 0)
	assert.Equal(t, 1, p.page)
	assert.Equal(t, 20, p.size)
	assert.Equal(t, 0, p.offset())

	p = newPaging(3, 500)
	assert.Equal(t, 100, p.size)
	assert.Equal(t, 200, p.offset())
}
