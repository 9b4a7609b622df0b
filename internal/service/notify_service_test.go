package service

import (
	"BuzzDaddy/internal/model"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyService_SendDigest(t *testing.T) {
	sender := &fakeMailSender{}
	svc := NewNotifyService(sender)
	campaign := &model.Campaign{Name: "Launch <beta>", NotifyEmail: "owner@example.com"}

	err := svc.SendDigest(context.Background(), campaign, &PostReport{
		Posted: 1,
		Failed: 1,
		Items: []*PostItem{
			{Platform: "twitter", PostURL: "https://x.com/i/web/status/1", Status: model.StatusPosted},
			{Platform: "reddit", PostURL: "https://www.reddit.com/r/saas/comments/abc", Status: model.StatusFailed, Error: "403 forbidden"},
		},
	})
	require.NoError(t, err)
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	assert.Equal(t, "owner@example.com", msg.To)
	assert.Equal(t, "[BuzzDaddy] Launch <beta>: 1 posted, 1 failed", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Launch &lt;beta&gt;")
	assert.Contains(t, msg.HTMLBody, `href="https://x.com/i/web/status/1"`)
	assert.Contains(t, msg.TextBody, "[reddit] FAILED https://www.reddit.com/r/saas/comments/abc (403 forbidden)")
}

func TestNotifyService_SkipsEmptyReports(t *testing.T) {
	sender := &fakeMailSender{}
	svc := NewNotifyService(sender)

	require.NoError(t, svc.SendDigest(context.Background(), &model.Campaign{NotifyEmail: "a@b.c"}, &PostReport{}))
	require.NoError(t, svc.SendDigest(context.Background(), &model.Campaign{}, &PostReport{Posted: 1}))
	assert.Empty(t, sender.messages)
}
