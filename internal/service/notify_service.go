package service

import (
	"BuzzDaddy/internal/model"
	"BuzzDaddy/internal/pkg/email"
	"bytes"
	"context"
	"fmt"
	"html/template"
	textTemplate "text/template"
)

var digestHTML = template.Must(template.New("digest_html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #333;">
<div style="max-width: 640px; margin: 0 auto; padding: 20px;">
<h2>{{.Campaign}}: autopilot report</h2>
<p>Posted <b>{{.Posted}}</b> comments, <b>{{.Failed}}</b> failed.</p>
<table style="width: 100%; border-collapse: collapse;">
{{range .Items}}<tr>
<td style="padding: 6px; border-bottom: 1px solid #eee;">{{.Platform}}</td>
<td style="padding: 6px; border-bottom: 1px solid #eee;"><a href="{{.PostURL}}">{{if .PostTitle}}{{.PostTitle}}{{else}}{{.PostURL}}{{end}}</a></td>
<td style="padding: 6px; border-bottom: 1px solid #eee;">{{.Status}}{{if .Error}}: {{.Error}}{{end}}</td>
</tr>
{{end}}</table>
<p style="color: #999; font-size: 12px;">This is an automated message from BuzzDaddy.</p>
</div>
</body>
</html>
`))

var digestText = textTemplate.Must(textTemplate.New("digest_text").Parse(`{{.Campaign}}: autopilot report

Posted {{.Posted}} comments, {{.Failed}} failed.
{{range .Items}}
- [{{.Platform}}] {{.Status}} {{.PostURL}}{{if .Error}} ({{.Error}}){{end}}{{end}}
`))

// MailSender 邮件发送
type MailSender interface {
	Send(ctx context.Context, msg *email.Message) error
}

type NotifyService interface {
	SendDigest(ctx context.Context, campaign *model.Campaign, report *PostReport) error
}

type notifyServiceImpl struct {
	sender MailSender
}

func NewNotifyService(sender MailSender) NotifyService {
	return &notifyServiceImpl{sender: sender}
}

type digestView struct {
	Campaign string
	Posted   int
	Failed   int
	Items    []*PostItem
}

// SendDigest 本轮发布有变化且设置了通知邮箱时发送汇总
func (s *notifyServiceImpl) SendDigest(ctx context.Context, campaign *model.Campaign, report *PostReport) error {
	if campaign == nil || report == nil || campaign.NotifyEmail == "" {
		return nil
	}
	if report.Posted == 0 && report.Failed == 0 {
		return nil
	}

	view := &digestView{
		Campaign: campaign.Name,
		Posted:   report.Posted,
		Failed:   report.Failed,
		Items:    report.Items,
	}
	var htmlBuf, textBuf bytes.Buffer
	if err := digestHTML.Execute(&htmlBuf, view); err != nil {
		return fmt.Errorf("render digest html: %w", err)
	}
	if err := digestText.Execute(&textBuf, view); err != nil {
		return fmt.Errorf("render digest text: %w", err)
	}

	return s.sender.Send(ctx, &email.Message{
		To:       campaign.NotifyEmail,
		Subject:  fmt.Sprintf("[BuzzDaddy] %s: %d posted, %d failed", campaign.Name, report.Posted, report.Failed),
		HTMLBody: htmlBuf.String(),
		TextBody: textBuf.String(),
	})
}
