package email

import (
	"BuzzDaddy/internal/api/config"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const charset = "UTF-8"

var ErrNoRecipient = errors.New("email recipient is empty")

// SESAPI ses.Client 中用到的部分
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Message 一封待发送的邮件
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender 通过 AWS SES 发送邮件
type Sender struct {
	client    SESAPI
	fromEmail string
	fromName  string
}

// NewSESSender 使用默认凭证链加载 AWS 配置
func NewSESSender(cfg config.EmailConfig) (*Sender, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSender(ses.NewFromConfig(awsCfg), cfg.FromEmail, cfg.FromName), nil
}

func NewSender(client SESAPI, fromEmail, fromName string) *Sender {
	return &Sender{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *Sender) Send(ctx context.Context, msg *Message) error {
	if msg == nil || msg.To == "" {
		return ErrNoRecipient
	}

	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	body := &types.Body{
		Html: &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String(charset)},
	}
	if msg.TextBody != "" {
		body.Text = &types.Content{Data: aws.String(msg.TextBody), Charset: aws.String(charset)}
	}

	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charset)},
			Body:    body,
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	return nil
}
