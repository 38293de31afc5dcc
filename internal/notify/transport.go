package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	apperrors "github.com/muaviaUsmani/maintreminder/internal/errors"
	"github.com/muaviaUsmani/maintreminder/internal/logger"
)

// Transport delivers a composed message. Failures are returned as transport
// errors and are never retried.
type Transport interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogTransport writes messages to the logger instead of sending them
type LogTransport struct {
	log logger.Logger
}

// NewLogTransport creates a dry-run transport
func NewLogTransport(log logger.Logger) *LogTransport {
	if log == nil {
		log = &logger.NoOpLogger{}
	}
	return &LogTransport{log: log.WithComponent(logger.ComponentNotifier)}
}

// Send logs the message
func (t *LogTransport) Send(ctx context.Context, to, subject, body string) error {
	t.log.InfoContext(ctx, "Notification (dry run)",
		"to", to,
		"subject", subject,
		"body", body)
	return nil
}

// sesAPI is the slice of the SES client used for sending
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESTransport sends plain-text mail through AWS SES
type SESTransport struct {
	client sesAPI
	sender string
	log    logger.Logger
}

// NewSESTransport creates an SES transport. Static credentials are used when
// both keys are set; otherwise the default AWS credential chain applies.
func NewSESTransport(ctx context.Context, sender, region, accessKey, secretKey string, log logger.Logger) (*SESTransport, error) {
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperrors.Configuration("load aws config", err)
	}

	return newSESTransport(sesv2.NewFromConfig(cfg), sender, log), nil
}

func newSESTransport(client sesAPI, sender string, log logger.Logger) *SESTransport {
	if log == nil {
		log = &logger.NoOpLogger{}
	}
	return &SESTransport{
		client: client,
		sender: sender,
		log:    log.WithComponent(logger.ComponentNotifier),
	}
}

// Send delivers one message
func (t *SESTransport) Send(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return apperrors.Transport("send", fmt.Errorf("no recipient"))
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(t.sender),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	out, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return apperrors.Transport("ses send", err)
	}

	messageID := ""
	if out != nil && out.MessageId != nil {
		messageID = *out.MessageId
	}
	t.log.InfoContext(ctx, "Notification sent", "to", to, "message_id", messageID)

	return nil
}

var (
	_ Transport = (*LogTransport)(nil)
	_ Transport = (*SESTransport)(nil)
)
