package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	apperrors "github.com/muaviaUsmani/maintreminder/internal/errors"
	"github.com/muaviaUsmani/maintreminder/internal/logger"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESTransport_Send(t *testing.T) {
	client := &fakeSES{}
	rec := logger.NewRecorder()
	tr := newSESTransport(client, "reminders@example.org", rec)

	if err := tr.Send(context.Background(), "owner@example.org", "subject", "body"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	in := client.input
	if in == nil {
		t.Fatal("SendEmail was not called")
	}
	if aws.ToString(in.FromEmailAddress) != "reminders@example.org" {
		t.Errorf("from = %q", aws.ToString(in.FromEmailAddress))
	}
	if got := in.Destination.ToAddresses; len(got) != 1 || got[0] != "owner@example.org" {
		t.Errorf("to = %v", got)
	}
	if aws.ToString(in.Content.Simple.Subject.Data) != "subject" {
		t.Errorf("subject = %q", aws.ToString(in.Content.Simple.Subject.Data))
	}
	if aws.ToString(in.Content.Simple.Body.Text.Data) != "body" {
		t.Errorf("body = %q", aws.ToString(in.Content.Simple.Body.Text.Data))
	}
	if !rec.Has(logger.LevelInfo, "Notification sent") {
		t.Error("expected send to be logged")
	}
}

func TestSESTransport_FailureIsTransportError(t *testing.T) {
	tr := newSESTransport(&fakeSES{err: errors.New("throttled")}, "a@example.org", nil)

	err := tr.Send(context.Background(), "owner@example.org", "s", "b")
	if !apperrors.Is(err, apperrors.KindTransport) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestSESTransport_RequiresRecipient(t *testing.T) {
	client := &fakeSES{}
	tr := newSESTransport(client, "a@example.org", nil)

	err := tr.Send(context.Background(), " ", "s", "b")
	if !apperrors.Is(err, apperrors.KindTransport) {
		t.Errorf("expected transport error, got %v", err)
	}
	if client.input != nil {
		t.Error("SES must not be called without a recipient")
	}
}

func TestLogTransport_Send(t *testing.T) {
	rec := logger.NewRecorder()
	tr := NewLogTransport(rec)

	if err := tr.Send(context.Background(), "owner@example.org", "subject", "body"); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	records := rec.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Component != logger.ComponentNotifier {
		t.Errorf("component = %q", records[0].Component)
	}
	if records[0].Fields["subject"] != "subject" {
		t.Errorf("fields = %v", records[0].Fields)
	}
}
