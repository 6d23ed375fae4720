// Package notify sends best-effort messages after an application is stored:
// a confirmation email to the applicant (SES) and an alert to the admins (SNS).
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"jobboard/internal/metrics"
	"jobboard/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

const (
	ChannelEmail = "email"
	ChannelAlert = "alert"
)

// SESService is the subset of the SES client used here.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSService is the subset of the SNS client used here.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier matches applications.Notifier.
type Notifier interface {
	ApplicationSubmitted(ctx context.Context, job models.JobPosting, app models.Application) error
}

// Config selects which channels are active. Empty From disables email and
// empty TopicARN disables the admin alert.
type Config struct {
	Region   string
	From     string
	TopicARN string
}

// Enabled reports whether any channel is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.From) != "" || strings.TrimSpace(c.TopicARN) != ""
}

// New builds the notifiers named by cfg. With nothing configured it returns
// Noop without touching AWS.
func New(ctx context.Context, cfg Config) (Notifier, error) {
	if !cfg.Enabled() {
		return Noop{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var out Multi
	if from := strings.TrimSpace(cfg.From); from != "" {
		out = append(out, NewEmail(ses.NewFromConfig(awsCfg), from))
	}
	if topic := strings.TrimSpace(cfg.TopicARN); topic != "" {
		out = append(out, NewAlert(sns.NewFromConfig(awsCfg), topic))
	}
	return out, nil
}

// Email sends the applicant a confirmation.
type Email struct {
	client SESService
	from   string
}

func NewEmail(client SESService, from string) *Email {
	return &Email{client: client, from: from}
}

func (e *Email) ApplicationSubmitted(ctx context.Context, job models.JobPosting, app models.Application) error {
	to := strings.TrimSpace(app.ApplicantEmail)
	if to == "" {
		return errors.New("applicant email is empty")
	}
	subject := fmt.Sprintf("Your application to %s", job.Company)
	text := confirmationText(job, app)

	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(text)},
			},
		},
		Source: aws.String(e.from),
	}
	if _, err := e.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	slog.Debug("confirmation email sent", "application_id", app.ID)
	return nil
}

func confirmationText(job models.JobPosting, app models.Application) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", app.ApplicantName)
	fmt.Fprintf(&b, "Thanks for applying for %s at %s. ", job.Title, job.Company)
	b.WriteString("We received your CV and the team will be in touch.\n")
	return b.String()
}

// Alert publishes a short notice to the admin topic.
type Alert struct {
	client   SNSService
	topicARN string
}

func NewAlert(client SNSService, topicARN string) *Alert {
	return &Alert{client: client, topicARN: topicARN}
}

func (a *Alert) ApplicationSubmitted(ctx context.Context, job models.JobPosting, app models.Application) error {
	msg := fmt.Sprintf("New application from %s <%s> for %s at %s",
		app.ApplicantName, app.ApplicantEmail, job.Title, job.Company)
	input := &sns.PublishInput{
		TopicArn: aws.String(a.topicARN),
		Subject:  aws.String("New application"),
		Message:  aws.String(msg),
	}
	if _, err := a.client.Publish(ctx, input); err != nil {
		return fmt.Errorf("publish admin alert: %w", err)
	}
	return nil
}

// Multi calls every notifier even when an earlier one fails. Failures are
// counted per channel and joined into the returned error.
type Multi []Notifier

func (m Multi) ApplicationSubmitted(ctx context.Context, job models.JobPosting, app models.Application) error {
	var errs []error
	for _, n := range m {
		if err := n.ApplicationSubmitted(ctx, job, app); err != nil {
			metrics.NotificationFailures.WithLabelValues(channelOf(n)).Inc()
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func channelOf(n Notifier) string {
	switch n.(type) {
	case *Email:
		return ChannelEmail
	case *Alert:
		return ChannelAlert
	default:
		return "other"
	}
}

// Noop discards every notification.
type Noop struct{}

func (Noop) ApplicationSubmitted(context.Context, models.JobPosting, models.Application) error {
	return nil
}
