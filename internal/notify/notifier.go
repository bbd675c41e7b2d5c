// Package notify publishes refresh-completed events and sends recommendation
// digest emails. Both channels are config-gated and best-effort: a delivery
// failure is logged, never returned to the matching pipeline.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	commonerrors "jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/common/validation"
	"jobmatch-engine/internal/models"
)

// Config gates the two delivery channels.
type Config struct {
	EventsEnabled bool
	TopicARN      string
	EmailEnabled  bool
	FromEmail     string
}

// EventPublisher is the SNS surface the notifier needs.
type EventPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// EmailSender is the SES surface the notifier needs.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// EmailResolver looks up the digest recipient for a user.
type EmailResolver interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// Notifier fans a completed refresh out to SNS and SES.
type Notifier struct {
	cfg      Config
	events   EventPublisher
	email    EmailSender
	profiles EmailResolver
	logger   logger.Logger
}

func New(cfg Config, events EventPublisher, email EmailSender, profiles EmailResolver, log logger.Logger) *Notifier {
	return &Notifier{cfg: cfg, events: events, email: email, profiles: profiles, logger: log}
}

type refreshEvent struct {
	RunID           string `json:"runId"`
	UserID          string `json:"userId"`
	ProfileCount    int    `json:"profileCount"`
	AssessmentCount int    `json:"assessmentCount"`
	GeneratedAt     string `json:"generatedAt"`
}

// RefreshCompleted publishes the run event and, when the run produced
// recommendations, emails the user a digest.
func (n *Notifier) RefreshCompleted(ctx context.Context, result *models.DualRecommendations) {
	if err := n.publishEvent(ctx, result); err != nil {
		n.logger.Warn("refresh event publish failed", map[string]interface{}{
			"runId": result.RunID,
			"error": err.Error(),
		})
	}
	if err := n.sendDigest(ctx, result); err != nil {
		n.logger.Warn("digest email failed", map[string]interface{}{
			"runId": result.RunID,
			"error": err.Error(),
		})
	}
}

func (n *Notifier) publishEvent(ctx context.Context, result *models.DualRecommendations) error {
	if !n.cfg.EventsEnabled || n.events == nil {
		return nil
	}

	payload, err := json.Marshal(refreshEvent{
		RunID:           result.RunID,
		UserID:          result.UserID,
		ProfileCount:    len(result.ProfileBlock.Recommendations),
		AssessmentCount: len(result.AssessmentBlock.Recommendations),
		GeneratedAt:     result.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return commonerrors.NewNotificationSendFailedError("event", err)
	}

	_, err = n.events.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(n.cfg.TopicARN),
		Subject:  awssdk.String("recommendations.refreshed"),
		Message:  awssdk.String(string(payload)),
	})
	if err != nil {
		return commonerrors.NewNotificationSendFailedError("event", err)
	}
	return nil
}

func (n *Notifier) sendDigest(ctx context.Context, result *models.DualRecommendations) error {
	if !n.cfg.EmailEnabled || n.email == nil {
		return nil
	}
	total := len(result.ProfileBlock.Recommendations) + len(result.AssessmentBlock.Recommendations)
	if total == 0 {
		return nil
	}

	profile, err := n.profiles.GetProfile(ctx, result.UserID)
	if err != nil {
		return commonerrors.NewNotificationSendFailedError("digest", err)
	}
	if !validation.ValidateEmail(profile.Email) {
		return nil
	}

	subject := fmt.Sprintf("%d new job matches for you", total)
	body := digestBody(result)

	_, err = n.email.SendEmail(ctx, &ses.SendEmailInput{
		Source: awssdk.String(n.cfg.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{profile.Email},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awssdk.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awssdk.String(body)},
			},
		},
	})
	if err != nil {
		return commonerrors.NewNotificationSendFailedError("digest", err)
	}
	return nil
}

func digestBody(result *models.DualRecommendations) string {
	var b strings.Builder
	writeBlock := func(block models.RecommendationBlock) {
		if len(block.Recommendations) == 0 {
			return
		}
		b.WriteString(block.Title + "\n")
		for _, rec := range block.Recommendations {
			b.WriteString("  - " + rec.Title)
			if rec.Company != "" {
				b.WriteString(" at " + rec.Company)
			}
			if rec.RegionName != "" {
				b.WriteString(" (" + rec.RegionName + ")")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	writeBlock(result.ProfileBlock)
	writeBlock(result.AssessmentBlock)
	return b.String()
}
