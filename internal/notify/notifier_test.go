package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

type fakePublisher struct {
	published []*sns.PublishInput
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	f.published = append(f.published, input)
	return &sns.PublishOutput{}, f.err
}

type fakeSender struct {
	sent []*ses.SendEmailInput
	err  error
}

func (f *fakeSender) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.sent = append(f.sent, input)
	return &ses.SendEmailOutput{}, f.err
}

type fakeProfiles struct {
	profile *models.UserProfile
	err     error
}

func (f *fakeProfiles) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return f.profile, f.err
}

func sampleResult() *models.DualRecommendations {
	return &models.DualRecommendations{
		RunID:  "run-1",
		UserID: "user-1",
		ProfileBlock: models.RecommendationBlock{
			Title: "Jobs for your profile",
			Recommendations: []models.Recommendation{
				{Title: "Math Teacher", Company: "School 12", RegionName: "Almaty"},
			},
		},
		AssessmentBlock: models.RecommendationBlock{
			Title: "Jobs for your strengths",
			Recommendations: []models.Recommendation{
				{Title: "Developer"},
			},
		},
		GeneratedAt: time.Now(),
	}
}

func TestRefreshCompleted_PublishesEvent(t *testing.T) {
	publisher := &fakePublisher{}
	n := New(Config{EventsEnabled: true, TopicARN: "arn:aws:sns:eu-west-1:1:refreshes"},
		publisher, nil, nil, logger.NewTestLogger(t))

	n.RefreshCompleted(context.Background(), sampleResult())

	require.Len(t, publisher.published, 1)
	input := publisher.published[0]
	assert.Equal(t, "arn:aws:sns:eu-west-1:1:refreshes", *input.TopicArn)

	var event refreshEvent
	require.NoError(t, json.Unmarshal([]byte(*input.Message), &event))
	assert.Equal(t, "run-1", event.RunID)
	assert.Equal(t, 1, event.ProfileCount)
	assert.Equal(t, 1, event.AssessmentCount)
}

func TestRefreshCompleted_SendsDigest(t *testing.T) {
	sender := &fakeSender{}
	profiles := &fakeProfiles{profile: &models.UserProfile{UserID: "user-1", Email: "user@example.com"}}
	n := New(Config{EmailEnabled: true, FromEmail: "jobs@example.com"},
		nil, sender, profiles, logger.NewTestLogger(t))

	n.RefreshCompleted(context.Background(), sampleResult())

	require.Len(t, sender.sent, 1)
	input := sender.sent[0]
	assert.Equal(t, "jobs@example.com", *input.Source)
	assert.Equal(t, []string{"user@example.com"}, input.Destination.ToAddresses)
	assert.Contains(t, *input.Message.Subject.Data, "2 new job matches")

	body := *input.Message.Body.Text.Data
	assert.Contains(t, body, "Math Teacher at School 12 (Almaty)")
	assert.Contains(t, body, "Developer")
}

func TestRefreshCompleted_ChannelsGated(t *testing.T) {
	publisher := &fakePublisher{}
	sender := &fakeSender{}
	n := New(Config{}, publisher, sender, &fakeProfiles{}, logger.NewTestLogger(t))

	n.RefreshCompleted(context.Background(), sampleResult())

	assert.Empty(t, publisher.published)
	assert.Empty(t, sender.sent)
}

func TestRefreshCompleted_NoDigestForEmptyRun(t *testing.T) {
	sender := &fakeSender{}
	profiles := &fakeProfiles{profile: &models.UserProfile{Email: "user@example.com"}}
	n := New(Config{EmailEnabled: true, FromEmail: "jobs@example.com"},
		nil, sender, profiles, logger.NewTestLogger(t))

	n.RefreshCompleted(context.Background(), &models.DualRecommendations{RunID: "run-2", UserID: "user-1"})

	assert.Empty(t, sender.sent)
}

func TestRefreshCompleted_NoEmailAddress(t *testing.T) {
	for _, email := range []string{"", "not-an-email"} {
		sender := &fakeSender{}
		profiles := &fakeProfiles{profile: &models.UserProfile{UserID: "user-1", Email: email}}
		n := New(Config{EmailEnabled: true, FromEmail: "jobs@example.com"},
			nil, sender, profiles, logger.NewTestLogger(t))

		n.RefreshCompleted(context.Background(), sampleResult())

		assert.Empty(t, sender.sent, "no digest for email %q", email)
	}
}

func TestRefreshCompleted_DeliveryFailureIsSwallowed(t *testing.T) {
	publisher := &fakePublisher{err: assert.AnError}
	n := New(Config{EventsEnabled: true, TopicARN: "arn"}, publisher, nil, nil, logger.NewTestLogger(t))

	// Must not panic or propagate.
	n.RefreshCompleted(context.Background(), sampleResult())
	require.Len(t, publisher.published, 1)
}
