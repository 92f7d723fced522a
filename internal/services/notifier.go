package services

import (
	"context"
	"time"

	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/logger"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"golang.org/x/sync/errgroup"
)

const notificationTimeout = 15 * time.Second

// Notifier sends Slack and email notifications and records each attempt.
// Either channel may be nil when the integration is not configured.
type Notifier struct {
	Slack  SlackSender
	Mailer Mailer
	Log    logger.Logger
}

func (n *Notifier) record(brandID, channel, event, recipient string, err error) {
	entry := models.NotificationLog{
		BrandID:   brandID,
		Channel:   channel,
		Event:     event,
		Recipient: recipient,
		Status:    types.NotificationSent,
	}
	if err != nil {
		entry.Status = types.NotificationFailed
		entry.ErrorMessage = truncate(err.Error(), 1024)
		n.Log.Warn("Notification failed", "brand_id", brandID, "channel", channel, "event", event, "error", err)
	}

	if dbErr := db.DB.Create(&entry).Error; dbErr != nil {
		n.Log.Error("Failed to store notification log", "brand_id", brandID, "error", dbErr)
	}
}

// SendSlack posts to the brand's webhook without checking the brand toggle.
func (n *Notifier) SendSlack(ctx context.Context, brand models.Brand, event string, payload SlackWebhookRequest) error {
	if n.Slack == nil || brand.SlackWebhookURL == "" {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, notificationTimeout)
	defer cancel()

	err := n.Slack.Send(ctx, brand.SlackWebhookURL, payload)
	n.record(brand.ID, types.ChannelSlack, event, "webhook", err)
	return err
}

// NotifySlack posts to the brand channel when the brand has Slack switched on.
// Failures are recorded and logged, never returned.
func (n *Notifier) NotifySlack(ctx context.Context, brand models.Brand, event string, payload SlackWebhookRequest) {
	if !brand.SlackEnabled() {
		return
	}
	_ = n.SendSlack(ctx, brand, event, payload)
}

func (n *Notifier) Email(ctx context.Context, brandID, event string, msg EmailMessage) error {
	if n.Mailer == nil {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, notificationTimeout)
	defer cancel()

	err := n.Mailer.Send(ctx, msg)
	n.record(brandID, types.ChannelEmail, event, msg.ToEmail, err)
	return err
}

// EmailAll sends every message concurrently and returns the first failure.
// One failed recipient does not cancel the others.
func (n *Notifier) EmailAll(ctx context.Context, brandID, event string, msgs []EmailMessage) error {
	if n.Mailer == nil {
		return ErrNotConfigured
	}

	var g errgroup.Group
	g.SetLimit(4)

	for _, msg := range msgs {
		g.Go(func() error {
			return n.Email(ctx, brandID, event, msg)
		})
	}

	return g.Wait()
}
