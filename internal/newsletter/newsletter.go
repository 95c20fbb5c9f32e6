// Package newsletter manages subscribers and Markdown newsletter campaigns.
package newsletter

import (
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/crud"
	"bhrc/backend/internal/logging"
	"bhrc/backend/internal/models"
	"bhrc/backend/internal/storage"
	"bhrc/backend/internal/validation"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// Notifier sends the newsletter emails.
type Notifier interface {
	NewsletterWelcome(ctx context.Context, s *models.NewsletterSubscriber) error
	Campaign(ctx context.Context, c *models.NewsletterCampaign, subs []models.NewsletterSubscriber) (int, error)
}

// markdown renders campaign bodies. Raw HTML in the source is dropped from
// the output.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify, extension.Table, extension.Strikethrough),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// RenderMarkdown converts a campaign body to HTML.
func RenderMarkdown(body string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SubscriberSchema describes subscribers for the generic CRUD service.
var SubscriberSchema = crud.Schema[models.NewsletterSubscriber]{
	Name: "subscriber",
	Fields: []crud.Field{
		{Name: "email", Kind: crud.Email, Rules: "required,email,max=254"},
		{Name: "name", Rules: "max=150"},
		{Name: "status"},
	},
	Filters:          []string{"status"},
	SearchColumns:    []string{"email", "name"},
	Statuses:         []string{models.SubscriberActive, models.SubscriberUnsubscribed},
	DefaultStatus:    models.SubscriberActive,
	SoftDeleteStatus: models.SubscriberUnsubscribed,
	DefaultOrder:     "subscribed_at DESC",
	ConflictMessage:  "this email address is already subscribed",
}

// CampaignSchema describes campaigns for the generic CRUD service. Status,
// recipient count and send time are owned by SendCampaign.
var CampaignSchema = crud.Schema[models.NewsletterCampaign]{
	Name: "campaign",
	Fields: []crud.Field{
		{Name: "subject", Rules: "required,min=3,max=200"},
		{Name: "body", Rules: "required"},
	},
	Filters:       []string{"status"},
	SearchColumns: []string{"subject"},
	Statuses:      []string{models.CampaignDraft, models.CampaignSent},
	DefaultStatus: models.CampaignDraft,
	DefaultOrder:  "created_at DESC",
	Prepare: func(c *models.NewsletterCampaign) error {
		if c.Status == models.CampaignSent {
			return apperrors.NewConflict("a sent campaign cannot be edited")
		}
		html, err := RenderMarkdown(c.Body)
		if err != nil {
			return apperrors.NewValidation("body", "Body is not valid Markdown", err)
		}
		c.BodyHTML = html
		return nil
	},
	Derived: []string{"body_html"},
}

// Service manages subscriptions and campaigns.
type Service struct {
	Subscribers *crud.Service[models.NewsletterSubscriber]
	Campaigns   *crud.Service[models.NewsletterCampaign]
	Notifier    Notifier
	Now         func() time.Time
}

// NewService creates a new newsletter service.
func NewService(subscribers storage.Repository[models.NewsletterSubscriber], campaigns storage.Repository[models.NewsletterCampaign], notifier Notifier) *Service {
	return &Service{
		Subscribers: crud.NewService(subscribers, SubscriberSchema),
		Campaigns:   crud.NewService(campaigns, CampaignSchema),
		Notifier:    notifier,
		Now:         time.Now,
	}
}

// Subscribe adds email to the list. Subscribing an active address again is a
// no-op; an unsubscribed address is reactivated.
func (s *Service) Subscribe(ctx context.Context, email, name string) (*models.NewsletterSubscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if err := validation.Field("email", email, "required,email,max=254"); err != nil {
		return nil, err
	}
	if err := validation.Field("name", name, "max=150"); err != nil {
		return nil, err
	}

	sub, err := s.Subscribers.Repo.FindOne(ctx, map[string]any{"email": email})
	switch {
	case err == nil && sub.Status == models.SubscriberActive:
		return sub, nil
	case err == nil:
		sub.Status = models.SubscriberActive
		sub.SubscribedAt = s.Now()
		sub.UnsubscribedAt = nil
		if name != "" {
			sub.Name = name
		}
		if err := s.Subscribers.Repo.Update(ctx, sub, "status", "subscribed_at", "unsubscribed_at", "name"); err != nil {
			return nil, apperrors.NewUnexpected("failed to update subscriber", err)
		}
	case errors.Is(err, storage.ErrNotFound):
		sub = &models.NewsletterSubscriber{
			Email:        email,
			Name:         name,
			Status:       models.SubscriberActive,
			SubscribedAt: s.Now(),
		}
		if err := s.Subscribers.Insert(ctx, sub); err != nil {
			return nil, err
		}
	default:
		return nil, apperrors.NewUnexpected("failed to look up subscriber", err)
	}

	slog.InfoContext(logging.AppendCtx(ctx, slog.String("subscriber_id", sub.ID)), "newsletter subscription")
	if err := s.Notifier.NewsletterWelcome(ctx, sub); err != nil {
		slog.ErrorContext(ctx, "newsletter welcome email failed", "error", err)
	}
	return sub, nil
}

// Unsubscribe removes a subscriber from future campaigns, identified by the
// token from an email link or by address. It is idempotent.
func (s *Service) Unsubscribe(ctx context.Context, token, email string) error {
	var conds map[string]any
	switch token, email = strings.TrimSpace(token), strings.ToLower(strings.TrimSpace(email)); {
	case token != "":
		conds = map[string]any{"unsubscribe_token": token}
	case email != "":
		conds = map[string]any{"email": email}
	default:
		return apperrors.NewValidation("token", "An unsubscribe token or email address is required")
	}

	sub, err := s.Subscribers.Repo.FindOne(ctx, conds)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewNotFound("subscriber not found")
		}
		return apperrors.NewUnexpected("failed to look up subscriber", err)
	}
	if sub.Status == models.SubscriberUnsubscribed {
		return nil
	}
	err = s.Subscribers.Repo.UpdateColumns(ctx, sub.ID, map[string]any{
		"status":          models.SubscriberUnsubscribed,
		"unsubscribed_at": s.Now(),
	})
	if err != nil {
		return apperrors.NewUnexpected("failed to unsubscribe", err)
	}
	slog.InfoContext(logging.AppendCtx(ctx, slog.String("subscriber_id", sub.ID)), "newsletter unsubscription")
	return nil
}

// SendCampaign delivers a draft campaign to every active subscriber and marks
// it sent. A campaign is sent at most once.
func (s *Service) SendCampaign(ctx context.Context, id string) (*models.NewsletterCampaign, error) {
	c, err := s.Campaigns.Get(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if c.Status == models.CampaignSent {
		return nil, apperrors.NewConflict("this campaign has already been sent")
	}

	subs, err := s.Subscribers.Repo.FindAll(ctx, map[string]any{"status": models.SubscriberActive}, "subscribed_at ASC")
	if err != nil {
		return nil, apperrors.NewUnexpected("failed to load subscribers", err)
	}
	if len(subs) == 0 {
		return nil, apperrors.NewValidation("", "there are no active subscribers to send to")
	}

	ctx = logging.AppendCtx(ctx, slog.String("campaign_id", c.ID))
	sent, err := s.Notifier.Campaign(ctx, c, subs)
	if err != nil {
		if sent == 0 {
			return nil, err
		}
		slog.ErrorContext(ctx, "campaign partially delivered", "error", err, "sent", sent, "subscribers", len(subs))
	}

	sentAt := s.Now()
	c.Status = models.CampaignSent
	c.RecipientCount = int64(sent)
	c.SentAt = &sentAt
	if err := s.Campaigns.Repo.Update(ctx, c, "status", "recipient_count", "sent_at"); err != nil {
		slog.ErrorContext(ctx, "campaign delivered but not marked sent", "error", err, logging.PriorityCritical())
		return nil, apperrors.NewUnexpected("failed to update campaign", err)
	}
	slog.InfoContext(ctx, "campaign sent", "recipients", sent)
	return c, nil
}
