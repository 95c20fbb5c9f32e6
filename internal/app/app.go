// Package app connects the stores and builds the services shared by the
// server and the admin CLI.
package app

import (
	"bhrc/backend/internal/auth"
	"bhrc/backend/internal/complaint"
	"bhrc/backend/internal/config"
	"bhrc/backend/internal/donations"
	"bhrc/backend/internal/events"
	"bhrc/backend/internal/gallery"
	"bhrc/backend/internal/localization"
	"bhrc/backend/internal/members"
	"bhrc/backend/internal/models"
	"bhrc/backend/internal/newsletter"
	"bhrc/backend/internal/notify"
	"bhrc/backend/internal/payment"
	"bhrc/backend/internal/storage"
	"bhrc/backend/internal/telegram"
	"bhrc/backend/internal/uploads"
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// App holds the open connections and the services built on them.
type App struct {
	Config  config.Config
	Storage *storage.Service
	Policy  *auth.Policy

	Auth       *auth.Service
	Complaints *complaint.Service
	Events     *events.Service
	Members    *members.Service
	Donations  *donations.Service
	Gallery    *gallery.Service
	Newsletter *newsletter.Service
}

// New connects Postgres and Redis, migrates the schema and builds every service.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := storage.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(ctx, db); err != nil {
		closeDB(db)
		return nil, err
	}
	rdb, err := storage.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		closeDB(db)
		return nil, err
	}
	store := storage.NewStorageService(db, rdb)

	notifier, err := newNotifier(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	files := uploads.NewStore(cfg.UploadRoot, cfg.MaxUploadBytes)
	policy := auth.NewPolicy(auth.DefaultRules)

	complaints := complaint.NewService(
		storage.NewRepository[models.Complaint](db, "complaint_id"),
		files, notifier, storage.NewRedisRateLimiter(rdb), policy,
	)
	complaints.SubmitLimit = cfg.SubmitLimit
	complaints.SubmitWindow = cfg.SubmitWindow

	return &App{
		Config:  cfg,
		Storage: store,
		Policy:  policy,
		Auth: auth.NewService(
			storage.NewRepository[models.AdminUser](db, "id"),
			storage.NewRedisSessionStore(rdb, cfg.SessionTTL),
			auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL),
		),
		Complaints: complaints,
		Events: events.NewService(
			storage.NewRepository[models.Event](db, "id"),
			storage.NewRepository[models.EventRegistration](db, "id"),
			files,
		),
		Members:   members.NewService(storage.NewRepository[models.Member](db, "id"), files, notifier),
		Donations: donations.NewService(storage.NewRepository[models.Donation](db, "id"), payment.NewMockGateway(), notifier),
		Gallery:   gallery.NewService(storage.NewRepository[models.GalleryItem](db, "id"), files),
		Newsletter: newsletter.NewService(
			storage.NewRepository[models.NewsletterSubscriber](db, "id"),
			storage.NewRepository[models.NewsletterCampaign](db, "id"),
			notifier,
		),
	}, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Close releases the database and Redis pools.
func (a *App) Close() error {
	return a.Storage.Close()
}

func newNotifier(ctx context.Context, cfg config.Config) (*notify.Notifier, error) {
	var sender notify.Sender
	if cfg.ResendAPIKey != "" {
		sender = notify.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom)
	} else {
		slog.WarnContext(ctx, "RESEND_API_KEY is not set, emails will only be logged")
		sender = notify.NewNoopSender()
	}

	opts := notify.Options{
		From:       cfg.MailFrom,
		AdminEmail: cfg.AdminEmail,
		Language:   cfg.Language,
		SiteURL:    cfg.SiteURL,
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		alerter, err := telegram.NewAlerter(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			slog.WarnContext(ctx, "telegram alerts disabled", "error", err)
		} else {
			opts.Alerter = alerter
		}
	}

	texts, err := localization.Default()
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}
	return notify.New(sender, texts, opts)
}
