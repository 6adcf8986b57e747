package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"triostack/internal/model"
	"triostack/internal/repository"
	"triostack/internal/worker"
)

// Notifier produces the notification emails. It never sends directly: every
// message goes through the Redis job queue and is delivered by the worker
// pool, so a slow SMTP server cannot stall a request or a scheduler tick.
type Notifier interface {
	NotifyExpiring(ctx context.Context, days int) error
	NotifyExpired(ctx context.Context) error
	NotifyAssignment(ctx context.Context, asset *model.Asset, user *model.User) error
	NotifyReturn(ctx context.Context, asset *model.Asset, user *model.User) error
}

type notificationService struct {
	assets     repository.AssetRepository
	users      repository.UserRepository
	dispatcher *worker.Dispatcher
}

func NewNotificationService(
	assets repository.AssetRepository,
	users repository.UserRepository,
	dispatcher *worker.Dispatcher,
) Notifier {
	return &notificationService{assets: assets, users: users, dispatcher: dispatcher}
}

// NotifyExpiring emails every active admin one alert per asset expiring
// within the next `days` days.
func (s *notificationService) NotifyExpiring(ctx context.Context, days int) error {
	now := time.Now().UTC()
	assets, err := s.assets.FindExpiring(ctx, now, days)
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		return nil
	}
	admins, err := s.users.ActiveAdmins(ctx)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		log.Warn().Msg("no active admins to notify about expiring assets")
		return nil
	}

	for i := range assets {
		a := &assets[i]
		subject := fmt.Sprintf("Asset Expiry Alert - %s", a.Name)
		body := expiringBody(a, now)
		for j := range admins {
			s.enqueue(ctx, admins[j].Email, subject, body)
		}
	}
	log.Info().Int("assets", len(assets)).Int("recipients", len(admins)).
		Int("windowDays", days).Msg("expiry notifications enqueued")
	return nil
}

// NotifyExpired emails active admins about assets already past their expiry
// date.
func (s *notificationService) NotifyExpired(ctx context.Context) error {
	now := time.Now().UTC()
	assets, err := s.assets.FindExpired(ctx, now)
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		return nil
	}
	admins, err := s.users.ActiveAdmins(ctx)
	if err != nil {
		return err
	}

	for i := range assets {
		a := &assets[i]
		subject := fmt.Sprintf("Asset Expired - %s", a.Name)
		body := expiredBody(a)
		for j := range admins {
			s.enqueue(ctx, admins[j].Email, subject, body)
		}
	}
	return nil
}

func (s *notificationService) NotifyAssignment(ctx context.Context, asset *model.Asset, user *model.User) error {
	subject := fmt.Sprintf("Asset Assigned - %s", asset.Name)
	body := fmt.Sprintf(
		"<h2>Asset Assigned</h2>"+
			"<p>Hello %s,</p>"+
			"<p>The asset <strong>%s</strong> (%s) has been assigned to you.</p>"+
			"%s"+
			"<p>Please contact your administrator with any questions.</p>",
		user.Name, asset.Name, asset.Type, expirySnippet(asset))
	s.enqueue(ctx, user.Email, subject, body)
	return nil
}

func (s *notificationService) NotifyReturn(ctx context.Context, asset *model.Asset, user *model.User) error {
	subject := fmt.Sprintf("Asset Returned - %s", asset.Name)
	body := fmt.Sprintf(
		"<h2>Asset Returned</h2>"+
			"<p>Hello %s,</p>"+
			"<p>The return of asset <strong>%s</strong> (%s) has been recorded.</p>",
		user.Name, asset.Name, asset.Type)
	s.enqueue(ctx, user.Email, subject, body)
	return nil
}

func (s *notificationService) enqueue(ctx context.Context, to, subject, body string) {
	err := s.dispatcher.EnqueueEmail(ctx, worker.EmailJobPayload{
		ToEmail: to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		log.Error().Err(err).Str("to", to).Str("subject", subject).
			Msg("failed to enqueue notification email")
	}
}

func expiringBody(a *model.Asset, now time.Time) string {
	days := 0
	if d := a.DaysUntilExpiry(now); d != nil {
		days = *d
	}
	return fmt.Sprintf(
		"<h2>Asset Expiry Alert</h2>"+
			"<p>The asset <strong>%s</strong> (%s) expires in <strong>%d day(s)</strong>, on %s.</p>"+
			"<p>Please review its renewal or replacement.</p>",
		a.Name, a.Type, days, a.ExpiryDate.Format("2006-01-02"))
}

func expiredBody(a *model.Asset) string {
	return fmt.Sprintf(
		"<h2>Asset Expired</h2>"+
			"<p>The asset <strong>%s</strong> (%s) expired on %s.</p>"+
			"<p>It has been marked as expired in the register.</p>",
		a.Name, a.Type, a.ExpiryDate.Format("2006-01-02"))
}

func expirySnippet(a *model.Asset) string {
	if a.ExpiryDate == nil {
		return ""
	}
	return fmt.Sprintf("<p>This asset expires on %s.</p>", a.ExpiryDate.Format("2006-01-02"))
}
