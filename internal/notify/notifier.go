package notify

import (
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/localization"
	"bhrc/backend/internal/models"
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Alerter posts short text alerts to staff.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

// Options configures a Notifier.
type Options struct {
	From       string
	AdminEmail string
	Language   string
	// SiteURL is the public base URL used in tracking and unsubscribe links.
	SiteURL string
	// Alerter is optional.
	Alerter Alerter
}

// Notifier renders the site's emails and hands them to a Sender.
// Every method returns a ServiceUnavailable error when delivery fails; callers
// log it and carry on.
type Notifier struct {
	sender Sender
	texts  *localization.Localizer
	opts   Options
	tmpl   *template.Template
}

// New creates a Notifier.
func New(sender Sender, texts *localization.Localizer, opts Options) (*Notifier, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	if opts.Language == "" {
		opts.Language = localization.DefaultLanguage
	}
	opts.SiteURL = strings.TrimRight(opts.SiteURL, "/")
	return &Notifier{sender: sender, texts: texts, opts: opts, tmpl: tmpl}, nil
}

// emailData is the single view model shared by all templates.
type emailData struct {
	Org   string
	Name  string
	Intro string
	Hint  string

	ComplaintID string
	Category    string
	Subject     string
	Status      string
	TrackURL    string

	Amount         string
	Currency       string
	TransactionRef string
	Purpose        string
	PAN            string
	PaidAt         string

	Body template.HTML

	UnsubscribeURL   string
	UnsubscribeLabel string
}

func (n *Notifier) text(key string, args ...any) string {
	if len(args) == 0 {
		return n.texts.GetString(n.opts.Language, key)
	}
	return n.texts.Sprintf(n.opts.Language, key, args...)
}

func (n *Notifier) data() emailData {
	return emailData{Org: n.text("org_name")}
}

func (n *Notifier) render(name string, data emailData) (string, error) {
	var buf bytes.Buffer
	if err := n.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (n *Notifier) send(ctx context.Context, to, subject, tmpl string, data emailData) error {
	html, err := n.render(tmpl, data)
	if err != nil {
		return err
	}
	_, err = n.sender.Send(ctx, SendRequest{
		To:      []string{to},
		From:    n.opts.From,
		Subject: subject,
		HTML:    html,
		ReplyTo: n.opts.AdminEmail,
	})
	return err
}

func (n *Notifier) alert(ctx context.Context, text string) error {
	if n.opts.Alerter == nil {
		return nil
	}
	return n.opts.Alerter.Alert(ctx, text)
}

func unavailable(what string, errs ...error) error {
	if err := errors.Join(errs...); err != nil {
		return apperrors.NewServiceUnavailable("failed to send "+what, err)
	}
	return nil
}

func (n *Notifier) statusLabel(status string) string {
	return n.text("status_" + status)
}

func (n *Notifier) trackURL(complaintID string) string {
	if n.opts.SiteURL == "" {
		return ""
	}
	return n.opts.SiteURL + "/complaints/track?id=" + url.QueryEscape(complaintID)
}

// UnsubscribeURL is the link placed in every newsletter email.
func (n *Notifier) UnsubscribeURL(token string) string {
	return n.opts.SiteURL + "/api/newsletter/unsubscribe?token=" + url.QueryEscape(token)
}

// ComplaintReceived confirms a submission to the complainant and alerts staff.
func (n *Notifier) ComplaintReceived(ctx context.Context, c *models.Complaint) error {
	var errs []error
	if c.Email != "" {
		data := n.data()
		data.Name = c.FullName
		data.Intro = n.text("complaint_received_intro")
		data.Hint = n.text("complaint_track_hint")
		data.ComplaintID = c.ComplaintID
		data.Category = c.Category
		data.Subject = c.Subject
		data.Status = n.statusLabel(c.Status)
		data.TrackURL = n.trackURL(c.ComplaintID)
		errs = append(errs, n.send(ctx, c.Email, n.text("complaint_received_subject", c.ComplaintID), "complaint_received", data))
	}

	alert := n.text("admin_new_complaint", c.ComplaintID, c.Category, c.Priority, c.Subject)
	errs = append(errs, n.alert(ctx, alert))
	if n.opts.AdminEmail != "" {
		_, err := n.sender.Send(ctx, SendRequest{
			To:      []string{n.opts.AdminEmail},
			From:    n.opts.From,
			Subject: n.text("complaint_received_subject", c.ComplaintID),
			HTML:    "<pre>" + template.HTMLEscapeString(alert) + "</pre>",
		})
		errs = append(errs, err)
	}
	return unavailable("complaint confirmation", errs...)
}

// ComplaintStatusChanged tells the complainant about a new status.
func (n *Notifier) ComplaintStatusChanged(ctx context.Context, c *models.Complaint) error {
	if c.Email == "" {
		return nil
	}
	status := n.statusLabel(c.Status)
	data := n.data()
	data.Name = c.FullName
	data.Intro = n.text("complaint_status_intro")
	data.ComplaintID = c.ComplaintID
	data.Status = status
	data.TrackURL = n.trackURL(c.ComplaintID)
	err := n.send(ctx, c.Email, n.text("complaint_status_subject", c.ComplaintID, status), "complaint_status", data)
	return unavailable("status notification", err)
}

// MemberWelcome acknowledges a membership application and alerts staff.
func (n *Notifier) MemberWelcome(ctx context.Context, m *models.Member) error {
	data := n.data()
	data.Name = m.Name
	data.Intro = n.text("member_welcome_intro")
	errs := []error{
		n.send(ctx, m.Email, n.text("member_welcome_subject", m.Name), "member", data),
		n.alert(ctx, n.text("admin_new_member", m.Name, m.Email)),
	}
	return unavailable("membership confirmation", errs...)
}

// MemberApproved tells a member their application was accepted.
func (n *Notifier) MemberApproved(ctx context.Context, m *models.Member) error {
	data := n.data()
	data.Name = m.Name
	data.Intro = n.text("member_approved_intro")
	err := n.send(ctx, m.Email, n.text("member_approved_subject"), "member", data)
	return unavailable("approval notification", err)
}

// DonationReceipt sends the receipt of a completed donation.
func (n *Notifier) DonationReceipt(ctx context.Context, d *models.Donation) error {
	data := n.data()
	data.Name = d.DonorName
	data.Intro = n.text("donation_receipt_intro")
	data.Amount = FormatPaise(d.AmountPaise)
	data.Currency = d.Currency
	data.TransactionRef = d.TransactionRef
	data.Purpose = d.Purpose
	data.PAN = d.PAN
	paidAt := time.Now()
	if d.PaidAt != nil {
		paidAt = *d.PaidAt
	}
	data.PaidAt = paidAt.Format("02 Jan 2006 15:04")

	errs := []error{
		n.send(ctx, d.DonorEmail, n.text("donation_receipt_subject", d.TransactionRef), "donation_receipt", data),
		n.alert(ctx, n.text("admin_new_donation", d.TransactionRef, FormatPaise(d.AmountPaise), d.DonorName)),
	}
	return unavailable("donation receipt", errs...)
}

// NewsletterWelcome greets a new subscriber.
func (n *Notifier) NewsletterWelcome(ctx context.Context, s *models.NewsletterSubscriber) error {
	data := n.data()
	data.Name = s.Name
	data.Intro = n.text("newsletter_welcome_intro")
	data.UnsubscribeURL = n.UnsubscribeURL(s.UnsubscribeToken)
	data.UnsubscribeLabel = n.text("unsubscribe_label")
	err := n.send(ctx, s.Email, n.text("newsletter_welcome_subject"), "newsletter_welcome", data)
	return unavailable("newsletter welcome", err)
}

// Campaign delivers a campaign to subs, one email per subscriber so each
// carries its own unsubscribe link. It returns how many emails were accepted.
func (n *Notifier) Campaign(ctx context.Context, c *models.NewsletterCampaign, subs []models.NewsletterSubscriber) (int, error) {
	reqs := make([]SendRequest, 0, len(subs))
	for i := range subs {
		data := n.data()
		data.Name = subs[i].Name
		data.Body = template.HTML(c.BodyHTML)
		data.UnsubscribeURL = n.UnsubscribeURL(subs[i].UnsubscribeToken)
		data.UnsubscribeLabel = n.text("unsubscribe_label")
		html, err := n.render("campaign", data)
		if err != nil {
			return 0, apperrors.NewUnexpected("failed to render campaign", err)
		}
		reqs = append(reqs, SendRequest{
			To:      []string{subs[i].Email},
			From:    n.opts.From,
			Subject: c.Subject,
			HTML:    html,
			ReplyTo: n.opts.AdminEmail,
		})
	}

	results, err := n.sender.SendBatch(ctx, reqs)
	if err != nil {
		slog.ErrorContext(ctx, "campaign delivery incomplete", "campaign_id", c.ID, "sent", len(results), "total", len(reqs))
		return len(results), unavailable("campaign", err)
	}
	return len(results), nil
}

// FormatPaise renders an amount in paise as rupees with two decimals.
func FormatPaise(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return fmt.Sprintf("%s%d.%02d", sign, paise/100, paise%100)
}
