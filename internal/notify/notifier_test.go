package notify_test

import (
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/localization"
	"bhrc/backend/internal/models"
	"bhrc/backend/internal/notify"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent    []notify.SendRequest
	batches [][]notify.SendRequest
	err     error
}

func (s *recordingSender) Send(_ context.Context, req notify.SendRequest) (notify.SendResult, error) {
	s.sent = append(s.sent, req)
	return notify.SendResult{MessageID: "m"}, s.err
}

func (s *recordingSender) SendBatch(_ context.Context, reqs []notify.SendRequest) ([]notify.SendResult, error) {
	s.batches = append(s.batches, reqs)
	if s.err != nil {
		return nil, s.err
	}
	return make([]notify.SendResult, len(reqs)), nil
}

type recordingAlerter struct {
	alerts []string
}

func (a *recordingAlerter) Alert(_ context.Context, text string) error {
	a.alerts = append(a.alerts, text)
	return nil
}

func newNotifier(t *testing.T, sender notify.Sender, opts notify.Options) *notify.Notifier {
	t.Helper()
	texts, err := localization.Default()
	require.NoError(t, err)
	n, err := notify.New(sender, texts, opts)
	require.NoError(t, err)
	return n
}

func TestComplaintReceived(t *testing.T) {
	sender := &recordingSender{}
	alerter := &recordingAlerter{}
	n := newNotifier(t, sender, notify.Options{
		From:       "BHRC <noreply@bhrc.org>",
		AdminEmail: "desk@bhrc.org",
		SiteURL:    "https://bhrc.org/",
		Alerter:    alerter,
	})

	c := &models.Complaint{
		ComplaintID: "BHRC202610191234",
		FullName:    "Sita <Devi>",
		Email:       "sita@example.org",
		Category:    "police_excess",
		Priority:    "high",
		Subject:     "Detained without charge",
		Status:      models.ComplaintSubmitted,
	}
	require.NoError(t, n.ComplaintReceived(context.Background(), c))

	require.Len(t, sender.sent, 2)
	confirmation := sender.sent[0]
	assert.Equal(t, []string{"sita@example.org"}, confirmation.To)
	assert.Equal(t, "Complaint BHRC202610191234 received", confirmation.Subject)
	assert.Equal(t, "desk@bhrc.org", confirmation.ReplyTo)
	assert.Contains(t, confirmation.HTML, "BHRC202610191234")
	assert.Contains(t, confirmation.HTML, "Sita &lt;Devi&gt;")
	assert.Contains(t, confirmation.HTML, "Submitted")
	assert.Contains(t, confirmation.HTML, "https://bhrc.org/complaints/track?id=BHRC202610191234")

	assert.Equal(t, []string{"desk@bhrc.org"}, sender.sent[1].To)

	require.Len(t, alerter.alerts, 1)
	assert.Contains(t, alerter.alerts[0], "Priority: high")
}

func TestComplaintReceivedWithoutEmailOnlyAlertsStaff(t *testing.T) {
	sender := &recordingSender{}
	alerter := &recordingAlerter{}
	n := newNotifier(t, sender, notify.Options{Alerter: alerter})

	require.NoError(t, n.ComplaintReceived(context.Background(), &models.Complaint{ComplaintID: "BHRC202610191234"}))
	assert.Empty(t, sender.sent)
	assert.Len(t, alerter.alerts, 1)
}

func TestComplaintStatusChangedUsesStatusLabel(t *testing.T) {
	sender := &recordingSender{}
	n := newNotifier(t, sender, notify.Options{})

	c := &models.Complaint{ComplaintID: "BHRC202610191234", Email: "a@example.org", Status: models.ComplaintUnderReview}
	require.NoError(t, n.ComplaintStatusChanged(context.Background(), c))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Complaint BHRC202610191234: status changed to Under review", sender.sent[0].Subject)
}

func TestHindiSubjects(t *testing.T) {
	sender := &recordingSender{}
	n := newNotifier(t, sender, notify.Options{Language: "hi"})

	require.NoError(t, n.MemberApproved(context.Background(), &models.Member{Name: "Asha", Email: "asha@example.org"}))
	assert.Equal(t, "आपकी BHRC सदस्यता स्वीकृत हो गई है", sender.sent[0].Subject)
}

func TestSendFailureIsServiceUnavailable(t *testing.T) {
	sender := &recordingSender{err: errors.New("provider down")}
	n := newNotifier(t, sender, notify.Options{})

	err := n.MemberWelcome(context.Background(), &models.Member{Name: "Asha", Email: "asha@example.org"})

	var su apperrors.ServiceUnavailable
	require.ErrorAs(t, err, &su)
	assert.ErrorContains(t, err, "provider down")
}

func TestDonationReceipt(t *testing.T) {
	sender := &recordingSender{}
	n := newNotifier(t, sender, notify.Options{})

	d := &models.Donation{
		DonorName:      "Ravi",
		DonorEmail:     "ravi@example.org",
		AmountPaise:    150050,
		Currency:       "INR",
		TransactionRef: "TXNABC123",
	}
	require.NoError(t, n.DonationReceipt(context.Background(), d))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Receipt for your donation TXNABC123", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].HTML, "INR 1500.50")
}

func TestCampaignAddsPersonalUnsubscribeLinks(t *testing.T) {
	sender := &recordingSender{}
	n := newNotifier(t, sender, notify.Options{SiteURL: "https://bhrc.org"})

	campaign := &models.NewsletterCampaign{Subject: "October update", BodyHTML: "<h1>News</h1>"}
	subs := []models.NewsletterSubscriber{
		{Email: "a@example.org", UnsubscribeToken: "tok-a"},
		{Email: "b@example.org", UnsubscribeToken: "tok-b"},
	}

	sent, err := n.Campaign(context.Background(), campaign, subs)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	require.Len(t, sender.batches, 1)
	batch := sender.batches[0]
	assert.Equal(t, "October update", batch[0].Subject)
	assert.Contains(t, batch[0].HTML, "<h1>News</h1>")
	assert.Contains(t, batch[0].HTML, "https://bhrc.org/api/newsletter/unsubscribe?token=tok-a")
	assert.Contains(t, batch[1].HTML, "token=tok-b")
}

func TestCampaignFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("quota exceeded")}
	n := newNotifier(t, sender, notify.Options{})

	sent, err := n.Campaign(context.Background(), &models.NewsletterCampaign{}, []models.NewsletterSubscriber{{Email: "a@example.org"}})
	assert.Zero(t, sent)
	var su apperrors.ServiceUnavailable
	assert.ErrorAs(t, err, &su)
}

func TestFormatPaise(t *testing.T) {
	assert.Equal(t, "0.05", notify.FormatPaise(5))
	assert.Equal(t, "1500.50", notify.FormatPaise(150050))
	assert.Equal(t, "-2.00", notify.FormatPaise(-200))
}

func TestNoopSender(t *testing.T) {
	s := notify.NewNoopSender()
	res, err := s.SendBatch(context.Background(), []notify.SendRequest{{To: []string{"a@example.org"}}, {To: []string{"b@example.org"}}})
	require.NoError(t, err)
	assert.Len(t, res, 2)
}
