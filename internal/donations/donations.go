// Package donations records contributions and charges them through the payment gateway.
package donations

import (
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/crud"
	"bhrc/backend/internal/logging"
	"bhrc/backend/internal/models"
	"bhrc/backend/internal/payment"
	"bhrc/backend/internal/storage"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"strconv"
	"strings"
)

// DefaultCurrency is used when a donation names none.
const DefaultCurrency = "INR"

// Notifier sends donation receipts.
type Notifier interface {
	DonationReceipt(ctx context.Context, d *models.Donation) error
}

// Schema describes donations for the generic CRUD service.
var Schema = crud.Schema[models.Donation]{
	Name: "donation",
	Fields: []crud.Field{
		{Name: "donor_name", Rules: "required,min=2,max=150"},
		{Name: "donor_email", Kind: crud.Email, Rules: "required,email,max=254"},
		{Name: "donor_phone", Kind: crud.Phone, Rules: "phone_in"},
		{Name: "pan", Rules: "pan"},
		{Name: "amount_paise", Kind: crud.Int, Rules: "required,gt=0", Immutable: true},
		{Name: "currency", Rules: "oneof=INR", Immutable: true},
		{Name: "purpose", Rules: "max=100"},
		{Name: "member_id", Rules: "uuid"},
		{Name: "payment_method", Rules: "oneof=upi card netbanking cash cheque"},
		{Name: "transaction_ref", Rules: "max=64"},
		{Name: "status"},
	},
	Filters:       []string{"status", "purpose", "payment_method", "member_id"},
	SearchColumns: []string{"donor_name", "donor_email", "transaction_ref"},
	Statuses:      []string{models.DonationPending, models.DonationCompleted, models.DonationFailed},
	DefaultStatus: models.DonationPending,
	DefaultOrder:  "created_at DESC",
	Prepare: func(d *models.Donation) error {
		d.PAN = strings.ToUpper(d.PAN)
		if d.Currency == "" {
			d.Currency = DefaultCurrency
		}
		if d.MemberID != nil && *d.MemberID == "" {
			d.MemberID = nil
		}
		return nil
	},
}

// Service adds gateway charging to donation CRUD.
type Service struct {
	*crud.Service[models.Donation]
	Gateway  payment.Gateway
	Notifier Notifier
}

// NewService creates a new donation service.
func NewService(repo storage.Repository[models.Donation], gateway payment.Gateway, notifier Notifier) *Service {
	return &Service{
		Service:  crud.NewService(repo, Schema),
		Gateway:  gateway,
		Notifier: notifier,
	}
}

// Donate records a public donation as pending, charges it and stores the
// outcome. The record is kept whatever the gateway answers. Donors may give
// the amount in rupees ("amount") or paise ("amount_paise").
func (s *Service) Donate(ctx context.Context, input map[string]any) (*models.Donation, error) {
	clean := maps.Clone(input)
	for _, k := range []string{"status", "transaction_ref"} {
		delete(clean, k)
	}
	if raw, ok := clean["amount"]; ok {
		delete(clean, "amount")
		if _, set := clean["amount_paise"]; !set {
			paise, err := RupeesToPaise(raw)
			if err != nil {
				return nil, err
			}
			clean["amount_paise"] = paise
		}
	}

	d, err := s.Create(ctx, clean)
	if err != nil {
		return nil, err
	}
	ctx = logging.AppendCtx(ctx, slog.String("donation_id", d.ID))

	res, err := s.Gateway.Charge(ctx, payment.ChargeRequest{
		Reference:   d.ID,
		AmountPaise: d.AmountPaise,
		Currency:    d.Currency,
		Method:      d.PaymentMethod,
		Email:       d.DonorEmail,
	})
	if err != nil {
		slog.ErrorContext(ctx, "payment gateway failed", "error", err)
		d.Status = models.DonationFailed
		s.save(ctx, d)
		return nil, apperrors.NewServiceUnavailable("the payment could not be processed, please try again", err)
	}

	d.TransactionRef = res.TransactionID
	if res.Approved() {
		d.Status = models.DonationCompleted
		paidAt := res.ProcessedAt
		d.PaidAt = &paidAt
	} else {
		d.Status = models.DonationFailed
	}
	s.save(ctx, d)
	slog.InfoContext(ctx, "donation processed", "status", d.Status, "amount_paise", d.AmountPaise)

	if d.Status == models.DonationCompleted {
		if err := s.Notifier.DonationReceipt(ctx, d); err != nil {
			slog.ErrorContext(ctx, "donation receipt failed", "error", err)
		}
	}
	return d, nil
}

// save stores the charge outcome. A failure here leaves the row pending, which
// staff reconcile against the gateway reference in the log.
func (s *Service) save(ctx context.Context, d *models.Donation) {
	if err := s.Repo.Update(ctx, d, "status", "transaction_ref", "paid_at"); err != nil {
		slog.ErrorContext(ctx, "failed to store payment outcome", "error", err,
			"transaction_ref", d.TransactionRef, logging.PriorityCritical())
	}
}

// RupeesToPaise converts an amount in rupees with at most two decimals.
func RupeesToPaise(raw any) (int64, error) {
	bad := apperrors.NewValidation("amount", "Amount must be a number with at most two decimals")
	var s string
	switch v := raw.(type) {
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		s = strings.TrimSpace(v)
	default:
		s = fmt.Sprint(v)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return 0, bad
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || whole == "" {
		return 0, bad
	}
	return int64(math.Round(f * 100)), nil
}
