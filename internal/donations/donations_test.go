package donations_test

import (
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/donations"
	"bhrc/backend/internal/mocks"
	"bhrc/backend/internal/models"
	"bhrc/backend/internal/payment"
	"bhrc/backend/internal/storage"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newService() (*donations.Service, *mocks.Repository[models.Donation], *mocks.Gateway, *mocks.Notifier) {
	repo := new(mocks.Repository[models.Donation])
	gateway := new(mocks.Gateway)
	notifier := new(mocks.Notifier)
	return donations.NewService(repo, gateway, notifier), repo, gateway, notifier
}

func gift() map[string]any {
	return map[string]any{
		"donor_name":      "Ravi Kumar",
		"donor_email":     "ravi@example.org",
		"pan":             "abcde1234f",
		"amount":          "1500.50",
		"payment_method":  "upi",
		"status":          models.DonationCompleted,
		"transaction_ref": "FORGED",
	}
}

func TestDonate_Completed(t *testing.T) {
	svc, repo, gateway, notifier := newService()
	paidAt := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(d *models.Donation) bool {
		return d.Status == models.DonationPending && d.TransactionRef == ""
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Donation).ID = "d1"
	}).Return(nil)
	gateway.On("Charge", mock.Anything, payment.ChargeRequest{
		Reference: "d1", AmountPaise: 150050, Currency: "INR", Method: "upi", Email: "ravi@example.org",
	}).Return(payment.ChargeResult{TransactionID: "TXNABC", Status: payment.StatusApproved, ProcessedAt: paidAt}, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*models.Donation"), []string{"status", "transaction_ref", "paid_at"}).Return(nil)
	notifier.On("DonationReceipt", mock.Anything, mock.AnythingOfType("*models.Donation")).Return(nil)

	d, err := svc.Donate(context.Background(), gift())
	require.NoError(t, err)

	assert.Equal(t, models.DonationCompleted, d.Status)
	assert.Equal(t, "TXNABC", d.TransactionRef)
	assert.Equal(t, "ABCDE1234F", d.PAN)
	assert.Equal(t, int64(150050), d.AmountPaise)
	require.NotNil(t, d.PaidAt)
	assert.Equal(t, paidAt, *d.PaidAt)
	assert.Nil(t, d.MemberID)
	repo.AssertExpectations(t)
	gateway.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestDonate_Declined(t *testing.T) {
	svc, repo, gateway, notifier := newService()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	gateway.On("Charge", mock.Anything, mock.Anything).Return(payment.ChargeResult{TransactionID: "TXNX", Status: payment.StatusDeclined}, nil)
	repo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	d, err := svc.Donate(context.Background(), gift())
	require.NoError(t, err)

	assert.Equal(t, models.DonationFailed, d.Status)
	assert.Nil(t, d.PaidAt)
	notifier.AssertNotCalled(t, "DonationReceipt", mock.Anything, mock.Anything)
}

func TestDonate_GatewayErrorKeepsRecord(t *testing.T) {
	svc, repo, gateway, _ := newService()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	gateway.On("Charge", mock.Anything, mock.Anything).Return(payment.ChargeResult{}, errors.New("timeout"))
	repo.On("Update", mock.Anything, mock.MatchedBy(func(d *models.Donation) bool {
		return d.Status == models.DonationFailed
	}), mock.Anything).Return(nil)

	_, err := svc.Donate(context.Background(), gift())

	var su apperrors.ServiceUnavailable
	require.ErrorAs(t, err, &su)
	repo.AssertExpectations(t)
}

func TestDonate_Validation(t *testing.T) {
	tests := map[string]struct {
		key   string
		value any
		field string
	}{
		"zero amount":      {"amount", "0", "amount_paise"},
		"three decimals":   {"amount", "10.005", "amount"},
		"not a number":     {"amount", "ten", "amount"},
		"bad pan":          {"pan", "1234", "pan"},
		"bad email":        {"donor_email", "ravi", "donor_email"},
		"bad member":       {"member_id", "member-1", "member_id"},
		"unknown method":   {"payment_method", "bitcoin", "payment_method"},
		"foreign currency": {"currency", "USD", "currency"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			svc, repo, gateway, _ := newService()
			in := gift()
			in[tt.key] = tt.value

			_, err := svc.Donate(context.Background(), in)

			var verr apperrors.Validation
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
		})
	}
}

func TestDonate_UnknownMember(t *testing.T) {
	svc, repo, gateway, _ := newService()
	repo.On("Create", mock.Anything, mock.Anything).Return(storage.ErrInvalidReference)

	in := gift()
	in["member_id"] = "8f14e45f-ceea-467f-a0e6-8b1b4c1f0c1e"
	_, err := svc.Donate(context.Background(), in)

	assert.True(t, apperrors.IsValidation(err))
	gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
}

func TestDonate_PaiseTakesPrecedence(t *testing.T) {
	svc, repo, gateway, notifier := newService()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(d *models.Donation) bool {
		return d.AmountPaise == 50000
	})).Return(nil)
	gateway.On("Charge", mock.Anything, mock.Anything).Return(payment.ChargeResult{Status: payment.StatusApproved}, nil)
	repo.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier.On("DonationReceipt", mock.Anything, mock.Anything).Return(nil)

	in := gift()
	in["amount_paise"] = float64(50000)
	_, err := svc.Donate(context.Background(), in)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDelete_IsHard(t *testing.T) {
	svc, repo, _, _ := newService()
	repo.On("Delete", mock.Anything, "d1").Return(nil)

	require.NoError(t, svc.Delete(context.Background(), "d1"))
}

func TestRupeesToPaise(t *testing.T) {
	for in, want := range map[any]int64{"100": 10000, "0.5": 50, "1500.50": 150050, 12.34: 1234, float64(7): 700} {
		got, err := donations.RupeesToPaise(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := donations.RupeesToPaise(".5")
	assert.Error(t, err)
}
