// Package payment defines the contract with the donation payment gateway.
package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Charge outcomes reported by a gateway.
const (
	StatusApproved = "approved"
	StatusDeclined = "declined"
)

// ErrInvalidAmount is returned for non-positive charges.
var ErrInvalidAmount = errors.New("amount must be positive")

// ChargeRequest asks the gateway to collect a donation.
type ChargeRequest struct {
	Reference   string
	AmountPaise int64
	Currency    string
	Method      string
	Email       string
}

// ChargeResult is the gateway's answer.
type ChargeResult struct {
	TransactionID string
	Status        string
	ProcessedAt   time.Time
}

// Approved reports whether the money was collected.
func (r ChargeResult) Approved() bool {
	return r.Status == StatusApproved
}

// Gateway collects payments.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// MockGateway approves every valid charge without contacting a provider.
// It stands in until a real settlement provider is integrated.
type MockGateway struct {
	Now func() time.Time
}

// NewMockGateway Constructor
func NewMockGateway() *MockGateway {
	return &MockGateway{Now: time.Now}
}

func (g *MockGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChargeResult{}, err
	}
	if req.AmountPaise <= 0 {
		return ChargeResult{}, ErrInvalidAmount
	}
	ref := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:12]
	return ChargeResult{
		TransactionID: "TXN" + ref,
		Status:        StatusApproved,
		ProcessedAt:   g.Now(),
	}, nil
}
