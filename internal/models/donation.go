package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Donation statuses.
const (
	DonationPending   = "pending"
	DonationCompleted = "completed"
	DonationFailed    = "failed"
)

// Donation is a single contribution. Amounts are kept in paise.
type Donation struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	DonorName      string     `gorm:"size:150;not null" json:"donor_name"`
	DonorEmail     string     `gorm:"size:254;not null;index" json:"donor_email"`
	DonorPhone     string     `gorm:"size:20" json:"donor_phone"`
	PAN            string     `gorm:"size:10" json:"pan"`
	AmountPaise    int64      `gorm:"not null" json:"amount_paise"`
	Currency       string     `gorm:"size:3;not null;default:INR" json:"currency"`
	Purpose        string     `gorm:"size:100;index" json:"purpose"`
	MemberID       *string    `gorm:"type:uuid;index" json:"member_id"`
	Member         *Member    `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	PaymentMethod  string     `gorm:"size:32" json:"payment_method"`
	TransactionRef string     `gorm:"size:64;index" json:"transaction_ref"`
	Status         string     `gorm:"size:32;not null;index;default:pending" json:"status"`
	PaidAt         *time.Time `json:"paid_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BeforeCreate generates a UUID for the donation if the ID is not set yet.
func (d *Donation) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return
}
