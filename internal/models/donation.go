package models

// DonationStatus represents a donation's payment lifecycle.
type DonationStatus string

const (
	DonationCreated DonationStatus = "created"
	DonationPaid    DonationStatus = "paid"
	DonationFailed  DonationStatus = "failed"
)

// DonationModel records a checkout order and its outcome.
type DonationModel struct {
	Base
	UserID    string         `json:"user_id"   gorm:"index;not null"`
	OrderID   string         `json:"order_id"  gorm:"uniqueIndex;not null"`
	PaymentID string         `json:"payment_id"`
	Amount    int64          `json:"amount"` // minor units
	Currency  string         `json:"currency"`
	Status    DonationStatus `json:"status"    gorm:"index;default:'created'"`
}

func (DonationModel) TableName() string { return "donations" }
