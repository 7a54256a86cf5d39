package donation

import (
	"errors"
	"time"

	"github.com/ecosphere/core/internal/models"
)

var (
	errNotEnabled        = errors.New("donations are not enabled")
	errOrderNotFound     = errors.New("donation order not found")
	errSignatureMismatch = errors.New("payment signature verification failed")
)

type createOrderDTO struct {
	Amount   int64  `json:"amount" binding:"required,gt=0"` // major units
	Currency string `json:"currency"`
}

type callbackDTO struct {
	OrderID   string `json:"orderId"   binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// OrderInfo is what the checkout widget needs to open.
type OrderInfo struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

type donationResponse struct {
	ID        string                `json:"id"`
	OrderID   string                `json:"order_id"`
	PaymentID string                `json:"payment_id,omitempty"`
	Amount    int64                 `json:"amount"`
	Currency  string                `json:"currency"`
	Status    models.DonationStatus `json:"status"`
	Created   time.Time             `json:"created"`
}

func toResponse(m *models.DonationModel) donationResponse {
	return donationResponse{
		ID:        m.ID,
		OrderID:   m.OrderID,
		PaymentID: m.PaymentID,
		Amount:    m.Amount,
		Currency:  m.Currency,
		Status:    m.Status,
		Created:   m.CreatedAt,
	}
}
