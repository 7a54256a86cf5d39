package donation

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appcfg "github.com/ecosphere/core/internal/config"
	"github.com/ecosphere/core/internal/models"
	appconfigs "github.com/ecosphere/core/internal/modules/system/core/configs"
)

type Service struct {
	db     *gorm.DB
	cfgSvc *appconfigs.Service
	logger *zap.Logger
	client *http.Client
}

func NewService(db *gorm.DB, cfgSvc *appconfigs.Service, logger *zap.Logger) *Service {
	return &Service{
		db:     db,
		cfgSvc: cfgSvc,
		logger: logger,
		client: &http.Client{Timeout: 20 * time.Second},
	}
}

func (s *Service) options() appcfg.PaymentOptions {
	if s.cfgSvc == nil {
		return appcfg.PaymentOptions{}
	}
	cfg, err := s.cfgSvc.Get()
	if err != nil || cfg == nil {
		return appcfg.PaymentOptions{}
	}
	return cfg.Payment
}

// CreateOrder registers an order with the payment provider and records it
// locally. Amount arrives in major units and is billed in minor units.
func (s *Service) CreateOrder(ctx context.Context, userID string, amount int64, currency string) (*OrderInfo, error) {
	opts := s.options()
	if !opts.Enable || strings.TrimSpace(opts.KeyID) == "" || strings.TrimSpace(opts.KeySecret) == "" {
		return nil, errNotEnabled
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = strings.ToUpper(strings.TrimSpace(opts.Currency))
	}
	if currency == "" {
		currency = "INR"
	}
	minor := amount * 100

	orderID, err := s.createProviderOrder(ctx, opts, minor, currency)
	if err != nil {
		return nil, err
	}

	row := models.DonationModel{
		UserID:   userID,
		OrderID:  orderID,
		Amount:   minor,
		Currency: currency,
		Status:   models.DonationCreated,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return nil, err
	}

	return &OrderInfo{
		OrderID:  orderID,
		Amount:   minor,
		Currency: currency,
		KeyID:    opts.KeyID,
	}, nil
}

func (s *Service) createProviderOrder(ctx context.Context, opts appcfg.PaymentOptions, amount int64, currency string) (string, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		endpoint = "https://api.razorpay.com/v1"
	}

	body, _ := json.Marshal(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  "eco_" + uuid.New().String()[:13],
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(opts.KeyID, opts.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("payment provider error: %s", strings.TrimSpace(string(respBody)))
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", err
	}
	if strings.TrimSpace(parsed.ID) == "" {
		return "", errors.New("payment provider returned no order id")
	}
	return parsed.ID, nil
}

// VerifyCallback checks the checkout signature and settles the order. A
// failed check marks the row failed and returns errSignatureMismatch.
func (s *Service) VerifyCallback(userID, orderID, paymentID, signature string) (*models.DonationModel, error) {
	opts := s.options()
	if !opts.Enable || strings.TrimSpace(opts.KeySecret) == "" {
		return nil, errNotEnabled
	}

	var row models.DonationModel
	err := s.db.Where("order_id = ? AND user_id = ?", orderID, userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if !verifySignature(opts.KeySecret, orderID, paymentID, signature) {
		if err := s.db.Model(&row).Update("status", models.DonationFailed).Error; err != nil && s.logger != nil {
			s.logger.Warn("donation failure mark failed", zap.String("order", orderID), zap.Error(err))
		}
		return nil, errSignatureMismatch
	}

	err = s.db.Model(&row).Updates(map[string]interface{}{
		"status":     models.DonationPaid,
		"payment_id": paymentID,
	}).Error
	if err != nil {
		return nil, err
	}
	row.Status = models.DonationPaid
	row.PaymentID = paymentID
	return &row, nil
}

// verifySignature checks the provider's HMAC-SHA256 over "orderId|paymentId".
func verifySignature(secret, orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// List returns the user's donation history, newest first.
func (s *Service) List(userID string) ([]models.DonationModel, error) {
	var rows []models.DonationModel
	err := s.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// DonorMail looks up the donor's address for the receipt.
func (s *Service) DonorMail(userID string) string {
	var row struct {
		Mail string
	}
	s.db.Table("users").Select("mail").Where("id = ?", userID).Scan(&row)
	return row.Mail
}
