package donation

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ecosphere/core/internal/database"
	"github.com/ecosphere/core/internal/models"
	appconfigs "github.com/ecosphere/core/internal/modules/system/core/configs"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func serviceWithProvider(t *testing.T, endpoint string) *Service {
	t.Helper()
	db := setupTestDB(t)
	cfgSvc := appconfigs.NewService(db)
	_, err := cfgSvc.Patch(map[string]json.RawMessage{
		"payment": json.RawMessage(`{"enable":true,"key_id":"rzp_test_key","key_secret":"shhh","endpoint":"` + endpoint + `"}`),
	})
	if err != nil {
		t.Fatalf("patch config: %v", err)
	}
	return NewService(db, cfgSvc, nil)
}

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	good := sign("shhh", "order_1", "pay_1")
	if !verifySignature("shhh", "order_1", "pay_1", good) {
		t.Error("valid signature rejected")
	}
	if !verifySignature("shhh", "order_1", "pay_1", "  "+good+" ") {
		t.Error("signature should tolerate surrounding whitespace")
	}
	if verifySignature("shhh", "order_1", "pay_1", sign("wrong", "order_1", "pay_1")) {
		t.Error("signature with wrong secret accepted")
	}
	if verifySignature("shhh", "order_1", "pay_2", good) {
		t.Error("signature for different payment accepted")
	}
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" {
			t.Errorf("path = %q, want /orders", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test_key" || pass != "shhh" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("request body: %v", err)
		}
		if req.Amount != 50000 {
			t.Errorf("amount = %d, want 50000 minor units", req.Amount)
		}
		if req.Currency != "INR" {
			t.Errorf("currency = %q, want INR", req.Currency)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"order_abc123","status":"created"}`)
	}))
	defer srv.Close()

	svc := serviceWithProvider(t, srv.URL)
	order, err := svc.CreateOrder(context.Background(), "user-1", 500, "")
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.OrderID != "order_abc123" {
		t.Errorf("order id = %q", order.OrderID)
	}
	if order.Amount != 50000 || order.Currency != "INR" {
		t.Errorf("order = %+v", order)
	}
	if order.KeyID != "rzp_test_key" {
		t.Errorf("key id = %q", order.KeyID)
	}

	rows, err := svc.List("user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Status != models.DonationCreated {
		t.Errorf("persisted rows = %+v", rows)
	}
}

func TestCreateOrderDisabled(t *testing.T) {
	svc := NewService(setupTestDB(t), nil, nil)
	if _, err := svc.CreateOrder(context.Background(), "user-1", 500, ""); !errors.Is(err, errNotEnabled) {
		t.Errorf("err = %v, want errNotEnabled", err)
	}
}

func TestVerifyCallbackSettlesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"order_xyz"}`)
	}))
	defer srv.Close()

	svc := serviceWithProvider(t, srv.URL)
	if _, err := svc.CreateOrder(context.Background(), "user-1", 100, "inr"); err != nil {
		t.Fatalf("create order: %v", err)
	}

	row, err := svc.VerifyCallback("user-1", "order_xyz", "pay_1", sign("shhh", "order_xyz", "pay_1"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if row.Status != models.DonationPaid || row.PaymentID != "pay_1" {
		t.Errorf("row = %+v", row)
	}
}

func TestVerifyCallbackBadSignatureMarksFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"order_bad"}`)
	}))
	defer srv.Close()

	svc := serviceWithProvider(t, srv.URL)
	if _, err := svc.CreateOrder(context.Background(), "user-1", 100, ""); err != nil {
		t.Fatalf("create order: %v", err)
	}

	_, err := svc.VerifyCallback("user-1", "order_bad", "pay_1", "deadbeef")
	if !errors.Is(err, errSignatureMismatch) {
		t.Fatalf("err = %v, want errSignatureMismatch", err)
	}

	rows, err := svc.List("user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Status != models.DonationFailed {
		t.Errorf("rows = %+v, want failed status", rows)
	}
}

func TestVerifyCallbackForeignOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"order_own"}`)
	}))
	defer srv.Close()

	svc := serviceWithProvider(t, srv.URL)
	if _, err := svc.CreateOrder(context.Background(), "user-1", 100, ""); err != nil {
		t.Fatalf("create order: %v", err)
	}

	_, err := svc.VerifyCallback("user-2", "order_own", "pay_1", sign("shhh", "order_own", "pay_1"))
	if !errors.Is(err, errOrderNotFound) {
		t.Errorf("err = %v, want errOrderNotFound", err)
	}
}
