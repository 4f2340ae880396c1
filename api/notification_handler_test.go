package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/eliote-geeks/reveilartist-sub003/config"
	"github.com/eliote-geeks/reveilartist-sub003/db"
	"github.com/eliote-geeks/reveilartist-sub003/middlewares"
	"github.com/eliote-geeks/reveilartist-sub003/models"
	"github.com/eliote-geeks/reveilartist-sub003/monetbil"
	log "github.com/sirupsen/logrus"
)

const testServiceSecret = "service-secret"

// notificationStorage stubs the storage surface the webhook handler touches
// and records which mutations it dispatched.
type notificationStorage struct {
	db.Storage

	payment *models.Payment

	completedSingle bool
	completedCart   bool
	markedFailed    bool
	markedCancelled bool
	mergedEcho      bool
}

func (s *notificationStorage) GetPaymentByReference(reference string) (*models.Payment, error) {
	if s.payment != nil && s.payment.Reference == reference {
		return s.payment, nil
	}
	return nil, nil
}

func (s *notificationStorage) GetPaymentByID(paymentID int) (*models.Payment, error) {
	return s.payment, nil
}

func (s *notificationStorage) CompleteSinglePayment(payment *models.Payment, transactionID string, echo map[string]string) error {
	s.completedSingle = true
	return nil
}

func (s *notificationStorage) CompleteCartPayment(payment *models.Payment, transactionID string, echo map[string]string) ([]int, error) {
	s.completedCart = true
	return nil, nil
}

func (s *notificationStorage) MarkPaymentFailed(paymentID int, reason string, echo map[string]string) error {
	s.markedFailed = true
	return nil
}

func (s *notificationStorage) MarkPaymentCancelled(paymentID int, echo map[string]string) error {
	s.markedCancelled = true
	return nil
}

func (s *notificationStorage) MergeProviderEcho(paymentID int, echo map[string]string) error {
	s.mergedEcho = true
	return nil
}

func (s *notificationStorage) mutated() bool {
	return s.completedSingle || s.completedCart || s.markedFailed || s.markedCancelled || s.mergedEcho
}

func newNotificationContext(store db.Storage) *config.AppContext {
	config.SetLogger(log.NewEntry(log.New()))
	ctx := &config.AppContext{DB: store}
	ctx.Config.Monetbil.ServiceSecret = testServiceSecret
	return ctx
}

func notifyRequest(params map[string]string, sign string) *http.Request {
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("sign", sign)
	r := httptest.NewRequest("POST", "/payment/notify", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func signedNotifyRequest(params map[string]string) *http.Request {
	return notifyRequest(params, monetbil.Sign(params, testServiceSecret))
}

func testPayment(status string) *models.Payment {
	return &models.Payment{
		ID:        11,
		Reference: "ref-n",
		Type:      models.PaymentTypeSound,
		ProductID: 3,
		Status:    status,
		User:      &models.User{ID: 5, Email: "buyer@example.com"},
	}
}

func TestMonetbilNotificationBadSignature(t *testing.T) {
	store := &notificationStorage{payment: testPayment(models.PaymentStatusPending)}
	ctx := newNotificationContext(store)

	rec := httptest.NewRecorder()
	r := notifyRequest(map[string]string{"status": "success", "item_ref": "ref-n"}, "deadbeef")
	MonetbilNotification(ctx, middlewares.NewResponseWriter(rec), r)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad signature, got %d", rec.Code)
	}
	if store.mutated() {
		t.Fatal("expected no mutation on bad signature")
	}
}

func TestMonetbilNotificationUnknownReference(t *testing.T) {
	store := &notificationStorage{}
	ctx := newNotificationContext(store)

	rec := httptest.NewRecorder()
	r := signedNotifyRequest(map[string]string{"status": "success", "item_ref": "no-such-ref"})
	MonetbilNotification(ctx, middlewares.NewResponseWriter(rec), r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown reference, got %d", rec.Code)
	}
	if store.mutated() {
		t.Fatal("expected no mutation for unknown reference")
	}
}

func TestMonetbilNotificationUnknownStatus(t *testing.T) {
	store := &notificationStorage{payment: testPayment(models.PaymentStatusPending)}
	ctx := newNotificationContext(store)

	rec := httptest.NewRecorder()
	r := signedNotifyRequest(map[string]string{"status": "half-done", "item_ref": "ref-n"})
	MonetbilNotification(ctx, middlewares.NewResponseWriter(rec), r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown status, got %d", rec.Code)
	}
	if store.mutated() {
		t.Fatal("expected no mutation for unknown status")
	}
}

func TestMonetbilNotificationSettledDiscard(t *testing.T) {
	store := &notificationStorage{payment: testPayment(models.PaymentStatusCompleted)}
	ctx := newNotificationContext(store)

	rec := httptest.NewRecorder()
	r := signedNotifyRequest(map[string]string{"status": "cancelled", "item_ref": "ref-n"})
	MonetbilNotification(ctx, middlewares.NewResponseWriter(rec), r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for late correction, got %d", rec.Code)
	}
	if store.mutated() {
		t.Fatal("expected completed payment to stay untouched")
	}
}

func TestMonetbilNotificationCompletedRedelivery(t *testing.T) {
	store := &notificationStorage{payment: testPayment(models.PaymentStatusCompleted)}
	ctx := newNotificationContext(store)

	rec := httptest.NewRecorder()
	r := signedNotifyRequest(map[string]string{"status": "success", "item_ref": "ref-n"})
	MonetbilNotification(ctx, middlewares.NewResponseWriter(rec), r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for redelivery, got %d", rec.Code)
	}
	if store.completedSingle || store.completedCart {
		t.Fatal("expected redelivery to short-circuit, not complete again")
	}
}

func TestMonetbilNotificationFailed(t *testing.T) {
	store := &notificationStorage{payment: testPayment(models.PaymentStatusPending)}
	ctx := newNotificationContext(store)

	rec := httptest.NewRecorder()
	r := signedNotifyRequest(map[string]string{"status": "failed", "item_ref": "ref-n", "message": "insufficient funds"})
	MonetbilNotification(ctx, middlewares.NewResponseWriter(rec), r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !store.markedFailed {
		t.Fatal("expected payment marked failed")
	}
}

func TestMonetbilNotificationPendingMergesEcho(t *testing.T) {
	store := &notificationStorage{payment: testPayment(models.PaymentStatusPending)}
	ctx := newNotificationContext(store)

	rec := httptest.NewRecorder()
	r := signedNotifyRequest(map[string]string{"status": "pending", "item_ref": "ref-n", "operator": "mtn"})
	MonetbilNotification(ctx, middlewares.NewResponseWriter(rec), r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !store.mergedEcho {
		t.Fatal("expected provider echo merged on pending payment")
	}
	if store.completedSingle || store.completedCart || store.markedFailed || store.markedCancelled {
		t.Fatal("expected pending notification to leave status alone")
	}
}

func TestMonetbilNotificationSuccess(t *testing.T) {
	store := &notificationStorage{payment: testPayment(models.PaymentStatusPending)}
	ctx := newNotificationContext(store)

	rec := httptest.NewRecorder()
	r := signedNotifyRequest(map[string]string{"status": "success", "item_ref": "ref-n", "transaction_id": "tx-1"})
	MonetbilNotification(ctx, middlewares.NewResponseWriter(rec), r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !store.completedSingle {
		t.Fatal("expected single payment completed")
	}
	if store.completedCart {
		t.Fatal("expected sound payment to take the single path")
	}
}
