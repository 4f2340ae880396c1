package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thedevsaddam/govalidator"
)

// Payment statuses. A payment starts pending and is only moved by the
// notification dispatcher or an administrative action.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusCancelled = "cancelled"
)

// Payment types. Cart payments are parents that fan out into per-item
// children once completed.
const (
	PaymentTypeSound  = "sound"
	PaymentTypeTicket = "ticket"
	PaymentTypeCart   = "cart"
)

// Statuses the provider declares in webhook notifications.
const (
	NotificationStatusSuccess   = "success"
	NotificationStatusFailed    = "failed"
	NotificationStatusPending   = "pending"
	NotificationStatusCancelled = "cancelled"
)

var paymentTransitions = map[string]map[string]struct{}{
	PaymentStatusPending: {
		PaymentStatusPending:   {},
		PaymentStatusCompleted: {},
		PaymentStatusFailed:    {},
		PaymentStatusCancelled: {},
	},
	PaymentStatusCompleted: {
		PaymentStatusRefunded: {},
	},
	PaymentStatusFailed:    {},
	PaymentStatusRefunded:  {},
	PaymentStatusCancelled: {},
}

// CanTransition reports whether a payment may move from one status to
// another. Provider corrections after completion (completed -> failed) are
// rejected; the webhook handler logs them and answers 200.
func CanTransition(from, to string) bool {
	allowed, ok := paymentTransitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// ResolveNotificationStatus maps a provider status string, case
// insensitively, to the target payment status. Unknown values return
// ok=false and must be discarded without a state change.
func ResolveNotificationStatus(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case NotificationStatusSuccess:
		return PaymentStatusCompleted, true
	case NotificationStatusFailed:
		return PaymentStatusFailed, true
	case NotificationStatusPending:
		return PaymentStatusPending, true
	case NotificationStatusCancelled:
		return PaymentStatusCancelled, true
	}
	return "", false
}

type Payment struct {
	ID               int              `json:"id,omitempty"`
	Reference        string           `json:"reference,omitempty"`
	TransactionID    string           `json:"transaction_id,omitempty"`
	Type             string           `json:"type,omitempty"`
	ProductID        int              `json:"product_id,omitempty"`
	User             *User            `json:"user,omitempty"`
	Seller           *User            `json:"seller,omitempty"`
	Amount           float64          `json:"amount"`
	CommissionRate   float64          `json:"commission_rate"`
	CommissionAmount float64          `json:"commission_amount"`
	SellerAmount     float64          `json:"seller_amount"`
	Status           string           `json:"status,omitempty"`
	FailureReason    string           `json:"failure_reason,omitempty"`
	Metadata         *PaymentMetadata `json:"metadata,omitempty"`
	PaidAt           *time.Time       `json:"paid_at,omitempty"`
	Created          time.Time        `json:"created"`
	Updated          time.Time        `json:"updated"`
}

// CartItem is one purchasable line inside a cart payment.
type CartItem struct {
	ID       int     `json:"id"`
	Type     string  `json:"type"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// PaymentMetadata is the structured document stored with a payment. Cart
// parents carry the items and the fan-out bookkeeping; every payment can
// carry the raw provider echo.
type PaymentMetadata struct {
	CartItems       []CartItem        `json:"cart_items,omitempty"`
	Subtotal        float64           `json:"subtotal,omitempty"`
	Discount        float64           `json:"discount,omitempty"`
	OrderNumber     string            `json:"order_number,omitempty"`
	ChildPaymentIDs []int             `json:"child_payment_ids,omitempty"`
	ParentPaymentID int               `json:"parent_payment_id,omitempty"`
	ProcessedAt     *time.Time        `json:"processed_at,omitempty"`
	ProviderEcho    map[string]string `json:"provider_echo,omitempty"`
}

// FanOutLine is the computed monetary split for one cart line before
// sellers are resolved and children persisted.
type FanOutLine struct {
	Item             CartItem `json:"item"`
	Amount           float64  `json:"amount"`
	CommissionRate   float64  `json:"commission_rate"`
	CommissionAmount float64  `json:"commission_amount"`
	SellerAmount     float64  `json:"seller_amount"`
}

// BuildFanOutPlan computes the per-line amounts for a completed cart. Each
// line total is scaled by the cart-level discount ratio so the children sum
// to the cart's discounted total, then split with the commission rate for
// the line's product type.
func (m *PaymentMetadata) BuildFanOutPlan(rates map[string]float64) []FanOutLine {
	lines := make([]FanOutLine, 0, len(m.CartItems))
	for _, item := range m.CartItems {
		lineTotal := decimal.NewFromFloat(item.Price).
			Mul(decimal.NewFromInt(int64(item.Quantity))).
			Round(2).InexactFloat64()
		discounted := ApplyDiscountRatio(lineTotal, m.Discount, m.Subtotal)

		split := CalculateCommission(discounted, rates[item.Type])
		lines = append(lines, FanOutLine{
			Item:             item,
			Amount:           discounted,
			CommissionRate:   split.Rate,
			CommissionAmount: split.CommissionAmount,
			SellerAmount:     split.SellerAmount,
		})
	}
	return lines
}

type InsertCartPaymentOpts struct {
	Items    []CartItem `json:"items"`
	Discount float64    `json:"discount"`
	Phone    string     `json:"phone"`
}

var InsertCartPaymentRules = govalidator.MapData{
	"items":    []string{"required"},
	"discount": []string{"float"},
	"phone":    []string{"required"},
}

type InsertSinglePaymentOpts struct {
	Phone string `json:"phone"`
}

var InsertSinglePaymentRules = govalidator.MapData{
	"phone": []string{"required"},
}

type GetPaymentsOpts struct {
	CreatedFrom string   `schema:"created_from"`
	CreatedTo   string   `schema:"created_to"`
	Statuses    []string `schema:"statuses"`
	Types       []string `schema:"types"`
	UserIDs     []int    `schema:"user_ids"`
	SellerIDs   []int    `schema:"seller_ids"`
	LimitFrom   int      `schema:"limit_from"`
	LimitTo     int      `schema:"limit_to"`
}

var GetPaymentsRules = govalidator.MapData{
	"created_from": []string{"date_ISO8601"},
	"created_to":   []string{"date_ISO8601"},
	"statuses":     []string{"array_string"},
	"types":        []string{"array_string"},
	"user_ids":     []string{"array_int"},
	"seller_ids":   []string{"array_int"},
	"limit_from":   []string{"numeric"},
	"limit_to":     []string{"numeric"},
}

type PaymentsStruct struct {
	Payments []Payment `json:"payments"`
	Total    int       `json:"total"`
}

type CheckoutResponse struct {
	Reference   string  `json:"reference"`
	PaymentURL  string  `json:"payment_url"`
	Amount      float64 `json:"amount"`
	PaymentType string  `json:"payment_type"`
}

type TicketPDFHTML struct {
	PaymentID int
	Firstname string
	Lastname  string
	Title     string
	Date      string
	Venue     string
	Amount    float64
	Image     string
	Reference string
}

type PaymentHTML struct {
	ID        int
	Firstname string
	Lastname  string
	Amount    float64
	Reference string
}

type TicketPDF struct {
	URL string `json:"url"`
}
