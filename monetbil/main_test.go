package monetbil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		ServiceKey:    "svc-key",
		ServiceSecret: "svc-secret",
		WidgetBaseURL: "https://www.monetbil.com/widget",
		WidgetVersion: "v2.1",
		Currency:      "XAF",
		Country:       "CM",
		Locale:        "fr",
	}
}

func TestBuildCheckoutURL(t *testing.T) {
	client := NewClient(testConfig())

	raw := client.BuildCheckoutURL(CheckoutParams{
		Amount:     1000,
		Phone:      "237677123456",
		ItemRef:    "pay_abc123",
		PaymentRef: "pay_abc123",
		Firstname:  "Awa",
		Email:      "awa@example.com",
		ReturnURL:  "https://front.example.com/return",
		NotifyURL:  "https://api.example.com/payment/notify",
	})

	if !strings.HasPrefix(raw, "https://www.monetbil.com/widget/v2.1/?") {
		t.Fatalf("unexpected widget endpoint: %s", raw)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	q := parsed.Query()
	if q.Get("amount") != "1000" {
		t.Fatalf("expected amount 1000, got %q", q.Get("amount"))
	}
	if q.Get("service") != "svc-key" {
		t.Fatalf("expected service key, got %q", q.Get("service"))
	}
	if q.Get("currency") != "XAF" || q.Get("country") != "CM" {
		t.Fatal("missing currency or country")
	}
	// Empty parameters must be omitted entirely.
	for _, absent := range []string{"last_name", "cancel_url", "logo"} {
		if _, ok := q[absent]; ok {
			t.Fatalf("empty parameter %q must be omitted", absent)
		}
	}
}

func TestBuildCheckoutURLDeterministic(t *testing.T) {
	client := NewClient(testConfig())
	p := CheckoutParams{Amount: 500, Phone: "237699887766", ItemRef: "ref", PaymentRef: "ref"}
	if client.BuildCheckoutURL(p) != client.BuildCheckoutURL(p) {
		t.Fatal("checkout URL must be deterministic for identical inputs")
	}
}

func TestCheckPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.Form.Get("service") != "svc-key" || r.Form.Get("service_secret") != "svc-secret" {
			t.Fatal("missing credentials")
		}
		w.Write([]byte(`{"transaction":{"transaction_UUID":"uuid-1","status":"success","amount":"1000"},"message":"payment found"}`))
	}))
	defer server.Close()

	conf := testConfig()
	conf.CheckURL = server.URL
	client := NewClient(conf)

	resp, err := client.CheckPayment("pay_abc123")
	if err != nil {
		t.Fatal(err)
	}
	if resp.Transaction == nil || resp.Transaction.Status != "success" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCheckPaymentBadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	conf := testConfig()
	conf.CheckURL = server.URL
	client := NewClient(conf)

	if _, err := client.CheckPayment("pay_abc123"); err == nil {
		t.Fatal("expected error for non-JSON body")
	}
}
