package api

import (
	"fmt"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/eliote-geeks/reveilartist-sub003/monetbil"
)

func TestParseNotificationBodyForm(t *testing.T) {
	form := url.Values{}
	form.Set("status", "success")
	form.Set("item_ref", "ref-123")
	form.Set("amount", "1000")
	form.Set("sign", "abc")

	r := httptest.NewRequest("POST", "/payment/notify", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	params, err := parseNotificationBody(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params["status"] != "success" {
		t.Errorf("expected status success, got %q", params["status"])
	}
	if params["item_ref"] != "ref-123" {
		t.Errorf("expected item_ref ref-123, got %q", params["item_ref"])
	}
	if params["sign"] != "abc" {
		t.Errorf("expected sign abc, got %q", params["sign"])
	}
}

func TestParseNotificationBodyJSON(t *testing.T) {
	body := `{"status":"failed","item_ref":"ref-456","amount":1500,"fee":1000.00,"retry":true,"operator":null}`

	r := httptest.NewRequest("POST", "/payment/notify", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	params, err := parseNotificationBody(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params["status"] != "failed" {
		t.Errorf("expected status failed, got %q", params["status"])
	}
	if params["amount"] != "1500" {
		t.Errorf("expected amount 1500, got %q", params["amount"])
	}
	if params["fee"] != "1000.00" {
		t.Errorf("expected fee to keep its literal form 1000.00, got %q", params["fee"])
	}
	if params["retry"] != "true" {
		t.Errorf("expected retry true, got %q", params["retry"])
	}
	if _, ok := params["operator"]; ok {
		t.Errorf("expected null field to be dropped")
	}
}

func TestParseNotificationBodyInvalidJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/payment/notify", strings.NewReader("{not json"))
	r.Header.Set("Content-Type", "application/json")

	if _, err := parseNotificationBody(r); err == nil {
		t.Fatal("expected error for invalid json body")
	}
}

// A parsed form payload must verify against a signature computed over the
// same fields, regardless of the body encoding the provider picked.
func TestParsedBodyVerifiesSignature(t *testing.T) {
	secret := "service-secret"
	payload := map[string]string{
		"status":   "success",
		"item_ref": "ref-789",
		"amount":   "2500",
	}
	signature := monetbil.Sign(payload, secret)

	form := url.Values{}
	for k, v := range payload {
		form.Set(k, v)
	}
	form.Set("sign", signature)

	r := httptest.NewRequest("POST", "/payment/notify", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	params, err := parseNotificationBody(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !monetbil.VerifySign(params, params["sign"], secret) {
		t.Fatal("expected parsed payload to verify")
	}

	params["amount"] = "9999"
	if monetbil.VerifySign(params, params["sign"], secret) {
		t.Fatal("expected tampered payload to fail verification")
	}
}

// A signature computed over "amount":"1000.00" must still verify when the
// provider sends the amount as a JSON number with trailing zeros.
func TestParsedJSONNumberVerifiesSignature(t *testing.T) {
	secret := "service-secret"
	payload := map[string]string{
		"status":   "success",
		"item_ref": "ref-790",
		"amount":   "1000.00",
	}
	signature := monetbil.Sign(payload, secret)

	body := fmt.Sprintf(`{"status":"success","item_ref":"ref-790","amount":1000.00,"sign":%q}`, signature)
	r := httptest.NewRequest("POST", "/payment/notify", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	params, err := parseNotificationBody(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !monetbil.VerifySign(params, params["sign"], secret) {
		t.Fatal("expected decimal amount payload to verify")
	}
}
