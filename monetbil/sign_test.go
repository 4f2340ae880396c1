package monetbil

import "testing"

func notificationParams() map[string]string {
	return map[string]string{
		"item_ref":       "pay_abc123",
		"status":         "success",
		"transaction_id": "tx-991",
		"amount":         "1000",
	}
}

func TestVerifySign(t *testing.T) {
	params := notificationParams()
	secret := "service-secret"

	signature := Sign(params, secret)
	if !VerifySign(params, signature, secret) {
		t.Fatal("expected signature to be valid")
	}
	if VerifySign(params, signature, "wrong-secret") {
		t.Fatal("unexpected valid signature with wrong secret")
	}
	if VerifySign(params, "deadbeef", secret) {
		t.Fatal("unexpected valid signature")
	}
}

func TestVerifySignTamperedField(t *testing.T) {
	params := notificationParams()
	secret := "service-secret"
	signature := Sign(params, secret)

	params["amount"] = "999999"
	if VerifySign(params, signature, secret) {
		t.Fatal("tampered payload must not verify")
	}
}

func TestVerifySignFailsClosed(t *testing.T) {
	params := notificationParams()
	signature := Sign(params, "service-secret")

	if VerifySign(params, signature, "") {
		t.Fatal("missing secret must fail verification")
	}
	if VerifySign(params, "", "service-secret") {
		t.Fatal("missing signature must fail verification")
	}
	if VerifySign(params, "not-hex!!", "service-secret") {
		t.Fatal("undecodable signature must fail verification")
	}
}

func TestSignIgnoresSignField(t *testing.T) {
	params := notificationParams()
	secret := "service-secret"
	signature := Sign(params, secret)

	params[signField] = signature
	if Sign(params, secret) != signature {
		t.Fatal("sign field must be excluded from the signed payload")
	}
}
