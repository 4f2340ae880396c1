package monetbil

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

const signField = "sign"

// Sign computes the signature over a notification payload: every field
// except the sign field itself, keys sorted, concatenated as key=value&
// pairs with the service secret appended, SHA-256 hashed.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == signField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("%s=%s&", k, params[k]))
	}
	b.WriteString(secret)

	digest := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(digest[:])
}

// VerifySign checks an inbound notification signature with a constant-time
// comparison. It fails closed: a missing secret or an undecodable signature
// is never accepted.
func VerifySign(params map[string]string, signature string, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}

	expected, err := hex.DecodeString(Sign(params, secret))
	if err != nil {
		return false
	}
	received, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, received)
}
