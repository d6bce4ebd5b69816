package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// CSRFField is the form field that carries the token.
const CSRFField = "csrf_token"

// CSRFHeader carries the token on AJAX requests.
const CSRFHeader = "X-CSRF-Token"

// CSRFToken derives the form token of a session from its JTI, so it needs no
// storage and dies with the session.
func CSRFToken(secret, jti string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("csrf:" + jti))
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidCSRF reports whether token belongs to the session with jti.
func ValidCSRF(secret, jti, token string) bool {
	if jti == "" || token == "" {
		return false
	}
	return hmac.Equal([]byte(CSRFToken(secret, jti)), []byte(token))
}
