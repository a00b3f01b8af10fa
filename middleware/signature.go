package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hotel-inventory/utils"
)

const SignatureHeader = "X-Payment-Signature"

// maxSignedBody caps how much of a signed request is read.
const maxSignedBody = 1 << 20

// Sign returns the signature value a payment provider sends for body:
// "sha256=" followed by the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// PaymentSignature admits only requests whose body is signed with secret in
// SignatureHeader. An empty secret closes the route.
func PaymentSignature(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			utils.JSONError(c, http.StatusUnauthorized, "error.unauthorized", "payment callbacks are disabled", false)
			return
		}
		got := strings.TrimSpace(c.GetHeader(SignatureHeader))
		if got == "" {
			utils.JSONError(c, http.StatusUnauthorized, "error.unauthorized", "missing payment signature", false)
			return
		}
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSignedBody))
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "error.validation", "unreadable body", false)
			return
		}
		if !hmac.Equal([]byte(got), []byte(Sign(secret, body))) {
			utils.JSONError(c, http.StatusUnauthorized, "error.unauthorized", "invalid payment signature", false)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
