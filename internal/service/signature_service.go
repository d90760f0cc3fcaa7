package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront-checkout/pkg/apperror"
)

// WebhookSignatureService verifies gateway webhook signatures.
// Header format: t=<unix seconds>,v1=<hex HMAC-SHA256 of "<t>.<body>">.
// Several v1 entries may be present while the secret is being rolled.
type WebhookSignatureService struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookSignatureService creates a verifier. An empty secret disables
// verification. A zero tolerance skips the timestamp check.
func NewWebhookSignatureService(secret string, tolerance time.Duration) *WebhookSignatureService {
	return &WebhookSignatureService{secret: secret, tolerance: tolerance, now: time.Now}
}

// Enabled reports whether a secret is configured.
func (s *WebhookSignatureService) Enabled() bool {
	return s.secret != ""
}

// Sign computes the hex HMAC-SHA256 of "<timestamp>.<payload>".
func (s *WebhookSignatureService) Sign(payload []byte, timestamp int64) string {
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Header builds a signature header for payload, as the gateway would.
func (s *WebhookSignatureService) Header(payload []byte, timestamp int64) string {
	return fmt.Sprintf("t=%d,v1=%s", timestamp, s.Sign(payload, timestamp))
}

// Verify checks header against payload. Uses constant-time comparison.
func (s *WebhookSignatureService) Verify(payload []byte, header string) error {
	ts, sigs, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	if s.tolerance > 0 {
		age := s.now().Sub(time.Unix(ts, 0))
		if age > s.tolerance || age < -s.tolerance {
			return apperror.ErrInvalidSignature()
		}
	}

	expected := []byte(s.Sign(payload, ts))
	for _, sig := range sigs {
		if hmac.Equal(expected, []byte(sig)) {
			return nil
		}
	}
	return apperror.ErrInvalidSignature()
}

func parseSignatureHeader(header string) (int64, []string, error) {
	var (
		ts    int64
		hasTS bool
		sigs  []string
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, apperror.ErrInvalidSignature()
			}
			ts, hasTS = n, true
		case "v1":
			sigs = append(sigs, strings.ToLower(value))
		}
	}
	if !hasTS || len(sigs) == 0 {
		return 0, nil, apperror.ErrInvalidSignature()
	}
	return ts, sigs, nil
}
