package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/marcelsud/webhook-outbox/webhook/payload"
)

const (
	// EventHeader carries the event name of the delivery
	EventHeader = "X-Vikareta-Event"

	// SignatureHeader carries the hex HMAC-SHA256 of "<timestamp>.<body>"
	SignatureHeader = "X-Vikareta-Signature"

	// TimestampHeader carries the signing time in milliseconds since epoch
	TimestampHeader = "X-Vikareta-Timestamp"
)

var (
	ErrMissingSecret    = errors.New("signing secret is required")
	ErrMissingHeaders   = errors.New("missing signature headers")
	ErrInvalidTimestamp = errors.New("invalid signature timestamp")
)

// now is replaced in tests that need a fixed signing time
var now = time.Now

// Signed is a serialized payload together with its signature
type Signed struct {
	Body      []byte
	Signature string
	Timestamp int64
}

// Sign serializes the payload to JSON and signs it with the subscriber secret.
// The timestamp is captured here, not when the request is sent.
func Sign(secret string, p any) (Signed, error) {
	if secret == "" {
		return Signed{}, ErrMissingSecret
	}

	body, err := payload.Encode(p)
	if err != nil {
		return Signed{}, err
	}

	timestamp := now().UnixMilli()

	return Signed{
		Body:      body,
		Signature: Compute(secret, timestamp, body),
		Timestamp: timestamp,
	}, nil
}

// Compute returns hex(HMAC-SHA256(secret, "<timestamp>.<body>"))
func Compute(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature using constant-time comparison
func Verify(secret string, timestamp int64, body []byte, sig string) bool {
	if secret == "" || sig == "" {
		return false
	}
	expected := Compute(secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(sig))
}

// Headers returns the delivery headers for a signed payload.
// The secret itself never appears in them.
func Headers(event string, s Signed) map[string]string {
	return map[string]string{
		EventHeader:     event,
		SignatureHeader: s.Signature,
		TimestampHeader: strconv.FormatInt(s.Timestamp, 10),
	}
}

// Received is the signature data found on an inbound delivery
type Received struct {
	Event     string
	Signature string
	Timestamp int64
}

// ParseHeaders extracts the signature headers from a received request
func ParseHeaders(h http.Header) (Received, error) {
	sig := h.Get(SignatureHeader)
	ts := h.Get(TimestampHeader)
	if sig == "" || ts == "" {
		return Received{}, ErrMissingHeaders
	}

	timestamp, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Received{}, fmt.Errorf("%w: %w", ErrInvalidTimestamp, err)
	}

	return Received{
		Event:     h.Get(EventHeader),
		Signature: sig,
		Timestamp: timestamp,
	}, nil
}

// VerifyRequest verifies a received body against its headers
func VerifyRequest(secret string, h http.Header, body []byte) (bool, error) {
	received, err := ParseHeaders(h)
	if err != nil {
		return false, err
	}
	return Verify(secret, received.Timestamp, body, received.Signature), nil
}
