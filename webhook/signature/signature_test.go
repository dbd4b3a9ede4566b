package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow(t *testing.T, at time.Time) {
	t.Helper()
	previous := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = previous })
}

func TestSign(t *testing.T) {
	secret := "sk_test_secret"
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success - timestamp is captured in milliseconds", func(t *testing.T) {
		fixedNow(t, at)

		signed, err := Sign(secret, map[string]any{"order_id": "ord_1"})
		require.NoError(t, err)
		assert.Equal(t, at.UnixMilli(), signed.Timestamp)
		assert.JSONEq(t, `{"order_id":"ord_1"}`, string(signed.Body))
	})

	t.Run("success - signature is hex HMAC of timestamp.body", func(t *testing.T) {
		fixedNow(t, at)

		signed, err := Sign(secret, map[string]any{"status": "paid"})
		require.NoError(t, err)

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(strconv.FormatInt(signed.Timestamp, 10) + "." + string(signed.Body)))
		assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), signed.Signature)
	})

	t.Run("success - deterministic for identical inputs and timestamp", func(t *testing.T) {
		fixedNow(t, at)

		s1, err1 := Sign(secret, map[string]any{"a": 1})
		s2, err2 := Sign(secret, map[string]any{"a": 1})
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, s1, s2)
	})

	t.Run("success - different secrets produce different signatures", func(t *testing.T) {
		fixedNow(t, at)

		s1, err1 := Sign(secret, map[string]any{"a": 1})
		s2, err2 := Sign("another", map[string]any{"a": 1})
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.NotEqual(t, s1.Signature, s2.Signature)
	})

	t.Run("success - raw JSON is signed compacted", func(t *testing.T) {
		signed, err := Sign(secret, json.RawMessage("{ \"order_id\" : \"o-1\" }"))
		require.NoError(t, err)
		assert.Equal(t, `{"order_id":"o-1"}`, string(signed.Body))
		assert.Equal(t, Compute(secret, signed.Timestamp, signed.Body), signed.Signature)
	})

	t.Run("error - missing secret", func(t *testing.T) {
		_, err := Sign("", map[string]any{"a": 1})
		require.ErrorIs(t, err, ErrMissingSecret)
	})

	t.Run("error - payload cannot be marshaled", func(t *testing.T) {
		_, err := Sign(secret, map[string]any{"ch": make(chan int)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "marshaling payload")
	})
}

func TestVerify(t *testing.T) {
	secret := "sk_test_secret"
	body := []byte(`{"shipment_id":"shp_1","status":"delivered"}`)
	timestamp := int64(1704110400000)
	sig := Compute(secret, timestamp, body)

	t.Run("success - valid signature", func(t *testing.T) {
		assert.True(t, Verify(secret, timestamp, body, sig))
	})

	t.Run("failure - wrong secret", func(t *testing.T) {
		assert.False(t, Verify("wrong", timestamp, body, sig))
	})

	t.Run("failure - wrong timestamp", func(t *testing.T) {
		assert.False(t, Verify(secret, timestamp+1, body, sig))
	})

	t.Run("failure - tampered body", func(t *testing.T) {
		assert.False(t, Verify(secret, timestamp, []byte(`{"shipment_id":"shp_2"}`), sig))
	})

	t.Run("failure - empty signature", func(t *testing.T) {
		assert.False(t, Verify(secret, timestamp, body, ""))
	})
}

func TestHeaders(t *testing.T) {
	signed := Signed{Body: []byte(`{}`), Signature: "abc123", Timestamp: 1704110400000}

	headers := Headers("payment.succeeded", signed)

	assert.Equal(t, "payment.succeeded", headers[EventHeader])
	assert.Equal(t, "abc123", headers[SignatureHeader])
	assert.Equal(t, "1704110400000", headers[TimestampHeader])
	assert.Len(t, headers, 3)
}

func TestVerifyRequest(t *testing.T) {
	secret := "sk_test_secret"

	t.Run("success - headers built by Headers verify", func(t *testing.T) {
		signed, err := Sign(secret, map[string]any{"payment_id": "pay_1"})
		require.NoError(t, err)

		h := http.Header{}
		for k, v := range Headers("payment.failed", signed) {
			h.Set(k, v)
		}

		valid, err := VerifyRequest(secret, h, signed.Body)
		require.NoError(t, err)
		assert.True(t, valid)

		received, err := ParseHeaders(h)
		require.NoError(t, err)
		assert.Equal(t, "payment.failed", received.Event)
		assert.Equal(t, signed.Timestamp, received.Timestamp)
	})

	t.Run("error - missing headers", func(t *testing.T) {
		_, err := VerifyRequest(secret, http.Header{}, []byte(`{}`))
		require.ErrorIs(t, err, ErrMissingHeaders)
	})

	t.Run("error - timestamp is not a number", func(t *testing.T) {
		h := http.Header{}
		h.Set(SignatureHeader, "abc")
		h.Set(TimestampHeader, "yesterday")

		_, err := VerifyRequest(secret, h, []byte(`{}`))
		require.ErrorIs(t, err, ErrInvalidTimestamp)
	})
}
