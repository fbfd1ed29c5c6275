package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"testing"
	"time"

	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
)

const testSecret = "test-secret"

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newTestVerifier(now time.Time) *Verifier {
	v := NewVerifier(testSecret, 5*time.Minute)
	v.now = func() time.Time { return now }
	return v
}

func TestVerifyValidSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(now)
	body := []byte(`{"message":"hello"}`)

	err := v.Verify(body, sign(testSecret, body), strconv.FormatInt(now.Unix(), 10))
	if err != nil {
		t.Fatalf("expected valid signature to pass, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(now)
	body := []byte(`{"message":"hello"}`)

	err := v.Verify(body, sign("other-secret", body), strconv.FormatInt(now.Unix(), 10))
	if !apperrors.Is(err, apperrors.KindAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestVerifyTamperedBody(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(now)
	body := []byte(`{"message":"hello"}`)
	sig := sign(testSecret, body)

	err := v.Verify([]byte(`{"message":"hacked"}`), sig, strconv.FormatInt(now.Unix(), 10))
	if !apperrors.Is(err, apperrors.KindAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestVerifyStaleTimestamp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(now)
	body := []byte(`{"message":"hello"}`)
	stale := now.Add(-6 * time.Minute)

	err := v.Verify(body, sign(testSecret, body), strconv.FormatInt(stale.Unix(), 10))
	if !apperrors.Is(err, apperrors.KindAuthentication) {
		t.Fatalf("expected authentication error for stale timestamp, got %v", err)
	}
}

func TestVerifyFutureTimestamp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(now)
	body := []byte(`{"message":"hello"}`)

	// Within skew tolerance is fine.
	near := now.Add(20 * time.Second)
	if err := v.Verify(body, sign(testSecret, body), strconv.FormatInt(near.Unix(), 10)); err != nil {
		t.Fatalf("expected timestamp within skew tolerance to pass, got %v", err)
	}

	far := now.Add(2 * time.Minute)
	err := v.Verify(body, sign(testSecret, body), strconv.FormatInt(far.Unix(), 10))
	if !apperrors.Is(err, apperrors.KindAuthentication) {
		t.Fatalf("expected authentication error for future timestamp, got %v", err)
	}
}

func TestVerifyMalformedTimestamp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(now)
	body := []byte(`{"message":"hello"}`)

	err := v.Verify(body, sign(testSecret, body), "not-a-number")
	if !apperrors.Is(err, apperrors.KindAuthentication) {
		t.Fatalf("expected authentication error for malformed timestamp, got %v", err)
	}
}

func TestVerifyMissingSecret(t *testing.T) {
	v := NewVerifier("", 5*time.Minute)
	body := []byte(`{"message":"hello"}`)

	err := v.Verify(body, sign(testSecret, body), strconv.FormatInt(time.Now().Unix(), 10))
	if !apperrors.Is(err, apperrors.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestPayloadValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload InboundPayload
		missing string
		ok      bool
	}{
		{
			name:    "complete",
			payload: InboundPayload{From: Endpoint{Endpoint: "+15551234567"}, Message: "hi"},
			ok:      true,
		},
		{
			name:    "missing sender",
			payload: InboundPayload{Message: "hi"},
			missing: "from.endpoint",
		},
		{
			name:    "blank message",
			payload: InboundPayload{From: Endpoint{Endpoint: "+15551234567"}, Message: "   "},
			missing: "message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			missing, ok := tt.payload.Validate()
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if missing != tt.missing {
				t.Fatalf("expected missing field %q, got %q", tt.missing, missing)
			}
		})
	}
}
