package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"time"

	apperrors "github.com/inkwell-books/sms-concierge/internal/domain/errors"
)

// Clock skew tolerated for timestamps slightly in the future.
const futureSkewTolerance = 30 * time.Second

// Verifier authenticates webhook requests with an HMAC signature and a
// freshness window on the accompanying timestamp.
type Verifier struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewVerifier builds a verifier. secret must come from configuration;
// an empty secret makes every Verify call fail with a configuration error.
func NewVerifier(secret string, maxAge time.Duration) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Verify checks the signature over the exact raw body bytes and the
// timestamp freshness. Both must hold. Malformed input is rejected as an
// authentication failure, never an internal error.
func (v *Verifier) Verify(rawBody []byte, signature, timestamp string) error {
	if len(v.secret) == 0 {
		return apperrors.New(apperrors.KindConfiguration, "webhook secret is not configured")
	}
	if signature == "" || timestamp == "" {
		return apperrors.New(apperrors.KindValidation, "missing signature or timestamp header")
	}

	if err := v.checkFreshness(timestamp); err != nil {
		return err
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return apperrors.New(apperrors.KindAuthentication, "signature mismatch")
	}
	return nil
}

func (v *Verifier) checkFreshness(timestamp string) error {
	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return apperrors.New(apperrors.KindAuthentication, "malformed timestamp")
	}

	age := v.now().Sub(time.Unix(unix, 0))
	if age > v.maxAge {
		return apperrors.New(apperrors.KindAuthentication, "timestamp too old")
	}
	if age < -futureSkewTolerance {
		return apperrors.New(apperrors.KindAuthentication, "timestamp in the future")
	}
	return nil
}
