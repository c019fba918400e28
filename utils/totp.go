package utils

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const totpIssuer = "Financas"

// TOTPSetup is what a user needs to enroll an authenticator app.
type TOTPSetup struct {
	Secret string
	URL    string
	QRCode string // data URI of a PNG
}

func GenerateTOTPSecret(accountName string) (*TOTPSetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: accountName,
	})
	if err != nil {
		return nil, err
	}

	img, err := key.Image(200, 200)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return &TOTPSetup{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

func VerifyTOTP(secret, code string) bool {
	return totp.Validate(code, secret)
}

// Reset codes are HOTP-style values derived from a per-ticket secret and the
// ticket's issue time, so the same code validates for the whole ticket life.
// Expiry is enforced by the caller.

func resetCodeOpts(ttl time.Duration) totp.ValidateOpts {
	period := uint(ttl / time.Second)
	if period == 0 {
		period = 1
	}
	return totp.ValidateOpts{
		Period:    period,
		Skew:      0,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// NewResetSecret returns a fresh base32 secret for one reset ticket.
func NewResetSecret(accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

// ResetCode returns the 6-digit code for a ticket issued at issuedAt.
func ResetCode(secret string, issuedAt time.Time, ttl time.Duration) (string, error) {
	return totp.GenerateCodeCustom(secret, issuedAt, resetCodeOpts(ttl))
}

// VerifyResetCode checks code against the ticket's secret and issue time.
func VerifyResetCode(code, secret string, issuedAt time.Time, ttl time.Duration) bool {
	ok, err := totp.ValidateCustom(code, secret, issuedAt, resetCodeOpts(ttl))
	return err == nil && ok
}
