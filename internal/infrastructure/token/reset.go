package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"portal-client/internal/domain"
)

// DefaultResetTimeout matches the backend's three day reset link lifetime.
const DefaultResetTimeout = 72 * time.Hour

// ResetTokenGenerator mints password-reset tokens of the form "<base36 unix>-<mac>".
// A token stops verifying once the account's password changes.
// Implements domain.ResetTokenGenerator.
type ResetTokenGenerator struct {
	secret  []byte
	timeout time.Duration
	now     func() time.Time
}

// NewResetTokenGenerator creates a generator. A non-positive timeout uses DefaultResetTimeout.
func NewResetTokenGenerator(secret string, timeout time.Duration) *ResetTokenGenerator {
	if timeout <= 0 {
		timeout = DefaultResetTimeout
	}
	return &ResetTokenGenerator{secret: []byte(secret), timeout: timeout, now: time.Now}
}

// Make returns a reset token for account.
func (g *ResetTokenGenerator) Make(account *domain.Account) (string, error) {
	if len(g.secret) == 0 {
		return "", domain.ErrCSRFSecretMissing
	}
	ts := strconv.FormatInt(g.now().Unix(), 36)
	return ts + "-" + g.mac(account, ts), nil
}

// Check reports whether token is valid for account and not expired.
func (g *ResetTokenGenerator) Check(account *domain.Account, token string) bool {
	if account == nil || len(g.secret) == 0 {
		return false
	}
	ts, mac, ok := strings.Cut(token, "-")
	if !ok {
		return false
	}
	issued, err := strconv.ParseInt(ts, 36, 64)
	if err != nil {
		return false
	}
	if !hmac.Equal([]byte(mac), []byte(g.mac(account, ts))) {
		return false
	}
	return g.now().Sub(time.Unix(issued, 0)) <= g.timeout
}

func (g *ResetTokenGenerator) mac(account *domain.Account, ts string) string {
	h := hmac.New(sha256.New, g.secret)
	h.Write([]byte(strconv.Itoa(account.ID)))
	h.Write(account.PasswordHash)
	h.Write([]byte(account.Email))
	h.Write([]byte(ts))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
