package validationtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultMaxAgeDays is the default validity window of a token, in days.
	DefaultMaxAgeDays = 7

	defaultKeySalt = "simple-account.validationtoken"
)

// Generator produces and verifies compact, stateless account tokens of the
// form "<signature>-<day index>", both parts base36 encoded. The signature is
// an HMAC over the user id and the day the token was issued, so a token can be
// verified by recomputation alone, with no server-side token storage.
type Generator struct {
	secret     []byte
	keySalt    string
	maxAgeDays int
	now        func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithMaxAgeDays sets the validity window in days. The window check is
// inclusive: a token issued maxAgeDays ago is still accepted.
func WithMaxAgeDays(days int) GeneratorOption {
	return func(g *Generator) {
		g.maxAgeDays = days
	}
}

// WithKeySalt namespaces the signature so that tokens minted for one flow
// (say, account validation) never verify in another (password reset).
func WithKeySalt(salt string) GeneratorOption {
	return func(g *Generator) {
		g.keySalt = salt
	}
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a token generator signing with the given secret. The
// secret must stay stable across deploys or all outstanding tokens become
// unverifiable.
func NewGenerator(secret string, opts ...GeneratorOption) (*Generator, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret is required")
	}

	g := &Generator{
		secret:     []byte(secret),
		keySalt:    defaultKeySalt,
		maxAgeDays: DefaultMaxAgeDays,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// MakeToken generates a token for the user at today's day index.
func (g *Generator) MakeToken(userID int64) (string, error) {
	days, err := ElapsedDays(today(g.now))
	if err != nil {
		return "", err
	}
	return g.MakeTokenWithDayIndex(userID, days)
}

// MakeTokenWithDayIndex generates the token for a user at a specific day
// index. Deterministic: the same inputs and secret always yield the same
// token.
func (g *Generator) MakeTokenWithDayIndex(userID int64, dayIndex int) (string, error) {
	payload, err := HashValue(userID, dayIndex)
	if err != nil {
		return "", err
	}
	return g.sign(payload) + "-" + strconv.FormatInt(int64(dayIndex), 36), nil
}

// CheckToken reports whether the token is valid for the user: the signature
// must match and the token must not be older than the validity window.
// Malformed input never raises; every failure collapses into false so the
// caller cannot distinguish a forged token from an expired one.
func (g *Generator) CheckToken(userID int64, token string) bool {
	if userID <= 0 || token == "" {
		return false
	}

	parts := strings.Split(token, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}

	dayIndex, err := strconv.ParseInt(parts[1], 36, 64)
	if err != nil || dayIndex < 0 {
		return false
	}

	expected, err := g.MakeTokenWithDayIndex(userID, int(dayIndex))
	if err != nil {
		return false
	}

	if subtle.ConstantTimeCompare([]byte(expected), []byte(token)) != 1 {
		return false
	}

	days, err := ElapsedDays(today(g.now))
	if err != nil {
		return false
	}
	elapsed := days - int(dayIndex)
	return elapsed >= 0 && elapsed <= g.maxAgeDays
}

// sign computes the keyed signature over the payload, truncated and rendered
// as a base36 string so it survives URL path embedding without escaping.
func (g *Generator) sign(payload string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(g.keySalt))
	mac.Write([]byte(payload))
	sum := mac.Sum(nil)
	return strconv.FormatUint(binary.BigEndian.Uint64(sum[:8]), 36)
}
