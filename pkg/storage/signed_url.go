package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Signer issues expiring HMAC tokens binding an id to a scope.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate returns a token of the form id.expiry.scope.signature.
func (s *Signer) Generate(id, scope string) (string, time.Time, error) {
	if id == "" || scope == "" {
		return "", time.Time{}, fmt.Errorf("id and scope required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).UTC()
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedScope := base64.RawURLEncoding.EncodeToString([]byte(scope))
	token := strings.Join([]string{id, ts, encodedScope, s.sign(id, ts, encodedScope)}, ".")
	return token, time.Unix(expiresAt.Unix(), 0).UTC(), nil
}

// Parse verifies token and returns the embedded id and scope.
func (s *Signer) Parse(token string) (id, scope string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", ErrInvalidToken
	}
	id, ts, encodedScope, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.sign(id, ts, encodedScope)), []byte(signature)) {
		return "", "", ErrInvalidToken
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	rawScope, err := base64.RawURLEncoding.DecodeString(encodedScope)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	if s.now().After(time.Unix(expUnix, 0)) {
		return "", "", ErrExpiredToken
	}
	return id, string(rawScope), nil
}

func (s *Signer) sign(id, ts, encodedScope string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(id + "|" + ts + "|" + encodedScope))
	return hex.EncodeToString(mac.Sum(nil))
}
