// Package auth verifies signed identity tokens issued by the external
// credential service. Token issuance lives outside this process; only the
// shared-secret verification side is implemented here.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Roles carried by identity tokens. Catalog mutations require RoleAdmin.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

var (
	// ErrTokenInvalid indicates a malformed or tampered token.
	ErrTokenInvalid = errors.New("auth: invalid token")
	// ErrTokenExpired indicates a token past its expiry claim.
	ErrTokenExpired = errors.New("auth: token expired")
)

// Identity describes the authenticated caller.
type Identity struct {
	Subject string
	Role    string
}

// IsAdmin reports whether the identity carries the elevated role claim.
func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

type tokenClaims struct {
	Subject   string `json:"sub"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"exp"`
}

// TokenVerifier validates HMAC-signed identity tokens.
type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewTokenVerifier constructs a TokenVerifier using the shared secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), now: time.Now}
}

// Verify checks the signature and expiry of token and returns the identity.
func (v *TokenVerifier) Verify(token string) (Identity, error) {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok {
		return Identity{}, ErrTokenInvalid
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Identity{}, ErrTokenInvalid
	}
	wantSig, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return Identity{}, ErrTokenInvalid
	}
	if !hmac.Equal(v.sign(raw), wantSig) {
		return Identity{}, ErrTokenInvalid
	}
	var claims tokenClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return Identity{}, ErrTokenInvalid
	}
	if claims.Subject == "" || claims.Role == "" {
		return Identity{}, ErrTokenInvalid
	}
	if claims.ExpiresAt != 0 && v.now().Unix() >= claims.ExpiresAt {
		return Identity{}, ErrTokenExpired
	}
	return Identity{Subject: claims.Subject, Role: claims.Role}, nil
}

// Issue mints a token the verifier will accept. Kept for tests and local
// tooling; production tokens come from the credential service.
func (v *TokenVerifier) Issue(subject, role string, ttl time.Duration) (string, error) {
	claims := tokenClaims{Subject: subject, Role: role}
	if ttl > 0 {
		claims.ExpiresAt = v.now().Add(ttl).Unix()
	}
	raw, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	sig := base64.RawURLEncoding.EncodeToString(v.sign(raw))
	return payload + "." + sig, nil
}

func (v *TokenVerifier) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return mac.Sum(nil)
}
