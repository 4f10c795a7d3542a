package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	v := NewTokenVerifier("secret")

	token, err := v.Issue("user-1", RoleAdmin, time.Hour)
	require.NoError(t, err)

	identity, err := v.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", identity.Subject)
	require.Equal(t, RoleAdmin, identity.Role)
	require.True(t, identity.IsAdmin())
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	v := NewTokenVerifier("secret")

	token, err := v.Issue("user-1", RoleMember, time.Hour)
	require.NoError(t, err)

	payload, sig, ok := strings.Cut(token, ".")
	require.True(t, ok)
	tampered := payload[:len(payload)-2] + "xx." + sig

	_, err = v.Verify(tampered)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenVerifier("one")
	verifier := NewTokenVerifier("two")

	token, err := issuer.Issue("user-1", RoleMember, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	v := NewTokenVerifier("secret")
	v.now = func() time.Time { return time.Unix(1000, 0) }

	token, err := v.Issue("user-1", RoleMember, time.Minute)
	require.NoError(t, err)

	v.now = func() time.Time { return time.Unix(2000, 0) }
	_, err = v.Verify(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	v := NewTokenVerifier("secret")
	for _, token := range []string{"", "noseparator", "a.b", "!!!.???"} {
		_, err := v.Verify(token)
		require.Error(t, err, token)
	}
}
