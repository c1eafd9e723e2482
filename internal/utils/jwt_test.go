package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewToken_RoundTrip(t *testing.T) {
	tok, err := NewToken("s3cret", "acc-1", time.Minute)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Minute), tok.Exp, 2*time.Second)

	sub, err := ParseToken("s3cret", tok.Token)
	require.NoError(t, err)
	require.Equal(t, "acc-1", sub)
}

func TestNewToken_DistinctWithinSameSecond(t *testing.T) {
	a, err := NewToken("s3cret", "acc-1", time.Hour)
	require.NoError(t, err)
	b, err := NewToken("s3cret", "acc-1", time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, a.Token, b.Token)
	require.NotEqual(t, HashToken(a.Token), HashToken(b.Token))
}

func TestParseToken_Rejects(t *testing.T) {
	good, err := NewToken("s3cret", "acc-1", time.Hour)
	require.NoError(t, err)
	expired, err := NewToken("s3cret", "acc-1", -time.Minute)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "acc-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	noneStr, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]struct{ secret, token string }{
		"empty":        {"s3cret", ""},
		"garbage":      {"s3cret", "not.a.jwt"},
		"wrong secret": {"other", good.Token},
		"expired":      {"s3cret", expired.Token},
		"alg none":     {"s3cret", noneStr},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(tc.secret, tc.token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestHashToken(t *testing.T) {
	require.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		HashToken("hello"))
}
