package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignerGenerateAndParse(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("result-1", "2024-25")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expiresAt.After(time.Now()))

	id, scope, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "result-1", id)
	require.Equal(t, "2024-25", scope)
}

func TestSignerExpired(t *testing.T) {
	signer := NewSigner("secret", time.Minute)
	token, _, err := signer.Generate("result-1", "2024-25")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, _, err = signer.Parse(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestSignerRejectsTampering(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, _, err := signer.Generate("result-1", "2024-25")
	require.NoError(t, err)

	other := NewSigner("other", time.Hour)
	_, _, err = other.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = signer.Parse("result-2" + token[len("result-1"):])
	require.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = signer.Parse("garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}
