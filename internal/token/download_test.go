package token_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsync/internal/config"
	"finsync/internal/domain"
	"finsync/internal/token"
)

func newIssuer(secret string) *token.Issuer {
	return token.NewIssuer(&config.DownloadConfig{Secret: secret, Issuer: "finsync", Expiry: time.Hour})
}

func TestIssuer_RoundTrip(t *testing.T) {
	iss := newIssuer("s3cret")
	id := uuid.New()

	tok, exp, err := iss.Issue(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	got, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestIssuer_Expired(t *testing.T) {
	iss := newIssuer("s3cret")
	tok, _, err := iss.Issue(uuid.New())
	require.NoError(t, err)

	iss.SetClock(func() time.Time { return time.Now().Add(2 * time.Hour) })
	_, err = iss.Verify(tok)
	assert.ErrorIs(t, err, domain.ErrInvalidDownloadToken)
}

func TestIssuer_WrongSecret(t *testing.T) {
	tok, _, err := newIssuer("one").Issue(uuid.New())
	require.NoError(t, err)

	_, err = newIssuer("two").Verify(tok)
	assert.ErrorIs(t, err, domain.ErrInvalidDownloadToken)
}

func TestIssuer_Garbage(t *testing.T) {
	_, err := newIssuer("s3cret").Verify("not-a-token")
	assert.ErrorIs(t, err, domain.ErrInvalidDownloadToken)
}
