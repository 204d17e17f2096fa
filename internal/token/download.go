// Package token issues and verifies signed report download handles.
package token

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"finsync/internal/config"
	"finsync/internal/domain"
)

const downloadAudience = "report-download"

// DownloadClaims identifies the batch whose artifacts a token unlocks.
type DownloadClaims struct {
	jwt.RegisteredClaims
	BatchID uuid.UUID `json:"batch_id"`
}

// Issuer signs and verifies download tokens with HS256.
type Issuer struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer from configuration.
func NewIssuer(cfg *config.DownloadConfig) *Issuer {
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Issuer{secret: []byte(cfg.Secret), issuer: cfg.Issuer, expiry: expiry, now: time.Now}
}

// SetClock overrides the time source.
func (i *Issuer) SetClock(now func() time.Time) { i.now = now }

// Issue returns a token for batchID and its expiry time.
func (i *Issuer) Issue(batchID uuid.UUID) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.expiry)
	claims := &DownloadClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   batchID.String(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{downloadAudience},
		},
		BatchID: batchID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing download token: %w", err)
	}
	return signed, exp, nil
}

// Verify returns the batch ID of a valid token. Any failure maps to
// domain.ErrInvalidDownloadToken.
func (i *Issuer) Verify(tokenString string) (uuid.UUID, error) {
	claims := &DownloadClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, domain.ErrInvalidDownloadToken
	}

	aud, _ := claims.GetAudience()
	if !slices.Contains(aud, downloadAudience) || claims.BatchID == uuid.Nil {
		return uuid.Nil, domain.ErrInvalidDownloadToken
	}
	return claims.BatchID, nil
}
