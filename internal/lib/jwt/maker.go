// Package jwt issues and parses the signed session tokens that let a
// resolved Mini-App identity enter the conventional dashboard surface.
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Maker creates and verifies dashboard session tokens.
type Maker interface {
	GenerateToken(accountID, merchantID, telegramID, role string) (string, error)
	ParseToken(tokenStr string) (*DashboardClaims, error)
}

// MakerImpl signs tokens with a shared HMAC secret.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

func NewMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

// GenerateToken builds a signed token for the given identity. Calling it
// twice for the same identity yields two valid tokens; the hand-off stays
// idempotent because the dashboard only cares about the claims.
func (m *MakerImpl) GenerateToken(accountID, merchantID, telegramID, role string) (string, error) {
	claims := DashboardClaims{
		AccountID:  accountID,
		MerchantID: merchantID,
		TelegramID: telegramID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// ParseToken verifies the signature and expiry and returns the claims.
func (m *MakerImpl) ParseToken(tokenStr string) (*DashboardClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &DashboardClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(m.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*DashboardClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
