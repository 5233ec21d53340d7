package jwt

import "github.com/golang-jwt/jwt/v5"

// DashboardClaims carries the identity handed over to the dashboard
// surface by the redirect bridge.
type DashboardClaims struct {
	AccountID  string `json:"account_id"`
	MerchantID string `json:"merchant_id"`
	TelegramID string `json:"telegram_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}
