package authcallback

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"signalmarket/internal/lib/jwt"
	"signalmarket/internal/stories/accounts"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, rawTelegramID string) (*accounts.Resolution, error) {
	args := m.Called(ctx, rawTelegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Resolution), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newHandler(resolver *MockResolver) (*Handler, jwt.Maker) {
	maker := jwt.NewMaker("test-secret", time.Hour)
	return New(newNoopLogger(), resolver, maker, "https://dashboard.example.com", "dashboard_session", time.Hour), maker
}

func TestHandler_RedirectsWithToken(t *testing.T) {
	resolver := new(MockResolver)
	merchantID := "acc-m"
	resolver.On("Resolve", mock.Anything, "555").
		Return(&accounts.Resolution{AccountID: "acc-m", MerchantID: &merchantID, Role: accounts.RoleMerchant}, nil).Once()
	handler, maker := newHandler(resolver)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?merchantId=acc-m&telegramId=555", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://dashboard.example.com", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "dashboard_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	claims, err := maker.ParseToken(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "acc-m", claims.AccountID)
	assert.Equal(t, "acc-m", claims.MerchantID)
	assert.Equal(t, "555", claims.TelegramID)
	assert.Equal(t, "MERCHANT", claims.Role)
}

func TestHandler_MissingIdentityBlocksRedirect(t *testing.T) {
	cases := []struct {
		name   string
		target string
	}{
		{name: "no params", target: "/api/auth/callback"},
		{name: "no telegram id", target: "/api/auth/callback?merchantId=acc-m"},
		{name: "no merchant id", target: "/api/auth/callback?telegramId=555"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolver := new(MockResolver)
			handler, _ := newHandler(resolver)

			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Empty(t, rec.Header().Get("Location"))
			assert.Empty(t, rec.Result().Cookies())
			resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_ForeignMerchantBlocksRedirect(t *testing.T) {
	resolver := new(MockResolver)
	merchantID := "acc-m"
	resolver.On("Resolve", mock.Anything, "555").
		Return(&accounts.Resolution{AccountID: "acc-m", MerchantID: &merchantID, Role: accounts.RoleMerchant}, nil).Once()
	handler, _ := newHandler(resolver)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?merchantId=other&telegramId=555", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.Empty(t, rec.Result().Cookies())
}

func TestHandler_InvalidIdentity(t *testing.T) {
	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, "abc").
		Return(nil, accounts.ErrInvalidIdentity).Once()
	handler, _ := newHandler(resolver)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?merchantId=acc-m&telegramId=abc", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
}
