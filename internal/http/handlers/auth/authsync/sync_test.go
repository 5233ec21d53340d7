package authsync

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

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

func TestHandler_ServeHTTP(t *testing.T) {
	merchantID := "acc-m"

	tests := []struct {
		name           string
		body           any
		rawBody        string
		setupMock      func(*MockResolver)
		expectedStatus int
		check          func(t *testing.T, body map[string]any)
	}{
		{
			name: "success - resolves existing identity",
			body: SyncRequest{TelegramID: "777"},
			setupMock: func(r *MockResolver) {
				r.On("Resolve", mock.Anything, "777").
					Return(&accounts.Resolution{AccountID: "acc-1", Role: accounts.RoleUser}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				data := body["data"].(map[string]any)
				assert.Equal(t, "acc-1", data["accountId"])
				assert.Equal(t, "USER", data["role"])
				_, hasMerchant := data["merchantId"]
				assert.False(t, hasMerchant)
			},
		},
		{
			name: "success - merchant resolution carries merchant id",
			body: SyncRequest{TelegramID: "555"},
			setupMock: func(r *MockResolver) {
				r.On("Resolve", mock.Anything, "555").
					Return(&accounts.Resolution{AccountID: "acc-m", MerchantID: &merchantID, Role: accounts.RoleMerchant}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				data := body["data"].(map[string]any)
				assert.Equal(t, "acc-m", data["merchantId"])
				assert.Equal(t, "MERCHANT", data["role"])
			},
		},
		{
			name: "malformed identity is rejected without side effects",
			body: SyncRequest{TelegramID: "not-a-number"},
			setupMock: func(r *MockResolver) {
				r.On("Resolve", mock.Anything, "not-a-number").
					Return(nil, errors.Wrap(accounts.ErrInvalidIdentity, "telegram id")).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Error", body["status"])
			},
		},
		{
			name:           "missing telegram id fails validation",
			body:           SyncRequest{},
			setupMock:      func(*MockResolver) {},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "invalid json",
			rawBody:        "{",
			setupMock:      func(*MockResolver) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "storage failure maps to 500",
			body: SyncRequest{TelegramID: "777"},
			setupMock: func(r *MockResolver) {
				r.On("Resolve", mock.Anything, "777").
					Return(nil, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(MockResolver)
			tt.setupMock(resolver)
			handler := New(newNoopLogger(), resolver)

			var payload []byte
			if tt.rawBody != "" {
				payload = []byte(tt.rawBody)
			} else {
				payload, _ = json.Marshal(tt.body)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/sync", bytes.NewReader(payload))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.check != nil {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				tt.check(t, body)
			}
			resolver.AssertExpectations(t)
		})
	}
}

func TestHandler_RepeatedSyncReturnsSameAccount(t *testing.T) {
	resolver := new(MockResolver)
	resolver.On("Resolve", mock.Anything, "777").
		Return(&accounts.Resolution{AccountID: "acc-1", Role: accounts.RoleUser}, nil).Twice()
	handler := New(newNoopLogger(), resolver)

	var ids []string
	for i := 0; i < 2; i++ {
		payload, _ := json.Marshal(SyncRequest{TelegramID: "777"})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/sync", bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		ids = append(ids, body["data"].(map[string]any)["accountId"].(string))
	}

	assert.Equal(t, ids[0], ids[1])
}
