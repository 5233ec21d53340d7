package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalmarket/internal/stories/accounts"
	"signalmarket/internal/webapp/checkout"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestClient_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/sync", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "777", body["telegramId"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"data": map[string]any{
				"accountId":  "acc-1",
				"merchantId": "acc-1",
				"role":       "MERCHANT",
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, newNoopLogger())
	resolution, err := client.Resolve(context.Background(), "777")

	require.NoError(t, err)
	assert.Equal(t, "acc-1", resolution.AccountID)
	require.NotNil(t, resolution.MerchantID)
	assert.Equal(t, "acc-1", *resolution.MerchantID)
	assert.Equal(t, accounts.RoleMerchant, resolution.Role)
}

func TestClient_Resolve_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "Error",
			"error":  "invalid telegram id",
		})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, newNoopLogger())
	_, err := client.Resolve(context.Background(), "not-a-number")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid telegram id")
}

func TestClient_CreateInvoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payments/checkout", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "mrc-1", body["merchantId"])
		assert.Equal(t, "tier-pro", body["tierId"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"data": map[string]any{
				"checkoutId": "chk-1",
				"invoiceUrl": "https://t.me/inv/1",
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, newNoopLogger())
	invoice, err := client.CreateInvoice(context.Background(), checkout.InvoiceRequest{
		MerchantID: "mrc-1",
		ServiceID:  "svc-1",
		TierID:     "tier-pro",
		AccountID:  "acc-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "chk-1", invoice.CheckoutID)
	assert.Equal(t, "https://t.me/inv/1", invoice.URL)
}

func TestClient_CurrentSubscription_None(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acc-1", r.URL.Query().Get("accountId"))
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "OK"})
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, newNoopLogger())
	state, err := client.CurrentSubscription(context.Background(), "acc-1")

	require.NoError(t, err)
	assert.Nil(t, state)
}
