package mono

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := &Client{
		SecretKey:  "test_sk",
		BaseURL:    srv.URL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
	return c, srv
}

func TestListAccounts(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/accounts", r.URL.Path)
		assert.Equal(t, "test_sk", r.Header.Get("mono-sec-key"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "successful",
			"data": []map[string]any{
				{
					"_id":           "acc_1",
					"accountNumber": "0123456789",
					"name":          "ADAEZE OKONKWO",
					"institution":   map[string]string{"name": "GTBank", "bankCode": "058"},
					"type":          "savings",
					"currency":      "NGN",
				},
			},
		})
	}))
	defer srv.Close()

	accounts, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "acc_1", accounts[0].ID)
	assert.Equal(t, "GTBank", accounts[0].Institution.Name)
}

func TestGetBalance(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/accounts/acc_1/balance", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "successful",
			"data": map[string]any{
				"id":             "acc_1",
				"account_number": "0123456789",
				"balance":        1234567,
				"currency":       "NGN",
			},
		})
	}))
	defer srv.Close()

	balance, err := c.GetBalance(context.Background(), "acc_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1234567), balance.Balance)
	assert.Equal(t, "₦12,345.67", FormatNaira(balance.Balance))
}

func TestGetTransactions_ClampsLimit(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "successful",
			"data": []map[string]any{
				{"_id": "txn_1", "amount": 150000, "type": "debit", "narration": "POS purchase", "balance": 1000000, "date": "2025-06-01T10:00:00Z"},
			},
		})
	}))
	defer srv.Close()

	txns, err := c.GetTransactions(context.Background(), "acc_1", 500, 0)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "POS purchase", txns[0].Narration)
}

func TestInitiatePayment_GeneratesReference(t *testing.T) {
	var sent map[string]any
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/payments/initiate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "successful",
			"data":   map[string]any{"id": "pay_1", "mono_url": "https://connect.mono.co/pay"},
		})
	}))
	defer srv.Close()

	resp, err := c.InitiatePayment(context.Background(), PaymentRequest{
		AmountKobo:    250000,
		CustomerName:  "Adaeze Okonkwo",
		CustomerEmail: "adaeze@example.com",
		Description:   "June rent",
	})
	require.NoError(t, err)
	assert.Equal(t, "pay_1", resp.ID)
	assert.NotEmpty(t, resp.Reference)
	assert.Equal(t, float64(250000), sent["amount"])
	assert.Equal(t, "onetime-debit", sent["type"])
}

func TestResolveAccountName_FallsBackToV2(t *testing.T) {
	calls := []string{}
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		if r.URL.Path == "/misc/banks/resolve" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "failed", "message": "not found"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "successful",
			"data":   map[string]string{"account_name": "ADAEZE OKONKWO", "bank_name": "GTBank"},
		})
	}))
	defer srv.Close()

	resolved, err := c.ResolveAccountName(context.Background(), "0123456789", "058")
	require.NoError(t, err)
	assert.Equal(t, "ADAEZE OKONKWO", resolved.AccountName)
	assert.Equal(t, []string{"/misc/banks/resolve", "/v2/misc/banks/resolve"}, calls)
}

func TestUpstreamErrorSurfaced(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "failed", "message": "invalid key"})
	}))
	defer srv.Close()

	_, err := c.GetBalance(context.Background(), "acc_1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "invalid key")
}

func TestFormatNaira(t *testing.T) {
	tests := []struct {
		kobo int64
		want string
	}{
		{0, "₦0.00"},
		{5, "₦0.05"},
		{100, "₦1.00"},
		{123456789, "₦1,234,567.89"},
		{-250000, "-₦2,500.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNaira(tt.kobo))
	}
}
