package mono

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openbankingng/monobridge/internal/pkg/env"
)

const defaultBaseURL = "https://api.withmono.com"

// ErrUpstream wraps non-2xx or unsuccessful Mono responses.
var ErrUpstream = errors.New("mono api error")

// Client calls the Mono Open Banking API v2. The secret key determines the
// environment (sandbox vs live); the base URL is the same for both.
type Client struct {
	SecretKey string
	BaseURL   string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from MONO_SECRET_KEY / MONO_BASE_URL.
func NewClientFromEnv() *Client {
	return &Client{
		SecretKey: strings.TrimSpace(env.GetEnv("MONO_SECRET_KEY", "")),
		BaseURL:   strings.TrimRight(env.GetEnv("MONO_BASE_URL", defaultBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("mono-sec-key", c.SecretKey)
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("User-Agent", "MonoBridge/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}

	var envlp apiEnvelope
	if err := json.Unmarshal(raw, &envlp); err != nil {
		return fmt.Errorf("%w: status %d, undecodable body", ErrUpstream, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envlp.ok() {
		msg := envlp.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: %s %s: %s (status %d)", ErrUpstream, method, path, msg, resp.StatusCode)
	}
	if out != nil && len(envlp.Data) > 0 {
		return json.Unmarshal(envlp.Data, out)
	}
	return nil
}

// doWithFallback retries on the alternate path when Mono serves an endpoint
// under both unversioned and v2 prefixes.
func (c *Client) doWithFallback(ctx context.Context, method, path, fallback string, body any, out any) error {
	err := c.do(ctx, method, path, nil, body, out)
	if err == nil || !errors.Is(err, ErrUpstream) {
		return err
	}
	return c.do(ctx, method, fallback, nil, body, out)
}

// ListAccounts returns all accounts linked to the app.
func (c *Client) ListAccounts(ctx context.Context) ([]LinkedAccount, error) {
	var accounts []LinkedAccount
	if err := c.do(ctx, http.MethodGet, "/v2/accounts", nil, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetAccountInfo returns detail for one linked account.
func (c *Client) GetAccountInfo(ctx context.Context, accountID string) (*LinkedAccount, error) {
	var account LinkedAccount
	if err := c.do(ctx, http.MethodGet, "/v2/accounts/"+url.PathEscape(accountID), nil, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetBalance returns the current balance for a linked account.
func (c *Client) GetBalance(ctx context.Context, accountID string) (*Balance, error) {
	var balance Balance
	if err := c.do(ctx, http.MethodGet, "/v2/accounts/"+url.PathEscape(accountID)+"/balance", nil, nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// GetTransactions returns one page of history. Mono caps limit at 100.
func (c *Client) GetTransactions(ctx context.Context, accountID string, limit, page int) ([]Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if page <= 0 {
		page = 1
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("page", strconv.Itoa(page))

	var txns []Transaction
	if err := c.do(ctx, http.MethodGet, "/v2/accounts/"+url.PathEscape(accountID)+"/transactions", q, nil, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

// LinkingRequest starts the account linking widget flow.
type LinkingRequest struct {
	CustomerName  string
	CustomerEmail string
	RedirectURL   string
	Reference     string
}

// InitiateAccountLinking returns the mono_url the customer must open.
func (c *Client) InitiateAccountLinking(ctx context.Context, in LinkingRequest) (*LinkingResponse, error) {
	payload := map[string]any{
		"customer": map[string]string{
			"name":  in.CustomerName,
			"email": in.CustomerEmail,
		},
		"scope":        "auth",
		"redirect_url": in.RedirectURL,
	}
	if in.Reference != "" {
		payload["meta"] = map[string]string{"ref": in.Reference}
	}

	var resp LinkingResponse
	if err := c.do(ctx, http.MethodPost, "/v2/accounts/initiate", nil, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExchangeToken swaps the post-linking authorization code for an account id.
func (c *Client) ExchangeToken(ctx context.Context, code string) (*ExchangeResponse, error) {
	var resp ExchangeResponse
	if err := c.do(ctx, http.MethodPost, "/v2/accounts/auth", nil, map[string]string{"code": code}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PaymentRequest initiates a DirectPay one-time debit. AmountKobo is the
// debit amount in kobo.
type PaymentRequest struct {
	AmountKobo    int64
	Reference     string
	RedirectURL   string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Description   string
	AccountID     string
}

// InitiatePayment starts a DirectPay flow and returns the authorization URL.
// A reference is generated when the caller supplies none.
func (c *Client) InitiatePayment(ctx context.Context, in PaymentRequest) (*PaymentResponse, error) {
	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		reference = NewPaymentReference()
	}

	payload := map[string]any{
		"amount":       in.AmountKobo,
		"type":         "onetime-debit",
		"reference":    reference,
		"redirect_url": in.RedirectURL,
		"customer": map[string]string{
			"name":  in.CustomerName,
			"email": in.CustomerEmail,
			"phone": in.CustomerPhone,
		},
		"description": in.Description,
	}
	if in.AccountID != "" {
		payload["method"] = "account"
		payload["account"] = in.AccountID
	}

	var resp PaymentResponse
	if err := c.do(ctx, http.MethodPost, "/v2/payments/initiate", nil, payload, &resp); err != nil {
		return nil, err
	}
	if resp.Reference == "" {
		resp.Reference = reference
	}
	return &resp, nil
}

// VerifyPayment returns the status of a previously initiated payment.
func (c *Client) VerifyPayment(ctx context.Context, reference string) (*PaymentStatus, error) {
	var status PaymentStatus
	if err := c.do(ctx, http.MethodGet, "/v2/payments/verify/"+url.PathEscape(reference), nil, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ResolveAccountName performs a name enquiry before payments.
func (c *Client) ResolveAccountName(ctx context.Context, accountNumber, bankCode string) (*ResolvedAccount, error) {
	payload := map[string]string{
		"account_number": accountNumber,
		"bank_code":      bankCode,
	}
	var resolved ResolvedAccount
	if err := c.doWithFallback(ctx, http.MethodPost, "/misc/banks/resolve", "/v2/misc/banks/resolve", payload, &resolved); err != nil {
		return nil, err
	}
	return &resolved, nil
}

// ListBanks returns the supported Nigerian banks with their codes.
func (c *Client) ListBanks(ctx context.Context) ([]Bank, error) {
	var banks []Bank
	if err := c.doWithFallback(ctx, http.MethodGet, "/misc/banks", "/v2/misc/banks", nil, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

// LookupBVN starts a BVN lookup. Scope is "identity" for basic data or
// "bank_accounts" for linked accounts; the result shape depends on scope so
// it stays raw.
func (c *Client) LookupBVN(ctx context.Context, bvn, scope string) (json.RawMessage, error) {
	if scope == "" {
		scope = "identity"
	}
	payload := map[string]string{"bvn": bvn, "scope": scope}
	var data json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/v2/lookup/bvn/initiate", nil, payload, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// LookupAccountNumber resolves ownership data incl. a masked BVN.
func (c *Client) LookupAccountNumber(ctx context.Context, accountNumber, nipCode string) (*AccountNumberLookup, error) {
	payload := map[string]string{
		"account_number": accountNumber,
		"nip_code":       nipCode,
	}
	var lookup AccountNumberLookup
	if err := c.do(ctx, http.MethodPost, "/v3/lookup/account-number", nil, payload, &lookup); err != nil {
		return nil, err
	}
	return &lookup, nil
}

// NewPaymentReference generates a unique DirectPay reference.
func NewPaymentReference() string {
	return fmt.Sprintf("MB-%s-%d", uuid.NewString()[:8], time.Now().Unix())
}
