package tools

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/openbankingng/monobridge/app/models"
	"github.com/openbankingng/monobridge/internal/pkg/accounts"
	"github.com/openbankingng/monobridge/internal/pkg/mono"
	"github.com/openbankingng/monobridge/internal/pkg/webhook"
)

const banksCacheKey = "mono:banks"
const banksCacheTTL = 6 * time.Hour

// BanksCache is the slice of the cache layer the tools need. A nil cache
// disables caching, the tools still work.
type BanksCache interface {
	Get(key string) (string, error)
	Set(key string, value interface{}, expiration time.Duration) error
}

// Deps wires the collaborators the banking tools call into.
type Deps struct {
	Mono     *mono.Client
	Accounts *accounts.Service
	Events   *webhook.Service
	Cache    BanksCache
}

// RegisterBankingTools builds the full banking tool set on the registry.
func RegisterBankingTools(reg *Registry, d Deps) {
	reg.MustRegister(Tool{
		Name:        "list_linked_accounts",
		Description: "List all bank accounts linked to this app.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
		Handler:     d.listLinkedAccounts,
	})
	reg.MustRegister(Tool{
		Name:        "get_account_balance",
		Description: "Get the current balance of a linked account.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"account_id":{"type":"string"}},"required":["account_id"]}`),
		Handler:     d.getAccountBalance,
	})
	reg.MustRegister(Tool{
		Name:        "get_account_info",
		Description: "Get detailed information for a linked account.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"account_id":{"type":"string"}},"required":["account_id"]}`),
		Handler:     d.getAccountInfo,
	})
	reg.MustRegister(Tool{
		Name:        "get_account_details",
		Description: "Get comprehensive account details including BVN when resolvable.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"account_id":{"type":"string"}},"required":["account_id"]}`),
		Handler:     d.getAccountDetails,
	})
	reg.MustRegister(Tool{
		Name:        "get_transaction_history",
		Description: "Get transaction history for a linked account, newest first.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"account_id":{"type":"string"},"limit":{"type":"integer"},"page":{"type":"integer"}},"required":["account_id"]}`),
		Handler:     d.getTransactionHistory,
	})
	reg.MustRegister(Tool{
		Name:        "initiate_account_linking",
		Description: "Start the account linking flow; returns a mono_url for the customer to authorize.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"customer_name":{"type":"string"},"customer_email":{"type":"string"},"redirect_url":{"type":"string"}},"required":["customer_name","customer_email"]}`),
		Handler:     d.initiateAccountLinking,
	})
	reg.MustRegister(Tool{
		Name:        "exchange_token",
		Description: "Exchange a post-linking authorization code for a permanent account id.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"code":{"type":"string"}},"required":["code"]}`),
		Handler:     d.exchangeToken,
	})
	reg.MustRegister(Tool{
		Name:        "verify_account_name",
		Description: "Resolve the account holder name before making a payment.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"account_number":{"type":"string"},"bank_code":{"type":"string"}},"required":["account_number","bank_code"]}`),
		Handler:     d.verifyAccountName,
	})
	reg.MustRegister(Tool{
		Name:        "initiate_payment",
		Description: "Initiate a DirectPay one-time debit. Amount is in naira.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"amount":{"type":"number"},"recipient_account_number":{"type":"string"},"recipient_bank_code":{"type":"string"},"customer_name":{"type":"string"},"customer_email":{"type":"string"},"customer_phone":{"type":"string"},"description":{"type":"string"},"redirect_url":{"type":"string"}},"required":["amount","recipient_account_number","recipient_bank_code","customer_name","customer_email"]}`),
		Handler:     d.initiatePayment,
	})
	reg.MustRegister(Tool{
		Name:        "verify_payment",
		Description: "Verify payment status by reference.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"reference":{"type":"string"}},"required":["reference"]}`),
		Handler:     d.verifyPayment,
	})
	reg.MustRegister(Tool{
		Name:        "get_nigerian_banks",
		Description: "List supported Nigerian banks with their codes.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
		Handler:     d.getNigerianBanks,
	})
	reg.MustRegister(Tool{
		Name:        "lookup_bvn",
		Description: "Look up a BVN for identity verification or linked bank accounts.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"bvn":{"type":"string"},"scope":{"type":"string","enum":["identity","bank_accounts"]}},"required":["bvn"]}`),
		Handler:     d.lookupBVN,
	})
	reg.MustRegister(Tool{
		Name:        "list_webhook_events",
		Description: "Query stored webhook events by type, account and time range.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"event_type":{"type":"string"},"account_id":{"type":"string"},"since":{"type":"string","format":"date-time"},"until":{"type":"string","format":"date-time"},"limit":{"type":"integer"}}}`),
		Handler:     d.listWebhookEvents,
	})
}

func (d Deps) listLinkedAccounts(ctx context.Context, _ json.RawMessage) (any, error) {
	result, err := d.Mono.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]map[string]any, 0, len(result))
	for _, a := range result {
		list = append(list, map[string]any{
			"id":             a.ID,
			"account_number": a.AccountNumber,
			"account_name":   a.Name,
			"bank_name":      a.Institution.Name,
			"bank_code":      a.Institution.BankCode,
			"account_type":   a.Type,
			"currency":       a.Currency,
		})
	}
	return map[string]any{"accounts": list, "total_accounts": len(list)}, nil
}

type accountArgs struct {
	AccountID string `json:"account_id" validate:"required"`
}

func (d Deps) getAccountBalance(ctx context.Context, raw json.RawMessage) (any, error) {
	var args accountArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	balance, err := d.Mono.GetBalance(ctx, args.AccountID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"account_id":     balance.ID,
		"account_number": balance.AccountNumber,
		"balance":        mono.FormatNaira(balance.Balance),
		"balance_kobo":   balance.Balance,
		"currency":       balance.Currency,
	}, nil
}

func (d Deps) getAccountInfo(ctx context.Context, raw json.RawMessage) (any, error) {
	var args accountArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	account, err := d.Mono.GetAccountInfo(ctx, args.AccountID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"account_id":     account.ID,
		"account_name":   account.Name,
		"account_number": account.AccountNumber,
		"bank_name":      account.Institution.Name,
		"bank_code":      account.Institution.BankCode,
		"account_type":   account.Type,
		"currency":       account.Currency,
	}, nil
}

func (d Deps) getAccountDetails(ctx context.Context, raw json.RawMessage) (any, error) {
	var args accountArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	account, err := d.Mono.GetAccountInfo(ctx, args.AccountID)
	if err != nil {
		return nil, err
	}

	details := map[string]any{
		"account_id":     account.ID,
		"account_number": account.AccountNumber,
		"account_name":   account.Name,
		"bank_name":      account.Institution.Name,
		"bank_code":      account.Institution.BankCode,
		"account_type":   account.Type,
		"currency":       account.Currency,
		"bvn":            nil,
		"bvn_status":     "not_available",
	}

	// Masked BVN lookup is best effort; account detail is still useful
	// when the lookup endpoint declines.
	if account.AccountNumber != "" && account.Institution.BankCode != "" {
		if lookup, err := d.Mono.LookupAccountNumber(ctx, account.AccountNumber, account.Institution.BankCode); err == nil && lookup.BVN != "" {
			details["bvn"] = lookup.BVN
			details["bvn_status"] = "available"
		} else if err != nil {
			details["bvn_status"] = "lookup_failed"
		}
	}
	return details, nil
}

type historyArgs struct {
	AccountID string `json:"account_id" validate:"required"`
	Limit     int    `json:"limit" validate:"gte=0,lte=100"`
	Page      int    `json:"page" validate:"gte=0"`
}

func (d Deps) getTransactionHistory(ctx context.Context, raw json.RawMessage) (any, error) {
	args := historyArgs{Limit: 10, Page: 1}
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	txns, err := d.Mono.GetTransactions(ctx, args.AccountID, args.Limit, args.Page)
	if err != nil {
		return nil, err
	}

	formatted := make([]map[string]any, 0, len(txns))
	cached := make([]models.Transaction, 0, len(txns))
	for _, txn := range txns {
		formatted = append(formatted, map[string]any{
			"id":          txn.ID,
			"date":        txn.Date,
			"description": txn.Narration,
			"amount":      mono.FormatNaira(txn.Amount),
			"amount_kobo": txn.Amount,
			"type":        txn.Type,
			"balance":     mono.FormatNaira(txn.Balance),
			"reference":   txn.Reference,
			"category":    txn.Category,
		})
		cached = append(cached, models.Transaction{
			ID:          txn.ID,
			AccountID:   args.AccountID,
			Amount:      txn.Amount,
			Type:        txn.Type,
			Description: txn.Narration,
			Reference:   txn.Reference,
			Date:        txn.Date,
			Balance:     txn.Balance,
			Category:    txn.Category,
		})
	}
	if d.Accounts != nil {
		// Cache for offline reads; failures must not break the response.
		_ = d.Accounts.CacheTransactions(ctx, args.AccountID, cached)
	}

	return map[string]any{
		"account_id":   args.AccountID,
		"transactions": formatted,
		"count":        len(formatted),
		"page":         args.Page,
		"limit":        args.Limit,
	}, nil
}

type linkingArgs struct {
	CustomerName  string `json:"customer_name" validate:"required"`
	CustomerEmail string `json:"customer_email" validate:"required,email"`
	RedirectURL   string `json:"redirect_url" validate:"omitempty,url"`
}

func (d Deps) initiateAccountLinking(ctx context.Context, raw json.RawMessage) (any, error) {
	var args linkingArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	redirect := args.RedirectURL
	if redirect == "" {
		redirect = "https://mono.co"
	}
	resp, err := d.Mono.InitiateAccountLinking(ctx, mono.LinkingRequest{
		CustomerName:  args.CustomerName,
		CustomerEmail: args.CustomerEmail,
		RedirectURL:   redirect,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"customer_name":  args.CustomerName,
		"customer_email": args.CustomerEmail,
		"mono_url":       resp.MonoURL,
		"instructions":   "Open the mono_url in a browser to complete account linking",
	}, nil
}

type exchangeArgs struct {
	Code string `json:"code" validate:"required"`
}

func (d Deps) exchangeToken(ctx context.Context, raw json.RawMessage) (any, error) {
	var args exchangeArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	resp, err := d.Mono.ExchangeToken(ctx, args.Code)
	if err != nil {
		return nil, err
	}
	return map[string]any{"account_id": resp.ID}, nil
}

type resolveArgs struct {
	AccountNumber string `json:"account_number" validate:"required,len=10,numeric"`
	BankCode      string `json:"bank_code" validate:"required,numeric"`
}

func (d Deps) verifyAccountName(ctx context.Context, raw json.RawMessage) (any, error) {
	var args resolveArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	resolved, err := d.Mono.ResolveAccountName(ctx, args.AccountNumber, args.BankCode)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"account_number": args.AccountNumber,
		"account_name":   resolved.AccountName,
		"bank_code":      args.BankCode,
		"bank_name":      resolved.BankName,
		"verified":       true,
	}, nil
}

type paymentArgs struct {
	Amount                 float64 `json:"amount" validate:"required,gt=0"`
	RecipientAccountNumber string  `json:"recipient_account_number" validate:"required,len=10,numeric"`
	RecipientBankCode      string  `json:"recipient_bank_code" validate:"required,numeric"`
	CustomerName           string  `json:"customer_name" validate:"required"`
	CustomerEmail          string  `json:"customer_email" validate:"required,email"`
	CustomerPhone          string  `json:"customer_phone"`
	Description            string  `json:"description"`
	RedirectURL            string  `json:"redirect_url" validate:"omitempty,url"`
}

func (d Deps) initiatePayment(ctx context.Context, raw json.RawMessage) (any, error) {
	var args paymentArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	// Verify the recipient before moving money.
	resolved, err := d.Mono.ResolveAccountName(ctx, args.RecipientAccountNumber, args.RecipientBankCode)
	if err != nil {
		return nil, err
	}

	redirect := args.RedirectURL
	if redirect == "" {
		redirect = "https://mono.co"
	}
	amountKobo := int64(math.Round(args.Amount * 100))
	resp, err := d.Mono.InitiatePayment(ctx, mono.PaymentRequest{
		AmountKobo:    amountKobo,
		RedirectURL:   redirect,
		CustomerName:  args.CustomerName,
		CustomerEmail: args.CustomerEmail,
		CustomerPhone: args.CustomerPhone,
		Description:   args.Description,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"message":           "Payment of " + mono.FormatNaira(amountKobo) + " initiated successfully",
		"recipient_name":    resolved.AccountName,
		"recipient_account": args.RecipientAccountNumber,
		"amount":            mono.FormatNaira(amountKobo),
		"description":       args.Description,
		"reference":         resp.Reference,
		"payment_id":        resp.ID,
		"mono_url":          resp.MonoURL,
		"instructions":      "Open the mono_url in a browser to complete the payment authorization",
	}, nil
}

type referenceArgs struct {
	Reference string `json:"reference" validate:"required"`
}

func (d Deps) verifyPayment(ctx context.Context, raw json.RawMessage) (any, error) {
	var args referenceArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	status, err := d.Mono.VerifyPayment(ctx, args.Reference)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"reference":      args.Reference,
		"payment_status": status.Status,
		"amount":         mono.FormatNaira(status.Amount),
		"description":    status.Description,
		"customer_name":  status.Customer.Name,
		"created_at":     status.CreatedAt,
		"updated_at":     status.UpdatedAt,
	}, nil
}

func (d Deps) getNigerianBanks(ctx context.Context, _ json.RawMessage) (any, error) {
	if d.Cache != nil {
		if cached, err := d.Cache.Get(banksCacheKey); err == nil && cached != "" {
			var banks []mono.Bank
			if json.Unmarshal([]byte(cached), &banks) == nil {
				return banksResult(banks), nil
			}
		}
	}

	banks, err := d.Mono.ListBanks(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(banks, func(i, j int) bool { return banks[i].Name < banks[j].Name })

	if d.Cache != nil {
		if encoded, err := json.Marshal(banks); err == nil {
			_ = d.Cache.Set(banksCacheKey, string(encoded), banksCacheTTL)
		}
	}
	return banksResult(banks), nil
}

func banksResult(banks []mono.Bank) map[string]any {
	return map[string]any{"banks": banks, "total_banks": len(banks)}
}

type bvnArgs struct {
	BVN   string `json:"bvn" validate:"required,len=11,numeric"`
	Scope string `json:"scope" validate:"omitempty,oneof=identity bank_accounts"`
}

func (d Deps) lookupBVN(ctx context.Context, raw json.RawMessage) (any, error) {
	var args bvnArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}
	data, err := d.Mono.LookupBVN(ctx, args.BVN, args.Scope)
	if err != nil {
		return nil, err
	}
	scope := args.Scope
	if scope == "" {
		scope = "identity"
	}
	return map[string]any{
		"scope":               scope,
		"verification_status": "verified",
		"data":                data,
	}, nil
}

type eventsArgs struct {
	EventType string `json:"event_type"`
	AccountID string `json:"account_id"`
	Since     string `json:"since"`
	Until     string `json:"until"`
	Limit     int    `json:"limit" validate:"gte=0,lte=500"`
}

func (d Deps) listWebhookEvents(ctx context.Context, raw json.RawMessage) (any, error) {
	var args eventsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return nil, err
	}

	filter := webhook.EventFilter{
		EventType: args.EventType,
		AccountID: args.AccountID,
		Limit:     args.Limit,
	}
	if args.Since != "" {
		t, err := time.Parse(time.RFC3339, args.Since)
		if err != nil {
			return nil, ErrInvalidArgs
		}
		filter.Since = &t
	}
	if args.Until != "" {
		t, err := time.Parse(time.RFC3339, args.Until)
		if err != nil {
			return nil, ErrInvalidArgs
		}
		filter.Until = &t
	}

	events, err := d.Events.ListEvents(ctx, filter)
	if err != nil {
		return nil, err
	}

	list := make([]map[string]any, 0, len(events))
	for _, e := range events {
		list = append(list, map[string]any{
			"event_id":    e.EventID,
			"event_type":  e.EventType,
			"account_id":  e.AccountID,
			"payload":     json.RawMessage(e.PayloadJSON),
			"received_at": e.ReceivedAt.UTC().Format(time.RFC3339),
		})
	}
	return map[string]any{"events": list, "count": len(list)}, nil
}
