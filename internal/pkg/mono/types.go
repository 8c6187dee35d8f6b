package mono

import (
	"encoding/json"
	"fmt"
	"strings"
)

// apiEnvelope is the common Mono v2 response wrapper.
type apiEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *apiEnvelope) ok() bool {
	s := strings.ToLower(strings.TrimSpace(e.Status))
	return s == "successful" || s == "success" || s == "true"
}

// Institution identifies the bank holding a linked account.
type Institution struct {
	Name     string `json:"name"`
	BankCode string `json:"bankCode"`
	Type     string `json:"type"`
}

// LinkedAccount is one account linked to the Mono app.
type LinkedAccount struct {
	ID            string      `json:"_id"`
	AccountNumber string      `json:"accountNumber"`
	Name          string      `json:"name"`
	Institution   Institution `json:"institution"`
	Type          string      `json:"type"`
	Currency      string      `json:"currency"`
	BVN           string      `json:"bvn"`
	CreatedAt     string      `json:"created_at"`
	UpdatedAt     string      `json:"updated_at"`
}

// Balance is the current balance of a linked account, in kobo.
type Balance struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	Balance       int64  `json:"balance"`
	Currency      string `json:"currency"`
}

// Transaction is one history row, amounts in kobo.
type Transaction struct {
	ID        string `json:"_id"`
	Amount    int64  `json:"amount"`
	Type      string `json:"type"`
	Narration string `json:"narration"`
	Reference string `json:"reference"`
	Date      string `json:"date"`
	Balance   int64  `json:"balance"`
	Category  string `json:"category"`
}

// LinkingResponse carries the widget URL the customer opens to authorize.
type LinkingResponse struct {
	MonoURL   string `json:"mono_url"`
	Reference string `json:"reference"`
}

// ExchangeResponse maps an authorization code to a permanent account id.
type ExchangeResponse struct {
	ID string `json:"id"`
}

// PaymentResponse carries the DirectPay authorization URL.
type PaymentResponse struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	MonoURL   string `json:"mono_url"`
}

// PaymentStatus is the verification result for an initiated payment.
type PaymentStatus struct {
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Customer    struct {
		Name string `json:"name"`
	} `json:"customer"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ResolvedAccount is a name-enquiry result used before payments.
type ResolvedAccount struct {
	AccountName string `json:"account_name"`
	BankName    string `json:"bank_name"`
}

// Bank is one supported Nigerian bank.
type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Slug string `json:"slug"`
}

// AccountNumberLookup returns ownership data incl. a masked BVN.
type AccountNumberLookup struct {
	AccountName string `json:"account_name"`
	BVN         string `json:"bvn"`
}

// FormatNaira renders a kobo amount as a display string, e.g. ₦1,234.56.
func FormatNaira(kobo int64) string {
	sign := ""
	if kobo < 0 {
		sign = "-"
		kobo = -kobo
	}
	naira := kobo / 100
	cents := kobo % 100
	return fmt.Sprintf("%s₦%s.%02d", sign, groupThousands(naira), cents)
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
