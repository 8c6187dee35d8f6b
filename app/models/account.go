package models

import "time"

// Account statuses mirrored from Mono webhook notifications.
const (
	AccountStatusConnected = "connected"
	AccountStatusAvailable = "AVAILABLE"
)

// Account is a locally mirrored Mono-linked bank account. Rows are created
// and removed by webhook events (account.connected / account.unlinked); the
// bank remains the source of truth.
type Account struct {
	ID            string    `gorm:"primaryKey;type:varchar(191)" json:"id"`
	CustomerID    string    `gorm:"type:varchar(191);index" json:"customer_id"`
	AccountNumber string    `gorm:"type:varchar(20)" json:"account_number"`
	AccountName   string    `gorm:"type:varchar(255)" json:"account_name"`
	BankName      string    `gorm:"type:varchar(255)" json:"bank_name"`
	BankCode      string    `gorm:"type:varchar(10)" json:"bank_code"`
	AccountType   string    `gorm:"type:varchar(50)" json:"account_type"`
	Currency      string    `gorm:"type:varchar(10)" json:"currency"`
	BVN           string    `gorm:"type:varchar(11)" json:"bvn,omitempty"`
	Status        string    `gorm:"type:varchar(50);default:'active'" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
