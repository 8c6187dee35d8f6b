package models

import "time"

// Transaction caches Mono transaction history rows per linked account.
// Amounts are stored in kobo as delivered by the API.
type Transaction struct {
	ID          string    `gorm:"primaryKey;type:varchar(191)" json:"id"`
	AccountID   string    `gorm:"type:varchar(191);not null;index" json:"account_id"`
	Amount      int64     `json:"amount"`
	Type        string    `gorm:"type:varchar(20)" json:"type"`
	Description string    `gorm:"type:text" json:"description"`
	Reference   string    `gorm:"type:varchar(191)" json:"reference"`
	Date        string    `gorm:"type:varchar(40);index" json:"date"`
	Balance     int64     `json:"balance"`
	Category    string    `gorm:"type:varchar(100)" json:"category"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
