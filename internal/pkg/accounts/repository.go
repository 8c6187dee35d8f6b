package accounts

import (
	"github.com/openbankingng/monobridge/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations for mirrored accounts and cached
// transactions.
type Repository interface {
	UpsertAccount(account *models.Account) error
	GetAccount(id string) (*models.Account, error)
	ListAccounts() ([]models.Account, error)
	RemoveAccount(id string) error
	UpsertTransactions(accountID string, txns []models.Transaction) error
	RecentTransactions(accountID string, limit int) ([]models.Transaction, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an account repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) UpsertAccount(account *models.Account) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"customer_id",
			"account_number",
			"account_name",
			"bank_name",
			"bank_code",
			"account_type",
			"currency",
			"bvn",
			"status",
			"updated_at",
		}),
	}).Create(account).Error
}

func (r *gormRepository) GetAccount(id string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *gormRepository) ListAccounts() ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.Order("created_at ASC").Find(&accounts).Error
	return accounts, err
}

// RemoveAccount deletes the account and its cached transactions in one
// transaction so an unlink never leaves orphaned rows.
func (r *gormRepository) RemoveAccount(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", id).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Account{}).Error
	})
}

func (r *gormRepository) UpsertTransactions(accountID string, txns []models.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	for i := range txns {
		txns[i].AccountID = accountID
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_id",
			"amount",
			"type",
			"description",
			"reference",
			"date",
			"balance",
			"category",
		}),
	}).Create(&txns).Error
}

func (r *gormRepository) RecentTransactions(accountID string, limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.Where("account_id = ?", accountID).
		Order("date DESC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}
