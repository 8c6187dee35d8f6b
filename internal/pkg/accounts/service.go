package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/openbankingng/monobridge/app/models"
	"gorm.io/gorm"
)

// ErrAccountNotFound is returned for ids with no mirrored row.
var ErrAccountNotFound = errors.New("account not found")

// Service maintains the local mirror of Mono-linked accounts. All mutation
// originates from webhook events; tool reads go to the Mono API first and use
// this mirror as fallback context.
type Service struct {
	repo Repository
}

// NewService creates an account service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates an account service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// Connect records a newly linked account reported by account.connected.
func (s *Service) Connect(ctx context.Context, accountID, customerID string) error {
	_ = ctx
	id := strings.TrimSpace(accountID)
	if id == "" {
		return errors.New("account id is required")
	}
	return s.repo.UpsertAccount(&models.Account{
		ID:         id,
		CustomerID: strings.TrimSpace(customerID),
		Status:     models.AccountStatusConnected,
	})
}

// UpdateFromWebhook refreshes mirrored institution data and data status for
// an account.updated event. Events for accounts we never saw connect are
// recorded as new rows rather than dropped.
func (s *Service) UpdateFromWebhook(ctx context.Context, accountID, bankName, bankCode, status string) error {
	_ = ctx
	id := strings.TrimSpace(accountID)
	if id == "" {
		return errors.New("account id is required")
	}

	account, err := s.repo.GetAccount(id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		account = &models.Account{ID: id}
	}
	if bankName != "" {
		account.BankName = bankName
	}
	if bankCode != "" {
		account.BankCode = bankCode
	}
	if status != "" {
		account.Status = status
	}
	return s.repo.UpsertAccount(account)
}

// Unlink removes the mirrored account and its cached transactions.
func (s *Service) Unlink(ctx context.Context, accountID string) error {
	_ = ctx
	id := strings.TrimSpace(accountID)
	if id == "" {
		return errors.New("account id is required")
	}
	return s.repo.RemoveAccount(id)
}

// Get returns the mirrored account.
func (s *Service) Get(ctx context.Context, accountID string) (*models.Account, error) {
	_ = ctx
	account, err := s.repo.GetAccount(strings.TrimSpace(accountID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// List returns all mirrored accounts.
func (s *Service) List(ctx context.Context) ([]models.Account, error) {
	_ = ctx
	return s.repo.ListAccounts()
}

// CacheTransactions stores fetched history rows for later offline reads.
func (s *Service) CacheTransactions(ctx context.Context, accountID string, txns []models.Transaction) error {
	_ = ctx
	id := strings.TrimSpace(accountID)
	if id == "" {
		return errors.New("account id is required")
	}
	return s.repo.UpsertTransactions(id, txns)
}

// RecentTransactions returns cached history, newest first.
func (s *Service) RecentTransactions(ctx context.Context, accountID string, limit int) ([]models.Transaction, error) {
	_ = ctx
	if limit <= 0 {
		limit = 10
	}
	return s.repo.RecentTransactions(strings.TrimSpace(accountID), limit)
}
