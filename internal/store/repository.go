/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract
 * for all data access operations required by the banking service. Defining an
 * interface decouples the business logic from the PostgreSQL implementation
 * and lets tests substitute lightweight stubs.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - github.com/shopspring/decimal: For exact currency amounts.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebank/banking-service/internal/domain"
)

// Repository defines the set of methods for interacting with the store of record.
type Repository interface {
	// User methods
	CreateUserWithDefaultAccount(ctx context.Context, user *domain.User, accountName string) error
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	SetVerificationCode(ctx context.Context, userID uuid.UUID, code string, expires time.Time) error
	MarkEmailVerified(ctx context.Context, userID uuid.UUID) error

	// Account directory methods
	CreateAccount(ctx context.Context, account *domain.Account) error
	FindAccountByName(ctx context.Context, name string, ownerID uuid.UUID) (*domain.Account, error)
	ListAccountsByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Account, error)
	DeleteAccount(ctx context.Context, accountID uuid.UUID) error

	// Ledger methods. Each executes as one atomic unit of work: the balance
	// mutation and the transaction insert commit together or not at all.
	Deposit(ctx context.Context, p DepositParams) (*domain.Transaction, error)
	Transfer(ctx context.Context, p TransferParams) (*domain.Transaction, error)

	// FindAccountActivity returns, oldest first, the deposits into and the
	// outgoing transfers from the given account. Incoming transfers from
	// another account are deliberately excluded (per-account "my activity").
	FindAccountActivity(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error)
}

// DepositParams carries one validated deposit into the atomic unit of work.
type DepositParams struct {
	UserID      uuid.UUID
	AccountName string
	Amount      decimal.Decimal
	Description string
}

// TransferParams carries one validated transfer into the atomic unit of work.
// DestUsername is nil for transfers between the initiator's own accounts;
// otherwise the destination account is resolved under that user.
type TransferParams struct {
	UserID        uuid.UUID
	SourceAccount string
	DestAccount   string
	DestUsername  *string
	Amount        decimal.Decimal
	Description   string
}
