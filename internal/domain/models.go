/**
 * @description
 * This file defines the core domain models for the banking service. These
 * structs represent the main entities and data transfer objects (DTOs) used
 * throughout the service's business logic, database interactions, and API
 * layers.
 *
 * @notes
 * - Balances and amounts use decimal.Decimal over NUMERIC columns so repeated
 *   deposits and transfers never accumulate floating-point drift.
 * - A Transaction is immutable once written: from_account_id is null exactly
 *   when the movement is a deposit, and every movement has one destination.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a registered user. Accounts and Transactions hang off the
// user by ownership and by initiating-user attribution respectively.
type User struct {
	ID                      uuid.UUID  `json:"id"`
	FirstName               string     `json:"first_name"`
	LastName                string     `json:"last_name"`
	Username                string     `json:"username"`
	HashedPassword          string     `json:"-"`
	Email                   string     `json:"email"`
	IsEmailVerified         bool       `json:"is_email_verified"`
	EmailVerificationCode   *string    `json:"-"`
	VerificationCodeExpires *time.Time `json:"-"`
	CreatedAt               time.Time  `json:"created_at"`
}

// Account is a named balance owned by exactly one user.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	UserID    uuid.UUID       `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// Transaction is the immutable ledger record of one balance movement.
// FromAccountID is nil if and only if the movement is a deposit. UserID is the
// initiator's id, even when the destination belongs to another user.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	FromAccountID *uuid.UUID      `json:"from_account_id,omitempty"`
	ToAccountID   uuid.UUID       `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
	Description   string          `json:"description"`
}

// IsDeposit reports whether the transaction has no source account.
func (t *Transaction) IsDeposit() bool {
	return t.FromAccountID == nil
}

// HistoryEntry is the client-facing view of one transaction in an account's
// activity feed. Amount carries an explicit sign: "+" for deposits into the
// account, "-" for transfers out of it.
type HistoryEntry struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// SignUpRequest is the DTO for user registration.
type SignUpRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginRequest is the DTO for credential authentication.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// VerifyEmailRequest is the DTO for confirming an email verification code.
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CreateAccountRequest is the DTO for opening a new named account.
type CreateAccountRequest struct {
	AccountName string `json:"account_name"`
}

// AccountView is the client-facing shape of an account.
type AccountView struct {
	Name      string          `json:"account_name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// DepositRequest is the DTO for crediting an account from outside the system.
type DepositRequest struct {
	AccountName string          `json:"account_name"`
	Amount      decimal.Decimal `json:"amount"`
}

// TransferRequest is the DTO for moving money between accounts. When
// TransferUsername is nil the destination account is resolved under the
// initiator's own user id.
type TransferRequest struct {
	AccountName         string          `json:"account_name"`
	Amount              decimal.Decimal `json:"amount"`
	TransferAccountName string          `json:"transfer_account_name"`
	TransferUsername    *string         `json:"transfer_username,omitempty"`
}

// VerificationMailEvent is the payload published when a signup needs its
// verification code delivered.
type VerificationMailEvent struct {
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ViewOf converts an account entity into its client-facing shape.
func ViewOf(a *Account) AccountView {
	return AccountView{Name: a.Name, Balance: a.Balance, CreatedAt: a.CreatedAt}
}
