/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains the SQL for the users, accounts and transactions
 * tables, including the atomic deposit/transfer units of work that keep
 * balances and the ledger consistent under concurrent requests.
 *
 * @notes
 * - Account-name uniqueness is global and enforced by the create-path check,
 *   not per owner, so there is no unique index to lean on (the default
 *   `first_account` every signup inserts would violate one). An advisory lock
 *   on the name serializes concurrent creates that would otherwise both pass
 *   the existence check under read committed. Lookups still scope by owner.
 *   Whether two users should ever share the name "savings" is a product
 *   decision still to be confirmed.
 * - The transfer unit of work locks both account rows with FOR UPDATE in
 *   ascending id order and rechecks the source balance under the lock, so two
 *   concurrent transfers cannot both debit a stale balance.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/corebank/banking-service/internal/domain"
)

const uniqueViolationCode = "23505"

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, first_name, last_name, username, hashed_password, email,
		is_email_verified, email_verification_code, email_verification_code_expires, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Username,
		&user.HashedPassword,
		&user.Email,
		&user.IsEmailVerified,
		&user.EmailVerificationCode,
		&user.VerificationCodeExpires,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Errorf(domain.KindNotFound, "user not found")
		}
		return nil, err
	}
	return &user, nil
}

// CreateUserWithDefaultAccount inserts a new user and their default account in
// one unit of work. A duplicate username or email surfaces as NameConflict.
func (r *PostgresRepository) CreateUserWithDefaultAccount(ctx context.Context, user *domain.User, accountName string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, first_name, last_name, username, hashed_password, email)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.FirstName, user.LastName, user.Username, user.HashedPassword, user.Email,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return domain.Errorf(domain.KindNameConflict, "username or email already registered")
		}
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (id, name, user_id, balance)
		VALUES ($1, $2, $3, 0)`,
		uuid.New(), accountName, user.ID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindUserByUsername retrieves a user by their unique username.
func (r *PostgresRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// FindUserByEmail retrieves a user by their unique email address.
func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// SetVerificationCode stores a fresh email verification code and its expiry.
func (r *PostgresRepository) SetVerificationCode(ctx context.Context, userID uuid.UUID, code string, expires time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET email_verification_code = $2, email_verification_code_expires = $3
		WHERE id = $1`,
		userID, code, expires,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.Errorf(domain.KindNotFound, "user not found")
	}
	return nil
}

// MarkEmailVerified flips the verified flag and clears the pending code.
func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET is_email_verified = TRUE,
			email_verification_code = NULL,
			email_verification_code_expires = NULL
		WHERE id = $1`,
		userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.Errorf(domain.KindNotFound, "user not found")
	}
	return nil
}

// CreateAccount inserts a zero-balance account after checking that the name is
// free anywhere in the system. A transaction-scoped advisory lock on the name
// serializes concurrent creates: under read committed alone, two transactions
// creating the same name would both see the existence check pass and both
// commit. The lock is released automatically at commit or rollback.
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockKey(account.Name)); err != nil {
		return err
	}

	var taken bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE name = $1)`, account.Name).Scan(&taken); err != nil {
		return err
	}
	if taken {
		return domain.Errorf(domain.KindNameConflict, "account name %q is already used", account.Name)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO accounts (id, name, user_id, balance)
		VALUES ($1, $2, $3, 0)`,
		account.ID, account.Name, account.UserID,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindAccountByName resolves an account by name scoped to its owner.
func (r *PostgresRepository) FindAccountByName(ctx context.Context, name string, ownerID uuid.UUID) (*domain.Account, error) {
	var account domain.Account
	err := r.db.QueryRow(ctx, `
		SELECT id, name, user_id, balance, created_at
		FROM accounts
		WHERE name = $1 AND user_id = $2`,
		name, ownerID,
	).Scan(&account.ID, &account.Name, &account.UserID, &account.Balance, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Errorf(domain.KindNotFound, "account %q not found", name)
		}
		return nil, err
	}
	return &account, nil
}

// ListAccountsByOwner returns all accounts owned by the user, insertion order.
func (r *PostgresRepository) ListAccountsByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, user_id, balance, created_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(&account.ID, &account.Name, &account.UserID, &account.Balance, &account.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// DeleteAccount removes the account; the transactions referencing it are
// removed by the ON DELETE CASCADE foreign keys in the same statement.
func (r *PostgresRepository) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.Errorf(domain.KindNotFound, "account not found")
	}
	return nil
}

// Deposit runs the deposit unit of work: lock the account row, insert the
// ledger record, credit the balance, commit. Any failure rolls the whole unit
// back.
func (r *PostgresRepository) Deposit(ctx context.Context, p DepositParams) (*domain.Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var accountID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM accounts
		WHERE name = $1 AND user_id = $2
		FOR UPDATE`,
		p.AccountName, p.UserID,
	).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Errorf(domain.KindNotFound, "account %q not found", p.AccountName)
		}
		return nil, err
	}

	record := &domain.Transaction{
		ID:          uuid.New(),
		UserID:      p.UserID,
		ToAccountID: accountID,
		Amount:      p.Amount,
		Timestamp:   time.Now().UTC(),
		Description: p.Description,
	}
	if err := insertTransaction(ctx, tx, record); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE id = $2`, p.Amount, accountID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// Transfer runs the transfer unit of work. Resolution failures and the
// insufficient-funds check surface before any mutation; the debit, credit and
// ledger insert then commit together or roll back together.
func (r *PostgresRepository) Transfer(ctx context.Context, p TransferParams) (*domain.Transaction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var sourceID uuid.UUID
	var sourceBalance decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT id, balance FROM accounts
		WHERE name = $1 AND user_id = $2`,
		p.SourceAccount, p.UserID,
	).Scan(&sourceID, &sourceBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Errorf(domain.KindNotFound, "account %q not found", p.SourceAccount)
		}
		return nil, err
	}
	if !hasSufficientBalance(sourceBalance, p.Amount) {
		return nil, domain.Errorf(domain.KindInsufficientFunds,
			"balance %s is less than transfer amount %s", sourceBalance, p.Amount)
	}

	destOwnerID := p.UserID
	if p.DestUsername != nil {
		err = tx.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, *p.DestUsername).Scan(&destOwnerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.Errorf(domain.KindNotFound, "user %q not found", *p.DestUsername)
			}
			return nil, err
		}
	}

	var destID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM accounts
		WHERE name = $1 AND user_id = $2`,
		p.DestAccount, destOwnerID,
	).Scan(&destID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Errorf(domain.KindNotFound, "account %q not found", p.DestAccount)
		}
		return nil, err
	}

	// Lock both rows in ascending id order so two opposing transfers cannot
	// deadlock, then recheck the source balance under the lock. The unlocked
	// check above is only a fast-fail; this one is authoritative.
	lockedBalance, err := lockAccountPair(ctx, tx, sourceID, destID)
	if err != nil {
		return nil, err
	}
	if !hasSufficientBalance(lockedBalance, p.Amount) {
		return nil, domain.Errorf(domain.KindInsufficientFunds,
			"balance %s is less than transfer amount %s", lockedBalance, p.Amount)
	}

	record := &domain.Transaction{
		ID:            uuid.New(),
		UserID:        p.UserID,
		FromAccountID: &sourceID,
		ToAccountID:   destID,
		Amount:        p.Amount,
		Timestamp:     time.Now().UTC(),
		Description:   p.Description,
	}
	if err := insertTransaction(ctx, tx, record); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1 WHERE id = $2`, p.Amount, sourceID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1 WHERE id = $2`, p.Amount, destID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// lockAccountPair takes FOR UPDATE locks on the two accounts in ascending id
// order and returns the locked balance of sourceID. A row deleted between the
// unlocked resolution and the re-read here surfaces as NotFound.
func lockAccountPair(ctx context.Context, tx pgx.Tx, sourceID, destID uuid.UUID) (decimal.Decimal, error) {
	var sourceBalance decimal.Decimal
	for _, id := range lockOrder(sourceID, destID) {
		var balance decimal.Decimal
		if err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&balance); err != nil {
			return decimal.Decimal{}, asNotFound(err, "account no longer exists")
		}
		if id == sourceID {
			sourceBalance = balance
		}
	}
	return sourceBalance, nil
}

// lockOrder returns the account ids in ascending order so two opposing
// transfers always lock in the same sequence. A self-transfer locks its single
// row exactly once.
func lockOrder(sourceID, destID uuid.UUID) []uuid.UUID {
	if destID == sourceID {
		return []uuid.UUID{sourceID}
	}
	if destID.String() < sourceID.String() {
		return []uuid.UUID{destID, sourceID}
	}
	return []uuid.UUID{sourceID, destID}
}

// hasSufficientBalance reports whether a balance covers a debit in full.
func hasSufficientBalance(balance, amount decimal.Decimal) bool {
	return !balance.LessThan(amount)
}

// asNotFound maps a missing-row scan error to the NotFound kind; every other
// error passes through unchanged.
func asNotFound(err error, detail string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Errorf(domain.KindNotFound, "%s", detail)
	}
	return err
}

// advisoryLockKey derives the transaction-scoped advisory lock key for an
// account name. The hash must be stable across processes, not secure.
func advisoryLockKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}

func insertTransaction(ctx context.Context, tx pgx.Tx, record *domain.Transaction) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, from_account_id, to_account_id, amount, timestamp, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.UserID, record.FromAccountID, record.ToAccountID,
		record.Amount, record.Timestamp, record.Description,
	)
	return err
}

// FindAccountActivity returns the account's deposits and outgoing transfers,
// oldest first.
func (r *PostgresRepository) FindAccountActivity(ctx context.Context, accountID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, from_account_id, to_account_id, amount, timestamp, description
		FROM transactions
		WHERE (from_account_id IS NULL AND to_account_id = $1) OR from_account_id = $1
		ORDER BY timestamp`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.Transaction
	for rows.Next() {
		var record domain.Transaction
		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.FromAccountID,
			&record.ToAccountID,
			&record.Amount,
			&record.Timestamp,
			&record.Description,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
