/**
 * @description
 * This file implements the ledger operations of the banking service: deposits
 * and transfers. Both delegate the balance mutation and the ledger insert to a
 * single repository unit of work, then append the client-facing history entry
 * to the Redis cache after the commit. The cache append is fire-and-forget:
 * a cache failure is logged and swallowed, never surfaced to the caller,
 * because the store of record already holds the truth.
 *
 * @notes
 * - Validation order is fixed: a transfer with a missing destination fails
 *   before its amount is inspected, and an invalid amount fails before any
 *   account is resolved.
 * - Transfers append only to the source account's cache key. The destination's
 *   feed shows deposits and its own outgoing transfers, so an incoming
 *   transfer has no entry to append.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/corebank/banking-service/internal/domain"
	"github.com/corebank/banking-service/internal/store"
)

// Deposit credits an external amount to one of the user's accounts and records
// the movement in the ledger.
func (s *Service) Deposit(ctx context.Context, userID uuid.UUID, req domain.DepositRequest) (*domain.Transaction, error) {
	if !req.Amount.IsPositive() {
		return nil, domain.Errorf(domain.KindInvalidAmount, "deposit amount must be greater than zero, got %s", req.Amount)
	}

	record, err := s.repo.Deposit(ctx, store.DepositParams{
		UserID:      userID,
		AccountName: req.AccountName,
		Amount:      req.Amount,
		Description: fmt.Sprintf("Deposited %s to account %s", req.Amount, req.AccountName),
	})
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=ledger msg=\"deposit committed\" user_id=%s account=%s amount=%s", userID, req.AccountName, req.Amount)
	s.appendHistoryAsync(userID, req.AccountName, historyEntryOf(record))
	return record, nil
}

// Transfer moves an amount from one of the user's accounts to a destination
// account, which may belong to another user. The debit, credit and ledger
// record commit as one unit of work.
func (s *Service) Transfer(ctx context.Context, userID uuid.UUID, req domain.TransferRequest) (*domain.Transaction, error) {
	if strings.TrimSpace(req.TransferAccountName) == "" {
		return nil, domain.Errorf(domain.KindMissingDestination, "transfer destination account is required")
	}
	if !req.Amount.IsPositive() {
		return nil, domain.Errorf(domain.KindInvalidAmount, "transfer amount must be greater than zero, got %s", req.Amount)
	}

	description := fmt.Sprintf("Transferred %s from account %s to account %s", req.Amount, req.AccountName, req.TransferAccountName)
	if req.TransferUsername != nil {
		description = fmt.Sprintf("Transferred %s from account %s to %s's account %s",
			req.Amount, req.AccountName, *req.TransferUsername, req.TransferAccountName)
	}

	record, err := s.repo.Transfer(ctx, store.TransferParams{
		UserID:        userID,
		SourceAccount: req.AccountName,
		DestAccount:   req.TransferAccountName,
		DestUsername:  req.TransferUsername,
		Amount:        req.Amount,
		Description:   description,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=ledger msg=\"transfer committed\" user_id=%s source=%s dest=%s amount=%s",
		userID, req.AccountName, req.TransferAccountName, req.Amount)
	s.appendHistoryAsync(userID, req.AccountName, historyEntryOf(record))
	return record, nil
}

// historyEntryOf formats a ledger record as its cached feed entry. Deposits
// carry a "+" sign, outgoing transfers a "-" sign.
func historyEntryOf(record *domain.Transaction) domain.HistoryEntry {
	sign := "-"
	if record.IsDeposit() {
		sign = "+"
	}
	return domain.HistoryEntry{
		Description: record.Description,
		Amount:      sign + record.Amount.String(),
	}
}

// appendHistory pushes one entry onto the account's cache feed, logging and
// swallowing any cache error. The committed ledger is authoritative; a missed
// append only means the next history read repopulates from the store.
func (s *Service) appendHistory(ctx context.Context, userID uuid.UUID, accountName string, entry domain.HistoryEntry) {
	if s.history == nil {
		return
	}
	if err := s.history.Append(ctx, userID, accountName, entry); err != nil {
		log.Printf("level=warn component=ledger msg=\"history cache append failed\" user_id=%s account=%s err=%v", userID, accountName, err)
	}
}

func (s *Service) appendHistoryAsync(userID uuid.UUID, accountName string, entry domain.HistoryEntry) {
	if s.history == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()
		s.appendHistory(ctx, userID, accountName, entry)
	}()
}
