/**
 * @description
 * This file implements the transaction-history read path. Reads are
 * cache-first: if the Redis key for the (user, account) pair exists, its
 * entries are served directly. On a miss the feed is rebuilt from the store of
 * record and the cache repopulated best-effort. Any cache error on the read
 * path degrades to the store; it never fails the request.
 */

package app

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/corebank/banking-service/internal/domain"
)

// GetHistory returns the activity feed for one of the user's accounts, oldest
// first. The feed contains the account's deposits and outgoing transfers;
// incoming transfers from other accounts appear on the sender's feed.
func (s *Service) GetHistory(ctx context.Context, userID uuid.UUID, accountName string) ([]domain.HistoryEntry, error) {
	if s.history != nil {
		hit, err := s.history.Exists(ctx, userID, accountName)
		if err != nil {
			log.Printf("level=warn component=history msg=\"cache probe failed, falling back to store\" user_id=%s account=%s err=%v", userID, accountName, err)
		} else if hit {
			entries, err := s.history.ReadAll(ctx, userID, accountName)
			if err == nil {
				return entries, nil
			}
			log.Printf("level=warn component=history msg=\"cache read failed, falling back to store\" user_id=%s account=%s err=%v", userID, accountName, err)
		}
	}

	// Resolve the account first so an unknown name is NotFound, not an empty feed.
	account, err := s.repo.FindAccountByName(ctx, accountName, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.FindAccountActivity(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.HistoryEntry, 0, len(records))
	for i := range records {
		entry := historyEntryOf(&records[i])
		entries = append(entries, entry)
		s.appendHistory(ctx, userID, accountName, entry)
	}
	return entries, nil
}
