/**
 * @description
 * This file defines the application service for the banking backend. The
 * Service struct wires the store of record, the Redis history cache and the
 * event producer together and exposes the business operations the API layer
 * calls. Account directory operations live here; the ledger, history and user
 * flows live in sibling files within this package.
 *
 * @dependencies
 * - context, log, time: Standard Go libraries.
 * - github.com/google/uuid: For generating account ids.
 * - internal/store: The repository interface.
 * - internal/cache: The bounded per-account history cache.
 * - pkg/rabbitmq: For publishing verification-mail events.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/corebank/banking-service/internal/cache"
	"github.com/corebank/banking-service/internal/domain"
	"github.com/corebank/banking-service/internal/store"
	"github.com/corebank/banking-service/pkg/rabbitmq"
)

const (
	// EventsExchange is the topic exchange all service events are published to.
	EventsExchange = "corebank.events"
	// VerificationMailRoutingKey routes signup verification mail events to the
	// mail worker's queue.
	VerificationMailRoutingKey = "user.verification.requested"

	// DefaultAccountName is the account every signup starts with.
	DefaultAccountName = "first_account"

	// cacheWriteTimeout bounds the fire-and-forget history appends so a slow
	// Redis cannot pile up goroutines behind it.
	cacheWriteTimeout = 2 * time.Second
)

// Service provides the business logic for users, accounts, the ledger and the
// history feed.
type Service struct {
	repo     store.Repository
	history  cache.HistoryCache
	producer rabbitmq.Publisher

	jwtSecret []byte
	tokenTTL  time.Duration
	codeTTL   time.Duration
}

// NewService creates a new application service. producer may be a fallback
// no-op publisher when RabbitMQ is unavailable; history may be nil in tests
// that do not exercise the cache.
func NewService(repo store.Repository, history cache.HistoryCache, producer rabbitmq.Publisher, jwtSecret string, tokenTTL, codeTTL time.Duration) *Service {
	return &Service{
		repo:      repo,
		history:   history,
		producer:  producer,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		codeTTL:   codeTTL,
	}
}

// ResolveUser maps an authenticated username to its user record. The API
// middleware authenticates the token; this resolves the subject it carried.
func (s *Service) ResolveUser(ctx context.Context, username string) (*domain.User, error) {
	return s.repo.FindUserByUsername(ctx, username)
}

// AddAccount opens a new zero-balance account for the user. The name must be
// unused by any account in the system, not just the owner's.
func (s *Service) AddAccount(ctx context.Context, userID uuid.UUID, accountName string) (*domain.Account, error) {
	account := &domain.Account{
		ID:     uuid.New(),
		Name:   accountName,
		UserID: userID,
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	log.Printf("level=info component=service msg=\"account created\" user_id=%s account=%s", userID, accountName)
	return account, nil
}

// GetAccount resolves one of the user's accounts by name.
func (s *Service) GetAccount(ctx context.Context, userID uuid.UUID, accountName string) (*domain.Account, error) {
	return s.repo.FindAccountByName(ctx, accountName, userID)
}

// ListAccounts returns all accounts owned by the user.
func (s *Service) ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	return s.repo.ListAccountsByOwner(ctx, userID)
}

// DeleteAccount removes one of the user's accounts along with its ledger
// records. The lookup scopes by owner, so a user cannot delete another user's
// account even if they know its name.
func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID, accountName string) error {
	account, err := s.repo.FindAccountByName(ctx, accountName, userID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteAccount(ctx, account.ID); err != nil {
		return err
	}

	// Drop the cached feed so a read after delete cannot serve stale entries
	// until the TTL lapses. Best-effort, like every cache write.
	if s.history != nil {
		if err := s.history.Purge(ctx, userID, accountName); err != nil {
			log.Printf("level=warn component=service msg=\"history cache purge failed\" user_id=%s account=%s err=%v", userID, accountName, err)
		}
	}

	log.Printf("level=info component=service msg=\"account deleted\" user_id=%s account=%s", userID, accountName)
	return nil
}
