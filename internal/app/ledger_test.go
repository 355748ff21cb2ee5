package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebank/banking-service/internal/domain"
	"github.com/corebank/banking-service/internal/store"
)

type ledgerRepoStub struct {
	store.Repository

	depositCalled bool
	depositParams store.DepositParams
	depositErr    error

	transferCalled bool
	transferParams store.TransferParams
	transferErr    error
}

func (s *ledgerRepoStub) Deposit(ctx context.Context, p store.DepositParams) (*domain.Transaction, error) {
	s.depositCalled = true
	s.depositParams = p
	if s.depositErr != nil {
		return nil, s.depositErr
	}
	return &domain.Transaction{
		ID:          uuid.New(),
		UserID:      p.UserID,
		ToAccountID: uuid.New(),
		Amount:      p.Amount,
		Timestamp:   time.Now().UTC(),
		Description: p.Description,
	}, nil
}

func (s *ledgerRepoStub) Transfer(ctx context.Context, p store.TransferParams) (*domain.Transaction, error) {
	s.transferCalled = true
	s.transferParams = p
	if s.transferErr != nil {
		return nil, s.transferErr
	}
	sourceID := uuid.New()
	return &domain.Transaction{
		ID:            uuid.New(),
		UserID:        p.UserID,
		FromAccountID: &sourceID,
		ToAccountID:   uuid.New(),
		Amount:        p.Amount,
		Timestamp:     time.Now().UTC(),
		Description:   p.Description,
	}, nil
}

type historyCacheStub struct {
	mu       sync.Mutex
	appended []domain.HistoryEntry
	appendCh chan domain.HistoryEntry
	appendErr error

	exists    bool
	existsErr error
	entries   []domain.HistoryEntry
	readErr   error

	existsCalled bool
	readCalled   bool

	purgeCalled  bool
	purgedUser   uuid.UUID
	purgedName   string
	purgeErr     error
}

func (c *historyCacheStub) Append(ctx context.Context, userID uuid.UUID, accountName string, entry domain.HistoryEntry) error {
	c.mu.Lock()
	c.appended = append(c.appended, entry)
	c.mu.Unlock()
	if c.appendCh != nil {
		c.appendCh <- entry
	}
	return c.appendErr
}

func (c *historyCacheStub) Exists(ctx context.Context, userID uuid.UUID, accountName string) (bool, error) {
	c.existsCalled = true
	return c.exists, c.existsErr
}

func (c *historyCacheStub) ReadAll(ctx context.Context, userID uuid.UUID, accountName string) ([]domain.HistoryEntry, error) {
	c.readCalled = true
	return c.entries, c.readErr
}

func (c *historyCacheStub) Purge(ctx context.Context, userID uuid.UUID, accountName string) error {
	c.purgeCalled = true
	c.purgedUser = userID
	c.purgedName = accountName
	return c.purgeErr
}

func (c *historyCacheStub) appendedEntries() []domain.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.HistoryEntry, len(c.appended))
	copy(out, c.appended)
	return out
}

func newLedgerService(repo store.Repository, history *historyCacheStub) *Service {
	return NewService(repo, history, nil, "test-secret", 15*time.Minute, 15*time.Minute)
}

func waitForAppend(t *testing.T, ch chan domain.HistoryEntry) domain.HistoryEntry {
	t.Helper()
	select {
	case entry := <-ch:
		return entry
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for cache append")
		return domain.HistoryEntry{}
	}
}

func TestDeposit_RejectsNonPositiveAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount decimal.Decimal
	}{
		{name: "zero amount", amount: decimal.Zero},
		{name: "negative amount", amount: decimal.NewFromInt(-50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &ledgerRepoStub{}
			svc := newLedgerService(repo, nil)

			_, err := svc.Deposit(context.Background(), uuid.New(), domain.DepositRequest{
				AccountName: "savings",
				Amount:      tt.amount,
			})
			if domain.KindOf(err) != domain.KindInvalidAmount {
				t.Fatalf("expected invalid-amount error, got %v", err)
			}
			if repo.depositCalled {
				t.Fatal("expected amount validation before the unit of work")
			}
		})
	}
}

func TestDeposit_AppendsSignedEntryToCache(t *testing.T) {
	repo := &ledgerRepoStub{}
	history := &historyCacheStub{appendCh: make(chan domain.HistoryEntry, 1)}
	svc := newLedgerService(repo, history)

	record, err := svc.Deposit(context.Background(), uuid.New(), domain.DepositRequest{
		AccountName: "savings",
		Amount:      decimal.RequireFromString("250.50"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry := waitForAppend(t, history.appendCh)
	if entry.Amount != "+250.5" {
		t.Fatalf("expected amount %q, got %q", "+250.5", entry.Amount)
	}
	if entry.Description != record.Description {
		t.Fatalf("expected cached description %q, got %q", record.Description, entry.Description)
	}
}

func TestTransfer_MissingDestinationCheckedBeforeAmount(t *testing.T) {
	repo := &ledgerRepoStub{}
	svc := newLedgerService(repo, nil)

	// The amount is also invalid; the missing destination must win.
	_, err := svc.Transfer(context.Background(), uuid.New(), domain.TransferRequest{
		AccountName: "savings",
		Amount:      decimal.NewFromInt(-10),
	})
	if domain.KindOf(err) != domain.KindMissingDestination {
		t.Fatalf("expected missing-destination error, got %v", err)
	}
	if repo.transferCalled {
		t.Fatal("expected validation before the unit of work")
	}
}

func TestTransfer_RejectsNonPositiveAmount(t *testing.T) {
	repo := &ledgerRepoStub{}
	svc := newLedgerService(repo, nil)

	_, err := svc.Transfer(context.Background(), uuid.New(), domain.TransferRequest{
		AccountName:         "savings",
		Amount:              decimal.Zero,
		TransferAccountName: "rent",
	})
	if domain.KindOf(err) != domain.KindInvalidAmount {
		t.Fatalf("expected invalid-amount error, got %v", err)
	}
	if repo.transferCalled {
		t.Fatal("expected amount validation before the unit of work")
	}
}

func TestTransfer_PassesDestinationThrough(t *testing.T) {
	destUser := "bob"
	tests := []struct {
		name         string
		destUsername *string
	}{
		{name: "self transfer leaves owner unset"},
		{name: "cross-user transfer carries destination username", destUsername: &destUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &ledgerRepoStub{}
			history := &historyCacheStub{appendCh: make(chan domain.HistoryEntry, 1)}
			svc := newLedgerService(repo, history)
			userID := uuid.New()

			_, err := svc.Transfer(context.Background(), userID, domain.TransferRequest{
				AccountName:         "savings",
				Amount:              decimal.NewFromInt(75),
				TransferAccountName: "rent",
				TransferUsername:    tt.destUsername,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if repo.transferParams.UserID != userID {
				t.Fatal("expected initiator id to reach the unit of work")
			}
			if tt.destUsername == nil && repo.transferParams.DestUsername != nil {
				t.Fatalf("expected nil destination username, got %q", *repo.transferParams.DestUsername)
			}
			if tt.destUsername != nil {
				if repo.transferParams.DestUsername == nil || *repo.transferParams.DestUsername != *tt.destUsername {
					t.Fatalf("expected destination username %q to pass through", *tt.destUsername)
				}
			}

			entry := waitForAppend(t, history.appendCh)
			if entry.Amount != "-75" {
				t.Fatalf("expected debited amount %q, got %q", "-75", entry.Amount)
			}
		})
	}
}

func TestTransfer_CacheAppendFailureDoesNotSurface(t *testing.T) {
	repo := &ledgerRepoStub{}
	history := &historyCacheStub{
		appendCh:  make(chan domain.HistoryEntry, 1),
		appendErr: context.DeadlineExceeded,
	}
	svc := newLedgerService(repo, history)

	_, err := svc.Transfer(context.Background(), uuid.New(), domain.TransferRequest{
		AccountName:         "savings",
		Amount:              decimal.NewFromInt(20),
		TransferAccountName: "rent",
	})
	if err != nil {
		t.Fatalf("expected committed transfer despite cache failure, got %v", err)
	}
	waitForAppend(t, history.appendCh)
}

func TestTransfer_LedgerErrorsPassThrough(t *testing.T) {
	repo := &ledgerRepoStub{
		transferErr: domain.Errorf(domain.KindInsufficientFunds, "balance 10 is less than transfer amount 20"),
	}
	history := &historyCacheStub{}
	svc := newLedgerService(repo, history)

	_, err := svc.Transfer(context.Background(), uuid.New(), domain.TransferRequest{
		AccountName:         "savings",
		Amount:              decimal.NewFromInt(20),
		TransferAccountName: "rent",
	})
	if domain.KindOf(err) != domain.KindInsufficientFunds {
		t.Fatalf("expected insufficient-funds error, got %v", err)
	}
	if len(history.appendedEntries()) != 0 {
		t.Fatal("expected no cache append for a rejected transfer")
	}
}
