package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrKind
	}{
		{name: "categorized error", err: Errorf(KindInsufficientFunds, "balance 10 is less than 20"), want: KindInsufficientFunds},
		{name: "wrapped categorized error", err: fmt.Errorf("deposit: %w", Errorf(KindNotFound, "account not found")), want: KindNotFound},
		{name: "plain error defaults to internal", err: errors.New("connection refused"), want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("expected kind %s, got %s", tt.want, got)
			}
		})
	}
}

func TestErrorIs_MatchesByKind(t *testing.T) {
	err := Errorf(KindNameConflict, "account name \"savings\" is already used")
	if !errors.Is(err, ErrNameConflict) {
		t.Fatal("expected errors.Is to match the sentinel of the same kind")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("expected errors.Is to reject a different kind")
	}
}

func TestErrKindString_StableCodes(t *testing.T) {
	tests := []struct {
		kind ErrKind
		want string
	}{
		{KindInvalidAmount, "invalid_amount"},
		{KindNotFound, "not_found"},
		{KindNameConflict, "name_conflict"},
		{KindInsufficientFunds, "insufficient_funds"},
		{KindMissingDestination, "missing_destination"},
		{KindUnauthenticated, "unauthenticated"},
		{KindInternal, "internal"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Fatalf("expected %q, got %q", tt.want, got)
		}
	}
}
