package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/lshigami/skillcheck/internal/model"
)

func TestReserveMovesAvailableToReserved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.grant(t, 10)

	id, err := f.ledger.Reserve(ctx, acme, model.NewCredits(0.5), "inv-1")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if id == "" {
		t.Fatal("expected reservation id")
	}
	f.expectBalance(t, 9.5, 0.5, 0)
}

func TestReserveRejectsOverdraft(t *testing.T) {
	f := newFixture(t)
	f.grant(t, 0.25)

	_, err := f.ledger.Reserve(context.Background(), acme, model.NewCredits(0.5), "inv-1")
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	f.expectBalance(t, 0.25, 0, 0)
}

func TestConsumeReleasesRemainder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.grant(t, 10)

	id, err := f.ledger.Reserve(ctx, acme, model.NewCredits(2), "inv-1")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := f.ledger.Consume(ctx, id, model.NewCredits(0.5)); err != nil {
		t.Fatalf("consume: %v", err)
	}
	f.expectBalance(t, 9.5, 0, 0.5)

	entries, err := f.ledger.Entries(ctx, acme, 0)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	kinds := make([]model.EntryKind, 0, len(entries))
	for _, e := range entries {
		kinds = append(kinds, e.Kind)
	}
	want := []model.EntryKind{model.EntryRelease, model.EntryConsume, model.EntryReserve, model.EntryGrant}
	if len(kinds) != len(want) {
		t.Fatalf("expected entries %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("expected entries %v, got %v", want, kinds)
		}
	}
	if entries[0].Available != model.NewCredits(9.5) || entries[0].Spent != model.NewCredits(0.5) {
		t.Fatalf("latest entry should snapshot the final balance, got %+v", entries[0])
	}
}

func TestConsumeRejectsAmountAboveReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.grant(t, 10)

	id, _ := f.ledger.Reserve(ctx, acme, model.NewCredits(0.5), "inv-1")
	if err := f.ledger.Consume(ctx, id, model.NewCredits(1)); !errors.Is(err, ErrAmountExceedsReserved) {
		t.Fatalf("expected ErrAmountExceedsReserved, got %v", err)
	}
	f.expectBalance(t, 9.5, 0.5, 0)
}

func TestSettleDrawsFromAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.grant(t, 10)

	id, _ := f.ledger.Reserve(ctx, acme, model.NewCredits(0.5), "inv-1")
	if err := f.ledger.Settle(ctx, id, model.NewCredits(1)); err != nil {
		t.Fatalf("settle: %v", err)
	}
	f.expectBalance(t, 9, 0, 1)
}

func TestSettleShortfallChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.grant(t, 0.5)

	id, _ := f.ledger.Reserve(ctx, acme, model.NewCredits(0.5), "inv-1")
	if err := f.ledger.Settle(ctx, id, model.NewCredits(1)); !errors.Is(err, ErrSettlementShortfall) {
		t.Fatalf("expected ErrSettlementShortfall, got %v", err)
	}
	f.expectBalance(t, 0, 0.5, 0)

	// The reservation is still active and can be settled once credits arrive.
	f.grant(t, 1)
	if err := f.ledger.Settle(ctx, id, model.NewCredits(1)); err != nil {
		t.Fatalf("settle after grant: %v", err)
	}
	f.expectBalance(t, 0.5, 0, 1)
}

func TestReleaseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.grant(t, 10)

	id, _ := f.ledger.Reserve(ctx, acme, model.NewCredits(0.5), "inv-1")
	for i := 0; i < 3; i++ {
		if err := f.ledger.Release(ctx, id); err != nil {
			t.Fatalf("release #%d: %v", i+1, err)
		}
	}
	f.expectBalance(t, 10, 0, 0)

	if err := f.ledger.Consume(ctx, id, 0); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound after release, got %v", err)
	}
	if err := f.ledger.Release(ctx, "missing"); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound for unknown id, got %v", err)
	}

	entries, _ := f.ledger.Entries(ctx, acme, 0)
	if len(entries) != 3 {
		t.Fatalf("expected grant, reserve and one release, got %d entries", len(entries))
	}
}

func TestGrantRejectsNonPositive(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ledger.Grant(context.Background(), acme, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestBalanceOfUnknownCompanyIsZero(t *testing.T) {
	f := newFixture(t)
	b, err := f.ledger.Balance(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if b.Available != 0 || b.Reserved != 0 || b.Spent != 0 {
		t.Fatalf("expected zero balance, got %+v", b)
	}
}

func TestConcurrentReservesNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	f.grant(t, 1)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Reserve(context.Background(), acme, model.NewCredits(0.25), "inv")
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrInsufficientCredits) {
				t.Errorf("unexpected reserve error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 4 {
		t.Fatalf("expected exactly 4 reservations of 0.25 from 1 credit, got %d", succeeded)
	}
	f.expectBalance(t, 0, 1, 0)
}

// Random operation sequences must keep available + reserved + spent == granted with no
// negative column, whichever operations fail along the way.
func TestLedgerInvariantUnderRandomOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	var open []string
	for i := 0; i < 300; i++ {
		amount := model.Credits(rng.Intn(300))
		switch op := rng.Intn(5); {
		case op == 0:
			_, _ = f.ledger.Grant(ctx, acme, amount+1)
		case op == 1:
			if id, err := f.ledger.Reserve(ctx, acme, amount, "inv"); err == nil {
				open = append(open, id)
			}
		case len(open) == 0:
			continue
		default:
			idx := rng.Intn(len(open))
			id := open[idx]
			var err error
			switch op {
			case 2:
				err = f.ledger.Consume(ctx, id, amount)
			case 3:
				err = f.ledger.Settle(ctx, id, amount)
			case 4:
				err = f.ledger.Release(ctx, id)
			}
			if err == nil {
				open = append(open[:idx], open[idx+1:]...)
			}
		}

		b, err := f.ledgerRepo.FindBalance(ctx, acme)
		if err != nil {
			continue
		}
		if !b.Balanced() {
			t.Fatalf("step %d: invariant violated: %+v", i, b)
		}
	}
}
