package service

import (
	"context"
	"testing"
	"time"

	"github.com/lshigami/skillcheck/internal/model"
)

// An invite left unredeemed for its full TTL is expired and its reservation refunded.
func TestSweepExpiresUnredeemedInvite(t *testing.T) {
	f := newFixture(t)
	f.grant(t, 10)
	tmpl := f.publish(t, 3, 0.5, 1)
	invite := f.issue(t, tmpl.ID, candidate, "app-1")
	ctx := context.Background()

	f.clock.Advance(6 * 24 * time.Hour)
	if report := f.sweeper.Sweep(ctx); report.InvitesExpired != 0 {
		t.Fatalf("invite expired early: %+v", report)
	}

	f.clock.Advance(24*time.Hour + time.Second)
	report := f.sweeper.Sweep(ctx)
	if report.InvitesExpired != 1 || report.Failures != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if f.inviteStatus(t, invite.InviteID) != model.InviteExpired {
		t.Fatal("invite should be EXPIRED")
	}
	f.expectBalance(t, 10, 0, 0)

	// A second pass changes nothing.
	if report := f.sweeper.Sweep(ctx); report != (SweepReport{}) {
		t.Fatalf("expected an idle sweep, got %+v", report)
	}
	f.expectBalance(t, 10, 0, 0)

	entries, err := f.ledger.Entries(ctx, acme, 0)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	releases := 0
	for _, e := range entries {
		if e.Kind == model.EntryRelease {
			releases++
		}
	}
	if releases != 1 {
		t.Fatalf("expected exactly one release entry, got %d", releases)
	}
}

func TestSweepExpiresOverdueAttempt(t *testing.T) {
	f := newFixture(t)
	f.grant(t, 10)
	tmpl := f.publish(t, 1, 0.5, 1)
	redeemed := f.start(t, tmpl.ID)
	ctx := context.Background()

	f.clock.Advance(30 * time.Minute)
	if report := f.sweeper.Sweep(ctx); report.AttemptsExpired != 0 {
		t.Fatalf("attempt expired early: %+v", report)
	}

	f.clock.Advance(31 * time.Minute)
	report := f.sweeper.Sweep(ctx)
	if report.AttemptsExpired != 1 || report.Failures != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	a := f.attempt(t, redeemed.AttemptID)
	if a.Status != model.AttemptExpired || a.ExpiredAt == nil {
		t.Fatalf("expected EXPIRED attempt, got %+v", a)
	}
	if f.inviteStatus(t, redeemed.InviteID) != model.InviteExpired {
		t.Fatal("invite should be EXPIRED")
	}
	// The reserve fee is kept as the charge for an abandoned attempt.
	f.expectBalance(t, 9.5, 0, 0.5)

	if report := f.sweeper.Sweep(ctx); report != (SweepReport{}) {
		t.Fatalf("expected an idle sweep, got %+v", report)
	}
	f.expectBalance(t, 9.5, 0, 0.5)
}

func TestSweepSettlesPendingBilling(t *testing.T) {
	f := newFixture(t)
	f.grant(t, 0.5)
	tmpl := f.publish(t, 1, 0.5, 1)
	redeemed := f.start(t, tmpl.ID)
	ctx := context.Background()

	if _, err := f.attempts.Submit(ctx, candidate, redeemed.AttemptID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	report := f.sweeper.Sweep(ctx)
	if report.BillingDeferred != 1 || report.BillingSettled != 0 {
		t.Fatalf("expected deferred billing, got %+v", report)
	}

	f.grant(t, 1)
	report = f.sweeper.Sweep(ctx)
	if report.BillingSettled != 1 {
		t.Fatalf("expected settled billing, got %+v", report)
	}
	if f.attempt(t, redeemed.AttemptID).BillingPending {
		t.Fatal("billing pending flag should be cleared")
	}
	f.expectBalance(t, 0.5, 0, 1)

	if report := f.sweeper.Sweep(ctx); report != (SweepReport{}) {
		t.Fatalf("expected an idle sweep, got %+v", report)
	}
}

func TestSweepLeavesLiveWorkAlone(t *testing.T) {
	f := newFixture(t)
	f.grant(t, 10)
	tmpl := f.publish(t, 1, 0.5, 1)
	pending := f.issue(t, tmpl.ID, "cand-2", "app-9")
	redeemed := f.start(t, tmpl.ID)

	if report := f.sweeper.Sweep(context.Background()); report != (SweepReport{}) {
		t.Fatalf("expected an idle sweep, got %+v", report)
	}
	if f.inviteStatus(t, pending.InviteID) != model.InvitePending {
		t.Fatal("pending invite should be untouched")
	}
	if f.attempt(t, redeemed.AttemptID).Status != model.AttemptInProgress {
		t.Fatal("running attempt should be untouched")
	}
	f.expectBalance(t, 9, 1, 0)
}
