package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lshigami/skillcheck/config"
	"github.com/lshigami/skillcheck/internal/dto"
	"github.com/lshigami/skillcheck/internal/model"
	"github.com/lshigami/skillcheck/internal/notify"
	"github.com/lshigami/skillcheck/internal/repository"
	"github.com/lshigami/skillcheck/internal/testutil"
	"gorm.io/gorm"
)

const (
	acme      = "acme"
	candidate = "cand-1"
)

type fakeNotifier struct {
	mu     sync.Mutex
	emails []notify.InviteEmail
}

func (n *fakeNotifier) Enqueue(email notify.InviteEmail) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emails = append(n.emails, email)
	return true
}

func (n *fakeNotifier) sent() []notify.InviteEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.InviteEmail(nil), n.emails...)
}

// fixture wires every service against one in-memory database and a manual clock.
type fixture struct {
	db       *gorm.DB
	clock    *testutil.Clock
	cfg      *config.Config
	notifier *fakeNotifier

	ledgerRepo  repository.LedgerRepository
	inviteRepo  repository.InviteRepository
	attemptRepo repository.AttemptRepository

	ledger    LedgerService
	catalog   CatalogService
	attempts  AttemptService
	invites   InviteService
	integrity IntegrityService
	results   ResultsService
	sweeper   *Sweeper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	clk := testutil.NewClock(testutil.Epoch)
	clock := Clock(clk.Now)
	cfg := &config.Config{
		Server:  config.Server{PublicBaseURL: "https://skillcheck.test/"},
		Policy:  config.Policy{InviteTTL: 7 * 24 * time.Hour, SuspiciousTabSwitches: 10},
		Sweeper: config.Sweeper{BatchSize: 100},
	}

	templateRepo := repository.NewTemplateRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	flagRepo := repository.NewIntegrityRepository(db)

	f := &fixture{
		db:          db,
		clock:       clk,
		cfg:         cfg,
		notifier:    &fakeNotifier{},
		ledgerRepo:  ledgerRepo,
		inviteRepo:  inviteRepo,
		attemptRepo: attemptRepo,
	}
	f.ledger = NewLedgerService(ledgerRepo, db, clock)
	f.catalog = NewCatalogService(templateRepo, inviteRepo, db, clock)
	f.attempts = NewAttemptService(attemptRepo, templateRepo, inviteRepo, f.ledger, NewScorer(), db, clock)
	f.invites = NewInviteService(inviteRepo, templateRepo, f.ledger, f.attempts, f.notifier, db, clock, cfg)
	f.integrity = NewIntegrityService(flagRepo, attemptRepo, clock, cfg)
	f.results = NewResultsService(attemptRepo, templateRepo, f.integrity)
	f.sweeper = NewSweeper(inviteRepo, attemptRepo, templateRepo, f.ledger, db, clock, cfg)
	return f
}

// templateRequest builds n short-answer questions worth one point each; question i expects "answer-i".
func templateRequest(n int, reserve, complete float64) dto.TemplatePublishRequest {
	req := dto.TemplatePublishRequest{
		Title:               "Backend screening",
		TotalQuestions:      n,
		TimeLimitMinutes:    60,
		PassingScorePercent: 60,
		CostSchedule: dto.CostScheduleDTO{
			ReserveCredits:  model.NewCredits(reserve),
			CompleteCredits: model.NewCredits(complete),
		},
	}
	for i := 1; i <= n; i++ {
		req.Questions = append(req.Questions, dto.QuestionRequest{
			Kind:           model.QuestionShortAnswer,
			Prompt:         fmt.Sprintf("question %d", i),
			ExpectedAnswer: fmt.Sprintf("answer-%d", i),
			Points:         1,
		})
	}
	return req
}

func (f *fixture) publish(t *testing.T, n int, reserve, complete float64) *dto.TemplateResponse {
	t.Helper()
	tmpl, err := f.catalog.Publish(context.Background(), acme, templateRequest(n, reserve, complete))
	if err != nil {
		t.Fatalf("publish template: %v", err)
	}
	return tmpl
}

func (f *fixture) grant(t *testing.T, amount float64) {
	t.Helper()
	if _, err := f.ledger.Grant(context.Background(), acme, model.NewCredits(amount)); err != nil {
		t.Fatalf("grant: %v", err)
	}
}

func (f *fixture) issue(t *testing.T, templateID, candidateID, applicationID string) *dto.InviteResponse {
	t.Helper()
	invite, err := f.invites.Issue(context.Background(), acme, dto.IssueInviteRequest{
		TemplateID:    templateID,
		CandidateID:   candidateID,
		ApplicationID: applicationID,
	})
	if err != nil {
		t.Fatalf("issue invite: %v", err)
	}
	return invite
}

// start issues an invite to candidate and redeems it.
func (f *fixture) start(t *testing.T, templateID string) *dto.RedeemResponse {
	t.Helper()
	invite := f.issue(t, templateID, candidate, "app-1")
	redeemed, err := f.invites.Redeem(context.Background(), candidate, dto.RedeemRequest{Token: tokenOf(invite)})
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	return redeemed
}

func (f *fixture) answer(t *testing.T, attemptID, questionID, answer string) {
	t.Helper()
	err := f.attempts.RecordAnswer(context.Background(), candidate, attemptID, dto.RecordAnswerRequest{QuestionID: questionID, Answer: answer})
	if err != nil {
		t.Fatalf("record answer: %v", err)
	}
}

func (f *fixture) balance(t *testing.T) *model.CreditBalance {
	t.Helper()
	b, err := f.ledgerRepo.FindBalance(context.Background(), acme)
	if err != nil {
		t.Fatalf("find balance: %v", err)
	}
	if !b.Balanced() {
		t.Fatalf("balance out of balance: %+v", b)
	}
	return b
}

// expectBalance compares available, reserved and spent in whole credits.
func (f *fixture) expectBalance(t *testing.T, available, reserved, spent float64) {
	t.Helper()
	b := f.balance(t)
	if b.Available != model.NewCredits(available) || b.Reserved != model.NewCredits(reserved) || b.Spent != model.NewCredits(spent) {
		t.Fatalf("expected available=%v reserved=%v spent=%v, got available=%v reserved=%v spent=%v",
			available, reserved, spent, b.Available, b.Reserved, b.Spent)
	}
}

func (f *fixture) inviteStatus(t *testing.T, inviteID string) model.InviteStatus {
	t.Helper()
	invite, err := f.inviteRepo.FindByID(context.Background(), inviteID)
	if err != nil {
		t.Fatalf("find invite: %v", err)
	}
	return invite.Status
}

func (f *fixture) attempt(t *testing.T, attemptID string) *model.Attempt {
	t.Helper()
	attempt, err := f.attemptRepo.FindByID(context.Background(), attemptID)
	if err != nil {
		t.Fatalf("find attempt: %v", err)
	}
	return attempt
}

func testEpochPlus(d time.Duration) time.Time {
	return testutil.Epoch.Add(d)
}

func tokenOf(invite *dto.InviteResponse) string {
	return invite.InviteURL[strings.LastIndex(invite.InviteURL, "/")+1:]
}
