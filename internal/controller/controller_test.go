package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lshigami/skillcheck/config"
	"github.com/lshigami/skillcheck/internal/controller/admin"
	"github.com/lshigami/skillcheck/internal/controller/candidate"
	"github.com/lshigami/skillcheck/internal/controller/recruiter"
	"github.com/lshigami/skillcheck/internal/dto"
	"github.com/lshigami/skillcheck/internal/middleware"
	"github.com/lshigami/skillcheck/internal/notify"
	"github.com/lshigami/skillcheck/internal/ratelimit"
	"github.com/lshigami/skillcheck/internal/repository"
	"github.com/lshigami/skillcheck/internal/service"
	"github.com/lshigami/skillcheck/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type dropNotifier struct{}

func (dropNotifier) Enqueue(notify.InviteEmail) bool { return true }

type testServer struct {
	router *gin.Engine
	auth   *middleware.Authenticator
	clock  *testutil.Clock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.NewDB(t)
	clk := testutil.NewClock(testutil.Epoch)
	clock := service.Clock(clk.Now)
	cfg := &config.Config{
		Server:    config.Server{PublicBaseURL: "https://skillcheck.test"},
		Auth:      config.Auth{JWTSecret: "controller-test"},
		Policy:    config.Policy{InviteTTL: 7 * 24 * time.Hour, SuspiciousTabSwitches: 10},
		Sweeper:   config.Sweeper{BatchSize: 100},
		RateLimit: config.RateLimit{RequestsPerSecond: 1000, Burst: 1000, IdleTTL: time.Minute},
	}

	templateRepo := repository.NewTemplateRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	ledger := service.NewLedgerService(repository.NewLedgerRepository(db), db, clock)
	catalog := service.NewCatalogService(templateRepo, inviteRepo, db, clock)
	attempts := service.NewAttemptService(attemptRepo, templateRepo, inviteRepo, ledger, service.NewScorer(), db, clock)
	invites := service.NewInviteService(inviteRepo, templateRepo, ledger, attempts, dropNotifier{}, db, clock, cfg)
	integrity := service.NewIntegrityService(repository.NewIntegrityRepository(db), attemptRepo, clock, cfg)
	results := service.NewResultsService(attemptRepo, templateRepo, integrity)

	auth := middleware.NewAuthenticator(cfg)
	ctrl := NewController(
		ledger,
		results,
		recruiter.NewRecruiterController(catalog, invites),
		candidate.NewCandidateController(invites, attempts, integrity),
		admin.NewAdminController(ledger),
		auth,
		ratelimit.New(cfg),
	)
	router := gin.New()
	ctrl.RegisterRoutes(router)
	return &testServer{router: router, auth: auth, clock: clk}
}

func (s *testServer) token(t *testing.T, p middleware.Principal) string {
	t.Helper()
	tok, err := s.auth.Issue(p, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, w, status)
	if body := decode[dto.ErrorResponse](t, w); body.Code != code {
		t.Fatalf("expected code %s, got %s", code, body.Code)
	}
}

func publishBody() map[string]any {
	questions := make([]map[string]any, 0, 2)
	for i := 1; i <= 2; i++ {
		questions = append(questions, map[string]any{
			"kind":            "SHORT_ANSWER",
			"prompt":          fmt.Sprintf("question %d", i),
			"expected_answer": fmt.Sprintf("answer-%d", i),
			"points":          1,
		})
	}
	return map[string]any{
		"title":                 "Go screening",
		"total_questions":       2,
		"time_limit_minutes":    45,
		"passing_score_percent": 50,
		"cost_schedule":         map[string]any{"reserve_credits": 0.5, "complete_credits": 1.0},
		"questions":             questions,
	}
}

func TestAssessmentLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	adminTok := s.token(t, middleware.Principal{Subject: "ops", Role: middleware.RoleAdmin})
	recruiterTok := s.token(t, middleware.Principal{Subject: "r1", Role: middleware.RoleRecruiter, CompanyID: "acme"})
	candidateTok := s.token(t, middleware.Principal{Subject: "cand-1", Role: middleware.RoleCandidate})

	w := s.do(t, http.MethodPost, "/api/v1/admin/companies/acme/credits", adminTok, map[string]any{"amount": 10})
	expectStatus(t, w, http.StatusOK)

	w = s.do(t, http.MethodPost, "/api/v1/templates", recruiterTok, publishBody())
	expectStatus(t, w, http.StatusCreated)
	tmpl := decode[dto.TemplateResponse](t, w)
	if strings.Contains(w.Body.String(), "expected_answer") {
		t.Fatal("template response must not expose expected answers")
	}

	issue := map[string]any{"template_id": tmpl.ID, "candidate_id": "cand-1", "application_id": "app-1"}
	w = s.do(t, http.MethodPost, "/api/v1/invites", recruiterTok, issue)
	expectStatus(t, w, http.StatusCreated)
	invite := decode[dto.InviteResponse](t, w)

	w = s.do(t, http.MethodPost, "/api/v1/invites", recruiterTok, issue)
	expectStatus(t, w, http.StatusOK)

	w = s.do(t, http.MethodGet, "/api/v1/companies/acme/credits", recruiterTok, nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `"available":9.5`) || !strings.Contains(w.Body.String(), `"reserved":0.5`) {
		t.Fatalf("unexpected balance %s", w.Body.String())
	}

	token := invite.InviteURL[strings.LastIndex(invite.InviteURL, "/")+1:]
	w = s.do(t, http.MethodPost, "/api/v1/invites/redeem", candidateTok, map[string]any{"token": token})
	expectStatus(t, w, http.StatusOK)
	redeemed := decode[dto.RedeemResponse](t, w)

	w = s.do(t, http.MethodGet, "/api/v1/templates/"+tmpl.ID, recruiterTok, nil)
	expectStatus(t, w, http.StatusOK)
	full := decode[dto.TemplateResponse](t, w)
	if !full.Referenced || len(full.Questions) != 2 {
		t.Fatalf("unexpected template %+v", full)
	}

	attemptPath := "/api/v1/attempts/" + redeemed.AttemptID
	w = s.do(t, http.MethodPost, attemptPath+"/answers", candidateTok, map[string]any{"question_id": full.Questions[0].ID, "answer": "answer-1"})
	expectStatus(t, w, http.StatusNoContent)
	w = s.do(t, http.MethodPost, attemptPath+"/flags", candidateTok, map[string]any{"type": "TAB_SWITCH", "occurrence_count": 3})
	expectStatus(t, w, http.StatusAccepted)

	w = s.do(t, http.MethodPost, attemptPath+"/submit", candidateTok, nil)
	expectStatus(t, w, http.StatusOK)
	submitted := decode[dto.SubmitResponse](t, w)
	if submitted.Score != 50 || !submitted.Passed {
		t.Fatalf("unexpected submit result %+v", submitted)
	}
	w = s.do(t, http.MethodPost, attemptPath+"/submit", candidateTok, nil)
	expectError(t, w, http.StatusConflict, "ALREADY_SUBMITTED")

	w = s.do(t, http.MethodGet, attemptPath+"/results", recruiterTok, nil)
	expectStatus(t, w, http.StatusOK)
	result := decode[dto.AttemptResultResponse](t, w)
	if result.Integrity.Totals["TAB_SWITCH"] != 3 || result.Integrity.Suspicious {
		t.Fatalf("unexpected integrity summary %+v", result.Integrity)
	}

	w = s.do(t, http.MethodGet, "/api/v1/companies/acme/credits", adminTok, nil)
	expectStatus(t, w, http.StatusOK)
	balance := decode[dto.CreditBalanceResponse](t, w)
	if balance.Available.Float64() != 9 || balance.Reserved != 0 || balance.Spent.Float64() != 1 {
		t.Fatalf("unexpected final balance %+v", balance)
	}

	w = s.do(t, http.MethodGet, "/api/v1/companies/acme/ledger?limit=2", recruiterTok, nil)
	expectStatus(t, w, http.StatusOK)
	if entries := decode[[]dto.LedgerEntryResponse](t, w); len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
}

func TestInsufficientCreditsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	recruiterTok := s.token(t, middleware.Principal{Subject: "r1", Role: middleware.RoleRecruiter, CompanyID: "acme"})

	w := s.do(t, http.MethodPost, "/api/v1/templates", recruiterTok, publishBody())
	expectStatus(t, w, http.StatusCreated)
	tmpl := decode[dto.TemplateResponse](t, w)

	w = s.do(t, http.MethodPost, "/api/v1/invites", recruiterTok, map[string]any{"template_id": tmpl.ID, "candidate_id": "c", "application_id": "a"})
	expectError(t, w, http.StatusPaymentRequired, "INSUFFICIENT_CREDITS")
	if body := decode[dto.ErrorResponse](t, w); body.Message != "cannot send assessment: company has insufficient credits" {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestAccessControlOverHTTP(t *testing.T) {
	s := newTestServer(t)
	acmeTok := s.token(t, middleware.Principal{Subject: "r1", Role: middleware.RoleRecruiter, CompanyID: "acme"})
	globexTok := s.token(t, middleware.Principal{Subject: "r2", Role: middleware.RoleRecruiter, CompanyID: "globex"})
	candidateTok := s.token(t, middleware.Principal{Subject: "cand-1", Role: middleware.RoleCandidate})

	w := s.do(t, http.MethodPost, "/api/v1/templates", acmeTok, publishBody())
	expectStatus(t, w, http.StatusCreated)
	tmpl := decode[dto.TemplateResponse](t, w)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		code   string
	}{
		{"no token", http.MethodGet, "/api/v1/templates", "", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"candidate publishing", http.MethodPost, "/api/v1/templates", candidateTok, publishBody(), http.StatusForbidden, "FORBIDDEN"},
		{"other company template", http.MethodGet, "/api/v1/templates/" + tmpl.ID, globexTok, nil, http.StatusForbidden, "FORBIDDEN"},
		{"other company credits", http.MethodGet, "/api/v1/companies/acme/credits", globexTok, nil, http.StatusForbidden, "FORBIDDEN"},
		{"recruiter granting", http.MethodPost, "/api/v1/admin/companies/acme/credits", acmeTok, map[string]any{"amount": 5}, http.StatusForbidden, "FORBIDDEN"},
		{"recruiter redeeming", http.MethodPost, "/api/v1/invites/redeem", acmeTok, map[string]any{"token": "x"}, http.StatusForbidden, "FORBIDDEN"},
		{"unknown token", http.MethodPost, "/api/v1/invites/redeem", candidateTok, map[string]any{"token": "x"}, http.StatusNotFound, "TOKEN_INVALID"},
		{"malformed body", http.MethodPost, "/api/v1/invites/redeem", candidateTok, "not an object", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"missing template", http.MethodGet, "/api/v1/templates/missing", acmeTok, nil, http.StatusNotFound, "NOT_FOUND"},
		{"bad ledger limit", http.MethodGet, "/api/v1/companies/acme/ledger?limit=abc", acmeTok, nil, http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.token, tt.body)
			expectError(t, w, tt.status, tt.code)
		})
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/healthz", "", nil)
	expectStatus(t, w, http.StatusOK)
}
