package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lshigami/skillcheck/config"
	"github.com/lshigami/skillcheck/internal/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuth() *Authenticator {
	return NewAuthenticator(&config.Config{Auth: config.Auth{JWTSecret: "test-secret"}})
}

func validClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
}

func newRouter(auth *Authenticator, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{RequireAuth(auth)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		p, _ := CurrentPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"subject": p.Subject, "company": p.CurrentCompanyID(), "candidate": p.CurrentCandidateID()})
	})
	r.GET("/whoami", handlers...)
	return r
}

func doGet(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	auth := newAuth()
	recruiter, err := auth.Issue(Principal{Subject: "u1", Role: RoleRecruiter, CompanyID: "acme"}, validClaims())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	expired, err := auth.Issue(Principal{Subject: "u1", Role: RoleCandidate}, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	foreign, err := NewAuthenticator(&config.Config{Auth: config.Auth{JWTSecret: "other"}}).
		Issue(Principal{Subject: "u1", Role: RoleAdmin}, validClaims())
	if err != nil {
		t.Fatalf("issue foreign: %v", err)
	}
	noCompany, err := auth.Issue(Principal{Subject: "u1", Role: RoleRecruiter}, validClaims())
	if err != nil {
		t.Fatalf("issue without company: %v", err)
	}

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"valid recruiter", recruiter, http.StatusOK},
		{"missing token", "", http.StatusUnauthorized},
		{"expired token", expired, http.StatusUnauthorized},
		{"wrong signature", foreign, http.StatusUnauthorized},
		{"recruiter without company", noCompany, http.StatusUnauthorized},
		{"garbage", "not-a-jwt", http.StatusUnauthorized},
	}
	r := newRouter(auth)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(r, tt.token)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.status != http.StatusOK {
				var body dto.ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode error body: %v", err)
				}
				if body.Code != "UNAUTHORIZED" {
					t.Fatalf("expected UNAUTHORIZED, got %q", body.Code)
				}
			}
		})
	}

	w := doGet(r, recruiter)
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["company"] != "acme" || body["candidate"] != "" {
		t.Fatalf("unexpected identity %v", body)
	}
}

func TestRequireRole(t *testing.T) {
	auth := newAuth()
	candidate, _ := auth.Issue(Principal{Subject: "c1", Role: RoleCandidate}, validClaims())
	admin, _ := auth.Issue(Principal{Subject: "a1", Role: RoleAdmin}, validClaims())

	r := newRouter(auth, RequireRole(RoleAdmin))
	if w := doGet(r, candidate); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for candidate, got %d", w.Code)
	}
	if w := doGet(r, admin); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", w.Code)
	}
}

type denyAfter struct {
	left map[string]int
}

func (d *denyAfter) Allow(key string) bool {
	if _, ok := d.left[key]; !ok {
		d.left[key] = 1
	}
	d.left[key]--
	return d.left[key] >= 0
}

func TestRateLimitKeysOnSubject(t *testing.T) {
	auth := newAuth()
	limiter := &denyAfter{left: map[string]int{}}
	r := newRouter(auth, RateLimit(limiter))

	c1, _ := auth.Issue(Principal{Subject: "c1", Role: RoleCandidate}, validClaims())
	c2, _ := auth.Issue(Principal{Subject: "c2", Role: RoleCandidate}, validClaims())

	if w := doGet(r, c1); w.Code != http.StatusOK {
		t.Fatalf("first request: %d", w.Code)
	}
	if w := doGet(r, c1); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w := doGet(r, c2); w.Code != http.StatusOK {
		t.Fatalf("other subject: %d", w.Code)
	}
	if _, ok := limiter.left["sub:c1"]; !ok {
		t.Fatalf("expected subject key, got %v", limiter.left)
	}
}
