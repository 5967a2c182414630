// Package middleware holds the gin middleware for identity and request throttling.
package middleware

import (
	"errors"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lshigami/skillcheck/config"
	"github.com/lshigami/skillcheck/internal/apperr"
	"github.com/lshigami/skillcheck/internal/dto"
)

type Role string

const (
	RoleRecruiter Role = "recruiter"
	RoleCandidate Role = "candidate"
	RoleAdmin     Role = "admin"
)

const principalKey = "principal"

// Principal is the authenticated caller. Authentication itself happens upstream; this service
// only verifies the bearer token it was handed.
type Principal struct {
	Subject   string
	Role      Role
	CompanyID string
}

// CurrentCompanyID is the recruiter's company, empty for other roles.
func (p Principal) CurrentCompanyID() string {
	if p.Role != RoleRecruiter {
		return ""
	}
	return p.CompanyID
}

// CurrentCandidateID is the candidate's id, empty for other roles.
func (p Principal) CurrentCandidateID() string {
	if p.Role != RoleCandidate {
		return ""
	}
	return p.Subject
}

type Claims struct {
	Role      Role   `json:"role"`
	CompanyID string `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(cfg *config.Config) *Authenticator {
	return &Authenticator{secret: []byte(cfg.Auth.JWTSecret)}
}

// Parse validates a token and returns its principal.
func (a *Authenticator) Parse(token string) (Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, apperr.New(apperr.CodeUnauthorized, "token has expired")
		}
		return Principal{}, apperr.Wrap(apperr.New(apperr.CodeUnauthorized, "invalid token"), err)
	}
	if claims.Subject == "" {
		return Principal{}, apperr.New(apperr.CodeUnauthorized, "token has no subject")
	}
	switch claims.Role {
	case RoleRecruiter:
		if claims.CompanyID == "" {
			return Principal{}, apperr.New(apperr.CodeUnauthorized, "recruiter token has no company")
		}
	case RoleCandidate, RoleAdmin:
	default:
		return Principal{}, apperr.New(apperr.CodeUnauthorized, "token has an unknown role")
	}
	return Principal{Subject: claims.Subject, Role: claims.Role, CompanyID: claims.CompanyID}, nil
}

// Issue signs a token for the principal. Used by tooling and tests; production tokens come
// from the identity provider.
func (a *Authenticator) Issue(p Principal, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = p.Subject
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: p.Role, CompanyID: p.CompanyID, RegisteredClaims: claims})
	return token.SignedString(a.secret)
}

// RequireAuth rejects requests without a valid bearer token and stores the principal.
func RequireAuth(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abort(c, apperr.New(apperr.CodeUnauthorized, "missing bearer token"))
			return
		}
		principal, err := auth.Parse(token)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireRole lets through principals holding one of roles.
func RequireRole(roles ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			abort(c, apperr.New(apperr.CodeUnauthorized, "not authenticated"))
			return
		}
		if !slices.Contains(roles, principal.Role) {
			abort(c, apperr.New(apperr.CodeForbidden, "role not allowed for this operation"))
			return
		}
		c.Next()
	}
}

func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

func abort(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	message := err.Error()
	if e, ok := apperr.As(err); ok {
		message = e.Message
	}
	c.AbortWithStatusJSON(code.HTTPStatus(), dto.ErrorResponse{Code: string(code), Message: message})
}
