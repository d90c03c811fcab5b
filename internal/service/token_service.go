package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token roles.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

var (
	// ErrTokensDisabled is returned when no signing secret is configured.
	ErrTokensDisabled = errors.New("session tokens are disabled")
	// ErrInvalidToken covers malformed, expired and mis-signed tokens.
	ErrInvalidToken = errors.New("invalid session token")
)

// SessionClaims is the JWT body issued after login.
type SessionClaims struct {
	StudentID     string `json:"sid,omitempty"`
	Role          string `json:"role"`
	StaffOverride bool   `json:"staff_override,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies portal session tokens.
type TokenIssuer interface {
	Enabled() bool
	IssueStudent(preferredName, studentID string, staffOverride bool) (string, time.Time, error)
	IssueTeacher() (string, time.Time, error)
	Parse(token string) (*SessionClaims, error)
}

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenIssuer builds an HS256 issuer. An empty secret disables tokens.
func NewTokenIssuer(secret string, ttl time.Duration, issuer string) TokenIssuer {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &tokenIssuer{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}
}

func (t *tokenIssuer) Enabled() bool {
	return len(t.secret) > 0
}

func (t *tokenIssuer) IssueStudent(preferredName, studentID string, staffOverride bool) (string, time.Time, error) {
	return t.issue(SessionClaims{
		StudentID:        studentID,
		Role:             RoleStudent,
		StaffOverride:    staffOverride,
		RegisteredClaims: jwt.RegisteredClaims{Subject: preferredName},
	})
}

func (t *tokenIssuer) IssueTeacher() (string, time.Time, error) {
	return t.issue(SessionClaims{
		Role:             RoleTeacher,
		StaffOverride:    true,
		RegisteredClaims: jwt.RegisteredClaims{Subject: RoleTeacher},
	})
}

func (t *tokenIssuer) issue(claims SessionClaims) (string, time.Time, error) {
	if !t.Enabled() {
		return "", time.Time{}, ErrTokensDisabled
	}

	now := t.now().UTC()
	expiresAt := now.Add(t.ttl)
	claims.Issuer = t.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

func (t *tokenIssuer) Parse(raw string) (*SessionClaims, error) {
	if !t.Enabled() {
		return nil, ErrTokensDisabled
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != RoleStudent && claims.Role != RoleTeacher {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
