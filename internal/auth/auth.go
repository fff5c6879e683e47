// Package auth resolves bearer tokens into callers and issues tokens for
// local development and seeding.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"logiledger/internal/domain"
	apperrors "logiledger/internal/errors"
)

type Claims struct {
	UserType    string `json:"userType"`
	Name        string `json:"name,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	Location    string `json:"location,omitempty"`
	jwt.RegisteredClaims
}

type Resolver struct {
	secret []byte
	issuer string
}

func NewResolver(secret, issuer string) *Resolver {
	return &Resolver{secret: []byte(secret), issuer: issuer}
}

// ResolveCaller validates an HS256 token and returns the identity it carries.
// Any failure is reported as Unauthorized.
func (r *Resolver) ResolveCaller(token string) (domain.Caller, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return domain.Caller{}, apperrors.NewUnauthorizedError("missing bearer token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return domain.Caller{}, apperrors.NewUnauthorizedError("invalid or expired token")
	}

	role := domain.Role(claims.UserType)
	if claims.Subject == "" || !role.Valid() {
		return domain.Caller{}, apperrors.NewUnauthorizedError("token does not identify a user")
	}

	return domain.Caller{
		ID:          claims.Subject,
		Role:        role,
		Name:        claims.Name,
		CompanyName: claims.CompanyName,
		Location:    claims.Location,
	}, nil
}

type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(caller domain.Caller) (string, error) {
	now := i.now()
	claims := Claims{
		UserType:    string(caller.Role),
		Name:        caller.Name,
		CompanyName: caller.CompanyName,
		Location:    caller.Location,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

type callerKey struct{}

func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func CallerFrom(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(domain.Caller)
	return caller, ok
}
