package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logiledger/internal/domain"
	apperrors "logiledger/internal/errors"
)

const testSecret = "test-secret"

func TestIssueAndResolve(t *testing.T) {
	issuer := NewIssuer(testSecret, "logiledger", time.Hour)
	resolver := NewResolver(testSecret, "logiledger")

	caller := domain.Caller{
		ID:          "msme-1",
		Role:        domain.RoleMSME,
		Name:        "Ravi",
		CompanyName: "Ravi Transport",
		Location:    "Pune, Maharashtra",
	}

	token, err := issuer.Issue(caller)
	require.NoError(t, err)

	resolved, err := resolver.ResolveCaller("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, caller, resolved)
}

func TestResolveCaller_Rejects(t *testing.T) {
	resolver := NewResolver(testSecret, "logiledger")
	valid := NewIssuer(testSecret, "logiledger", time.Hour)

	expired := NewIssuer(testSecret, "logiledger", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	expiredToken, err := expired.Issue(domain.Caller{ID: "c1", Role: domain.RoleCompany})
	require.NoError(t, err)

	wrongSecretToken, err := NewIssuer("other", "logiledger", time.Hour).Issue(domain.Caller{ID: "c1", Role: domain.RoleCompany})
	require.NoError(t, err)

	wrongIssuerToken, err := NewIssuer(testSecret, "someone-else", time.Hour).Issue(domain.Caller{ID: "c1", Role: domain.RoleCompany})
	require.NoError(t, err)

	badRoleToken, err := valid.Issue(domain.Caller{ID: "c1", Role: domain.Role("admin")})
	require.NoError(t, err)

	noSubjectToken, err := valid.Issue(domain.Caller{Role: domain.RoleCompany})
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserType:         "company",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "c1", Issuer: "logiledger"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"bearer only", "Bearer "},
		{"garbage", "not-a-jwt"},
		{"expired", expiredToken},
		{"wrong secret", wrongSecretToken},
		{"wrong issuer", wrongIssuerToken},
		{"unknown role", badRoleToken},
		{"missing subject", noSubjectToken},
		{"alg none", noneToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolver.ResolveCaller(tt.token)
			_, ok := apperrors.IsUnauthorizedError(err)
			assert.True(t, ok, "expected unauthorized, got %v", err)
		})
	}
}

func TestCallerContext(t *testing.T) {
	_, ok := CallerFrom(context.Background())
	assert.False(t, ok)

	caller := domain.Caller{ID: "company-1", Role: domain.RoleCompany}
	got, ok := CallerFrom(WithCaller(context.Background(), caller))
	assert.True(t, ok)
	assert.Equal(t, caller, got)
}
