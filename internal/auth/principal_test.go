package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPrincipal_NormalisesAuthorities(t *testing.T) {
	p := NewPrincipal("admin", []string{"USER", "ADMIN", "", "USER"})

	assert.Equal(t, "admin", p.Subject())
	assert.Equal(t, []string{"ADMIN", "USER"}, p.Authorities())
	assert.False(t, p.IsZero())
	assert.True(t, Principal{}.IsZero())
}

func TestPrincipal_IsImmutable(t *testing.T) {
	input := []string{"USER"}
	p := NewPrincipal("apiuser", input)

	input[0] = "ADMIN"
	assert.Equal(t, []string{"USER"}, p.Authorities())

	out := p.Authorities()
	out[0] = "ADMIN"
	assert.False(t, p.HasAuthority("ADMIN"))
	assert.True(t, p.HasAuthority("USER"))
}

func TestPrincipal_AuthorityChecksAreExact(t *testing.T) {
	p := NewPrincipal("apiuser", []string{"USER"})

	assert.False(t, p.HasAuthority("user"))
	assert.False(t, p.HasAuthority("ROLE_USER"))
	assert.True(t, p.HasAnyAuthority("ADMIN", "USER"))
	assert.False(t, p.HasAnyAuthority("ADMIN"))
	assert.False(t, p.HasAnyAuthority())
}

func TestAuthenticationContext(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, Anonymous{}, AuthenticationFrom(ctx))
	_, ok := PrincipalFrom(ctx)
	assert.False(t, ok)

	assert.Equal(t, Anonymous{}, AuthenticationFrom(WithAuthentication(ctx, nil)))

	principal := NewPrincipal("admin", []string{"ADMIN"})
	ctx = WithAuthentication(ctx, Authenticated{Principal: principal, Method: MethodSession, SessionID: "sid"})

	got, ok := PrincipalFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, principal, got)

	authenticated, ok := AuthenticationFrom(ctx).(Authenticated)
	assert.True(t, ok)
	assert.Equal(t, MethodSession, authenticated.Method)
	assert.Equal(t, "sid", authenticated.SessionID)
}
