package auth_test

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/engagesphere-dashboard/internal/auth"
	appErrors "github.com/unclebandit/engagesphere-dashboard/internal/errors"
)

func TestRequire(t *testing.T) {
	_, err := auth.Require(nil)
	assert.True(t, errors.Is(err, appErrors.ErrMissingSession))

	s := &auth.Session{Token: "abc"}
	got, err := auth.Require(s)
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/campaigns/1", nil)
	assert.Equal(t, "", auth.FromRequest(req).Token)

	req.Header.Set("Authorization", "Bearer tok-1")
	assert.Equal(t, "tok-1", auth.FromRequest(req).Token)

	req.Header.Set(auth.TokenHeader, "tok-2")
	assert.Equal(t, "tok-2", auth.FromRequest(req).Token)
}

func TestApply(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	(&auth.Session{}).Apply(req)
	assert.Empty(t, req.Header.Get(auth.TokenHeader))

	(&auth.Session{Token: "t"}).Apply(req)
	assert.Equal(t, "t", req.Header.Get(auth.TokenHeader))
}

func TestCacheScope(t *testing.T) {
	var nilSession *auth.Session
	assert.Equal(t, "anonymous", nilSession.CacheScope())
	assert.Equal(t, "anonymous", (&auth.Session{}).CacheScope())

	a := (&auth.Session{Token: "alice"}).CacheScope()
	b := (&auth.Session{Token: "bob"}).CacheScope()
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "alice")
	assert.Len(t, a, 32)
	assert.Equal(t, a, (&auth.Session{Token: "alice"}).CacheScope())
}
