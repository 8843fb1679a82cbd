package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "registrar/pkg/domain"
	"registrar/pkg/requestcontext"
)

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return s.claims, s.err
}

const alice = "0x00000000000000000000000000000000000000a1"

func serve(v JWTValidator, header string) (*httptest.ResponseRecorder, id.Identity, bool) {
	var caller id.Identity
	called := false
	h := Authenticate(v, slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		caller = requestcontext.Caller(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, caller, called
}

func TestAuthenticate(t *testing.T) {
	t.Run("attaches the caller from a valid token", func(t *testing.T) {
		_, caller, called := serve(stubValidator{claims: &JWTClaims{Caller: alice}}, "Bearer token")
		assert.True(t, called)
		assert.Equal(t, id.MustParseIdentity(alice), caller)
	})

	t.Run("passes anonymous requests through", func(t *testing.T) {
		_, caller, called := serve(stubValidator{err: errors.New("unused")}, "")
		assert.True(t, called)
		assert.True(t, caller.IsNil())
	})

	t.Run("rejects a non-bearer header", func(t *testing.T) {
		rr, _, called := serve(stubValidator{claims: &JWTClaims{Caller: alice}}, "Basic abc")
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects an invalid token", func(t *testing.T) {
		rr, _, called := serve(stubValidator{err: errors.New("expired")}, "Bearer token")
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"unauthorized","error_description":"Invalid or expired token"}`, rr.Body.String())
	})

	t.Run("rejects a subject that is not an identity", func(t *testing.T) {
		rr, _, called := serve(stubValidator{claims: &JWTClaims{Caller: "alice"}}, "Bearer token")
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
