package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeprep/internal/app/access"
	"codeprep/internal/common/security"
	"codeprep/internal/domain/model"
	"codeprep/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupJWT(t *testing.T) {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: []byte("middleware-secret"), JWTExp: time.Hour}
	security.InitJWT()
}

func principalEcho(seen *access.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = access.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticatorReadsCookie(t *testing.T) {
	setupJWT(t)
	tok, err := security.GenerateToken("u1", model.RoleAdmin)
	require.NoError(t, err)

	var seen access.Principal
	h := Verifier(security.TokenAuth, "jwt")(Authenticator(principalEcho(&seen)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: tok})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "u1", seen.UserID)
	assert.True(t, seen.IsAdmin())
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	setupJWT(t)
	var seen access.Principal
	h := Verifier(security.TokenAuth, "jwt")(Authenticator(principalEcho(&seen)))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestOptionalAuthFallsBackToAnonymous(t *testing.T) {
	setupJWT(t)
	seen := access.Principal{UserID: "stale"}
	h := Verifier(security.TokenAuth, "jwt")(OptionalAuth(principalEcho(&seen)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.False(t, seen.Authenticated())
}

func TestAdminOnly(t *testing.T) {
	var seen access.Principal
	h := AdminOnly(principalEcho(&seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(access.WithPrincipal(req.Context(), access.Principal{UserID: "u1", Role: model.RoleUser}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAuthProxy(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	cases := []struct {
		name, secret, header string
		want                 int
	}{
		{"matching secret", "s3cret", "s3cret", http.StatusOK},
		{"wrong secret", "s3cret", "guess", http.StatusUnauthorized},
		{"route closed", "", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/oauth", nil)
			if tc.header != "" {
				req.Header.Set(AuthProxyHeader, tc.header)
			}
			rr := httptest.NewRecorder()
			AuthProxy(tc.secret)(ok).ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}
