package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"codeprep/internal/app/access"
	"codeprep/internal/common"
	"codeprep/internal/common/security"

	"github.com/go-chi/jwtauth/v5"
)

const AuthProxyHeader = "X-Auth-Proxy-Secret"

// Verifier looks for a token in "Authorization: Bearer T" first, then in the
// auth cookie, and stores the verification result in the request context.
func Verifier(ja *jwtauth.JWTAuth, cookieName string) func(http.Handler) http.Handler {
	return jwtauth.Verify(ja, jwtauth.TokenFromHeader, func(r *http.Request) string {
		c, err := r.Cookie(cookieName)
		if err != nil {
			return ""
		}
		return c.Value
	})
}

func principalFromRequest(r *http.Request) (access.Principal, error) {
	token, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return access.Anonymous, err
	}
	if token == nil {
		return access.Anonymous, jwtauth.ErrNoTokenFound
	}
	userID, role, err := security.SubjectFromClaims(claims)
	if err != nil {
		return access.Anonymous, err
	}
	return access.Principal{UserID: userID, Role: role}, nil
}

// Authenticator rejects requests without a valid token.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFromRequest(r)
		if err != nil {
			if errors.Is(err, jwtauth.ErrNoTokenFound) {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(access.WithPrincipal(r.Context(), p)))
	})
}

// OptionalAuth identifies the caller when a valid token is present and
// otherwise continues as anonymous.
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := principalFromRequest(r)
		if err != nil {
			p = access.Anonymous
		}
		next.ServeHTTP(w, r.WithContext(access.WithPrincipal(r.Context(), p)))
	})
}

// AdminOnly must run after Authenticator.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := access.RequireAdmin(access.FromContext(r.Context())); err != nil {
			common.RespondWithServiceError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthProxy admits only requests carrying the shared secret of the trusted
// auth proxy. An empty secret closes the route.
func AuthProxy(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AuthProxyHeader)
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				common.RespondWithError(w, http.StatusUnauthorized, "Untrusted auth proxy")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
