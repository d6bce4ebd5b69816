package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/biblioteca/internal/auth"
	"github.com/erazemk/biblioteca/internal/httpx"
	"github.com/erazemk/biblioteca/internal/imaging"
	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/store"
)

type webContextKey string

const webClaimsKey webContextKey = "webclaims"

const cookieName = "token"

// maxFormBytes bounds every form body; the cover upload is the largest.
const maxFormBytes = imaging.MaxUploadBytes + 1<<20

// CookieAuthMiddleware validates the session cookie, checks token
// revocation and adds the claims to the context. State-changing requests
// must also carry the session's CSRF token.
func CookieAuthMiddleware(secret string, db *sqlx.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				toLogin(w, r)
				return
			}

			claims, err := auth.ValidateToken(secret, cookie.Value)
			if err != nil {
				clearAuthCookie(w)
				toLogin(w, r)
				return
			}

			revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
			if err != nil {
				slog.Error("failed to check token revocation", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if revoked {
				clearAuthCookie(w)
				toLogin(w, r)
				return
			}

			if !safeMethod(r.Method) {
				r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
				if !auth.ValidCSRF(secret, claims.ID, csrfFrom(r)) {
					slog.Warn("csrf check failed", "user", claims.Username, "path", r.URL.Path)
					if httpx.IsAJAX(r) {
						httpx.Fail(w, http.StatusForbidden, "Solicitud no válida.")
						return
					}
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), webClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects sessions below the admin role. It must run inside
// CookieAuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetWebClaims(r.Context())
		if claims == nil || !model.RoleAtLeast(claims.Role, model.RoleAdmin) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func safeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

func csrfFrom(r *http.Request) string {
	if t := r.Header.Get(auth.CSRFHeader); t != "" {
		return t
	}
	return r.FormValue(auth.CSRFField)
}

func toLogin(w http.ResponseWriter, r *http.Request) {
	if httpx.IsAJAX(r) {
		httpx.Fail(w, http.StatusUnauthorized, "La sesión ha expirado.")
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// clearAuthCookie clears the authentication cookie with consistent attributes.
func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetWebClaims retrieves the JWT claims from web context.
func GetWebClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(webClaimsKey).(*auth.Claims)
	return claims
}
