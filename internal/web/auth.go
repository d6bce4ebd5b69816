package web

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/biblioteca/internal/auth"
	"github.com/erazemk/biblioteca/internal/store"
)

const msgBadLogin = "Usuario o contraseña incorrectos."

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &PageData{Title: "Iniciar sesión"})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	fail := func(status int, msg string) {
		s.Templates.RenderStatus(w, status, "login.html", &PageData{
			Title:  "Iniciar sesión",
			Errors: []string{msg},
		})
	}

	if username == "" || password == "" {
		fail(http.StatusBadRequest, "Ingrese usuario y contraseña.")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), s.DB, username)
	if err != nil {
		slog.Error("failed to load user", "error", err)
		fail(http.StatusInternalServerError, "Error al iniciar sesión.")
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		slog.Warn("failed login", "username", username)
		fail(http.StatusUnauthorized, msgBadLogin)
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		fail(http.StatusInternalServerError, "Error al iniciar sesión.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(auth.TokenExpiry.Seconds()),
	})

	slog.Info("user logged in", "user", user.Username)
	http.Redirect(w, r, "/LoansTeacher", http.StatusSeeOther)
}

// Logout handles POST /logout. The session's JTI is revoked so the cookie
// stops working even if it was copied elsewhere.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
		slog.Error("failed to revoke token", "error", err)
	}
	clearAuthCookie(w)
	slog.Info("user logged out", "user", claims.Username)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
