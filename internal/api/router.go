// Package api serves the read-only JSON API used by integrations.
package api

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/biblioteca/internal/catalog"
	"github.com/erazemk/biblioteca/internal/loans"
	"github.com/erazemk/biblioteca/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sqlx.DB, jwtSecret string, books *catalog.Books, countries *catalog.Countries, loanSvc *loans.Service) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	catalogHandler := &CatalogHandler{Books: books, Countries: countries}
	loansHandler := &LoansHandler{Loans: loanSvc}
	usersHandler := &UsersHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	mux.Handle("GET /api/books", authMW(http.HandlerFunc(catalogHandler.ListBooks)))
	mux.Handle("GET /api/countries", authMW(http.HandlerFunc(catalogHandler.ListCountries)))

	mux.Handle("GET /api/loans", authMW(http.HandlerFunc(loansHandler.List)))
	mux.Handle("GET /api/loans/overdue", authMW(http.HandlerFunc(loansHandler.Overdue)))
	mux.Handle("GET /api/loans/{id}", authMW(http.HandlerFunc(loansHandler.Get)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))

	return mux
}
