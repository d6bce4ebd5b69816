// Package web serves the server-rendered back office.
package web

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/biblioteca/internal/catalog"
	"github.com/erazemk/biblioteca/internal/loans"
	"github.com/erazemk/biblioteca/internal/store"
	webembed "github.com/erazemk/biblioteca/web"
)

// Services are the business services the pages call into.
type Services struct {
	Countries    *catalog.Countries
	Editions     *catalog.Editions
	Books        *catalog.Books
	Categories   *catalog.Lookups
	LoanTypes    *catalog.Lookups
	Reservations *catalog.Lookups
	Loans        *loans.Service
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sqlx.DB
	Services  Services
	Templates *Templates
	JWTSecret string
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sqlx.DB, svc Services, jwtSecret string) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Services:  svc,
		Templates: templates,
		JWTSecret: jwtSecret,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(jwtSecret, db)
	admin := func(h http.HandlerFunc) http.Handler { return cookieAuth(RequireAdmin(h)) }
	authed := func(h http.HandlerFunc) http.Handler { return cookieAuth(h) }

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.Handle("POST /logout", authed(s.Logout))

	mux.Handle("GET /{$}", authed(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/LoansTeacher", http.StatusSeeOther)
	}))

	mux.Handle("GET /Countries", authed(s.CountriesPage))
	mux.Handle("GET /Countries/Details/{id}", authed(s.CountryDetailPage))
	mux.Handle("GET /Countries/Create", authed(s.CountryCreatePage))
	mux.Handle("POST /Countries/Create", authed(s.CountryCreateSubmit))
	mux.Handle("GET /Countries/Edit/{id}", authed(s.CountryEditPage))
	mux.Handle("POST /Countries/Edit/{id}", authed(s.CountryEditSubmit))
	mux.Handle("POST /Countries/Delete/{id}", authed(s.CountryDeleteSubmit))
	mux.Handle("GET /Countries/Search", authed(s.CountrySearch))

	mux.Handle("GET /Editions", authed(s.EditionsPage))
	mux.Handle("GET /Editions/Details/{id}", authed(s.EditionDetailPage))
	mux.Handle("GET /Editions/Create", authed(s.EditionCreatePage))
	mux.Handle("POST /Editions/Create", authed(s.EditionCreateSubmit))
	mux.Handle("GET /Editions/Edit/{id}", authed(s.EditionEditPage))
	mux.Handle("POST /Editions/Edit/{id}", authed(s.EditionEditSubmit))
	mux.Handle("POST /Editions/Delete/{id}", authed(s.EditionDeleteSubmit))
	mux.Handle("GET /Editions/Search", authed(s.EditionSearch))

	mux.Handle("GET /Books", authed(s.BooksPage))
	mux.Handle("GET /Books/Details/{id}", authed(s.BookDetailPage))
	mux.Handle("GET /Books/Create", authed(s.BookCreatePage))
	mux.Handle("POST /Books/Create", authed(s.BookCreateSubmit))
	mux.Handle("GET /Books/Edit/{id}", authed(s.BookEditPage))
	mux.Handle("POST /Books/Edit/{id}", authed(s.BookEditSubmit))
	mux.Handle("POST /Books/Delete/{id}", authed(s.BookDeleteSubmit))
	mux.Handle("POST /Books/Stock/{id}", authed(s.BookStockSubmit))
	mux.Handle("POST /Books/Cover/{id}", authed(s.BookCoverSubmit))
	mux.Handle("GET /Books/Cover/{id}", authed(s.BookCoverGet))
	mux.Handle("GET /Books/Search", authed(s.BookSearch))

	for _, l := range s.lookupPages() {
		base := "/" + l.Path
		mux.Handle("GET "+base, authed(l.list))
		mux.Handle("GET "+base+"/Create", authed(l.createPage))
		mux.Handle("POST "+base+"/Create", authed(l.createSubmit))
		mux.Handle("GET "+base+"/Edit/{id}", authed(l.editPage))
		mux.Handle("POST "+base+"/Edit/{id}", authed(l.editSubmit))
		mux.Handle("POST "+base+"/Delete/{id}", authed(l.deleteSubmit))
	}

	mux.Handle("GET /LoansTeacher", authed(s.LoansPage))
	mux.Handle("GET /LoansTeacher/Create", authed(s.LoanCreatePage))
	mux.Handle("POST /LoansTeacher/Create", authed(s.LoanCreateSubmit))
	mux.Handle("GET /LoansTeacher/Edit/{id}", authed(s.LoanEditPage))
	mux.Handle("POST /LoansTeacher/Edit/{id}", authed(s.LoanEditSubmit))
	mux.Handle("POST /LoansTeacher/Delete/{id}", authed(s.LoanDeleteSubmit))
	mux.Handle("GET /LoansTeacher/LoansDelete", authed(s.LoansDeletedPage))
	mux.Handle("GET /LoansTeacher/ExportarExcel", authed(s.LoansExport))

	mux.Handle("GET /users", admin(s.UsersPage))
	mux.Handle("POST /users", admin(s.UserCreateSubmit))
	mux.Handle("POST /users/{id}/password", admin(s.UserResetPasswordSubmit))
	mux.Handle("POST /users/{id}/role", admin(s.UserUpdateRoleSubmit))
	mux.Handle("POST /users/{id}/delete", admin(s.UserDeleteSubmit))

	mux.Handle("GET /settings", authed(s.SettingsPage))
	mux.Handle("POST /settings", authed(s.SettingsSubmit))
	mux.Handle("POST /settings/loans", admin(s.LoanSettingsSubmit))

	return mux, nil
}

// NewServices wires every business service against db.
func NewServices(db *sqlx.DB, books *catalog.Books, opts ...loans.Option) Services {
	return Services{
		Countries:    catalog.NewCountries(db),
		Editions:     catalog.NewEditions(db),
		Books:        books,
		Categories:   catalog.NewLookups(db, store.Categories),
		LoanTypes:    catalog.NewLookups(db, store.LoanTypes),
		Reservations: catalog.NewLookups(db, store.ReservationStatuses),
		Loans:        loans.NewService(db, opts...),
	}
}
