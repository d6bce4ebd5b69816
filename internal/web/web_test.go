package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/erazemk/biblioteca/internal/auth"
	"github.com/erazemk/biblioteca/internal/catalog"
	"github.com/erazemk/biblioteca/internal/covers"
	"github.com/erazemk/biblioteca/internal/db"
	"github.com/erazemk/biblioteca/internal/export"
	"github.com/erazemk/biblioteca/internal/httpx"
	"github.com/erazemk/biblioteca/internal/loans"
	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/store"
)

const testSecret = "web-test-secret"

type testEnv struct {
	handler http.Handler
	db      *sqlx.DB
	svc     Services
	covers  *covers.Memory
	user    *model.User
	token   string
	csrf    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	mem := covers.NewMemory()
	svc := NewServices(database, catalog.NewBooks(database, mem))

	h, err := NewRouter(database, svc, testSecret)
	require.NoError(t, err)

	hash, err := auth.HashPassword("password1")
	require.NoError(t, err)
	user, err := store.CreateUser(context.Background(), database, "admin", hash, model.RoleAdmin)
	require.NoError(t, err)

	token, err := auth.GenerateToken(testSecret, user)
	require.NoError(t, err)
	claims, err := auth.ValidateToken(testSecret, token)
	require.NoError(t, err)

	return &testEnv{
		handler: h,
		db:      database,
		svc:     svc,
		covers:  mem,
		user:    user,
		token:   token,
		csrf:    auth.CSRFToken(testSecret, claims.ID),
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	req.AddCookie(&http.Cookie{Name: cookieName, Value: e.token})
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (e *testEnv) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	if form.Get(auth.CSRFField) == "" {
		form.Set(auth.CSRFField, e.csrf)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func (e *testEnv) postAJAX(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set(auth.CSRFHeader, e.csrf)
	return e.do(req)
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) httpx.Result {
	t.Helper()
	var res httpx.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	return res
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Countries", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/Countries", nil)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginAndLogout(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"username": {"admin"}, "password": {"wrong-password"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), msgBadLogin)

	form.Set("password", "password1")
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)

	rec = env.post("/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, http.StatusSeeOther, env.get("/Countries").Code, "revoked session must be sent back to login")
}

func TestCSRFRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post("/Countries/Create", url.Values{"name": {"Chile"}, auth.CSRFField: {"forged"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	all, err := env.svc.Countries.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCountryCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post("/Countries/Create", url.Values{"name": {"  "}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "El nombre es obligatorio.")

	rec = env.post("/Countries/Create", url.Values{"name": {"Chile"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/Countries?ok=created", rec.Header().Get("Location"))

	rec = env.get("/Countries?ok=created")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chile")
	assert.Contains(t, rec.Body.String(), notices["created"])

	all, _ := env.svc.Countries.All(context.Background())
	require.Len(t, all, 1)
	id := all[0].ID

	rec = env.post(fmt.Sprintf("/Countries/Edit/%d", id), url.Values{"name": {"Perú"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	rec = env.get(fmt.Sprintf("/Countries/Details/%d", id))
	assert.Contains(t, rec.Body.String(), "Perú")

	assert.Equal(t, http.StatusNotFound, env.get("/Countries/Details/999").Code)
	assert.Equal(t, http.StatusNotFound, env.get("/Countries/Edit/abc").Code)

	rec = env.post(fmt.Sprintf("/Countries/Delete/%d", id), nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, http.StatusNotFound, env.get(fmt.Sprintf("/Countries/Details/%d", id)).Code)
}

func TestDeleteReferencedCountryIsRefused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c, err := env.svc.Countries.Create(ctx, model.Country{Name: "Chile"})
	require.NoError(t, err)
	_, err = env.svc.Books.Create(ctx, model.Book{Title: "Rayuela", CountryID: &c.ID})
	require.NoError(t, err)

	rec := env.post(fmt.Sprintf("/Countries/Delete/%d", c.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "El registro está en uso y no se puede eliminar.")
}

func TestAJAXResponses(t *testing.T) {
	env := newTestEnv(t)

	rec := env.postAJAX("/Editions/Create", url.Values{"number": {""}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	res := decodeResult(t, rec)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Messages)

	rec = env.postAJAX("/Editions/Create", url.Values{"number": {"1ra"}, "description": {"Primera"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	res = decodeResult(t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, "/Editions", res.Redirect)
}

func TestSearchReturnsOptions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, name := range []string{"Chile", "China", "Perú"} {
		_, err := env.svc.Countries.Create(ctx, model.Country{Name: name})
		require.NoError(t, err)
	}

	rec := env.get("/Countries/Search?name=CHI")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Chile"},{"id":2,"name":"China"}]`, rec.Body.String())

	rec = env.get("/Books/Search?name=nada")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestPagerKeepsFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := range 7 {
		_, err := env.svc.Countries.Create(ctx, model.Country{Name: fmt.Sprintf("País %d", i)})
		require.NoError(t, err)
	}

	rec := env.get("/Countries?name=Pa")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "página 1 de 2")
	assert.Contains(t, body, "/Countries?name=Pa&amp;page=2&amp;pageSize=5")
}

func TestLookupPages(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/LoanTypes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Domicilio")

	rec = env.post("/Categories/Create", url.Values{"name": {"Novela"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, env.get("/Categories").Body.String(), "Novela")
}

func createBook(t *testing.T, env *testEnv, title string, existences int) *model.Book {
	t.Helper()
	b, err := env.svc.Books.Create(context.Background(), model.Book{Title: title, Existences: existences})
	require.NoError(t, err)
	return b
}

func loanForm(bookID int64) url.Values {
	return url.Values{
		"personal_id":   {"12"},
		"personal_name": {"Ana Pérez"},
		"role":          {"Docente"},
		"email":         {"ana@colegio.cl"},
		"book_id":       {fmt.Sprint(bookID)},
		"loan_type_id":  {"1"},
		"start_date":    {"2026-03-02"},
		"end_date":      {"2026-03-09"},
	}
}

func TestLoanWorkflow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	book := createBook(t, env, "Rayuela", 1)

	rec := env.post("/LoansTeacher/Create", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	for _, msg := range []string{loans.MsgSelectTeacher, loans.MsgSelectBook, loans.MsgSelectLoanType, loans.MsgEmailRequired, loans.MsgDatesRequired} {
		assert.Contains(t, rec.Body.String(), msg)
	}

	rec = env.post("/LoansTeacher/Create", loanForm(book.ID))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = env.post("/LoansTeacher/Create", loanForm(book.ID))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "No hay suficientes ejemplares.")

	rec = env.get("/LoansTeacher")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ana Pérez")

	active, err := env.svc.Loans.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	id := active[0].ID

	edit := url.Values{
		"loan_type_id":   {"1"},
		"reservation_id": {"1"},
		"email":          {"ana@colegio.cl"},
		"personal_name":  {"Ana Pérez"},
		"active":         {"1"},
		"start_date":     {"2026-03-01"},
	}
	rec = env.post(fmt.Sprintf("/LoansTeacher/Edit/%d", id), edit)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), loans.MsgBothDates)

	edit.Set("end_date", "2026-03-05")
	rec = env.post(fmt.Sprintf("/LoansTeacher/Edit/%d", id), edit)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "La nueva fecha cierre debe ser mayor a la anterior: 09/03/2026")

	edit.Set("end_date", "2026-03-20")
	rec = env.post(fmt.Sprintf("/LoansTeacher/Edit/%d", id), edit)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	d, err := env.svc.Loans.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, d.Dates, 2)

	rec = env.post(fmt.Sprintf("/LoansTeacher/Delete/%d", id), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	b, err := env.svc.Books.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Existences)

	rec = env.get("/LoansTeacher/LoansDelete?name=ana")
	assert.Contains(t, rec.Body.String(), "Ana Pérez")
}

func TestLoanCreatePrefillsDefaultLength(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, store.SetSetting(context.Background(), env.db, store.SettingLoanDays, "14"))

	rec := env.get("/LoansTeacher/Create")
	require.Equal(t, http.StatusOK, rec.Code)
	end := time.Now().AddDate(0, 0, 14).Format(inputDateLayout)
	assert.Contains(t, rec.Body.String(), `name="end_date" value="`+end+`"`)
}

func TestExportExcel(t *testing.T) {
	env := newTestEnv(t)
	book := createBook(t, env, "Rayuela", 2)
	require.Equal(t, http.StatusSeeOther, env.post("/LoansTeacher/Create", loanForm(book.ID)).Code)

	rec := env.get("/LoansTeacher/ExportarExcel")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Reporte_Prestamos_Docentes_")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ana Pérez", rows[1][4])
}

func TestBookStockAndCover(t *testing.T) {
	env := newTestEnv(t)
	book := createBook(t, env, "Rayuela", 1)

	rec := env.post(fmt.Sprintf("/Books/Stock/%d", book.ID), url.Values{"delta": {"-2"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), catalog.MsgNegativeStock)

	rec = env.post(fmt.Sprintf("/Books/Stock/%d", book.ID), url.Values{"delta": {"3"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	b, _ := env.svc.Books.Get(context.Background(), book.ID)
	assert.Equal(t, 4, b.Existences)

	img := image.NewRGBA(image.Rect(0, 0, 20, 30))
	img.Set(0, 0, color.RGBA{200, 10, 10, 255})
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField(auth.CSRFField, env.csrf)
	fw, _ := mw.CreateFormFile("cover", "portada.png")
	fw.Write(pngBuf.Bytes())
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/Books/Cover/%d", book.ID), &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = env.do(req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 1, env.covers.Len())

	rec = env.get(fmt.Sprintf("/Books/Cover/%d", book.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, covers.ContentType, rec.Header().Get("Content-Type"))
	data, _ := io.ReadAll(rec.Body)
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])
}

func TestUsersAdminOnly(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post("/users", url.Values{"username": {"lector"}, "password": {"password2"}, "role": {model.RoleLibrarian}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	librarian, err := store.GetUserByUsername(context.Background(), env.db, "lector")
	require.NoError(t, err)
	require.NotNil(t, librarian)

	token, err := auth.GenerateToken(testSecret, librarian)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.post("/users", url.Values{"username": {"corto"}, "password": {"123"}, "role": {model.RoleLibrarian}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
