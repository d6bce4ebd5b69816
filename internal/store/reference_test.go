package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/biblioteca/internal/db"
	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
)

func TestListCountriesPagesInSQL(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"Chile", "Perú", "Colombia", "Ecuador", "Bolivia", "Cuba", "Canadá"} {
		if _, err := CreateCountry(ctx, database, name); err != nil {
			t.Fatalf("CreateCountry: %v", err)
		}
	}

	page, total, err := ListCountries(ctx, database, "", paging.Params{Page: 2, PageSize: 5})
	if err != nil {
		t.Fatalf("ListCountries: %v", err)
	}
	if total != 7 {
		t.Errorf("expected total 7, got %d", total)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 rows on page 2, got %d", len(page))
	}
	if page[0].Name != "Cuba" {
		t.Errorf("expected page 2 to start with Cuba, got %q", page[0].Name)
	}

	all, total, _ := ListCountries(ctx, database, "", paging.Params{Page: 3, PageSize: paging.All})
	if len(all) != 7 || total != 7 {
		t.Errorf("expected all 7 rows with the sentinel, got %d (total %d)", len(all), total)
	}

	filtered, total, _ := ListCountries(ctx, database, "c", paging.Params{})
	// Chile, Colombia, Ecuador, Cuba, Canadá; the default size is 5.
	if total != 5 || len(filtered) != 5 {
		t.Errorf("expected 5 matches for 'c', got %d rows (total %d)", len(filtered), total)
	}
}

func TestSearchCountriesEscapesWildcards(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateCountry(ctx, database, "Chile")
	CreateCountry(ctx, database, "100% País")

	opts, err := SearchCountries(ctx, database, "%")
	if err != nil {
		t.Fatalf("SearchCountries: %v", err)
	}
	if len(opts) != 1 || opts[0].Name != "100% País" {
		t.Errorf("expected only the literal %% match, got %+v", opts)
	}

	opts, _ = SearchCountries(ctx, database, "CHI")
	if len(opts) != 1 || opts[0].Name != "Chile" {
		t.Errorf("expected case-insensitive match on Chile, got %+v", opts)
	}
}

func TestSearchIsCapped(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for i := 0; i < SearchLimit+5; i++ {
		CreateEdition(ctx, database, "Edición", "")
	}

	opts, err := SearchEditions(ctx, database, "edi")
	if err != nil {
		t.Fatalf("SearchEditions: %v", err)
	}
	if len(opts) != SearchLimit {
		t.Errorf("expected %d results, got %d", SearchLimit, len(opts))
	}
}

func TestDeleteReferencedCountry(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	country, _ := CreateCountry(ctx, database, "Chile")
	if _, err := CreateBook(ctx, database, model.Book{Title: "Papelucho", CountryID: &country.ID}); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	_, err := DeleteCountry(ctx, database, country.ID)
	if !errors.Is(err, ErrReferenced) {
		t.Fatalf("expected ErrReferenced, got %v", err)
	}

	unused, _ := CreateCountry(ctx, database, "Perú")
	ok, err := DeleteCountry(ctx, database, unused.ID)
	if err != nil || !ok {
		t.Fatalf("expected delete of unused country to succeed, got %v, %v", ok, err)
	}
	got, _ := GetCountry(ctx, database, unused.ID)
	if got != nil {
		t.Error("expected deleted country to be gone")
	}
}

func TestUpdateMissingEdition(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	ok, err := UpdateEdition(ctx, database, 999, "1ra", "")
	if err != nil {
		t.Fatalf("UpdateEdition: %v", err)
	}
	if ok {
		t.Error("expected no row to be updated")
	}
}

func TestLookups(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	types, err := AllLookups(ctx, database, LoanTypes)
	if err != nil {
		t.Fatalf("AllLookups: %v", err)
	}
	if len(types) != 2 || types[0].Name != "Sala" {
		t.Errorf("expected seeded loan types, got %+v", types)
	}

	cat, err := CreateLookup(ctx, database, Categories, "Novela")
	if err != nil {
		t.Fatalf("CreateLookup: %v", err)
	}
	UpdateLookup(ctx, database, Categories, cat.ID, "Novela juvenil")
	got, _ := GetLookup(ctx, database, Categories, cat.ID)
	if got.Name != "Novela juvenil" {
		t.Errorf("expected renamed category, got %q", got.Name)
	}

	if _, err := CreateLookup(ctx, database, LookupTable("users"), "x"); err == nil {
		t.Error("expected unknown lookup table to be rejected")
	}
}
