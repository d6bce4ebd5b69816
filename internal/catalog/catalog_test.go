package catalog

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/biblioteca/internal/covers"
	"github.com/erazemk/biblioteca/internal/db"
	"github.com/erazemk/biblioteca/internal/model"
	"github.com/erazemk/biblioteca/internal/paging"
	"github.com/erazemk/biblioteca/internal/store"
)

func TestCountryValidation(t *testing.T) {
	s := NewCountries(db.NewTestDB(t))
	ctx := context.Background()

	_, err := s.Create(ctx, model.Country{Name: "   "})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"El nombre es obligatorio."}, ve.Messages)

	c, err := s.Create(ctx, model.Country{Name: "  Chile "})
	require.NoError(t, err)
	assert.Equal(t, "Chile", c.Name)

	err = s.Update(ctx, model.Country{ID: c.ID + 1, Name: "Perú"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCountryListUsesDefaultPageSize(t *testing.T) {
	s := NewCountries(db.NewTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		_, err := s.Create(ctx, model.Country{Name: name})
		require.NoError(t, err)
	}

	page, err := s.List(ctx, "", paging.Params{Page: 0, PageSize: 0})
	require.NoError(t, err)
	assert.Len(t, page.Items, paging.DefaultPageSize)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 6, page.Total)

	page, err = s.List(ctx, "zzz", paging.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.TotalPages)
}

func TestDeleteInUseAndMissing(t *testing.T) {
	database := db.NewTestDB(t)
	countries := NewCountries(database)
	books := NewBooks(database, covers.NewMemory())
	ctx := context.Background()

	c, err := countries.Create(ctx, model.Country{Name: "Chile"})
	require.NoError(t, err)
	_, err = books.Create(ctx, model.Book{Title: "Subterra", CountryID: &c.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, countries.Delete(ctx, c.ID), ErrInUse)
	assert.ErrorIs(t, countries.Delete(ctx, 999), ErrNotFound)

	msg, known := UserMessage(ErrInUse)
	assert.True(t, known)
	assert.Equal(t, "El registro está en uso y no se puede eliminar.", msg)
}

func TestLookupsService(t *testing.T) {
	s := NewLookups(db.NewTestDB(t), store.Categories)
	ctx := context.Background()

	l, err := s.Create(ctx, model.Lookup{Name: "Poesía"})
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, model.Lookup{ID: l.ID, Name: "Poesía chilena"}))

	got, err := s.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Poesía chilena", got.Name)

	require.NoError(t, s.Delete(ctx, l.ID))
	_, err = s.Get(ctx, l.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Panics(t, func() { NewLookups(nil, store.LookupTable("users")) })
}

func TestBookValidationCollectsAllMessages(t *testing.T) {
	s := NewBooks(db.NewTestDB(t), covers.NewMemory())

	_, err := s.Create(context.Background(), model.Book{Title: "", Existences: -1})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, []string{
		"El título es obligatorio.",
		"Las existencias no pueden ser negativas.",
	}, ve.Messages)
}

func TestBookInvalidReference(t *testing.T) {
	s := NewBooks(db.NewTestDB(t), covers.NewMemory())
	missing := int64(42)

	_, err := s.Create(context.Background(), model.Book{Title: "Huérfano", EditionID: &missing})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{MsgInvalidReference}, ve.Messages)
}

func TestBookSoftDelete(t *testing.T) {
	s := NewBooks(db.NewTestDB(t), covers.NewMemory())
	ctx := context.Background()

	b, err := s.Create(ctx, model.Book{Title: "Hijo de ladrón", Existences: 1})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, b.ID))

	_, err = s.Get(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, b.ID), ErrNotFound)
}

func TestAdjustStock(t *testing.T) {
	s := NewBooks(db.NewTestDB(t), covers.NewMemory())
	ctx := context.Background()

	b, err := s.Create(ctx, model.Book{Title: "Gracia y el forastero", Existences: 2})
	require.NoError(t, err)

	got, err := s.AdjustStock(ctx, b.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Existences)

	_, err = s.AdjustStock(ctx, b.ID, -6)
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, MsgNegativeStock, ce.Message)

	_, err = s.AdjustStock(ctx, b.ID, 0)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = s.AdjustStock(ctx, 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 60))
	for x := 0; x < 40; x++ {
		for y := 0; y < 60; y++ {
			img.Set(x, y, color.RGBA{200, 30, 30, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSetCoverReplacesPreviousBlob(t *testing.T) {
	blobs := covers.NewMemory()
	s := NewBooks(db.NewTestDB(t), blobs)
	ctx := context.Background()

	b, err := s.Create(ctx, model.Book{Title: "La amortajada"})
	require.NoError(t, err)

	_, _, err = s.Cover(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := s.SetCover(ctx, b.ID, bytes.NewReader(testPNG(t)))
	require.NoError(t, err)
	second, err := s.SetCover(ctx, b.ID, bytes.NewReader(testPNG(t)))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, blobs.Len())

	info, rc, err := s.Cover(ctx, b.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, covers.ContentType, info.ContentType)
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2])
}

func TestSetCoverRejectsNonImages(t *testing.T) {
	s := NewBooks(db.NewTestDB(t), covers.NewMemory())
	ctx := context.Background()

	b, err := s.Create(ctx, model.Book{Title: "El obsceno pájaro de la noche"})
	require.NoError(t, err)

	_, err = s.SetCover(ctx, b.ID, bytes.NewReader([]byte("%PDF-1.4")))
	msg, known := UserMessage(err)
	assert.True(t, known)
	assert.Equal(t, MsgInvalidCover, msg)
}

func TestUserMessageHidesInfrastructureErrors(t *testing.T) {
	msg, known := UserMessage(errors.New("database is locked"))
	assert.False(t, known)
	assert.Equal(t, MsgUnexpected, msg)

	msg, known = UserMessage(Conflict("No hay suficientes ejemplares."))
	assert.True(t, known)
	assert.Equal(t, "No hay suficientes ejemplares.", msg)
}
