package model

// Country is a country of publication.
type Country struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name" validate:"required,max=100"`
}

// Edition describes a book edition ("1ra", "2da revisada", ...).
type Edition struct {
	ID          int64  `json:"id" db:"id"`
	Number      string `json:"number" db:"number" validate:"required,max=50"`
	Description string `json:"description,omitempty" db:"description" validate:"max=255"`
}

// Lookup is a flat id/name reference row. Categories, loan types and
// reservation statuses all share this shape.
type Lookup struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name" validate:"required,max=100"`
}

// Option is the {id, name} projection returned by typeahead searches.
type Option struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Reservation status codes that the loan workflow relies on.
const (
	ReservationPending int64 = 1
)
