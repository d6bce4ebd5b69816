package model

import "time"

// Book is a catalog title with a count of copies available to lend.
type Book struct {
	ID         int64      `json:"id" db:"id"`
	Title      string     `json:"title" db:"title" validate:"required,max=255"`
	Author     string     `json:"author,omitempty" db:"author" validate:"max=255"`
	ISBN       string     `json:"isbn,omitempty" db:"isbn" validate:"max=20"`
	CategoryID *int64     `json:"category_id,omitempty" db:"category_id"`
	EditionID  *int64     `json:"edition_id,omitempty" db:"edition_id"`
	CountryID  *int64     `json:"country_id,omitempty" db:"country_id"`
	Cover      string     `json:"cover,omitempty" db:"cover"`
	Existences int        `json:"existences" db:"existences" validate:"gte=0"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`

	// Joined fields (not always populated).
	CategoryName string `json:"category_name,omitempty" db:"category_name"`
	EditionName  string `json:"edition_name,omitempty" db:"edition_name"`
	CountryName  string `json:"country_name,omitempty" db:"country_name"`
}
