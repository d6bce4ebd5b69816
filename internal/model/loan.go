package model

import "time"

// TeacherLoan is a book checked out to a teacher. Loans are never removed;
// deleting one flips Active to false.
type TeacherLoan struct {
	ID               int64     `json:"id" db:"id"`
	PersonalID       int64     `json:"personal_id" db:"personal_id"`
	PersonalName     string    `json:"personal_name" db:"personal_name"`
	Role             string    `json:"role" db:"role"`
	Email            string    `json:"email" db:"email"`
	BookID           int64     `json:"book_id" db:"book_id"`
	LoanTypeID       int64     `json:"loan_type_id" db:"loan_type_id"`
	ReservationID    int64     `json:"reservation_id" db:"reservation_id"`
	RegistrationDate time.Time `json:"registration_date" db:"registration_date"`
	EndDate          time.Time `json:"end_date" db:"end_date"`
	Active           bool      `json:"active" db:"active"`

	// Joined fields (not always populated).
	BookTitle       string `json:"book_title,omitempty" db:"book_title"`
	LoanTypeName    string `json:"loan_type_name,omitempty" db:"loan_type_name"`
	ReservationName string `json:"reservation_name,omitempty" db:"reservation_name"`
}

// LoanDates is one start/end interval of a loan. Extensions append rows.
type LoanDates struct {
	ID        int64     `json:"id" db:"id"`
	LoanID    int64     `json:"loan_id" db:"loan_id"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`
	Status    int       `json:"status" db:"status"`
}

// LoanDateStatusActive marks a LoanDates row that is in force.
const LoanDateStatusActive = 1
