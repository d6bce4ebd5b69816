package loans

import (
	"slices"
	"time"

	"github.com/erazemk/biblioteca/internal/model"
)

// DateLayout is how dates are shown to users.
const DateLayout = "02/01/2006"

// day truncates t to its calendar date, expressed in UTC.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// sameDay reports whether a and b fall on the same calendar date.
func sameDay(a, b time.Time) bool {
	return day(a).Equal(day(b))
}

// latestEnd returns the latest end date among rows. ok is false for an
// empty history.
func latestEnd(rows []model.LoanDates) (end time.Time, ok bool) {
	for _, r := range rows {
		if !ok || r.EndDate.After(end) {
			end, ok = r.EndDate, true
		}
	}
	return end, ok
}

// Due is a loan's effective end date and whether it has passed.
type Due struct {
	EndDate time.Time
	Overdue bool
}

// OverdueIndex keys rows by loan ID, keeping only the first row seen for
// each loan. A loan is overdue when that row ended before now and is still
// active. Feed it rows sorted with SortByLatestEnd so the first row is the
// loan's effective end date.
func OverdueIndex(rows []model.LoanDates, now time.Time) map[int64]Due {
	idx := make(map[int64]Due, len(rows))
	for _, r := range rows {
		if _, seen := idx[r.LoanID]; seen {
			continue
		}
		idx[r.LoanID] = Due{
			EndDate: r.EndDate,
			Overdue: r.EndDate.Before(now) && r.Status == model.LoanDateStatusActive,
		}
	}
	return idx
}

// SortByLatestEnd orders rows by loan ID, then by end date descending.
func SortByLatestEnd(rows []model.LoanDates) {
	slices.SortStableFunc(rows, func(a, b model.LoanDates) int {
		if a.LoanID != b.LoanID {
			if a.LoanID < b.LoanID {
				return -1
			}
			return 1
		}
		return b.EndDate.Compare(a.EndDate)
	})
}
