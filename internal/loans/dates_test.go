package loans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/erazemk/biblioteca/internal/model"
)

func TestOverdueIndexKeepsFirstRowPerLoan(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rows := []model.LoanDates{
		{LoanID: 1, EndDate: now.AddDate(0, 0, -1), Status: 1},
		{LoanID: 1, EndDate: now.AddDate(0, 0, 5), Status: 1},
		{LoanID: 2, EndDate: now.AddDate(0, 0, -3), Status: 2},
	}

	idx := OverdueIndex(rows, now)
	assert.True(t, idx[1].Overdue, "first row wins when rows are not sorted")
	assert.False(t, idx[2].Overdue, "inactive status is never overdue")

	SortByLatestEnd(rows)
	idx = OverdueIndex(rows, now)
	assert.False(t, idx[1].Overdue)
	assert.True(t, idx[1].EndDate.Equal(now.AddDate(0, 0, 5)))
}

func TestSortByLatestEnd(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []model.LoanDates{
		{ID: 1, LoanID: 2, EndDate: base},
		{ID: 2, LoanID: 1, EndDate: base},
		{ID: 3, LoanID: 1, EndDate: base.AddDate(0, 1, 0)},
	}
	SortByLatestEnd(rows)

	var ids []int64
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{3, 2, 1}, ids)
}

func TestDayComparisonsIgnoreTime(t *testing.T) {
	a := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, 3, 9, 0, 1, 0, 0, time.UTC)
	assert.True(t, sameDay(a, b))

	end, ok := latestEnd(nil)
	assert.False(t, ok)
	assert.True(t, end.IsZero())
}
