// Package lending implements the loan eligibility and status policy:
// whether a reader may borrow a book, and how existing loans partition
// into active and overdue.
package lending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/htol/libman/catalog"
	"github.com/htol/libman/repo"
)

const (
	// LoanPeriodDays is the fixed time a reader may keep a book.
	LoanPeriodDays = 30
	// MaxActiveLoans is the most open loans a reader may hold at once.
	MaxActiveLoans = 5
)

// LoanPeriod is LoanPeriodDays as a duration.
const LoanPeriod = LoanPeriodDays * 24 * time.Hour

// Reason says why an eligibility check refused a loan.
type Reason string

const (
	ReasonBookUnavailable   Reason = "book_unavailable"
	ReasonReaderAtLoanLimit Reason = "reader_at_loan_limit"
	ReasonReaderOverdue     Reason = "reader_has_overdue_loan"
)

// Decision is the outcome of an eligibility check. Reason is set only
// when Allowed is false.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
}

// NotEligibleError is returned when CreateBooking refuses a loan.
type NotEligibleError struct {
	Reason Reason
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("booking not eligible: %s", e.Reason)
}

// OverdueCutoff returns the instant before which an open loan's start
// date makes it overdue.
func OverdueCutoff(now time.Time) time.Time {
	return now.UTC().Add(-LoanPeriod)
}

// Overdue reports whether the booking is an open loan older than the
// loan period at the given instant.
func Overdue(bk *catalog.Booking, now time.Time) bool {
	return bk.ReturnDate == nil && bk.StartDate.Before(OverdueCutoff(now))
}

// Policy evaluates lending rules against current repository state.
type Policy struct {
	repo repo.Repository
	now  func() time.Time
}

func NewPolicy(r repo.Repository) *Policy {
	return &Policy{repo: r, now: time.Now}
}

// CanBook decides whether the reader may borrow the book right now:
// the book must have no open loan, the reader must be under the active
// loan limit and must have no overdue loan. The decision is advisory;
// CreateBooking re-checks inside its transaction.
func (p *Policy) CanBook(ctx context.Context, bookID, readerID int64) (Decision, error) {
	openForBook, err := p.repo.CountOpenLoansByBook(ctx, bookID)
	if err != nil {
		return Decision{}, fmt.Errorf("check book availability: %w", err)
	}
	if openForBook > 0 {
		return Decision{Reason: ReasonBookUnavailable}, nil
	}

	openForReader, err := p.repo.CountOpenLoansByReader(ctx, readerID)
	if err != nil {
		return Decision{}, fmt.Errorf("check reader loan count: %w", err)
	}
	if openForReader >= MaxActiveLoans {
		return Decision{Reason: ReasonReaderAtLoanLimit}, nil
	}

	overdue, err := p.repo.HasOverdueLoans(ctx, readerID, OverdueCutoff(p.now()))
	if err != nil {
		return Decision{}, fmt.Errorf("check reader overdue loans: %w", err)
	}
	if overdue {
		return Decision{Reason: ReasonReaderOverdue}, nil
	}

	return Decision{Allowed: true}, nil
}

// IsOverdue reports whether the booking is an open loan older than the
// loan period. Missing bookings are not overdue.
func (p *Policy) IsOverdue(ctx context.Context, bookingID int64) (bool, error) {
	bk, err := p.repo.GetBookingByID(ctx, bookingID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get booking %d: %w", bookingID, err)
	}
	return Overdue(bk, p.now()), nil
}

// ExpectedReturnDate returns the due date of the booking: start date
// plus the loan period. Unknown bookings yield ErrNotFound rather than
// a fabricated date.
func (p *Policy) ExpectedReturnDate(ctx context.Context, bookingID int64) (time.Time, error) {
	bk, err := p.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return time.Time{}, fmt.Errorf("get booking %d: %w", bookingID, err)
	}
	return bk.StartDate.Add(LoanPeriod), nil
}

// CreateBooking opens a new loan starting now. Refusals carry a
// NotEligibleError with the failed rule.
func (p *Policy) CreateBooking(ctx context.Context, bookID, readerID int64) (*catalog.Booking, error) {
	now := p.now()
	bk, err := p.repo.CreateBooking(ctx, bookID, readerID, now, nil, MaxActiveLoans, OverdueCutoff(now))
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrBookUnavailable):
			return nil, &NotEligibleError{Reason: ReasonBookUnavailable}
		case errors.Is(err, repo.ErrReaderAtLoanLimit):
			return nil, &NotEligibleError{Reason: ReasonReaderAtLoanLimit}
		case errors.Is(err, repo.ErrReaderOverdue):
			return nil, &NotEligibleError{Reason: ReasonReaderOverdue}
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return bk, nil
}

// ReturnBook closes the loan at the current time. Already-closed loans
// surface repo.ErrAlreadyReturned and keep their original return date.
func (p *Policy) ReturnBook(ctx context.Context, bookingID int64) error {
	return p.repo.ReturnBook(ctx, bookingID, p.now())
}

// ActiveBookings lists all open loans.
func (p *Policy) ActiveBookings(ctx context.Context) ([]catalog.Booking, error) {
	return p.repo.GetActiveBookings(ctx)
}

// OverdueBookings lists open loans older than the loan period.
func (p *Policy) OverdueBookings(ctx context.Context) ([]catalog.Booking, error) {
	return p.repo.GetOverdueBookings(ctx, OverdueCutoff(p.now()))
}

// OverdueBooks lists books held past the loan period.
func (p *Policy) OverdueBooks(ctx context.Context) ([]catalog.Book, error) {
	return p.repo.GetOverdueBooks(ctx, OverdueCutoff(p.now()))
}

// ReadersWithOverdueLoans lists readers currently blocked by an
// overdue loan.
func (p *Policy) ReadersWithOverdueLoans(ctx context.Context) ([]catalog.Reader, error) {
	return p.repo.GetReadersWithOverdueLoans(ctx, OverdueCutoff(p.now()))
}

// CountOverdueBookings counts open loans older than the loan period.
func (p *Policy) CountOverdueBookings(ctx context.Context) (int, error) {
	return p.repo.CountOverdueBookings(ctx, OverdueCutoff(p.now()))
}
