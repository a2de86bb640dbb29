package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/htol/libman/catalog"
)

const bookingSelect = `
	SELECT bk.booking_id, bk.book_id, bk.reader_id, bk.start_date, bk.return_date,
	       b.title, b.publication_year, b.publisher_id,
	       r.name, r.email
	FROM bookings bk
	JOIN books b ON bk.book_id = b.book_id
	JOIN readers r ON bk.reader_id = r.reader_id
`

func scanBookingRows(rows *sql.Rows) ([]catalog.Booking, error) {
	bookings := make([]catalog.Booking, 0)
	for rows.Next() {
		var bk catalog.Booking
		var returned sql.NullTime
		var book catalog.Book
		var year sql.NullInt64
		var reader catalog.Reader

		if err := rows.Scan(
			&bk.ID, &bk.BookID, &bk.ReaderID, &bk.StartDate, &returned,
			&book.Title, &year, &book.PublisherID,
			&reader.Name, &reader.Email,
		); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}

		bk.StartDate = bk.StartDate.UTC()
		if returned.Valid {
			t := returned.Time.UTC()
			bk.ReturnDate = &t
		}
		book.ID = bk.BookID
		book.PublicationYear = int(year.Int64)
		reader.ID = bk.ReaderID
		bk.Book = &book
		bk.Reader = &reader
		bookings = append(bookings, bk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

func (r *Repo) queryBookings(ctx context.Context, query string, args ...any) ([]catalog.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	return scanBookingRows(rows)
}

func (r *Repo) GetBookings(ctx context.Context) ([]catalog.Booking, error) {
	return r.queryBookings(ctx, bookingSelect+` ORDER BY bk.start_date DESC`)
}

func (r *Repo) GetBookingByID(ctx context.Context, id int64) (*catalog.Booking, error) {
	bookings, err := r.queryBookings(ctx, bookingSelect+` WHERE bk.booking_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get booking by ID %d: %w", id, err)
	}
	if len(bookings) == 0 {
		return nil, ErrNotFound
	}
	return &bookings[0], nil
}

func (r *Repo) GetActiveBookings(ctx context.Context) ([]catalog.Booking, error) {
	return r.queryBookings(ctx, bookingSelect+`
		WHERE bk.return_date IS NULL
		ORDER BY bk.start_date
	`)
}

func (r *Repo) GetOverdueBookings(ctx context.Context, overdueBefore time.Time) ([]catalog.Booking, error) {
	return r.queryBookings(ctx, bookingSelect+`
		WHERE bk.return_date IS NULL AND bk.start_date < ?
		ORDER BY bk.start_date
	`, overdueBefore.UTC())
}

func (r *Repo) GetBookingsByReader(ctx context.Context, readerID int64) ([]catalog.Booking, error) {
	return r.queryBookings(ctx, bookingSelect+`
		WHERE bk.reader_id = ?
		ORDER BY bk.start_date DESC
	`, readerID)
}

func (r *Repo) GetBookingsByBook(ctx context.Context, bookID int64) ([]catalog.Booking, error) {
	return r.queryBookings(ctx, bookingSelect+`
		WHERE bk.book_id = ?
		ORDER BY bk.start_date DESC
	`, bookID)
}

func (r *Repo) GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]catalog.Booking, error) {
	return r.queryBookings(ctx, bookingSelect+`
		WHERE bk.start_date >= ? AND bk.start_date <= ?
		ORDER BY bk.start_date DESC
	`, from.UTC(), to.UTC())
}

func (r *Repo) CountOpenLoansByBook(ctx context.Context, bookID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE book_id = ? AND return_date IS NULL`, bookID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count open loans for book %d: %w", bookID, err)
	}
	return n, nil
}

func (r *Repo) CountOpenLoansByReader(ctx context.Context, readerID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE reader_id = ? AND return_date IS NULL`, readerID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count open loans for reader %d: %w", readerID, err)
	}
	return n, nil
}

func (r *Repo) HasOverdueLoans(ctx context.Context, readerID int64, overdueBefore time.Time) (bool, error) {
	QUERY := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE reader_id = ? AND return_date IS NULL AND start_date < ?
		)
	`
	var has bool
	if err := r.db.QueryRowContext(ctx, QUERY, readerID, overdueBefore.UTC()).Scan(&has); err != nil {
		return false, fmt.Errorf("check overdue loans for reader %d: %w", readerID, err)
	}
	return has, nil
}

func (r *Repo) CountBookings(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return n, nil
}

func (r *Repo) CountActiveBookings(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE return_date IS NULL`,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active bookings: %w", err)
	}
	return n, nil
}

func (r *Repo) CountOverdueBookings(ctx context.Context, overdueBefore time.Time) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE return_date IS NULL AND start_date < ?`,
		overdueBefore.UTC(),
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count overdue bookings: %w", err)
	}
	return n, nil
}

// CreateBooking inserts a loan record. Open loans re-run the full
// eligibility check inside the insert transaction, so a concurrent
// writer cannot slip a second open loan past a stale pre-check; the
// partial unique index on (book_id) WHERE return_date IS NULL backs
// this up at the storage level.
func (r *Repo) CreateBooking(ctx context.Context, bookID, readerID int64, start time.Time, returned *time.Time, maxActive int, overdueBefore time.Time) (*catalog.Booking, error) {
	start = start.UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create booking: %w", err)
	}
	defer rollback(tx)

	var exists int64
	err = tx.QueryRowContext(ctx, `SELECT book_id FROM books WHERE book_id = ?`, bookID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check book %d: %w", bookID, err)
	}
	err = tx.QueryRowContext(ctx, `SELECT reader_id FROM readers WHERE reader_id = ?`, readerID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check reader %d: %w", readerID, err)
	}

	if returned == nil {
		var openForBook int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bookings WHERE book_id = ? AND return_date IS NULL`, bookID,
		).Scan(&openForBook); err != nil {
			return nil, fmt.Errorf("recheck book availability: %w", err)
		}
		if openForBook > 0 {
			return nil, ErrBookUnavailable
		}

		var openForReader int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bookings WHERE reader_id = ? AND return_date IS NULL`, readerID,
		).Scan(&openForReader); err != nil {
			return nil, fmt.Errorf("recheck reader loan count: %w", err)
		}
		if openForReader >= maxActive {
			return nil, ErrReaderAtLoanLimit
		}

		var overdue bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM bookings WHERE reader_id = ? AND return_date IS NULL AND start_date < ?)`,
			readerID, overdueBefore.UTC(),
		).Scan(&overdue); err != nil {
			return nil, fmt.Errorf("recheck reader overdue loans: %w", err)
		}
		if overdue {
			return nil, ErrReaderOverdue
		}
	}

	var returnedAt any
	if returned != nil {
		returnedAt = returned.UTC()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings(book_id, reader_id, start_date, return_date) VALUES(?, ?, ?, ?)`,
		bookID, readerID, start, returnedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrBookUnavailable
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	bookingID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("booking insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create booking: %w", err)
	}

	return r.GetBookingByID(ctx, bookingID)
}

// ReturnBook closes an open loan. Returning an already-closed loan is
// a guarded no-op (ErrAlreadyReturned); the stored return date is
// never overwritten.
func (r *Repo) ReturnBook(ctx context.Context, bookingID int64, returnedAt time.Time) error {
	var returned sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT return_date FROM bookings WHERE booking_id = ?`, bookingID,
	).Scan(&returned)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get booking %d: %w", bookingID, err)
	}
	if returned.Valid {
		return ErrAlreadyReturned
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET return_date = ? WHERE booking_id = ? AND return_date IS NULL`,
		returnedAt.UTC(), bookingID,
	)
	if err != nil {
		return fmt.Errorf("return booking %d: %w", bookingID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("return booking %d: %w", bookingID, err)
	}
	if affected == 0 {
		// Lost a race with another return; the loan is closed either way.
		return ErrAlreadyReturned
	}
	return nil
}
