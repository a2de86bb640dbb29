package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/htol/libman/catalog"
)

const readerSelect = `SELECT reader_id, name, email, phone FROM readers`

func scanReaderRows(rows *sql.Rows) ([]catalog.Reader, error) {
	readers := make([]catalog.Reader, 0)
	for rows.Next() {
		var rd catalog.Reader
		var phone sql.NullString
		if err := rows.Scan(&rd.ID, &rd.Name, &rd.Email, &phone); err != nil {
			return nil, fmt.Errorf("scan reader: %w", err)
		}
		rd.Phone = phone.String
		readers = append(readers, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readers: %w", err)
	}
	return readers, nil
}

// queryReaders runs a readerSelect-based query and attaches each
// reader's bookings (most recent first, base rows only).
func (r *Repo) queryReaders(ctx context.Context, query string, args ...any) ([]catalog.Reader, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query readers: %w", err)
	}
	readers, err := scanReaderRows(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if err := r.hydrateReaders(ctx, readers); err != nil {
		return nil, err
	}
	return readers, nil
}

func (r *Repo) hydrateReaders(ctx context.Context, readers []catalog.Reader) error {
	if len(readers) == 0 {
		return nil
	}

	idx := make(map[int64]*catalog.Reader, len(readers))
	ids := make([]any, 0, len(readers))
	for i := range readers {
		idx[readers[i].ID] = &readers[i]
		ids = append(ids, readers[i].ID)
	}

	QUERY := `
		SELECT booking_id, book_id, reader_id, start_date, return_date
		FROM bookings
		WHERE reader_id IN (` + placeholders(len(ids)) + `)
		ORDER BY start_date DESC
	`
	rows, err := r.db.QueryContext(ctx, QUERY, ids...)
	if err != nil {
		return fmt.Errorf("query reader bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bk catalog.Booking
		var returned sql.NullTime
		if err := rows.Scan(&bk.ID, &bk.BookID, &bk.ReaderID, &bk.StartDate, &returned); err != nil {
			return fmt.Errorf("scan reader booking: %w", err)
		}
		bk.StartDate = bk.StartDate.UTC()
		if returned.Valid {
			t := returned.Time.UTC()
			bk.ReturnDate = &t
		}
		if rd, ok := idx[bk.ReaderID]; ok {
			rd.Bookings = append(rd.Bookings, bk)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate reader bookings: %w", err)
	}

	return nil
}

func (r *Repo) GetReaders(ctx context.Context) ([]catalog.Reader, error) {
	return r.queryReaders(ctx, readerSelect+` ORDER BY name`)
}

func (r *Repo) GetReaderByID(ctx context.Context, id int64) (*catalog.Reader, error) {
	readers, err := r.queryReaders(ctx, readerSelect+` WHERE reader_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get reader by ID %d: %w", id, err)
	}
	if len(readers) == 0 {
		return nil, ErrNotFound
	}
	return &readers[0], nil
}

// GetReaderByEmail matches case-insensitively (the email column
// collates NOCASE).
func (r *Repo) GetReaderByEmail(ctx context.Context, email string) (*catalog.Reader, error) {
	readers, err := r.queryReaders(ctx, readerSelect+` WHERE email = ?`, email)
	if err != nil {
		return nil, fmt.Errorf("get reader by email: %w", err)
	}
	if len(readers) == 0 {
		return nil, ErrNotFound
	}
	return &readers[0], nil
}

func (r *Repo) SearchReaders(ctx context.Context, term string) ([]catalog.Reader, error) {
	pattern := "%" + foldCaser.String(term) + "%"
	return r.queryReaders(ctx, readerSelect+`
		WHERE lower(name) LIKE ?
		   OR lower(email) LIKE ?
		   OR IFNULL(phone, '') LIKE ?
		ORDER BY name
	`, pattern, pattern, pattern)
}

func (r *Repo) GetReadersWithOverdueLoans(ctx context.Context, overdueBefore time.Time) ([]catalog.Reader, error) {
	return r.queryReaders(ctx, readerSelect+`
		WHERE EXISTS (
			SELECT 1 FROM bookings bk
			WHERE bk.reader_id = readers.reader_id
			  AND bk.return_date IS NULL
			  AND bk.start_date < ?
		)
		ORDER BY name
	`, overdueBefore.UTC())
}

// GetActiveReaders returns readers with any loan started at or after
// since.
func (r *Repo) GetActiveReaders(ctx context.Context, since time.Time) ([]catalog.Reader, error) {
	return r.queryReaders(ctx, readerSelect+`
		WHERE EXISTS (
			SELECT 1 FROM bookings bk
			WHERE bk.reader_id = readers.reader_id AND bk.start_date >= ?
		)
		ORDER BY name
	`, since.UTC())
}

// IsEmailUnique reports whether no other reader uses the email
// (case-insensitive). Pass excludeReaderID = 0 for new readers.
func (r *Repo) IsEmailUnique(ctx context.Context, email string, excludeReaderID int64) (bool, error) {
	QUERY := `SELECT COUNT(*) FROM readers WHERE email = ? AND reader_id != ?`

	var n int
	if err := r.db.QueryRowContext(ctx, QUERY, email, excludeReaderID).Scan(&n); err != nil {
		return false, fmt.Errorf("check email uniqueness: %w", err)
	}
	return n == 0, nil
}

func (r *Repo) AddReader(ctx context.Context, rd *catalog.Reader) (*catalog.Reader, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO readers(name, email, phone) VALUES(?, ?, ?)`,
		rd.Name, rd.Email, nullString(rd.Phone),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert reader: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reader insert id: %w", err)
	}

	added := *rd
	added.ID = id
	return &added, nil
}

func (r *Repo) UpdateReader(ctx context.Context, rd *catalog.Reader) error {
	unique, err := r.IsEmailUnique(ctx, rd.Email, rd.ID)
	if err != nil {
		return err
	}
	if !unique {
		return ErrConflict
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE readers SET name = ?, email = ?, phone = ? WHERE reader_id = ?`,
		rd.Name, rd.Email, nullString(rd.Phone), rd.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("update reader %d: %w", rd.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update reader %d: %w", rd.ID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReader refuses with ErrInUse while the reader has open loans;
// closed loan history is removed together with the reader.
func (r *Repo) DeleteReader(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete reader: %w", err)
	}
	defer rollback(tx)

	var exists int64
	err = tx.QueryRowContext(ctx, `SELECT reader_id FROM readers WHERE reader_id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check reader %d: %w", id, err)
	}

	var openLoans int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE reader_id = ? AND return_date IS NULL`, id,
	).Scan(&openLoans); err != nil {
		return fmt.Errorf("count open loans for reader %d: %w", id, err)
	}
	if openLoans > 0 {
		return ErrInUse
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE reader_id = ?`, id); err != nil {
		return fmt.Errorf("delete loan history for reader %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM readers WHERE reader_id = ?`, id); err != nil {
		return fmt.Errorf("delete reader %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete reader: %w", err)
	}
	return nil
}

func (r *Repo) CountReaders(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count readers: %w", err)
	}
	return n, nil
}

func (r *Repo) CountActiveReaders(ctx context.Context, since time.Time) (int, error) {
	QUERY := `
		SELECT COUNT(*) FROM readers r
		WHERE EXISTS (
			SELECT 1 FROM bookings bk
			WHERE bk.reader_id = r.reader_id AND bk.start_date >= ?
		)
	`
	var n int
	if err := r.db.QueryRowContext(ctx, QUERY, since.UTC()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active readers: %w", err)
	}
	return n, nil
}
