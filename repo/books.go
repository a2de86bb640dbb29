package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/htol/libman/catalog"
)

var (
	titleCaser = cases.Title(language.Und, cases.NoLower)
	foldCaser  = cases.Fold()
)

const bookSelect = `
	SELECT b.book_id, b.title, b.description, b.publication_year, b.publisher_id,
	       p.name, p.address
	FROM books b
	JOIN publishers p ON b.publisher_id = p.publisher_id
`

func scanBookRows(rows *sql.Rows) ([]catalog.Book, error) {
	books := make([]catalog.Book, 0)
	for rows.Next() {
		var b catalog.Book
		var description, address sql.NullString
		var year sql.NullInt64
		var pub catalog.Publisher

		if err := rows.Scan(
			&b.ID, &b.Title, &description, &year, &b.PublisherID,
			&pub.Name, &address,
		); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}

		b.Description = description.String
		b.PublicationYear = int(year.Int64)
		pub.ID = b.PublisherID
		pub.Address = address.String
		b.Publisher = &pub
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return books, nil
}

// queryBooks runs a bookSelect-based query and hydrates the results
// with authors, categories and open loans.
func (r *Repo) queryBooks(ctx context.Context, query string, args ...any) ([]catalog.Book, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	books, err := scanBookRows(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	if err := r.hydrateBooks(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// hydrateBooks attaches authors, categories and open loans to the given
// books with three batched lookups (no per-book round trips).
func (r *Repo) hydrateBooks(ctx context.Context, books []catalog.Book) error {
	if len(books) == 0 {
		return nil
	}

	idx := make(map[int64]*catalog.Book, len(books))
	ids := make([]any, 0, len(books))
	for i := range books {
		idx[books[i].ID] = &books[i]
		ids = append(ids, books[i].ID)
	}
	ph := placeholders(len(ids))

	authorsQuery := `
		SELECT ba.book_id, a.author_id, a.name, a.biography
		FROM authors a
		JOIN book_authors ba ON a.author_id = ba.author_id
		WHERE ba.book_id IN (` + ph + `)
		ORDER BY a.name
	`
	rows, err := r.db.QueryContext(ctx, authorsQuery, ids...)
	if err != nil {
		return fmt.Errorf("query book authors: %w", err)
	}
	for rows.Next() {
		var bookID int64
		var a catalog.Author
		var biography sql.NullString
		if err := rows.Scan(&bookID, &a.ID, &a.Name, &biography); err != nil {
			rows.Close()
			return fmt.Errorf("scan book author: %w", err)
		}
		a.Biography = biography.String
		if b, ok := idx[bookID]; ok {
			b.Authors = append(b.Authors, a)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate book authors: %w", err)
	}
	rows.Close()

	categoriesQuery := `
		SELECT bc.book_id, c.category_id, c.name, c.description
		FROM categories c
		JOIN book_categories bc ON c.category_id = bc.category_id
		WHERE bc.book_id IN (` + ph + `)
		ORDER BY c.name
	`
	rows, err = r.db.QueryContext(ctx, categoriesQuery, ids...)
	if err != nil {
		return fmt.Errorf("query book categories: %w", err)
	}
	for rows.Next() {
		var bookID int64
		var c catalog.Category
		var description sql.NullString
		if err := rows.Scan(&bookID, &c.ID, &c.Name, &description); err != nil {
			rows.Close()
			return fmt.Errorf("scan book category: %w", err)
		}
		c.Description = description.String
		if b, ok := idx[bookID]; ok {
			b.Categories = append(b.Categories, c)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate book categories: %w", err)
	}
	rows.Close()

	openLoansQuery := `
		SELECT booking_id, book_id, reader_id, start_date
		FROM bookings
		WHERE return_date IS NULL AND book_id IN (` + ph + `)
		ORDER BY start_date
	`
	rows, err = r.db.QueryContext(ctx, openLoansQuery, ids...)
	if err != nil {
		return fmt.Errorf("query open loans: %w", err)
	}
	for rows.Next() {
		var bk catalog.Booking
		if err := rows.Scan(&bk.ID, &bk.BookID, &bk.ReaderID, &bk.StartDate); err != nil {
			rows.Close()
			return fmt.Errorf("scan open loan: %w", err)
		}
		bk.StartDate = bk.StartDate.UTC()
		if b, ok := idx[bk.BookID]; ok {
			b.OpenLoans = append(b.OpenLoans, bk)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate open loans: %w", err)
	}
	rows.Close()

	return nil
}

func (r *Repo) GetBooksWithDetails(ctx context.Context) ([]catalog.Book, error) {
	return r.queryBooks(ctx, bookSelect+` ORDER BY b.title`)
}

func (r *Repo) GetBookByID(ctx context.Context, id int64) (*catalog.Book, error) {
	books, err := r.queryBooks(ctx, bookSelect+` WHERE b.book_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get book by ID %d: %w", id, err)
	}
	if len(books) == 0 {
		return nil, ErrNotFound
	}
	return &books[0], nil
}

func (r *Repo) GetBooksByLetter(ctx context.Context, letters string) ([]catalog.Book, error) {
	pattern := titleCaser.String(letters) + "%"
	return r.queryBooks(ctx, bookSelect+`
		WHERE b.title LIKE ? COLLATE NOCASE
		ORDER BY b.title
	`, pattern)
}

// SearchBooks matches the term case-insensitively against book titles,
// descriptions and linked author names.
func (r *Repo) SearchBooks(ctx context.Context, term string) ([]catalog.Book, error) {
	pattern := "%" + foldCaser.String(term) + "%"
	return r.queryBooks(ctx, bookSelect+`
		WHERE b.book_id IN (
			SELECT b2.book_id
			FROM books b2
			LEFT JOIN book_authors ba ON b2.book_id = ba.book_id
			LEFT JOIN authors a ON ba.author_id = a.author_id
			WHERE lower(b2.title) LIKE ?
			   OR lower(IFNULL(b2.description, '')) LIKE ?
			   OR lower(IFNULL(a.name, '')) LIKE ?
		)
		ORDER BY b.title
	`, pattern, pattern, pattern)
}

func (r *Repo) GetBooksByAuthorID(ctx context.Context, authorID int64) ([]catalog.Book, error) {
	return r.queryBooks(ctx, bookSelect+`
		WHERE b.book_id IN (SELECT book_id FROM book_authors WHERE author_id = ?)
		ORDER BY b.title
	`, authorID)
}

func (r *Repo) GetBooksByCategoryID(ctx context.Context, categoryID int64) ([]catalog.Book, error) {
	return r.queryBooks(ctx, bookSelect+`
		WHERE b.book_id IN (SELECT book_id FROM book_categories WHERE category_id = ?)
		ORDER BY b.title
	`, categoryID)
}

func (r *Repo) GetBooksByPublisherID(ctx context.Context, publisherID int64) ([]catalog.Book, error) {
	return r.queryBooks(ctx, bookSelect+`
		WHERE b.publisher_id = ?
		ORDER BY b.title
	`, publisherID)
}

func (r *Repo) GetAvailableBooks(ctx context.Context) ([]catalog.Book, error) {
	return r.queryBooks(ctx, bookSelect+`
		WHERE NOT EXISTS (
			SELECT 1 FROM bookings bk
			WHERE bk.book_id = b.book_id AND bk.return_date IS NULL
		)
		ORDER BY b.title
	`)
}

// GetOverdueBooks returns books whose open loan started before
// overdueBefore.
func (r *Repo) GetOverdueBooks(ctx context.Context, overdueBefore time.Time) ([]catalog.Book, error) {
	return r.queryBooks(ctx, bookSelect+`
		WHERE EXISTS (
			SELECT 1 FROM bookings bk
			WHERE bk.book_id = b.book_id
			  AND bk.return_date IS NULL
			  AND bk.start_date < ?
		)
		ORDER BY b.title
	`, overdueBefore.UTC())
}

func (r *Repo) CountBooks(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

func (r *Repo) CountAvailableBooks(ctx context.Context) (int, error) {
	QUERY := `
		SELECT COUNT(*) FROM books b
		WHERE NOT EXISTS (
			SELECT 1 FROM bookings bk
			WHERE bk.book_id = b.book_id AND bk.return_date IS NULL
		)
	`
	var n int
	if err := r.db.QueryRowContext(ctx, QUERY).Scan(&n); err != nil {
		return 0, fmt.Errorf("count available books: %w", err)
	}
	return n, nil
}

// insertBookLinks writes one association row per author id and per
// category id for the given book. Input lists are deduplicated.
func insertBookLinks(ctx context.Context, tx *sql.Tx, bookID int64, authorIDs, categoryIDs []int64) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO book_authors(book_id, author_id) VALUES(?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare author link insert: %w", err)
	}
	for _, authorID := range dedupeIDs(authorIDs) {
		if _, err := stmt.ExecContext(ctx, bookID, authorID); err != nil {
			stmt.Close()
			return fmt.Errorf("link author %d: %w", authorID, err)
		}
	}
	stmt.Close()

	stmt, err = tx.PrepareContext(ctx, `INSERT INTO book_categories(book_id, category_id) VALUES(?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare category link insert: %w", err)
	}
	defer stmt.Close()
	for _, categoryID := range dedupeIDs(categoryIDs) {
		if _, err := stmt.ExecContext(ctx, bookID, categoryID); err != nil {
			return fmt.Errorf("link category %d: %w", categoryID, err)
		}
	}
	return nil
}

// AddBook inserts the book row and its author/category links as one
// atomic unit, then returns the book rehydrated with all relations.
func (r *Repo) AddBook(ctx context.Context, b *catalog.Book, authorIDs, categoryIDs []int64) (*catalog.Book, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add book: %w", err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO books(title, description, publication_year, publisher_id) VALUES(?, ?, ?, ?)`,
		b.Title, nullString(b.Description), b.PublicationYear, b.PublisherID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert book: %w", err)
	}
	bookID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("book insert id: %w", err)
	}

	if err := insertBookLinks(ctx, tx, bookID, authorIDs, categoryIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add book: %w", err)
	}

	return r.GetBookByID(ctx, bookID)
}

// UpdateBook replaces the book's scalar fields and fully replaces its
// author/category link sets in one transaction.
func (r *Repo) UpdateBook(ctx context.Context, b *catalog.Book, authorIDs, categoryIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update book: %w", err)
	}
	defer rollback(tx)

	var exists int64
	err = tx.QueryRowContext(ctx, `SELECT book_id FROM books WHERE book_id = ?`, b.ID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check book %d: %w", b.ID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE books SET title = ?, description = ?, publication_year = ?, publisher_id = ? WHERE book_id = ?`,
		b.Title, nullString(b.Description), b.PublicationYear, b.PublisherID, b.ID,
	); err != nil {
		return fmt.Errorf("update book %d: %w", b.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM book_authors WHERE book_id = ?`, b.ID); err != nil {
		return fmt.Errorf("clear author links for book %d: %w", b.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM book_categories WHERE book_id = ?`, b.ID); err != nil {
		return fmt.Errorf("clear category links for book %d: %w", b.ID, err)
	}

	if err := insertBookLinks(ctx, tx, b.ID, authorIDs, categoryIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update book: %w", err)
	}
	return nil
}

// DeleteBook removes a book and its link rows. Refused with ErrInUse
// while the book has an open loan; closed loan history keeps its rows.
func (r *Repo) DeleteBook(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete book: %w", err)
	}
	defer rollback(tx)

	var exists int64
	err = tx.QueryRowContext(ctx, `SELECT book_id FROM books WHERE book_id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check book %d: %w", id, err)
	}

	var openLoans int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE book_id = ? AND return_date IS NULL`, id,
	).Scan(&openLoans); err != nil {
		return fmt.Errorf("count open loans for book %d: %w", id, err)
	}
	if openLoans > 0 {
		return ErrInUse
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM book_authors WHERE book_id = ?`, id); err != nil {
		return fmt.Errorf("delete author links for book %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM book_categories WHERE book_id = ?`, id); err != nil {
		return fmt.Errorf("delete category links for book %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE book_id = ?`, id); err != nil {
		return fmt.Errorf("delete loan history for book %d: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM books WHERE book_id = ?`, id); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete book: %w", err)
	}
	return nil
}
