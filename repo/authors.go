package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/htol/libman/catalog"
)

func scanAuthorRows(rows *sql.Rows) ([]catalog.Author, error) {
	authors := make([]catalog.Author, 0)
	for rows.Next() {
		var a catalog.Author
		var biography sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &biography); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		a.Biography = biography.String
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authors: %w", err)
	}
	return authors, nil
}

func (r *Repo) GetAuthors(ctx context.Context) ([]catalog.Author, error) {
	QUERY := `SELECT author_id, name, biography FROM authors ORDER BY name`

	rows, err := r.db.QueryContext(ctx, QUERY)
	if err != nil {
		return nil, fmt.Errorf("query authors: %w", err)
	}
	defer rows.Close()

	return scanAuthorRows(rows)
}

func (r *Repo) GetAuthorsWithBookCount(ctx context.Context) ([]catalog.AuthorWithBookCount, error) {
	QUERY := `
		SELECT a.author_id, a.name, a.biography, COUNT(ba.book_id) as book_count
		FROM authors a
		LEFT JOIN book_authors ba ON a.author_id = ba.author_id
		GROUP BY a.author_id, a.name, a.biography
		ORDER BY a.name
	`

	rows, err := r.db.QueryContext(ctx, QUERY)
	if err != nil {
		return nil, fmt.Errorf("query authors with book count: %w", err)
	}
	defer rows.Close()

	authors := make([]catalog.AuthorWithBookCount, 0)
	for rows.Next() {
		var a catalog.AuthorWithBookCount
		var biography sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &biography, &a.BookCount); err != nil {
			return nil, fmt.Errorf("scan author with count: %w", err)
		}
		a.Biography = biography.String
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authors with count: %w", err)
	}

	return authors, nil
}

func (r *Repo) GetAuthorsByLetter(ctx context.Context, letters string) ([]catalog.AuthorWithBookCount, error) {
	pattern := titleCaser.String(letters) + "%"
	QUERY := `
		SELECT a.author_id, a.name, a.biography, COUNT(ba.book_id) as book_count
		FROM authors a
		LEFT JOIN book_authors ba ON a.author_id = ba.author_id
		WHERE a.name LIKE ? COLLATE NOCASE
		GROUP BY a.author_id, a.name, a.biography
		ORDER BY a.name
	`

	rows, err := r.db.QueryContext(ctx, QUERY, pattern)
	if err != nil {
		return nil, fmt.Errorf("query authors by letter: %w", err)
	}
	defer rows.Close()

	authors := make([]catalog.AuthorWithBookCount, 0)
	for rows.Next() {
		var a catalog.AuthorWithBookCount
		var biography sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &biography, &a.BookCount); err != nil {
			return nil, fmt.Errorf("scan author by letter: %w", err)
		}
		a.Biography = biography.String
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authors by letter: %w", err)
	}

	return authors, nil
}

func (r *Repo) GetAuthorByID(ctx context.Context, id int64) (*catalog.Author, error) {
	QUERY := `SELECT author_id, name, biography FROM authors WHERE author_id = ?`

	var a catalog.Author
	var biography sql.NullString
	err := r.db.QueryRowContext(ctx, QUERY, id).Scan(&a.ID, &a.Name, &biography)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get author by ID %d: %w", id, err)
	}
	a.Biography = biography.String

	return &a, nil
}

func (r *Repo) SearchAuthors(ctx context.Context, term string) ([]catalog.Author, error) {
	pattern := "%" + foldCaser.String(term) + "%"
	QUERY := `
		SELECT author_id, name, biography FROM authors
		WHERE lower(name) LIKE ?
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, QUERY, pattern)
	if err != nil {
		return nil, fmt.Errorf("search authors: %w", err)
	}
	defer rows.Close()

	return scanAuthorRows(rows)
}

func (r *Repo) AddAuthor(ctx context.Context, a *catalog.Author) (*catalog.Author, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO authors(name, biography) VALUES(?, ?)`,
		a.Name, nullString(a.Biography),
	)
	if err != nil {
		return nil, fmt.Errorf("insert author: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("author insert id: %w", err)
	}

	added := *a
	added.ID = id
	return &added, nil
}

func (r *Repo) UpdateAuthor(ctx context.Context, a *catalog.Author) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE authors SET name = ?, biography = ? WHERE author_id = ?`,
		a.Name, nullString(a.Biography), a.ID,
	)
	if err != nil {
		return fmt.Errorf("update author %d: %w", a.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update author %d: %w", a.ID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAuthor refuses with ErrInUse while any book links the author;
// drop the link first (update the book's author list) to delete.
func (r *Repo) DeleteAuthor(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete author: %w", err)
	}
	defer rollback(tx)

	var exists int64
	err = tx.QueryRowContext(ctx, `SELECT author_id FROM authors WHERE author_id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check author %d: %w", id, err)
	}

	var links int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM book_authors WHERE author_id = ?`, id,
	).Scan(&links); err != nil {
		return fmt.Errorf("count book links for author %d: %w", id, err)
	}
	if links > 0 {
		return ErrInUse
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM authors WHERE author_id = ?`, id); err != nil {
		return fmt.Errorf("delete author %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete author: %w", err)
	}
	return nil
}
