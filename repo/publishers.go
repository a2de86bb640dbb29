package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/htol/libman/catalog"
)

func (r *Repo) GetPublishers(ctx context.Context) ([]catalog.Publisher, error) {
	QUERY := `SELECT publisher_id, name, address FROM publishers ORDER BY name`

	rows, err := r.db.QueryContext(ctx, QUERY)
	if err != nil {
		return nil, fmt.Errorf("query publishers: %w", err)
	}
	defer rows.Close()

	publishers := make([]catalog.Publisher, 0)
	for rows.Next() {
		var p catalog.Publisher
		var address sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &address); err != nil {
			return nil, fmt.Errorf("scan publisher: %w", err)
		}
		p.Address = address.String
		publishers = append(publishers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate publishers: %w", err)
	}

	return publishers, nil
}

func (r *Repo) GetPublisherByID(ctx context.Context, id int64) (*catalog.Publisher, error) {
	QUERY := `SELECT publisher_id, name, address FROM publishers WHERE publisher_id = ?`

	var p catalog.Publisher
	var address sql.NullString
	err := r.db.QueryRowContext(ctx, QUERY, id).Scan(&p.ID, &p.Name, &address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get publisher by ID %d: %w", id, err)
	}
	p.Address = address.String

	return &p, nil
}

func (r *Repo) AddPublisher(ctx context.Context, p *catalog.Publisher) (*catalog.Publisher, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO publishers(name, address) VALUES(?, ?)`,
		p.Name, nullString(p.Address),
	)
	if err != nil {
		return nil, fmt.Errorf("insert publisher: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("publisher insert id: %w", err)
	}

	added := *p
	added.ID = id
	return &added, nil
}

func (r *Repo) UpdatePublisher(ctx context.Context, p *catalog.Publisher) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE publishers SET name = ?, address = ? WHERE publisher_id = ?`,
		p.Name, nullString(p.Address), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update publisher %d: %w", p.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update publisher %d: %w", p.ID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePublisher is restricted while any book references the
// publisher (restrict-on-delete semantics).
func (r *Repo) DeletePublisher(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete publisher: %w", err)
	}
	defer rollback(tx)

	var exists int64
	err = tx.QueryRowContext(ctx, `SELECT publisher_id FROM publishers WHERE publisher_id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check publisher %d: %w", id, err)
	}

	var books int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books WHERE publisher_id = ?`, id,
	).Scan(&books); err != nil {
		return fmt.Errorf("count books for publisher %d: %w", id, err)
	}
	if books > 0 {
		return ErrInUse
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM publishers WHERE publisher_id = ?`, id); err != nil {
		return fmt.Errorf("delete publisher %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete publisher: %w", err)
	}
	return nil
}
