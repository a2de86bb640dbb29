package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/htol/libman/catalog"
)

func (r *Repo) GetCategories(ctx context.Context) ([]catalog.Category, error) {
	QUERY := `SELECT category_id, name, description FROM categories ORDER BY name`

	rows, err := r.db.QueryContext(ctx, QUERY)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]catalog.Category, 0)
	for rows.Next() {
		var c catalog.Category
		var description sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Description = description.String
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

func (r *Repo) GetCategoryByID(ctx context.Context, id int64) (*catalog.Category, error) {
	QUERY := `SELECT category_id, name, description FROM categories WHERE category_id = ?`

	var c catalog.Category
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, QUERY, id).Scan(&c.ID, &c.Name, &description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category by ID %d: %w", id, err)
	}
	c.Description = description.String

	return &c, nil
}

func (r *Repo) AddCategory(ctx context.Context, c *catalog.Category) (*catalog.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories(name, description) VALUES(?, ?)`,
		c.Name, nullString(c.Description),
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("category insert id: %w", err)
	}

	added := *c
	added.ID = id
	return &added, nil
}

func (r *Repo) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ? WHERE category_id = ?`,
		c.Name, nullString(c.Description), c.ID,
	)
	if err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer rollback(tx)

	var exists int64
	err = tx.QueryRowContext(ctx, `SELECT category_id FROM categories WHERE category_id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check category %d: %w", id, err)
	}

	var links int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM book_categories WHERE category_id = ?`, id,
	).Scan(&links); err != nil {
		return fmt.Errorf("count book links for category %d: %w", id, err)
	}
	if links > 0 {
		return ErrInUse
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE category_id = ?`, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}
	return nil
}
