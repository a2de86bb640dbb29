package repo

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/htol/libman/config"
	"github.com/htol/libman/logger"
)

type Repo struct {
	db   *sql.DB
	path string
}

// memoryDSN is the volatile fallback used when no database path is
// configured. cache=shared keeps the store alive across pooled
// connections; data is lost on process exit.
const memoryDSN = "file:libman?mode=memory&cache=shared"

func GetStorage(path string) *Repo {
	return GetStorageWithConfig(path, config.Load())
}

func GetStorageWithConfig(path string, cfg *config.Config) *Repo {
	r := &Repo{path: path}

	dsn := memoryDSN + "&_loc=UTC&_foreign_keys=on"
	if path != "" {
		dsn = "file:" + path + "?cache=shared&mode=rwc&_journal_mode=WAL&_loc=UTC&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		logger.Error("Failed to open database", "path", r.path, "error", err)
		panic(err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)
	if path == "" {
		// The shared in-memory store vanishes once its last connection
		// closes, so never rotate or drain the pool completely.
		db.SetConnMaxLifetime(0)
		if cfg.Database.MaxIdleConns < 1 {
			db.SetMaxIdleConns(1)
		}
	}

	if _, err := db.Exec("PRAGMA cache_size = -64000"); err != nil {
		logger.Warn("Failed to set cache_size", "error", err)
	}
	if _, err := db.Exec("PRAGMA temp_store = MEMORY"); err != nil {
		logger.Warn("Failed to set temp_store", "error", err)
	}

	r.db = db

	if err := r.CreateSchema(); err != nil {
		logger.Error("Failed to create schema/indexes", "error", err)
		panic(err)
	}

	return r
}

func (r *Repo) Close() error {
	if r.db != nil {
		logger.Info("Closing database connection")
		return r.db.Close()
	}
	return nil
}

func (r *Repo) Ping() error {
	if r.db != nil {
		return r.db.Ping()
	}
	return sql.ErrConnDone
}

// placeholders returns "?, ?, ..." for n bound parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// dedupeIDs drops duplicate ids while preserving first-seen order, so
// link-table inserts never violate the (book, author/category) primary
// key pair.
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// nullString maps empty strings to NULL for optional text columns.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error("Failed to rollback transaction", "error", err)
	}
}
