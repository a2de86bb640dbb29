package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/htol/libman/catalog"
	"github.com/htol/libman/logger"
)

func init() {
	logger.Init("info")
}

// cleanupTestDB removes the test database and any SQLite WAL files
func cleanupTestDB(path string) {
	os.Remove(path)
	os.Remove(path + "-shm")
	os.Remove(path + "-wal")
}

func newTestRepo(t *testing.T, path string) *Repo {
	t.Helper()
	cleanupTestDB(path)
	db := GetStorage(path)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Error closing storage: %v", err)
		}
		cleanupTestDB(path)
	})
	return db
}

func mustAddPublisher(t *testing.T, db *Repo, name string) *catalog.Publisher {
	t.Helper()
	p, err := db.AddPublisher(context.Background(), &catalog.Publisher{Name: name})
	if err != nil {
		t.Fatalf("AddPublisher(%q) failed: %v", name, err)
	}
	return p
}

func mustAddAuthor(t *testing.T, db *Repo, name string) *catalog.Author {
	t.Helper()
	a, err := db.AddAuthor(context.Background(), &catalog.Author{Name: name})
	if err != nil {
		t.Fatalf("AddAuthor(%q) failed: %v", name, err)
	}
	return a
}

func mustAddCategory(t *testing.T, db *Repo, name string) *catalog.Category {
	t.Helper()
	c, err := db.AddCategory(context.Background(), &catalog.Category{Name: name})
	if err != nil {
		t.Fatalf("AddCategory(%q) failed: %v", name, err)
	}
	return c
}

func mustAddBook(t *testing.T, db *Repo, title string, publisherID int64, authorIDs, categoryIDs []int64) *catalog.Book {
	t.Helper()
	b, err := db.AddBook(context.Background(), &catalog.Book{
		Title:       title,
		PublisherID: publisherID,
	}, authorIDs, categoryIDs)
	if err != nil {
		t.Fatalf("AddBook(%q) failed: %v", title, err)
	}
	return b
}

func mustAddReader(t *testing.T, db *Repo, name, email string) *catalog.Reader {
	t.Helper()
	rd, err := db.AddReader(context.Background(), &catalog.Reader{Name: name, Email: email})
	if err != nil {
		t.Fatalf("AddReader(%q) failed: %v", email, err)
	}
	return rd
}

// mustOpenLoan creates an open loan with the given age in days.
func mustOpenLoan(t *testing.T, db *Repo, bookID, readerID int64, ageDays int) *catalog.Booking {
	t.Helper()
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -ageDays)
	bk, err := db.CreateBooking(context.Background(), bookID, readerID, start, nil, 1000, now.AddDate(0, 0, -10000))
	if err != nil {
		t.Fatalf("CreateBooking(book=%d, reader=%d) failed: %v", bookID, readerID, err)
	}
	return bk
}
