package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/htol/libman/catalog"
	"github.com/htol/libman/logger"
	"github.com/htol/libman/repo"
	"github.com/htol/libman/validator"
)

func init() {
	// Initialize logger for tests
	logger.Init("info")
}

// mockRepository embeds the Repository interface so each test only
// overrides the methods it exercises; calling anything else panics.
type mockRepository struct {
	repo.Repository

	books   []catalog.Book
	readers []catalog.Reader

	totalBooks      int
	availableBooks  int
	totalReaders    int
	activeReaders   int
	activeBookings  int
	overdueBookings int
	totalBookings   int
	countErr        error

	pingErr error
}

func (m *mockRepository) Ping() error {
	return m.pingErr
}

func (m *mockRepository) GetBooksWithDetails(ctx context.Context) ([]catalog.Book, error) {
	return m.books, nil
}

func (m *mockRepository) GetBookByID(ctx context.Context, id int64) (*catalog.Book, error) {
	for i := range m.books {
		if m.books[i].ID == id {
			return &m.books[i], nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *mockRepository) GetReaderByID(ctx context.Context, id int64) (*catalog.Reader, error) {
	for i := range m.readers {
		if m.readers[i].ID == id {
			return &m.readers[i], nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *mockRepository) CountBooks(ctx context.Context) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.totalBooks, nil
}

func (m *mockRepository) CountAvailableBooks(ctx context.Context) (int, error) {
	return m.availableBooks, nil
}

func (m *mockRepository) CountReaders(ctx context.Context) (int, error) {
	return m.totalReaders, nil
}

func (m *mockRepository) CountActiveReaders(ctx context.Context, since time.Time) (int, error) {
	return m.activeReaders, nil
}

func (m *mockRepository) CountActiveBookings(ctx context.Context) (int, error) {
	return m.activeBookings, nil
}

func (m *mockRepository) CountOverdueBookings(ctx context.Context, overdueBefore time.Time) (int, error) {
	return m.overdueBookings, nil
}

func (m *mockRepository) CountBookings(ctx context.Context) (int, error) {
	return m.totalBookings, nil
}

func TestGetBooks(t *testing.T) {
	mock := &mockRepository{
		books: []catalog.Book{
			{ID: 1, Title: "Pride and Prejudice"},
			{ID: 2, Title: "The Shining"},
		},
	}
	svc := New(mock)

	books, err := svc.GetBooks(context.Background())
	if err != nil {
		t.Fatalf("GetBooks failed: %v", err)
	}
	if len(books) != 2 {
		t.Errorf("expected 2 books, got %d", len(books))
	}
}

func TestGetBookByIDValidation(t *testing.T) {
	svc := New(&mockRepository{})

	if _, err := svc.GetBookByID(context.Background(), 0); !errors.Is(err, validator.ErrInvalidID) {
		t.Errorf("expected ErrInvalidID for id 0, got %v", err)
	}
	if _, err := svc.GetBookByID(context.Background(), -5); !errors.Is(err, validator.ErrInvalidID) {
		t.Errorf("expected ErrInvalidID for negative id, got %v", err)
	}
}

func TestGetBookByIDNotFound(t *testing.T) {
	svc := New(&mockRepository{books: []catalog.Book{{ID: 1, Title: "Only One"}}})

	if _, err := svc.GetBookByID(context.Background(), 42); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetBooksByLetterValidation(t *testing.T) {
	svc := New(&mockRepository{})

	if _, err := svc.GetBooksByLetter(context.Background(), ""); !errors.Is(err, validator.ErrEmptyString) {
		t.Errorf("expected ErrEmptyString, got %v", err)
	}
	if _, err := svc.GetBooksByLetter(context.Background(), "9"); !errors.Is(err, validator.ErrInvalidLetter) {
		t.Errorf("expected ErrInvalidLetter, got %v", err)
	}
}

func TestAddReaderValidation(t *testing.T) {
	svc := New(&mockRepository{})
	ctx := context.Background()

	_, err := svc.AddReader(ctx, &catalog.Reader{Name: "No Email"})
	if err == nil || !validator.IsValidationError(err) {
		t.Errorf("expected struct validation error for missing email, got %v", err)
	}

	_, err = svc.AddReader(ctx, &catalog.Reader{Name: "Bad Email", Email: "not-an-email"})
	if err == nil || !validator.IsValidationError(err) {
		t.Errorf("expected struct validation error for malformed email, got %v", err)
	}
}

func TestAddBookValidation(t *testing.T) {
	svc := New(&mockRepository{})

	_, err := svc.AddBook(context.Background(), &catalog.Book{Title: "No Publisher"}, nil, nil)
	if err == nil || !validator.IsValidationError(err) {
		t.Errorf("expected struct validation error for missing publisher, got %v", err)
	}
}

func TestCanBookChecksExistence(t *testing.T) {
	mock := &mockRepository{
		books:   []catalog.Book{{ID: 1, Title: "Known Book"}},
		readers: []catalog.Reader{{ID: 1, Name: "Known Reader", Email: "known@example.com"}},
	}
	svc := New(mock)
	ctx := context.Background()

	if _, err := svc.CanBook(ctx, 99, 1); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown book, got %v", err)
	}
	if _, err := svc.CanBook(ctx, 1, 99); !errors.Is(err, repo.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown reader, got %v", err)
	}
	if _, err := svc.CanBook(ctx, 0, 1); !errors.Is(err, validator.ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestGetBookingsByDateRangeRejectsInvertedRange(t *testing.T) {
	svc := New(&mockRepository{})

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -7)
	if _, err := svc.GetBookingsByDateRange(context.Background(), from, to); err == nil {
		t.Error("expected error for inverted date range")
	}
}

func TestGetStatistics(t *testing.T) {
	mock := &mockRepository{
		totalBooks:      5,
		availableBooks:  3,
		totalReaders:    3,
		activeReaders:   2,
		activeBookings:  2,
		overdueBookings: 1,
		totalBookings:   7,
	}
	svc := New(mock)

	stats, err := svc.GetStatistics(context.Background())
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}
	want := catalog.Statistics{
		TotalBooks:      5,
		AvailableBooks:  3,
		TotalReaders:    3,
		ActiveReaders:   2,
		ActiveBookings:  2,
		OverdueBookings: 1,
		TotalBookings:   7,
	}
	if *stats != want {
		t.Errorf("GetStatistics = %+v, want %+v", *stats, want)
	}
}

func TestGetStatisticsPropagatesError(t *testing.T) {
	mock := &mockRepository{countErr: errors.New("db gone")}
	svc := New(mock)

	if _, err := svc.GetStatistics(context.Background()); err == nil {
		t.Error("expected error when a counter query fails")
	}
}

func TestPing(t *testing.T) {
	svc := New(&mockRepository{})
	if err := svc.Ping(); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	svc = New(&mockRepository{pingErr: errors.New("down")})
	if err := svc.Ping(); err == nil {
		t.Error("expected ping error to propagate")
	}
}
