package repo

import (
	"context"
	"errors"
	"time"

	"github.com/htol/libman/catalog"
)

// ErrNotFound is returned when a record is not found in the repository
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a write collides with an existing record
// (currently: duplicate reader email).
var ErrConflict = errors.New("record conflicts with an existing record")

// ErrInUse is returned when a delete is refused because other records
// still reference the target (open loans, book links).
var ErrInUse = errors.New("record is referenced by other records")

// ErrAlreadyReturned is returned when a booking return is requested for
// a loan that is already closed. The stored return date is never
// overwritten.
var ErrAlreadyReturned = errors.New("booking is already returned")

// Eligibility refusals raised by CreateBooking. The lending policy maps
// these to reason codes for callers.
var (
	ErrBookUnavailable   = errors.New("book has an open loan")
	ErrReaderAtLoanLimit = errors.New("reader has reached the active loan limit")
	ErrReaderOverdue     = errors.New("reader has an overdue loan")
)

// Repository is the storage port for the library catalog and loan
// records.
//
// Hydration contract: book reads attach publisher, authors, categories
// and open loans (one level, no nested graphs). Reader reads attach the
// reader's bookings. Booking reads attach the base book row and the
// base reader row. Anything deeper is deliberately omitted.
type Repository interface {
	// Close closes the database connection
	Close() error

	// Health check
	Ping() error

	// Books
	GetBooksWithDetails(ctx context.Context) ([]catalog.Book, error)
	GetBookByID(ctx context.Context, id int64) (*catalog.Book, error)
	GetBooksByLetter(ctx context.Context, letters string) ([]catalog.Book, error)
	SearchBooks(ctx context.Context, term string) ([]catalog.Book, error)
	GetBooksByAuthorID(ctx context.Context, authorID int64) ([]catalog.Book, error)
	GetBooksByCategoryID(ctx context.Context, categoryID int64) ([]catalog.Book, error)
	GetBooksByPublisherID(ctx context.Context, publisherID int64) ([]catalog.Book, error)
	GetAvailableBooks(ctx context.Context) ([]catalog.Book, error)
	GetOverdueBooks(ctx context.Context, overdueBefore time.Time) ([]catalog.Book, error)
	AddBook(ctx context.Context, b *catalog.Book, authorIDs, categoryIDs []int64) (*catalog.Book, error)
	UpdateBook(ctx context.Context, b *catalog.Book, authorIDs, categoryIDs []int64) error
	DeleteBook(ctx context.Context, id int64) error
	CountBooks(ctx context.Context) (int, error)
	CountAvailableBooks(ctx context.Context) (int, error)

	// Authors
	GetAuthors(ctx context.Context) ([]catalog.Author, error)
	GetAuthorsWithBookCount(ctx context.Context) ([]catalog.AuthorWithBookCount, error)
	GetAuthorsByLetter(ctx context.Context, letters string) ([]catalog.AuthorWithBookCount, error)
	GetAuthorByID(ctx context.Context, id int64) (*catalog.Author, error)
	SearchAuthors(ctx context.Context, term string) ([]catalog.Author, error)
	AddAuthor(ctx context.Context, a *catalog.Author) (*catalog.Author, error)
	UpdateAuthor(ctx context.Context, a *catalog.Author) error
	DeleteAuthor(ctx context.Context, id int64) error

	// Categories
	GetCategories(ctx context.Context) ([]catalog.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*catalog.Category, error)
	AddCategory(ctx context.Context, c *catalog.Category) (*catalog.Category, error)
	UpdateCategory(ctx context.Context, c *catalog.Category) error
	DeleteCategory(ctx context.Context, id int64) error

	// Publishers
	GetPublishers(ctx context.Context) ([]catalog.Publisher, error)
	GetPublisherByID(ctx context.Context, id int64) (*catalog.Publisher, error)
	AddPublisher(ctx context.Context, p *catalog.Publisher) (*catalog.Publisher, error)
	UpdatePublisher(ctx context.Context, p *catalog.Publisher) error
	DeletePublisher(ctx context.Context, id int64) error

	// Readers
	GetReaders(ctx context.Context) ([]catalog.Reader, error)
	GetReaderByID(ctx context.Context, id int64) (*catalog.Reader, error)
	GetReaderByEmail(ctx context.Context, email string) (*catalog.Reader, error)
	SearchReaders(ctx context.Context, term string) ([]catalog.Reader, error)
	GetReadersWithOverdueLoans(ctx context.Context, overdueBefore time.Time) ([]catalog.Reader, error)
	GetActiveReaders(ctx context.Context, since time.Time) ([]catalog.Reader, error)
	IsEmailUnique(ctx context.Context, email string, excludeReaderID int64) (bool, error)
	AddReader(ctx context.Context, rd *catalog.Reader) (*catalog.Reader, error)
	UpdateReader(ctx context.Context, rd *catalog.Reader) error
	DeleteReader(ctx context.Context, id int64) error
	CountReaders(ctx context.Context) (int, error)
	CountActiveReaders(ctx context.Context, since time.Time) (int, error)

	// Bookings
	GetBookings(ctx context.Context) ([]catalog.Booking, error)
	GetBookingByID(ctx context.Context, id int64) (*catalog.Booking, error)
	GetActiveBookings(ctx context.Context) ([]catalog.Booking, error)
	GetOverdueBookings(ctx context.Context, overdueBefore time.Time) ([]catalog.Booking, error)
	GetBookingsByReader(ctx context.Context, readerID int64) ([]catalog.Booking, error)
	GetBookingsByBook(ctx context.Context, bookID int64) ([]catalog.Booking, error)
	GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]catalog.Booking, error)
	CountOpenLoansByBook(ctx context.Context, bookID int64) (int, error)
	CountOpenLoansByReader(ctx context.Context, readerID int64) (int, error)
	HasOverdueLoans(ctx context.Context, readerID int64, overdueBefore time.Time) (bool, error)
	CountBookings(ctx context.Context) (int, error)
	CountActiveBookings(ctx context.Context) (int, error)
	CountOverdueBookings(ctx context.Context, overdueBefore time.Time) (int, error)

	// CreateBooking persists a new loan. When returned is nil the loan
	// is open and eligibility is re-checked inside the same transaction
	// as the insert (maxActive open loans per reader, no open loan older
	// than overdueBefore, book not already on loan). A non-nil returned
	// records pre-closed history and skips the eligibility checks.
	CreateBooking(ctx context.Context, bookID, readerID int64, start time.Time, returned *time.Time, maxActive int, overdueBefore time.Time) (*catalog.Booking, error)

	// ReturnBook closes an open loan at returnedAt. Idempotency:
	// a second return yields ErrAlreadyReturned and leaves the stored
	// return date untouched.
	ReturnBook(ctx context.Context, bookingID int64, returnedAt time.Time) error
}
