// Package service is the application facade: it validates input,
// delegates to the repository and the lending policy, and wraps errors
// with operation context.
package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/htol/libman/catalog"
	"github.com/htol/libman/lending"
	"github.com/htol/libman/repo"
	"github.com/htol/libman/validator"
)

// ActiveReaderWindowDays is how far back a loan still counts a reader
// as active.
const ActiveReaderWindowDays = 90

type Service struct {
	repo    repo.Repository
	lending *lending.Policy
}

func New(r repo.Repository) *Service {
	return &Service{
		repo:    r,
		lending: lending.NewPolicy(r),
	}
}

// Lending exposes the loan policy for callers that need eligibility
// checks directly.
func (s *Service) Lending() *lending.Policy {
	return s.lending
}

func (s *Service) Ping() error {
	return s.repo.Ping()
}

// Books

func (s *Service) GetBooks(ctx context.Context) ([]catalog.Book, error) {
	books, err := s.repo.GetBooksWithDetails(ctx)
	if err != nil {
		return nil, fmt.Errorf("get books: %w", err)
	}
	return books, nil
}

func (s *Service) GetBookByID(ctx context.Context, id int64) (*catalog.Book, error) {
	if err := validator.ValidateID(id); err != nil {
		return nil, err
	}
	book, err := s.repo.GetBookByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}
	return book, nil
}

func (s *Service) GetBooksByLetter(ctx context.Context, letters string) ([]catalog.Book, error) {
	if err := validator.ValidateLetter(letters); err != nil {
		return nil, err
	}
	books, err := s.repo.GetBooksByLetter(ctx, letters)
	if err != nil {
		return nil, fmt.Errorf("get books by letter %q: %w", letters, err)
	}
	return books, nil
}

func (s *Service) SearchBooks(ctx context.Context, term string) ([]catalog.Book, error) {
	if err := validator.ValidateNonEmpty(term); err != nil {
		return nil, err
	}
	books, err := s.repo.SearchBooks(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search books %q: %w", term, err)
	}
	return books, nil
}

func (s *Service) GetBooksByAuthor(ctx context.Context, authorID int64) ([]catalog.Book, error) {
	if err := validator.ValidateID(authorID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetAuthorByID(ctx, authorID); err != nil {
		return nil, fmt.Errorf("get author %d: %w", authorID, err)
	}
	books, err := s.repo.GetBooksByAuthorID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("get books by author %d: %w", authorID, err)
	}
	return books, nil
}

func (s *Service) GetBooksByCategory(ctx context.Context, categoryID int64) ([]catalog.Book, error) {
	if err := validator.ValidateID(categoryID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetCategoryByID(ctx, categoryID); err != nil {
		return nil, fmt.Errorf("get category %d: %w", categoryID, err)
	}
	books, err := s.repo.GetBooksByCategoryID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("get books by category %d: %w", categoryID, err)
	}
	return books, nil
}

func (s *Service) GetBooksByPublisher(ctx context.Context, publisherID int64) ([]catalog.Book, error) {
	if err := validator.ValidateID(publisherID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetPublisherByID(ctx, publisherID); err != nil {
		return nil, fmt.Errorf("get publisher %d: %w", publisherID, err)
	}
	books, err := s.repo.GetBooksByPublisherID(ctx, publisherID)
	if err != nil {
		return nil, fmt.Errorf("get books by publisher %d: %w", publisherID, err)
	}
	return books, nil
}

func (s *Service) GetAvailableBooks(ctx context.Context) ([]catalog.Book, error) {
	books, err := s.repo.GetAvailableBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("get available books: %w", err)
	}
	return books, nil
}

func (s *Service) GetOverdueBooks(ctx context.Context) ([]catalog.Book, error) {
	books, err := s.lending.OverdueBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("get overdue books: %w", err)
	}
	return books, nil
}

func (s *Service) AddBook(ctx context.Context, b *catalog.Book, authorIDs, categoryIDs []int64) (*catalog.Book, error) {
	if err := validator.Struct(b); err != nil {
		return nil, err
	}
	added, err := s.repo.AddBook(ctx, b, authorIDs, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}
	return added, nil
}

func (s *Service) UpdateBook(ctx context.Context, b *catalog.Book, authorIDs, categoryIDs []int64) error {
	if err := validator.ValidateID(b.ID); err != nil {
		return err
	}
	if err := validator.Struct(b); err != nil {
		return err
	}
	if err := s.repo.UpdateBook(ctx, b, authorIDs, categoryIDs); err != nil {
		return fmt.Errorf("update book %d: %w", b.ID, err)
	}
	return nil
}

func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	if err := validator.ValidateID(id); err != nil {
		return err
	}
	if err := s.repo.DeleteBook(ctx, id); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	return nil
}

// Authors

func (s *Service) GetAuthors(ctx context.Context) ([]catalog.AuthorWithBookCount, error) {
	authors, err := s.repo.GetAuthorsWithBookCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("get authors: %w", err)
	}
	return authors, nil
}

func (s *Service) GetAuthorsByLetter(ctx context.Context, letters string) ([]catalog.AuthorWithBookCount, error) {
	if err := validator.ValidateLetter(letters); err != nil {
		return nil, err
	}
	authors, err := s.repo.GetAuthorsByLetter(ctx, letters)
	if err != nil {
		return nil, fmt.Errorf("get authors by letter %q: %w", letters, err)
	}
	return authors, nil
}

func (s *Service) GetAuthorByID(ctx context.Context, id int64) (*catalog.Author, error) {
	if err := validator.ValidateID(id); err != nil {
		return nil, err
	}
	author, err := s.repo.GetAuthorByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get author %d: %w", id, err)
	}
	return author, nil
}

func (s *Service) SearchAuthors(ctx context.Context, term string) ([]catalog.Author, error) {
	if err := validator.ValidateNonEmpty(term); err != nil {
		return nil, err
	}
	authors, err := s.repo.SearchAuthors(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search authors %q: %w", term, err)
	}
	return authors, nil
}

func (s *Service) AddAuthor(ctx context.Context, a *catalog.Author) (*catalog.Author, error) {
	if err := validator.Struct(a); err != nil {
		return nil, err
	}
	added, err := s.repo.AddAuthor(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("add author: %w", err)
	}
	return added, nil
}

func (s *Service) UpdateAuthor(ctx context.Context, a *catalog.Author) error {
	if err := validator.ValidateID(a.ID); err != nil {
		return err
	}
	if err := validator.Struct(a); err != nil {
		return err
	}
	if err := s.repo.UpdateAuthor(ctx, a); err != nil {
		return fmt.Errorf("update author %d: %w", a.ID, err)
	}
	return nil
}

func (s *Service) DeleteAuthor(ctx context.Context, id int64) error {
	if err := validator.ValidateID(id); err != nil {
		return err
	}
	if err := s.repo.DeleteAuthor(ctx, id); err != nil {
		return fmt.Errorf("delete author %d: %w", id, err)
	}
	return nil
}

// Categories

func (s *Service) GetCategories(ctx context.Context) ([]catalog.Category, error) {
	categories, err := s.repo.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	return categories, nil
}

func (s *Service) GetCategoryByID(ctx context.Context, id int64) (*catalog.Category, error) {
	if err := validator.ValidateID(id); err != nil {
		return nil, err
	}
	category, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	return category, nil
}

func (s *Service) AddCategory(ctx context.Context, c *catalog.Category) (*catalog.Category, error) {
	if err := validator.Struct(c); err != nil {
		return nil, err
	}
	added, err := s.repo.AddCategory(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("add category: %w", err)
	}
	return added, nil
}

func (s *Service) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	if err := validator.ValidateID(c.ID); err != nil {
		return err
	}
	if err := validator.Struct(c); err != nil {
		return err
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	return nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := validator.ValidateID(id); err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}

// Publishers

func (s *Service) GetPublishers(ctx context.Context) ([]catalog.Publisher, error) {
	publishers, err := s.repo.GetPublishers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get publishers: %w", err)
	}
	return publishers, nil
}

func (s *Service) GetPublisherByID(ctx context.Context, id int64) (*catalog.Publisher, error) {
	if err := validator.ValidateID(id); err != nil {
		return nil, err
	}
	publisher, err := s.repo.GetPublisherByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get publisher %d: %w", id, err)
	}
	return publisher, nil
}

func (s *Service) AddPublisher(ctx context.Context, p *catalog.Publisher) (*catalog.Publisher, error) {
	if err := validator.Struct(p); err != nil {
		return nil, err
	}
	added, err := s.repo.AddPublisher(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("add publisher: %w", err)
	}
	return added, nil
}

func (s *Service) UpdatePublisher(ctx context.Context, p *catalog.Publisher) error {
	if err := validator.ValidateID(p.ID); err != nil {
		return err
	}
	if err := validator.Struct(p); err != nil {
		return err
	}
	if err := s.repo.UpdatePublisher(ctx, p); err != nil {
		return fmt.Errorf("update publisher %d: %w", p.ID, err)
	}
	return nil
}

func (s *Service) DeletePublisher(ctx context.Context, id int64) error {
	if err := validator.ValidateID(id); err != nil {
		return err
	}
	if err := s.repo.DeletePublisher(ctx, id); err != nil {
		return fmt.Errorf("delete publisher %d: %w", id, err)
	}
	return nil
}

// Readers

func (s *Service) GetReaders(ctx context.Context) ([]catalog.Reader, error) {
	readers, err := s.repo.GetReaders(ctx)
	if err != nil {
		return nil, fmt.Errorf("get readers: %w", err)
	}
	return readers, nil
}

func (s *Service) GetReaderByID(ctx context.Context, id int64) (*catalog.Reader, error) {
	if err := validator.ValidateID(id); err != nil {
		return nil, err
	}
	reader, err := s.repo.GetReaderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get reader %d: %w", id, err)
	}
	return reader, nil
}

func (s *Service) GetReaderByEmail(ctx context.Context, email string) (*catalog.Reader, error) {
	if err := validator.ValidateNonEmpty(email); err != nil {
		return nil, err
	}
	reader, err := s.repo.GetReaderByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get reader by email: %w", err)
	}
	return reader, nil
}

func (s *Service) SearchReaders(ctx context.Context, term string) ([]catalog.Reader, error) {
	if err := validator.ValidateNonEmpty(term); err != nil {
		return nil, err
	}
	readers, err := s.repo.SearchReaders(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search readers %q: %w", term, err)
	}
	return readers, nil
}

func (s *Service) GetReadersWithOverdueLoans(ctx context.Context) ([]catalog.Reader, error) {
	readers, err := s.lending.ReadersWithOverdueLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("get readers with overdue loans: %w", err)
	}
	return readers, nil
}

func (s *Service) GetActiveReaders(ctx context.Context) ([]catalog.Reader, error) {
	since := time.Now().UTC().AddDate(0, 0, -ActiveReaderWindowDays)
	readers, err := s.repo.GetActiveReaders(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("get active readers: %w", err)
	}
	return readers, nil
}

func (s *Service) IsEmailUnique(ctx context.Context, email string, excludeReaderID int64) (bool, error) {
	if err := validator.ValidateNonEmpty(email); err != nil {
		return false, err
	}
	unique, err := s.repo.IsEmailUnique(ctx, email, excludeReaderID)
	if err != nil {
		return false, fmt.Errorf("check email uniqueness: %w", err)
	}
	return unique, nil
}

func (s *Service) AddReader(ctx context.Context, rd *catalog.Reader) (*catalog.Reader, error) {
	if err := validator.Struct(rd); err != nil {
		return nil, err
	}
	added, err := s.repo.AddReader(ctx, rd)
	if err != nil {
		return nil, fmt.Errorf("add reader: %w", err)
	}
	return added, nil
}

func (s *Service) UpdateReader(ctx context.Context, rd *catalog.Reader) error {
	if err := validator.ValidateID(rd.ID); err != nil {
		return err
	}
	if err := validator.Struct(rd); err != nil {
		return err
	}
	if err := s.repo.UpdateReader(ctx, rd); err != nil {
		return fmt.Errorf("update reader %d: %w", rd.ID, err)
	}
	return nil
}

func (s *Service) DeleteReader(ctx context.Context, id int64) error {
	if err := validator.ValidateID(id); err != nil {
		return err
	}
	if err := s.repo.DeleteReader(ctx, id); err != nil {
		return fmt.Errorf("delete reader %d: %w", id, err)
	}
	return nil
}

// Bookings

func (s *Service) GetBookings(ctx context.Context) ([]catalog.Booking, error) {
	bookings, err := s.repo.GetBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get bookings: %w", err)
	}
	return bookings, nil
}

func (s *Service) GetBookingByID(ctx context.Context, id int64) (*catalog.Booking, error) {
	if err := validator.ValidateID(id); err != nil {
		return nil, err
	}
	booking, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	return booking, nil
}

func (s *Service) GetActiveBookings(ctx context.Context) ([]catalog.Booking, error) {
	bookings, err := s.lending.ActiveBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active bookings: %w", err)
	}
	return bookings, nil
}

func (s *Service) GetOverdueBookings(ctx context.Context) ([]catalog.Booking, error) {
	bookings, err := s.lending.OverdueBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get overdue bookings: %w", err)
	}
	return bookings, nil
}

func (s *Service) GetBookingsByReader(ctx context.Context, readerID int64) ([]catalog.Booking, error) {
	if err := validator.ValidateID(readerID); err != nil {
		return nil, err
	}
	bookings, err := s.repo.GetBookingsByReader(ctx, readerID)
	if err != nil {
		return nil, fmt.Errorf("get bookings by reader %d: %w", readerID, err)
	}
	return bookings, nil
}

func (s *Service) GetBookingsByBook(ctx context.Context, bookID int64) ([]catalog.Booking, error) {
	if err := validator.ValidateID(bookID); err != nil {
		return nil, err
	}
	bookings, err := s.repo.GetBookingsByBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("get bookings by book %d: %w", bookID, err)
	}
	return bookings, nil
}

func (s *Service) GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]catalog.Booking, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid date range: %s is after %s", from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	bookings, err := s.repo.GetBookingsByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("get bookings by date range: %w", err)
	}
	return bookings, nil
}

func (s *Service) CanBook(ctx context.Context, bookID, readerID int64) (lending.Decision, error) {
	if err := validator.ValidateID(bookID); err != nil {
		return lending.Decision{}, err
	}
	if err := validator.ValidateID(readerID); err != nil {
		return lending.Decision{}, err
	}
	if _, err := s.repo.GetBookByID(ctx, bookID); err != nil {
		return lending.Decision{}, fmt.Errorf("get book %d: %w", bookID, err)
	}
	if _, err := s.repo.GetReaderByID(ctx, readerID); err != nil {
		return lending.Decision{}, fmt.Errorf("get reader %d: %w", readerID, err)
	}
	return s.lending.CanBook(ctx, bookID, readerID)
}

func (s *Service) CreateBooking(ctx context.Context, bookID, readerID int64) (*catalog.Booking, error) {
	if err := validator.ValidateID(bookID); err != nil {
		return nil, err
	}
	if err := validator.ValidateID(readerID); err != nil {
		return nil, err
	}
	return s.lending.CreateBooking(ctx, bookID, readerID)
}

func (s *Service) ReturnBook(ctx context.Context, bookingID int64) error {
	if err := validator.ValidateID(bookingID); err != nil {
		return err
	}
	if err := s.lending.ReturnBook(ctx, bookingID); err != nil {
		return fmt.Errorf("return booking %d: %w", bookingID, err)
	}
	return nil
}

func (s *Service) IsBookingOverdue(ctx context.Context, bookingID int64) (bool, error) {
	if err := validator.ValidateID(bookingID); err != nil {
		return false, err
	}
	return s.lending.IsOverdue(ctx, bookingID)
}

func (s *Service) ExpectedReturnDate(ctx context.Context, bookingID int64) (time.Time, error) {
	if err := validator.ValidateID(bookingID); err != nil {
		return time.Time{}, err
	}
	return s.lending.ExpectedReturnDate(ctx, bookingID)
}

// GetStatistics gathers the dashboard counters. The counts are
// independent queries, so they run concurrently.
func (s *Service) GetStatistics(ctx context.Context) (*catalog.Statistics, error) {
	now := time.Now().UTC()
	activeSince := now.AddDate(0, 0, -ActiveReaderWindowDays)

	var stats catalog.Statistics
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.TotalBooks, err = s.repo.CountBooks(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.AvailableBooks, err = s.repo.CountAvailableBooks(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalReaders, err = s.repo.CountReaders(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveReaders, err = s.repo.CountActiveReaders(ctx, activeSince)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveBookings, err = s.repo.CountActiveBookings(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.OverdueBookings, err = s.repo.CountOverdueBookings(ctx, lending.OverdueCutoff(now))
		return err
	})
	g.Go(func() (err error) {
		stats.TotalBookings, err = s.repo.CountBookings(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("get statistics: %w", err)
	}
	return &stats, nil
}
