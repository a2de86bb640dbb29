// Package catalog defines the library domain entities.
package catalog

import "time"

type Publisher struct {
	ID      int64  `json:"publisher_id"`
	Name    string `json:"name" validate:"required"`
	Address string `json:"address,omitempty"`
}

type Author struct {
	ID        int64  `json:"author_id"`
	Name      string `json:"name" validate:"required"`
	Biography string `json:"biography,omitempty"`
}

// AuthorWithBookCount represents an author with the number of catalog
// books linked to them (for browse listings).
type AuthorWithBookCount struct {
	Author
	BookCount int `json:"book_count"`
}

type Category struct {
	ID          int64  `json:"category_id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

type Book struct {
	ID              int64  `json:"book_id"`
	Title           string `json:"title" validate:"required"`
	Description     string `json:"description,omitempty"`
	PublicationYear int    `json:"publication_year,omitempty"`
	PublisherID     int64  `json:"publisher_id" validate:"required,gt=0"`

	// Hydrated relations. OpenLoans holds only bookings that have not
	// been returned; a book is available iff it is empty.
	Publisher  *Publisher `json:"publisher,omitempty"`
	Authors    []Author   `json:"authors,omitempty"`
	Categories []Category `json:"categories,omitempty"`
	OpenLoans  []Booking  `json:"open_loans,omitempty"`
}

// Available reports whether the book currently has no open loan.
func (b *Book) Available() bool {
	return len(b.OpenLoans) == 0
}

type Reader struct {
	ID    int64  `json:"reader_id"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty"`

	Bookings []Booking `json:"bookings,omitempty"`
}

// Booking is one loan record. A nil ReturnDate marks the loan as open;
// setting it is the only mutation a booking ever sees.
type Booking struct {
	ID         int64      `json:"booking_id"`
	BookID     int64      `json:"book_id"`
	ReaderID   int64      `json:"reader_id"`
	StartDate  time.Time  `json:"start_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`

	Book   *Book   `json:"book,omitempty"`
	Reader *Reader `json:"reader,omitempty"`
}

// Open reports whether the loan has not been returned yet.
func (b *Booking) Open() bool {
	return b.ReturnDate == nil
}

// Statistics holds the dashboard counters.
type Statistics struct {
	TotalBooks      int `json:"total_books"`
	AvailableBooks  int `json:"available_books"`
	TotalReaders    int `json:"total_readers"`
	ActiveReaders   int `json:"active_readers"`
	ActiveBookings  int `json:"active_bookings"`
	OverdueBookings int `json:"overdue_bookings"`
	TotalBookings   int `json:"total_bookings"`
}
