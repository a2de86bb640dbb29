package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestCreateBookingRejectsUnknownRecords(t *testing.T) {
	db := newTestRepo(t, "./test_bookings_unknown.db")
	ctx := context.Background()

	pub := mustAddPublisher(t, db, "Penguin Books")
	book := mustAddBook(t, db, "Persuasion", pub.ID, nil, nil)
	reader := mustAddReader(t, db, "Alice Johnson", "alice.johnson@example.com")

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -30)

	if _, err := db.CreateBooking(ctx, 9999, reader.ID, now, nil, 5, cutoff); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown book, got %v", err)
	}
	if _, err := db.CreateBooking(ctx, book.ID, 9999, now, nil, 5, cutoff); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown reader, got %v", err)
	}
}

func TestCreateBookingBookUnavailable(t *testing.T) {
	db := newTestRepo(t, "./test_bookings_unavailable.db")
	ctx := context.Background()

	pub := mustAddPublisher(t, db, "Penguin Books")
	book := mustAddBook(t, db, "The Shining", pub.ID, nil, nil)
	alice := mustAddReader(t, db, "Alice Johnson", "alice.johnson@example.com")
	bob := mustAddReader(t, db, "Bob Smith", "bob.smith@example.com")

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -30)

	first, err := db.CreateBooking(ctx, book.ID, alice.ID, now, nil, 5, cutoff)
	if err != nil {
		t.Fatalf("first CreateBooking failed: %v", err)
	}
	if _, err := db.CreateBooking(ctx, book.ID, bob.ID, now, nil, 5, cutoff); !errors.Is(err, ErrBookUnavailable) {
		t.Fatalf("expected ErrBookUnavailable for second open loan, got %v", err)
	}

	// Returning the book frees it for the next reader.
	if err := db.ReturnBook(ctx, first.ID, now); err != nil {
		t.Fatalf("ReturnBook failed: %v", err)
	}
	if _, err := db.CreateBooking(ctx, book.ID, bob.ID, now, nil, 5, cutoff); err != nil {
		t.Fatalf("CreateBooking after return failed: %v", err)
	}
}

func TestCreateBookingReaderAtLoanLimit(t *testing.T) {
	db := newTestRepo(t, "./test_bookings_limit.db")
	ctx := context.Background()

	pub := mustAddPublisher(t, db, "Penguin Books")
	reader := mustAddReader(t, db, "Alice Johnson", "alice.johnson@example.com")

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -30)

	for i := 0; i < 5; i++ {
		book := mustAddBook(t, db, fmt.Sprintf("Volume %d", i+1), pub.ID, nil, nil)
		if _, err := db.CreateBooking(ctx, book.ID, reader.ID, now, nil, 5, cutoff); err != nil {
			t.Fatalf("CreateBooking %d failed: %v", i+1, err)
		}
	}

	extra := mustAddBook(t, db, "One Too Many", pub.ID, nil, nil)
	if _, err := db.CreateBooking(ctx, extra.ID, reader.ID, now, nil, 5, cutoff); !errors.Is(err, ErrReaderAtLoanLimit) {
		t.Fatalf("expected ErrReaderAtLoanLimit on the sixth open loan, got %v", err)
	}
}

func TestCreateBookingReaderOverdue(t *testing.T) {
	db := newTestRepo(t, "./test_bookings_overdue.db")
	ctx := context.Background()

	pub := mustAddPublisher(t, db, "Penguin Books")
	held := mustAddBook(t, db, "Held Too Long", pub.ID, nil, nil)
	wanted := mustAddBook(t, db, "Wanted Next", pub.ID, nil, nil)
	reader := mustAddReader(t, db, "Bob Smith", "bob.smith@example.com")

	mustOpenLoan(t, db, held.ID, reader.ID, 45)

	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -30)
	if _, err := db.CreateBooking(ctx, wanted.ID, reader.ID, now, nil, 5, cutoff); !errors.Is(err, ErrReaderOverdue) {
		t.Fatalf("expected ErrReaderOverdue, got %v", err)
	}
}

func TestCreateBookingPreClosedHistory(t *testing.T) {
	db := newTestRepo(t, "./test_bookings_history.db")
	ctx := context.Background()

	pub := mustAddPublisher(t, db, "Penguin Books")
	book := mustAddBook(t, db, "Archived", pub.ID, nil, nil)
	reader := mustAddReader(t, db, "Carol White", "carol.white@example.com")

	now := time.Now().UTC()
	returned := now.AddDate(0, 0, -14)

	// A closed history row skips eligibility entirely.
	bk, err := db.CreateBooking(ctx, book.ID, reader.ID, now.AddDate(0, 0, -40), &returned, 0, now)
	if err != nil {
		t.Fatalf("CreateBooking with return date failed: %v", err)
	}
	if bk.Open() {
		t.Error("expected pre-closed booking to be closed")
	}
	if bk.ReturnDate == nil || !bk.ReturnDate.Equal(returned) {
		t.Errorf("expected return date %v, got %v", returned, bk.ReturnDate)
	}

	// The closed row does not block a fresh loan on the same book.
	if _, err := db.CreateBooking(ctx, book.ID, reader.ID, now, nil, 5, now.AddDate(0, 0, -30)); err != nil {
		t.Fatalf("CreateBooking after closed history failed: %v", err)
	}
}

func TestReturnBookIdempotent(t *testing.T) {
	db := newTestRepo(t, "./test_bookings_return.db")
	ctx := context.Background()

	pub := mustAddPublisher(t, db, "Penguin Books")
	book := mustAddBook(t, db, "Persuasion", pub.ID, nil, nil)
	reader := mustAddReader(t, db, "Alice Johnson", "alice.johnson@example.com")
	loan := mustOpenLoan(t, db, book.ID, reader.ID, 3)

	first := time.Now().UTC().Truncate(time.Second)
	if err := db.ReturnBook(ctx, loan.ID, first); err != nil {
		t.Fatalf("ReturnBook failed: %v", err)
	}

	// A second return is refused and the stored date is untouched.
	second := first.Add(48 * time.Hour)
	if err := db.ReturnBook(ctx, loan.ID, second); !errors.Is(err, ErrAlreadyReturned) {
		t.Fatalf("expected ErrAlreadyReturned, got %v", err)
	}

	got, err := db.GetBookingByID(ctx, loan.ID)
	if err != nil {
		t.Fatalf("GetBookingByID failed: %v", err)
	}
	if got.ReturnDate == nil || !got.ReturnDate.Equal(first) {
		t.Errorf("expected original return date %v preserved, got %v", first, got.ReturnDate)
	}
}

func TestReturnBookNotFound(t *testing.T) {
	db := newTestRepo(t, "./test_bookings_return_missing.db")

	if err := db.ReturnBook(context.Background(), 9999, time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBookingQueriesAndCounts(t *testing.T) {
	db := newTestRepo(t, "./test_bookings_queries.db")
	ctx := context.Background()

	pub := mustAddPublisher(t, db, "Penguin Books")
	b1 := mustAddBook(t, db, "First", pub.ID, nil, nil)
	b2 := mustAddBook(t, db, "Second", pub.ID, nil, nil)
	b3 := mustAddBook(t, db, "Third", pub.ID, nil, nil)
	alice := mustAddReader(t, db, "Alice Johnson", "alice.johnson@example.com")
	bob := mustAddReader(t, db, "Bob Smith", "bob.smith@example.com")

	open := mustOpenLoan(t, db, b1.ID, alice.ID, 3)
	overdue := mustOpenLoan(t, db, b2.ID, bob.ID, 45)
	closed := mustOpenLoan(t, db, b3.ID, alice.ID, 20)
	if err := db.ReturnBook(ctx, closed.ID, time.Now()); err != nil {
		t.Fatalf("ReturnBook failed: %v", err)
	}

	active, err := db.GetActiveBookings(ctx)
	if err != nil {
		t.Fatalf("GetActiveBookings failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active bookings, got %d", len(active))
	}
	// Booking rows carry base book and reader info.
	if active[0].Book == nil || active[0].Book.Title == "" || active[0].Reader == nil || active[0].Reader.Email == "" {
		t.Errorf("expected hydrated book and reader on booking, got %+v", active[0])
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	overdueList, err := db.GetOverdueBookings(ctx, cutoff)
	if err != nil {
		t.Fatalf("GetOverdueBookings failed: %v", err)
	}
	if len(overdueList) != 1 || overdueList[0].ID != overdue.ID {
		t.Fatalf("expected only the 45-day loan overdue, got %+v", overdueList)
	}

	byReader, err := db.GetBookingsByReader(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetBookingsByReader failed: %v", err)
	}
	if len(byReader) != 2 {
		t.Errorf("expected 2 bookings for alice, got %d", len(byReader))
	}

	byBook, err := db.GetBookingsByBook(ctx, b1.ID)
	if err != nil {
		t.Fatalf("GetBookingsByBook failed: %v", err)
	}
	if len(byBook) != 1 || byBook[0].ID != open.ID {
		t.Errorf("expected the open loan for book %d, got %+v", b1.ID, byBook)
	}

	from := time.Now().UTC().AddDate(0, 0, -30)
	to := time.Now().UTC()
	inRange, err := db.GetBookingsByDateRange(ctx, from, to)
	if err != nil {
		t.Fatalf("GetBookingsByDateRange failed: %v", err)
	}
	if len(inRange) != 2 {
		t.Errorf("expected 2 bookings in the last 30 days, got %d", len(inRange))
	}

	if n, err := db.CountBookings(ctx); err != nil || n != 3 {
		t.Errorf("CountBookings = %d, %v; want 3", n, err)
	}
	if n, err := db.CountActiveBookings(ctx); err != nil || n != 2 {
		t.Errorf("CountActiveBookings = %d, %v; want 2", n, err)
	}
	if n, err := db.CountOverdueBookings(ctx, cutoff); err != nil || n != 1 {
		t.Errorf("CountOverdueBookings = %d, %v; want 1", n, err)
	}
	if n, err := db.CountOpenLoansByBook(ctx, b1.ID); err != nil || n != 1 {
		t.Errorf("CountOpenLoansByBook = %d, %v; want 1", n, err)
	}
	if n, err := db.CountOpenLoansByReader(ctx, alice.ID); err != nil || n != 1 {
		t.Errorf("CountOpenLoansByReader = %d, %v; want 1", n, err)
	}

	has, err := db.HasOverdueLoans(ctx, bob.ID, cutoff)
	if err != nil || !has {
		t.Errorf("HasOverdueLoans(bob) = %v, %v; want true", has, err)
	}
	has, err = db.HasOverdueLoans(ctx, alice.ID, cutoff)
	if err != nil || has {
		t.Errorf("HasOverdueLoans(alice) = %v, %v; want false", has, err)
	}
}

func TestSeedPopulatesEmptyStoreOnce(t *testing.T) {
	db := newTestRepo(t, "./test_bookings_seed.db")
	ctx := context.Background()

	if err := db.Seed(ctx); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	books, err := db.CountBooks(ctx)
	if err != nil {
		t.Fatalf("CountBooks failed: %v", err)
	}
	if books == 0 {
		t.Fatal("expected seeded books")
	}

	// Re-seeding is a no-op.
	if err := db.Seed(ctx); err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}
	again, err := db.CountBooks(ctx)
	if err != nil {
		t.Fatalf("CountBooks after reseed failed: %v", err)
	}
	if again != books {
		t.Errorf("expected book count unchanged after reseed, got %d then %d", books, again)
	}
}
