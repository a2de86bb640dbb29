package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/htol/libman/catalog"
)

func TestAddReaderDuplicateEmail(t *testing.T) {
	db := newTestRepo(t, "./test_readers_dup.db")
	ctx := context.Background()

	mustAddReader(t, db, "Alice Johnson", "alice.johnson@example.com")

	// Email uniqueness is case-insensitive.
	_, err := db.AddReader(ctx, &catalog.Reader{Name: "Imposter", Email: "Alice.Johnson@Example.com"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}
}

func TestUpdateReaderEmailConflict(t *testing.T) {
	db := newTestRepo(t, "./test_readers_update.db")
	ctx := context.Background()

	mustAddReader(t, db, "Alice Johnson", "alice.johnson@example.com")
	bob := mustAddReader(t, db, "Bob Smith", "bob.smith@example.com")

	bob.Email = "ALICE.JOHNSON@example.com"
	if err := db.UpdateReader(ctx, bob); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when taking another reader's email, got %v", err)
	}

	// Re-saving with the reader's own email is not a conflict.
	bob.Email = "bob.smith@example.com"
	bob.Phone = "+1-555-0102"
	if err := db.UpdateReader(ctx, bob); err != nil {
		t.Fatalf("UpdateReader with own email failed: %v", err)
	}
}

func TestIsEmailUnique(t *testing.T) {
	db := newTestRepo(t, "./test_readers_unique.db")
	ctx := context.Background()

	alice := mustAddReader(t, db, "Alice Johnson", "alice.johnson@example.com")

	unique, err := db.IsEmailUnique(ctx, "alice.johnson@example.com", 0)
	if err != nil {
		t.Fatalf("IsEmailUnique failed: %v", err)
	}
	if unique {
		t.Error("expected taken email to be reported as not unique")
	}

	unique, err = db.IsEmailUnique(ctx, "alice.johnson@example.com", alice.ID)
	if err != nil {
		t.Fatalf("IsEmailUnique with exclusion failed: %v", err)
	}
	if !unique {
		t.Error("expected email to be unique when its owner is excluded")
	}

	unique, err = db.IsEmailUnique(ctx, "new.reader@example.com", 0)
	if err != nil {
		t.Fatalf("IsEmailUnique for fresh email failed: %v", err)
	}
	if !unique {
		t.Error("expected fresh email to be unique")
	}
}

func TestGetReaderByEmailCaseInsensitive(t *testing.T) {
	db := newTestRepo(t, "./test_readers_email.db")

	alice := mustAddReader(t, db, "Alice Johnson", "alice.johnson@example.com")

	got, err := db.GetReaderByEmail(context.Background(), "ALICE.JOHNSON@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("GetReaderByEmail failed: %v", err)
	}
	if got.ID != alice.ID {
		t.Errorf("expected reader %d, got %d", alice.ID, got.ID)
	}
}

func TestDeleteReaderWithOpenLoanRefused(t *testing.T) {
	db := newTestRepo(t, "./test_readers_delete.db")
	ctx := context.Background()

	pub := mustAddPublisher(t, db, "Penguin Books")
	book := mustAddBook(t, db, "Persuasion", pub.ID, nil, nil)
	reader := mustAddReader(t, db, "Carol White", "carol.white@example.com")
	loan := mustOpenLoan(t, db, book.ID, reader.ID, 2)

	if err := db.DeleteReader(ctx, reader.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("expected ErrInUse while a loan is open, got %v", err)
	}

	if err := db.ReturnBook(ctx, loan.ID, time.Now()); err != nil {
		t.Fatalf("ReturnBook failed: %v", err)
	}
	if err := db.DeleteReader(ctx, reader.ID); err != nil {
		t.Fatalf("DeleteReader after return failed: %v", err)
	}
	if _, err := db.GetReaderByID(ctx, reader.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected deleted reader to be gone, got %v", err)
	}
}

func TestReaderBookingsHydration(t *testing.T) {
	db := newTestRepo(t, "./test_readers_hydrate.db")
	ctx := context.Background()

	pub := mustAddPublisher(t, db, "Penguin Books")
	b1 := mustAddBook(t, db, "First", pub.ID, nil, nil)
	b2 := mustAddBook(t, db, "Second", pub.ID, nil, nil)
	reader := mustAddReader(t, db, "Alice Johnson", "alice.johnson@example.com")

	older := mustOpenLoan(t, db, b1.ID, reader.ID, 10)
	newer := mustOpenLoan(t, db, b2.ID, reader.ID, 1)

	got, err := db.GetReaderByID(ctx, reader.ID)
	if err != nil {
		t.Fatalf("GetReaderByID failed: %v", err)
	}
	if len(got.Bookings) != 2 {
		t.Fatalf("expected 2 bookings attached, got %d", len(got.Bookings))
	}
	// Most recent first.
	if got.Bookings[0].ID != newer.ID || got.Bookings[1].ID != older.ID {
		t.Errorf("expected bookings ordered newest first, got %+v", got.Bookings)
	}
}

func TestActiveAndOverdueReaders(t *testing.T) {
	db := newTestRepo(t, "./test_readers_active.db")
	ctx := context.Background()

	pub := mustAddPublisher(t, db, "Penguin Books")
	b1 := mustAddBook(t, db, "First", pub.ID, nil, nil)
	b2 := mustAddBook(t, db, "Second", pub.ID, nil, nil)
	recent := mustAddReader(t, db, "Alice Johnson", "alice.johnson@example.com")
	late := mustAddReader(t, db, "Bob Smith", "bob.smith@example.com")
	mustAddReader(t, db, "Carol White", "carol.white@example.com")

	mustOpenLoan(t, db, b1.ID, recent.ID, 5)
	mustOpenLoan(t, db, b2.ID, late.ID, 45)

	since := time.Now().UTC().AddDate(0, 0, -30)
	active, err := db.GetActiveReaders(ctx, since)
	if err != nil {
		t.Fatalf("GetActiveReaders failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != recent.ID {
		t.Fatalf("expected only the recent borrower to be active, got %+v", active)
	}

	overdue, err := db.GetReadersWithOverdueLoans(ctx, since)
	if err != nil {
		t.Fatalf("GetReadersWithOverdueLoans failed: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != late.ID {
		t.Fatalf("expected only the 45-day borrower to be overdue, got %+v", overdue)
	}

	n, err := db.CountActiveReaders(ctx, since)
	if err != nil {
		t.Fatalf("CountActiveReaders failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 active reader, got %d", n)
	}
}
