package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/htol/libman/catalog"
	"github.com/htol/libman/logger"
)

// Seed fills an empty store with a small demo data set: publishers,
// categories, authors, books and readers, plus loan history including
// one open loan, one overdue loan and one returned loan. Used by the
// in-memory demo mode and the seed command.
func (r *Repo) Seed(ctx context.Context) error {
	count, err := r.CountBooks(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Skipping seed, store is not empty", "books", count)
		return nil
	}

	publishers := []catalog.Publisher{
		{Name: "Penguin Books", Address: "London, UK"},
		{Name: "HarperCollins", Address: "New York, USA"},
		{Name: "Eksmo", Address: "Moscow, Russia"},
	}
	publisherIDs := make([]int64, 0, len(publishers))
	for i := range publishers {
		added, err := r.AddPublisher(ctx, &publishers[i])
		if err != nil {
			return fmt.Errorf("seed publisher %q: %w", publishers[i].Name, err)
		}
		publisherIDs = append(publisherIDs, added.ID)
	}

	categories := []catalog.Category{
		{Name: "Fiction", Description: "Fictional works that contain imaginary events and people."},
		{Name: "Science Fiction", Description: "Stories based on advanced science, technology, and futuristic concepts."},
		{Name: "Fantasy", Description: "Books set in imaginary worlds with magical elements."},
		{Name: "Mystery", Description: "Novels focused on solving a crime or uncovering secrets."},
		{Name: "Romance", Description: "Stories centered on love and romantic relationships."},
		{Name: "Biography", Description: "Books that tell the life story of a real person."},
	}
	categoryIDs := make([]int64, 0, len(categories))
	for i := range categories {
		added, err := r.AddCategory(ctx, &categories[i])
		if err != nil {
			return fmt.Errorf("seed category %q: %w", categories[i].Name, err)
		}
		categoryIDs = append(categoryIDs, added.ID)
	}

	authors := []catalog.Author{
		{Name: "J.K. Rowling", Biography: "British author best known for the Harry Potter series"},
		{Name: "George R.R. Martin", Biography: "American novelist and short story writer"},
		{Name: "Agatha Christie", Biography: "English writer known for her detective novels"},
		{Name: "Stephen King", Biography: "American author of horror and supernatural fiction"},
		{Name: "Jane Austen", Biography: "English novelist known for romantic fiction"},
	}
	authorIDs := make([]int64, 0, len(authors))
	for i := range authors {
		added, err := r.AddAuthor(ctx, &authors[i])
		if err != nil {
			return fmt.Errorf("seed author %q: %w", authors[i].Name, err)
		}
		authorIDs = append(authorIDs, added.ID)
	}

	books := []struct {
		book       catalog.Book
		authors    []int64
		categories []int64
	}{
		{
			book: catalog.Book{
				Title:           "Harry Potter and the Philosopher's Stone",
				Description:     "The first book in the Harry Potter series",
				PublicationYear: 1997,
				PublisherID:     publisherIDs[0],
			},
			authors:    []int64{authorIDs[0]},
			categories: []int64{categoryIDs[2]},
		},
		{
			book: catalog.Book{
				Title:           "A Game of Thrones",
				Description:     "The first book of A Song of Ice and Fire",
				PublicationYear: 1996,
				PublisherID:     publisherIDs[1],
			},
			authors:    []int64{authorIDs[1]},
			categories: []int64{categoryIDs[2], categoryIDs[0]},
		},
		{
			book: catalog.Book{
				Title:           "Murder on the Orient Express",
				Description:     "A Hercule Poirot mystery",
				PublicationYear: 1934,
				PublisherID:     publisherIDs[0],
			},
			authors:    []int64{authorIDs[2]},
			categories: []int64{categoryIDs[3]},
		},
		{
			book: catalog.Book{
				Title:           "The Shining",
				PublicationYear: 1977,
				PublisherID:     publisherIDs[1],
			},
			authors:    []int64{authorIDs[3]},
			categories: []int64{categoryIDs[0]},
		},
		{
			book: catalog.Book{
				Title:           "Pride and Prejudice",
				PublicationYear: 1813,
				PublisherID:     publisherIDs[2],
			},
			authors:    []int64{authorIDs[4]},
			categories: []int64{categoryIDs[4], categoryIDs[0]},
		},
	}
	bookIDs := make([]int64, 0, len(books))
	for i := range books {
		added, err := r.AddBook(ctx, &books[i].book, books[i].authors, books[i].categories)
		if err != nil {
			return fmt.Errorf("seed book %q: %w", books[i].book.Title, err)
		}
		bookIDs = append(bookIDs, added.ID)
	}

	readers := []catalog.Reader{
		{Name: "Alice Johnson", Email: "alice.johnson@example.com", Phone: "+1-555-0101"},
		{Name: "Bob Smith", Email: "bob.smith@example.com"},
		{Name: "Carol White", Email: "carol.white@example.com", Phone: "+1-555-0103"},
	}
	readerIDs := make([]int64, 0, len(readers))
	for i := range readers {
		added, err := r.AddReader(ctx, &readers[i])
		if err != nil {
			return fmt.Errorf("seed reader %q: %w", readers[i].Email, err)
		}
		readerIDs = append(readerIDs, added.ID)
	}

	now := time.Now().UTC()

	// Closed loan: returned two weeks ago.
	returned := now.AddDate(0, 0, -14)
	if _, err := r.CreateBooking(ctx, bookIDs[4], readerIDs[2], now.AddDate(0, 0, -40), &returned, 0, now); err != nil {
		return fmt.Errorf("seed returned loan: %w", err)
	}

	// Open loan within the loan period.
	if _, err := r.CreateBooking(ctx, bookIDs[0], readerIDs[0], now.AddDate(0, 0, -3), nil, 5, now.AddDate(0, 0, -30)); err != nil {
		return fmt.Errorf("seed open loan: %w", err)
	}

	// Overdue loan: started 45 days ago, never returned.
	if _, err := r.CreateBooking(ctx, bookIDs[1], readerIDs[1], now.AddDate(0, 0, -45), nil, 5, now.AddDate(0, 0, -30)); err != nil {
		return fmt.Errorf("seed overdue loan: %w", err)
	}

	logger.Info("Seeded demo data",
		"publishers", len(publisherIDs),
		"categories", len(categoryIDs),
		"authors", len(authorIDs),
		"books", len(bookIDs),
		"readers", len(readerIDs),
	)
	return nil
}
