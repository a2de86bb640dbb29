package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/htol/libman/catalog"
	"github.com/htol/libman/service"
)

// bookRequest is the write payload for books. Author and category
// links are replaced wholesale on update.
type bookRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	PublicationYear int     `json:"publication_year"`
	PublisherID     int64   `json:"publisher_id"`
	AuthorIDs       []int64 `json:"author_ids"`
	CategoryIDs     []int64 `json:"category_ids"`
}

type bookingRequest struct {
	BookID   int64 `json:"book_id"`
	ReaderID int64 `json:"reader_id"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithValidationError(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// Books

func getBooksHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var books []catalog.Book
		var err error
		switch {
		case r.URL.Query().Get("startsWith") != "":
			books, err = svc.GetBooksByLetter(ctx, r.URL.Query().Get("startsWith"))
		case r.URL.Query().Get("q") != "":
			books, err = svc.SearchBooks(ctx, r.URL.Query().Get("q"))
		default:
			books, err = svc.GetBooks(ctx)
		}
		if err != nil {
			respondWithServiceError(w, "Failed to get books", err)
			return
		}
		respondWithJSON(w, http.StatusOK, books)
	}
	return http.HandlerFunc(hf)
}

func getBookByIDHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid book ID")
			return
		}
		book, err := svc.GetBookByID(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, "Failed to get book", err)
			return
		}
		respondWithJSON(w, http.StatusOK, book)
	}
	return http.HandlerFunc(hf)
}

func getAvailableBooksHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		books, err := svc.GetAvailableBooks(r.Context())
		if err != nil {
			respondWithServiceError(w, "Failed to get available books", err)
			return
		}
		respondWithJSON(w, http.StatusOK, books)
	}
	return http.HandlerFunc(hf)
}

func getOverdueBooksHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		books, err := svc.GetOverdueBooks(r.Context())
		if err != nil {
			respondWithServiceError(w, "Failed to get overdue books", err)
			return
		}
		respondWithJSON(w, http.StatusOK, books)
	}
	return http.HandlerFunc(hf)
}

func addBookHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		var req bookRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		book := catalog.Book{
			Title:           req.Title,
			Description:     req.Description,
			PublicationYear: req.PublicationYear,
			PublisherID:     req.PublisherID,
		}
		added, err := svc.AddBook(r.Context(), &book, req.AuthorIDs, req.CategoryIDs)
		if err != nil {
			respondWithServiceError(w, "Failed to add book", err)
			return
		}
		respondWithJSON(w, http.StatusCreated, added)
	}
	return http.HandlerFunc(hf)
}

func updateBookHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid book ID")
			return
		}
		var req bookRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		book := catalog.Book{
			ID:              id,
			Title:           req.Title,
			Description:     req.Description,
			PublicationYear: req.PublicationYear,
			PublisherID:     req.PublisherID,
		}
		if err := svc.UpdateBook(r.Context(), &book, req.AuthorIDs, req.CategoryIDs); err != nil {
			respondWithServiceError(w, "Failed to update book", err)
			return
		}
		updated, err := svc.GetBookByID(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, "Failed to get updated book", err)
			return
		}
		respondWithJSON(w, http.StatusOK, updated)
	}
	return http.HandlerFunc(hf)
}

func deleteBookHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid book ID")
			return
		}
		if err := svc.DeleteBook(r.Context(), id); err != nil {
			respondWithServiceError(w, "Failed to delete book", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
	return http.HandlerFunc(hf)
}

func getBookBookingsHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid book ID")
			return
		}
		bookings, err := svc.GetBookingsByBook(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, "Failed to get bookings by book", err)
			return
		}
		respondWithJSON(w, http.StatusOK, bookings)
	}
	return http.HandlerFunc(hf)
}

// Authors

func getAuthorsHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if term := r.URL.Query().Get("q"); term != "" {
			authors, err := svc.SearchAuthors(ctx, term)
			if err != nil {
				respondWithServiceError(w, "Failed to search authors", err)
				return
			}
			respondWithJSON(w, http.StatusOK, authors)
			return
		}

		var authors []catalog.AuthorWithBookCount
		var err error
		if letters := r.URL.Query().Get("startsWith"); letters != "" {
			authors, err = svc.GetAuthorsByLetter(ctx, letters)
		} else {
			authors, err = svc.GetAuthors(ctx)
		}
		if err != nil {
			respondWithServiceError(w, "Failed to get authors", err)
			return
		}
		respondWithJSON(w, http.StatusOK, authors)
	}
	return http.HandlerFunc(hf)
}

func getAuthorByIDHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid author ID")
			return
		}
		author, err := svc.GetAuthorByID(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, "Failed to get author", err)
			return
		}
		respondWithJSON(w, http.StatusOK, author)
	}
	return http.HandlerFunc(hf)
}

func getBooksByAuthorHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid author ID")
			return
		}
		books, err := svc.GetBooksByAuthor(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, "Failed to get books by author", err)
			return
		}
		respondWithJSON(w, http.StatusOK, books)
	}
	return http.HandlerFunc(hf)
}

func addAuthorHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		var author catalog.Author
		if !decodeJSON(w, r, &author) {
			return
		}
		added, err := svc.AddAuthor(r.Context(), &author)
		if err != nil {
			respondWithServiceError(w, "Failed to add author", err)
			return
		}
		respondWithJSON(w, http.StatusCreated, added)
	}
	return http.HandlerFunc(hf)
}

func updateAuthorHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid author ID")
			return
		}
		var author catalog.Author
		if !decodeJSON(w, r, &author) {
			return
		}
		author.ID = id
		if err := svc.UpdateAuthor(r.Context(), &author); err != nil {
			respondWithServiceError(w, "Failed to update author", err)
			return
		}
		respondWithJSON(w, http.StatusOK, author)
	}
	return http.HandlerFunc(hf)
}

func deleteAuthorHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid author ID")
			return
		}
		if err := svc.DeleteAuthor(r.Context(), id); err != nil {
			respondWithServiceError(w, "Failed to delete author", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
	return http.HandlerFunc(hf)
}

// Categories

func getCategoriesHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.GetCategories(r.Context())
		if err != nil {
			respondWithServiceError(w, "Failed to get categories", err)
			return
		}
		respondWithJSON(w, http.StatusOK, categories)
	}
	return http.HandlerFunc(hf)
}

func getCategoryByIDHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid category ID")
			return
		}
		category, err := svc.GetCategoryByID(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, "Failed to get category", err)
			return
		}
		respondWithJSON(w, http.StatusOK, category)
	}
	return http.HandlerFunc(hf)
}

func getBooksByCategoryHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid category ID")
			return
		}
		books, err := svc.GetBooksByCategory(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, "Failed to get books by category", err)
			return
		}
		respondWithJSON(w, http.StatusOK, books)
	}
	return http.HandlerFunc(hf)
}

func addCategoryHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		var category catalog.Category
		if !decodeJSON(w, r, &category) {
			return
		}
		added, err := svc.AddCategory(r.Context(), &category)
		if err != nil {
			respondWithServiceError(w, "Failed to add category", err)
			return
		}
		respondWithJSON(w, http.StatusCreated, added)
	}
	return http.HandlerFunc(hf)
}

func updateCategoryHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid category ID")
			return
		}
		var category catalog.Category
		if !decodeJSON(w, r, &category) {
			return
		}
		category.ID = id
		if err := svc.UpdateCategory(r.Context(), &category); err != nil {
			respondWithServiceError(w, "Failed to update category", err)
			return
		}
		respondWithJSON(w, http.StatusOK, category)
	}
	return http.HandlerFunc(hf)
}

func deleteCategoryHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid category ID")
			return
		}
		if err := svc.DeleteCategory(r.Context(), id); err != nil {
			respondWithServiceError(w, "Failed to delete category", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
	return http.HandlerFunc(hf)
}

// Publishers

func getPublishersHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		publishers, err := svc.GetPublishers(r.Context())
		if err != nil {
			respondWithServiceError(w, "Failed to get publishers", err)
			return
		}
		respondWithJSON(w, http.StatusOK, publishers)
	}
	return http.HandlerFunc(hf)
}

func getPublisherByIDHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid publisher ID")
			return
		}
		publisher, err := svc.GetPublisherByID(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, "Failed to get publisher", err)
			return
		}
		respondWithJSON(w, http.StatusOK, publisher)
	}
	return http.HandlerFunc(hf)
}

func getBooksByPublisherHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid publisher ID")
			return
		}
		books, err := svc.GetBooksByPublisher(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, "Failed to get books by publisher", err)
			return
		}
		respondWithJSON(w, http.StatusOK, books)
	}
	return http.HandlerFunc(hf)
}

func addPublisherHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		var publisher catalog.Publisher
		if !decodeJSON(w, r, &publisher) {
			return
		}
		added, err := svc.AddPublisher(r.Context(), &publisher)
		if err != nil {
			respondWithServiceError(w, "Failed to add publisher", err)
			return
		}
		respondWithJSON(w, http.StatusCreated, added)
	}
	return http.HandlerFunc(hf)
}

func updatePublisherHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid publisher ID")
			return
		}
		var publisher catalog.Publisher
		if !decodeJSON(w, r, &publisher) {
			return
		}
		publisher.ID = id
		if err := svc.UpdatePublisher(r.Context(), &publisher); err != nil {
			respondWithServiceError(w, "Failed to update publisher", err)
			return
		}
		respondWithJSON(w, http.StatusOK, publisher)
	}
	return http.HandlerFunc(hf)
}

func deletePublisherHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid publisher ID")
			return
		}
		if err := svc.DeletePublisher(r.Context(), id); err != nil {
			respondWithServiceError(w, "Failed to delete publisher", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
	return http.HandlerFunc(hf)
}

// Readers

func getReadersHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch {
		case r.URL.Query().Get("q") != "":
			readers, err := svc.SearchReaders(ctx, r.URL.Query().Get("q"))
			if err != nil {
				respondWithServiceError(w, "Failed to search readers", err)
				return
			}
			respondWithJSON(w, http.StatusOK, readers)
		case r.URL.Query().Get("email") != "":
			reader, err := svc.GetReaderByEmail(ctx, r.URL.Query().Get("email"))
			if err != nil {
				respondWithServiceError(w, "Failed to get reader by email", err)
				return
			}
			respondWithJSON(w, http.StatusOK, reader)
		default:
			readers, err := svc.GetReaders(ctx)
			if err != nil {
				respondWithServiceError(w, "Failed to get readers", err)
				return
			}
			respondWithJSON(w, http.StatusOK, readers)
		}
	}
	return http.HandlerFunc(hf)
}

func getReaderByIDHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid reader ID")
			return
		}
		reader, err := svc.GetReaderByID(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, "Failed to get reader", err)
			return
		}
		respondWithJSON(w, http.StatusOK, reader)
	}
	return http.HandlerFunc(hf)
}

func getActiveReadersHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		readers, err := svc.GetActiveReaders(r.Context())
		if err != nil {
			respondWithServiceError(w, "Failed to get active readers", err)
			return
		}
		respondWithJSON(w, http.StatusOK, readers)
	}
	return http.HandlerFunc(hf)
}

func getOverdueReadersHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		readers, err := svc.GetReadersWithOverdueLoans(r.Context())
		if err != nil {
			respondWithServiceError(w, "Failed to get readers with overdue loans", err)
			return
		}
		respondWithJSON(w, http.StatusOK, readers)
	}
	return http.HandlerFunc(hf)
}

func addReaderHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		var reader catalog.Reader
		if !decodeJSON(w, r, &reader) {
			return
		}
		added, err := svc.AddReader(r.Context(), &reader)
		if err != nil {
			respondWithServiceError(w, "Failed to add reader", err)
			return
		}
		respondWithJSON(w, http.StatusCreated, added)
	}
	return http.HandlerFunc(hf)
}

func updateReaderHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid reader ID")
			return
		}
		var reader catalog.Reader
		if !decodeJSON(w, r, &reader) {
			return
		}
		reader.ID = id
		if err := svc.UpdateReader(r.Context(), &reader); err != nil {
			respondWithServiceError(w, "Failed to update reader", err)
			return
		}
		respondWithJSON(w, http.StatusOK, reader)
	}
	return http.HandlerFunc(hf)
}

func deleteReaderHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid reader ID")
			return
		}
		if err := svc.DeleteReader(r.Context(), id); err != nil {
			respondWithServiceError(w, "Failed to delete reader", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
	return http.HandlerFunc(hf)
}

func getReaderBookingsHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid reader ID")
			return
		}
		bookings, err := svc.GetBookingsByReader(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, "Failed to get bookings by reader", err)
			return
		}
		respondWithJSON(w, http.StatusOK, bookings)
	}
	return http.HandlerFunc(hf)
}

// Bookings

func getBookingsHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		fromStr := r.URL.Query().Get("from")
		toStr := r.URL.Query().Get("to")
		if fromStr != "" || toStr != "" {
			from, err := time.Parse(time.DateOnly, fromStr)
			if err != nil {
				respondWithValidationError(w, "invalid 'from' date, expected YYYY-MM-DD")
				return
			}
			to, err := time.Parse(time.DateOnly, toStr)
			if err != nil {
				respondWithValidationError(w, "invalid 'to' date, expected YYYY-MM-DD")
				return
			}
			// Make the range inclusive of the whole 'to' day.
			to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)

			bookings, err := svc.GetBookingsByDateRange(ctx, from, to)
			if err != nil {
				respondWithServiceError(w, "Failed to get bookings by date range", err)
				return
			}
			respondWithJSON(w, http.StatusOK, bookings)
			return
		}

		bookings, err := svc.GetBookings(ctx)
		if err != nil {
			respondWithServiceError(w, "Failed to get bookings", err)
			return
		}
		respondWithJSON(w, http.StatusOK, bookings)
	}
	return http.HandlerFunc(hf)
}

func getBookingByIDHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid booking ID")
			return
		}
		booking, err := svc.GetBookingByID(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, "Failed to get booking", err)
			return
		}
		respondWithJSON(w, http.StatusOK, booking)
	}
	return http.HandlerFunc(hf)
}

func getActiveBookingsHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		bookings, err := svc.GetActiveBookings(r.Context())
		if err != nil {
			respondWithServiceError(w, "Failed to get active bookings", err)
			return
		}
		respondWithJSON(w, http.StatusOK, bookings)
	}
	return http.HandlerFunc(hf)
}

func getOverdueBookingsHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		bookings, err := svc.GetOverdueBookings(r.Context())
		if err != nil {
			respondWithServiceError(w, "Failed to get overdue bookings", err)
			return
		}
		respondWithJSON(w, http.StatusOK, bookings)
	}
	return http.HandlerFunc(hf)
}

func createBookingHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		var req bookingRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		booking, err := svc.CreateBooking(r.Context(), req.BookID, req.ReaderID)
		if err != nil {
			respondWithServiceError(w, "Failed to create booking", err)
			return
		}
		respondWithJSON(w, http.StatusCreated, booking)
	}
	return http.HandlerFunc(hf)
}

func returnBookHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid booking ID")
			return
		}
		if err := svc.ReturnBook(r.Context(), id); err != nil {
			respondWithServiceError(w, "Failed to return book", err)
			return
		}
		booking, err := svc.GetBookingByID(r.Context(), id)
		if err != nil {
			respondWithServiceError(w, "Failed to get returned booking", err)
			return
		}
		respondWithJSON(w, http.StatusOK, booking)
	}
	return http.HandlerFunc(hf)
}

func getBookingDueDateHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			respondWithValidationError(w, "invalid booking ID")
			return
		}
		ctx := r.Context()
		due, err := svc.ExpectedReturnDate(ctx, id)
		if err != nil {
			respondWithServiceError(w, "Failed to get due date", err)
			return
		}
		overdue, err := svc.IsBookingOverdue(ctx, id)
		if err != nil {
			respondWithServiceError(w, "Failed to check overdue status", err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]any{
			"booking_id": id,
			"due_date":   due,
			"overdue":    overdue,
		})
	}
	return http.HandlerFunc(hf)
}

func canBookHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		bookID, ok := pathID(r, "bookID")
		if !ok {
			respondWithValidationError(w, "invalid book ID")
			return
		}
		readerID, ok := pathID(r, "readerID")
		if !ok {
			respondWithValidationError(w, "invalid reader ID")
			return
		}
		decision, err := svc.CanBook(r.Context(), bookID, readerID)
		if err != nil {
			respondWithServiceError(w, "Failed to check eligibility", err)
			return
		}
		respondWithJSON(w, http.StatusOK, decision)
	}
	return http.HandlerFunc(hf)
}

// Statistics and health

func getStatisticsHandler(svc *service.Service) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.GetStatistics(r.Context())
		if err != nil {
			respondWithServiceError(w, "Failed to get statistics", err)
			return
		}
		respondWithJSON(w, http.StatusOK, stats)
	}
	return http.HandlerFunc(hf)
}

func healthCheckHandler(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Ping(); err != nil {
			respondWithError(w, "service unavailable", err, http.StatusServiceUnavailable)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
		})
	}
}
