package api

import (
	"net/http"

	"github.com/htol/libman/middleware"
	"github.com/htol/libman/service"
)

// NewHandler creates and returns the main HTTP handler (router) for the application
func NewHandler(svc *service.Service) http.Handler {
	mux := http.NewServeMux()

	// Books
	mux.Handle("GET /api/books", withCORS(getBooksHandler(svc)))
	mux.Handle("GET /api/books/available", withCORS(getAvailableBooksHandler(svc)))
	mux.Handle("GET /api/books/overdue", withCORS(getOverdueBooksHandler(svc)))
	mux.Handle("GET /api/books/{id}", withCORS(getBookByIDHandler(svc)))
	mux.Handle("GET /api/books/{id}/bookings", withCORS(getBookBookingsHandler(svc)))
	mux.Handle("POST /api/books", withCORS(addBookHandler(svc)))
	mux.Handle("PUT /api/books/{id}", withCORS(updateBookHandler(svc)))
	mux.Handle("DELETE /api/books/{id}", withCORS(deleteBookHandler(svc)))

	// Authors
	mux.Handle("GET /api/authors", withCORS(getAuthorsHandler(svc)))
	mux.Handle("GET /api/authors/{id}", withCORS(getAuthorByIDHandler(svc)))
	mux.Handle("GET /api/authors/{id}/books", withCORS(getBooksByAuthorHandler(svc)))
	mux.Handle("POST /api/authors", withCORS(addAuthorHandler(svc)))
	mux.Handle("PUT /api/authors/{id}", withCORS(updateAuthorHandler(svc)))
	mux.Handle("DELETE /api/authors/{id}", withCORS(deleteAuthorHandler(svc)))

	// Categories
	mux.Handle("GET /api/categories", withCORS(getCategoriesHandler(svc)))
	mux.Handle("GET /api/categories/{id}", withCORS(getCategoryByIDHandler(svc)))
	mux.Handle("GET /api/categories/{id}/books", withCORS(getBooksByCategoryHandler(svc)))
	mux.Handle("POST /api/categories", withCORS(addCategoryHandler(svc)))
	mux.Handle("PUT /api/categories/{id}", withCORS(updateCategoryHandler(svc)))
	mux.Handle("DELETE /api/categories/{id}", withCORS(deleteCategoryHandler(svc)))

	// Publishers
	mux.Handle("GET /api/publishers", withCORS(getPublishersHandler(svc)))
	mux.Handle("GET /api/publishers/{id}", withCORS(getPublisherByIDHandler(svc)))
	mux.Handle("GET /api/publishers/{id}/books", withCORS(getBooksByPublisherHandler(svc)))
	mux.Handle("POST /api/publishers", withCORS(addPublisherHandler(svc)))
	mux.Handle("PUT /api/publishers/{id}", withCORS(updatePublisherHandler(svc)))
	mux.Handle("DELETE /api/publishers/{id}", withCORS(deletePublisherHandler(svc)))

	// Readers
	mux.Handle("GET /api/readers", withCORS(getReadersHandler(svc)))
	mux.Handle("GET /api/readers/active", withCORS(getActiveReadersHandler(svc)))
	mux.Handle("GET /api/readers/overdue", withCORS(getOverdueReadersHandler(svc)))
	mux.Handle("GET /api/readers/{id}", withCORS(getReaderByIDHandler(svc)))
	mux.Handle("GET /api/readers/{id}/bookings", withCORS(getReaderBookingsHandler(svc)))
	mux.Handle("POST /api/readers", withCORS(addReaderHandler(svc)))
	mux.Handle("PUT /api/readers/{id}", withCORS(updateReaderHandler(svc)))
	mux.Handle("DELETE /api/readers/{id}", withCORS(deleteReaderHandler(svc)))

	// Bookings
	mux.Handle("GET /api/bookings", withCORS(getBookingsHandler(svc)))
	mux.Handle("GET /api/bookings/active", withCORS(getActiveBookingsHandler(svc)))
	mux.Handle("GET /api/bookings/overdue", withCORS(getOverdueBookingsHandler(svc)))
	mux.Handle("GET /api/bookings/{id}", withCORS(getBookingByIDHandler(svc)))
	mux.Handle("GET /api/bookings/{id}/due-date", withCORS(getBookingDueDateHandler(svc)))
	mux.Handle("POST /api/bookings", withCORS(createBookingHandler(svc)))
	mux.Handle("POST /api/bookings/{id}/return", withCORS(returnBookHandler(svc)))
	mux.Handle("GET /api/eligibility/{bookID}/{readerID}", withCORS(canBookHandler(svc)))

	// Statistics and health
	mux.Handle("GET /api/statistics", withCORS(getStatisticsHandler(svc)))
	mux.HandleFunc("/health", healthCheckHandler(svc))

	// Apply middleware chain
	chain := middleware.Chain(
		middleware.Recovery,
		middleware.Logger,
		middleware.RequestID,
	)

	return chain(mux)
}
