package repo

import (
	_ "github.com/mattn/go-sqlite3"
)

func (r *Repo) CreateSchema() error {
	sqlStmt := `
           CREATE TABLE IF NOT EXISTS "publishers" (
               publisher_id integer primary key autoincrement not null,
               name text not null,
               address text
           );

           CREATE TABLE IF NOT EXISTS "authors" (
               author_id integer primary key autoincrement not null,
               name text not null,
               biography text
           );
           CREATE INDEX IF NOT EXISTS [I_author_name] ON "authors" ([name]);

           CREATE TABLE IF NOT EXISTS "categories" (
               category_id integer primary key autoincrement not null,
               name text not null,
               description text
           );

           CREATE TABLE IF NOT EXISTS "books" (
               book_id integer primary key autoincrement not null,
               title text not null,
               description text,
               publication_year integer,
               publisher_id integer not null,
               FOREIGN KEY (publisher_id) REFERENCES publishers(publisher_id)
           );
           CREATE INDEX IF NOT EXISTS [I_title] ON "books" ([title]);

           CREATE TABLE IF NOT EXISTS "book_authors" (
               book_id INTEGER NOT NULL,
               author_id INTEGER NOT NULL,
               PRIMARY KEY (book_id, author_id),
               FOREIGN KEY (book_id) REFERENCES books(book_id),
               FOREIGN KEY (author_id) REFERENCES authors(author_id)
           );
           CREATE INDEX IF NOT EXISTS [I_book_authors_author_id] ON "book_authors" ([author_id]);

           CREATE TABLE IF NOT EXISTS "book_categories" (
               book_id INTEGER NOT NULL,
               category_id INTEGER NOT NULL,
               PRIMARY KEY (book_id, category_id),
               FOREIGN KEY (book_id) REFERENCES books(book_id),
               FOREIGN KEY (category_id) REFERENCES categories(category_id)
           );
           CREATE INDEX IF NOT EXISTS [I_book_categories_category_id] ON "book_categories" ([category_id]);

           CREATE TABLE IF NOT EXISTS "readers" (
               reader_id integer primary key autoincrement not null,
               name text not null,
               email text not null collate nocase,
               phone text
           );
           CREATE UNIQUE INDEX IF NOT EXISTS [U_reader_email] ON "readers" ([email]);

           CREATE TABLE IF NOT EXISTS "bookings" (
               booking_id integer primary key autoincrement not null,
               book_id integer not null,
               reader_id integer not null,
               start_date timestamp not null,
               return_date timestamp, -- NULL means the loan is open
               FOREIGN KEY (book_id) REFERENCES books(book_id),
               FOREIGN KEY (reader_id) REFERENCES readers(reader_id)
           );
           CREATE INDEX IF NOT EXISTS [I_bookings_book_id] ON "bookings" ([book_id]);
           CREATE INDEX IF NOT EXISTS [I_bookings_reader_id] ON "bookings" ([reader_id]);

           -- One loanable copy per book: at most one open loan may exist
           -- for a given book_id at any time.
           CREATE UNIQUE INDEX IF NOT EXISTS [U_one_open_loan_per_book]
               ON "bookings" ([book_id]) WHERE return_date IS NULL;
  	    `
	_, err := r.db.Exec(sqlStmt)
	return err
}
