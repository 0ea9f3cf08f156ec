package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"booksapi/internal/models"
	"booksapi/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

const bookColumns = `id, title, author, year, genre, status, rating`

type PostgresDB struct {
	pool *pgxpool.Pool
}

// NewPostgresDB creates a connection pool for the given DSN and verifies it
func NewPostgresDB(ctx context.Context, dsn string) (*PostgresDB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// SQLDB exposes the pool as a *sql.DB for tools that need database/sql, such as goose.
// Callers close the returned handle; closing it leaves the pool open.
func (db *PostgresDB) SQLDB() *sql.DB {
	return stdlib.OpenDBFromPool(db.pool)
}

// Initialize checks that the database is reachable.
// The "Books" table is managed via migrations (see migrations/ directory).
func (db *PostgresDB) Initialize(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	return nil
}

// withConn runs fn on a connection acquired for the duration of the call.
// The connection goes back to the pool on every return path.
func (db *PostgresDB) withConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	return fn(conn)
}

// ListBooks returns all books ordered by ID
func (db *PostgresDB) ListBooks(ctx context.Context) ([]models.Book, error) {
	books := make([]models.Book, 0)
	err := db.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+bookColumns+` FROM "Books" ORDER BY id`)
		if err != nil {
			return fmt.Errorf("failed to list books: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			book, err := scanBook(rows)
			if err != nil {
				return fmt.Errorf("failed to scan book: %w", err)
			}
			books = append(books, book)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// GetBook returns the book with the given ID
func (db *PostgresDB) GetBook(ctx context.Context, id int64) (models.Book, error) {
	var book models.Book
	err := db.withConn(ctx, func(conn *pgxpool.Conn) error {
		var err error
		book, err = scanBook(conn.QueryRow(ctx, `SELECT `+bookColumns+` FROM "Books" WHERE id = $1`, id))
		return notFound(err, "failed to get book")
	})
	return book, err
}

// CreateBook inserts a book and returns the stored row in the same statement
func (db *PostgresDB) CreateBook(ctx context.Context, in models.BookInput) (models.Book, error) {
	var book models.Book
	err := db.withConn(ctx, func(conn *pgxpool.Conn) error {
		var err error
		book, err = scanBook(conn.QueryRow(ctx,
			`INSERT INTO "Books" (title, author, year, genre, status, rating)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+bookColumns,
			in.Title, in.Author, in.Year, in.Genre, in.StatusOrDefault(), in.Rating))
		if err != nil {
			return fmt.Errorf("failed to create book: %w", err)
		}
		return nil
	})
	return book, err
}

// UpdateBook overwrites all mutable fields and returns the updated row in the same statement
func (db *PostgresDB) UpdateBook(ctx context.Context, id int64, in models.BookInput) (models.Book, error) {
	var book models.Book
	err := db.withConn(ctx, func(conn *pgxpool.Conn) error {
		var err error
		book, err = scanBook(conn.QueryRow(ctx,
			`UPDATE "Books"
			SET title = $1, author = $2, year = $3, genre = $4, status = $5, rating = $6
			WHERE id = $7
			RETURNING `+bookColumns,
			in.Title, in.Author, in.Year, in.Genre, in.StatusOrDefault(), in.Rating, id))
		return notFound(err, "failed to update book")
	})
	return book, err
}

// DeleteBook removes the book and returns the deleted ID
func (db *PostgresDB) DeleteBook(ctx context.Context, id int64) (int64, error) {
	var deleted int64
	err := db.withConn(ctx, func(conn *pgxpool.Conn) error {
		err := conn.QueryRow(ctx, `DELETE FROM "Books" WHERE id = $1 RETURNING id`, id).Scan(&deleted)
		return notFound(err, "failed to delete book")
	})
	return deleted, err
}

// Close closes the connection pool
func (db *PostgresDB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

func scanBook(row pgx.Row) (models.Book, error) {
	var book models.Book
	err := row.Scan(&book.ID, &book.Title, &book.Author, &book.Year, &book.Genre, &book.Status, &book.Rating)
	return book, err
}

// notFound maps pgx.ErrNoRows to storage.ErrNotFound and wraps any other error
func notFound(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return storage.ErrNotFound
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
