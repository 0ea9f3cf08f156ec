package ch

import (
	"context"
	"crypto/tls"
	"fmt"

	"booksapi/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClickHouseDB stores the catalog activity log in ClickHouse
type ClickHouseDB struct {
	conn clickhouse.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Initialize creates the book_events table if it does not exist
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	err := db.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS book_events (
			date DateTime,
			book_id Int64,
			action String,
			title String
		) ENGINE = MergeTree()
		ORDER BY date
	`)
	if err != nil {
		return fmt.Errorf("failed to create book_events table: %w", err)
	}
	return nil
}

// RecordEvent stores a catalog change
func (db *ClickHouseDB) RecordEvent(ctx context.Context, event models.Event) error {
	err := db.conn.Exec(ctx, `INSERT INTO book_events (date, book_id, action, title) VALUES (?, ?, ?, ?)`,
		event.Date, event.BookID, event.Action, event.Title)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// GetLastEvents returns the last N events
func (db *ClickHouseDB) GetLastEvents(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := db.conn.Query(ctx, `SELECT date, book_id, action, title FROM book_events ORDER BY date DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get last events: %w", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.Date, &event.BookID, &event.Action, &event.Title); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
