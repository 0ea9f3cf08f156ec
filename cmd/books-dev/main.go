package main

import (
	"context"
	"log"
	"os"

	postgresTC "github.com/testcontainers/testcontainers-go/modules/postgres"

	"booksapi/internal/app"
	"booksapi/internal/storage/pg"
	"booksapi/migrations"
)

func main() {
	ctx := context.Background()

	log.Println("Starting PostgreSQL testcontainer...")

	postgresContainer, err := postgresTC.Run(ctx,
		"postgres:16-alpine",
		postgresTC.WithDatabase("books"),
		postgresTC.WithUsername("postgres"),
		postgresTC.WithPassword("devpassword"),
		postgresTC.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	// Ensure container cleanup on exit
	defer func() {
		log.Println("Stopping PostgreSQL container...")
		if err := postgresContainer.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate container: %v", err)
		}
	}()

	dsn, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Printf("Failed to get connection string: %v", err)
		return
	}

	log.Printf("PostgreSQL started at %s", dsn)

	if err := migrate(ctx, dsn); err != nil {
		log.Printf("Failed to run migrations: %v", err)
		return
	}

	// Set environment variables for the application
	os.Setenv("DATABASE_URL", dsn)
	os.Setenv("USE_MOCK_DB", "false")
	os.Setenv("APP_ENV", "development")

	if os.Getenv("PORT") == "" {
		os.Setenv("PORT", "8080")
	}

	log.Println("Starting application with PostgreSQL backend...")

	application, err := app.New()
	if err != nil {
		log.Printf("Failed to create application: %v", err)
		return
	}

	// Run blocks until SIGINT/SIGTERM, then the deferred cleanup stops the container
	if err := application.Run(); err != nil {
		log.Printf("Application error: %v", err)
	}
}

func migrate(ctx context.Context, dsn string) error {
	db, err := pg.NewPostgresDB(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	sqlDB := db.SQLDB()
	defer sqlDB.Close()

	return migrations.Up(sqlDB)
}
