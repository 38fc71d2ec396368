package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose"
	"go.uber.org/zap"
)

// Connect opens a PostgreSQL pool and checks that the server answers.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Connected to PostgreSQL successfully!")
	return db, nil
}

// Migrate applies every pending goose migration found in dir.
func Migrate(db *sql.DB, dir string, logger *zap.Logger) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("apply migrations from %s: %w", dir, err)
	}
	logger.Info("Migrations applied", zap.String("dir", dir))
	return nil
}
