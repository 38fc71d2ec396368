package identity

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MosinFAM/chirp/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresDirectory reads profiles from the users table, which an external
// sign-in flow keeps in sync.
type PostgresDirectory struct {
	DB     *sql.DB
	logger *zap.Logger
}

func NewPostgresDirectory(db *sql.DB, logger *zap.Logger) *PostgresDirectory {
	return &PostgresDirectory{DB: db, logger: logger.Named("users")}
}

func (d *PostgresDirectory) ResolveUsers(ctx context.Context, ids []string) ([]models.Author, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := d.DB.QueryContext(ctx, "SELECT id, username, image_url FROM users WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		d.logger.Error("Error resolving users", zap.Int("count", len(ids)), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	users := make([]models.Author, 0, len(ids))
	for rows.Next() {
		var u models.Author
		if err := rows.Scan(&u.ID, &u.Username, &u.ImageURL); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (d *PostgresDirectory) UpsertUser(ctx context.Context, user models.Author) error {
	if user.ID == "" {
		return fmt.Errorf("%w: user id is empty", models.ErrValidation)
	}
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO users (id, username, image_url) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, image_url = EXCLUDED.image_url`,
		user.ID, user.Username, user.ImageURL)
	if err != nil {
		return err
	}
	d.logger.Info("User upserted", zap.String("id", user.ID), zap.String("username", user.Username))
	return nil
}
