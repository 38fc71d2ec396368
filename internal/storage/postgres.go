package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MosinFAM/chirp/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const foreignKeyViolation = "23503"

const postColumns = `p.id, p.parent_id, p.author_id, p.content, p.created_at,
	(SELECT COUNT(*) FROM posts c WHERE c.parent_id = p.id)`

// PostgresStorage - хранилище в PostgreSQL
type PostgresStorage struct {
	DB     *sql.DB
	logger *zap.Logger
}

// NewPostgresStorage создаёт экземпляр PostgreSQL-хранилища
func NewPostgresStorage(db *sql.DB, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{DB: db, logger: logger.Named("postgres")}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.ParentID, &post.AuthorID, &post.Content, &post.CreatedAt, &post.ChildCount)
	post.CreatedAt = post.CreatedAt.UTC()
	return post, err
}

// ListPosts возвращает страницу постов, новые первыми
func (s *PostgresStorage) ListPosts(ctx context.Context, q ListQuery) ([]models.Post, error) {
	var (
		where []string
		args  []any
	)
	if q.ParentID == nil {
		where = append(where, "p.parent_id IS NULL")
	} else {
		args = append(args, *q.ParentID)
		where = append(where, fmt.Sprintf("p.parent_id = $%d", len(args)))
	}
	if q.Cursor != nil {
		createdAt, id, err := DecodeCursor(*q.Cursor)
		if err != nil {
			return nil, err
		}
		args = append(args, createdAt, id)
		where = append(where, fmt.Sprintf("(p.created_at, p.id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	args = append(args, q.Limit)

	query := fmt.Sprintf("SELECT %s FROM posts p WHERE %s ORDER BY p.created_at DESC, p.id DESC LIMIT $%d",
		postColumns, strings.Join(where, " AND "), len(args))

	s.logger.Debug("Fetching posts from database", zap.Stringp("parent_id", q.ParentID), zap.Int("limit", q.Limit))
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("Error fetching posts", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	posts := make([]models.Post, 0, q.Limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			s.logger.Error("Error scanning post row", zap.Error(err))
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// GetPostByID возвращает пост по ID
func (s *PostgresStorage) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	s.logger.Debug("Fetching post", zap.String("id", id))
	row := s.DB.QueryRowContext(ctx, "SELECT "+postColumns+" FROM posts p WHERE p.id = $1", id)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		s.logger.Error("Error fetching post", zap.Error(err))
		return nil, err
	}
	return &post, nil
}

// AddPost добавляет новый пост в БД
func (s *PostgresStorage) AddPost(ctx context.Context, p NewPost) (models.Post, error) {
	post := models.Post{
		ID:       uuid.New().String(),
		ParentID: p.ParentID,
		AuthorID: p.AuthorID,
		Content:  p.Content,
		// timestamptz keeps microseconds; truncate so cursors built from the result match the row.
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO posts (id, parent_id, author_id, content, created_at) VALUES ($1, $2, $3, $4, $5)",
		post.ID, post.ParentID, post.AuthorID, post.Content, post.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return models.Post{}, fmt.Errorf("parent post %s: %w", *p.ParentID, models.ErrNotFound)
	}
	if err != nil {
		s.logger.Error("DB insert error", zap.Error(err))
		return models.Post{}, err
	}

	s.logger.Info("Post added", zap.String("id", post.ID), zap.String("author_id", post.AuthorID))
	return post, nil
}

// UpdatePostContent меняет текст поста
func (s *PostgresStorage) UpdatePostContent(ctx context.Context, id, content string) error {
	res, err := s.DB.ExecContext(ctx, "UPDATE posts SET content = $1 WHERE id = $2", content, id)
	if err != nil {
		s.logger.Error("DB update error", zap.Error(err))
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("post %s: %w", id, models.ErrNotFound)
	}

	s.logger.Info("Post updated", zap.String("id", id))
	return nil
}

// DeletePostTree удаляет пост и все ответы на него в одной транзакции
func (s *PostgresStorage) DeletePostTree(ctx context.Context, id string) (int, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	// Lock the root so no new direct reply can slip in between the two deletes.
	var locked string
	err = tx.QueryRowContext(ctx, "SELECT id FROM posts WHERE id = $1 FOR UPDATE", id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("post %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM posts WHERE parent_id = $1
			UNION ALL
			SELECT p.id FROM posts p JOIN subtree s ON p.parent_id = s.id
		)
		DELETE FROM posts WHERE id IN (SELECT id FROM subtree)`, id)
	if err != nil {
		s.logger.Error("Error deleting replies", zap.String("id", id), zap.Error(err))
		return 0, err
	}
	replies, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", id); err != nil {
		s.logger.Error("Error deleting post", zap.String("id", id), zap.Error(err))
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	deleted := int(replies) + 1
	s.logger.Info("Post tree deleted", zap.String("id", id), zap.Int("deleted", deleted))
	return deleted, nil
}
