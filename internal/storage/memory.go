package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MosinFAM/chirp/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryStorage - хранилище в памяти
type MemoryStorage struct {
	posts    map[string]models.Post
	children map[string][]string // parent id -> reply ids
	lastAt   time.Time
	now      func() time.Time
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewMemoryStorage создает новое in-memory хранилище
func NewMemoryStorage(logger *zap.Logger) *MemoryStorage {
	return &MemoryStorage{
		posts:    make(map[string]models.Post),
		children: make(map[string][]string),
		now:      time.Now,
		logger:   logger.Named("memory"),
	}
}

// ListPosts возвращает страницу постов, новые первыми
func (s *MemoryStorage) ListPosts(_ context.Context, q ListQuery) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.logger.Debug("Fetching posts from memory", zap.Stringp("parent_id", q.ParentID), zap.Int("limit", q.Limit))

	var candidates []models.Post
	if q.ParentID == nil {
		for _, post := range s.posts {
			if post.ParentID == nil {
				candidates = append(candidates, post)
			}
		}
	} else {
		for _, id := range s.children[*q.ParentID] {
			candidates = append(candidates, s.posts[id])
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return olderThan(candidates[j], candidates[i].CreatedAt, candidates[i].ID)
	})

	start := 0
	if q.Cursor != nil {
		createdAt, id, err := DecodeCursor(*q.Cursor)
		if err != nil {
			return nil, err
		}
		start = sort.Search(len(candidates), func(i int) bool {
			return olderThan(candidates[i], createdAt, id)
		})
	}

	end := len(candidates)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}

	result := make([]models.Post, 0, end-start)
	for _, post := range candidates[start:end] {
		post.ChildCount = len(s.children[post.ID])
		result = append(result, post)
	}
	return result, nil
}

// GetPostByID возвращает пост по ID
func (s *MemoryStorage) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.logger.Debug("Fetching post", zap.String("id", id))
	post, exists := s.posts[id]
	if !exists {
		return nil, fmt.Errorf("post %s: %w", id, models.ErrNotFound)
	}
	post.ChildCount = len(s.children[id])
	return &post, nil
}

// AddPost добавляет новый пост
func (s *MemoryStorage) AddPost(_ context.Context, p NewPost) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ParentID != nil {
		if _, exists := s.posts[*p.ParentID]; !exists {
			return models.Post{}, fmt.Errorf("parent post %s: %w", *p.ParentID, models.ErrNotFound)
		}
	}

	// Keep timestamps strictly increasing so feed order matches insertion order.
	createdAt := s.now().UTC()
	if !createdAt.After(s.lastAt) {
		createdAt = s.lastAt.Add(time.Nanosecond)
	}
	s.lastAt = createdAt

	post := models.Post{
		ID:        uuid.New().String(),
		ParentID:  p.ParentID,
		AuthorID:  p.AuthorID,
		Content:   p.Content,
		CreatedAt: createdAt,
	}
	s.posts[post.ID] = post
	if post.ParentID != nil {
		s.children[*post.ParentID] = append(s.children[*post.ParentID], post.ID)
	}

	s.logger.Info("Post added", zap.String("id", post.ID), zap.String("author_id", post.AuthorID))
	return post, nil
}

// UpdatePostContent меняет текст поста
func (s *MemoryStorage) UpdatePostContent(_ context.Context, id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[id]
	if !exists {
		return fmt.Errorf("post %s: %w", id, models.ErrNotFound)
	}
	post.Content = content
	s.posts[id] = post

	s.logger.Info("Post updated", zap.String("id", id))
	return nil
}

// DeletePostTree удаляет пост вместе со всеми ответами
func (s *MemoryStorage) DeletePostTree(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, exists := s.posts[id]
	if !exists {
		return 0, fmt.Errorf("post %s: %w", id, models.ErrNotFound)
	}

	queue := []string{id}
	deleted := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		queue = append(queue, s.children[current]...)
		delete(s.children, current)
		delete(s.posts, current)
		deleted++
	}

	if root.ParentID != nil {
		siblings := s.children[*root.ParentID]
		for i, sibling := range siblings {
			if sibling == id {
				s.children[*root.ParentID] = append(siblings[:i:i], siblings[i+1:]...)
				break
			}
		}
	}

	s.logger.Info("Post tree deleted", zap.String("id", id), zap.Int("deleted", deleted))
	return deleted, nil
}
