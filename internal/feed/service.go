// Package feed implements the post feed: paginated listing, threaded replies
// and author-only mutations on top of a Storage, a user Directory and a rate Limiter.
package feed

import (
	"context"
	"fmt"

	"github.com/MosinFAM/chirp/internal/identity"
	"github.com/MosinFAM/chirp/internal/models"
	"github.com/MosinFAM/chirp/internal/ratelimit"
	"github.com/MosinFAM/chirp/internal/storage"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Service struct {
	storage storage.Storage
	users   identity.Directory
	limiter ratelimit.Limiter
	policy  ContentPolicy
	logger  *zap.Logger
}

func NewService(st storage.Storage, users identity.Directory, limiter ratelimit.Limiter, policy ContentPolicy, logger *zap.Logger) *Service {
	return &Service{
		storage: st,
		users:   users,
		limiter: limiter,
		policy:  policy,
		logger:  logger.Named("feed"),
	}
}

// List returns one page of posts, newest first. Without a ParentID it lists
// top-level posts, otherwise the direct replies of that post.
func (s *Service) List(ctx context.Context, req ListRequest) (models.Page, error) {
	if err := validateRequest(req); err != nil {
		return models.Page{}, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = DefaultLimit
	}

	// One extra row tells whether another page exists.
	posts, err := s.storage.ListPosts(ctx, storage.ListQuery{
		ParentID: req.ParentID,
		Cursor:   req.Cursor,
		Limit:    limit + 1,
	})
	if err != nil {
		return models.Page{}, fmt.Errorf("list posts: %w", err)
	}

	var next *string
	if len(posts) > limit {
		posts = posts[:limit]
		next = lo.ToPtr(storage.EncodeCursor(posts[limit-1]))
	}

	withAuthors, err := s.attachAuthors(ctx, posts)
	if err != nil {
		return models.Page{}, err
	}
	return models.Page{Posts: withAuthors, NextCursor: next}, nil
}

// Get returns a single post with its author.
func (s *Service) Get(ctx context.Context, id string) (models.PostWithAuthor, error) {
	post, err := s.storage.GetPostByID(ctx, id)
	if err != nil {
		return models.PostWithAuthor{}, fmt.Errorf("get post: %w", err)
	}
	withAuthors, err := s.attachAuthors(ctx, []models.Post{*post})
	if err != nil {
		return models.PostWithAuthor{}, err
	}
	return withAuthors[0], nil
}

// Create publishes a post, or a reply when ParentID is set, on behalf of callerID.
func (s *Service) Create(ctx context.Context, callerID string, req CreateRequest) (models.Post, error) {
	if callerID == "" {
		return models.Post{}, models.ErrUnauthorized
	}
	if err := validateRequest(req); err != nil {
		return models.Post{}, err
	}
	if err := s.policy.Check(req.Content); err != nil {
		return models.Post{}, err
	}

	allowed, err := s.limiter.Allow(ctx, callerID)
	if err != nil {
		return models.Post{}, fmt.Errorf("rate limiter: %w", err)
	}
	if !allowed {
		s.logger.Info("Create rejected by rate limiter", zap.String("caller_id", callerID))
		return models.Post{}, fmt.Errorf("%w: slow down", models.ErrRateLimited)
	}

	if req.ParentID != nil {
		if _, err := s.storage.GetPostByID(ctx, *req.ParentID); err != nil {
			return models.Post{}, fmt.Errorf("parent post: %w", err)
		}
	}

	post, err := s.storage.AddPost(ctx, storage.NewPost{
		ParentID: req.ParentID,
		AuthorID: callerID,
		Content:  req.Content,
	})
	if err != nil {
		return models.Post{}, fmt.Errorf("add post: %w", err)
	}
	return post, nil
}

// Delete removes a post owned by callerID together with all replies below it.
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	if _, err := s.ownedPost(ctx, callerID, id); err != nil {
		return err
	}

	deleted, err := s.storage.DeletePostTree(ctx, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	s.logger.Info("Post deleted", zap.String("id", id), zap.String("caller_id", callerID), zap.Int("rows", deleted))
	return nil
}

// Edit replaces the content of a post owned by callerID. Only content is mutable.
func (s *Service) Edit(ctx context.Context, callerID string, req EditRequest) error {
	if callerID == "" {
		return models.ErrUnauthorized
	}
	if err := validateRequest(req); err != nil {
		return err
	}
	if err := s.policy.Check(req.Content); err != nil {
		return err
	}
	if _, err := s.ownedPost(ctx, callerID, req.ID); err != nil {
		return err
	}

	if err := s.storage.UpdatePostContent(ctx, req.ID, req.Content); err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

func (s *Service) ownedPost(ctx context.Context, callerID, id string) (*models.Post, error) {
	if callerID == "" {
		return nil, models.ErrUnauthorized
	}
	post, err := s.storage.GetPostByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post.AuthorID != callerID {
		s.logger.Warn("Caller does not own post", zap.String("id", id), zap.String("caller_id", callerID))
		return nil, fmt.Errorf("%w: post %s", models.ErrForbidden, id)
	}
	return post, nil
}

// attachAuthors joins posts with their authors using one batched lookup.
// A post whose author cannot be resolved means the store and the identity
// provider disagree, so the whole page fails.
func (s *Service) attachAuthors(ctx context.Context, posts []models.Post) ([]models.PostWithAuthor, error) {
	result := make([]models.PostWithAuthor, 0, len(posts))
	if len(posts) == 0 {
		return result, nil
	}

	ids := lo.Uniq(lo.Map(posts, func(p models.Post, _ int) string { return p.AuthorID }))
	users, err := s.users.ResolveUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve authors: %w", err)
	}
	byID := lo.KeyBy(users, func(u models.Author) string { return u.ID })

	for _, post := range posts {
		author, ok := byID[post.AuthorID]
		if !ok || author.Username == "" {
			s.logger.Error("Author not found", zap.String("post_id", post.ID), zap.String("author_id", post.AuthorID))
			return nil, fmt.Errorf("%w: author %s of post %s not found", models.ErrInternal, post.AuthorID, post.ID)
		}
		result = append(result, models.PostWithAuthor{Post: post, Author: author})
	}
	return result, nil
}
