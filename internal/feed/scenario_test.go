package feed

import (
	"context"
	"fmt"
	"testing"

	"github.com/MosinFAM/chirp/internal/identity"
	"github.com/MosinFAM/chirp/internal/models"
	"github.com/MosinFAM/chirp/internal/ratelimit"
	"github.com/MosinFAM/chirp/internal/storage"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMemoryService(limit int) *Service {
	logger := zap.NewNop()
	users := identity.NewMemoryDirectory(
		models.Author{ID: "alice", Username: "alice"},
		models.Author{ID: "bob", Username: "bob"},
	)
	return NewService(storage.NewMemoryStorage(logger), users, ratelimit.NewMemoryLimiter(limit, ratelimit.DefaultWindow), PolicyAny, logger)
}

func ids(page models.Page) []string {
	return lo.Map(page.Posts, func(p models.PostWithAuthor, _ int) string { return p.Post.ID })
}

func TestScenario_ThreadLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService(ratelimit.DefaultLimit)

	a, err := svc.Create(ctx, "alice", CreateRequest{Content: "hello"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, "bob", CreateRequest{Content: "hi", ParentID: &a.ID})
	require.NoError(t, err)

	thread, err := svc.List(ctx, ListRequest{ParentID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(thread))
	assert.Equal(t, "bob", thread.Posts[0].Author.Username)

	top, err := svc.List(ctx, ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids(top))
	assert.Equal(t, 1, top.Posts[0].Post.ChildCount)

	require.NoError(t, svc.Delete(ctx, "alice", a.ID))

	thread, err = svc.List(ctx, ListRequest{ParentID: &a.ID})
	require.NoError(t, err)
	assert.Empty(t, thread.Posts)

	top, err = svc.List(ctx, ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, top.Posts)

	err = svc.Delete(ctx, "alice", a.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestScenario_CreateThenListOnce(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService(ratelimit.DefaultLimit)

	created, err := svc.Create(ctx, "alice", CreateRequest{Content: "🐦"})
	require.NoError(t, err)

	page, err := svc.List(ctx, ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, ids(page))
}

func TestScenario_PaginationWalk(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService(100)

	want := map[string]bool{}
	for i := 0; i < 23; i++ {
		author := lo.Ternary(i%2 == 0, "alice", "bob")
		p, err := svc.Create(ctx, author, CreateRequest{Content: fmt.Sprintf("post %d", i)})
		require.NoError(t, err)
		want[p.ID] = true
	}

	for _, limit := range []int{1, 5, 23, 30} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			seen := map[string]bool{}
			var cursor *string
			for {
				page, err := svc.List(ctx, ListRequest{Limit: limit, Cursor: cursor})
				require.NoError(t, err)
				assert.LessOrEqual(t, len(page.Posts), limit)
				for _, p := range page.Posts {
					assert.False(t, seen[p.Post.ID], "duplicate %s", p.Post.ID)
					seen[p.Post.ID] = true
				}
				if page.NextCursor == nil {
					break
				}
				cursor = page.NextCursor
			}
			assert.Equal(t, want, seen)
		})
	}
}

func TestScenario_RateLimit(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService(ratelimit.DefaultLimit)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, "alice", CreateRequest{Content: "post"})
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, "alice", CreateRequest{Content: "one too many"})
	assert.ErrorIs(t, err, models.ErrRateLimited)

	page, err := svc.List(ctx, ListRequest{})
	require.NoError(t, err)
	assert.Len(t, page.Posts, 3)

	_, err = svc.Create(ctx, "bob", CreateRequest{Content: "bob is fine"})
	assert.NoError(t, err)
}

func TestScenario_NonAuthorCannotMutate(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService(ratelimit.DefaultLimit)

	root, err := svc.Create(ctx, "alice", CreateRequest{Content: "mine"})
	require.NoError(t, err)
	reply, err := svc.Create(ctx, "alice", CreateRequest{Content: "also mine", ParentID: &root.ID})
	require.NoError(t, err)

	err = svc.Edit(ctx, "bob", EditRequest{ID: root.ID, Content: "hijacked"})
	assert.ErrorIs(t, err, models.ErrForbidden)

	err = svc.Delete(ctx, "bob", root.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	got, err := svc.Get(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Post.Content)
	assert.Equal(t, 1, got.Post.ChildCount)

	_, err = svc.Get(ctx, reply.ID)
	assert.NoError(t, err)
}

func TestScenario_EditKeepsImmutableFields(t *testing.T) {
	ctx := context.Background()
	svc := newMemoryService(ratelimit.DefaultLimit)

	created, err := svc.Create(ctx, "alice", CreateRequest{Content: "draft"})
	require.NoError(t, err)

	require.NoError(t, svc.Edit(ctx, "alice", EditRequest{ID: created.ID, Content: "final"}))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Post.Content)
	assert.Equal(t, created.ID, got.Post.ID)
	assert.Equal(t, created.AuthorID, got.Post.AuthorID)
	assert.Equal(t, created.CreatedAt, got.Post.CreatedAt)
	assert.Nil(t, got.Post.ParentID)
}
