package storage

import (
	"context"

	"github.com/MosinFAM/chirp/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) ListPosts(ctx context.Context, q ListQuery) ([]models.Post, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockStorage) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockStorage) AddPost(ctx context.Context, post NewPost) (models.Post, error) {
	args := m.Called(ctx, post)
	return args.Get(0).(models.Post), args.Error(1)
}

func (m *MockStorage) UpdatePostContent(ctx context.Context, id, content string) error {
	args := m.Called(ctx, id, content)
	return args.Error(0)
}

func (m *MockStorage) DeletePostTree(ctx context.Context, id string) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}
