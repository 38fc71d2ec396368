package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/MosinFAM/chirp/internal/models"
)

type MemoryDirectory struct {
	users map[string]models.Author
	mu    sync.RWMutex
}

func NewMemoryDirectory(users ...models.Author) *MemoryDirectory {
	d := &MemoryDirectory{users: make(map[string]models.Author, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *MemoryDirectory) ResolveUsers(_ context.Context, ids []string) ([]models.Author, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]models.Author, 0, len(ids))
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			result = append(result, u)
		}
	}
	return result, nil
}

func (d *MemoryDirectory) UpsertUser(_ context.Context, user models.Author) error {
	if user.ID == "" {
		return fmt.Errorf("%w: user id is empty", models.ErrValidation)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
	return nil
}
