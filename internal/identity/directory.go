//go:generate go run go.uber.org/mock/mockgen -source=directory.go -destination=../mocks/mock_directory.go -package=mocks
package identity

import (
	"context"

	"github.com/MosinFAM/chirp/internal/models"
)

// Directory resolves public user profiles. Lookups are batched: callers pass the
// distinct ids of a whole page and get back the profiles that exist, in any order.
type Directory interface {
	ResolveUsers(ctx context.Context, ids []string) ([]models.Author, error)
	UpsertUser(ctx context.Context, user models.Author) error
}
