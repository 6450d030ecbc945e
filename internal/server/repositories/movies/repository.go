package movies

import (
	"context"

	"github.com/dmitrijs2005/animeflix/internal/server/models"
)

// Repository is the read-only catalog store.
type Repository interface {
	List(ctx context.Context) ([]models.Movie, error)
	GetByTitle(ctx context.Context, title string) (*models.Movie, error)
	ListByGenre(ctx context.Context, genre string) ([]models.Movie, error)
	ListByDirector(ctx context.Context, director string) ([]models.Movie, error)
}
