package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/animeflix/internal/dbx"
	"github.com/dmitrijs2005/animeflix/internal/server/artwork"
	"github.com/dmitrijs2005/animeflix/internal/server/models"
	"github.com/dmitrijs2005/animeflix/internal/server/repositories/repomanager"
)

// CatalogService serves read-only movie data with fetchable artwork URLs.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	guard       *dbx.Guard
	artwork     artwork.Resolver
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, guard *dbx.Guard, art artwork.Resolver) *CatalogService {
	return &CatalogService{
		db:          db,
		repomanager: m,
		guard:       guard,
		artwork:     art,
	}
}

func (s *CatalogService) Movies(ctx context.Context) ([]models.Movie, error) {
	var movies []models.Movie
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		movies, err = s.repomanager.Movies(s.db).List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.withArtwork(ctx, movies)
}

// Movie looks a movie up by its exact title.
func (s *CatalogService) Movie(ctx context.Context, title string) (*models.Movie, error) {
	var movie *models.Movie
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		movie, err = s.repomanager.Movies(s.db).GetByTitle(ctx, title)
		return err
	})
	if err != nil {
		return nil, err
	}

	if movie.ImageURL, err = s.artwork.URL(ctx, movie.ImagePath); err != nil {
		return nil, fmt.Errorf("artwork for %s: %w", movie.ID, err)
	}
	return movie, nil
}

func (s *CatalogService) ByGenre(ctx context.Context, genre string) ([]models.Movie, error) {
	var movies []models.Movie
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		movies, err = s.repomanager.Movies(s.db).ListByGenre(ctx, genre)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.withArtwork(ctx, movies)
}

func (s *CatalogService) ByDirector(ctx context.Context, director string) ([]models.Movie, error) {
	var movies []models.Movie
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		movies, err = s.repomanager.Movies(s.db).ListByDirector(ctx, director)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.withArtwork(ctx, movies)
}

func (s *CatalogService) withArtwork(ctx context.Context, movies []models.Movie) ([]models.Movie, error) {
	for i := range movies {
		url, err := s.artwork.URL(ctx, movies[i].ImagePath)
		if err != nil {
			return nil, fmt.Errorf("artwork for %s: %w", movies[i].ID, err)
		}
		movies[i].ImageURL = url
	}
	return movies, nil
}
