package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/animeflix/internal/common"
	"github.com/dmitrijs2005/animeflix/internal/server/artwork"
	"github.com/dmitrijs2005/animeflix/internal/server/models"
)

type fakeResolver struct {
	err error
}

func (f fakeResolver) URL(_ context.Context, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.test/" + path, nil
}

func newCatalog(t *testing.T, repo *fakeMoviesRepo, art artwork.Resolver) *CatalogService {
	t.Helper()
	db, _ := newSQLMockDB(t)
	return NewCatalogService(db, &fakeRepoManager{m: repo}, newTestGuard(), art)
}

func sampleMovies() []models.Movie {
	return []models.Movie{
		{ID: "m1", Title: "Spirited Away", ImagePath: "spirited-away.jpg"},
		{ID: "m2", Title: "Akira", ImagePath: "akira.jpg"},
	}
}

func TestCatalog_MoviesResolveArtwork(t *testing.T) {
	s := newCatalog(t, &fakeMoviesRepo{list: sampleMovies()}, fakeResolver{})

	got, err := s.Movies(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://cdn.test/spirited-away.jpg", got[0].ImageURL)
	assert.Equal(t, "spirited-away.jpg", got[0].ImagePath)
}

func TestCatalog_Passthrough(t *testing.T) {
	s := newCatalog(t, &fakeMoviesRepo{list: sampleMovies()}, artwork.Passthrough{})

	got, err := s.Movies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, got[1].ImagePath, got[1].ImageURL)
}

func TestCatalog_Movie(t *testing.T) {
	m := sampleMovies()[0]
	repo := &fakeMoviesRepo{one: &m}
	s := newCatalog(t, repo, fakeResolver{})

	got, err := s.Movie(context.Background(), "Spirited Away")
	require.NoError(t, err)
	assert.Equal(t, "m1", got.ID)
	assert.Equal(t, "Spirited Away", repo.lastArg)

	_, err = newCatalog(t, &fakeMoviesRepo{}, fakeResolver{}).Movie(context.Background(), "Nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCatalog_Filters(t *testing.T) {
	repo := &fakeMoviesRepo{list: sampleMovies()}
	s := newCatalog(t, repo, fakeResolver{})

	got, err := s.ByGenre(context.Background(), "Fantasy")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "Fantasy", repo.lastArg)

	_, err = s.ByDirector(context.Background(), "Hayao Miyazaki")
	require.NoError(t, err)
	assert.Equal(t, "Hayao Miyazaki", repo.lastArg)
}

func TestCatalog_Errors(t *testing.T) {
	s := newCatalog(t, &fakeMoviesRepo{err: context.DeadlineExceeded}, fakeResolver{})
	_, err := s.Movies(context.Background())
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	s = newCatalog(t, &fakeMoviesRepo{list: sampleMovies()}, fakeResolver{err: errors.New("sign failed")})
	_, err = s.ByGenre(context.Background(), "Fantasy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "artwork for m1")
}
