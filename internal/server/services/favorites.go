package services

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/animeflix/internal/dbx"
	"github.com/dmitrijs2005/animeflix/internal/server/models"
	"github.com/dmitrijs2005/animeflix/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/animeflix/internal/server/repositories/repomanager"
)

// FavoritesService edits an account's favorites as a set: adding a present
// id and removing an absent one are both successful no-ops. Each edit and
// the read-back of the resulting list share one transaction.
type FavoritesService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	guard       *dbx.Guard
	validate    *validator.Validate
}

func NewFavoritesService(db *sql.DB, m repomanager.RepositoryManager, guard *dbx.Guard) *FavoritesService {
	return &FavoritesService{
		db:          db,
		repomanager: m,
		guard:       guard,
		validate:    newValidator(),
	}
}

// Add puts movieID into the favorites of identifier's account, which must be
// the caller's account accountID.
func (s *FavoritesService) Add(ctx context.Context, accountID, identifier, movieID string) (*models.Account, error) {
	return s.edit(ctx, accountID, identifier, movieID, func(ctx context.Context, repo accounts.Repository, accountID string) error {
		return repo.AddFavorite(ctx, accountID, movieID)
	})
}

// Remove takes movieID out of the favorites of identifier's account.
func (s *FavoritesService) Remove(ctx context.Context, accountID, identifier, movieID string) (*models.Account, error) {
	return s.edit(ctx, accountID, identifier, movieID, func(ctx context.Context, repo accounts.Repository, accountID string) error {
		return repo.RemoveFavorite(ctx, accountID, movieID)
	})
}

func (s *FavoritesService) edit(ctx context.Context, accountID, identifier, movieID string,
	apply func(ctx context.Context, repo accounts.Repository, accountID string) error) (*models.Account, error) {
	if err := validateStruct(s.validate, favoriteInput{MovieID: movieID}); err != nil {
		return nil, err
	}

	var account *models.Account
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Accounts(tx)
			a, err := ownedAccount(ctx, repo, accountID, identifier)
			if err != nil {
				return err
			}
			if err := apply(ctx, repo, a.ID); err != nil {
				return err
			}
			if a.Favorites, err = repo.ListFavorites(ctx, a.ID); err != nil {
				return err
			}
			account = a
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}
