package accounts

import (
	"context"

	"github.com/dmitrijs2005/animeflix/internal/server/models"
)

// Repository is the Credential Store contract. Every method is a single
// statement so callers can compose several inside one transaction.
// Accounts are looked up by identifier but changed by their immutable ID.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.Account, error)
	Update(ctx context.Context, accountID string, patch models.AccountPatch) (*models.Account, error)
	Delete(ctx context.Context, accountID string) error

	ListFavorites(ctx context.Context, accountID string) ([]string, error)
	AddFavorite(ctx context.Context, accountID, movieID string) error
	RemoveFavorite(ctx context.Context, accountID, movieID string) error
}
