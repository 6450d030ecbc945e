// Package services contains server-side business logic: account
// registration, login and lifecycle, favorites, and catalog reads.
// Every store interaction runs through a dbx.Guard so it is bounded by the
// configured timeout and reported as common.ErrStoreUnavailable when the
// store cannot answer.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/animeflix/internal/common"
	"github.com/dmitrijs2005/animeflix/internal/dbx"
	"github.com/dmitrijs2005/animeflix/internal/logging"
	"github.com/dmitrijs2005/animeflix/internal/server/auth"
	"github.com/dmitrijs2005/animeflix/internal/server/models"
	"github.com/dmitrijs2005/animeflix/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/animeflix/internal/server/repositories/repomanager"
)

// AccountService is the Account Registrar plus login and the self-service
// lifecycle operations (get, partial update, delete).
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	guard       *dbx.Guard
	hasher      auth.PasswordHasher
	issuer      *auth.TokenIssuer
	validate    *validator.Validate
	logger      logging.Logger
	now         func() time.Time

	// dummyHash is compared against on unknown identifiers so a failed
	// login costs the same whether or not the account exists.
	dummyHash string
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, guard *dbx.Guard,
	hasher auth.PasswordHasher, issuer *auth.TokenIssuer, logger logging.Logger) (*AccountService, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AccountService{
		db:          db,
		repomanager: m,
		guard:       guard,
		hasher:      hasher,
		issuer:      issuer,
		validate:    newValidator(),
		logger:      logger,
		now:         time.Now,
		dummyHash:   dummy,
	}, nil
}

// Register validates in, rejects taken identifiers and stores the account
// with a hashed secret. The lookup is only a fast path: the store's unique
// constraint decides concurrent registrations of the same identifier.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	err := s.guard.Do(ctx, func(ctx context.Context) error {
		_, err := s.repomanager.Accounts(s.db).GetByIdentifier(ctx, in.Identifier)
		switch {
		case err == nil:
			return &common.DuplicateAccountError{Identifier: in.Identifier}
		case errors.Is(err, common.ErrNotFound):
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	hash, err := s.hashSecret(in.Secret)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:         uuid.NewString(),
		Identifier: in.Identifier,
		SecretHash: hash,
		Address:    in.Address,
		BirthDate:  in.BirthDate,
	}

	var created *models.Account
	err = s.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.repomanager.Accounts(s.db).Create(ctx, account)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "account registered", "identifier", created.Identifier)
	return created, nil
}

// Login checks the credentials and issues an access token. Unknown
// identifiers and wrong secrets are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, identifier, secret string) (*models.Account, string, error) {
	if identifier == "" || secret == "" {
		return nil, "", common.ErrInvalidCredentials
	}

	account, err := s.load(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.Verify(secret, s.dummyHash)
			return nil, "", common.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !s.hasher.Verify(secret, account.SecretHash) {
		return nil, "", common.ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(account.ID, account.Identifier, s.now())
	if err != nil {
		return nil, "", fmt.Errorf("%w: issue token: %v", common.ErrInternal, err)
	}
	return account, token, nil
}

// Get returns the account with its favorites. accountID is the caller's
// account; any other account under identifier is common.ErrForbidden.
func (s *AccountService) Get(ctx context.Context, accountID, identifier string) (*models.Account, error) {
	account, err := s.load(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(account, accountID); err != nil {
		return nil, err
	}
	return account, nil
}

// Update applies the supplied fields only. A new secret is rehashed; a new
// identifier is subject to the same uniqueness rule as registration.
func (s *AccountService) Update(ctx context.Context, accountID, identifier string, in UpdateInput) (*models.Account, error) {
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	patch := models.AccountPatch{
		Identifier: in.Identifier,
		Address:    in.Address,
		BirthDate:  in.BirthDate,
	}
	if in.Secret != nil {
		hash, err := s.hashSecret(*in.Secret)
		if err != nil {
			return nil, err
		}
		patch.SecretHash = &hash
	}

	if patch.Empty() {
		return s.Get(ctx, accountID, identifier)
	}

	var updated *models.Account
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Accounts(tx)
			current, err := ownedAccount(ctx, repo, accountID, identifier)
			if err != nil {
				return err
			}
			a, err := repo.Update(ctx, current.ID, patch)
			if err != nil {
				return err
			}
			if a.Favorites, err = repo.ListFavorites(ctx, a.ID); err != nil {
				return err
			}
			updated = a
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if updated.Identifier != identifier {
		s.logger.Info(ctx, "account renamed", "from", identifier, "to", updated.Identifier)
	}
	return updated, nil
}

// Delete removes the account and its favorites. A second delete reports
// common.ErrNotFound.
func (s *AccountService) Delete(ctx context.Context, accountID, identifier string) error {
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Accounts(tx)
			a, err := ownedAccount(ctx, repo, accountID, identifier)
			if err != nil {
				return err
			}
			return repo.Delete(ctx, a.ID)
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "account deleted", "identifier", identifier)
	return nil
}

// load reads the account and its favorites as one consistent snapshot.
func (s *AccountService) load(ctx context.Context, identifier string) (*models.Account, error) {
	var account *models.Account
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Accounts(tx)
			a, err := repo.GetByIdentifier(ctx, identifier)
			if err != nil {
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

// ownedAccount looks identifier up and checks that it still names the
// caller's account. Identifiers can be renamed and registered again, so a
// token's account ID is the only thing ownership is decided on.
func ownedAccount(ctx context.Context, repo accounts.Repository, accountID, identifier string) (*models.Account, error) {
	a, err := repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(a, accountID); err != nil {
		return nil, err
	}
	return a, nil
}

func checkOwner(a *models.Account, accountID string) error {
	if a.ID != accountID {
		return fmt.Errorf("%w: %s belongs to another account", common.ErrForbidden, a.Identifier)
	}
	return nil
}

func (s *AccountService) hashSecret(secret string) (string, error) {
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		if errors.Is(err, common.ErrInvalidInput) {
			return "", secretTooLong()
		}
		return "", fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	return hash, nil
}
