// Package accounts is the PostgreSQL-backed Credential Store.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/animeflix/internal/common"
	"github.com/dmitrijs2005/animeflix/internal/dbx"
	"github.com/dmitrijs2005/animeflix/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the account. The UNIQUE constraint on identifier is the
// authoritative duplicate check; its violation becomes DuplicateAccountError.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (id, identifier, secret_hash, address, birth_date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.Identifier, account.SecretHash, account.Address, dateArg(account.BirthDate),
	).Scan(&account.CreatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, &common.DuplicateAccountError{Identifier: account.Identifier}
		}
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	account.Favorites = []string{}
	return account, nil
}

func (r *PostgresRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	query :=
		`SELECT id, identifier, secret_hash, address, birth_date, created_at FROM accounts
		 WHERE identifier = $1
		 `

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return account, nil
}

// Update applies only the non-nil fields of patch to the account with the
// given ID.
func (r *PostgresRepository) Update(ctx context.Context, accountID string, patch models.AccountPatch) (*models.Account, error) {
	query :=
		`UPDATE accounts SET
		   identifier  = COALESCE($2, identifier),
		   secret_hash = COALESCE($3, secret_hash),
		   address     = COALESCE($4, address),
		   birth_date  = COALESCE($5, birth_date)
		 WHERE id = $1
		 RETURNING id, identifier, secret_hash, address, birth_date, created_at
		 `

	account, err := scanAccount(r.db.QueryRowContext(ctx, query,
		accountID, stringArg(patch.Identifier), stringArg(patch.SecretHash), stringArg(patch.Address), dateArg(patch.BirthDate),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		if dbx.IsUniqueViolation(err) && patch.Identifier != nil {
			return nil, &common.DuplicateAccountError{Identifier: *patch.Identifier}
		}
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return account, nil
}

// Delete removes the account; favorites go with it via ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, accountID string) error {
	query := `DELETE FROM accounts WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ListFavorites returns movie ids in the order they were added.
func (r *PostgresRepository) ListFavorites(ctx context.Context, accountID string) ([]string, error) {
	query :=
		`SELECT movie_id FROM account_favorites
		 WHERE account_id = $1
		 ORDER BY added_at, movie_id
		 `

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	defer rows.Close()

	favorites := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		favorites = append(favorites, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return favorites, nil
}

// AddFavorite is an atomic add-to-set: inserting an id that is already
// present is a no-op. A vanished account surfaces as ErrNotFound.
func (r *PostgresRepository) AddFavorite(ctx context.Context, accountID, movieID string) error {
	query :=
		`INSERT INTO account_favorites (account_id, movie_id)
		 VALUES ($1, $2)
		 ON CONFLICT (account_id, movie_id) DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, accountID, movieID); err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return common.ErrNotFound
		}
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return nil
}

// RemoveFavorite is an atomic remove-from-set; removing an absent id is a no-op.
func (r *PostgresRepository) RemoveFavorite(ctx context.Context, accountID, movieID string) error {
	query := `DELETE FROM account_favorites WHERE account_id = $1 AND movie_id = $2`

	if _, err := r.db.ExecContext(ctx, query, accountID, movieID); err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	var birth sql.NullTime
	if err := row.Scan(&a.ID, &a.Identifier, &a.SecretHash, &a.Address, &birth, &a.CreatedAt); err != nil {
		return nil, err
	}
	if birth.Valid {
		a.BirthDate = &models.Date{Time: birth.Time.UTC()}
	}
	return a, nil
}

func stringArg(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func dateArg(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.Time
}
