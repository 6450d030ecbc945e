package services

import (
	"context"
	"database/sql"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/animeflix/internal/common"
	"github.com/dmitrijs2005/animeflix/internal/dbx"
	"github.com/dmitrijs2005/animeflix/internal/logging"
	"github.com/dmitrijs2005/animeflix/internal/server/auth"
	"github.com/dmitrijs2005/animeflix/internal/server/models"
	"github.com/dmitrijs2005/animeflix/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/animeflix/internal/server/repositories/movies"
)

// -------- test fakes --------

// fakeAccountsRepo is an in-memory credential store with the same set
// semantics as the PostgreSQL one.
type fakeAccountsRepo struct {
	mu        sync.Mutex
	accounts  map[string]*models.Account // by identifier
	favorites map[string][]string        // by account id

	// forced errors
	getErr    error
	createErr error
	listErr   error
	addErr    error

	creates int
}

func newFakeAccountsRepo() *fakeAccountsRepo {
	return &fakeAccountsRepo{
		accounts:  map[string]*models.Account{},
		favorites: map[string][]string{},
	}
}

var _ accounts.Repository = (*fakeAccountsRepo)(nil)

func (f *fakeAccountsRepo) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.accounts[a.Identifier]; ok {
		return nil, &common.DuplicateAccountError{Identifier: a.Identifier}
	}
	f.creates++
	cp := *a
	cp.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.accounts[a.Identifier] = &cp
	out := cp
	out.Favorites = []string{}
	return &out, nil
}

func (f *fakeAccountsRepo) GetByIdentifier(_ context.Context, identifier string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.accounts[identifier]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccountsRepo) byID(accountID string) (*models.Account, bool) {
	for _, a := range f.accounts {
		if a.ID == accountID {
			return a, true
		}
	}
	return nil, false
}

func (f *fakeAccountsRepo) Update(_ context.Context, accountID string, p models.AccountPatch) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID(accountID)
	if !ok {
		return nil, common.ErrNotFound
	}
	if p.Identifier != nil && *p.Identifier != a.Identifier {
		if _, taken := f.accounts[*p.Identifier]; taken {
			return nil, &common.DuplicateAccountError{Identifier: *p.Identifier}
		}
	}
	cp := *a
	if p.Identifier != nil {
		cp.Identifier = *p.Identifier
	}
	if p.SecretHash != nil {
		cp.SecretHash = *p.SecretHash
	}
	if p.Address != nil {
		cp.Address = *p.Address
	}
	if p.BirthDate != nil {
		cp.BirthDate = p.BirthDate
	}
	delete(f.accounts, a.Identifier)
	f.accounts[cp.Identifier] = &cp
	out := cp
	return &out, nil
}

func (f *fakeAccountsRepo) Delete(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID(accountID)
	if !ok {
		return common.ErrNotFound
	}
	delete(f.favorites, a.ID)
	delete(f.accounts, a.Identifier)
	return nil
}

func (f *fakeAccountsRepo) ListFavorites(_ context.Context, accountID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string{}, f.favorites[accountID]...), nil
}

func (f *fakeAccountsRepo) AddFavorite(_ context.Context, accountID, movieID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	if !slices.Contains(f.favorites[accountID], movieID) {
		f.favorites[accountID] = append(f.favorites[accountID], movieID)
	}
	return nil
}

func (f *fakeAccountsRepo) RemoveFavorite(_ context.Context, accountID, movieID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.favorites[accountID] = slices.DeleteFunc(f.favorites[accountID], func(id string) bool { return id == movieID })
	return nil
}

type fakeMoviesRepo struct {
	movies.Repository
	list    []models.Movie
	one     *models.Movie
	err     error
	lastArg string
}

func (f *fakeMoviesRepo) List(context.Context) ([]models.Movie, error) {
	return f.list, f.err
}

func (f *fakeMoviesRepo) GetByTitle(_ context.Context, title string) (*models.Movie, error) {
	f.lastArg = title
	if f.err != nil {
		return nil, f.err
	}
	if f.one == nil {
		return nil, common.ErrNotFound
	}
	return f.one, nil
}

func (f *fakeMoviesRepo) ListByGenre(_ context.Context, genre string) ([]models.Movie, error) {
	f.lastArg = genre
	return f.list, f.err
}

func (f *fakeMoviesRepo) ListByDirector(_ context.Context, director string) ([]models.Movie, error) {
	f.lastArg = director
	return f.list, f.err
}

type fakeRepoManager struct {
	a *fakeAccountsRepo
	m *fakeMoviesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository        { return m.a }
func (m *fakeRepoManager) Movies(dbx.DBTX) movies.Repository            { return m.m }

// -------- helpers --------

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// expectTx queues n begin/commit pairs.
func expectTx(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func newTestGuard() *dbx.Guard {
	return dbx.NewGuard(dbx.GuardSettings{Name: "test", Timeout: time.Second})
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newAccountService(t *testing.T, db *sql.DB, repo *fakeAccountsRepo) *AccountService {
	t.Helper()
	s, err := NewAccountService(db, &fakeRepoManager{a: repo}, newTestGuard(),
		auth.NewBcryptHasher(bcrypt.MinCost), auth.NewTokenIssuer([]byte("k"), time.Hour), logging.Nop{})
	if err != nil {
		t.Fatalf("NewAccountService error: %v", err)
	}
	s.now = func() time.Time { return testNow }
	return s
}
