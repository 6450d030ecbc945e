package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/animeflix/internal/common"
	"github.com/dmitrijs2005/animeflix/internal/logging"
	"github.com/dmitrijs2005/animeflix/internal/server/auth"
	"github.com/dmitrijs2005/animeflix/internal/server/config"
	"github.com/dmitrijs2005/animeflix/internal/server/metrics"
	"github.com/dmitrijs2005/animeflix/internal/server/models"
	"github.com/dmitrijs2005/animeflix/internal/server/services"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// memAccounts is an in-memory stand-in for the account and favorites
// services, with the same set semantics.
type memAccounts struct {
	mu       sync.Mutex
	hasher   auth.PasswordHasher
	issuer   *auth.TokenIssuer
	accounts map[string]*models.Account

	err    error // returned by every call when set
	calls  int
	nextID int
}

func newMemAccounts(issuer *auth.TokenIssuer) *memAccounts {
	return &memAccounts{
		hasher:   auth.NewBcryptHasher(bcrypt.MinCost),
		issuer:   issuer,
		accounts: map[string]*models.Account{},
	}
}

// enter must be called with mu held.
func (m *memAccounts) enter() error {
	m.calls++
	return m.err
}

// owned must be called with mu held.
func (m *memAccounts) owned(accountID, identifier string) (*models.Account, error) {
	a, ok := m.accounts[identifier]
	if !ok {
		return nil, common.ErrNotFound
	}
	if a.ID != accountID {
		return nil, common.ErrForbidden
	}
	return a, nil
}

func (m *memAccounts) Register(_ context.Context, in services.RegisterInput) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	if len(in.Identifier) < 5 {
		return nil, &common.ValidationError{Fields: []common.FieldError{
			{Field: "identifier", Rule: "min", Message: "identifier must be at least 5 characters long"},
		}}
	}
	if _, ok := m.accounts[in.Identifier]; ok {
		return nil, &common.DuplicateAccountError{Identifier: in.Identifier}
	}
	hash, err := m.hasher.Hash(in.Secret)
	if err != nil {
		return nil, err
	}
	m.nextID++
	a := &models.Account{
		ID:         fmt.Sprintf("id-%d", m.nextID),
		Identifier: in.Identifier,
		SecretHash: hash,
		Address:    in.Address,
		BirthDate:  in.BirthDate,
		Favorites:  []string{},
		CreatedAt:  testNow,
	}
	m.accounts[in.Identifier] = a
	cp := *a
	return &cp, nil
}

func (m *memAccounts) Login(_ context.Context, identifier, secret string) (*models.Account, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, "", err
	}
	a, ok := m.accounts[identifier]
	if !ok || !m.hasher.Verify(secret, a.SecretHash) {
		return nil, "", common.ErrInvalidCredentials
	}
	token, err := m.issuer.Issue(a.ID, a.Identifier, testNow)
	if err != nil {
		return nil, "", err
	}
	cp := *a
	return &cp, token, nil
}

func (m *memAccounts) Get(_ context.Context, accountID, identifier string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	a, err := m.owned(accountID, identifier)
	if err != nil {
		return nil, err
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) Update(_ context.Context, accountID, identifier string, in services.UpdateInput) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	a, err := m.owned(accountID, identifier)
	if err != nil {
		return nil, err
	}
	if in.Identifier != nil && *in.Identifier != identifier {
		if _, taken := m.accounts[*in.Identifier]; taken {
			return nil, &common.DuplicateAccountError{Identifier: *in.Identifier}
		}
		delete(m.accounts, identifier)
		a.Identifier = *in.Identifier
		m.accounts[a.Identifier] = a
	}
	if in.Address != nil {
		a.Address = *in.Address
	}
	if in.BirthDate != nil {
		a.BirthDate = in.BirthDate
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) Delete(_ context.Context, accountID, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return err
	}
	if _, err := m.owned(accountID, identifier); err != nil {
		return err
	}
	delete(m.accounts, identifier)
	return nil
}

func (m *memAccounts) Add(_ context.Context, accountID, identifier, movieID string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	a, err := m.owned(accountID, identifier)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(a.Favorites, movieID) {
		a.Favorites = append(a.Favorites, movieID)
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) Remove(_ context.Context, accountID, identifier, movieID string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(); err != nil {
		return nil, err
	}
	a, err := m.owned(accountID, identifier)
	if err != nil {
		return nil, err
	}
	a.Favorites = slices.DeleteFunc(a.Favorites, func(id string) bool { return id == movieID })
	cp := *a
	return &cp, nil
}

type fakeCatalog struct {
	movies []models.Movie
	err    error
	calls  int
	arg    string
}

func (f *fakeCatalog) Movies(context.Context) ([]models.Movie, error) {
	f.calls++
	return f.movies, f.err
}

func (f *fakeCatalog) Movie(_ context.Context, title string) (*models.Movie, error) {
	f.calls++
	f.arg = title
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.movies {
		if f.movies[i].Title == title {
			return &f.movies[i], nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeCatalog) ByGenre(_ context.Context, genre string) ([]models.Movie, error) {
	f.calls++
	f.arg = genre
	return f.movies, f.err
}

func (f *fakeCatalog) ByDirector(_ context.Context, director string) ([]models.Movie, error) {
	f.calls++
	f.arg = director
	return f.movies, f.err
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// -------- fixture --------

type fixture struct {
	handler  *Handler
	router   http.Handler
	accounts *memAccounts
	catalog  *fakeCatalog
	issuer   *auth.TokenIssuer
	metrics  *metrics.Metrics
	pingErr  error
}

func newFixture(t *testing.T, mutate ...func(*config.Config)) *fixture {
	t.Helper()

	cfg := &config.Config{
		AllowedOrigins: []string{"http://localhost:1234"},
	}
	for _, fn := range mutate {
		fn(cfg)
	}

	f := &fixture{
		issuer:  auth.NewTokenIssuer([]byte("test-secret"), time.Hour),
		catalog: &fakeCatalog{movies: []models.Movie{{ID: "m1", Title: "Spirited Away", Genres: []models.Genre{{Name: "Fantasy"}}}}},
		metrics: metrics.New(),
	}
	f.accounts = newMemAccounts(f.issuer)

	f.handler = NewHandler(cfg, logging.Nop{}, f.metrics, f.issuer,
		pingerFunc(func(context.Context) error { return f.pingErr }),
		f.accounts, f.accounts, f.catalog)
	f.handler.now = func() time.Time { return testNow }
	f.router = f.handler.Routes()
	return f
}

func (f *fixture) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr *strings.Reader
	switch b := body.(type) {
	case nil:
		rdr = strings.NewReader("")
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = strings.NewReader(string(raw))
	}

	req := httptest.NewRequest(method, target, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// token issues a token for the seeded account under identifier, or for a
// made-up account ID when nothing is seeded.
func (f *fixture) token(t *testing.T, identifier string) string {
	t.Helper()
	accountID := "id-unseeded-" + identifier
	f.accounts.mu.Lock()
	if a, ok := f.accounts.accounts[identifier]; ok {
		accountID = a.ID
	}
	f.accounts.mu.Unlock()

	tok, err := f.issuer.Issue(accountID, identifier, testNow)
	require.NoError(t, err)
	return tok
}

func (f *fixture) seed(t *testing.T, identifier, secret string) {
	t.Helper()
	_, err := f.accounts.Register(context.Background(), services.RegisterInput{
		Identifier: identifier, Secret: secret, Address: identifier + "@example.com",
	})
	require.NoError(t, err)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}
