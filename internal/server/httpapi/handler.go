// Package httpapi is the HTTP surface of the server: the chi router, the
// Identity Guard middleware, request handlers and the error mapping.
package httpapi

import (
	"context"
	"time"

	"github.com/dmitrijs2005/animeflix/internal/logging"
	"github.com/dmitrijs2005/animeflix/internal/server/auth"
	"github.com/dmitrijs2005/animeflix/internal/server/config"
	"github.com/dmitrijs2005/animeflix/internal/server/metrics"
	"github.com/dmitrijs2005/animeflix/internal/server/models"
	"github.com/dmitrijs2005/animeflix/internal/server/services"
)

type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Account, error)
	Login(ctx context.Context, identifier, secret string) (*models.Account, string, error)
	Get(ctx context.Context, accountID, identifier string) (*models.Account, error)
	Update(ctx context.Context, accountID, identifier string, in services.UpdateInput) (*models.Account, error)
	Delete(ctx context.Context, accountID, identifier string) error
}

type FavoritesService interface {
	Add(ctx context.Context, accountID, identifier, movieID string) (*models.Account, error)
	Remove(ctx context.Context, accountID, identifier, movieID string) (*models.Account, error)
}

type CatalogService interface {
	Movies(ctx context.Context) ([]models.Movie, error)
	Movie(ctx context.Context, title string) (*models.Movie, error)
	ByGenre(ctx context.Context, genre string) ([]models.Movie, error)
	ByDirector(ctx context.Context, director string) ([]models.Movie, error)
}

// TokenVerifier resolves a bearer token to the account it was issued for.
type TokenVerifier interface {
	Verify(token string, now time.Time) (auth.Identity, error)
}

// Pinger reports store reachability for the readiness probe.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler holds everything the routes need. It carries no mutable state,
// so one value serves all requests concurrently.
type Handler struct {
	accounts  AccountService
	favorites FavoritesService
	catalog   CatalogService
	tokens    TokenVerifier
	store     Pinger
	metrics   *metrics.Metrics
	logger    logging.Logger
	config    *config.Config
	now       func() time.Time
}

func NewHandler(cfg *config.Config, l logging.Logger, m *metrics.Metrics, tokens TokenVerifier, store Pinger,
	as AccountService, fs FavoritesService, cs CatalogService) *Handler {
	return &Handler{
		accounts:  as,
		favorites: fs,
		catalog:   cs,
		tokens:    tokens,
		store:     store,
		metrics:   m,
		logger:    l.With("module", "http"),
		config:    cfg,
		now:       time.Now,
	}
}
