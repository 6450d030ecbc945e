// Package movies reads the catalog (movies with their genres and director).
package movies

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/dmitrijs2005/animeflix/internal/common"
	"github.com/dmitrijs2005/animeflix/internal/dbx"
	"github.com/dmitrijs2005/animeflix/internal/server/models"
)

// selectMovies yields one row per movie; genres are aggregated to a JSON
// array so a single scan builds the whole record. %s is the WHERE clause.
const selectMovies = `SELECT m.id, m.title, m.description, m.image_path, m.featured,
       d.name, d.bio, d.birth_year, d.death_year,
       COALESCE(json_agg(json_build_object('name', g.name, 'description', g.description) ORDER BY g.name)
                FILTER (WHERE g.id IS NOT NULL), '[]'::json) AS genres
  FROM movies m
  JOIN directors d ON d.id = m.director_id
  LEFT JOIN movie_genres mg ON mg.movie_id = m.id
  LEFT JOIN genres g ON g.id = mg.genre_id
 %s
 GROUP BY m.id, d.id
 ORDER BY m.title`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Movie, error) {
	return r.query(ctx, fmt.Sprintf(selectMovies, ""))
}

func (r *PostgresRepository) GetByTitle(ctx context.Context, title string) (*models.Movie, error) {
	movies, err := r.query(ctx, fmt.Sprintf(selectMovies, "WHERE m.title = $1"), title)
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, common.ErrNotFound
	}
	return &movies[0], nil
}

// ListByGenre returns every movie tagged with genre, with all of its genres.
func (r *PostgresRepository) ListByGenre(ctx context.Context, genre string) ([]models.Movie, error) {
	where := `WHERE EXISTS (
	   SELECT 1 FROM movie_genres mg2 JOIN genres g2 ON g2.id = mg2.genre_id
	    WHERE mg2.movie_id = m.id AND g2.name = $1)`
	return r.query(ctx, fmt.Sprintf(selectMovies, where), genre)
}

func (r *PostgresRepository) ListByDirector(ctx context.Context, director string) ([]models.Movie, error) {
	return r.query(ctx, fmt.Sprintf(selectMovies, "WHERE d.name = $1"), director)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]models.Movie, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	defer rows.Close()

	movies := []models.Movie{}
	for rows.Next() {
		var (
			m            models.Movie
			birth, death sql.NullInt32
			genres       []byte
		)
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.ImagePath, &m.Featured,
			&m.Director.Name, &m.Director.Bio, &birth, &death, &genres); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if err := json.Unmarshal(genres, &m.Genres); err != nil {
			return nil, fmt.Errorf("decode genres of %s: %w", m.ID, err)
		}
		m.Director.BirthYear, m.Director.DeathYear = intPtr(birth), intPtr(death)
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return movies, nil
}

func intPtr(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int32)
	return &n
}
