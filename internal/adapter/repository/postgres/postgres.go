// Package postgres implements the mapping store on top of PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type urlDB struct {
	ID        int64     `db:"id"`
	Code      string    `db:"code"`
	LongURL   string    `db:"long_url"`
	OwnerID   string    `db:"owner_id"`
	Visits    int64     `db:"visits"`
	CreatedAt time.Time `db:"created_at"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ID:        u.ID,
		Code:      u.Code,
		LongURL:   u.LongURL,
		OwnerID:   u.OwnerID,
		Visits:    u.Visits,
		CreatedAt: u.CreatedAt.UTC(),
	}
}

func toEntities(rows []urlDB) []entity.URL {
	urls := make([]entity.URL, 0, len(rows))
	for i := range rows {
		urls = append(urls, *rows[i].toEntity())
	}
	return urls
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

func (r *URLRepository) Reserve(ctx context.Context, code, longURL, ownerID string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Reserve"
	const query = `
		INSERT INTO urls(code, long_url, owner_id) VALUES ($1, $2, $3)
		RETURNING id, code, long_url, owner_id, visits, created_at`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, code, longURL, ownerID); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into urls table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) Find(ctx context.Context, code string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Find"
	const query = `SELECT id, code, long_url, owner_id, visits, created_at FROM urls WHERE code = $1`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) IncrementVisits(ctx context.Context, code string) error {
	const op = "adapter.repository.postgres.URLRepository.IncrementVisits"
	const query = `UPDATE urls SET visits = visits + 1 WHERE code = $1`

	res, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return fmt.Errorf("%s: failed to update urls table row: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return nil
}

func (r *URLRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.ListByOwner"
	const query = `
		SELECT id, code, long_url, owner_id, visits, created_at FROM urls
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC`

	var rows []urlDB

	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("%s: failed to select from urls table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return toEntities(rows), nil
}

// SearchByOwner matches substr case-insensitively; LIKE wildcards in substr match literally.
func (r *URLRepository) SearchByOwner(ctx context.Context, ownerID, substr string) ([]entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.SearchByOwner"
	const query = `
		SELECT id, code, long_url, owner_id, visits, created_at FROM urls
		WHERE owner_id = $1 AND long_url ILIKE $2 ESCAPE '\'
		ORDER BY created_at DESC, id DESC`

	var rows []urlDB

	pattern := "%" + likeEscaper.Replace(substr) + "%"
	if err := r.db.SelectContext(ctx, &rows, query, ownerID, pattern); err != nil {
		return nil, fmt.Errorf("%s: failed to select from urls table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return toEntities(rows), nil
}
