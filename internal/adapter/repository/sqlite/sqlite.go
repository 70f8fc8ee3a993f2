// Package sqlite implements the mapping store on top of an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlinks/internal/entity"
	sqlitedb "github.com/vadimbarashkov/shortlinks/pkg/sqlite"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func isUniqueViolationError(err error) bool {
	var sqliteErr *sqlitedrv.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// created_at is stored as unix nanoseconds so ordering is exact and driver independent.
type urlDB struct {
	ID        int64  `db:"id"`
	Code      string `db:"code"`
	LongURL   string `db:"long_url"`
	OwnerID   string `db:"owner_id"`
	Visits    int64  `db:"visits"`
	CreatedAt int64  `db:"created_at"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ID:        u.ID,
		Code:      u.Code,
		LongURL:   u.LongURL,
		OwnerID:   u.OwnerID,
		Visits:    u.Visits,
		CreatedAt: time.Unix(0, u.CreatedAt).UTC(),
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
	db  *sqlx.DB
	now func() time.Time
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db:  db,
		now: time.Now,
	}
}

func (r *URLRepository) Reserve(ctx context.Context, code, longURL, ownerID string) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.Reserve"
	const query = `INSERT INTO urls(code, long_url, owner_id, visits, created_at) VALUES (?, ?, ?, 0, ?)`

	url := urlDB{
		Code:      code,
		LongURL:   longURL,
		OwnerID:   ownerID,
		CreatedAt: r.now().UnixNano(),
	}

	res, err := r.db.ExecContext(ctx, query, url.Code, url.LongURL, url.OwnerID, url.CreatedAt)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into urls table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	url.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get inserted row id: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) Find(ctx context.Context, code string) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.Find"
	const query = `SELECT id, code, long_url, owner_id, visits, created_at FROM urls WHERE code = ?`

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
	const op = "adapter.repository.sqlite.URLRepository.IncrementVisits"
	const query = `UPDATE urls SET visits = visits + 1 WHERE code = ?`

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
	const op = "adapter.repository.sqlite.URLRepository.ListByOwner"
	const query = `
		SELECT id, code, long_url, owner_id, visits, created_at FROM urls
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC`

	var rows []urlDB

	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("%s: failed to select from urls table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return toEntities(rows), nil
}

// SearchByOwner folds both sides with Unicode rules.
func (r *URLRepository) SearchByOwner(ctx context.Context, ownerID, substr string) ([]entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.SearchByOwner"
	const query = `
		SELECT id, code, long_url, owner_id, visits, created_at FROM urls
		WHERE owner_id = ? AND ` + sqlitedb.LowerFunc + `(long_url) LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, id DESC`

	var rows []urlDB

	pattern := "%" + likeEscaper.Replace(strings.ToLower(substr)) + "%"
	if err := r.db.SelectContext(ctx, &rows, query, ownerID, pattern); err != nil {
		return nil, fmt.Errorf("%s: failed to select from urls table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return toEntities(rows), nil
}
