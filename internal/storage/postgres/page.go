package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/triiJU/linkedin-insights/internal/domain"
)

type PageStore struct {
	db *sqlx.DB
}

func NewPageStore(db *sqlx.DB) *PageStore {
	return &PageStore{db: db}
}

const pageColumns = `
	id, page_id, page_name, page_url, profile_picture_url, description,
	website, industry, follower_count, head_count, specialties, location,
	sync_state, last_synced_at, created_at, updated_at`

// Get returns the stored page or (nil, nil) when the identifier has
// never been synced.
func (s *PageStore) Get(ctx context.Context, pageID string) (*domain.Page, error) {
	query := `SELECT` + pageColumns + ` FROM pages WHERE page_id = $1`

	row := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query, pageID)
	page, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *PageStore) Upsert(ctx context.Context, page *domain.Page) (int64, error) {
	query := `
		INSERT INTO pages (
			page_id, page_name, page_url, profile_picture_url, description,
			website, industry, follower_count, head_count, specialties,
			location, sync_state, last_synced_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		ON CONFLICT (page_id) DO UPDATE SET
			page_name = EXCLUDED.page_name,
			page_url = EXCLUDED.page_url,
			profile_picture_url = EXCLUDED.profile_picture_url,
			description = EXCLUDED.description,
			website = EXCLUDED.website,
			industry = EXCLUDED.industry,
			follower_count = EXCLUDED.follower_count,
			head_count = EXCLUDED.head_count,
			specialties = EXCLUDED.specialties,
			location = EXCLUDED.location,
			sync_state = EXCLUDED.sync_state,
			last_synced_at = EXCLUDED.last_synced_at,
			updated_at = now()
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		page.PageID,
		page.Name,
		page.URL,
		page.ProfilePictureURL,
		page.Description,
		page.Website,
		page.Industry,
		page.FollowerCount,
		page.HeadCount,
		pq.Array(page.Specialties),
		page.Location,
		page.SyncState,
		page.LastSyncedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// MarkSyncState records the outcome of a resync attempt without
// touching the page's data fields.
func (s *PageStore) MarkSyncState(ctx context.Context, pageID string, state domain.SyncState) error {
	result, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE pages SET sync_state = $2, updated_at = now() WHERE page_id = $1`,
		pageID, state,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrPageNotFound
	}
	return nil
}

// Delete removes the page; employees and posts go with it via the
// ON DELETE CASCADE foreign keys.
func (s *PageStore) Delete(ctx context.Context, pageID string) error {
	result, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM pages WHERE page_id = $1`, pageID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrPageNotFound
	}
	return nil
}

func (s *PageStore) List(ctx context.Context, filter domain.PageFilter) ([]domain.Page, int64, error) {
	where, args := buildPageFilter(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM pages` + where
	if err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count pages: %w", err)
	}

	query := `SELECT` + pageColumns + ` FROM pages` + where +
		` ORDER BY follower_count DESC NULLS LAST, page_id` +
		` LIMIT $` + strconv.Itoa(len(args)+1) +
		` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, filter.PageSize, filter.Offset())

	rows, err := GetExecutor(ctx, s.db).QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, 0, err
		}
		pages = append(pages, *page)
	}
	return pages, total, rows.Err()
}

// ListStale returns identifiers whose last successful sync predates the
// cutoff, for the background refresher.
func (s *PageStore) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	query := `
		SELECT page_id FROM pages
		WHERE last_synced_at IS NULL OR last_synced_at < $1
		ORDER BY last_synced_at ASC NULLS FIRST
		LIMIT $2`

	var ids []string
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &ids, query, cutoff, limit)
	return ids, err
}

func buildPageFilter(filter domain.PageFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		clauses = append(clauses, "page_name ILIKE $"+strconv.Itoa(len(args)))
	}
	if filter.Industry != "" {
		args = append(args, filter.Industry)
		clauses = append(clauses, "industry = $"+strconv.Itoa(len(args)))
	}
	if filter.MinFollowers != nil {
		args = append(args, *filter.MinFollowers)
		clauses = append(clauses, "follower_count >= $"+strconv.Itoa(len(args)))
	}
	if filter.MaxFollowers != nil {
		args = append(args, *filter.MaxFollowers)
		clauses = append(clauses, "follower_count <= $"+strconv.Itoa(len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPage(row rowScanner) (*domain.Page, error) {
	var page domain.Page
	err := row.Scan(
		&page.ID,
		&page.PageID,
		&page.Name,
		&page.URL,
		&page.ProfilePictureURL,
		&page.Description,
		&page.Website,
		&page.Industry,
		&page.FollowerCount,
		&page.HeadCount,
		pq.Array(&page.Specialties),
		&page.Location,
		&page.SyncState,
		&page.LastSyncedAt,
		&page.CreatedAt,
		&page.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &page, nil
}
