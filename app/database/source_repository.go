package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ SourceRepository = (*SQLSourceRepository)(nil)

type SQLSourceRepository struct {
	db *DB
}

func NewSourceRepository(db *DB) *SQLSourceRepository {
	return &SQLSourceRepository{db: db}
}

// UpsertSource registers a configured source. Changing the feed URL or type
// resets the cursor, since the old position means nothing for the new feed.
func (r *SQLSourceRepository) UpsertSource(sourceName, feedURL, feedType string) error {
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO sources (id, name, feed_url, feed_type, cursor, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			cursor = CASE
				WHEN sources.feed_url != excluded.feed_url OR sources.feed_type != excluded.feed_type THEN ''
				ELSE sources.cursor
			END,
			feed_url = excluded.feed_url,
			feed_type = excluded.feed_type,
			updated_at = excluded.updated_at
	`, uuid.NewString(), sourceName, feedURL, feedType, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}

	return nil
}

func (r *SQLSourceRepository) GetSource(sourceName string) (*Source, error) {
	var source Source
	var lastCollected, nextCollect sql.NullTime

	err := r.db.QueryRow(`
		SELECT id, name, feed_url, feed_type, cursor,
		       last_collected_at, next_collect_at, created_at, updated_at
		FROM sources
		WHERE name = ?
	`, sourceName).Scan(
		&source.ID, &source.Name, &source.FeedURL, &source.FeedType, &source.Cursor,
		&lastCollected, &nextCollect, &source.CreatedAt, &source.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	if lastCollected.Valid {
		source.LastCollectedAt = &lastCollected.Time
	}
	if nextCollect.Valid {
		source.NextCollectAt = &nextCollect.Time
	}

	return &source, nil
}

func (r *SQLSourceRepository) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sources`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

func (r *SQLSourceRepository) UpdateCursor(sourceName string, cursor string, nextCollect time.Time) error {
	now := time.Now().UTC()

	result, err := r.db.Exec(`
		UPDATE sources
		SET cursor = ?, last_collected_at = ?, next_collect_at = ?, updated_at = ?
		WHERE name = ?
	`, cursor, now, nextCollect.UTC(), now, sourceName)
	if err != nil {
		return fmt.Errorf("failed to update cursor: %w", err)
	}

	return r.expectRow(result, sourceName)
}

func (r *SQLSourceRepository) ResetCursor(sourceName string) error {
	result, err := r.db.Exec(`
		UPDATE sources
		SET cursor = '', next_collect_at = NULL, updated_at = ?
		WHERE name = ?
	`, time.Now().UTC(), sourceName)
	if err != nil {
		return fmt.Errorf("failed to reset cursor: %w", err)
	}

	return r.expectRow(result, sourceName)
}

func (r *SQLSourceRepository) expectRow(result sql.Result, sourceName string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("source '%s' not found", sourceName)
	}
	return nil
}
