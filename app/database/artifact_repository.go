package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/ioc-comb/app/ioc"
)

var _ ArtifactRepository = (*SQLArtifactRepository)(nil)

type SQLArtifactRepository struct {
	db *DB
}

func NewArtifactRepository(db *DB) *SQLArtifactRepository {
	return &SQLArtifactRepository{db: db}
}

func (r *SQLArtifactRepository) InsertArtifacts(sourceName string, artifacts []ioc.Artifact) (int, error) {
	if len(artifacts) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var sourceID string
	err = tx.QueryRow(`SELECT id FROM sources WHERE name = ?`, sourceName).Scan(&sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("source '%s' not found", sourceName)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up source: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO artifacts (id, source_id, kind, value, reference_link, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_id, kind, value) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	inserted := 0
	for _, artifact := range artifacts {
		result, err := stmt.Exec(uuid.NewString(), sourceID, string(artifact.Kind), artifact.Value, artifact.ReferenceLink, now)
		if err != nil {
			return 0, fmt.Errorf("failed to insert artifact: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read affected rows: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit artifacts: %w", err)
	}

	return inserted, nil
}

// GetArtifacts returns the newest artifacts of a source, most recent run
// first and extraction order within a run.
func (r *SQLArtifactRepository) GetArtifacts(sourceName string, limit int) ([]Artifact, error) {
	rows, err := r.db.Query(`
		SELECT a.id, a.source_id, a.kind, a.value, a.reference_link, a.created_at
		FROM artifacts a
		JOIN sources s ON s.id = a.source_id
		WHERE s.name = ?
		ORDER BY a.created_at DESC, a.rowid ASC
		LIMIT ?
	`, sourceName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		var artifact Artifact
		err := rows.Scan(
			&artifact.ID, &artifact.SourceID, &artifact.Kind, &artifact.Value,
			&artifact.ReferenceLink, &artifact.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact row: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artifact rows: %w", err)
	}

	return artifacts, nil
}

func (r *SQLArtifactRepository) GetArtifactCount(sourceName string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM artifacts a
		JOIN sources s ON s.id = a.source_id
		WHERE s.name = ?
	`, sourceName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get artifact count: %w", err)
	}
	return count, nil
}
