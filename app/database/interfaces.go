package database

import (
	"time"

	"github.com/lysyi3m/ioc-comb/app/ioc"
)

type SourceRepository interface {
	GetSource(sourceName string) (*Source, error)
	GetSourceCount() (int, error)

	UpsertSource(sourceName, feedURL, feedType string) error
	UpdateCursor(sourceName string, cursor string, nextCollect time.Time) error
	ResetCursor(sourceName string) error
}

type ArtifactRepository interface {
	GetArtifacts(sourceName string, limit int) ([]Artifact, error)
	GetArtifactCount(sourceName string) (int, error)

	// InsertArtifacts stores artifacts not yet known for the source and
	// returns how many were new.
	InsertArtifacts(sourceName string, artifacts []ioc.Artifact) (int, error)
}
