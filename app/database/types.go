package database

import (
	"time"
)

type Source struct {
	ID              string // Database UUID
	Name            string // Configuration source identifier derived from filename
	FeedURL         string
	FeedType        string
	Cursor          string // Published timestamp of the newest item seen; empty before the first run
	LastCollectedAt *time.Time
	NextCollectAt   *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Artifact struct {
	ID            string
	SourceID      string
	Kind          string
	Value         string
	ReferenceLink string
	CreatedAt     time.Time
}
