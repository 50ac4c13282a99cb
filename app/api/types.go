package api

import (
	"github.com/lysyi3m/ioc-comb/app/database"
	"github.com/lysyi3m/ioc-comb/app/feed"
	"github.com/lysyi3m/ioc-comb/app/tasks"
)

type GeneratorInterface interface {
	Run(source database.Source, artifacts []database.Artifact) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type Handler struct {
	sourceRepo   database.SourceRepository
	artifactRepo database.ArtifactRepository
	generator    GeneratorInterface
	configCache  *feed.ConfigCache
	scheduler    tasks.TaskSchedulerInterface
	version      string
}

type ArtifactResponse struct {
	Kind          string `json:"kind"`
	Value         string `json:"value"`
	ReferenceLink string `json:"reference_link"`
	CreatedAt     string `json:"created_at"`
}

const (
	defaultArtifactLimit = 100
	maxArtifactLimit     = 1000
)
