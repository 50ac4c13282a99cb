package tasks

import (
	"fmt"
	"sync"
	"time"

	"github.com/lysyi3m/ioc-comb/app/database"
	"github.com/lysyi3m/ioc-comb/app/ioc"
)

// MockSourceRepository keeps sources in memory.
type MockSourceRepository struct {
	mu      sync.Mutex
	sources map[string]*database.Source
	err     error
}

func NewMockSourceRepository() *MockSourceRepository {
	return &MockSourceRepository{sources: make(map[string]*database.Source)}
}

func (m *MockSourceRepository) GetSource(sourceName string) (*database.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	source, ok := m.sources[sourceName]
	if !ok {
		return nil, nil
	}
	copied := *source
	return &copied, nil
}

func (m *MockSourceRepository) GetSourceCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources), nil
}

func (m *MockSourceRepository) UpsertSource(sourceName, feedURL, feedType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if source, ok := m.sources[sourceName]; ok {
		source.FeedURL = feedURL
		source.FeedType = feedType
		return nil
	}
	m.sources[sourceName] = &database.Source{ID: sourceName + "-id", Name: sourceName, FeedURL: feedURL, FeedType: feedType}
	return nil
}

func (m *MockSourceRepository) UpdateCursor(sourceName string, cursor string, nextCollect time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	source, ok := m.sources[sourceName]
	if !ok {
		return fmt.Errorf("source '%s' not found", sourceName)
	}
	now := time.Now().UTC()
	source.Cursor = cursor
	source.LastCollectedAt = &now
	source.NextCollectAt = &nextCollect
	return nil
}

func (m *MockSourceRepository) ResetCursor(sourceName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	source, ok := m.sources[sourceName]
	if !ok {
		return fmt.Errorf("source '%s' not found", sourceName)
	}
	source.Cursor = ""
	source.NextCollectAt = nil
	return nil
}

// MockArtifactRepository deduplicates by source, kind and value like the
// SQL store does.
type MockArtifactRepository struct {
	mu        sync.Mutex
	artifacts map[string][]ioc.Artifact
	seen      map[string]bool
	err       error
}

func NewMockArtifactRepository() *MockArtifactRepository {
	return &MockArtifactRepository{
		artifacts: make(map[string][]ioc.Artifact),
		seen:      make(map[string]bool),
	}
}

func (m *MockArtifactRepository) GetArtifacts(sourceName string, limit int) ([]database.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []database.Artifact
	for _, artifact := range m.artifacts[sourceName] {
		if len(result) == limit {
			break
		}
		result = append(result, database.Artifact{Kind: string(artifact.Kind), Value: artifact.Value, ReferenceLink: artifact.ReferenceLink})
	}
	return result, nil
}

func (m *MockArtifactRepository) GetArtifactCount(sourceName string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.artifacts[sourceName]), nil
}

func (m *MockArtifactRepository) InsertArtifacts(sourceName string, artifacts []ioc.Artifact) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	inserted := 0
	for _, artifact := range artifacts {
		key := sourceName + "|" + string(artifact.Kind) + "|" + artifact.Value
		if m.seen[key] {
			continue
		}
		m.seen[key] = true
		m.artifacts[sourceName] = append(m.artifacts[sourceName], artifact)
		inserted++
	}
	return inserted, nil
}
