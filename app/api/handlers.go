package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/ioc-comb/app/database"
	"github.com/lysyi3m/ioc-comb/app/feed"
	"github.com/lysyi3m/ioc-comb/app/tasks"
)

func NewHandler(configCache *feed.ConfigCache, sourceRepo database.SourceRepository,
	artifactRepo database.ArtifactRepository, generator GeneratorInterface,
	scheduler tasks.TaskSchedulerInterface, version string) *Handler {
	return &Handler{
		sourceRepo:   sourceRepo,
		artifactRepo: artifactRepo,
		generator:    generator,
		configCache:  configCache,
		scheduler:    scheduler,
		version:      version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetArtifacts(c *gin.Context) {
	name := c.Param("name")

	limit := defaultArtifactLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(parsed, maxArtifactLimit)
	}

	source, ok := h.loadSource(c, name)
	if !ok {
		return
	}

	artifacts, err := h.artifactRepo.GetArtifacts(name, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_artifacts", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := make([]ArtifactResponse, 0, len(artifacts))
	for _, artifact := range artifacts {
		response = append(response, ArtifactResponse{
			Kind:          artifact.Kind,
			Value:         artifact.Value,
			ReferenceLink: artifact.ReferenceLink,
			CreatedAt:     artifact.CreatedAt.In(time.Local).Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"source":    name,
		"feed_type": source.FeedType,
		"cursor":    source.Cursor,
		"artifacts": response,
		"total":     len(response),
	})
}

func (h *Handler) GetFeed(c *gin.Context) {
	name := c.Param("name")

	source, ok := h.loadSource(c, name)
	if !ok {
		return
	}

	artifacts, err := h.artifactRepo.GetArtifacts(name, defaultArtifactLimit)
	if err != nil {
		slog.Error("Database error", "operation", "get_artifacts", "source", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(*source, artifacts)
	if err != nil {
		slog.Error("RSS generation error", "source", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(artifacts)))
	c.Header("X-Feed-Name", name)
	c.Header("X-Last-Updated", source.UpdatedAt.Format(time.RFC3339))

	c.String(http.StatusOK, rss)
}

func (h *Handler) APIListSources(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	sources := make([]map[string]interface{}, 0, len(configs))

	for _, sourceConfig := range configs {
		sourceInfo := map[string]interface{}{
			"name":             sourceConfig.Name,
			"url":              sourceConfig.URL,
			"feed_type":        sourceConfig.FeedType,
			"enabled":          sourceConfig.Settings.Enabled,
			"extract_content":  sourceConfig.Settings.ExtractContent,
			"refresh_interval": (time.Duration(sourceConfig.Settings.RefreshInterval) * time.Second).String(),
			"filters":          len(sourceConfig.Filters),
		}

		if source, err := h.sourceRepo.GetSource(sourceConfig.Name); err == nil && source != nil {
			sourceInfo["cursor"] = source.Cursor
			sourceInfo["last_collected_at"] = source.LastCollectedAt
			sourceInfo["next_collect_at"] = source.NextCollectAt
			sourceInfo["updated_at"] = source.UpdatedAt
		}

		if artifactCount, err := h.artifactRepo.GetArtifactCount(sourceConfig.Name); err == nil {
			sourceInfo["artifact_count"] = artifactCount
		}

		sources = append(sources, sourceInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) APICollectSource(c *gin.Context) {
	name := c.Param("name")

	if _, ok := h.loadSource(c, name); !ok {
		return
	}

	task, err := h.scheduler.NewCollectTask(name)
	if err != nil {
		slog.Error("Error creating collect task", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing collect task", "source", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue collect task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Collection enqueued",
		"task": gin.H{
			"id":   task.GetID(),
			"type": task.GetType(),
		},
	})
}

func (h *Handler) APIResetSource(c *gin.Context) {
	name := c.Param("name")

	if _, ok := h.loadSource(c, name); !ok {
		return
	}

	if err := h.sourceRepo.ResetCursor(name); err != nil {
		slog.Error("Database error", "operation", "reset_cursor", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	slog.Info("Source cursor reset", "source", name)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cursor cleared, next collection selects every item",
	})
}

// loadSource writes the error response itself when the source is unknown.
func (h *Handler) loadSource(c *gin.Context, name string) (*database.Source, bool) {
	if _, err := h.configCache.GetConfig(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return nil, false
	}

	source, err := h.sourceRepo.GetSource(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}

	if source == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found in database"})
		return nil, false
	}

	return source, true
}
