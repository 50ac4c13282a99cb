package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/lysyi3m/ioc-comb/app/database"
	"github.com/lysyi3m/ioc-comb/app/feed"
	"github.com/lysyi3m/ioc-comb/app/metrics"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type SchedulerOptions struct {
	UserAgent   string
	Interval    time.Duration
	WorkerCount int
	QueueSize   int
	TaskTimeout time.Duration
}

type Scheduler struct {
	sourceRepo       database.SourceRepository
	artifactRepo     database.ArtifactRepository
	configCache      *feed.ConfigCache
	httpClient       *http.Client
	parser           *feed.Parser
	filterer         *feed.Filterer
	contentExtractor *feed.ContentExtractor
	opts             SchedulerOptions
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface

	// Scheduled collection task ID per source, held until the task
	// succeeds or runs out of retries.
	mu       sync.Mutex
	inFlight map[string]string
}

func NewScheduler(configCache *feed.ConfigCache, sourceRepo database.SourceRepository,
	artifactRepo database.ArtifactRepository, httpClient *http.Client, opts SchedulerOptions) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 300
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = 5 * time.Minute
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}

	return &Scheduler{
		sourceRepo:       sourceRepo,
		artifactRepo:     artifactRepo,
		configCache:      configCache,
		httpClient:       httpClient,
		parser:           feed.NewParser(),
		filterer:         feed.NewFilterer(),
		contentExtractor: feed.NewContentExtractor(),
		opts:             opts,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, opts.QueueSize),
		inFlight:         make(map[string]string),
	}
}

func (s *Scheduler) Start() {
	// Source rows must exist before the first collection reads a cursor.
	s.syncSourceConfigs()

	for i := 0; i < s.opts.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		metrics.QueuedTasks.Set(float64(len(s.taskQueue)))
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// NewCollectTask builds a collection task for a configured source.
func (s *Scheduler) NewCollectTask(sourceName string) (TaskInterface, error) {
	sourceConfig, err := s.configCache.GetConfig(sourceName)
	if err != nil {
		return nil, err
	}

	return NewCollectTask(sourceConfig, s.httpClient, s.parser, s.filterer, s.contentExtractor,
		s.sourceRepo, s.artifactRepo, s.opts.UserAgent), nil
}

func (s *Scheduler) syncSourceConfigs() {
	sourceConfigs := s.configCache.GetConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No source configurations found")
		return
	}

	slog.Debug("Syncing source configurations", "count", len(sourceConfigs))

	for _, sourceConfig := range sourceConfigs {
		s.executeTask(-1, NewSyncSourceConfigTask(sourceConfig, s.sourceRepo))
	}
}

func (s *Scheduler) enqueueTasks() {
	sourceConfigs := s.configCache.GetEnabledConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No enabled source configurations found")
		return
	}

	slog.Debug("Checking enabled sources for collection", "count", len(sourceConfigs))

	now := time.Now().UTC()
	for _, sourceConfig := range sourceConfigs {
		source, err := s.sourceRepo.GetSource(sourceConfig.Name)
		if err != nil {
			slog.Warn("Failed to get source from database, skipping", "source", sourceConfig.Name, "error", err)
			continue
		}
		if source == nil {
			slog.Warn("Source not found in database, skipping", "source", sourceConfig.Name)
			continue
		}

		if source.NextCollectAt != nil && source.NextCollectAt.After(now) {
			slog.Debug("Source not due for collection yet", "source", sourceConfig.Name, "next_collect_at", source.NextCollectAt)
			continue
		}

		collectTask := NewCollectTask(sourceConfig, s.httpClient, s.parser, s.filterer, s.contentExtractor,
			s.sourceRepo, s.artifactRepo, s.opts.UserAgent)
		if !s.claim(collectTask) {
			slog.Debug("Source collection already in flight", "source", sourceConfig.Name)
			continue
		}
		if err := s.EnqueueTask(collectTask); err != nil {
			s.release(collectTask)
			slog.Warn("Failed to enqueue CollectTask", "source", sourceConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) claim(task TaskInterface) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inFlight[task.GetSourceName()]; ok {
		return false
	}
	s.inFlight[task.GetSourceName()] = task.GetID()
	return true
}

// release drops the claim only when it belongs to task, so manual
// collections never free a scheduled one.
func (s *Scheduler) release(task TaskInterface) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight[task.GetSourceName()] == task.GetID() {
		delete(s.inFlight, task.GetSourceName())
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			metrics.QueuedTasks.Set(float64(len(s.taskQueue)))
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.opts.TaskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		s.release(task)
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		s.release(task)
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	delay := retryDelay(task.GetRetryCount())

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", delay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-time.After(delay):
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				s.release(task)
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}

// retryDelay doubles with every attempt starting at one second.
func retryDelay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	if retryCount > 5 {
		return MaxRetryDelay
	}
	return min(time.Duration(1<<uint(retryCount-1))*time.Second, MaxRetryDelay)
}
