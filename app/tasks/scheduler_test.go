package tasks

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lysyi3m/ioc-comb/app/feed"
)

type stubTask struct {
	Task
	err      error
	executed chan struct{}
}

func newStubTask(err error) *stubTask {
	return &stubTask{
		Task:     NewTask(TaskTypeCollect, "stub"),
		err:      err,
		executed: make(chan struct{}, 10),
	}
}

func (t *stubTask) Execute(ctx context.Context) error {
	t.executed <- struct{}{}
	return t.err
}

func newTestConfigCache(t *testing.T, configs map[string]string) *feed.ConfigCache {
	t.Helper()
	dir := t.TempDir()
	for name, content := range configs {
		if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	configCache := feed.NewConfigCache(dir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}
	return configCache
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		retryCount int
		expected   time.Duration
	}{
		{0, 0},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{64, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := retryDelay(tt.retryCount); got != tt.expected {
			t.Errorf("Expected delay %v for retry %d, got %v", tt.expected, tt.retryCount, got)
		}
	}
}

func TestTaskRetryAccounting(t *testing.T) {
	task := NewTask(TaskTypeCollect, "bulletins")

	if task.ID == "" {
		t.Error("Expected task ID to be generated")
	}
	if task.GetSourceName() != "bulletins" {
		t.Errorf("Expected source name 'bulletins', got '%s'", task.GetSourceName())
	}

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i+1)
		}
		task.IncrementRetryCount()
	}
	if task.CanRetry() {
		t.Error("Expected retries to be exhausted")
	}

	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before start")
	}
	task.Start()
	if task.StartedAt == nil {
		t.Error("Expected start time to be recorded")
	}
}

func TestSchedulerEnqueueTaskQueueFull(t *testing.T) {
	configCache := newTestConfigCache(t, nil)
	scheduler := NewScheduler(configCache, NewMockSourceRepository(), NewMockArtifactRepository(), http.DefaultClient,
		SchedulerOptions{QueueSize: 1})

	if err := scheduler.EnqueueTask(newStubTask(nil)); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := scheduler.EnqueueTask(newStubTask(nil)); err == nil {
		t.Error("Expected error when queue is full")
	}
}

func TestSchedulerEnqueueAfterStop(t *testing.T) {
	configCache := newTestConfigCache(t, nil)
	scheduler := NewScheduler(configCache, NewMockSourceRepository(), NewMockArtifactRepository(), http.DefaultClient,
		SchedulerOptions{})
	scheduler.Stop()

	if err := scheduler.EnqueueTask(newStubTask(nil)); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled after stop, got %v", err)
	}
}

func TestSchedulerNewCollectTask(t *testing.T) {
	configCache := newTestConfigCache(t, map[string]string{
		"bulletins": "url: \"https://example.com/feed.xml\"\nfeed_type: clean\nsettings:\n  enabled: true\n",
	})
	scheduler := NewScheduler(configCache, NewMockSourceRepository(), NewMockArtifactRepository(), http.DefaultClient,
		SchedulerOptions{})

	task, err := scheduler.NewCollectTask("bulletins")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if task.GetType() != TaskTypeCollect {
		t.Errorf("Expected collect task, got %s", task.GetType())
	}

	if _, err := scheduler.NewCollectTask("missing"); err == nil {
		t.Error("Expected error for unknown source")
	}
}

func TestSchedulerSyncAndEnqueueDueSources(t *testing.T) {
	configCache := newTestConfigCache(t, map[string]string{
		"due":      "url: \"https://example.com/due.xml\"\nsettings:\n  enabled: true\n",
		"later":    "url: \"https://example.com/later.xml\"\nsettings:\n  enabled: true\n",
		"disabled": "url: \"https://example.com/disabled.xml\"\nsettings:\n  enabled: false\n",
	})
	sourceRepo := NewMockSourceRepository()
	scheduler := NewScheduler(configCache, sourceRepo, NewMockArtifactRepository(), http.DefaultClient,
		SchedulerOptions{QueueSize: 10})

	scheduler.syncSourceConfigs()

	count, _ := sourceRepo.GetSourceCount()
	if count != 3 {
		t.Fatalf("Expected 3 synced sources, got %d", count)
	}

	sourceRepo.UpdateCursor("later", "", time.Now().Add(time.Hour))

	scheduler.enqueueTasks()

	if len(scheduler.taskQueue) != 1 {
		t.Fatalf("Expected 1 queued task, got %d", len(scheduler.taskQueue))
	}
	task := <-scheduler.taskQueue
	if task.GetSourceName() != "due" {
		t.Errorf("Expected task for 'due', got '%s'", task.GetSourceName())
	}
}

func TestSchedulerSkipsSourceInFlight(t *testing.T) {
	configCache := newTestConfigCache(t, map[string]string{
		"due": "url: \"https://example.com/due.xml\"\nsettings:\n  enabled: true\n",
	})
	sourceRepo := NewMockSourceRepository()
	scheduler := NewScheduler(configCache, sourceRepo, NewMockArtifactRepository(), http.DefaultClient,
		SchedulerOptions{QueueSize: 10})

	scheduler.syncSourceConfigs()

	scheduler.enqueueTasks()
	scheduler.enqueueTasks()

	if len(scheduler.taskQueue) != 1 {
		t.Fatalf("Expected 1 queued task while collection is in flight, got %d", len(scheduler.taskQueue))
	}

	task := <-scheduler.taskQueue
	scheduler.release(task)
	scheduler.enqueueTasks()

	if len(scheduler.taskQueue) != 1 {
		t.Errorf("Expected source to be enqueued again after release, got %d", len(scheduler.taskQueue))
	}
}

func TestSchedulerReleasesClaim(t *testing.T) {
	configCache := newTestConfigCache(t, nil)
	scheduler := NewScheduler(configCache, NewMockSourceRepository(), NewMockArtifactRepository(), http.DefaultClient,
		SchedulerOptions{})
	defer scheduler.Stop()

	succeeded := newStubTask(nil)
	if !scheduler.claim(succeeded) {
		t.Fatal("Expected claim to succeed")
	}
	if scheduler.claim(newStubTask(nil)) {
		t.Error("Expected second claim for the same source to fail")
	}

	// A task that does not own the claim leaves it in place.
	scheduler.release(newStubTask(nil))
	if scheduler.claim(newStubTask(nil)) {
		t.Error("Expected claim to survive release by another task")
	}

	scheduler.executeTask(0, succeeded)
	if !scheduler.claim(newStubTask(nil)) {
		t.Error("Expected claim to be released after success")
	}

	scheduler.inFlight = make(map[string]string)
	exhausted := newStubTask(errors.New("boom"))
	exhausted.RetryCount = exhausted.MaxRetries
	scheduler.claim(exhausted)
	scheduler.executeTask(0, exhausted)
	if !scheduler.claim(newStubTask(nil)) {
		t.Error("Expected claim to be released after retries are exhausted")
	}
}

func TestSchedulerRetriesFailedTask(t *testing.T) {
	configCache := newTestConfigCache(t, nil)
	scheduler := NewScheduler(configCache, NewMockSourceRepository(), NewMockArtifactRepository(), http.DefaultClient,
		SchedulerOptions{WorkerCount: 1, Interval: time.Hour})
	scheduler.Start()
	defer scheduler.Stop()

	task := newStubTask(errors.New("boom"))
	if err := scheduler.EnqueueTask(task); err != nil {
		t.Fatal(err)
	}

	for attempt := 1; attempt <= 2; attempt++ {
		select {
		case <-task.executed:
		case <-time.After(3 * time.Second):
			t.Fatalf("Expected attempt %d to run", attempt)
		}
	}
}
