package tasks

// TaskSchedulerInterface is what the API needs from the scheduler: queueing
// ad hoc work next to the periodic collection runs.
//
//	scheduler := NewScheduler(configCache, sourceRepo, artifactRepo, httpClient, opts)
//	scheduler.Start()
//	defer scheduler.Stop()
//	task, _ := scheduler.NewCollectTask(sourceName)
//	scheduler.EnqueueTask(task)
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	NewCollectTask(sourceName string) (TaskInterface, error)
}
