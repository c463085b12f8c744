package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"opsflow/internal/metrics"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/go-co-op/gocron"
)

type Schedule int

const (
	Hourly       Schedule = iota
	DailyMorning          // 07:00 UTC every day
)

const (
	triggerSchedule = "schedule"
	triggerManual   = "manual"
)

type Job interface {
	Name() string
	// Execute runs the job. ctx is cancelled when the scheduler stops.
	Execute(ctx context.Context) error
	Schedule() Schedule
}

// JobStatus is what the dashboard shows for a registered job.
type JobStatus struct {
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Running     bool       `json:"running"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastTrigger string     `json:"last_trigger,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

type scheduledJob struct {
	job     Job
	cron    *gocron.Job
	running bool
	lastRun *time.Time
	trigger string
	lastErr error
}

type SchedulerService struct {
	scheduler *gocron.Scheduler
	jobs      map[string]*scheduledJob
	order     []string
	log       logger.Logger
	started   bool
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	now       func() time.Time
}

func NewSchedulerService() *SchedulerService {
	ctx, cancel := context.WithCancel(context.Background())

	return &SchedulerService{
		scheduler: gocron.NewScheduler(time.UTC),
		jobs:      make(map[string]*scheduledJob),
		log:       logger.New("scheduler"),
		ctx:       ctx,
		cancel:    cancel,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s Schedule) String() string {
	switch s {
	case Hourly:
		return "hourly"
	case DailyMorning:
		return "daily 07:00 UTC"
	default:
		return fmt.Sprintf("schedule(%d)", int(s))
	}
}

// AddJob registers job under its name. Names are unique; a second registration is an error.
func (s *SchedulerService) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("AddJob")

	if _, exists := s.jobs[job.Name()]; exists {
		return log.Error("job already registered", "job", job.Name())
	}

	var builder *gocron.Scheduler
	switch job.Schedule() {
	case DailyMorning:
		builder = s.scheduler.Every(1).Day().At("07:00")
	case Hourly:
		builder = s.scheduler.Every(1).Hour()
	default:
		return log.Error("unsupported schedule", "job", job.Name(), "schedule", int(job.Schedule()))
	}

	cronJob, err := builder.SingletonMode().Tag(job.Name()).Do(func() {
		_ = s.run(s.ctx, job.Name(), triggerSchedule)
	})
	if err != nil {
		return log.Err("failed to register job with scheduler", err, "job", job.Name())
	}

	s.jobs[job.Name()] = &scheduledJob{job: job, cron: cronJob}
	s.order = append(s.order, job.Name())
	log.Info("Job registered", "job", job.Name(), "schedule", job.Schedule().String())

	return nil
}

// run executes a job once. A manual trigger never overlaps a scheduled run of the same job.
func (s *SchedulerService) run(ctx context.Context, name, trigger string) error {
	log := s.log.Function("run")

	s.mu.Lock()
	entry, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: job %q", ErrNotFound, name)
	}
	if entry.running {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	entry.running = true
	s.mu.Unlock()

	log.Info("Executing job", "job", name, "trigger", trigger)
	start := s.now()
	err := entry.job.Execute(ctx)
	elapsed := s.now().Sub(start)

	s.mu.Lock()
	entry.running = false
	entry.lastRun = &start
	entry.trigger = trigger
	entry.lastErr = err
	s.mu.Unlock()

	if err != nil {
		metrics.ObserveJobRun(name, trigger, "error", elapsed)
		return log.Err("Job execution failed", err, "job", name, "trigger", trigger)
	}

	metrics.ObserveJobRun(name, trigger, "success", elapsed)
	log.Info("Job execution completed", "job", name, "trigger", trigger, "duration", elapsed)
	return nil
}

func (s *SchedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.Function("Start")

	if s.started {
		return nil
	}

	if len(s.jobs) == 0 {
		log.Info("No jobs registered, scheduler will not start")
		return nil
	}

	s.scheduler.StartAsync()
	s.started = true
	log.Info("Scheduler started", "jobCount", len(s.jobs))

	return nil
}

// Stop cancels in-flight job contexts and waits for gocron to wind down. The lock is
// released first; running jobs need it to record their result.
func (s *SchedulerService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	s.cancel()
	s.scheduler.Stop()

	s.log.Function("Stop").Info("Scheduler stopped")
	return nil
}

func (s *SchedulerService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

func (s *SchedulerService) GetJobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Jobs lists registered jobs in registration order.
func (s *SchedulerService) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.order))
	for _, name := range s.order {
		entry := s.jobs[name]
		status := JobStatus{
			Name:        name,
			Schedule:    entry.job.Schedule().String(),
			Running:     entry.running,
			LastRun:     entry.lastRun,
			LastTrigger: entry.trigger,
		}
		if entry.lastErr != nil {
			status.LastError = entry.lastErr.Error()
		}
		if s.started && entry.cron != nil {
			next := entry.cron.NextRun()
			status.NextRun = &next
		}
		statuses = append(statuses, status)
	}

	return statuses
}

// TriggerJobByName runs a registered job once, synchronously, outside its schedule.
func (s *SchedulerService) TriggerJobByName(ctx context.Context, jobName string) error {
	return s.run(ctx, jobName, triggerManual)
}
