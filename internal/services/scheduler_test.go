package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name     string
	schedule Schedule
	runs     int
	err      error
}

func (j *stubJob) Name() string       { return j.name }
func (j *stubJob) Schedule() Schedule { return j.schedule }
func (j *stubJob) Execute(ctx context.Context) error {
	j.runs++
	return j.err
}

func TestSchedulerService_Lifecycle(t *testing.T) {
	scheduler := NewSchedulerService()
	ctx := context.Background()

	require.NoError(t, scheduler.Start(ctx))
	assert.False(t, scheduler.IsRunning(), "scheduler without jobs stays idle")

	job := &stubJob{name: "reminder", schedule: DailyMorning}
	require.NoError(t, scheduler.AddJob(job))
	assert.Equal(t, 1, scheduler.GetJobCount())

	require.NoError(t, scheduler.Start(ctx))
	assert.True(t, scheduler.IsRunning())

	require.NoError(t, scheduler.Stop(ctx))
	assert.False(t, scheduler.IsRunning())
}

func TestSchedulerService_TriggerJobByName(t *testing.T) {
	scheduler := NewSchedulerService()
	ctx := context.Background()

	job := &stubJob{name: "reminder", schedule: Hourly}
	require.NoError(t, scheduler.AddJob(job))

	require.NoError(t, scheduler.TriggerJobByName(ctx, "reminder"))
	assert.Equal(t, 1, job.runs)

	statuses := scheduler.Jobs()
	require.Len(t, statuses, 1)
	assert.Equal(t, "reminder", statuses[0].Name)
	assert.Equal(t, "hourly", statuses[0].Schedule)
	assert.Equal(t, "manual", statuses[0].LastTrigger)
	assert.NotNil(t, statuses[0].LastRun)
	assert.Empty(t, statuses[0].LastError)

	assert.ErrorIs(t, scheduler.TriggerJobByName(ctx, "missing"), ErrNotFound)

	job.err = errors.New("boom")
	assert.Error(t, scheduler.TriggerJobByName(ctx, "reminder"))
	assert.Equal(t, "boom", scheduler.Jobs()[0].LastError)
}

func TestSchedulerService_RejectsDuplicateNames(t *testing.T) {
	scheduler := NewSchedulerService()

	require.NoError(t, scheduler.AddJob(&stubJob{name: "reminder", schedule: Hourly}))
	assert.Error(t, scheduler.AddJob(&stubJob{name: "reminder", schedule: DailyMorning}))
	assert.Equal(t, 1, scheduler.GetJobCount())
}

func TestSchedulerService_UnsupportedSchedule(t *testing.T) {
	scheduler := NewSchedulerService()

	err := scheduler.AddJob(&stubJob{name: "odd", schedule: Schedule(42)})
	assert.Error(t, err)
	assert.Equal(t, 0, scheduler.GetJobCount())
}
