package schedule

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type blockingJob struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(ctx context.Context) error {
	j.calls.Add(1)
	j.once.Do(func() { close(j.started) })
	<-j.release
	return nil
}

type failingJob struct{ calls atomic.Int32 }

func (j *failingJob) Name() string { return "failing" }

func (j *failingJob) Run(ctx context.Context) error {
	j.calls.Add(1)
	return errors.New("boom")
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := NewCronScheduler()
	require.Error(t, s.AddJob(&failingJob{}, "not a spec"))
	require.NoError(t, s.AddJob(&failingJob{}, "@every 1h"))
	require.Error(t, s.AddJob(&failingJob{}, "0 3 * * *"))
}

func TestTriggerSkipsOverlappingRun(t *testing.T) {
	s := NewCronScheduler()
	job := &blockingJob{started: make(chan struct{}), release: make(chan struct{})}
	require.NoError(t, s.AddJob(job, "0 3 * * *"))

	done := make(chan bool)
	go func() {
		ran, _ := s.Trigger("blocking")
		done <- ran
	}()
	<-job.started

	ran, err := s.Trigger("blocking")
	require.NoError(t, err)
	require.False(t, ran)

	close(job.release)
	require.True(t, <-done)
	require.Equal(t, int32(1), job.calls.Load())
}

func TestTriggerUnknownJob(t *testing.T) {
	s := NewCronScheduler()
	_, err := s.Trigger("missing")
	require.Error(t, err)
	require.True(t, s.Next("missing").IsZero())
}

func TestFailingJobStillReportsRun(t *testing.T) {
	s := NewCronScheduler()
	job := &failingJob{}
	require.NoError(t, s.AddJob(job, "@every 1h"))
	ran, err := s.Trigger("failing")
	require.NoError(t, err)
	require.True(t, ran)
	require.Equal(t, int32(1), job.calls.Load())
}

func TestStartPlansNextRun(t *testing.T) {
	s := NewCronScheduler()
	require.NoError(t, s.AddJob(&failingJob{}, "@every 1h"))
	s.Start(context.Background())
	defer s.Stop()
	require.WithinDuration(t, time.Now().Add(time.Hour), s.Next("failing"), 5*time.Second)
}
