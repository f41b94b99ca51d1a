package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name     string
	schedule string
	runs     atomic.Int32
	err      error
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }
func (j *stubJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestAddJob_Duplicate(t *testing.T) {
	s := New(zerolog.Nop())
	job := &stubJob{name: "scan", schedule: "@hourly"}

	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job))
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	assert.Error(t, s.AddJob(&stubJob{name: "bad", schedule: "not a schedule"}))
}

func TestRunJob_Immediate(t *testing.T) {
	s := New(zerolog.Nop())
	job := &stubJob{name: "scan", schedule: "@hourly"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("scan"))

	deadline := time.Now().Add(2 * time.Second)
	for job.runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestRunJob_Unknown(t *testing.T) {
	s := New(zerolog.Nop())
	assert.Error(t, s.RunJob("missing"))
}

func TestRunJob_RecordsFailureAfterRetries(t *testing.T) {
	s := New(zerolog.Nop())
	s.retryDelay = time.Millisecond
	job := &stubJob{name: "flaky", schedule: "@hourly", err: errors.New("boom")}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, int32(4), job.runs.Load(), "initial attempt plus three retries")
	history := s.History("flaky")
	require.NotNil(t, history)
	require.Len(t, history.Results, 1)
	assert.False(t, history.Results[0].Success)
	assert.Equal(t, "boom", history.Results[0].Error)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 105; i++ {
		h.AddResult(JobResult{JobName: "scan", Success: i%2 == 0})
	}

	assert.Len(t, h.Results, 100)
	assert.Len(t, h.GetLatestResults(10), 10)
	assert.Empty(t, h.GetLatestResults(0))
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 0.02)
}
