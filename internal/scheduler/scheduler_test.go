package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/wincast/internal/config"
	"github.com/yourusername/wincast/internal/logger"
	"github.com/yourusername/wincast/internal/pipeline"
)

func testScheduler(t *testing.T, schedule config.ScheduleConfig) *Scheduler {
	t.Helper()
	cfg, err := config.Load("testdata/nonexistent.yaml")
	require.NoError(t, err)
	cfg.Schedule = schedule

	log := logger.NewLogger("error")
	pipe := pipeline.New(cfg, log)
	return NewScheduler(pipe, &cfg.Schedule, cfg.Data.Venues, log)
}

func TestSchedulerLifecycle(t *testing.T) {
	s := testScheduler(t, config.ScheduleConfig{Cron: "0 9 * * *"})

	require.Error(t, s.Start(), "starting with no jobs must fail")
	require.NoError(t, s.ScheduleDaily())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	assert.Error(t, s.Start(), "double start must fail")
	assert.Error(t, s.ScheduleDaily(), "scheduling while running must fail")

	next := s.NextRun()
	require.False(t, next.IsZero())
	assert.Equal(t, 9, next.Hour())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.True(t, s.NextRun().IsZero())

	// Stop is idempotent.
	require.NoError(t, s.Stop())
}

func TestScheduleDailyRejectsBadCron(t *testing.T) {
	s := testScheduler(t, config.ScheduleConfig{Cron: "not a cron spec"})
	assert.Error(t, s.ScheduleDaily())
}

func TestScheduleDailyDefaultsCron(t *testing.T) {
	s := testScheduler(t, config.ScheduleConfig{})
	require.NoError(t, s.ScheduleDaily())
	require.NoError(t, s.Start())
	defer s.Stop()

	next := s.NextRun()
	require.False(t, next.IsZero())
	assert.Equal(t, 9, next.Hour())
}

func TestVenueTimeout(t *testing.T) {
	s := testScheduler(t, config.ScheduleConfig{VenueTimeoutMin: 25})
	assert.Equal(t, 25*time.Minute, s.venueTimeout())

	s = testScheduler(t, config.ScheduleConfig{})
	assert.Equal(t, defaultVenueTimeout, s.venueTimeout())
}
