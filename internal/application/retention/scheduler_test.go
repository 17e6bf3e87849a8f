package retention

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofizant/conciliacion/internal/infrastructure/storage"
)

var fixedNow = time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)

func TestScheduler_RunOnce(t *testing.T) {
	// Arrange
	repo := storage.NewMockRepository()
	repo.AddRun(&storage.Run{ID: "old", CreatedAt: fixedNow.AddDate(0, 0, -91)}, nil)
	repo.AddRun(&storage.Run{ID: "recent", CreatedAt: fixedNow.AddDate(0, 0, -89)}, nil)
	s, err := NewScheduler(repo, Config{Days: 90, Schedule: "@daily"}, nil)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }

	// Act
	n, err := s.RunOnce()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, fixedNow.AddDate(0, 0, -90), repo.LastCutoff)
	assert.Equal(t, 1, repo.RunCount())
}

func TestScheduler_RunOnce_Error(t *testing.T) {
	repo := storage.NewMockRepository()
	repo.DeleteErr = errors.New("locked")
	s, err := NewScheduler(repo, Config{Days: 30, Schedule: "@daily"}, nil)
	require.NoError(t, err)

	_, err = s.RunOnce()

	assert.ErrorContains(t, err, "locked")
}

func TestScheduler_Disabled(t *testing.T) {
	repo := storage.NewMockRepository()
	s, err := NewScheduler(repo, Config{Days: 0, Schedule: "not a schedule"}, nil)
	require.NoError(t, err)

	n, err := s.RunOnce()
	s.Start()
	s.Stop()

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, repo.DeleteCalled)
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewScheduler(storage.NewMockRepository(), Config{Days: 30, Schedule: "every tuesday"}, nil)

	assert.Error(t, err)
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := NewScheduler(storage.NewMockRepository(), Config{Days: 30, Schedule: "@every 1h"}, nil)
	require.NoError(t, err)

	s.Start()
	s.Stop()

	assert.Len(t, s.cron.Entries(), 1)
}
