package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockRepository_RoundTrip(t *testing.T) {
	mock := NewMockRepository()

	require.NoError(t, mock.SaveRun(sampleRun("run-1", time.Now()), sampleDetail()))

	assert.True(t, mock.SaveRunCalled)
	tbl, err := mock.LoadRunTable("run-1")
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())

	rows, err := mock.ListRunRows("run-1", "Solo en Mayor")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestMockRepository_ErrorInjection(t *testing.T) {
	mock := NewMockRepository()
	mock.SaveRunErr = errors.New("disk full")

	err := mock.SaveRun(sampleRun("run-1", time.Now()), sampleDetail())

	assert.EqualError(t, err, "disk full")
	assert.Zero(t, mock.RunCount())
}

func TestMockRepository_DeleteRunsBefore(t *testing.T) {
	mock := NewMockRepository()
	mock.AddRun(sampleRun("old", time.Now().AddDate(0, 0, -10)), nil)
	mock.AddRun(sampleRun("new", time.Now()), nil)

	n, err := mock.DeleteRunsBefore(time.Now().AddDate(0, 0, -1))

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, mock.RunCount())
	_, err = mock.GetRun("old")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
