package core

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3cpo-dev/phonedeploy/pkg/api"
)

func TestStoreRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(ctx))

	base := time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)
	runs := []api.Deployment{
		{StartedAt: base, APIURL: "https://backend.example.com/api/v1", Source: api.SourceRemote, Status: api.RunSucceeded},
		{StartedAt: base.Add(time.Hour), APIURL: "http://192.168.1.4:8000/api/v1", Source: api.SourceLocal, Status: api.RunFailed, Detail: "flutter run: exit status 1"},
		{StartedAt: base.Add(2 * time.Hour), APIURL: "http://192.168.1.4:8000/api/v1", Source: api.SourceLocal, Device: "pixel", Status: api.RunCancelled},
	}
	for _, r := range runs {
		_, err := s.Record(ctx, r)
		require.NoError(t, err)
	}

	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, api.RunCancelled, got[0].Status)
	assert.Equal(t, "pixel", got[0].Device)
	assert.True(t, got[0].StartedAt.Equal(base.Add(2*time.Hour)))
	assert.Equal(t, api.RunFailed, got[1].Status)
	assert.Equal(t, "flutter run: exit status 1", got[1].Detail)
	assert.Equal(t, api.SourceLocal, got[1].Source)

	all, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := NewStore(path)
	require.NoError(t, err)
	_, err = s.Record(ctx, api.Deployment{StartedAt: time.Now(), APIURL: "x", Source: api.SourceRemote, Status: api.RunSucceeded})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewStore(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
