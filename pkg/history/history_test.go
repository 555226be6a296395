package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	require.NoError(t, s.Record(ctx, []Entry{
		{RunID: "a", StartedAt: first, Source: "x.xlsx", Sheet: "Sheet1", Rows: 3, OK: true},
	}))
	require.NoError(t, s.Record(ctx, []Entry{
		{RunID: "b", StartedAt: second, Source: "y.xlsx", Sheet: "Sheet1", Rows: 5, OK: true},
		{RunID: "b", StartedAt: second, Source: "y.xlsx", Sheet: "Sheet2", OK: false, Error: "quota"},
	}))

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "b", recent[0].RunID)
	assert.Equal(t, "Sheet1", recent[0].Sheet)
	assert.Equal(t, "Sheet2", recent[1].Sheet)
	assert.Equal(t, "quota", recent[1].Error)
	assert.Equal(t, "a", recent[2].RunID)

	limited, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	last, err := s.Last(ctx)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "b", last[0].RunID)
	assert.False(t, last[1].OK)
}

func TestLastEmpty(t *testing.T) {
	s := openTestStore(t)
	last, err := s.Last(context.Background())
	require.NoError(t, err)
	assert.Nil(t, last)

	assert.NoError(t, s.Record(context.Background(), nil))
}
