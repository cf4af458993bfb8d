package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, limit int) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "test.db"), limit)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHistory_Empty(t *testing.T) {
	s := openTestStore(t, 0)
	entries, err := s.History("nobody")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistory_AppendAndCap(t *testing.T) {
	s := openTestStore(t, 3)
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append("sess-1", Entry{
			Query:   fmt.Sprintf("q%d", i),
			Success: i%2 == 0,
			Steps:   4,
			At:      at.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.Append("sess-2", Entry{Query: "other"}))

	entries, err := s.History("sess-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "q2", entries[0].Query)
	assert.Equal(t, "q4", entries[2].Query)
	assert.True(t, entries[2].At.Equal(at.Add(4*time.Minute)))

	other, err := s.History("sess-2")
	require.NoError(t, err)
	require.Len(t, other, 1)
}

func TestHistory_Clear(t *testing.T) {
	s := openTestStore(t, 0)
	require.NoError(t, s.Append("sess-1", Entry{Query: "q"}))
	require.NoError(t, s.Clear("sess-1"))

	entries, err := s.History("sess-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistory_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	s, err := NewBoltStore(path, 0)
	require.NoError(t, err)
	require.NoError(t, s.Append("sess-1", Entry{Query: "kept", Category: "Billing"}))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path, 0)
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.History("sess-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Billing", entries[0].Category)
}
