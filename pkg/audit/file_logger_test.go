package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLogger(t *testing.T) {
	ctx := context.Background()

	t.Run("appends one JSON line per entry", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "audit", "trail.log")
		fl, err := NewFileLogger(path)
		require.NoError(t, err)

		actor := uuid.New()
		require.NoError(t, fl.Record(ctx, &Entry{ActorID: actor, Action: ActionRoleChange, ResourceType: "principal"}))
		require.NoError(t, fl.Record(ctx, &Entry{ActorID: actor, Action: ActionAccessDenied, ResourceType: "client"}))
		require.NoError(t, fl.Close())

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()

		var entries []Entry
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var e Entry
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
			entries = append(entries, e)
		}
		require.NoError(t, scanner.Err())

		require.Len(t, entries, 2)
		assert.Equal(t, ActionRoleChange, entries[0].Action)
		assert.Equal(t, ActionAccessDenied, entries[1].Action)
		assert.Equal(t, actor, entries[1].ActorID)
	})

	t.Run("reopening appends", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "trail.log")

		fl, err := NewFileLogger(path)
		require.NoError(t, err)
		require.NoError(t, fl.Record(ctx, &Entry{Action: "first"}))
		require.NoError(t, fl.Close())

		fl, err = NewFileLogger(path)
		require.NoError(t, err)
		require.NoError(t, fl.Record(ctx, &Entry{Action: "second"}))
		require.NoError(t, fl.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "first")
		assert.Contains(t, string(data), "second")
	})

	t.Run("record after close errors", func(t *testing.T) {
		fl, err := NewFileLogger(filepath.Join(t.TempDir(), "trail.log"))
		require.NoError(t, err)
		require.NoError(t, fl.Close())

		assert.Error(t, fl.Record(ctx, &Entry{Action: "late"}))
		assert.NoError(t, fl.Close())
	})

	t.Run("unwritable directory", func(t *testing.T) {
		_, err := NewFileLogger("/proc/nonexistent/audit.log")
		assert.Error(t, err)
	})
}
