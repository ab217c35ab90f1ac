package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weightcache/internal/logging"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []logging.LogEntry {
	t.Helper()
	var entries []logging.LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry logging.LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger(t *testing.T) {
	t.Run("Writes_Structured_Entries", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewLogger(logging.Config{Level: logging.DEBUG, Service: "test", BufferSize: 10, Output: &buf})

		ctx := logging.WithCorrelationID(context.Background(), "corr-1")
		logger.Info(ctx, logging.ComponentCache, logging.ActionInsert, "inserted", map[string]interface{}{"key": "k"})
		logger.Close()

		entries := decodeEntries(t, &buf)
		require.Len(t, entries, 1)
		entry := entries[0]
		assert.Equal(t, "INFO", entry.Level)
		assert.Equal(t, "inserted", entry.Message)
		assert.Equal(t, "corr-1", entry.CorrelationID)
		assert.Equal(t, "test", entry.Service)
		assert.Equal(t, logging.ComponentCache, entry.Component)
		assert.Equal(t, logging.ActionInsert, entry.Action)
		assert.Equal(t, "k", entry.Fields["key"])
		assert.Contains(t, entry.Caller, "logger_test.go")
	})

	t.Run("Filters_Below_Level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewLogger(logging.Config{Level: logging.WARN, Output: &buf})

		logger.Debug(context.Background(), logging.ComponentCache, logging.ActionInsert, "dropped")
		logger.Info(context.Background(), logging.ComponentCache, logging.ActionInsert, "dropped")
		logger.Warn(context.Background(), logging.ComponentCache, logging.ActionInsert, "kept")
		logger.Error(context.Background(), logging.ComponentCache, logging.ActionInsert, "kept", os.ErrNotExist)
		logger.Close()

		entries := decodeEntries(t, &buf)
		require.Len(t, entries, 2)
		assert.Equal(t, "WARN", entries[0].Level)
		assert.Equal(t, os.ErrNotExist.Error(), entries[1].Error)
		assert.False(t, logger.Enabled(logging.INFO))
	})

	t.Run("Duration_Is_Recorded", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewLogger(logging.Config{Level: logging.DEBUG, Output: &buf})

		logger.WithDuration(context.Background(), logging.INFO, logging.ComponentEviction, logging.ActionEvict, "run", 1500*time.Millisecond)
		logger.Close()

		entries := decodeEntries(t, &buf)
		require.Len(t, entries, 1)
		require.NotNil(t, entries[0].Duration)
		assert.Equal(t, int64(1500), *entries[0].Duration)
	})

	t.Run("Close_Is_Idempotent_And_Late_Entries_Written", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewLogger(logging.Config{Level: logging.INFO, Output: &buf})
		logger.Close()
		logger.Close()

		logger.Info(context.Background(), logging.ComponentMain, logging.ActionStop, "after close")
		assert.Len(t, decodeEntries(t, &buf), 1)
	})

	t.Run("Concurrent_Writes_Are_Serialized", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewLogger(logging.Config{Level: logging.INFO, BufferSize: 0, Output: &buf})

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					logger.Info(context.Background(), logging.ComponentCache, logging.ActionInsert, "concurrent")
				}
			}()
		}
		wg.Wait()
		logger.Close()

		assert.Len(t, decodeEntries(t, &buf), 400)
	})

	t.Run("File_Output", func(t *testing.T) {
		dir := t.TempDir()
		logger, err := logging.InitializeFromConfig("svc", logging.LogConfig{
			Level:      "info",
			EnableFile: true,
			LogDir:     dir,
		})
		require.NoError(t, err)
		t.Cleanup(func() { logging.SetGlobalLogger(nil) })

		logging.Info(context.Background(), logging.ComponentMain, logging.ActionStart, "to file")
		logger.Close()

		data, err := os.ReadFile(filepath.Join(dir, "svc.log"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"message":"to file"`)
	})
}

func TestGlobalLogger(t *testing.T) {
	t.Run("Nil_Global_Is_No_Op", func(t *testing.T) {
		logging.SetGlobalLogger(nil)

		assert.False(t, logging.DebugEnabled())
		assert.NotPanics(t, func() {
			logging.Debug(context.Background(), logging.ComponentCache, logging.ActionInsert, "nothing")
			logging.StartTimer(context.Background(), logging.ComponentCache, logging.ActionInsert, "nothing")()
		})
	})

	t.Run("Global_Routes_To_Installed_Logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewLogger(logging.Config{Level: logging.DEBUG, Output: &buf})
		logging.SetGlobalLogger(logger)
		t.Cleanup(func() { logging.SetGlobalLogger(nil) })

		assert.True(t, logging.DebugEnabled())
		logging.Warn(context.Background(), logging.ComponentConfig, logging.ActionLoad, "global")
		logger.Close()

		entries := decodeEntries(t, &buf)
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Caller, "logger_test.go")
	})
}

func TestCorrelationID(t *testing.T) {
	assert.Equal(t, "", logging.GetCorrelationID(context.Background()))

	id := logging.NewCorrelationID()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, logging.NewCorrelationID())

	ctx := logging.WithCorrelationID(context.Background(), id)
	assert.Equal(t, id, logging.GetCorrelationID(ctx))
}

func TestLogLevelFromString(t *testing.T) {
	tests := []struct {
		input string
		want  logging.LogLevel
	}{
		{"debug", logging.DEBUG},
		{"INFO", logging.INFO},
		{" warning ", logging.WARN},
		{"error", logging.ERROR},
		{"fatal", logging.FATAL},
		{"unknown", logging.INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, logging.LogLevelFromString(tt.input))
		})
	}

	assert.True(t, logging.IsValidLevel("Warn"))
	assert.False(t, logging.IsValidLevel("verbose"))
}
