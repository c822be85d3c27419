package logging_test

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Amund211/videofeed/internal/logging"
	"github.com/stretchr/testify/require"
)

type jsonWriter struct {
	t    *testing.T
	mu   sync.Mutex
	data []string
}

func newWriter(t *testing.T) *jsonWriter {
	return &jsonWriter{t: t}
}

func (w *jsonWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.data = append(w.data, string(p))
	return len(p), nil
}

// Pop the last entry, dropping "time" as it is hard to match against
func (w *jsonWriter) PopWithoutTime() (map[string]any, bool) {
	w.t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.data) == 0 {
		return nil, false
	}

	last := w.data[len(w.data)-1]
	w.data = w.data[:len(w.data)-1]

	var result map[string]any
	require.NoError(w.t, json.Unmarshal([]byte(last), &result))

	timeStr, ok := result["time"].(string)
	require.True(w.t, ok)
	parsed, err := time.Parse(time.RFC3339, timeStr)
	require.NoError(w.t, err)
	require.WithinDuration(w.t, time.Now(), parsed, 5*time.Second)

	delete(result, "time")
	return result, true
}

func (w *jsonWriter) RequireEmpty() {
	w.t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	require.Empty(w.t, w.data)
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("stored logger", func(t *testing.T) {
		t.Parallel()

		logger := slog.New(slog.NewJSONHandler(newWriter(t), nil))
		ctx := logging.AddToContext(t.Context(), logger)

		require.Same(t, logger, logging.FromContext(ctx))
	})

	t.Run("fallback", func(t *testing.T) {
		t.Parallel()

		require.NotNil(t, logging.FromContext(t.Context()))
		logging.FromContext(t.Context()).Info("don't crash when no logger in context")
	})
}

func TestAddMetaToContext(t *testing.T) {
	t.Parallel()

	w := newWriter(t)
	rootLogger := slog.New(slog.NewJSONHandler(w, nil)).With(slog.String("rootprop", "rootval"))
	ctx := logging.AddToContext(t.Context(), rootLogger)

	w.RequireEmpty()

	ctx = logging.AddMetaToContext(ctx, slog.String("resource", "videos"))
	logging.FromContext(ctx).Info("test")

	entry, ok := w.PopWithoutTime()
	require.True(t, ok)
	require.Equal(t, map[string]any{
		"level":    "INFO",
		"msg":      "test",
		"rootprop": "rootval",
		"resource": "videos",
	}, entry)
	w.RequireEmpty()

	ctx = logging.AddMetaToContext(ctx, slog.String("resource", "categories"), slog.String("rootprop", "rootval2"))
	logging.FromContext(ctx).Info("test")

	entry, ok = w.PopWithoutTime()
	require.True(t, ok)
	require.Equal(t, map[string]any{
		"level":    "INFO",
		"msg":      "test",
		"rootprop": "rootval2",
		"resource": "categories",
	}, entry)
}
