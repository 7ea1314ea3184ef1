package usage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// fakeClock advances by step on every reading
type fakeClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (f *fakeClock) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(f.step)
	return f.t
}

func newTestCollector() *Collector {
	c := NewCollector()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), step: time.Second}
	c.now = clock.now
	return c
}

func TestTrack(t *testing.T) {
	ctx := context.Background()
	c := newTestCollector()

	require.NoError(t, c.Track(ctx, OpLoader, "scan.ply", func() error { return nil }))
	require.NoError(t, c.Track(ctx, OpLoader, "scan.pcd", func() error { return nil }))
	boom := errors.New("boom")
	err := c.Track(ctx, OpLoader, "scan.e57", func() error { return boom })
	assert.ErrorIs(t, err, boom, "error should be passed through unchanged")

	stats := c.Snapshot()[OpLoader]
	assert.Equal(t, 3, stats.CallCount)
	assert.Equal(t, 2, stats.SuccessCount)
	assert.Equal(t, 1, stats.ErrorCount)
	assert.Equal(t, 3*time.Second, stats.TotalTime, "each call spans one clock step")
	assert.Equal(t, time.Second, stats.AvgTime)
	assert.InDelta(t, 66.67, stats.SuccessRate(), 0.01)
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, "boom", stats.Errors[0].Error)
	assert.Equal(t, "scan.e57", stats.Errors[0].Args)
	assert.False(t, stats.LastCalled.IsZero())
}

func TestTrackKeepsLastTenErrors(t *testing.T) {
	ctx := context.Background()
	c := newTestCollector()

	for i := range 15 {
		_ = c.Track(ctx, OpExporter, i, func() error { return errors.Errorf("failure %d", i) })
	}

	stats := c.Snapshot()[OpExporter]
	assert.Equal(t, 15, stats.ErrorCount)
	require.Len(t, stats.Errors, maxErrors)
	assert.Equal(t, "failure 5", stats.Errors[0].Error)
	assert.Equal(t, "failure 14", stats.Errors[9].Error)
}

func TestTrackTruncatesArgs(t *testing.T) {
	c := newTestCollector()
	long := strings.Repeat("x", 250)
	_ = c.Track(context.Background(), OpConfig, long, func() error { return errors.New("nope") })

	stats := c.Snapshot()[OpConfig]
	require.Len(t, stats.Errors, 1)
	assert.Len(t, stats.Errors[0].Args, maxArgsLen)
}

func TestTrackValue(t *testing.T) {
	c := newTestCollector()
	n, err := TrackValue(context.Background(), c, OpLoader, nil, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, 1, c.Snapshot()[OpLoader].SuccessCount)
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	called := false
	err := c.Track(context.Background(), OpLoader, nil, func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called, "nil collector should still run the function")
	assert.Empty(t, c.Snapshot())
	c.Reset()
}

func TestSnapshotIsACopy(t *testing.T) {
	c := newTestCollector()
	_ = c.Track(context.Background(), OpLoader, nil, func() error { return errors.New("x") })

	snap := c.Snapshot()
	s := snap[OpLoader]
	s.Errors[0].Error = "mutated"
	snap[OpLoader] = s

	assert.Equal(t, "x", c.Snapshot()[OpLoader].Errors[0].Error)
}

func TestConcurrentTrack(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Track(context.Background(), OpExporter, nil, func() error { return nil })
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Snapshot()[OpExporter].CallCount)
}

func TestContext(t *testing.T) {
	c := NewCollector()
	ctx := NewContext(context.Background(), c)
	assert.Same(t, c, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)
	store := NewStore(path)

	c := newTestCollector()
	_ = c.Track(ctx, OpLoader, "a.ply", func() error { return nil })
	_ = c.Track(ctx, OpLoader, "b.ply", func() error { return errors.New("bad header") })
	require.NoError(t, store.Save(ctx, c), "saving should succeed")

	loaded := NewCollector()
	require.NoError(t, store.Load(ctx, loaded), "loading should succeed")

	got := loaded.Snapshot()[OpLoader]
	want := c.Snapshot()[OpLoader]
	assert.Equal(t, want.CallCount, got.CallCount)
	assert.Equal(t, want.ErrorCount, got.ErrorCount)
	assert.Equal(t, want.TotalTime, got.TotalTime)
	assert.True(t, want.LastCalled.Equal(got.LastCalled))
	require.Len(t, got.Errors, 1)
	assert.Equal(t, "bad header", got.Errors[0].Error)
}

func TestStoreLoadMissingFile(t *testing.T) {
	c := newTestCollector()
	_ = c.Track(context.Background(), OpLoader, nil, func() error { return nil })

	store := NewStore(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, store.Load(context.Background(), c))
	assert.Empty(t, c.Snapshot(), "missing file should leave the collector empty")
}

func TestWriteReport(t *testing.T) {
	pterm.DisableColor()
	defer pterm.EnableColor()

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, nil))
		assert.Equal(t, "No usage statistics recorded yet.\n", buf.String())
	})

	t.Run("with_errors", func(t *testing.T) {
		c := newTestCollector()
		ctx := context.Background()
		_ = c.Track(ctx, OpLoader, nil, func() error { return nil })
		for i := range 5 {
			_ = c.Track(ctx, OpExporter, nil, func() error {
				return errors.Errorf("export %d failed: %s", i, strings.Repeat("z", 80))
			})
		}

		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, c.Snapshot()))
		out := buf.String()

		assert.Contains(t, out, "CloudForge Usage Statistics")
		assert.Contains(t, out, OpLoader)
		assert.Contains(t, out, "100.0%")
		assert.Contains(t, out, "0.0%")
		assert.Contains(t, out, fmt.Sprintf("%s: 5 recent errors", OpExporter))
		assert.NotContains(t, out, "export 1 failed", "only the last three errors are shown")
		assert.Contains(t, out, "export 4 failed")
		assert.Contains(t, out, "...", "long messages are cut")
	})
}
