package emergency

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualStopClosesChannelAndRunsCallbacks(t *testing.T) {
	c := New(Config{StopFile: filepath.Join(t.TempDir(), "abort"), PollInterval: 50 * time.Millisecond})

	called := false
	c.OnStop(func() { called = true })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	c.Stop("test")

	select {
	case <-c.StopChannel():
	case <-time.After(time.Second):
		t.Fatal("stop channel did not close")
	}
	assert.True(t, called)
	assert.True(t, c.IsStopped())
}

func TestStopFileTriggersStop(t *testing.T) {
	stopFile := filepath.Join(t.TempDir(), "abort")
	c := New(Config{StopFile: stopFile, PollInterval: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	require.NoError(t, c.CreateStopFile())

	select {
	case <-c.StopChannel():
	case <-time.After(time.Second):
		t.Fatal("stop file was not detected")
	}
	assert.True(t, c.IsStopped())

	require.NoError(t, c.RemoveStopFile())
	_, err := os.Stat(stopFile)
	assert.True(t, os.IsNotExist(err))
}

func TestDoubleStopIsIdempotent(t *testing.T) {
	c := New(Config{StopFile: filepath.Join(t.TempDir(), "abort")})
	c.Stop("first")
	assert.NotPanics(t, func() { c.Stop("second") })
}
