package rpctest_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/rpctest/rpctest"
)

func TestWaitCompletes(t *testing.T) {
	f := newFixture(t)
	defer f.Close()
	f.server.SetStatusScript(rpctest.StatusRunning, "pending", rpctest.StatusCompleted)

	ctx := context.Background()
	handle, err := f.client.CreateTest(ctx, rpctest.SimpleTestConfig())
	require.NoError(t, err)

	require.NoError(t, f.client.WaitForCompletion(ctx, handle, time.Minute))
	assert.Equal(t, []time.Duration{rpctest.DefaultPollInterval, rpctest.DefaultPollInterval}, f.clock.Sleeps())
}

func TestWaitAlreadyCompleted(t *testing.T) {
	f := newFixture(t)
	defer f.Close()
	f.server.SetStatusScript(rpctest.StatusCompleted)

	ctx := context.Background()
	handle, err := f.client.CreateTest(ctx, rpctest.SimpleTestConfig())
	require.NoError(t, err)

	require.NoError(t, f.client.WaitForCompletion(ctx, handle, time.Minute))
	assert.Empty(t, f.clock.Sleeps())
}

func TestWaitFailed(t *testing.T) {
	f := newFixture(t)
	defer f.Close()
	f.server.SetStatusScript(rpctest.StatusRunning, rpctest.StatusFailed)

	ctx := context.Background()
	handle, err := f.client.CreateTest(ctx, rpctest.SimpleTestConfig())
	require.NoError(t, err)

	assert.Equal(t, rpctest.ErrTestFailed, f.client.WaitForCompletion(ctx, handle, time.Minute))
	assert.Len(t, f.clock.Sleeps(), 1)
}

func TestWaitTimeout(t *testing.T) {
	for _, tc := range []struct {
		maxWait time.Duration
		polls   int
	}{
		{10 * time.Second, 2},
		{12 * time.Second, 3},
		{15 * time.Second, 3},
		{time.Second, 1},
	} {
		f := newFixture(t)
		f.server.SetStatusScript(rpctest.StatusRunning)

		ctx := context.Background()
		handle, err := f.client.CreateTest(ctx, rpctest.SimpleTestConfig())
		require.NoError(t, err)

		err = f.client.WaitForCompletion(ctx, handle, tc.maxWait)
		require.Error(t, err)
		assert.True(t, rpctest.IsTimeout(err), "maxWait %v: %v", tc.maxWait, err)
		assert.Equal(t, rpctest.StatusRunning, err.(*rpctest.TimeoutError).LastStatus)

		// One creation, then one GET per poll.
		assert.Len(t, f.server.Requests(), 1+tc.polls, "maxWait %v", tc.maxWait)
		f.Close()
	}
}

func TestWaitDefaultMaxWait(t *testing.T) {
	f := newFixture(t)
	defer f.Close()
	f.server.SetStatusScript(rpctest.StatusRunning)

	ctx := context.Background()
	handle, err := f.client.CreateTest(ctx, rpctest.SimpleTestConfig())
	require.NoError(t, err)

	err = f.client.WaitForCompletion(ctx, handle, 0)
	require.True(t, rpctest.IsTimeout(err), "%v", err)
	assert.Equal(t, rpctest.DefaultMaxWait, err.(*rpctest.TimeoutError).MaxWait)
	assert.Len(t, f.clock.Sleeps(), int(rpctest.DefaultMaxWait/rpctest.DefaultPollInterval))
}

func TestWaitStatusErrorStops(t *testing.T) {
	f := newFixture(t)
	defer f.Close()

	ctx := context.Background()
	handle, err := f.client.CreateTest(ctx, rpctest.SimpleTestConfig())
	require.NoError(t, err)
	f.server.FailWith(http.MethodGet, "/test/{id}", http.StatusInternalServerError, "boom")

	err = f.client.WaitForCompletion(ctx, handle, time.Minute)
	assert.True(t, rpctest.IsStatusError(err), "%v", err)
	assert.Empty(t, f.clock.Sleeps())
}

func TestWaitCanceled(t *testing.T) {
	f := newFixture(t)
	defer f.Close()
	f.server.SetStatusScript(rpctest.StatusRunning)

	handle, err := f.client.CreateTest(context.Background(), rpctest.SimpleTestConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = f.client.WaitForCompletion(ctx, handle, time.Minute)
	assert.Error(t, err)
	assert.False(t, rpctest.IsTimeout(err))
}

func TestWaitPollStats(t *testing.T) {
	f := newFixture(t)
	defer f.Close()
	f.server.SetStatusScript(rpctest.StatusRunning, rpctest.StatusRunning, rpctest.StatusCompleted)

	ctx := context.Background()
	handle, err := f.client.CreateTest(ctx, rpctest.SimpleTestConfig())
	require.NoError(t, err)
	require.NoError(t, f.client.WaitForCompletion(ctx, handle, time.Minute))

	assert.EqualValues(t, 3, f.stat.Counter("rpctest", "wait_for_completion", "polls").Count())
	assert.EqualValues(t, 3, f.stat.Counter("rpctest", "get_status", "requests").Count())
}
