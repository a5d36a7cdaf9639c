package rpctest

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	log "github.com/sirupsen/logrus"
)

// Clock is the time source of the polling loop. Allows for overriding in tests.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, in which case it returns ctx.Err().
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// SystemClock returns a Clock backed by the stdlib 'time' package.
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WaitForCompletion polls the status of the test at a fixed interval until it is
// completed (nil), failed (ErrTestFailed), the status call itself fails (that
// error, no retry), or maxWait elapses (*TimeoutError). A non-positive maxWait
// selects DefaultMaxWait.
//
// A poll is made immediately and then after every interval for as long as less
// than maxWait has elapsed, so a test that never finishes is polled
// ceil(maxWait/interval) times.
func (c *Client) WaitForCompletion(ctx context.Context, handle TestHandle, maxWait time.Duration) error {
	if handle.TestID == "" {
		return ErrEmptyTestID
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	log.Infof("Waiting up to %v for test %s to complete...", maxWait, handle)

	interval := backoff.NewConstantBackOff(c.pollInterval)
	polls := c.stat.Scope("wait_for_completion").Counter("polls")
	start := c.clock.Now()
	lastStatus := ""

	for c.clock.Now().Sub(start) < maxWait {
		polls.Inc(1)
		status, err := c.GetStatus(ctx, handle)
		if err != nil {
			log.Errorf("Could not get status for test %s: %v", handle, err)
			return err
		}
		lastStatus = status

		switch status {
		case StatusCompleted:
			log.Infof("Test %s completed", handle)
			return nil
		case StatusFailed:
			log.Errorf("Test %s failed", handle)
			return ErrTestFailed
		}

		if err := c.clock.Sleep(ctx, interval.NextBackOff()); err != nil {
			return err
		}
	}

	log.Errorf("Timeout waiting for test %s to complete", handle)
	return &TimeoutError{TestID: handle.TestID, MaxWait: maxWait, LastStatus: lastStatus}
}
