// Package store adapts the asynchronous keyed store into request/response
// operations with a bounded wait. Reads and writes block the caller for at
// most the configured wait; an expired wait surfaces as
// domain.ErrStoreTimeout rather than hanging forever.
package store

import (
	"context"
	"fmt"
	"time"

	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/kv"
	"example.com/fittrack/internal/observability"
)

// DefaultWait bounds how long a single store call may block.
const DefaultWait = 10 * time.Second

type readResult struct {
	snap kv.Snapshot
	err  error
}

// awaitRead bridges a one-shot callback read into a bounded synchronous call.
func awaitRead(ctx context.Context, wait time.Duration, backend kv.Backend, op, path string) (kv.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	results := make(chan readResult, 1)
	backend.Once(path,
		func(snap kv.Snapshot) { results <- readResult{snap: snap} },
		func(err error) { results <- readResult{err: err} },
	)

	select {
	case r := <-results:
		if r.err != nil {
			return kv.Snapshot{}, fmt.Errorf("%s %s: %w", op, path, r.err)
		}
		return r.snap, nil
	case <-ctx.Done():
		observability.RecordStoreTimeout(op)
		return kv.Snapshot{}, fmt.Errorf("%s %s: %w", op, path, domain.ErrStoreTimeout)
	}
}

// awaitWrite bridges a completion-callback write into a bounded synchronous
// call. Backend rejections surface as domain.ErrStoreWrite.
func awaitWrite(ctx context.Context, wait time.Duration, op, path string, start func(done func(error))) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	done := make(chan error, 1)
	start(func(err error) { done <- err })

	select {
	case err := <-done:
		if err != nil {
			observability.RecordStoreWriteFailure()
			return fmt.Errorf("%s %s: %w: %v", op, path, domain.ErrStoreWrite, err)
		}
		return nil
	case <-ctx.Done():
		observability.RecordStoreTimeout(op)
		return fmt.Errorf("%s %s: %w", op, path, domain.ErrStoreTimeout)
	}
}
