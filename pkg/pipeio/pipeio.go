// Package pipeio splices two duplex endpoints together, typically a stream
// and the process's standard streams.
package pipeio

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// writeHalfCloser is implemented by endpoints that can close their write
// side while reads continue.
type writeHalfCloser interface {
	CloseWrite() error
}

// Pipe copies between rwc1 and rwc2 in both directions until both directions
// end, an error occurs, or ctx is canceled. When one direction hits EOF and
// the destination supports half-close, only the destination's write side is
// closed and the other direction keeps draining. Both endpoints are closed
// before Pipe returns. Copy errors are reported through logfunc.
func Pipe(ctx context.Context, rwc1, rwc2 io.ReadWriteCloser, logfunc func(error)) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		copyDirection(rwc1, rwc2, logfunc, cancel)
	}()
	go func() {
		defer wg.Done()
		copyDirection(rwc2, rwc1, logfunc, cancel)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	// Closing both endpoints unblocks any copy still running, whether the
	// trigger was ctx, a copy error, or both directions ending.
	select {
	case <-ctx.Done():
	case <-done:
	}
	rwc1.Close()
	rwc2.Close()

	<-done
}

// copyDirection copies src to dst until EOF. A clean EOF half-closes dst
// when possible so the peer sees end-of-input while the reverse direction
// drains; anything else tears the pipe down.
func copyDirection(dst, src io.ReadWriteCloser, logfunc func(error), teardown func()) {
	_, err := io.Copy(dst, src)
	if err != nil {
		logfunc(fmt.Errorf("io.Copy(): %w", err))
		teardown()
		return
	}

	hc, ok := dst.(writeHalfCloser)
	if !ok {
		teardown()
		return
	}
	if err := hc.CloseWrite(); err != nil {
		logfunc(fmt.Errorf("CloseWrite(): %w", err))
		teardown()
	}
}
