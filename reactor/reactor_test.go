// File: reactor/reactor_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/sockserve/api"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

func makePipe(t *testing.T) (r, w int) {
	t.Helper()
	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestReactor_AddValidation(t *testing.T) {
	r := New(4, testLogger())
	cb := func(int, api.FDEventType, any) {}

	require.ErrorIs(t, r.Add(-1, api.EventRead, cb, nil), api.ErrInvalidArgument)
	require.ErrorIs(t, r.Add(1, api.EventRead, nil, nil), api.ErrInvalidArgument)
}

func TestReactor_DuplicateRegistration(t *testing.T) {
	r := New(4, testLogger())
	cb := func(int, api.FDEventType, any) {}
	rfd, _ := makePipe(t)

	require.NoError(t, r.Add(rfd, api.EventRead, cb, nil))
	// Adding the same descriptor twice fails and leaves one registration.
	require.ErrorIs(t, r.Add(rfd, api.EventRead, cb, nil), api.ErrAlreadyExists)
	require.Equal(t, 1, r.Registered())
}

func TestReactor_TableFull(t *testing.T) {
	r := New(2, testLogger())
	cb := func(int, api.FDEventType, any) {}

	require.NoError(t, r.Add(10, api.EventRead, cb, nil))
	require.NoError(t, r.Add(11, api.EventRead, cb, nil))
	require.ErrorIs(t, r.Add(12, api.EventRead, cb, nil), api.ErrResourceExhausted)

	// Removing frees the slot for reuse.
	require.NoError(t, r.Remove(10))
	require.NoError(t, r.Add(12, api.EventRead, cb, nil))
	require.Equal(t, 2, r.Registered())
}

func TestReactor_ModifyAndRemoveUnknown(t *testing.T) {
	r := New(4, testLogger())
	require.ErrorIs(t, r.Modify(7, api.EventWrite), api.ErrNotFound)
	require.ErrorIs(t, r.Remove(7), api.ErrNotFound)
}

func TestReactor_DispatchOnce(t *testing.T) {
	r := New(4, testLogger())
	rfd, wfd := makePipe(t)

	var calls int32
	var gotEvents api.FDEventType
	var gotCtx any
	require.NoError(t, r.Add(rfd, api.EventRead, func(fd int, ev api.FDEventType, ctx any) {
		atomic.AddInt32(&calls, 1)
		gotEvents = ev
		gotCtx = ctx
		var buf [8]byte
		unix.Read(fd, buf[:])
	}, "user-context"))

	_, err := unix.Write(wfd, []byte("x"))
	require.NoError(t, err)

	n, err := r.ProcessEvents(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.True(t, gotEvents&api.EventRead != 0)
	require.Equal(t, "user-context", gotCtx)

	// Drained pipe: the next bounded wait sees nothing.
	n, err = r.ProcessEvents(10)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestReactor_ModifyMask(t *testing.T) {
	r := New(4, testLogger())
	rfd, wfd := makePipe(t)

	var calls int32
	require.NoError(t, r.Add(rfd, api.EventRead, func(fd int, ev api.FDEventType, ctx any) {
		atomic.AddInt32(&calls, 1)
	}, nil))

	_, err := unix.Write(wfd, []byte("x"))
	require.NoError(t, err)

	// With read interest cleared the ready pipe must not dispatch.
	require.NoError(t, r.Modify(rfd, 0))
	n, err := r.ProcessEvents(10)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, int32(0), atomic.LoadInt32(&calls))

	require.NoError(t, r.Modify(rfd, api.EventRead))
	n, err = r.ProcessEvents(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReactor_RemovedDescriptorNotDispatched(t *testing.T) {
	r := New(4, testLogger())
	rfd, wfd := makePipe(t)

	var calls int32
	require.NoError(t, r.Add(rfd, api.EventRead, func(int, api.FDEventType, any) {
		atomic.AddInt32(&calls, 1)
	}, nil))
	require.NoError(t, r.Remove(rfd))

	_, err := unix.Write(wfd, []byte("x"))
	require.NoError(t, err)

	n, err := r.ProcessEvents(10)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestReactor_EmptyTableTimesOut(t *testing.T) {
	r := New(4, testLogger())
	start := time.Now()
	n, err := r.ProcessEvents(20)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestReactor_RunStop(t *testing.T) {
	r := New(4, testLogger())
	rfd, wfd := makePipe(t)

	var calls int32
	require.NoError(t, r.Add(rfd, api.EventRead, func(fd int, ev api.FDEventType, ctx any) {
		atomic.AddInt32(&calls, 1)
		var buf [8]byte
		unix.Read(fd, buf[:])
	}, nil))

	done := make(chan struct{})
	go func() {
		r.Run(10)
		close(done)
	}()

	// Wait for the loop to come up, trigger one event, then stop.
	require.Eventually(t, r.IsRunning, time.Second, time.Millisecond)

	_, err := unix.Write(wfd, []byte("x"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, time.Second, time.Millisecond)

	r.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout: Run did not observe Stop")
	}
	require.False(t, r.IsRunning())
}

func TestReactor_CallbackPanicIsIsolated(t *testing.T) {
	r := New(4, testLogger())
	rfd, wfd := makePipe(t)

	require.NoError(t, r.Add(rfd, api.EventRead, func(int, api.FDEventType, any) {
		panic("callback boom")
	}, nil))

	_, err := unix.Write(wfd, []byte("x"))
	require.NoError(t, err)

	n, err := r.ProcessEvents(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestReactor_ShutdownIdempotent(t *testing.T) {
	r := New(4, testLogger())
	cb := func(int, api.FDEventType, any) {}
	require.NoError(t, r.Add(5, api.EventRead, cb, nil))

	require.NoError(t, r.Shutdown())
	require.NoError(t, r.Shutdown())
	require.Equal(t, 0, r.Registered())

	_, err := r.ProcessEvents(0)
	require.ErrorIs(t, err, api.ErrClosed)
	require.ErrorIs(t, r.Add(5, api.EventRead, cb, nil), api.ErrClosed)
}
