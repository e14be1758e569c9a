// Package bridge turns the storage provider's blocking synchronous access
// handles into a concurrency-safe asynchronous API. All handle operations
// are confined to one dedicated worker goroutine; callers correlate their
// requests to responses through a pending table keyed by generated id.
package bridge

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/rs/zerolog"
	"github.com/sandfs/sandfs"
	"github.com/sandfs/sandfs/config"
	"github.com/sandfs/sandfs/internal/util"
)

// Session owns one worker goroutine, its open-handle reference count, and
// the pending-request table. The worker is created lazily on the first open
// and torn down when the count returns to zero; requests still pending at
// teardown are rejected with an AbortError.
//
// The worker executes one request at a time, so a long read or write on one
// path delays every other pending action, including on unrelated paths.
// That is a deliberate trade: one registry owner, no locking on the
// synchronous handles.
type Session struct {
	provider   sandfs.Provider
	queueDepth int
	log        zerolog.Logger

	mu        sync.Mutex // guards w, openCount, opening
	w         *worker
	openCount int
	opening   int // opens in flight; holds teardown until they settle

	pending *xsync.Map[string, chan response]
}

// NewSession constructs an idle Session; no worker goroutine runs until the
// first Open.
func NewSession(provider sandfs.Provider, cfg *config.Config) *Session {
	depth := config.DefaultQueueDepth
	if cfg != nil && cfg.QueueDepth > 0 {
		depth = cfg.QueueDepth
	}
	return &Session{
		provider:   provider,
		queueDepth: depth,
		log:        util.GetLogger("bridge"),
		pending:    xsync.NewMap[string, chan response](),
	}
}

// Open acquires a synchronous access handle for path under mode, creating
// the file (and missing ancestors) when absent. A successful open holds the
// worker alive until the matching Close.
func (s *Session) Open(ctx context.Context, path string, mode sandfs.AccessMode) error {
	if mode == "" {
		mode = sandfs.ModeReadOnly
	}

	s.mu.Lock()
	if s.w == nil {
		s.startWorkerLocked()
	}
	s.opening++
	s.mu.Unlock()

	_, err := s.roundTrip(ctx, request{Action: ActionOpen, Path: path, Mode: mode})

	s.mu.Lock()
	s.opening--
	switch {
	case err == nil:
		s.openCount++
	case s.openCount == 0 && s.opening == 0 && s.w != nil:
		// nothing holds the worker; don't leave it idling
		s.stopWorkerLocked()
	}
	s.mu.Unlock()
	return err
}

// Close releases the handle for path. When the open count returns to zero
// the worker is shut down and anything still pending rejects with an
// AbortError.
func (s *Session) Close(ctx context.Context, path string) error {
	resp, err := s.roundTrip(ctx, request{Action: ActionClose, Path: path})

	if resp.Released {
		s.mu.Lock()
		if s.openCount > 0 {
			s.openCount--
		}
		if s.openCount == 0 && s.opening == 0 && s.w != nil {
			s.stopWorkerLocked()
		}
		s.mu.Unlock()
	}
	return err
}

// ReadAt fills p from the open handle at the absolute offset off and
// returns the byte count actually transferred. Short reads at end of file
// are not errors.
func (s *Session) ReadAt(ctx context.Context, path string, p []byte, off int64) (int, error) {
	resp, err := s.roundTrip(ctx, request{Action: ActionRead, Path: path, Buf: p, At: off})
	return resp.N, err
}

// WriteAt writes p through the open handle at the absolute offset off.
func (s *Session) WriteAt(ctx context.Context, path string, p []byte, off int64) (int, error) {
	resp, err := s.roundTrip(ctx, request{Action: ActionWrite, Path: path, Buf: p, At: off})
	return resp.N, err
}

// Truncate resizes the open handle's file to size.
func (s *Session) Truncate(ctx context.Context, path string, size int64) error {
	_, err := s.roundTrip(ctx, request{Action: ActionTruncate, Path: path, Size: size})
	return err
}

// Flush persists writes made through the open handle.
func (s *Session) Flush(ctx context.Context, path string) error {
	_, err := s.roundTrip(ctx, request{Action: ActionFlush, Path: path})
	return err
}

// Size returns the byte size seen by the open handle.
func (s *Session) Size(ctx context.Context, path string) (int64, error) {
	resp, err := s.roundTrip(ctx, request{Action: ActionGetSize, Path: path})
	return resp.Size, err
}

// OpenHandles returns the current reference count, for observability.
func (s *Session) OpenHandles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openCount
}

// roundTrip correlates one request to its eventual response. Every
// dispatched request settles exactly once: with the worker's response, with
// an AbortError when the worker dies first, or with the caller's context
// error.
func (s *Session) roundTrip(ctx context.Context, req request) (response, error) {
	s.mu.Lock()
	w := s.w
	s.mu.Unlock()
	if w == nil {
		if req.Action == ActionOpen {
			return response{}, sandfs.Abort("bridge worker is not running")
		}
		// without a worker no registry entry can exist
		return response{}, sandfs.InvalidState("invalid access handle: no open handle for %s", req.Path)
	}

	req.ID = uuid.NewString()
	ch := make(chan response, 1)
	s.pending.Store(req.ID, ch)

	select {
	case w.requests <- req:
	case <-w.done:
		s.pending.Delete(req.ID)
		return response{}, sandfs.Abort("bridge worker shut down before accepting %s %s", req.Action, req.Path)
	case <-ctx.Done():
		s.pending.Delete(req.ID)
		return response{}, sandfs.Convert(ctx.Err())
	}

	select {
	case resp := <-ch:
		if resp.Err != nil {
			return resp, resp.Err
		}
		return resp, nil
	case <-ctx.Done():
		// worker may still deliver; the dropped table entry discards it
		s.pending.Delete(req.ID)
		return response{}, sandfs.Convert(ctx.Err())
	}
}

// complete delivers a response to its waiting caller, if one still is.
func (s *Session) complete(resp response) {
	if ch, ok := s.pending.LoadAndDelete(resp.ID); ok {
		ch <- resp
	}
}

// rejectAll synthetically settles every pending request and clears the
// table. Used on teardown and on worker crash.
func (s *Session) rejectAll(err *sandfs.Error) {
	s.pending.Range(func(id string, _ chan response) bool {
		if ch, ok := s.pending.LoadAndDelete(id); ok {
			ch <- response{ID: id, Err: err}
		}
		return true
	})
}

func (s *Session) startWorkerLocked() {
	w := &worker{
		requests: make(chan request, s.queueDepth),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		registry: make(map[string]sandfs.SyncHandle),
	}
	s.w = w
	s.log.Debug().Msg("starting bridge worker")
	go s.run(w)
}

func (s *Session) stopWorkerLocked() {
	s.log.Debug().Msg("stopping bridge worker")
	close(s.w.quit)
	s.w = nil
}

// detach clears the session's reference to a worker that exited on its own
// (crash path); the next Open starts a fresh one.
func (s *Session) detach(w *worker) {
	s.mu.Lock()
	if s.w == w {
		s.w = nil
		s.openCount = 0
	}
	s.mu.Unlock()
}
