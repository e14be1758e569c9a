package bridge

import (
	"context"
	"errors"
	"io"

	"github.com/sandfs/sandfs"
)

// worker is one incarnation of the bridge's execution context. The registry
// of live synchronous handles is owned exclusively by the goroutine running
// the loop; nothing else touches it.
type worker struct {
	requests chan request
	quit     chan struct{}
	done     chan struct{} // closed when the loop has exited
	registry map[string]sandfs.SyncHandle
}

// run executes requests one at a time until told to quit. Per-request
// faults become error responses; a fault escaping the dispatch loop kills
// this incarnation, closes every live handle, and rejects everything still
// pending with an AbortError. Callers see the dead worker through the done
// channel and the next Open starts a fresh one.
func (s *Session) run(w *worker) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("bridge worker crashed")
		}
		for path, sh := range w.registry {
			if err := sh.Close(); err != nil {
				s.log.Warn().Err(err).Str("path", path).Msg("closing handle at teardown")
			}
		}
		w.registry = nil
		s.detach(w)
		s.rejectAll(sandfs.Abort("bridge worker terminated"))
		close(w.done)
	}()

	for {
		select {
		case <-w.quit:
			return
		case req := <-w.requests:
			s.complete(w.handle(s.provider, req))
		}
	}
}

// handle dispatches one request against the registry. Any panic in the
// provider or handle is converted into an error response rather than
// killing the worker.
func (w *worker) handle(provider sandfs.Provider, req request) (resp response) {
	resp = response{ID: req.ID, Action: req.Action}
	defer func() {
		if r := recover(); r != nil {
			resp.Err = sandfs.InvalidState("%s %s panicked: %v", req.Action, req.Path, r)
		}
	}()

	if req.Action == ActionOpen {
		resp.Err = w.open(provider, req)
		return resp
	}

	sh, ok := w.registry[req.Path]
	if !ok {
		resp.Err = sandfs.InvalidState("invalid access handle: no open handle for %s", req.Path)
		return resp
	}

	switch req.Action {
	case ActionRead:
		n, err := sh.ReadAt(req.Buf, req.At)
		if errors.Is(err, io.EOF) {
			// short read at end of file, not a failure
			err = nil
		}
		resp.N = n
		resp.Err = sandfs.Convert(err)
	case ActionWrite:
		n, err := sh.WriteAt(req.Buf, req.At)
		resp.N = n
		resp.Err = sandfs.Convert(err)
	case ActionTruncate:
		resp.Err = sandfs.Convert(sh.Truncate(req.Size))
	case ActionFlush:
		resp.Err = sandfs.Convert(sh.Flush())
	case ActionGetSize:
		size, err := sh.Size()
		resp.Size = size
		resp.Err = sandfs.Convert(err)
	case ActionClose:
		delete(w.registry, req.Path)
		resp.Released = true
		resp.Err = sandfs.Convert(sh.Close())
	default:
		resp.Err = sandfs.NotSupported("unknown action %q", req.Action)
	}
	return resp
}

// open resolves or creates the target file and acquires its synchronous
// handle under the requested lock mode. The host storage allows at most one
// handle per path within one execution context; a second open is rejected
// rather than replacing the registry entry.
func (w *worker) open(provider sandfs.Provider, req request) *sandfs.Error {
	if _, ok := w.registry[req.Path]; ok {
		return sandfs.InvalidState("access handle already open for %s", req.Path)
	}

	h, err := provider.Resolve(context.Background(), req.Path, sandfs.ResolveOptions{Create: true, IsFile: true})
	if err != nil {
		return sandfs.Convert(err)
	}
	fh, ok := h.(sandfs.FileHandle)
	if !ok {
		return sandfs.TypeErr("entry at %s is not a file", req.Path)
	}

	sh, err := fh.SyncAccess(req.Mode)
	if err != nil {
		// the provider's exclusivity rejection passes through untouched
		return sandfs.Convert(err)
	}
	w.registry[req.Path] = sh
	return nil
}
