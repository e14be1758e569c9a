package bridge

import "github.com/sandfs/sandfs"

// Action names the operation a request envelope carries.
type Action string

const (
	ActionOpen     Action = "open"
	ActionRead     Action = "read"
	ActionWrite    Action = "write"
	ActionTruncate Action = "truncate"
	ActionFlush    Action = "flush"
	ActionGetSize  Action = "getSize"
	ActionClose    Action = "close"
)

// request is one envelope posted to the worker goroutine. Buf is handed
// over by reference, never copied; the caller must not touch it until the
// matching response arrives.
type request struct {
	ID     string
	Action Action
	Path   string
	Buf    []byte            // read/write payload
	At     int64             // absolute offset for read/write
	Size   int64             // truncate target
	Mode   sandfs.AccessMode // open lock mode
}

// response settles the request with the matching ID. Exactly one of the
// result fields is meaningful per action; Err is set instead when the
// worker-side call failed.
type response struct {
	ID       string
	Action   Action
	N        int   // bytes transferred (read/write)
	Size     int64 // getSize result
	Released bool  // close removed a registry entry
	Err      *sandfs.Error
}
