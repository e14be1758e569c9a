package osdir

import (
	"sync"

	"github.com/sandfs/sandfs"
)

// lockState tracks who holds synchronous access to one path.
//
// The lattice: read-only handles share with read-only; readwrite is
// exclusive against every mode; readwrite-unsafe handles share with each
// other only.
type lockState struct {
	mu       sync.Mutex
	readers  int // read-only holders
	unsafeRW int // readwrite-unsafe holders
	excl     bool
}

// acquire grants mode on path or rejects with a NoModificationAllowedError.
// The returned release is idempotent.
func (p *Provider) acquire(path string, mode sandfs.AccessMode) (func(), error) {
	ls, _ := p.locks.LoadOrStore(path, &lockState{})

	ls.mu.Lock()
	defer ls.mu.Unlock()

	switch mode {
	case sandfs.ModeReadOnly:
		if ls.excl || ls.unsafeRW > 0 {
			return nil, conflict(path)
		}
		ls.readers++
	case sandfs.ModeReadWrite:
		if ls.excl || ls.readers > 0 || ls.unsafeRW > 0 {
			return nil, conflict(path)
		}
		ls.excl = true
	case sandfs.ModeReadWriteUnsafe:
		if ls.excl || ls.readers > 0 {
			return nil, conflict(path)
		}
		ls.unsafeRW++
	default:
		return nil, sandfs.TypeErr("unknown access mode %q", mode)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ls.mu.Lock()
			defer ls.mu.Unlock()
			switch mode {
			case sandfs.ModeReadOnly:
				ls.readers--
			case sandfs.ModeReadWrite:
				ls.excl = false
			case sandfs.ModeReadWriteUnsafe:
				ls.unsafeRW--
			}
		})
	}, nil
}

func conflict(path string) error {
	return sandfs.NoModificationAllowed(
		"an access handle for %s is already open in a conflicting mode", path)
}
