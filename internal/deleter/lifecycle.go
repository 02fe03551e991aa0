package deleter

import (
	"context"
	"os"
	"sync"

	"github.com/Sunrisies/rustkill/internal/scanner"
)

// Lifecycle owns delete-state transitions for discovered entries. The scan
// engine only ever creates entries in NotDeleted; every transition after that
// happens here, serialized by a single mutex so concurrent requests for the
// same entry cannot race.
//
// Transitions: NotDeleted -> Deleting -> Deleted, with Deleting -> NotDeleted
// when removal fails (the entry stays retryable). A request while Deleting is
// ignored; a request on Deleted is a no-op.
type Lifecycle struct {
	mu     sync.Mutex
	dryRun bool
}

// NewLifecycle creates a Lifecycle. Under dryRun removal is simulated:
// transitions happen, nothing is unlinked.
func NewLifecycle(dryRun bool) *Lifecycle {
	return &Lifecycle{dryRun: dryRun}
}

// RequestDelete attempts to remove the subtree behind e. It reports whether a
// deletion was actually attempted: false means the entry was already Deleting
// or Deleted and the request was ignored. On failure the entry reverts to
// NotDeleted and the error is returned.
func (l *Lifecycle) RequestDelete(ctx context.Context, e *scanner.FileEntry) (bool, error) {
	if !l.begin(e) {
		return false, nil
	}
	var err error
	if ctx != nil {
		err = ctx.Err()
	}
	if err == nil && !l.dryRun {
		err = os.RemoveAll(e.Path)
	}
	l.finish(e, err)
	return true, err
}

func (l *Lifecycle) begin(e *scanner.FileEntry) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.DeleteStatus != scanner.NotDeleted {
		return false
	}
	e.DeleteStatus = scanner.Deleting
	return true
}

func (l *Lifecycle) finish(e *scanner.FileEntry, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		e.DeleteStatus = scanner.NotDeleted
		return
	}
	e.DeleteStatus = scanner.Deleted
}
