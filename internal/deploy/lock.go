package deploy

import (
	"path/filepath"
	"sync"
)

// targetLocks serializes deployments that resolve to the same destination
// directory within one process. Deployments to different targets proceed
// in parallel. Cross-process exclusion is the host's job (the CLI takes a
// file lock on the storage root).
var targetLocks sync.Map // map[string]*sync.Mutex

// lockTarget acquires the mutex for path and returns its unlock function.
func lockTarget(path string) func() {
	key := filepath.Clean(path)
	if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}
	v, _ := targetLocks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
