package persist

import "sync"

var (
	pathLocksMu sync.Mutex
	pathLocks   = make(map[string]*sync.Mutex)
)

// acquire takes the in-process lock for path, then the advisory file lock
// on {path}.lock. The returned function releases both.
func acquire(path string) (func(), error) {
	pathLocksMu.Lock()
	mu, ok := pathLocks[path]
	if !ok {
		mu = &sync.Mutex{}
		pathLocks[path] = mu
	}
	pathLocksMu.Unlock()

	mu.Lock()
	release, err := lockFile(path + ".lock")
	if err != nil {
		mu.Unlock()
		return nil, err
	}
	return func() {
		release()
		mu.Unlock()
	}, nil
}
