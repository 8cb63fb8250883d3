//go:build !unix

package persist

// lockFile is a no-op where flock(2) is unavailable; the in-process mutex
// still serializes commits.
func lockFile(string) (func(), error) {
	return func() {}, nil
}
