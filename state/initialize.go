package state

import "time"

// newLocalEnv creates a new LocalEnv instance with default values. Logger
// stays nil until configuration is loaded, so early errors go to stderr.
func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}
