package queue

import "fmt"

// errFromPanic turns a recovered panic value into an error so a single bad
// job cannot take down a worker goroutine: it feeds back into the queue's
// backoff policy rather than crashing the process.
func errFromPanic(r interface{}) error {
	return fmt.Errorf("job handler panicked: %v", r)
}
