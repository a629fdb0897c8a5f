package badger

import (
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// openTestDB opens a real badgerhold store in a temp directory, bypassing
// NewBadgerDB's filesystem setup and reset-on-startup logic since t.TempDir
// already hands back a clean directory.
func openTestDB(t *testing.T) *BadgerDB {
	t.Helper()
	opts := badgerhold.DefaultOptions
	opts.Dir = t.TempDir()
	opts.ValueDir = opts.Dir
	opts.Logger = nil
	store, err := badgerhold.Open(opts)
	if err != nil {
		t.Fatalf("open badgerhold: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return &BadgerDB{store: store, logger: arbor.NewLogger()}
}

func testLogger() arbor.ILogger {
	return arbor.NewLogger()
}
