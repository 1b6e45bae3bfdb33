package astcache

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures no goroutines leak across this package's tests — the
// cache itself holds no background goroutines, but incremental parsing
// runs under concurrent callers in internal/syncer, so a leak here would
// point at a real bug rather than test noise.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}
