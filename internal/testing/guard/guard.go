// Package guard flips the service into test mode as soon as it is
// imported, before any package under test reads the flag. Import it
// blank from test files that touch process-level wiring.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("MERIDIAN_TEST_MODE") == "" {
			_ = os.Setenv("MERIDIAN_TEST_MODE", "1")
		}
	})
}
