package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ANDES_TEST_MODE") == "" {
			_ = os.Setenv("ANDES_TEST_MODE", "1")
		}
	})
}
