package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("PARTSHELF_TEST_MODE") == "" {
			_ = os.Setenv("PARTSHELF_TEST_MODE", "1")
		}
	})
}
