package govi

import (
	"fmt"
	"time"
)

// UnixNano appends an _ followed by the current Unix time in
// nanoseconds to name. Useful for giving graph nodes unique names.
func UnixNano(name string) string {
	return fmt.Sprintf("%v_%v", name, time.Now().UnixNano())
}
