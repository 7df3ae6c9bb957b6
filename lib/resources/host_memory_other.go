//go:build !linux && !darwin && !windows

package resources

import (
	"fmt"
	"runtime"

	"github.com/c2h5oh/datasize"
)

// detectHostMemory has no probe on this platform; the caller falls back
// to the assumed total.
func detectHostMemory() (datasize.ByteSize, error) {
	return 0, fmt.Errorf("no host memory probe for %s", runtime.GOOS)
}
