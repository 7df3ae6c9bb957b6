package resources

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/c2h5oh/datasize"
)

// detectHostMemory queries sysctl for total physical memory.
func detectHostMemory() (datasize.ByteSize, error) {
	out, err := exec.Command("sysctl", "-n", "hw.memsize").Output()
	if err != nil {
		return 0, fmt.Errorf("sysctl hw.memsize: %w", err)
	}
	bytes, err := strconv.ParseUint(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hw.memsize: %w", err)
	}
	return datasize.ByteSize(bytes), nil
}
