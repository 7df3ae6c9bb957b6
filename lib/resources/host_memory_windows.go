package resources

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/c2h5oh/datasize"
)

// detectHostMemory queries CIM for total physical memory.
func detectHostMemory() (datasize.ByteSize, error) {
	out, err := exec.Command("powershell", "-NoProfile", "-Command",
		"(Get-CimInstance Win32_ComputerSystem).TotalPhysicalMemory").Output()
	if err != nil {
		return 0, fmt.Errorf("query TotalPhysicalMemory: %w", err)
	}
	bytes, err := strconv.ParseUint(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse TotalPhysicalMemory: %w", err)
	}
	return datasize.ByteSize(bytes), nil
}
