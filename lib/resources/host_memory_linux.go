package resources

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/c2h5oh/datasize"
)

// detectHostMemory reads /proc/meminfo to determine total memory.
func detectHostMemory() (datasize.ByteSize, error) {
	file, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "MemTotal:") {
			// Format: "MemTotal:       16384000 kB"
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				kb, err := strconv.ParseUint(fields[1], 10, 64)
				if err != nil {
					return 0, fmt.Errorf("parse MemTotal: %w", err)
				}
				return datasize.ByteSize(kb) * datasize.KB, nil
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return 0, err
	}

	return 0, fmt.Errorf("MemTotal not found in /proc/meminfo")
}
