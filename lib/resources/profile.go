// Package resources computes and applies instance CPU/memory profiles.
// The instance idles at a small fixed sizing and is scaled up for the
// duration of build/test work, then scaled back down.
package resources

import (
	"runtime"

	"github.com/c2h5oh/datasize"
)

// Profile names a sizing target for the instance.
type Profile string

const (
	// ProfileLow is the idle sizing the instance returns to between
	// operations.
	ProfileLow Profile = "low"
	// ProfileHigh is the sizing used while build/test work runs, derived
	// from host capacity.
	ProfileHigh Profile = "high"
)

// Target is a concrete CPU/memory sizing for the instance.
type Target struct {
	CPUs   int
	Memory datasize.ByteSize
}

const (
	lowCPUs   = 2
	lowMemory = 4 * datasize.GB

	// hostReserve is CPU/memory headroom left to the host at the high
	// profile.
	hostReserveCPUs   = 2
	hostReserveMemory = 4 * datasize.GB

	highMemoryShare = 0.75

	// fallbackHostMemory is assumed when the platform probe fails.
	fallbackHostMemory = 8 * datasize.GB
)

// Resolve computes the sizing for a profile. Low is fixed; high derives
// from host introspection and is recomputed on every invocation.
func Resolve(kind Profile) Target {
	if kind != ProfileHigh {
		return Target{CPUs: lowCPUs, Memory: lowMemory}
	}
	cpus := runtime.NumCPU() - hostReserveCPUs
	if cpus < lowCPUs {
		cpus = lowCPUs
	}
	return Target{CPUs: cpus, Memory: highMemory(hostMemory())}
}

// highMemory sizes guest memory as 75% of host total, capped so the host
// keeps its reserve, floored at the low-profile size and to whole GiB.
func highMemory(total datasize.ByteSize) datasize.ByteSize {
	budget := datasize.ByteSize(highMemoryShare * float64(total))
	if total > hostReserveMemory && total-hostReserveMemory < budget {
		budget = total - hostReserveMemory
	}
	if budget < lowMemory {
		budget = lowMemory
	}
	return floorGiB(budget)
}

func floorGiB(b datasize.ByteSize) datasize.ByteSize {
	return b / datasize.GB * datasize.GB
}

// hostMemory returns total physical host memory, assuming the fallback
// when the per-OS probe fails.
func hostMemory() datasize.ByteSize {
	total, err := detectHostMemory()
	if err != nil || total == 0 {
		return fallbackHostMemory
	}
	return total
}
