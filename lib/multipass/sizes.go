package multipass

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c2h5oh/datasize"
)

// FormatGiB renders a size the way multipass accepts it, e.g. "12G".
// Profile targets are always whole GiB.
func FormatGiB(b datasize.ByteSize) string {
	return fmt.Sprintf("%dG", uint64(b/datasize.GB))
}

// ParseSize parses a size as multipass reports it, e.g. "4.0GiB", "512MiB"
// or "12G". Fractional values are supported because `multipass get`
// renders them that way.
func ParseSize(s string) (datasize.ByteSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	cut := len(s)
	for cut > 0 {
		c := s[cut-1]
		if c >= '0' && c <= '9' || c == '.' {
			break
		}
		cut--
	}
	value, unit := s[:cut], strings.ToUpper(strings.TrimSpace(s[cut:]))
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse size %q: %w", s, err)
	}

	var mult datasize.ByteSize
	switch strings.TrimSuffix(strings.TrimSuffix(unit, "IB"), "B") {
	case "":
		mult = datasize.B
	case "K":
		mult = datasize.KB
	case "M":
		mult = datasize.MB
	case "G":
		mult = datasize.GB
	case "T":
		mult = datasize.TB
	default:
		return 0, fmt.Errorf("parse size %q: unknown unit %q", s, unit)
	}
	return datasize.ByteSize(f * float64(mult)), nil
}
