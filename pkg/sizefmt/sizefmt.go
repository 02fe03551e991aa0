package sizefmt

import "fmt"

var units = [...]string{"B", "KB", "MB", "GB", "TB"}

// Bytes formats a byte count into a human-readable string using binary
// (base-1024) units with one decimal place, e.g. 1536 -> "1.5KB".
// Zero is special-cased to "0B".
func Bytes(b uint64) string {
	if b == 0 {
		return "0B"
	}
	size := float64(b)
	unit := 0
	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f%s", size, units[unit])
}
