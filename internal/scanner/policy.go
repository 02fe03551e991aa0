package scanner

// Decide reports whether the children of a directory should be processed
// concurrently. depth is the directory's distance from the traversal root
// (0 at the root), dirCount the number of immediate subdirectories and
// totalItems the number of immediate children of any kind.
//
// Rules are evaluated in order, first match wins: extreme depth never fans
// out, many subdirectories or many items always do, deep levels need a clear
// branching factor, and shallow levels fan out eagerly.
func Decide(depth, dirCount, totalItems int) bool {
	if depth > 10 {
		return false
	}
	if dirCount > 8 {
		return true
	}
	if totalItems > 100 {
		return true
	}
	if depth > 5 {
		return dirCount > 4
	}
	return depth < 3 || (depth < 6 && dirCount > 2)
}

// TickInterval returns how many directory entries to process between progress
// ticks at the given depth. Ticks are frequent near the root, where they are
// most informative, and sparse deep in the tree.
func TickInterval(depth int) int {
	switch {
	case depth == 0:
		return 50
	case depth < 3:
		return 100
	default:
		return 200
	}
}
