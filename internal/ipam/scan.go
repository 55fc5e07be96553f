package ipam

import (
	"github.com/bits-and-blooms/bitset"
)

// NextAvailable returns the lowest free host address in the subnet, or
// false when every usable address is taken. The host range follows
// HostRange: network and broadcast are never handed out for prefixes
// up to /30, while /31 and /32 use their full range.
//
// The scan marks used addresses in a bitmap bounded by len(used)+1
// slots. Among the first len(used)+1 host slots at least one must be
// free, so the window never grows with the subnet size and a sparse
// /8 costs the same as a sparse /24.
func NextAvailable(subnet Block, used map[Addr]struct{}) (Addr, bool) {
	first, last := subnet.HostRange()
	if last < first {
		return 0, false
	}

	span := uint64(last-first) + 1
	window := uint64(len(used)) + 1
	if window > span {
		window = span
	}

	taken := bitset.New(uint(window))
	for addr := range used {
		if addr < first || addr > last {
			continue
		}
		if off := uint64(addr - first); off < window {
			taken.Set(uint(off))
		}
	}

	off, ok := taken.NextClear(0)
	if !ok || uint64(off) >= window {
		return 0, false
	}
	return first + Addr(off), true
}
