package ipam

import (
	"fmt"
)

// FindFreeBlock returns the first aligned gap of the requested prefix
// length inside the scope, searching in ascending address order.
// Existing blocks that do not overlap the scope belong to other ranges
// and are ignored.
//
// The cursor does not step candidate by candidate. Whenever the
// candidate at the cursor collides, the cursor jumps directly past the
// highest conflicting block's broadcast, rounded up to the next step
// multiple so the following candidate stays aligned. Total cost is
// bounded by the number of existing blocks in scope, not by the scope
// size, which keeps a /8 scope with thousands of subnets cheap.
func FindFreeBlock(scope Block, prefix int, existing []Block) (Block, error) {
	if prefix < 0 || prefix > 32 {
		return Block{}, fmt.Errorf("%w: /%d", ErrInvalidPrefix, prefix)
	}
	if prefix < scope.Prefix {
		return Block{}, fmt.Errorf("%w: /%d cannot fit inside %s", ErrInvalidPrefix, prefix, scope)
	}

	relevant := make([]Block, 0, len(existing))
	for _, b := range existing {
		if Overlaps(scope, b) {
			relevant = append(relevant, b)
		}
	}

	// Cursor math runs in uint64: a /0 scope ends exactly at 2^32,
	// one past the top of the address space.
	step := uint64(1) << (32 - uint(prefix))
	end := uint64(scope.Base) + scope.Size()
	cursor := uint64(scope.Base)

	for cursor+step <= end {
		candidate := Block{Base: Addr(cursor), Prefix: prefix}

		conflict := -1
		for i := range relevant {
			if !Overlaps(candidate, relevant[i]) {
				continue
			}
			if conflict < 0 || relevant[i].Broadcast() > relevant[conflict].Broadcast() {
				conflict = i
			}
		}
		if conflict < 0 {
			return candidate, nil
		}

		jump := uint64(relevant[conflict].Broadcast()) + 1
		if rem := jump % step; rem != 0 {
			jump += step - rem
		}
		cursor = jump
	}

	return Block{}, fmt.Errorf("%w: no /%d gap left in %s", ErrNoSpace, prefix, scope)
}
