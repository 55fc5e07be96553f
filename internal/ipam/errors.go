package ipam

import (
	"errors"
	"fmt"
	"strings"
)

// Every failure the engine reports is an expected business outcome the
// caller maps to a user-facing response. Nothing here is retried or
// logged inside the engine.
var (
	// ErrInvalidCIDR marks textual input that cannot be normalized into
	// a base/prefix pair.
	ErrInvalidCIDR = errors.New("invalid CIDR format")

	// ErrInvalidPrefix marks a requested prefix length outside 0-32 or
	// coarser than the scope it has to fit inside.
	ErrInvalidPrefix = errors.New("invalid prefix length")

	// ErrNoSpace means a scope has no free aligned gap of the requested
	// size left.
	ErrNoSpace = errors.New("no free block in scope")

	// ErrSubnetFull means every usable host address is taken.
	ErrSubnetFull = errors.New("no free address in subnet")
)

// OverlapError reports a candidate block colliding with blocks already
// present in the same namespace. Conflicts carries every colliding
// member, not just the first one found.
type OverlapError struct {
	Candidate Block
	Conflicts []Block
}

func (e *OverlapError) Error() string {
	cidrs := make([]string, len(e.Conflicts))
	for i, b := range e.Conflicts {
		cidrs[i] = b.String()
	}
	return fmt.Sprintf("block %s overlaps existing %s", e.Candidate, strings.Join(cidrs, ", "))
}

// ConflictCIDRs returns the colliding blocks in textual form for
// diagnostics payloads.
func (e *OverlapError) ConflictCIDRs() []string {
	cidrs := make([]string, len(e.Conflicts))
	for i, b := range e.Conflicts {
		cidrs[i] = b.String()
	}
	return cidrs
}
