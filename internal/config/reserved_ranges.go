package config

import (
	"strings"
	"sync/atomic"

	"ipamcore/internal/ipam"
)

// reservedRangeSet holds normalized blocks that must never be handed out as subnets.
var reservedRangeSet atomic.Value

func init() {
	reservedRangeSet.Store([]ipam.Block{})
}

// NormalizeReservedRanges trims, canonicalizes, and deduplicates CIDR entries.
// Entries that do not parse as IPv4 CIDRs are dropped.
func NormalizeReservedRanges(entries []string) []string {
	blocks := normalizeReservedEntries(entries)
	normalized := make([]string, 0, len(blocks))
	for _, block := range blocks {
		normalized = append(normalized, block.String())
	}
	return normalized
}

// NewReservedRangeSet builds the block list used for conflict lookups.
func NewReservedRangeSet(entries []string) []ipam.Block {
	return normalizeReservedEntries(entries)
}

// updateReservedRanges refreshes the in-memory set from the persisted config.
func updateReservedRanges(entries []string) {
	reservedRangeSet.Store(normalizeReservedEntries(entries))
}

// ReservedBlocks returns the currently configured reserved ranges.
func ReservedBlocks() []ipam.Block {
	return reservedRangeSet.Load().([]ipam.Block)
}

// IsReservedBlock reports whether the candidate overlaps any configured reserved range.
func IsReservedBlock(candidate ipam.Block) bool {
	return len(FindReservedConflicts(candidate, ReservedBlocks())) > 0
}

// FindReservedConflicts returns the reserved ranges the candidate block overlaps.
func FindReservedConflicts(candidate ipam.Block, reserved []ipam.Block) []string {
	if len(reserved) == 0 {
		return nil
	}

	var conflicts []string
	for _, block := range reserved {
		if ipam.Overlaps(candidate, block) {
			conflicts = append(conflicts, block.String())
		}
	}
	return conflicts
}

func normalizeReservedEntries(entries []string) []ipam.Block {
	unique := make(map[ipam.Block]struct{}, len(entries))
	normalized := make([]ipam.Block, 0, len(entries))

	for _, raw := range entries {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}

		block, err := ipam.ParseCIDR(trimmed)
		if err != nil {
			continue
		}
		if _, exists := unique[block]; exists {
			continue
		}
		unique[block] = struct{}{}
		normalized = append(normalized, block)
	}

	return normalized
}
