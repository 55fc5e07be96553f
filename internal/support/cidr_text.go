package support

import (
	"strings"

	"ipamcore/internal/ipam"
)

// ParseTextToCIDRs extracts the valid CIDR blocks from free-form text.
// Entries may be separated by newlines, commas or whitespace; invalid
// entries are skipped and duplicates collapse after normalization.
func ParseTextToCIDRs(text string) []string {
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, ",", "\n")

	fields := strings.Fields(text)
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))

	for _, field := range fields {
		block, err := ipam.ParseCIDR(field)
		if err != nil {
			continue
		}
		normalized := block.String()
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}

	return out
}
