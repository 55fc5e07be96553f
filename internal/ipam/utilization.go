package ipam

// Utilization returns allocated address count over usable host count
// as a percentage. Blocks that report no usable hosts at all yield
// 100 when anything is allocated against them and 0 otherwise, so a
// degenerate input still signals "full" instead of dividing by zero.
// The value is not clamped: exceeding 100 exposes a caller that
// allocated past capacity rather than hiding it.
func Utilization(allocated int, block Block) float64 {
	usable := block.UsableHosts()
	if usable <= 0 {
		if allocated > 0 {
			return 100.0
		}
		return 0.0
	}
	return float64(allocated) / float64(usable) * 100.0
}
