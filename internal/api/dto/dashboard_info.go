package dto

type DashboardInfo struct {
	TotalNamespaces    int64 `json:"total_namespaces"`
	TotalSubnets       int64 `json:"total_subnets"`
	TotalAddresses     int64 `json:"total_addresses"`
	TotalDevices       int64 `json:"total_devices"`
	AddressesAddedWeek int64 `json:"addresses_added_week"`

	StatusBreakdown []struct {
		Status string `json:"status"`
		Count  uint   `json:"count"`
	} `json:"status_breakdown"`

	TopUtilizedSubnets []struct {
		SubnetID       uint    `json:"subnet_id"`
		CIDR           string  `json:"cidr"`
		Label          string  `json:"label,omitempty"`
		AllocatedCount int64   `json:"allocated_count"`
		Utilization    float64 `json:"utilization"`
	} `json:"top_utilized_subnets"`
}
