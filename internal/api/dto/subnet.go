package dto

import "time"

type SubnetSummary struct {
	ID             uint      `json:"id"`
	NamespaceID    uint      `json:"namespace_id"`
	CIDR           string    `json:"cidr"`
	Label          string    `json:"label,omitempty"`
	VlanID         *int      `json:"vlan_id,omitempty"`
	Location       string    `json:"location,omitempty"`
	AllocatedCount int64     `json:"allocated_count"`
	UsableHosts    int64     `json:"usable_hosts"`
	Utilization    float64   `json:"utilization"`
	CreatedAt      time.Time `json:"created_at"`
}

type SubnetDetail struct {
	SubnetSummary
	NamespaceName   string          `json:"namespace_name,omitempty"`
	RecentSnapshots []SnapshotPoint `json:"recent_snapshots,omitempty"`
}

type SubnetCreateRequest struct {
	NamespaceID uint   `json:"namespace_id"`
	CIDR        string `json:"cidr"`
	Label       string `json:"label,omitempty"`
	VlanID      *int   `json:"vlan_id,omitempty"`
	Location    string `json:"location,omitempty"`
}

type AllocateRequest struct {
	Hostname    string `json:"hostname,omitempty"`
	Description string `json:"description,omitempty"`
	DeviceID    *uint  `json:"device_id,omitempty"`
}
