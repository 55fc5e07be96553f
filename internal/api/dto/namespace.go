package dto

import "time"

type NamespaceSummary struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	CIDR        string    `json:"cidr"`
	Description string    `json:"description,omitempty"`
	SubnetCount int64     `json:"subnet_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type NamespaceCreateRequest struct {
	Name        string `json:"name"`
	CIDR        string `json:"cidr,omitempty"`
	Description string `json:"description,omitempty"`
}

type SuggestedBlock struct {
	NamespaceID uint   `json:"namespace_id"`
	CIDR        string `json:"cidr"`
	Prefix      int    `json:"prefix"`
}

// SubnetPlan is one entry of a YAML import document.
type SubnetPlan struct {
	CIDR     string `yaml:"cidr" json:"cidr"`
	Label    string `yaml:"label" json:"label"`
	VlanID   *int   `yaml:"vlan_id" json:"vlan_id,omitempty"`
	Location string `yaml:"location" json:"location,omitempty"`
}

type NamespacePlan struct {
	Subnets []SubnetPlan `yaml:"subnets"`
}

type ImportResult struct {
	Created int             `json:"created"`
	Subnets []SubnetSummary `json:"subnets"`
}
