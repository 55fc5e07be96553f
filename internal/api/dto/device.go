package dto

import "time"

type DeviceInfo struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type,omitempty"`
	Location     string    `json:"location,omitempty"`
	AddressCount int64     `json:"address_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type DeviceDetail struct {
	DeviceInfo
	Addresses []IPAddressInfo `json:"addresses,omitempty"`
}

type DeviceCreateRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Location string `json:"location,omitempty"`
}
