package dto

import "time"

type IPAddressInfo struct {
	ID          uint      `json:"id"`
	SubnetID    uint      `json:"subnet_id"`
	Address     string    `json:"address"`
	Status      string    `json:"status"`
	Hostname    string    `json:"hostname,omitempty"`
	Description string    `json:"description,omitempty"`
	DeviceID    *uint     `json:"device_id,omitempty"`
	DeviceName  string    `json:"device_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ReserveRequest struct {
	Hostname    string `json:"hostname,omitempty"`
	Description string `json:"description,omitempty"`
	DeviceID    *uint  `json:"device_id,omitempty"`
}
