package domain

import (
	"time"

	"gorm.io/gorm"

	"ipamcore/internal/ipam"
)

const (
	IPStatusActive     = "active"
	IPStatusReserved   = "reserved"
	IPStatusDeprecated = "deprecated"
)

// IPAddress is one allocated host address inside a subnet. A row means
// the address is occupied regardless of status; releasing flips the
// status to deprecated and only deleting the row frees the address.
type IPAddress struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	SubnetID    uint   `gorm:"not null;uniqueIndex:idx_ip_subnet_addr,priority:1" json:"subnet_id"`
	Address     string `gorm:"not null;index;size:15" json:"address"`
	AddressInt  uint32 `gorm:"column:address_int;uniqueIndex:idx_ip_subnet_addr,priority:2" json:"-"`
	Status      string `gorm:"not null;default:'active';check:status IN ('active','reserved','deprecated')" json:"status"`
	Hostname    string `gorm:"size:255;default:''" json:"hostname"`
	Description string `gorm:"size:512;default:''" json:"description"`
	DeviceID    *uint  `gorm:"index" json:"device_id,omitempty"`

	Subnet    Subnet    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Device    *Device   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ip *IPAddress) BeforeSave(_ *gorm.DB) error {
	addr, err := ipam.ParseAddr(ip.Address)
	if err != nil {
		return err
	}
	ip.Address = addr.String()
	ip.AddressInt = uint32(addr)
	if ip.Status == "" {
		ip.Status = IPStatusActive
	}
	return nil
}

// Addr returns the row's address as an engine value.
func (ip *IPAddress) Addr() (ipam.Addr, error) {
	return ipam.ParseAddr(ip.Address)
}

// ValidIPStatus reports whether s is one of the known lifecycle states.
func ValidIPStatus(s string) bool {
	switch s {
	case IPStatusActive, IPStatusReserved, IPStatusDeprecated:
		return true
	}
	return false
}
