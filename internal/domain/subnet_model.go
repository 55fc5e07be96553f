package domain

import (
	"time"

	"gorm.io/gorm"

	"ipamcore/internal/ipam"
)

// Subnet is one CIDR block carved out of its namespace's root scope.
// BaseIP and LastIP cache the block bounds as integers so range
// queries never have to parse CIDR text.
type Subnet struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	NamespaceID uint   `gorm:"not null;uniqueIndex:idx_subnet_ns_cidr,priority:1" json:"namespace_id"`
	CIDR        string `gorm:"column:cidr;not null;index;uniqueIndex:idx_subnet_ns_cidr,priority:2" json:"cidr"`
	Label       string `gorm:"not null;size:255" json:"label"`
	VlanID      *int   `gorm:"column:vlan_id" json:"vlan_id,omitempty"`
	Location    string `gorm:"size:255;default:''" json:"location"`

	BaseIP uint32 `gorm:"column:base_ip;index" json:"-"`
	LastIP uint32 `gorm:"column:last_ip" json:"-"`

	Namespace   Namespace   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	IPAddresses []IPAddress `gorm:"foreignKey:SubnetID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
}

func (subnet *Subnet) BeforeSave(_ *gorm.DB) error {
	block, err := ipam.ParseCIDR(subnet.CIDR)
	if err != nil {
		return err
	}
	subnet.CIDR = block.String()
	subnet.BaseIP = uint32(block.Base)
	subnet.LastIP = uint32(block.Broadcast())
	return nil
}

// Block returns the subnet's address block.
func (subnet *Subnet) Block() (ipam.Block, error) {
	return ipam.ParseCIDR(subnet.CIDR)
}
