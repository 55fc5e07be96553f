package domain

import (
	"time"

	"gorm.io/gorm"

	"ipamcore/internal/ipam"
)

// Namespace is an isolated routing domain that owns one root CIDR
// scope. Subnets inside a namespace must never overlap each other;
// subnets of different namespaces may overlap freely.
type Namespace struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"uniqueIndex;not null;size:255" json:"name"`
	CIDR        string `gorm:"column:cidr;not null;default:'10.0.0.0/8'" json:"cidr"`
	Description string `gorm:"size:512;default:''" json:"description"`

	Subnets   []Subnet  `gorm:"foreignKey:NamespaceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (namespace *Namespace) BeforeSave(_ *gorm.DB) error {
	if namespace.CIDR == "" {
		namespace.CIDR = "10.0.0.0/8"
	}
	scope, err := ipam.ParseCIDR(namespace.CIDR)
	if err != nil {
		return err
	}
	namespace.CIDR = scope.String()
	return nil
}

// Scope returns the namespace's root allocation block.
func (namespace *Namespace) Scope() (ipam.Block, error) {
	return ipam.ParseCIDR(namespace.CIDR)
}
