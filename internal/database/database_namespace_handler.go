package database

import (
	"ipamcore/internal/api/dto"
	"ipamcore/internal/domain"
	"ipamcore/internal/ipam"

	"gorm.io/gorm"
)

func GetNamespaceFromId(id uint) (domain.Namespace, error) {
	var namespace domain.Namespace
	err := DB.First(&namespace, id).Error
	return namespace, err
}

func NamespaceNameTaken(name string) (bool, error) {
	var count int64
	err := DB.Model(&domain.Namespace{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

func CreateNamespace(namespace *domain.Namespace) error {
	return DB.Create(namespace).Error
}

func GetNamespaceSummaries() ([]dto.NamespaceSummary, error) {
	var rows []dto.NamespaceSummary

	err := DB.Model(&domain.Namespace{}).
		Select("namespaces.id, namespaces.name, namespaces.cidr, namespaces.description, namespaces.created_at, COUNT(subnets.id) AS subnet_count").
		Joins("LEFT JOIN subnets ON subnets.namespace_id = namespaces.id").
		Group("namespaces.id, namespaces.name, namespaces.cidr, namespaces.description, namespaces.created_at").
		Order("namespaces.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// GetSubnetBlocksForNamespace returns the parsed CIDR blocks of every subnet
// in the namespace. Rows with unparseable CIDRs are skipped.
func GetSubnetBlocksForNamespace(namespaceID uint) ([]ipam.Block, error) {
	var subnets []domain.Subnet
	if err := DB.Where("namespace_id = ?", namespaceID).Order("base_ip ASC").Find(&subnets).Error; err != nil {
		return nil, err
	}

	blocks := make([]ipam.Block, 0, len(subnets))
	for _, subnet := range subnets {
		block, err := subnet.Block()
		if err != nil {
			continue
		}
		blocks = append(blocks, block)
	}

	return blocks, nil
}

// GetNamespaceInventory loads a namespace with its subnets and addresses
// ordered by network position, for exports and the read-only query schema.
func GetNamespaceInventory(namespaceID uint) (domain.Namespace, error) {
	var namespace domain.Namespace
	err := DB.
		Preload("Subnets", func(db *gorm.DB) *gorm.DB {
			return db.Order("subnets.base_ip ASC")
		}).
		Preload("Subnets.IPAddresses", func(db *gorm.DB) *gorm.DB {
			return db.Order("ip_addresses.address_int ASC")
		}).
		First(&namespace, namespaceID).Error
	return namespace, err
}
