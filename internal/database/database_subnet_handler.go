package database

import (
	"time"

	"ipamcore/internal/api/dto"
	"ipamcore/internal/domain"
	"ipamcore/internal/ipam"

	"gorm.io/gorm"
)

type subnetCountRow struct {
	ID             uint      `gorm:"column:id"`
	NamespaceID    uint      `gorm:"column:namespace_id"`
	CIDR           string    `gorm:"column:cidr"`
	Label          string    `gorm:"column:label"`
	VlanID         *int      `gorm:"column:vlan_id"`
	Location       string    `gorm:"column:location"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	AllocatedCount int64     `gorm:"column:allocated_count"`
}

func GetSubnetFromId(id uint) (domain.Subnet, error) {
	var subnet domain.Subnet
	err := DB.First(&subnet, id).Error
	return subnet, err
}

// CreateSubnets stores the given subnets in one transaction. When
// reserveGateway is set, each subnet wide enough to have a distinct first
// host also gets a reserved gateway address.
func CreateSubnets(subnets []*domain.Subnet, reserveGateway bool) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		for _, subnet := range subnets {
			if err := tx.Create(subnet).Error; err != nil {
				return err
			}

			if !reserveGateway {
				continue
			}

			block, err := subnet.Block()
			if err != nil || block.Prefix > 30 {
				continue
			}

			first, _ := block.HostRange()
			gateway := domain.IPAddress{
				SubnetID:    subnet.ID,
				Address:     first.String(),
				Status:      domain.IPStatusReserved,
				Hostname:    "gateway",
				Description: "Default gateway",
			}
			if err := tx.Create(&gateway).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSubnetSummaries lists subnets with their allocation count and live
// utilization. A zero namespaceID lists every subnet.
func GetSubnetSummaries(namespaceID uint) ([]dto.SubnetSummary, error) {
	query := DB.Model(&domain.Subnet{}).
		Select("subnets.id, subnets.namespace_id, subnets.cidr, subnets.label, subnets.vlan_id, subnets.location, subnets.created_at, COUNT(ip_addresses.id) AS allocated_count").
		Joins("LEFT JOIN ip_addresses ON ip_addresses.subnet_id = subnets.id").
		Group("subnets.id, subnets.namespace_id, subnets.cidr, subnets.label, subnets.vlan_id, subnets.location, subnets.created_at").
		Order("subnets.namespace_id ASC, subnets.base_ip ASC")

	if namespaceID > 0 {
		query = query.Where("subnets.namespace_id = ?", namespaceID)
	}

	var rows []subnetCountRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	summaries := make([]dto.SubnetSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, subnetSummaryFromRow(row))
	}

	return summaries, nil
}

func GetSubnetDetail(id uint) (dto.SubnetDetail, error) {
	var row subnetCountRow
	result := DB.Model(&domain.Subnet{}).
		Select("subnets.id, subnets.namespace_id, subnets.cidr, subnets.label, subnets.vlan_id, subnets.location, subnets.created_at, COUNT(ip_addresses.id) AS allocated_count").
		Joins("LEFT JOIN ip_addresses ON ip_addresses.subnet_id = subnets.id").
		Where("subnets.id = ?", id).
		Group("subnets.id, subnets.namespace_id, subnets.cidr, subnets.label, subnets.vlan_id, subnets.location, subnets.created_at").
		Scan(&row)
	if result.Error != nil {
		return dto.SubnetDetail{}, result.Error
	}
	if result.RowsAffected == 0 || row.ID == 0 {
		return dto.SubnetDetail{}, gorm.ErrRecordNotFound
	}

	detail := dto.SubnetDetail{SubnetSummary: subnetSummaryFromRow(row)}

	var namespace domain.Namespace
	if err := DB.Select("name").First(&namespace, row.NamespaceID).Error; err == nil {
		detail.NamespaceName = namespace.Name
	}

	snapshots, err := GetRecentSnapshots(id, 24)
	if err == nil {
		detail.RecentSnapshots = snapshots
	}

	return detail, nil
}

func DeleteSubnet(id uint) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subnet_id = ?", id).Delete(&domain.IPAddress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subnet_id = ?", id).Delete(&domain.UtilizationSnapshot{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Subnet{}, id).Error
	})
}

func CountAddresses(subnetID uint) (int64, error) {
	var count int64
	err := DB.Model(&domain.IPAddress{}).Where("subnet_id = ?", subnetID).Count(&count).Error
	return count, err
}

// GetUsedAddressSet returns every stored address of the subnet as a lookup
// set for the host scanner.
func GetUsedAddressSet(subnetID uint) (map[ipam.Addr]struct{}, error) {
	var ints []uint32
	if err := DB.Model(&domain.IPAddress{}).Where("subnet_id = ?", subnetID).Pluck("address_int", &ints).Error; err != nil {
		return nil, err
	}

	used := make(map[ipam.Addr]struct{}, len(ints))
	for _, v := range ints {
		used[ipam.Addr(v)] = struct{}{}
	}

	return used, nil
}

func subnetSummaryFromRow(row subnetCountRow) dto.SubnetSummary {
	summary := dto.SubnetSummary{
		ID:             row.ID,
		NamespaceID:    row.NamespaceID,
		CIDR:           row.CIDR,
		Label:          row.Label,
		VlanID:         row.VlanID,
		Location:       row.Location,
		AllocatedCount: row.AllocatedCount,
		CreatedAt:      row.CreatedAt,
	}

	if block, err := ipam.ParseCIDR(row.CIDR); err == nil {
		summary.UsableHosts = block.UsableHosts()
		summary.Utilization = ipam.Utilization(int(row.AllocatedCount), block)
	}

	return summary
}
