package database

import (
	"ipamcore/internal/api/dto"
	"ipamcore/internal/domain"
)

func GetIPFromId(id uint) (domain.IPAddress, error) {
	var ip domain.IPAddress
	err := DB.First(&ip, id).Error
	return ip, err
}

func CreateIPAddress(ip *domain.IPAddress) error {
	return DB.Create(ip).Error
}

func UpdateIPFields(id uint, updates map[string]any) error {
	return DB.Model(&domain.IPAddress{}).Where("id = ?", id).Updates(updates).Error
}

func DeleteIP(id uint) error {
	return DB.Delete(&domain.IPAddress{}, id).Error
}

// GetIPsBySubnet lists a subnet's addresses in network order, optionally
// filtered by status.
func GetIPsBySubnet(subnetID uint, status string) ([]dto.IPAddressInfo, error) {
	type ipRow struct {
		domain.IPAddress
		DeviceName string `gorm:"column:device_name"`
	}

	query := DB.Model(&domain.IPAddress{}).
		Select("ip_addresses.*, devices.name AS device_name").
		Joins("LEFT JOIN devices ON devices.id = ip_addresses.device_id").
		Where("ip_addresses.subnet_id = ?", subnetID).
		Order("ip_addresses.address_int ASC")

	if status != "" {
		query = query.Where("ip_addresses.status = ?", status)
	}

	var rows []ipRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	infos := make([]dto.IPAddressInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, ipInfoFromRow(row.IPAddress, row.DeviceName))
	}

	return infos, nil
}

func ipInfoFromRow(ip domain.IPAddress, deviceName string) dto.IPAddressInfo {
	return dto.IPAddressInfo{
		ID:          ip.ID,
		SubnetID:    ip.SubnetID,
		Address:     ip.Address,
		Status:      ip.Status,
		Hostname:    ip.Hostname,
		Description: ip.Description,
		DeviceID:    ip.DeviceID,
		DeviceName:  deviceName,
		CreatedAt:   ip.CreatedAt,
		UpdatedAt:   ip.UpdatedAt,
	}
}
