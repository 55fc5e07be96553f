package database

import (
	"ipamcore/internal/api/dto"
	"ipamcore/internal/domain"

	"gorm.io/gorm"
)

func GetDeviceFromId(id uint) (domain.Device, error) {
	var device domain.Device
	err := DB.First(&device, id).Error
	return device, err
}

func DeviceNameTaken(name string) (bool, error) {
	var count int64
	err := DB.Model(&domain.Device{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

func CreateDevice(device *domain.Device) error {
	return DB.Create(device).Error
}

func GetDeviceInfos() ([]dto.DeviceInfo, error) {
	var rows []dto.DeviceInfo

	err := DB.Model(&domain.Device{}).
		Select("devices.id, devices.name, devices.type, devices.location, devices.created_at, COUNT(ip_addresses.id) AS address_count").
		Joins("LEFT JOIN ip_addresses ON ip_addresses.device_id = devices.id").
		Group("devices.id, devices.name, devices.type, devices.location, devices.created_at").
		Order("devices.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func GetDeviceDetail(id uint) (dto.DeviceDetail, error) {
	var device domain.Device
	if err := DB.Preload("IPAddresses", func(db *gorm.DB) *gorm.DB {
		return db.Order("ip_addresses.address_int ASC")
	}).First(&device, id).Error; err != nil {
		return dto.DeviceDetail{}, err
	}

	detail := dto.DeviceDetail{
		DeviceInfo: dto.DeviceInfo{
			ID:           device.ID,
			Name:         device.Name,
			Type:         device.Type,
			Location:     device.Location,
			AddressCount: int64(len(device.IPAddresses)),
			CreatedAt:    device.CreatedAt,
		},
	}

	for _, ip := range device.IPAddresses {
		detail.Addresses = append(detail.Addresses, ipInfoFromRow(ip, device.Name))
	}

	return detail, nil
}
