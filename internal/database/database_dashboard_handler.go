package database

import (
	"sort"
	"time"

	"ipamcore/internal/api/dto"
	"ipamcore/internal/domain"
)

const dashboardTopSubnets = 5

func GetDashboardInfo() dto.DashboardInfo {
	var info dto.DashboardInfo

	weekAgo := time.Now().AddDate(0, 0, -7)

	DB.Model(&domain.Namespace{}).Count(&info.TotalNamespaces)
	DB.Model(&domain.Subnet{}).Count(&info.TotalSubnets)
	DB.Model(&domain.IPAddress{}).Count(&info.TotalAddresses)
	DB.Model(&domain.Device{}).Count(&info.TotalDevices)

	DB.Model(&domain.IPAddress{}).
		Where("created_at >= ?", weekAgo).
		Count(&info.AddressesAddedWeek)

	type statusCount struct {
		Status string `gorm:"column:status"`
		Count  uint   `gorm:"column:count"`
	}

	var statuses []statusCount

	DB.Model(&domain.IPAddress{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("count DESC, status ASC").
		Scan(&statuses)

	for _, row := range statuses {
		info.StatusBreakdown = append(info.StatusBreakdown, struct {
			Status string `json:"status"`
			Count  uint   `json:"count"`
		}{
			Status: row.Status,
			Count:  row.Count,
		})
	}

	summaries, err := GetSubnetSummaries(0)
	if err != nil {
		return info
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Utilization != summaries[j].Utilization {
			return summaries[i].Utilization > summaries[j].Utilization
		}
		return summaries[i].ID < summaries[j].ID
	})

	for i, summary := range summaries {
		if i >= dashboardTopSubnets {
			break
		}
		if summary.AllocatedCount == 0 {
			continue
		}
		info.TopUtilizedSubnets = append(info.TopUtilizedSubnets, struct {
			SubnetID       uint    `json:"subnet_id"`
			CIDR           string  `json:"cidr"`
			Label          string  `json:"label,omitempty"`
			AllocatedCount int64   `json:"allocated_count"`
			Utilization    float64 `json:"utilization"`
		}{
			SubnetID:       summary.ID,
			CIDR:           summary.CIDR,
			Label:          summary.Label,
			AllocatedCount: summary.AllocatedCount,
			Utilization:    summary.Utilization,
		})
	}

	return info
}
