package database

import (
	"context"
	"fmt"
	"time"

	"ipamcore/internal/api/dto"
	"ipamcore/internal/domain"
	"ipamcore/internal/ipam"
)

const defaultSnapshotLimit = 96

// SaveUtilizationSnapshots records one utilization row per subnet. Called
// by the snapshot routine on the leader instance.
func SaveUtilizationSnapshots(ctx context.Context) error {
	if DB == nil {
		return fmt.Errorf("database: connection was not configured")
	}

	tx := DB
	if ctx != nil {
		tx = tx.WithContext(ctx)
	}

	var rows []struct {
		SubnetID       uint   `gorm:"column:subnet_id"`
		CIDR           string `gorm:"column:cidr"`
		AllocatedCount int64  `gorm:"column:allocated_count"`
	}

	if err := tx.Model(&domain.Subnet{}).
		Select("subnets.id AS subnet_id, subnets.cidr, COUNT(ip_addresses.id) AS allocated_count").
		Joins("LEFT JOIN ip_addresses ON ip_addresses.subnet_id = subnets.id").
		Group("subnets.id, subnets.cidr").
		Scan(&rows).Error; err != nil {
		return fmt.Errorf("utilization snapshot: aggregate counts: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}

	snapshots := make([]domain.UtilizationSnapshot, 0, len(rows))
	for _, row := range rows {
		block, err := ipam.ParseCIDR(row.CIDR)
		if err != nil {
			continue
		}

		snapshots = append(snapshots, domain.UtilizationSnapshot{
			SubnetID:       row.SubnetID,
			AllocatedCount: row.AllocatedCount,
			Percent:        ipam.Utilization(int(row.AllocatedCount), block),
		})
	}

	if len(snapshots) == 0 {
		return nil
	}

	if err := tx.Create(&snapshots).Error; err != nil {
		return fmt.Errorf("utilization snapshot: insert rows: %w", err)
	}

	return nil
}

// PruneSnapshotsBefore deletes utilization history older than the cutoff
// and reports how many rows went away.
func PruneSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database: connection was not configured")
	}

	tx := DB
	if ctx != nil {
		tx = tx.WithContext(ctx)
	}

	result := tx.Where("created_at < ?", cutoff).Delete(&domain.UtilizationSnapshot{})
	return result.RowsAffected, result.Error
}

// GetRecentSnapshots returns the latest utilization points for a subnet,
// oldest first so they can be charted directly.
func GetRecentSnapshots(subnetID uint, limit int) ([]dto.SnapshotPoint, error) {
	if DB == nil {
		return nil, fmt.Errorf("database: connection was not configured")
	}

	if limit <= 0 {
		limit = defaultSnapshotLimit
	}

	rows := make([]domain.UtilizationSnapshot, 0, limit)

	if err := DB.Where("subnet_id = ?", subnetID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	points := make([]dto.SnapshotPoint, len(rows))
	for index := range rows {
		row := rows[len(rows)-1-index]
		points[index] = dto.SnapshotPoint{
			AllocatedCount: row.AllocatedCount,
			Percent:        row.Percent,
			CreatedAt:      row.CreatedAt,
		}
	}

	return points, nil
}
