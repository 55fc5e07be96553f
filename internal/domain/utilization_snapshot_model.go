package domain

import "time"

// UtilizationSnapshot is one point of a subnet's allocation history,
// written periodically by the snapshot routine.
type UtilizationSnapshot struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SubnetID       uint      `gorm:"not null;index:idx_util_snapshot_subnet,priority:1" json:"subnet_id"`
	AllocatedCount int64     `gorm:"not null" json:"allocated_count"`
	Percent        float64   `gorm:"not null" json:"percent"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_util_snapshot_subnet,priority:2" json:"created_at"`

	Subnet Subnet `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
