package dto

import "time"

type SnapshotPoint struct {
	AllocatedCount int64     `json:"allocated_count"`
	Percent        float64   `json:"percent"`
	CreatedAt      time.Time `json:"created_at"`
}
