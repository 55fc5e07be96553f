package database

import (
	"testing"
	"time"

	"ipamcore/internal/domain"
)

func TestSaveUtilizationSnapshots(t *testing.T) {
	db := setupInventoryTestDB(t)

	namespace := createTestNamespace(t, db, "snap")
	subnet := createTestSubnet(t, db, namespace.ID, "10.3.0.0/29", "rack")
	createTestAddress(t, db, subnet.ID, "10.3.0.1", domain.IPStatusActive)
	createTestAddress(t, db, subnet.ID, "10.3.0.2", domain.IPStatusActive)
	createTestAddress(t, db, subnet.ID, "10.3.0.3", domain.IPStatusReserved)

	if err := SaveUtilizationSnapshots(nil); err != nil {
		t.Fatalf("SaveUtilizationSnapshots failed: %v", err)
	}

	var rows []domain.UtilizationSnapshot
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("load snapshots: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d snapshot rows, want 1", len(rows))
	}

	row := rows[0]
	if row.SubnetID != subnet.ID {
		t.Fatalf("snapshot subnet = %d, want %d", row.SubnetID, subnet.ID)
	}
	if row.AllocatedCount != 3 {
		t.Fatalf("snapshot count = %d, want 3", row.AllocatedCount)
	}
	if row.Percent != 50.0 {
		t.Fatalf("snapshot percent = %f, want 50.0", row.Percent)
	}
}

func TestPruneSnapshotsBefore(t *testing.T) {
	db := setupInventoryTestDB(t)

	namespace := createTestNamespace(t, db, "prune")
	subnet := createTestSubnet(t, db, namespace.ID, "10.5.0.0/24", "prune")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	points := []domain.UtilizationSnapshot{
		{SubnetID: subnet.ID, AllocatedCount: 1, Percent: 0.4, CreatedAt: base},
		{SubnetID: subnet.ID, AllocatedCount: 2, Percent: 0.8, CreatedAt: base.AddDate(0, 0, 30)},
		{SubnetID: subnet.ID, AllocatedCount: 3, Percent: 1.2, CreatedAt: base.AddDate(0, 0, 60)},
	}
	if err := db.Create(&points).Error; err != nil {
		t.Fatalf("insert snapshots: %v", err)
	}

	removed, err := PruneSnapshotsBefore(nil, base.AddDate(0, 0, 45))
	if err != nil {
		t.Fatalf("PruneSnapshotsBefore failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	var rows []domain.UtilizationSnapshot
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("load snapshots: %v", err)
	}
	if len(rows) != 1 || rows[0].AllocatedCount != 3 {
		t.Fatalf("surviving rows = %+v, want only the newest point", rows)
	}
}

func TestGetRecentSnapshotsOldestFirst(t *testing.T) {
	db := setupInventoryTestDB(t)

	namespace := createTestNamespace(t, db, "history")
	subnet := createTestSubnet(t, db, namespace.ID, "10.4.0.0/24", "hist")

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	points := []domain.UtilizationSnapshot{
		{SubnetID: subnet.ID, AllocatedCount: 10, Percent: 3.9, CreatedAt: base},
		{SubnetID: subnet.ID, AllocatedCount: 20, Percent: 7.9, CreatedAt: base.Add(time.Hour)},
		{SubnetID: subnet.ID, AllocatedCount: 30, Percent: 11.8, CreatedAt: base.Add(2 * time.Hour)},
	}
	if err := db.Create(&points).Error; err != nil {
		t.Fatalf("insert snapshots: %v", err)
	}

	recent, err := GetRecentSnapshots(subnet.ID, 2)
	if err != nil {
		t.Fatalf("GetRecentSnapshots failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d points, want 2", len(recent))
	}
	if recent[0].AllocatedCount != 20 || recent[1].AllocatedCount != 30 {
		t.Fatalf("points out of order: %d then %d, want 20 then 30", recent[0].AllocatedCount, recent[1].AllocatedCount)
	}

	empty, err := GetRecentSnapshots(9999, 10)
	if err != nil {
		t.Fatalf("GetRecentSnapshots(missing) failed: %v", err)
	}
	if empty != nil {
		t.Fatalf("expected nil for subnet without history, got %v", empty)
	}
}
