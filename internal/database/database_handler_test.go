package database

import (
	"fmt"
	"testing"

	"ipamcore/internal/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", t.Name())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		t.Fatalf("set busy timeout: %v", err)
	}

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Namespace{},
		&domain.Subnet{},
		&domain.IPAddress{},
		&domain.Device{},
		&domain.UtilizationSnapshot{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	DB = db

	t.Cleanup(func() {
		DB = nil
	})

	return db
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	db := setupInventoryTestDB(t)

	for i := 0; i < 2; i++ {
		if err := seedDefaults(db); err != nil {
			t.Fatalf("seed defaults run %d: %v", i+1, err)
		}
	}

	var namespaceCount, subnetCount, addressCount int64
	db.Model(&domain.Namespace{}).Count(&namespaceCount)
	db.Model(&domain.Subnet{}).Count(&subnetCount)
	db.Model(&domain.IPAddress{}).Count(&addressCount)

	if namespaceCount != 2 {
		t.Fatalf("namespace count = %d, want 2", namespaceCount)
	}
	if subnetCount != 2 {
		t.Fatalf("subnet count = %d, want 2", subnetCount)
	}
	if addressCount != 6 {
		t.Fatalf("address count = %d, want 6", addressCount)
	}

	var prod domain.Namespace
	if err := db.Where("name = ?", "Prod").First(&prod).Error; err != nil {
		t.Fatalf("load Prod namespace: %v", err)
	}
	if prod.CIDR != "10.0.0.0/8" {
		t.Fatalf("Prod namespace cidr = %q, want default 10.0.0.0/8", prod.CIDR)
	}

	var gateway domain.IPAddress
	if err := db.Where("hostname = ?", "gateway").First(&gateway).Error; err != nil {
		t.Fatalf("load gateway address: %v", err)
	}
	if gateway.Status != domain.IPStatusReserved {
		t.Fatalf("gateway status = %q, want %q", gateway.Status, domain.IPStatusReserved)
	}
	if gateway.AddressInt != 0xC0A80101 {
		t.Fatalf("gateway address_int = %#x, want 0xC0A80101", gateway.AddressInt)
	}
}

func TestGetDashboardInfo(t *testing.T) {
	db := setupInventoryTestDB(t)

	if err := seedDefaults(db); err != nil {
		t.Fatalf("seed defaults: %v", err)
	}

	info := GetDashboardInfo()

	if info.TotalNamespaces != 2 {
		t.Fatalf("total namespaces = %d, want 2", info.TotalNamespaces)
	}
	if info.TotalSubnets != 2 {
		t.Fatalf("total subnets = %d, want 2", info.TotalSubnets)
	}
	if info.TotalAddresses != 6 {
		t.Fatalf("total addresses = %d, want 6", info.TotalAddresses)
	}
	if info.AddressesAddedWeek != 6 {
		t.Fatalf("addresses added this week = %d, want 6", info.AddressesAddedWeek)
	}

	if len(info.StatusBreakdown) != 2 {
		t.Fatalf("status breakdown has %d entries, want 2", len(info.StatusBreakdown))
	}
	if info.StatusBreakdown[0].Status != domain.IPStatusActive || info.StatusBreakdown[0].Count != 5 {
		t.Fatalf("top status = %+v, want active x5", info.StatusBreakdown[0])
	}
	if info.StatusBreakdown[1].Status != domain.IPStatusReserved || info.StatusBreakdown[1].Count != 1 {
		t.Fatalf("second status = %+v, want reserved x1", info.StatusBreakdown[1])
	}

	if len(info.TopUtilizedSubnets) != 1 {
		t.Fatalf("top utilized has %d entries, want 1 (empty subnets are skipped)", len(info.TopUtilizedSubnets))
	}
	top := info.TopUtilizedSubnets[0]
	if top.CIDR != "192.168.1.0/24" || top.AllocatedCount != 6 {
		t.Fatalf("top subnet = %+v, want 192.168.1.0/24 with 6 allocations", top)
	}
	if top.Utilization <= 0 {
		t.Fatalf("top subnet utilization = %f, want > 0", top.Utilization)
	}
}
