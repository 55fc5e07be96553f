package database

import (
	"fmt"
	"time"

	"ipamcore/internal/domain"
	"ipamcore/internal/support"

	"github.com/charmbracelet/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"sync/atomic"
)

var (
	DB *gorm.DB
)

type Config struct {
	ExistingDB   *gorm.DB
	Dialector    gorm.Dialector
	Logger       logger.Interface
	AutoMigrate  bool
	Migrations   []any
	SeedDefaults bool
}

type Option func(*Config)

var currentDSN atomic.Value

func setDSN(dsn string) {
	if dsn == "" {
		return
	}
	currentDSN.Store(dsn)
}

func getDSN() string {
	if raw := currentDSN.Load(); raw != nil {
		if dsn, ok := raw.(string); ok {
			return dsn
		}
	}
	return ""
}

func SetupDB(opts ...Option) (*gorm.DB, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	switch {
	case cfg.ExistingDB != nil:
		DB = cfg.ExistingDB
	case cfg.Dialector != nil:
		if dsn := buildDSN(); dsn != "" {
			setDSN(dsn)
		}
		gormCfg := &gorm.Config{TranslateError: true}
		if cfg.Logger != nil {
			gormCfg.Logger = cfg.Logger
		}
		db, err := gorm.Open(cfg.Dialector, gormCfg)
		if err != nil {
			return nil, fmt.Errorf("database: open connection: %w", err)
		}
		DB = db
		configureConnectionPool(db)
	default:
		return nil, fmt.Errorf("database: no dialector or existing connection provided")
	}

	if DB == nil {
		return nil, fmt.Errorf("database: connection was not configured")
	}

	if cfg.AutoMigrate && len(cfg.Migrations) > 0 {
		if err := DB.AutoMigrate(cfg.Migrations...); err != nil {
			return nil, fmt.Errorf("database: auto migrate: %w", err)
		}
		log.Info("Database migration completed.")
	}

	if cfg.SeedDefaults {
		if err := seedDefaults(DB); err != nil {
			return nil, fmt.Errorf("database: seed defaults: %w", err)
		}
	}

	if err := ensureNamespaceSchema(DB); err != nil {
		log.Error("Failed to ensure namespace schema", "error", err)
	}

	if err := ensureAddressIndexes(DB); err != nil {
		log.Error("Failed to ensure address indexes", "error", err)
	}

	return DB, nil
}

func defaultConfig() Config {
	dsn := buildDSN()

	setDSN(dsn)

	return Config{
		Dialector:    postgres.Open(dsn),
		Logger:       silentLogger(),
		AutoMigrate:  true,
		Migrations:   defaultMigrations(),
		SeedDefaults: true,
	}
}

func buildDSN() string {
	dbHost := support.GetEnv("DB_HOST", "localhost")
	dbPort := support.GetEnv("DB_PORT", "5432")
	dbName := support.GetEnv("DB_NAME", "ipamcore")
	dbUser := support.GetEnv("DB_USERNAME", "admin")
	dbPassword := support.GetEnv("DB_PASSWORD", "admin")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost,
		dbPort,
		dbUser,
		dbPassword,
		dbName,
	)

	return dsn
}

func silentLogger() logger.Interface {
	return logger.New(
		log.Default(),
		logger.Config{LogLevel: logger.Silent},
	)
}

func defaultMigrations() []any {
	return []any{
		domain.User{},
		domain.Namespace{},
		domain.Subnet{},
		domain.IPAddress{},
		domain.Device{},
		domain.UtilizationSnapshot{},
	}
}

func WithExistingDB(db *gorm.DB) Option {
	return func(cfg *Config) {
		cfg.ExistingDB = db
	}
}

func WithDialector(d gorm.Dialector) Option {
	return func(cfg *Config) {
		cfg.Dialector = d
	}
}

func WithLogger(l logger.Interface) Option {
	return func(cfg *Config) {
		cfg.Logger = l
	}
}

func WithAutoMigrate(enabled bool) Option {
	return func(cfg *Config) {
		cfg.AutoMigrate = enabled
	}
}

func WithMigrations(models ...any) Option {
	return func(cfg *Config) {
		if len(models) == 0 {
			cfg.Migrations = nil
			return
		}
		cfg.Migrations = append([]any(nil), models...)
	}
}

func WithSeedDefaults(enabled bool) Option {
	return func(cfg *Config) {
		cfg.SeedDefaults = enabled
	}
}

func configureConnectionPool(db *gorm.DB) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Error("database: get sql.DB", "error", err)
		return
	}

	maxOpen := support.GetEnvInt("DB_MAX_OPEN_CONNS", 32)
	maxIdle := support.GetEnvInt("DB_MAX_IDLE_CONNS", maxOpen)
	if maxIdle > maxOpen {
		maxIdle = maxOpen
	}

	connLifetimeSeconds := support.GetEnvInt("DB_CONN_MAX_LIFETIME", 300)
	connIdleSeconds := support.GetEnvInt("DB_CONN_MAX_IDLE_TIME", 60)

	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxIdle >= 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if connLifetimeSeconds > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(connLifetimeSeconds) * time.Second)
	}
	if connIdleSeconds > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(connIdleSeconds) * time.Second)
	}
}

func seedDefaults(db *gorm.DB) error {
	return ensureDemoInventory(db)
}

// ensureDemoInventory seeds the starter namespaces, subnets, and addresses
// the frontend expects on a fresh install. Runs only against empty tables.
func ensureDemoInventory(db *gorm.DB) error {
	if !db.Migrator().HasTable(&domain.Namespace{}) {
		return nil
	}

	var count int64
	if err := db.Model(&domain.Namespace{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	prod := domain.Namespace{Name: "Prod", Description: "Production address space"}
	if err := db.Create(&prod).Error; err != nil {
		return err
	}

	dev := domain.Namespace{Name: "Dev", Description: "Development address space"}
	if err := db.Create(&dev).Error; err != nil {
		return err
	}

	webVlan := 110
	webTier := domain.Subnet{
		NamespaceID: prod.ID,
		CIDR:        "192.168.1.0/24",
		Label:       "Web Tier",
		VlanID:      &webVlan,
		Location:    "dc-1",
	}
	if err := db.Create(&webTier).Error; err != nil {
		return err
	}

	sandbox := domain.Subnet{
		NamespaceID: dev.ID,
		CIDR:        "10.0.0.0/24",
		Label:       "Test Sandbox",
	}
	if err := db.Create(&sandbox).Error; err != nil {
		return err
	}

	addresses := []domain.IPAddress{
		{SubnetID: webTier.ID, Address: "192.168.1.1", Status: domain.IPStatusReserved, Hostname: "gateway", Description: "Default gateway"},
	}
	for i := 0; i < 5; i++ {
		addresses = append(addresses, domain.IPAddress{
			SubnetID: webTier.ID,
			Address:  fmt.Sprintf("192.168.1.%d", 10+i),
			Status:   domain.IPStatusActive,
			Hostname: fmt.Sprintf("web-%02d", i+1),
		})
	}

	return db.Create(&addresses).Error
}

// ensureNamespaceSchema backfills the root CIDR column on installations that
// predate it. Postgres-only statements; failures are logged by the caller
// and ignored on other dialects.
func ensureNamespaceSchema(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("nil database connection")
	}

	stmts := []string{
		`ALTER TABLE IF EXISTS namespaces ADD COLUMN IF NOT EXISTS cidr text`,
		`UPDATE namespaces SET cidr = '10.0.0.0/8' WHERE cidr IS NULL OR cidr = ''`,
	}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("namespace schema: %w", err)
		}
	}

	return nil
}

func ensureAddressIndexes(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("nil database connection")
	}

	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_ip_addresses_subnet_status ON ip_addresses (subnet_id, status)`,
	}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("address indexes: %w", err)
		}
	}

	return nil
}
