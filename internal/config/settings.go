package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

type Config struct {
	Allocation struct {
		DefaultSuggestPrefix uint32 `json:"default_suggest_prefix"`
		MinSubnetPrefix      uint32 `json:"min_subnet_prefix"`
		MaxSubnetPrefix      uint32 `json:"max_subnet_prefix"`
		DefaultNamespaceCIDR string `json:"default_namespace_cidr"`
		AutoReserveGateway   bool   `json:"auto_reserve_gateway"`
	} `json:"allocation"`

	Snapshots struct {
		Enabled       bool   `json:"enabled"`
		SnapshotTimer Timer  `json:"snapshot_timer"`
		LastRunAt     string `json:"last_run_at,omitempty"`
	} `json:"snapshots"`

	ReservedRanges []string `json:"reserved_ranges"`

	SeedDemoData bool `json:"seed_demo_data"`
}

type Timer struct {
	Days    uint32 `json:"days"`
	Hours   uint32 `json:"hours"`
	Minutes uint32 `json:"minutes"`
	Seconds uint32 `json:"seconds"`
}

const (
	defaultSuggestPrefix   = 24
	defaultMinSubnetPrefix = 9
	defaultMaxSubnetPrefix = 32
)

// SuggestPrefix returns the prefix length used when a suggestion request
// does not name one. Falls back to /24 on an unconfigured value.
func (c Config) SuggestPrefix() int {
	p := int(c.Allocation.DefaultSuggestPrefix)
	if p < 1 || p > 32 {
		return defaultSuggestPrefix
	}
	return p
}

// SubnetPrefixBounds returns the allowed prefix range for subnets.
// Unconfigured values fall back to /9../32.
func (c Config) SubnetPrefixBounds() (min, max int) {
	min = int(c.Allocation.MinSubnetPrefix)
	max = int(c.Allocation.MaxSubnetPrefix)
	if min < 1 || min > 32 {
		min = defaultMinSubnetPrefix
	}
	if max < 1 || max > 32 {
		max = defaultMaxSubnetPrefix
	}
	if min > max {
		min, max = defaultMinSubnetPrefix, defaultMaxSubnetPrefix
	}
	return min, max
}

const settingsFilePath = "data/settings.json"

var (
	//go:embed default_settings.json
	defaultConfig []byte

	configValue atomic.Value
	configMu    sync.Mutex

	InProductionMode bool
)

func init() {
	// Initialize configValue with a default Config instance
	configValue.Store(Config{})
}

func ReadSettings() {

	data, err := os.ReadFile(settingsFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Settings file not found, creating with default configuration")

			err = os.MkdirAll("data", os.ModePerm)
			if err != nil {
				log.Error("Error creating directory for settings file:", err)
				return
			}

			err = os.WriteFile(settingsFilePath, defaultConfig, os.ModePerm)
			if err != nil {
				log.Error("Error writing default settings file:", err)
				return
			}

			data = defaultConfig
		} else {
			log.Error("Error reading settings file:", err)
			return
		}
	}

	var newConfig Config
	err = json.Unmarshal(data, &newConfig)
	if err != nil {
		log.Error("Error unmarshalling settings file:", err)
		return
	}

	if err := applyConfigUpdate(newConfig, configUpdateOptions{source: "file"}); err != nil {
		log.Error("Error applying configuration from settings file:", err)
		return
	}

	log.Debug("Settings file loaded successfully")
}

func SetConfig(newConfig Config) {
	if err := applyConfigUpdate(newConfig, configUpdateOptions{persistToFile: true, broadcast: true, source: "local"}); err != nil {
		log.Error("Error applying configuration update:", err)
		return
	}

	log.Debug("Configuration updated and written to file successfully")
}

func UpdateSnapshotConfig(updater func(cfg *Config)) error {
	if updater == nil {
		return errors.New("config: snapshot updater cannot be nil")
	}

	cfg := GetConfig()
	updater(&cfg)

	return applyConfigUpdate(cfg, configUpdateOptions{persistToFile: true, broadcast: true, source: "snapshots"})
}

func MarkSnapshotRun(ts time.Time) error {
	return UpdateSnapshotConfig(func(cfg *Config) {
		cfg.Snapshots.LastRunAt = ts.UTC().Format(time.RFC3339)
	})
}

type configUpdateOptions struct {
	persistToFile bool
	broadcast     bool
	source        string
}

func applyConfigUpdate(newConfig Config, opts configUpdateOptions) error {
	configMu.Lock()
	defer configMu.Unlock()

	configValue.Store(newConfig)
	SetBetweenTime()
	updateReservedRanges(newConfig.ReservedRanges)

	var errs []error

	if opts.persistToFile {
		data, err := json.MarshalIndent(newConfig, "", "  ")
		if err != nil {
			log.Error("Error marshalling new configuration:", err)
			errs = append(errs, err)
		} else if err := os.WriteFile(settingsFilePath, data, os.ModePerm); err != nil {
			log.Error("Error writing new configuration to file:", err)
			errs = append(errs, err)
		}
	}

	if opts.broadcast {
		payload, err := json.Marshal(newConfig)
		if err != nil {
			log.Error("Error serializing configuration for broadcast:", err)
			errs = append(errs, err)
		} else if err := broadcastConfigUpdate(payload); err != nil {
			log.Error("Error broadcasting configuration update:", err)
			errs = append(errs, err)
		}
	}

	if opts.source != "" {
		log.Debug("Configuration applied", "source", opts.source)
	} else {
		log.Debug("Configuration applied")
	}

	return errors.Join(errs...)
}

func GetConfig() Config {
	// Get the current Config atomically
	return configValue.Load().(Config)
}

func SetProductionMode(productionMode bool) {
	InProductionMode = productionMode
}
