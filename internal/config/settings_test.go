package config

import (
	"encoding/json"
	"testing"
)

func TestSuggestPrefix(t *testing.T) {
	var cfg Config
	if got := cfg.SuggestPrefix(); got != defaultSuggestPrefix {
		t.Fatalf("unconfigured SuggestPrefix returned %d, want %d", got, defaultSuggestPrefix)
	}

	cfg.Allocation.DefaultSuggestPrefix = 26
	if got := cfg.SuggestPrefix(); got != 26 {
		t.Fatalf("SuggestPrefix returned %d, want 26", got)
	}

	cfg.Allocation.DefaultSuggestPrefix = 40
	if got := cfg.SuggestPrefix(); got != defaultSuggestPrefix {
		t.Fatalf("out of range SuggestPrefix returned %d, want %d", got, defaultSuggestPrefix)
	}
}

func TestSubnetPrefixBounds(t *testing.T) {
	var cfg Config

	min, max := cfg.SubnetPrefixBounds()
	if min != defaultMinSubnetPrefix || max != defaultMaxSubnetPrefix {
		t.Fatalf("unconfigured bounds = %d..%d, want %d..%d", min, max, defaultMinSubnetPrefix, defaultMaxSubnetPrefix)
	}

	cfg.Allocation.MinSubnetPrefix = 16
	cfg.Allocation.MaxSubnetPrefix = 30
	min, max = cfg.SubnetPrefixBounds()
	if min != 16 || max != 30 {
		t.Fatalf("configured bounds = %d..%d, want 16..30", min, max)
	}

	cfg.Allocation.MinSubnetPrefix = 30
	cfg.Allocation.MaxSubnetPrefix = 16
	min, max = cfg.SubnetPrefixBounds()
	if min != defaultMinSubnetPrefix || max != defaultMaxSubnetPrefix {
		t.Fatalf("inverted bounds = %d..%d, want fallback %d..%d", min, max, defaultMinSubnetPrefix, defaultMaxSubnetPrefix)
	}
}

func TestDefaultSettingsParse(t *testing.T) {
	var cfg Config
	if err := json.Unmarshal(defaultConfig, &cfg); err != nil {
		t.Fatalf("embedded default settings do not parse: %v", err)
	}

	if cfg.Allocation.DefaultSuggestPrefix != 24 {
		t.Fatalf("default suggest prefix = %d, want 24", cfg.Allocation.DefaultSuggestPrefix)
	}
	if !cfg.Allocation.AutoReserveGateway {
		t.Fatal("expected auto_reserve_gateway enabled by default")
	}
	if len(cfg.ReservedRanges) == 0 {
		t.Fatal("expected default reserved ranges")
	}
	if got := NormalizeReservedRanges(cfg.ReservedRanges); len(got) != len(cfg.ReservedRanges) {
		t.Fatalf("default reserved ranges do not normalize cleanly: %v", got)
	}
}
