package factory

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, body string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "avenginecfg.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed writing temp config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsOnEmptyConfig(t *testing.T) {
	path := writeTempConfig(t, "{}\n")
	cfg, err := (&DefaultLoader{}).Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading an empty config: %v", err)
	}
	if cfg.Identity.InterfaceName != "eth0" {
		t.Errorf("expected default interfaceName eth0, got %s", cfg.Identity.InterfaceName)
	}
	if cfg.Discovery.AdvertiseInterval.Duration != 1800*time.Second {
		t.Errorf("expected default advertiseInterval 1800s, got %s", cfg.Discovery.AdvertiseInterval.Duration)
	}
	if cfg.LastChange.MinInterval.Duration != 200*time.Millisecond {
		t.Errorf("expected default minInterval 200ms, got %s", cfg.LastChange.MinInterval.Duration)
	}
	if cfg.GENA.SubscriptionTimeouts["AVTransport"] != 1801 {
		t.Errorf("expected default AVTransport subscription timeout 1801, got %d", cfg.GENA.SubscriptionTimeouts["AVTransport"])
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default logging level info, got %s", cfg.Logging.Level)
	}
}

func TestLoadParsesDurationSuffixes(t *testing.T) {
	path := writeTempConfig(t, `
discovery:
  ssdpSearchMx: 3
  advertiseInterval: 5s
lastChange:
  minInterval: 50ms
`)
	cfg, err := (&DefaultLoader{}).Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Discovery.AdvertiseInterval.Duration != 5*time.Second {
		t.Errorf("expected advertiseInterval 5s, got %s", cfg.Discovery.AdvertiseInterval.Duration)
	}
	if cfg.LastChange.MinInterval.Duration != 50*time.Millisecond {
		t.Errorf("expected minInterval 50ms, got %s", cfg.LastChange.MinInterval.Duration)
	}
}

func TestLoadRejectsUnsupportedLoggingLevel(t *testing.T) {
	path := writeTempConfig(t, "logging:\n  level: verbose\n")
	if _, err := (&DefaultLoader{}).Load(path); err == nil {
		t.Fatal("expected an error for an unsupported logging level")
	}
}

func TestLoadRejectsInvalidHTTPPort(t *testing.T) {
	path := writeTempConfig(t, "identity:\n  httpPort: 99999\n")
	if _, err := (&DefaultLoader{}).Load(path); err == nil {
		t.Fatal("expected an error for an out-of-range httpPort")
	}
}
