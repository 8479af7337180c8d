package factory

import (
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

// Config is the top-level configuration loaded from config/avenginecfg.yaml.
type Config struct {
	Identity   IdentitySection   `yaml:"identity"`
	Discovery  DiscoverySection  `yaml:"discovery"`
	GENA       GENASection       `yaml:"gena"`
	LastChange LastChangeSection `yaml:"lastChange"`
	Logging    LoggingSection    `yaml:"logging"`
}

// ---------- identity ----------

type IdentitySection struct {
	InterfaceName string `yaml:"interfaceName"` // e.g. "eth0"
	HTTPPort      int    `yaml:"httpPort"`       // 0 = ephemeral
}

// ---------- discovery ----------

type DiscoverySection struct {
	SSDPSearchMX      int      `yaml:"ssdpSearchMx"`      // seconds, M-SEARCH MX
	AdvertiseInterval Duration `yaml:"advertiseInterval"` // alive max-age is 2x this; re-announced about every half of it
}

// ---------- gena ----------

// GENASection holds the per-service-type default subscription timeout in
// seconds, the duration a SUBSCRIBE grants before a RENEW is required.
type GENASection struct {
	SubscriptionTimeouts map[string]int `yaml:"subscriptionTimeouts"`
}

// ---------- lastChange ----------

type LastChangeSection struct {
	MinInterval Duration `yaml:"minInterval"` // coalescing window, spec.md §8
}

// ---------- logging ----------

type LoggingSection struct {
	Level        string `yaml:"level"`        // "debug" | "info" | "warn" | "error"
	ReportCaller bool   `yaml:"reportCaller"`
}

// ---------- defaults ----------

var defaultSubscriptionTimeouts = map[string]int{
	"AVTransport":       1801,
	"RenderingControl":  1801,
	"ConnectionManager": 1801,
	"ContentDirectory":  1801,
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Identity.InterfaceName) == "" {
		cfg.Identity.InterfaceName = "eth0"
	}
	if cfg.Identity.HTTPPort < 0 {
		cfg.Identity.HTTPPort = 0
	}

	if cfg.Discovery.SSDPSearchMX <= 0 {
		cfg.Discovery.SSDPSearchMX = 2
	}
	if cfg.Discovery.AdvertiseInterval.Duration <= 0 {
		cfg.Discovery.AdvertiseInterval.Duration = 1800 * time.Second
	}

	if cfg.GENA.SubscriptionTimeouts == nil {
		cfg.GENA.SubscriptionTimeouts = make(map[string]int, len(defaultSubscriptionTimeouts))
	}
	for serviceTag, timeoutSec := range defaultSubscriptionTimeouts {
		if _, ok := cfg.GENA.SubscriptionTimeouts[serviceTag]; !ok {
			cfg.GENA.SubscriptionTimeouts[serviceTag] = timeoutSec
		}
	}

	if cfg.LastChange.MinInterval.Duration <= 0 {
		cfg.LastChange.MinInterval.Duration = 200 * time.Millisecond
	}

	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
}

// ---------- validation ----------

func validateConfig(cfg *Config) error {
	if cfg.Identity.HTTPPort != 0 && !govalidator.IsPort(fmt.Sprintf("%d", cfg.Identity.HTTPPort)) {
		return fmt.Errorf("identity.httpPort is invalid: %d", cfg.Identity.HTTPPort)
	}

	if cfg.Discovery.SSDPSearchMX <= 0 {
		return fmt.Errorf("discovery.ssdpSearchMx must be > 0")
	}
	if cfg.Discovery.AdvertiseInterval.Duration <= 0 {
		return fmt.Errorf("discovery.advertiseInterval must be > 0")
	}

	for serviceTag, timeoutSec := range cfg.GENA.SubscriptionTimeouts {
		if strings.TrimSpace(serviceTag) == "" {
			return fmt.Errorf("gena.subscriptionTimeouts has an empty service tag")
		}
		if timeoutSec <= 0 {
			return fmt.Errorf("gena.subscriptionTimeouts[%q] must be > 0", serviceTag)
		}
	}

	if cfg.LastChange.MinInterval.Duration <= 0 {
		return fmt.Errorf("lastChange.minInterval must be > 0")
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level unsupported: %q", cfg.Logging.Level)
	}
	return nil
}
