package ops

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"main/internal/schema"
	"main/internal/session"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Instruments []InstrumentConfig `json:"instruments"`
	Execution   ExecutionConfig    `json:"execution"`
	Hours       HoursConfig        `json:"hours"`
	Journal     JournalConfig      `json:"journal"`
}

// InstrumentConfig describes one instrument entry.
type InstrumentConfig struct {
	Name     string `json:"name"`
	TickSize string `json:"tickSize"`
	LotSize  string `json:"lotSize"`
	Tradable *bool  `json:"tradable"`
}

// ExecutionConfig holds the convergence engine tunables.
type ExecutionConfig struct {
	Resolution    string `json:"resolution"`
	Greed         string `json:"greed"`
	LotSize       string `json:"lotSize"`
	PanicLotSize  string `json:"panicLotSize"`
	ExtendedHours bool   `json:"extendedHours"`
}

// HoursConfig describes the regular session window for the simulator.
type HoursConfig struct {
	Open         string `json:"open"`
	Close        string `json:"close"`
	ExtendedOpen string `json:"extendedOpen"`
	ExtendedEnd  string `json:"extendedEnd"`
	Timezone     string `json:"timezone"`
	Weekends     bool   `json:"weekends"`
}

// JournalConfig holds the optional Postgres journal connection settings.
// Journaling is disabled when no connection info is given.
type JournalConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	User       string `json:"user"`
	Password   string `json:"password"`
	Database   string `json:"database"`
	SSLMode    string `json:"sslMode"`
	ConnString string `json:"connString"`
}

// Enabled reports whether any connection information is present.
func (c JournalConfig) Enabled() bool {
	return c.ConnString != "" || c.Database != ""
}

// envOverrides are applied on top of the file config. Variables use the
// CONVERGE_ prefix, e.g. CONVERGE_RESOLUTION=minute.
type envOverrides struct {
	Resolution string `envconfig:"RESOLUTION"`
	Greed      string `envconfig:"GREED"`
	JournalDSN string `envconfig:"JOURNAL_DSN"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Registry      *schema.Registry
	Resolution    session.Resolution
	Greed         decimal.Decimal
	LotSize       decimal.Decimal
	PanicLot      decimal.Decimal
	ExtendedHours bool
	Hours         *session.WallHours
	Journal       JournalConfig
}

// Load reads a JSON config file, applies env overrides and validates
// everything. Any configuration problem fails here, never at runtime.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "read config")
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "parse config")
	}
	return Resolve(cfg)
}

// Resolve validates a FileConfig and builds the resolved configuration.
func Resolve(cfg FileConfig) (Loaded, error) {
	var env envOverrides
	if err := envconfig.Process("converge", &env); err != nil {
		return Loaded{}, errors.Wrap(err, "read env overrides")
	}
	if env.Resolution != "" {
		cfg.Execution.Resolution = env.Resolution
	}
	if env.Greed != "" {
		cfg.Execution.Greed = env.Greed
	}
	if env.JournalDSN != "" {
		cfg.Journal.ConnString = env.JournalDSN
	}

	resolution, err := session.ParseResolution(cfg.Execution.Resolution)
	if err != nil {
		return Loaded{}, err
	}

	greed, err := parsePositive(cfg.Execution.Greed, "execution.greed", decimal.RequireFromString("1.1"))
	if err != nil {
		return Loaded{}, err
	}
	lotSize, err := parsePositive(cfg.Execution.LotSize, "execution.lotSize", decimal.NewFromInt(1))
	if err != nil {
		return Loaded{}, err
	}
	panicLot := decimal.Zero
	if cfg.Execution.PanicLotSize != "" {
		panicLot, err = parsePositive(cfg.Execution.PanicLotSize, "execution.panicLotSize", decimal.Zero)
		if err != nil {
			return Loaded{}, err
		}
	}

	registry, err := buildRegistry(cfg.Instruments)
	if err != nil {
		return Loaded{}, err
	}

	hoursCfg := cfg.Hours
	if hoursCfg.Open == "" {
		hoursCfg.Open = "09:30"
	}
	if hoursCfg.Close == "" {
		hoursCfg.Close = "16:00"
	}
	hours, err := session.NewWallHours(session.WallHoursConfig{
		Open:         hoursCfg.Open,
		Close:        hoursCfg.Close,
		ExtendedOpen: hoursCfg.ExtendedOpen,
		ExtendedEnd:  hoursCfg.ExtendedEnd,
		Timezone:     hoursCfg.Timezone,
		Weekends:     hoursCfg.Weekends,
	})
	if err != nil {
		return Loaded{}, err
	}

	return Loaded{
		Registry:      registry,
		Resolution:    resolution,
		Greed:         greed,
		LotSize:       lotSize,
		PanicLot:      panicLot,
		ExtendedHours: cfg.Execution.ExtendedHours,
		Hours:         hours,
		Journal:       cfg.Journal,
	}, nil
}

func buildRegistry(instruments []InstrumentConfig) (*schema.Registry, error) {
	if len(instruments) == 0 {
		return nil, fmt.Errorf("no instruments configured")
	}
	registry := schema.NewRegistry()
	for _, inst := range instruments {
		tick, err := parsePositive(inst.TickSize, "tickSize for "+inst.Name, decimal.Zero)
		if err != nil {
			return nil, err
		}
		lot, err := parsePositive(inst.LotSize, "lotSize for "+inst.Name, decimal.NewFromInt(1))
		if err != nil {
			return nil, err
		}
		tradable := true
		if inst.Tradable != nil {
			tradable = *inst.Tradable
		}
		if _, err := registry.AddInstrument(inst.Name, tick, lot, tradable); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func parsePositive(raw, field string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if raw == "" {
		if fallback.IsPositive() {
			return fallback, nil
		}
		return decimal.Zero, fmt.Errorf("%s is required", field)
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s is not a decimal: %q", field, raw)
	}
	if !value.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be > 0, got %s", field, value)
	}
	return value, nil
}
