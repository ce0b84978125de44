package config

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Data     DataConfig     `mapstructure:"data"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	SLA      SLAConfig      `mapstructure:"sla"`
	Outliers OutliersConfig `mapstructure:"outliers"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Reports  ReportsConfig  `mapstructure:"reports"`
}

type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DataConfig struct {
	// Fixtures points at the YAML snapshot the repository loads on start.
	// Empty means start with no tickets.
	Fixtures string `mapstructure:"fixtures"`
}

type CalendarConfig struct {
	WorkingDays []string `mapstructure:"working_days"`
	DayStart    string   `mapstructure:"day_start"`
	DayEnd      string   `mapstructure:"day_end"`
	Holidays    []string `mapstructure:"holidays"`
	Timezone    string   `mapstructure:"timezone"`
}

type SLAConfig struct {
	// Allotments maps a priority name to its business hours before breach.
	Allotments       map[string]float64 `mapstructure:"allotments"`
	WarningThreshold float64            `mapstructure:"warning_threshold"`
}

type BoundsConfig struct {
	MinExclusive float64 `mapstructure:"min_exclusive"`
	MaxInclusive float64 `mapstructure:"max_inclusive"`
}

type OutliersConfig struct {
	Travel     BoundsConfig `mapstructure:"travel"`
	Onsite     BoundsConfig `mapstructure:"onsite"`
	Resolution BoundsConfig `mapstructure:"resolution"`
}

type SweepConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ReportsConfig struct {
	// WindowDays is the reporting window when a request gives no range.
	WindowDays int `mapstructure:"window_days"`
	TopAgents  int `mapstructure:"top_agents"`
}

// Load initializes the configuration with hot reload support. A missing
// config file is not an error; defaults and FIELDSLA_ environment
// variables still apply.
func Load(configPath string) error {
	var err error
	once.Do(func() {
		v := viper.New()
		setDefaults(v)

		v.SetConfigType("yaml")
		v.SetConfigName("fieldsla")
		if configPath != "" {
			v.AddConfigPath(configPath)
		}
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/fieldsla")

		fileFound := true
		if readErr := v.ReadInConfig(); readErr != nil {
			if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("failed to read config: %w", readErr)
				return
			}
			fileFound = false
		}

		// Environment variable overrides
		v.SetEnvPrefix("FIELDSLA")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		loaded := &Config{}
		if err = v.Unmarshal(loaded); err != nil {
			err = fmt.Errorf("failed to unmarshal config: %w", err)
			return
		}
		if err = loaded.Validate(); err != nil {
			return
		}
		cfg = loaded

		if !fileFound {
			return
		}

		// Watch for config changes; a reload that fails validation keeps
		// the previous configuration.
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Printf("config file changed: %s", e.Name)

			newCfg := &Config{}
			if err := v.Unmarshal(newCfg); err != nil {
				log.Printf("config reload failed: %v", err)
				return
			}
			if err := newCfg.Validate(); err != nil {
				log.Printf("config reload rejected: %v", err)
				return
			}

			// Atomic swap
			mu.Lock()
			cfg = newCfg
			mu.Unlock()
			log.Println("configuration reloaded")
		})
	})

	return err
}

// Get returns the current configuration (thread-safe)
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// LoadFromFile loads configuration from a specific file (useful for testing)
func LoadFromFile(configFile string) error {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	loaded := &Config{}
	if err := v.Unmarshal(loaded); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	cfg = loaded

	return nil
}

// MustLoad loads configuration and panics on error
func MustLoad(configPath string) {
	if err := Load(configPath); err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
}

// Validate checks the loaded values before any service is built from
// them. Every problem is reported at once rather than one per run.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}

	if len(c.Calendar.WorkingDays) == 0 {
		problems = append(problems, "calendar.working_days is empty")
	}
	startMin, err := clockMinutes(c.Calendar.DayStart)
	if err != nil {
		problems = append(problems, fmt.Sprintf("calendar.day_start %q is not HH:MM", c.Calendar.DayStart))
	}
	endMin, err := clockMinutes(c.Calendar.DayEnd)
	if err != nil {
		problems = append(problems, fmt.Sprintf("calendar.day_end %q is not HH:MM", c.Calendar.DayEnd))
	} else if startMin >= endMin {
		problems = append(problems, fmt.Sprintf("calendar.day_end %q is not after day_start %q",
			c.Calendar.DayEnd, c.Calendar.DayStart))
	}
	for _, d := range c.Calendar.Holidays {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			problems = append(problems, fmt.Sprintf("calendar.holidays entry %q is not YYYY-MM-DD", d))
		}
	}
	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("calendar.timezone %q is unknown", c.Calendar.Timezone))
	}

	for name, hours := range c.SLA.Allotments {
		if hours <= 0 {
			problems = append(problems, fmt.Sprintf("sla.allotments.%s must be positive", name))
		}
	}
	if c.SLA.WarningThreshold < 0 || c.SLA.WarningThreshold > 100 {
		problems = append(problems, fmt.Sprintf("sla.warning_threshold %.1f is out of range", c.SLA.WarningThreshold))
	}

	bounds := map[string]BoundsConfig{
		"travel":     c.Outliers.Travel,
		"onsite":     c.Outliers.Onsite,
		"resolution": c.Outliers.Resolution,
	}
	for name, b := range bounds {
		if b.MinExclusive < 0 {
			problems = append(problems, fmt.Sprintf("outliers.%s.min_exclusive is negative", name))
		}
		if b.MaxInclusive <= b.MinExclusive {
			problems = append(problems, fmt.Sprintf("outliers.%s.max_inclusive must exceed min_exclusive", name))
		}
	}

	if c.Sweep.Enabled && strings.TrimSpace(c.Sweep.Schedule) == "" {
		problems = append(problems, "sweep.schedule is empty while sweep is enabled")
	}

	if c.Reports.WindowDays < 1 {
		problems = append(problems, fmt.Sprintf("reports.window_days %d must be at least 1", c.Reports.WindowDays))
	}
	if c.Reports.TopAgents < 1 {
		problems = append(problems, fmt.Sprintf("reports.top_agents %d must be at least 1", c.Reports.TopAgents))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// GetServerAddr returns the server listen address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction returns true if running in production mode
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// IsDevelopment returns true if running in development mode
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// DayStartParts returns the configured working-day start as hour and
// minute.
func (c *CalendarConfig) DayStartParts() (int, int, error) {
	return clockParts(c.DayStart)
}

// DayEndParts returns the configured working-day end as hour and minute.
func (c *CalendarConfig) DayEndParts() (int, int, error) {
	return clockParts(c.DayEnd)
}

// HolidayDates parses the configured holiday dates. Only the calendar
// date matters; the hour and location are discarded downstream.
func (c *CalendarConfig) HolidayDates() ([]time.Time, error) {
	dates := make([]time.Time, 0, len(c.Holidays))
	for _, d := range c.Holidays {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday date %q: %w", d, err)
		}
		dates = append(dates, parsed)
	}
	return dates, nil
}

func clockParts(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

func clockMinutes(s string) (int, error) {
	h, m, err := clockParts(s)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fieldsla")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("data.fixtures", "")

	v.SetDefault("calendar.working_days", []string{
		"monday", "tuesday", "wednesday", "thursday", "friday",
	})
	v.SetDefault("calendar.day_start", "09:00")
	v.SetDefault("calendar.day_end", "17:30")
	v.SetDefault("calendar.holidays", []string{})
	v.SetDefault("calendar.timezone", "UTC")

	v.SetDefault("sla.allotments.critical", 4.0)
	v.SetDefault("sla.allotments.high", 8.0)
	v.SetDefault("sla.allotments.medium", 24.0)
	v.SetDefault("sla.allotments.low", 48.0)
	v.SetDefault("sla.warning_threshold", 75.0)

	v.SetDefault("outliers.travel.min_exclusive", 0.0)
	v.SetDefault("outliers.travel.max_inclusive", 120.0)
	v.SetDefault("outliers.onsite.min_exclusive", 0.0)
	v.SetDefault("outliers.onsite.max_inclusive", 480.0)
	v.SetDefault("outliers.resolution.min_exclusive", 1.0)
	v.SetDefault("outliers.resolution.max_inclusive", 43200.0)

	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.schedule", "*/5 * * * *")

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("reports.window_days", 30)
	v.SetDefault("reports.top_agents", 5)
}
