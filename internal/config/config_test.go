package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a configuration that passes Validate; tests mutate
// single fields from here.
func validConfig() Config {
	return Config{
		App:    AppConfig{Name: "fieldsla", Env: "test"},
		Server: ServerConfig{Host: "localhost", Port: 8080},
		Calendar: CalendarConfig{
			WorkingDays: []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
			DayStart:    "09:00",
			DayEnd:      "17:30",
			Holidays:    []string{"2025-12-25"},
			Timezone:    "UTC",
		},
		SLA: SLAConfig{
			Allotments: map[string]float64{
				"critical": 4, "high": 8, "medium": 24, "low": 48,
			},
			WarningThreshold: 75,
		},
		Outliers: OutliersConfig{
			Travel:     BoundsConfig{MinExclusive: 0, MaxInclusive: 120},
			Onsite:     BoundsConfig{MinExclusive: 0, MaxInclusive: 480},
			Resolution: BoundsConfig{MinExclusive: 1, MaxInclusive: 43200},
		},
		Sweep:   SweepConfig{Enabled: true, Schedule: "*/5 * * * *"},
		Reports: ReportsConfig{WindowDays: 30, TopAgents: 5},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid configuration passes", func(t *testing.T) {
		cfg := validConfig()
		assert.NoError(t, cfg.Validate())
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "no working days",
			mutate:  func(c *Config) { c.Calendar.WorkingDays = nil },
			wantErr: "working_days",
		},
		{
			name:    "malformed day start",
			mutate:  func(c *Config) { c.Calendar.DayStart = "9am" },
			wantErr: "day_start",
		},
		{
			name:    "day end before day start",
			mutate:  func(c *Config) { c.Calendar.DayEnd = "08:00" },
			wantErr: "day_end",
		},
		{
			name:    "malformed holiday",
			mutate:  func(c *Config) { c.Calendar.Holidays = []string{"25.12.2025"} },
			wantErr: "holidays",
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.Calendar.Timezone = "Mars/Olympus" },
			wantErr: "timezone",
		},
		{
			name:    "non-positive allotment",
			mutate:  func(c *Config) { c.SLA.Allotments["high"] = 0 },
			wantErr: "sla.allotments.high",
		},
		{
			name:    "warning threshold above 100",
			mutate:  func(c *Config) { c.SLA.WarningThreshold = 120 },
			wantErr: "warning_threshold",
		},
		{
			name:    "inverted outlier bounds",
			mutate:  func(c *Config) { c.Outliers.Onsite = BoundsConfig{MinExclusive: 480, MaxInclusive: 10} },
			wantErr: "outliers.onsite",
		},
		{
			name:    "sweep enabled without schedule",
			mutate:  func(c *Config) { c.Sweep.Schedule = "  " },
			wantErr: "sweep.schedule",
		},
		{
			name:    "zero window days",
			mutate:  func(c *Config) { c.Reports.WindowDays = 0 },
			wantErr: "window_days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestServerConfig(t *testing.T) {
	t.Run("GetServerAddr returns correct address", func(t *testing.T) {
		testCases := []struct {
			name     string
			config   ServerConfig
			expected string
		}{
			{
				name:     "localhost",
				config:   ServerConfig{Host: "localhost", Port: 3000},
				expected: "localhost:3000",
			},
			{
				name:     "all interfaces",
				config:   ServerConfig{Host: "0.0.0.0", Port: 8080},
				expected: "0.0.0.0:8080",
			},
			{
				name:     "specific IP",
				config:   ServerConfig{Host: "192.168.1.100", Port: 8090},
				expected: "192.168.1.100:8090",
			},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				assert.Equal(t, tc.expected, tc.config.GetServerAddr())
			})
		}
	})
}

func TestAppConfig(t *testing.T) {
	t.Run("Environment checks handle different values", func(t *testing.T) {
		testCases := []struct {
			env           string
			isProduction  bool
			isDevelopment bool
		}{
			{"production", true, false},
			{"development", false, true},
			{"staging", false, false},
			{"test", false, false},
			{"", false, false},
		}

		for _, tc := range testCases {
			t.Run(fmt.Sprintf("env=%s", tc.env), func(t *testing.T) {
				appConfig := &AppConfig{Env: tc.env}
				assert.Equal(t, tc.isProduction, appConfig.IsProduction())
				assert.Equal(t, tc.isDevelopment, appConfig.IsDevelopment())
			})
		}
	})
}

func TestCalendarConfigParts(t *testing.T) {
	calendar := CalendarConfig{DayStart: "09:00", DayEnd: "17:30"}

	h, m, err := calendar.DayStartParts()
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 0, m)

	h, m, err = calendar.DayEndParts()
	require.NoError(t, err)
	assert.Equal(t, 17, h)
	assert.Equal(t, 30, m)

	_, _, err = (&CalendarConfig{DayStart: "half nine"}).DayStartParts()
	assert.Error(t, err)
}

func TestHolidayDates(t *testing.T) {
	calendar := CalendarConfig{Holidays: []string{"2025-01-01", "2025-12-25"}}

	dates, err := calendar.HolidayDates()
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, 2025, dates[0].Year())
	assert.Equal(t, 25, dates[1].Day())

	_, err = (&CalendarConfig{Holidays: []string{"christmas"}}).HolidayDates()
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	t.Run("Load valid YAML config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "test-config.yaml")

		configContent := `
app:
  name: fieldsla-test
  env: test
  debug: true

server:
  host: localhost
  port: 9090

calendar:
  working_days:
    - monday
    - tuesday
    - wednesday
    - thursday
    - friday
    - saturday
  day_end: "18:00"
  timezone: America/New_York

sla:
  allotments:
    high: 9
  warning_threshold: 80
`
		err := os.WriteFile(configFile, []byte(configContent), 0644)
		require.NoError(t, err)

		// Reset the config singleton
		mu.Lock()
		cfg = nil
		once = sync.Once{}
		mu.Unlock()

		err = LoadFromFile(configFile)
		require.NoError(t, err)

		loadedCfg := Get()
		require.NotNil(t, loadedCfg)
		assert.Equal(t, "fieldsla-test", loadedCfg.App.Name)
		assert.True(t, loadedCfg.App.Debug)
		assert.Equal(t, 9090, loadedCfg.Server.Port)
		assert.Len(t, loadedCfg.Calendar.WorkingDays, 6)
		assert.Equal(t, "18:00", loadedCfg.Calendar.DayEnd)
		assert.Equal(t, "America/New_York", loadedCfg.Calendar.Timezone)
		assert.Equal(t, 80.0, loadedCfg.SLA.WarningThreshold)

		// File values merge over defaults key by key.
		assert.Equal(t, 9.0, loadedCfg.SLA.Allotments["high"])
		assert.Equal(t, 4.0, loadedCfg.SLA.Allotments["critical"])
		assert.Equal(t, "09:00", loadedCfg.Calendar.DayStart)
		assert.Equal(t, 30, loadedCfg.Reports.WindowDays)
		assert.Equal(t, 120.0, loadedCfg.Outliers.Travel.MaxInclusive)
	})

	t.Run("Error on non-existent file", func(t *testing.T) {
		err := LoadFromFile("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("Error on invalid YAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "invalid-config.yaml")

		invalidContent := `
app:
  name: [this is invalid
  env: test
`
		err := os.WriteFile(configFile, []byte(invalidContent), 0644)
		require.NoError(t, err)

		err = LoadFromFile(configFile)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("Error on values that fail validation", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "bad-values.yaml")

		badContent := `
calendar:
  day_start: "19:00"
`
		err := os.WriteFile(configFile, []byte(badContent), 0644)
		require.NoError(t, err)

		err = LoadFromFile(configFile)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "day_end")
	})
}

func TestGet(t *testing.T) {
	t.Run("Get returns config instance", func(t *testing.T) {
		mu.Lock()
		cfg = &Config{App: AppConfig{Name: "Test App"}}
		mu.Unlock()

		retrieved := Get()
		require.NotNil(t, retrieved)
		assert.Equal(t, "Test App", retrieved.App.Name)
	})

	t.Run("Get is thread-safe", func(t *testing.T) {
		mu.Lock()
		cfg = &Config{App: AppConfig{Name: "Concurrent Test"}}
		mu.Unlock()

		var wg sync.WaitGroup
		errs := make([]error, 100)

		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()

				retrieved := Get()
				if retrieved == nil {
					errs[idx] = fmt.Errorf("config was nil")
				} else if retrieved.App.Name != "Concurrent Test" {
					errs[idx] = fmt.Errorf("unexpected app name: %s", retrieved.App.Name)
				}
			}(i)
		}

		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("MustLoad panics on error", func(t *testing.T) {
		defer func() {
			r := recover()
			assert.NotNil(t, r)
			assert.Contains(t, r.(string), "Failed to load configuration")
		}()

		// Reset the singleton
		mu.Lock()
		cfg = nil
		once = sync.Once{}
		mu.Unlock()

		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "fieldsla.yaml")
		require.NoError(t, os.WriteFile(configFile, []byte("server: [broken"), 0644))

		// This should panic
		MustLoad(tmpDir)
	})
}
