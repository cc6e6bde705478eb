package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultAPIURL is the hosted SentriX backend.
const DefaultAPIURL = "https://sentrix-1.onrender.com"

type Config struct {
	APIURL                string `json:"api_url"`
	LogLevel              string `json:"log_level"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	Retry                 struct {
		MaxAttempts    int     `json:"max_attempts"`
		InitialDelayMs int     `json:"initial_delay_ms"`
		Multiplier     float64 `json:"multiplier"`
		MaxDelayMs     int     `json:"max_delay_ms"`
	} `json:"retry"`
	Watch struct {
		DashboardSchedule string `json:"dashboard_schedule"`
		ReportsSchedule   string `json:"reports_schedule"`
	} `json:"watch"`
	Render struct {
		Style    string `json:"style"`
		WordWrap int    `json:"word_wrap"`
	} `json:"render"`
	DevServer struct {
		Listen string `json:"listen"`
	} `json:"dev_server"`
}

// DefaultPath returns ~/.sentrix/config.json.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".sentrix", "config.json")
}

// Default returns the configuration written on first run.
func Default() *Config {
	cfg := &Config{
		APIURL:                DefaultAPIURL,
		LogLevel:              "info",
		RequestTimeoutSeconds: 30,
	}
	cfg.Retry.MaxAttempts = 3
	cfg.Retry.InitialDelayMs = 500
	cfg.Retry.Multiplier = 2.0
	cfg.Retry.MaxDelayMs = 5000
	cfg.Watch.DashboardSchedule = "@every 1m"
	cfg.Watch.ReportsSchedule = "@every 5m"
	cfg.Render.Style = "auto"
	cfg.Render.WordWrap = 100
	cfg.DevServer.Listen = "127.0.0.1:8000"
	return cfg
}

func Load(path string) (*Config, error) {
	cfg := Default()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if apiURL := os.Getenv("SENTRIX_API_URL"); apiURL != "" {
		cfg.APIURL = apiURL
	}

	return cfg, nil
}

// Save writes cfg to path atomically, creating the parent directory.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeAtomic(path, append(data, '\n'))
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// RequestTimeout returns the per-request timeout, or zero when unset.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ToMap converts cfg to a generic nested map using its JSON field names.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return m, nil
}

// ListValues returns every setting keyed by its dot-separated path. When
// mask is true, credentials embedded in URL values are hidden.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	flat := Flatten(m)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue loads the config at path and returns the value at key.
func GetValue(path, key string) (any, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	raw, err := readRaw(path)
	if err != nil {
		return nil, err
	}

	// Keys present only in the file (not in Config) are still readable.
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	flat := Flatten(m)
	for k, v := range Flatten(raw) {
		if _, ok := flat[k]; !ok {
			flat[k] = v
		}
	}

	v, ok := flat[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return v, nil
}

// SetValue sets key in the config file at path. value is parsed as JSON when
// possible (numbers, booleans) and stored as a string otherwise. The file
// must already exist.
func SetValue(path, key, value string) error {
	raw, err := readRaw(path)
	if err != nil {
		return err
	}

	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		parsed = value
	}

	flat := Flatten(raw)
	flat[key] = parsed
	nested := Unflatten(flat)

	// Reject values that no longer decode into Config.
	data, err := json.MarshalIndent(nested, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := json.Unmarshal(data, &Config{}); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return writeAtomic(path, append(data, '\n'))
}

func readRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
