package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	DefaultPath    = "config/agent.yaml"
	DefaultBaseURL = "https://grow.linn.games"

	// Values shipped in the sample config; a device must replace both.
	PlaceholderDeviceID = "your-device-id-here"
	PlaceholderToken    = "your-agent-token-here"

	SerialSimulate = "simulate"
	SerialHardware = "hardware"
)

var ErrPlaceholderCredentials = errors.New("device credentials are not configured")

type SerialConfig struct {
	Mode        string
	Port        string
	Baud        int
	ReadTimeout time.Duration
	OpenDelay   time.Duration
}

type AppConfig struct {
	BaseURL               string
	DeviceID              string
	DeviceToken           string
	HTTPTimeout           time.Duration
	LogPath               string
	LogLevel              string
	StrictExecutingReport bool
	PollInterval          time.Duration
	Heartbeat             bool
	JournalPath           string
	Serial                SerialConfig
}

// Loader wraps a viper instance bound to one config file.
type Loader struct {
	v    *viper.Viper
	path string
}

func NewLoader(path string) *Loader {
	if path == "" {
		path = DefaultPath
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("GROWDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// defaults
	v.SetDefault("agent.backend.base_url", DefaultBaseURL)
	v.SetDefault("agent.device_id", "")
	v.SetDefault("agent.device_token", "")
	v.SetDefault("agent.http_timeout", 30*time.Second)
	v.SetDefault("agent.log_path", "")
	v.SetDefault("agent.log_level", "info")
	v.SetDefault("agent.strict_executing_report", false)
	v.SetDefault("agent.poll_interval", 5*time.Second)
	v.SetDefault("agent.heartbeat", false)
	v.SetDefault("agent.journal_path", "")
	v.SetDefault("agent.serial.mode", SerialSimulate)
	v.SetDefault("agent.serial.port", "/dev/ttyUSB0")
	v.SetDefault("agent.serial.baud", 115200)
	v.SetDefault("agent.serial.read_timeout", 2*time.Second)
	v.SetDefault("agent.serial.open_delay", 2*time.Second)

	return &Loader{v: v, path: path}
}

func (l *Loader) Path() string { return l.path }

// Load reads the file (a missing file leaves defaults and environment in effect).
func (l *Loader) Load() (AppConfig, error) {
	if err := l.v.ReadInConfig(); err != nil && !isNotFound(err) {
		return AppConfig{}, fmt.Errorf("read config %s: %w", l.path, err)
	}
	return l.snapshot(), nil
}

func (l *Loader) snapshot() AppConfig {
	v := l.v
	return AppConfig{
		BaseURL:               strings.TrimRight(v.GetString("agent.backend.base_url"), "/"),
		DeviceID:              strings.TrimSpace(v.GetString("agent.device_id")),
		DeviceToken:           strings.TrimSpace(v.GetString("agent.device_token")),
		HTTPTimeout:           v.GetDuration("agent.http_timeout"),
		LogPath:               v.GetString("agent.log_path"),
		LogLevel:              v.GetString("agent.log_level"),
		StrictExecutingReport: v.GetBool("agent.strict_executing_report"),
		PollInterval:          v.GetDuration("agent.poll_interval"),
		Heartbeat:             v.GetBool("agent.heartbeat"),
		JournalPath:           v.GetString("agent.journal_path"),
		Serial: SerialConfig{
			Mode:        strings.ToLower(v.GetString("agent.serial.mode")),
			Port:        v.GetString("agent.serial.port"),
			Baud:        v.GetInt("agent.serial.baud"),
			ReadTimeout: v.GetDuration("agent.serial.read_timeout"),
			OpenDelay:   v.GetDuration("agent.serial.open_delay"),
		},
	}
}

// Watch re-reads the file whenever it changes and hands the new values to fn.
func (l *Loader) Watch(fn func(AppConfig)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		fn(l.snapshot())
	})
	l.v.WatchConfig()
}

// Validate rejects configurations the agent cannot run with.
func (c AppConfig) Validate() error {
	if c.DeviceID == "" || c.DeviceToken == "" ||
		c.DeviceID == PlaceholderDeviceID || c.DeviceToken == PlaceholderToken {
		return ErrPlaceholderCredentials
	}
	if c.BaseURL == "" {
		return errors.New("agent.backend.base_url is empty")
	}
	switch c.Serial.Mode {
	case SerialSimulate:
	case SerialHardware:
		if c.Serial.Port == "" {
			return errors.New("agent.serial.port is required in hardware mode")
		}
		if c.Serial.Baud <= 0 {
			return fmt.Errorf("invalid agent.serial.baud %d", c.Serial.Baud)
		}
	default:
		return fmt.Errorf("unknown agent.serial.mode %q", c.Serial.Mode)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid agent.poll_interval %s", c.PollInterval)
	}
	return nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}
