package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // display zones must resolve on hosts without zoneinfo
)

// CurrentVersion is the config file format version.
const CurrentVersion = 1

// MQTTPasswordEnvVar supplies the broker password. It is never written to
// the config file.
const MQTTPasswordEnvVar = "WHOOMP_MQTT_PASSWORD"

// Config represents the entire user configuration file.
type Config struct {
	Version int                   `yaml:"version"`
	Logging *LoggingConfig        `yaml:"logging,omitempty"`
	Display *DisplayConfig        `yaml:"display,omitempty"`
	Feed    *FeedConfig           `yaml:"feed,omitempty"`
	MQTT    *MQTTConfig           `yaml:"mqtt,omitempty"`
	Feeds   map[string]*KnownFeed `yaml:"feeds,omitempty"` // Keyed by mDNS instance name
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`                  // debug, info, warn, error; empty is silent
	File       string `yaml:"file,omitempty"`         // Rotating log file, disabled when empty
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`  // Rotate after this many megabytes
	MaxBackups int    `yaml:"max_backups,omitempty"`  // Rotated files to keep
	MaxAgeDays int    `yaml:"max_age_days,omitempty"` // Days to keep rotated files
	Compress   bool   `yaml:"compress,omitempty"`     // gzip rotated files
}

// DisplayConfig controls how records are rendered in the terminal.
type DisplayConfig struct {
	Timezone   string `yaml:"timezone"`    // IANA zone for timestamps
	TimeFormat string `yaml:"time_format"` // Go reference-time layout
}

// FeedConfig configures the live feed server.
type FeedConfig struct {
	Listen      string  `yaml:"listen"`       // HTTP listen address
	ReplayRate  float64 `yaml:"replay_rate"`  // Frames per second when replaying a capture
	ReplayBurst int     `yaml:"replay_burst"` // Burst allowance for replay pacing
	MaxFrames   int     `yaml:"max_frames"`   // Frames retained for /v1/series and /v1/commands
	Advertise   bool    `yaml:"advertise"`    // Announce the feed over mDNS
	ServiceName string  `yaml:"service_name"` // mDNS instance name
}

// MQTTConfig configures the optional MQTT publisher.
type MQTTConfig struct {
	Broker      string `yaml:"broker,omitempty"` // e.g. tcp://localhost:1883, empty disables
	ClientID    string `yaml:"client_id,omitempty"`
	TopicPrefix string `yaml:"topic_prefix"`
	Username    string `yaml:"username,omitempty"`
	// Password is NEVER stored in config file, see MQTTPasswordEnvVar
	QoS byte `yaml:"qos"`
}

// KnownFeed remembers a feed server seen through discovery.
type KnownFeed struct {
	LastAddr string    `yaml:"last_addr,omitempty"`
	LastSeen time.Time `yaml:"last_seen,omitempty"`
	Version  string    `yaml:"version,omitempty"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	c := &Config{Version: CurrentVersion}
	c.applyDefaults()
	return c
}

// applyDefaults fills sections missing from a loaded file.
func (c *Config) applyDefaults() {
	if c.Logging == nil {
		c.Logging = &LoggingConfig{MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28}
	}
	if c.Display == nil {
		c.Display = &DisplayConfig{}
	}
	if c.Display.Timezone == "" {
		c.Display.Timezone = "America/New_York"
	}
	if c.Display.TimeFormat == "" {
		c.Display.TimeFormat = "2006-01-02 03:04:05 PM"
	}
	if c.Feed == nil {
		c.Feed = &FeedConfig{Advertise: true}
	}
	if c.Feed.Listen == "" {
		c.Feed.Listen = ":8080"
	}
	if c.Feed.ReplayRate == 0 {
		c.Feed.ReplayRate = 20
	}
	if c.Feed.ReplayBurst == 0 {
		c.Feed.ReplayBurst = 1
	}
	if c.Feed.MaxFrames == 0 {
		c.Feed.MaxFrames = 10000
	}
	if c.Feed.ServiceName == "" {
		c.Feed.ServiceName = "whoomp-feed"
	}
	if c.MQTT == nil {
		c.MQTT = &MQTTConfig{}
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "whoomp"
	}
	if c.Feeds == nil {
		c.Feeds = make(map[string]*KnownFeed)
	}
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Display.Timezone); err != nil {
		return fmt.Errorf("display.timezone: %w", err)
	}
	if c.Feed.ReplayRate < 0 {
		return fmt.Errorf("feed.replay_rate must not be negative, got %v", c.Feed.ReplayRate)
	}
	if c.Feed.MaxFrames < 0 {
		return fmt.Errorf("feed.max_frames must not be negative, got %d", c.Feed.MaxFrames)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	return nil
}

// MQTTPassword returns the broker password from the environment.
func (c *Config) MQTTPassword() string {
	return os.Getenv(MQTTPasswordEnvVar)
}

// EnsureFeed ensures a feed entry exists and returns it.
func (c *Config) EnsureFeed(name string) *KnownFeed {
	if c.Feeds == nil {
		c.Feeds = make(map[string]*KnownFeed)
	}
	if feed, exists := c.Feeds[name]; exists {
		return feed
	}
	feed := &KnownFeed{}
	c.Feeds[name] = feed
	return feed
}

// UpdateFeedLastSeen records the address and time a feed was discovered.
func (c *Config) UpdateFeedLastSeen(name, addr, version string) {
	feed := c.EnsureFeed(name)
	feed.LastAddr = addr
	feed.LastSeen = time.Now()
	if version != "" {
		feed.Version = version
	}
}
