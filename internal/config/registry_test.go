package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "whoomp") {
		t.Errorf("GetConfigDir() = %v, should contain 'whoomp'", configDir)
	}

	if runtime.GOOS == "linux" && os.Getenv("XDG_CONFIG_HOME") == "" {
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDirXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if configDir != filepath.Join("/tmp/xdg", "whoomp") {
		t.Errorf("GetConfigDir() = %v, want /tmp/xdg/whoomp", configDir)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %v, want 1", cfg.Version)
	}
	if cfg.Display.Timezone != "America/New_York" {
		t.Errorf("Display.Timezone = %q, want America/New_York", cfg.Display.Timezone)
	}
	if cfg.Display.TimeFormat != "2006-01-02 03:04:05 PM" {
		t.Errorf("Display.TimeFormat = %q", cfg.Display.TimeFormat)
	}
	if cfg.Feed.Listen != ":8080" {
		t.Errorf("Feed.Listen = %q, want :8080", cfg.Feed.Listen)
	}
	if !cfg.Feed.Advertise {
		t.Error("Feed.Advertise should be true by default")
	}
	if cfg.MQTT.TopicPrefix != "whoomp" {
		t.Errorf("MQTT.TopicPrefix = %q, want whoomp", cfg.MQTT.TopicPrefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Feed.ReplayRate != 20 {
		t.Errorf("Feed.ReplayRate = %v, want 20", cfg.Feed.ReplayRate)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
		verify  func(t *testing.T, cfg *Config)
	}{
		{
			name: "partial file keeps defaults",
			doc:  "version: 1\nlogging:\n  level: debug\nfeed:\n  listen: 127.0.0.1:9000\n",
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
				}
				if cfg.Feed.Listen != "127.0.0.1:9000" {
					t.Errorf("Feed.Listen = %q", cfg.Feed.Listen)
				}
				if cfg.Feed.MaxFrames != 10000 {
					t.Errorf("Feed.MaxFrames = %d, want 10000", cfg.Feed.MaxFrames)
				}
				if cfg.Display.Timezone != "America/New_York" {
					t.Errorf("Display.Timezone = %q", cfg.Display.Timezone)
				}
			},
		},
		{
			name: "empty document",
			doc:  "",
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Version != 1 {
					t.Errorf("Version = %d, want 1", cfg.Version)
				}
			},
		},
		{
			name:    "unsupported version",
			doc:     "version: 2\n",
			wantErr: true,
		},
		{
			name:    "bad timezone",
			doc:     "display:\n  timezone: Mars/Olympus_Mons\n",
			wantErr: true,
		},
		{
			name:    "bad qos",
			doc:     "mqtt:\n  qos: 3\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			doc:     "feed: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.verify != nil {
				tt.verify(t, cfg)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := NewConfig()
	cfg.Logging.Level = "warn"
	cfg.MQTT.Broker = "tcp://broker:1883"
	cfg.MQTT.Username = "strap"
	cfg.UpdateFeedLastSeen("kitchen", "192.168.1.20:8080", "v1.0.0")

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if !strings.HasPrefix(string(data), "# whoomp configuration file") {
		t.Error("saved file should start with header comment")
	}
	if strings.Contains(strings.ToLower(string(data)), "password:") {
		t.Error("saved file must not contain a password field")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", loaded.Logging.Level)
	}
	if loaded.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("MQTT.Broker = %q", loaded.MQTT.Broker)
	}
	feed := loaded.Feeds["kitchen"]
	if feed == nil || feed.LastAddr != "192.168.1.20:8080" || feed.Version != "v1.0.0" {
		t.Errorf("Feeds[kitchen] = %+v", feed)
	}
}

func TestEnsureFeed(t *testing.T) {
	cfg := &Config{}
	a := cfg.EnsureFeed("a")
	if a == nil {
		t.Fatal("EnsureFeed() returned nil")
	}
	if cfg.EnsureFeed("a") != a {
		t.Error("EnsureFeed() should return same instance for same name")
	}
	if cfg.EnsureFeed("b") == a {
		t.Error("EnsureFeed() should create new instance for different name")
	}
}

func TestMQTTPassword(t *testing.T) {
	t.Setenv(MQTTPasswordEnvVar, "s3cret")
	if got := NewConfig().MQTTPassword(); got != "s3cret" {
		t.Errorf("MQTTPassword() = %q, want s3cret", got)
	}
}
