// Package config provides user configuration management for whoomp.
//
// This package manages a YAML configuration file holding logging, display,
// feed server and MQTT settings, plus feed servers remembered from mDNS
// discovery. The file follows OS-specific conventions for storage location.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/whoomp/config.yaml or $HOME/.config/whoomp/config.yaml
//   - macOS: $HOME/.config/whoomp/config.yaml
//   - Windows: %LOCALAPPDATA%\whoomp\config.yaml
//
// Every command also accepts --config to point at another file.
//
// # Example File
//
//	version: 1
//	logging:
//	  level: info
//	  file: /var/log/whoomp/feed.log
//	display:
//	  timezone: America/New_York
//	  time_format: "2006-01-02 03:04:05 PM"
//	feed:
//	  listen: ":8080"
//	  replay_rate: 20
//	  advertise: true
//	mqtt:
//	  broker: tcp://localhost:1883
//	  topic_prefix: whoomp
//
// # Security
//
// The MQTT password is NEVER stored. It is read from WHOOMP_MQTT_PASSWORD.
//
// # Thread Safety
//
// Save is serialized by a package mutex and writes through a temporary file
// and rename.
package config
