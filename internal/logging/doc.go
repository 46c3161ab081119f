// Package logging provides structured logging for the whoomp tools.
//
// This package wraps zap with a package-level logger and convenience
// functions. Commands stay silent unless a level is given on the command
// line, in the config file, or through WHOOMP_LOG_LEVEL.
//
// # Log Levels
//
//   - Debug: hex dumps, rejected frames, undecoded packet types
//   - Info: decoded records, feed clients, broker connections
//   - Warn: dropped subscribers, publish retries
//   - Error: startup failures
//
// # File Output
//
// InitializeWithOptions can add a rotating JSON log file (lumberjack)
// alongside the console output:
//
//	err := logging.InitializeWithOptions(logging.Options{
//	    Level:      "info",
//	    File:       "/var/log/whoomp/feed.log",
//	    MaxSizeMB:  10,
//	    MaxBackups: 3,
//	})
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialize should be
// called once at startup before other goroutines log.
package logging
