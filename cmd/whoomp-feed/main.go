// Whoomp-feed is an HTTP and WebSocket server for WHOOP strap frames.
//
// Frames arrive over POST /v1/frames (from a BLE bridge) or are replayed from
// a capture file. Each frame is decoded, kept for the aggregate endpoints and
// streamed to WebSocket subscribers. The server can announce itself over
// mDNS and mirror decoded frames to an MQTT broker.
//
// Usage:
//
//	whoomp-feed serve [flags]
//
// See 'whoomp-feed serve --help' for available options.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/whoomp/whoomp/internal/capture"
	"github.com/whoomp/whoomp/internal/config"
	"github.com/whoomp/whoomp/internal/discovery"
	"github.com/whoomp/whoomp/internal/feed"
	"github.com/whoomp/whoomp/internal/logging"
	"github.com/whoomp/whoomp/internal/publish"
	"github.com/whoomp/whoomp/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "whoomp-feed",
	Short: "WHOOP strap frame feed server",
	Long: `A standalone server that decodes WHOOP strap frames and streams them to
clients over WebSocket.

Use 'whoomp watch --feed <addr>' or 'whoomp watch --discover' to follow it.`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	configPath string
	logLevel   string
	listenAddr string
	replayFile string
	replayRate float64
	loopReplay bool
	advertise  bool
	instance   string
	mqttBroker string
	captureDir string
	maxFrames  int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the feed server",
	Long: `Start the feed server.

Endpoints:
  GET  /healthz       status and counters
  GET  /metrics       Prometheus metrics
  POST /v1/frames     submit {"hex": "...", "source": "..."}
  GET  /v1/series     heart rate samples seen so far
  GET  /v1/commands   distinct (type, command) pairs seen so far
  GET  /ws            live event stream

Flags override the feed and mqtt sections of the config file. The MQTT
password is read from ` + config.MQTTPasswordEnvVar + `.`,
	Example: `  # Serve on the configured address
  whoomp-feed serve

  # Replay a capture in a loop and announce the server on the LAN
  whoomp-feed serve --replay session.jsonl --loop --advertise

  # Record everything submitted and mirror it to MQTT
  whoomp-feed serve --capture-dir ./captures --mqtt tcp://localhost:1883`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Config file (default: OS config dir)/whoomp/config.yaml")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default: config feed.listen)")
	serveCmd.Flags().StringVar(&replayFile, "replay", "", "Capture file to replay into the feed")
	serveCmd.Flags().Float64Var(&replayRate, "rate", 0, "Replay rate in frames per second (default: config feed.replay_rate)")
	serveCmd.Flags().BoolVar(&loopReplay, "loop", false, "Restart the replay when the capture ends")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the server over mDNS")
	serveCmd.Flags().StringVar(&instance, "name", "", "mDNS instance name (default: config feed.service_name)")
	serveCmd.Flags().StringVar(&mqttBroker, "mqtt", "", "MQTT broker URL (default: config mqtt.broker)")
	serveCmd.Flags().StringVar(&captureDir, "capture-dir", "", "Record every ingested frame as JSON Lines in this directory")
	serveCmd.Flags().IntVar(&maxFrames, "max-frames", 0, "Frames retained for aggregates (default: config feed.max_frames)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	level := logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	if level == "" {
		level = "info"
	}
	if err := logging.InitializeWithOptions(logging.Options{
		Level:      level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}); err != nil {
		return err
	}
	defer logging.Sync()

	var records []capture.Record
	if replayFile != "" {
		if records, err = capture.ReadFile(replayFile); err != nil {
			return err
		}
	}

	srv, err := feed.New(feed.Options{
		Listen:     cfg.Feed.Listen,
		MaxFrames:  cfg.Feed.MaxFrames,
		CaptureDir: captureDir,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr, err := srv.Listen()
	if err != nil {
		return err
	}

	if cfg.MQTT.Broker != "" {
		pub := publish.New(publish.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTTPassword(),
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         cfg.MQTT.QoS,
		})
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := pub.Connect(connectCtx)
		cancel()
		if err != nil {
			return err
		}
		defer pub.Close()
		srv.OnEvent(pub.Listener())
	}

	if cfg.Feed.Advertise {
		port := discovery.DefaultPort
		if tcp, ok := addr.(*net.TCPAddr); ok {
			port = tcp.Port
		}
		ad, err := discovery.Advertise(cfg.Feed.ServiceName, port, discovery.TXTRecords(version.Version))
		if err != nil {
			// The feed still works without mDNS
			logging.Warn("Failed to advertise feed", zap.Error(err))
		} else {
			defer ad.Shutdown()
		}
	}

	if len(records) > 0 {
		r := feed.NewReplayer(cfg.Feed.ReplayRate, cfg.Feed.ReplayBurst)
		r.Loop = loopReplay
		go func() {
			n, err := r.Replay(ctx, records, func(source string, raw []byte) {
				srv.Ingest(source, raw)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logging.Warn("Replay ended early", zap.Int("frames", n), zap.Error(err))
				return
			}
			logging.Info("Replay finished", zap.String("file", replayFile), zap.Int("frames", n))
		}()
	}

	fmt.Fprintf(os.Stderr, "whoomp-feed %s listening on %s\n", version.Version, addr)
	return srv.Serve(ctx)
}

// applyFlags overrides config values with flags the user set.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Feed.Listen = listenAddr
	}
	if flags.Changed("rate") {
		cfg.Feed.ReplayRate = replayRate
	}
	if flags.Changed("advertise") {
		cfg.Feed.Advertise = advertise
	}
	if flags.Changed("name") {
		cfg.Feed.ServiceName = instance
	}
	if flags.Changed("mqtt") {
		cfg.MQTT.Broker = mqttBroker
	}
	if flags.Changed("max-frames") {
		cfg.Feed.MaxFrames = maxFrames
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Printf("whoomp-feed %s (commit: %s, %s)\n", info.Version, info.Commit, info.GoVersion)
	},
}
