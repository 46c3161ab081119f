package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/whoomp/whoomp/internal/capture"
	"github.com/whoomp/whoomp/internal/config"
	"github.com/whoomp/whoomp/internal/discovery"
	"github.com/whoomp/whoomp/internal/feed"
	"github.com/whoomp/whoomp/internal/logging"
	"github.com/whoomp/whoomp/internal/protocol"
	"github.com/whoomp/whoomp/internal/publish"
	"github.com/whoomp/whoomp/internal/ui"
)

// Live command flags
var (
	feedAddr    string
	discover    bool
	plainOutput bool
	scanTimeout time.Duration
	replayRate  float64
	loopReplay  bool
	mqttBroker  string
)

func init() {
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(feedsCmd)
	rootCmd.AddCommand(publishCmd)
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// watchCmd shows live heart rate
var watchCmd = &cobra.Command{
	Use:   "watch [capture]",
	Short: "Show live heart rate",
	Long: `Show heart rate as it arrives, from a whoomp-feed server or by replaying a
capture at the configured rate.

With --discover the feed is located over mDNS using the configured service
name, and remembered in the config file. On a terminal the full-screen
monitor is used; --plain (or a pipe) prints one line per frame instead.`,
	Example: `  # Replay a capture
  whoomp watch session.jsonl

  # Follow a feed server
  whoomp watch --feed 192.168.1.20:8080

  # Find the feed on the LAN
  whoomp watch --discover`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&feedAddr, "feed", "", "Feed server address (host:port or URL)")
	watchCmd.Flags().BoolVar(&discover, "discover", false, "Locate the feed server over mDNS")
	watchCmd.Flags().BoolVar(&plainOutput, "plain", false, "Print one line per frame instead of the monitor")
	watchCmd.Flags().Float64Var(&replayRate, "rate", 0, "Replay rate in frames per second (default: config feed.replay_rate)")
	watchCmd.Flags().BoolVar(&loopReplay, "loop", false, "Restart the capture when it ends")
	watchCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "mDNS discovery timeout")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	tf, err := timeFormatter()
	if err != nil {
		return err
	}

	var title string
	var start func(ctx context.Context, events chan<- ui.MonitorEvent) error

	switch {
	case len(args) == 1:
		records, err := capture.ReadFile(args[0])
		if err != nil {
			return err
		}
		title = "Replay " + args[0]
		start = func(ctx context.Context, events chan<- ui.MonitorEvent) error {
			return replayInto(ctx, records, events)
		}

	case feedAddr != "" || discover:
		addr := feedAddr
		if addr == "" {
			if addr, err = discoverFeed(ctx); err != nil {
				return err
			}
		}
		client, err := feed.Dial(ctx, addr)
		if err != nil {
			return err
		}
		defer client.Close()
		title = "Feed " + addr
		start = func(ctx context.Context, events chan<- ui.MonitorEvent) error {
			return client.Run(ctx, func(ev feed.Event) {
				events <- monitorEvent(ev)
			})
		}

	default:
		return errors.New("give a capture file, --feed or --discover")
	}

	events := make(chan ui.MonitorEvent, 16)
	runErr := make(chan error, 1)
	go func() {
		defer close(events)
		runErr <- start(ctx, events)
	}()

	if plainOutput || !ui.IsTerminal() {
		for ev := range events {
			if ev.Err != nil {
				fmt.Println(ui.RenderRejected(ev.Source, nil, ev.Err))
				continue
			}
			fmt.Println(ui.RenderFrameLine(ev.Source, ev.Frame, tf))
		}
	} else if err := ui.RunMonitor(title, events, tf); err != nil {
		return fmt.Errorf("monitor error: %w", err)
	}

	cancel()
	// The producer may be blocked sending to a monitor that has quit.
	go func() {
		for range events {
		}
	}()
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// replayInto paces records into events through a feed replayer.
func replayInto(ctx context.Context, records []capture.Record, events chan<- ui.MonitorEvent) error {
	rate := replayRate
	if rate == 0 {
		rate = settings.Feed.ReplayRate
	}
	r := feed.NewReplayer(rate, settings.Feed.ReplayBurst)
	r.Loop = loopReplay

	_, err := r.Replay(ctx, records, func(source string, raw []byte) {
		f, err := protocol.Parse(raw)
		select {
		case events <- ui.MonitorEvent{Source: source, Frame: f, Err: err}:
		case <-ctx.Done():
		}
	})
	return err
}

// monitorEvent converts a streamed event back into a frame.
func monitorEvent(ev feed.Event) ui.MonitorEvent {
	if ev.Kind == feed.EventRejected {
		return ui.MonitorEvent{Source: ev.Source, Err: errors.New(ev.Error)}
	}
	f, err := ev.Frame()
	return ui.MonitorEvent{Source: ev.Source, Frame: f, Err: err}
}

// discoverFeed finds the configured feed instance and remembers it.
func discoverFeed(ctx context.Context) (string, error) {
	instance := settings.Feed.ServiceName
	fmt.Fprintf(os.Stderr, "Looking for feed %q over mDNS (timeout: %s)...\n", instance, scanTimeout)

	scanner := discovery.NewScanner()
	scanner.Timeout = scanTimeout
	found, err := scanner.Find(ctx, instance)
	if err != nil {
		if known, ok := settings.Feeds[instance]; ok && known.LastAddr != "" {
			fmt.Fprintf(os.Stderr, "Not found, trying last known address %s\n", known.LastAddr)
			return known.LastAddr, nil
		}
		return "", err
	}

	rememberFeed(found)
	return found.Addr(), nil
}

// rememberFeed stores a discovered feed in the config file. Failures are
// logged only.
func rememberFeed(f *discovery.Feed) {
	settings.UpdateFeedLastSeen(f.Instance, f.Addr(), f.Version())
	if err := settings.Save(configPath); err != nil {
		logging.Warn("Failed to save discovered feed", zap.String("instance", f.Instance), zap.Error(err))
	}
}

// feedsCmd lists feed servers on the LAN
var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "Discover feed servers on the network",
	Long: `Browse mDNS for whoomp-feed servers (service _whoomp-feed._tcp) and list
them. Discovered feeds are remembered in the config file so 'watch --discover'
can fall back to the last known address.`,
	Example: `  whoomp feeds
  whoomp feeds --timeout 10s`,
	RunE: runFeeds,
}

func init() {
	feedsCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "Scan timeout")
}

func runFeeds(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	p := ui.NewPrinter(os.Stdout)
	p.PrintHeader("Feed discovery", "whoomp feeds",
		ui.Field{Key: "Service", Value: discovery.ServiceType + "." + discovery.ServiceDomain},
		ui.Field{Key: "Timeout", Value: scanTimeout.String()},
	)

	scanner := discovery.NewScanner()
	scanner.Timeout = scanTimeout
	feeds, err := scanner.Scan(ctx)
	if err != nil {
		p.PrintError("Scan failed", err, "mDNS needs multicast and UDP port 5353")
		return err
	}

	if len(feeds) == 0 {
		p.PrintWarning("No feeds found",
			ui.Field{Key: "Hint", Value: "start one with 'whoomp-feed serve' or try a longer --timeout"})
		return nil
	}

	details := make([]ui.Field, 0, len(feeds))
	for _, f := range feeds {
		value := f.Addr()
		if v := f.Version(); v != "" {
			value += "  " + v
		}
		details = append(details, ui.Field{Key: f.Instance, Value: value})
		settings.UpdateFeedLastSeen(f.Instance, f.Addr(), f.Version())
	}
	if err := settings.Save(configPath); err != nil {
		logging.Warn("Failed to save discovered feeds", zap.Error(err))
	}

	p.PrintSuccess(fmt.Sprintf("Found %d feed(s)", len(feeds)), details...)
	return nil
}

// publishCmd sends a capture's records to MQTT
var publishCmd = &cobra.Command{
	Use:   "publish <capture>",
	Short: "Publish decoded frames from a capture to MQTT",
	Long: `Decode a capture and publish each frame as JSON to the configured MQTT
broker, under {prefix}/heart_rate, {prefix}/metadata and {prefix}/frame.

The broker password is read from ` + config.MQTTPasswordEnvVar + `.`,
	Example: `  whoomp publish session.jsonl --broker tcp://localhost:1883
  ` + config.MQTTPasswordEnvVar + `=secret whoomp publish session.jsonl --rate 5`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&mqttBroker, "broker", "", "MQTT broker URL (default: config mqtt.broker)")
	publishCmd.Flags().Float64Var(&replayRate, "rate", -1, "Frames per second; negative publishes as fast as possible")
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	records, err := capture.ReadFile(args[0])
	if err != nil {
		return err
	}

	pub := newPublisher(settings.MQTT, mqttBroker)
	connectCtx, connectCancel := context.WithTimeout(ctx, 30*time.Second)
	defer connectCancel()
	if err := pub.Connect(connectCtx); err != nil {
		return err
	}
	defer pub.Close()

	var publishErr error
	dispatcher := &protocol.Dispatcher{
		OnFrame: func(source string, f *protocol.Frame) {
			if err := pub.Publish(feed.NewFrameEvent(source, f)); err != nil && publishErr == nil {
				publishErr = err
			}
		},
		OnError: func(source string, raw []byte, err error) {
			if err := pub.Publish(feed.NewRejectedEvent(source, raw, err)); err != nil && publishErr == nil {
				publishErr = err
			}
		},
	}

	r := feed.NewReplayer(replayRate, 1)
	sent, err := r.Replay(ctx, records, func(source string, raw []byte) {
		_, _ = dispatcher.Dispatch(source, raw)
	})
	if err != nil {
		return err
	}

	p := ui.NewPrinter(os.Stdout)
	if publishErr != nil {
		p.PrintError("Publish incomplete", publishErr, "Check the broker is reachable and accepts the client")
		return publishErr
	}
	p.PrintSuccess("Published",
		ui.Field{Key: "Frames", Value: strconv.Itoa(sent)},
		ui.Field{Key: "Acknowledged", Value: strconv.FormatInt(pub.Published(), 10)},
		ui.Field{Key: "Topic", Value: publish.Topic(settings.MQTT.TopicPrefix, feed.EventHeartRate)},
	)
	return nil
}

// newPublisher builds an MQTT publisher from config, with an optional
// broker override.
func newPublisher(cfg *config.MQTTConfig, broker string) *publish.Publisher {
	if broker == "" {
		broker = cfg.Broker
	}
	return publish.New(publish.Config{
		Broker:      broker,
		ClientID:    cfg.ClientID,
		Username:    cfg.Username,
		Password:    settings.MQTTPassword(),
		TopicPrefix: cfg.TopicPrefix,
		QoS:         cfg.QoS,
	})
}
