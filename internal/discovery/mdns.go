package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/whoomp/whoomp/internal/logging"
)

const (
	// ServiceType is the mDNS service type feed servers advertise
	ServiceType = "_whoomp-feed._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for feed discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is assumed when an entry carries no port
	DefaultPort = 8080
)

// TXT record keys
const (
	TXTVersion   = "version"
	TXTWebSocket = "ws"
	TXTAPI       = "api"
)

// Scanner browses for feed servers
type Scanner struct {
	// Timeout is the maximum time to wait for discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// Scan collects every feed that answers before the timeout or ctx ends.
func (s *Scanner) Scan(ctx context.Context) ([]*Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var (
		mu    sync.Mutex
		feeds []*Feed
		seen  = make(map[string]bool)
	)
	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			feed := parseServiceEntry(entry)
			if feed == nil {
				continue
			}
			mu.Lock()
			if !seen[feed.Instance] {
				seen[feed.Instance] = true
				feeds = append(feeds, feed)
				logging.Debug("Discovered feed", zap.String("instance", feed.Instance), zap.String("addr", feed.Addr()))
			}
			mu.Unlock()
		}
	}()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// The resolver closes entries once it stops; don't wait on it forever.
	select {
	case <-done:
	case <-time.After(time.Second):
	}

	mu.Lock()
	defer mu.Unlock()
	return append([]*Feed(nil), feeds...), nil
}

// Find waits for the feed with the given instance name.
func (s *Scanner) Find(ctx context.Context, instance string) (*Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Feed, 1)

	go func() {
		for entry := range entries {
			feed := parseServiceEntry(entry)
			if feed != nil && feed.Instance == instance {
				select {
				case found <- feed:
				default:
				}
				cancel()
			}
		}
	}()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case feed := <-found:
		return feed, nil
	case <-ctx.Done():
		select {
		case feed := <-found:
			return feed, nil
		default:
		}
		return nil, fmt.Errorf("feed %q not found within %s", instance, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf entry to a Feed, or nil when the
// entry has no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Feed {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Feed{
		Instance:     unescapeInstance(entry.Instance),
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Text:         parseTXT(entry.Text),
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" records. A key without value maps to "".
func parseTXT(records []string) map[string]string {
	text := make(map[string]string, len(records))
	for _, txt := range records {
		key, value, _ := strings.Cut(txt, "=")
		if key != "" {
			text[key] = value
		}
	}
	return text
}

// unescapeInstance undoes DNS-SD escaping of spaces and dots.
func unescapeInstance(name string) string {
	return strings.NewReplacer(`\ `, " ", `\.`, ".").Replace(name)
}

// Advertisement is a running mDNS registration.
type Advertisement struct {
	server   *zeroconf.Server
	instance string
}

// TXTRecords returns the TXT record a feed server advertises.
func TXTRecords(version string) []string {
	return []string{
		TXTVersion + "=" + version,
		TXTWebSocket + "=/ws",
		TXTAPI + "=/v1",
	}
}

// Advertise announces a feed server on port until Shutdown is called.
func Advertise(instance string, port int, txt []string) (*Advertisement, error) {
	if instance == "" {
		return nil, fmt.Errorf("mDNS instance name is required")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising feed over mDNS",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return &Advertisement{server: server, instance: instance}, nil
}

// Shutdown withdraws the advertisement.
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	logging.Debug("mDNS advertisement withdrawn", zap.String("instance", a.instance))
}
