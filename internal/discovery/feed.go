package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Feed is a feed server found on the local network.
type Feed struct {
	// Instance is the mDNS instance name (e.g. "whoomp-feed")
	Instance string

	// Hostname is the advertising host (e.g. "studio.local.")
	Hostname string

	// IP prefers IPv4, falling back to the first IPv6 address
	IP string

	Port int

	// Text holds the parsed TXT record ("version", "ws", "api")
	Text map[string]string

	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the feed
func (f *Feed) String() string {
	return fmt.Sprintf("Feed %s (%s) at %s", f.Instance, f.Hostname, f.Addr())
}

// Addr returns host:port, bracketing IPv6 addresses.
func (f *Feed) Addr() string {
	return net.JoinHostPort(f.IP, strconv.Itoa(f.Port))
}

// BaseURL returns the HTTP base URL of the feed API
func (f *Feed) BaseURL() string {
	return "http://" + f.Addr()
}

// Version returns the advertised server version, if any.
func (f *Feed) Version() string {
	return f.TXT(TXTVersion)
}

// TXT retrieves a TXT value by key, or returns empty string if not found
func (f *Feed) TXT(key string) string {
	if f.Text == nil {
		return ""
	}
	return f.Text[key]
}
