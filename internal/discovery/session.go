package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Session is an event bridge discovered on the network.
type Session struct {
	// Instance is the advertised instance name (e.g., "signup on laptop")
	Instance string

	// Host is the mDNS hostname (e.g., "laptop.local.")
	Host string

	// IP is the preferred address, IPv4 when available
	IP string

	// Port is the bridge's HTTP port
	Port int

	// Form is the name of the form being served
	Form string

	// ControllerID identifies the controller behind the bridge
	ControllerID string

	// Version is the formctl version of the serving process
	Version string

	// Metadata holds every TXT record, including the ones above
	Metadata map[string]string

	// DiscoveredAt is when the session was seen
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the session
func (s *Session) String() string {
	return fmt.Sprintf("Form %q (%s) at %s", s.Form, s.Instance, s.hostPort())
}

// EventsURL returns the websocket URL clients connect to
func (s *Session) EventsURL() string {
	return fmt.Sprintf("ws://%s/events", s.hostPort())
}

// StateURL returns the URL of the snapshot endpoint
func (s *Session) StateURL() string {
	return fmt.Sprintf("http://%s/state", s.hostPort())
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Session) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}

func (s *Session) hostPort() string {
	return net.JoinHostPort(s.IP, strconv.Itoa(s.Port))
}
