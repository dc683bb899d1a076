package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/formstate/internal/logging"
)

const (
	// ServiceType is the mDNS service type event bridges advertise
	ServiceType = "_formstate._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for session discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is assumed when an entry carries no port
	DefaultPort = 8765
)

// TXT record keys
const (
	TXTForm    = "form"
	TXTID      = "id"
	TXTVersion = "version"
)

// TXTRecords builds the TXT records describing a served form.
func TXTRecords(form, controllerID, version string) []string {
	return []string{
		TXTForm + "=" + form,
		TXTID + "=" + controllerID,
		TXTVersion + "=" + version,
	}
}

// Advertise registers an event bridge on the local network. Call the
// returned function to withdraw it.
func Advertise(instance string, port int, txt []string) (shutdown func(), err error) {
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising event bridge",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
		zap.Strings("txt", txt),
	)

	return func() {
		server.Shutdown()
		logging.Info("Stopped advertising event bridge", zap.String("instance", instance))
	}, nil
}

// Scanner handles mDNS session discovery
type Scanner struct {
	// Timeout is the maximum time to wait for sessions
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses for event bridges until the timeout or ctx expires and
// returns every session seen.
func (s *Scanner) Scan(ctx context.Context) ([]*Session, error) {
	var sessions []*Session
	err := s.browse(ctx, func(session *Session) bool {
		sessions = append(sessions, session)
		return true
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// WaitForForm returns the first session serving the named form.
func (s *Scanner) WaitForForm(ctx context.Context, form string) (*Session, error) {
	var found *Session
	err := s.browse(ctx, func(session *Session) bool {
		if session.Form != form {
			return true
		}
		found = session
		return false
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("no session serving form %q found within timeout", form)
	}
	return found, nil
}

// browse hands parsed sessions to visit until it returns false or the scan
// times out. visit runs on a single goroutine and browse returns only after
// it has stopped.
func (s *Scanner) browse(ctx context.Context, visit func(*Session) bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	go func() {
		defer close(done)
		seen := make(map[string]bool)
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				session := parseServiceEntry(entry)
				if session == nil || seen[session.Instance] {
					continue
				}
				seen[session.Instance] = true
				logging.Debug("Session discovered",
					zap.String("instance", session.Instance),
					zap.String("form", session.Form),
					zap.String("addr", session.hostPort()),
				)
				if !visit(session) {
					cancel()
					return
				}
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		cancel()
		<-done
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done
	return nil
}

// parseServiceEntry converts a zeroconf service entry to a Session.
// Returns nil if the entry has no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Session {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		if key == "" {
			continue
		}
		metadata[key] = value
	}

	return &Session{
		Instance:     unescapeInstance(entry.Instance),
		Host:         entry.HostName,
		IP:           ip,
		Port:         port,
		Form:         metadata[TXTForm],
		ControllerID: metadata[TXTID],
		Version:      metadata[TXTVersion],
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// unescapeInstance removes the DNS escaping zeroconf applies to spaces and
// dots in instance names.
func unescapeInstance(s string) string {
	return strings.NewReplacer(`\ `, " ", `\.`, ".").Replace(s)
}
