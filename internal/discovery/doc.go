// Package discovery advertises and finds form event bridges over mDNS.
//
// A bridge started with formctl serve --advertise registers itself as a
// "_formstate._tcp" service. Its TXT records carry the form name, the
// controller ID and the formctl version:
//
//	form=signup
//	id=2f0c9a4e-...
//	version=v0.3.0
//
// # Usage Example
//
//	stop, err := discovery.Advertise("signup on laptop", 8765,
//	    discovery.TXTRecords("signup", ctrl.ID(), version.Short()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stop()
//
//	sessions, err := discovery.NewScanner().Scan(ctx)
//	for _, s := range sessions {
//	    fmt.Println(s, s.EventsURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Bridges must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
