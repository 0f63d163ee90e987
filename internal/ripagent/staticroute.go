package ripagent

import (
	"fmt"
	"net"

	"ripd/internal/rib"
)

var defaultRouteNet = net.IPNet{IP: net.IPv4zero, Mask: net.CIDRMask(0, 32)}

// InstallDefaultRoute injects a statically-configured 0.0.0.0/0 route
// (§6 Configuration surface, supplemented from ns-3's default-route
// injection helper — DESIGN.md). Static entries never age out on their
// own; only re-running this, RemoveDefaultRoute, or the outgoing
// interface going down clears them.
func (a *Agent) InstallDefaultRoute(nexthop net.IP, ifname string) error {
	ifaces, err := a.hw.Interfaces()
	if err != nil {
		return fmt.Errorf("ripagent.InstallDefaultRoute: %w", err)
	}
	ifindex := -1
	for _, ifi := range ifaces {
		if ifi.Name == ifname {
			ifindex = ifi.Index
			break
		}
	}
	if ifindex < 0 {
		return fmt.Errorf("ripagent.InstallDefaultRoute: unknown interface %q", ifname)
	}

	e := &rib.Entry{
		Net: defaultRouteNet, NextHop: nexthop, IfIndex: ifindex, IfName: ifname,
		Metric: 1, Status: rib.Valid, Changed: true, Origin: rib.OriginStatic,
	}
	if _, ok := a.rib.LookupExact(defaultRouteNet); ok {
		a.rib.Replace(e)
	} else {
		a.rib.Install(e)
	}
	return nil
}

// RemoveDefaultRoute withdraws a previously-injected static default route,
// if one is installed.
func (a *Agent) RemoveDefaultRoute() {
	if e, ok := a.rib.LookupExact(defaultRouteNet); ok && e.Origin == rib.OriginStatic {
		a.rib.Invalidate(e)
	}
}
