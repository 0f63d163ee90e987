package ripagent

import (
	"fmt"
	"net"

	"ripd/internal/fwd"
)

// Route is what the datapath gets back from RouteOutput/RouteInput: enough
// to forward a packet without reaching into the RIB directly.
type Route struct {
	Dest    net.IPNet
	Gateway net.IP
	IfName  string
	IfIndex int
	Metric  int
	Source  net.IP
}

// InputAction tells RouteInput's caller what to do with the packet.
type InputAction int

const (
	// LocalDeliver means the destination is one of our own addresses.
	LocalDeliver InputAction = iota
	// UnicastForward means Route names where to send the packet next.
	UnicastForward
	// NoRouteToHost means the input interface has forwarding disabled.
	NoRouteToHost
	// NotHandled means the caller should apply its own fallback (e.g. a
	// multicast destination, or an LPM miss).
	NotHandled
)

// RouteOutput implements §4.2's Lookup: link-local multicast destinations
// are synthesized as a direct route out preferredIface; everything else
// goes through longest-prefix-match.
func (a *Agent) RouteOutput(dst net.IP, preferredIface string) (*Route, error) {
	if dst.IsLinkLocalMulticast() {
		if preferredIface == "" {
			return nil, fmt.Errorf("ripagent.RouteOutput: preferred interface required for multicast destination %v", dst)
		}
		addrs, err := a.hw.Addresses(preferredIface)
		if err != nil {
			return nil, fmt.Errorf("ripagent.RouteOutput: addresses(%s): %w", preferredIface, err)
		}
		src, ok := fwd.SelectGlobalAddress(addrs)
		if !ok {
			return nil, fmt.Errorf("ripagent.RouteOutput: no GLOBAL address on %s", preferredIface)
		}
		return &Route{
			Dest:    net.IPNet{IP: dst, Mask: net.CIDRMask(32, 32)},
			Gateway: net.IPv4zero,
			IfName:  preferredIface,
			Source:  src,
		}, nil
	}

	e, ok := a.rib.LookupLPM(dst, preferredIface)
	if !ok {
		return nil, &ErrNoRoute{Dest: dst.String()}
	}

	addrs, err := a.hw.Addresses(e.IfName)
	if err != nil {
		return nil, fmt.Errorf("ripagent.RouteOutput: addresses(%s): %w", e.IfName, err)
	}

	var target net.IP
	switch {
	case e.NextHop.Equal(net.IPv4zero): // directly connected
		target = e.Net.IP
	case isDefaultRoute(e.Net):
		target = dst
	}

	src, ok := selectSource(addrs, target)
	if !ok {
		return nil, fmt.Errorf("ripagent.RouteOutput: no GLOBAL address on %s", e.IfName)
	}

	return &Route{
		Dest: e.Net, Gateway: e.NextHop, IfName: e.IfName, IfIndex: e.IfIndex,
		Metric: e.Metric, Source: src,
	}, nil
}

// selectSource prefers a GLOBAL address on the same subnet as target (when
// target is set), falling back to any GLOBAL address.
func selectSource(addrs []net.IPNet, target net.IP) (net.IP, bool) {
	if target != nil {
		for _, a := range addrs {
			if fwd.IsGlobal(a.IP) && a.Contains(target) {
				return a.IP, true
			}
		}
	}
	return fwd.SelectGlobalAddress(addrs)
}

// RouteInput implements §6's datapath decision: local delivery, forwarding
// disabled, unicast forward via LPM, or hand back to the caller for
// multicast/miss handling.
func (a *Agent) RouteInput(dst net.IP, inputIface string, forwardingEnabled bool) (InputAction, *Route, error) {
	if dst.IsMulticast() {
		return NotHandled, nil, nil
	}
	if a.isLocalAddress(dst) {
		return LocalDeliver, nil, nil
	}
	if !forwardingEnabled {
		return NoRouteToHost, nil, fmt.Errorf("ripagent.RouteInput: forwarding disabled on %s", inputIface)
	}
	route, err := a.RouteOutput(dst, "")
	if err != nil {
		return NotHandled, nil, nil
	}
	return UnicastForward, route, nil
}
