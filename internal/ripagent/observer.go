package ripagent

import (
	"log"
	"net"
	"time"

	"ripd/internal/addrutil"
	"ripd/internal/fwd"
	"ripd/internal/rib"
)

func (a *Agent) handleInterfaceEvent(ev fwd.Event) {
	switch ev.Kind {
	case fwd.LinkUp:
		a.onLinkUp(ev.IfName, ev.IfIndex)
	case fwd.LinkDown:
		a.onLinkDown(ev.IfName)
	case fwd.AddrAdd:
		a.onAddrAdd(ev.IfName, ev.IfIndex, ev.Addr)
	case fwd.AddrDel:
		a.onAddrDel(ev.IfName, ev.Addr)
	}
}

// onLinkUp installs a directly-connected route for every address already on
// ifname, and — if the interface isn't excluded — opens its send socket and
// schedules the startup route request (§4.4, §4.7).
func (a *Agent) onLinkUp(ifname string, ifindex int) {
	if err := a.ensureJoined(ifname, ifindex); err != nil {
		log.Printf("Agent.onLinkUp: %v", err)
		return
	}

	addrs, err := a.hw.Addresses(ifname)
	if err != nil {
		log.Printf("Agent.onLinkUp: addresses(%s): %v", ifname, err)
	}
	for _, addr := range addrs {
		a.installDirect(ifname, ifindex, addr)
	}

	if a.cfg.IsExcluded(ifname) {
		return
	}
	if err := a.ensureSendSocket(ifname); err != nil {
		log.Printf("Agent.onLinkUp: %v", err)
		return
	}
	d := a.randRange(10*time.Millisecond, a.cfg.Periods.StartupMax)
	time.AfterFunc(d, func() {
		select {
		case a.startupReq <- ifname:
		case <-a.done:
		}
	})
}

// onLinkDown invalidates every route learned via ifname and closes its send
// socket (§4.7).
func (a *Agent) onLinkDown(ifname string) {
	a.closeSendSocket(ifname)
	for _, e := range a.rib.All() {
		if e.IfName == ifname && e.Status == rib.Valid {
			a.rib.Invalidate(e)
		}
	}
}

func (a *Agent) onAddrAdd(ifname string, ifindex int, addr net.IPNet) {
	if a.cfg.IsExcluded(ifname) {
		return
	}
	a.installDirect(ifname, ifindex, addr)
}

func (a *Agent) onAddrDel(ifname string, addr net.IPNet) {
	netw := directNetwork(addr)
	e, ok := a.rib.LookupExact(netw)
	if !ok || e.Origin != rib.OriginLocal || e.IfName != ifname {
		return
	}
	a.rib.Invalidate(e)
}

func (a *Agent) installDirect(ifname string, ifindex int, addr net.IPNet) {
	netw := directNetwork(addr)
	if existing, ok := a.rib.LookupExact(netw); ok {
		if existing.Status == rib.Valid && existing.Origin == rib.OriginLocal && existing.IfName == ifname {
			return // already present, nothing to do
		}
		a.rib.Replace(&rib.Entry{
			Net: netw, NextHop: net.IPv4zero, IfIndex: ifindex, IfName: ifname,
			Metric: 1, Status: rib.Valid, Changed: true, Origin: rib.OriginLocal,
		})
		return
	}
	a.rib.Install(&rib.Entry{
		Net: netw, NextHop: net.IPv4zero, IfIndex: ifindex, IfName: ifname,
		Metric: 1, Status: rib.Valid, Changed: true, Origin: rib.OriginLocal,
	})
}

// directNetwork turns an interface address into the route it announces: a
// host route (/32) for point-to-point addresses, else the containing
// network (address & mask).
func directNetwork(addr net.IPNet) net.IPNet {
	ones, bits := addr.Mask.Size()
	if bits == 32 && ones == 32 {
		return net.IPNet{IP: addr.IP, Mask: net.CIDRMask(32, 32)}
	}
	return addrutil.Normalize(addr)
}
