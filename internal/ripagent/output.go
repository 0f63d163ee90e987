package ripagent

import (
	"fmt"
	"log"
	"net"
	"time"

	"ripd/internal/config"
	"ripd/internal/fwd"
	"ripd/internal/ripwire"
)

// scheduleTriggered requests a triggered update (§4.4). It is safe to call
// from any goroutine — including the RIB's own timer callbacks — since it
// only signals the agent's single loop goroutine, which does the actual
// timer arming.
func (a *Agent) scheduleTriggered() {
	select {
	case a.triggerReq <- struct{}{}:
	default:
	}
}

// armTriggered arms the triggered-update timer at a random delay in
// [T_tmin, T_tmax] unless one is already pending, in which case the request
// is coalesced (a no-op).
func (a *Agent) armTriggered() {
	if a.triggeredArmed {
		return
	}
	a.triggeredArmed = true
	d := a.randRange(a.cfg.Periods.TriggeredMin, a.cfg.Periods.TriggeredMax)
	a.triggered.Reset(d)
}

// sendUpdate emits a Response to every joined, non-excluded interface with
// a send socket. periodic=true forces inclusion of every eligible entry and
// clears every changed-flag afterward (§4.4); periodic=false emits only
// entries with Changed==true.
func (a *Agent) sendUpdate(periodic bool) {
	a.mu.RLock()
	names := make([]string, 0, len(a.ports))
	for name, p := range a.ports {
		if p.send != nil && !a.cfg.IsExcluded(name) {
			names = append(names, name)
		}
	}
	a.mu.RUnlock()

	for _, ifname := range names {
		rtes := a.eligibleRTEs(ifname, periodic)
		pages := ripwire.Paginate(ripwire.CommandResponse, rtes, periodic)
		for _, p := range pages {
			if err := a.sendViaSendSocket(ifname, p, &net.UDPAddr{IP: Group, Port: Port}); err != nil {
				log.Printf("Agent.sendUpdate: %v", err)
			}
		}
	}

	if periodic {
		a.rib.ClearChangedFlags()
	}
}

// eligibleRTEs builds the RTE list for an update emitted out ifname,
// applying §4.4's GLOBAL-scope filter, default-route self-suppression, and
// split-horizon/poison-reverse rewrite.
func (a *Agent) eligibleRTEs(ifname string, forceAll bool) []ripwire.RTE {
	var rtes []ripwire.RTE
	for _, e := range a.rib.All() {
		if !forceAll && !e.Changed {
			continue
		}
		if !fwd.IsGlobal(e.Net.IP) && !isDefaultRoute(e.Net) {
			continue
		}
		if isDefaultRoute(e.Net) && e.IfName == ifname {
			continue
		}

		horizon := e.IfName == ifname
		metric := e.Metric
		switch a.cfg.SplitHorizon {
		case config.SimpleSplitHorizon:
			if horizon {
				continue
			}
		case config.PoisonReverse:
			if horizon {
				metric = ripwire.MetricInfinity
			}
		}

		rtes = append(rtes, ripwire.RTE{
			AFI: ripwire.AFIInet, Tag: e.Tag, Address: e.Net.IP, Mask: e.Net.Mask,
			NextHop: net.IPv4zero, Metric: uint32(metric),
		})
	}
	return rtes
}

// sendInitialRequest sends the startup whole-table request (§4.4).
func (a *Agent) sendInitialRequest(ifname string) {
	msg := ripwire.Message{Command: ripwire.CommandRequest, Entries: []ripwire.RTE{{
		AFI: ripwire.AFIUnspec, Address: net.IPv4zero, Mask: net.CIDRMask(0, 32),
		NextHop: net.IPv4zero, Metric: ripwire.MetricInfinity,
	}}}
	if err := a.sendViaSendSocket(ifname, msg, &net.UDPAddr{IP: Group, Port: Port}); err != nil {
		log.Printf("Agent.sendInitialRequest: %v", err)
	}
}

func (a *Agent) sendViaSendSocket(ifname string, msg ripwire.Message, dst *net.UDPAddr) error {
	a.mu.RLock()
	p, ok := a.ports[ifname]
	a.mu.RUnlock()
	if !ok || p.send == nil {
		return fmt.Errorf("ripagent: no send socket on %s", ifname)
	}
	buf, err := ripwire.Encode(msg)
	if err != nil {
		return fmt.Errorf("ripagent: encode: %w", err)
	}
	p.send.SetWriteDeadline(time.Now().Add(500 * time.Millisecond))
	n, err := p.send.WriteToUDP(buf, dst)
	if err != nil {
		return fmt.Errorf("ripagent: write to %v on %s: %w", dst, ifname, err)
	}
	if n != len(buf) {
		return fmt.Errorf("ripagent: partial write %d/%d to %v on %s", n, len(buf), dst, ifname)
	}
	return nil
}

func (a *Agent) sendViaRecvSocket(ifname string, msg ripwire.Message, dst *net.UDPAddr) error {
	a.mu.RLock()
	p, ok := a.ports[ifname]
	a.mu.RUnlock()
	if !ok {
		return fmt.Errorf("ripagent: interface %s not joined", ifname)
	}
	buf, err := ripwire.Encode(msg)
	if err != nil {
		return fmt.Errorf("ripagent: encode: %w", err)
	}
	p.recv.UDP.SetWriteDeadline(time.Now().Add(500 * time.Millisecond))
	n, err := p.recv.UDP.WriteToUDP(buf, dst)
	if err != nil {
		return fmt.Errorf("ripagent: write to %v on %s: %w", dst, ifname, err)
	}
	if n != len(buf) {
		return fmt.Errorf("ripagent: partial write %d/%d to %v on %s", n, len(buf), dst, ifname)
	}
	return nil
}
