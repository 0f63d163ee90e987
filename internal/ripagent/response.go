package ripagent

import (
	"log"
	"net"

	"ripd/internal/rib"
	"ripd/internal/ripwire"
)

func (a *Agent) handleInbound(in inbound) {
	msg, err := ripwire.Decode(in.raw)
	if err != nil {
		log.Printf("Agent.handleInbound: %v: from %v on %s", err, in.src.IP, in.ifName)
		return
	}
	switch msg.Command {
	case ripwire.CommandResponse:
		a.handleResponse(msg, in)
	case ripwire.CommandRequest:
		a.handleRequest(msg, in)
	}
}

// handleResponse implements the distance-vector update rules of §4.3.
func (a *Agent) handleResponse(msg ripwire.Message, in inbound) {
	if a.cfg.IsExcluded(in.ifName) {
		return // ExcludedInterface
	}
	if in.src.Port != Port {
		log.Printf("Agent.handleResponse: not from RIP port: src=%v on %s", in.src.IP, in.ifName)
		return
	}
	if in.ttl != 255 {
		log.Printf("Agent.handleResponse: WrongHopCount ttl=%d from %v on %s", in.ttl, in.src.IP, in.ifName)
		return
	}
	if a.isLocalAddress(in.src.IP) {
		return // SelfSourced
	}

	for _, rte := range msg.Entries {
		if err := validateRTE(rte); err != nil {
			log.Printf("Agent.handleResponse: %v: from %v on %s", err, in.src.IP, in.ifName)
			return // a single malformed RTE rejects the entire message
		}
	}

	ifaceMetric := a.cfg.Metric(in.ifName)
	for _, rte := range msg.Entries {
		newMetric := int(rte.Metric) + ifaceMetric
		if newMetric > ripwire.MetricInfinity {
			newMetric = ripwire.MetricInfinity
		}
		a.applyResponseEntry(rte.Net(), rte.Tag, in.src.IP, in.ifName, in.ifIndex, newMetric)
	}
}

func validateRTE(rte ripwire.RTE) error {
	if rte.Metric < ripwire.MetricMin || rte.Metric > ripwire.MetricInfinity {
		return &ErrInvalidRTE{Reason: "metric out of range"}
	}
	ones, bits := rte.Mask.Size()
	if bits != 32 || ones > 32 {
		return &ErrInvalidRTE{Reason: "bad prefix length"}
	}
	if rte.Address.IsLoopback() || rte.Address.IsMulticast() {
		return &ErrInvalidRTE{Reason: "loopback or multicast address"}
	}
	return nil
}

func (a *Agent) applyResponseEntry(netw net.IPNet, tag uint16, gateway net.IP, ifname string, ifindex, newMetric int) {
	existing, ok := a.rib.LookupExact(netw)
	if !ok {
		if newMetric >= ripwire.MetricInfinity {
			return // infinity for an unknown prefix is a no-op
		}
		a.rib.Install(&rib.Entry{
			Net: netw, NextHop: gateway, IfIndex: ifindex, IfName: ifname,
			Metric: newMetric, Tag: tag, Status: rib.Valid, Changed: true, Origin: rib.OriginPeer,
		})
		return
	}

	sameGateway := existing.NextHop.Equal(gateway)

	switch {
	case newMetric < existing.Metric:
		if !sameGateway {
			a.rib.Replace(&rib.Entry{
				Net: netw, NextHop: gateway, IfIndex: ifindex, IfName: ifname,
				Metric: newMetric, Tag: tag, Status: rib.Valid, Changed: true, Origin: rib.OriginPeer,
			})
			return
		}
		existing.Metric = newMetric
		existing.Tag = tag
		existing.Status = rib.Valid
		a.rib.ResetTimeout(existing)
		a.rib.MarkChanged(existing)

	case newMetric == existing.Metric:
		if sameGateway {
			a.rib.ResetTimeout(existing)
			return
		}
		if a.rib.TimeoutRemaining(existing) < a.rib.TimeoutPeriod()/2 {
			a.rib.Replace(&rib.Entry{
				Net: netw, NextHop: gateway, IfIndex: ifindex, IfName: ifname,
				Metric: newMetric, Tag: tag, Status: rib.Valid, Changed: true, Origin: rib.OriginPeer,
			})
		}
		// else: leave untouched

	default: // newMetric > existing.Metric
		if !sameGateway {
			return // a worse metric from a different gateway never displaces the route
		}
		if newMetric < ripwire.MetricInfinity {
			existing.Metric = newMetric
			existing.Tag = tag
			existing.Status = rib.Valid
			a.rib.ResetTimeout(existing)
			a.rib.MarkChanged(existing)
		} else {
			a.rib.Invalidate(existing)
		}
	}
}
