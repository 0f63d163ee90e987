package ripagent

import (
	"log"
	"net"

	"ripd/internal/rib"
	"ripd/internal/ripwire"
)

// handleRequest implements §4.6: the whole-table special case and the
// specific-prefix lookup case.
func (a *Agent) handleRequest(msg ripwire.Message, in inbound) {
	if a.cfg.IsExcluded(in.ifName) {
		return
	}

	if len(msg.Entries) == 1 {
		rte := msg.Entries[0]
		ones, bits := rte.Mask.Size()
		if rte.AFI == ripwire.AFIUnspec && rte.Address.Equal(net.IPv4zero) &&
			bits == 32 && ones == 0 && rte.Metric == ripwire.MetricInfinity && in.ttl == 255 {
			a.replyWholeTable(in)
			return
		}
	}

	a.replySpecific(msg, in)
}

func (a *Agent) replyWholeTable(in inbound) {
	rtes := a.eligibleRTEs(in.ifName, true)
	pages := ripwire.Paginate(ripwire.CommandResponse, rtes, true)
	for _, p := range pages {
		if err := a.sendViaSendSocket(in.ifName, p, &in.src); err != nil {
			log.Printf("Agent.replyWholeTable: %v", err)
		}
	}
}

func (a *Agent) replySpecific(msg ripwire.Message, in inbound) {
	out := make([]ripwire.RTE, len(msg.Entries))
	for i, rte := range msg.Entries {
		metric := uint32(ripwire.MetricInfinity)
		var tag uint16
		if e, ok := a.rib.LookupExact(rte.Net()); ok && e.Status == rib.Valid {
			metric = uint32(e.Metric)
			tag = e.Tag
		}
		out[i] = ripwire.RTE{AFI: rte.AFI, Tag: tag, Address: rte.Address, Mask: rte.Mask, NextHop: net.IPv4zero, Metric: metric}
	}

	pages := ripwire.Paginate(ripwire.CommandResponse, out, true)
	for _, p := range pages {
		var err error
		if in.ttl == 255 {
			err = a.sendViaSendSocket(in.ifName, p, &in.src)
		} else {
			err = a.sendViaRecvSocket(in.ifName, p, &in.src)
		}
		if err != nil {
			log.Printf("Agent.replySpecific: %v", err)
		}
	}
}
