package ripagent

import (
	"net"
	"testing"
	"time"

	"ripd/internal/config"
	"ripd/internal/fwd"
	"ripd/internal/rib"
	"ripd/internal/ripwire"
)

func newLoopbackAgent(t *testing.T) (*Agent, *net.UDPConn) {
	t.Helper()
	server, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	t.Cleanup(func() { server.Close() })

	client, err := net.DialUDP("udp4", nil, server.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	a := New(fwd.NewBogus(), config.New(), 1)
	a.ports["eth0"] = &ifacePort{name: "eth0", send: client}
	return a, server
}

func recvMessage(t *testing.T, server *net.UDPConn) ripwire.Message {
	t.Helper()
	buf := make([]byte, ripwire.MaxMessageSize)
	server.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	n, _, err := server.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	msg, err := ripwire.Decode(buf[:n])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return msg
}

func TestReplySpecificReturnsKnownMetric(t *testing.T) {
	a, server := newLoopbackAgent(t)
	a.rib.Install(&rib.Entry{
		Net: mustNet(t, "10.1.2.0/24"), IfName: "eth1", Metric: 3, Tag: 9,
		Status: rib.Valid, Origin: rib.OriginPeer,
	})

	req := ripwire.Message{Command: ripwire.CommandRequest, Entries: []ripwire.RTE{makeRTE(t, "10.1.2.0/24", 16)}}
	in := inbound{ifName: "eth0", ttl: 255, src: net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: Port}}
	a.replySpecific(req, in)

	got := recvMessage(t, server)
	if len(got.Entries) != 1 || got.Entries[0].Metric != 3 || got.Entries[0].Tag != 9 {
		t.Fatalf("got %+v", got.Entries)
	}
}

func TestReplySpecificReturnsInfinityForUnknownPrefix(t *testing.T) {
	a, server := newLoopbackAgent(t)

	req := ripwire.Message{Command: ripwire.CommandRequest, Entries: []ripwire.RTE{makeRTE(t, "10.9.9.0/24", 16)}}
	in := inbound{ifName: "eth0", ttl: 255, src: net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: Port}}
	a.replySpecific(req, in)

	got := recvMessage(t, server)
	if len(got.Entries) != 1 || got.Entries[0].Metric != ripwire.MetricInfinity {
		t.Fatalf("got %+v", got.Entries)
	}
}

func TestHandleRequestDispatchesWholeTable(t *testing.T) {
	a, server := newLoopbackAgent(t)
	a.rib.Install(&rib.Entry{
		Net: mustNet(t, "10.1.2.0/24"), IfName: "eth1", Metric: 3,
		Status: rib.Valid, Origin: rib.OriginPeer, Changed: true,
	})

	wholeTableRTE := ripwire.RTE{AFI: ripwire.AFIUnspec, Address: net.IPv4zero, Mask: net.CIDRMask(0, 32), Metric: ripwire.MetricInfinity}
	msg := ripwire.Message{Command: ripwire.CommandRequest, Entries: []ripwire.RTE{wholeTableRTE}}
	in := inbound{ifName: "eth0", ttl: 255, src: net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: Port}}
	a.handleRequest(msg, in)

	got := recvMessage(t, server)
	found := false
	for _, e := range got.Entries {
		if e.Net().String() == "10.1.2.0/24" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the whole table in the reply, got %+v", got.Entries)
	}
}

func TestHandleRequestSkipsExcludedInterface(t *testing.T) {
	a, server := newLoopbackAgent(t)
	a.cfg.SetExcluded("eth0", true)

	req := ripwire.Message{Command: ripwire.CommandRequest, Entries: []ripwire.RTE{makeRTE(t, "10.1.2.0/24", 16)}}
	in := inbound{ifName: "eth0", ttl: 255, src: net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: Port}}
	a.handleRequest(req, in)

	server.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	buf := make([]byte, ripwire.MaxMessageSize)
	if _, _, err := server.ReadFromUDP(buf); err == nil {
		t.Fatal("a request on an excluded interface must not be answered")
	}
}
