package ripagent

import (
	"net"
	"testing"

	"ripd/internal/config"
	"ripd/internal/fwd"
	"ripd/internal/rib"
)

func TestRouteOutputDirectlyConnected(t *testing.T) {
	hw := fwd.NewBogus()
	hw.AddInterface("eth0")
	hw.AddAddress("eth0", mustAddr(t, "10.1.2.1/24"))

	a := New(hw, config.New(), 1)
	a.rib.Install(&rib.Entry{
		Net: mustNet(t, "10.1.2.0/24"), NextHop: net.IPv4zero, IfName: "eth0", IfIndex: 1,
		Metric: 1, Status: rib.Valid, Origin: rib.OriginLocal,
	})

	route, err := a.RouteOutput(net.ParseIP("10.1.2.42"), "")
	if err != nil {
		t.Fatalf("RouteOutput: %v", err)
	}
	if route.IfName != "eth0" || !route.Source.Equal(net.ParseIP("10.1.2.1")) {
		t.Fatalf("got %+v", route)
	}
}

func TestRouteOutputMissReturnsErrNoRoute(t *testing.T) {
	hw := fwd.NewBogus()
	a := New(hw, config.New(), 1)
	_, err := a.RouteOutput(net.ParseIP("192.0.2.1"), "")
	if _, ok := err.(*ErrNoRoute); !ok {
		t.Fatalf("err = %v, want *ErrNoRoute", err)
	}
}

func TestRouteOutputLinkLocalMulticastRequiresPreferredIface(t *testing.T) {
	hw := fwd.NewBogus()
	a := New(hw, config.New(), 1)
	_, err := a.RouteOutput(Group, "")
	if err == nil {
		t.Fatal("expected error when no preferred interface is given for a multicast destination")
	}
}

func TestRouteOutputLinkLocalMulticastSynthesizesRoute(t *testing.T) {
	hw := fwd.NewBogus()
	hw.AddInterface("eth0")
	hw.AddAddress("eth0", mustAddr(t, "10.1.2.1/24"))
	a := New(hw, config.New(), 1)

	route, err := a.RouteOutput(Group, "eth0")
	if err != nil {
		t.Fatalf("RouteOutput: %v", err)
	}
	if route.IfName != "eth0" || !route.Source.Equal(net.ParseIP("10.1.2.1")) {
		t.Fatalf("got %+v", route)
	}
}

func TestRouteInputLocalDeliver(t *testing.T) {
	hw := fwd.NewBogus()
	hw.AddInterface("eth0")
	hw.AddAddress("eth0", mustAddr(t, "10.1.2.1/24"))
	a := New(hw, config.New(), 1)

	action, _, err := a.RouteInput(net.ParseIP("10.1.2.1"), "eth0", true)
	if err != nil || action != LocalDeliver {
		t.Fatalf("action=%v err=%v, want LocalDeliver", action, err)
	}
}

func TestRouteInputNoRouteToHostWhenForwardingDisabled(t *testing.T) {
	hw := fwd.NewBogus()
	hw.AddInterface("eth0")
	a := New(hw, config.New(), 1)

	action, _, err := a.RouteInput(net.ParseIP("192.0.2.1"), "eth0", false)
	if action != NoRouteToHost || err == nil {
		t.Fatalf("action=%v err=%v, want NoRouteToHost with an error", action, err)
	}
}

func TestRouteInputMulticastNotHandled(t *testing.T) {
	hw := fwd.NewBogus()
	a := New(hw, config.New(), 1)
	action, route, err := a.RouteInput(Group, "eth0", true)
	if action != NotHandled || route != nil || err != nil {
		t.Fatalf("action=%v route=%v err=%v, want NotHandled/nil/nil", action, route, err)
	}
}

func TestRouteInputUnicastForward(t *testing.T) {
	hw := fwd.NewBogus()
	hw.AddInterface("eth0")
	hw.AddAddress("eth0", mustAddr(t, "10.1.2.1/24"))
	a := New(hw, config.New(), 1)
	a.rib.Install(&rib.Entry{
		Net: mustNet(t, "10.1.2.0/24"), NextHop: net.IPv4zero, IfName: "eth0", IfIndex: 1,
		Metric: 1, Status: rib.Valid, Origin: rib.OriginLocal,
	})

	action, route, err := a.RouteInput(net.ParseIP("10.1.2.42"), "eth1", true)
	if err != nil || action != UnicastForward || route.IfName != "eth0" {
		t.Fatalf("action=%v route=%+v err=%v", action, route, err)
	}
}

func TestDirectNetworkHostRouteForPointToPoint(t *testing.T) {
	addr := mustNet(t, "10.1.2.1/32")
	n := directNetwork(addr)
	if n.String() != "10.1.2.1/32" {
		t.Fatalf("directNetwork(/32) = %v, want a host route", n)
	}
}

func TestDirectNetworkNetworkAddressOtherwise(t *testing.T) {
	addr := mustNet(t, "10.1.2.42/24")
	n := directNetwork(addr)
	if n.String() != "10.1.2.0/24" {
		t.Fatalf("directNetwork = %v, want normalized network 10.1.2.0/24", n)
	}
}
