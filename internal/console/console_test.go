package console

import (
	"net"
	"testing"

	"ripd/internal/command"
	"ripd/internal/config"
	"ripd/internal/fwd"
	"ripd/internal/ripagent"
)

type fakeClient struct{ sent []string }

func (c *fakeClient) ConfigPath() string        { return "" }
func (c *fakeClient) ConfigPathSet(string)      {}
func (c *fakeClient) Status() int               { return command.CONF }
func (c *fakeClient) Sendln(msg string)         { c.sent = append(c.sent, msg) }

func newTestConsole(t *testing.T) *Console {
	hw := fwd.NewBogus()
	hw.AddInterface("eth0")
	hw.AddInterface("eth1")
	cfg := config.New()
	agent := ripagent.New(hw, cfg, 1)
	return New(agent, cfg)
}

func dispatch(t *testing.T, c *Console, line string) *fakeClient {
	t.Helper()
	cl := &fakeClient{}
	if err := command.Dispatch(c, line, cl); err != nil {
		t.Fatalf("Dispatch(%q): %v", line, err)
	}
	return cl
}

func TestSplitHorizonCommitAndRevert(t *testing.T) {
	c := newTestConsole(t)

	dispatch(t, c, "rip split-horizon none")
	cl := &fakeClient{}
	if err := command.Commit(c, cl); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if c.cfg.SplitHorizon != config.NoSplitHorizon {
		t.Errorf("split-horizon = %v, want NoSplitHorizon", c.cfg.SplitHorizon)
	}

	// removing the candidate leaf and recommitting should revert to the default.
	c.candidate = &command.ConfNode{}
	if err := command.Commit(c, cl); err != nil {
		t.Fatalf("Commit (revert): %v", err)
	}
	if c.cfg.SplitHorizon != config.PoisonReverse {
		t.Errorf("split-horizon after revert = %v, want PoisonReverse", c.cfg.SplitHorizon)
	}
}

func TestInterfaceExcludeAndMetricCommit(t *testing.T) {
	c := newTestConsole(t)

	dispatch(t, c, "rip interface eth0 exclude")
	dispatch(t, c, "rip interface eth1 metric 5")

	cl := &fakeClient{}
	if err := command.Commit(c, cl); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !c.cfg.IsExcluded("eth0") {
		t.Errorf("eth0 should be excluded after commit")
	}
	if got := c.cfg.Metric("eth1"); got != 5 {
		t.Errorf("eth1 metric = %d, want 5", got)
	}
}

func TestDefaultRouteRejectsUnknownInterface(t *testing.T) {
	c := newTestConsole(t)
	cl := &fakeClient{}
	if err := command.Dispatch(c, "rip default-route 10.0.0.1 interface eth9", cl); err == nil {
		t.Errorf("expected the {IFNAME} keyword to reject an interface the dataplane doesn't have")
	}
}

func TestDefaultRouteInstallsStaticEntry(t *testing.T) {
	c := newTestConsole(t)
	dispatch(t, c, "rip default-route 10.0.0.1 interface eth0")

	cl := &fakeClient{}
	if err := command.Commit(c, cl); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	e, ok := c.agent.RIB().LookupExact(net.IPNet{IP: net.IPv4zero, Mask: net.CIDRMask(0, 32)})
	if !ok {
		t.Fatalf("default route not installed")
	}
	if !e.NextHop.Equal(net.ParseIP("10.0.0.1")) {
		t.Errorf("nexthop = %v", e.NextHop)
	}
}
