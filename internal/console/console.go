// Package console wires internal/command's dispatcher to a running RIP
// agent: it builds the grammar tree (show commands, the "rip ..." config
// knobs, commit) and implements command.ConfContext over a
// ripagent.Agent and a config.Config, the same way the teacher's
// src/rip/ripd command registration hangs the router's own commands off
// src/command's tree.
package console

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"

	"ripd/internal/command"
	"ripd/internal/config"
	"ripd/internal/rib"
	"ripd/internal/ripagent"
)

// Console is a command.ConfContext bound to one running agent.
type Console struct {
	agent *ripagent.Agent
	cfg   *config.Config

	root      *command.CmdNode
	candidate *command.ConfNode
	active    *command.ConfNode
}

// New builds the RIP command tree over agent/cfg and returns a Console
// ready to hand to cli.Server as its ConfContext.
func New(agent *ripagent.Agent, cfg *config.Config) *Console {
	c := &Console{
		agent:     agent,
		cfg:       cfg,
		root:      &command.CmdNode{},
		candidate: &command.ConfNode{},
		active:    &command.ConfNode{},
	}
	command.LoadKeywordTable(agent.InterfaceNames)
	c.install()
	return c
}

func (c *Console) CmdRoot() *command.CmdNode          { return c.root }
func (c *Console) ConfRootCandidate() *command.ConfNode { return c.candidate }
func (c *Console) ConfRootActive() *command.ConfNode    { return c.active }

func (c *Console) install() {
	root := c.root

	command.CmdInstall(root, command.CmdNone, "show ip route", command.EXEC, c.showIPRoute, nil,
		"show the routing table")
	command.CmdInstall(root, command.CmdNone, "show ip rip database", command.EXEC, c.showRIPDatabase, nil,
		"show the RIP-learned route database")
	command.CmdInstall(root, command.CmdNone, "show ip rip interface", command.EXEC, c.showRIPInterface, nil,
		"show per-interface RIP configuration")
	command.CmdInstall(root, command.CmdNone, "show configuration", command.EXEC, c.showConfiguration, nil,
		"show the candidate configuration")
	command.CmdInstall(root, command.CmdNone, "show running-configuration", command.EXEC, c.showRunning, nil,
		"show the active configuration")
	command.CmdInstall(root, command.CmdNone, "commit", command.CONF, c.commit, nil,
		"apply the candidate configuration")

	command.CmdInstall(root, command.CmdConf, "rip split-horizon {SPLITHORIZON}", command.CONF, c.setLeaf, c.applySplitHorizon,
		"set the split-horizon strategy (none|simple|poison-reverse)")
	command.CmdInstall(root, command.CmdConf, "rip interface {IFNAME} exclude", command.CONF, c.setFlag, c.applyExclude,
		"exclude an interface from RIP processing")
	command.CmdInstall(root, command.CmdConf, "rip interface {IFNAME} metric {METRIC}", command.CONF, c.setLeaf, c.applyMetric,
		"override an interface's advertised cost addend")
	command.CmdInstall(root, command.CmdConf, "rip default-route {IPADDR} interface {IFNAME}", command.CONF, c.setLeaf, c.applyDefaultRoute,
		"inject a static default route via the given interface")
}

// setLeaf records line verbatim as a scalar-valued leaf under candidate.
func (c *Console) setLeaf(_ command.ConfContext, _ *command.CmdNode, line string, cl command.CmdClient) {
	labels := strings.Fields(line)
	if len(labels) == 0 {
		return
	}
	parentPath, last := command.StripLastToken(line)
	parent := c.candidate
	if parentPath != "" {
		parent, _ = c.candidate.Set(parentPath)
	}
	parent.ValueSet(last)
	cl.Sendln(fmt.Sprintf("candidate: %s", line))
}

// setFlag records line as a valueless leaf (present/absent, no scalar).
func (c *Console) setFlag(_ command.ConfContext, _ *command.CmdNode, line string, cl command.CmdClient) {
	c.candidate.Set(line)
	cl.Sendln(fmt.Sprintf("candidate: %s", line))
}

func (c *Console) commit(ctx command.ConfContext, _ *command.CmdNode, _ string, cl command.CmdClient) {
	if err := command.Commit(ctx, cl); err != nil {
		return
	}
	c.active = c.candidate.Clone()
	cl.Sendln("commit complete")
}

func (c *Console) showConfiguration(_ command.ConfContext, _ *command.CmdNode, _ string, cl command.CmdClient) {
	command.ShowConf(c.candidate, cl)
}

func (c *Console) showRunning(_ command.ConfContext, _ *command.CmdNode, _ string, cl command.CmdClient) {
	command.ShowConf(c.active, cl)
}

func (c *Console) showIPRoute(_ command.ConfContext, _ *command.CmdNode, _ string, cl command.CmdClient) {
	entries := c.agent.RIB().All()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Net.String() < entries[j].Net.String() })
	for _, e := range entries {
		if e.Status != rib.Valid {
			continue
		}
		cl.Sendln(fmt.Sprintf("%-18s %-15s %-8s metric=%-2d %s",
			e.Net.String(), e.NextHop, e.IfName, e.Metric, e.Origin))
	}
}

func (c *Console) showRIPDatabase(_ command.ConfContext, _ *command.CmdNode, _ string, cl command.CmdClient) {
	entries := c.agent.RIB().All()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Net.String() < entries[j].Net.String() })
	for _, e := range entries {
		cl.Sendln(fmt.Sprintf("%-18s via %-15s %-8s metric=%-2d %-8s origin=%s tag=%d",
			e.Net.String(), e.NextHop, e.IfName, e.Metric, e.Status, e.Origin, e.Tag))
	}
}

func (c *Console) showRIPInterface(_ command.ConfContext, _ *command.CmdNode, _ string, cl command.CmdClient) {
	for _, ifname := range c.agent.InterfaceNames() {
		cl.Sendln(fmt.Sprintf("%-10s excluded=%-5v metric=%d",
			ifname, c.cfg.IsExcluded(ifname), c.cfg.Metric(ifname)))
	}
}

// applySplitHorizon commits/reverts "rip split-horizon <value>". line is the
// literal committed path, e.g. "rip split-horizon simple".
func (c *Console) applySplitHorizon(_ command.ConfContext, _ *command.CmdNode, line string, enable bool, cl command.CmdClient) error {
	if !enable {
		c.cfg.SplitHorizon = config.PoisonReverse
		return nil
	}
	f := strings.Fields(line)
	sh, err := config.ParseSplitHorizon(f[len(f)-1])
	if err != nil {
		return err
	}
	c.cfg.SplitHorizon = sh
	return nil
}

// applyExclude commits/reverts "rip interface <ifname> exclude".
func (c *Console) applyExclude(_ command.ConfContext, _ *command.CmdNode, line string, enable bool, cl command.CmdClient) error {
	f := strings.Fields(line)
	if len(f) != 4 {
		return fmt.Errorf("console: applyExclude: malformed line %q", line)
	}
	c.cfg.SetExcluded(f[2], enable)
	return nil
}

// applyMetric commits/reverts "rip interface <ifname> metric <n>".
func (c *Console) applyMetric(_ command.ConfContext, _ *command.CmdNode, line string, enable bool, cl command.CmdClient) error {
	f := strings.Fields(line)
	if len(f) != 5 {
		return fmt.Errorf("console: applyMetric: malformed line %q", line)
	}
	ifname := f[2]
	if !enable {
		c.cfg.ClearMetric(ifname)
		return nil
	}
	metric, err := strconv.Atoi(f[4])
	if err != nil {
		return fmt.Errorf("console: applyMetric: %w", err)
	}
	c.cfg.SetMetric(ifname, metric)
	return nil
}

// applyDefaultRoute commits/reverts "rip default-route <nexthop> interface <ifname>".
func (c *Console) applyDefaultRoute(_ command.ConfContext, _ *command.CmdNode, line string, enable bool, cl command.CmdClient) error {
	if !enable {
		c.agent.RemoveDefaultRoute()
		return nil
	}
	f := strings.Fields(line)
	if len(f) != 5 {
		return fmt.Errorf("console: applyDefaultRoute: malformed line %q", line)
	}
	nexthop := net.ParseIP(f[2])
	if nexthop == nil {
		return fmt.Errorf("console: applyDefaultRoute: invalid nexthop %q", f[2])
	}
	return c.agent.InstallDefaultRoute(nexthop, f[4])
}
