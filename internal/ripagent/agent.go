// Package ripagent is the RIPv2 control-plane engine: one goroutine owns the
// RIB and every timer, one reader goroutine per joined interface feeds it
// inbound datagrams, and the interface observer and CLI talk to it only
// through channels — the same shape as the teacher's NewRipRouter goroutine
// in src/rip/router.go, generalized from its VRF-scoped table to the
// single-RIB agent this package implements.
package ripagent

import (
	"fmt"
	"log"
	"math/rand"
	"net"
	"sync"
	"time"

	"ripd/internal/config"
	"ripd/internal/fwd"
	"ripd/internal/rib"
	"ripd/internal/ripwire"
	"ripd/internal/sock"
)

// Group is the RIPv2 multicast group, 224.0.0.9.
var Group = net.IPv4(224, 0, 0, 9)

// Port is the well-known RIP UDP port.
const Port = 520

type inbound struct {
	raw     []byte
	src     net.UDPAddr
	ifName  string
	ifIndex int
	ttl     int
}

type ifacePort struct {
	name  string
	index int
	recv  *sock.MulticastSock
	send  *net.UDPConn
}

// Agent is a running RIPv2 instance bound to a Dataplane. Construct with
// New, then Start; Close tears everything down.
type Agent struct {
	rib *rib.RIB
	cfg *config.Config
	hw  fwd.Dataplane

	mu    sync.RWMutex
	ports map[string]*ifacePort

	input      chan inbound
	events     chan fwd.Event
	startupReq chan string
	triggerReq chan struct{}
	done       chan struct{}
	wg         sync.WaitGroup

	periodicTimer  *time.Timer
	triggered      *time.Timer
	triggeredArmed bool

	rng *rand.Rand
}

// New constructs an Agent over hw and cfg. seed drives every jitter source
// (periodic offset, triggered cooldown, startup delay) so tests can make
// timing reproducible (§9 design note).
func New(hw fwd.Dataplane, cfg *config.Config, seed int64) *Agent {
	a := &Agent{
		hw:         hw,
		cfg:        cfg,
		ports:      map[string]*ifacePort{},
		input:      make(chan inbound, 64),
		events:     make(chan fwd.Event, 64),
		startupReq: make(chan string, 8),
		triggerReq: make(chan struct{}, 1),
		done:       make(chan struct{}),
		rng:        rand.New(rand.NewSource(seed)),
	}
	a.rib = rib.New(a.scheduleTriggered)
	a.rib.SetTimers(cfg.Periods.Timeout, cfg.Periods.GC)
	a.periodicTimer = time.NewTimer(time.Hour)
	a.periodicTimer.Stop()
	a.triggered = time.NewTimer(time.Hour)
	a.triggered.Stop()
	return a
}

// RIB exposes the agent's routing table, mainly for the CLI's show commands.
func (a *Agent) RIB() *rib.RIB {
	return a.rib
}

// InterfaceNames lists every interface the dataplane currently knows about,
// used by the console's {IFNAME} keyword validation.
func (a *Agent) InterfaceNames() []string {
	ifaces, err := a.hw.Interfaces()
	if err != nil {
		return nil
	}
	names := make([]string, len(ifaces))
	for i, ifi := range ifaces {
		names[i] = ifi.Name
	}
	return names
}

// Start subscribes to interface events, joins every non-excluded interface
// that already exists, bootstraps directly-connected routes on the ones
// that are up, and starts the agent's single event-loop goroutine.
func (a *Agent) Start() error {
	if err := a.hw.Subscribe(a.events); err != nil {
		return fmt.Errorf("ripagent.Start: subscribe: %w", err)
	}

	ifaces, err := a.hw.Interfaces()
	if err != nil {
		return fmt.Errorf("ripagent.Start: interfaces: %w", err)
	}
	for _, ifi := range ifaces {
		if a.cfg.IsExcluded(ifi.Name) {
			continue
		}
		if err := a.ensureJoined(ifi.Name, ifi.Index); err != nil {
			log.Printf("Agent.Start: join %s: %v", ifi.Name, err)
			continue
		}
		if ifi.Flags&net.FlagUp != 0 {
			a.onLinkUp(ifi.Name, ifi.Index)
		}
	}

	a.periodicTimer.Reset(a.cfg.Periods.Unsolicited + a.jitter(a.cfg.Periods.Unsolicited/2))

	a.wg.Add(1)
	go a.loop()
	return nil
}

// Close tears down every socket and stops the event loop. Cancel order
// matches §5: both timers first, then the sockets, then the RIB's own
// timers unwind as their entries are dropped.
func (a *Agent) Close() error {
	close(a.done)

	a.periodicTimer.Stop()
	a.triggered.Stop()

	a.mu.Lock()
	for _, p := range a.ports {
		if p.send != nil {
			p.send.Close()
		}
		sock.Leave(p.recv, Group, &net.Interface{Name: p.name, Index: p.index})
		sock.Close(p.recv)
	}
	a.ports = map[string]*ifacePort{}
	a.mu.Unlock()

	a.hw.Close()
	a.wg.Wait()

	for _, e := range a.rib.All() {
		a.rib.Delete(e)
	}
	return nil
}

func (a *Agent) loop() {
	defer a.wg.Done()
	for {
		select {
		case <-a.done:
			return
		case ev := <-a.events:
			a.handleInterfaceEvent(ev)
		case in := <-a.input:
			a.handleInbound(in)
		case ifname := <-a.startupReq:
			a.sendInitialRequest(ifname)
		case <-a.triggerReq:
			a.armTriggered()
		case <-a.triggered.C:
			a.triggeredArmed = false
			a.sendUpdate(false)
		case <-a.periodicTimer.C:
			if a.triggeredArmed {
				if !a.triggered.Stop() {
					select {
					case <-a.triggered.C:
					default:
					}
				}
				a.triggeredArmed = false
			}
			a.sendUpdate(true)
			a.periodicTimer.Reset(a.cfg.Periods.Unsolicited + a.jitter(a.cfg.Periods.Unsolicited/2))
		}
	}
}

func (a *Agent) ensureJoined(ifname string, ifindex int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.ports[ifname]; ok {
		return nil
	}
	recv, err := sock.Listener(Port, ifname)
	if err != nil {
		return fmt.Errorf("ripagent: ensureJoined(%s): %w", ifname, err)
	}
	if err := sock.Join(recv, Group, ifname); err != nil {
		sock.Close(recv)
		return fmt.Errorf("ripagent: ensureJoined(%s): %w", ifname, err)
	}
	p := &ifacePort{name: ifname, index: ifindex, recv: recv}
	a.ports[ifname] = p
	a.wg.Add(1)
	go a.readLoop(p)
	return nil
}

func (a *Agent) readLoop(p *ifacePort) {
	defer a.wg.Done()
	buf := make([]byte, ripwire.MaxMessageSize)
	for {
		n, cm, srcAddr, err := p.recv.Packet.ReadFrom(buf)
		if err != nil {
			return
		}
		udpSrc, ok := srcAddr.(*net.UDPAddr)
		if !ok || cm == nil {
			continue
		}
		b := make([]byte, n)
		copy(b, buf[:n])
		msg := inbound{raw: b, src: *udpSrc, ifName: p.name, ifIndex: cm.IfIndex, ttl: cm.TTL}
		select {
		case a.input <- msg:
		case <-a.done:
			return
		}
	}
}

func (a *Agent) ensureSendSocket(ifname string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.ports[ifname]
	if !ok {
		return fmt.Errorf("ripagent: ensureSendSocket: interface %s not joined", ifname)
	}
	if p.send != nil {
		return nil
	}
	conn, err := sock.NewSender(Port, ifname)
	if err != nil {
		return fmt.Errorf("ripagent: ensureSendSocket(%s): %w", ifname, err)
	}
	p.send = conn
	return nil
}

func (a *Agent) closeSendSocket(ifname string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.ports[ifname]
	if !ok || p.send == nil {
		return
	}
	p.send.Close()
	p.send = nil
}

func (a *Agent) isLocalAddress(ip net.IP) bool {
	ifaces, err := a.hw.Interfaces()
	if err != nil {
		return false
	}
	for _, ifi := range ifaces {
		addrs, err := a.hw.Addresses(ifi.Name)
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if addr.IP.Equal(ip) {
				return true
			}
		}
	}
	return false
}

func (a *Agent) randRange(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(a.rng.Int63n(int64(max-min+1)))
}

func (a *Agent) jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(a.rng.Int63n(int64(max) + 1))
}

func isDefaultRoute(n net.IPNet) bool {
	ones, bits := n.Mask.Size()
	return ones == 0 && bits == 32 && n.IP.Equal(net.IPv4zero)
}
