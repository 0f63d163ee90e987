// Command ripd runs the RIPv2 agent: it joins every non-excluded
// interface, exchanges RIPv2 datagrams per RFC 2453, and exposes a
// telnet-style console for inspection and configuration. Adapted from
// src/rip/rip.go's main, generalized from that daemon's config-file
// bootstrap to this agent's in-memory candidate/active model (§9,
// DESIGN.md).
package main

import (
	"flag"
	"log"
	"time"

	"ripd/internal/cli"
	"ripd/internal/config"
	"ripd/internal/console"
	"ripd/internal/fwd"
	"ripd/internal/ripagent"
)

func main() {
	var (
		consoleAddr = flag.String("console", ":2600", "telnet console listen address")
		bogus       = flag.Bool("bogus", false, "use the in-memory bogus dataplane instead of the host's real interfaces")
	)
	flag.Parse()

	log.Printf("ripd: starting")

	var hw fwd.Dataplane
	if *bogus {
		hw = fwd.NewBogus()
	} else {
		hw = fwd.NewLinux()
	}

	cfg := config.New()
	// Seeded from wall-clock time, not a fixed constant: two routers started
	// around the same moment must not draw the same jitter sequence, or
	// their periodic/triggered timers stay lock-stepped forever (§4.4).
	// The fixed-seed New(..., 1) path stays reserved for tests that need
	// reproducible timing.
	agent := ripagent.New(hw, cfg, time.Now().UnixNano())

	if err := agent.Start(); err != nil {
		log.Fatalf("ripd: agent.Start: %v", err)
	}
	defer agent.Close()

	ctx := console.New(agent, cfg)
	server := &cli.Server{Addr: *consoleAddr, Ctx: ctx}

	log.Printf("ripd: console listening on %s", *consoleAddr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("ripd: console: %v", err)
	}
}
