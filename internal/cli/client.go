// Package cli is the RIP agent's console transport: a line-oriented TCP
// server (grounded on src/cli/telnet.go's accept-loop-plus-output-channel
// shape) that feeds lines to internal/command's dispatcher. The teacher's
// byte-level telnet option negotiation and character-mode line editing are
// dropped (see DESIGN.md) in favor of a plain line reader — a real telnet
// client's own line-editing handles that locally, and RIP's console has no
// need for the teacher's password/user login states (the domain's
// Non-goals explicitly exclude authentication).
package cli

import (
	"bufio"
	"fmt"
	"log"
	"net"

	"ripd/internal/command"
)

// Client is one connected console session. It implements
// command.CmdClient: Dispatch calls back into it to report output and to
// track the session's current config path.
type Client struct {
	conn       net.Conn
	out        chan string
	configPath string
	status     int
	history    []string
}

func newClient(conn net.Conn) *Client {
	return &Client{conn: conn, out: make(chan string, 64), status: command.EXEC}
}

func (c *Client) ConfigPath() string        { return c.configPath }
func (c *Client) ConfigPathSet(path string) { c.configPath = path }
func (c *Client) Status() int               { return c.status }
func (c *Client) Sendln(msg string)         { c.out <- msg + "\r\n" }

func (c *Client) statusReset()   { c.configPath = "" }
func (c *Client) enterConf()     { c.status = command.CONF }
func (c *Client) exitConf()      { c.status = command.EXEC; c.statusReset() }
func (c *Client) enterEnable()   { c.status = command.ENAB }

func (c *Client) prompt() string {
	switch c.status {
	case command.CONF:
		if c.configPath != "" {
			return fmt.Sprintf("rip(config-%s)# ", c.configPath)
		}
		return "rip(config)# "
	case command.ENAB:
		return "rip# "
	default:
		return "rip> "
	}
}

// outputLoop drains c.out to the connection until it closes.
func (c *Client) outputLoop() {
	for msg := range c.out {
		if _, err := c.conn.Write([]byte(msg)); err != nil {
			return
		}
	}
}

// inputLoop reads newline-terminated commands and dispatches each one,
// writing the session's prompt after every command.
func inputLoop(ctx command.ConfContext, c *Client) {
	c.Sendln("")
	c.Sendln("ripd console ready")
	c.out <- c.prompt()

	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		line := scanner.Text()
		handleLine(ctx, c, line)
		c.out <- c.prompt()
	}
	close(c.out)
}

func handleLine(ctx command.ConfContext, c *Client, line string) {
	c.history = append(c.history, line)
	switch line {
	case "":
		return
	case "enable":
		c.enterEnable()
		return
	case "configure":
		if c.status < command.ENAB {
			c.Sendln("% configure requires enable mode")
			return
		}
		c.enterConf()
		return
	case "exit", "end":
		if c.configPath != "" {
			parent, _ := command.StripLastToken(c.configPath)
			c.configPath = parent
			return
		}
		if c.status == command.CONF {
			c.exitConf()
		}
		return
	}

	if err := command.Dispatch(ctx, line, c); err != nil {
		c.Sendln(fmt.Sprintf("%% %v", err))
	}
}

// Server accepts console connections and hands each one to ctx's command
// tree via a fresh Client.
type Server struct {
	Addr string
	Ctx  command.ConfContext
}

// ListenAndServe runs the accept loop. It blocks until the listener fails.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("cli.ListenAndServe: %w", err)
	}
	log.Printf("cli.Server: listening on %s", s.Addr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("cli.ListenAndServe: accept: %w", err)
		}
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer conn.Close()
	log.Printf("cli.Server: connection from %s", conn.RemoteAddr())
	c := newClient(conn)
	go c.outputLoop()
	inputLoop(s.Ctx, c)
	log.Printf("cli.Server: closing connection from %s", conn.RemoteAddr())
}
