package cli

import (
	"bufio"
	"net"
	"testing"

	"ripd/internal/command"
)

type testCtx struct {
	root      *command.CmdNode
	candidate *command.ConfNode
	active    *command.ConfNode
}

func (c *testCtx) CmdRoot() *command.CmdNode            { return c.root }
func (c *testCtx) ConfRootCandidate() *command.ConfNode { return c.candidate }
func (c *testCtx) ConfRootActive() *command.ConfNode    { return c.active }

func newTestCtx() *testCtx {
	root := &command.CmdNode{}
	command.CmdInstall(root, command.CmdNone, "show version", command.EXEC,
		func(_ command.ConfContext, _ *command.CmdNode, _ string, cl command.CmdClient) {
			cl.Sendln("ripd test build")
		}, nil, "show version")
	return &testCtx{root: root, candidate: &command.ConfNode{}, active: &command.ConfNode{}}
}

func TestPromptReflectsStatus(t *testing.T) {
	conn, _ := net.Pipe()
	defer conn.Close()
	c := newClient(conn)

	if got := c.prompt(); got != "rip> " {
		t.Errorf("exec prompt = %q", got)
	}
	c.enterEnable()
	if got := c.prompt(); got != "rip# " {
		t.Errorf("enable prompt = %q", got)
	}
	c.enterConf()
	if got := c.prompt(); got != "rip(config)# " {
		t.Errorf("conf prompt = %q", got)
	}
	c.ConfigPathSet("interface eth0")
	if got := c.prompt(); got != "rip(config-interface eth0)# " {
		t.Errorf("conf-path prompt = %q", got)
	}
}

func TestHandleLineEnableThenConfigureGate(t *testing.T) {
	conn, _ := net.Pipe()
	defer conn.Close()
	ctx := newTestCtx()
	c := newClient(conn)

	handleLine(ctx, c, "configure")
	if c.status != command.EXEC {
		t.Errorf("configure should be rejected before enable")
	}

	handleLine(ctx, c, "enable")
	if c.status != command.ENAB {
		t.Errorf("enable did not raise status")
	}

	handleLine(ctx, c, "configure")
	if c.status != command.CONF {
		t.Errorf("configure after enable did not enter config mode")
	}

	handleLine(ctx, c, "exit")
	if c.status != command.EXEC {
		t.Errorf("exit from top-level config should return to EXEC")
	}
}

func TestHandleLineDispatchesToCommandTree(t *testing.T) {
	conn, _ := net.Pipe()
	defer conn.Close()
	ctx := newTestCtx()
	c := newClient(conn)

	handleLine(ctx, c, "show version")
	msg := <-c.out
	if msg != "ripd test build\r\n" {
		t.Errorf("unexpected output: %q", msg)
	}
}

func TestServerServesOneConnection(t *testing.T) {
	ctx := newTestCtx()
	clientConn, serverConn := net.Pipe()

	done := make(chan struct{})
	go func() {
		s := &Server{Ctx: ctx}
		s.serve(serverConn)
		close(done)
	}()

	r := bufio.NewReader(clientConn)
	if _, err := r.ReadString('\n'); err != nil {
		t.Fatalf("read greeting blank line: %v", err)
	}
	if line, err := r.ReadString('\n'); err != nil || line != "ripd console ready\r\n" {
		t.Fatalf("unexpected greeting: %q err=%v", line, err)
	}

	clientConn.Close()
	<-done
}
